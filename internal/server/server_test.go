package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ppiankov/aontas/internal/llm"
	"github.com/ppiankov/aontas/internal/model"
	"github.com/ppiankov/aontas/internal/pipeline"
)

type stubGenerator struct {
	gen  *model.Generation
	err  error
	reqs []model.GenerationRequest
}

func (s *stubGenerator) Generate(ctx context.Context, req model.GenerationRequest) (*model.Generation, error) {
	s.reqs = append(s.reqs, req)
	return s.gen, s.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, gen *stubGenerator) *Server {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Server.RateLimitRPS = 0
	return New(cfg, gen, zap.NewNop())
}

func do(s *Server, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func sampleResponse() model.GenerationResponse {
	return model.GenerationResponse{
		StudentText: "Dia duit. Tidy Towns volunteers met on Saturday.",
		Exercises:   []string{"Reading: True/False/Not Given (5)"},
		AnswerKey:   []string{"1. True"},
		Source:      "pasted text",
		Credit:      "Prepared by Ms Byrne • real-v1",
		TeacherPanel: model.TeacherPanel{
			CEFRRationale:   "Short sentences.",
			SensitiveFlags:  []string{},
			InclusiveNotes:  []string{"Use people-first language."},
			Differentiation: []string{"Pair weaker readers with a partner."},
			PreteachVocab:   []string{"volunteers"},
		},
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &stubGenerator{})
	rec := do(s, http.MethodGet, "/api/health", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, true, out["ok"])
	assert.NotEmpty(t, out["ts"])
}

func TestGenerate(t *testing.T) {
	gen := &stubGenerator{gen: &model.Generation{Response: sampleResponse(), Path: model.PathModel}}
	s := newTestServer(t, gen)

	rec := do(s, http.MethodPost, "/api/generate",
		`{"input":"  Dia duit.  ","cefr":"b2","teacherName":"Ms Byrne"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "real-v1", rec.Header().Get(model.GenVersionHeader))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	var resp model.GenerationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Prepared by Ms Byrne • real-v1", resp.Credit)

	require.Len(t, gen.reqs, 1)
	assert.Equal(t, "Dia duit.", gen.reqs[0].Input)
	assert.Equal(t, model.LevelB2, gen.reqs[0].CEFR)
	assert.Equal(t, model.DefaultExam, gen.reqs[0].Exam)
	assert.True(t, gen.reqs[0].Inclusive)
}

func TestGenerateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"empty body", "", "Missing input"},
		{"invalid json", `{"input":`, "Missing input"},
		{"blank input", `{"input":"   "}`, "Missing input"},
		{"unknown level", `{"input":"text","cefr":"Z9"}`, `Invalid cefr "Z9" (expected one of A1, A2, B1, B2, C1, C2)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{}
			s := newTestServer(t, gen)

			rec := do(s, http.MethodPost, "/api/generate", tt.body, nil)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantErr, decode(t, rec)["error"])
			assert.Empty(t, gen.reqs)
		})
	}
}

func TestGenerateUpstreamError(t *testing.T) {
	gen := &stubGenerator{err: llm.NewUpstreamError(http.StatusUnauthorized, "invalid api key")}
	s := newTestServer(t, gen)

	rec := do(s, http.MethodPost, "/api/generate", `{"input":"text"}`, nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	out := decode(t, rec)
	assert.Equal(t, "Upstream error 401", out["error"])
	assert.Equal(t, "invalid api key", out["detail"])
	assert.Empty(t, rec.Header().Get(model.GenVersionHeader))
}

func TestGenerateWithoutProvider(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Server.RateLimitRPS = 0
	p, err := pipeline.NewPipeline(cfg, pipeline.WithProvider(nil), pipeline.WithLogger(zap.NewNop()))
	require.NoError(t, err)
	s := New(cfg, p, zap.NewNop())

	rec := do(s, http.MethodPost, "/api/generate",
		`{"input":"Education is vital. Teachers prepare interesting materials.","inclusive":false}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fallback-no-key", rec.Header().Get(model.GenVersionHeader))

	var resp model.GenerationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "pasted text", resp.Source)
	assert.True(t, strings.HasSuffix(resp.Credit, " • fallback"), resp.Credit)
	assert.NotEmpty(t, resp.Exercises)
	assert.NotNil(t, resp.TeacherPanel.SensitiveFlags)
}

func TestRequestIDIsReused(t *testing.T) {
	s := newTestServer(t, &stubGenerator{})
	rec := do(s, http.MethodGet, "/api/health", "", map[string]string{RequestIDHeader: "abc-123"})

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, &stubGenerator{})

	rec := do(s, http.MethodOptions, "/api/generate", "", map[string]string{
		"Origin":                         "http://localhost:3000",
		"Access-Control-Request-Method":  "POST",
		"Access-Control-Request-Headers": "Content-Type",
	})

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	s := newTestServer(t, &stubGenerator{})

	rec := do(s, http.MethodOptions, "/api/generate", "", map[string]string{
		"Origin":                        "https://evil.example",
		"Access-Control-Request-Method": "POST",
	})

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Server.RateLimitRPS = 0.001
	cfg.Server.RateLimitBurst = 1
	gen := &stubGenerator{gen: &model.Generation{Response: sampleResponse(), Path: model.PathModel}}
	s := New(cfg, gen, zap.NewNop())

	first := do(s, http.MethodPost, "/api/generate", `{"input":"text"}`, nil)
	second := do(s, http.MethodPost, "/api/generate", `{"input":"text"}`, nil)

	assert.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "rate limited", decode(t, second)["error"])
	assert.Len(t, gen.reqs, 1)

	// Health is never limited
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/api/health", "", nil).Code)
}

func TestExportMarkdown(t *testing.T) {
	s := newTestServer(t, &stubGenerator{})
	data, err := json.Marshal(sampleResponse())
	require.NoError(t, err)

	rec := do(s, http.MethodPost, "/api/export/markdown", `{"data":`+string(data)+`}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="worksheet.md"`, rec.Header().Get("Content-Disposition"))
	body := rec.Body.String()
	assert.Contains(t, body, "# Student Text")
	assert.Contains(t, body, "Learning Differences (LD)")
	assert.Contains(t, body, "Prepared by Ms Byrne • real-v1")
}

func TestExportHTMLWithoutLD(t *testing.T) {
	s := newTestServer(t, &stubGenerator{})
	data, err := json.Marshal(sampleResponse())
	require.NoError(t, err)

	rec := do(s, http.MethodPost, "/api/export/html", `{"includeLD":false,"data":`+string(data)+`}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="worksheet.html"`, rec.Header().Get("Content-Disposition"))
	body := rec.Body.String()
	assert.Contains(t, body, "<h1>Student Text</h1>")
	assert.NotContains(t, body, "Learning Differences")
}

func TestExportRequiresData(t *testing.T) {
	s := newTestServer(t, &stubGenerator{})

	for _, body := range []string{"", `{}`, `{"data":`} {
		rec := do(s, http.MethodPost, "/api/export/markdown", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "Missing data", decode(t, rec)["error"])
	}
}
