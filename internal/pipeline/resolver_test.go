package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/aontas/internal/budget"
	"github.com/ppiankov/aontas/internal/model"
)

// stubFetcher returns a canned result and records the URLs it was asked for
type stubFetcher struct {
	result   *FetchResult
	err      error
	requests []string
	deadline time.Time
}

func (s *stubFetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	s.requests = append(s.requests, rawURL)
	s.deadline, _ = ctx.Deadline()
	return s.result, s.err
}

func newTestResolver(f SourceFetcher, maxChars int) *Resolver {
	return NewResolver(f, model.DefaultConfig().Budget, maxChars, nil)
}

func TestResolve_PastedText(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("must not be called")}
	r := newTestResolver(fetcher, 3000)

	src, err := r.Resolve(context.Background(), "  The Shannon is the longest river in Ireland.  ", budget.New(time.Minute))
	require.NoError(t, err)

	assert.Equal(t, "The Shannon is the longest river in Ireland.", src.Text)
	assert.Equal(t, model.PastedTextOrigin, src.OriginLabel)
	assert.False(t, src.IsURL())
	assert.False(t, src.HasMarkup)
	assert.Empty(t, fetcher.requests, "pasted text must not touch the network")
}

func TestResolve_NFCAndTruncation(t *testing.T) {
	r := newTestResolver(nil, 4)

	// "e" + combining acute composes to a single rune before truncation
	src, err := r.Resolve(context.Background(), "Cafe\u0301 au lait", budget.New(time.Minute))
	require.NoError(t, err)

	assert.Equal(t, "Caf\u00e9", src.Text)
}

func TestResolve_MissingInput(t *testing.T) {
	r := newTestResolver(nil, 3000)

	for _, in := range []string{"", "   ", "\n\t"} {
		_, err := r.Resolve(context.Background(), in, budget.New(time.Minute))

		var ve *model.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "Missing input", ve.Message)
	}
}

func TestResolve_URL_HTML(t *testing.T) {
	markup := `<html><head><title>T</title><script>var x = 1;</script></head><body>
		<nav>Home | News</nav>
		<article><h1>Tidy Towns</h1><p>Volunteers   clean the village.</p></article>
		<footer>Copyright</footer></body></html>`
	fetcher := &stubFetcher{result: &FetchResult{Body: []byte(markup), ContentType: "text/html", StatusCode: 200}}
	r := newTestResolver(fetcher, 3000)

	src, err := r.Resolve(context.Background(), "https://example.ie/tidy-towns", budget.New(time.Minute))
	require.NoError(t, err)

	assert.Equal(t, "Tidy Towns Volunteers clean the village.", src.Text)
	assert.Equal(t, "https://example.ie/tidy-towns", src.OriginLabel)
	assert.True(t, src.IsURL())
	assert.True(t, src.HasMarkup)
	assert.Equal(t, markup, src.FetchedMarkup)
	assert.Equal(t, "generic", src.Adapter)
	assert.Empty(t, src.FetchError)
}

func TestResolve_URL_FetchTimeoutFromDeadline(t *testing.T) {
	fetcher := &stubFetcher{result: &FetchResult{Body: []byte("plain words"), ContentType: "text/plain"}}
	r := newTestResolver(fetcher, 3000)

	now := time.Now()
	_, err := r.Resolve(context.Background(), "https://example.ie/a", budget.New(2*time.Second))
	require.NoError(t, err)

	// min(4s, max(1s, ~2s remaining)) ≈ 2s
	timeout := fetcher.deadline.Sub(now)
	assert.InDelta(t, (2 * time.Second).Seconds(), timeout.Seconds(), 0.2)
}

func TestResolve_URL_PlainText(t *testing.T) {
	fetcher := &stubFetcher{result: &FetchResult{Body: []byte("Line one.\n\n  Line two."), ContentType: "text/plain; charset=utf-8"}}
	r := newTestResolver(fetcher, 3000)

	src, err := r.Resolve(context.Background(), "https://example.ie/notes.txt", budget.New(time.Minute))
	require.NoError(t, err)

	assert.Equal(t, "Line one. Line two.", src.Text)
	assert.False(t, src.HasMarkup)
}

func TestResolve_URL_DOCX(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, _ = w.Write([]byte(`<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>Lesson plan</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, zw.Close())

	fetcher := &stubFetcher{result: &FetchResult{
		Body:        buf.Bytes(),
		ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}}
	r := newTestResolver(fetcher, 3000)

	src, err := r.Resolve(context.Background(), "https://example.ie/plan.docx", budget.New(time.Minute))
	require.NoError(t, err)

	assert.Equal(t, "Lesson plan", src.Text)
	assert.Equal(t, "docx", src.Adapter)
	assert.False(t, src.HasMarkup)
}

func TestResolve_URL_FetchFailureDegrades(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("dial tcp: connection refused")}
	r := newTestResolver(fetcher, 3000)

	src, err := r.Resolve(context.Background(), "https://example.com/article", budget.New(time.Minute))
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/article", src.Text)
	assert.Equal(t, "https://example.com/article", src.OriginLabel)
	assert.False(t, src.HasMarkup)
	assert.Contains(t, src.FetchError, "connection refused")
}

func TestResolve_URL_BrokenPDFDegrades(t *testing.T) {
	fetcher := &stubFetcher{result: &FetchResult{Body: []byte("%PDF-1.4 not really"), ContentType: "application/pdf"}}
	r := newTestResolver(fetcher, 3000)

	src, err := r.Resolve(context.Background(), "https://example.ie/doc.pdf", budget.New(time.Minute))
	require.NoError(t, err)

	assert.Equal(t, "https://example.ie/doc.pdf", src.Text)
	assert.NotEmpty(t, src.FetchError)
}

func TestResolve_URL_EmptyPageIsMissingInput(t *testing.T) {
	fetcher := &stubFetcher{result: &FetchResult{Body: []byte("<html><body><script>x()</script></body></html>"), ContentType: "text/html"}}
	r := newTestResolver(fetcher, 3000)

	_, err := r.Resolve(context.Background(), "https://example.ie/empty", budget.New(time.Minute))

	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestIsURL(t *testing.T) {
	tests := map[string]bool{
		"https://www.rte.ie/news":      true,
		"http://example.com":           true,
		"HTTPS://EXAMPLE.COM/x":        true,
		"ftp://example.com/file":       false,
		"www.example.com":              false,
		"https://":                     false,
		"see https://example.com here": false,
		"Plain text.":                  false,
		"":                             false,
	}
	for in, want := range tests {
		assert.Equal(t, want, IsURL(in), "IsURL(%q)", in)
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "Dia d", truncateRunes("Dia duit", 5))
	assert.Equal(t, "Привет", truncateRunes(strings.Repeat("Привет", 2), 6))
	assert.Equal(t, "short", truncateRunes("short", 10))
	assert.Equal(t, "unbounded", truncateRunes("unbounded", 0))
}
