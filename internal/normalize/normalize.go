// Package normalize turns whatever the upstream model returned into the stable
// worksheet response. It never fails: every field the model leaves out or
// gets wrong is filled from the heuristic analysis of the source text.
package normalize

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/aontas/internal/analyze"
	"github.com/ppiankov/aontas/internal/model"
)

const (
	// maxItems caps exercises and answer keys
	maxItems = 6
	// summaryWords is the length of the heuristic student text
	summaryWords = 220
	// vocabSize is the number of heuristic pre-teach words
	vocabSize = 10

	notesNoModel      = "AI fallback used; source not verified by the model."
	notesModelSkipped = "Model did not supply notes; heuristics used."
)

// DefaultExercises are used when the model supplies no usable exercises
var DefaultExercises = []string{
	"Reading: True/False/Not Given (5)",
	"Short Answer (3)",
}

// DefaultAnswerKey is used when the model supplies no usable answer key
var DefaultAnswerKey = []string{
	"(Create T/F/NG answers using the text.)",
	"(Short answers will vary; accept paraphrases.)",
}

// Input is the request context a response is normalized against
type Input struct {
	Text         string // Resolved source text
	Source       string // Origin label, copied to the response unchanged
	Request      model.GenerationRequest
	Path         model.GenerationPath
	CreditName   string // Configured default name when the request has none
	Verification *model.SourceVerification
}

// Normalize builds a response from model content. present is false when no
// upstream content exists at all; content that is not a JSON object is
// treated like an empty object.
func Normalize(content string, present bool, in Input) model.GenerationResponse {
	fields := map[string]any{}
	if present {
		fields = parseObject(content)
	}

	resp := model.GenerationResponse{
		StudentText:        stringField(fields, "student_text", "studentText"),
		Exercises:          listField(fields, maxItems, "exercises"),
		AnswerKey:          listField(fields, maxItems, "answer_key", "answerKey"),
		Source:             in.Source,
		Credit:             credit(stringField(fields, "credit"), in),
		TeacherPanel:       panel(fields, in),
		SourceVerification: in.Verification,
	}

	if resp.StudentText == "" {
		resp.StudentText = Summary(in.Text, in.Request)
	}
	if len(resp.Exercises) == 0 {
		resp.Exercises = append([]string(nil), DefaultExercises...)
	}
	if len(resp.AnswerKey) == 0 {
		resp.AnswerKey = append([]string(nil), DefaultAnswerKey...)
	}
	return resp
}

// Fallback builds a response entirely from heuristics for the no-credential
// and degraded paths
func Fallback(in Input) model.GenerationResponse {
	return Normalize("", false, in)
}

// Summary is the heuristic student text
func Summary(text string, req model.GenerationRequest) string {
	summary := fmt.Sprintf("Neutralised summary (%s • %s). %s", req.CEFR, req.Exam, analyze.TrimToWords(text, summaryWords))
	return strings.TrimSpace(summary)
}

func parseObject(content string) map[string]any {
	var fields map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &fields); err != nil || fields == nil {
		return map[string]any{}
	}
	return fields
}

func credit(modelCredit string, in Input) string {
	base := modelCredit
	if base == "" {
		name := strings.TrimSpace(in.Request.TeacherName)
		if name == "" {
			name = strings.TrimSpace(in.CreditName)
		}
		if name == "" {
			name = model.DefaultTeacherName
		}
		base = "Prepared by " + name
	}
	return base + " • " + in.Path.CreditSuffix()
}

func panel(fields map[string]any, in Input) model.TeacherPanel {
	raw, _ := lookup(fields, "teacher_panel", "teacherPanel")
	obj, ok := raw.(map[string]any)
	if !ok {
		obj = map[string]any{}
	}

	notes := notesModelSkipped
	if in.Path != model.PathModel {
		notes = notesNoModel
	}

	p := model.TeacherPanel{
		CEFRRationale: stringField(obj, "cefr_rationale", "cefrRationale"),
		SourceNotes:   stringField(obj, "source_notes", "sourceNotes"),
	}
	if p.CEFRRationale == "" {
		p.CEFRRationale = analyze.Rationale(analyze.Analyze(in.Text))
	}
	if p.SourceNotes == "" {
		p.SourceNotes = notes
	}

	p.SensitiveFlags = panelList(obj, func() []string { return analyze.FlagSensitive(in.Text) },
		"sensitive_flags", "sensitiveFlags")
	p.InclusiveNotes = panelList(obj, func() []string { return analyze.InclusiveNotes(in.Text) },
		"inclusive_notes", "inclusiveNotes")
	p.Differentiation = panelList(obj, func() []string { return analyze.DifferentiationByCEFR(in.Request.CEFR) },
		"differentiation")
	p.PreteachVocab = panelList(obj, func() []string { return analyze.PreteachVocab(in.Text, vocabSize) },
		"preteach_vocab", "preteachVocab", "pretech_vocab")
	return p
}

// panelList keeps a list the model supplied, even an empty one, and computes
// the heuristic value otherwise
func panelList(obj map[string]any, heuristic func() []string, keys ...string) []string {
	raw, ok := lookup(obj, keys...)
	if ok {
		if items, valid := toItems(raw, 0); valid {
			return items
		}
	}
	return heuristic()
}

func lookup(fields map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := fields[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringField(fields map[string]any, keys ...string) string {
	v, _ := lookup(fields, keys...)
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func listField(fields map[string]any, limit int, keys ...string) []string {
	v, ok := lookup(fields, keys...)
	if !ok {
		return nil
	}
	items, _ := toItems(v, limit)
	return items
}

// toItems converts a JSON array, object map or string into display items.
// valid is false for values that cannot be read as a list.
func toItems(v any, limit int) (items []string, valid bool) {
	items = []string{}
	switch t := v.(type) {
	case []any:
		for _, el := range t {
			if s := render(el); s != "" {
				items = append(items, s)
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sortKeys(keys)
		for _, k := range keys {
			if s := render(t[k]); s != "" {
				items = append(items, k+": "+s)
			}
		}
	case string:
		if s := strings.TrimSpace(t); s != "" {
			items = append(items, s)
		}
	default:
		return items, false
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, true
}

// render turns one list element into text. Objects use the first of their
// task-like keys; nested arrays are joined.
func render(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, el := range t {
			if s := render(el); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		for _, k := range []string{"task", "question", "prompt", "text", "answer"} {
			if s := render(t[k]); s != "" {
				return s
			}
		}
	}
	return ""
}

// sortKeys orders numeric keys numerically ("2" before "10") and the rest
// alphabetically after them
func sortKeys(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		a, aErr := strconv.Atoi(keys[i])
		b, bErr := strconv.Atoi(keys[j])
		switch {
		case aErr == nil && bErr == nil:
			return a < b
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		}
		return keys[i] < keys[j]
	})
}
