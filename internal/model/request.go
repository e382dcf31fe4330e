package model

import (
	"strings"
)

// Level is a CEFR proficiency level
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

// Levels lists every CEFR level in ascending order
var Levels = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// ParseLevel parses a CEFR level case-insensitively. An empty string yields
// the default level.
func ParseLevel(s string) (Level, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return DefaultLevel, nil
	}
	for _, l := range Levels {
		if string(l) == s {
			return l, nil
		}
	}
	return "", NewValidationError("Invalid cefr %q (expected one of A1, A2, B1, B2, C1, C2)", s)
}

// Request defaults, taken from the public embed endpoint
const (
	DefaultLevel       = LevelB1
	DefaultExam        = "Cambridge B2"
	DefaultLocale      = "IE"
	PastedTextOrigin   = "pasted text"
	DefaultTeacherName = "[Your Name]"
)

// GenerationRequest is a single worksheet generation request
type GenerationRequest struct {
	Input       string
	CEFR        Level
	Exam        string
	Inclusive   bool
	Locale      string
	TeacherName string
	Model       string // Optional model override, honoured only if allow-listed
}

// GenerateBody is the JSON body accepted by the generate endpoint
type GenerateBody struct {
	Input       string `json:"input"`
	CEFR        string `json:"cefr"`
	Exam        string `json:"exam"`
	Inclusive   *bool  `json:"inclusive"`
	Locale      string `json:"locale,omitempty"`
	TeacherName string `json:"teacherName,omitempty"`
	Model       string `json:"model,omitempty"`
}

// ResolvedSource is the text a request operates on after input resolution
type ResolvedSource struct {
	Text          string `json:"text"`
	OriginLabel   string `json:"origin"`                 // "pasted text" or the URL
	FetchedMarkup string `json:"-"`                      // Raw markup, only for successful HTML fetches
	HasMarkup     bool   `json:"has_markup"`             // Whether FetchedMarkup is populated
	ContentType   string `json:"content_type,omitempty"` // Content-Type of the fetched body
	Adapter       string `json:"adapter,omitempty"`      // Content adapter used on the markup
	FetchError    string `json:"fetch_error,omitempty"`  // Why a URL fetch degraded to the raw URL
}

// IsURL reports whether the source originated from a URL
func (r ResolvedSource) IsURL() bool {
	return r.OriginLabel != PastedTextOrigin
}

// HeuristicMetrics holds readability metrics of a text
type HeuristicMetrics struct {
	AvgSentenceLength int `json:"avg_sentence_length"`
	PctLongWords      int `json:"pct_long_words"` // 0-100
	TotalWords        int `json:"total_words"`
}
