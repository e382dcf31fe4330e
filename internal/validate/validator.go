// Package validate checks generation requests and classifies source authority.
package validate

import (
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/aontas/internal/model"
)

// Field limits for free-text request fields
const (
	maxExamRunes    = 80
	maxNameRunes    = 80
	maxLocaleRunes  = 16
	maxRawInputSize = 200_000
)

// Validator turns a decoded request body into a GenerationRequest
type Validator struct {
	llm model.LLMConfig
}

// NewValidator creates a validator bound to the model allow-list
func NewValidator(llm model.LLMConfig) *Validator {
	return &Validator{llm: llm}
}

// Validate applies defaults and rejects unusable input with a
// *model.ValidationError. A model override outside the allow-list is
// replaced by the configured default rather than rejected.
func (v *Validator) Validate(body model.GenerateBody) (model.GenerationRequest, error) {
	input := strings.TrimSpace(body.Input)
	if input == "" {
		return model.GenerationRequest{}, model.NewValidationError("Missing input")
	}
	if len(input) > maxRawInputSize {
		input = truncateRunes(input, maxRawInputSize)
	}

	level, err := model.ParseLevel(body.CEFR)
	if err != nil {
		return model.GenerationRequest{}, err
	}

	req := model.GenerationRequest{
		Input:       input,
		CEFR:        level,
		Exam:        truncateRunes(strings.TrimSpace(body.Exam), maxExamRunes),
		Inclusive:   true,
		Locale:      truncateRunes(strings.TrimSpace(body.Locale), maxLocaleRunes),
		TeacherName: truncateRunes(strings.TrimSpace(body.TeacherName), maxNameRunes),
		Model:       v.llm.ResolveModel(strings.TrimSpace(body.Model)),
	}
	if body.Inclusive != nil {
		req.Inclusive = *body.Inclusive
	}
	if req.Exam == "" {
		req.Exam = model.DefaultExam
	}
	if req.Locale == "" {
		req.Locale = model.DefaultLocale
	}
	return req, nil
}

// truncateRunes cuts s to at most n runes without splitting a character
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
