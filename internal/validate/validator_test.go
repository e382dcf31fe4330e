package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/aontas/internal/model"
)

func newTestValidator() *Validator {
	return NewValidator(model.LLMConfig{
		Model:         "gpt-4o-mini",
		AllowedModels: []string{"gpt-4o-mini", "gpt-4o"},
	})
}

func boolPtr(b bool) *bool { return &b }

func TestValidator_Defaults(t *testing.T) {
	req, err := newTestValidator().Validate(model.GenerateBody{Input: "  Some text.  "})
	require.NoError(t, err)

	assert.Equal(t, "Some text.", req.Input)
	assert.Equal(t, model.LevelB1, req.CEFR)
	assert.Equal(t, "Cambridge B2", req.Exam)
	assert.Equal(t, "IE", req.Locale)
	assert.True(t, req.Inclusive)
	assert.Equal(t, "gpt-4o-mini", req.Model)
}

func TestValidator_ExplicitFields(t *testing.T) {
	req, err := newTestValidator().Validate(model.GenerateBody{
		Input:       "text",
		CEFR:        "c1",
		Exam:        "IELTS",
		Inclusive:   boolPtr(false),
		Locale:      "UK",
		TeacherName: "Aoife",
		Model:       "GPT-4o",
	})
	require.NoError(t, err)

	assert.Equal(t, model.LevelC1, req.CEFR)
	assert.Equal(t, "IELTS", req.Exam)
	assert.False(t, req.Inclusive)
	assert.Equal(t, "UK", req.Locale)
	assert.Equal(t, "Aoife", req.TeacherName)
	assert.Equal(t, "gpt-4o", req.Model)
}

func TestValidator_MissingInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t"} {
		_, err := newTestValidator().Validate(model.GenerateBody{Input: input})

		var verr *model.ValidationError
		require.True(t, errors.As(err, &verr), "input %q", input)
		assert.Equal(t, "Missing input", verr.Message)
	}
}

func TestValidator_InvalidLevel(t *testing.T) {
	_, err := newTestValidator().Validate(model.GenerateBody{Input: "text", CEFR: "D9"})

	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Message, "Invalid cefr")
}

func TestValidator_DisallowedModelFallsBack(t *testing.T) {
	req, err := newTestValidator().Validate(model.GenerateBody{Input: "text", Model: "gpt-5-ultra"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", req.Model)
}

func TestValidator_TruncatesLongFields(t *testing.T) {
	req, err := newTestValidator().Validate(model.GenerateBody{
		Input: "text",
		Exam:  strings.Repeat("é", 200),
	})
	require.NoError(t, err)
	assert.Equal(t, maxExamRunes, len([]rune(req.Exam)))
}
