package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/aontas/internal/model"
)

// PromptInput is everything the worksheet prompt is built from
type PromptInput struct {
	Text        string
	Source      string
	Request     model.GenerationRequest
	Metrics     model.HeuristicMetrics
	CreditName  string
	TargetWords string
}

// BuildPrompt renders the worksheet prompt. The model is asked for one JSON
// object with the response fields; anything it omits is filled in later.
func BuildPrompt(in PromptInput) string {
	inclusive := "OFF"
	if in.Request.Inclusive {
		inclusive = "ON (people-first language, avoid stereotypes; gender-neutral where sensible)"
	}
	target := in.TargetWords
	if target == "" {
		target = "200–260"
	}
	credit := in.CreditName
	if credit == "" {
		credit = model.DefaultTeacherName
	}

	var b strings.Builder
	b.WriteString("You are an ESL materials writer. Produce safe, inclusive reading materials and a teacher panel.\n\n")
	b.WriteString("INPUT TEXT:\n<<<")
	b.WriteString(in.Text)
	b.WriteString(">>>\n\n")

	fmt.Fprintf(&b, "CONTEXT:\n- CEFR: %s ; Exam: %s ; Locale: %s\n", in.Request.CEFR, in.Request.Exam, in.Request.Locale)
	fmt.Fprintf(&b, "- Inclusive profile: %s\n", inclusive)
	fmt.Fprintf(&b, "- Readability: avg_sentence_len=%d, pct_long_words=%d%%, total_words=%d\n",
		in.Metrics.AvgSentenceLength, in.Metrics.PctLongWords, in.Metrics.TotalWords)
	fmt.Fprintf(&b, "- Write a %s student_text of about %s words, neutral and factual.\n\n", in.Request.CEFR, target)

	b.WriteString("RETURN STRICT JSON (no commentary) with exactly these keys:\n")
	fmt.Fprintf(&b, `{
  "student_text": "string",
  "exercises": ["Reading: True/False/Not Given (5)", "Short Answer (3)"],
  "answer_key": ["answers for the listed tasks"],
  "source": %q,
  "credit": %q,
  "teacher_panel": {
    "cefr_rationale": "readability and vocabulary reasoning",
    "sensitive_flags": ["potential sensitivities"],
    "inclusive_notes": ["practical edits for inclusive phrasing"],
    "differentiation": ["3 concise suggestions for this CEFR level"],
    "preteach_vocab": ["10 key words or phrases to pre-teach"],
    "source_notes": "if the source is a URL, how to cite or link it"
  }
}`, in.Source, "Prepared by "+credit)
	return b.String()
}
