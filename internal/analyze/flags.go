package analyze

import (
	"regexp"
	"strings"

	"github.com/ppiankov/aontas/internal/model"
)

type rule struct {
	pattern *regexp.Regexp
	label   string
}

// sensitiveRules are checked in order; each contributes its label once
var sensitiveRules = []rule{
	{regexp.MustCompile(`\b(?:wars?|attack\w*|bomb\w*|terror\w*|assault\w*|violen\w*|killed|dead)\b`), "Violence/Conflict"},
	{regexp.MustCompile(`\b(?:suicid\w*|self-harm|depress\w*|anxiety|mental health)\b`), "Mental health"},
	{regexp.MustCompile(`\b(?:sexual\w*|harass\w*|abus\w*|assault\w*)\b`), "Sexual content/harassment"},
	{regexp.MustCompile(`\b(?:drugs?|alcohol\w*|addict\w*)\b`), "Substance use"},
	{regexp.MustCompile(`\b(?:religio\w*|faith\w*|church\w*|mosques?|synagogues?)\b`), "Religion (potentially sensitive)"},
	{regexp.MustCompile(`\b(?:immigra\w*|refugee\w*|asylum|migra\w*)\b`), "Migration/Identity"},
	{regexp.MustCompile(`\b(?:politic\w*|elect\w*|government\w*|polic(?:y|ies))\b`), "Politics"},
}

// inclusiveRules map exclusionary phrasing to a suggested rewrite
var inclusiveRules = []rule{
	{regexp.MustCompile(`\bhe/she\b|\bhe or she\b|\bs/he\b`),
		"Replace 'he/she' with a singular 'they' or rewrite to avoid gendered pronouns."},
	{regexp.MustCompile(`\b(?:husbands?|wi(?:fe|ves)|boyfriends?|girlfriends?)\b`),
		"Use neutral alternatives like 'partner' where appropriate."},
	{regexp.MustCompile(`\b(?:mankind|man-made)\b`),
		"Prefer 'humankind' / 'human-made'."},
	{regexp.MustCompile(`\bthe (?:disabled|poor|elderly)\b`),
		"Use people-first phrasing (e.g., 'people with disabilities')."},
	{regexp.MustCompile(`\b(?:normal people|able-bodied)\b`),
		"Avoid 'normal'; specify the attribute if needed."},
}

// FlagSensitive returns the sensitive-content categories text touches
func FlagSensitive(text string) []string {
	return matchRules(sensitiveRules, text)
}

// InclusiveNotes returns inclusive-language suggestions for text
func InclusiveNotes(text string) []string {
	return matchRules(inclusiveRules, text)
}

func matchRules(rules []rule, text string) []string {
	out := []string{}
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return out
	}

	seen := make(map[string]bool)
	for _, r := range rules {
		if seen[r.label] || !r.pattern.MatchString(lower) {
			continue
		}
		seen[r.label] = true
		out = append(out, r.label)
	}
	return out
}

var differentiation = map[model.Level][]string{
	model.LevelA2: {
		"Pre-teach 8–10 key words with visuals.",
		"Gist read with 2–3 yes/no questions.",
		"Use short, chunked paragraphs; allow L1 glossary.",
	},
	model.LevelB1: {
		"Gist → scanning tasks; underline evidence.",
		"Sentence starters for short answers.",
		"Pair-check before plenary to build confidence.",
	},
	model.LevelB2: {
		"Add inference items; justify with quotes.",
		"Noticing task for cohesive devices.",
		"Optional challenge: paraphrase 5 sentences.",
	},
	model.LevelC1: {
		"Synthesis question across two paragraphs.",
		"Author stance: identify hedging & modality.",
		"Extension: write a 120–150 word response.",
	},
}

// DifferentiationByCEFR returns three teaching tips for a level. A1 shares
// the A2 tips and C2 the C1 tips. The returned slice is owned by the caller.
func DifferentiationByCEFR(level model.Level) []string {
	switch level {
	case model.LevelA1:
		level = model.LevelA2
	case model.LevelC2:
		level = model.LevelC1
	}
	tips, ok := differentiation[level]
	if !ok {
		tips = differentiation[model.DefaultLevel]
	}
	return append([]string(nil), tips...)
}
