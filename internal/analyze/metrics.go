// Package analyze computes deterministic readability and content heuristics
// used to build the teacher panel when no model output is available.
package analyze

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/ppiankov/aontas/internal/model"
)

// wordPattern matches a word: letters or digits, optionally joined by
// apostrophes or hyphens. RE2 \b is ASCII-only, so boundaries are implicit.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’-][\p{L}\p{N}]+)*`)

// sentencePattern matches a run of terminal punctuation that ends a sentence
var sentencePattern = regexp.MustCompile(`[.!?]+(?:\s|$)`)

// longWordLetters is the letter count at which a word counts as long
const longWordLetters = 7

// Words returns the word tokens of text in order
func Words(text string) []string {
	return wordPattern.FindAllString(text, -1)
}

// WordCount returns the number of word tokens in text
func WordCount(text string) int {
	return len(Words(text))
}

// SentenceCount returns the number of sentence terminators, never less than 1
func SentenceCount(text string) int {
	n := len(sentencePattern.FindAllStringIndex(text, -1))
	if n == 0 {
		return 1
	}
	return n
}

// AvgSentenceLength returns words per sentence, rounded
func AvgSentenceLength(text string) int {
	return round(float64(WordCount(text)) / float64(SentenceCount(text)))
}

// PctLongWords returns the share of long words as a rounded percentage
func PctLongWords(text string) int {
	words := Words(text)
	long := 0
	for _, w := range words {
		if len([]rune(stripJoiners(w))) >= longWordLetters {
			long++
		}
	}
	return round(float64(long) / float64(max(1, len(words))) * 100)
}

// TrimToWords returns the first n words joined by single spaces. A period is
// appended unless the result already ends a sentence.
func TrimToWords(text string, n int) string {
	if n <= 0 {
		return ""
	}
	words := Words(text)
	if len(words) == 0 {
		return ""
	}
	if len(words) > n {
		words = words[:n]
	}
	out := strings.Join(words, " ")
	if strings.HasSuffix(out, ".") || strings.HasSuffix(out, "!") || strings.HasSuffix(out, "?") {
		return out
	}
	return out + "."
}

// Analyze computes the readability metrics of text
func Analyze(text string) model.HeuristicMetrics {
	return model.HeuristicMetrics{
		AvgSentenceLength: AvgSentenceLength(text),
		PctLongWords:      PctLongWords(text),
		TotalWords:        WordCount(text),
	}
}

// Rationale renders metrics as the heuristic CEFR rationale
func Rationale(m model.HeuristicMetrics) string {
	return fmt.Sprintf("Heuristic: avg sentence %d words; %d%% long words; %d words total.",
		m.AvgSentenceLength, m.PctLongWords, m.TotalWords)
}

func stripJoiners(w string) string {
	return strings.NewReplacer("'", "", "’", "", "-", "").Replace(w)
}

func round(f float64) int {
	return int(math.Round(f))
}
