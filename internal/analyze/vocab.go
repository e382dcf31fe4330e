package analyze

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// minVocabRunes is the shortest word considered for pre-teaching
const minVocabRunes = 6

var stopwords = toSet(
	"the", "a", "an", "and", "or", "but", "to", "of", "in", "on", "at", "for", "with",
	"by", "from", "as", "that", "this", "it", "is", "are", "was", "were", "be", "been",
	"being", "which", "who", "whom", "whose", "than", "then", "so", "such", "into",
	"about", "over", "under", "between", "after", "before", "because", "while", "if",
	"though", "although", "however", "there", "their", "they", "them", "we", "our",
	"you", "your", "i", "me", "my",
)

// PreteachVocab returns up to n frequent content words of text, most frequent
// first and alphabetical within a frequency
func PreteachVocab(text string, n int) []string {
	if n <= 0 {
		return []string{}
	}

	freq := make(map[string]int)
	for _, w := range Words(strings.ToLower(text)) {
		w = strings.Trim(w, `'’"“”‘-`)
		if utf8.RuneCountInString(w) < minVocabRunes {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		freq[w]++
	}

	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > n {
		words = words[:n]
	}
	return words
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
