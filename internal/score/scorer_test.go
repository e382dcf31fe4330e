package score

import (
	"strings"
	"testing"

	"github.com/ppiankov/aontas/internal/model"
	"github.com/ppiankov/aontas/internal/validate"
)

const richPage = `<html><head>
<link rel="canonical" href="https://news.example.ie/story">
<meta property="og:title" content="Story">
<meta property="article:published_time" content="2024-05-01T09:00:00Z">
</head><body><a href="/1">one</a><a href="/2">two</a><a href="/3">three</a>
<p>%s</p></body></html>`

func longBody(words int) string {
	return strings.TrimSpace(strings.Repeat("word ", words))
}

func TestVerifier_Verify_FullMarks(t *testing.T) {
	v := NewVerifier(nil)
	markup := strings.Replace(richPage, "%s", longBody(400), 1)

	result := v.Verify("https://news.example.ie/story", markup, true)

	if result.Score != 100 {
		t.Errorf("Expected score 100, got %d", result.Score)
	}
	if result.Verdict != model.VerdictReputable {
		t.Errorf("Expected reputable verdict, got %s", result.Verdict)
	}
	if result.Checks.Domain != "news.example.ie" {
		t.Errorf("Unexpected domain %q", result.Checks.Domain)
	}
	if result.Checks.LinkCount != 3 {
		t.Errorf("Expected 3 links, got %d", result.Checks.LinkCount)
	}
	if result.Notes != "" {
		t.Errorf("Expected no notes, got %q", result.Notes)
	}
	if len(result.Breakdown) != 7 {
		t.Errorf("Expected 7 breakdown entries, got %d", len(result.Breakdown))
	}
}

func TestVerifier_Verify_PlainText(t *testing.T) {
	v := NewVerifier(nil)

	result := v.Verify("https://example.com/a.txt", "", false)

	// https + tld only
	if result.Score != 30 {
		t.Errorf("Expected score 30, got %d", result.Score)
	}
	if result.Verdict != model.VerdictUnknown {
		t.Errorf("Expected unknown verdict, got %s", result.Verdict)
	}
	if result.Notes != "Fetched as plain text; limited checks." {
		t.Errorf("Unexpected notes %q", result.Notes)
	}
	if result.Checks.HasCanonical || result.Checks.HasOG || result.Checks.HasDateMeta ||
		result.Checks.WordCount != 0 || result.Checks.LinkCount != 0 {
		t.Errorf("Expected markup checks to be zero, got %+v", result.Checks)
	}
}

func TestVerifier_Verify_HTTPAndBadTLD(t *testing.T) {
	v := NewVerifier(nil)

	result := v.Verify("http://localhost:8080/page", "<p>hi</p>", true)

	if result.Checks.IsHTTPS {
		t.Error("Expected IsHTTPS to be false")
	}
	if result.Checks.TLDOK {
		t.Error("Expected TLDOK to be false for localhost")
	}
	if result.Score != 0 {
		t.Errorf("Expected score 0, got %d", result.Score)
	}
}

func TestVerifier_Verify_ScoreMatchesBreakdown(t *testing.T) {
	v := NewVerifier(nil)
	inputs := []struct {
		url    string
		markup string
	}{
		{"https://a.ie", `<link rel="canonical" href="x">`},
		{"http://b.com", `<meta property="og:type" content="article"><a href=1></a>`},
		{"https://c.org", strings.Replace(richPage, "%s", "short", 1)},
	}

	for _, in := range inputs {
		result := v.Verify(in.url, in.markup, true)
		sum := 0
		for _, s := range result.Breakdown {
			sum += s.Points
		}
		if sum != result.Score {
			t.Errorf("%s: breakdown sums to %d, score is %d", in.url, sum, result.Score)
		}
		if result.Score < 0 || result.Score > 100 {
			t.Errorf("%s: score %d out of range", in.url, result.Score)
		}
	}
}

func TestVerifier_Verify_Deterministic(t *testing.T) {
	v := NewVerifier(nil)
	markup := strings.Replace(richPage, "%s", longBody(50), 1)

	first := v.Verify("https://example.org/x", markup, true)
	for i := 0; i < 10; i++ {
		again := v.Verify("https://example.org/x", markup, true)
		if again.Score != first.Score || again.Verdict != first.Verdict || again.Checks != first.Checks {
			t.Fatalf("Verification not deterministic: %+v vs %+v", first, again)
		}
	}
}

func TestVerifier_Verify_Authority(t *testing.T) {
	v := NewVerifier(validate.NewAuthorityClassifier(nil))

	result := v.Verify("https://en.wikipedia.org/wiki/Cork", "", false)

	if result.Checks.Authority != model.TierSecondary {
		t.Errorf("Expected secondary authority, got %q", result.Checks.Authority)
	}
	if result.Score != 30 {
		t.Errorf("Authority must not change the score, got %d", result.Score)
	}
}

func TestVerdictFor_Monotonic(t *testing.T) {
	prev := VerdictFor(0).Rank()
	for score := 1; score <= 100; score++ {
		rank := VerdictFor(score).Rank()
		if rank < prev {
			t.Fatalf("Verdict rank dropped at score %d: %d < %d", score, rank, prev)
		}
		prev = rank
	}
}

func TestVerdictFor_Thresholds(t *testing.T) {
	tests := []struct {
		score int
		want  model.Verdict
	}{
		{0, model.VerdictUnknown},
		{34, model.VerdictUnknown},
		{35, model.VerdictAggregation},
		{54, model.VerdictAggregation},
		{55, model.VerdictLikelyOriginal},
		{74, model.VerdictLikelyOriginal},
		{75, model.VerdictReputable},
		{100, model.VerdictReputable},
	}

	for _, tt := range tests {
		if got := VerdictFor(tt.score); got != tt.want {
			t.Errorf("VerdictFor(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}
