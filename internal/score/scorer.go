// Package score computes the heuristic trust score of a URL source.
package score

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/ppiankov/aontas/internal/analyze"
	"github.com/ppiankov/aontas/internal/extract"
	"github.com/ppiankov/aontas/internal/model"
	"github.com/ppiankov/aontas/internal/validate"
)

// Check weights. Their sum is 100.
const (
	pointsHTTPS     = 20
	pointsTLD       = 10
	pointsCanonical = 20
	pointsOG        = 15
	pointsDateMeta  = 15
	pointsWords     = 10
	pointsLinks     = 10

	minWords = 300
	minLinks = 3
)

// Verdict thresholds, checked from the top
const (
	thresholdReputable      = 75
	thresholdLikelyOriginal = 55
	thresholdAggregation    = 35
)

const plainTextNote = "Fetched as plain text; limited checks."

var tldPattern = regexp.MustCompile(`\.[a-z]{2,}$`)

// Verifier scores URL sources. It is pure: the same input always yields the
// same verification.
type Verifier struct {
	authority *validate.AuthorityClassifier
}

// NewVerifier creates a verifier. A nil classifier leaves Authority empty.
func NewVerifier(authority *validate.AuthorityClassifier) *Verifier {
	return &Verifier{authority: authority}
}

// Verify scores rawURL from its fetched markup. With hasMarkup false only
// URL-level checks run.
func (v *Verifier) Verify(rawURL, markup string, hasMarkup bool) model.SourceVerification {
	checks := model.SourceChecks{}
	if parsed, err := url.Parse(rawURL); err == nil {
		checks.Domain = strings.ToLower(parsed.Hostname())
		checks.IsHTTPS = strings.EqualFold(parsed.Scheme, "https")
	}
	checks.TLDOK = tldPattern.MatchString(checks.Domain)

	notes := ""
	if hasMarkup {
		doc, err := extract.ParseHTML(markup)
		if err == nil {
			signals := extract.ExtractSignals(doc)
			checks.HasCanonical = signals.HasCanonical
			checks.HasOG = signals.HasOG
			checks.HasDateMeta = signals.HasDateMeta
			checks.LinkCount = signals.LinkCount
			checks.WordCount = analyze.WordCount(signals.Text)
		}
	} else {
		notes = plainTextNote
	}

	if v.authority != nil {
		checks.Authority = v.authority.Classify(rawURL)
	}

	breakdown := breakdownFor(checks)
	total := 0
	for _, s := range breakdown {
		total += s.Points
	}
	if total > 100 {
		total = 100
	}

	return model.SourceVerification{
		URL:       rawURL,
		Score:     total,
		Verdict:   VerdictFor(total),
		Checks:    checks,
		Breakdown: breakdown,
		Notes:     notes,
	}
}

// VerdictFor maps a score to its verdict
func VerdictFor(score int) model.Verdict {
	switch {
	case score >= thresholdReputable:
		return model.VerdictReputable
	case score >= thresholdLikelyOriginal:
		return model.VerdictLikelyOriginal
	case score >= thresholdAggregation:
		return model.VerdictAggregation
	default:
		return model.VerdictUnknown
	}
}

// breakdownFor lists every check with the points it earned
func breakdownFor(c model.SourceChecks) []model.ScoreSignal {
	award := func(ok bool, points int) int {
		if ok {
			return points
		}
		return 0
	}

	return []model.ScoreSignal{
		{Check: "https", Points: award(c.IsHTTPS, pointsHTTPS), Formula: "scheme == https"},
		{Check: "tld", Points: award(c.TLDOK, pointsTLD), Formula: `host matches \.[a-z]{2,}$`},
		{Check: "canonical", Points: award(c.HasCanonical, pointsCanonical), Formula: `<link rel="canonical">`},
		{Check: "open_graph", Points: award(c.HasOG, pointsOG), Formula: `<meta property="og:*">`},
		{Check: "date_meta", Points: award(c.HasDateMeta, pointsDateMeta), Formula: "article:published_time|date|pubdate meta"},
		{Check: "word_count", Points: award(c.WordCount >= minWords, pointsWords), Formula: fmt.Sprintf("words >= %d (got %d)", minWords, c.WordCount)},
		{Check: "link_count", Points: award(c.LinkCount >= minLinks, pointsLinks), Formula: fmt.Sprintf("anchors >= %d (got %d)", minLinks, c.LinkCount)},
	}
}
