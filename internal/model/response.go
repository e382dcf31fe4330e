package model

// GenerationResponse is the stable contract consumed by the preview UI and
// every exporter. All slices are non-nil once normalized.
type GenerationResponse struct {
	StudentText        string              `json:"student_text"`
	Exercises          []string            `json:"exercises"`
	AnswerKey          []string            `json:"answer_key"`
	Source             string              `json:"source"`
	Credit             string              `json:"credit"`
	TeacherPanel       TeacherPanel        `json:"teacher_panel"`
	SourceVerification *SourceVerification `json:"source_verification,omitempty"`
}

// TeacherPanel is the pedagogical metadata shown next to the student text
type TeacherPanel struct {
	CEFRRationale   string   `json:"cefr_rationale"`
	SensitiveFlags  []string `json:"sensitive_flags"`
	InclusiveNotes  []string `json:"inclusive_notes"`
	Differentiation []string `json:"differentiation"`
	PreteachVocab   []string `json:"preteach_vocab"`
	SourceNotes     string   `json:"source_notes,omitempty"`
}

// GenerationPath identifies which pipeline path produced a response
type GenerationPath string

const (
	PathModel        GenerationPath = "real-v1"         // Model output, normalized
	PathNoCredential GenerationPath = "fallback-no-key" // No provider configured
	PathDegraded     GenerationPath = "fallback"        // Upstream busy or unreachable
)

// GenVersionHeader carries the GenerationPath on HTTP responses
const GenVersionHeader = "X-Gen-Version"

// CreditSuffix returns the attribution suffix appended to every credit line
func (p GenerationPath) CreditSuffix() string {
	switch p {
	case PathModel:
		return "real-v1"
	case PathDegraded:
		return "fallback • degraded"
	default:
		return "fallback"
	}
}

// Verdict is the outcome of heuristic source verification
type Verdict string

const (
	VerdictReputable      Verdict = "reputable"
	VerdictLikelyOriginal Verdict = "likely_original"
	VerdictAggregation    Verdict = "aggregation"
	VerdictUnknown        Verdict = "unknown"
)

// Rank orders verdicts from weakest (0) to strongest (3)
func (v Verdict) Rank() int {
	switch v {
	case VerdictReputable:
		return 3
	case VerdictLikelyOriginal:
		return 2
	case VerdictAggregation:
		return 1
	default:
		return 0
	}
}

// SourceVerification is a heuristic trust score for a URL source
type SourceVerification struct {
	URL       string        `json:"url"`
	Score     int           `json:"score"` // 0-100
	Verdict   Verdict       `json:"verdict"`
	Checks    SourceChecks  `json:"checks"`
	Breakdown []ScoreSignal `json:"breakdown,omitempty"`
	Notes     string        `json:"notes,omitempty"`
}

// SourceChecks are the raw signals the verification score is built from
type SourceChecks struct {
	IsHTTPS      bool          `json:"is_https"`
	HasCanonical bool          `json:"has_canonical"`
	HasOG        bool          `json:"has_og"`
	HasDateMeta  bool          `json:"has_date_meta"`
	WordCount    int           `json:"word_count"`
	LinkCount    int           `json:"link_count"`
	Domain       string        `json:"domain"`
	TLDOK        bool          `json:"tld_ok"`
	Authority    AuthorityTier `json:"authority,omitempty"` // Informational, not scored
}

// ScoreSignal records the points one check contributed
type ScoreSignal struct {
	Check   string `json:"check"`
	Points  int    `json:"points"`
	Formula string `json:"formula,omitempty"`
}

// AuthorityTier is the informational trust tier of a source domain
type AuthorityTier string

const (
	TierPrimary   AuthorityTier = "primary"
	TierSecondary AuthorityTier = "secondary"
	TierTertiary  AuthorityTier = "tertiary"
)

// Generation is a finished response together with the path that produced it
type Generation struct {
	Response GenerationResponse
	Path     GenerationPath
}
