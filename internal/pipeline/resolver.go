package pipeline

import (
	"context"
	"net/url"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/ppiankov/aontas/internal/budget"
	"github.com/ppiankov/aontas/internal/extract"
	"github.com/ppiankov/aontas/internal/extract/adapters"
	"github.com/ppiankov/aontas/internal/model"
)

// Resolver turns raw request input into the text a request operates on
type Resolver struct {
	fetcher  SourceFetcher
	adapters *adapters.Registry
	policy   model.BudgetConfig
	maxChars int
	logger   *zap.Logger
}

// NewResolver creates a resolver. fetcher may be nil, in which case URL
// inputs always degrade to the URL text.
func NewResolver(fetcher SourceFetcher, policy model.BudgetConfig, maxChars int, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		fetcher:  fetcher,
		adapters: adapters.NewRegistry(),
		policy:   policy,
		maxChars: maxChars,
		logger:   logger,
	}
}

// Resolve fetches URL inputs and passes text through. A failed fetch is not
// an error: the URL itself becomes the text. Only empty input is rejected.
func (r *Resolver) Resolve(ctx context.Context, raw string, deadline budget.Deadline) (model.ResolvedSource, error) {
	raw = strings.TrimSpace(raw)

	src := model.ResolvedSource{Text: raw, OriginLabel: model.PastedTextOrigin}
	if IsURL(raw) {
		src = r.resolveURL(ctx, raw, deadline)
	}

	text := strings.TrimSpace(norm.NFC.String(src.Text))
	src.Text = strings.TrimSpace(truncateRunes(text, r.maxChars))
	if src.Text == "" {
		return src, model.NewValidationError("Missing input")
	}
	return src, nil
}

func (r *Resolver) resolveURL(ctx context.Context, rawURL string, deadline budget.Deadline) model.ResolvedSource {
	src := model.ResolvedSource{Text: rawURL, OriginLabel: rawURL}
	if r.fetcher == nil {
		src.FetchError = "fetching disabled"
		return src
	}

	fetchCtx, cancel := deadline.Context(ctx, r.policy.FetchTimeout(), r.policy.MinFetch())
	defer cancel()

	res, err := r.fetcher.Fetch(fetchCtx, rawURL)
	if err != nil {
		r.logger.Warn("fetch failed, using the URL as text",
			zap.String("url", rawURL),
			zap.Error(err))
		src.FetchError = err.Error()
		return src
	}

	src.ContentType = res.ContentType
	text, err := r.bodyText(rawURL, res, &src)
	if err != nil {
		r.logger.Warn("could not extract text, using the URL as text",
			zap.String("url", rawURL),
			zap.String("content_type", res.ContentType),
			zap.Error(err))
		src.FetchError = err.Error()
		src.HasMarkup = false
		src.FetchedMarkup = ""
		return src
	}

	src.Text = text
	r.logger.Debug("resolved URL input",
		zap.String("url", rawURL),
		zap.String("adapter", src.Adapter),
		zap.Int("bytes", len(res.Body)))
	return src
}

// bodyText extracts text by document kind. HTML bodies are kept as markup
// for source verification.
func (r *Resolver) bodyText(rawURL string, res *FetchResult, src *model.ResolvedSource) (string, error) {
	switch extract.DetectKind(res.ContentType, res.Body) {
	case extract.KindPDF:
		src.Adapter = "pdf"
		return extract.PDFText(res.Body)
	case extract.KindDOCX:
		src.Adapter = "docx"
		return extract.DOCXText(res.Body)
	case extract.KindPlain:
		return extract.CollapseWhitespace(string(res.Body)), nil
	}

	markup := string(res.Body)
	src.FetchedMarkup = markup
	src.HasMarkup = true

	doc, err := extract.ParseHTML(markup)
	if err != nil {
		return "", err
	}

	adapter := r.adapters.FindAdapter(rawURL, res.ContentType)
	src.Adapter = adapter.Name()
	if root := adapter.ContentRoot(doc); root != nil {
		if text := extract.NodeText(root); text != "" {
			return text, nil
		}
	}

	// The adapter found nothing; fall back to the whole document
	return extract.StripMarkup(markup), nil
}

// IsURL reports whether input is an absolute http(s) URL
func IsURL(input string) bool {
	if input == "" || strings.IndexFunc(input, unicode.IsSpace) >= 0 {
		return false
	}
	u, err := url.Parse(input)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
