// Package pipeline runs one worksheet generation request end to end:
// resolve the input, verify URL sources, call the model under the request
// budget, and normalize whatever comes back.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/aontas/internal/analyze"
	"github.com/ppiankov/aontas/internal/budget"
	"github.com/ppiankov/aontas/internal/llm"
	"github.com/ppiankov/aontas/internal/model"
	"github.com/ppiankov/aontas/internal/normalize"
	"github.com/ppiankov/aontas/internal/score"
	"github.com/ppiankov/aontas/internal/validate"
)

// Pipeline orchestrates generation requests. It holds only read-only
// configuration and is safe for concurrent use.
type Pipeline struct {
	config   *model.Config
	resolver *Resolver
	verifier *score.Verifier
	provider llm.Provider // nil when no credential is configured
	caller   *llm.Caller
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a Pipeline
type Option func(*pipelineOpts)

type pipelineOpts struct {
	fetcher     SourceFetcher
	provider    llm.Provider
	hasProvider bool
	logger      *zap.Logger
	now         func() time.Time
}

// WithFetcher replaces the HTTP fetcher used for URL inputs
func WithFetcher(f SourceFetcher) Option {
	return func(o *pipelineOpts) { o.fetcher = f }
}

// WithProvider replaces the provider built from configuration. A nil
// provider forces the no-credential path.
func WithProvider(p llm.Provider) Option {
	return func(o *pipelineOpts) {
		o.provider = p
		o.hasProvider = true
	}
}

// WithLogger sets the logger; the default is zap.L()
func WithLogger(l *zap.Logger) Option {
	return func(o *pipelineOpts) { o.logger = l }
}

// WithClock sets the clock request budgets are measured with
func WithClock(now func() time.Time) Option {
	return func(o *pipelineOpts) { o.now = now }
}

// NewPipeline creates a new pipeline with the given configuration. The
// provider is built from cfg.LLM unless WithProvider is given.
func NewPipeline(cfg *model.Config, opts ...Option) (*Pipeline, error) {
	o := pipelineOpts{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.L()
	}

	provider := o.provider
	if !o.hasProvider {
		p, err := llm.NewProvider(llm.ConfigFromModel(cfg))
		if err != nil {
			return nil, err
		}
		provider = p
	}
	if provider == nil {
		o.logger.Info("no model credential configured, serving heuristic worksheets",
			zap.String("provider", cfg.LLM.Provider))
	}

	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = NewFetcher(cfg.HTTP, o.logger)
	}

	authority := validate.NewAuthorityClassifier(&cfg.Authority)

	return &Pipeline{
		config:   cfg,
		resolver: NewResolver(fetcher, cfg.Budget, cfg.Input.MaxChars, o.logger),
		verifier: score.NewVerifier(authority),
		provider: provider,
		caller:   llm.NewCaller(cfg.Budget, o.logger),
		logger:   o.logger,
		now:      o.now,
	}, nil
}

// Generate runs one request. The only errors are *model.ValidationError for
// unusable input and *llm.UpstreamError for permanent upstream refusals;
// every other failure degrades to a heuristic worksheet.
func (p *Pipeline) Generate(ctx context.Context, req model.GenerationRequest) (*model.Generation, error) {
	deadline := budget.NewAt(p.now, p.config.Budget.Total())

	src, err := p.resolver.Resolve(ctx, req.Input, deadline)
	if err != nil {
		return nil, err
	}

	in := normalize.Input{
		Text:       src.Text,
		Source:     src.OriginLabel,
		Request:    req,
		CreditName: p.config.Output.CreditName,
	}
	if src.IsURL() {
		v := p.verifier.Verify(src.OriginLabel, src.FetchedMarkup, src.HasMarkup)
		in.Verification = &v
	}

	if p.provider == nil {
		in.Path = model.PathNoCredential
		return p.finish(normalize.Fallback(in), in.Path), nil
	}

	prompt := llm.BuildPrompt(llm.PromptInput{
		Text:       src.Text,
		Source:     src.OriginLabel,
		Request:    req,
		Metrics:    analyze.Analyze(src.Text),
		CreditName: creditName(req, p.config),
	})

	result := p.caller.Call(ctx, p.provider, llm.CompletionRequest{
		Prompt:      prompt,
		Model:       req.Model,
		MaxTokens:   p.config.LLM.MaxTokens,
		Temperature: p.config.LLM.Temperature,
	}, deadline)

	switch {
	case result.OK():
		in.Path = model.PathModel
		return p.finish(normalize.Normalize(result.Content, true, in), in.Path), nil
	case result.Permanent():
		p.logger.Warn("upstream refused the request",
			zap.Int("status", result.StatusCode),
			zap.String("detail", result.Detail))
		return nil, llm.NewUpstreamError(result.StatusCode, result.Detail)
	default:
		p.logger.Warn("upstream unavailable, serving degraded worksheet",
			zap.Int("status", result.StatusCode),
			zap.Int("attempts", result.Attempts),
			zap.Bool("busy", result.Busy),
			zap.Duration("remaining", deadline.Remaining()),
			zap.Time("budget_expiry", deadline.Expiry()))
		in.Path = model.PathDegraded
		return p.finish(normalize.Fallback(in), in.Path), nil
	}
}

// HasProvider reports whether model calls are configured
func (p *Pipeline) HasProvider() bool {
	return p.provider != nil
}

// Verify scores a URL source on its own, fetching it under a fresh budget
func (p *Pipeline) Verify(ctx context.Context, rawURL string) (model.SourceVerification, error) {
	if !IsURL(rawURL) {
		return model.SourceVerification{}, model.NewValidationError("Not an http(s) URL: %q", rawURL)
	}
	deadline := budget.NewAt(p.now, p.config.Budget.Total())
	src, err := p.resolver.Resolve(ctx, rawURL, deadline)
	if err != nil {
		return model.SourceVerification{}, err
	}
	v := p.verifier.Verify(src.OriginLabel, src.FetchedMarkup, src.HasMarkup)
	if src.FetchError != "" {
		v.Notes = joinNotes(v.Notes, "Fetch failed: "+src.FetchError)
	}
	return v, nil
}

func (p *Pipeline) finish(resp model.GenerationResponse, path model.GenerationPath) *model.Generation {
	p.logger.Info("generated worksheet",
		zap.String("path", string(path)),
		zap.String("source", resp.Source),
		zap.Int("exercises", len(resp.Exercises)))
	return &model.Generation{Response: resp, Path: path}
}

func creditName(req model.GenerationRequest, cfg *model.Config) string {
	if req.TeacherName != "" {
		return req.TeacherName
	}
	return cfg.Output.CreditName
}

func joinNotes(a, b string) string {
	if a == "" {
		return b
	}
	return a + " " + b
}
