package model

import (
	"strings"
	"time"
)

// Config is the single configuration record the pipeline is parameterized by.
// It is read-only once a request starts.
type Config struct {
	Budget      BudgetConfig      `yaml:"budget" mapstructure:"budget"`
	Input       InputConfig       `yaml:"input" mapstructure:"input"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Authority   AuthorityConfig   `yaml:"authority" mapstructure:"authority"`
}

// BudgetConfig holds the wall-clock budget and retry policy of one request.
// All values are milliseconds.
type BudgetConfig struct {
	TotalMs        int `yaml:"total_ms" mapstructure:"total_ms"`
	FetchTimeoutMs int `yaml:"fetch_timeout_ms" mapstructure:"fetch_timeout_ms"`
	MinFetchMs     int `yaml:"min_fetch_ms" mapstructure:"min_fetch_ms"`
	PerCallMs      int `yaml:"per_call_ms" mapstructure:"per_call_ms"`
	MinCallMs      int `yaml:"min_call_ms" mapstructure:"min_call_ms"`
	SafetyMarginMs int `yaml:"safety_margin_ms" mapstructure:"safety_margin_ms"`
	MaxAttempts    int `yaml:"max_attempts" mapstructure:"max_attempts"`
	BackoffBaseMs  int `yaml:"backoff_base_ms" mapstructure:"backoff_base_ms"`
	JitterMs       int `yaml:"jitter_ms" mapstructure:"jitter_ms"`
}

// Total returns the overall request budget
func (b BudgetConfig) Total() time.Duration { return ms(b.TotalMs) }

// FetchTimeout returns the upper bound for a URL fetch
func (b BudgetConfig) FetchTimeout() time.Duration { return ms(b.FetchTimeoutMs) }

// MinFetch returns the lower bound for a URL fetch
func (b BudgetConfig) MinFetch() time.Duration { return ms(b.MinFetchMs) }

// PerCall returns the upper bound for one model call
func (b BudgetConfig) PerCall() time.Duration { return ms(b.PerCallMs) }

// MinCall returns the lower bound for one model call
func (b BudgetConfig) MinCall() time.Duration { return ms(b.MinCallMs) }

// SafetyMargin is kept free at the end of the budget when sleeping
func (b BudgetConfig) SafetyMargin() time.Duration { return ms(b.SafetyMarginMs) }

// BackoffBase is the exponential backoff base
func (b BudgetConfig) BackoffBase() time.Duration { return ms(b.BackoffBaseMs) }

// Jitter is the exclusive upper bound of random backoff jitter
func (b BudgetConfig) Jitter() time.Duration { return ms(b.JitterMs) }

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// InputConfig bounds the resolved text
type InputConfig struct {
	MaxChars int `yaml:"max_chars" mapstructure:"max_chars"`
}

// HTTPConfig configures URL fetching
type HTTPConfig struct {
	UserAgent     string  `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64   `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS   bool    `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	RespectRobots bool    `yaml:"respect_robots" mapstructure:"respect_robots"`
	HostRPS       float64 `yaml:"host_rps" mapstructure:"host_rps"`
	HostBurst     int     `yaml:"host_burst" mapstructure:"host_burst"`
	HTTPProxy     string  `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string  `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string  `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// LLMConfig configures the upstream text-generation provider
type LLMConfig struct {
	Provider      string   `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model         string   `yaml:"model" mapstructure:"model"`
	APIKey        string   `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL       string   `yaml:"base_url,omitempty" mapstructure:"base_url"`
	AllowedModels []string `yaml:"allowed_models" mapstructure:"allowed_models"`
	MaxTokens     int      `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature   float64  `yaml:"temperature" mapstructure:"temperature"`
}

// Configured reports whether a provider has what it needs to be called.
// Hosted providers need a credential, ollama needs an endpoint.
func (c LLMConfig) Configured() bool {
	switch strings.ToLower(c.Provider) {
	case "openai", "anthropic", "claude":
		return c.APIKey != ""
	case "ollama":
		return c.BaseURL != ""
	default:
		return false
	}
}

// ResolveModel returns the requested model if it is allow-listed, otherwise
// the configured default
func (c LLMConfig) ResolveModel(requested string) string {
	if requested == "" {
		return c.Model
	}
	for _, m := range c.AllowedModels {
		if strings.EqualFold(m, requested) {
			return m
		}
	}
	return c.Model
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
}

// OutputConfig configures response attribution
type OutputConfig struct {
	CreditName string `yaml:"credit_name" mapstructure:"credit_name"`
}

// LogConfig configures logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// ConcurrencyConfig configures batch generation
type ConcurrencyConfig struct {
	BatchWorkers int `yaml:"batch_workers" mapstructure:"batch_workers"`
}

// AuthorityConfig configures the domain authority classifier
type AuthorityConfig struct {
	PrimaryDomains   []string          `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string          `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	DomainMap        map[string]string `yaml:"domain_map,omitempty" mapstructure:"domain_map"`
	PathPatterns     []PathPattern     `yaml:"path_patterns,omitempty" mapstructure:"path_patterns"`
}

// PathPattern assigns a tier to URLs whose path matches Pattern
type PathPattern struct {
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
	Tier    string `yaml:"tier" mapstructure:"tier"`
}

// DefaultConfig returns the default deployment profile
func DefaultConfig() *Config {
	return &Config{
		Budget: BudgetConfig{
			TotalMs:        18_000,
			FetchTimeoutMs: 4_000,
			MinFetchMs:     1_000,
			PerCallMs:      9_000,
			MinCallMs:      1_500,
			SafetyMarginMs: 500,
			MaxAttempts:    3,
			BackoffBaseMs:  400,
			JitterMs:       200,
		},
		Input: InputConfig{
			MaxChars: 3000,
		},
		HTTP: HTTPConfig{
			UserAgent:     "Aontas/0.2 (+https://github.com/ppiankov/aontas)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
			HostRPS:       2,
			HostBurst:     4,
		},
		LLM: LLMConfig{
			Provider:      "openai",
			Model:         "gpt-4o-mini",
			AllowedModels: []string{"gpt-4o-mini", "gpt-4o"},
			MaxTokens:     1800,
			Temperature:   0.4,
		},
		Server: ServerConfig{
			Port: 8080,
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://127.0.0.1:3000",
			},
			RateLimitRPS:   5,
			RateLimitBurst: 10,
		},
		Output: OutputConfig{
			CreditName: DefaultTeacherName,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Concurrency: ConcurrencyConfig{
			BatchWorkers: 4,
		},
		Authority: AuthorityConfig{
			PrimaryDomains: []string{
				"gov.ie", "gov.uk", "europa.eu", "doi.org", "who.int", "un.org",
			},
			SecondaryDomains: []string{
				"wikipedia.org", "rte.ie", "irishtimes.com", "bbc.co.uk", "bbc.com",
				"theguardian.com", "reuters.com", "apnews.com", "britannica.com",
			},
			PathPatterns: []PathPattern{
				{Pattern: `^/(?:eli|acts?|statutes?)/`, Tier: "primary"},
			},
		},
	}
}
