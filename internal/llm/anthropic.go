package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

const defaultAnthropicModel = "claude-haiku-4-5-20251001"

// jsonOnlySystem steers Anthropic models, which lack a JSON response mode
const jsonOnlySystem = "Reply with a single JSON object and nothing else."

// AnthropicProvider implements the Provider interface for Anthropic Claude models
type AnthropicProvider struct {
	config Config
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(config Config) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, eris.New("Anthropic API key is required")
	}
	return &AnthropicProvider{config: config}, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Complete sends one Messages API request with SDK retries disabled
func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	req = p.config.withDefaults(req, defaultAnthropicModel)

	httpClient, rec := newRecordingClient(p.config)
	opts := []option.RequestOption{
		option.WithAPIKey(p.config.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(httpClient),
	}
	if p.config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(p.config.BaseURL))
	}
	client := sdk.NewClient(opts...)

	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
		System:    []sdk.TextBlockParam{{Text: jsonOnlySystem}},
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt))},
	}
	if req.Temperature > 0 {
		params.Temperature = sdk.Float(req.Temperature)
	}

	msg, err := client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			var header http.Header
			if apiErr.Response != nil {
				header = apiErr.Response.Header
			}
			return nil, &StatusError{StatusCode: apiErr.StatusCode, Header: header, Message: apiErr.Error()}
		}
		if rec.succeeded() {
			if malformedBody(ctx, err, rec) {
				return &Completion{Model: req.Model}, nil
			}
			return nil, eris.Wrap(err, "anthropic response")
		}
		if status, header := rec.last(); status != 0 {
			return nil, &StatusError{StatusCode: status, Header: header, Message: http.StatusText(status)}
		}
		return nil, eris.Wrap(err, "anthropic request")
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return &Completion{
		Content:    strings.TrimSpace(text.String()),
		Model:      string(msg.Model),
		TokensUsed: int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
	}, nil
}
