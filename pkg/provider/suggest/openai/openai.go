// Package openai provides a suggest provider backed by the OpenAI chat
// completions API.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/cboiteux2765/AIDoorGuard/pkg/provider/suggest"
)

// DefaultModel is the default OpenAI model for checklist suggestions.
const DefaultModel = "gpt-4o-mini"

const (
	// Low temperature keeps the item lists stable for repeated requests.
	suggestTemperature = 0.2
	// A 10-item JSON list fits comfortably in this budget.
	suggestMaxTokens = 256

	systemPrompt = "You help someone leaving the house decide what to bring. " +
		"You respond with bare JSON only, no prose and no markdown."
)

// Ensure Provider implements the suggest.Provider interface.
var _ suggest.Provider = (*Provider)(nil)

// Provider implements suggest.Provider using the OpenAI API.
type Provider struct {
	client oai.Client
	model  string
}

// config holds optional configuration for the provider.
type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a new OpenAI suggest Provider.
// If model is empty, DefaultModel is used.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai suggest: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Provider{client: oai.NewClient(reqOpts...), model: model}, nil
}

// Suggest implements suggest.Provider.
func (p *Provider) Suggest(ctx context.Context, transcript string) ([]string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(systemPrompt),
			oai.UserMessage(suggest.Prompt(transcript)),
		},
		Temperature:         param.NewOpt(suggestTemperature),
		MaxCompletionTokens: param.NewOpt(int64(suggestMaxTokens)),
	})
	if err != nil {
		return nil, fmt.Errorf("openai suggest: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai suggest: empty choices in response")
	}
	return suggest.ParseItems(resp.Choices[0].Message.Content)
}
