// Package openai implements llm.Chat over the OpenAI Chat Completions API.
package openai

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ai-gentic/apprentice/llm"
	"github.com/ai-gentic/apprentice/llm/internal/wire"
)

// Client is an llm.Chat for the OpenAI Chat Completions API. It is safe for
// concurrent use.
type Client struct {
	llm.SystemPrompt

	cfg   llm.Config
	tr    llm.Transport
	tools []llm.ToolSpec

	header http.Header
	logger *slog.Logger
}

var _ llm.Chat = (*Client)(nil)

// Option configures a Client in New.
type Option func(*Client) error

// New validates cfg and binds it to tr. cfg.Provider may be left empty.
func New(cfg llm.Config, tr llm.Transport, opts ...Option) (*Client, error) {
	if cfg.Provider == "" {
		cfg.Provider = llm.ProviderOpenAI
	}
	if cfg.Provider != llm.ProviderOpenAI {
		return nil, &llm.ConfigError{Kind: llm.ConfigUnsupportedProvider, Field: "provider", Value: string(cfg.Provider)}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tr == nil {
		return nil, errors.New("openai: nil transport")
	}

	c := &Client{
		cfg:    cfg,
		tr:     tr,
		header: make(http.Header),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// WithTools registers the tools offered to the model when the ToolChoice
// enables them.
func WithTools(specs ...llm.ToolSpec) Option {
	return func(c *Client) error {
		if err := llm.ValidateTools(specs); err != nil {
			return err
		}
		c.tools = append([]llm.ToolSpec(nil), specs...)
		return nil
	}
}

// WithLogger sets the logger for request debug records; nil is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) error {
		c.header.Add(key, value)
		return nil
	}
}

// WithOrganization sets the OpenAI-Organization header.
func WithOrganization(org string) Option {
	return WithHeader("OpenAI-Organization", org)
}

func (c *Client) Provider() llm.Provider { return llm.ProviderOpenAI }

// GetInference sends the system prompt and history in one request and
// returns the reply in vendor order.
func (c *Client) GetInference(ctx context.Context, history []llm.Message, choice llm.ToolChoice) (out []llm.Message, err error) {
	ctx, span := llm.StartInferenceSpan(ctx, c.cfg, len(history), choice)
	defer func() { llm.EndInferenceSpan(span, out, err) }()

	if err := llm.ValidateHistory(history); err != nil {
		return nil, err
	}

	req, err := c.mapRequest(c.Snapshot(), history, choice)
	if err != nil {
		return nil, err
	}

	body, err := wire.RoundTrip(ctx, c.tr, c.logger, wire.Call{
		Provider:     llm.ProviderOpenAI,
		URL:          c.cfg.APIURL,
		Header:       c.headers(),
		Payload:      req,
		Timeout:      c.cfg.Timeout,
		ErrorMessage: parseErrorMessage,
	})
	if err != nil {
		return nil, err
	}
	return mapResponse(body)
}

func (c *Client) headers() http.Header {
	h := c.header.Clone()
	h.Set("Authorization", "Bearer "+c.cfg.APIKey)
	return h
}
