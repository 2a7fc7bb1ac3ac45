// Package google implements llm.Chat over the Gemini generateContent API.
//
// The configured API URL is used as-is: it already names the model and the
// :generateContent action.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/ai-gentic/apprentice/llm"
	"github.com/ai-gentic/apprentice/llm/internal/wire"
)

// AuthMode selects how the credential reaches the API.
type AuthMode int

const (
	// AuthAPIKeyQuery sends the API key as the key query parameter.
	AuthAPIKeyQuery AuthMode = iota
	// AuthAPIKeyHeader sends the API key in the x-goog-api-key header.
	AuthAPIKeyHeader
	// AuthBearer treats the credential as an OAuth access token, as Vertex AI
	// deployments expect.
	AuthBearer
)

// Client is an llm.Chat for the Gemini generateContent API. It is safe for
// concurrent use.
type Client struct {
	llm.SystemPrompt

	cfg   llm.Config
	tr    llm.Transport
	tools []llm.ToolSpec
	auth  AuthMode

	header http.Header
	logger *slog.Logger
}

var _ llm.Chat = (*Client)(nil)

// Option configures a Client in New.
type Option func(*Client) error

// New validates cfg and binds it to tr. cfg.Provider may be left empty.
func New(cfg llm.Config, tr llm.Transport, opts ...Option) (*Client, error) {
	if cfg.Provider == "" {
		cfg.Provider = llm.ProviderGoogle
	}
	if cfg.Provider != llm.ProviderGoogle {
		return nil, &llm.ConfigError{Kind: llm.ConfigUnsupportedProvider, Field: "provider", Value: string(cfg.Provider)}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tr == nil {
		return nil, errors.New("google: nil transport")
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

// WithTools registers the tools offered when the ToolChoice enables them.
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

func WithAuthMode(mode AuthMode) Option {
	return func(c *Client) error {
		switch mode {
		case AuthAPIKeyQuery, AuthAPIKeyHeader, AuthBearer:
			c.auth = mode
			return nil
		default:
			return fmt.Errorf("google: unknown auth mode %d", mode)
		}
	}
}

func (c *Client) Provider() llm.Provider { return llm.ProviderGoogle }

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

	hdr := c.header.Clone()
	var query url.Values
	switch c.auth {
	case AuthAPIKeyHeader:
		hdr.Set("x-goog-api-key", c.cfg.APIKey)
	case AuthBearer:
		hdr.Set("Authorization", "Bearer "+c.cfg.APIKey)
	default:
		query = url.Values{"key": {c.cfg.APIKey}}
	}

	body, err := wire.RoundTrip(ctx, c.tr, c.logger, wire.Call{
		Provider:     llm.ProviderGoogle,
		URL:          c.cfg.APIURL,
		Header:       hdr,
		Query:        query,
		Payload:      req,
		Timeout:      c.cfg.Timeout,
		ErrorMessage: parseErrorMessage,
	})
	if err != nil {
		return nil, err
	}
	return mapResponse(body)
}
