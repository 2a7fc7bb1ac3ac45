// Package llmchat constructs the llm.Chat implementation matching a Config.
package llmchat

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ai-gentic/apprentice/llm"
	"github.com/ai-gentic/apprentice/llm/providers/anthropic"
	"github.com/ai-gentic/apprentice/llm/providers/google"
	"github.com/ai-gentic/apprentice/llm/providers/openai"
)

type options struct {
	tools      []llm.ToolSpec
	logger     *slog.Logger
	strict     bool
	googleAuth google.AuthMode
	prompt     string
}

type Option func(*options)

// WithTools offers specs to the model on calls whose ToolChoice enables tools.
func WithTools(specs ...llm.ToolSpec) Option {
	return func(o *options) { o.tools = append(o.tools, specs...) }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithStrictParameters disables vendor parameter defaults (Anthropic
// max_tokens and API version).
func WithStrictParameters() Option {
	return func(o *options) { o.strict = true }
}

// WithGoogleAuth selects how Google credentials are sent.
func WithGoogleAuth(mode google.AuthMode) Option {
	return func(o *options) { o.googleAuth = mode }
}

// WithSystemPrompt sets the initial system prompt of the session.
func WithSystemPrompt(prompt string) Option {
	return func(o *options) { o.prompt = prompt }
}

// New returns the Chat for cfg.Provider bound to tr.
//
// initialHistory is accepted for callers that seed a conversation, but the
// session is stateless and does not keep it: pass the full history to every
// GetInference call.
func New(cfg llm.Config, tr llm.Transport, initialHistory []llm.Message, opts ...Option) (llm.Chat, error) {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	if !cfg.Provider.Valid() {
		return nil, fmt.Errorf("%w: %q", llm.ErrUnsupportedProvider, cfg.Provider)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tr == nil {
		return nil, errors.New("llmchat: nil transport")
	}

	chat, err := build(cfg, tr, o)
	if err != nil {
		return nil, err
	}
	if o.prompt != "" {
		chat.SetSystemPrompt(o.prompt)
	}

	o.logger.Debug("llm chat created",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"tools", len(o.tools),
		"seed_history", len(initialHistory),
	)
	return chat, nil
}

func build(cfg llm.Config, tr llm.Transport, o options) (llm.Chat, error) {
	switch cfg.Provider {
	case llm.ProviderOpenAI:
		return openai.New(cfg, tr,
			openai.WithTools(o.tools...),
			openai.WithLogger(o.logger),
		)
	case llm.ProviderAnthropic:
		opts := []anthropic.Option{
			anthropic.WithTools(o.tools...),
			anthropic.WithLogger(o.logger),
		}
		if o.strict {
			opts = append(opts, anthropic.WithStrictParameters())
		}
		return anthropic.New(cfg, tr, opts...)
	case llm.ProviderGoogle:
		return google.New(cfg, tr,
			google.WithTools(o.tools...),
			google.WithLogger(o.logger),
			google.WithAuthMode(o.googleAuth),
		)
	default:
		return nil, fmt.Errorf("%w: %q", llm.ErrUnsupportedProvider, cfg.Provider)
	}
}
