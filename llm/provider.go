package llm

import (
	"strings"
)

// Provider is the canonical identifier of a model vendor.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "gcp"
)

// Providers lists the supported vendors.
func Providers() []Provider {
	return []Provider{ProviderOpenAI, ProviderAnthropic, ProviderGoogle}
}

func (p Provider) Valid() bool {
	switch p {
	case ProviderOpenAI, ProviderAnthropic, ProviderGoogle:
		return true
	default:
		return false
	}
}

// ParseProvider maps a settings/CLI value to a Provider.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return "", &ConfigError{Kind: ConfigMissingField, Field: "model_provider"}
	}
	if !p.Valid() {
		return "", &ConfigError{Kind: ConfigUnsupportedProvider, Field: "model_provider", Value: s}
	}
	return p, nil
}

const (
	DefaultOpenAIURL    = "https://api.openai.com/v1/chat/completions"
	DefaultAnthropicURL = "https://api.anthropic.com/v1/messages"
	defaultGoogleURL    = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"
)

// DefaultAPIURL returns the vendor endpoint used when no URL is configured.
// The Google endpoint embeds the model.
func DefaultAPIURL(p Provider, model string) string {
	switch p {
	case ProviderOpenAI:
		return DefaultOpenAIURL
	case ProviderAnthropic:
		return DefaultAnthropicURL
	case ProviderGoogle:
		return strings.Replace(defaultGoogleURL, "%s", model, 1)
	default:
		return ""
	}
}

// ProviderNamer is implemented by every Chat.
type ProviderNamer interface {
	Provider() Provider
}
