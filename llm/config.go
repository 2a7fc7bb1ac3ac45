package llm

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config selects a vendor and model and carries the generation parameters
// sent with every inference call.
//
// Optional numeric parameters are nil when unset. A Chat copies its Config at
// construction and never mutates it.
type Config struct {
	Provider Provider
	Model    string
	APIKey   string
	APIURL   string

	APIVersion       string
	MaxTokens        *int64
	N                *int64
	Temperature      *float64
	TopP             *float64
	TopK             *int64
	FrequencyPenalty *float64
	PresencePenalty  *float64
	StopSequence     string

	// PromptsPath points at a file overriding the built-in system prompt.
	PromptsPath string

	// Timeout bounds one round trip. Zero leaves it to the transport.
	Timeout time.Duration
}

type ConfigOption func(*Config)

func WithAPIVersion(v string) ConfigOption { return func(c *Config) { c.APIVersion = v } }
func WithMaxTokens(n int64) ConfigOption   { return func(c *Config) { c.MaxTokens = &n } }
func WithN(n int64) ConfigOption           { return func(c *Config) { c.N = &n } }
func WithTemperature(v float64) ConfigOption {
	return func(c *Config) { c.Temperature = &v }
}
func WithTopP(v float64) ConfigOption { return func(c *Config) { c.TopP = &v } }
func WithTopK(n int64) ConfigOption   { return func(c *Config) { c.TopK = &n } }
func WithFrequencyPenalty(v float64) ConfigOption {
	return func(c *Config) { c.FrequencyPenalty = &v }
}
func WithPresencePenalty(v float64) ConfigOption {
	return func(c *Config) { c.PresencePenalty = &v }
}
func WithStopSequence(s string) ConfigOption { return func(c *Config) { c.StopSequence = s } }
func WithPromptsPath(p string) ConfigOption  { return func(c *Config) { c.PromptsPath = p } }
func WithTimeout(d time.Duration) ConfigOption {
	return func(c *Config) { c.Timeout = d }
}

// NewConfig builds and validates a Config. Required fields are never defaulted.
func NewConfig(provider Provider, model, apiKey, apiURL string, opts ...ConfigOption) (Config, error) {
	c := Config{
		Provider: provider,
		Model:    model,
		APIKey:   apiKey,
		APIURL:   apiURL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate returns a *ConfigError describing the first invalid field.
func (c Config) Validate() error {
	if c.Provider == "" {
		return &ConfigError{Kind: ConfigMissingField, Field: "provider"}
	}
	if !c.Provider.Valid() {
		return &ConfigError{Kind: ConfigUnsupportedProvider, Field: "provider", Value: string(c.Provider)}
	}
	if strings.TrimSpace(c.Model) == "" {
		return &ConfigError{Kind: ConfigMissingField, Field: "model"}
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return &ConfigError{Kind: ConfigMissingField, Field: "api_key"}
	}
	if strings.TrimSpace(c.APIURL) == "" {
		return &ConfigError{Kind: ConfigMissingField, Field: "api_url"}
	}
	if err := validateURL(c.APIURL); err != nil {
		return err
	}

	if c.MaxTokens != nil && *c.MaxTokens <= 0 {
		return invalidValue("max_tokens", strconv.FormatInt(*c.MaxTokens, 10))
	}
	if c.N != nil && *c.N <= 0 {
		return invalidValue("n", strconv.FormatInt(*c.N, 10))
	}
	if c.TopK != nil && *c.TopK <= 0 {
		return invalidValue("top_k", strconv.FormatInt(*c.TopK, 10))
	}
	if c.Temperature != nil && *c.Temperature < 0 {
		return invalidValue("temperature", formatFloat(*c.Temperature))
	}
	if c.TopP != nil && (*c.TopP < 0 || *c.TopP > 1) {
		return invalidValue("top_p", formatFloat(*c.TopP))
	}
	if c.Timeout < 0 {
		return invalidValue("timeout", c.Timeout.String())
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &ConfigError{Kind: ConfigInvalidURL, Field: "api_url", Value: raw, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ConfigError{Kind: ConfigInvalidURL, Field: "api_url", Value: raw}
	}
	if u.Host == "" {
		return &ConfigError{Kind: ConfigInvalidURL, Field: "api_url", Value: raw}
	}
	return nil
}

func invalidValue(field, value string) error {
	return &ConfigError{Kind: ConfigInvalidValue, Field: field, Value: value}
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
