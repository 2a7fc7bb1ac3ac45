// Package settings reads the apprentice TOML file: named contexts holding
// model parameters, the default context, and terminal colors.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ai-gentic/apprentice/config"
	"github.com/ai-gentic/apprentice/llm"
	"github.com/ai-gentic/apprentice/prompts"
)

// FileName is looked up in the home directory when no path is given.
const FileName = ".apprentice.toml"

// Context is one named table of the settings file.
type Context struct {
	Goal             string        `mapstructure:"goal" json:"goal,omitempty" yaml:"goal,omitempty"`
	ModelProvider    string        `mapstructure:"model_provider" json:"model_provider,omitempty" yaml:"model_provider,omitempty"`
	Model            string        `mapstructure:"model" json:"model,omitempty" yaml:"model,omitempty"`
	APIKey           string        `mapstructure:"api_key" json:"api_key,omitempty" yaml:"api_key,omitempty"`
	APIURL           string        `mapstructure:"api_url" json:"api_url,omitempty" yaml:"api_url,omitempty"`
	APIVersion       string        `mapstructure:"api_version" json:"api_version,omitempty" yaml:"api_version,omitempty"`
	MaxTokens        *int64        `mapstructure:"max_tokens" json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	N                *int64        `mapstructure:"n" json:"n,omitempty" yaml:"n,omitempty"`
	Temperature      *float64      `mapstructure:"temperature" json:"temperature,omitempty" yaml:"temperature,omitempty"`
	TopP             *float64      `mapstructure:"top_p" json:"top_p,omitempty" yaml:"top_p,omitempty"`
	TopK             *int64        `mapstructure:"top_k" json:"top_k,omitempty" yaml:"top_k,omitempty"`
	FrequencyPenalty *float64      `mapstructure:"frequency_penalty" json:"frequency_penalty,omitempty" yaml:"frequency_penalty,omitempty"`
	PresencePenalty  *float64      `mapstructure:"presence_penalty" json:"presence_penalty,omitempty" yaml:"presence_penalty,omitempty"`
	StopSequence     string        `mapstructure:"stop_sequence" json:"stop_sequence,omitempty" yaml:"stop_sequence,omitempty"`
	Prompt           string        `mapstructure:"prompt" json:"prompt,omitempty" yaml:"prompt,omitempty"`
	PromptsPath      string        `mapstructure:"prompts_path" json:"prompts_path,omitempty" yaml:"prompts_path,omitempty"`
	Timeout          time.Duration `mapstructure:"timeout" json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Appearance is the [settings] table.
type Appearance struct {
	UserColor       string `mapstructure:"user_color" json:"user_color,omitempty" yaml:"user_color,omitempty"`
	ApprenticeColor string `mapstructure:"apprentice_color" json:"apprentice_color,omitempty" yaml:"apprentice_color,omitempty"`
	ToolColor       string `mapstructure:"tool_color" json:"tool_color,omitempty" yaml:"tool_color,omitempty"`
}

// File is the whole settings file. Every top-level table other than
// [settings] is a context.
type File struct {
	DefaultContext string             `mapstructure:"default_context" json:"default_context,omitempty" yaml:"default_context,omitempty"`
	Settings       Appearance         `mapstructure:"settings" json:"settings" yaml:"settings"`
	Contexts       map[string]Context `mapstructure:",remain" json:"contexts,omitempty" yaml:"contexts,omitempty"`
}

// DefaultPath returns ~/.apprentice.toml when it exists, otherwise
// <user config dir>/apprentice/config.toml when that exists, otherwise "".
func DefaultPath() string {
	var candidates []string
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, FileName))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "apprentice", "config.toml"))
	}
	for _, p := range candidates {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

// Open loads path through the viper-backed config loader. The file is
// always parsed as TOML.
func Open(path string, opts ...config.Option[File]) (*config.Config[File], error) {
	opts = append([]config.Option[File]{config.WithType[File]("toml")}, opts...)
	c, err := config.Load(path, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Get().Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Load reads and validates the settings file at path.
func Load(path string) (File, error) {
	c, err := Open(path)
	if err != nil {
		return File{}, err
	}
	return c.Get(), nil
}

// Validate checks the default context reference and the color specs.
func (f File) Validate() error {
	if f.DefaultContext != "" {
		if _, ok := f.Contexts[strings.ToLower(f.DefaultContext)]; !ok {
			return fmt.Errorf("configuration for the default context %q is not specified", f.DefaultContext)
		}
	}
	if _, err := f.Settings.Palette(); err != nil {
		return err
	}
	return nil
}

// Names returns the context names in sorted order.
func (f File) Names() []string {
	names := make([]string, 0, len(f.Contexts))
	for n := range f.Contexts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the named context, or the default context when name is
// empty. With neither, it returns an empty Context for flags to fill.
func (f File) Resolve(name string) (Context, error) {
	if name == "" {
		name = f.DefaultContext
	}
	if name == "" {
		return Context{}, nil
	}
	// viper lower-cases keys
	ctx, ok := f.Contexts[strings.ToLower(name)]
	if !ok {
		return Context{}, fmt.Errorf("context %q is not defined (have %s)", name, strings.Join(f.Names(), ", "))
	}
	return ctx, nil
}

// Masked returns a copy with API keys replaced, for display.
func (f File) Masked() File {
	out := f
	out.Contexts = make(map[string]Context, len(f.Contexts))
	for n, c := range f.Contexts {
		out.Contexts[n] = c.Masked()
	}
	return out
}

func (c Context) Masked() Context {
	c.APIKey = MaskKey(c.APIKey)
	return c
}

// MaskKey keeps the last four characters of keys long enough to identify.
func MaskKey(k string) string {
	switch {
	case k == "":
		return ""
	case len(k) <= 8:
		return "****"
	default:
		return "****" + k[len(k)-4:]
	}
}

// ErrMissingParameter reports a setting required to talk to a model.
var ErrMissingParameter = errors.New("missing parameter")

// ParseGoal parses c.Goal.
func (c Context) ParseGoal() (prompts.Goal, error) {
	if strings.TrimSpace(c.Goal) == "" {
		return "", fmt.Errorf("%w: goal is not specified", ErrMissingParameter)
	}
	return prompts.ParseGoal(c.Goal)
}

// LLMConfig builds a validated llm.Config. An empty api_url falls back to
// the provider's public endpoint.
func (c Context) LLMConfig() (llm.Config, error) {
	switch {
	case strings.TrimSpace(c.Model) == "":
		return llm.Config{}, fmt.Errorf("%w: inference model is not specified", ErrMissingParameter)
	case strings.TrimSpace(c.ModelProvider) == "":
		return llm.Config{}, fmt.Errorf("%w: model provider is not specified", ErrMissingParameter)
	case strings.TrimSpace(c.APIKey) == "":
		return llm.Config{}, fmt.Errorf("%w: API key is not specified", ErrMissingParameter)
	}
	p, err := llm.ParseProvider(c.ModelProvider)
	if err != nil {
		return llm.Config{}, err
	}

	apiURL := c.APIURL
	if apiURL == "" {
		apiURL = llm.DefaultAPIURL(p, c.Model)
	}

	var opts []llm.ConfigOption
	if c.APIVersion != "" {
		opts = append(opts, llm.WithAPIVersion(c.APIVersion))
	}
	if c.MaxTokens != nil {
		opts = append(opts, llm.WithMaxTokens(*c.MaxTokens))
	}
	if c.N != nil {
		opts = append(opts, llm.WithN(*c.N))
	}
	if c.Temperature != nil {
		opts = append(opts, llm.WithTemperature(*c.Temperature))
	}
	if c.TopP != nil {
		opts = append(opts, llm.WithTopP(*c.TopP))
	}
	if c.TopK != nil {
		opts = append(opts, llm.WithTopK(*c.TopK))
	}
	if c.FrequencyPenalty != nil {
		opts = append(opts, llm.WithFrequencyPenalty(*c.FrequencyPenalty))
	}
	if c.PresencePenalty != nil {
		opts = append(opts, llm.WithPresencePenalty(*c.PresencePenalty))
	}
	if c.StopSequence != "" {
		opts = append(opts, llm.WithStopSequence(c.StopSequence))
	}
	if c.PromptsPath != "" {
		opts = append(opts, llm.WithPromptsPath(c.PromptsPath))
	}
	if c.Timeout != 0 {
		opts = append(opts, llm.WithTimeout(c.Timeout))
	}
	return llm.NewConfig(p, c.Model, c.APIKey, apiURL, opts...)
}
