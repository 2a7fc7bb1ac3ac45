package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ai-gentic/apprentice/settings"
)

const envPrefix = "APPRENTICE"

type flagKind int

const (
	kindString flagKind = iota
	kindInt
	kindFloat
	kindDuration
	kindColor
)

type flagSpec struct {
	name  string
	short string
	usage string
	kind  flagKind
}

// settingFlags mirror the keys of a settings context. Each one can also be
// given as APPRENTICE_<NAME>, e.g. APPRENTICE_MODEL_PROVIDER.
var settingFlags = []flagSpec{
	{name: "goal", short: "g", usage: "One of: gcp, aws, azure"},
	{name: "model", short: "m", usage: "Inference model name"},
	{name: "model-provider", short: "p", usage: "Model provider, one of: openai, anthropic, gcp"},
	{name: "api-key", short: "k", usage: "LLM model API key"},
	{name: "api-url", short: "u", usage: "Model API URL (default: the provider's public endpoint)"},
	{name: "api-version", usage: "Model API version"},
	{name: "max-tokens", usage: "Maximum number of tokens that will be generated", kind: kindInt},
	{name: "n", usage: "Number of variants to generate per one LLM call", kind: kindInt},
	{name: "temperature", usage: "Level of randomization when LLM chooses tokens", kind: kindFloat},
	{name: "top-p", usage: "Only the tokens comprising the top_p probability mass will be considered", kind: kindFloat},
	{name: "top-k", usage: "Only k tokens with the most probability will be considered", kind: kindInt},
	{name: "frequency-penalty", usage: "Penalize new tokens based on their existing frequency", kind: kindFloat},
	{name: "presence-penalty", usage: "Penalize new tokens based on whether they appear in the text so far", kind: kindFloat},
	{name: "stop-sequence", usage: "Sequence at which model will stop generating"},
	{name: "prompt", usage: "Custom instructions to use in the system prompt"},
	{name: "prompts-path", usage: "File whose content replaces the built-in system prompt"},
	{name: "timeout", usage: "Request timeout, e.g. 90s", kind: kindDuration},
	{name: "user-color", usage: "User messages and prompt background colors, e.g. 'fg(255,0,123);bg(0,123,255)'", kind: kindColor},
	{name: "apprentice-color", usage: "Apprentice messages and prompt background colors", kind: kindColor},
	{name: "tool-color", usage: "Tool calls and prompt background colors", kind: kindColor},
}

func addSettingFlags(fs *pflag.FlagSet) {
	for _, f := range settingFlags {
		switch f.kind {
		case kindInt:
			fs.Int64P(f.name, f.short, 0, f.usage)
		case kindFloat:
			fs.Float64P(f.name, f.short, 0, f.usage)
		case kindDuration:
			fs.DurationP(f.name, f.short, 0, f.usage)
		default:
			fs.StringP(f.name, f.short, "", f.usage)
		}
	}
}

// newFlagViper binds fs to a viper instance that also reads APPRENTICE_*
// variables. Flags win over the environment.
func newFlagViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	return v, nil
}

func envName(flag string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// given reports whether the user supplied name on the command line or in
// the environment.
func given(fs *pflag.FlagSet, name string) bool {
	if f := fs.Lookup(name); f != nil && f.Changed {
		return true
	}
	_, ok := os.LookupEnv(envName(name))
	return ok
}

// applyEnv parses APPRENTICE_* values for setting flags the command line
// left unset, so both sources go through the same typed flag parser.
func applyEnv(fs *pflag.FlagSet) error {
	for _, f := range settingFlags {
		fl := fs.Lookup(f.name)
		if fl == nil || fl.Changed {
			continue
		}
		raw, ok := os.LookupEnv(envName(f.name))
		if !ok {
			continue
		}
		if err := fs.Set(f.name, strings.TrimSpace(raw)); err != nil {
			return fmt.Errorf("%s: %w", envName(f.name), err)
		}
	}
	return nil
}

// overridesFrom collects the setting flags the user supplied. Range checks
// are left to llm.Config validation.
func overridesFrom(v *viper.Viper, fs *pflag.FlagSet) (settings.Overrides, error) {
	if err := applyEnv(fs); err != nil {
		return settings.Overrides{}, err
	}
	var o settings.Overrides
	for _, f := range settingFlags {
		if !given(fs, f.name) {
			continue
		}
		if err := setOverride(&o, f, v); err != nil {
			return settings.Overrides{}, err
		}
	}
	return o, nil
}

func setOverride(o *settings.Overrides, f flagSpec, v *viper.Viper) error {
	switch f.kind {
	case kindInt:
		n := v.GetInt64(f.name)
		switch f.name {
		case "max-tokens":
			o.MaxTokens = &n
		case "n":
			o.N = &n
		case "top-k":
			o.TopK = &n
		}
	case kindFloat:
		x := v.GetFloat64(f.name)
		switch f.name {
		case "temperature":
			o.Temperature = &x
		case "top-p":
			o.TopP = &x
		case "frequency-penalty":
			o.FrequencyPenalty = &x
		case "presence-penalty":
			o.PresencePenalty = &x
		}
	case kindDuration:
		d := v.GetDuration(f.name)
		o.Timeout = &d
	case kindColor:
		raw := v.GetString(f.name)
		if _, err := settings.ParseColors(raw); err != nil {
			return fmt.Errorf("%s must have valid format, e.g. 'fg(255,0,123);bg(0,123,255)'", f.name)
		}
		switch f.name {
		case "user-color":
			o.UserColor = &raw
		case "apprentice-color":
			o.ApprenticeColor = &raw
		case "tool-color":
			o.ToolColor = &raw
		}
	default:
		s := v.GetString(f.name)
		switch f.name {
		case "goal":
			o.Goal = &s
		case "model":
			o.Model = &s
		case "model-provider":
			o.ModelProvider = &s
		case "api-key":
			o.APIKey = &s
		case "api-url":
			o.APIURL = &s
		case "api-version":
			o.APIVersion = &s
		case "stop-sequence":
			o.StopSequence = &s
		case "prompt":
			o.Prompt = &s
		case "prompts-path":
			o.PromptsPath = &s
		}
	}
	return nil
}
