package settings

import "time"

// Overrides are values given on the command line or in APPRENTICE_*
// variables. Nil fields leave the context untouched.
type Overrides struct {
	Goal             *string
	ModelProvider    *string
	Model            *string
	APIKey           *string
	APIURL           *string
	APIVersion       *string
	MaxTokens        *int64
	N                *int64
	Temperature      *float64
	TopP             *float64
	TopK             *int64
	FrequencyPenalty *float64
	PresencePenalty  *float64
	StopSequence     *string
	Prompt           *string
	PromptsPath      *string
	Timeout          *time.Duration

	UserColor       *string
	ApprenticeColor *string
	ToolColor       *string
}

// Apply returns c with every set override written over it.
func (o Overrides) Apply(c Context) Context {
	setString(&c.Goal, o.Goal)
	setString(&c.ModelProvider, o.ModelProvider)
	setString(&c.Model, o.Model)
	setString(&c.APIKey, o.APIKey)
	setString(&c.APIURL, o.APIURL)
	setString(&c.APIVersion, o.APIVersion)
	setString(&c.StopSequence, o.StopSequence)
	setString(&c.Prompt, o.Prompt)
	setString(&c.PromptsPath, o.PromptsPath)
	if o.MaxTokens != nil {
		c.MaxTokens = ptr(*o.MaxTokens)
	}
	if o.N != nil {
		c.N = ptr(*o.N)
	}
	if o.Temperature != nil {
		c.Temperature = ptr(*o.Temperature)
	}
	if o.TopP != nil {
		c.TopP = ptr(*o.TopP)
	}
	if o.TopK != nil {
		c.TopK = ptr(*o.TopK)
	}
	if o.FrequencyPenalty != nil {
		c.FrequencyPenalty = ptr(*o.FrequencyPenalty)
	}
	if o.PresencePenalty != nil {
		c.PresencePenalty = ptr(*o.PresencePenalty)
	}
	if o.Timeout != nil {
		c.Timeout = *o.Timeout
	}
	return c
}

// ApplyAppearance overrides the color specs of a.
func (o Overrides) ApplyAppearance(a Appearance) Appearance {
	setString(&a.UserColor, o.UserColor)
	setString(&a.ApprenticeColor, o.ApprenticeColor)
	setString(&a.ToolColor, o.ToolColor)
	return a
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func ptr[T any](v T) *T { return &v }
