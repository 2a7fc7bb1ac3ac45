package llm

import (
	"fmt"
	"maps"
	"reflect"
)

// Role is the speaker of a Text message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// Message is one conversation entry: Text, ToolCall or ToolResult.
//
// The set of implementations is closed; providers switch on the concrete type.
type Message interface {
	isMessage()
}

// Text is a plain conversational turn.
type Text struct {
	Role    Role
	Content string
}

// ToolCall is the assistant's request to invoke a tool.
//
// ID is an opaque correlation token. Arguments is the decoded argument object;
// providers that carry arguments as JSON text encode and decode it at the wire
// boundary.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolResult is the caller-supplied outcome of a prior ToolCall with the same ID.
//
// Name is optional. Vendors that address results by function name fall back
// to the name of the correlated ToolCall when it is empty.
type ToolResult struct {
	ID      string
	Name    string
	Content string
}

func (Text) isMessage()       {}
func (ToolCall) isMessage()   {}
func (ToolResult) isMessage() {}

// NewText and the role shorthands below build Text messages.
func NewText(role Role, content string) Text { return Text{Role: role, Content: content} }
func SystemText(content string) Text         { return Text{Role: RoleSystem, Content: content} }
func UserText(content string) Text           { return Text{Role: RoleUser, Content: content} }
func AssistantText(content string) Text      { return Text{Role: RoleAssistant, Content: content} }

// NewToolCall keeps args as given; a nil map means no arguments.
func NewToolCall(id, name string, args map[string]any) ToolCall {
	return ToolCall{ID: id, Name: name, Arguments: args}
}

// NewToolResult answers the ToolCall with the same id.
func NewToolResult(id, content string) ToolResult {
	return ToolResult{ID: id, Content: content}
}

// Clone returns a ToolCall whose Arguments map can be mutated independently.
func (c ToolCall) Clone() ToolCall {
	out := c
	if c.Arguments != nil {
		out.Arguments = maps.Clone(c.Arguments)
	}
	return out
}

// StringArg returns the named argument when it is a string.
func (c ToolCall) StringArg(name string) (string, bool) {
	v, ok := c.Arguments[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Equal reports whether two messages are structurally equal.
func Equal(a, b Message) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

// EqualSequences reports whether two message sequences are structurally equal
// element by element.
func EqualSequences(a, b []Message) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// normalize treats a nil and an empty argument map as the same value.
func normalize(m Message) Message {
	if c, ok := m.(ToolCall); ok && len(c.Arguments) == 0 {
		c.Arguments = nil
		return c
	}
	return m
}

// CloneMessages copies in, cloning ToolCall arguments.
func CloneMessages(in []Message) []Message {
	if in == nil {
		return nil
	}
	out := make([]Message, len(in))
	for i, m := range in {
		if c, ok := m.(ToolCall); ok {
			out[i] = c.Clone()
			continue
		}
		out[i] = m
	}
	return out
}

// Describe renders a message for logs and error text.
func Describe(m Message) string {
	switch v := m.(type) {
	case Text:
		return fmt.Sprintf("text(%s)", v.Role)
	case ToolCall:
		return fmt.Sprintf("tool_call(%s, id=%q)", v.Name, v.ID)
	case ToolResult:
		return fmt.Sprintf("tool_result(id=%q)", v.ID)
	case nil:
		return "nil"
	default:
		return fmt.Sprintf("%T", m)
	}
}

// ToolChoiceMode is the kind of a ToolChoice.
type ToolChoiceMode string

const (
	ToolChoiceNone     ToolChoiceMode = "none"
	ToolChoiceAuto     ToolChoiceMode = "auto"
	ToolChoiceRequired ToolChoiceMode = "required"
	ToolChoiceSpecific ToolChoiceMode = "specific"
)

// ToolChoice is the tool-use policy for one inference call.
//
// The zero value disables tools.
type ToolChoice struct {
	mode ToolChoiceMode
	name string
}

func NoneToolChoice() ToolChoice     { return ToolChoice{mode: ToolChoiceNone} }
func AutoToolChoice() ToolChoice     { return ToolChoice{mode: ToolChoiceAuto} }
func RequiredToolChoice() ToolChoice { return ToolChoice{mode: ToolChoiceRequired} }

// SpecificToolChoice forces the model to call the named tool.
func SpecificToolChoice(name string) ToolChoice {
	return ToolChoice{mode: ToolChoiceSpecific, name: name}
}

func (c ToolChoice) Mode() ToolChoiceMode {
	if c.mode == "" {
		return ToolChoiceNone
	}
	return c.mode
}

// Name is the forced tool name for ToolChoiceSpecific and empty otherwise.
func (c ToolChoice) Name() string { return c.name }

// ToolsEnabled reports whether tool definitions belong in the request.
func (c ToolChoice) ToolsEnabled() bool { return c.Mode() != ToolChoiceNone }

func (c ToolChoice) String() string {
	if c.Mode() == ToolChoiceSpecific {
		return fmt.Sprintf("specific(%s)", c.name)
	}
	return string(c.Mode())
}

// ParamType is the JSON Schema type of a ToolParam.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamNumber  ParamType = "number"
	ParamInteger ParamType = "integer"
	ParamBoolean ParamType = "boolean"
)

// ToolParam is one named argument of a tool.
type ToolParam struct {
	Name        string
	Description string
	Type        ParamType
	Required    bool
}

// ToolSpec describes a tool the model may call.
type ToolSpec struct {
	Name        string
	Description string
	Params      []ToolParam
}

// Validate checks the tool name and its parameters.
func (s ToolSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("llm: tool name is required")
	}
	seen := make(map[string]struct{}, len(s.Params))
	for _, p := range s.Params {
		if p.Name == "" {
			return fmt.Errorf("llm: tool %q: parameter name is required", s.Name)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("llm: tool %q: duplicate parameter %q", s.Name, p.Name)
		}
		seen[p.Name] = struct{}{}
		switch p.Type {
		case ParamString, ParamNumber, ParamInteger, ParamBoolean:
		default:
			return fmt.Errorf("llm: tool %q: parameter %q has unsupported type %q", s.Name, p.Name, p.Type)
		}
	}
	return nil
}

// ValidateTools checks every spec and rejects duplicate tool names.
func ValidateTools(specs []ToolSpec) error {
	seen := make(map[string]struct{}, len(specs))
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, dup := seen[s.Name]; dup {
			return fmt.Errorf("llm: duplicate tool %q", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}
