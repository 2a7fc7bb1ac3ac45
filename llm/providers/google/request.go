package google

import (
	"fmt"

	"github.com/ai-gentic/apprentice/llm"
	"github.com/ai-gentic/apprentice/llm/internal/wire"
)

func (c *Client) mapRequest(prompt string, history []llm.Message, choice llm.ToolChoice) (*generateContentRequest, error) {
	system, contents, err := mapContents(prompt, history)
	if err != nil {
		return nil, err
	}

	req := &generateContentRequest{
		SystemInstruction: system,
		Contents:          contents,
	}

	gc := generationConfig{
		MaxOutputTokens:  c.cfg.MaxTokens,
		CandidateCount:   c.cfg.N,
		Temperature:      c.cfg.Temperature,
		TopP:             c.cfg.TopP,
		TopK:             c.cfg.TopK,
		PresencePenalty:  c.cfg.PresencePenalty,
		FrequencyPenalty: c.cfg.FrequencyPenalty,
	}
	if c.cfg.StopSequence != "" {
		gc.StopSequences = []string{c.cfg.StopSequence}
	}
	if !gc.empty() {
		req.GenerationConfig = &gc
	}

	if choice.ToolsEnabled() && len(c.tools) > 0 {
		req.Tools = mapTools(c.tools)
		req.ToolConfig = mapToolConfig(choice)
	}
	return req, nil
}

// mapContents collects system text into systemInstruction and packs the rest
// into user/model contents, merging consecutive entries of the same speaker.
func mapContents(prompt string, history []llm.Message) (*content, []content, error) {
	var system []part
	if prompt != "" {
		system = append(system, textPart(prompt))
	}

	names := make(map[string]string)
	for _, m := range history {
		if call, ok := m.(llm.ToolCall); ok && call.ID != "" {
			names[call.ID] = call.Name
		}
	}

	out := make([]content, 0, len(history))
	appendPart := func(role string, p part) {
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Parts = append(out[n-1].Parts, p)
			return
		}
		out = append(out, content{Role: role, Parts: []part{p}})
	}

	for i, m := range history {
		switch v := m.(type) {
		case llm.Text:
			switch v.Role {
			case llm.RoleSystem:
				system = append(system, textPart(v.Content))
			case llm.RoleAssistant:
				appendPart("model", textPart(v.Content))
			default:
				appendPart("user", textPart(v.Content))
			}
		case llm.ToolCall:
			args, err := wire.EncodeArguments(v.Arguments)
			if err != nil {
				return nil, nil, fmt.Errorf("google: tool call %q: %w", v.ID, err)
			}
			appendPart("model", part{FunctionCall: &functionCall{ID: v.ID, Name: v.Name, Args: []byte(args)}})
		case llm.ToolResult:
			name := v.Name
			if name == "" {
				name = names[v.ID]
			}
			if name == "" {
				return nil, nil, fmt.Errorf("%w: history[%d]: tool result %q has no function name", llm.ErrInvalidHistory, i, v.ID)
			}
			appendPart("user", part{FunctionResponse: &functionResponse{
				ID:       v.ID,
				Name:     name,
				Response: functionResponsePayload{Name: name, Content: v.Content},
			}})
		}
	}

	if len(system) == 0 {
		return nil, out, nil
	}
	return &content{Parts: system}, out, nil
}

func textPart(s string) part { return part{Text: &s} }

func mapTools(specs []llm.ToolSpec) []tool {
	decls := make([]functionDeclaration, 0, len(specs))
	for _, s := range specs {
		d := functionDeclaration{Name: s.Name, Description: s.Description}
		if len(s.Params) > 0 {
			d.Parameters = wire.ParamsSchema(s.Params, wire.SchemaOpen)
		}
		decls = append(decls, d)
	}
	if len(decls) == 0 {
		return nil
	}
	return []tool{{FunctionDeclarations: decls}}
}

func mapToolConfig(tc llm.ToolChoice) *toolConfig {
	cfg := &toolConfig{FunctionCallingConfig: functionCallingConfig{Mode: "AUTO"}}
	switch tc.Mode() {
	case llm.ToolChoiceRequired:
		cfg.FunctionCallingConfig.Mode = "ANY"
	case llm.ToolChoiceSpecific:
		cfg.FunctionCallingConfig.Mode = "ANY"
		cfg.FunctionCallingConfig.AllowedFunctionNames = []string{tc.Name()}
	}
	return cfg
}
