package anthropic

import (
	"fmt"
	"strings"

	"github.com/ai-gentic/apprentice/llm"
	"github.com/ai-gentic/apprentice/llm/internal/wire"
)

func (c *Client) mapRequest(prompt string, history []llm.Message, choice llm.ToolChoice, maxTokens int64) (*messageRequest, error) {
	system, msgs, err := mapMessages(prompt, history)
	if err != nil {
		return nil, err
	}

	req := &messageRequest{
		Model:       c.cfg.Model,
		System:      system,
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: c.cfg.Temperature,
		TopP:        c.cfg.TopP,
		TopK:        c.cfg.TopK,
	}
	if c.cfg.StopSequence != "" {
		req.StopSequences = []string{c.cfg.StopSequence}
	}

	if choice.ToolsEnabled() && len(c.tools) > 0 {
		req.Tools = mapTools(c.tools)
		req.ToolChoice = mapToolChoice(choice)
	}
	return req, nil
}

// mapMessages folds system text into the top-level system field and packs
// history into alternating turns. Consecutive entries for the same speaker
// share one message; tool calls are assistant tool_use blocks and tool
// results are user tool_result blocks.
func mapMessages(prompt string, history []llm.Message) (string, []messageParam, error) {
	var system []string
	if prompt != "" {
		system = append(system, prompt)
	}

	out := make([]messageParam, 0, len(history))
	appendBlock := func(role string, b contentBlock) {
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, b)
			return
		}
		out = append(out, messageParam{Role: role, Content: []contentBlock{b}})
	}

	for _, m := range history {
		switch v := m.(type) {
		case llm.Text:
			if v.Role == llm.RoleSystem {
				system = append(system, v.Content)
				continue
			}
			text := v.Content
			appendBlock(string(v.Role), contentBlock{Type: "text", Text: &text})
		case llm.ToolCall:
			input, err := wire.EncodeArguments(v.Arguments)
			if err != nil {
				return "", nil, fmt.Errorf("anthropic: tool call %q: %w", v.ID, err)
			}
			appendBlock("assistant", contentBlock{
				Type:  "tool_use",
				ID:    v.ID,
				Name:  v.Name,
				Input: []byte(input),
			})
		case llm.ToolResult:
			content := v.Content
			appendBlock("user", contentBlock{
				Type:      "tool_result",
				ToolUseID: v.ID,
				Content:   &content,
			})
		}
	}
	return strings.Join(system, "\n\n"), out, nil
}

func mapTools(specs []llm.ToolSpec) []toolParam {
	out := make([]toolParam, 0, len(specs))
	for _, s := range specs {
		out = append(out, toolParam{
			Name:        s.Name,
			Description: s.Description,
			InputSchema: wire.ParamsSchema(s.Params, wire.SchemaClosed),
		})
	}
	return out
}

func mapToolChoice(tc llm.ToolChoice) *toolChoice {
	out := &toolChoice{Type: "auto", DisableParallelToolUse: true}
	switch tc.Mode() {
	case llm.ToolChoiceRequired:
		out.Type = "any"
	case llm.ToolChoiceSpecific:
		out.Type = "tool"
		out.Name = tc.Name()
	}
	return out
}
