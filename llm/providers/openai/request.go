package openai

import (
	"encoding/json"
	"fmt"

	"github.com/ai-gentic/apprentice/llm"
	"github.com/ai-gentic/apprentice/llm/internal/wire"
)

func (c *Client) mapRequest(prompt string, history []llm.Message, choice llm.ToolChoice) (*chatRequest, error) {
	msgs, err := mapMessages(prompt, history)
	if err != nil {
		return nil, err
	}

	req := &chatRequest{
		Model:               c.cfg.Model,
		Messages:            msgs,
		MaxCompletionTokens: c.cfg.MaxTokens,
		N:                   c.cfg.N,
		Temperature:         c.cfg.Temperature,
		TopP:                c.cfg.TopP,
		FrequencyPenalty:    c.cfg.FrequencyPenalty,
		PresencePenalty:     c.cfg.PresencePenalty,
		Stop:                c.cfg.StopSequence,
	}

	if choice.ToolsEnabled() && len(c.tools) > 0 {
		req.Tools = mapTools(c.tools)
		req.ToolChoice = mapToolChoice(choice)
		parallel := false
		req.ParallelToolCalls = &parallel
	}
	return req, nil
}

// mapMessages lays out the system prompt first, then history in order.
// Tool calls join the preceding assistant message.
func mapMessages(prompt string, history []llm.Message) ([]wireMessage, error) {
	out := make([]wireMessage, 0, len(history)+1)
	if prompt != "" {
		out = append(out, wireMessage{Role: "system", Content: jsonString(prompt)})
	}

	for _, m := range history {
		switch v := m.(type) {
		case llm.Text:
			out = append(out, wireMessage{Role: string(v.Role), Content: jsonString(v.Content)})
		case llm.ToolCall:
			args, err := wire.EncodeArguments(v.Arguments)
			if err != nil {
				return nil, fmt.Errorf("openai: tool call %q: %w", v.ID, err)
			}
			tc := wireToolCall{
				ID:       v.ID,
				Type:     "function",
				Function: wireFunctionCall{Name: v.Name, Arguments: args},
			}
			if last := lastAssistant(out); last != nil {
				last.ToolCalls = append(last.ToolCalls, tc)
				continue
			}
			out = append(out, wireMessage{Role: "assistant", ToolCalls: []wireToolCall{tc}})
		case llm.ToolResult:
			out = append(out, wireMessage{Role: "tool", ToolCallID: v.ID, Content: jsonString(v.Content)})
		}
	}
	return out, nil
}

// lastAssistant returns the trailing message when it is an assistant turn
// that can still take tool calls.
func lastAssistant(msgs []wireMessage) *wireMessage {
	if len(msgs) == 0 {
		return nil
	}
	last := &msgs[len(msgs)-1]
	if last.Role != "assistant" {
		return nil
	}
	return last
}

func mapTools(specs []llm.ToolSpec) []wireTool {
	out := make([]wireTool, 0, len(specs))
	for _, s := range specs {
		out = append(out, wireTool{
			Type: "function",
			Function: wireFunctionDef{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  wire.ParamsSchema(s.Params, wire.SchemaStrict),
				Strict:      true,
			},
		})
	}
	return out
}

func mapToolChoice(tc llm.ToolChoice) any {
	switch tc.Mode() {
	case llm.ToolChoiceRequired:
		return "required"
	case llm.ToolChoiceSpecific:
		return map[string]any{
			"type": "function",
			"function": map[string]any{
				"name": tc.Name(),
			},
		}
	default:
		return "auto"
	}
}

func jsonString(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}
