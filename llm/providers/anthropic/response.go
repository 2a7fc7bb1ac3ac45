package anthropic

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ai-gentic/apprentice/llm"
	"github.com/ai-gentic/apprentice/llm/internal/wire"
)

func mapResponse(body []byte) ([]llm.Message, error) {
	var resp messageResponse
	if err := wire.Decode(llm.ProviderAnthropic, body, &resp); err != nil {
		return nil, err
	}
	if resp.Type == "error" || resp.Error != nil {
		te := &llm.TransportError{
			Provider:   llm.ProviderAnthropic,
			StatusCode: http.StatusOK,
			Body:       append([]byte(nil), body...),
		}
		if resp.Error != nil {
			te.Message = resp.Error.Message
		}
		return nil, te
	}
	if resp.Type != "" && resp.Type != "message" {
		return nil, llm.Unrecognized(llm.ProviderAnthropic, fmt.Sprintf("unexpected response type %q", resp.Type), body)
	}
	switch resp.Role {
	case "assistant", "":
	case "user":
		return nil, llm.InvalidRole(llm.ProviderAnthropic, "user turn in response", body)
	default:
		return nil, llm.Unrecognized(llm.ProviderAnthropic, fmt.Sprintf("unexpected role %q", resp.Role), body)
	}

	out := make([]llm.Message, 0, len(resp.Content))
	for _, raw := range resp.Content {
		m, err := mapBlock(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func mapBlock(raw json.RawMessage) (llm.Message, error) {
	var b responseBlock
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, llm.Unrecognized(llm.ProviderAnthropic, "malformed content block: "+err.Error(), raw)
	}

	switch b.Type {
	case "text":
		if b.Text == nil {
			return nil, llm.Unrecognized(llm.ProviderAnthropic, "text block without text", raw)
		}
		return llm.AssistantText(*b.Text), nil
	case "tool_use":
		if b.Name == "" {
			return nil, llm.Unrecognized(llm.ProviderAnthropic, "tool_use block without name", raw)
		}
		args, err := wire.DecodeArguments(b.Input)
		if err != nil {
			return nil, llm.Unrecognized(llm.ProviderAnthropic, "malformed tool_use input: "+err.Error(), raw)
		}
		return llm.NewToolCall(b.ID, b.Name, args), nil
	case "tool_result":
		return nil, llm.InvalidRole(llm.ProviderAnthropic, "tool_result block in response", raw)
	default:
		return nil, llm.Unrecognized(llm.ProviderAnthropic, fmt.Sprintf("unsupported content block type %q", b.Type), raw)
	}
}

func parseErrorMessage(body []byte) string {
	var env errorResponse
	if err := json.Unmarshal(body, &env); err != nil || env.Error == nil {
		return ""
	}
	return env.Error.Message
}
