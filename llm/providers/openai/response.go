package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ai-gentic/apprentice/llm"
	"github.com/ai-gentic/apprentice/llm/internal/wire"
)

type responseMessage struct {
	Role         string            `json:"role"`
	Content      json.RawMessage   `json:"content"`
	Refusal      *string           `json:"refusal"`
	ToolCalls    []json.RawMessage `json:"tool_calls"`
	FunctionCall json.RawMessage   `json:"function_call"`
}

func mapResponse(body []byte) ([]llm.Message, error) {
	var resp chatCompletionResponse
	if err := wire.Decode(llm.ProviderOpenAI, body, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, &llm.TransportError{
			Provider:   llm.ProviderOpenAI,
			StatusCode: http.StatusOK,
			Message:    resp.Error.Message,
			Body:       append([]byte(nil), body...),
		}
	}
	if len(resp.Choices) == 0 {
		return nil, llm.Unrecognized(llm.ProviderOpenAI, "response has no choices", body)
	}

	var out []llm.Message
	for _, ch := range resp.Choices {
		msgs, err := mapChoiceMessage(ch.Message)
		if err != nil {
			return nil, err
		}
		out = append(out, msgs...)
	}
	return out, nil
}

func mapChoiceMessage(raw json.RawMessage) ([]llm.Message, error) {
	if isNull(raw) {
		return nil, llm.Unrecognized(llm.ProviderOpenAI, "choice has no message", raw)
	}
	var m responseMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, llm.Unrecognized(llm.ProviderOpenAI, "malformed message: "+err.Error(), raw)
	}

	switch m.Role {
	case "assistant", "":
	case "tool":
		return nil, llm.InvalidRole(llm.ProviderOpenAI, "tool message in response", raw)
	default:
		return nil, llm.Unrecognized(llm.ProviderOpenAI, fmt.Sprintf("unexpected role %q", m.Role), raw)
	}
	if !isNull(m.FunctionCall) {
		return nil, llm.Unrecognized(llm.ProviderOpenAI, "legacy function_call is not supported", m.FunctionCall)
	}

	var out []llm.Message
	if !isNull(m.Content) {
		var text string
		if err := json.Unmarshal(m.Content, &text); err != nil {
			return nil, llm.Unrecognized(llm.ProviderOpenAI, "message content is not a string", m.Content)
		}
		if text != "" {
			out = append(out, llm.AssistantText(text))
		}
	}
	if m.Refusal != nil && *m.Refusal != "" {
		out = append(out, llm.AssistantText(*m.Refusal))
	}

	for _, rawCall := range m.ToolCalls {
		call, err := mapToolCall(rawCall)
		if err != nil {
			return nil, err
		}
		out = append(out, call)
	}
	return out, nil
}

func mapToolCall(raw json.RawMessage) (llm.ToolCall, error) {
	var tc wireToolCall
	if err := json.Unmarshal(raw, &tc); err != nil {
		return llm.ToolCall{}, llm.Unrecognized(llm.ProviderOpenAI, "malformed tool call: "+err.Error(), raw)
	}
	if tc.Type != "" && tc.Type != "function" {
		return llm.ToolCall{}, llm.Unrecognized(llm.ProviderOpenAI, fmt.Sprintf("unsupported tool call type %q", tc.Type), raw)
	}
	if tc.Function.Name == "" {
		return llm.ToolCall{}, llm.Unrecognized(llm.ProviderOpenAI, "tool call without function name", raw)
	}
	args, err := wire.DecodeArguments([]byte(tc.Function.Arguments))
	if err != nil {
		return llm.ToolCall{}, llm.Unrecognized(llm.ProviderOpenAI, "malformed tool call arguments: "+err.Error(), raw)
	}
	return llm.NewToolCall(tc.ID, tc.Function.Name, args), nil
}

func parseErrorMessage(body []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error == nil {
		return ""
	}
	return env.Error.Message
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
