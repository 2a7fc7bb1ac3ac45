package google

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ai-gentic/apprentice/llm"
	"github.com/ai-gentic/apprentice/llm/internal/wire"
)

func mapResponse(body []byte) ([]llm.Message, error) {
	var resp generateContentResponse
	if err := wire.Decode(llm.ProviderGoogle, body, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		status := resp.Error.Code
		if status == 0 {
			status = http.StatusOK
		}
		return nil, &llm.TransportError{
			Provider:   llm.ProviderGoogle,
			StatusCode: status,
			Message:    resp.Error.Message,
			Body:       append([]byte(nil), body...),
		}
	}
	if len(resp.Candidates) == 0 {
		if len(resp.PromptFeedback) > 0 {
			return nil, llm.Unrecognized(llm.ProviderGoogle, "prompt was blocked", resp.PromptFeedback)
		}
		return nil, llm.Unrecognized(llm.ProviderGoogle, "response has no candidates", body)
	}

	var out []llm.Message
	for _, cand := range resp.Candidates {
		msgs, err := mapCandidate(cand)
		if err != nil {
			return nil, err
		}
		out = append(out, msgs...)
	}
	return out, nil
}

func mapCandidate(cand candidate) ([]llm.Message, error) {
	raw := bytes.TrimSpace(cand.Content)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		frag, _ := json.Marshal(cand)
		return nil, llm.Unrecognized(llm.ProviderGoogle,
			fmt.Sprintf("candidate %d has no content (finishReason %q)", cand.Index, cand.FinishReason), frag)
	}
	var c responseContent
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, llm.Unrecognized(llm.ProviderGoogle, "malformed candidate content: "+err.Error(), raw)
	}
	switch c.Role {
	case "model", "":
	case "user", "function":
		return nil, llm.InvalidRole(llm.ProviderGoogle, fmt.Sprintf("%s content in response", c.Role), raw)
	default:
		return nil, llm.Unrecognized(llm.ProviderGoogle, fmt.Sprintf("unexpected role %q", c.Role), raw)
	}

	out := make([]llm.Message, 0, len(c.Parts))
	for _, rawPart := range c.Parts {
		m, err := mapPart(rawPart)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func mapPart(raw json.RawMessage) (llm.Message, error) {
	var p responsePart
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, llm.Unrecognized(llm.ProviderGoogle, "malformed part: "+err.Error(), raw)
	}

	switch {
	case len(p.FunctionResponse) > 0:
		return nil, llm.InvalidRole(llm.ProviderGoogle, "functionResponse part in response", raw)
	case p.FunctionCall != nil:
		if p.FunctionCall.Name == "" {
			return nil, llm.Unrecognized(llm.ProviderGoogle, "functionCall without name", raw)
		}
		args, err := wire.DecodeArguments(p.FunctionCall.Args)
		if err != nil {
			return nil, llm.Unrecognized(llm.ProviderGoogle, "malformed functionCall args: "+err.Error(), raw)
		}
		return llm.NewToolCall(p.FunctionCall.ID, p.FunctionCall.Name, args), nil
	case p.Text != nil:
		if p.Thought {
			return nil, llm.Unrecognized(llm.ProviderGoogle, "thought parts are not supported", raw)
		}
		return llm.AssistantText(*p.Text), nil
	default:
		return nil, llm.Unrecognized(llm.ProviderGoogle, "unsupported part", raw)
	}
}

func parseErrorMessage(body []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error == nil {
		return ""
	}
	return env.Error.Message
}
