package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ai-gentic/apprentice/llm"
)

type recorder struct {
	reqs   []*llm.TransportRequest
	status int
	body   string
}

func (r *recorder) Post(_ context.Context, req *llm.TransportRequest) (*llm.TransportResponse, error) {
	r.reqs = append(r.reqs, req)
	status := r.status
	if status == 0 {
		status = http.StatusOK
	}
	return &llm.TransportResponse{StatusCode: status, Body: []byte(r.body)}, nil
}

func (r *recorder) sent(t *testing.T) map[string]any {
	t.Helper()
	require.NotEmpty(t, r.reqs)
	var m map[string]any
	require.NoError(t, json.Unmarshal(r.reqs[len(r.reqs)-1].Body, &m))
	return m
}

const model = "claude-3-5-sonnet-20241022"

func newClient(t *testing.T, rec *recorder, cfgOpts []llm.ConfigOption, opts ...Option) *Client {
	t.Helper()
	cfg, err := llm.NewConfig(llm.ProviderAnthropic, model, "ak-test", llm.DefaultAnthropicURL, cfgOpts...)
	require.NoError(t, err)
	c, err := New(cfg, rec, opts...)
	require.NoError(t, err)
	return c
}

var lookupTool = llm.ToolSpec{
	Name:        "get_weather",
	Description: "Weather lookup.",
	Params: []llm.ToolParam{
		{Name: "city", Type: llm.ParamString, Required: true},
		{Name: "days", Type: llm.ParamInteger},
	},
}

const helloReply = `{"id":"msg_1","type":"message","role":"assistant","model":"claude","content":[{"type":"text","text":"Hello!"}],"stop_reason":"end_turn"}`

func TestGetInference_Request(t *testing.T) {
	t.Parallel()

	rec := &recorder{body: helloReply}
	c := newClient(t, rec, []llm.ConfigOption{
		llm.WithMaxTokens(512),
		llm.WithTemperature(0.3),
		llm.WithTopP(0.8),
		llm.WithTopK(20),
		llm.WithStopSequence("###"),
		llm.WithPresencePenalty(0.4),
	})
	c.SetSystemPrompt("Be brief.")

	out, err := c.GetInference(context.Background(), []llm.Message{
		llm.SystemText("Answer in English."),
		llm.UserText("Hi"),
	}, llm.NoneToolChoice())
	require.NoError(t, err)
	require.Equal(t, []llm.Message{llm.AssistantText("Hello!")}, out)

	req := rec.reqs[0]
	require.Equal(t, "ak-test", req.Header.Get("x-api-key"))
	require.Equal(t, "2023-06-01", req.Header.Get("anthropic-version"))
	require.Empty(t, req.Header.Get("Authorization"))

	body := rec.sent(t)
	require.Equal(t, model, body["model"])
	require.Equal(t, "Be brief.\n\nAnswer in English.", body["system"])
	require.EqualValues(t, 512, body["max_tokens"])
	require.EqualValues(t, 0.3, body["temperature"])
	require.EqualValues(t, 0.8, body["top_p"])
	require.EqualValues(t, 20, body["top_k"])
	require.Equal(t, []any{"###"}, body["stop_sequences"])
	require.NotContains(t, body, "presence_penalty")
	require.NotContains(t, body, "tools")
	require.NotContains(t, body, "tool_choice")
	require.Equal(t, []any{
		map[string]any{"role": "user", "content": []any{map[string]any{"type": "text", "text": "Hi"}}},
	}, body["messages"])
}

func TestGetInference_MaxTokensPolicy(t *testing.T) {
	t.Parallel()

	t.Run("default applied", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{body: helloReply}
		c := newClient(t, rec, nil)

		_, err := c.GetInference(context.Background(), []llm.Message{llm.UserText("Hi")}, llm.NoneToolChoice())
		require.NoError(t, err)
		require.EqualValues(t, defaultMaxTokens, rec.sent(t)["max_tokens"])
	})

	t.Run("strict", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{body: helloReply}
		c := newClient(t, rec, []llm.ConfigOption{llm.WithAPIVersion("2023-06-01")}, WithStrictParameters())

		_, err := c.GetInference(context.Background(), []llm.Message{llm.UserText("Hi")}, llm.NoneToolChoice())
		require.ErrorIs(t, err, llm.ErrMissingRequiredParameter)

		var mp *llm.MissingParameterError
		require.ErrorAs(t, err, &mp)
		require.Equal(t, "max_tokens", mp.Parameter)
		require.Empty(t, rec.reqs)
	})

	t.Run("strict api version", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{body: helloReply}
		c := newClient(t, rec, []llm.ConfigOption{llm.WithMaxTokens(10)}, WithStrictParameters())

		_, err := c.GetInference(context.Background(), []llm.Message{llm.UserText("Hi")}, llm.NoneToolChoice())
		require.ErrorIs(t, err, llm.ErrMissingRequiredParameter)
	})

	t.Run("strict satisfied", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{body: helloReply}
		c := newClient(t, rec, []llm.ConfigOption{llm.WithMaxTokens(10), llm.WithAPIVersion("2024-01-01")}, WithStrictParameters())

		_, err := c.GetInference(context.Background(), []llm.Message{llm.UserText("Hi")}, llm.NoneToolChoice())
		require.NoError(t, err)
		require.Equal(t, "2024-01-01", rec.reqs[0].Header.Get("anthropic-version"))
	})
}

func TestGetInference_ToolChoice(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		choice llm.ToolChoice
		want   map[string]any
	}{
		{name: "auto", choice: llm.AutoToolChoice(), want: map[string]any{"type": "auto", "disable_parallel_tool_use": true}},
		{name: "required", choice: llm.RequiredToolChoice(), want: map[string]any{"type": "any", "disable_parallel_tool_use": true}},
		{name: "specific", choice: llm.SpecificToolChoice("get_weather"), want: map[string]any{"type": "tool", "name": "get_weather", "disable_parallel_tool_use": true}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := &recorder{body: helloReply}
			c := newClient(t, rec, nil, WithTools(lookupTool))

			_, err := c.GetInference(context.Background(), []llm.Message{llm.UserText("weather")}, tc.choice)
			require.NoError(t, err)

			body := rec.sent(t)
			require.Equal(t, tc.want, body["tool_choice"])
			require.Equal(t, []any{map[string]any{
				"name":        "get_weather",
				"description": "Weather lookup.",
				"input_schema": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"city": map[string]any{"type": "string"},
						"days": map[string]any{"type": "integer"},
					},
					"required":             []any{"city"},
					"additionalProperties": false,
				},
			}}, body["tools"])
		})
	}
}

func TestGetInference_ToolHistoryBlocks(t *testing.T) {
	t.Parallel()

	rec := &recorder{body: helloReply}
	c := newClient(t, rec, nil, WithTools(lookupTool))

	_, err := c.GetInference(context.Background(), []llm.Message{
		llm.UserText("Weather in Lima and Quito?"),
		llm.AssistantText("Checking both."),
		llm.NewToolCall("toolu_1", "get_weather", map[string]any{"city": "Lima"}),
		llm.NewToolCall("toolu_2", "get_weather", map[string]any{"city": "Quito"}),
		llm.NewToolResult("toolu_1", "warm"),
		llm.NewToolResult("toolu_2", "cool"),
	}, llm.AutoToolChoice())
	require.NoError(t, err)

	msgs := rec.sent(t)["messages"].([]any)
	require.Len(t, msgs, 3)
	require.Equal(t, map[string]any{
		"role": "assistant",
		"content": []any{
			map[string]any{"type": "text", "text": "Checking both."},
			map[string]any{"type": "tool_use", "id": "toolu_1", "name": "get_weather", "input": map[string]any{"city": "Lima"}},
			map[string]any{"type": "tool_use", "id": "toolu_2", "name": "get_weather", "input": map[string]any{"city": "Quito"}},
		},
	}, msgs[1])
	require.Equal(t, map[string]any{
		"role": "user",
		"content": []any{
			map[string]any{"type": "tool_result", "tool_use_id": "toolu_1", "content": "warm"},
			map[string]any{"type": "tool_result", "tool_use_id": "toolu_2", "content": "cool"},
		},
	}, msgs[2])
}

func TestGetInference_EmptyToolInputIsObject(t *testing.T) {
	t.Parallel()

	rec := &recorder{body: helloReply}
	c := newClient(t, rec, nil)

	_, err := c.GetInference(context.Background(), []llm.Message{
		llm.UserText("time?"),
		llm.NewToolCall("toolu_1", "now", nil),
		llm.NewToolResult("toolu_1", "noon"),
	}, llm.NoneToolChoice())
	require.NoError(t, err)

	msgs := rec.sent(t)["messages"].([]any)
	block := msgs[1].(map[string]any)["content"].([]any)[0].(map[string]any)
	require.Equal(t, map[string]any{}, block["input"])
}

func TestGetInference_TextAndToolUseInOrder(t *testing.T) {
	t.Parallel()

	rec := &recorder{body: `{"type":"message","role":"assistant","content":[
		{"type":"text","text":"Let me look."},
		{"type":"tool_use","id":"toolu_7","name":"get_weather","input":{"city":"Cusco","days":3}}
	],"stop_reason":"tool_use"}`}
	c := newClient(t, rec, nil, WithTools(lookupTool))

	out, err := c.GetInference(context.Background(), []llm.Message{llm.UserText("Cusco")}, llm.AutoToolChoice())
	require.NoError(t, err)
	require.True(t, llm.EqualSequences([]llm.Message{
		llm.AssistantText("Let me look."),
		llm.NewToolCall("toolu_7", "get_weather", map[string]any{"city": "Cusco", "days": json.Number("3")}),
	}, out))
}

func TestGetInference_RequestResponseSymmetry(t *testing.T) {
	t.Parallel()

	turn := []llm.Message{
		llm.AssistantText("One moment."),
		llm.NewToolCall("toolu_a", "get_weather", map[string]any{"city": "Bogota"}),
	}
	rec := &recorder{body: helloReply}
	c := newClient(t, rec, nil)
	_, err := c.GetInference(context.Background(), append([]llm.Message{llm.UserText("go")}, turn...), llm.NoneToolChoice())
	require.NoError(t, err)

	var sent struct {
		Messages []struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.reqs[0].Body, &sent))
	require.Len(t, sent.Messages, 2)

	resp, err := json.Marshal(map[string]any{"type": "message", "role": sent.Messages[1].Role, "content": sent.Messages[1].Content})
	require.NoError(t, err)

	got, err := mapResponse(resp)
	require.NoError(t, err)
	require.True(t, llm.EqualSequences(turn, got), "got %#v", got)
}

func TestGetInference_RejectsResponses(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
		want error
	}{
		{name: "tool_result block", body: `{"type":"message","role":"assistant","content":[{"type":"tool_result","tool_use_id":"x","content":"r"}]}`, want: llm.ErrInvalidRoleForResponse},
		{name: "user role", body: `{"type":"message","role":"user","content":[]}`, want: llm.ErrInvalidRoleForResponse},
		{name: "unknown block", body: `{"type":"message","role":"assistant","content":[{"type":"image","source":{}}]}`, want: llm.ErrUnrecognizedResponse},
		{name: "input not object", body: `{"type":"message","role":"assistant","content":[{"type":"tool_use","id":"t","name":"f","input":"x"}]}`, want: llm.ErrUnrecognizedResponse},
		{name: "not json", body: `oops`, want: llm.ErrUnrecognizedResponse},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := newClient(t, &recorder{body: tc.body}, nil)
			_, err := c.GetInference(context.Background(), []llm.Message{llm.UserText("x")}, llm.NoneToolChoice())
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestGetInference_Errors(t *testing.T) {
	t.Parallel()

	t.Run("empty history", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{body: helloReply}
		c := newClient(t, rec, nil)
		_, err := c.GetInference(context.Background(), []llm.Message{}, llm.NoneToolChoice())
		require.ErrorIs(t, err, llm.ErrEmptyHistory)
		require.Empty(t, rec.reqs)
	})

	t.Run("overloaded", func(t *testing.T) {
		t.Parallel()

		body := `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`
		c := newClient(t, &recorder{status: 529, body: body}, nil)
		_, err := c.GetInference(context.Background(), []llm.Message{llm.UserText("x")}, llm.NoneToolChoice())

		te, ok := llm.AsTransportError(err)
		require.True(t, ok)
		require.Equal(t, 529, te.StatusCode)
		require.Equal(t, "Overloaded", te.Message)
	})
}

func TestGetInference_ToolChoiceWithoutTools(t *testing.T) {
	t.Parallel()

	for _, choice := range []llm.ToolChoice{llm.AutoToolChoice(), llm.RequiredToolChoice(), llm.SpecificToolChoice("get_weather")} {
		rec := &recorder{body: helloReply}
		c := newClient(t, rec, nil)
		_, err := c.GetInference(context.Background(), []llm.Message{llm.UserText("hi")}, choice)
		require.NoError(t, err)

		body := rec.sent(t)
		require.NotContains(t, body, "tools", choice.String())
		require.NotContains(t, body, "tool_choice", choice.String())
	}
}

func TestWithBeta(t *testing.T) {
	t.Parallel()

	rec := &recorder{body: helloReply}
	c := newClient(t, rec, nil, WithBeta("token-efficient-tools-2025-02-19"))
	_, err := c.GetInference(context.Background(), []llm.Message{llm.UserText("hi")}, llm.NoneToolChoice())
	require.NoError(t, err)
	require.Equal(t, "token-efficient-tools-2025-02-19", rec.reqs[0].Header.Get("anthropic-beta"))
	require.Equal(t, "ak-test", rec.reqs[0].Header.Get("x-api-key"))
}
