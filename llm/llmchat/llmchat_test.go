package llmchat

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ai-gentic/apprentice/llm"
	"github.com/ai-gentic/apprentice/llm/providers/anthropic"
	"github.com/ai-gentic/apprentice/llm/providers/google"
	"github.com/ai-gentic/apprentice/llm/providers/openai"
)

func stub(body string) (llm.Transport, *[]*llm.TransportRequest) {
	var reqs []*llm.TransportRequest
	return llm.TransportFunc(func(_ context.Context, req *llm.TransportRequest) (*llm.TransportResponse, error) {
		reqs = append(reqs, req)
		return &llm.TransportResponse{StatusCode: http.StatusOK, Body: []byte(body)}, nil
	}), &reqs
}

func config(t *testing.T, p llm.Provider, model string) llm.Config {
	t.Helper()
	cfg, err := llm.NewConfig(p, model, "key", llm.DefaultAPIURL(p, model))
	require.NoError(t, err)
	return cfg
}

func TestNew_Dispatch(t *testing.T) {
	t.Parallel()

	tr, _ := stub("{}")
	cases := []struct {
		provider llm.Provider
		model    string
		check    func(t *testing.T, c llm.Chat)
	}{
		{llm.ProviderOpenAI, "gpt-4", func(t *testing.T, c llm.Chat) { require.IsType(t, &openai.Client{}, c) }},
		{llm.ProviderAnthropic, "claude-3-5-sonnet-20241022", func(t *testing.T, c llm.Chat) { require.IsType(t, &anthropic.Client{}, c) }},
		{llm.ProviderGoogle, "gemini-1.5-pro", func(t *testing.T, c llm.Chat) { require.IsType(t, &google.Client{}, c) }},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(string(tc.provider), func(t *testing.T) {
			t.Parallel()

			c, err := New(config(t, tc.provider, tc.model), tr, []llm.Message{llm.UserText("seed")})
			require.NoError(t, err)
			require.Equal(t, tc.provider, c.Provider())
			tc.check(t, c)
		})
	}
}

func TestNew_UnsupportedProvider(t *testing.T) {
	t.Parallel()

	tr, _ := stub("{}")
	cfg := config(t, llm.ProviderOpenAI, "gpt-4")
	cfg.Provider = "azure"

	_, err := New(cfg, tr, nil)
	require.ErrorIs(t, err, llm.ErrUnsupportedProvider)
	require.Equal(t, llm.ErrKindUnsupportedProvider, llm.KindOf(err))
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	tr, _ := stub("{}")
	cfg := config(t, llm.ProviderOpenAI, "gpt-4")
	cfg.APIURL = "not a url"

	_, err := New(cfg, tr, nil)
	var ce *llm.ConfigError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, llm.ConfigInvalidURL, ce.Kind)

	_, err = New(config(t, llm.ProviderOpenAI, "gpt-4"), nil, nil)
	require.Error(t, err)
}

func TestNew_InitialHistoryNotRetained(t *testing.T) {
	t.Parallel()

	tr, reqs := stub(`{"choices":[{"index":0,"message":{"role":"assistant","content":"ok"}}]}`)
	c, err := New(config(t, llm.ProviderOpenAI, "gpt-4"), tr, []llm.Message{llm.UserText("seeded turn")})
	require.NoError(t, err)

	_, err = c.GetInference(context.Background(), []llm.Message{llm.UserText("fresh")}, llm.NoneToolChoice())
	require.NoError(t, err)

	var body struct {
		Messages []map[string]any `json:"messages"`
	}
	require.NoError(t, json.Unmarshal((*reqs)[0].Body, &body))
	require.Len(t, body.Messages, 1)
	require.Equal(t, "fresh", body.Messages[0]["content"])
}

func TestNew_Options(t *testing.T) {
	t.Parallel()

	tool := llm.ToolSpec{Name: "get_weather", Params: []llm.ToolParam{{Name: "city", Type: llm.ParamString, Required: true}}}

	t.Run("anthropic strict", func(t *testing.T) {
		t.Parallel()

		tr, reqs := stub(`{"type":"message","role":"assistant","content":[]}`)
		c, err := New(config(t, llm.ProviderAnthropic, "claude-3-5-sonnet-20241022"), tr, nil, WithStrictParameters())
		require.NoError(t, err)

		_, err = c.GetInference(context.Background(), []llm.Message{llm.UserText("x")}, llm.NoneToolChoice())
		require.ErrorIs(t, err, llm.ErrMissingRequiredParameter)
		require.Empty(t, *reqs)
	})

	t.Run("google specific tool with prompt", func(t *testing.T) {
		t.Parallel()

		tr, reqs := stub(`{"candidates":[{"content":{"role":"model","parts":[{"functionCall":{"name":"get_weather","args":{"city":"Kyiv"}}}]}}]}`)
		c, err := New(config(t, llm.ProviderGoogle, "gemini-1.5-pro"), tr, nil,
			WithTools(tool),
			WithSystemPrompt("system"),
			WithGoogleAuth(google.AuthAPIKeyHeader),
		)
		require.NoError(t, err)

		out, err := c.GetInference(context.Background(), []llm.Message{llm.UserText("x")}, llm.SpecificToolChoice("get_weather"))
		require.NoError(t, err)
		require.True(t, llm.EqualSequences([]llm.Message{llm.NewToolCall("", "get_weather", map[string]any{"city": "Kyiv"})}, out))

		req := (*reqs)[0]
		require.Equal(t, "key", req.Header.Get("x-goog-api-key"))
		require.Contains(t, string(req.Body), `"allowedFunctionNames":["get_weather"]`)
		require.Contains(t, string(req.Body), `"systemInstruction":{"parts":[{"text":"system"}]}`)
	})
}

func TestGetInference_EmptyHistoryEveryProvider(t *testing.T) {
	t.Parallel()

	for _, p := range llm.Providers() {
		p := p
		t.Run(string(p), func(t *testing.T) {
			t.Parallel()

			tr, reqs := stub("{}")
			c, err := New(config(t, p, "m"), tr, nil)
			require.NoError(t, err)

			_, err = c.GetInference(context.Background(), nil, llm.AutoToolChoice())
			require.ErrorIs(t, err, llm.ErrEmptyHistory)
			require.Equal(t, llm.ErrKindEmptyHistory, llm.KindOf(err))
			require.Empty(t, *reqs)
		})
	}
}

func TestGetInference_NoneOmitsToolsEveryProvider(t *testing.T) {
	t.Parallel()

	replies := map[llm.Provider]string{
		llm.ProviderOpenAI:    `{"choices":[{"index":0,"message":{"role":"assistant","content":"ok"}}]}`,
		llm.ProviderAnthropic: `{"type":"message","role":"assistant","content":[{"type":"text","text":"ok"}]}`,
		llm.ProviderGoogle:    `{"candidates":[{"content":{"role":"model","parts":[{"text":"ok"}]}}]}`,
	}
	tool := llm.ToolSpec{Name: "get_weather", Description: "weather"}

	for p, reply := range replies {
		reply := reply
		p := p
		t.Run(string(p), func(t *testing.T) {
			t.Parallel()

			tr, reqs := stub(reply)
			c, err := New(config(t, p, "m"), tr, nil, WithTools(tool))
			require.NoError(t, err)

			out, err := c.GetInference(context.Background(), []llm.Message{llm.UserText("x")}, llm.NoneToolChoice())
			require.NoError(t, err)
			require.Equal(t, []llm.Message{llm.AssistantText("ok")}, out)
			require.NotContains(t, string((*reqs)[0].Body), "get_weather")
		})
	}
}
