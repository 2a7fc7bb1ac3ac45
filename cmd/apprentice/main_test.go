package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ai-gentic/apprentice/llm"
	"github.com/ai-gentic/apprentice/settings"
)

const testSettings = `
default_context = "work"

[work]
goal = "gcp"
model_provider = "openai"
model = "gpt-4"
api_key = "sk-test-0123456789"
prompt = "project is acme-prod"

[personal]
goal = "aws"
model_provider = "anthropic"
model = "claude-3-5-sonnet-20241022"
api_key = "sk-ant-0123456789"
max_tokens = 512

[settings]
tool_color = "fg(13,14,15);bg(16,17,18)"
`

type harness struct {
	env    env
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	reqs   []*llm.TransportRequest
}

func newHarness(t *testing.T, status int, reply string) *harness {
	t.Helper()
	h := &harness{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	h.env = env{
		stdin:      strings.NewReader(""),
		stdout:     h.stdout,
		stderr:     h.stderr,
		isTerminal: func(any) bool { return false },
		transport: llm.TransportFunc(func(_ context.Context, req *llm.TransportRequest) (*llm.TransportResponse, error) {
			h.reqs = append(h.reqs, req)
			return &llm.TransportResponse{StatusCode: status, Body: []byte(reply)}, nil
		}),
	}
	return h
}

func (h *harness) run(args ...string) error {
	cmd := newRootCommand(h.env)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func writeSettings(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "apprentice.toml")
	require.NoError(t, os.WriteFile(p, []byte(testSettings), 0o600))
	return p
}

func requestBody(t *testing.T, req *llm.TransportRequest) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &body))
	return body
}

const openAIReply = `{"choices":[{"index":0,"message":{"role":"assistant","content":"Here is the command.","tool_calls":[
	{"id":"call_1","type":"function","function":{"name":"SHELL","arguments":"{\"command\":\"gcloud compute instances list --project=acme-prod\"}"}}]}}]}`

func TestRoot_DefaultContext(t *testing.T) {
	h := newHarness(t, http.StatusOK, openAIReply)
	require.NoError(t, h.run("-c", writeSettings(t), "-e", "list my vms"))

	out := h.stdout.String()
	require.Contains(t, out, " user > list my vms\n")
	require.Contains(t, out, " apprentice > Here is the command.\n")
	require.Contains(t, out, " SHELL > gcloud compute instances list --project=acme-prod\n")
	require.Contains(t, out, "(proposed, not executed)")
	require.Less(t, strings.Index(out, "apprentice >"), strings.Index(out, "SHELL >"))

	require.Len(t, h.reqs, 1)
	req := h.reqs[0]
	require.Equal(t, llm.DefaultOpenAIURL, req.URL)
	require.Equal(t, "Bearer sk-test-0123456789", req.Header.Get("Authorization"))

	body := requestBody(t, req)
	require.Equal(t, "gpt-4", body["model"])
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)
	system := msgs[0].(map[string]any)
	require.Equal(t, "system", system["role"])
	require.Contains(t, system["content"], "Google Cloud CLI tools gcloud, bq, gsutil")
	require.Contains(t, system["content"], "project is acme-prod")
	require.Equal(t, "auto", body["tool_choice"])
	require.Len(t, body["tools"], 2)
}

func TestRoot_FlagsAndEnvOverride(t *testing.T) {
	t.Setenv("APPRENTICE_MODEL", "gpt-from-env")
	t.Setenv("APPRENTICE_TEMPERATURE", "0.25")

	h := newHarness(t, http.StatusOK, openAIReply)
	require.NoError(t, h.run("-c", writeSettings(t), "-e", "x", "--max-tokens", "100"))

	body := requestBody(t, h.reqs[0])
	require.Equal(t, "gpt-from-env", body["model"])
	require.Equal(t, 0.25, body["temperature"])
	require.Equal(t, float64(100), body["max_completion_tokens"])

	h = newHarness(t, http.StatusOK, openAIReply)
	require.NoError(t, h.run("-c", writeSettings(t), "-e", "x", "-m", "gpt-from-flag"))
	require.Equal(t, "gpt-from-flag", requestBody(t, h.reqs[0])["model"])
}

func TestRoot_InvalidEnvValue(t *testing.T) {
	t.Setenv("APPRENTICE_TOP_K", "many")

	h := newHarness(t, http.StatusOK, openAIReply)
	err := h.run("-c", writeSettings(t), "-e", "x")
	require.ErrorContains(t, err, "APPRENTICE_TOP_K")
	require.ErrorContains(t, err, `invalid argument "many"`)
	require.Empty(t, h.reqs)

	// the command line wins and the variable is not parsed
	h = newHarness(t, http.StatusOK, openAIReply)
	require.NoError(t, h.run("-c", writeSettings(t), "-e", "x", "--top-k", "3"))
}

func TestRoot_HelpShowsFlagTypes(t *testing.T) {
	h := newHarness(t, http.StatusOK, "")
	require.NoError(t, h.run("--help"))

	out := h.stdout.String()
	require.Contains(t, out, "--max-tokens int")
	require.Contains(t, out, "--temperature float")
	require.Contains(t, out, "--timeout duration")
}

func TestRoot_AnthropicHelpCall(t *testing.T) {
	reply := `{"type":"message","role":"assistant","content":[
		{"type":"tool_use","id":"toolu_1","name":"HELP","input":{"command":"aws ec2 run-instances"}}]}`
	h := newHarness(t, http.StatusOK, reply)
	h.env.stdin = strings.NewReader("start an instance\n")

	require.NoError(t, h.run("-c", writeSettings(t), "--context", "personal"))

	out := h.stdout.String()
	require.Contains(t, out, " user > start an instance\n")
	require.Contains(t, out, " HELP > aws ec2 run-instances help\n")

	req := h.reqs[0]
	require.Equal(t, llm.DefaultAnthropicURL, req.URL)
	require.Equal(t, "sk-ant-0123456789", req.Header.Get("x-api-key"))
	body := requestBody(t, req)
	require.Equal(t, float64(512), body["max_tokens"])
	require.Contains(t, body["system"], "AWS CLI aws")
}

func TestRoot_Errors(t *testing.T) {
	p := writeSettings(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown context", args: []string{"-c", p, "--context", "nope", "-e", "x"}, want: `context "nope" is not defined`},
		{name: "bad goal", args: []string{"-c", p, "-g", "oci", "-e", "x"}, want: "unknown goal"},
		{name: "bad int", args: []string{"-c", p, "--top-k", "ten", "-e", "x"}, want: `invalid argument "ten" for "--top-k"`},
		{name: "bad duration", args: []string{"-c", p, "--timeout", "soon", "-e", "x"}, want: `invalid argument "soon" for "--timeout"`},
		{name: "zero max tokens", args: []string{"-c", p, "--max-tokens", "0", "-e", "x"}, want: `llm config: invalid-value: max_tokens "0"`},
		{name: "bad color", args: []string{"-c", p, "--user-color", "red", "-e", "x"}, want: "user-color must have valid format"},
		{name: "n", args: []string{"-c", p, "--n", "2", "-e", "x"}, want: "only n=1"},
		{name: "no message", args: []string{"-c", p}, want: "message is not specified"},
		{name: "missing file", args: []string{"-c", filepath.Join(t.TempDir(), "none.toml"), "-e", "x"}, want: "error loading config file"},
		{name: "google auth", args: []string{"-c", p, "--google-auth", "oauth", "-e", "x"}, want: "invalid --google-auth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, http.StatusOK, openAIReply)
			err := h.run(tt.args...)
			require.ErrorContains(t, err, tt.want)
			require.Empty(t, h.reqs)
		})
	}
}

func TestRoot_FlagsOnly(t *testing.T) {
	h := newHarness(t, http.StatusOK, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Which project?"}]}}]}`)
	// no default_context: flags supply everything
	p := filepath.Join(t.TempDir(), "empty.toml")
	require.NoError(t, os.WriteFile(p, []byte("[settings]\n"), 0o600))

	require.NoError(t, h.run("-c", p, "-g", "gcp", "-p", "gcp", "-m", "gemini-1.5-flash", "-k", "gk", "-e", "make a bucket"))
	require.Contains(t, h.stdout.String(), " apprentice > Which project?\n")
	require.Equal(t, "gk", h.reqs[0].Query.Get("key"))
}

func TestRoot_TransportError(t *testing.T) {
	h := newHarness(t, http.StatusUnauthorized, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)
	err := h.run("-c", writeSettings(t), "-e", "x")
	require.Error(t, err)
	require.Equal(t, llm.ErrKindTransport, llm.KindOf(err))
	require.Contains(t, err.Error(), "Incorrect API key provided")
	require.Empty(t, h.stdout.String())
}

func TestVersionCommand(t *testing.T) {
	h := newHarness(t, http.StatusOK, "")
	require.NoError(t, h.run("version", "-o", "json"))

	var info map[string]any
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &info))
	require.NotEmpty(t, info["gitVersion"])
	require.NotEmpty(t, info["platform"])
}

func TestConfigContexts(t *testing.T) {
	h := newHarness(t, http.StatusOK, "")
	require.NoError(t, h.run("config", "contexts", "-c", writeSettings(t)))

	lines := strings.Split(strings.TrimSpace(h.stdout.String()), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "PROVIDER")
	require.Contains(t, lines[1], "personal")
	require.Contains(t, lines[1], "claude-3-5-sonnet-20241022")
	require.True(t, strings.HasPrefix(strings.TrimSpace(lines[2]), "*"), lines[2])
	require.Contains(t, lines[2], "work")
}

func TestConfigShow(t *testing.T) {
	p := writeSettings(t)

	h := newHarness(t, http.StatusOK, "")
	require.NoError(t, h.run("config", "show", "-c", p))
	out := h.stdout.String()
	require.NotContains(t, out, "sk-test-0123456789")
	require.Contains(t, out, "****6789")

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	require.Equal(t, "work", doc["default_context"])

	h = newHarness(t, http.StatusOK, "")
	require.NoError(t, h.run("config", "show", "-c", p, "--effective", "-o", "json", "--model", "gpt-4o"))
	var ctx map[string]any
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &ctx))
	require.Equal(t, "gpt-4o", ctx["model"])
	require.Equal(t, "****6789", ctx["api_key"])

	h = newHarness(t, http.StatusOK, "")
	require.ErrorContains(t, h.run("config", "show", "-c", p, "-o", "xml"), "unknown output format")
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	f := settingsFile(t)
	report(&buf, "", f)
	require.Equal(t, "ok: openai gpt-4 via "+llm.DefaultOpenAIURL+"\n", buf.String())

	buf.Reset()
	report(&buf, "missing", f)
	require.True(t, strings.HasPrefix(buf.String(), "invalid: "), buf.String())
}

func settingsFile(t *testing.T) settings.File {
	t.Helper()
	f, err := settings.Load(writeSettings(t))
	require.NoError(t, err)
	return f
}
