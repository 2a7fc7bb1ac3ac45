package version

import (
	"encoding/json"
	"runtime"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestInfo_String(t *testing.T) {
	tests := []struct {
		name     string
		info     Info
		expected string
	}{
		{name: "clean state", info: Info{GitVersion: "v1.0.0", GitTreeState: "clean"}, expected: "v1.0.0"},
		{name: "dirty state", info: Info{GitVersion: "v1.0.0", GitTreeState: "dirty"}, expected: "v1.0.0-dirty"},
		{name: "empty state", info: Info{GitVersion: "v1.0.0"}, expected: "v1.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.expected {
				t.Errorf("Info.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func testInfo() Info {
	return Info{
		GitVersion:   "v1.0.0",
		GitCommit:    "abc123",
		GitTreeState: "clean",
		BuildDate:    "2024-01-01T00:00:00Z",
		GoVersion:    "go1.24.0",
		Platform:     "linux/amd64",
	}
}

func TestInfo_EncodeJSON(t *testing.T) {
	out, err := testInfo().Encode("json")
	if err != nil {
		t.Fatalf("Encode(json) error = %v", err)
	}
	var parsed Info
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if parsed != testInfo() {
		t.Errorf("round trip = %+v", parsed)
	}
	if !strings.Contains(out, "\n  ") {
		t.Errorf("JSON output should be indented: %s", out)
	}
}

func TestInfo_EncodeYAML(t *testing.T) {
	out, err := testInfo().Encode("YAML")
	if err != nil {
		t.Fatalf("Encode(yaml) error = %v", err)
	}
	var parsed Info
	if err := yaml.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("Failed to parse YAML: %v", err)
	}
	if parsed != testInfo() {
		t.Errorf("round trip = %+v", parsed)
	}
	if !strings.HasPrefix(out, "gitVersion: v1.0.0") {
		t.Errorf("unexpected YAML: %s", out)
	}
}

func TestInfo_EncodeText(t *testing.T) {
	out, err := testInfo().Encode("")
	if err != nil {
		t.Fatalf("Encode(text) error = %v", err)
	}
	for _, want := range []string{"gitVersion:", "v1.0.0", "gitCommit:", "abc123", "platform:", "linux/amd64"} {
		if !strings.Contains(out, want) {
			t.Errorf("Text() missing %q:\n%s", want, out)
		}
	}

	short, err := testInfo().Encode("short")
	if err != nil || short != "v1.0.0" {
		t.Errorf("Encode(short) = %q, %v", short, err)
	}

	if _, err := testInfo().Encode("xml"); err == nil {
		t.Errorf("Encode(xml) should fail")
	}
}

func TestGet(t *testing.T) {
	info := Get()
	if info.GitVersion == "" {
		t.Error("GitVersion should not be empty")
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %v, want %v", info.GoVersion, runtime.Version())
	}
	if want := runtime.GOOS + "/" + runtime.GOARCH; info.Platform != want {
		t.Errorf("Platform = %v, want %v", info.Platform, want)
	}
}

func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	if !strings.HasPrefix(ua, "apprentice/") || !strings.Contains(ua, runtime.GOOS) {
		t.Errorf("UserAgent() = %q", ua)
	}
}
