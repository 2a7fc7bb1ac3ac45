// Package version 记录 apprentice 的构建信息，构建时通过 -ldflags -X 注入。
package version

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/gosuri/uitable"
	"gopkg.in/yaml.v3"
)

var (
	// gitVersion 形如 vMAJOR.MINOR.PATCH，未注入时回退到模块版本
	gitVersion = ""
	// buildDate 为 ISO8601 UTC 时间
	buildDate = "1970-01-01T00:00:00Z"
	gitCommit = ""
	// gitTreeState 取值 clean 或 dirty
	gitTreeState = ""
)

// Info describes the running binary.
type Info struct {
	GitVersion   string `json:"gitVersion" yaml:"gitVersion"`
	GitCommit    string `json:"gitCommit,omitempty" yaml:"gitCommit,omitempty"`
	GitTreeState string `json:"gitTreeState,omitempty" yaml:"gitTreeState,omitempty"`
	BuildDate    string `json:"buildDate" yaml:"buildDate"`
	GoVersion    string `json:"goVersion" yaml:"goVersion"`
	Platform     string `json:"platform" yaml:"platform"`
}

// String returns the version, suffixed with -dirty for dirty trees.
func (info Info) String() string {
	if info.GitTreeState == "dirty" {
		return info.GitVersion + "-dirty"
	}
	return info.GitVersion
}

// Text 以对齐表格形式输出
func (info Info) Text() string {
	table := uitable.New()
	table.RightAlign(0)
	table.MaxColWidth = 80
	table.Separator = " "
	table.AddRow("gitVersion:", info.GitVersion)
	if info.GitCommit != "" {
		table.AddRow("gitCommit:", info.GitCommit)
	}
	if info.GitTreeState != "" {
		table.AddRow("gitTreeState:", info.GitTreeState)
	}
	table.AddRow("buildDate:", info.BuildDate)
	table.AddRow("goVersion:", info.GoVersion)
	table.AddRow("platform:", info.Platform)
	return table.String()
}

// Encode renders info as text, short, json or yaml.
func (info Info) Encode(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return info.Text(), nil
	case "short":
		return info.String(), nil
	case "json":
		b, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal version info: %w", err)
		}
		return string(b), nil
	case "yaml":
		b, err := yaml.Marshal(info)
		if err != nil {
			return "", fmt.Errorf("marshal version info: %w", err)
		}
		return strings.TrimRight(string(b), "\n"), nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, short, json or yaml)", format)
	}
}

// Get 返回当前二进制的版本信息
func Get() Info {
	v := gitVersion
	if v == "" {
		v = "v0.0.0-dev"
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			v = bi.Main.Version
		}
	}
	return Info{
		GitVersion:   v,
		GitCommit:    gitCommit,
		GitTreeState: gitTreeState,
		BuildDate:    buildDate,
		GoVersion:    runtime.Version(),
		Platform:     fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// UserAgent is the User-Agent sent to model APIs, e.g. "apprentice/v1.2.0 (linux/amd64)".
func UserAgent() string {
	info := Get()
	return fmt.Sprintf("apprentice/%s (%s)", info.String(), info.Platform)
}
