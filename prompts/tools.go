package prompts

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/ai-gentic/apprentice/llm"
)

const (
	ToolShell = "SHELL"
	ToolHelp  = "HELP"

	commandParam = "command"
)

// Tools returns the SHELL and HELP tool specs offered to the model.
func Tools() []llm.ToolSpec {
	shell := "Executes an arbitrary command in a Unix/Linux shell (sh) environment and returns its stdout and stderr."
	if runtime.GOOS == "windows" {
		shell = "Executes an arbitrary command in Windows shell (cmd) environment and returns its stdout and stderr."
	}
	return []llm.ToolSpec{
		{
			Name:        ToolShell,
			Description: shell + " User may cancel execution of the command and will provide reason.",
			Params: []llm.ToolParam{
				{Name: commandParam, Description: "command to execute", Type: llm.ParamString, Required: true},
			},
		},
		{
			Name:        ToolHelp,
			Description: "Returns a help page for a specific CLI tool subcommand.",
			Params: []llm.ToolParam{
				{Name: commandParam, Description: "command for which the help is required", Type: llm.ParamString, Required: true},
			},
		},
	}
}

// Command extracts the single "command" argument of a SHELL or HELP call.
func Command(call llm.ToolCall) (string, error) {
	const want = `expect 1 parameter called "command" of type string`
	if len(call.Arguments) != 1 {
		return "", fmt.Errorf("wrong number of input parameters, %s", want)
	}
	v, ok := call.Arguments[commandParam]
	if !ok {
		return "", fmt.Errorf("wrong parameter name, %s", want)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("wrong parameter value type, %s", want)
	}
	return s, nil
}

// ValidateCommand checks that cmd invokes one of goal's CLIs.
func ValidateCommand(goal Goal, cmd string) error {
	cmd = strings.TrimSpace(cmd)
	clis := goal.CLIs()
	for _, c := range clis {
		if strings.HasPrefix(cmd, c+" ") {
			return nil
		}
	}
	quoted := make([]string, len(clis))
	for i, c := range clis {
		quoted[i] = fmt.Sprintf("%q", c+" ")
	}
	return fmt.Errorf("command must start with %s", strings.Join(quoted, ", or "))
}

// HelpCommand turns a HELP request into the command that prints the page.
func HelpCommand(goal Goal, cmd string) (string, error) {
	if err := ValidateCommand(goal, cmd); err != nil {
		return "", err
	}
	cmd = strings.TrimSpace(cmd)
	if goal == GoalAWS {
		return cmd + " help", nil
	}
	return cmd + " --help", nil
}
