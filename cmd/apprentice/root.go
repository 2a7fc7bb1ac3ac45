package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ai-gentic/apprentice/llm"
	"github.com/ai-gentic/apprentice/llm/llmchat"
	"github.com/ai-gentic/apprentice/llm/providers/google"
	"github.com/ai-gentic/apprentice/llm/transport"
	"github.com/ai-gentic/apprentice/observability"
	"github.com/ai-gentic/apprentice/prompts"
	"github.com/ai-gentic/apprentice/settings"
	"github.com/ai-gentic/apprentice/version"
)

const example = `  apprentice --goal=gcp --model=gemini-1.5-pro-002 --model-provider=gcp --api-key=<your-key> \
    --message='Create a VM instance with 4 CPU cores, 16GB RAM, 100GB disk, Debian OS, public IP address'

Settings are read from ~/.apprentice.toml, or the file given with -c. Command
line flags and APPRENTICE_* environment variables override the selected context.`

type rootOptions struct {
	configPath   string
	contextName  string
	message      string
	logLevel     string
	otlpEndpoint string
	googleAuth   string
	strict       bool
	noColor      bool
}

func newRootCommand(e env) *cobra.Command {
	var o rootOptions

	cmd := &cobra.Command{
		Use:           "apprentice",
		Short:         "Translate a request into a cloud CLI command",
		Long:          "Apprentice is an assistant tool that helps to translate human requests into commands for cloud CLI tools.",
		Example:       example,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAsk(cmd.Context(), cmd.Flags(), e, o)
		},
	}
	cmd.SetIn(e.stdin)
	cmd.SetOut(e.stdout)
	cmd.SetErr(e.stderr)

	pf := cmd.PersistentFlags()
	pf.StringVarP(&o.configPath, "config", "c", "", "Config file path (default ~/.apprentice.toml)")
	pf.StringVar(&o.contextName, "context", "", "Settings context to use (default: default_context)")
	pf.StringVar(&o.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	addSettingFlags(pf)

	f := cmd.Flags()
	f.StringVarP(&o.message, "message", "e", "", "User's request (read from stdin when omitted)")
	f.StringVar(&o.otlpEndpoint, "otlp-endpoint", "", "Export traces to this OTLP/HTTP endpoint")
	f.StringVar(&o.googleAuth, "google-auth", "query", "How the gcp API key is sent: query, header, bearer")
	f.BoolVar(&o.strict, "strict", false, "Fail instead of defaulting required provider parameters")
	f.BoolVar(&o.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(newVersionCommand(), newConfigCommand(e, &o))
	return cmd
}

// resolved is everything a command needs after merging file, env and flags.
type resolved struct {
	path    string
	file    settings.File
	context settings.Context
	palette settings.Palette
}

func resolve(fs *pflag.FlagSet, o rootOptions) (resolved, error) {
	var r resolved
	r.path = o.configPath
	if r.path == "" {
		r.path = os.Getenv(envName("config"))
	}
	if r.path == "" {
		r.path = settings.DefaultPath()
	}
	if r.path != "" {
		f, err := settings.Load(r.path)
		if err != nil {
			return r, fmt.Errorf("error loading config file: %w", err)
		}
		r.file = f
	}

	ctx, err := r.file.Resolve(o.contextName)
	if err != nil {
		return r, err
	}

	v, err := newFlagViper(fs)
	if err != nil {
		return r, err
	}
	ov, err := overridesFrom(v, fs)
	if err != nil {
		return r, err
	}
	r.context = ov.Apply(ctx)

	r.palette, err = ov.ApplyAppearance(r.file.Settings).Palette()
	if err != nil {
		return r, err
	}
	return r, nil
}

func runAsk(ctx context.Context, fs *pflag.FlagSet, e env, o rootOptions) error {
	logger, err := newLogger(e.stderr, o.logLevel, e.isTerminal(e.stderr))
	if err != nil {
		return err
	}

	r, err := resolve(fs, o)
	if err != nil {
		return err
	}
	goal, err := r.context.ParseGoal()
	if err != nil {
		return err
	}
	cfg, err := r.context.LLMConfig()
	if err != nil {
		return err
	}
	if cfg.N != nil && *cfg.N != 1 {
		return errors.New("currently only n=1 is supported")
	}
	auth, err := parseGoogleAuth(o.googleAuth)
	if err != nil {
		return err
	}

	msg := o.message
	if !given(fs, "message") {
		msg = os.Getenv(envName("message"))
	}
	if strings.TrimSpace(msg) == "" {
		if msg, err = readMessage(e); err != nil {
			return err
		}
	}

	system, err := prompts.Resolve(goal, r.context.Prompt, cfg.PromptsPath)
	if err != nil {
		return err
	}

	if o.otlpEndpoint != "" {
		shutdown, err := observability.Setup(ctx, o.otlpEndpoint, "apprentice")
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("trace export failed", "error", err)
			}
		}()
	}

	tr := e.transport
	if tr == nil {
		tr = transport.New(transport.WithLogger(logger))
	}
	opts := []llmchat.Option{
		llmchat.WithTools(prompts.Tools()...),
		llmchat.WithLogger(logger),
		llmchat.WithSystemPrompt(system),
		llmchat.WithGoogleAuth(auth),
	}
	if o.strict {
		opts = append(opts, llmchat.WithStrictParameters())
	}
	chat, err := llmchat.New(cfg, tr, nil, opts...)
	if err != nil {
		return err
	}

	logger.Debug("sending request", "context", o.contextName, "goal", goal, "provider", cfg.Provider, "model", cfg.Model)
	history := []llm.Message{llm.UserText(msg)}
	reply, err := chat.GetInference(ctx, history, llm.AutoToolChoice())
	if err != nil {
		return describe(err)
	}

	p := newPrinter(e.stdout, r.palette, !o.noColor && os.Getenv("NO_COLOR") == "" && e.isTerminal(e.stdout))
	p.line(speakerUser, "user", msg)
	printReply(p, goal, reply)
	return nil
}

func printReply(p *printer, goal prompts.Goal, reply []llm.Message) {
	for _, m := range reply {
		switch v := m.(type) {
		case llm.Text:
			p.line(speakerApprentice, "apprentice", v.Content)
		case llm.ToolCall:
			cmd, err := prompts.Command(v)
			if err != nil {
				p.line(speakerTool, v.Name, err.Error())
				continue
			}
			if v.Name == prompts.ToolHelp {
				if help, err := prompts.HelpCommand(goal, cmd); err == nil {
					cmd = help
				} else {
					p.line(speakerTool, v.Name, cmd+"\n"+err.Error())
					continue
				}
			}
			p.line(speakerTool, v.Name, cmd+"\n(proposed, not executed)")
		}
	}
}

func readMessage(e env) (string, error) {
	if e.isTerminal(e.stdin) {
		return "", errors.New("message is not specified (use --message or pipe it on stdin)")
	}
	b, err := io.ReadAll(e.stdin)
	if err != nil {
		return "", fmt.Errorf("read message from stdin: %w", err)
	}
	msg := strings.TrimSpace(string(b))
	if msg == "" {
		return "", errors.New("message is not specified (use --message or pipe it on stdin)")
	}
	return msg, nil
}

func parseGoogleAuth(s string) (google.AuthMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "query":
		return google.AuthAPIKeyQuery, nil
	case "header":
		return google.AuthAPIKeyHeader, nil
	case "bearer":
		return google.AuthBearer, nil
	default:
		return 0, fmt.Errorf("invalid --google-auth %q (want query, header or bearer)", s)
	}
}

// describe adds the vendor's message to transport failures.
func describe(err error) error {
	if te, ok := llm.AsTransportError(err); ok && te.StatusCode != 0 && te.Message == "" && len(te.Body) > 0 {
		return fmt.Errorf("%w\n%s", err, strings.TrimSpace(string(te.Body)))
	}
	return err
}
