package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ai-gentic/apprentice/config"
	"github.com/ai-gentic/apprentice/settings"
)

func newConfigCommand(e env, o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the settings file",
	}
	cmd.AddCommand(
		newContextsCommand(o),
		newShowCommand(o),
		newWatchCommand(e, o),
	)
	return cmd
}

func newContextsCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "contexts",
		Short: "List the contexts of the settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := resolve(cmd.Flags(), *o)
			if err != nil {
				return err
			}
			if r.path == "" {
				return errors.New("no settings file found (use --config)")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), contextsTable(r.file))
			return err
		},
	}
}

func contextsTable(f settings.File) string {
	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("DEFAULT", "NAME", "GOAL", "PROVIDER", "MODEL")
	for _, name := range f.Names() {
		c := f.Contexts[name]
		mark := ""
		if strings.EqualFold(name, f.DefaultContext) {
			mark = "*"
		}
		table.AddRow(mark, name, c.Goal, c.ModelProvider, c.Model)
	}
	return table.String()
}

func newShowCommand(o *rootOptions) *cobra.Command {
	var (
		output    string
		effective bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the settings file with API keys masked",
		Long: "Print the settings file with API keys masked. With --effective, print the single " +
			"context that a request would use after flags and APPRENTICE_* variables are applied.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := resolve(cmd.Flags(), *o)
			if err != nil {
				return err
			}
			var v any = r.file.Masked()
			if effective {
				v = r.context.Masked()
			}
			return encode(cmd.OutOrStdout(), output, v)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "Output format: yaml, json")
	cmd.Flags().BoolVar(&effective, "effective", false, "Show the resolved context instead of the whole file")
	return cmd
}

func encode(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q (want yaml or json)", format)
	}
}

// newWatchCommand reloads the settings file on every save and reports
// whether the default context still resolves to a usable model config.
func newWatchCommand(e env, o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-validate the settings file whenever it changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := resolve(cmd.Flags(), *o)
			if err != nil {
				return err
			}
			if r.path == "" {
				return errors.New("no settings file found (use --config)")
			}

			out := cmd.OutOrStdout()
			c, err := settings.Open(r.path,
				config.WithWatch[settings.File](),
				config.WithErrorHandler[settings.File](func(err error) {
					fmt.Fprintf(out, "invalid: %v\n", err)
				}),
			)
			if err != nil {
				return err
			}
			report(out, o.contextName, c.Get())
			c.OnChange(func(_, next settings.File) { report(out, o.contextName, next) })

			fmt.Fprintf(e.stderr, "watching %s, press Ctrl+C to stop\n", c.Path())
			<-cmd.Context().Done()
			return nil
		},
	}
}

func report(w io.Writer, contextName string, f settings.File) {
	if err := f.Validate(); err != nil {
		fmt.Fprintf(w, "invalid: %v\n", err)
		return
	}
	ctx, err := f.Resolve(contextName)
	if err != nil {
		fmt.Fprintf(w, "invalid: %v\n", err)
		return
	}
	if _, err := ctx.ParseGoal(); err != nil {
		fmt.Fprintf(w, "invalid: %v\n", err)
		return
	}
	cfg, err := ctx.LLMConfig()
	if err != nil {
		fmt.Fprintf(w, "invalid: %v\n", err)
		return
	}
	fmt.Fprintf(w, "ok: %s %s via %s\n", cfg.Provider, cfg.Model, cfg.APIURL)
}
