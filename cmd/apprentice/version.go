package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ai-gentic/apprentice/version"
)

func newVersionCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := version.Get().Encode(output)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), s)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text, short, json, yaml")
	return cmd
}
