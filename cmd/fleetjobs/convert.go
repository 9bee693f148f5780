package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ternarybob/fleetjobs/internal/jobs"
)

func newConvertCmd(state *cliState) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "convert FILE --to FORMAT",
		Short: "Re-encode a job draft as TOML, YAML or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := jobs.Format(strings.ToLower(to))
			if !format.IsValid() {
				return fmt.Errorf("invalid --to value %q - must be one of: toml, yaml, json", to)
			}

			draft, err := state.drafts.LoadJobDraft(args[0])
			if err != nil {
				return err
			}

			data, err := state.drafts.ExportJobDraft(format, draft)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Output format: toml, yaml or json")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
