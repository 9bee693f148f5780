package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ternarybob/fleetjobs/internal/jobs"
)

func newValidateCmd(state *cliState) *cobra.Command {
	var (
		policy      bool
		showPayload bool
	)

	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Validate job or policy drafts",
		Long: `Run every wizard step against each draft file and report failing fields.

The format is selected from the file extension (.toml, .yaml, .yml, .json).
With --payload the submission (or policy) payload of each valid draft is
printed as JSON.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0

			for _, path := range args {
				payload, err := buildPayload(state, path, policy)
				if err != nil {
					var verr *jobs.ValidationError
					if !errors.As(err, &verr) {
						return err
					}
					failed++
					fmt.Fprintf(out, "FAIL %s\n", path)
					for _, fe := range verr.Result.Errors {
						fmt.Fprintf(out, "  %s [%s]: %s\n", fe.Field, fe.Rule, fe.Message)
					}
					continue
				}

				fmt.Fprintf(out, "OK   %s\n", path)
				if showPayload {
					if err := writeJSON(out, payload); err != nil {
						return err
					}
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d draft(s) failed validation", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&policy, "policy", false, "Treat the files as policy drafts")
	cmd.Flags().BoolVar(&showPayload, "payload", false, "Print the payload of each valid draft")
	return cmd
}

func buildPayload(state *cliState, path string, policy bool) (interface{}, error) {
	if policy {
		draft, err := state.drafts.LoadPolicyDraft(path)
		if err != nil {
			return nil, err
		}
		return state.drafts.BuildPolicy(draft)
	}

	draft, err := state.drafts.LoadJobDraft(path)
	if err != nil {
		return nil, err
	}
	return state.drafts.BuildSubmission(draft)
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
