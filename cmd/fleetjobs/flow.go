package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newFlowCmd(state *cliState) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "flow FILE",
		Short: "Show the execution flow of a policy draft",
		Long: `Print the ordered steps of a policy draft with their run conditions.

Steps whose condition cannot be evaluated (no earlier previous step, or a
reference to a removed step) are listed after the table. With --json the flow
is printed in its stored format.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := state.drafts.LoadPolicyDraft(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := policy.Flow.Serialize()
				if err != nil {
					return fmt.Errorf("failed to serialize execution flow: %w", err)
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}

			names := make(map[string]string, policy.Flow.Len())
			for _, s := range policy.Flow.Steps() {
				names[s.ID] = s.Name
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ORDER\tNAME\tSCRIPT\tCONDITION\tAFTER")
			for _, s := range policy.Flow.Steps() {
				after := "-"
				if s.PreviousStepID != "" {
					after = names[s.PreviousStepID]
					if after == "" {
						after = s.PreviousStepID
					}
				}
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", s.Order, s.Name, s.ScriptID, s.Condition, after)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if ids := policy.Flow.IncompleteSteps(); len(ids) > 0 {
				fmt.Fprintf(out, "\nIncomplete steps: %s\n", strings.Join(stepNames(ids, names), ", "))
			}
			if ids := policy.Flow.DanglingReferences(); len(ids) > 0 {
				fmt.Fprintf(out, "Steps referring to removed steps: %s\n", strings.Join(stepNames(ids, names), ", "))
			}
			fmt.Fprintf(out, "\nScripts: %v\n", policy.Flow.UniqueScriptIDs())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the flow in its stored JSON format")
	return cmd
}

func stepNames(ids []string, names map[string]string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name := names[id]; name != "" {
			out = append(out, name)
		} else {
			out = append(out, id)
		}
	}
	return out
}
