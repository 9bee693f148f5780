package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ternarybob/fleetjobs/internal/models"
)

func newDescribeCmd(state *cliState) *cobra.Command {
	var after string

	cmd := &cobra.Command{
		Use:   "describe FILE",
		Short: "Describe a job draft's targets and schedule",
		Long: `Summarize a job draft for review: its kind, target counts, a readable
schedule, the equivalent cron expression for recurring schedules and the next
run after --after (default: now).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := state.drafts.LoadJobDraft(args[0])
			if err != nil {
				return err
			}

			from := time.Now()
			if after != "" {
				from, err = time.Parse(time.RFC3339, after)
				if err != nil {
					return fmt.Errorf("invalid --after value %q (expected RFC3339): %w", after, err)
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:     %s\n", draft.Name)
			fmt.Fprintf(out, "Kind:     %s\n", draft.Kind)

			clean := draft.Targets.Clean()
			fmt.Fprintf(out, "Targets:  %d (ip ranges %d, hostnames %d, ou paths %d, ip segments %d)\n",
				clean.Count(), len(clean.IPRanges), len(clean.Hostnames), len(clean.OUPaths), len(clean.IPSegments))

			if result := models.ValidateSchedule(draft.Schedule); !result.OK() {
				fmt.Fprintf(out, "Schedule: invalid (%s)\n", result.String())
				return nil
			}
			fmt.Fprintf(out, "Schedule: %s\n", models.DescribeSchedule(draft.Schedule))

			if recurring, ok := draft.Schedule.(models.Recurring); ok {
				expr, err := recurring.CronExpression()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Cron:     %s\n", expr)
			}

			next, err := models.NextRun(draft.Schedule, from)
			if err != nil {
				fmt.Fprintf(out, "Next run: none (%v)\n", err)
				return nil
			}
			fmt.Fprintf(out, "Next run: %s\n", next.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&after, "after", "", "Compute the next run after this RFC3339 time")
	return cmd
}
