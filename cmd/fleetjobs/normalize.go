package main

import (
	"github.com/spf13/cobra"

	"github.com/ternarybob/fleetjobs/internal/models"
	"github.com/ternarybob/fleetjobs/internal/services/normalizer"
)

// normalizeOutput is printed with --report
type normalizeOutput struct {
	Jobs    []models.CanonicalJob `json:"jobs"`
	Reports []normalizer.Report   `json:"reports"`
}

func newNormalizeCmd(state *cliState) *cobra.Command {
	var withReport bool

	cmd := &cobra.Command{
		Use:   "normalize [FILE|-]",
		Short: "Normalize backend job records into canonical jobs",
		Long: `Read backend job records as JSON (an array, a single object, or an object
wrapping the array under "jobs", "data" or "items") and print the canonical
jobs. Reads stdin when FILE is "-" or omitted.

With --report the degraded fields of each record are printed alongside.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}

			data, err := readInput(cmd, path)
			if err != nil {
				return err
			}

			rows, err := normalizer.DecodeRecords(data)
			if err != nil {
				return err
			}

			output := normalizeOutput{
				Jobs:    make([]models.CanonicalJob, 0, len(rows)),
				Reports: make([]normalizer.Report, 0, len(rows)),
			}
			for _, row := range rows {
				job, report := state.normalizer.NormalizeWithReport(row)
				output.Jobs = append(output.Jobs, job)
				output.Reports = append(output.Reports, report)
			}

			state.logger.Debug().
				Str("source", path).
				Int("records", len(rows)).
				Msg("Normalized job records")

			if withReport {
				return writeJSON(cmd.OutOrStdout(), output)
			}
			return writeJSON(cmd.OutOrStdout(), output.Jobs)
		},
	}

	cmd.Flags().BoolVar(&withReport, "report", false, "Include the degraded fields of each record")
	return cmd
}
