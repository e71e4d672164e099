package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"petsnapshot/internal/domain"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collects one snapshot now. Exits 0 when complete, 3 when partial, 1 when aborted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApplication(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer application.Close()

		report, runErr := application.Run(cmd.Context())
		fmt.Fprintln(cmd.OutOrStdout(), summary(report))

		if code := exitCodeFor(report.Status); code != exitOK {
			return &exitError{code: code, err: runErr}
		}
		return nil
	},
}

func summary(report domain.RunReport) string {
	line := fmt.Sprintf("run %s %s", report.ID, report.Status)
	if report.Reason != domain.ReasonNone {
		line += fmt.Sprintf(" (%s)", report.Reason)
	}
	for _, res := range report.Resources {
		line += fmt.Sprintf("; %s: %d records, %d pages, %d skipped", res.Kind, res.Records, res.Pages, res.Skipped)
	}
	return line + fmt.Sprintf("; enriched %d, unresolved %d", report.Enriched, report.Unresolved)
}
