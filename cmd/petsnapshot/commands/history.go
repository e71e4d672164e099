package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyLimit uint64

func init() {
	historyCmd.Flags().Uint64VarP(&historyLimit, "limit", "n", 10, "Number of runs to show.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Lists the most recent recorded runs.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApplication(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer application.Close()

		runs, err := application.History(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		for _, report := range runs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", report.StartedAt.Format("2006-01-02 15:04"), summary(report))
		}
		return nil
	},
}
