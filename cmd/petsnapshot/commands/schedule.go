package commands

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Runs collections on the configured cron expression until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApplication(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer application.Close()

		return application.Schedule(cmd.Context())
	},
}
