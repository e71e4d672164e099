package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var refreshToken bool

func init() {
	tokenCmd.Flags().BoolVar(&refreshToken, "refresh", false, "Request a new token even if the cached one is valid.")
	rootCmd.AddCommand(tokenCmd)
}

var tokenCmd = &cobra.Command{
	Use:   "token [--refresh]",
	Short: "Prints when the cached bearer token expires, acquiring one if needed.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApplication(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer application.Close()

		token, err := application.Token(cmd.Context(), refreshToken)
		if err != nil {
			return fmt.Errorf("acquire token: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "token valid until %s (%s left)\n",
			token.ExpiresAt.Format(time.RFC3339), time.Until(token.ExpiresAt).Round(time.Second))
		return nil
	},
}
