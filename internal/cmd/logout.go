package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Long: `End the current session.

The local session is cleared first, then the backend is notified best-effort.
Running logout without an active session is a no-op.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := restoreSession(app); err != nil {
				return err
			}
			if err := app.Coordinator.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}
