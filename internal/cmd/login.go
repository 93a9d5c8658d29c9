package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paylinehq/adminctl/internal/auth"
	"github.com/paylinehq/adminctl/internal/tui"
)

func newLoginCommand(app *App) *cobra.Command {
	var (
		realmFlag  string
		identifier string
		password   string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against a backend realm",
		Long: `Authenticate against one of the two backend realms and persist the session.

The realm selects the backend: "agence" for agency administration,
"user" for client services. When --identifier or --password are omitted,
adminctl prompts interactively.

Examples:
  adminctl login --realm agence --identifier admin@payline.example
  adminctl login`,
		RunE: func(cmd *cobra.Command, args []string) error {
			realm := auth.Realm(realmFlag)
			if realmFlag == "" {
				var err error
				realm, err = tui.PromptForRealm()
				if err != nil {
					return err
				}
			}

			creds := auth.Credentials{Identifier: identifier, Secret: password}
			if creds.Identifier == "" || creds.Secret == "" {
				var err error
				creds, err = tui.PromptForCredentials(identifier)
				if err != nil {
					return err
				}
			}

			principal, err := app.Coordinator.Login(cmd.Context(), creds, realm)
			if err != nil {
				return err
			}

			name := principal.DisplayName
			if name == "" {
				name = principal.ID
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s realm)\n", name, realm)
			return nil
		},
	}

	cmd.Flags().StringVar(&realmFlag, "realm", "", `backend realm: "user" or "agence"`)
	cmd.Flags().StringVar(&identifier, "identifier", "", "login identifier (email or username)")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}
