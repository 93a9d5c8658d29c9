package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/paylinehq/adminctl/internal/auth"
	"github.com/paylinehq/adminctl/internal/token"
	"github.com/paylinehq/adminctl/internal/tui"
)

// inferRealm derives the realm of a persisted session from its principal.
// The session file predates the realm split, so the realm is not stored;
// agency staff carry an agency binding or an admin role, clients carry
// neither.
func inferRealm(p token.Principal) auth.Realm {
	if p.AgencyID != "" || p.HasRole("ADMIN") || p.HasRole("AGENT") {
		return auth.RealmAgence
	}
	return auth.RealmUser
}

func newStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Long: `Show the current session: principal, realm, expiry countdown and the
scheduled refresh time. Exits quietly when no session exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.Store.Load()
			if err != nil {
				return err
			}
			if sess == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}

			now := time.Now()
			if sess.Expired(now) {
				fmt.Fprintln(cmd.OutOrStdout(), "Session expired. Run `adminctl login`.")
				return nil
			}

			realm := inferRealm(sess.Principal)
			lead := time.Duration(app.Config.Auth.RefreshLeadMinutes) * time.Minute
			refreshAt := sess.ExpiresAt.Add(-lead)

			fmt.Fprint(cmd.OutOrStdout(),
				tui.RenderSession(sess.Principal, string(realm), sess.ExpiresAt, refreshAt, now, app.Styles))
			return nil
		},
	}
}
