package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/paylinehq/adminctl/internal/tui"
)

func newDashboardCommand(app *App) *cobra.Command {
	var (
		watch    bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the admin dashboard",
		Long: `Fetch all dashboard data sources in parallel and render the overview.

Each source degrades independently: a failing backend shows up as an inline
error for that source while the others render normally.

With --watch the dashboard stays open and re-fetches periodically; press r
to refresh immediately and q to quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := restoreSession(app); err != nil {
				return err
			}

			if watch {
				model := tui.NewWatchModel(app.Orchestrator, interval)
				program := tea.NewProgram(model, tea.WithContext(cmd.Context()))
				_, err := program.Run()
				return err
			}

			app.Orchestrator.Initialize(cmd.Context())
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderDashboard(
				app.Orchestrator.Snapshot(),
				app.Orchestrator.CombinedStatistics(),
				app.Styles,
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "keep the dashboard open and refresh periodically")
	cmd.Flags().DurationVar(&interval, "interval", tui.DefaultWatchInterval, "refresh interval in watch mode")
	return cmd
}

// restoreSession loads the persisted session into the coordinator so the
// refresh schedule is armed for long-running commands. Commands still work
// without a session; the backends answer 401 and the sources degrade.
func restoreSession(app *App) error {
	sess, err := app.Store.Load()
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}
	_, err = app.Coordinator.Restore(inferRealm(sess.Principal))
	return err
}
