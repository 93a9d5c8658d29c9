package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/paylinehq/adminctl/internal/api"
	"github.com/paylinehq/adminctl/internal/errors"
	"github.com/paylinehq/adminctl/internal/tui"
)

func newUsersCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Administer system and client users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		newUsersListCommand(app),
		newUsersSearchCommand(app),
		newUsersBlockCommand(app),
		newUsersUnblockCommand(app),
		newUsersUnlockCommand(app),
		newUsersStatsCommand(app),
		newUsersExportCommand(app),
	)
	return cmd
}

func newUsersListCommand(app *App) *cobra.Command {
	var page api.PageQuery

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List system users",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := app.Admin.Users(cmd.Context(), page)
			if !env.Success {
				return errors.New(errors.ErrCodeAgenceOperation, env.Error)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE\tSTATUS")
			for _, u := range env.Data.Content {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.Role, u.Status)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d users, page %d of %d\n",
				env.Data.TotalElements, page.Page+1, env.Data.TotalPages)
			return nil
		},
	}

	addPageFlags(cmd, &page)
	return cmd
}

func newUsersSearchCommand(app *App) *cobra.Command {
	var page api.PageQuery

	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search client accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := app.Clients.Search(cmd.Context(), args[0], page)
			if !env.Success {
				return errors.New(errors.ErrCodeUserOperation, env.Error)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tSTATUS")
			for _, p := range env.Data.Content {
				fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\n", p.ID, p.FirstName, p.LastName, p.Email, p.Status)
			}
			return w.Flush()
		},
	}

	addPageFlags(cmd, &page)
	return cmd
}

func newUsersBlockCommand(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "block <id>",
		Short: "Suspend a system user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				if !stdinIsTerminal() {
					return errors.New(errors.ErrCodeConfigInvalid, "blocking a user requires --yes when not run interactively")
				}
				confirmed, err := tui.PromptForConfirmation(fmt.Sprintf("Block user %s?", args[0]), false)
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			env := app.Admin.BlockUser(cmd.Context(), args[0])
			if !env.Success {
				return errors.New(errors.ErrCodeAgenceOperation, env.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s is now %s\n", env.Data.ID, env.Data.Status)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newUsersUnblockCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "unblock <id>",
		Short: "Lift a system user's suspension",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := app.Admin.UnblockUser(cmd.Context(), args[0])
			if !env.Success {
				return errors.New(errors.ErrCodeAgenceOperation, env.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s is now %s\n", env.Data.ID, env.Data.Status)
			return nil
		},
	}
}

func newUsersUnlockCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <id>",
		Short: "Release a locked client account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := app.Clients.Unlock(cmd.Context(), args[0])
			if !env.Success {
				return errors.New(errors.ErrCodeUserOperation, env.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account %s unlocked (%s)\n", env.Data.ID, env.Data.Status)
			return nil
		},
	}
}

func newUsersStatsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show user statistics from both backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			clients := app.Clients.Statistics(cmd.Context())
			system := app.Admin.UserStatistics(cmd.Context())

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Clients:      %d total, %d active, %d blocked\n",
				clients.Data.TotalClients, clients.Data.ActiveClients, clients.Data.BlockedClients)
			fmt.Fprintf(out, "System users: %d total, %d active, %d blocked\n",
				system.Data.TotalUsers, system.Data.ActiveUsers, system.Data.BlockedUsers)

			for _, env := range []string{clients.Error, system.Error} {
				if env != "" {
					fmt.Fprintf(out, "warning: %s\n", env)
				}
			}
			return nil
		},
	}
}

func newUsersExportCommand(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the user export",
		RunE: func(cmd *cobra.Command, args []string) error {
			export, err := app.Admin.ExportUsers(cmd.Context())
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = export.Filename
			}
			if err := os.WriteFile(path, export.Data, 0o600); err != nil {
				return fmt.Errorf("writing export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", len(export.Data), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (defaults to the server-provided name)")
	return cmd
}

func addPageFlags(cmd *cobra.Command, page *api.PageQuery) {
	cmd.Flags().IntVar(&page.Page, "page", 0, "page number, starting at 0")
	cmd.Flags().IntVar(&page.Size, "size", api.DefaultPageSize, "page size")
	cmd.Flags().StringVar(&page.Sort, "sort", "", `sort order, e.g. "createdAt,desc"`)
}
