package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/paylinehq/adminctl/internal/api"
	"github.com/paylinehq/adminctl/internal/errors"
)

func newClientsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Read-only client account views for support",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		newClientsProfileCommand(app),
		newClientsBalanceCommand(app),
		newClientsTransactionsCommand(app),
	)
	return cmd
}

func newClientsProfileCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the authenticated client's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := restoreSession(app); err != nil {
				return err
			}
			env := app.Clients.Profile(cmd.Context())
			if !env.Success {
				return errors.New(errors.ErrCodeUserOperation, env.Error)
			}
			p := env.Data
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s <%s>\n", p.FirstName, p.LastName, p.Email)
			fmt.Fprintf(out, "ID: %s  Status: %s\n", p.ID, p.Status)
			return nil
		},
	}
}

func newClientsBalanceCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the authenticated client's balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := restoreSession(app); err != nil {
				return err
			}
			env := app.Clients.Balance(cmd.Context())
			if !env.Success {
				return errors.New(errors.ErrCodeUserOperation, env.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.2f %s (account %s)\n",
				env.Data.Amount, env.Data.Currency, env.Data.AccountID)
			return nil
		},
	}
}

func newClientsTransactionsCommand(app *App) *cobra.Command {
	var page api.PageQuery

	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List the authenticated client's transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := restoreSession(app); err != nil {
				return err
			}
			env := app.Clients.Transactions(cmd.Context(), page)
			if !env.Success {
				return errors.New(errors.ErrCodeUserOperation, env.Error)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tAMOUNT\tSTATUS\tDATE")
			for _, tx := range env.Data.Content {
				fmt.Fprintf(w, "%s\t%s\t%.2f %s\t%s\t%s\n",
					tx.ID, tx.Type, tx.Amount, tx.Currency, tx.Status, tx.CreatedAt)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d transactions, page %d of %d\n",
				env.Data.TotalElements, page.Page+1, env.Data.TotalPages)
			return nil
		},
	}

	addPageFlags(cmd, &page)
	return cmd
}
