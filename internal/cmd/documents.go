package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/paylinehq/adminctl/internal/agence"
	"github.com/paylinehq/adminctl/internal/api"
	"github.com/paylinehq/adminctl/internal/errors"
	"github.com/paylinehq/adminctl/internal/tui"
)

func newDocumentsCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "documents",
		Short: "Work the document approval queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		newDocumentsPendingCommand(app),
		newDocumentsApproveCommand(app),
		newDocumentsRejectCommand(app),
		newDocumentsStatsCommand(app),
	)
	return cmd
}

func newDocumentsPendingCommand(app *App) *cobra.Command {
	var page api.PageQuery

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List documents awaiting review",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := app.Admin.PendingDocuments(cmd.Context(), page)
			if !env.Success {
				return errors.New(errors.ErrCodeAgenceOperation, env.Error)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCLIENT\tTYPE\tSUBMITTED")
			for _, d := range env.Data.Content {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ID, d.ClientName, d.Type, d.SubmittedAt)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d pending\n", env.Data.TotalElements)
			return nil
		},
	}

	addPageFlags(cmd, &page)
	return cmd
}

func newDocumentsApproveCommand(app *App) *cobra.Command {
	var comment string

	cmd := &cobra.Command{
		Use:   "approve <id>...",
		Short: "Approve one or more documents",
		Long: `Approve one or more documents.

A single id is approved directly; multiple ids go through the bulk endpoint
and report a per-document outcome.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerdict(app, cmd, args, comment, true)
		},
	}

	cmd.Flags().StringVarP(&comment, "comment", "c", "", "reviewer comment")
	return cmd
}

func newDocumentsRejectCommand(app *App) *cobra.Command {
	var comment string

	cmd := &cobra.Command{
		Use:   "reject <id>...",
		Short: "Reject one or more documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if comment == "" && stdinIsTerminal() {
				var err error
				comment, err = tui.PromptForComment("Why is this document rejected?")
				if err != nil {
					return err
				}
			}
			if comment == "" {
				return errors.New(errors.ErrCodeConfigInvalid, "a --comment explaining the rejection is required")
			}
			return runVerdict(app, cmd, args, comment, false)
		},
	}

	cmd.Flags().StringVarP(&comment, "comment", "c", "", "reviewer comment (required)")
	return cmd
}

func runVerdict(app *App, cmd *cobra.Command, ids []string, comment string, approve bool) error {
	out := cmd.OutOrStdout()

	if len(ids) == 1 {
		var env api.Envelope[agence.Document]
		if approve {
			env = app.Admin.ApproveDocument(cmd.Context(), ids[0], agence.ReviewRequest{Comment: comment})
		} else {
			env = app.Admin.RejectDocument(cmd.Context(), ids[0], agence.ReviewRequest{Comment: comment})
		}
		if !env.Success {
			return errors.New(errors.ErrCodeAgenceOperation, env.Error)
		}
		fmt.Fprintf(out, "Document %s: %s\n", env.Data.ID, env.Data.Status)
		return nil
	}

	req := agence.BulkRequest{DocumentIDs: ids, Comment: comment}
	var env api.Envelope[[]agence.BulkResult]
	if approve {
		env = app.Admin.BulkApprove(cmd.Context(), req)
	} else {
		env = app.Admin.BulkReject(cmd.Context(), req)
	}
	if !env.Success {
		return errors.New(errors.ErrCodeAgenceOperation, env.Error)
	}

	failed := 0
	for _, result := range env.Data {
		if result.Success {
			fmt.Fprintf(out, "Document %s: ok\n", result.DocumentID)
		} else {
			failed++
			fmt.Fprintf(out, "Document %s: %s\n", result.DocumentID, result.Error)
		}
	}
	if failed > 0 {
		return errors.New(errors.ErrCodeAgenceOperation,
			fmt.Sprintf("%d of %d documents failed", failed, len(env.Data)))
	}
	return nil
}

func newDocumentsStatsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show approval queue statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := app.Admin.DocumentStatistics(cmd.Context())
			if !env.Success {
				return errors.New(errors.ErrCodeAgenceOperation, env.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pending: %d\nApproved: %d\nRejected: %d\nTotal: %d\n",
				env.Data.Pending, env.Data.Approved, env.Data.Rejected, env.Data.Total)
			return nil
		},
	}
}
