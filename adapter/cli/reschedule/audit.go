package reschedule

import (
	"fmt"

	"github.com/felixgeelhaar/preflight/adapter/cli"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/application/queries"
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:     "audit <booking-id>",
	Aliases: []string{"history"},
	Short:   "Show the reschedule history of a lesson",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app := cli.GetApp()
		if app == nil || app.ListAuditHandler == nil {
			fmt.Fprintln(out, "Reschedule commands require database connection.")
			return nil
		}

		bookingID, err := cli.ParseID("booking ID", args[0])
		if err != nil {
			return err
		}
		entries, err := app.ListAuditHandler.Handle(cmd.Context(), queries.ListAuditQuery{BookingID: bookingID})
		if err != nil {
			return fmt.Errorf("failed to list audit entries: %w", err)
		}

		if len(entries) == 0 {
			fmt.Fprintln(out, "No audit entries.")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(out, "  %s  %-22s %s\n", e.OccurredAt.Format("Jan 02 15:04:05"), e.Action, e.Detail)
		}
		return nil
	},
}
