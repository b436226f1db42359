package reschedule

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/preflight/adapter/cli"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/application/queries"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <booking-id>",
	Short: "Show who has answered the preference round",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app := cli.GetApp()
		if app == nil || app.GetPreferenceStatusHandler == nil {
			fmt.Fprintln(out, "Reschedule commands require database connection.")
			return nil
		}

		bookingID, err := cli.ParseID("booking ID", args[0])
		if err != nil {
			return err
		}
		status, err := app.GetPreferenceStatusHandler.Handle(cmd.Context(), queries.GetPreferenceStatusQuery{BookingID: bookingID})
		if err != nil {
			return fmt.Errorf("failed to get preference status: %w", err)
		}

		fmt.Fprintf(out, "Booking %s (%s)\n", status.BookingID, status.BookingStatus)
		fmt.Fprintln(out, strings.Repeat("-", 40))
		if status.Deadline == nil {
			fmt.Fprintln(out, "  No open preference round.")
			return nil
		}

		deadline := status.Deadline.Format("Mon Jan 2 15:04 MST")
		if status.DeadlinePassed {
			deadline += " (passed)"
		}
		fmt.Fprintf(out, "  Deadline: %s\n", deadline)
		for _, p := range status.Participants {
			state := "waiting"
			if p.Submitted {
				state = fmt.Sprintf("submitted %d ranked, %d unavailable", len(p.Ranked), len(p.Unavailable))
			}
			fmt.Fprintf(out, "  %-10s %s  %s\n", p.Role, p.UserID, state)
		}
		if status.AllSubmitted {
			fmt.Fprintln(out, "  All participants have answered.")
		}
		return nil
	},
}
