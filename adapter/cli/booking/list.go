package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/preflight/adapter/cli"
	"github.com/felixgeelhaar/preflight/internal/booking/application/queries"
	"github.com/felixgeelhaar/preflight/internal/booking/domain"
	"github.com/spf13/cobra"
)

var (
	listWithin time.Duration
	listStatus []string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "upcoming"},
	Short:   "List upcoming flight lessons",
	Long: `List lessons starting within the given window.

Examples:
  preflight booking list
  preflight booking list --within 48h --status AT_RISK,RESCHEDULING`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app := cli.GetApp()
		if app == nil || app.ListUpcomingHandler == nil {
			fmt.Fprintln(out, "Booking commands require database connection.")
			return nil
		}

		var statuses []domain.Status
		for _, s := range listStatus {
			status, err := domain.ParseStatus(strings.ToUpper(strings.TrimSpace(s)))
			if err != nil {
				return err
			}
			statuses = append(statuses, status)
		}

		bookings, err := app.ListUpcomingHandler.Handle(cmd.Context(), queries.ListUpcomingQuery{
			Within:   listWithin,
			Statuses: statuses,
		})
		if err != nil {
			return fmt.Errorf("failed to list bookings: %w", err)
		}

		if len(bookings) == 0 {
			fmt.Fprintln(out, "No upcoming lessons.")
			return nil
		}

		fmt.Fprintf(out, "Upcoming lessons (%d)\n", len(bookings))
		fmt.Fprintln(out, strings.Repeat("-", 60))
		for _, b := range bookings {
			fmt.Fprintf(out, "  %s  %-13s %-16s %s\n",
				b.ScheduledAt.Format("Jan 02 15:04"), b.Status, b.Level, b.ID)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().DurationVar(&listWithin, "within", queries.DefaultUpcomingWindow, "how far ahead to look")
	listCmd.Flags().StringSliceVar(&listStatus, "status", nil, "only these statuses")
}
