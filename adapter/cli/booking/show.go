package booking

import (
	"fmt"

	"github.com/felixgeelhaar/preflight/adapter/cli"
	"github.com/felixgeelhaar/preflight/internal/booking/application/queries"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:     "show <booking-id>",
	Aliases: []string{"get"},
	Short:   "Show a flight lesson",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app := cli.GetApp()
		if app == nil || app.GetBookingHandler == nil {
			fmt.Fprintln(out, "Booking commands require database connection.")
			return nil
		}

		bookingID, err := cli.ParseID("booking ID", args[0])
		if err != nil {
			return err
		}
		b, err := app.GetBookingHandler.Handle(cmd.Context(), queries.GetBookingQuery{BookingID: bookingID})
		if err != nil {
			return fmt.Errorf("failed to get booking: %w", err)
		}

		printBooking(out, b)
		return nil
	},
}
