package booking

import (
	"fmt"

	"github.com/felixgeelhaar/preflight/adapter/cli"
	"github.com/felixgeelhaar/preflight/internal/booking/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var cancelActor string

var cancelCmd = &cobra.Command{
	Use:   "cancel <booking-id>",
	Short: "Cancel a flight lesson",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app := cli.GetApp()
		if app == nil || app.CancelBookingHandler == nil {
			fmt.Fprintln(out, "Booking commands require database connection.")
			return nil
		}

		bookingID, err := cli.ParseID("booking ID", args[0])
		if err != nil {
			return err
		}
		var actorID uuid.UUID
		if cancelActor != "" {
			if actorID, err = cli.ParseID("actor ID", cancelActor); err != nil {
				return err
			}
		}

		if err := app.CancelBookingHandler.Handle(cmd.Context(), commands.CancelBookingCommand{
			BookingID: bookingID,
			ActorID:   actorID,
		}); err != nil {
			return fmt.Errorf("failed to cancel booking: %w", err)
		}

		fmt.Fprintf(out, "Cancelled booking %s\n", bookingID)
		return nil
	},
}

func init() {
	cancelCmd.Flags().StringVar(&cancelActor, "actor", "", "user performing the cancellation")
}
