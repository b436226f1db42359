package reschedule

import (
	"fmt"

	"github.com/felixgeelhaar/preflight/adapter/cli"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var confirmActor string

var confirmCmd = &cobra.Command{
	Use:   "confirm <booking-id>",
	Short: "Apply the participants' choice",
	Long: `Move the lesson to the best option both participants accept. After
the deadline the instructor's ranking decides, and a round with no
acceptable option is escalated for manual handling.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app := cli.GetApp()
		if app == nil || app.ConfirmSelectionHandler == nil {
			fmt.Fprintln(out, "Reschedule commands require database connection.")
			return nil
		}

		bookingID, err := cli.ParseID("booking ID", args[0])
		if err != nil {
			return err
		}
		var actorID uuid.UUID
		if confirmActor != "" {
			if actorID, err = cli.ParseID("actor ID", confirmActor); err != nil {
				return err
			}
		}

		result, err := app.ConfirmSelectionHandler.Handle(cmd.Context(), commands.ConfirmSelectionCommand{
			BookingID: bookingID,
			ActorID:   actorID,
		})
		if commands.IsPending(err) {
			fmt.Fprintln(out, "Still waiting for participant preferences.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to confirm selection: %w", err)
		}

		switch result.Outcome {
		case commands.OutcomeRescheduled, commands.OutcomeAlreadyRescheduled:
			fmt.Fprintf(out, "Lesson %s rescheduled to %s\n",
				result.BookingID, result.ScheduledAt.Format("Mon Jan 2 15:04 MST"))
		case commands.OutcomeEscalated:
			fmt.Fprintf(out, "No agreement for %s; escalated for manual rescheduling (%s)\n",
				result.BookingID, result.Status)
		}
		return nil
	},
}

func init() {
	confirmCmd.Flags().StringVar(&confirmActor, "actor", "", "user confirming the selection")
}
