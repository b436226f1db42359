package reschedule

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/preflight/adapter/cli"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var generateActor string

var generateCmd = &cobra.Command{
	Use:   "generate <booking-id>",
	Short: "Offer replacement slots for a lesson",
	Long: `Search the reschedule horizon for slots where both participants are
available and the weather passes the student's minimums. The best slots
are stored and a preference round opens.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app := cli.GetApp()
		if app == nil || app.GenerateOptionsHandler == nil {
			fmt.Fprintln(out, "Reschedule commands require database connection.")
			return nil
		}

		bookingID, err := cli.ParseID("booking ID", args[0])
		if err != nil {
			return err
		}
		var actorID uuid.UUID
		if generateActor != "" {
			if actorID, err = cli.ParseID("actor ID", generateActor); err != nil {
				return err
			}
		}

		result, err := app.GenerateOptionsHandler.Handle(cmd.Context(), commands.GenerateOptionsCommand{
			BookingID: bookingID,
			ActorID:   actorID,
		})
		if err != nil {
			return fmt.Errorf("failed to generate options: %w", err)
		}

		fmt.Fprintf(out, "Generated %d options for %s\n", len(result.Options), result.BookingID)
		fmt.Fprintf(out, "Preferences due by %s\n", result.Deadline.Format("Mon Jan 2 15:04 MST"))
		fmt.Fprintln(out, strings.Repeat("-", 40))
		for _, opt := range result.Options {
			fmt.Fprintf(out, "  #%d %s  score %.2f  %s\n",
				opt.Rank, opt.Start.Format("Mon Jan 2 15:04"), opt.Score, opt.ID)
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateActor, "actor", "", "user requesting the reschedule")
}
