package reschedule

import (
	"fmt"

	"github.com/felixgeelhaar/preflight/adapter/cli"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/application/commands"
	"github.com/spf13/cobra"
)

var (
	submitUser        string
	submitRanked      string
	submitUnavailable string
)

var submitCmd = &cobra.Command{
	Use:   "submit <booking-id>",
	Short: "Submit a participant's ranking",
	Long: `Rank up to three options best first and optionally mark options you
cannot make. Submitting again replaces the earlier ranking.

Examples:
  preflight reschedule submit <booking-id> --user <id> --rank <opt1>,<opt2>
  preflight reschedule submit <booking-id> --user <id> --rank <opt2> --unavailable <opt3>`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app := cli.GetApp()
		if app == nil || app.SubmitPreferenceHandler == nil {
			fmt.Fprintln(out, "Reschedule commands require database connection.")
			return nil
		}

		bookingID, err := cli.ParseID("booking ID", args[0])
		if err != nil {
			return err
		}
		userID, err := cli.ParseID("user ID", submitUser)
		if err != nil {
			return err
		}
		ranked, err := cli.ParseIDs("option ID", submitRanked)
		if err != nil {
			return err
		}
		unavailable, err := cli.ParseIDs("option ID", submitUnavailable)
		if err != nil {
			return err
		}

		result, err := app.SubmitPreferenceHandler.Handle(cmd.Context(), commands.SubmitPreferenceCommand{
			BookingID:   bookingID,
			UserID:      userID,
			Ranked:      ranked,
			Unavailable: unavailable,
		})
		if err != nil {
			return fmt.Errorf("failed to submit preferences: %w", err)
		}

		fmt.Fprintf(out, "Recorded %s ranking (%d ranked, %d unavailable)\n",
			result.Ranking.Role, len(ranked), len(unavailable))
		if result.AllSubmitted {
			fmt.Fprintln(out, "Both participants have answered; run 'preflight reschedule confirm' to apply.")
		}
		return nil
	},
}

func init() {
	submitCmd.Flags().StringVar(&submitUser, "user", "", "participant submitting (required)")
	submitCmd.Flags().StringVar(&submitRanked, "rank", "", "comma-separated option IDs, best first")
	submitCmd.Flags().StringVar(&submitUnavailable, "unavailable", "", "comma-separated option IDs you cannot make")
	_ = submitCmd.MarkFlagRequired("user")
}
