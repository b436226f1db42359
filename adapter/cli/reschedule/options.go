package reschedule

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/preflight/adapter/cli"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/application/queries"
	"github.com/spf13/cobra"
)

var optionsCmd = &cobra.Command{
	Use:   "options <booking-id>",
	Short: "List the stored reschedule options",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app := cli.GetApp()
		if app == nil || app.ListOptionsHandler == nil {
			fmt.Fprintln(out, "Reschedule commands require database connection.")
			return nil
		}

		bookingID, err := cli.ParseID("booking ID", args[0])
		if err != nil {
			return err
		}
		options, err := app.ListOptionsHandler.Handle(cmd.Context(), queries.ListOptionsQuery{BookingID: bookingID})
		if err != nil {
			return fmt.Errorf("failed to list options: %w", err)
		}

		if len(options) == 0 {
			fmt.Fprintln(out, "No reschedule options.")
			return nil
		}

		fmt.Fprintf(out, "Reschedule options (%d)\n", len(options))
		fmt.Fprintln(out, strings.Repeat("-", 60))
		for _, opt := range options {
			fmt.Fprintf(out, "  #%d %s - %s  score %.2f  confidence %d%%\n",
				opt.Rank, opt.Start.Format("Mon Jan 2 15:04"), opt.End.Format("15:04"), opt.Score, opt.Confidence)
			fmt.Fprintf(out, "     %s  visibility %s  wind %s",
				opt.ID, cli.FormatOptional(opt.VisibilityMiles, "mi"), cli.FormatOptional(opt.WindSpeedKnots, "kt"))
			if len(opt.Conditions) > 0 {
				fmt.Fprintf(out, "  %s", strings.Join(opt.Conditions, ", "))
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}
