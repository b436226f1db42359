package availability

import (
	"fmt"

	"github.com/felixgeelhaar/preflight/adapter/cli"
	"github.com/spf13/cobra"
)

var (
	overrideUser      string
	overrideDate      string
	overrideStart     string
	overrideEnd       string
	overrideAvailable bool
	overrideReason    string
)

var addOverrideCmd = &cobra.Command{
	Use:   "add-override",
	Short: "Block or open part of a specific date",
	Long: `Override the weekly pattern for part of one date. Overrides block
time unless --available is given.

Examples:
  preflight availability add-override --user <id> --date 2026-06-03 --reason "checkride"
  preflight availability add-override --user <id> --date 2026-06-06 --start 09:00 --end 12:00 --available`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app := cli.GetApp()
		if app == nil || app.AvailabilityService == nil {
			fmt.Fprintln(out, "Availability commands require database connection.")
			return nil
		}

		userID, err := cli.ParseID("user ID", overrideUser)
		if err != nil {
			return err
		}
		start, err := parseClock(overrideStart)
		if err != nil {
			return err
		}
		end, err := parseClock(overrideEnd)
		if err != nil {
			return err
		}

		o, err := app.AvailabilityService.AddOverride(cmd.Context(), userID, overrideDate, start, end, overrideAvailable, overrideReason)
		if err != nil {
			return fmt.Errorf("failed to add override: %w", err)
		}

		kind := "blocked"
		if o.Available {
			kind = "opened"
		}
		fmt.Fprintf(out, "%s %s-%s on %s\n", kind, formatClock(o.StartMinute), formatClock(o.EndMinute), o.Date)
		return nil
	},
}

func init() {
	addOverrideCmd.Flags().StringVar(&overrideUser, "user", "", "student or instructor ID (required)")
	addOverrideCmd.Flags().StringVar(&overrideDate, "date", "", "date YYYY-MM-DD (required)")
	addOverrideCmd.Flags().StringVar(&overrideStart, "start", "00:00", "window start HH:MM")
	addOverrideCmd.Flags().StringVar(&overrideEnd, "end", "24:00", "window end HH:MM")
	addOverrideCmd.Flags().BoolVar(&overrideAvailable, "available", false, "open the window instead of blocking it")
	addOverrideCmd.Flags().StringVar(&overrideReason, "reason", "", "note shown with the override")
	_ = addOverrideCmd.MarkFlagRequired("user")
	_ = addOverrideCmd.MarkFlagRequired("date")
}
