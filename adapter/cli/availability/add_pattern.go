package availability

import (
	"fmt"

	"github.com/felixgeelhaar/preflight/adapter/cli"
	"github.com/spf13/cobra"
)

var (
	patternUser        string
	patternDays        string
	patternStart       string
	patternEnd         string
	patternUnavailable bool
)

var addPatternCmd = &cobra.Command{
	Use:   "add-pattern",
	Short: "Add a weekly availability window",
	Long: `Add a recurring weekly window in the scheduling timezone.

Examples:
  preflight availability add-pattern --user <id> --days weekdays --start 08:00 --end 18:00
  preflight availability add-pattern --user <id> --days sat --start 12:00 --end 13:00 --unavailable`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app := cli.GetApp()
		if app == nil || app.AvailabilityService == nil {
			fmt.Fprintln(out, "Availability commands require database connection.")
			return nil
		}

		userID, err := cli.ParseID("user ID", patternUser)
		if err != nil {
			return err
		}
		days, err := parseDays(patternDays)
		if err != nil {
			return err
		}
		start, err := parseClock(patternStart)
		if err != nil {
			return err
		}
		end, err := parseClock(patternEnd)
		if err != nil {
			return err
		}

		for _, day := range days {
			if _, err := app.AvailabilityService.AddPattern(cmd.Context(), userID, day, start, end, !patternUnavailable); err != nil {
				return fmt.Errorf("failed to add %s pattern: %w", day, err)
			}
		}

		kind := "available"
		if patternUnavailable {
			kind = "unavailable"
		}
		fmt.Fprintf(out, "Added %d %s window(s) %s-%s\n", len(days), kind, formatClock(start), formatClock(end))
		return nil
	},
}

func init() {
	addPatternCmd.Flags().StringVar(&patternUser, "user", "", "student or instructor ID (required)")
	addPatternCmd.Flags().StringVar(&patternDays, "days", "weekdays", "days: mon,tue,... or weekdays, weekends, daily")
	addPatternCmd.Flags().StringVar(&patternStart, "start", "08:00", "window start HH:MM")
	addPatternCmd.Flags().StringVar(&patternEnd, "end", "18:00", "window end HH:MM")
	addPatternCmd.Flags().BoolVar(&patternUnavailable, "unavailable", false, "mark the window as blocked")
	_ = addPatternCmd.MarkFlagRequired("user")
}
