package availability

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/preflight/adapter/cli"
	"github.com/spf13/cobra"
)

var (
	showUser string
	showFrom string
	showDays int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show resolved availability",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app := cli.GetApp()
		if app == nil || app.AvailabilityService == nil {
			fmt.Fprintln(out, "Availability commands require database connection.")
			return nil
		}

		userID, err := cli.ParseID("user ID", showUser)
		if err != nil {
			return err
		}
		loc := app.AvailabilityService.Location()
		from := time.Now().In(loc)
		if showFrom != "" {
			from, err = time.ParseInLocation("2006-01-02", showFrom, loc)
			if err != nil {
				return fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
			}
		}
		from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
		if showDays <= 0 {
			showDays = 7
		}
		to := from.AddDate(0, 0, showDays)

		intervals, err := app.AvailabilityService.Intervals(cmd.Context(), userID, from, to)
		if err != nil {
			return fmt.Errorf("failed to load availability: %w", err)
		}

		fmt.Fprintf(out, "Availability %s to %s (%s)\n", from.Format("Jan 2"), to.AddDate(0, 0, -1).Format("Jan 2"), loc)
		fmt.Fprintln(out, strings.Repeat("-", 40))
		shown := 0
		for _, iv := range intervals {
			if !iv.Available {
				continue
			}
			shown++
			fmt.Fprintf(out, "  %s  %s - %s\n",
				iv.Start.In(loc).Format("Mon Jan 02"), iv.Start.In(loc).Format("15:04"), iv.End.In(loc).Format("15:04"))
		}
		if shown == 0 {
			fmt.Fprintln(out, "  No available time.")
		}
		return nil
	},
}

func init() {
	showCmd.Flags().StringVar(&showUser, "user", "", "student or instructor ID (required)")
	showCmd.Flags().StringVar(&showFrom, "from", "", "first date YYYY-MM-DD (default today)")
	showCmd.Flags().IntVar(&showDays, "days", 7, "number of days")
	_ = showCmd.MarkFlagRequired("user")
}
