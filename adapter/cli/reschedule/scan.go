package reschedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/preflight/adapter/cli"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/application/commands"
	"github.com/spf13/cobra"
)

var scanLookahead time.Duration

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one conflict scan",
	Long: `Re-validate every confirmed or at-risk lesson starting within the
lookahead, generate options for critical conflicts and resolve rounds whose
preferences are complete or whose deadline has passed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app := cli.GetApp()
		if app == nil || app.ScanConflictsHandler == nil {
			fmt.Fprintln(out, "Reschedule commands require database connection.")
			return nil
		}

		result, err := app.ScanConflictsHandler.Handle(cmd.Context(), commands.ScanConflictsCommand{
			Lookahead: scanLookahead,
		})
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		report := result.Report
		fmt.Fprintf(out, "Scan %s\n", report.ScanID)
		fmt.Fprintln(out, strings.Repeat("-", 40))
		fmt.Fprintf(out, "  Scanned:     %d\n", report.Scanned)
		fmt.Fprintf(out, "  Notified:    %d (suppressed %d)\n", report.Notified, report.Suppressed)
		fmt.Fprintf(out, "  Options:     %d\n", len(result.OptionsGenerated))
		fmt.Fprintf(out, "  Rescheduled: %d\n", len(result.Rescheduled))
		fmt.Fprintf(out, "  Escalated:   %d\n", len(result.Escalated))
		fmt.Fprintf(out, "  Pending:     %d\n", result.Pending)
		if report.Degraded {
			fmt.Fprintln(out, "  Degraded: some bookings could not be checked")
		}

		for _, r := range report.Results {
			if !r.Changed() {
				continue
			}
			fmt.Fprintf(out, "  %s %s -> %s", r.BookingID, r.PreviousStatus, r.CurrentStatus)
			if len(r.Verdict.Violations) > 0 {
				fmt.Fprintf(out, " (%s)", strings.Join(r.Verdict.Violations, "; "))
			}
			fmt.Fprintln(out)
		}
		for _, f := range result.Failures {
			fmt.Fprintf(out, "  %s failed: %v\n", f.BookingID, f.Err)
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().DurationVar(&scanLookahead, "lookahead", commands.DefaultLookahead, "how far ahead to scan")
}
