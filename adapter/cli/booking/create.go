package booking

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/preflight/adapter/cli"
	"github.com/felixgeelhaar/preflight/internal/booking/application/commands"
	"github.com/spf13/cobra"
)

var (
	createStudent    string
	createInstructor string
	createAt         string
	createDuration   time.Duration
	createFrom       string
	createTo         string
	createLevel      string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Schedule a flight lesson",
	Long: `Schedule a new flight lesson between a student and an instructor.

Levels: student-pilot, private-pilot, instrument-rated

Examples:
  preflight booking create --student <id> --instructor <id> \
    --at "2026-06-01 14:00" --from 39.8561,-104.6737 --to 40.0150,-105.2705
  preflight booking create --student <id> --instructor <id> \
    --at 2026-06-01T14:00:00Z --duration 90m --from 39.85,-104.67 --to 39.85,-104.67 --level private-pilot`,
	Aliases: []string{"new", "add"},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		app := cli.GetApp()
		if app == nil || app.CreateBookingHandler == nil {
			fmt.Fprintln(out, "Booking commands require database connection.")
			return nil
		}

		studentID, err := cli.ParseID("student ID", createStudent)
		if err != nil {
			return err
		}
		instructorID, err := cli.ParseID("instructor ID", createInstructor)
		if err != nil {
			return err
		}
		scheduledAt, err := cli.ParseTime(createAt, location(app))
		if err != nil {
			return err
		}
		route, err := cli.ParseRoute(createFrom, createTo)
		if err != nil {
			return err
		}

		result, err := app.CreateBookingHandler.Handle(cmd.Context(), commands.CreateBookingCommand{
			StudentID:    studentID,
			InstructorID: instructorID,
			ScheduledAt:  scheduledAt,
			Duration:     createDuration,
			Route:        route,
			Level:        createLevel,
		})
		if err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		fmt.Fprintf(out, "Booked lesson %s\n", result.BookingID)
		fmt.Fprintf(out, "  %s, %s\n", scheduledAt.Format("Mon Jan 2 15:04 MST"), createLevel)
		return nil
	},
}

func location(app *cli.App) *time.Location {
	if app.AvailabilityService != nil {
		return app.AvailabilityService.Location()
	}
	return time.Local
}

func init() {
	createCmd.Flags().StringVar(&createStudent, "student", "", "student ID (required)")
	createCmd.Flags().StringVar(&createInstructor, "instructor", "", "instructor ID (required)")
	createCmd.Flags().StringVar(&createAt, "at", "", "start time, RFC 3339 or YYYY-MM-DD HH:MM (required)")
	createCmd.Flags().DurationVar(&createDuration, "duration", 0, "lesson length (default 1h)")
	createCmd.Flags().StringVar(&createFrom, "from", "", "departure as lat,lon (required)")
	createCmd.Flags().StringVar(&createTo, "to", "", "arrival as lat,lon (required)")
	createCmd.Flags().StringVar(&createLevel, "level", "student-pilot", "student certification level")
	_ = createCmd.MarkFlagRequired("student")
	_ = createCmd.MarkFlagRequired("instructor")
	_ = createCmd.MarkFlagRequired("at")
	_ = createCmd.MarkFlagRequired("from")
	_ = createCmd.MarkFlagRequired("to")
}
