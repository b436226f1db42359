package booking

import (
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/preflight/internal/booking/application/queries"
	"github.com/spf13/cobra"
)

// Cmd is the booking command group
var Cmd = &cobra.Command{
	Use:     "booking",
	Aliases: []string{"bookings", "b"},
	Short:   "Manage flight lessons",
	Long:    `Create, inspect and cancel scheduled flight lessons.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(cancelCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(listCmd)
}

func printBooking(out io.Writer, b *queries.BookingDTO) {
	fmt.Fprintf(out, "Booking %s\n", b.ID)
	fmt.Fprintln(out, strings.Repeat("-", 40))
	fmt.Fprintf(out, "  Status:     %s\n", b.Status)
	fmt.Fprintf(out, "  Level:      %s\n", b.Level)
	fmt.Fprintf(out, "  When:       %s - %s\n", b.ScheduledAt.Format("Mon Jan 2 15:04 MST"), b.EndsAt.Format("15:04"))
	fmt.Fprintf(out, "  Student:    %s\n", b.StudentID)
	fmt.Fprintf(out, "  Instructor: %s\n", b.InstructorID)
	fmt.Fprintf(out, "  Route:      %s -> %s\n", b.Route.Departure, b.Route.Arrival)
}
