package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// Cmd is the availability command group
var Cmd = &cobra.Command{
	Use:     "availability",
	Aliases: []string{"avail"},
	Short:   "Manage student and instructor availability",
	Long: `Weekly patterns describe when a participant can usually fly. Date
overrides replace the pattern for part of one day.`,
}

func init() {
	Cmd.AddCommand(addPatternCmd)
	Cmd.AddCommand(addOverrideCmd)
	Cmd.AddCommand(showCmd)
}

var dayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// parseDays accepts day names, "weekdays", "weekends" and "daily".
func parseDays(s string) ([]time.Weekday, error) {
	var days []time.Weekday
	for _, part := range strings.Split(strings.ToLower(s), ",") {
		part = strings.TrimSpace(part)
		switch part {
		case "daily", "all":
			return []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}, nil
		case "weekdays":
			days = append(days, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
		case "weekends":
			days = append(days, time.Saturday, time.Sunday)
		default:
			day, ok := dayNames[part]
			if !ok {
				return nil, fmt.Errorf("invalid day: %s", part)
			}
			days = append(days, day)
		}
	}
	return days, nil
}

// parseClock converts "HH:MM" to minutes after midnight. "24:00" is the
// end of the day.
func parseClock(s string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q, use HH:MM", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, use HH:MM", s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 || hour < 0 || hour > 24 || (hour == 24 && minute != 0) {
		return 0, fmt.Errorf("invalid time %q, use HH:MM", s)
	}
	return hour*60 + minute, nil
}

func formatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
