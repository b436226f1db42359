package reschedule

import (
	"github.com/spf13/cobra"
)

// Cmd is the reschedule command group
var Cmd = &cobra.Command{
	Use:     "reschedule",
	Aliases: []string{"rs"},
	Short:   "Weather conflicts and rescheduling",
	Long: `Scan upcoming lessons against weather minimums, offer replacement
slots, collect participant preferences and confirm the new time.`,
}

func init() {
	Cmd.AddCommand(scanCmd)
	Cmd.AddCommand(generateCmd)
	Cmd.AddCommand(optionsCmd)
	Cmd.AddCommand(submitCmd)
	Cmd.AddCommand(confirmCmd)
	Cmd.AddCommand(statusCmd)
	Cmd.AddCommand(auditCmd)
}
