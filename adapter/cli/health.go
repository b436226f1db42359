package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check CLI wiring health",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("app not initialized")
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "ok")
		if app.Weather == nil {
			fmt.Fprintln(out, "weather: not configured")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
