package weather

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/preflight/adapter/cli"
	"github.com/spf13/cobra"
)

var (
	checkFrom  string
	checkTo    string
	checkLevel string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a route against certification minimums",
	Long: `Validate current conditions along a route for a certification level.
The command fails only on bad input; an unflyable route is reported, not
returned as an error.

Examples:
  preflight weather check --from 39.8561,-104.6737 --to 40.0150,-105.2705
  preflight weather check --from 39.85,-104.67 --to 39.85,-104.67 --level instrument-rated`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if notConfigured(out) {
			return nil
		}
		app := cli.GetApp()

		route, err := cli.ParseRoute(checkFrom, checkTo)
		if err != nil {
			return err
		}
		level, err := cli.ParseLevel(checkLevel)
		if err != nil {
			return err
		}

		assessment := app.Validator.Assess(cmd.Context(), route, level)
		verdict := assessment.Verdict

		fmt.Fprintf(out, "Route %s -> %s (%s)\n", route.Departure, route.Arrival, level)
		fmt.Fprintln(out, strings.Repeat("-", 40))
		if assessment.Departure != nil {
			printObservation(out, *assessment.Departure)
		}
		fmt.Fprintf(out, "  Confidence:  %d%%\n", verdict.Confidence)
		if verdict.Valid {
			fmt.Fprintln(out, "GO: conditions are within minimums")
			return nil
		}
		fmt.Fprintln(out, "NO-GO:")
		for _, v := range verdict.Violations {
			fmt.Fprintf(out, "  - %s\n", v)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkFrom, "from", "", "departure as lat,lon (required)")
	checkCmd.Flags().StringVar(&checkTo, "to", "", "arrival as lat,lon (required)")
	checkCmd.Flags().StringVar(&checkLevel, "level", "student-pilot", "pilot certification level")
	_ = checkCmd.MarkFlagRequired("from")
	_ = checkCmd.MarkFlagRequired("to")
}
