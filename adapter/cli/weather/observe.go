package weather

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/preflight/adapter/cli"
	"github.com/spf13/cobra"
)

var observeCompare bool

var observeCmd = &cobra.Command{
	Use:   "observe <lat,lon>",
	Short: "Show current conditions at a point",
	Long: `Show current conditions at a point. With --compare both providers
are queried and their agreement is reported as a confidence score.

Examples:
  preflight weather observe 39.8561,-104.6737
  preflight weather observe 39.8561,-104.6737 --compare`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if notConfigured(out) {
			return nil
		}
		app := cli.GetApp()

		coord, err := cli.ParseCoordinate(args[0])
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Conditions at %s\n", coord)
		fmt.Fprintln(out, strings.Repeat("-", 40))

		if !observeCompare {
			obs, err := app.Weather.Observation(cmd.Context(), coord)
			if err != nil {
				return fmt.Errorf("failed to fetch weather: %w", err)
			}
			printObservation(out, obs)
			return nil
		}

		cv, err := app.Weather.CrossValidated(cmd.Context(), coord)
		if err != nil {
			return fmt.Errorf("failed to fetch weather: %w", err)
		}
		printObservation(out, cv.Observation)
		fmt.Fprintf(out, "  Confidence:  %d%%\n", cv.Confidence)
		if cv.Primary == nil || cv.Secondary == nil {
			fmt.Fprintln(out, "  Only one provider answered.")
		}
		return nil
	},
}

func init() {
	observeCmd.Flags().BoolVar(&observeCompare, "compare", false, "cross-validate against the secondary provider")
}
