package weather

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/preflight/adapter/cli"
	"github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/spf13/cobra"
)

// Cmd is the weather command group
var Cmd = &cobra.Command{
	Use:   "weather",
	Short: "Check current conditions and route minimums",
}

func init() {
	Cmd.AddCommand(observeCmd)
	Cmd.AddCommand(checkCmd)
}

func notConfigured(out io.Writer) bool {
	app := cli.GetApp()
	if app == nil || app.Weather == nil || app.Validator == nil {
		fmt.Fprintln(out, "Weather commands require configured weather providers.")
		return true
	}
	return false
}

func printObservation(out io.Writer, obs domain.Observation) {
	fmt.Fprintf(out, "  Visibility:  %.1f mi\n", obs.VisibilityMiles)
	fmt.Fprintf(out, "  Ceiling:     %s\n", cli.FormatOptional(obs.CeilingFeet, "ft"))
	fmt.Fprintf(out, "  Wind:        %03.0f at %.0f kt", obs.WindDirectionDeg, obs.WindSpeedKnots)
	if obs.WindGustKnots != nil {
		fmt.Fprintf(out, " gusting %.0f", *obs.WindGustKnots)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Temperature: %.1f C\n", obs.TemperatureC)
	fmt.Fprintf(out, "  Conditions:  %v\n", obs.Conditions)
	fmt.Fprintf(out, "  Source:      %s at %s\n", obs.Source, obs.CapturedAt.Format("15:04:05 MST"))
}
