package reschedule

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/preflight/adapter/cli"
	"github.com/felixgeelhaar/preflight/adapter/cli/clitest"
	bookingCommands "github.com/felixgeelhaar/preflight/internal/booking/application/commands"
	bookingQueries "github.com/felixgeelhaar/preflight/internal/booking/application/queries"
	bookingDomain "github.com/felixgeelhaar/preflight/internal/booking/domain"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/application/queries"
	weather "github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testStudent    = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	testInstructor = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	testRoute      = weather.Route{
		Departure: weather.Coordinate{Lat: 39.8561, Lon: -104.6737},
		Arrival:   weather.Coordinate{Lat: 40.0150, Lon: -105.2705},
	}
)

func run(t *testing.T, c *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	c.SetOut(&buf)
	c.SetContext(context.Background())
	err := c.RunE(c, args)
	return buf.String(), err
}

func book(t *testing.T, env *clitest.Env, in time.Duration) uuid.UUID {
	t.Helper()
	result, err := env.App.CreateBookingHandler.Handle(context.Background(), bookingCommands.CreateBookingCommand{
		StudentID:    testStudent,
		InstructorID: testInstructor,
		ScheduledAt:  time.Now().Add(in).UTC().Truncate(time.Minute),
		Route:        testRoute,
		Level:        string(weather.LevelStudentPilot),
	})
	require.NoError(t, err)
	return result.BookingID
}

func alwaysAvailable(t *testing.T, env *clitest.Env, users ...uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	for _, user := range users {
		for day := time.Sunday; day <= time.Saturday; day++ {
			_, err := env.App.AvailabilityService.AddPattern(ctx, user, day, 0, 24*60, true)
			require.NoError(t, err)
		}
	}
}

func TestCommands_WithoutApp(t *testing.T) {
	cli.SetApp(nil)
	out, err := run(t, scanCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "require database connection")

	out, err = run(t, statusCmd, uuid.NewString())
	require.NoError(t, err)
	assert.Contains(t, out, "require database connection")
}

func TestScanCmd_FlagsFoggedLesson(t *testing.T) {
	env := clitest.Setup(t, clitest.Fog())
	id := book(t, env, 6*time.Hour)

	scanLookahead = 48 * time.Hour
	out, err := run(t, scanCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "Scanned:     1")
	assert.Contains(t, out, id.String()+" CONFIRMED -> AT_RISK")

	b, err := env.App.GetBookingHandler.Handle(context.Background(), bookingQueries.GetBookingQuery{BookingID: id})
	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.StatusAtRisk), b.Status)
}

func TestScanCmd_ClearWeatherChangesNothing(t *testing.T) {
	env := clitest.Setup(t, clitest.Clear())
	book(t, env, 6*time.Hour)

	scanLookahead = 48 * time.Hour
	out, err := run(t, scanCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "Scanned:     1")
	assert.NotContains(t, out, "->")
}

func TestRescheduleRound_EndToEnd(t *testing.T) {
	env := clitest.Setup(t, clitest.Clear())
	alwaysAvailable(t, env, testStudent, testInstructor)
	id := book(t, env, 30*time.Hour)
	ctx := context.Background()

	out, err := run(t, statusCmd, id.String())
	require.NoError(t, err)
	assert.Contains(t, out, "No open preference round")

	generateActor = testInstructor.String()
	out, err = run(t, generateCmd, id.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Generated 3 options")
	generateActor = ""

	options, err := env.App.ListOptionsHandler.Handle(ctx, queries.ListOptionsQuery{BookingID: id})
	require.NoError(t, err)
	require.Len(t, options, 3)

	out, err = run(t, optionsCmd, id.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Reschedule options (3)")
	assert.Contains(t, out, options[0].ID.String())

	out, err = run(t, confirmCmd, id.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Still waiting")

	submitUser = testStudent.String()
	submitRanked = options[1].ID.String() + "," + options[0].ID.String()
	submitUnavailable = options[2].ID.String()
	out, err = run(t, submitCmd, id.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded student ranking (2 ranked, 1 unavailable)")
	assert.NotContains(t, out, "Both participants")

	submitUser = testInstructor.String()
	submitRanked = options[1].ID.String()
	submitUnavailable = ""
	out, err = run(t, submitCmd, id.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Both participants have answered")

	out, err = run(t, statusCmd, id.String())
	require.NoError(t, err)
	assert.Contains(t, out, "All participants have answered")

	out, err = run(t, confirmCmd, id.String())
	require.NoError(t, err)
	assert.Contains(t, out, "rescheduled to")

	b, err := env.App.GetBookingHandler.Handle(ctx, bookingQueries.GetBookingQuery{BookingID: id})
	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.StatusRescheduled), b.Status)
	assert.True(t, options[1].Start.Equal(b.ScheduledAt))

	out, err = run(t, auditCmd, id.String())
	require.NoError(t, err)
	assert.Contains(t, out, "options_generated")
	assert.Contains(t, out, "selection_confirmed")
}

func TestSubmitCmd_Rejections(t *testing.T) {
	env := clitest.Setup(t, clitest.Clear())
	alwaysAvailable(t, env, testStudent, testInstructor)
	id := book(t, env, 30*time.Hour)

	_, err := run(t, generateCmd, id.String())
	require.NoError(t, err)

	submitUser = uuid.NewString()
	submitRanked = ""
	submitUnavailable = ""
	_, err = run(t, submitCmd, id.String())
	assert.Error(t, err)

	submitUser = testStudent.String()
	submitRanked = "not-an-id"
	_, err = run(t, submitCmd, id.String())
	assert.ErrorContains(t, err, "invalid option ID")
	submitRanked = ""
}

func TestGenerateCmd_NoAvailability(t *testing.T) {
	env := clitest.Setup(t, clitest.Clear())
	id := book(t, env, 30*time.Hour)

	_, err := run(t, generateCmd, id.String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to generate options")

	out, err := run(t, auditCmd, id.String())
	require.NoError(t, err)
	assert.Contains(t, out, "no_candidate_slot")
}
