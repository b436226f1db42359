package commands_test

import (
	"context"
	"testing"
	"time"

	booking "github.com/felixgeelhaar/preflight/internal/booking/domain"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/application/commands"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/domain"
	weather "github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/felixgeelhaar/preflight/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) submit(t *testing.T, bookingID, userID uuid.UUID, ranked ...uuid.UUID) {
	t.Helper()
	_, err := f.submitHandler().Handle(context.Background(), commands.SubmitPreferenceCommand{
		BookingID: bookingID, UserID: userID, Ranked: ranked,
	})
	require.NoError(t, err)
}

func TestConfirmSelectionHandler_InstructorChoiceWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b, options := f.startRound(t, 90*time.Minute)
	original := b.ScheduledAt()

	f.submit(t, b.ID(), b.StudentID(), options[0].ID, options[1].ID)
	f.submit(t, b.ID(), b.InstructorID(), options[2].ID, options[0].ID)

	result, err := f.confirmHandler().Handle(ctx, commands.ConfirmSelectionCommand{BookingID: b.ID()})
	require.NoError(t, err)
	assert.Equal(t, commands.OutcomeRescheduled, result.Outcome)
	require.NotNil(t, result.OptionID)
	assert.Equal(t, options[2].ID, *result.OptionID)
	assert.Equal(t, original.Add(48*time.Hour), result.ScheduledAt)

	stored := f.reload(t, b.ID())
	assert.Equal(t, booking.StatusRescheduled, stored.Status())
	assert.True(t, original.Add(48*time.Hour).Equal(stored.ScheduledAt()))

	remaining, err := f.options.FindByBooking(ctx, b.ID())
	require.NoError(t, err)
	assert.Empty(t, remaining)
	rankings, err := f.preferences.FindByBooking(ctx, b.ID())
	require.NoError(t, err)
	assert.Empty(t, rankings)

	assert.Contains(t, f.routingKeys(t), domain.RoutingKeyBookingRescheduled)
	assert.Equal(t, domain.AuditSelectionConfirmed, f.auditActions(t, b.ID())[3])
	assert.Equal(t, int64(1), f.metrics.GetCounter(observability.MetricRescheduleConfirmed))

	again, err := f.confirmHandler().Handle(ctx, commands.ConfirmSelectionCommand{BookingID: b.ID()})
	require.NoError(t, err)
	assert.Equal(t, commands.OutcomeAlreadyRescheduled, again.Outcome)
	assert.Equal(t, result.ScheduledAt, again.ScheduledAt)
	assert.Equal(t, int64(1), f.metrics.GetCounter(observability.MetricRescheduleConfirmed))
}

func TestConfirmSelectionHandler_AwaitingPreferences(t *testing.T) {
	f := newFixture(t)
	b, options := f.startRound(t, 90*time.Minute)
	f.submit(t, b.ID(), b.InstructorID(), options[0].ID)

	_, err := f.confirmHandler().Handle(context.Background(), commands.ConfirmSelectionCommand{BookingID: b.ID()})
	require.ErrorIs(t, err, domain.ErrAwaitingPreferences)
	assert.True(t, commands.IsPending(err))
	assert.Equal(t, booking.StatusRescheduling, f.reload(t, b.ID()).Status())
}

func TestConfirmSelectionHandler_InstructorOnlyAfterDeadline(t *testing.T) {
	f := newFixture(t)
	b, options := f.startRound(t, 90*time.Minute)
	f.submit(t, b.ID(), b.InstructorID(), options[1].ID)

	f.now = b.ScheduledAt().Add(-10 * time.Minute)
	result, err := f.confirmHandler().Handle(context.Background(), commands.ConfirmSelectionCommand{BookingID: b.ID()})
	require.NoError(t, err)
	assert.Equal(t, commands.OutcomeRescheduled, result.Outcome)
	assert.Equal(t, options[1].ID, *result.OptionID)
}

func TestConfirmSelectionHandler_EscalatesAfterDeadline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b, options := f.startRound(t, 90*time.Minute)
	f.submit(t, b.ID(), b.StudentID(), options[0].ID)

	f.now = b.ScheduledAt().Add(-10 * time.Minute)
	result, err := f.confirmHandler().Handle(ctx, commands.ConfirmSelectionCommand{BookingID: b.ID()})
	require.NoError(t, err)
	assert.Equal(t, commands.OutcomeEscalated, result.Outcome)
	assert.Nil(t, result.OptionID)
	assert.Equal(t, booking.StatusAtRisk, result.Status)

	stored := f.reload(t, b.ID())
	assert.Equal(t, booking.StatusAtRisk, stored.Status())
	assert.True(t, b.ScheduledAt().Equal(stored.ScheduledAt()))

	remaining, err := f.options.FindByBooking(ctx, b.ID())
	require.NoError(t, err)
	assert.Empty(t, remaining)

	assert.Contains(t, f.routingKeys(t), domain.RoutingKeyRescheduleEscalated)
	actions := f.auditActions(t, b.ID())
	assert.Equal(t, domain.AuditEscalated, actions[len(actions)-1])
	assert.Equal(t, int64(1), f.metrics.GetCounter(observability.MetricRescheduleEscalated))
}

func TestConfirmSelectionHandler_InstructorRankedNothing(t *testing.T) {
	f := newFixture(t)
	b, options := f.startRound(t, 90*time.Minute)
	f.submit(t, b.ID(), b.StudentID(), options[0].ID)
	f.submit(t, b.ID(), b.InstructorID())

	_, err := f.confirmHandler().Handle(context.Background(), commands.ConfirmSelectionCommand{BookingID: b.ID()})
	assert.ErrorIs(t, err, domain.ErrAwaitingPreferences)

	f.now = b.ScheduledAt()
	result, err := f.confirmHandler().Handle(context.Background(), commands.ConfirmSelectionCommand{BookingID: b.ID()})
	require.NoError(t, err)
	assert.Equal(t, commands.OutcomeEscalated, result.Outcome)
}

func TestConfirmSelectionHandler_NotRescheduling(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(t, 3*time.Hour, weather.LevelPrivatePilot, booking.StatusConfirmed)

	_, err := f.confirmHandler().Handle(context.Background(), commands.ConfirmSelectionCommand{BookingID: b.ID()})
	assert.ErrorIs(t, err, domain.ErrNotRescheduling)
}

func TestConfirmSelectionHandler_UnknownBooking(t *testing.T) {
	f := newFixture(t)
	_, err := f.confirmHandler().Handle(context.Background(), commands.ConfirmSelectionCommand{BookingID: uuid.New()})
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)
}
