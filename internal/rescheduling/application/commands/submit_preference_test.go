package commands_test

import (
	"context"
	"testing"
	"time"

	booking "github.com/felixgeelhaar/preflight/internal/booking/domain"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/application/commands"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/domain"
	weather "github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitPreferenceHandler_BothParticipants(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b, options := f.startRound(t, 90*time.Minute)
	handler := f.submitHandler()

	result, err := handler.Handle(ctx, commands.SubmitPreferenceCommand{
		BookingID:   b.ID(),
		UserID:      b.InstructorID(),
		Ranked:      []uuid.UUID{options[1].ID, options[0].ID},
		Unavailable: []uuid.UUID{options[2].ID},
	})
	require.NoError(t, err)
	assert.False(t, result.AllSubmitted)
	assert.Equal(t, domain.RoleInstructor, result.Ranking.Role)

	result, err = handler.Handle(ctx, commands.SubmitPreferenceCommand{
		BookingID: b.ID(),
		UserID:    b.StudentID(),
		Ranked:    []uuid.UUID{options[0].ID},
	})
	require.NoError(t, err)
	assert.True(t, result.AllSubmitted)

	stored, err := f.preferences.Find(ctx, b.ID(), b.InstructorID())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{options[1].ID, options[0].ID}, stored.Ranked())
	assert.Equal(t, []uuid.UUID{options[2].ID}, stored.Unavailable)

	assert.Equal(t, []domain.AuditAction{
		domain.AuditOptionsGenerated,
		domain.AuditPreferenceSubmitted,
		domain.AuditPreferenceSubmitted,
	}, f.auditActions(t, b.ID()))
}

func TestSubmitPreferenceHandler_Resubmission(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b, options := f.startRound(t, 90*time.Minute)
	handler := f.submitHandler()

	cmd := commands.SubmitPreferenceCommand{BookingID: b.ID(), UserID: b.StudentID(), Ranked: []uuid.UUID{options[0].ID}}
	_, err := handler.Handle(ctx, cmd)
	require.NoError(t, err)

	cmd.Ranked = []uuid.UUID{options[2].ID, options[1].ID}
	_, err = handler.Handle(ctx, cmd)
	require.NoError(t, err)

	rankings, err := f.preferences.FindByBooking(ctx, b.ID())
	require.NoError(t, err)
	require.Len(t, rankings, 2)

	stored, err := f.preferences.Find(ctx, b.ID(), b.StudentID())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{options[2].ID, options[1].ID}, stored.Ranked())
}

func TestSubmitPreferenceHandler_Rejections(t *testing.T) {
	f := newFixture(t)
	b, options := f.startRound(t, 90*time.Minute)
	handler := f.submitHandler()

	t.Run("outsider", func(t *testing.T) {
		_, err := handler.Handle(context.Background(), commands.SubmitPreferenceCommand{
			BookingID: b.ID(), UserID: uuid.New(), Ranked: []uuid.UUID{options[0].ID},
		})
		assert.ErrorIs(t, err, domain.ErrNotParticipant)
	})

	t.Run("foreign option", func(t *testing.T) {
		_, err := handler.Handle(context.Background(), commands.SubmitPreferenceCommand{
			BookingID: b.ID(), UserID: b.StudentID(), Ranked: []uuid.UUID{uuid.New()},
		})
		assert.ErrorIs(t, err, domain.ErrUnknownOption)
	})

	t.Run("ranked and unavailable", func(t *testing.T) {
		_, err := handler.Handle(context.Background(), commands.SubmitPreferenceCommand{
			BookingID:   b.ID(),
			UserID:      b.StudentID(),
			Ranked:      []uuid.UUID{options[0].ID},
			Unavailable: []uuid.UUID{options[0].ID},
		})
		assert.ErrorIs(t, err, domain.ErrRankedUnavailable)
	})

	t.Run("too many ranks", func(t *testing.T) {
		_, err := handler.Handle(context.Background(), commands.SubmitPreferenceCommand{
			BookingID: b.ID(),
			UserID:    b.StudentID(),
			Ranked:    []uuid.UUID{options[0].ID, options[1].ID, options[2].ID, uuid.New()},
		})
		assert.Error(t, err)
	})

	t.Run("duplicate ranks", func(t *testing.T) {
		_, err := handler.Handle(context.Background(), commands.SubmitPreferenceCommand{
			BookingID: b.ID(),
			UserID:    b.StudentID(),
			Ranked:    []uuid.UUID{options[0].ID, options[0].ID},
		})
		assert.Error(t, err)
	})

	t.Run("missing booking id", func(t *testing.T) {
		_, err := handler.Handle(context.Background(), commands.SubmitPreferenceCommand{UserID: b.StudentID()})
		assert.Error(t, err)
	})

	stored, err := f.preferences.Find(context.Background(), b.ID(), b.StudentID())
	require.NoError(t, err)
	assert.False(t, stored.IsSubmitted())
}

func TestSubmitPreferenceHandler_AfterDeadline(t *testing.T) {
	f := newFixture(t)
	b, options := f.startRound(t, 90*time.Minute)

	f.now = b.ScheduledAt().Add(-30*time.Minute + time.Microsecond)
	_, err := f.submitHandler().Handle(context.Background(), commands.SubmitPreferenceCommand{
		BookingID: b.ID(), UserID: b.InstructorID(), Ranked: []uuid.UUID{options[0].ID},
	})
	assert.ErrorIs(t, err, domain.ErrDeadlinePassed)
}

func TestSubmitPreferenceHandler_BookingNotRescheduling(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(t, 5*time.Hour, weather.LevelPrivatePilot, booking.StatusConfirmed)

	_, err := f.submitHandler().Handle(context.Background(), commands.SubmitPreferenceCommand{
		BookingID: b.ID(), UserID: b.StudentID(),
	})
	assert.ErrorIs(t, err, domain.ErrNotRescheduling)
}
