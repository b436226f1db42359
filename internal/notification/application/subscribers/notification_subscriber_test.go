package subscribers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	booking "github.com/felixgeelhaar/preflight/internal/booking/domain"
	"github.com/felixgeelhaar/preflight/internal/notification/domain"
	reschedule "github.com/felixgeelhaar/preflight/internal/rescheduling/domain"
	sharedDomain "github.com/felixgeelhaar/preflight/internal/shared/domain"
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/outbox"
	weather "github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/felixgeelhaar/preflight/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []domain.Notification
	err  error
}

func (s *recordingSender) Send(_ context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, n)
	return nil
}

var at = time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC)

func newBooking(t *testing.T) *booking.Booking {
	t.Helper()
	route := weather.Route{
		Departure: weather.Coordinate{Lat: 39.8561, Lon: -104.6737},
		Arrival:   weather.Coordinate{Lat: 40.0150, Lon: -105.2705},
	}
	b, err := booking.NewBooking(uuid.New(), uuid.New(), at.Add(90*time.Minute), 0, route, weather.LevelStudentPilot)
	require.NoError(t, err)
	return b
}

func consumed(t *testing.T, event sharedDomain.DomainEvent) *eventbus.ConsumedEvent {
	t.Helper()
	msg, err := outbox.NewMessage(event)
	require.NoError(t, err)
	decoded, err := eventbus.DecodeEvent(msg.Payload, msg.RoutingKey)
	require.NoError(t, err)
	return decoded
}

func TestNotificationSubscriber_RendersEveryKind(t *testing.T) {
	b := newBooking(t)
	alert := reschedule.NewWeatherAlert(b, reschedule.ConflictResult{
		Verdict:     weather.Invalid(70, "visibility 2.0 SM below minimum 5.0 SM"),
		Severity:    reschedule.SeverityCritical,
		EvaluatedAt: at,
	})

	tests := []struct {
		name    string
		event   sharedDomain.DomainEvent
		kind    domain.Kind
		subject string
		body    string
	}{
		{
			name:    "weather alert",
			event:   alert,
			kind:    domain.KindWeatherAlert,
			subject: "Weather alert (critical)",
			body:    "visibility 2.0 SM below minimum 5.0 SM",
		},
		{
			name:    "weather cleared",
			event:   reschedule.NewWeatherCleared(b, at),
			kind:    domain.KindWeatherCleared,
			subject: "Weather cleared",
			body:    "within your minimums",
		},
		{
			name:    "options available",
			event:   reschedule.NewOptionsAvailable(b, 3, at.Add(time.Hour), at),
			kind:    domain.KindOptionsAvailable,
			subject: "Choose a new time",
			body:    "3 alternative slots",
		},
		{
			name:    "booking rescheduled",
			event:   reschedule.NewBookingRescheduled(b, uuid.New(), at.Add(-time.Hour), at),
			kind:    domain.KindBookingRescheduled,
			subject: "Flight moved to",
			body:    "was moved to",
		},
		{
			name:    "escalated",
			event:   reschedule.NewRescheduleEscalated(b, "no instructor selection before the deadline", at),
			kind:    domain.KindRescheduleEscalated,
			subject: "needs attention",
			body:    "no instructor selection before the deadline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &recordingSender{}
			metrics := observability.NewInMemoryMetrics()
			sub := NewNotificationSubscriber(sender, metrics, nil)

			event := consumed(t, tt.event)
			require.NoError(t, sub.Handle(context.Background(), event))

			require.Len(t, sender.sent, 1)
			n := sender.sent[0]
			assert.Equal(t, tt.kind, n.Kind)
			assert.Equal(t, tt.event.EventID(), n.ID)
			assert.Equal(t, b.ID(), n.BookingID)
			assert.Equal(t, []uuid.UUID{b.StudentID(), b.InstructorID()}, n.Recipients)
			assert.Contains(t, n.Subject, tt.subject)
			assert.Contains(t, n.Body, tt.body)
			assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricNotificationsSent, observability.T("routing_key", event.RoutingKey)))
		})
	}
}

func TestNotificationSubscriber_UnknownRoutingKey(t *testing.T) {
	sender := &recordingSender{}
	sub := NewNotificationSubscriber(sender, nil, nil)

	err := sub.Handle(context.Background(), &eventbus.ConsumedEvent{RoutingKey: "notification.unknown", Payload: []byte(`{}`)})
	assert.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestNotificationSubscriber_BadPayload(t *testing.T) {
	sub := NewNotificationSubscriber(&recordingSender{}, nil, nil)

	err := sub.Handle(context.Background(), &eventbus.ConsumedEvent{RoutingKey: reschedule.RoutingKeyWeatherAlert})
	assert.Error(t, err)
}

func TestNotificationSubscriber_SendFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	sub := NewNotificationSubscriber(sender, nil, nil)

	err := sub.Handle(context.Background(), consumed(t, reschedule.NewWeatherCleared(newBooking(t), at)))
	assert.ErrorContains(t, err, "smtp down")
}

func TestNotificationSubscriber_ViaInProcessBus(t *testing.T) {
	sender := &recordingSender{}
	bus := eventbus.NewInProcessEventBus(nil)
	bus.RegisterConsumer(NewNotificationSubscriber(sender, nil, nil))

	b := newBooking(t)
	for _, event := range []sharedDomain.DomainEvent{
		reschedule.NewOptionsAvailable(b, 2, at.Add(time.Hour), at),
		booking.NewStatusChanged(b, booking.StatusConfirmed),
	} {
		msg, err := outbox.NewMessage(event)
		require.NoError(t, err)
		require.NoError(t, bus.Publish(context.Background(), msg.RoutingKey, msg.Payload))
	}

	require.Len(t, sender.sent, 1)
	assert.Equal(t, domain.KindOptionsAvailable, sender.sent[0].Kind)
}
