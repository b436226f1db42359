package subscribers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/preflight/internal/notification/domain"
	reschedule "github.com/felixgeelhaar/preflight/internal/rescheduling/domain"
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/preflight/pkg/observability"
	"github.com/google/uuid"
)

// notificationPattern matches every notification routing key.
const notificationPattern = "notification.*"

// NotificationSubscriber turns notification events into messages for the
// booking participants.
type NotificationSubscriber struct {
	sender  domain.Sender
	metrics observability.Metrics
	logger  *slog.Logger
}

// NewNotificationSubscriber creates a new notification subscriber.
func NewNotificationSubscriber(sender domain.Sender, metrics observability.Metrics, logger *slog.Logger) *NotificationSubscriber {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationSubscriber{sender: sender, metrics: metrics, logger: logger}
}

// EventTypes returns the event types this subscriber handles.
func (s *NotificationSubscriber) EventTypes() []string {
	return []string{notificationPattern}
}

// Handle renders and sends the notification for event.
func (s *NotificationSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	n, err := render(event)
	if err != nil {
		return err
	}
	if n == nil {
		s.logger.Warn("unknown notification type", "routing_key", event.RoutingKey)
		return nil
	}

	if err := s.sender.Send(ctx, *n); err != nil {
		return fmt.Errorf("send %s notification: %w", n.Kind, err)
	}
	s.metrics.Counter(observability.MetricNotificationsSent, 1, observability.T("routing_key", event.RoutingKey))
	return nil
}

// render builds the notification for event, or nil for unknown routing keys.
func render(event *eventbus.ConsumedEvent) (*domain.Notification, error) {
	base := func(kind domain.Kind, r reschedule.Recipients) *domain.Notification {
		return &domain.Notification{
			ID:         event.EventID,
			Kind:       kind,
			BookingID:  r.BookingID,
			Recipients: []uuid.UUID{r.StudentID, r.InstructorID},
			OccurredAt: event.OccurredAt,
		}
	}

	switch event.RoutingKey {
	case reschedule.RoutingKeyWeatherAlert:
		var p reschedule.WeatherAlert
		if err := event.DecodePayload(&p); err != nil {
			return nil, err
		}
		n := base(domain.KindWeatherAlert, p.Recipients)
		n.Subject = fmt.Sprintf("Weather alert (%s) for your flight at %s", p.Severity, formatTime(p.ScheduledAt))
		n.Body = fmt.Sprintf("Conditions are outside your minimums: %s. Forecast confidence %d%%.",
			strings.Join(p.Violations, "; "), p.Confidence)
		return n, nil

	case reschedule.RoutingKeyWeatherCleared:
		var p reschedule.WeatherCleared
		if err := event.DecodePayload(&p); err != nil {
			return nil, err
		}
		n := base(domain.KindWeatherCleared, p.Recipients)
		n.Subject = fmt.Sprintf("Weather cleared for your flight at %s", formatTime(p.ScheduledAt))
		n.Body = "Conditions are back within your minimums. The flight stays as booked."
		return n, nil

	case reschedule.RoutingKeyOptionsAvailable:
		var p reschedule.OptionsAvailable
		if err := event.DecodePayload(&p); err != nil {
			return nil, err
		}
		n := base(domain.KindOptionsAvailable, p.Recipients)
		n.Subject = "Choose a new time for your flight"
		n.Body = fmt.Sprintf("%d alternative slots are available. Rank them before %s.", p.OptionCount, formatTime(p.Deadline))
		return n, nil

	case reschedule.RoutingKeyBookingRescheduled:
		var p reschedule.BookingRescheduled
		if err := event.DecodePayload(&p); err != nil {
			return nil, err
		}
		n := base(domain.KindBookingRescheduled, p.Recipients)
		n.Subject = fmt.Sprintf("Flight moved to %s", formatTime(p.ScheduledAt))
		n.Body = fmt.Sprintf("Your flight at %s was moved to %s.", formatTime(p.PreviousScheduledAt), formatTime(p.ScheduledAt))
		return n, nil

	case reschedule.RoutingKeyRescheduleEscalated:
		var p reschedule.RescheduleEscalated
		if err := event.DecodePayload(&p); err != nil {
			return nil, err
		}
		n := base(domain.KindRescheduleEscalated, p.Recipients)
		n.Subject = fmt.Sprintf("Flight at %s needs attention", formatTime(p.ScheduledAt))
		n.Body = fmt.Sprintf("No new time was agreed: %s. The flight remains at risk.", p.Reason)
		return n, nil
	}
	return nil, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format("Mon 02 Jan 15:04 MST")
}
