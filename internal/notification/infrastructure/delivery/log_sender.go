// Package delivery hands notifications to their channel.
package delivery

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/preflight/internal/notification/domain"
	"github.com/felixgeelhaar/preflight/pkg/observability"
)

// LogSender writes each notification to the structured log. It stands in
// for the email and in-app channels, which are run by other services.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, n domain.Notification) error {
	s.logger.InfoContext(ctx, "notification sent",
		"notification_id", n.ID,
		"kind", n.Kind,
		observability.BookingIDKey, n.BookingID,
		"recipients", n.Recipients,
		"subject", n.Subject,
		"body", n.Body,
	)
	return nil
}
