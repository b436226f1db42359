package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/preflight/internal/booking/domain"
	sharedApplication "github.com/felixgeelhaar/preflight/internal/shared/application"
	weather "github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/felixgeelhaar/preflight/pkg/observability"
	"github.com/google/uuid"
)

// CreateBookingCommand contains the data needed to book a lesson.
type CreateBookingCommand struct {
	StudentID    uuid.UUID
	InstructorID uuid.UUID
	ScheduledAt  time.Time
	// Duration defaults to domain.DefaultDuration when zero.
	Duration time.Duration
	Route    weather.Route
	Level    string
}

// CreateBookingResult contains the result of creating a booking.
type CreateBookingResult struct {
	BookingID uuid.UUID
}

// CreateBookingHandler handles the CreateBookingCommand.
type CreateBookingHandler struct {
	bookingRepo domain.Repository
	uow         sharedApplication.UnitOfWork
	logger      *slog.Logger
}

// NewCreateBookingHandler creates a new CreateBookingHandler.
func NewCreateBookingHandler(bookingRepo domain.Repository, uow sharedApplication.UnitOfWork, logger *slog.Logger) *CreateBookingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreateBookingHandler{
		bookingRepo: bookingRepo,
		uow:         uow,
		logger:      logger,
	}
}

// Handle executes the CreateBookingCommand.
func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*CreateBookingResult, error) {
	level, err := weather.ParseLevel(normalizeLevel(cmd.Level))
	if err != nil {
		return nil, err
	}

	var result *CreateBookingResult
	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		b, err := domain.NewBooking(cmd.StudentID, cmd.InstructorID, cmd.ScheduledAt, cmd.Duration, cmd.Route, level)
		if err != nil {
			return err
		}
		if err := h.bookingRepo.Save(txCtx, b); err != nil {
			return err
		}
		result = &CreateBookingResult{BookingID: b.ID()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "booking created",
		observability.BookingIDKey, result.BookingID,
		"scheduled_at", cmd.ScheduledAt.UTC(),
		"level", level,
	)
	return result, nil
}

// normalizeLevel accepts "private-pilot" as well as "PRIVATE_PILOT".
func normalizeLevel(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
}
