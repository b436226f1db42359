package commands

import (
	"context"

	"github.com/felixgeelhaar/preflight/internal/booking/domain"
	sharedApplication "github.com/felixgeelhaar/preflight/internal/shared/application"
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// CancelBookingCommand cancels a booking on behalf of ActorID.
type CancelBookingCommand struct {
	BookingID uuid.UUID
	ActorID   uuid.UUID
}

// CancelBookingHandler handles the CancelBookingCommand.
type CancelBookingHandler struct {
	bookingRepo domain.Repository
	outboxRepo  outbox.Repository
	uow         sharedApplication.UnitOfWork
}

// NewCancelBookingHandler creates a new CancelBookingHandler.
func NewCancelBookingHandler(bookingRepo domain.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork) *CancelBookingHandler {
	return &CancelBookingHandler{
		bookingRepo: bookingRepo,
		outboxRepo:  outboxRepo,
		uow:         uow,
	}
}

// Handle executes the CancelBookingCommand. Pending reschedule options are
// left in place; the scan ignores cancelled bookings.
func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		b, err := h.bookingRepo.FindByID(txCtx, cmd.BookingID)
		if err != nil {
			return err
		}
		if err := b.Cancel(); err != nil {
			return err
		}
		if err := h.bookingRepo.Save(txCtx, b); err != nil {
			return err
		}

		events := b.DomainEvents()
		sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(txCtx, cmd.ActorID))
		msgs, err := outbox.NewMessages(events)
		if err != nil {
			return err
		}
		if err := h.outboxRepo.SaveBatch(txCtx, msgs); err != nil {
			return err
		}
		b.ClearDomainEvents()
		return nil
	})
}
