package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	booking "github.com/felixgeelhaar/preflight/internal/booking/domain"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/domain"
	sharedApplication "github.com/felixgeelhaar/preflight/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/preflight/internal/shared/domain"
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/preflight/pkg/observability"
	"github.com/google/uuid"
)

// ConfirmOutcome describes what confirming a selection did.
type ConfirmOutcome string

const (
	OutcomeRescheduled        ConfirmOutcome = "rescheduled"
	OutcomeEscalated          ConfirmOutcome = "escalated"
	OutcomeAlreadyRescheduled ConfirmOutcome = "already_rescheduled"
)

// ConfirmSelectionCommand resolves the preferences of a RESCHEDULING booking.
type ConfirmSelectionCommand struct {
	BookingID uuid.UUID
	ActorID   uuid.UUID
}

type ConfirmSelectionResult struct {
	BookingID   uuid.UUID
	Outcome     ConfirmOutcome
	Status      booking.Status
	ScheduledAt time.Time
	OptionID    *uuid.UUID
}

// ConfirmSelectionHandler handles the ConfirmSelectionCommand.
type ConfirmSelectionHandler struct {
	bookings    booking.Repository
	options     domain.OptionRepository
	preferences domain.PreferenceRepository
	audit       domain.AuditRepository
	outboxRepo  outbox.Repository
	uow         sharedApplication.UnitOfWork
	metrics     observability.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// NewConfirmSelectionHandler creates a new ConfirmSelectionHandler.
func NewConfirmSelectionHandler(
	bookings booking.Repository,
	options domain.OptionRepository,
	preferences domain.PreferenceRepository,
	audit domain.AuditRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	metrics observability.Metrics,
	logger *slog.Logger,
) *ConfirmSelectionHandler {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfirmSelectionHandler{
		bookings:    bookings,
		options:     options,
		preferences: preferences,
		audit:       audit,
		outboxRepo:  outboxRepo,
		uow:         uow,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock overrides the wall clock.
func (h *ConfirmSelectionHandler) WithClock(now func() time.Time) *ConfirmSelectionHandler {
	h.now = now
	return h
}

// Handle resolves once both participants answered or the deadline passed.
// The instructor's top choice moves the booking; no choice after the
// deadline escalates it back to AT_RISK. Before that it returns
// domain.ErrAwaitingPreferences. Confirming a booking that was already
// rescheduled returns its current state.
func (h *ConfirmSelectionHandler) Handle(ctx context.Context, cmd ConfirmSelectionCommand) (*ConfirmSelectionResult, error) {
	now := h.now().UTC()

	var result *ConfirmSelectionResult
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		b, err := h.bookings.FindByID(txCtx, cmd.BookingID)
		if err != nil {
			return err
		}
		if b.Status() == booking.StatusRescheduled {
			result = resultFor(b, OutcomeAlreadyRescheduled, nil)
			return nil
		}
		if b.Status() != booking.StatusRescheduling {
			return fmt.Errorf("%w: booking is %s", domain.ErrNotRescheduling, b.Status())
		}

		rankings, err := h.preferences.FindByBooking(txCtx, b.ID())
		if err != nil {
			return err
		}
		passed := domain.DeadlinePassed(deadlineOf(b, rankings), now)
		if !passed && !domain.AllSubmitted(rankings) {
			return domain.ErrAwaitingPreferences
		}

		selected, err := domain.ResolveFinalSelection(rankings, b.InstructorID())
		if err != nil && !passed {
			return err
		}
		if selected == nil {
			if !passed {
				return domain.ErrAwaitingPreferences
			}
			reason := "no instructor selection before the deadline"
			if err != nil {
				reason = err.Error()
			}
			result, err = h.escalate(txCtx, b, reason, now, cmd.ActorID)
			return err
		}

		result, err = h.reschedule(txCtx, b, *selected, now, cmd.ActorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (h *ConfirmSelectionHandler) reschedule(ctx context.Context, b *booking.Booking, optionID uuid.UUID, now time.Time, actorID uuid.UUID) (*ConfirmSelectionResult, error) {
	opt, err := h.options.FindByID(ctx, optionID)
	if err != nil {
		return nil, err
	}
	if opt.BookingID != b.ID() {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownOption, optionID)
	}

	previous := b.ScheduledAt()
	if err := b.CompleteReschedule(opt.Start); err != nil {
		return nil, err
	}

	detail := fmt.Sprintf("option %s moves %s to %s", opt.ID, previous.Format(time.RFC3339), opt.Start.Format(time.RFC3339))
	event := domain.NewBookingRescheduled(b, opt.ID, previous, now)
	if err := h.finish(ctx, b, domain.AuditSelectionConfirmed, detail, event, now, actorID); err != nil {
		return nil, err
	}

	h.metrics.Counter(observability.MetricRescheduleConfirmed, 1)
	h.logger.InfoContext(ctx, "booking rescheduled",
		observability.BookingIDKey, b.ID(),
		"previous", previous,
		"scheduled_at", opt.Start,
	)
	return resultFor(b, OutcomeRescheduled, &opt.ID), nil
}

func (h *ConfirmSelectionHandler) escalate(ctx context.Context, b *booking.Booking, reason string, now time.Time, actorID uuid.UUID) (*ConfirmSelectionResult, error) {
	if err := b.Escalate(); err != nil {
		return nil, err
	}

	event := domain.NewRescheduleEscalated(b, reason, now)
	if err := h.finish(ctx, b, domain.AuditEscalated, reason, event, now, actorID); err != nil {
		return nil, err
	}

	h.metrics.Counter(observability.MetricRescheduleEscalated, 1)
	h.logger.WarnContext(ctx, "reschedule escalated",
		observability.BookingIDKey, b.ID(),
		"reason", reason,
	)
	return resultFor(b, OutcomeEscalated, nil), nil
}

// finish persists the booking, drops the options and preferences of the
// finished round and records the outcome.
func (h *ConfirmSelectionHandler) finish(
	ctx context.Context,
	b *booking.Booking,
	action domain.AuditAction,
	detail string,
	event sharedDomain.DomainEvent,
	now time.Time,
	actorID uuid.UUID,
) error {
	if err := h.bookings.Save(ctx, b); err != nil {
		return err
	}
	if err := h.preferences.DeleteForBooking(ctx, b.ID()); err != nil {
		return err
	}
	if err := h.options.DeleteForBooking(ctx, b.ID()); err != nil {
		return err
	}
	if err := h.audit.Append(ctx, domain.NewAuditEntry(b.ID(), action, detail, now)); err != nil {
		return err
	}

	events := append(b.DomainEvents(), event)
	if err := saveEvents(ctx, h.outboxRepo, events, actorID); err != nil {
		return err
	}
	b.ClearDomainEvents()
	return nil
}

// deadlineOf returns the earliest deadline stored for the booking, or the
// departure lead time when no preference row exists.
func deadlineOf(b *booking.Booking, rankings []*domain.PreferenceRanking) time.Time {
	deadline := b.ScheduledAt().Add(-domain.DeadlineLeadTime)
	for _, r := range rankings {
		if r.Deadline.Before(deadline) {
			deadline = r.Deadline
		}
	}
	return deadline
}

func resultFor(b *booking.Booking, outcome ConfirmOutcome, optionID *uuid.UUID) *ConfirmSelectionResult {
	return &ConfirmSelectionResult{
		BookingID:   b.ID(),
		Outcome:     outcome,
		Status:      b.Status(),
		ScheduledAt: b.ScheduledAt(),
		OptionID:    optionID,
	}
}

// IsPending reports whether err only means the round is still open.
func IsPending(err error) bool {
	return errors.Is(err, domain.ErrAwaitingPreferences)
}
