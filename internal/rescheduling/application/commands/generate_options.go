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
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/preflight/pkg/observability"
	"github.com/google/uuid"
)

// OperationRescheduleEngine tags timings of the option pipeline.
const OperationRescheduleEngine = "reschedule_engine"

// OptionGenerator produces ranked replacement options for a booking.
type OptionGenerator interface {
	Generate(ctx context.Context, b *booking.Booking, now time.Time) ([]*domain.RescheduleOption, error)
}

// GenerateOptionsCommand asks for replacement options for an AT_RISK or
// CONFIRMED booking.
type GenerateOptionsCommand struct {
	BookingID uuid.UUID
	ActorID   uuid.UUID
}

// GenerateOptionsResult contains the stored options.
type GenerateOptionsResult struct {
	BookingID uuid.UUID
	Options   []*domain.RescheduleOption
	Deadline  time.Time
}

// GenerateOptionsHandler handles the GenerateOptionsCommand.
type GenerateOptionsHandler struct {
	bookings    booking.Repository
	options     domain.OptionRepository
	preferences domain.PreferenceRepository
	audit       domain.AuditRepository
	outboxRepo  outbox.Repository
	uow         sharedApplication.UnitOfWork
	engine      OptionGenerator
	metrics     observability.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// NewGenerateOptionsHandler creates a new GenerateOptionsHandler.
func NewGenerateOptionsHandler(
	bookings booking.Repository,
	options domain.OptionRepository,
	preferences domain.PreferenceRepository,
	audit domain.AuditRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	engine OptionGenerator,
	metrics observability.Metrics,
	logger *slog.Logger,
) *GenerateOptionsHandler {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerateOptionsHandler{
		bookings:    bookings,
		options:     options,
		preferences: preferences,
		audit:       audit,
		outboxRepo:  outboxRepo,
		uow:         uow,
		engine:      engine,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock overrides the wall clock.
func (h *GenerateOptionsHandler) WithClock(now func() time.Time) *GenerateOptionsHandler {
	h.now = now
	return h
}

// Handle runs the engine, stores the options, opens a preference row for
// each participant and moves the booking to RESCHEDULING. When no slot
// survives the booking is left untouched and domain.ErrNoCandidateSlot is
// returned.
func (h *GenerateOptionsHandler) Handle(ctx context.Context, cmd GenerateOptionsCommand) (*GenerateOptionsResult, error) {
	now := h.now().UTC()
	logger := observability.LogOperation(h.logger, "generate_options", observability.BookingIDKey, cmd.BookingID)

	b, err := h.bookings.FindByID(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if !b.Status().CanTransitionTo(booking.StatusRescheduling) {
		return nil, fmt.Errorf("%w: cannot reschedule a %s booking", booking.ErrInvalidTransition, b.Status())
	}

	deadline := domain.CalculateDeadline(b.ScheduledAt(), now)
	if domain.DeadlinePassed(deadline, now) {
		return nil, fmt.Errorf("%w: booking departs at %s", domain.ErrDeadlinePassed, b.ScheduledAt().Format(time.RFC3339))
	}

	options, err := observability.TimeOperationResult(ctx, h.logger, h.metrics, OperationRescheduleEngine,
		func() ([]*domain.RescheduleOption, error) {
			return h.engine.Generate(ctx, b, now)
		})
	if errors.Is(err, domain.ErrNoCandidateSlot) {
		h.metrics.Counter(observability.MetricRescheduleNoCandidate, 1)
		entry := domain.NewAuditEntry(b.ID(), domain.AuditNoCandidateSlot, err.Error(), now)
		if auditErr := h.audit.Append(ctx, entry); auditErr != nil {
			logger.WarnContext(ctx, "failed to record audit entry", observability.ErrorKey, auditErr)
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.options.ReplaceForBooking(txCtx, b.ID(), options); err != nil {
			return err
		}
		if err := h.preferences.DeleteForBooking(txCtx, b.ID()); err != nil {
			return err
		}
		for _, r := range []*domain.PreferenceRanking{
			domain.NewEmptyRanking(b.ID(), b.StudentID(), domain.RoleStudent, deadline, now),
			domain.NewEmptyRanking(b.ID(), b.InstructorID(), domain.RoleInstructor, deadline, now),
		} {
			if err := h.preferences.Upsert(txCtx, r); err != nil {
				return err
			}
		}

		if err := b.BeginRescheduling(); err != nil {
			return err
		}
		if err := h.bookings.Save(txCtx, b); err != nil {
			return err
		}

		detail := fmt.Sprintf("%d options, deadline %s", len(options), deadline.Format(time.RFC3339))
		if err := h.audit.Append(txCtx, domain.NewAuditEntry(b.ID(), domain.AuditOptionsGenerated, detail, now)); err != nil {
			return err
		}

		events := append(b.DomainEvents(), domain.NewOptionsAvailable(b, len(options), deadline, now))
		return saveEvents(txCtx, h.outboxRepo, events, cmd.ActorID)
	})
	if err != nil {
		return nil, err
	}
	b.ClearDomainEvents()

	h.metrics.Counter(observability.MetricRescheduleOptionsGenerated, int64(len(options)))
	logger.InfoContext(ctx, "reschedule options generated",
		"options", len(options),
		"deadline", deadline,
	)

	return &GenerateOptionsResult{BookingID: b.ID(), Options: options, Deadline: deadline}, nil
}
