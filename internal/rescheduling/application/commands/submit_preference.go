package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	booking "github.com/felixgeelhaar/preflight/internal/booking/domain"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/domain"
	sharedApplication "github.com/felixgeelhaar/preflight/internal/shared/application"
	"github.com/felixgeelhaar/preflight/pkg/observability"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// SubmitPreferenceCommand carries one participant's ranking. Ranked is
// ordered best first.
type SubmitPreferenceCommand struct {
	BookingID   uuid.UUID   `validate:"required"`
	UserID      uuid.UUID   `validate:"required"`
	Ranked      []uuid.UUID `validate:"max=3,unique"`
	Unavailable []uuid.UUID `validate:"unique"`
}

// SubmitPreferenceResult reports the stored ranking and whether both
// participants have now answered.
type SubmitPreferenceResult struct {
	Ranking      *domain.PreferenceRanking
	AllSubmitted bool
}

// SubmitPreferenceHandler handles the SubmitPreferenceCommand.
type SubmitPreferenceHandler struct {
	bookings    booking.Repository
	options     domain.OptionRepository
	preferences domain.PreferenceRepository
	audit       domain.AuditRepository
	uow         sharedApplication.UnitOfWork
	logger      *slog.Logger
	now         func() time.Time
}

// NewSubmitPreferenceHandler creates a new SubmitPreferenceHandler.
func NewSubmitPreferenceHandler(
	bookings booking.Repository,
	options domain.OptionRepository,
	preferences domain.PreferenceRepository,
	audit domain.AuditRepository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
) *SubmitPreferenceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmitPreferenceHandler{
		bookings:    bookings,
		options:     options,
		preferences: preferences,
		audit:       audit,
		uow:         uow,
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock overrides the wall clock.
func (h *SubmitPreferenceHandler) WithClock(now func() time.Time) *SubmitPreferenceHandler {
	h.now = now
	return h
}

// Handle overwrites the participant's ranking. Submissions after the
// deadline fail with domain.ErrDeadlinePassed.
func (h *SubmitPreferenceHandler) Handle(ctx context.Context, cmd SubmitPreferenceCommand) (*SubmitPreferenceResult, error) {
	if err := validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("invalid preference: %w", err)
	}
	now := h.now().UTC()

	var result SubmitPreferenceResult
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		b, err := h.bookings.FindByID(txCtx, cmd.BookingID)
		if err != nil {
			return err
		}
		if b.Status() != booking.StatusRescheduling {
			return fmt.Errorf("%w: booking is %s", domain.ErrNotRescheduling, b.Status())
		}
		if !b.IsParticipant(cmd.UserID) {
			return domain.ErrNotParticipant
		}

		ranking, err := h.preferences.Find(txCtx, b.ID(), cmd.UserID)
		if err != nil {
			return err
		}

		options, err := h.options.FindByBooking(txCtx, b.ID())
		if err != nil {
			return err
		}
		offered := make([]uuid.UUID, len(options))
		for i, opt := range options {
			offered[i] = opt.ID
		}

		if err := ranking.Submit(cmd.Ranked, cmd.Unavailable, offered, now); err != nil {
			return err
		}
		if err := h.preferences.Upsert(txCtx, ranking); err != nil {
			return err
		}

		detail := fmt.Sprintf("%s ranked %d, unavailable %d", ranking.Role, len(cmd.Ranked), len(ranking.Unavailable))
		if err := h.audit.Append(txCtx, domain.NewAuditEntry(b.ID(), domain.AuditPreferenceSubmitted, detail, now)); err != nil {
			return err
		}

		rankings, err := h.preferences.FindByBooking(txCtx, b.ID())
		if err != nil {
			return err
		}
		result = SubmitPreferenceResult{Ranking: ranking, AllSubmitted: domain.AllSubmitted(rankings)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.LogOperation(h.logger, "submit_preference", observability.BookingIDKey, cmd.BookingID).
		InfoContext(ctx, "preference submitted",
			"role", result.Ranking.Role,
			"all_submitted", result.AllSubmitted,
		)
	return &result, nil
}
