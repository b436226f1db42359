package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	booking "github.com/felixgeelhaar/preflight/internal/booking/domain"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/application/services"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/domain"
	"github.com/felixgeelhaar/preflight/pkg/observability"
	"github.com/google/uuid"
)

// DefaultLookahead is the scan window used when the command leaves it unset.
const DefaultLookahead = 48 * time.Hour

// ConflictScanner evaluates upcoming bookings.
type ConflictScanner interface {
	ScanUpcoming(ctx context.Context, lookahead time.Duration) (*services.ScanReport, error)
}

// ScanConflictsCommand runs one full scan cycle.
type ScanConflictsCommand struct {
	Lookahead time.Duration
}

// ScanConflictsResult summarizes the cycle.
type ScanConflictsResult struct {
	Report           *services.ScanReport
	OptionsGenerated []uuid.UUID
	NoCandidate      []uuid.UUID
	Rescheduled      []uuid.UUID
	Escalated        []uuid.UUID
	Pending          int
	Failures         []services.ScanFailure
}

// ScanConflictsHandler runs the conflict detector, generates options for
// critical AT_RISK bookings and resolves RESCHEDULING bookings that are
// ready. Resolution runs every cycle so deadlines that passed between
// cycles are picked up late rather than missed.
type ScanConflictsHandler struct {
	scanner  ConflictScanner
	bookings booking.Repository
	generate *GenerateOptionsHandler
	confirm  *ConfirmSelectionHandler
	logger   *slog.Logger
}

// NewScanConflictsHandler creates a new ScanConflictsHandler.
func NewScanConflictsHandler(
	scanner ConflictScanner,
	bookings booking.Repository,
	generate *GenerateOptionsHandler,
	confirm *ConfirmSelectionHandler,
	logger *slog.Logger,
) *ScanConflictsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScanConflictsHandler{
		scanner:  scanner,
		bookings: bookings,
		generate: generate,
		confirm:  confirm,
		logger:   logger,
	}
}

// Handle executes the ScanConflictsCommand. It fails only when the scan
// itself fails; per-booking errors are collected in the result.
func (h *ScanConflictsHandler) Handle(ctx context.Context, cmd ScanConflictsCommand) (*ScanConflictsResult, error) {
	lookahead := cmd.Lookahead
	if lookahead <= 0 {
		lookahead = DefaultLookahead
	}
	ctx = observability.NewScanContext(ctx)
	logger := h.logger.With(observability.ScanIDKey, observability.ScanIDFromContext(ctx))

	report, err := h.scanner.ScanUpcoming(ctx, lookahead)
	if err != nil {
		return &ScanConflictsResult{Report: report}, err
	}
	result := &ScanConflictsResult{Report: report}

	for _, r := range report.Results {
		if !r.NeedsReschedule() {
			continue
		}
		_, err := h.generate.Handle(ctx, GenerateOptionsCommand{BookingID: r.BookingID})
		switch {
		case err == nil:
			result.OptionsGenerated = append(result.OptionsGenerated, r.BookingID)
		case errors.Is(err, domain.ErrNoCandidateSlot):
			result.NoCandidate = append(result.NoCandidate, r.BookingID)
		case errors.Is(err, domain.ErrDeadlinePassed):
			logger.InfoContext(ctx, "too close to departure to offer options", observability.BookingIDKey, r.BookingID)
		default:
			logger.ErrorContext(ctx, "option generation failed",
				observability.BookingIDKey, r.BookingID,
				observability.ErrorKey, err,
			)
			result.Failures = append(result.Failures, services.ScanFailure{BookingID: r.BookingID, Err: err})
		}
	}

	rescheduling, err := h.bookings.FindByStatus(ctx, booking.StatusRescheduling)
	if err != nil {
		return result, err
	}
	for _, b := range rescheduling {
		confirmed, err := h.confirm.Handle(ctx, ConfirmSelectionCommand{BookingID: b.ID()})
		switch {
		case IsPending(err):
			result.Pending++
		case err != nil:
			logger.ErrorContext(ctx, "selection confirmation failed",
				observability.BookingIDKey, b.ID(),
				observability.ErrorKey, err,
			)
			result.Failures = append(result.Failures, services.ScanFailure{BookingID: b.ID(), Err: err})
		case confirmed.Outcome == OutcomeRescheduled:
			result.Rescheduled = append(result.Rescheduled, b.ID())
		case confirmed.Outcome == OutcomeEscalated:
			result.Escalated = append(result.Escalated, b.ID())
		}
	}

	logger.InfoContext(ctx, "scan cycle complete",
		"options_generated", len(result.OptionsGenerated),
		"no_candidate", len(result.NoCandidate),
		"rescheduled", len(result.Rescheduled),
		"escalated", len(result.Escalated),
		"pending", result.Pending,
		"failures", len(result.Failures),
	)
	return result, nil
}
