package services

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
	weather "github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/felixgeelhaar/preflight/pkg/observability"
	"github.com/google/uuid"
)

// RouteValidator produces a weather verdict for a route.
type RouteValidator interface {
	ValidateRoute(ctx context.Context, route weather.Route, level weather.CertificationLevel) weather.Verdict
}

// NotificationGate suppresses repeated alerts. Allow returns false when the
// key was already claimed within the dedupe window. Release gives a claim
// back when the alert it guarded was never enqueued.
type NotificationGate interface {
	Allow(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// ErrScanFailed is returned when no booking of a scan could be processed.
var ErrScanFailed = errors.New("conflict scan failed for every booking")

// ScanFailure records a booking the scan could not process.
type ScanFailure struct {
	BookingID uuid.UUID
	Err       error
}

// ScanReport summarizes one scan cycle.
type ScanReport struct {
	ScanID     string
	StartedAt  time.Time
	Scanned    int
	Results    []domain.ConflictResult
	Failures   []ScanFailure
	Notified   int
	Suppressed int
	// Degraded is set when some, but not all, bookings failed.
	Degraded bool
}

// ConflictDetector re-validates upcoming bookings and moves them between
// CONFIRMED and AT_RISK.
type ConflictDetector struct {
	bookings   booking.Repository
	validator  RouteValidator
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	gate       NotificationGate
	metrics    observability.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// DetectorOption configures a ConflictDetector.
type DetectorOption func(*ConflictDetector)

// WithNotificationGate enables alert de-duplication.
func WithNotificationGate(gate NotificationGate) DetectorOption {
	return func(d *ConflictDetector) { d.gate = gate }
}

func WithDetectorMetrics(metrics observability.Metrics) DetectorOption {
	return func(d *ConflictDetector) { d.metrics = metrics }
}

func WithDetectorClock(now func() time.Time) DetectorOption {
	return func(d *ConflictDetector) { d.now = now }
}

// NewConflictDetector creates a detector.
func NewConflictDetector(
	bookings booking.Repository,
	validator RouteValidator,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
	opts ...DetectorOption,
) *ConflictDetector {
	if logger == nil {
		logger = slog.Default()
	}
	d := &ConflictDetector{
		bookings:   bookings,
		validator:  validator,
		outboxRepo: outboxRepo,
		uow:        uow,
		metrics:    observability.NoopMetrics{},
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Evaluate validates one booking and applies the resulting status change to
// it in memory. Persisting the booking is the caller's job.
func (d *ConflictDetector) Evaluate(ctx context.Context, b *booking.Booking, now time.Time) (domain.ConflictResult, error) {
	verdict := d.validator.ValidateRoute(ctx, b.Route(), b.Level())
	timeToDeparture := b.ScheduledAt().Sub(now)
	severity := domain.Classify(timeToDeparture)
	previous := b.Status()

	result := domain.ConflictResult{
		BookingID:       b.ID(),
		PreviousStatus:  previous,
		Verdict:         verdict,
		Severity:        severity,
		ShouldNotify:    domain.ShouldNotify(verdict, previous, severity),
		TimeToDeparture: timeToDeparture,
		EvaluatedAt:     now,
	}

	switch {
	case !verdict.Valid && previous == booking.StatusConfirmed:
		if err := b.MarkAtRisk(); err != nil {
			return result, err
		}
	case verdict.Valid && previous == booking.StatusAtRisk:
		if err := b.ClearRisk(); err != nil {
			return result, err
		}
		result.Cleared = true
	}
	result.CurrentStatus = b.Status()
	return result, nil
}

// ScanUpcoming evaluates every CONFIRMED or AT_RISK booking departing within
// lookahead. Bookings are processed one at a time, each in its own unit of
// work; a failing booking is recorded and the scan moves on.
func (d *ConflictDetector) ScanUpcoming(ctx context.Context, lookahead time.Duration) (*ScanReport, error) {
	if observability.ScanIDFromContext(ctx) == "" {
		ctx = observability.NewScanContext(ctx)
	}
	now := d.now()
	report := &ScanReport{ScanID: observability.ScanIDFromContext(ctx), StartedAt: now}
	logger := d.logger.With(observability.ScanIDKey, report.ScanID)

	bookings, err := d.bookings.FindScheduledBetween(ctx, now, now.Add(lookahead), booking.ScannableStatuses()...)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming bookings: %w", err)
	}
	report.Scanned = len(bookings)

	for _, b := range bookings {
		result, err := d.process(ctx, b, now, report)
		if err != nil {
			logger.ErrorContext(ctx, "conflict evaluation failed",
				observability.BookingIDKey, b.ID(),
				observability.ErrorKey, err,
			)
			report.Failures = append(report.Failures, ScanFailure{BookingID: b.ID(), Err: err})
			d.metrics.Counter(observability.MetricConflictScanFailures, 1)
			continue
		}
		report.Results = append(report.Results, result)
		d.metrics.Counter(observability.MetricConflictScanBookings, 1,
			observability.T(observability.SeverityKey, string(result.Severity)),
		)
	}

	if len(report.Failures) > 0 {
		if len(report.Results) == 0 {
			return report, fmt.Errorf("%w: %d bookings", ErrScanFailed, len(report.Failures))
		}
		report.Degraded = true
	}

	logger.InfoContext(ctx, "conflict scan complete",
		"scanned", report.Scanned,
		"failed", len(report.Failures),
		"notified", report.Notified,
		"suppressed", report.Suppressed,
		"degraded", report.Degraded,
	)
	return report, nil
}

func (d *ConflictDetector) process(ctx context.Context, b *booking.Booking, now time.Time, report *ScanReport) (domain.ConflictResult, error) {
	result, err := d.Evaluate(ctx, b, now)
	if err != nil {
		return result, err
	}

	events := b.DomainEvents()
	notify, claimed := false, false
	if result.ShouldNotify {
		notify, claimed = d.allow(ctx, b, result)
	}
	switch {
	case notify:
		events = append(events, domain.NewWeatherAlert(b, result))
	case result.Cleared:
		events = append(events, domain.NewWeatherCleared(b, now))
	}

	if len(events) > 0 {
		err = sharedApplication.WithUnitOfWork(ctx, d.uow, func(txCtx context.Context) error {
			if result.Changed() {
				if err := d.bookings.Save(txCtx, b); err != nil {
					return err
				}
			}
			return d.enqueue(txCtx, events)
		})
		if err != nil {
			if claimed {
				d.release(ctx, b, result)
			}
			return result, err
		}
		b.ClearDomainEvents()
	}

	if result.ShouldNotify {
		if notify {
			report.Notified++
		} else {
			report.Suppressed++
		}
	}
	return result, nil
}

// allow reports whether the alert may be sent and whether a dedupe claim
// was taken for it.
func (d *ConflictDetector) allow(ctx context.Context, b *booking.Booking, result domain.ConflictResult) (notify, claimed bool) {
	if d.gate == nil {
		return true, false
	}
	ok, err := d.gate.Allow(ctx, alertKey(b, result))
	if err != nil {
		d.logger.WarnContext(ctx, "notification dedupe unavailable, sending alert",
			observability.BookingIDKey, b.ID(),
			observability.ErrorKey, err,
		)
		return true, false
	}
	if !ok {
		d.metrics.Counter(observability.MetricNotificationsSuppressed, 1,
			observability.T(observability.SeverityKey, string(result.Severity)),
		)
	}
	return ok, ok
}

func (d *ConflictDetector) release(ctx context.Context, b *booking.Booking, result domain.ConflictResult) {
	if err := d.gate.Release(ctx, alertKey(b, result)); err != nil {
		d.logger.WarnContext(ctx, "failed to release notification claim",
			observability.BookingIDKey, b.ID(),
			observability.ErrorKey, err,
		)
	}
}

func alertKey(b *booking.Booking, result domain.ConflictResult) string {
	return fmt.Sprintf("%s:%s:%s", b.ID(), domain.RoutingKeyWeatherAlert, result.Severity)
}

func (d *ConflictDetector) enqueue(ctx context.Context, events []sharedDomain.DomainEvent) error {
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(ctx, uuid.Nil))
	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	return d.outboxRepo.SaveBatch(ctx, msgs)
}
