package workers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/preflight/internal/rescheduling/application/commands"
	"github.com/felixgeelhaar/preflight/pkg/observability"
)

// DefaultScanInterval is the default interval between scan cycles.
const DefaultScanInterval = 10 * time.Minute

// ScanRunner executes one scan cycle.
type ScanRunner interface {
	Handle(ctx context.Context, cmd commands.ScanConflictsCommand) (*commands.ScanConflictsResult, error)
}

// ScanWorkerConfig configures the scan worker.
type ScanWorkerConfig struct {
	Interval  time.Duration
	Lookahead time.Duration
}

// DefaultScanWorkerConfig returns the default configuration.
func DefaultScanWorkerConfig() ScanWorkerConfig {
	return ScanWorkerConfig{
		Interval:  DefaultScanInterval,
		Lookahead: commands.DefaultLookahead,
	}
}

// ScanWorker periodically scans upcoming bookings for weather conflicts
// and advances open reschedule rounds. Cycles never overlap.
type ScanWorker struct {
	runner  ScanRunner
	config  ScanWorkerConfig
	metrics observability.Metrics
	logger  *slog.Logger
	running atomic.Bool
	stopCh  chan struct{}
	cycles  atomic.Int64
	lastRun atomic.Pointer[time.Time]
}

// NewScanWorker creates a new scan worker.
func NewScanWorker(runner ScanRunner, config ScanWorkerConfig, metrics observability.Metrics, logger *slog.Logger) *ScanWorker {
	if config.Interval <= 0 {
		config.Interval = DefaultScanInterval
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ScanWorker{
		runner:  runner,
		config:  config,
		metrics: metrics,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// Run starts the worker and blocks until context is cancelled or Stop() is called.
func (w *ScanWorker) Run(ctx context.Context) error {
	if w.runner == nil {
		w.logger.Warn("scan runner not configured, worker will not start")
		return nil
	}

	w.running.Store(true)
	w.logger.Info("scan worker started",
		"interval", w.config.Interval,
		"lookahead", w.config.Lookahead,
	)

	w.runCycle(ctx)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.running.Store(false)
			w.logger.Info("scan worker stopped (context cancelled)")
			return ctx.Err()
		case <-w.stopCh:
			w.running.Store(false)
			w.logger.Info("scan worker stopped (stop signal)")
			return nil
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

// Stop signals the worker to stop gracefully.
func (w *ScanWorker) Stop() {
	if w.running.CompareAndSwap(true, false) {
		close(w.stopCh)
	}
}

// IsRunning returns true if the worker is currently running.
func (w *ScanWorker) IsRunning() bool {
	return w.running.Load()
}

// Cycles returns the number of completed scan cycles.
func (w *ScanWorker) Cycles() int64 {
	return w.cycles.Load()
}

// LastRun returns when the last cycle finished, or the zero time.
func (w *ScanWorker) LastRun() time.Time {
	if t := w.lastRun.Load(); t != nil {
		return *t
	}
	return time.Time{}
}

func (w *ScanWorker) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	result, err := w.runner.Handle(ctx, commands.ScanConflictsCommand{Lookahead: w.config.Lookahead})

	finished := time.Now()
	w.lastRun.Store(&finished)
	w.cycles.Add(1)
	w.metrics.Timing(observability.MetricConflictScanDuration, finished.Sub(start))

	if err != nil {
		w.metrics.Counter(observability.MetricConflictScanCycles, 1, observability.T("outcome", "failed"))
		w.logger.ErrorContext(ctx, "scan cycle failed", observability.ErrorKey, err)
		return
	}

	outcome := "ok"
	if (result.Report != nil && result.Report.Degraded) || len(result.Failures) > 0 {
		outcome = "degraded"
	}
	w.metrics.Counter(observability.MetricConflictScanCycles, 1, observability.T("outcome", outcome))

	attrs := []any{
		"outcome", outcome,
		"options_generated", len(result.OptionsGenerated),
		"no_candidate", len(result.NoCandidate),
		"rescheduled", len(result.Rescheduled),
		"escalated", len(result.Escalated),
		"pending", result.Pending,
		"failures", len(result.Failures),
		observability.DurationKey, finished.Sub(start).Milliseconds(),
	}
	if r := result.Report; r != nil {
		attrs = append(attrs,
			observability.ScanIDKey, r.ScanID,
			"scanned", r.Scanned,
			"notified", r.Notified,
			"suppressed", r.Suppressed,
		)
	}
	w.logger.InfoContext(ctx, "scan cycle completed", attrs...)
}
