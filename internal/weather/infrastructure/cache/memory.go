// Package cache holds the process-local weather observation cache.
package cache

import (
	"container/list"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/felixgeelhaar/preflight/pkg/observability"
)

// Config configures a Memory cache.
type Config struct {
	TTL        time.Duration
	MaxEntries int
}

// DefaultConfig returns a 300s TTL bounded to 1000 entries.
func DefaultConfig() Config {
	return Config{TTL: 300 * time.Second, MaxEntries: 1000}
}

type entry struct {
	key       string
	obs       domain.Observation
	fetchedAt time.Time
}

// Memory is a bounded TTL cache of observations keyed by rounded
// coordinate. When full, the oldest inserted key is evicted first.
// Entries older than the TTL are never returned, swept or not.
type Memory struct {
	cfg     Config
	now     func() time.Time
	metrics observability.Metrics
	logger  *slog.Logger

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List
}

// Option customizes a Memory cache.
type Option func(*Memory)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) { m.now = now }
}

// WithMetrics records hit and miss counters.
func WithMetrics(metrics observability.Metrics) Option {
	return func(m *Memory) { m.metrics = metrics }
}

// WithLogger sets the logger used by the sweeper.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Memory) { m.logger = logger }
}

// NewMemory creates an empty cache.
func NewMemory(cfg Config, opts ...Option) *Memory {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultConfig().MaxEntries
	}
	m := &Memory{
		cfg:     cfg,
		now:     time.Now,
		metrics: observability.NoopMetrics{},
		logger:  slog.Default(),
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a copy of the cached observation for coord if it is younger
// than the TTL.
func (m *Memory) Get(coord domain.Coordinate) (domain.Observation, bool) {
	key := coord.Key()

	m.mu.Lock()
	el, ok := m.entries[key]
	if ok {
		e := el.Value.(*entry)
		if m.expired(e, m.now()) {
			m.removeElement(el)
			ok = false
		} else {
			obs := e.obs.Clone()
			m.mu.Unlock()
			m.metrics.Counter(observability.MetricWeatherCacheHits, 1)
			return obs, true
		}
	}
	m.mu.Unlock()

	m.metrics.Counter(observability.MetricWeatherCacheMisses, 1)
	return domain.Observation{}, false
}

// Set stores obs for coord. Re-setting an existing key refreshes its value
// and timestamp but keeps its eviction position.
func (m *Memory) Set(coord domain.Coordinate, obs domain.Observation, fetchedAt time.Time) {
	key := coord.Key()

	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.entries[key]; ok {
		e := el.Value.(*entry)
		e.obs = obs.Clone()
		e.fetchedAt = fetchedAt
		return
	}

	m.entries[key] = m.order.PushBack(&entry{key: key, obs: obs.Clone(), fetchedAt: fetchedAt})
	for m.order.Len() > m.cfg.MaxEntries {
		m.removeElement(m.order.Front())
	}
	m.metrics.Gauge(observability.MetricWeatherCacheEntries, float64(m.order.Len()))
}

// Sweep removes every expired entry and returns how many were removed.
func (m *Memory) Sweep(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for el := m.order.Front(); el != nil; {
		next := el.Next()
		if m.expired(el.Value.(*entry), now) {
			m.removeElement(el)
			removed++
		}
		el = next
	}
	m.metrics.Gauge(observability.MetricWeatherCacheEntries, float64(m.order.Len()))
	return removed
}

// StartSweeper sweeps every interval until ctx is cancelled.
func (m *Memory) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(m.now()); n > 0 {
				m.logger.Debug("swept expired weather observations", "removed", n)
			}
		}
	}
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

func (m *Memory) expired(e *entry, now time.Time) bool {
	return now.Sub(e.fetchedAt) >= m.cfg.TTL
}

func (m *Memory) removeElement(el *list.Element) {
	e := m.order.Remove(el).(*entry)
	delete(m.entries, e.key)
}
