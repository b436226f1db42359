package observability

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "preflight"

// PrometheusMetrics implements Metrics on top of a Prometheus registry.
// Collectors are created on first use; the label names of a metric are fixed
// by the tags passed on that first call.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
	histograms map[string]*prometheus.HistogramVec
}

// NewPrometheusMetrics creates a collector backed by a fresh registry that
// also exports the Go runtime and process collectors.
func NewPrometheusMetrics() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return &PrometheusMetrics{
		registry:   reg,
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

// Registry exposes the underlying registry.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *PrometheusMetrics) Counter(name string, value int64, tags ...Tag) {
	if value < 0 {
		return
	}
	keys, values := splitTags(tags)

	m.mu.Lock()
	vec, ok := m.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      sanitizeMetricName(name),
			Help:      helpFor(name),
		}, keys)
		registered, ok := m.register(vec).(*prometheus.CounterVec)
		if !ok {
			m.mu.Unlock()
			return
		}
		vec = registered
		m.counters[name] = vec
	}
	m.mu.Unlock()

	if c, err := vec.GetMetricWithLabelValues(values...); err == nil {
		c.Add(float64(value))
	}
}

func (m *PrometheusMetrics) Gauge(name string, value float64, tags ...Tag) {
	keys, values := splitTags(tags)

	m.mu.Lock()
	vec, ok := m.gauges[name]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      sanitizeMetricName(name),
			Help:      helpFor(name),
		}, keys)
		registered, ok := m.register(vec).(*prometheus.GaugeVec)
		if !ok {
			m.mu.Unlock()
			return
		}
		vec = registered
		m.gauges[name] = vec
	}
	m.mu.Unlock()

	if g, err := vec.GetMetricWithLabelValues(values...); err == nil {
		g.Set(value)
	}
}

func (m *PrometheusMetrics) Histogram(name string, value float64, tags ...Tag) {
	keys, values := splitTags(tags)

	m.mu.Lock()
	vec, ok := m.histograms[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      sanitizeMetricName(name),
			Help:      helpFor(name),
			Buckets:   prometheus.DefBuckets,
		}, keys)
		registered, ok := m.register(vec).(*prometheus.HistogramVec)
		if !ok {
			m.mu.Unlock()
			return
		}
		vec = registered
		m.histograms[name] = vec
	}
	m.mu.Unlock()

	if h, err := vec.GetMetricWithLabelValues(values...); err == nil {
		h.Observe(value)
	}
}

// Timing records the duration in seconds as a histogram observation.
func (m *PrometheusMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	if duration < 0 {
		duration = 0
	}
	m.Histogram(name, duration.Seconds(), tags...)
}

// register adds c to the registry and returns the collector that ends up
// registered under its descriptor, or nil when registration failed.
func (m *PrometheusMetrics) register(c prometheus.Collector) prometheus.Collector {
	if err := m.registry.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return already.ExistingCollector
		}
		return nil
	}
	return c
}

// splitTags returns label names and values ordered by label name so that
// tag order at the call site does not matter.
func splitTags(tags []Tag) ([]string, []string) {
	sorted := make([]Tag, len(tags))
	copy(sorted, tags)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	keys := make([]string, len(sorted))
	values := make([]string, len(sorted))
	for i, t := range sorted {
		keys[i] = sanitizeMetricName(t.Key)
		values[i] = t.Value
	}
	return keys, values
}

func sanitizeMetricName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_", " ", "_").Replace(name)
}

func helpFor(name string) string {
	return "Preflight metric " + sanitizeMetricName(name) + "."
}
