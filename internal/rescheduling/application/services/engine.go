package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	availability "github.com/felixgeelhaar/preflight/internal/availability/domain"
	booking "github.com/felixgeelhaar/preflight/internal/booking/domain"
	"github.com/felixgeelhaar/preflight/internal/rescheduling/domain"
	weatherServices "github.com/felixgeelhaar/preflight/internal/weather/application/services"
	weather "github.com/felixgeelhaar/preflight/internal/weather/domain"
	"github.com/felixgeelhaar/preflight/pkg/observability"
	"github.com/google/uuid"
)

// RouteAssessor validates a route and returns the departure observation
// used for the verdict.
type RouteAssessor interface {
	Assess(ctx context.Context, route weather.Route, level weather.CertificationLevel) weatherServices.Assessment
}

// AvailabilitySource returns a participant's computed availability.
type AvailabilitySource interface {
	Intervals(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]availability.Interval, error)
}

// EngineConfig shapes the candidate grid.
type EngineConfig struct {
	HorizonDays  int
	SlotInterval time.Duration
	DayStartHour int
	DayEndHour   int
	TopN         int
	Location     *time.Location
}

// DefaultEngineConfig returns a 7-day grid of 2-hour slots between 08:00 and
// 18:00 UTC.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		HorizonDays:  7,
		SlotInterval: 2 * time.Hour,
		DayStartHour: 8,
		DayEndHour:   18,
		TopN:         domain.MaxOptions,
		Location:     time.UTC,
	}
}

func (c EngineConfig) withDefaults() EngineConfig {
	d := DefaultEngineConfig()
	if c.HorizonDays <= 0 {
		c.HorizonDays = d.HorizonDays
	}
	if c.SlotInterval <= 0 {
		c.SlotInterval = d.SlotInterval
	}
	if c.DayEndHour <= c.DayStartHour {
		c.DayStartHour, c.DayEndHour = d.DayStartHour, d.DayEndHour
	}
	if c.TopN <= 0 || c.TopN > domain.MaxOptions {
		c.TopN = d.TopN
	}
	if c.Location == nil {
		c.Location = d.Location
	}
	return c
}

// Engine produces ranked replacement options for a booking in four stages:
// candidate generation, weather filter, availability filter and ranking.
type Engine struct {
	assessor     RouteAssessor
	availability AvailabilitySource
	config       EngineConfig
	logger       *slog.Logger
}

// NewEngine creates an engine. Zero config fields take their defaults.
func NewEngine(assessor RouteAssessor, availability AvailabilitySource, config EngineConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		assessor:     assessor,
		availability: availability,
		config:       config.withDefaults(),
		logger:       logger,
	}
}

func (e *Engine) Config() EngineConfig {
	return e.config
}

// GenerateCandidates enumerates grid slots from today through today plus
// the horizon. A slot must end by the close of day, start strictly after
// now and differ from the original start.
func GenerateCandidates(original, now time.Time, cfg EngineConfig) []domain.CandidateSlot {
	cfg = cfg.withDefaults()
	local := now.In(cfg.Location)
	closeOfDay := time.Duration(cfg.DayEndHour) * time.Hour

	var out []domain.CandidateSlot
	for day := 0; day <= cfg.HorizonDays; day++ {
		midnight := time.Date(local.Year(), local.Month(), local.Day()+day, 0, 0, 0, 0, cfg.Location)
		for offset := time.Duration(cfg.DayStartHour) * time.Hour; offset+cfg.SlotInterval <= closeOfDay; offset += cfg.SlotInterval {
			hour := int(offset / time.Hour)
			minute := int((offset % time.Hour) / time.Minute)
			start := time.Date(midnight.Year(), midnight.Month(), midnight.Day(), hour, minute, 0, 0, cfg.Location)
			if !start.After(now) || start.Equal(original) {
				continue
			}
			out = append(out, domain.CandidateSlot{
				Start:          start,
				ProximityScore: domain.ProximityScore(original, start),
			})
		}
	}
	return out
}

// assessedSlot is a candidate that passed the weather filter.
type assessedSlot struct {
	slot        domain.CandidateSlot
	observation *weather.Observation
	confidence  int
}

// Generate runs the pipeline for b and returns at most TopN ranked options.
// It returns domain.ErrNoCandidateSlot rather than an empty result.
func (e *Engine) Generate(ctx context.Context, b *booking.Booking, now time.Time) ([]*domain.RescheduleOption, error) {
	logger := e.logger.With(observability.BookingIDKey, b.ID())

	candidates := GenerateCandidates(b.ScheduledAt(), now, e.config)
	if len(candidates) == 0 {
		return nil, domain.ErrNoCandidateSlot
	}

	weatherOK, err := e.filterByWeather(ctx, b, candidates)
	if err != nil {
		return nil, err
	}

	available, err := e.filterByAvailability(ctx, b, weatherOK)
	if err != nil {
		return nil, err
	}

	options := make([]*domain.RescheduleOption, 0, len(available))
	for _, a := range available {
		opt, err := domain.NewRescheduleOption(b.ID(), a.slot, b.Duration(), a.observation, a.confidence, true, true)
		if err != nil {
			return nil, err
		}
		options = append(options, opt)
	}

	ranked := Rank(options, e.config.TopN)
	logger.DebugContext(ctx, "reschedule pipeline finished",
		"candidates", len(candidates),
		"weather_ok", len(weatherOK),
		"available", len(available),
		"ranked", len(ranked),
	)
	if len(ranked) == 0 {
		return nil, domain.ErrNoCandidateSlot
	}
	return ranked, nil
}

// filterByWeather assesses the booking's route once for the whole run and
// applies the verdict, departure observation and confidence to every
// candidate, keeping candidate order.
func (e *Engine) filterByWeather(ctx context.Context, b *booking.Booking, candidates []domain.CandidateSlot) ([]assessedSlot, error) {
	assessment := e.assessor.Assess(ctx, b.Route(), b.Level())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !assessment.Verdict.Valid {
		return nil, nil
	}

	out := make([]assessedSlot, len(candidates))
	for i, c := range candidates {
		out[i] = assessedSlot{
			slot:        c,
			observation: assessment.Departure,
			confidence:  assessment.Verdict.Confidence,
		}
	}
	return out, nil
}

// filterByAvailability keeps candidates both participants can fly.
func (e *Engine) filterByAvailability(ctx context.Context, b *booking.Booking, slots []assessedSlot) ([]assessedSlot, error) {
	if len(slots) == 0 {
		return nil, nil
	}
	from := slots[0].slot.Start
	to := slots[len(slots)-1].slot.Start.Add(b.Duration())

	schedules := make(map[uuid.UUID][]availability.Interval, 2)
	for _, userID := range b.Participants() {
		intervals, err := e.availability.Intervals(ctx, userID, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to load availability for %s: %w", userID, err)
		}
		schedules[userID] = intervals
	}

	var out []assessedSlot
	for _, s := range slots {
		end := s.slot.Start.Add(b.Duration())
		ok := true
		for _, userID := range b.Participants() {
			if !availability.Covers(schedules[userID], s.slot.Start, end) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// Rank orders options by score, highest first, breaking ties by the earlier
// start, and numbers the first topN from 1.
func Rank(options []*domain.RescheduleOption, topN int) []*domain.RescheduleOption {
	sorted := make([]*domain.RescheduleOption, len(options))
	copy(sorted, options)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Start.Before(sorted[j].Start)
	})

	if topN > 0 && len(sorted) > topN {
		sorted = sorted[:topN]
	}
	for i, opt := range sorted {
		opt.Rank = i + 1
	}
	return sorted
}
