package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/preflight/internal/availability/domain"
	"github.com/google/uuid"
)

// Service answers availability questions for students and instructors.
type Service struct {
	repo   domain.Repository
	loc    *time.Location
	logger *slog.Logger
}

// NewService creates a service that evaluates weekly patterns in loc.
func NewService(repo domain.Repository, loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, loc: loc, logger: logger}
}

// Intervals returns the user's resolved intervals overlapping [from, to).
func (s *Service) Intervals(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.Interval, error) {
	patterns, err := s.repo.PatternsFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load availability patterns: %w", err)
	}

	// Overrides are keyed by local date; widen by a day on each side so
	// windows crossing midnight in loc are covered.
	fromDate := from.In(s.loc).AddDate(0, 0, -1).Format(domain.DateLayout)
	toDate := to.In(s.loc).AddDate(0, 0, 1).Format(domain.DateLayout)
	overrides, err := s.repo.OverridesBetween(ctx, userID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("load availability overrides: %w", err)
	}

	return domain.ComputeIntervals(patterns, overrides, from, to, s.loc), nil
}

// IsAvailable reports whether the user is free for all of [start, end).
func (s *Service) IsAvailable(ctx context.Context, userID uuid.UUID, start, end time.Time) (bool, error) {
	intervals, err := s.Intervals(ctx, userID, start, end)
	if err != nil {
		return false, err
	}
	ok := domain.Covers(intervals, start, end)
	s.logger.DebugContext(ctx, "availability checked",
		"user_id", userID,
		"from", start,
		"to", end,
		"available", ok,
	)
	return ok, nil
}

// AddPattern stores a weekly window.
func (s *Service) AddPattern(ctx context.Context, userID uuid.UUID, day time.Weekday, startMinute, endMinute int, available bool) (domain.Pattern, error) {
	p, err := domain.NewPattern(userID, day, startMinute, endMinute, available)
	if err != nil {
		return domain.Pattern{}, err
	}
	if err := s.repo.SavePattern(ctx, p); err != nil {
		return domain.Pattern{}, err
	}
	return p, nil
}

// AddOverride stores a date-specific window.
func (s *Service) AddOverride(ctx context.Context, userID uuid.UUID, date string, startMinute, endMinute int, available bool, reason string) (domain.Override, error) {
	o, err := domain.NewOverride(userID, date, startMinute, endMinute, available, reason)
	if err != nil {
		return domain.Override{}, err
	}
	if err := s.repo.SaveOverride(ctx, o); err != nil {
		return domain.Override{}, err
	}
	return o, nil
}

// Location is the timezone patterns are evaluated in.
func (s *Service) Location() *time.Location {
	return s.loc
}
