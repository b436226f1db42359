package domain

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists availability rules.
type Repository interface {
	SavePattern(ctx context.Context, p Pattern) error
	SaveOverride(ctx context.Context, o Override) error
	PatternsFor(ctx context.Context, userID uuid.UUID) ([]Pattern, error)
	// OverridesBetween returns overrides whose date is in [fromDate, toDate],
	// both formatted with DateLayout.
	OverridesBetween(ctx context.Context, userID uuid.UUID, fromDate, toDate string) ([]Override, error)
}
