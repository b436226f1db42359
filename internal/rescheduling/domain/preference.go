package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Role is the part a participant plays in a booking.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
)

// ParseRole validates a stored role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent, RoleInstructor:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// PreferenceRanking holds one participant's ordered choice among the
// options of a booking. An empty row is created for each participant when
// options are generated; SubmittedAt is set once they answer.
type PreferenceRanking struct {
	BookingID   uuid.UUID
	UserID      uuid.UUID
	Role        Role
	Option1     *uuid.UUID
	Option2     *uuid.UUID
	Option3     *uuid.UUID
	Unavailable []uuid.UUID
	Deadline    time.Time
	SubmittedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewEmptyRanking creates the placeholder row for a participant.
func NewEmptyRanking(bookingID, userID uuid.UUID, role Role, deadline, now time.Time) *PreferenceRanking {
	return &PreferenceRanking{
		BookingID: bookingID,
		UserID:    userID,
		Role:      role,
		Deadline:  deadline.UTC(),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// Submit overwrites the ranking. ranked is ordered best first and every
// ranked or unavailable option must be one of offered.
func (p *PreferenceRanking) Submit(ranked, unavailable, offered []uuid.UUID, now time.Time) error {
	if DeadlinePassed(p.Deadline, now) {
		return ErrDeadlinePassed
	}
	if len(ranked) > MaxOptions {
		return ErrTooManyOptions
	}

	seen := make(map[uuid.UUID]struct{}, len(ranked))
	for _, id := range ranked {
		if !slices.Contains(offered, id) {
			return fmt.Errorf("%w: %s", ErrUnknownOption, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateOption, id)
		}
		seen[id] = struct{}{}
	}

	var marked []uuid.UUID
	for _, id := range unavailable {
		if !slices.Contains(offered, id) {
			return fmt.Errorf("%w: %s", ErrUnknownOption, id)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: %s", ErrRankedUnavailable, id)
		}
		if !slices.Contains(marked, id) {
			marked = append(marked, id)
		}
	}

	slots := [MaxOptions]*uuid.UUID{}
	for i, id := range ranked {
		slots[i] = &id
	}
	p.Option1, p.Option2, p.Option3 = slots[0], slots[1], slots[2]
	p.Unavailable = marked

	at := now.UTC()
	p.SubmittedAt = &at
	p.UpdatedAt = at
	return nil
}

// Ranked returns the ranked options in order, skipping empty positions.
func (p *PreferenceRanking) Ranked() []uuid.UUID {
	var out []uuid.UUID
	for _, id := range []*uuid.UUID{p.Option1, p.Option2, p.Option3} {
		if id != nil {
			out = append(out, *id)
		}
	}
	return out
}

func (p *PreferenceRanking) IsSubmitted() bool {
	return p.SubmittedAt != nil
}
