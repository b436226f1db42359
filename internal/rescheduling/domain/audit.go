package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction names a step of the reschedule workflow.
type AuditAction string

const (
	AuditOptionsGenerated    AuditAction = "options_generated"
	AuditNoCandidateSlot     AuditAction = "no_candidate_slot"
	AuditPreferenceSubmitted AuditAction = "preference_submitted"
	AuditSelectionConfirmed  AuditAction = "selection_confirmed"
	AuditEscalated           AuditAction = "reschedule_escalated"
)

// AuditEntry is an append-only record of a reschedule decision.
type AuditEntry struct {
	ID         uuid.UUID
	BookingID  uuid.UUID
	Action     AuditAction
	Detail     string
	OccurredAt time.Time
}

func NewAuditEntry(bookingID uuid.UUID, action AuditAction, detail string, at time.Time) *AuditEntry {
	return &AuditEntry{
		ID:         uuid.New(),
		BookingID:  bookingID,
		Action:     action,
		Detail:     detail,
		OccurredAt: at.UTC(),
	}
}
