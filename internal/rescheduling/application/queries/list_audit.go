package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/preflight/internal/rescheduling/domain"
	"github.com/google/uuid"
)

// AuditEntryDTO is a data transfer object for audit entries.
type AuditEntryDTO struct {
	ID         uuid.UUID
	Action     string
	Detail     string
	OccurredAt time.Time
}

// ListAuditQuery contains parameters for listing audit entries.
type ListAuditQuery struct {
	BookingID uuid.UUID
}

// ListAuditHandler handles the query.
type ListAuditHandler struct {
	auditRepo domain.AuditRepository
}

// NewListAuditHandler creates a new handler.
func NewListAuditHandler(auditRepo domain.AuditRepository) *ListAuditHandler {
	return &ListAuditHandler{auditRepo: auditRepo}
}

// Handle executes the ListAuditQuery.
func (h *ListAuditHandler) Handle(ctx context.Context, query ListAuditQuery) ([]AuditEntryDTO, error) {
	entries, err := h.auditRepo.FindByBooking(ctx, query.BookingID)
	if err != nil {
		return nil, err
	}

	dtos := make([]AuditEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = AuditEntryDTO{
			ID:         e.ID,
			Action:     string(e.Action),
			Detail:     e.Detail,
			OccurredAt: e.OccurredAt,
		}
	}
	return dtos, nil
}
