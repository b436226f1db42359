package commands

import (
	"context"

	sharedApplication "github.com/felixgeelhaar/preflight/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/preflight/internal/shared/domain"
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// saveEvents stamps events with the actor and writes them to the outbox in
// the transaction carried by ctx.
func saveEvents(ctx context.Context, repo outbox.Repository, events []sharedDomain.DomainEvent, actorID uuid.UUID) error {
	if len(events) == 0 {
		return nil
	}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(ctx, actorID))
	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	return repo.SaveBatch(ctx, msgs)
}
