package outbox_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/felixgeelhaar/preflight/internal/shared/domain"
	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slotHeld struct {
	domain.BaseEvent
	Slot string `json:"slot"`
}

func newSlotHeld(slot string) *slotHeld {
	e := &slotHeld{
		BaseEvent: domain.NewBaseEventAt(uuid.New(), "Booking", "notification.options-available",
			time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)),
		Slot: slot,
	}
	e.SetMetadata(domain.EventMetadata{CorrelationID: "scan-42", CausationID: uuid.New()})
	return e
}

func TestNewMessage_WrapsEventInEnvelope(t *testing.T) {
	event := newSlotHeld("2026-05-02T10:00")

	msg, err := outbox.NewMessage(event)
	require.NoError(t, err)

	assert.Equal(t, event.EventID(), msg.EventID)
	assert.Equal(t, event.AggregateID(), msg.AggregateID)
	assert.Equal(t, "Booking", msg.AggregateType)
	assert.Equal(t, "notification.options-available", msg.RoutingKey)
	assert.Equal(t, event.OccurredAt(), msg.CreatedAt)
	assert.False(t, msg.IsPublished())

	var env outbox.Envelope
	require.NoError(t, json.Unmarshal(msg.Payload, &env))
	assert.Equal(t, event.EventID(), env.EventID)
	assert.Equal(t, "scan-42", env.Metadata.CorrelationID)
	assert.JSONEq(t, `{"slot":"2026-05-02T10:00"}`, string(env.Payload))

	var md domain.EventMetadata
	require.NoError(t, json.Unmarshal(msg.Metadata, &md))
	assert.Equal(t, event.Metadata().CausationID, md.CausationID)
}

func TestNewMessages(t *testing.T) {
	msgs, err := outbox.NewMessages([]domain.DomainEvent{newSlotHeld("a"), newSlotHeld("b")})
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
	assert.NotEqual(t, msgs[0].EventID, msgs[1].EventID)
}

func TestMessage_CanRetry(t *testing.T) {
	msg := &outbox.Message{RetryCount: 2}
	assert.True(t, msg.CanRetry(3))
	msg.RetryCount = 3
	assert.False(t, msg.CanRetry(3))
}
