package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/preflight/internal/shared/domain"
	"github.com/google/uuid"
)

// EventConsumer handles the events whose routing keys match one of its
// patterns. Patterns use AMQP topic syntax: "*" matches one word and "#"
// matches zero or more.
type EventConsumer interface {
	EventTypes() []string
	Handle(ctx context.Context, event *ConsumedEvent) error
}

// ConsumedEvent is an event decoded from the bus.
type ConsumedEvent struct {
	EventID       uuid.UUID            `json:"event_id"`
	AggregateID   uuid.UUID            `json:"aggregate_id"`
	AggregateType string               `json:"aggregate_type"`
	RoutingKey    string               `json:"routing_key"`
	OccurredAt    time.Time            `json:"occurred_at"`
	Payload       json.RawMessage      `json:"payload"`
	Metadata      domain.EventMetadata `json:"metadata"`
}

// DecodePayload unmarshals the event body into v.
func (e *ConsumedEvent) DecodePayload(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("event %s has empty payload", e.EventID)
	}
	return json.Unmarshal(e.Payload, v)
}

// DecodeEvent parses a published body. The broker's routing key fills in
// for envelopes that omit their own.
func DecodeEvent(body []byte, routingKey string) (*ConsumedEvent, error) {
	event := &ConsumedEvent{}
	if err := json.Unmarshal(body, event); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if event.RoutingKey == "" {
		event.RoutingKey = routingKey
	}
	return event, nil
}

// Consumer receives events from a broker and dispatches them to the
// registered EventConsumers.
type Consumer interface {
	// Start blocks until ctx is cancelled or the consumer is closed.
	Start(ctx context.Context) error
	RegisterConsumer(consumer EventConsumer)
	Close() error
}
