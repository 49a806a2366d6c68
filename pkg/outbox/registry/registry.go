// Package registry maps outbox event types to their Pub/Sub topic and
// payload schema.
package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/supermarket-backend/pkg/config"
	"github.com/angelmondragon/supermarket-backend/pkg/db/models"
	"github.com/angelmondragon/supermarket-backend/pkg/enums"
	"github.com/angelmondragon/supermarket-backend/pkg/outbox"
	"github.com/angelmondragon/supermarket-backend/pkg/outbox/payloads"
)

type EventDescriptor struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
	NewPayload    func() any
}

// ResolvedEvent is an outbox row whose envelope and payload decoded cleanly.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError marks a row that will fail the same way on every attempt.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func nonRetryable(format string, args ...any) error {
	return NonRetryableError{Err: fmt.Errorf(format, args...)}
}

// NewEventRegistry wires every known event type to its topic. Customer events
// share the purchases topic unless a dedicated one is configured.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	purchases := strings.TrimSpace(cfg.PurchasesTopic)
	if purchases == "" {
		return nil, errors.New("purchases topic is required")
	}
	customers := strings.TrimSpace(cfg.CustomersTopic)
	if customers == "" {
		customers = purchases
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	for _, desc := range []EventDescriptor{
		{
			EventType:     enums.EventPurchaseCreated,
			AggregateType: enums.AggregatePurchase,
			Topic:         purchases,
			NewPayload:    func() any { return &payloads.PurchaseCreatedEvent{} },
		},
		{
			EventType:     enums.EventCustomerCreated,
			AggregateType: enums.AggregateCustomer,
			Topic:         customers,
			NewPayload:    func() any { return &payloads.CustomerCreatedEvent{} },
		},
	} {
		reg.entries[desc.EventType] = desc
	}
	return reg, nil
}

// Topics lists the distinct topics events can be published to.
func (r *EventRegistry) Topics() []string {
	seen := make(map[string]struct{}, len(r.entries))
	var topics []string
	for _, t := range []enums.OutboxEventType{enums.EventPurchaseCreated, enums.EventCustomerCreated} {
		desc, ok := r.entries[t]
		if !ok {
			continue
		}
		if _, dup := seen[desc.Topic]; dup {
			continue
		}
		seen[desc.Topic] = struct{}{}
		topics = append(topics, desc.Topic)
	}
	return topics
}

// Resolve checks the row against its descriptor and decodes the payload.
// Every error it returns is a NonRetryableError.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, nonRetryable("unsupported event type %s", event.EventType)
	}
	if desc.AggregateType != event.AggregateType {
		return nil, nonRetryable("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType)
	}
	if strings.TrimSpace(event.AggregateID) == "" {
		return nil, nonRetryable("missing aggregate_id")
	}

	envelope, err := outbox.DecodeEnvelope(event.Payload.Raw())
	if err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("%s: %w", event.EventType, err))
	}
	if envelope.EventType != "" && envelope.EventType != event.EventType {
		return nil, nonRetryable("envelope says %s, row says %s", envelope.EventType, event.EventType)
	}

	payload := desc.NewPayload()
	if err := envelope.Unmarshal(payload); err != nil {
		return nil, NewNonRetryableError(err)
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}
