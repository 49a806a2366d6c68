// Package outbox stores domain events in the same transaction as the rows
// they describe so a separate publisher can relay them to Pub/Sub.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/supermarket-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/supermarket-backend/pkg/db/types"
	"github.com/angelmondragon/supermarket-backend/pkg/enums"
	"github.com/angelmondragon/supermarket-backend/pkg/logger"
)

var aggregateOf = map[enums.OutboxEventType]enums.OutboxAggregateType{
	enums.EventPurchaseCreated: enums.AggregatePurchase,
	enums.EventCustomerCreated: enums.AggregateCustomer,
}

// DomainEvent is what callers hand to Emit. AggregateType may be left blank;
// it is derived from EventType.
type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   string
	Actor         *ActorRef
	Data          any
	OccurredAt    time.Time
}

func (e *DomainEvent) normalize() error {
	want, ok := aggregateOf[e.EventType]
	if !ok {
		return fmt.Errorf("unknown outbox event type %q", e.EventType)
	}
	switch e.AggregateType {
	case "":
		e.AggregateType = want
	case want:
	default:
		return fmt.Errorf("event %s belongs to %s aggregates, got %s", e.EventType, want, e.AggregateType)
	}
	if strings.TrimSpace(e.AggregateID) == "" {
		return errors.New("aggregate id required")
	}
	if e.Data == nil {
		return fmt.Errorf("event %s has no data", e.EventType)
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	e.OccurredAt = e.OccurredAt.UTC()
	return nil
}

// Emitter writes domain events inside the caller's transaction.
type Emitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error
}

type Service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

// Emit appends event to outbox_events using tx. The row id doubles as the
// envelope event id, so consumers can dedupe on either.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if err := event.normalize(); err != nil {
		return err
	}
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("encode %s data: %w", event.EventType, err)
	}

	id := uuid.New()
	payload, err := json.Marshal(PayloadEnvelope{
		Version:    CurrentVersion,
		EventID:    id.String(),
		EventType:  event.EventType,
		OccurredAt: event.OccurredAt,
		Actor:      event.Actor,
		Data:       data,
	})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	if err := s.repo.Insert(tx, models.OutboxEvent{
		ID:            id,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       dbtypes.JSONText(payload),
	}); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	if s.logg != nil {
		if ctx == nil {
			ctx = context.Background()
		}
		s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
			"event_id":     id.String(),
			"event_type":   event.EventType,
			"aggregate_id": event.AggregateID,
		}), "outbox event queued")
	}
	return nil
}
