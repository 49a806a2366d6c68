package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/supermarket-backend/pkg/db/models"
	"github.com/angelmondragon/supermarket-backend/pkg/enums"
	"github.com/angelmondragon/supermarket-backend/pkg/logger"
	"github.com/angelmondragon/supermarket-backend/pkg/outbox/payloads"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.OutboxEvent{}, &models.OutboxDLQ{}))
	return conn
}

func TestEmitWritesEnvelope(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, logger.Nop())

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventPurchaseCreated,
			AggregateType: enums.AggregatePurchase,
			AggregateID:   "p-1",
			Actor:         &ActorRef{SupermarketID: "sm-1"},
			Data:          payloads.PurchaseCreatedEvent{PurchaseID: "p-1", Items: []string{"milk"}},
		})
	})
	require.NoError(t, err)

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventPurchaseCreated, rows[0].EventType)
	assert.Equal(t, "p-1", rows[0].AggregateID)

	var env PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload.Raw(), &env))
	assert.Equal(t, CurrentVersion, env.Version)
	assert.Equal(t, rows[0].ID.String(), env.EventID)
	assert.Equal(t, enums.EventPurchaseCreated, env.EventType)
	assert.Equal(t, time.UTC, env.OccurredAt.Location())
	require.NotNil(t, env.Actor)
	assert.Equal(t, "sm-1", env.Actor.SupermarketID)

	var data payloads.PurchaseCreatedEvent
	require.NoError(t, env.Unmarshal(&data))
	assert.Equal(t, []string{"milk"}, data.Items)
}

func TestEmitDerivesAggregateType(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)

	require.NoError(t, svc.Emit(context.Background(), db, DomainEvent{
		EventType:   enums.EventCustomerCreated,
		AggregateID: "c-1",
		Data:        payloads.CustomerCreatedEvent{CustomerID: "c-1"},
	}))

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.AggregateCustomer, rows[0].AggregateType)
}

func TestEmitRejectsBadInput(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(NewRepository(db), nil)

	assert.Error(t, svc.Emit(context.Background(), nil, DomainEvent{EventType: enums.EventPurchaseCreated, AggregateID: "x"}))
	assert.Error(t, svc.Emit(context.Background(), db, DomainEvent{EventType: "bogus", AggregateID: "x"}))
	assert.Error(t, svc.Emit(context.Background(), db, DomainEvent{EventType: enums.EventPurchaseCreated, Data: struct{}{}}))
	assert.Error(t, svc.Emit(context.Background(), db, DomainEvent{EventType: enums.EventPurchaseCreated, AggregateID: "x"}))
	assert.ErrorContains(t, svc.Emit(context.Background(), db, DomainEvent{
		EventType:     enums.EventPurchaseCreated,
		AggregateType: enums.AggregateCustomer,
		AggregateID:   "x",
		Data:          struct{}{},
	}), "belongs to purchase aggregates")
}

func TestDecodeEnvelope(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"version":1,"event_id":"e1","event_type":"purchase_created","data":{"purchase_id":"7"}}`))
	require.NoError(t, err)
	assert.Equal(t, "e1", env.EventID)
	var data payloads.PurchaseCreatedEvent
	require.NoError(t, env.Unmarshal(&data))
	assert.Equal(t, "7", data.PurchaseID)

	cases := map[string]string{
		"not json":       `{`,
		"future version": `{"version":2,"data":{}}`,
		"no version":     `{"data":{}}`,
		"null data":      `{"version":1,"data":null}`,
		"missing data":   `{"version":1}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeEnvelope([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestEmitRollsBackWithCallerTransaction(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventCustomerCreated,
			AggregateType: enums.AggregateCustomer,
			AggregateID:   "c-1",
			Data:          payloads.CustomerCreatedEvent{CustomerID: "c-1"},
		}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	first := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventPurchaseCreated, AggregateType: enums.AggregatePurchase, AggregateID: "p-1", Payload: []byte(`{}`)}
	second := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventPurchaseCreated, AggregateType: enums.AggregatePurchase, AggregateID: "p-2", Payload: []byte(`{}`)}
	require.NoError(t, repo.Insert(db, first))
	require.NoError(t, repo.Insert(db, second))

	require.NoError(t, repo.MarkPublishedTx(db, first.ID))
	require.NoError(t, repo.MarkFailedTx(db, second.ID, errors.New("transient")))

	pending, err := repo.FetchUnpublishedForPublish(db, 10, 3)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)
	assert.Equal(t, 1, pending[0].AttemptCount)
	require.NotNil(t, pending[0].LastError)
	assert.Equal(t, "transient", *pending[0].LastError)

	require.NoError(t, repo.MarkTerminalTx(db, second.ID, errors.New("gave up"), 3))
	pending, err = repo.FetchUnpublishedForPublish(db, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDLQRepositoryInsertAndFind(t *testing.T) {
	db := newTestDB(t)
	dlq := NewDLQRepository(db)
	eventID := uuid.New()
	long := make([]byte, maxLastErrorLen+50)
	for i := range long {
		long[i] = 'x'
	}
	msg := string(long)

	require.NoError(t, dlq.InsertTx(db, models.OutboxDLQ{
		EventID:       eventID,
		EventType:     enums.EventPurchaseCreated,
		AggregateType: enums.AggregatePurchase,
		AggregateID:   "p-1",
		Payload:       []byte(`{}`),
		ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
		ErrorMessage:  &msg,
	}))

	found, err := dlq.FindByEventID(context.Background(), eventID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Len(t, *found.ErrorMessage, maxLastErrorLen)
	assert.False(t, found.FailedAt.IsZero())

	missing, err := dlq.FindByEventID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = dlq.InsertTx(db, models.OutboxDLQ{EventID: uuid.New(), ErrorReason: "gave_up"})
	assert.ErrorContains(t, err, "invalid dlq error reason")
}

func TestRepositoryDeletePublishedBefore(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	now := time.Now().UTC()
	rows := map[string]*time.Time{
		"old":     ptrTime(now.Add(-40 * 24 * time.Hour)),
		"recent":  ptrTime(now.Add(-2 * 24 * time.Hour)),
		"pending": nil,
	}
	for id, publishedAt := range rows {
		event := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventPurchaseCreated, AggregateType: enums.AggregatePurchase, AggregateID: id, Payload: []byte(`{}`)}
		require.NoError(t, repo.Insert(db, event))
		if publishedAt != nil {
			require.NoError(t, db.Model(&models.OutboxEvent{}).Where("id = ?", event.ID).Update("published_at", *publishedAt).Error)
		}
	}

	deleted, err := repo.DeletePublishedBefore(context.Background(), db, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []string
	require.NoError(t, db.Model(&models.OutboxEvent{}).Order("aggregate_id").Pluck("aggregate_id", &remaining).Error)
	assert.Equal(t, []string{"pending", "recent"}, remaining)

	_, err = repo.DeletePublishedBefore(context.Background(), nil, now)
	assert.Error(t, err)
}

func TestDLQRepositoryDeleteFailedBefore(t *testing.T) {
	db := newTestDB(t)
	dlq := NewDLQRepository(db)
	now := time.Now().UTC()
	for _, failedAt := range []time.Time{now.Add(-100 * 24 * time.Hour), now.Add(-time.Hour)} {
		require.NoError(t, dlq.InsertTx(db, models.OutboxDLQ{
			EventID:       uuid.New(),
			EventType:     enums.EventPurchaseCreated,
			AggregateType: enums.AggregatePurchase,
			AggregateID:   "p-1",
			Payload:       []byte(`{}`),
			ErrorReason:   enums.OutboxDLQReasonNonRetryable,
			FailedAt:      failedAt,
		}))
	}

	deleted, err := dlq.DeleteFailedBefore(context.Background(), db, now.Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var count int64
	require.NoError(t, db.Model(&models.OutboxDLQ{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func ptrTime(t time.Time) *time.Time { return &t }
