package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/angelmondragon/supermarket-backend/pkg/config"
	"github.com/angelmondragon/supermarket-backend/pkg/db/models"
	"github.com/angelmondragon/supermarket-backend/pkg/enums"
	"github.com/angelmondragon/supermarket-backend/pkg/logger"
	"github.com/angelmondragon/supermarket-backend/pkg/metrics"
	"github.com/angelmondragon/supermarket-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize      = 50
	defaultPollInterval   = 500 * time.Millisecond
	defaultMaxAttempts    = 10
	defaultPublishTimeout = 15 * time.Second
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond

	publishJob = "outbox_publish"
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type dlqRepository interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type ServiceParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            dbClient
	PubSub        pubSubClient
	Repository    outboxRepository
	Registry      registryResolver
	DLQRepository dlqRepository
	Metrics       *metrics.JobMetrics
	// Publishers overrides how a topic is turned into a publisher.
	Publishers func(topic string) publisher
}

// Service relays committed purchase and customer events from outbox_events
// to Pub/Sub. Rows are claimed and settled in one transaction per batch.
type Service struct {
	logg       *logger.Logger
	db         dbClient
	repo       outboxRepository
	pubsub     pubSubClient
	registry   registryResolver
	dlq        dlqRepository
	metrics    *metrics.JobMetrics
	publishers func(topic string) publisher

	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
	timeout      time.Duration
}

func NewService(p ServiceParams) (*Service, error) {
	required := []struct {
		missing bool
		what    string
	}{
		{p.Config == nil, "config"},
		{p.Logger == nil, "logger"},
		{p.DB == nil, "database client"},
		{p.PubSub == nil, "pubsub client"},
		{p.Repository == nil, "outbox repository"},
		{p.Registry == nil, "event registry"},
		{p.DLQRepository == nil, "dlq repository"},
	}
	for _, r := range required {
		if r.missing {
			return nil, fmt.Errorf("%s is required", r.what)
		}
	}

	s := &Service{
		logg:         p.Logger,
		db:           p.DB,
		repo:         p.Repository,
		pubsub:       p.PubSub,
		registry:     p.Registry,
		dlq:          p.DLQRepository,
		metrics:      p.Metrics,
		publishers:   p.Publishers,
		batchSize:    defaultBatchSize,
		maxAttempts:  defaultMaxAttempts,
		pollInterval: defaultPollInterval,
		timeout:      defaultPublishTimeout,
	}
	if s.publishers == nil {
		s.publishers = func(topic string) publisher {
			if pub := p.PubSub.Publisher(topic); pub != nil {
				return gcpPublisher{pub}
			}
			return nil
		}
	}

	cfg := p.Config.Outbox
	if cfg.BatchSize > 0 {
		s.batchSize = cfg.BatchSize
	}
	if cfg.MaxAttempts > 0 {
		s.maxAttempts = cfg.MaxAttempts
	}
	if cfg.PollIntervalMS > 0 {
		s.pollInterval = time.Duration(cfg.PollIntervalMS) * time.Millisecond
	}
	return s, nil
}

// Run drains the outbox until ctx is canceled. An empty pass waits one poll
// interval; a failed pass backs off exponentially up to maxBackoff.
func (s *Service) Run(ctx context.Context) error {
	if err := s.checkDependencies(ctx); err != nil {
		return err
	}

	backoff := s.newBackoff()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		claimed, err := s.processBatch(ctx)
		var wait time.Duration
		switch {
		case err != nil:
			s.logg.Error(ctx, "outbox batch failed", err)
			wait, _ = backoff.Next()
		case claimed:
			backoff = s.newBackoff()
			continue
		default:
			backoff = s.newBackoff()
			wait, _ = retry.WithJitter(jitterWindow, retry.NewConstant(s.pollInterval)).Next()
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (s *Service) checkDependencies(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := s.pubsub.Ping(ctx); err != nil {
		return fmt.Errorf("pubsub ping failed: %w", err)
	}
	return nil
}

func (s *Service) newBackoff() retry.Backoff {
	b := retry.NewExponential(s.pollInterval)
	b = retry.WithCappedDuration(maxBackoff, b)
	return retry.WithJitter(jitterWindow, b)
}

// processBatch claims up to batchSize rows and settles each one. It reports
// whether anything was claimed. Only bookkeeping failures abort the batch.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	started := time.Now()
	claimed := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return fmt.Errorf("claim batch: %w", err)
		}
		claimed = len(events) > 0
		for _, event := range events {
			if err := s.record(ctx, tx, event, s.attempt(ctx, event)); err != nil {
				return err
			}
		}
		return nil
	})
	if claimed || err != nil {
		s.metrics.Observe(publishJob, time.Since(started), err)
	}
	return claimed, err
}

type outcome int

const (
	published outcome = iota
	retryLater
	deadLetter
)

type attemptResult struct {
	outcome outcome
	reason  enums.OutboxDLQErrorReason
	err     error
	topic   string
	eventID string
}

// attempt resolves and publishes one row and classifies the result.
func (s *Service) attempt(ctx context.Context, event models.OutboxEvent) attemptResult {
	resolved, err := s.registry.Resolve(event)
	if err != nil {
		return attemptResult{outcome: deadLetter, reason: enums.OutboxDLQReasonNonRetryable, err: err}
	}
	res := attemptResult{topic: resolved.Descriptor.Topic, eventID: resolved.Envelope.EventID}

	err = s.publish(ctx, event, resolved)
	var nonRetry registry.NonRetryableError
	switch {
	case err == nil:
		res.outcome = published
	case errors.As(err, &nonRetry):
		res.outcome, res.reason, res.err = deadLetter, enums.OutboxDLQReasonNonRetryable, err
	case event.AttemptCount+1 >= s.maxAttempts:
		res.outcome, res.reason = deadLetter, enums.OutboxDLQReasonMaxAttempts
		res.err = fmt.Errorf("giving up after %d attempts: %w", event.AttemptCount+1, err)
	default:
		res.outcome, res.err = retryLater, err
	}
	return res
}

func (s *Service) record(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, res attemptResult) error {
	logCtx := s.logg.WithFields(ctx, eventFields(event, res))
	switch res.outcome {
	case published:
		if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		s.logg.Info(logCtx, "outbox event published")
	case retryLater:
		s.logg.Warn(s.logg.WithField(logCtx, "error", res.err.Error()), "outbox publish failed, will retry")
		if err := s.repo.MarkFailedTx(tx, event.ID, res.err); err != nil {
			return fmt.Errorf("mark failed %s: %w", event.ID, err)
		}
	case deadLetter:
		s.logg.Warn(s.logg.WithField(logCtx, "error", res.err.Error()), "outbox event moved to dlq")
		msg := res.err.Error()
		if err := s.dlq.InsertTx(tx, models.OutboxDLQ{
			EventID:       event.ID,
			EventType:     event.EventType,
			AggregateType: event.AggregateType,
			AggregateID:   event.AggregateID,
			Payload:       event.Payload,
			ErrorReason:   res.reason,
			ErrorMessage:  &msg,
			AttemptCount:  event.AttemptCount,
			FailedAt:      time.Now().UTC(),
		}); err != nil {
			return fmt.Errorf("insert dlq %s: %w", event.ID, err)
		}
		if err := s.repo.MarkTerminalTx(tx, event.ID, res.err, s.maxAttempts); err != nil {
			return fmt.Errorf("mark terminal %s: %w", event.ID, err)
		}
	}
	return nil
}

func (s *Service) publish(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	pub := s.publishers(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("no publisher for topic %s", topic))
	}

	publishCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	result := pub.Publish(publishCtx, &gcppubsub.Message{
		Data:       event.Payload.Raw(),
		Attributes: messageAttributes(event, resolved),
	})
	if result == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher for topic %s returned no result", topic))
	}
	_, err := result.Get(publishCtx)
	return err
}

// messageAttributes lets subscribers filter without decoding the body.
func messageAttributes(event models.OutboxEvent, resolved *registry.ResolvedEvent) map[string]string {
	attrs := map[string]string{
		"event_id":       resolved.Envelope.EventID,
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID,
		"schema_version": strconv.Itoa(resolved.Envelope.Version),
	}
	if !resolved.Envelope.OccurredAt.IsZero() {
		attrs["occurred_at"] = resolved.Envelope.OccurredAt.UTC().Format(time.RFC3339Nano)
	}
	if actor := resolved.Envelope.Actor; actor != nil && actor.SupermarketID != "" {
		attrs["supermarket_id"] = actor.SupermarketID
	}
	return attrs
}

func eventFields(event models.OutboxEvent, res attemptResult) map[string]any {
	fields := map[string]any{
		"outbox_id":     event.ID.String(),
		"event_type":    event.EventType,
		"aggregate_id":  event.AggregateID,
		"attempt_count": event.AttemptCount,
	}
	if res.topic != "" {
		fields["topic"] = res.topic
	}
	if res.eventID != "" {
		fields["event_id"] = res.eventID
	}
	if res.reason != "" {
		fields["error_reason"] = res.reason
	}
	return fields
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return p.Publisher.Publish(ctx, msg)
}
