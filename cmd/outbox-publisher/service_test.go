package main

import (
	"context"
	"errors"
	"io"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/feria-cr/feria-backend/pkg/config"
	"github.com/feria-cr/feria-backend/pkg/db/models"
	"github.com/feria-cr/feria-backend/pkg/enums"
	"github.com/feria-cr/feria-backend/pkg/logger"
)

func TestProcessBatchPublishesAndMarks(t *testing.T) {
	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateBuyerOrder,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"order_code":"FER-1001"}`),
	}
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{id: "msg-1"}}}
	service := newTestService(t, repo, pub, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if len(repo.published) != 1 || repo.published[0] != event.ID {
		t.Fatalf("published rows recorded wrong: %v", repo.published)
	}
	if len(repo.failed) != 0 {
		t.Fatalf("unexpected failed rows: %v", repo.failed)
	}
	if len(pub.messages) != 1 {
		t.Fatalf("expected one publish, got %d", len(pub.messages))
	}
	msg := pub.messages[0]
	if msg.Attributes["event_type"] != "order_placed" {
		t.Fatalf("unexpected event_type attribute: %q", msg.Attributes["event_type"])
	}
	if msg.OrderingKey != event.AggregateID.String() {
		t.Fatalf("ordering key should follow the aggregate, got %q", msg.OrderingKey)
	}
}

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	first := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventSubOrderStatusChanged,
		AggregateType: enums.AggregateVendorOrder,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{}`),
	}
	second := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventParentStatusChanged,
		AggregateType: enums.AggregateBuyerOrder,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{}`),
	}
	repo := &fakeRepo{events: []models.OutboxEvent{first, second}}
	pub := &fakePublisher{results: []publishResult{
		fakePublishResult{err: errors.New("transient")},
		fakePublishResult{id: "msg-2"},
	}}
	service := newTestService(t, repo, pub, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if len(repo.failed) != 1 || repo.failed[0] != first.ID {
		t.Fatalf("failed rows recorded wrong: %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != second.ID {
		t.Fatalf("published rows recorded wrong: %v", repo.published)
	}
}

func TestProcessBatchEmptyReportsIdle(t *testing.T) {
	repo := &fakeRepo{}
	service := newTestService(t, repo, &fakePublisher{}, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if processed {
		t.Fatalf("empty batch must not report processed")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	repo := &fakeRepo{}
	service := newTestService(t, repo, &fakePublisher{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := service.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewServiceAppliesDefaults(t *testing.T) {
	service := newTestService(t, &fakeRepo{}, &fakePublisher{}, &config.OutboxConfig{})

	if service.batchSize != defaultBatchSize {
		t.Fatalf("batch size default not applied: %d", service.batchSize)
	}
	if service.maxAttempts != defaultMaxAttempts {
		t.Fatalf("max attempts default not applied: %d", service.maxAttempts)
	}
}

func TestNextBackoffClampsToCeiling(t *testing.T) {
	current := maxBackoff
	if got := nextBackoff(current, 0, maxBackoff); got != maxBackoff {
		t.Fatalf("backoff exceeded ceiling: %v", got)
	}
}

func newTestService(t *testing.T, repo outboxRepository, pub publisher, outboxCfgOverride *config.OutboxConfig) *Service {
	t.Helper()
	outboxCfg := config.OutboxConfig{
		BatchSize:      2,
		PollIntervalMS: 100,
		MaxAttempts:    5,
	}
	if outboxCfgOverride != nil {
		outboxCfg = *outboxCfgOverride
	}
	cfg := &config.Config{Outbox: outboxCfg}
	logg := logger.New(logger.Options{
		ServiceName: "outbox-publisher-test",
		Output:      io.Discard,
	})
	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		Repository: repo,
		Publisher:  pub,
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service
}

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
}

func (f *fakeRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublished(id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakePublisher struct {
	results  []publishResult
	messages []*gcppubsub.Message
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	if len(f.results) == 0 {
		return nil
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result
}

type fakePublishResult struct {
	id  string
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	return f.id, f.err
}
