package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reyes-labs/storefront-backend/pkg/config"
	"github.com/reyes-labs/storefront-backend/pkg/db/models"
	"github.com/reyes-labs/storefront-backend/pkg/enums"
	"github.com/reyes-labs/storefront-backend/pkg/logger"
	"github.com/reyes-labs/storefront-backend/pkg/outbox"
)

type fakeRepo struct {
	events     []models.OutboxEvent
	published  []uuid.UUID
	failed     []uuid.UUID
	terminal   []uuid.UUID
	drained    bool
	fetchCalls int
}

func (r *fakeRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	r.fetchCalls++
	if r.drained {
		return nil, nil
	}
	r.drained = true
	return r.events, nil
}

func (r *fakeRepo) MarkPublished(id uuid.UUID) error {
	r.published = append(r.published, id)
	return nil
}

func (r *fakeRepo) MarkFailed(id uuid.UUID, err error) error {
	r.failed = append(r.failed, id)
	return nil
}

func (r *fakeRepo) MarkTerminal(event models.OutboxEvent, err error) error {
	r.terminal = append(r.terminal, event.ID)
	return nil
}

type alwaysUpDB struct{}

func (alwaysUpDB) Ping(context.Context) error { return nil }

func envelopePayload(t *testing.T, eventID string) []byte {
	t.Helper()
	raw, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID,
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(`{"quantity":2}`),
	})
	require.NoError(t, err)
	return raw
}

func outboxEvent(t *testing.T, eventID string) models.OutboxEvent {
	t.Helper()
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventCartItemAdded,
		AggregateType: enums.AggregateCart,
		AggregateID:   uuid.New(),
		Payload:       envelopePayload(t, eventID),
	}
}

func newTestService(t *testing.T, repo *fakeRepo, baseURL string) *Service {
	t.Helper()
	cfg := &config.Config{}
	cfg.Sync.BaseURL = baseURL
	cfg.Sync.RequestTimeout = 2 * time.Second
	cfg.Outbox.BatchSize = 10
	cfg.Outbox.MaxAttempts = 3
	cfg.Outbox.PollInterval = 10 * time.Millisecond

	svc, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:         alwaysUpDB{},
		Repository: repo,
	})
	require.NoError(t, err)
	return svc
}

func TestProcessBatchDeliversWithIdempotencyKey(t *testing.T) {
	eventID := uuid.NewString()
	var gotKey string
	var gotBody delivery
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	repo := &fakeRepo{events: []models.OutboxEvent{outboxEvent(t, eventID)}}
	svc := newTestService(t, repo, server.URL)

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, eventID, gotKey)
	assert.Equal(t, string(enums.EventCartItemAdded), gotBody.EventType)
	require.Len(t, repo.published, 1)
	assert.Equal(t, repo.events[0].ID, repo.published[0])
	assert.Empty(t, repo.failed)
	assert.Empty(t, repo.terminal)
}

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	repo := &fakeRepo{events: []models.OutboxEvent{
		outboxEvent(t, uuid.NewString()),
		outboxEvent(t, uuid.NewString()),
	}}
	svc := newTestService(t, repo, server.URL)

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	require.Len(t, repo.failed, 1)
	assert.Equal(t, repo.events[0].ID, repo.failed[0])
	require.Len(t, repo.published, 1)
	assert.Equal(t, repo.events[1].ID, repo.published[0])
}

func TestDispatchRejectedDeliveryGoesTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad event"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	repo := &fakeRepo{events: []models.OutboxEvent{outboxEvent(t, uuid.NewString())}}
	svc := newTestService(t, repo, server.URL)

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	require.Len(t, repo.terminal, 1)
	assert.Equal(t, repo.events[0].ID, repo.terminal[0])
	assert.Empty(t, repo.failed)
	assert.Empty(t, repo.published)
}

func TestDispatchExhaustedAttemptsGoTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	event := outboxEvent(t, uuid.NewString())
	event.AttemptCount = 2 // one shy of the configured max of 3
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	svc := newTestService(t, repo, server.URL)

	_, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, repo.terminal, 1)
	assert.Empty(t, repo.failed)
}

func TestDispatchMalformedEnvelopeGoesTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("delivery should not be attempted for a malformed envelope")
	}))
	defer server.Close()

	event := outboxEvent(t, uuid.NewString())
	event.Payload = json.RawMessage(`{"version":1}`)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	svc := newTestService(t, repo, server.URL)

	_, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, repo.terminal, 1)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(t, repo, "http://127.0.0.1:1")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := svc.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, repo.fetchCalls, 1)
}
