package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/reyes-labs/storefront-backend/pkg/config"
	"github.com/reyes-labs/storefront-backend/pkg/db/models"
	"github.com/reyes-labs/storefront-backend/pkg/logger"
	"github.com/reyes-labs/storefront-backend/pkg/metrics"
	"github.com/reyes-labs/storefront-backend/pkg/outbox"
)

const (
	defaultBatchSize   = 50
	defaultPollPeriod  = 500 * time.Millisecond
	defaultMaxAttempts = 10
	maxBackoff         = 10 * time.Second
	jitterWindow       = 250 * time.Millisecond
	idempotencyHeader  = "X-Idempotency-Key"
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type pinger interface {
	Ping(context.Context) error
}

type outboxRepository interface {
	FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(id uuid.UUID) error
	MarkFailed(id uuid.UUID, err error) error
	MarkTerminal(event models.OutboxEvent, err error) error
}

type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// nonRetryableError marks a delivery the sync API will never accept, so
// retrying is pointless and the event goes straight to the DLQ.
type nonRetryableError struct {
	err error
}

func (e nonRetryableError) Error() string { return e.err.Error() }
func (e nonRetryableError) Unwrap() error { return e.err }

// delivery is the wire shape posted to the sync API's /sync/events endpoint.
type delivery struct {
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         pinger
	Repository outboxRepository
	HTTPClient httpDoer
	Metrics    *metrics.DispatcherMetrics
}

type Service struct {
	cfg          *config.Config
	logg         *logger.Logger
	db           pinger
	repo         outboxRepository
	client       httpDoer
	metrics      *metrics.DispatcherMetrics
	endpoint     string
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}

	client := params.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: params.Config.Sync.RequestTimeout}
	}

	batch := params.Config.Outbox.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	interval := params.Config.Outbox.PollInterval
	if interval <= 0 {
		interval = defaultPollPeriod
	}
	maxAttempts := params.Config.Outbox.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Service{
		cfg:          params.Config,
		logg:         params.Logger,
		db:           params.DB,
		repo:         params.Repository,
		client:       client,
		metrics:      params.Metrics,
		endpoint:     params.Config.Sync.BaseURL + "/sync/events",
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: interval,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		s.logg.Error(ctx, "database ping failed", err)
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	interval := s.pollInterval
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "outbox dispatcher context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.processBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "outbox dispatcher batch error", err)
			backoff = nextBackoff(backoff, interval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval

		if processed {
			continue
		}

		if err := s.sleep(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

// processBatch drains one batch of unpublished events. Bookkeeping failures
// are accumulated so one bad row does not stall the rest of the batch.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	events, err := s.repo.FetchUnpublished(s.batchSize, s.maxAttempts)
	if err != nil {
		return false, fmt.Errorf("fetch unpublished: %w", err)
	}
	if len(events) == 0 {
		return false, nil
	}

	var errs error
	for _, event := range events {
		if err := s.dispatchEvent(ctx, event); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return true, errs
}

func (s *Service) dispatchEvent(ctx context.Context, event models.OutboxEvent) error {
	fields := s.eventFields(event)

	started := time.Now()
	err := s.deliver(ctx, event)
	s.metrics.ObserveDuration(string(event.EventType), time.Since(started))

	if err == nil {
		if markErr := s.repo.MarkPublished(event.ID); markErr != nil {
			return fmt.Errorf("mark published %s: %w", event.ID, markErr)
		}
		s.metrics.IncDelivered(string(event.EventType))
		s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event delivered")
		return nil
	}

	var nonRetry nonRetryableError
	terminal := errors.As(err, &nonRetry)
	if !terminal && event.AttemptCount+1 >= s.maxAttempts {
		terminal = true
		err = fmt.Errorf("max delivery attempts reached: %w", err)
	}

	ctxWithFields := s.logg.WithField(s.logg.WithFields(ctx, fields), "error", err.Error())
	if terminal {
		s.logg.Warn(ctxWithFields, "outbox event will not be retried")
		if markErr := s.repo.MarkTerminal(event, err); markErr != nil {
			return fmt.Errorf("mark terminal %s: %w", event.ID, markErr)
		}
		s.metrics.IncDeadLettered(string(event.EventType))
		return nil
	}

	s.logg.Warn(ctxWithFields, "outbox delivery failed")
	if markErr := s.repo.MarkFailed(event.ID, err); markErr != nil {
		return fmt.Errorf("mark failure %s: %w", event.ID, markErr)
	}
	s.metrics.IncFailed(string(event.EventType))
	return nil
}

func (s *Service) deliver(ctx context.Context, event models.OutboxEvent) error {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nonRetryableError{err: fmt.Errorf("decode payload envelope: %w", err)}
	}
	if envelope.EventID == "" {
		return nonRetryableError{err: errors.New("payload envelope missing event id")}
	}

	body, err := json.Marshal(delivery{
		EventType: string(event.EventType),
		Payload:   event.Payload,
	})
	if err != nil {
		return nonRetryableError{err: fmt.Errorf("encode delivery: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nonRetryableError{err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotencyHeader, envelope.EventID)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post delivery: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	statusErr := fmt.Errorf("sync api returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return nonRetryableError{err: statusErr}
	}
	return statusErr
}

func (s *Service) eventFields(event models.OutboxEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	jitter := time.Duration(jitterSource.Int63n(int64(jitterWindow)))
	return d + jitter
}
