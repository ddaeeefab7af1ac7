package worker

// audit_worker.go
// Delivers audit entries to the external sink. Each job carries the id of a
// local AuditDelivery row (outbox pattern): the row was committed together
// with the state transition that produced it, so a crash between commit and
// enqueue is recovered by the retry cron.

import (
	"context"
	"encoding/json"
	"time"

	"lunapos/internal/infra"
	"lunapos/internal/model"
	"lunapos/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// MaxAuditRetries before a delivery is marked error and parked in the DLQ.
const MaxAuditRetries = 5

type auditJobPayload struct {
	DeliveryID string `json:"delivery_id"`
}

// AuditWorker posts pending AuditDelivery rows to the sink through the
// circuit breaker and records the outcome.
type AuditWorker struct {
	repo repository.AuditRepository
	sink *infra.AuditSinkClient
	cb   *infra.CircuitBreaker
	rdb  *redis.Client
}

func NewAuditWorker(repo repository.AuditRepository, sink *infra.AuditSinkClient, cb *infra.CircuitBreaker, rdb *redis.Client) *AuditWorker {
	return &AuditWorker{repo: repo, sink: sink, cb: cb, rdb: rdb}
}

func (w *AuditWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload auditJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	id, err := uuid.Parse(payload.DeliveryID)
	if err != nil {
		return err
	}

	delivery, err := w.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if delivery.Status == model.DeliveryDelivered {
		return nil // already delivered by a retry tick
	}

	return w.Attempt(ctx, delivery)
}

// Attempt makes one delivery attempt and persists the outcome. Shared with
// the retry cron.
func (w *AuditWorker) Attempt(ctx context.Context, delivery *model.AuditDelivery) error {
	entry := infra.AuditEntry{
		EventType:   delivery.EventType,
		ActorName:   delivery.ActorName,
		TerminalID:  delivery.TerminalID.String(),
		Description: delivery.Description,
		OccurredAt:  delivery.CreatedAt.Format(time.RFC3339),
	}
	if delivery.ReferenceID != nil {
		entry.ReferenceID = delivery.ReferenceID.String()
	}

	cbErr := w.cb.Execute(func() error {
		return w.sink.Deliver(ctx, entry)
	})

	if cbErr == nil {
		now := time.Now()
		delivery.Status = model.DeliveryDelivered
		delivery.DeliveredAt = &now
		delivery.NextRetryAt = nil
		delivery.LastError = nil
		if err := w.repo.Update(ctx, delivery); err != nil {
			return err
		}
		log.Info().
			Str("delivery_id", delivery.ID.String()).
			Str("event", delivery.EventType).
			Int("attempts", delivery.RetryCount+1).
			Msg("audit entry delivered")
		return nil
	}

	// Failure — schedule the next attempt or park in the DLQ.
	delivery.RetryCount++
	errMsg := cbErr.Error()
	delivery.LastError = &errMsg

	if delivery.RetryCount >= MaxAuditRetries {
		delivery.Status = model.DeliveryError
		delivery.NextRetryAt = nil
		_ = w.repo.Update(ctx, delivery)

		payload, _ := json.Marshal(auditJobPayload{DeliveryID: delivery.ID.String()})
		SendToDLQ(ctx, w.rdb, QueueAudit, "audit", payload,
			"max retries exceeded: "+errMsg, delivery.RetryCount)
		return cbErr
	}

	next := time.Now().Add(retryBackoff(delivery.RetryCount))
	delivery.NextRetryAt = &next
	if err := w.repo.Update(ctx, delivery); err != nil {
		return err
	}
	log.Warn().
		Str("delivery_id", delivery.ID.String()).
		Int("retry_count", delivery.RetryCount).
		Time("next_retry_at", next).
		Msg("audit delivery failed, scheduled retry")
	return cbErr
}

// retryBackoff returns the delay before attempt n+1: 1m, 5m, 15m, 30m, …
func retryBackoff(retryCount int) time.Duration {
	switch retryCount {
	case 1:
		return time.Minute
	case 2:
		return 5 * time.Minute
	case 3:
		return 15 * time.Minute
	default:
		return 30 * time.Minute
	}
}
