package worker

// retry_cron.go
// Background goroutine that periodically re-attempts audit deliveries stuck
// in status='pending' with a next_retry_at in the past. Uses the Circuit
// Breaker to avoid hammering a downed sink.

import (
	"context"
	"time"

	"lunapos/internal/infra"
	"lunapos/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	AuditRepo   repository.AuditRepository
	AuditWorker *AuditWorker
	CB          *infra.CircuitBreaker
}

// StartRetryCron launches a background goroutine that ticks every 30s,
// queries pending deliveries, and re-attempts them through the CB.
// It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	// If CB is open, skip entirely — don't hammer a downed sink
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return
	}

	now := time.Now()
	deliveries, err := cfg.AuditRepo.ListPendingRetries(ctx, now, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending retries")
		return
	}

	if len(deliveries) == 0 {
		return
	}

	log.Info().Int("count", len(deliveries)).Msg("retry_cron: processing pending deliveries")

	for i := range deliveries {
		// Check CB state before each call — it may have tripped mid-batch
		if cfg.CB.State() == infra.CBOpen {
			log.Debug().Msg("retry_cron: circuit breaker opened mid-batch, stopping")
			return
		}

		if err := cfg.AuditWorker.Attempt(ctx, &deliveries[i]); err != nil {
			log.Warn().
				Err(err).
				Str("delivery_id", deliveries[i].ID.String()).
				Msg("retry_cron: delivery attempt failed")
		}
	}
}
