package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-clinic-bot/internal/usecase"
)

// ExpiryWorker periodically resets users whose tariff window has passed.
type ExpiryWorker struct {
	interval time.Duration
	stats    usecase.StatsUseCase
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, stats usecase.StatsUseCase, logger *zerolog.Logger) *ExpiryWorker {
	compLog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{interval: interval, stats: stats, log: &compLog}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.stats.DeactivateExpired(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("expiry worker error")
			}
			if n > 0 {
				w.log.Info().Int("count", n).Msg("expired tariffs deactivated")
			}
		}
	}
}
