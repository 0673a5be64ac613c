package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-clinic-bot/internal/usecase"
)

// PaymentReconciler periodically re-verifies checkout links stuck in
// awaiting_payment. It catches payments whose owners paid but never pressed
// the paid button, or where the process died before finalizing.
type PaymentReconciler struct {
	interval   time.Duration
	staleAfter time.Duration
	checkout   usecase.CheckoutUseCase
	log        *zerolog.Logger
}

func NewPaymentReconciler(interval, staleAfter time.Duration, checkout usecase.CheckoutUseCase, logger *zerolog.Logger) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	compLog := logger.With().Str("component", "PaymentReconciler").Logger()
	return &PaymentReconciler{interval: interval, staleAfter: staleAfter, checkout: checkout, log: &compLog}
}

func (w *PaymentReconciler) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting payment reconciler")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping payment reconciler")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.checkout.Reconcile(ctx, w.staleAfter)
			if err != nil {
				w.log.Error().Err(err).Msg("payment reconciler error")
			}
			if n > 0 {
				w.log.Info().Int("count", n).Msg("stale payments reconciled")
			}
		}
	}
}
