package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Reporter is the facade surface the report worker pushes through.
type Reporter interface {
	SendDailyReport(ctx context.Context)
}

// ReportWorker delivers the periodic admin summary.
type ReportWorker struct {
	interval time.Duration
	reporter Reporter
	log      *zerolog.Logger
}

func NewReportWorker(interval time.Duration, reporter Reporter, logger *zerolog.Logger) *ReportWorker {
	compLog := logger.With().Str("component", "ReportWorker").Logger()
	return &ReportWorker{interval: interval, reporter: reporter, log: &compLog}
}

func (w *ReportWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting report worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping report worker")
			return ctx.Err()
		case <-ticker.C:
			w.reporter.SendDailyReport(ctx)
		}
	}
}
