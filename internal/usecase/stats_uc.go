package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-clinic-bot/internal/domain/ports/repository"
)

// Report is one period's admin summary.
type Report struct {
	From     time.Time
	To       time.Time
	NewUsers int
	Revenue  int64 // sum of approved base prices
}

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// StatsUseCase produces admin reports and maintains subscription expiry.
type StatsUseCase interface {
	Report(ctx context.Context, from, to time.Time) (*Report, error)
	// DeactivateExpired resets users whose tariff window passed back to the
	// free tier and returns how many were reset.
	DeactivateExpired(ctx context.Context) (int, error)
}

type statsUC struct {
	users    repository.UserRepository
	payments repository.PendingPaymentRepository
	log      *zerolog.Logger
}

func NewStatsUseCase(
	users repository.UserRepository,
	payments repository.PendingPaymentRepository,
	log *zerolog.Logger,
) *statsUC {
	return &statsUC{users: users, payments: payments, log: log}
}

func (u *statsUC) Report(ctx context.Context, from, to time.Time) (*Report, error) {
	newUsers, err := u.users.CountRegisteredSince(ctx, nil, from)
	if err != nil {
		return nil, err
	}
	revenue, err := u.payments.SumApprovedBetween(ctx, nil, from, to)
	if err != nil {
		return nil, err
	}
	return &Report{From: from, To: to, NewUsers: newUsers, Revenue: revenue}, nil
}

func (u *statsUC) DeactivateExpired(ctx context.Context) (int, error) {
	n, err := u.users.DeactivateExpired(ctx, nil, time.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		u.log.Info().Int("count", n).Msg("expired tariffs reset to free")
	}
	return n, nil
}
