package repository

import (
	"context"
	"time"

	"telegram-clinic-bot/internal/domain/model"
)

// UserRepository persists users. The qx argument is an optional execution
// context (pgx.Tx or pool); nil means the repository's own pool.
type UserRepository interface {
	Save(ctx context.Context, qx any, u *model.User) error
	FindByTelegramID(ctx context.Context, qx any, tgID int64) (*model.User, error)
	FindByPhone(ctx context.Context, qx any, phone string) (*model.User, error)
	ListTelegramIDs(ctx context.Context, qx any) ([]int64, error)

	// CreditBonus adds amount to the user's bonus balance.
	CreditBonus(ctx context.Context, qx any, tgID int64, amount int64) error
	// DebitBonus subtracts amount only when the stored balance is still
	// sufficient; returns domain.ErrInsufficientBonus otherwise. This is the
	// single write path for spending bonus funds.
	DebitBonus(ctx context.Context, qx any, tgID int64, amount int64) error
	// RecordReferral bumps the referrer's counters.
	RecordReferral(ctx context.Context, qx any, referrerTG int64) error

	// ActivateTariff overwrites tariff, window and quota counters.
	ActivateTariff(ctx context.Context, qx any, tgID int64, t model.Tariff, start, end time.Time, q model.Quota) error
	// DecrementDailyQuota consumes one question; fails with
	// domain.ErrQuotaExhausted when the daily counter is at zero.
	DecrementDailyQuota(ctx context.Context, qx any, tgID int64) error
	// DeactivateExpired resets users whose tariff window has passed back to
	// the free tier and returns how many were reset.
	DeactivateExpired(ctx context.Context, qx any, now time.Time) (int, error)

	CountRegisteredSince(ctx context.Context, qx any, since time.Time) (int, error)
	TouchLastActive(ctx context.Context, qx any, tgID int64) error
}
