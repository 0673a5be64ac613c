package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// EnsureSchema creates the tables on startup when they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			telegram_id BIGINT NOT NULL UNIQUE,
			full_name TEXT NOT NULL,
			birth_year INT NOT NULL DEFAULT 0,
			phone TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			tariff TEXT NOT NULL DEFAULT 'free',
			tariff_start TIMESTAMPTZ,
			tariff_end TIMESTAMPTZ,
			daily_remaining INT NOT NULL DEFAULT 0,
			weekly_remaining INT NOT NULL DEFAULT 0,
			monthly_remaining INT NOT NULL DEFAULT 0,
			referred_by BIGINT,
			referrals_added INT NOT NULL DEFAULT 0,
			referrals_registered INT NOT NULL DEFAULT 0,
			bonus_balance BIGINT NOT NULL DEFAULT 0 CHECK (bonus_balance >= 0),
			registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_active_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_users_phone ON users (phone);`,
		`CREATE INDEX IF NOT EXISTS idx_users_tariff_end ON users (tariff_end) WHERE tariff_end IS NOT NULL;`,
		`CREATE TABLE IF NOT EXISTS pending_payments (
			id BIGSERIAL PRIMARY KEY,
			user_tg BIGINT NOT NULL,
			tariff TEXT NOT NULL,
			plan TEXT NOT NULL,
			label TEXT NOT NULL DEFAULT '',
			base_price BIGINT NOT NULL,
			bonus_applied BIGINT NOT NULL DEFAULT 0,
			payable BIGINT NOT NULL CHECK (payable >= 0),
			status TEXT NOT NULL DEFAULT 'awaiting_receipt',
			receipt_file_id TEXT NOT NULL DEFAULT '',
			payment_link TEXT NOT NULL DEFAULT '',
			payer_last4 TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			approved_at TIMESTAMPTZ,
			declined_at TIMESTAMPTZ
		);`,
		`CREATE INDEX IF NOT EXISTS idx_pending_payments_user_open
			ON pending_payments (user_tg, created_at DESC)
			WHERE status NOT IN ('approved','declined');`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
