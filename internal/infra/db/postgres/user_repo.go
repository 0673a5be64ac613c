package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-clinic-bot/internal/domain"
	"telegram-clinic-bot/internal/domain/model"
	"telegram-clinic-bot/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `id, telegram_id, full_name, birth_year, phone, address,
       tariff, tariff_start, tariff_end,
       daily_remaining, weekly_remaining, monthly_remaining,
       referred_by, referrals_added, referrals_registered, bonus_balance,
       registered_at, last_active_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	var tariff string
	if err := row.Scan(
		&u.ID, &u.TelegramID, &u.FullName, &u.BirthYear, &u.Phone, &u.Address,
		&tariff, &u.TariffStart, &u.TariffEnd,
		&u.Quota.Daily, &u.Quota.Weekly, &u.Quota.Monthly,
		&u.ReferredBy, &u.ReferralsAdded, &u.ReferralsRegistered, &u.BonusBalance,
		&u.RegisteredAt, &u.LastActiveAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if t, ok := model.ParseTariff(tariff); ok {
		u.Tariff = t
	}
	return &u, nil
}

func (r *UserRepo) Save(ctx context.Context, qx any, u *model.User) error {
	const q = `
INSERT INTO users (
  id, telegram_id, full_name, birth_year, phone, address,
  tariff, tariff_start, tariff_end,
  daily_remaining, weekly_remaining, monthly_remaining,
  referred_by, referrals_added, referrals_registered, bonus_balance,
  registered_at, last_active_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18
) ON CONFLICT (telegram_id) DO UPDATE SET
  full_name=$3, birth_year=$4, phone=$5, address=$6,
  tariff=$7, tariff_start=$8, tariff_end=$9,
  daily_remaining=$10, weekly_remaining=$11, monthly_remaining=$12,
  referred_by=$13, last_active_at=$18;`
	_, err := execSQL(ctx, r.pool, qx, q,
		u.ID, u.TelegramID, u.FullName, u.BirthYear, u.Phone, u.Address,
		string(u.Tariff), u.TariffStart, u.TariffEnd,
		u.Quota.Daily, u.Quota.Weekly, u.Quota.Monthly,
		u.ReferredBy, u.ReferralsAdded, u.ReferralsRegistered, u.BonusBalance,
		u.RegisteredAt, u.LastActiveAt,
	)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (r *UserRepo) FindByTelegramID(ctx context.Context, qx any, tgID int64) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, qx, `SELECT `+userColumns+` FROM users WHERE telegram_id=$1;`, tgID)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *UserRepo) FindByPhone(ctx context.Context, qx any, phone string) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, qx, `SELECT `+userColumns+` FROM users WHERE phone=$1 LIMIT 1;`, phone)
	if err != nil {
		return nil, err
	}
	return scanUser(row)
}

func (r *UserRepo) ListTelegramIDs(ctx context.Context, qx any) ([]int64, error) {
	rows, err := queryRows(ctx, r.pool, qx, `SELECT telegram_id FROM users ORDER BY registered_at;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *UserRepo) CreditBonus(ctx context.Context, qx any, tgID int64, amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidArgument
	}
	const q = `UPDATE users SET bonus_balance = bonus_balance + $2 WHERE telegram_id=$1;`
	tag, err := execSQL(ctx, r.pool, qx, q, tgID, amount)
	if err != nil {
		return fmt.Errorf("credit bonus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DebitBonus is a compare-and-swap: the balance predicate is evaluated by the
// store, so two concurrent debits cannot both succeed on insufficient funds.
func (r *UserRepo) DebitBonus(ctx context.Context, qx any, tgID int64, amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidArgument
	}
	const q = `UPDATE users SET bonus_balance = bonus_balance - $2 WHERE telegram_id=$1 AND bonus_balance >= $2;`
	tag, err := execSQL(ctx, r.pool, qx, q, tgID, amount)
	if err != nil {
		return fmt.Errorf("debit bonus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientBonus
	}
	return nil
}

func (r *UserRepo) RecordReferral(ctx context.Context, qx any, referrerTG int64) error {
	const q = `UPDATE users SET referrals_added = referrals_added + 1, referrals_registered = referrals_registered + 1 WHERE telegram_id=$1;`
	tag, err := execSQL(ctx, r.pool, qx, q, referrerTG)
	if err != nil {
		return fmt.Errorf("record referral: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepo) ActivateTariff(ctx context.Context, qx any, tgID int64, t model.Tariff, start, end time.Time, quota model.Quota) error {
	const q = `
UPDATE users SET tariff=$2, tariff_start=$3, tariff_end=$4,
       daily_remaining=$5, weekly_remaining=$6, monthly_remaining=$7
 WHERE telegram_id=$1;`
	tag, err := execSQL(ctx, r.pool, qx, q, tgID, string(t), start, end, quota.Daily, quota.Weekly, quota.Monthly)
	if err != nil {
		return fmt.Errorf("activate tariff: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepo) DecrementDailyQuota(ctx context.Context, qx any, tgID int64) error {
	const q = `UPDATE users SET daily_remaining = daily_remaining - 1 WHERE telegram_id=$1 AND daily_remaining > 0;`
	tag, err := execSQL(ctx, r.pool, qx, q, tgID)
	if err != nil {
		return fmt.Errorf("decrement quota: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuotaExhausted
	}
	return nil
}

func (r *UserRepo) DeactivateExpired(ctx context.Context, qx any, now time.Time) (int, error) {
	free := model.QuotaFor(model.TariffFree, 0)
	const q = `
UPDATE users SET tariff='free', tariff_start=NULL, tariff_end=NULL,
       daily_remaining=$2, weekly_remaining=$3, monthly_remaining=$4
 WHERE tariff_end IS NOT NULL AND tariff_end < $1 AND tariff <> 'free';`
	tag, err := execSQL(ctx, r.pool, qx, q, now, free.Daily, free.Weekly, free.Monthly)
	if err != nil {
		return 0, fmt.Errorf("deactivate expired: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *UserRepo) CountRegisteredSince(ctx context.Context, qx any, since time.Time) (int, error) {
	row, err := pickRow(ctx, r.pool, qx, `SELECT COUNT(*) FROM users WHERE registered_at >= $1;`, since)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count registered: %w", err)
	}
	return n, nil
}

// TouchLastActive is best-effort bookkeeping; callers ignore its error.
func (r *UserRepo) TouchLastActive(ctx context.Context, qx any, tgID int64) error {
	_, err := execSQL(ctx, r.pool, qx, `UPDATE users SET last_active_at=NOW() WHERE telegram_id=$1;`, tgID)
	return err
}
