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

var _ repository.PendingPaymentRepository = (*PaymentRepo)(nil)

type PaymentRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentRepo(pool *pgxpool.Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

const paymentColumns = `id, user_tg, tariff, plan, label,
       base_price, bonus_applied, payable, status,
       receipt_file_id, payment_link, payer_last4,
       created_at, approved_at, declined_at`

func scanPayment(row pgx.Row) (*model.PendingPayment, error) {
	var p model.PendingPayment
	var tariff, plan, status string
	if err := row.Scan(
		&p.ID, &p.UserTG, &tariff, &plan, &p.Label,
		&p.BasePrice, &p.BonusApplied, &p.Payable, &status,
		&p.ReceiptFileID, &p.PaymentLink, &p.PayerLast4,
		&p.CreatedAt, &p.ApprovedAt, &p.DeclinedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if t, ok := model.ParseTariff(tariff); ok {
		p.Tariff = t
	}
	if pl, ok := model.ParsePlan(plan); ok {
		p.Plan = pl
	}
	p.Status = model.PaymentStatus(status)
	return &p, nil
}

func (r *PaymentRepo) Create(ctx context.Context, qx any, p *model.PendingPayment) (int64, error) {
	const q = `
INSERT INTO pending_payments (
  user_tg, tariff, plan, label,
  base_price, bonus_applied, payable, status,
  receipt_file_id, payment_link, payer_last4, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
RETURNING id;`
	row, err := pickRow(ctx, r.pool, qx, q,
		p.UserTG, string(p.Tariff), string(p.Plan), p.Label,
		p.BasePrice, p.BonusApplied, p.Payable, string(p.Status),
		p.ReceiptFileID, p.PaymentLink, p.PayerLast4, p.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("create payment: %w", err)
	}
	p.ID = id
	return id, nil
}

func (r *PaymentRepo) FindByID(ctx context.Context, qx any, id int64) (*model.PendingPayment, error) {
	row, err := pickRow(ctx, r.pool, qx, `SELECT `+paymentColumns+` FROM pending_payments WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *PaymentRepo) FindLatestOpenByUser(ctx context.Context, qx any, userTG int64) (*model.PendingPayment, error) {
	const q = `
SELECT ` + paymentColumns + `
  FROM pending_payments
 WHERE user_tg=$1 AND status NOT IN ('approved','declined')
 ORDER BY created_at DESC
 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, qx, q, userTG)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *PaymentRepo) SetBonus(ctx context.Context, qx any, id int64, bonusApplied, payable int64) error {
	return r.updateField(ctx, qx, `UPDATE pending_payments SET bonus_applied=$2, payable=$3 WHERE id=$1;`, id, bonusApplied, payable)
}

func (r *PaymentRepo) SetReceipt(ctx context.Context, qx any, id int64, fileID string) error {
	return r.updateField(ctx, qx, `UPDATE pending_payments SET receipt_file_id=$2 WHERE id=$1;`, id, fileID)
}

func (r *PaymentRepo) SetPaymentLink(ctx context.Context, qx any, id int64, link string) error {
	return r.updateField(ctx, qx, `UPDATE pending_payments SET payment_link=$2 WHERE id=$1;`, id, link)
}

func (r *PaymentRepo) SetPayerLast4(ctx context.Context, qx any, id int64, last4 string) error {
	return r.updateField(ctx, qx, `UPDATE pending_payments SET payer_last4=$2 WHERE id=$1;`, id, last4)
}

func (r *PaymentRepo) SetStatus(ctx context.Context, qx any, id int64, status model.PaymentStatus) error {
	return r.updateField(ctx, qx, `UPDATE pending_payments SET status=$2 WHERE id=$1;`, id, string(status))
}

func (r *PaymentRepo) updateField(ctx context.Context, qx any, q string, args ...any) error {
	tag, err := execSQL(ctx, r.pool, qx, q, args...)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ApproveIf and DeclineIf evaluate the status predicate inside the UPDATE so
// that two racing admin decisions cannot both take effect. A miss is reported
// as domain.ErrInvalidTransition when the record exists in a terminal state,
// domain.ErrNotFound when it does not exist at all.

func (r *PaymentRepo) ApproveIf(ctx context.Context, qx any, id int64, at time.Time) (*model.PendingPayment, error) {
	const q = `
UPDATE pending_payments SET status='approved', approved_at=$2
 WHERE id=$1 AND status IN ('awaiting_receipt','awaiting_payment','under_review','awaiting_review')
RETURNING ` + paymentColumns + `;`
	return r.decide(ctx, qx, q, id, at)
}

func (r *PaymentRepo) DeclineIf(ctx context.Context, qx any, id int64, at time.Time) (*model.PendingPayment, error) {
	const q = `
UPDATE pending_payments SET status='declined', declined_at=$2
 WHERE id=$1 AND status IN ('awaiting_receipt','awaiting_payment','under_review','awaiting_review')
RETURNING ` + paymentColumns + `;`
	return r.decide(ctx, qx, q, id, at)
}

func (r *PaymentRepo) decide(ctx context.Context, qx any, q string, id int64, at time.Time) (*model.PendingPayment, error) {
	row, err := pickRow(ctx, r.pool, qx, q, id, at)
	if err != nil {
		return nil, err
	}
	p, err := scanPayment(row)
	if err == domain.ErrNotFound {
		// Distinguish a missing record from a record already decided.
		if _, ferr := r.FindByID(ctx, qx, id); ferr == nil {
			return nil, domain.ErrInvalidTransition
		}
		return nil, domain.ErrNotFound
	}
	return p, err
}

func (r *PaymentRepo) ListAwaitingPaymentOlderThan(ctx context.Context, qx any, cutoff time.Time, limit int) ([]*model.PendingPayment, error) {
	const q = `
SELECT ` + paymentColumns + `
  FROM pending_payments
 WHERE status='awaiting_payment' AND created_at < $1
 ORDER BY created_at
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, qx, q, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*model.PendingPayment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PaymentRepo) SumApprovedBetween(ctx context.Context, qx any, from, to time.Time) (int64, error) {
	const q = `
SELECT COALESCE(SUM(base_price), 0)
  FROM pending_payments
 WHERE status='approved' AND approved_at >= $1 AND approved_at < $2;`
	row, err := pickRow(ctx, r.pool, qx, q, from, to)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("sum approved: %w", err)
	}
	return total, nil
}
