package usecase

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-clinic-bot/internal/domain"
	"telegram-clinic-bot/internal/domain/model"
	"telegram-clinic-bot/internal/domain/ports/repository"
	"telegram-clinic-bot/internal/infra/metrics"
	redisinfra "telegram-clinic-bot/internal/infra/redis"
)

// Compile-time check
var _ ApprovalUseCase = (*approvalUC)(nil)

// ApprovalUseCase executes staff decisions on pending payments. Both
// transitions are store-side conditionals: a decision on an already decided
// payment reports domain.ErrInvalidTransition instead of double-applying.
type ApprovalUseCase interface {
	// Approve activates the purchased tariff and marks the payment approved,
	// atomically. Returns the decided payment for notification.
	Approve(ctx context.Context, paymentID int64) (*model.PendingPayment, error)
	// Decline marks the payment declined. Bonus already applied to the
	// payment stays spent.
	Decline(ctx context.Context, paymentID int64) (*model.PendingPayment, error)
}

type approvalUC struct {
	users    repository.UserRepository
	payments repository.PendingPaymentRepository
	tx       repository.TransactionManager
	locker   redisinfra.Locker
	currency string
	log      *zerolog.Logger
}

func NewApprovalUseCase(
	users repository.UserRepository,
	payments repository.PendingPaymentRepository,
	tx repository.TransactionManager,
	locker redisinfra.Locker,
	currency string,
	log *zerolog.Logger,
) *approvalUC {
	return &approvalUC{users: users, payments: payments, tx: tx, locker: locker, currency: currency, log: log}
}

func (u *approvalUC) Approve(ctx context.Context, paymentID int64) (*model.PendingPayment, error) {
	pre, err := u.payments.FindByID(ctx, nil, paymentID)
	if err != nil {
		return nil, err
	}

	key := redisinfra.UserLockKey(pre.UserTG)
	token, err := u.locker.TryLock(ctx, key, financialLockTTL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if uerr := u.locker.Unlock(ctx, key, token); uerr != nil {
			u.log.Warn().Err(uerr).Int64("tg_id", pre.UserTG).Msg("financial lock release failed")
		}
	}()

	var decided *model.PendingPayment
	err = u.tx.WithTx(ctx, func(ctx context.Context, tx any) error {
		p, err := u.payments.ApproveIf(ctx, tx, paymentID, time.Now())
		if err != nil {
			return err
		}
		days, ok := p.DurationDays()
		if !ok {
			return domain.ErrPlanNotFound
		}
		now := time.Now()
		end := now.Add(time.Duration(days) * 24 * time.Hour)
		quota := model.QuotaFor(p.Tariff, days)
		if err := u.users.ActivateTariff(ctx, tx, p.UserTG, p.Tariff, now, end, quota); err != nil {
			return err
		}
		decided = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncPayment(string(model.PaymentStatusApproved))
	metrics.AddPaymentRevenue(u.currency, decided.BasePrice)
	metrics.IncTariffActivation(string(decided.Tariff))
	u.log.Info().Int64("payment_id", decided.ID).Int64("tg_id", decided.UserTG).
		Str("tariff", string(decided.Tariff)).Str("plan", string(decided.Plan)).
		Msg("payment approved, tariff activated")
	return decided, nil
}

func (u *approvalUC) Decline(ctx context.Context, paymentID int64) (*model.PendingPayment, error) {
	p, err := u.payments.DeclineIf(ctx, nil, paymentID, time.Now())
	if err != nil {
		return nil, err
	}
	metrics.IncPayment(string(model.PaymentStatusDeclined))
	u.log.Info().Int64("payment_id", p.ID).Int64("tg_id", p.UserTG).Msg("payment declined")
	return p, nil
}

// ParseDecision understands both historical callback shapes,
// "approve_12" and "approve:12". The empty action means no match.
func ParseDecision(data string) (action string, paymentID int64, ok bool) {
	for _, verb := range []string{"approve", "decline"} {
		for _, sep := range []string{"_", ":"} {
			prefix := verb + sep
			if !strings.HasPrefix(data, prefix) {
				continue
			}
			id, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
			if err != nil {
				return "", 0, false
			}
			return verb, id, true
		}
	}
	return "", 0, false
}
