package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"telegram-clinic-bot/internal/domain"
	"telegram-clinic-bot/internal/domain/model"
	"telegram-clinic-bot/internal/domain/ports/repository"
	"telegram-clinic-bot/internal/infra/metrics"
	redisinfra "telegram-clinic-bot/internal/infra/redis"
)

// Purchase flow steps as stored in conversational state.
const (
	StepChooseTariff   = "purchase:choose_tariff"
	StepChoosePlan     = "purchase:choose_plan"
	StepConfirmPayment = "purchase:confirm_payment"
	StepConfirmBonus   = "purchase:confirm_bonus"
	StepUploadReceipt  = "purchase:upload_receipt"
	StepEnterLast4     = "purchase:enter_last4"
)

const financialLockTTL = 10 * time.Second

// Compile-time check
var _ PurchaseUseCase = (*purchaseUC)(nil)

// PurchaseUseCase drives a user's purchase from tariff selection to the
// moment the evidence bundle is complete. Each method validates the caller's
// current step, so a stale button press cannot skip ahead in the flow.
type PurchaseUseCase interface {
	// Start opens the flow for a registered user.
	Start(ctx context.Context, tgID int64) error
	// ChooseTariff stores the selected tier and returns the plans it offers.
	ChooseTariff(ctx context.Context, tgID int64, t model.Tariff) ([]model.Plan, error)
	// ChoosePlan prices the pair, creates the pending payment and returns it
	// together with the user's current bonus balance.
	ChoosePlan(ctx context.Context, tgID int64, p model.Plan) (*model.PendingPayment, int64, error)
	// RequestBonus moves to the bonus confirmation step and reports how much
	// bonus would be applied.
	RequestBonus(ctx context.Context, tgID int64) (*model.PendingPayment, int64, error)
	// ConfirmBonus settles the bonus question. On accept the amount is
	// debited immediately and is not returned if the payment is later
	// declined. A bonus that fully covers the price approves the payment
	// and activates the tariff on the spot; a partial bonus moves on to
	// receipt upload for the remainder. Rejecting the question declines
	// the payment and ends the flow.
	ConfirmBonus(ctx context.Context, tgID int64, accept bool) (*model.PendingPayment, error)
	// PayDirect skips the bonus question and proceeds to receipt upload.
	PayDirect(ctx context.Context, tgID int64) (*model.PendingPayment, error)
	// AttachReceipt stores the uploaded receipt photo and moves the payment
	// under review.
	AttachReceipt(ctx context.Context, tgID int64, fileID string) (*model.PendingPayment, error)
	// SubmitLast4 completes the evidence bundle and closes the flow. The
	// returned payment is ready for staff review.
	SubmitLast4(ctx context.Context, tgID int64, last4 string) (*model.PendingPayment, error)
	// Cancel abandons the flow, leaving any open payment to expire in place.
	Cancel(ctx context.Context, tgID int64) error
}

type purchaseUC struct {
	users    repository.UserRepository
	payments repository.PendingPaymentRepository
	state    repository.StateRepository
	locker   redisinfra.Locker
	approval ApprovalUseCase
	log      *zerolog.Logger
}

func NewPurchaseUseCase(
	users repository.UserRepository,
	payments repository.PendingPaymentRepository,
	state repository.StateRepository,
	locker redisinfra.Locker,
	approval ApprovalUseCase,
	log *zerolog.Logger,
) *purchaseUC {
	return &purchaseUC{users: users, payments: payments, state: state, locker: locker, approval: approval, log: log}
}

func (u *purchaseUC) Start(ctx context.Context, tgID int64) error {
	if _, err := u.users.FindByTelegramID(ctx, nil, tgID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotRegistered
		}
		return err
	}
	return u.state.SetState(ctx, tgID, &repository.ConversationState{
		Step: StepChooseTariff,
		Data: map[string]string{},
	})
}

func (u *purchaseUC) ChooseTariff(ctx context.Context, tgID int64, t model.Tariff) ([]model.Plan, error) {
	if err := u.requireStep(ctx, tgID, StepChooseTariff); err != nil {
		return nil, err
	}
	plans := model.PlansFor(t)
	if len(plans) == 0 {
		return nil, domain.ErrPlanNotFound
	}
	err := u.state.SetState(ctx, tgID, &repository.ConversationState{
		Step: StepChoosePlan,
		Data: map[string]string{"tariff": string(t)},
	})
	if err != nil {
		return nil, err
	}
	return plans, nil
}

func (u *purchaseUC) ChoosePlan(ctx context.Context, tgID int64, p model.Plan) (*model.PendingPayment, int64, error) {
	st, err := u.state.GetState(ctx, tgID)
	if err != nil || st.Step != StepChoosePlan {
		return nil, 0, domain.ErrInvalidTransition
	}
	t, ok := model.ParseTariff(st.Data["tariff"])
	if !ok {
		return nil, 0, domain.ErrInvalidTransition
	}
	user, err := u.users.FindByTelegramID(ctx, nil, tgID)
	if err != nil {
		return nil, 0, err
	}

	pay, err := model.NewPendingPayment(tgID, t, p)
	if err != nil {
		return nil, 0, err
	}
	if _, err := u.payments.Create(ctx, nil, pay); err != nil {
		return nil, 0, err
	}
	metrics.IncPayment(string(pay.Status))

	err = u.state.SetState(ctx, tgID, &repository.ConversationState{
		Step: StepConfirmPayment,
		Data: map[string]string{"tariff": string(t)},
	})
	if err != nil {
		return nil, 0, err
	}
	u.log.Info().Int64("tg_id", tgID).Int64("payment_id", pay.ID).
		Str("tariff", string(t)).Str("plan", string(p)).Int64("price", pay.BasePrice).
		Msg("pending payment created")
	return pay, user.BonusBalance, nil
}

func (u *purchaseUC) RequestBonus(ctx context.Context, tgID int64) (*model.PendingPayment, int64, error) {
	if err := u.requireStep(ctx, tgID, StepConfirmPayment); err != nil {
		return nil, 0, err
	}
	pay, err := u.payments.FindLatestOpenByUser(ctx, nil, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, domain.ErrNoOpenPayment
		}
		return nil, 0, err
	}
	user, err := u.users.FindByTelegramID(ctx, nil, tgID)
	if err != nil {
		return nil, 0, err
	}
	if user.BonusBalance <= 0 {
		return nil, 0, domain.ErrInsufficientBonus
	}
	applicable := user.BonusBalance
	if applicable > pay.Payable {
		applicable = pay.Payable
	}
	err = u.state.SetState(ctx, tgID, &repository.ConversationState{
		Step: StepConfirmBonus,
		Data: map[string]string{},
	})
	if err != nil {
		return nil, 0, err
	}
	return pay, applicable, nil
}

func (u *purchaseUC) ConfirmBonus(ctx context.Context, tgID int64, accept bool) (*model.PendingPayment, error) {
	if err := u.requireStep(ctx, tgID, StepConfirmBonus); err != nil {
		return nil, err
	}
	pay, err := u.payments.FindLatestOpenByUser(ctx, nil, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoOpenPayment
		}
		return nil, err
	}
	if !accept {
		declined, err := u.approval.Decline(ctx, pay.ID)
		if err != nil {
			return nil, err
		}
		if err := u.state.ClearState(ctx, tgID); err != nil {
			return nil, err
		}
		return declined, nil
	}

	if err := u.applyBonus(ctx, tgID, pay); err != nil {
		return nil, err
	}
	if pay.Payable == 0 {
		// The balance covered the whole price; no remainder to collect.
		approved, err := u.approval.Approve(ctx, pay.ID)
		if err != nil {
			return nil, err
		}
		if err := u.state.ClearState(ctx, tgID); err != nil {
			return nil, err
		}
		return approved, nil
	}
	err = u.state.SetState(ctx, tgID, &repository.ConversationState{
		Step: StepUploadReceipt,
		Data: map[string]string{},
	})
	if err != nil {
		return nil, err
	}
	return pay, nil
}

// applyBonus debits min(balance, payable) under the user's financial lock.
// The store re-checks the balance, so even a lost lock cannot overdraw.
func (u *purchaseUC) applyBonus(ctx context.Context, tgID int64, pay *model.PendingPayment) error {
	key := redisinfra.UserLockKey(tgID)
	token, err := u.locker.TryLock(ctx, key, financialLockTTL)
	if err != nil {
		return err
	}
	defer func() {
		if uerr := u.locker.Unlock(ctx, key, token); uerr != nil {
			u.log.Warn().Err(uerr).Int64("tg_id", tgID).Msg("financial lock release failed")
		}
	}()

	user, err := u.users.FindByTelegramID(ctx, nil, tgID)
	if err != nil {
		return err
	}
	amount := user.BonusBalance
	if amount > pay.Payable {
		amount = pay.Payable
	}
	if amount <= 0 {
		return domain.ErrInsufficientBonus
	}
	if err := u.users.DebitBonus(ctx, nil, tgID, amount); err != nil {
		return err
	}
	if err := pay.ApplyBonus(pay.BonusApplied + amount); err != nil {
		return err
	}
	if err := u.payments.SetBonus(ctx, nil, pay.ID, pay.BonusApplied, pay.Payable); err != nil {
		return err
	}
	metrics.AddBonusApplied(amount)
	u.log.Info().Int64("tg_id", tgID).Int64("payment_id", pay.ID).Int64("bonus", amount).
		Msg("bonus applied to payment")
	return nil
}

func (u *purchaseUC) PayDirect(ctx context.Context, tgID int64) (*model.PendingPayment, error) {
	if err := u.requireStep(ctx, tgID, StepConfirmPayment); err != nil {
		return nil, err
	}
	pay, err := u.payments.FindLatestOpenByUser(ctx, nil, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoOpenPayment
		}
		return nil, err
	}
	err = u.state.SetState(ctx, tgID, &repository.ConversationState{
		Step: StepUploadReceipt,
		Data: map[string]string{},
	})
	if err != nil {
		return nil, err
	}
	return pay, nil
}

func (u *purchaseUC) AttachReceipt(ctx context.Context, tgID int64, fileID string) (*model.PendingPayment, error) {
	if err := u.requireStep(ctx, tgID, StepUploadReceipt); err != nil {
		return nil, err
	}
	pay, err := u.payments.FindLatestOpenByUser(ctx, nil, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoOpenPayment
		}
		return nil, err
	}
	if err := u.payments.SetReceipt(ctx, nil, pay.ID, fileID); err != nil {
		return nil, err
	}
	if err := u.payments.SetStatus(ctx, nil, pay.ID, model.PaymentStatusUnderReview); err != nil {
		return nil, err
	}
	pay.ReceiptFileID = fileID
	pay.Status = model.PaymentStatusUnderReview
	metrics.IncPayment(string(pay.Status))

	err = u.state.SetState(ctx, tgID, &repository.ConversationState{
		Step: StepEnterLast4,
		Data: map[string]string{},
	})
	if err != nil {
		return nil, err
	}
	return pay, nil
}

func (u *purchaseUC) SubmitLast4(ctx context.Context, tgID int64, last4 string) (*model.PendingPayment, error) {
	if err := u.requireStep(ctx, tgID, StepEnterLast4); err != nil {
		return nil, err
	}
	if !model.ValidLast4(last4) {
		return nil, domain.ErrInvalidArgument
	}
	pay, err := u.payments.FindLatestOpenByUser(ctx, nil, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoOpenPayment
		}
		return nil, err
	}
	if err := u.payments.SetPayerLast4(ctx, nil, pay.ID, last4); err != nil {
		return nil, err
	}
	pay.PayerLast4 = last4
	if err := u.state.ClearState(ctx, tgID); err != nil {
		return nil, err
	}
	u.log.Info().Int64("tg_id", tgID).Int64("payment_id", pay.ID).
		Msg("evidence bundle complete, ready for review")
	return pay, nil
}

func (u *purchaseUC) Cancel(ctx context.Context, tgID int64) error {
	return u.state.ClearState(ctx, tgID)
}

func (u *purchaseUC) requireStep(ctx context.Context, tgID int64, step string) error {
	st, err := u.state.GetState(ctx, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidTransition
		}
		return err
	}
	if st.Step != step {
		return domain.ErrInvalidTransition
	}
	return nil
}
