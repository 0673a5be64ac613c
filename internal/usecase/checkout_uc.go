package usecase

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"telegram-clinic-bot/internal/domain"
	"telegram-clinic-bot/internal/domain/model"
	"telegram-clinic-bot/internal/domain/ports/adapter"
	"telegram-clinic-bot/internal/domain/ports/repository"
	"telegram-clinic-bot/internal/infra/metrics"
)

// LinkCreator is the provider-chain surface checkout needs.
type LinkCreator interface {
	CreateLink(ctx context.Context, amount int64, label string, paymentID int64) (link, provider string)
	VerifyLink(ctx context.Context, link string) adapter.CheckoutStatus
}

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

// CheckoutUseCase covers the hosted-checkout alternative to a bank
// transfer: issuing a pay link, re-checking it on a user's paid claim, and
// handling the platform-native invoice callback.
type CheckoutUseCase interface {
	// CreateLink attaches a checkout link to the user's open payment and
	// moves it to awaiting_payment.
	CreateLink(ctx context.Context, tgID int64) (*model.PendingPayment, string, error)
	// ClaimPaid handles the user's "I have paid" press. A provider-confirmed
	// link approves immediately; anything else queues for staff review.
	ClaimPaid(ctx context.Context, tgID int64) (*model.PendingPayment, adapter.CheckoutStatus, error)
	// InvoicePayload builds the opaque payload carried by a platform-native
	// invoice for the payment.
	InvoicePayload(p *model.PendingPayment) string
	// OnInvoicePaid finalizes the payment named by a successful-payment
	// payload. The platform has already collected the money, so this
	// approves directly.
	OnInvoicePaid(ctx context.Context, payload string) (*model.PendingPayment, error)
	// Reconcile re-checks links stuck in awaiting_payment since before the
	// cutoff and approves the ones the provider reports paid. Covers users
	// who pay but never press the paid button. Returns how many it approved.
	Reconcile(ctx context.Context, staleAfter time.Duration) (int, error)
}

type checkoutUC struct {
	payments repository.PendingPaymentRepository
	chain    LinkCreator
	approval ApprovalUseCase
	log      *zerolog.Logger
}

func NewCheckoutUseCase(
	payments repository.PendingPaymentRepository,
	chain LinkCreator,
	approval ApprovalUseCase,
	log *zerolog.Logger,
) *checkoutUC {
	return &checkoutUC{payments: payments, chain: chain, approval: approval, log: log}
}

func (u *checkoutUC) CreateLink(ctx context.Context, tgID int64) (*model.PendingPayment, string, error) {
	pay, err := u.payments.FindLatestOpenByUser(ctx, nil, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrNoOpenPayment
		}
		return nil, "", err
	}
	link, provider := u.chain.CreateLink(ctx, pay.Payable, pay.Label, pay.ID)
	if err := u.payments.SetPaymentLink(ctx, nil, pay.ID, link); err != nil {
		return nil, "", err
	}
	if err := u.payments.SetStatus(ctx, nil, pay.ID, model.PaymentStatusAwaitingPayment); err != nil {
		return nil, "", err
	}
	pay.PaymentLink = link
	pay.Status = model.PaymentStatusAwaitingPayment
	u.log.Info().Int64("payment_id", pay.ID).Str("provider", provider).Msg("checkout link issued")
	return pay, link, nil
}

func (u *checkoutUC) ClaimPaid(ctx context.Context, tgID int64) (*model.PendingPayment, adapter.CheckoutStatus, error) {
	pay, err := u.payments.FindLatestOpenByUser(ctx, nil, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrNoOpenPayment
		}
		return nil, "", err
	}
	if pay.PaymentLink == "" {
		return nil, "", domain.ErrInvalidTransition
	}

	status := u.chain.VerifyLink(ctx, pay.PaymentLink)
	switch status {
	case adapter.CheckoutPaid:
		decided, err := u.approval.Approve(ctx, pay.ID)
		if err != nil {
			return nil, status, err
		}
		return decided, status, nil
	case adapter.CheckoutFailed:
		return pay, status, nil
	default:
		// Unverifiable claims are queued for a human decision.
		if err := u.payments.SetStatus(ctx, nil, pay.ID, model.PaymentStatusAwaitingReview); err != nil {
			return nil, status, err
		}
		pay.Status = model.PaymentStatusAwaitingReview
		metrics.IncPayment(string(pay.Status))
		return pay, adapter.CheckoutPending, nil
	}
}

func (u *checkoutUC) InvoicePayload(p *model.PendingPayment) string {
	return strconv.FormatInt(p.ID, 10)
}

func (u *checkoutUC) OnInvoicePaid(ctx context.Context, payload string) (*model.PendingPayment, error) {
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return nil, domain.ErrInvalidArgument
	}
	return u.approval.Approve(ctx, id)
}

// reconcileBatch bounds one sweep so a backlog cannot stall the ticker.
const reconcileBatch = 200

func (u *checkoutUC) Reconcile(ctx context.Context, staleAfter time.Duration) (int, error) {
	cutoff := time.Now().Add(-staleAfter)
	stale, err := u.payments.ListAwaitingPaymentOlderThan(ctx, nil, cutoff, reconcileBatch)
	if err != nil {
		return 0, err
	}
	approved := 0
	for _, pay := range stale {
		if pay.PaymentLink == "" {
			continue
		}
		if u.chain.VerifyLink(ctx, pay.PaymentLink) != adapter.CheckoutPaid {
			continue
		}
		if _, err := u.approval.Approve(ctx, pay.ID); err != nil {
			// A racing staff decision is fine; anything else is logged and
			// retried on the next sweep.
			if !errors.Is(err, domain.ErrInvalidTransition) {
				u.log.Error().Err(err).Int64("payment_id", pay.ID).Msg("reconcile approve failed")
			}
			continue
		}
		approved++
		u.log.Info().Int64("payment_id", pay.ID).Msg("stale checkout reconciled")
	}
	return approved, nil
}
