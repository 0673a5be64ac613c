package model

import (
	"time"

	"telegram-clinic-bot/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusAwaitingReceipt PaymentStatus = "awaiting_receipt" // created, waiting for bank-transfer evidence
	PaymentStatusAwaitingPayment PaymentStatus = "awaiting_payment" // checkout link issued, waiting for provider
	PaymentStatusUnderReview     PaymentStatus = "under_review"     // receipt uploaded, staff reviewing
	PaymentStatusAwaitingReview  PaymentStatus = "awaiting_review"  // user claims a link payment, staff reviewing
	PaymentStatusApproved        PaymentStatus = "approved"
	PaymentStatusDeclined        PaymentStatus = "declined"
)

// reviewableStatuses are the states an approve/decline decision may act on.
// Transitions out of approved/declined are never allowed.
var reviewableStatuses = map[PaymentStatus]struct{}{
	PaymentStatusAwaitingReceipt: {},
	PaymentStatusAwaitingPayment: {},
	PaymentStatusUnderReview:     {},
	PaymentStatusAwaitingReview:  {},
}

func (s PaymentStatus) Reviewable() bool {
	_, ok := reviewableStatuses[s]
	return ok
}

func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusApproved || s == PaymentStatusDeclined
}

// PendingPayment tracks one purchase attempt from plan selection to
// approval or decline. It references the owner by Telegram id, not by the
// internal user id.
type PendingPayment struct {
	ID     int64
	UserTG int64

	Tariff Tariff
	Plan   Plan
	Label  string

	BasePrice    int64
	BonusApplied int64
	Payable      int64

	Status PaymentStatus

	// Evidence. A receipt file id and a checkout link are distinct things and
	// are stored separately.
	ReceiptFileID string
	PaymentLink   string
	PayerLast4    string

	CreatedAt  time.Time
	ApprovedAt *time.Time
	DeclinedAt *time.Time
}

// NewPendingPayment prices the selected pair and builds a fresh record with
// the full price payable.
func NewPendingPayment(userTG int64, t Tariff, p Plan) (*PendingPayment, error) {
	price, ok := PriceOf(t, p)
	if !ok {
		return nil, domain.ErrPlanNotFound
	}
	return &PendingPayment{
		UserTG:    userTG,
		Tariff:    t,
		Plan:      p,
		Label:     HumanLabel(t, p),
		BasePrice: price,
		Payable:   price,
		Status:    PaymentStatusAwaitingReceipt,
		CreatedAt: time.Now(),
	}, nil
}

// ApplyBonus records a bonus deduction, keeping bonus+payable == base.
func (p *PendingPayment) ApplyBonus(amount int64) error {
	if amount < 0 || amount > p.BasePrice {
		return domain.ErrInvalidArgument
	}
	p.BonusApplied = amount
	p.Payable = p.BasePrice - amount
	return nil
}

// DurationDays resolves the activation duration from the plan variant.
func (p *PendingPayment) DurationDays() (int, bool) {
	return DurationDays(p.Plan)
}

// ValidLast4 reports whether s is exactly four decimal digits.
func ValidLast4(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
