package repository

import (
	"context"
	"time"

	"telegram-clinic-bot/internal/domain/model"
)

// PendingPaymentRepository persists purchase attempts.
type PendingPaymentRepository interface {
	// Create inserts the record and returns its generated id.
	Create(ctx context.Context, qx any, p *model.PendingPayment) (int64, error)
	FindByID(ctx context.Context, qx any, id int64) (*model.PendingPayment, error)
	// FindLatestOpenByUser returns the newest record for the user in any
	// non-terminal status, or domain.ErrNotFound.
	FindLatestOpenByUser(ctx context.Context, qx any, userTG int64) (*model.PendingPayment, error)

	SetBonus(ctx context.Context, qx any, id int64, bonusApplied, payable int64) error
	SetReceipt(ctx context.Context, qx any, id int64, fileID string) error
	SetPaymentLink(ctx context.Context, qx any, id int64, link string) error
	SetPayerLast4(ctx context.Context, qx any, id int64, last4 string) error
	SetStatus(ctx context.Context, qx any, id int64, status model.PaymentStatus) error

	// ApproveIf flips the record to approved and stamps approved_at only when
	// its current status is still reviewable. The predicate runs in the store,
	// so two racing decisions cannot both pass. Returns the updated record or
	// domain.ErrInvalidTransition.
	ApproveIf(ctx context.Context, qx any, id int64, at time.Time) (*model.PendingPayment, error)
	// DeclineIf is the mirror conditional transition to declined.
	DeclineIf(ctx context.Context, qx any, id int64, at time.Time) (*model.PendingPayment, error)

	// ListAwaitingPaymentOlderThan returns records stuck in awaiting_payment
	// since before the cutoff, oldest first, at most limit of them.
	ListAwaitingPaymentOlderThan(ctx context.Context, qx any, cutoff time.Time, limit int) ([]*model.PendingPayment, error)

	// SumApprovedBetween totals base prices of payments approved in the window.
	SumApprovedBetween(ctx context.Context, qx any, from, to time.Time) (int64, error)
}
