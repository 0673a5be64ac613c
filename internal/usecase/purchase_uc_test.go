//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"telegram-clinic-bot/internal/domain"
	"telegram-clinic-bot/internal/domain/model"
	"telegram-clinic-bot/internal/usecase"
)

type purchaseDeps struct {
	users    *MockUserRepo
	payments *MockPaymentRepo
	state    *MockStateRepo
	locker   *MockLocker
	tm       *MockTxManager
	uc       usecase.PurchaseUseCase
	approval usecase.ApprovalUseCase
}

func newPurchaseDeps() *purchaseDeps {
	d := &purchaseDeps{
		users:    NewMockUserRepo(),
		payments: NewMockPaymentRepo(),
		state:    NewMockStateRepo(),
		locker:   &MockLocker{},
		tm:       &MockTxManager{},
	}
	d.approval = usecase.NewApprovalUseCase(d.users, d.payments, d.tm, d.locker, "UZS", testLogger())
	d.uc = usecase.NewPurchaseUseCase(d.users, d.payments, d.state, d.locker, d.approval, testLogger())
	return d
}

// startAt walks the flow from Start to the confirm-payment step for the
// given pair and returns the created payment.
func (d *purchaseDeps) startAt(t *testing.T, tgID int64, tariff model.Tariff, plan model.Plan) *model.PendingPayment {
	t.Helper()
	ctx := context.Background()
	if err := d.uc.Start(ctx, tgID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := d.uc.ChooseTariff(ctx, tgID, tariff); err != nil {
		t.Fatalf("ChooseTariff: %v", err)
	}
	pay, _, err := d.uc.ChoosePlan(ctx, tgID, plan)
	if err != nil {
		t.Fatalf("ChoosePlan: %v", err)
	}
	return pay
}

func TestPurchaseStart(t *testing.T) {
	ctx := context.Background()

	t.Run("unregistered user is rejected", func(t *testing.T) {
		d := newPurchaseDeps()
		if err := d.uc.Start(ctx, 42); !errors.Is(err, domain.ErrNotRegistered) {
			t.Fatalf("want ErrNotRegistered, got %v", err)
		}
	})

	t.Run("registered user enters tariff selection", func(t *testing.T) {
		d := newPurchaseDeps()
		d.users.seed(42, 0)
		if err := d.uc.Start(ctx, 42); err != nil {
			t.Fatalf("Start: %v", err)
		}
		if got := d.state.step(42); got != "purchase:choose_tariff" {
			t.Fatalf("step = %q", got)
		}
	})
}

func TestPurchaseChoosePlan(t *testing.T) {
	ctx := context.Background()

	t.Run("prices the pair and reports the bonus balance", func(t *testing.T) {
		d := newPurchaseDeps()
		d.users.seed(42, 25000)
		if err := d.uc.Start(ctx, 42); err != nil {
			t.Fatal(err)
		}
		if _, err := d.uc.ChooseTariff(ctx, 42, model.TariffPro); err != nil {
			t.Fatal(err)
		}
		pay, balance, err := d.uc.ChoosePlan(ctx, 42, model.PlanWeek)
		if err != nil {
			t.Fatalf("ChoosePlan: %v", err)
		}
		if pay.BasePrice != 19000 || pay.Payable != 19000 {
			t.Fatalf("price = %d payable = %d", pay.BasePrice, pay.Payable)
		}
		if balance != 25000 {
			t.Fatalf("balance = %d", balance)
		}
		if pay.Status != model.PaymentStatusAwaitingReceipt {
			t.Fatalf("status = %s", pay.Status)
		}
		if got := d.state.step(42); got != "purchase:confirm_payment" {
			t.Fatalf("step = %q", got)
		}
	})

	t.Run("unknown tariff has no plans", func(t *testing.T) {
		d := newPurchaseDeps()
		d.users.seed(42, 0)
		if err := d.uc.Start(ctx, 42); err != nil {
			t.Fatal(err)
		}
		if _, err := d.uc.ChooseTariff(ctx, 42, model.TariffFree); !errors.Is(err, domain.ErrPlanNotFound) {
			t.Fatalf("want ErrPlanNotFound, got %v", err)
		}
	})

	t.Run("plan press without prior steps is stale", func(t *testing.T) {
		d := newPurchaseDeps()
		d.users.seed(42, 0)
		if _, _, err := d.uc.ChoosePlan(ctx, 42, model.PlanWeek); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("want ErrInvalidTransition, got %v", err)
		}
	})
}

func TestPurchaseReceiptFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("receipt then last4 completes the evidence bundle", func(t *testing.T) {
		d := newPurchaseDeps()
		d.users.seed(42, 0)
		created := d.startAt(t, 42, model.TariffPro, model.PlanWeek)

		if _, err := d.uc.PayDirect(ctx, 42); err != nil {
			t.Fatalf("PayDirect: %v", err)
		}
		pay, err := d.uc.AttachReceipt(ctx, 42, "file-123")
		if err != nil {
			t.Fatalf("AttachReceipt: %v", err)
		}
		if pay.Status != model.PaymentStatusUnderReview {
			t.Fatalf("status = %s", pay.Status)
		}
		if got := d.state.step(42); got != "purchase:enter_last4" {
			t.Fatalf("step = %q", got)
		}

		pay, err = d.uc.SubmitLast4(ctx, 42, "0042")
		if err != nil {
			t.Fatalf("SubmitLast4: %v", err)
		}
		stored := d.payments.get(created.ID)
		if stored.ReceiptFileID != "file-123" || stored.PayerLast4 != "0042" {
			t.Fatalf("evidence = %q %q", stored.ReceiptFileID, stored.PayerLast4)
		}
		if got := d.state.step(42); got != "" {
			t.Fatalf("state not cleared, step = %q", got)
		}
	})

	t.Run("last4 must be four digits", func(t *testing.T) {
		for _, bad := range []string{"12a4", "123", "12345", ""} {
			d := newPurchaseDeps()
			d.users.seed(42, 0)
			d.startAt(t, 42, model.TariffPro, model.PlanWeek)
			if _, err := d.uc.PayDirect(ctx, 42); err != nil {
				t.Fatal(err)
			}
			if _, err := d.uc.AttachReceipt(ctx, 42, "f"); err != nil {
				t.Fatal(err)
			}
			if _, err := d.uc.SubmitLast4(ctx, 42, bad); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("last4 %q: want ErrInvalidArgument, got %v", bad, err)
			}
		}
	})

	t.Run("receipt before confirmation step is rejected", func(t *testing.T) {
		d := newPurchaseDeps()
		d.users.seed(42, 0)
		d.startAt(t, 42, model.TariffPro, model.PlanWeek)
		if _, err := d.uc.AttachReceipt(ctx, 42, "f"); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("want ErrInvalidTransition, got %v", err)
		}
	})
}

func TestPurchaseBonus(t *testing.T) {
	ctx := context.Background()

	t.Run("partial bonus reduces payable and proceeds to receipt", func(t *testing.T) {
		d := newPurchaseDeps()
		d.users.seed(42, 25000)
		created := d.startAt(t, 42, model.TariffPremium, model.PlanMonth) // 99000

		pay, applicable, err := d.uc.RequestBonus(ctx, 42)
		if err != nil {
			t.Fatalf("RequestBonus: %v", err)
		}
		if applicable != 25000 {
			t.Fatalf("applicable = %d", applicable)
		}
		if pay.ID != created.ID {
			t.Fatalf("payment id = %d", pay.ID)
		}

		pay, err = d.uc.ConfirmBonus(ctx, 42, true)
		if err != nil {
			t.Fatalf("ConfirmBonus: %v", err)
		}
		if pay.BonusApplied != 25000 || pay.Payable != 74000 {
			t.Fatalf("bonus = %d payable = %d", pay.BonusApplied, pay.Payable)
		}
		user, _ := d.users.FindByTelegramID(ctx, nil, 42)
		if user.BonusBalance != 0 {
			t.Fatalf("balance = %d", user.BonusBalance)
		}
		if got := d.state.step(42); got != "purchase:upload_receipt" {
			t.Fatalf("step = %q", got)
		}
	})

	t.Run("full coverage approves and activates on the spot", func(t *testing.T) {
		d := newPurchaseDeps()
		d.users.seed(42, 100000)
		created := d.startAt(t, 42, model.TariffPro, model.PlanWeek) // 19000

		if _, _, err := d.uc.RequestBonus(ctx, 42); err != nil {
			t.Fatal(err)
		}
		pay, err := d.uc.ConfirmBonus(ctx, 42, true)
		if err != nil {
			t.Fatalf("ConfirmBonus: %v", err)
		}
		if pay.Status != model.PaymentStatusApproved {
			t.Fatalf("status = %s", pay.Status)
		}
		stored := d.payments.get(created.ID)
		if stored.Payable != 0 || stored.BonusApplied != 19000 {
			t.Fatalf("payable = %d bonus = %d", stored.Payable, stored.BonusApplied)
		}
		user, _ := d.users.FindByTelegramID(ctx, nil, 42)
		if user.BonusBalance != 81000 {
			t.Fatalf("balance = %d", user.BonusBalance)
		}
		if user.Tariff != model.TariffPro {
			t.Fatalf("tariff = %s", user.Tariff)
		}
		if got := d.state.step(42); got != "" {
			t.Fatalf("state not cleared, step = %q", got)
		}
	})

	t.Run("declining the bonus question declines the payment", func(t *testing.T) {
		d := newPurchaseDeps()
		d.users.seed(42, 25000)
		created := d.startAt(t, 42, model.TariffPro, model.PlanWeek)

		if _, _, err := d.uc.RequestBonus(ctx, 42); err != nil {
			t.Fatal(err)
		}
		pay, err := d.uc.ConfirmBonus(ctx, 42, false)
		if err != nil {
			t.Fatalf("ConfirmBonus: %v", err)
		}
		if pay.Status != model.PaymentStatusDeclined {
			t.Fatalf("status = %s", pay.Status)
		}
		if pay.DeclinedAt == nil {
			t.Fatal("DeclinedAt not stamped")
		}
		// No money moved.
		user, _ := d.users.FindByTelegramID(ctx, nil, 42)
		if user.BonusBalance != 25000 {
			t.Fatalf("balance = %d", user.BonusBalance)
		}
		if got := d.payments.get(created.ID).Status; got != model.PaymentStatusDeclined {
			t.Fatalf("stored status = %s", got)
		}
		if got := d.state.step(42); got != "" {
			t.Fatalf("state not cleared, step = %q", got)
		}
	})

	t.Run("zero balance cannot request the bonus", func(t *testing.T) {
		d := newPurchaseDeps()
		d.users.seed(42, 0)
		d.startAt(t, 42, model.TariffPro, model.PlanWeek)
		if _, _, err := d.uc.RequestBonus(ctx, 42); !errors.Is(err, domain.ErrInsufficientBonus) {
			t.Fatalf("want ErrInsufficientBonus, got %v", err)
		}
	})

	t.Run("busy financial lock aborts the debit", func(t *testing.T) {
		d := newPurchaseDeps()
		d.users.seed(42, 25000)
		d.startAt(t, 42, model.TariffPro, model.PlanWeek)
		if _, _, err := d.uc.RequestBonus(ctx, 42); err != nil {
			t.Fatal(err)
		}
		d.locker.Busy = true
		if _, err := d.uc.ConfirmBonus(ctx, 42, true); !errors.Is(err, domain.ErrUserBusy) {
			t.Fatalf("want ErrUserBusy, got %v", err)
		}
		user, _ := d.users.FindByTelegramID(ctx, nil, 42)
		if user.BonusBalance != 25000 {
			t.Fatalf("balance = %d", user.BonusBalance)
		}
	})
}

func TestPurchaseCancel(t *testing.T) {
	ctx := context.Background()
	d := newPurchaseDeps()
	d.users.seed(42, 0)
	d.startAt(t, 42, model.TariffPro, model.PlanWeek)

	if err := d.uc.Cancel(ctx, 42); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got := d.state.step(42); got != "" {
		t.Fatalf("step = %q", got)
	}
	// The open payment stays in place and can still be decided by staff.
	if _, err := d.payments.FindLatestOpenByUser(ctx, nil, 42); err != nil {
		t.Fatalf("open payment gone: %v", err)
	}
}
