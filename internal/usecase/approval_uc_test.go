//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-clinic-bot/internal/domain"
	"telegram-clinic-bot/internal/domain/model"
	"telegram-clinic-bot/internal/usecase"
)

type approvalDeps struct {
	users    *MockUserRepo
	payments *MockPaymentRepo
	locker   *MockLocker
	tm       *MockTxManager
	uc       usecase.ApprovalUseCase
}

func newApprovalDeps() *approvalDeps {
	d := &approvalDeps{
		users:    NewMockUserRepo(),
		payments: NewMockPaymentRepo(),
		locker:   &MockLocker{},
		tm:       &MockTxManager{},
	}
	d.uc = usecase.NewApprovalUseCase(d.users, d.payments, d.tm, d.locker, "UZS", testLogger())
	return d
}

func (d *approvalDeps) seedPayment(t *testing.T, tgID int64, tariff model.Tariff, plan model.Plan) *model.PendingPayment {
	t.Helper()
	p, err := model.NewPendingPayment(tgID, tariff, plan)
	if err != nil {
		t.Fatalf("NewPendingPayment: %v", err)
	}
	if _, err := d.payments.Create(context.Background(), nil, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return p
}

func TestApprove(t *testing.T) {
	ctx := context.Background()

	t.Run("activates the purchased tariff window and quota", func(t *testing.T) {
		d := newApprovalDeps()
		d.users.seed(42, 0)
		p := d.seedPayment(t, 42, model.TariffPremium, model.PlanMonth)

		decided, err := d.uc.Approve(ctx, p.ID)
		if err != nil {
			t.Fatalf("Approve: %v", err)
		}
		if decided.Status != model.PaymentStatusApproved || decided.ApprovedAt == nil {
			t.Fatalf("status = %s approvedAt = %v", decided.Status, decided.ApprovedAt)
		}

		user, _ := d.users.FindByTelegramID(ctx, nil, 42)
		if user.Tariff != model.TariffPremium {
			t.Fatalf("tariff = %s", user.Tariff)
		}
		if user.Quota.Daily != 49 {
			t.Fatalf("daily quota = %d", user.Quota.Daily)
		}
		days := user.TariffEnd.Sub(*user.TariffStart)
		if days != 30*24*time.Hour {
			t.Fatalf("window = %v", days)
		}
		if d.tm.Calls != 1 {
			t.Fatalf("tx calls = %d", d.tm.Calls)
		}
	})

	t.Run("full-term pregnancy plan runs 280 days", func(t *testing.T) {
		d := newApprovalDeps()
		d.users.seed(42, 0)
		p := d.seedPayment(t, 42, model.TariffPregnancy, model.PlanMonth9)

		if _, err := d.uc.Approve(ctx, p.ID); err != nil {
			t.Fatalf("Approve: %v", err)
		}
		user, _ := d.users.FindByTelegramID(ctx, nil, 42)
		if got := user.TariffEnd.Sub(*user.TariffStart); got != 280*24*time.Hour {
			t.Fatalf("window = %v", got)
		}
		if user.Quota.Daily != 22 {
			t.Fatalf("daily quota = %d", user.Quota.Daily)
		}
	})

	t.Run("second decision on a decided payment is rejected", func(t *testing.T) {
		d := newApprovalDeps()
		d.users.seed(42, 0)
		p := d.seedPayment(t, 42, model.TariffPro, model.PlanWeek)

		if _, err := d.uc.Approve(ctx, p.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := d.uc.Approve(ctx, p.ID); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("double approve: want ErrInvalidTransition, got %v", err)
		}
		if _, err := d.uc.Decline(ctx, p.ID); !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("decline after approve: want ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("unknown payment", func(t *testing.T) {
		d := newApprovalDeps()
		if _, err := d.uc.Approve(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("want ErrNotFound, got %v", err)
		}
	})

	t.Run("busy lock defers the decision", func(t *testing.T) {
		d := newApprovalDeps()
		d.users.seed(42, 0)
		p := d.seedPayment(t, 42, model.TariffPro, model.PlanWeek)
		d.locker.Busy = true
		if _, err := d.uc.Approve(ctx, p.ID); !errors.Is(err, domain.ErrUserBusy) {
			t.Fatalf("want ErrUserBusy, got %v", err)
		}
		if got := d.payments.get(p.ID).Status; got != model.PaymentStatusAwaitingReceipt {
			t.Fatalf("status changed to %s", got)
		}
	})
}

func TestDecline(t *testing.T) {
	ctx := context.Background()
	d := newApprovalDeps()
	d.users.seed(42, 0)
	p := d.seedPayment(t, 42, model.TariffPro, model.PlanWeek)

	decided, err := d.uc.Decline(ctx, p.ID)
	if err != nil {
		t.Fatalf("Decline: %v", err)
	}
	if decided.Status != model.PaymentStatusDeclined || decided.DeclinedAt == nil {
		t.Fatalf("status = %s declinedAt = %v", decided.Status, decided.DeclinedAt)
	}
	// Declining never touches the subscription.
	user, _ := d.users.FindByTelegramID(ctx, nil, 42)
	if user.Tariff != model.TariffFree {
		t.Fatalf("tariff = %s", user.Tariff)
	}
}

func TestParseDecision(t *testing.T) {
	cases := []struct {
		data   string
		action string
		id     int64
		ok     bool
	}{
		{"approve_12", "approve", 12, true},
		{"approve:12", "approve", 12, true},
		{"decline_7", "decline", 7, true},
		{"decline:7", "decline", 7, true},
		{"approve_", "", 0, false},
		{"approve_abc", "", 0, false},
		{"pro_1week", "", 0, false},
		{"", "", 0, false},
	}
	for _, tc := range cases {
		action, id, ok := usecase.ParseDecision(tc.data)
		if action != tc.action || id != tc.id || ok != tc.ok {
			t.Errorf("ParseDecision(%q) = (%q, %d, %v), want (%q, %d, %v)",
				tc.data, action, id, ok, tc.action, tc.id, tc.ok)
		}
	}
}
