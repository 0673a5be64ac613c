//go:build !integration

package usecase_test

import (
	"context"
	"testing"
	"time"

	"telegram-clinic-bot/internal/domain/model"
	"telegram-clinic-bot/internal/usecase"
)

func TestStatsReport(t *testing.T) {
	ctx := context.Background()
	users := NewMockUserRepo()
	payments := NewMockPaymentRepo()
	uc := usecase.NewStatsUseCase(users, payments, testLogger())

	users.seed(1, 0)
	users.seed(2, 0)

	// One approval inside the window, one outside.
	now := time.Now()
	inWindow, _ := model.NewPendingPayment(1, model.TariffPro, model.PlanWeek)
	_, _ = payments.Create(ctx, nil, inWindow)
	if _, err := payments.ApproveIf(ctx, nil, inWindow.ID, now.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	old, _ := model.NewPendingPayment(2, model.TariffPremium, model.PlanMonth)
	_, _ = payments.Create(ctx, nil, old)
	if _, err := payments.ApproveIf(ctx, nil, old.ID, now.Add(-48*time.Hour)); err != nil {
		t.Fatal(err)
	}

	rep, err := uc.Report(ctx, now.Add(-24*time.Hour), now)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if rep.NewUsers != 2 {
		t.Fatalf("new users = %d", rep.NewUsers)
	}
	if rep.Revenue != 19000 {
		t.Fatalf("revenue = %d", rep.Revenue)
	}
}

func TestDeactivateExpired(t *testing.T) {
	ctx := context.Background()
	users := NewMockUserRepo()
	uc := usecase.NewStatsUseCase(users, NewMockPaymentRepo(), testLogger())

	expired := users.seed(1, 0)
	start := time.Now().Add(-40 * 24 * time.Hour)
	end := time.Now().Add(-10 * 24 * time.Hour)
	expired.Tariff = model.TariffPro
	expired.TariffStart, expired.TariffEnd = &start, &end
	_ = users.Save(ctx, nil, expired)

	active := users.seed(2, 0)
	aStart := time.Now()
	aEnd := time.Now().Add(20 * 24 * time.Hour)
	active.Tariff = model.TariffPremium
	active.TariffStart, active.TariffEnd = &aStart, &aEnd
	_ = users.Save(ctx, nil, active)

	n, err := uc.DeactivateExpired(ctx)
	if err != nil {
		t.Fatalf("DeactivateExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("reset count = %d", n)
	}
	u1, _ := users.FindByTelegramID(ctx, nil, 1)
	if u1.Tariff != model.TariffFree {
		t.Fatalf("expired user tariff = %s", u1.Tariff)
	}
	u2, _ := users.FindByTelegramID(ctx, nil, 2)
	if u2.Tariff != model.TariffPremium {
		t.Fatalf("active user tariff = %s", u2.Tariff)
	}
}
