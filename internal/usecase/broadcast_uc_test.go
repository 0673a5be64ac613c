//go:build !integration

package usecase_test

import (
	"context"
	"testing"
	"time"

	"telegram-clinic-bot/internal/infra/worker"
	"telegram-clinic-bot/internal/usecase"
)

func TestBroadcast(t *testing.T) {
	ctx := context.Background()

	t.Run("reaches every registered user", func(t *testing.T) {
		users := NewMockUserRepo()
		for i := int64(1); i <= 3; i++ {
			users.seed(i, 0)
		}
		messenger := &MockMessenger{}
		pool := worker.NewPool(2, testLogger())
		pool.Start(ctx)
		defer pool.Stop()

		uc := usecase.NewBroadcastUseCase(users, messenger, pool, testLogger())
		n, err := uc.Broadcast(ctx, "Yangilik: ish vaqti o'zgardi")
		if err != nil {
			t.Fatalf("Broadcast: %v", err)
		}
		if n != 3 {
			t.Fatalf("recipients = %d", n)
		}

		deadline := time.Now().Add(2 * time.Second)
		for messenger.sentCount() < 3 {
			if time.Now().After(deadline) {
				t.Fatalf("delivered %d of 3", messenger.sentCount())
			}
			time.Sleep(10 * time.Millisecond)
		}
	})

	t.Run("send failures do not stop the fan-out", func(t *testing.T) {
		users := NewMockUserRepo()
		users.seed(1, 0)
		users.seed(2, 0)
		messenger := &MockMessenger{SendErr: context.DeadlineExceeded}
		pool := worker.NewPool(1, testLogger())
		pool.Start(ctx)
		defer pool.Stop()

		uc := usecase.NewBroadcastUseCase(users, messenger, pool, testLogger())
		n, err := uc.Broadcast(ctx, "xabar")
		if err != nil {
			t.Fatalf("Broadcast: %v", err)
		}
		if n != 2 {
			t.Fatalf("recipients = %d", n)
		}
	})

	t.Run("empty audience", func(t *testing.T) {
		users := NewMockUserRepo()
		messenger := &MockMessenger{}
		pool := worker.NewPool(1, testLogger())
		pool.Start(ctx)
		defer pool.Stop()

		uc := usecase.NewBroadcastUseCase(users, messenger, pool, testLogger())
		n, err := uc.Broadcast(ctx, "xabar")
		if err != nil {
			t.Fatalf("Broadcast: %v", err)
		}
		if n != 0 {
			t.Fatalf("recipients = %d", n)
		}
	})
}
