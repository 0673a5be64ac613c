package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-clinic-bot/internal/domain/ports/adapter"
	"telegram-clinic-bot/internal/domain/ports/repository"
	"telegram-clinic-bot/internal/infra/metrics"
	"telegram-clinic-bot/internal/infra/worker"
)

// Compile-time check
var _ BroadcastUseCase = (*broadcastUC)(nil)

// BroadcastUseCase fans an admin announcement out to every registered user.
type BroadcastUseCase interface {
	// Broadcast queues the message for delivery and returns the recipient
	// count. Delivery itself is asynchronous.
	Broadcast(ctx context.Context, message string) (int, error)
}

type broadcastUC struct {
	users     repository.UserRepository
	messenger adapter.Messenger
	pool      *worker.Pool
	log       *zerolog.Logger
}

func NewBroadcastUseCase(
	users repository.UserRepository,
	messenger adapter.Messenger,
	pool *worker.Pool,
	log *zerolog.Logger,
) *broadcastUC {
	return &broadcastUC{users: users, messenger: messenger, pool: pool, log: log}
}

func (u *broadcastUC) Broadcast(ctx context.Context, message string) (int, error) {
	ids, err := u.users.ListTelegramIDs(ctx, nil)
	if err != nil {
		u.log.Error().Err(err).Msg("failed to list broadcast recipients")
		return 0, err
	}

	// Throttle to respect the chat API's rate limits (approx. 30 msg/sec).
	throttle := time.NewTicker(time.Second / 25)

	go func() {
		defer throttle.Stop()
		u.log.Info().Int("recipients", len(ids)).Msg("broadcast started")
		for _, id := range ids {
			<-throttle.C
			if err := u.pool.Submit(u.sendTask(id, message)); err != nil {
				metrics.IncBroadcast("dropped")
				u.log.Warn().Err(err).Int64("tg_id", id).Msg("broadcast task not queued")
			}
		}
		u.log.Info().Msg("broadcast finished queuing")
	}()

	return len(ids), nil
}

func (u *broadcastUC) sendTask(tgID int64, message string) worker.Task {
	return func(ctx context.Context) error {
		if err := u.messenger.SendMessage(ctx, tgID, message); err != nil {
			// Typically the user blocked the bot; not a pool-level error.
			metrics.IncBroadcast("failed")
			u.log.Warn().Err(err).Int64("tg_id", tgID).Msg("broadcast send failed")
			return nil
		}
		metrics.IncBroadcast("sent")
		return nil
	}
}
