package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-clinic-bot/internal/domain"
	"telegram-clinic-bot/internal/domain/ports/adapter"
	"telegram-clinic-bot/internal/domain/ports/repository"
	redisinfra "telegram-clinic-bot/internal/infra/redis"
)

// SocialChats names the channel and group a user must join for the
// subscription bonus.
type SocialChats struct {
	Channel string
	Group   string
}

// FlagStore keeps small one-time markers. Satisfied by the Redis client.
type FlagStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// Compile-time check
var _ BonusUseCase = (*bonusUC)(nil)

// BonusUseCase covers earning and spending bonus credit outside a
// purchase: the social-subscription bonus, referral links, and converting
// the balance into a clinic promo code.
type BonusUseCase interface {
	// ReferralLink builds the user's personal deep link.
	ReferralLink(botUsername string, tgID int64) string
	// ClaimSocial verifies channel and group membership and credits the
	// one-time bonus. Returns domain.ErrAlreadyExists on a repeat claim and
	// domain.ErrOperationFailed when membership does not check out.
	ClaimSocial(ctx context.Context, tgID int64) (int64, error)
	// RedeemClinic converts the entire bonus balance into a promo code
	// presentable at the clinic. The balance must be positive.
	RedeemClinic(ctx context.Context, tgID int64) (code string, amount int64, err error)
}

type bonusUC struct {
	users     repository.UserRepository
	messenger adapter.Messenger
	locker    redisinfra.Locker
	flags     FlagStore
	chats     SocialChats
	socialSum int64
	log       *zerolog.Logger
}

func NewBonusUseCase(
	users repository.UserRepository,
	messenger adapter.Messenger,
	locker redisinfra.Locker,
	flags FlagStore,
	chats SocialChats,
	socialSum int64,
	log *zerolog.Logger,
) *bonusUC {
	return &bonusUC{
		users: users, messenger: messenger, locker: locker, flags: flags,
		chats: chats, socialSum: socialSum, log: log,
	}
}

func (u *bonusUC) ReferralLink(botUsername string, tgID int64) string {
	return fmt.Sprintf("https://t.me/%s?start=ref_%d", botUsername, tgID)
}

func socialFlagKey(tgID int64) string {
	return fmt.Sprintf("social_bonus:%d", tgID)
}

func (u *bonusUC) ClaimSocial(ctx context.Context, tgID int64) (int64, error) {
	if _, err := u.users.FindByTelegramID(ctx, nil, tgID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrNotRegistered
		}
		return 0, err
	}
	if _, err := u.flags.Get(ctx, socialFlagKey(tgID)); err == nil {
		return 0, domain.ErrAlreadyExists
	} else if !redisinfra.IsNil(err) {
		return 0, err
	}

	for _, chat := range []string{u.chats.Channel, u.chats.Group} {
		if chat == "" {
			continue
		}
		member, err := u.messenger.IsChatMember(ctx, chat, tgID)
		if err != nil {
			return 0, err
		}
		if !member {
			return 0, domain.ErrOperationFailed
		}
	}

	if err := u.users.CreditBonus(ctx, nil, tgID, u.socialSum); err != nil {
		return 0, err
	}
	// The flag never expires: the bonus is strictly one-time.
	if err := u.flags.Set(ctx, socialFlagKey(tgID), "1", 0); err != nil {
		u.log.Warn().Err(err).Int64("tg_id", tgID).Msg("social bonus flag write failed")
	}
	u.log.Info().Int64("tg_id", tgID).Int64("amount", u.socialSum).Msg("social bonus credited")
	return u.socialSum, nil
}

func (u *bonusUC) RedeemClinic(ctx context.Context, tgID int64) (string, int64, error) {
	key := redisinfra.UserLockKey(tgID)
	token, err := u.locker.TryLock(ctx, key, financialLockTTL)
	if err != nil {
		return "", 0, err
	}
	defer func() {
		if uerr := u.locker.Unlock(ctx, key, token); uerr != nil {
			u.log.Warn().Err(uerr).Int64("tg_id", tgID).Msg("financial lock release failed")
		}
	}()

	user, err := u.users.FindByTelegramID(ctx, nil, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", 0, domain.ErrNotRegistered
		}
		return "", 0, err
	}
	amount := user.BonusBalance
	if amount <= 0 {
		return "", 0, domain.ErrInsufficientBonus
	}
	code, err := generatePromoCode()
	if err != nil {
		return "", 0, err
	}
	if err := u.users.DebitBonus(ctx, nil, tgID, amount); err != nil {
		return "", 0, err
	}
	u.log.Info().Int64("tg_id", tgID).Int64("amount", amount).Msg("bonus redeemed as clinic promo code")
	return code, amount, nil
}
