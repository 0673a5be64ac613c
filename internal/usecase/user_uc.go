package usecase

import (
	"context"
	"errors"

	"telegram-clinic-bot/internal/domain"
	"telegram-clinic-bot/internal/domain/model"
	"telegram-clinic-bot/internal/domain/ports/repository"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase is the thin read side used for profile and tariff views.
type UserUseCase interface {
	Get(ctx context.Context, tgID int64) (*model.User, error)
	// Touch records activity; failures are swallowed.
	Touch(ctx context.Context, tgID int64)
}

type userUC struct {
	users repository.UserRepository
}

func NewUserUseCase(users repository.UserRepository) *userUC {
	return &userUC{users: users}
}

func (u *userUC) Get(ctx context.Context, tgID int64) (*model.User, error) {
	user, err := u.users.FindByTelegramID(ctx, nil, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotRegistered
		}
		return nil, err
	}
	return user, nil
}

func (u *userUC) Touch(ctx context.Context, tgID int64) {
	_ = u.users.TouchLastActive(ctx, nil, tgID)
}
