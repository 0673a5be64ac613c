package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"telegram-clinic-bot/internal/domain"
	"telegram-clinic-bot/internal/domain/model"
	"telegram-clinic-bot/internal/domain/ports/repository"
)

// StepAskQuestion marks a user who pressed "ask a question" and owes us the
// question text.
const StepAskQuestion = "question:awaiting_text"

// Question is a submitted patient question ready for doctor dispatch.
type Question struct {
	User *model.User
	Text string
}

// Compile-time check
var _ QuestionUseCase = (*questionUC)(nil)

// QuestionUseCase consumes quota and prepares patient questions for the
// doctor. The daily counter is decremented by the store, so two concurrent
// questions cannot both pass on the last remaining slot.
type QuestionUseCase interface {
	Start(ctx context.Context, tgID int64) error
	Submit(ctx context.Context, tgID int64, text string) (*Question, error)
}

type questionUC struct {
	users repository.UserRepository
	state repository.StateRepository
	log   *zerolog.Logger
}

func NewQuestionUseCase(
	users repository.UserRepository,
	state repository.StateRepository,
	log *zerolog.Logger,
) *questionUC {
	return &questionUC{users: users, state: state, log: log}
}

func (u *questionUC) Start(ctx context.Context, tgID int64) error {
	user, err := u.users.FindByTelegramID(ctx, nil, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotRegistered
		}
		return err
	}
	if user.Quota.Daily <= 0 {
		return domain.ErrQuotaExhausted
	}
	return u.state.SetState(ctx, tgID, &repository.ConversationState{
		Step: StepAskQuestion,
		Data: map[string]string{},
	})
}

func (u *questionUC) Submit(ctx context.Context, tgID int64, text string) (*Question, error) {
	st, err := u.state.GetState(ctx, tgID)
	if err != nil || st.Step != StepAskQuestion {
		return nil, domain.ErrInvalidTransition
	}
	if text == "" {
		return nil, domain.ErrInvalidArgument
	}
	user, err := u.users.FindByTelegramID(ctx, nil, tgID)
	if err != nil {
		return nil, err
	}
	if err := u.users.DecrementDailyQuota(ctx, nil, tgID); err != nil {
		return nil, err
	}
	if err := u.state.ClearState(ctx, tgID); err != nil {
		return nil, err
	}
	u.log.Info().Int64("tg_id", tgID).Msg("question accepted")
	return &Question{User: user, Text: text}, nil
}
