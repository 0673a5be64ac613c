package usecase

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"telegram-clinic-bot/internal/domain"
	"telegram-clinic-bot/internal/domain/model"
	"telegram-clinic-bot/internal/domain/ports/repository"
	"telegram-clinic-bot/internal/infra/metrics"
)

// Registration flow steps.
const (
	StepRegFullName  = "reg:full_name"
	StepRegBirthYear = "reg:birth_year"
	StepRegPhone     = "reg:phone"
	StepRegAddress   = "reg:address"
)

// RegistrationResult tells the caller what to render next. User is set only
// when registration just completed.
type RegistrationResult struct {
	NextStep string
	User     *model.User
	// DuplicatePhone flags that the entered phone already belongs to another
	// account. Registration proceeds anyway; staff get an alert.
	DuplicatePhone bool
	// ReferrerTG is set on completion when the user arrived via a referral
	// link and the referrer was credited.
	ReferrerTG  *int64
	BonusAmount int64
}

// Compile-time check
var _ RegistrationUseCase = (*registrationUC)(nil)

// RegistrationUseCase runs the four-step intake conversation. Answers
// accumulate in conversational state and become a stored user only on the
// final step.
type RegistrationUseCase interface {
	Start(ctx context.Context, tgID int64, referrerTG *int64) error
	// Advance consumes one text answer for the current step.
	Advance(ctx context.Context, tgID int64, input string) (*RegistrationResult, error)
	// IsRegistered reports whether the user already completed intake.
	IsRegistered(ctx context.Context, tgID int64) (bool, error)
}

type registrationUC struct {
	users       repository.UserRepository
	state       repository.StateRepository
	referralSum int64
	log         *zerolog.Logger
}

func NewRegistrationUseCase(
	users repository.UserRepository,
	state repository.StateRepository,
	referralSum int64,
	log *zerolog.Logger,
) *registrationUC {
	return &registrationUC{users: users, state: state, referralSum: referralSum, log: log}
}

func (u *registrationUC) IsRegistered(ctx context.Context, tgID int64) (bool, error) {
	_, err := u.users.FindByTelegramID(ctx, nil, tgID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (u *registrationUC) Start(ctx context.Context, tgID int64, referrerTG *int64) error {
	registered, err := u.IsRegistered(ctx, tgID)
	if err != nil {
		return err
	}
	if registered {
		return domain.ErrAlreadyExists
	}
	data := map[string]string{}
	// Self-referrals are ignored.
	if referrerTG != nil && *referrerTG != tgID {
		data["referrer"] = strconv.FormatInt(*referrerTG, 10)
	}
	return u.state.SetState(ctx, tgID, &repository.ConversationState{
		Step: StepRegFullName,
		Data: data,
	})
}

func (u *registrationUC) Advance(ctx context.Context, tgID int64, input string) (*RegistrationResult, error) {
	st, err := u.state.GetState(ctx, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidTransition
		}
		return nil, err
	}
	if input == "" {
		return nil, domain.ErrInvalidArgument
	}

	switch st.Step {
	case StepRegFullName:
		st.Data["full_name"] = input
		st.Step = StepRegBirthYear
		if err := u.state.SetState(ctx, tgID, st); err != nil {
			return nil, err
		}
		return &RegistrationResult{NextStep: StepRegBirthYear}, nil

	case StepRegBirthYear:
		year, err := strconv.Atoi(input)
		if err != nil || year < 1900 || year > time.Now().Year() {
			return nil, domain.ErrInvalidArgument
		}
		st.Data["birth_year"] = input
		st.Step = StepRegPhone
		if err := u.state.SetState(ctx, tgID, st); err != nil {
			return nil, err
		}
		return &RegistrationResult{NextStep: StepRegPhone}, nil

	case StepRegPhone:
		dup := false
		if _, err := u.users.FindByPhone(ctx, nil, input); err == nil {
			dup = true
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		st.Data["phone"] = input
		st.Step = StepRegAddress
		if err := u.state.SetState(ctx, tgID, st); err != nil {
			return nil, err
		}
		return &RegistrationResult{NextStep: StepRegAddress, DuplicatePhone: dup}, nil

	case StepRegAddress:
		return u.finish(ctx, tgID, st, input)

	default:
		return nil, domain.ErrInvalidTransition
	}
}

func (u *registrationUC) finish(ctx context.Context, tgID int64, st *repository.ConversationState, address string) (*RegistrationResult, error) {
	year, _ := strconv.Atoi(st.Data["birth_year"])
	user, err := model.NewUser(tgID, st.Data["full_name"], year, st.Data["phone"], address)
	if err != nil {
		return nil, err
	}

	res := &RegistrationResult{User: user}
	if raw, ok := st.Data["referrer"]; ok {
		if ref, err := strconv.ParseInt(raw, 10, 64); err == nil {
			user.ReferredBy = &ref
		}
	}
	if err := u.users.Save(ctx, nil, user); err != nil {
		return nil, err
	}
	metrics.IncUsersRegistered()

	// Credit the referrer only after the referred user is durably stored.
	// A failed credit does not fail registration.
	if user.ReferredBy != nil {
		ref := *user.ReferredBy
		if err := u.users.CreditBonus(ctx, nil, ref, u.referralSum); err != nil {
			u.log.Warn().Err(err).Int64("referrer", ref).Msg("referral bonus credit failed")
		} else {
			if err := u.users.RecordReferral(ctx, nil, ref); err != nil {
				u.log.Warn().Err(err).Int64("referrer", ref).Msg("referral counter update failed")
			}
			res.ReferrerTG = &ref
			res.BonusAmount = u.referralSum
		}
	}

	if err := u.state.ClearState(ctx, tgID); err != nil {
		return nil, err
	}
	u.log.Info().Int64("tg_id", tgID).Msg("user registered")
	return res, nil
}
