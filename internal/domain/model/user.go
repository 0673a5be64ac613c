package model

import (
	"time"

	"telegram-clinic-bot/internal/domain"

	"github.com/google/uuid"
)

// User is a domain entity representing a registered clinic patient.
// The bonus balance is the user's redeemable credit in so'm; it is only
// mutated through guarded repository operations.
type User struct {
	ID         string
	TelegramID int64
	FullName   string
	BirthYear  int
	Phone      string
	Address    string

	Tariff      Tariff
	TariffStart *time.Time
	TariffEnd   *time.Time
	Quota       Quota

	ReferredBy          *int64 // referrer's Telegram id
	ReferralsAdded      int
	ReferralsRegistered int
	BonusBalance        int64

	RegisteredAt time.Time
	LastActiveAt time.Time
}

func NewUser(tgID int64, fullName string, birthYear int, phone, address string) (*User, error) {
	if tgID <= 0 || fullName == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:           uuid.NewString(),
		TelegramID:   tgID,
		FullName:     fullName,
		BirthYear:    birthYear,
		Phone:        phone,
		Address:      address,
		Tariff:       TariffFree,
		Quota:        QuotaFor(TariffFree, 0),
		RegisteredAt: now,
		LastActiveAt: now,
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
func (u *User) Touch()       { u.LastActiveAt = time.Now() }

// ActivateTariff sets the tariff window and quota counters unconditionally.
// Repeated activation resets dates and counters: the latest approval wins.
func (u *User) ActivateTariff(t Tariff, durationDays int, now time.Time) {
	end := now.Add(time.Duration(durationDays) * 24 * time.Hour)
	u.Tariff = t
	u.TariffStart = &now
	u.TariffEnd = &end
	u.Quota = QuotaFor(t, durationDays)
}

// TariffExpired reports whether the subscription window has passed.
func (u *User) TariffExpired(now time.Time) bool {
	return u.TariffEnd != nil && now.After(*u.TariffEnd)
}
