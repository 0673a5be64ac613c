//go:build !integration

package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"telegram-clinic-bot/internal/domain"
	"telegram-clinic-bot/internal/domain/model"
	"telegram-clinic-bot/internal/domain/ports/adapter"
	"telegram-clinic-bot/internal/domain/ports/repository"
	"telegram-clinic-bot/internal/usecase"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// =============================
// Repositories
// =============================

// MockUserRepo is an in-memory UserRepository keyed by Telegram id.
type MockUserRepo struct {
	mu    sync.Mutex
	users map[int64]*model.User

	SaveErr error
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{users: make(map[int64]*model.User)}
}

func (m *MockUserRepo) Save(ctx context.Context, qx any, u *model.User) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.TelegramID] = &cp
	return nil
}

func (m *MockUserRepo) FindByTelegramID(ctx context.Context, qx any, tgID int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) FindByPhone(ctx context.Context, qx any, phone string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Phone == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserRepo) ListTelegramIDs(ctx context.Context, qx any) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int64, 0, len(m.users))
	for id := range m.users {
		out = append(out, id)
	}
	return out, nil
}

func (m *MockUserRepo) CreditBonus(ctx context.Context, qx any, tgID int64, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[tgID]
	if !ok {
		return domain.ErrNotFound
	}
	u.BonusBalance += amount
	return nil
}

func (m *MockUserRepo) DebitBonus(ctx context.Context, qx any, tgID int64, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[tgID]
	if !ok {
		return domain.ErrNotFound
	}
	if u.BonusBalance < amount {
		return domain.ErrInsufficientBonus
	}
	u.BonusBalance -= amount
	return nil
}

func (m *MockUserRepo) RecordReferral(ctx context.Context, qx any, referrerTG int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[referrerTG]
	if !ok {
		return domain.ErrNotFound
	}
	u.ReferralsAdded++
	u.ReferralsRegistered++
	return nil
}

func (m *MockUserRepo) ActivateTariff(ctx context.Context, qx any, tgID int64, t model.Tariff, start, end time.Time, q model.Quota) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[tgID]
	if !ok {
		return domain.ErrNotFound
	}
	u.Tariff = t
	s, e := start, end
	u.TariffStart = &s
	u.TariffEnd = &e
	u.Quota = q
	return nil
}

func (m *MockUserRepo) DecrementDailyQuota(ctx context.Context, qx any, tgID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[tgID]
	if !ok {
		return domain.ErrNotFound
	}
	if u.Quota.Daily <= 0 {
		return domain.ErrQuotaExhausted
	}
	u.Quota.Daily--
	return nil
}

func (m *MockUserRepo) DeactivateExpired(ctx context.Context, qx any, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range m.users {
		if u.TariffEnd != nil && now.After(*u.TariffEnd) {
			u.Tariff = model.TariffFree
			u.TariffStart, u.TariffEnd = nil, nil
			u.Quota = model.QuotaFor(model.TariffFree, 0)
			n++
		}
	}
	return n, nil
}

func (m *MockUserRepo) CountRegisteredSince(ctx context.Context, qx any, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range m.users {
		if !u.RegisteredAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *MockUserRepo) TouchLastActive(ctx context.Context, qx any, tgID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[tgID]; ok {
		u.LastActiveAt = time.Now()
	}
	return nil
}

// seed installs a registered user and returns its stored copy.
func (m *MockUserRepo) seed(tgID int64, bonus int64) *model.User {
	u, _ := model.NewUser(tgID, "Test Bemor", 1990, "+998901112233", "Toshkent")
	u.BonusBalance = bonus
	_ = m.Save(context.Background(), nil, u)
	return u
}

// MockPaymentRepo is an in-memory PendingPaymentRepository with the same
// conditional-transition behavior as the Postgres implementation.
type MockPaymentRepo struct {
	mu       sync.Mutex
	payments map[int64]*model.PendingPayment
	nextID   int64
}

var _ repository.PendingPaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{payments: make(map[int64]*model.PendingPayment), nextID: 1}
}

func (m *MockPaymentRepo) Create(ctx context.Context, qx any, p *model.PendingPayment) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.nextID
	m.nextID++
	cp := *p
	m.payments[p.ID] = &cp
	return p.ID, nil
}

func (m *MockPaymentRepo) FindByID(ctx context.Context, qx any, id int64) (*model.PendingPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepo) FindLatestOpenByUser(ctx context.Context, qx any, userTG int64) (*model.PendingPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.PendingPayment
	for _, p := range m.payments {
		if p.UserTG != userTG || p.Status.Terminal() {
			continue
		}
		if latest == nil || p.ID > latest.ID {
			latest = p
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *MockPaymentRepo) SetBonus(ctx context.Context, qx any, id int64, bonusApplied, payable int64) error {
	return m.update(id, func(p *model.PendingPayment) {
		p.BonusApplied = bonusApplied
		p.Payable = payable
	})
}

func (m *MockPaymentRepo) SetReceipt(ctx context.Context, qx any, id int64, fileID string) error {
	return m.update(id, func(p *model.PendingPayment) { p.ReceiptFileID = fileID })
}

func (m *MockPaymentRepo) SetPaymentLink(ctx context.Context, qx any, id int64, link string) error {
	return m.update(id, func(p *model.PendingPayment) { p.PaymentLink = link })
}

func (m *MockPaymentRepo) SetPayerLast4(ctx context.Context, qx any, id int64, last4 string) error {
	return m.update(id, func(p *model.PendingPayment) { p.PayerLast4 = last4 })
}

func (m *MockPaymentRepo) SetStatus(ctx context.Context, qx any, id int64, status model.PaymentStatus) error {
	return m.update(id, func(p *model.PendingPayment) { p.Status = status })
}

func (m *MockPaymentRepo) update(id int64, fn func(*model.PendingPayment)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(p)
	return nil
}

func (m *MockPaymentRepo) ApproveIf(ctx context.Context, qx any, id int64, at time.Time) (*model.PendingPayment, error) {
	return m.decide(id, model.PaymentStatusApproved, at)
}

func (m *MockPaymentRepo) DeclineIf(ctx context.Context, qx any, id int64, at time.Time) (*model.PendingPayment, error) {
	return m.decide(id, model.PaymentStatusDeclined, at)
}

func (m *MockPaymentRepo) decide(id int64, to model.PaymentStatus, at time.Time) (*model.PendingPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !p.Status.Reviewable() {
		return nil, domain.ErrInvalidTransition
	}
	p.Status = to
	if to == model.PaymentStatusApproved {
		p.ApprovedAt = &at
	} else {
		p.DeclinedAt = &at
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepo) ListAwaitingPaymentOlderThan(ctx context.Context, qx any, cutoff time.Time, limit int) ([]*model.PendingPayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PendingPayment
	for _, p := range m.payments {
		if p.Status != model.PaymentStatusAwaitingPayment || !p.CreatedAt.Before(cutoff) {
			continue
		}
		if len(out) >= limit {
			break
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockPaymentRepo) SumApprovedBetween(ctx context.Context, qx any, from, to time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, p := range m.payments {
		if p.ApprovedAt == nil {
			continue
		}
		if p.ApprovedAt.Before(from) || p.ApprovedAt.After(to) {
			continue
		}
		sum += p.BasePrice
	}
	return sum, nil
}

// get returns the stored record without copying, for assertions.
func (m *MockPaymentRepo) get(id int64) *model.PendingPayment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payments[id]
}

// MockStateRepo is an in-memory StateRepository.
type MockStateRepo struct {
	mu     sync.Mutex
	states map[int64]*repository.ConversationState
}

var _ repository.StateRepository = (*MockStateRepo)(nil)

func NewMockStateRepo() *MockStateRepo {
	return &MockStateRepo{states: make(map[int64]*repository.ConversationState)}
}

func (m *MockStateRepo) SetState(ctx context.Context, tgID int64, st *repository.ConversationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *st
	if st.Data != nil {
		cp.Data = make(map[string]string, len(st.Data))
		for k, v := range st.Data {
			cp.Data[k] = v
		}
	}
	m.states[tgID] = &cp
	return nil
}

func (m *MockStateRepo) GetState(ctx context.Context, tgID int64) (*repository.ConversationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (m *MockStateRepo) ClearState(ctx context.Context, tgID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, tgID)
	return nil
}

// step reports the stored step, or "" when no state exists.
func (m *MockStateRepo) step(tgID int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[tgID]
	if !ok {
		return ""
	}
	return st.Step
}

// =============================
// Infrastructure
// =============================

// MockLocker hands out locks unconditionally unless Busy is set.
type MockLocker struct {
	mu      sync.Mutex
	Busy    bool
	Locks   []string
	Unlocks int
}

func (m *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Busy {
		return "", domain.ErrUserBusy
	}
	m.Locks = append(m.Locks, key)
	return "token", nil
}

func (m *MockLocker) Unlock(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Unlocks++
	return nil
}

// MockTxManager executes the function inline with a nil tx handle.
type MockTxManager struct {
	Calls int
	Err   error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx any) error) error {
	m.Calls++
	if m.Err != nil {
		return m.Err
	}
	return fn(ctx, nil)
}

// MockFlagStore is an in-memory FlagStore. Missing keys report redis.Nil,
// matching the real client.
type MockFlagStore struct {
	mu    sync.Mutex
	flags map[string]string
}

var _ usecase.FlagStore = (*MockFlagStore)(nil)

func NewMockFlagStore() *MockFlagStore {
	return &MockFlagStore{flags: make(map[string]string)}
}

func (m *MockFlagStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.flags[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *MockFlagStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[key] = "1"
	return nil
}

// =============================
// Adapters
// =============================

type sentMessage struct {
	ChatID int64
	Text   string
}

// MockMessenger records outbound messages and answers membership checks
// from the Members map.
type MockMessenger struct {
	mu      sync.Mutex
	Sent    []sentMessage
	Members map[string]bool
	SendErr error

	IsChatMemberFunc func(ctx context.Context, chat string, userID int64) (bool, error)
}

var _ adapter.Messenger = (*MockMessenger)(nil)

func (m *MockMessenger) SendMessage(ctx context.Context, chatID int64, text string) error {
	if m.SendErr != nil {
		return m.SendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (m *MockMessenger) SendMessageKB(ctx context.Context, chatID int64, text string, kb *adapter.Keyboard) error {
	return m.SendMessage(ctx, chatID, text)
}

func (m *MockMessenger) SendPhoto(ctx context.Context, chatID int64, fileID, caption string, kb *adapter.Keyboard) error {
	return m.SendMessage(ctx, chatID, caption)
}

func (m *MockMessenger) SendInvoice(ctx context.Context, chatID int64, inv adapter.Invoice) error {
	return m.SendMessage(ctx, chatID, inv.Title)
}

func (m *MockMessenger) IsChatMember(ctx context.Context, chat string, userID int64) (bool, error) {
	if m.IsChatMemberFunc != nil {
		return m.IsChatMemberFunc(ctx, chat, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Members[chat], nil
}

func (m *MockMessenger) BotUsername() string { return "clinic_test_bot" }

func (m *MockMessenger) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// MockChain is a configurable LinkCreator.
type MockChain struct {
	Link     string
	Provider string
	Status   adapter.CheckoutStatus

	Verified []string
}

var _ usecase.LinkCreator = (*MockChain)(nil)

func (m *MockChain) CreateLink(ctx context.Context, amount int64, label string, paymentID int64) (string, string) {
	if m.Link == "" {
		return "https://pay.example.com/pay?pid=1", "placeholder"
	}
	return m.Link, m.Provider
}

func (m *MockChain) VerifyLink(ctx context.Context, link string) adapter.CheckoutStatus {
	m.Verified = append(m.Verified, link)
	if m.Status == "" {
		return adapter.CheckoutPending
	}
	return m.Status
}
