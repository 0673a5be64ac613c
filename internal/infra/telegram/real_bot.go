package telegram

import (
	"context"
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"telegram-clinic-bot/internal/config"
	"telegram-clinic-bot/internal/domain/ports/adapter"
	"telegram-clinic-bot/internal/infra/logging"
	"telegram-clinic-bot/internal/infra/metrics"
)

// Facade is the inbound surface the adapter feeds updates into.
type Facade interface {
	HandleMessage(ctx context.Context, tgID int64, text string)
	HandlePhoto(ctx context.Context, tgID int64, fileID string)
	HandleCallback(ctx context.Context, tgID int64, data string) string
	HandleSuccessfulPayment(ctx context.Context, tgID int64, payload string)
}

// RealBot polls Telegram and fans updates out to a worker pool. It also
// implements adapter.Messenger for the outbound direction.
type RealBot struct {
	bot    *tgbotapi.BotAPI
	cfg    *config.BotConfig
	pay    *config.PaymentConfig
	facade Facade
	log    *zerolog.Logger

	workers       int
	cancelPolling context.CancelFunc
}

var _ adapter.Messenger = (*RealBot)(nil)

func NewRealBot(cfg *config.BotConfig, pay *config.PaymentConfig, log *zerolog.Logger) (*RealBot, error) {
	if cfg == nil || cfg.Token == "" {
		return nil, errors.New("bot token is not configured")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}
	return &RealBot{bot: bot, cfg: cfg, pay: pay, log: log, workers: workers}, nil
}

// SetFacade wires the update handler. Separate from the constructor because
// the facade itself needs the Messenger.
func (r *RealBot) SetFacade(f Facade) { r.facade = f }

func (r *RealBot) BotUsername() string {
	if r.cfg.Username != "" {
		return r.cfg.Username
	}
	return r.bot.Self.UserName
}

// StartPolling runs until ctx is canceled.
func (r *RealBot) StartPolling(ctx context.Context) error {
	if r.facade == nil {
		return errors.New("facade is not set")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for {
				select {
				case update, ok := <-updateChan:
					if !ok {
						return
					}
					r.handleUpdate(ctx, update)
				case <-ctx.Done():
					return
				}
			}
		}(i + 1)
	}

	go func() {
		defer close(updateChan)
		for {
			select {
			case update := <-updates:
				select {
				case updateChan <- update:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	<-ctx.Done()
	r.bot.StopReceivingUpdates()
	wg.Wait()
	return nil
}

func (r *RealBot) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

func (r *RealBot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	ctx = logging.WithTraceID(ctx, ulid.Make().String())

	switch {
	case update.PreCheckoutQuery != nil:
		metrics.IncTelegramUpdate("pre_checkout")
		// The payload is validated on the successful-payment signal; here we
		// only confirm the checkout may proceed.
		if _, err := r.bot.Request(tgbotapi.PreCheckoutConfig{
			PreCheckoutQueryID: update.PreCheckoutQuery.ID,
			OK:                 true,
		}); err != nil {
			r.log.Warn().Err(err).Msg("pre-checkout answer failed")
		}

	case update.CallbackQuery != nil:
		metrics.IncTelegramUpdate("callback")
		cb := update.CallbackQuery
		ctx = logging.WithTgID(ctx, cb.From.ID)
		ack := r.facade.HandleCallback(ctx, cb.From.ID, cb.Data)
		if _, err := r.bot.Request(tgbotapi.NewCallback(cb.ID, ack)); err != nil {
			r.log.Warn().Err(err).Msg("callback answer failed")
		}

	case update.Message != nil && update.Message.SuccessfulPayment != nil:
		metrics.IncTelegramUpdate("successful_payment")
		ctx = logging.WithTgID(ctx, update.Message.From.ID)
		r.facade.HandleSuccessfulPayment(ctx, update.Message.From.ID, update.Message.SuccessfulPayment.InvoicePayload)

	case update.Message != nil && len(update.Message.Photo) > 0:
		metrics.IncTelegramUpdate("photo")
		ctx = logging.WithTgID(ctx, update.Message.From.ID)
		// The last size is the largest.
		photo := update.Message.Photo[len(update.Message.Photo)-1]
		r.facade.HandlePhoto(ctx, update.Message.From.ID, photo.FileID)

	case update.Message != nil && update.Message.From != nil:
		metrics.IncTelegramUpdate("message")
		ctx = logging.WithTgID(ctx, update.Message.From.ID)
		text := update.Message.Text
		// A shared contact stands in for a typed phone number.
		if update.Message.Contact != nil {
			text = update.Message.Contact.PhoneNumber
		}
		r.facade.HandleMessage(ctx, update.Message.From.ID, text)
	}
}

// ---- outbound (adapter.Messenger) ----

func (r *RealBot) SendMessage(ctx context.Context, chatID int64, text string) error {
	return r.SendMessageKB(ctx, chatID, text, nil)
}

func (r *RealBot) SendMessageKB(ctx context.Context, chatID int64, text string, kb *adapter.Keyboard) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup := renderKeyboard(kb); markup != nil {
		msg.ReplyMarkup = markup
	}
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealBot) SendPhoto(ctx context.Context, chatID int64, fileID, caption string, kb *adapter.Keyboard) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
	photo.Caption = caption
	if markup := renderKeyboard(kb); markup != nil {
		photo.ReplyMarkup = markup
	}
	_, err := r.bot.Send(photo)
	return err
}

func (r *RealBot) SendInvoice(ctx context.Context, chatID int64, inv adapter.Invoice) error {
	if r.pay.ProviderToken == "" {
		return errors.New("payments provider token is not configured")
	}
	cfg := tgbotapi.NewInvoice(chatID, inv.Title, inv.Description, inv.Payload,
		r.pay.ProviderToken, "", inv.Currency, invoicePrices(inv))
	_, err := r.bot.Send(cfg)
	return err
}

// invoicePrices builds the single price line of an invoice. UZS has no minor
// unit on the Telegram side, so the so'm amount passes through unscaled.
func invoicePrices(inv adapter.Invoice) []tgbotapi.LabeledPrice {
	return []tgbotapi.LabeledPrice{{Label: inv.Title, Amount: int(inv.Amount)}}
}

func (r *RealBot) IsChatMember(ctx context.Context, chat string, userID int64) (bool, error) {
	member, err := r.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			SuperGroupUsername: chat,
			UserID:             userID,
		},
	})
	if err != nil {
		return false, err
	}
	switch member.Status {
	case "creator", "administrator", "member":
		return true, nil
	}
	return false, nil
}
