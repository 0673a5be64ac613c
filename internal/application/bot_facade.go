package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"telegram-clinic-bot/internal/config"
	"telegram-clinic-bot/internal/domain"
	"telegram-clinic-bot/internal/domain/model"
	"telegram-clinic-bot/internal/domain/ports/adapter"
	"telegram-clinic-bot/internal/domain/ports/repository"
	"telegram-clinic-bot/internal/infra/logging"
	"telegram-clinic-bot/internal/usecase"
)

// stepBroadcast marks an admin who pressed the broadcast button and owes us
// the announcement text.
const stepBroadcast = "admin:broadcast"

// BotFacade composes the use cases into chat handling. The Telegram adapter
// forwards raw events here; the facade owns all routing, texts and
// keyboards, and pushes replies through the Messenger port.
type BotFacade struct {
	cfg       *config.Config
	messenger adapter.Messenger
	state     repository.StateRepository

	registration usecase.RegistrationUseCase
	purchase     usecase.PurchaseUseCase
	checkout     usecase.CheckoutUseCase
	approval     usecase.ApprovalUseCase
	bonus        usecase.BonusUseCase
	question     usecase.QuestionUseCase
	broadcast    usecase.BroadcastUseCase
	stats        usecase.StatsUseCase
	users        usecase.UserUseCase

	log *zerolog.Logger
}

func NewBotFacade(
	cfg *config.Config,
	messenger adapter.Messenger,
	state repository.StateRepository,
	registration usecase.RegistrationUseCase,
	purchase usecase.PurchaseUseCase,
	checkout usecase.CheckoutUseCase,
	approval usecase.ApprovalUseCase,
	bonus usecase.BonusUseCase,
	question usecase.QuestionUseCase,
	broadcast usecase.BroadcastUseCase,
	stats usecase.StatsUseCase,
	users usecase.UserUseCase,
	log *zerolog.Logger,
) *BotFacade {
	return &BotFacade{
		cfg: cfg, messenger: messenger, state: state,
		registration: registration, purchase: purchase, checkout: checkout,
		approval: approval, bonus: bonus, question: question,
		broadcast: broadcast, stats: stats, users: users, log: log,
	}
}

// logger resolves the request-scoped logger. The adapter stamps trace_id and
// tg_id into the context before dispatching here.
func (b *BotFacade) logger(ctx context.Context) *zerolog.Logger {
	return logging.With(ctx, b.log)
}

func (b *BotFacade) send(ctx context.Context, tgID int64, text string) {
	if err := b.messenger.SendMessage(ctx, tgID, text); err != nil {
		b.logger(ctx).Warn().Err(err).Int64("chat_id", tgID).Msg("send failed")
	}
}

func (b *BotFacade) sendKB(ctx context.Context, tgID int64, text string, kb *adapter.Keyboard) {
	if err := b.messenger.SendMessageKB(ctx, tgID, text, kb); err != nil {
		b.logger(ctx).Warn().Err(err).Int64("chat_id", tgID).Msg("send failed")
	}
}

func (b *BotFacade) sendMenu(ctx context.Context, tgID int64, text string) {
	b.sendKB(ctx, tgID, text, mainMenuKeyboard(b.cfg.Bot.Privileged(tgID)))
}

// HandleMessage routes one inbound text message.
func (b *BotFacade) HandleMessage(ctx context.Context, tgID int64, text string) {
	b.users.Touch(ctx, tgID)
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "/start") {
		b.handleStart(ctx, tgID, text)
		return
	}
	if text == btnBack {
		if err := b.purchase.Cancel(ctx, tgID); err != nil {
			b.logger(ctx).Warn().Err(err).Msg("state clear failed")
		}
		b.sendMenu(ctx, tgID, msgBackToMenu)
		return
	}

	st, err := b.state.GetState(ctx, tgID)
	if err == nil && st != nil {
		b.handleStateful(ctx, tgID, st.Step, text)
		return
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		b.logger(ctx).Error().Err(err).Msg("state lookup failed")
		b.send(ctx, tgID, msgGenericError)
		return
	}
	b.handleMenu(ctx, tgID, text)
}

func (b *BotFacade) handleStart(ctx context.Context, tgID int64, text string) {
	registered, err := b.registration.IsRegistered(ctx, tgID)
	if err != nil {
		b.send(ctx, tgID, msgGenericError)
		return
	}
	if registered {
		b.sendMenu(ctx, tgID, msgWelcomeBack)
		return
	}

	var referrer *int64
	if _, payload, found := strings.Cut(text, " "); found {
		// Both payload shapes circulate: "ref_123" and the bare id.
		raw, _ := strings.CutPrefix(payload, "ref_")
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			referrer = &id
		}
	}
	if err := b.registration.Start(ctx, tgID, referrer); err != nil {
		b.send(ctx, tgID, msgGenericError)
		return
	}
	b.send(ctx, tgID, msgAskFullName)
}

func (b *BotFacade) handleStateful(ctx context.Context, tgID int64, step, text string) {
	switch {
	case strings.HasPrefix(step, "reg:"):
		b.advanceRegistration(ctx, tgID, step, text)
	case step == usecase.StepChooseTariff:
		b.chooseTariff(ctx, tgID, text)
	case step == usecase.StepChoosePlan:
		b.send(ctx, tgID, msgUseButtons)
	case step == usecase.StepConfirmPayment:
		b.confirmPayment(ctx, tgID, text)
	case step == usecase.StepConfirmBonus:
		b.confirmBonus(ctx, tgID, text)
	case step == usecase.StepUploadReceipt:
		b.awaitingReceipt(ctx, tgID, text)
	case step == usecase.StepEnterLast4:
		b.enterLast4(ctx, tgID, text)
	case step == usecase.StepAskQuestion:
		b.submitQuestion(ctx, tgID, text)
	case step == stepBroadcast:
		b.runBroadcast(ctx, tgID, text)
	default:
		b.logger(ctx).Warn().Str("step", step).Msg("unknown conversation step")
		_ = b.state.ClearState(ctx, tgID)
		b.sendMenu(ctx, tgID, msgWelcomeBack)
	}
}

func (b *BotFacade) advanceRegistration(ctx context.Context, tgID int64, step, text string) {
	res, err := b.registration.Advance(ctx, tgID, text)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) && step == usecase.StepRegBirthYear {
			b.send(ctx, tgID, msgBadBirth)
			return
		}
		b.send(ctx, tgID, msgGenericError)
		return
	}
	if res.DuplicatePhone {
		b.logger(ctx).Warn().
			Str("phone", logging.Redact(text, b.cfg.Runtime.Dev)).
			Msg("second account registering with a known phone")
		if b.cfg.Bot.AdminID != 0 {
			b.send(ctx, b.cfg.Bot.AdminID,
				fmt.Sprintf("⚠ Diqqat: %s raqami bilan ikkinchi akkaunt ro‘yxatdan o‘tmoqda (tg id %d).", text, tgID))
		}
	}
	if res.User != nil {
		b.sendMenu(ctx, tgID, msgRegistered)
		if res.ReferrerTG != nil {
			b.send(ctx, *res.ReferrerTG,
				fmt.Sprintf("🎉 Do‘stingiz ro‘yxatdan o‘tdi! Hisobingizga %d so‘m bonus qo‘shildi.", res.BonusAmount))
		}
		return
	}
	switch res.NextStep {
	case usecase.StepRegBirthYear:
		b.send(ctx, tgID, msgAskBirth)
	case usecase.StepRegPhone:
		b.send(ctx, tgID, msgAskPhone)
	case usecase.StepRegAddress:
		b.send(ctx, tgID, msgAskAddress)
	}
}

var tariffButtons = map[string]model.Tariff{
	btnTariffPro:       model.TariffPro,
	btnTariffPremium:   model.TariffPremium,
	btnTariffPregnancy: model.TariffPregnancy,
	btnTariffPlanning:  model.TariffPlanning,
}

func (b *BotFacade) chooseTariff(ctx context.Context, tgID int64, text string) {
	t, ok := tariffButtons[text]
	if !ok {
		b.send(ctx, tgID, msgBadTariff)
		return
	}
	plans, err := b.purchase.ChooseTariff(ctx, tgID, t)
	if err != nil {
		b.send(ctx, tgID, msgGenericError)
		return
	}
	prompt := msgChoosePlan
	if t == model.TariffPregnancy {
		prompt = msgChoosePlanPregnancy
	}
	b.sendKB(ctx, tgID, prompt, planKeyboard(t, plans))
}

func (b *BotFacade) confirmPayment(ctx context.Context, tgID int64, text string) {
	switch text {
	case btnUseBonus:
		pay, applicable, err := b.purchase.RequestBonus(ctx, tgID)
		switch {
		case errors.Is(err, domain.ErrInsufficientBonus):
			b.send(ctx, tgID, msgNoBonus)
		case errors.Is(err, domain.ErrNoOpenPayment):
			b.send(ctx, tgID, msgNoOpenPayment)
		case err != nil:
			b.send(ctx, tgID, msgGenericError)
		default:
			b.sendKB(ctx, tgID, fmt.Sprintf(
				"Tarif narxi: %d so‘m\nBonus: %d so‘m\nSiz to‘laysiz: %d so‘m\n\nBonus mablag‘ini ishlatmoqchimisiz?",
				pay.BasePrice, applicable, pay.Payable-applicable), yesNoKeyboard())
		}

	case btnPayDirect:
		pay, err := b.purchase.PayDirect(ctx, tgID)
		if err != nil {
			b.send(ctx, tgID, msgGenericError)
			return
		}
		b.send(ctx, tgID, fmt.Sprintf("Tarif narxi: %d so‘m\n%s (%s) kartasiga to‘lovni amalga oshiring.",
			pay.Payable, b.cfg.Payment.Card, b.cfg.Payment.CardHolder))
		b.sendKB(ctx, tgID, msgSendReceipt, postPaymentKeyboard())

	case btnPayLink:
		pay, link, err := b.checkout.CreateLink(ctx, tgID)
		if err != nil {
			b.send(ctx, tgID, msgGenericError)
			return
		}
		if _, err := b.purchase.PayDirect(ctx, tgID); err != nil {
			b.send(ctx, tgID, msgGenericError)
			return
		}
		b.sendKB(ctx, tgID, fmt.Sprintf("To‘lov summasi: %d so‘m\nHavola orqali to‘lovni amalga oshiring:", pay.Payable),
			&adapter.Keyboard{Inline: true, Rows: [][]adapter.Button{{{Text: "💳 To‘lash", URL: link}}}})
		b.sendKB(ctx, tgID, msgSendReceipt, postPaymentKeyboard())

	case btnInvoice:
		if b.cfg.Payment.ProviderToken == "" {
			b.send(ctx, tgID, msgUseButtons)
			return
		}
		pay, err := b.purchase.PayDirect(ctx, tgID)
		if err != nil {
			b.send(ctx, tgID, msgGenericError)
			return
		}
		inv := adapter.Invoice{
			Title:       pay.Label,
			Description: fmt.Sprintf("%s obunasi", pay.Label),
			Payload:     b.checkout.InvoicePayload(pay),
			Currency:    b.cfg.Payment.Currency,
			Amount:      pay.Payable,
		}
		if err := b.messenger.SendInvoice(ctx, tgID, inv); err != nil {
			b.logger(ctx).Warn().Err(err).Msg("invoice send failed")
			b.send(ctx, tgID, msgGenericError)
		}

	default:
		b.send(ctx, tgID, msgConfirmChoice)
	}
}

func (b *BotFacade) confirmBonus(ctx context.Context, tgID int64, text string) {
	switch text {
	case btnYes:
		pay, err := b.purchase.ConfirmBonus(ctx, tgID, true)
		switch {
		case errors.Is(err, domain.ErrUserBusy):
			b.send(ctx, tgID, msgUserBusy)
		case errors.Is(err, domain.ErrInsufficientBonus):
			b.send(ctx, tgID, msgNoBonus)
		case err != nil:
			b.send(ctx, tgID, msgGenericError)
		case pay.Status == model.PaymentStatusApproved:
			b.sendMenu(ctx, tgID, msgBonusActivated)
		default:
			b.sendKB(ctx, tgID, fmt.Sprintf(
				"Tarif narxi: %d so‘m\nBonus: %d so‘m\nQolgan summa: %d so‘m\n\nIltimos, qolgan summani to‘lang va chekni yuboring.",
				pay.BasePrice, pay.BonusApplied, pay.Payable), postPaymentKeyboard())
		}
	case btnNo:
		if _, err := b.purchase.ConfirmBonus(ctx, tgID, false); err != nil {
			b.send(ctx, tgID, msgGenericError)
			return
		}
		b.sendMenu(ctx, tgID, msgCancelled)
	default:
		b.send(ctx, tgID, msgConfirmYesNo)
	}
}

func (b *BotFacade) awaitingReceipt(ctx context.Context, tgID int64, text string) {
	switch text {
	case btnPaid:
		pay, status, err := b.checkout.ClaimPaid(ctx, tgID)
		if errors.Is(err, domain.ErrInvalidTransition) {
			// No checkout link on this payment: a bank transfer, so the
			// evidence is a receipt photo.
			b.send(ctx, tgID, msgSendReceipt2)
			return
		}
		if err != nil {
			b.send(ctx, tgID, msgGenericError)
			return
		}
		switch status {
		case adapter.CheckoutPaid:
			_ = b.state.ClearState(ctx, tgID)
			b.sendMenu(ctx, tgID, msgPaymentDone)
		case adapter.CheckoutFailed:
			b.send(ctx, tgID, msgClaimNotPaid)
		default:
			_ = b.state.ClearState(ctx, tgID)
			b.send(ctx, tgID, msgClaimQueued)
			b.notifyReviewers(ctx, pay)
		}
	case btnCancel:
		if err := b.purchase.Cancel(ctx, tgID); err != nil {
			b.logger(ctx).Warn().Err(err).Msg("state clear failed")
		}
		b.sendMenu(ctx, tgID, msgCancelled)
	default:
		b.send(ctx, tgID, msgSendReceipt2)
	}
}

// HandlePhoto consumes a photo while a receipt is expected; photos sent
// outside that step are ignored.
func (b *BotFacade) HandlePhoto(ctx context.Context, tgID int64, fileID string) {
	if _, err := b.purchase.AttachReceipt(ctx, tgID, fileID); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return
		}
		b.send(ctx, tgID, msgGenericError)
		return
	}
	b.send(ctx, tgID, msgAskLast4)
}

func (b *BotFacade) enterLast4(ctx context.Context, tgID int64, text string) {
	pay, err := b.purchase.SubmitLast4(ctx, tgID, text)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			b.send(ctx, tgID, msgBadLast4)
			return
		}
		b.send(ctx, tgID, msgGenericError)
		return
	}
	b.notifyReviewers(ctx, pay)
	b.sendMenu(ctx, tgID, msgSentToAdmin)
}

// notifyReviewers forwards the evidence bundle to the admin and the doctor
// with approve/decline buttons.
func (b *BotFacade) notifyReviewers(ctx context.Context, pay *model.PendingPayment) {
	user, err := b.users.Get(ctx, pay.UserTG)
	if err != nil {
		b.logger(ctx).Error().Err(err).Int64("payer", pay.UserTG).Msg("payer lookup failed")
		return
	}
	caption := fmt.Sprintf(
		"💳 Yangi to‘lov\n\nFoydalanuvchi: %s\nTelefon: %s\nTarif: %s\nNarx: %d so‘m\nBonus: %d so‘m\nTo‘lov: %d so‘m",
		user.FullName, user.Phone, pay.Label, pay.BasePrice, pay.BonusApplied, pay.Payable)
	if pay.PayerLast4 != "" {
		caption += fmt.Sprintf("\nKarta oxirgi 4 raqami: %s", pay.PayerLast4)
	}
	if pay.PaymentLink != "" {
		caption += fmt.Sprintf("\nHavola: %s", pay.PaymentLink)
	}

	kb := decisionKeyboard(pay.ID)
	for _, reviewer := range []int64{b.cfg.Bot.AdminID, b.cfg.Bot.DoctorID} {
		if reviewer == 0 {
			continue
		}
		var err error
		if pay.ReceiptFileID != "" {
			err = b.messenger.SendPhoto(ctx, reviewer, pay.ReceiptFileID, caption, kb)
		} else {
			err = b.messenger.SendMessageKB(ctx, reviewer, caption, kb)
		}
		if err != nil {
			b.logger(ctx).Warn().Err(err).Int64("reviewer", reviewer).Int64("payment_id", pay.ID).
				Msg("reviewer notification failed")
		}
	}
}

func (b *BotFacade) submitQuestion(ctx context.Context, tgID int64, text string) {
	q, err := b.question.Submit(ctx, tgID, text)
	if err != nil {
		if errors.Is(err, domain.ErrQuotaExhausted) {
			b.send(ctx, tgID, msgQuotaExhausted)
			return
		}
		b.send(ctx, tgID, msgGenericError)
		return
	}
	if b.cfg.Bot.DoctorID != 0 {
		b.send(ctx, b.cfg.Bot.DoctorID, fmt.Sprintf(
			"🩺 Yangi savol\n\nBemor: %s\nTelefon: %s\nTarif: %s\n\n%s",
			q.User.FullName, q.User.Phone, q.User.Tariff, q.Text))
	}
	b.sendMenu(ctx, tgID, msgQuestionSent)
}

func (b *BotFacade) runBroadcast(ctx context.Context, tgID int64, text string) {
	_ = b.state.ClearState(ctx, tgID)
	n, err := b.broadcast.Broadcast(ctx, text)
	if err != nil {
		b.send(ctx, tgID, msgGenericError)
		return
	}
	if n == 0 {
		// Nobody to reach; echo a test copy so the admin sees the rendering.
		b.send(ctx, tgID, text)
		b.sendMenu(ctx, tgID, "Hech kim topilmadi, sinov nusxasi yuborildi.")
		return
	}
	b.sendMenu(ctx, tgID, fmt.Sprintf("✅ Xabar %d ta foydalanuvchiga yuborilmoqda.", n))
}

func (b *BotFacade) handleMenu(ctx context.Context, tgID int64, text string) {
	switch text {
	case btnBuyTariff:
		if err := b.purchase.Start(ctx, tgID); err != nil {
			if errors.Is(err, domain.ErrNotRegistered) {
				b.send(ctx, tgID, msgNotRegistered)
				return
			}
			b.send(ctx, tgID, msgGenericError)
			return
		}
		b.sendKB(ctx, tgID, msgTariffOverview, tariffKeyboard())

	case btnMyTariff:
		b.showMyTariff(ctx, tgID)

	case btnAskQuestion:
		if err := b.question.Start(ctx, tgID); err != nil {
			switch {
			case errors.Is(err, domain.ErrNotRegistered):
				b.send(ctx, tgID, msgNotRegistered)
			case errors.Is(err, domain.ErrQuotaExhausted):
				b.send(ctx, tgID, msgQuotaExhausted)
			default:
				b.send(ctx, tgID, msgGenericError)
			}
			return
		}
		b.send(ctx, tgID, msgAskYourText)

	case btnReferral:
		b.showReferral(ctx, tgID)

	case btnSocials:
		amount, err := b.bonus.ClaimSocial(ctx, tgID)
		switch {
		case errors.Is(err, domain.ErrAlreadyExists):
			b.send(ctx, tgID, msgSocialsDup)
		case errors.Is(err, domain.ErrOperationFailed):
			b.send(ctx, tgID, fmt.Sprintf("%s\n\nKanal: %s\nGuruh: %s",
				msgSocialsJoin, b.cfg.Social.Channel, b.cfg.Social.Group))
		case errors.Is(err, domain.ErrNotRegistered):
			b.send(ctx, tgID, msgNotRegistered)
		case err != nil:
			b.send(ctx, tgID, msgGenericError)
		default:
			b.send(ctx, tgID, fmt.Sprintf("%s\n+%d so‘m", msgSocialsDone, amount))
		}

	case btnRedeem:
		code, amount, err := b.bonus.RedeemClinic(ctx, tgID)
		switch {
		case errors.Is(err, domain.ErrInsufficientBonus):
			b.send(ctx, tgID, msgRedeemEmpty)
		case errors.Is(err, domain.ErrNotRegistered):
			b.send(ctx, tgID, msgNotRegistered)
		case errors.Is(err, domain.ErrUserBusy):
			b.send(ctx, tgID, msgUserBusy)
		case err != nil:
			b.send(ctx, tgID, msgGenericError)
		default:
			b.send(ctx, tgID, fmt.Sprintf(
				"🎟 Promo-kod: %s\nSumma: %d so‘m\n\nKodni klinika administratoriga ko‘rsating.", code, amount))
		}

	case btnBroadcast:
		if !b.cfg.Bot.Privileged(tgID) {
			b.sendMenu(ctx, tgID, msgWelcomeBack)
			return
		}
		if err := b.state.SetState(ctx, tgID, &repository.ConversationState{Step: stepBroadcast, Data: map[string]string{}}); err != nil {
			b.send(ctx, tgID, msgGenericError)
			return
		}
		b.send(ctx, tgID, msgBroadcastAsk)

	case btnReport:
		if !b.cfg.Bot.Privileged(tgID) {
			b.sendMenu(ctx, tgID, msgWelcomeBack)
			return
		}
		b.sendReport(ctx, tgID)

	default:
		b.sendMenu(ctx, tgID, msgWelcomeBack)
	}
}

func (b *BotFacade) showMyTariff(ctx context.Context, tgID int64) {
	user, err := b.users.Get(ctx, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotRegistered) {
			b.send(ctx, tgID, msgNotRegistered)
			return
		}
		b.send(ctx, tgID, msgGenericError)
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "👤 %s\n\nTarif: %s\n", user.FullName, user.Tariff)
	if user.TariffEnd != nil {
		fmt.Fprintf(&sb, "Amal qilish muddati: %s\n", user.TariffEnd.Format("02.01.2006"))
	}
	fmt.Fprintf(&sb, "Bugungi savollar: %d\nBonus balans: %d so‘m", user.Quota.Daily, user.BonusBalance)
	b.send(ctx, tgID, sb.String())
}

func (b *BotFacade) showReferral(ctx context.Context, tgID int64) {
	user, err := b.users.Get(ctx, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotRegistered) {
			b.send(ctx, tgID, msgNotRegistered)
			return
		}
		b.send(ctx, tgID, msgGenericError)
		return
	}
	link := b.bonus.ReferralLink(b.messenger.BotUsername(), tgID)
	b.send(ctx, tgID, fmt.Sprintf(
		"🎁 Sizning referal havolangiz:\n%s\n\nTaklif qilinganlar: %d\nRo‘yxatdan o‘tganlar: %d\n\nHar bir ro‘yxatdan o‘tgan do‘stingiz uchun %d so‘m bonus olasiz.",
		link, user.ReferralsAdded, user.ReferralsRegistered, b.cfg.Bonus.Referral))
}

func (b *BotFacade) sendReport(ctx context.Context, tgID int64) {
	to := time.Now()
	windows := []struct {
		name string
		days int
	}{
		{"24 soat", 1},
		{"7 kun", 7},
		{"30 kun", 30},
	}
	var sb strings.Builder
	sb.WriteString("📊 Hisobot\n")
	for _, w := range windows {
		rep, err := b.stats.Report(ctx, to.Add(-time.Duration(w.days)*24*time.Hour), to)
		if err != nil {
			b.send(ctx, tgID, msgGenericError)
			return
		}
		fmt.Fprintf(&sb, "\nSo‘nggi %s:\nYangi foydalanuvchilar: %d\nTushum: %d so‘m\n",
			w.name, rep.NewUsers, rep.Revenue)
	}
	b.send(ctx, tgID, sb.String())
}

// SendDailyReport pushes the periodic summary to the admin. The scheduler
// calls this on its report interval.
func (b *BotFacade) SendDailyReport(ctx context.Context) {
	if b.cfg.Bot.AdminID == 0 {
		return
	}
	b.sendReport(ctx, b.cfg.Bot.AdminID)
}

// HandleCallback routes one inline-button press and returns the short text
// to acknowledge the press with.
func (b *BotFacade) HandleCallback(ctx context.Context, tgID int64, data string) string {
	if t, p, ok := parsePlanCallback(data); ok {
		return b.planSelected(ctx, tgID, t, p)
	}
	if action, paymentID, ok := usecase.ParseDecision(data); ok {
		return b.decide(ctx, tgID, action, paymentID)
	}
	return ""
}

func (b *BotFacade) planSelected(ctx context.Context, tgID int64, t model.Tariff, p model.Plan) string {
	pay, _, err := b.purchase.ChoosePlan(ctx, tgID, p)
	if err != nil {
		if errors.Is(err, domain.ErrPlanNotFound) {
			return msgPlanNotFound
		}
		// A stale keyboard press outside the flow; stay quiet.
		b.logger(ctx).Debug().Str("tariff", string(t)).Str("plan", string(p)).
			Err(err).Msg("plan callback ignored")
		return ""
	}
	b.sendKB(ctx, tgID, fmt.Sprintf(
		"✅ Siz tanladingiz:\n%s\nNarx: %d so‘m\n\nTo‘lov turini tanlang:", pay.Label, pay.BasePrice),
		confirmPaymentKeyboard(b.cfg.Payment.ProviderToken != ""))
	return ""
}

func (b *BotFacade) decide(ctx context.Context, tgID int64, action string, paymentID int64) string {
	if !b.cfg.Bot.Privileged(tgID) {
		return msgNoPermission
	}
	switch action {
	case "approve":
		pay, err := b.approval.Approve(ctx, paymentID)
		switch {
		case errors.Is(err, domain.ErrInvalidTransition):
			return msgAlreadyDecided
		case errors.Is(err, domain.ErrNotFound):
			return msgPaymentNotFound
		case err != nil:
			return msgGenericError
		}
		b.sendMenu(ctx, pay.UserTG, msgPaymentDone)
		return msgApproved
	case "decline":
		pay, err := b.approval.Decline(ctx, paymentID)
		switch {
		case errors.Is(err, domain.ErrInvalidTransition):
			return msgAlreadyDecided
		case errors.Is(err, domain.ErrNotFound):
			return msgPaymentNotFound
		case err != nil:
			return msgGenericError
		}
		b.send(ctx, pay.UserTG, msgPaymentFailed)
		return msgDeclined
	}
	return ""
}

// HandleSuccessfulPayment finalizes a platform-native invoice payment.
func (b *BotFacade) HandleSuccessfulPayment(ctx context.Context, tgID int64, payload string) {
	pay, err := b.checkout.OnInvoicePaid(ctx, payload)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			// Already finalized, e.g. by an admin decision racing the callback.
			return
		}
		b.logger(ctx).Error().Err(err).Str("payload", payload).Msg("invoice finalization failed")
		b.send(ctx, tgID, msgGenericError)
		return
	}
	_ = b.state.ClearState(ctx, tgID)
	b.sendMenu(ctx, pay.UserTG, msgPaymentDone)
}
