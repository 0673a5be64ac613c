package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-clinic-bot/internal/domain/ports/adapter"
)

// renderKeyboard converts the transport-neutral keyboard into the tgbotapi
// markup. Returns nil for a nil or empty keyboard.
func renderKeyboard(kb *adapter.Keyboard) interface{} {
	if kb == nil || len(kb.Rows) == 0 {
		return nil
	}
	if kb.Inline {
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb.Rows))
		for _, row := range kb.Rows {
			btns := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
			for _, b := range row {
				switch {
				case b.URL != "":
					btns = append(btns, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
				default:
					btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
				}
			}
			rows = append(rows, btns)
		}
		return tgbotapi.NewInlineKeyboardMarkup(rows...)
	}

	rows := make([][]tgbotapi.KeyboardButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		btns := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, b := range row {
			btns = append(btns, tgbotapi.NewKeyboardButton(b.Text))
		}
		rows = append(rows, btns)
	}
	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.ResizeKeyboard = true
	return markup
}
