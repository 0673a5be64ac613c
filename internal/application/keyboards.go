package application

import (
	"fmt"

	"telegram-clinic-bot/internal/domain/model"
	"telegram-clinic-bot/internal/domain/ports/adapter"
)

// planCallbacks maps inline callback data to its tariff/plan pair. The data
// values are long-lived: they may arrive from keyboards sent before a
// deploy, so they never change shape.
var planCallbacks = map[string]struct {
	Tariff model.Tariff
	Plan   model.Plan
}{
	"pro_1week":           {model.TariffPro, model.PlanWeek},
	"pro_1month":          {model.TariffPro, model.PlanMonth},
	"premium_1week":       {model.TariffPremium, model.PlanWeek},
	"premium_1month":      {model.TariffPremium, model.PlanMonth},
	"homiladorlik_1month": {model.TariffPregnancy, model.PlanMonth1},
	"homiladorlik_9month": {model.TariffPregnancy, model.PlanMonth9},
	"farzand_1week":       {model.TariffPlanning, model.PlanWeek},
	"farzand_1month":      {model.TariffPlanning, model.PlanMonth},
}

var planCallbackData = map[model.Tariff]map[model.Plan]string{
	model.TariffPro:       {model.PlanWeek: "pro_1week", model.PlanMonth: "pro_1month"},
	model.TariffPremium:   {model.PlanWeek: "premium_1week", model.PlanMonth: "premium_1month"},
	model.TariffPregnancy: {model.PlanMonth1: "homiladorlik_1month", model.PlanMonth9: "homiladorlik_9month"},
	model.TariffPlanning:  {model.PlanWeek: "farzand_1week", model.PlanMonth: "farzand_1month"},
}

var planButtonLabel = map[model.Plan]string{
	model.PlanWeek:   "1 haftalik",
	model.PlanMonth:  "1 oylik",
	model.PlanMonth1: "Homiladorlik 1 oy",
	model.PlanMonth9: "Homiladorlik 9 oy",
}

func parsePlanCallback(data string) (model.Tariff, model.Plan, bool) {
	pair, ok := planCallbacks[data]
	return pair.Tariff, pair.Plan, ok
}

func mainMenuKeyboard(privileged bool) *adapter.Keyboard {
	rows := [][]adapter.Button{
		{{Text: btnBuyTariff}, {Text: btnMyTariff}},
		{{Text: btnAskQuestion}, {Text: btnReferral}},
		{{Text: btnSocials}, {Text: btnRedeem}},
	}
	if privileged {
		rows = append(rows, []adapter.Button{{Text: btnBroadcast}, {Text: btnReport}})
	}
	return &adapter.Keyboard{Rows: rows}
}

func tariffKeyboard() *adapter.Keyboard {
	return &adapter.Keyboard{Rows: [][]adapter.Button{
		{{Text: btnTariffPro}, {Text: btnTariffPremium}},
		{{Text: btnTariffPregnancy}, {Text: btnTariffPlanning}},
		{{Text: btnBack}},
	}}
}

func planKeyboard(t model.Tariff, plans []model.Plan) *adapter.Keyboard {
	var row []adapter.Button
	for _, p := range plans {
		row = append(row, adapter.Button{
			Text: planButtonLabel[p],
			Data: planCallbackData[t][p],
		})
	}
	return &adapter.Keyboard{Inline: true, Rows: [][]adapter.Button{row}}
}

func confirmPaymentKeyboard(invoiceEnabled bool) *adapter.Keyboard {
	rows := [][]adapter.Button{
		{{Text: btnUseBonus}, {Text: btnPayDirect}},
		{{Text: btnPayLink}},
	}
	if invoiceEnabled {
		rows = append(rows, []adapter.Button{{Text: btnInvoice}})
	}
	rows = append(rows, []adapter.Button{{Text: btnBack}})
	return &adapter.Keyboard{Rows: rows}
}

func yesNoKeyboard() *adapter.Keyboard {
	return &adapter.Keyboard{Rows: [][]adapter.Button{
		{{Text: btnYes}, {Text: btnNo}},
	}}
}

func postPaymentKeyboard() *adapter.Keyboard {
	return &adapter.Keyboard{Rows: [][]adapter.Button{
		{{Text: btnPaid}},
		{{Text: btnCancel}, {Text: btnBack}},
	}}
}

func decisionKeyboard(paymentID int64) *adapter.Keyboard {
	return &adapter.Keyboard{Inline: true, Rows: [][]adapter.Button{{
		{Text: btnApprove, Data: fmt.Sprintf("approve_%d", paymentID)},
		{Text: btnDecline, Data: fmt.Sprintf("decline_%d", paymentID)},
	}}}
}
