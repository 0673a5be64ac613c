package model

// Tariff is a subscription tier granting a question quota.
type Tariff string

const (
	TariffFree      Tariff = "free"
	TariffPro       Tariff = "pro"
	TariffPremium   Tariff = "premium"
	TariffPregnancy Tariff = "pregnancy"
	TariffPlanning  Tariff = "planning"
)

// Plan is a billing duration variant within a tariff. The duration is part of
// the variant itself, so nothing downstream ever infers days from a label.
type Plan string

const (
	PlanWeek   Plan = "week"
	PlanMonth  Plan = "month"
	PlanMonth1 Plan = "month1" // pregnancy: one month
	PlanMonth9 Plan = "month9" // pregnancy: full term
)

var planDays = map[Plan]int{
	PlanWeek:   7,
	PlanMonth:  30,
	PlanMonth1: 30,
	PlanMonth9: 280,
}

// DurationDays returns the plan duration, or ok=false for an unknown plan.
func DurationDays(p Plan) (int, bool) {
	d, ok := planDays[p]
	return d, ok
}

type priceKey struct {
	T Tariff
	P Plan
}

// Prices in so'm. A pair absent here is a user-facing "plan not found",
// never a default price.
var priceTable = map[priceKey]int64{
	{TariffPro, PlanWeek}:         19000,
	{TariffPro, PlanMonth}:        59000,
	{TariffPremium, PlanWeek}:     29000,
	{TariffPremium, PlanMonth}:    99000,
	{TariffPregnancy, PlanMonth1}: 79000,
	{TariffPregnancy, PlanMonth9}: 349000,
	{TariffPlanning, PlanWeek}:    59000,
	{TariffPlanning, PlanMonth}:   199000,
}

var humanLabel = map[priceKey]string{
	{TariffPro, PlanWeek}:         "Pro — 1 haftalik",
	{TariffPro, PlanMonth}:        "Pro — 1 oylik",
	{TariffPremium, PlanWeek}:     "Premium — 1 haftalik",
	{TariffPremium, PlanMonth}:    "Premium — 1 oylik",
	{TariffPregnancy, PlanMonth1}: "Homiladorlik — 1 oylik",
	{TariffPregnancy, PlanMonth9}: "Homiladorlik — 9 oylik",
	{TariffPlanning, PlanWeek}:    "Farzand rejalash — 1 haftalik",
	{TariffPlanning, PlanMonth}:   "Farzand rejalash — 1 oylik",
}

// PriceOf returns the price for a tariff/plan pair, or ok=false when the pair
// is not sold.
func PriceOf(t Tariff, p Plan) (int64, bool) {
	v, ok := priceTable[priceKey{t, p}]
	return v, ok
}

// HumanLabel returns the display name of a tariff/plan pair, or "" when absent.
func HumanLabel(t Tariff, p Plan) string {
	return humanLabel[priceKey{t, p}]
}

// PlansFor lists the plans sold for a tariff, in presentation order.
func PlansFor(t Tariff) []Plan {
	switch t {
	case TariffPregnancy:
		return []Plan{PlanMonth1, PlanMonth9}
	case TariffPro, TariffPremium, TariffPlanning:
		return []Plan{PlanWeek, PlanMonth}
	default:
		return nil
	}
}

// ParseTariff maps a stored code to its variant.
func ParseTariff(s string) (Tariff, bool) {
	switch Tariff(s) {
	case TariffFree, TariffPro, TariffPremium, TariffPregnancy, TariffPlanning:
		return Tariff(s), true
	}
	return "", false
}

// ParsePlan maps a stored code to its variant.
func ParsePlan(s string) (Plan, bool) {
	switch Plan(s) {
	case PlanWeek, PlanMonth, PlanMonth1, PlanMonth9:
		return Plan(s), true
	}
	return "", false
}

// Quota is the per-window question allowance granted by a tariff.
type Quota struct {
	Daily   int
	Weekly  int
	Monthly int
}

// QuotaFor returns the quota counters set on activation. The pregnancy tariff
// grants a different quota for the one-month plan than for the full-term one.
func QuotaFor(t Tariff, durationDays int) Quota {
	switch t {
	case TariffFree:
		return Quota{Daily: 0, Weekly: 2, Monthly: 8}
	case TariffPro:
		return Quota{Daily: 19, Weekly: 133, Monthly: 570}
	case TariffPremium:
		return Quota{Daily: 49, Weekly: 343, Monthly: 1470}
	case TariffPregnancy:
		if durationDays == 30 {
			return Quota{Daily: 20, Weekly: 140, Monthly: 599}
		}
		return Quota{Daily: 22, Weekly: 154, Monthly: 666}
	case TariffPlanning:
		return Quota{Daily: 149, Weekly: 1043, Monthly: 4470}
	}
	return Quota{}
}
