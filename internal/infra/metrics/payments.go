package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
		bonusAppliedTotal,
		checkoutLinksTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Pending payments by resulting status (created/approved/declined).",
		},
		[]string{"status"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "Total monetary value of approved payments, labeled by currency.",
		},
		[]string{"currency"},
	)

	bonusAppliedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bonus_applied_total",
			Help: "Total bonus funds debited against purchases.",
		},
	)

	checkoutLinksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_links_total",
			Help: "Hosted checkout links issued, labeled by provider.",
		},
		[]string{"provider"},
	)
)

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func AddPaymentRevenue(currency string, amount int64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amount))
}

func AddBonusApplied(amount int64) {
	bonusAppliedTotal.Add(float64(amount))
}

func IncCheckoutLink(provider string) {
	checkoutLinksTotal.WithLabelValues(norm(provider)).Inc()
}
