package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		usersRegisteredTotal,
		telegramUpdatesTotal,
		broadcastMessagesTotal,
		tariffActivationsTotal,
	)
}

var (
	usersRegisteredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "users_registered_total",
			Help: "Total number of new users registered.",
		},
	)

	telegramUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_updates_total",
			Help: "Incoming Telegram updates, labeled by kind.",
		},
		[]string{"kind"}, // message, photo, callback, precheckout, payment
	)

	broadcastMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_messages_total",
			Help: "Broadcast deliveries, labeled by outcome.",
		},
		[]string{"outcome"}, // sent, failed
	)

	tariffActivationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tariff_activations_total",
			Help: "Tariff activations, labeled by tariff code.",
		},
		[]string{"tariff"},
	)
)

func IncUsersRegistered() {
	usersRegisteredTotal.Inc()
}

func IncTelegramUpdate(kind string) {
	telegramUpdatesTotal.WithLabelValues(norm(kind)).Inc()
}

func IncBroadcast(outcome string) {
	broadcastMessagesTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncTariffActivation(tariff string) {
	tariffActivationsTotal.WithLabelValues(norm(tariff)).Inc()
}
