package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dropngo",
			Name:      "booking_created_total",
			Help:      "Count of bookings created.",
		},
	)

	bookingTransition = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dropngo",
			Name:      "booking_transition_total",
			Help:      "Count of booking status transitions by target status.",
		},
		[]string{"status"},
	)

	locationReports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dropngo",
			Name:      "porter_location_reports_total",
			Help:      "Count of porter location reports by porter status.",
		},
		[]string{"status"},
	)

	quotesServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dropngo",
			Name:      "quotes_served_total",
			Help:      "Count of price quotes by distance source.",
		},
		[]string{"distance_source"},
	)

	porterDecision = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dropngo",
			Name:      "porter_decision_total",
			Help:      "Count of admin decisions over porter applications.",
		},
		[]string{"decision"},
	)

	notificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dropngo",
			Name:      "notifications_sent_total",
			Help:      "Count of notification deliveries by channel and result.",
		},
		[]string{"channel", "result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			bookingCreated,
			bookingTransition,
			locationReports,
			quotesServed,
			porterDecision,
			notificationsSent,
		)
	})
}

func IncBookingCreated() {
	bookingCreated.Inc()
}

func IncBookingTransition(status string) {
	bookingTransition.WithLabelValues(status).Inc()
}

func IncLocationReport(status string) {
	locationReports.WithLabelValues(status).Inc()
}

func IncQuote(source string) {
	quotesServed.WithLabelValues(source).Inc()
}

func IncPorterDecision(decision string) {
	porterDecision.WithLabelValues(decision).Inc()
}

func IncNotification(channel string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	notificationsSent.WithLabelValues(channel, result).Inc()
}
