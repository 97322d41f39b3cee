package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "joblet",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "joblet",
			Name:      "booking_transitions_total",
			Help:      "Booking state transitions by kind and outcome.",
		},
		[]string{"transition", "outcome"},
	)

	walletMovements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "joblet",
			Name:      "wallet_cents_total",
			Help:      "Absolute cents moved through the wallet ledger by entry kind.",
		},
		[]string{"kind"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingTransitions, walletMovements)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncTransition counts a booking transition attempt with its outcome.
func IncTransition(transition, outcome string) {
	bookingTransitions.WithLabelValues(transition, outcome).Inc()
}

// AddWalletCents counts ledger movement for an entry kind.
func AddWalletCents(kind string, cents int64) {
	if cents < 0 {
		cents = -cents
	}
	walletMovements.WithLabelValues(kind).Add(float64(cents))
}
