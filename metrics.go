package authkit

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Auth metrics. Defined package-level so the hot paths can record without
// threading a collector through every component; registration is opt-in.
var (
	metricsOnce sync.Once

	exchangeAttemptsTotal *prometheus.CounterVec
	refreshTotal          *prometheus.CounterVec
	transportReplaysTotal prometheus.Counter
)

func initMetrics() {
	metricsOnce.Do(func() {
		exchangeAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authkit_token_exchange_attempts_total",
			Help: "Token exchange attempts by outcome",
		}, []string{"outcome"})

		refreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authkit_token_refresh_total",
			Help: "Session refresh operations by outcome",
		}, []string{"outcome"})

		transportReplaysTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authkit_transport_replays_total",
			Help: "Requests replayed after a refresh triggered by an auth failure",
		})
	})
}

// RegisterMetrics registers the auth metrics on the given registry (default
// registry when nil). Re-registration is tolerated.
func RegisterMetrics(reg prometheus.Registerer) error {
	initMetrics()
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{exchangeAttemptsTotal, refreshTotal, transportReplaysTotal} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

func recordExchangeAttempt(outcome string) {
	initMetrics()
	exchangeAttemptsTotal.WithLabelValues(outcome).Inc()
}

func recordRefreshOutcome(outcome string) {
	initMetrics()
	refreshTotal.WithLabelValues(outcome).Inc()
}

func recordTransportReplay() {
	initMetrics()
	transportReplaysTotal.Inc()
}
