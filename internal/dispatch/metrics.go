package dispatch

import "github.com/prometheus/client_golang/prometheus"

// actionsTotal считает действия пользователей по глаголу и итогу.
var actionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "lunchbot",
		Subsystem: "dispatch",
		Name:      "actions_total",
		Help:      "Total number of dispatched user actions.",
	},
	[]string{"verb", "outcome"},
)

func init() {
	prometheus.MustRegister(actionsTotal)
}

func observe(verb, outcome string) {
	actionsTotal.WithLabelValues(verb, outcome).Inc()
}
