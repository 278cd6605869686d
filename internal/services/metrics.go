// Prometheus collectors for conversational routing.
//
// Labels stay coarse to bound cardinality: the route label is the precedence
// branch that produced the reply (menu, cancel, flow, start, faq, ai,
// flow-error), not the individual flow or rule name.
package services

import "github.com/prometheus/client_golang/prometheus"

var turnsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bot_turns_total",
		Help: "Total routed conversation turns by precedence branch.",
	},
	[]string{"route"},
)

func init() {
	prometheus.MustRegister(turnsTotal)
}

// countTurn bumps the turn counter using the coarse branch of a route label
// such as "flow:enrollment" or "faq:contact".
func countTurn(route string) {
	for i := 0; i < len(route); i++ {
		if route[i] == ':' {
			route = route[:i]
			break
		}
	}
	turnsTotal.WithLabelValues(route).Inc()
}
