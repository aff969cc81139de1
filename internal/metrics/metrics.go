// Package metrics holds the prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mission_reveal"

var (
	// ChatTurns counts classified model replies by class (hint, chatter).
	ChatTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_turns_total",
			Help:      "Hint game turns answered by the model, by reply class.",
		},
		[]string{"class"},
	)

	// HintsExhausted counts messages sent to sessions that already used all hints.
	HintsExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_exhausted_replies_total",
			Help:      "Messages answered with the fixed exhaustion reply.",
		},
	)

	// ProviderFailures counts failed calls to external providers.
	ProviderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_failures_total",
			Help:      "Failed calls to the completion or geocoding provider.",
		},
		[]string{"provider"},
	)

	// GeocodeCache counts destination cache lookups by result (hit, miss).
	GeocodeCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_lookups_total",
			Help:      "Destination cache lookups by result.",
		},
		[]string{"result"},
	)

	// RevealToggles counts reveal switch attempts by outcome.
	RevealToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reveal_toggles_total",
			Help:      "Reveal toggle attempts by outcome (revealed, hidden, rejected).",
		},
		[]string{"outcome"},
	)
)
