// Package metrics registers the prometheus collectors exported by the
// provisioning core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProvisionOutcomes counts orchestration attempts by outcome class.
	ProvisionOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pxdesk",
		Subsystem: "provision",
		Name:      "outcomes_total",
		Help:      "Provisioning attempts by outcome class.",
	}, []string{"class"})

	// LifecycleTransitions counts terminal request transitions.
	LifecycleTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pxdesk",
		Subsystem: "lifecycle",
		Name:      "transitions_total",
		Help:      "Request lifecycle transitions by resulting status.",
	}, []string{"status"})

	// DiscoveryResults counts discovery loop completions.
	DiscoveryResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pxdesk",
		Subsystem: "discovery",
		Name:      "results_total",
		Help:      "Address discovery loop completions by result.",
	}, []string{"result"})

	// DiscoveryAttempts observes how many polls a successful discovery took.
	DiscoveryAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pxdesk",
		Subsystem: "discovery",
		Name:      "attempts",
		Help:      "Polling attempts needed before an address appeared.",
		Buckets:   prometheus.LinearBuckets(1, 2, 8),
	})
)
