package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes usados como label.
const (
	OutcomeOK          = "ok"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
	OutcomeInvalid     = "invalid"
	OutcomeRejected    = "rejected"
)

var (
	// LLMGenerations cuenta cada intento de generacion por proposito y resultado.
	LLMGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "svomo_llm_generations_total",
			Help: "Language model generations by purpose and outcome",
		},
		[]string{"purpose", "outcome"}, // purpose: persona_questions, mood_questions, recommendations
	)

	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "svomo_catalog_requests_total",
			Help: "Metadata catalog requests by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	CatalogBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "svomo_catalog_breaker_state",
			Help: "Catalog circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	RecommendationsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "svomo_recommendations_resolved_total",
			Help: "Resolved recommendations by resolution tier",
		},
		[]string{"tier"},
	)

	WizardTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "svomo_wizard_transitions_total",
			Help: "Wizard stage transitions",
		},
		[]string{"from", "to"},
	)
)
