// Package metrics holds the Prometheus collectors for submissions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_validations_total",
			Help: "Total number of submission validations",
		},
		[]string{"outcome"}, // valid or invalid
	)

	FieldErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_field_errors_total",
			Help: "Total number of rejected fields, by field",
		},
		[]string{"field"},
	)

	ForwardsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_forwards_total",
			Help: "Total number of attempts to hand a validated submission on",
		},
		[]string{"stage", "status"}, // publish or sink; success, error, skipped or dropped
	)
)

// ObserveValidation records the outcome of one validation and, when it
// failed, one increment per rejected field.
func ObserveValidation(fieldErrors map[string]string) {
	if len(fieldErrors) == 0 {
		ValidationsTotal.WithLabelValues("valid").Inc()
		return
	}

	ValidationsTotal.WithLabelValues("invalid").Inc()
	for field := range fieldErrors {
		FieldErrorsTotal.WithLabelValues(field).Inc()
	}
}

func ObserveForward(stage string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ForwardsTotal.WithLabelValues(stage, status).Inc()
}
