// Package observability exposes the process-wide Prometheus counters and
// histograms the ambient stack requires, grounded on the promauto pattern
// used throughout the example pack's own metrics packages.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/flowcoreio/flowcore/pkg/domain"
)

var (
	TraversalSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowcore_traversal_steps_total",
		Help: "Total number of node visits during traversal, labelled by node kind.",
	}, []string{"node_kind"})

	TraversalRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowcore_traversal_requests_total",
		Help: "Total number of next_question_flow requests, labelled by outcome kind.",
	}, []string{"outcome"})

	VariableEvaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowcore_variable_evaluations_total",
		Help: "Total variable evaluations, labelled by evaluator and outcome.",
	}, []string{"evaluator", "outcome"})

	SandboxTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowcore_sandbox_timeouts_total",
		Help: "Total number of ScriptSandbox evaluations that hit their timeout.",
	})

	RowCapTruncations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowcore_graphstore_row_cap_truncations_total",
		Help: "Total number of GraphStore queries truncated to the row cap.",
	})

	RequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flowcore_request_duration_ms",
		Help:    "End-to-end next_question_flow request latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	})
)

// OutcomeLabel maps a domain.OutcomeKind to the label value the
// TraversalRequests counter uses.
func OutcomeLabel(kind domain.OutcomeKind) string {
	switch kind {
	case domain.OutcomeUnansweredQuestion:
		return "unanswered_question"
	case domain.OutcomeAction:
		return "action"
	case domain.OutcomeCompleted:
		return "completed"
	default:
		return "unknown"
	}
}
