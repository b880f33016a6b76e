// Package metrics exposes Prometheus instrumentation for graph evaluation
// and shader code generation.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/soypat/shadergraph"
	"github.com/soypat/shadergraph/graph"
)

var (
	Evaluations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shadergraph_evaluations_total",
		Help: "Total number of output color evaluations.",
	})

	EvaluationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shadergraph_evaluation_errors_total",
		Help: "Total number of failed evaluations, labelled by reason.",
	}, []string{"reason"})

	Generations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shadergraph_generations_total",
		Help: "Total number of GLSL programs generated.",
	})

	GenerationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shadergraph_generation_errors_total",
		Help: "Total number of failed GLSL generations.",
	})

	FragmentBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shadergraph_fragment_source_bytes",
		Help:    "Size of generated fragment shader sources in bytes.",
		Buckets: prometheus.ExponentialBuckets(512, 2, 8),
	})

	GraphNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shadergraph_graph_nodes",
		Help: "Number of nodes in the most recently loaded graph.",
	})
)

// Reason classifies an evaluation error into a short label value.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, shadergraph.ErrStackUnderflow):
		return "stack_underflow"
	case errors.Is(err, shadergraph.ErrStackCount):
		return "stack_count"
	case errors.Is(err, graph.ErrNotForest):
		return "not_forest"
	case errors.Is(err, graph.ErrNodeNotFound):
		return "node_not_found"
	}
	return "other"
}

// ObserveEvaluation records the outcome of one evaluation.
func ObserveEvaluation(err error) {
	Evaluations.Inc()
	if err != nil {
		EvaluationErrors.WithLabelValues(Reason(err)).Inc()
	}
}

// ObserveGeneration records the outcome of one code generation with the
// resulting fragment source size.
func ObserveGeneration(fragmentBytes int, err error) {
	Generations.Inc()
	if err != nil {
		GenerationErrors.Inc()
		return
	}
	FragmentBytes.Observe(float64(fragmentBytes))
}
