package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/soypat/shadergraph"
	"github.com/soypat/shadergraph/graph"
)

func TestReason(t *testing.T) {
	for _, test := range []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("at add: %w", shadergraph.ErrStackUnderflow), "stack_underflow"},
		{shadergraph.ErrStackCount, "stack_count"},
		{fmt.Errorf("dfs: %w", graph.ErrNotForest), "not_forest"},
		{graph.ErrNodeNotFound, "node_not_found"},
		{errors.New("boom"), "other"},
	} {
		if got := Reason(test.err); got != test.want {
			t.Errorf("Reason(%v) = %q, want %q", test.err, got, test.want)
		}
	}
}

func TestObserve(t *testing.T) {
	ObserveEvaluation(nil)
	ObserveEvaluation(shadergraph.ErrStackCount)
	ObserveGeneration(2048, nil)
	ObserveGeneration(0, errors.New("bad graph"))
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatal(err)
	}
	counts := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				counts[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				counts[mf.GetName()] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	for name, want := range map[string]float64{
		"shadergraph_evaluations_total":       2,
		"shadergraph_evaluation_errors_total": 1,
		"shadergraph_generations_total":       2,
		"shadergraph_generation_errors_total": 1,
		"shadergraph_fragment_source_bytes":   1,
	} {
		if counts[name] < want {
			t.Errorf("%s = %v, want at least %v", name, counts[name], want)
		}
	}
}
