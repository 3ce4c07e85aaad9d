package compute

import (
	"fmt"

	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/metrics"
)

// SumMeasureComputer adds the child values of every child-summable metric.
type SumMeasureComputer struct {
	metrics []string
}

// NewSumMeasureComputer sums every metric the registry aggregates by sum.
func NewSumMeasureComputer(registry *metrics.Registry) *SumMeasureComputer {
	defs := registry.ByAggregation(metrics.AggregateSum)
	keys := make([]string, 0, len(defs))

	for _, def := range defs {
		keys = append(keys, def.Key())
	}

	return &SumMeasureComputer{metrics: keys}
}

// Name implements MeasureComputer.
func (*SumMeasureComputer) Name() string { return "sum" }

// Compute implements MeasureComputer.
func (s *SumMeasureComputer) Compute(ctx Context) error {
	if !ctx.RootEligible() {
		return nil
	}

	for _, key := range s.metrics {
		total, ok := measure.Sum(ctx.ChildMeasures(key))
		if !ok {
			continue
		}

		err := ctx.Publish(key, total)
		if err != nil {
			return fmt.Errorf("publish %s: %w", key, err)
		}
	}

	return nil
}
