package compute

import (
	"fmt"

	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/metrics"
)

// SystemMeasureComputer republishes the system-wide values mirrored on the
// children under their visible keys.
type SystemMeasureComputer struct {
	defs []metrics.Definition
}

// NewSystemMeasureComputer covers every system metric of the registry.
func NewSystemMeasureComputer(registry *metrics.Registry) *SystemMeasureComputer {
	return &SystemMeasureComputer{defs: registry.ByAggregation(metrics.AggregateSystem)}
}

// Name implements MeasureComputer.
func (*SystemMeasureComputer) Name() string { return "system" }

// Compute implements MeasureComputer. Every child carries the same system
// value, so the largest one is taken. Aggregating children have no mirror of
// their own; their visible value stands in for it.
func (s *SystemMeasureComputer) Compute(ctx Context) error {
	if !ctx.RootEligible() {
		return nil
	}

	for _, def := range s.defs {
		values := ctx.ChildMeasures(def.Mirror)

		for _, child := range ctx.Component.Children {
			if !child.IsAggregating() {
				continue
			}

			if v, ok := ctx.Store.Get(child.Key, def.Key()); ok {
				values = append(values, v)
			}
		}

		value, ok := measure.Max(values)
		if !ok {
			continue
		}

		err := ctx.Publish(def.Key(), value)
		if err != nil {
			return fmt.Errorf("publish %s: %w", def.Key(), err)
		}
	}

	return nil
}
