package compute

import (
	"fmt"

	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/metrics"
)

// HighestMeasureComputer publishes the largest child value of one metric.
type HighestMeasureComputer struct {
	metric string
}

// NewHighestMeasureComputer creates a reducer for metric; empty selects the
// biggest cycle group.
func NewHighestMeasureComputer(metric string) *HighestMeasureComputer {
	if metric == "" {
		metric = metrics.BiggestCycleGroup
	}

	return &HighestMeasureComputer{metric: metric}
}

// Name implements MeasureComputer.
func (h *HighestMeasureComputer) Name() string { return "highest:" + h.metric }

// InputMetrics returns the metrics read by Compute.
func (h *HighestMeasureComputer) InputMetrics() []string {
	return []string{metrics.RootProjectToBeProcessed, h.metric}
}

// OutputMetrics returns the metrics published by Compute.
func (h *HighestMeasureComputer) OutputMetrics() []string { return []string{h.metric} }

// Compute implements MeasureComputer. Nothing is published without a flagged
// root or without child values.
func (h *HighestMeasureComputer) Compute(ctx Context) error {
	if !ctx.RootEligible() {
		return nil
	}

	highest, ok := measure.Max(ctx.ChildMeasures(h.metric))
	if !ok {
		ctx.Logger.Debug("no child values", "component", ctx.Component.Key, "metric", h.metric)

		return nil
	}

	err := ctx.Publish(h.metric, highest)
	if err != nil {
		return fmt.Errorf("publish %s: %w", h.metric, err)
	}

	return nil
}
