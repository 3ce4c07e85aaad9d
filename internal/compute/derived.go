package compute

import (
	"fmt"

	"github.com/Sumatoshi-tech/sonarbridge/internal/sensor"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/metrics"
)

// DerivedMeasureComputer recomputes ratios on aggregating components from
// the sums published by SumMeasureComputer. Operand scopes follow the
// aggregation of their metric in the registry.
type DerivedMeasureComputer struct {
	registry *metrics.Registry
}

// NewDerivedMeasureComputer creates a derived measure computer.
func NewDerivedMeasureComputer(registry *metrics.Registry) *DerivedMeasureComputer {
	return &DerivedMeasureComputer{registry: registry}
}

// Name implements MeasureComputer.
func (*DerivedMeasureComputer) Name() string { return "derived" }

// Compute implements MeasureComputer. Cycle ratios need cyclicity; type
// ratios need the unassigned types sum, mirroring the leaf rule.
func (d *DerivedMeasureComputer) Compute(ctx Context) error {
	if !ctx.RootEligible() {
		return nil
	}

	if _, ok := ctx.Measure(metrics.Cyclicity); ok {
		err := d.cycles(ctx)
		if err != nil {
			return err
		}
	}

	if _, ok := ctx.Measure(metrics.UnassignedTypes); ok {
		return d.types(ctx)
	}

	return nil
}

func (d *DerivedMeasureComputer) cycles(ctx Context) error {
	cyclicity := d.operand(ctx, metrics.Cyclicity)
	packages := d.operand(ctx, metrics.InternalPackages)

	relCyclicity, err := sensor.RelativeCyclicity(cyclicity, packages)
	if err != nil {
		return err
	}

	cyclicPercent, err := sensor.Percent(metrics.CyclicPackagesPercentMetric,
		d.operand(ctx, metrics.CyclicPackages), packages)
	if err != nil {
		return err
	}

	return publishFloats(ctx,
		floatMeasure{metrics.RelativeCyclicity, relCyclicity},
		floatMeasure{metrics.CyclicPackagesPercent, cyclicPercent})
}

func (d *DerivedMeasureComputer) types(ctx Context) error {
	types := d.operand(ctx, metrics.InternalTypes)

	violating, err := sensor.Percent(metrics.ViolatingTypesPercentMetric,
		d.operand(ctx, metrics.ViolatingTypes), types)
	if err != nil {
		return err
	}

	unassigned, err := sensor.Percent(metrics.UnassignedTypesPercentMetric,
		d.operand(ctx, metrics.UnassignedTypes), types)
	if err != nil {
		return err
	}

	return publishFloats(ctx,
		floatMeasure{metrics.ViolatingTypesPercent, violating},
		floatMeasure{metrics.UnassignedTypesPercent, unassigned})
}

// operand reads the aggregated value on the component; missing counts as 0.
func (d *DerivedMeasureComputer) operand(ctx Context, metric string) sensor.Operand {
	var number float64

	if v, ok := ctx.Measure(metric); ok {
		number, _ = v.Float64()
	}

	return sensor.AggregatedOperand(d.registry, metric, number)
}

type floatMeasure struct {
	metric string
	value  float64
}

func publishFloats(ctx Context, measures ...floatMeasure) error {
	for _, m := range measures {
		err := ctx.Publish(m.metric, measure.Float(m.value))
		if err != nil {
			return fmt.Errorf("publish %s: %w", m.metric, err)
		}
	}

	return nil
}
