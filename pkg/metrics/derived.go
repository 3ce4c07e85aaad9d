package metrics

import "math"

const hundredPercent = 100.0

// DebtInput holds the operands of the structural debt cost.
type DebtInput struct {
	Index        float64
	CostPerPoint float64
}

// DebtCost computes structural debt cost. A non-positive index costs nothing.
type DebtCost struct{ MetricMeta }

// Compute implements Metric.
func (DebtCost) Compute(in DebtInput) float64 {
	if in.Index <= 0 {
		return 0
	}

	return in.Index * in.CostPerPoint
}

// CyclicityInput holds the operands of the relative cyclicity.
type CyclicityInput struct {
	Cyclicity float64
	Packages  float64
}

// CycleRatio computes 100 * sqrt(cyclicity) / packages.
type CycleRatio struct{ MetricMeta }

// Compute implements Metric. Zero packages yield exactly 0.
func (CycleRatio) Compute(in CyclicityInput) float64 {
	if in.Packages <= 0 {
		return 0
	}

	return hundredPercent * math.Sqrt(in.Cyclicity) / in.Packages
}

// PercentInput is a part of a whole.
type PercentInput struct {
	Part  float64
	Whole float64
}

// Percent computes 100 * part / whole.
type Percent struct{ MetricMeta }

// Compute implements Metric. A non-positive whole yields exactly 0.
func (Percent) Compute(in PercentInput) float64 {
	if in.Whole <= 0 {
		return 0
	}

	return hundredPercent * in.Part / in.Whole
}

// Derived metric implementations bound to their catalog metadata.
var (
	StructuralDebtCostMetric     = DebtCost{MetricMeta: metaOf(StructuralDebtCost)}
	RelativeCyclicityMetric      = CycleRatio{MetricMeta: metaOf(RelativeCyclicity)}
	CyclicPackagesPercentMetric  = Percent{MetricMeta: metaOf(CyclicPackagesPercent)}
	ViolatingTypesPercentMetric  = Percent{MetricMeta: metaOf(ViolatingTypesPercent)}
	UnassignedTypesPercentMetric = Percent{MetricMeta: metaOf(UnassignedTypesPercent)}
)

func metaOf(key string) MetricMeta {
	for _, def := range Catalog() {
		if def.Key() == key {
			return def.MetricMeta
		}
	}

	return MetricMeta{MetricName: key}
}
