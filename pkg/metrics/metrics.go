// Package metrics defines the measures republished from a Sonargraph report.
//
// Each metric carries metadata (key, display name, description, domain), the
// report attribute it is read from and the way parents obtain it from their
// children. Derived metrics additionally implement Metric and compute their
// value from typed inputs.
package metrics

// Metric is a self-contained computation with metadata.
type Metric[In, Out any] interface {
	// Name returns the machine-readable identifier (snake_case, unique).
	Name() string

	// DisplayName returns a human-readable name for reports.
	DisplayName() string

	// Description explains what the metric measures and its unit.
	Description() string

	// Type returns the metric domain (e.g. "structure", "architecture").
	Type() string

	// Compute calculates the metric value from input data.
	Compute(input In) Out
}

// MetricMeta holds the common metadata for a metric.
// Embed this in metric implementations to satisfy metadata methods.
type MetricMeta struct {
	MetricName        string
	MetricDisplayName string
	MetricDescription string
	MetricType        string
}

// Name returns the machine-readable identifier.
func (m MetricMeta) Name() string { return m.MetricName }

// DisplayName returns a human-readable name for reports.
func (m MetricMeta) DisplayName() string { return m.MetricDisplayName }

// Description returns detailed documentation.
func (m MetricMeta) Description() string { return m.MetricDescription }

// Type returns the metric domain.
func (m MetricMeta) Type() string { return m.MetricType }

// ValueType is the type of the values a metric takes.
type ValueType string

// Value types.
const (
	ValueInt     ValueType = "INT"
	ValueFloat   ValueType = "FLOAT"
	ValuePercent ValueType = "PERCENT"
	ValueBool    ValueType = "BOOL"
)

// Aggregation describes how an aggregating component obtains the metric.
type Aggregation uint8

// Aggregation modes.
const (
	// AggregateNone never publishes the metric on aggregating components.
	AggregateNone Aggregation = iota
	// AggregateSum adds the children values.
	AggregateSum
	// AggregateMax takes the largest child value.
	AggregateMax
	// AggregateSystem republishes the system-wide value mirrored by the children.
	AggregateSystem
	// AggregateDerived recomputes the value from other aggregated metrics.
	AggregateDerived
)

// String returns the aggregation name.
func (a Aggregation) String() string {
	switch a {
	case AggregateSum:
		return "sum"
	case AggregateMax:
		return "max"
	case AggregateSystem:
		return "system"
	case AggregateDerived:
		return "derived"
	default:
		return "none"
	}
}

// Definition describes one metric.
type Definition struct {
	MetricMeta

	ValueType   ValueType
	Aggregation Aggregation

	// Source is the Sonargraph standalone attribute name the value is read
	// from. Empty for metrics the sensor computes itself.
	Source string

	// Mirror is the hidden metric holding the system-wide value on leaves.
	// Set only for AggregateSystem metrics.
	Mirror string

	// Hidden metrics are bookkeeping values and are not rendered by default.
	Hidden bool
}

// Key returns the metric key measures are published under.
func (d Definition) Key() string { return d.MetricName }
