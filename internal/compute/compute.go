// Package compute derives measures of aggregating components from the
// measures of their children. Computers run after every sensor, bottom-up,
// and only when the root project is flagged for processing.
package compute

import (
	"log/slog"

	"github.com/Sumatoshi-tech/sonarbridge/pkg/component"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/metrics"
)

// MeasureComputer computes measures of one component from its children.
type MeasureComputer interface {
	// Name identifies the computer in logs and spans.
	Name() string

	// Compute publishes the measures of ctx.Component.
	Compute(ctx Context) error
}

// Context is the view a computer has of the component being computed.
type Context struct {
	Component *component.Component
	Store     measure.Store
	Logger    *slog.Logger
}

// NewContext creates a computation context for comp.
func NewContext(comp *component.Component, store measure.Store, logger *slog.Logger) Context {
	if logger == nil {
		logger = slog.Default()
	}

	return Context{Component: comp, Store: store, Logger: logger}
}

// ChildMeasures returns the metric values published on the direct children.
func (c Context) ChildMeasures(metric string) []measure.Value {
	return measure.ChildValues(c.Store, c.Component.ChildKeys(), metric)
}

// Measure returns the metric value published on the component itself.
func (c Context) Measure(metric string) (measure.Value, bool) {
	return c.Store.Get(c.Component.Key, metric)
}

// RootMeasure returns the metric value published on the root component.
func (c Context) RootMeasure(metric string) (measure.Value, bool) {
	return c.Store.Get(c.Component.Root().Key, metric)
}

// Publish publishes v under metric on the component.
func (c Context) Publish(metric string, v measure.Value) error {
	return c.Store.Publish(c.Component.Key, metric, v)
}

// RootEligible reports whether the root is flagged for processing.
func (c Context) RootEligible() bool {
	v, ok := c.RootMeasure(metrics.RootProjectToBeProcessed)
	if !ok {
		return false
	}

	eligible, ok := v.BoolValue()

	return ok && eligible
}

// Default returns the computers for the registry in execution order. Sums and
// system values precede the ratios derived from them.
func Default(registry *metrics.Registry) []MeasureComputer {
	return []MeasureComputer{
		NewSystemMeasureComputer(registry),
		NewSumMeasureComputer(registry),
		NewHighestMeasureComputer(metrics.BiggestCycleGroup),
		NewDerivedMeasureComputer(registry),
	}
}
