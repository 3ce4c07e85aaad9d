package sensor

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/sonarbridge/pkg/metrics"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/report"
)

// Sentinel errors.
var (
	// ErrInvariantViolation aborts a run when report data contradicts a
	// precondition, for example architecture attributes without types.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrScopeMismatch indicates a ratio whose operands come from different scopes.
	ErrScopeMismatch = errors.New("ratio operands from different scopes")
)

// Scope tags where a ratio operand was read from.
type Scope string

// Operand scopes.
const (
	ScopeBuildUnit Scope = "build-unit"
	ScopeSystem    Scope = "system"
	ScopeChildren  Scope = "children"
)

// Operand is a scope-tagged ratio input.
type Operand struct {
	Value float64
	Scope Scope
}

// Source is an attribute section of the report together with its scope.
// Operands read from a source carry the source scope.
type Source struct {
	attrs report.AttributeMap
	scope Scope
}

// BuildUnitSource returns the attribute section of bu.
func BuildUnitSource(bu *report.BuildUnit) Source {
	return Source{attrs: bu.Attributes(), scope: ScopeBuildUnit}
}

// SystemSource returns the system attribute section of rep.
func SystemSource(rep *report.Report) Source {
	return Source{attrs: rep.SystemAttributes(), scope: ScopeSystem}
}

// Attributes returns the attributes of the section.
func (s Source) Attributes() report.AttributeMap { return s.attrs }

// Scope returns the scope operands of the section carry.
func (s Source) Scope() Scope { return s.scope }

// Count tags a value counted from the elements of the section.
func (s Source) Count(n int64) Operand { return Operand{Value: float64(n), Scope: s.scope} }

// AggregatedOperand tags a value published on an aggregating component by
// the aggregation mode of its metric. Children sums carry ScopeChildren;
// republished system values carry ScopeSystem.
func AggregatedOperand(registry *metrics.Registry, metric string, number float64) Operand {
	scope := ScopeChildren

	if def, ok := registry.Get(metric); ok && def.Aggregation == metrics.AggregateSystem {
		scope = ScopeSystem
	}

	return Operand{Value: number, Scope: scope}
}

func sameScope(metric string, a, b Operand) error {
	if a.Scope != b.Scope {
		return fmt.Errorf("%w: %s from %s and %s", ErrScopeMismatch, metric, a.Scope, b.Scope)
	}

	return nil
}

// Percent computes 100 * part / whole for the metric, 0 when whole <= 0.
func Percent(metric metrics.Percent, part, whole Operand) (float64, error) {
	if err := sameScope(metric.Name(), part, whole); err != nil {
		return 0, err
	}

	return metric.Compute(metrics.PercentInput{Part: part.Value, Whole: whole.Value}), nil
}

// RelativeCyclicity computes 100 * sqrt(cyclicity) / packages, 0 when packages <= 0.
func RelativeCyclicity(cyclicity, packages Operand) (float64, error) {
	metric := metrics.RelativeCyclicityMetric
	if err := sameScope(metric.Name(), cyclicity, packages); err != nil {
		return 0, err
	}

	return metric.Compute(metrics.CyclicityInput{Cyclicity: cyclicity.Value, Packages: packages.Value}), nil
}
