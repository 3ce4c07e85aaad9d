package report

import (
	"maps"
	"slices"

	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
)

// AttributeMap maps Sonargraph standalone metric names to values.
type AttributeMap map[string]measure.Value

// Get returns the value for name.
func (m AttributeMap) Get(name string) (measure.Value, bool) {
	v, ok := m[name]

	return v, ok
}

// Has reports whether name is present.
func (m AttributeMap) Has(name string) bool {
	_, ok := m[name]

	return ok
}

// Number returns the numeric value for name; ok is false when the attribute
// is missing or not numeric.
func (m AttributeMap) Number(name string) (float64, bool) {
	v, ok := m[name]
	if !ok {
		return 0, false
	}

	return v.Float64()
}

// Names returns the attribute names in sorted order.
func (m AttributeMap) Names() []string {
	return slices.Sorted(maps.Keys(m))
}
