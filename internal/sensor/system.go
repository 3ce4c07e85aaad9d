package sensor

import (
	"github.com/Sumatoshi-tech/sonarbridge/pkg/measure"
	"github.com/Sumatoshi-tech/sonarbridge/pkg/report"
)

// SystemMetrics accumulates the system-wide report values seen by the
// sensors of one run. Leaves mirror them into hidden measures so parents can
// resurface them. One accumulator belongs to a single run.
type SystemMetrics struct {
	values map[string]measure.Value
	order  []string
}

// NewSystemMetrics creates an empty accumulator.
func NewSystemMetrics() *SystemMetrics {
	return &SystemMetrics{values: make(map[string]measure.Value)}
}

// Accumulate copies attrs[name] into the accumulator and returns it.
func (s *SystemMetrics) Accumulate(attrs report.AttributeMap, name string) (measure.Value, bool) {
	v, ok := attrs.Get(name)
	if !ok {
		return measure.Value{}, false
	}

	if _, seen := s.values[name]; !seen {
		s.order = append(s.order, name)
	}

	s.values[name] = v

	return v, true
}

// Get returns the accumulated value for name.
func (s *SystemMetrics) Get(name string) (measure.Value, bool) {
	v, ok := s.values[name]

	return v, ok
}

// Names returns the accumulated attribute names in first-seen order.
func (s *SystemMetrics) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)

	return out
}

// Len returns the number of accumulated values.
func (s *SystemMetrics) Len() int { return len(s.values) }
