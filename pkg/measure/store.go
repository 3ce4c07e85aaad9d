package measure

import (
	"errors"
	"fmt"
)

// ErrAlreadyPublished indicates a second, different write to the same
// (component, metric) pair within one run.
var ErrAlreadyPublished = errors.New("measure already published")

// Reader gives read access to published measures.
type Reader interface {
	// Get returns the value published for the metric on the component.
	Get(componentKey, metricKey string) (Value, bool)
}

// Store is the write-once measure sink used by sensors and computers.
type Store interface {
	Reader

	// Publish records a value. Publishing an identical value again is a no-op;
	// a different value fails with ErrAlreadyPublished.
	Publish(componentKey, metricKey string, v Value) error

	// AddIssue records an issue raised on the component.
	AddIssue(componentKey string, issue Issue)
}

// Issue is a finding attached to a component, for example an architecture
// violation or an open task from the report.
type Issue struct {
	RuleKey string `json:"rule"           yaml:"rule"`
	Message string `json:"message"        yaml:"message"`
	File    string `json:"file,omitempty" yaml:"file,omitempty"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
}

// Entry is a published measure in publication order.
type Entry struct {
	Metric string `json:"metric" yaml:"metric"`
	Value  Value  `json:"value"  yaml:"value"`
}

type componentMeasures struct {
	index   map[string]int
	entries []Entry
	issues  []Issue
}

// MemoryStore is an in-memory Store. It keeps publication order so output is
// deterministic. It is not safe for concurrent use; one run owns one store.
type MemoryStore struct {
	components map[string]*componentMeasures
	order      []string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{components: make(map[string]*componentMeasures)}
}

// Publish implements Store.
func (s *MemoryStore) Publish(componentKey, metricKey string, v Value) error {
	cm := s.component(componentKey)

	if idx, ok := cm.index[metricKey]; ok {
		existing := cm.entries[idx].Value
		if existing.Equal(v) {
			return nil
		}

		return fmt.Errorf("%w: %s on %s (have %s, got %s)",
			ErrAlreadyPublished, metricKey, componentKey, existing, v)
	}

	cm.index[metricKey] = len(cm.entries)
	cm.entries = append(cm.entries, Entry{Metric: metricKey, Value: v})

	return nil
}

// Get implements Reader.
func (s *MemoryStore) Get(componentKey, metricKey string) (Value, bool) {
	cm, ok := s.components[componentKey]
	if !ok {
		return Value{}, false
	}

	idx, ok := cm.index[metricKey]
	if !ok {
		return Value{}, false
	}

	return cm.entries[idx].Value, true
}

// AddIssue implements Store.
func (s *MemoryStore) AddIssue(componentKey string, issue Issue) {
	cm := s.component(componentKey)
	cm.issues = append(cm.issues, issue)
}

// Entries returns the measures of a component in publication order.
func (s *MemoryStore) Entries(componentKey string) []Entry {
	cm, ok := s.components[componentKey]
	if !ok {
		return nil
	}

	out := make([]Entry, len(cm.entries))
	copy(out, cm.entries)

	return out
}

// Issues returns the issues of a component in the order they were raised.
func (s *MemoryStore) Issues(componentKey string) []Issue {
	cm, ok := s.components[componentKey]
	if !ok {
		return nil
	}

	out := make([]Issue, len(cm.issues))
	copy(out, cm.issues)

	return out
}

// Keys returns the component keys in the order they were first written.
func (s *MemoryStore) Keys() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)

	return out
}

// Count returns the number of published measures across all components.
func (s *MemoryStore) Count() int {
	total := 0
	for _, cm := range s.components {
		total += len(cm.entries)
	}

	return total
}

// ChildValues reads the metric on every child key, skipping children
// without a published value.
func ChildValues(r Reader, childKeys []string, metricKey string) []Value {
	values := make([]Value, 0, len(childKeys))

	for _, key := range childKeys {
		if v, ok := r.Get(key, metricKey); ok {
			values = append(values, v)
		}
	}

	return values
}

func (s *MemoryStore) component(key string) *componentMeasures {
	cm, ok := s.components[key]
	if !ok {
		cm = &componentMeasures{index: make(map[string]int)}
		s.components[key] = cm
		s.order = append(s.order, key)
	}

	return cm
}
