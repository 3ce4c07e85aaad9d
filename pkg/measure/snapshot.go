package measure

import "time"

// ComponentRef identifies a component in a snapshot.
type ComponentRef struct {
	Key       string `json:"key"       yaml:"key"`
	Name      string `json:"name"      yaml:"name"`
	Qualifier string `json:"qualifier" yaml:"qualifier"`
	Parent    string `json:"parent,omitempty" yaml:"parent,omitempty"`
}

// ComponentMeasures is the published state of one component.
type ComponentMeasures struct {
	ComponentRef `yaml:",inline"`

	Measures []Entry `json:"measures"         yaml:"measures"`
	Issues   []Issue `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// Snapshot is the result of one analysis run.
type Snapshot struct {
	Project    string              `json:"project"    yaml:"project"`
	CreatedAt  time.Time           `json:"created_at" yaml:"created_at"`
	Components []ComponentMeasures `json:"components" yaml:"components"`
}

// Snapshot copies the store content for the given components, in their order.
func (s *MemoryStore) Snapshot(project string, refs []ComponentRef, now time.Time) *Snapshot {
	snap := &Snapshot{
		Project:    project,
		CreatedAt:  now.UTC(),
		Components: make([]ComponentMeasures, 0, len(refs)),
	}

	for _, ref := range refs {
		snap.Components = append(snap.Components, ComponentMeasures{
			ComponentRef: ref,
			Measures:     s.Entries(ref.Key),
			Issues:       s.Issues(ref.Key),
		})
	}

	return snap
}

// Component returns the measures of the component with key.
func (s *Snapshot) Component(key string) (ComponentMeasures, bool) {
	for _, cm := range s.Components {
		if cm.Key == key {
			return cm, true
		}
	}

	return ComponentMeasures{}, false
}

// Lookup returns the value of metric on the component.
func (cm ComponentMeasures) Lookup(metric string) (Value, bool) {
	for _, e := range cm.Measures {
		if e.Metric == metric {
			return e.Value, true
		}
	}

	return Value{}, false
}
