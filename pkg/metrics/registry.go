package metrics

import "slices"

// Registry indexes definitions by key and keeps registration order.
type Registry struct {
	defs  map[string]Definition
	order []string
}

// NewRegistry creates an empty metric registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// DefaultRegistry returns a registry holding the full catalog.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, def := range Catalog() {
		r.Register(def)
	}

	return r
}

// Register adds or replaces a definition.
func (r *Registry) Register(def Definition) {
	if _, exists := r.defs[def.Key()]; !exists {
		r.order = append(r.order, def.Key())
	}

	r.defs[def.Key()] = def
}

// Get retrieves a definition by key.
func (r *Registry) Get(key string) (Definition, bool) {
	def, ok := r.defs[key]

	return def, ok
}

// Keys returns all registered keys in registration order.
func (r *Registry) Keys() []string {
	return slices.Clone(r.order)
}

// Select returns the definitions matching the predicate in registration order.
func (r *Registry) Select(match func(Definition) bool) []Definition {
	out := make([]Definition, 0, len(r.order))

	for _, key := range r.order {
		if def := r.defs[key]; match(def) {
			out = append(out, def)
		}
	}

	return out
}

// ByAggregation returns the definitions aggregated with the given mode.
func (r *Registry) ByAggregation(agg Aggregation) []Definition {
	return r.Select(func(d Definition) bool { return d.Aggregation == agg })
}

// Position returns the registration index of key, or -1. Renderers use it to
// sort measures in catalog order.
func (r *Registry) Position(key string) int {
	return slices.Index(r.order, key)
}
