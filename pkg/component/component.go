// Package component models the project/module hierarchy measures are
// published on.
package component

import "github.com/Sumatoshi-tech/sonarbridge/pkg/measure"

// Qualifier classifies a component.
type Qualifier string

// Qualifiers. The root is a Project, every descendant a Module.
const (
	QualifierProject Qualifier = "Project"
	QualifierModule  Qualifier = "Module"
)

// Component is a node of the hierarchy. It is read-only once built.
type Component struct {
	Key       string
	Name      string
	BuildUnit string
	// Dir is the component base directory relative to the project directory.
	Dir       string
	Qualifier Qualifier
	Children  []*Component

	parent *Component
}

// Parent returns the parent component, nil for the root.
func (c *Component) Parent() *Component { return c.parent }

// IsAggregating reports whether the component aggregates child modules.
func (c *Component) IsAggregating() bool { return len(c.Children) > 0 }

// IsStandalone reports whether c is a root project without modules.
func (c *Component) IsStandalone() bool {
	return c.Qualifier == QualifierProject && !c.IsAggregating()
}

// Root returns the top of the hierarchy c belongs to.
func (c *Component) Root() *Component {
	root := c
	for root.parent != nil {
		root = root.parent
	}

	return root
}

// ChildKeys returns the keys of the direct children.
func (c *Component) ChildKeys() []string {
	keys := make([]string, 0, len(c.Children))
	for _, child := range c.Children {
		keys = append(keys, child.Key)
	}

	return keys
}

// Walk visits c and its descendants in pre-order.
func (c *Component) Walk(fn func(*Component)) {
	fn(c)

	for _, child := range c.Children {
		child.Walk(fn)
	}
}

// Ref returns the snapshot reference of the component.
func (c *Component) Ref() measure.ComponentRef {
	ref := measure.ComponentRef{Key: c.Key, Name: c.Name, Qualifier: string(c.Qualifier)}
	if c.parent != nil {
		ref.Parent = c.parent.Key
	}

	return ref
}

// Refs returns the references of c and its descendants in pre-order.
func (c *Component) Refs() []measure.ComponentRef {
	var refs []measure.ComponentRef

	c.Walk(func(node *Component) { refs = append(refs, node.Ref()) })

	return refs
}

// AddChild attaches child below c as a module.
func (c *Component) AddChild(child *Component) {
	child.parent = c
	child.Qualifier = QualifierModule
	c.Children = append(c.Children, child)
}

// Scope selects the data source a sensor projects warnings and tasks from.
type Scope interface {
	// Kind names the scope for logs.
	Kind() string

	scope()
}

// LeafScope is the scope of Module components: values come from the build
// unit and the system values are mirrored for the parent.
type LeafScope struct{}

// AggregateScope is the scope of any other component: values come from the
// system-wide attributes.
type AggregateScope struct{}

// Kind implements Scope.
func (LeafScope) Kind() string { return "module" }

// Kind implements Scope.
func (AggregateScope) Kind() string { return "aggregate" }

func (LeafScope) scope()      {}
func (AggregateScope) scope() {}

// ScopeOf returns the scope for the component, chosen once by qualifier.
func ScopeOf(c *Component) Scope {
	if c.Qualifier == QualifierModule {
		return LeafScope{}
	}

	return AggregateScope{}
}
