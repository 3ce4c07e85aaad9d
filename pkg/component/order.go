package component

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/sonarbridge/pkg/toposort"
)

// ErrCycle indicates a hierarchy that cannot be ordered bottom-up.
var ErrCycle = errors.New("component hierarchy has a cycle")

// BottomUp returns every component of the tree so that each one appears
// after all of its descendants. Siblings keep their declaration order.
func BottomUp(root *Component) ([]*Component, error) {
	graph := toposort.NewGraph()
	byKey := make(map[string]*Component)

	root.Walk(func(c *Component) {
		byKey[c.Key] = c
		graph.AddNode(c.Key)
	})

	// Edges run child -> parent so children sort first.
	root.Walk(func(c *Component) {
		for _, child := range c.Children {
			graph.AddEdge(child.Key, c.Key)
		}
	})

	keys, ok := graph.Toposort()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(graph.FindCycle(root.Key), " -> "))
	}

	ordered := make([]*Component, 0, len(keys))
	for _, key := range keys {
		ordered = append(ordered, byKey[key])
	}

	return ordered, nil
}
