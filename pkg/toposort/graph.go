// Package toposort orders named nodes of a directed graph with Kahn's
// algorithm. Ties are broken by insertion order so results are stable.
package toposort

import "sort"

// Graph is a directed graph over string node names.
type Graph struct {
	ids      map[string]int
	names    []string
	edges    [][]int
	inDegree []int
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{ids: make(map[string]int)}
}

// AddNode inserts a node. It returns false when the node already exists.
func (g *Graph) AddNode(name string) bool {
	if _, exists := g.ids[name]; exists {
		return false
	}

	g.intern(name)

	return true
}

// AddEdge inserts the edge from -> to, creating missing nodes. It returns
// false when the edge already exists.
func (g *Graph) AddEdge(from, to string) bool {
	u := g.intern(from)
	v := g.intern(to)

	for _, existing := range g.edges[u] {
		if existing == v {
			return false
		}
	}

	g.edges[u] = append(g.edges[u], v)
	g.inDegree[v]++

	return true
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.names) }

// Toposort returns the nodes so every edge points forward. When the graph has
// a cycle the nodes that could be ordered are returned with ok set to false.
func (g *Graph) Toposort() (sorted []string, ok bool) {
	inDegree := make([]int, len(g.inDegree))
	copy(inDegree, g.inDegree)

	queue := make([]int, 0, len(g.names))

	for id, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, id)
		}
	}

	sorted = make([]string, 0, len(g.names))

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		sorted = append(sorted, g.names[u])

		for _, v := range g.edges[u] {
			inDegree[v]--
			if inDegree[v] == 0 {
				insertSorted(&queue, v)
			}
		}
	}

	return sorted, len(sorted) == len(g.names)
}

// FindCycle returns a cycle through seed without repeating seed at the end,
// or nil when seed is not on a cycle.
func (g *Graph) FindCycle(seed string) []string {
	start, exists := g.ids[seed]
	if !exists {
		return nil
	}

	parent := map[int]int{start: -1}
	queue := []int{start}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]

		for _, v := range g.edges[u] {
			if v == start {
				return g.unwind(parent, u, start)
			}

			if _, seen := parent[v]; !seen {
				parent[v] = u
				queue = append(queue, v)
			}
		}
	}

	return nil
}

func (g *Graph) unwind(parent map[int]int, last, start int) []string {
	var path []string

	for cur := last; cur != -1 && cur != start; cur = parent[cur] {
		path = append(path, g.names[cur])
	}

	path = append(path, g.names[start])

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path
}

func (g *Graph) intern(name string) int {
	if id, exists := g.ids[name]; exists {
		return id
	}

	id := len(g.names)
	g.ids[name] = id
	g.names = append(g.names, name)
	g.edges = append(g.edges, nil)
	g.inDegree = append(g.inDegree, 0)

	return id
}

func insertSorted(queue *[]int, v int) {
	i := sort.SearchInts(*queue, v)
	*queue = append(*queue, 0)
	copy((*queue)[i+1:], (*queue)[i:])
	(*queue)[i] = v
}
