package dag

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		g:   graph.New(graph.StringHash, graph.Directed()),
		seq: make(map[string]int),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.seq[id]; ok {
		return
	}
	// The vertex cannot already exist: seq and g are updated together.
	_ = g.g.AddVertex(id)
	g.seq[id] = len(g.seq)
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. An error is returned
// if either node does not exist or if the edge would create a self-reference.
// Adding an edge twice is a no-op.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.seq[fromID]; !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	if _, ok := g.seq[toID]; !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	if err := g.g.AddEdge(fromID, toID); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return fmt.Errorf("linking %s -> %s: %w", fromID, toID, err)
	}
	return nil
}

// Dependents returns the IDs of the nodes that depend on the given node, in
// insertion order.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	if _, ok := g.seq[id]; !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	adj, err := g.g.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	return g.sortedKeys(adj[id]), nil
}

// Roots returns the nodes without dependencies, in insertion order.
func (g *Graph) Roots() ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	preds, err := g.g.PredecessorMap()
	if err != nil {
		return nil, err
	}
	return g.filter(func(id string) bool { return len(preds[id]) == 0 }), nil
}

// Order returns a topological ordering of the nodes. Among nodes whose
// relative order is not fixed by an edge, insertion order wins, so the
// result is deterministic.
func (g *Graph) Order() ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	order, err := graph.StableTopologicalSort(g.g, func(a, b string) bool {
		return g.seq[a] < g.seq[b]
	})
	if err != nil {
		return nil, fmt.Errorf("cycle detected: %w", err)
	}
	return order, nil
}

func (g *Graph) sortedKeys(m map[string]graph.Edge[string]) []string {
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return g.seq[out[i]] < g.seq[out[j]] })
	return out
}

func (g *Graph) filter(keep func(id string) bool) []string {
	out := make([]string, 0, len(g.seq))
	for id := range g.seq {
		if keep(id) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return g.seq[out[i]] < g.seq[out[j]] })
	return out
}
