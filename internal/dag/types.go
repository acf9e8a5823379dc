package dag

import (
	"sync"

	"github.com/dominikbraun/graph"
)

// Graph is a collection of named nodes and their dependencies. All
// operations on the graph are concurrency-safe.
type Graph struct {
	// mutex guards g and seq.
	mutex sync.RWMutex
	g     graph.Graph[string, string]
	// seq records insertion order, used to break ties in Order.
	seq map[string]int
}
