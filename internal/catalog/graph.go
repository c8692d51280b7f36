package catalog

import "github.com/google/uuid"

// graph is the id-keyed dependency adjacency of one compilation: an edge
// from → to means from requires to. Edges are added one at a time and only
// after a reachability check, so the graph stays acyclic by construction.
type graph struct {
	edges map[uuid.UUID]map[uuid.UUID]bool
}

func newGraph() *graph {
	return &graph{edges: map[uuid.UUID]map[uuid.UUID]bool{}}
}

func (g *graph) add(from, to uuid.UUID) {
	if g.edges[from] == nil {
		g.edges[from] = map[uuid.UUID]bool{}
	}
	g.edges[from][to] = true
}

func (g *graph) has(from, to uuid.UUID) bool {
	return g.edges[from][to]
}

// reachable reports whether to can be reached from from by following edges,
// counting the trivial case from == to. Plain DFS is plenty, catalogs hold at
// most a few thousand nodes.
func (g *graph) reachable(from, to uuid.UUID) bool {
	if from == to {
		return true
	}

	visited := map[uuid.UUID]bool{from: true}
	stack := []uuid.UUID{from}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for next := range g.edges[current] {
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}
