package graph

import (
	"github.com/orangejam/knitgraph/internal/component"
)

// Slice returns the subgraph of full relevant to a component, in either name form.
//
// If the component owns any [InjectionField] vertices the slice holds
// everything feeding them, found by walking edges backwards ("consumer mode").
// Otherwise, if it owns any [ProviderMethod] vertices, the slice holds
// everything they feed, found by walking edges forwards ("provider mode").
// Otherwise the slice is empty.
//
// Vertices are re-indexed densely in the order they were first visited. The
// result shares no state with full.
func Slice(full *Graph, componentName string) *Graph {
	want := component.Normalise(componentName)
	var consumers, providers []int
	for _, v := range full.Vertices {
		if component.Normalise(v.Node.Container()) != want {
			continue
		}
		switch v.Node.(type) {
		case InjectionField:
			consumers = append(consumers, v.Index)
		case ProviderMethod:
			providers = append(providers, v.Index)
		}
	}

	switch {
	case len(consumers) > 0:
		incoming := map[int][]Edge{}
		for _, e := range full.Edges {
			incoming[e.Destination] = append(incoming[e.Destination], e)
		}
		return reindex(full, bfs(consumers, incoming, func(e Edge) int { return e.Source }))

	case len(providers) > 0:
		outgoing := map[int][]Edge{}
		for _, e := range full.Edges {
			outgoing[e.Source] = append(outgoing[e.Source], e)
		}
		return reindex(full, bfs(providers, outgoing, func(e Edge) int { return e.Destination }))

	default:
		return Empty()
	}
}

type reachable struct {
	vertices []int
	edges    []Edge
}

// bfs collects every vertex and edge reachable from seeds over index, where far
// returns the vertex at the other end of an edge.
func bfs(seeds []int, index map[int][]Edge, far func(Edge) int) reachable {
	var out reachable
	seenV := map[int]bool{}
	seenE := map[Edge]bool{}
	var queue []int
	for _, seed := range seeds {
		if !seenV[seed] {
			seenV[seed] = true
			out.vertices = append(out.vertices, seed)
			queue = append(queue, seed)
		}
	}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, e := range index[v] {
			if !seenE[e] {
				seenE[e] = true
				out.edges = append(out.edges, e)
			}
			if next := far(e); !seenV[next] {
				seenV[next] = true
				out.vertices = append(out.vertices, next)
				queue = append(queue, next)
			}
		}
	}
	return out
}

func reindex(full *Graph, keep reachable) *Graph {
	if len(keep.vertices) == 0 {
		return Empty()
	}
	newIndex := make(map[int]int, len(keep.vertices))
	nodes := make([]Node, len(keep.vertices))
	for i, old := range keep.vertices {
		newIndex[old] = i
		nodes[i] = full.Vertices[old].Node
	}
	edges := make([]Edge, len(keep.edges))
	for i, e := range keep.edges {
		edges[i] = Edge{Source: newIndex[e.Source], Destination: newIndex[e.Destination]}
	}
	return newGraph(nodes, edges)
}
