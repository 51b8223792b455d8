// Package graph builds the dependency graph of a resolved session and slices
// it down to the part relevant to one component.
//
// A [Graph] is immutable once built and may be read concurrently.
package graph

import (
	"github.com/orangejam/knitgraph/internal/component"
)

// Node is the data carried by a [Vertex].
//
//sumtype:decl
type Node interface {
	// Container is the class owning the node.
	Container() string
	// Key is the identity of the node. Keys are unique within a graph.
	Key() string
	// Name is the short display name, eg. "com/example/App$log".
	Name() string
	node()
}

// InjectionField is an injected getter of a component.
type InjectionField struct {
	ContainerClass string
	Field          string
}

var _ Node = InjectionField{}

func (f InjectionField) node()             {}
func (f InjectionField) Container() string { return f.ContainerClass }
func (f InjectionField) Name() string      { return f.ContainerClass + "$" + f.Field }
func (f InjectionField) Key() string       { return f.Name() }

// ProviderMethod is a provides method, or a composite property a value flows through.
type ProviderMethod struct {
	ContainerClass string
	Function       string
	Signature      string
}

var _ Node = ProviderMethod{}

func (p ProviderMethod) node()             {}
func (p ProviderMethod) Container() string { return p.ContainerClass }
func (p ProviderMethod) Name() string      { return p.ContainerClass + "$" + p.Function }
func (p ProviderMethod) Key() string       { return p.Name() + ":" + p.Signature }

func providerNode(p component.ProvidesMethod) ProviderMethod {
	return ProviderMethod{
		ContainerClass: string(p.Container),
		Function:       p.Function,
		Signature:      p.DescWithReturnType(),
	}
}

// Edge means the Source vertex feeds the Destination vertex.
type Edge struct {
	Source      int
	Destination int
}

// Vertex is a node in the graph.
type Vertex struct {
	Index int
	Node  Node
	// Edges leaving this vertex, in graph edge order.
	Edges []Edge
}

// Graph is a directed dependency graph.
type Graph struct {
	Vertices []Vertex
	Edges    []Edge

	byKey map[string]int
}

// newGraph creates a graph, indexing vertices densely in node order.
//
// Edges must reference valid node indices.
func newGraph(nodes []Node, edges []Edge) *Graph {
	g := &Graph{
		Vertices: make([]Vertex, len(nodes)),
		Edges:    edges,
		byKey:    make(map[string]int, len(nodes)),
	}
	for i, node := range nodes {
		g.Vertices[i] = Vertex{Index: i, Node: node}
		g.byKey[node.Key()] = i
	}
	for _, edge := range edges {
		src := &g.Vertices[edge.Source]
		src.Edges = append(src.Edges, edge)
	}
	return g
}

// Empty returns a graph with no vertices.
func Empty() *Graph { return newGraph(nil, nil) }

// Lookup returns the vertex index of a node.
func (g *Graph) Lookup(node Node) (int, bool) {
	i, ok := g.byKey[node.Key()]
	return i, ok
}

// Source returns the source node of an edge.
func (g *Graph) Source(e Edge) Node { return g.Vertices[e.Source].Node }

// Destination returns the destination node of an edge.
func (g *Graph) Destination(e Edge) Node { return g.Vertices[e.Destination].Node }
