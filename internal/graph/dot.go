package graph

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/errors"
)

// WriteDOT writes the graph in Graphviz DOT format, with one cluster per owning class.
func WriteDOT(w io.Writer, g *Graph) error {
	var b strings.Builder
	b.WriteString("digraph {\n")
	b.WriteString("  node [style=filled];\n")

	var order []string
	clusters := map[string][]Vertex{}
	for _, v := range g.Vertices {
		owner := v.Node.Container()
		if _, ok := clusters[owner]; !ok {
			order = append(order, owner)
		}
		clusters[owner] = append(clusters[owner], v)
	}
	for i, owner := range order {
		fmt.Fprintf(&b, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&b, "    color=blue;\n    label=%s;\n", strconv.Quote(owner))
		for _, v := range clusters[owner] {
			fmt.Fprintf(&b, "    %s [label=%s];\n", strconv.Quote(v.Node.Key()), strconv.Quote(label(v.Node)))
		}
		b.WriteString("  }\n")
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "  %s -> %s;\n", strconv.Quote(g.Source(e).Key()), strconv.Quote(g.Destination(e).Key()))
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return errors.WithStack(err)
}

func label(node Node) string {
	switch node := node.(type) {
	case InjectionField:
		return node.Field
	case ProviderMethod:
		return node.Function + node.Signature
	}
	return node.Name()
}
