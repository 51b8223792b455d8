package graph

import (
	"github.com/alecthomas/errors"

	"github.com/orangejam/knitgraph/internal/binding"
)

// Build the dependency graph of every injection in a session, resolving it first if necessary.
//
// Each injected getter becomes an [InjectionField] vertex fed by its provider.
// Requirement trees are unrolled so every provider feeds the provider that
// requires it. Providers reached through composites are linked through one
// [ProviderMethod] vertex per intermediate composite property on every route
// to the provider's component.
func Build(s *binding.Session) (*Graph, error) {
	if err := s.Resolve(); err != nil {
		return nil, errors.WithStack(err)
	}
	b := &builder{session: s, byKey: map[string]int{}, edgeSet: map[Edge]bool{}}
	for _, bc := range s.Components() {
		for _, getter := range bc.InjectedGetters {
			id, ok := bc.Injections[getter.Name]
			if !ok {
				continue
			}
			field := b.intern(InjectionField{ContainerClass: string(bc.Name), Field: getter.Name})
			b.attach(bc, field, s.Injection(id))
		}
	}
	return newGraph(b.nodes, b.edges), nil
}

type builder struct {
	session *binding.Session
	nodes   []Node
	byKey   map[string]int
	edges   []Edge
	edgeSet map[Edge]bool
}

// intern returns the index of the vertex for node, creating it if necessary.
func (b *builder) intern(node Node) int {
	key := node.Key()
	if i, ok := b.byKey[key]; ok {
		return i
	}
	i := len(b.nodes)
	b.nodes = append(b.nodes, node)
	b.byKey[key] = i
	return i
}

func (b *builder) edge(src, dst int) {
	if src == dst {
		return
	}
	e := Edge{Source: src, Destination: dst}
	if b.edgeSet[e] {
		return
	}
	b.edgeSet[e] = true
	b.edges = append(b.edges, e)
}

type pending struct {
	consumer  int
	injection *binding.Injection
}

// attach the injection tree rooted at root to the consumer vertex, breadth first.
func (b *builder) attach(bc *binding.BoundComponent, consumer int, root *binding.Injection) {
	queue := []pending{{consumer: consumer, injection: root}}
	expanded := map[string]bool{}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		inj := next.injection
		if inj.Origin == binding.OriginComposite {
			b.attachComposite(bc, next.consumer, inj)
			continue
		}
		provider := b.intern(providerNode(inj.Provider))
		b.edge(provider, next.consumer)
		key := inj.Provider.Key()
		if expanded[key] {
			continue
		}
		expanded[key] = true
		for _, req := range inj.Requirements {
			queue = append(queue, pending{consumer: provider, injection: b.session.Injection(req)})
		}
	}
}

// attachComposite chains provider -> hop_n -> ... -> hop_2 -> consumer for
// every route to the component the provider was found on. The first hop is
// owned by the consuming component and is represented by the consumer itself.
func (b *builder) attachComposite(bc *binding.BoundComponent, consumer int, inj *binding.Injection) {
	pm := providerNode(inj.Provider)
	provider := b.intern(pm)
	for _, record := range b.session.CompositeRecords(bc).Get(inj.Path.Name) {
		prev := provider
		for i := len(record.Steps) - 1; i >= 1; i-- {
			hop := record.Steps[i]
			via := b.intern(ProviderMethod{ContainerClass: string(hop.Owner), Function: hop.Property, Signature: pm.Signature})
			b.edge(prev, via)
			prev = via
		}
		b.edge(prev, consumer)
	}
}
