package graph

import (
	"github.com/orangejam/knitgraph/internal/component"
)

// FieldsFedBy returns the injected fields directly fed by the provider function of a container.
func (g *Graph) FieldsFedBy(container, function string) []InjectionField {
	want := component.Normalise(container)
	var out []InjectionField
	for _, v := range g.Vertices {
		pm, ok := v.Node.(ProviderMethod)
		if !ok || pm.Function != function || component.Normalise(pm.ContainerClass) != want {
			continue
		}
		for _, e := range v.Edges {
			if field, ok := g.Destination(e).(InjectionField); ok {
				out = append(out, field)
			}
		}
	}
	return out
}

// ProvidersOf returns the providers directly feeding an injected field of a container.
func (g *Graph) ProvidersOf(container, field string) []ProviderMethod {
	want := component.Normalise(container)
	var out []ProviderMethod
	for _, e := range g.Edges {
		f, ok := g.Destination(e).(InjectionField)
		if !ok || f.Field != field || component.Normalise(f.ContainerClass) != want {
			continue
		}
		if pm, ok := g.Source(e).(ProviderMethod); ok {
			out = append(out, pm)
		}
	}
	return out
}

// Components returns the dot-separated names of every class owning a vertex, in vertex order.
func (g *Graph) Components() []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range g.Vertices {
		name := component.Normalise(v.Node.Container())
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// HasComponent returns true if the named class owns any vertex.
func (g *Graph) HasComponent(name string) bool {
	want := component.Normalise(name)
	for _, v := range g.Vertices {
		if component.Normalise(v.Node.Container()) == want {
			return true
		}
	}
	return false
}
