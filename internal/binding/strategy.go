package binding

import (
	"slices"
	"strconv"

	"github.com/orangejam/knitgraph/internal/component"
)

// candidate is a provider that could satisfy a dependency.
type candidate struct {
	provider component.ProvidesMethod
	kind     Kind
	origin   Origin
	path     *ComponentRecord
	// elements are the contributing providers of a multi-binding.
	elements []component.ProvidesMethod
}

func (c candidate) String() string {
	if c.kind == KindMulti {
		return c.provider.String() + "[" + strconv.Itoa(len(c.elements)) + " elements]"
	}
	return c.provider.String()
}

type findContext struct {
	component *BoundComponent
	requested component.Type
	provides  []component.ProvidesMethod
}

// A strategy proposes candidates for the requested type.
type strategy func(ctx *findContext) []candidate

// Strategies in priority order.
var strategies = []strategy{
	defaultStrategy,
	factoryStrategy,
	multiBindingStrategy,
}

func providesType(p component.ProvidesMethod, t component.Type) bool {
	return slices.ContainsFunc(p.ProvidedTypes(), t.Equal)
}

// defaultStrategy matches providers of exactly the requested type.
func defaultStrategy(ctx *findContext) []candidate {
	var out []candidate
	for _, p := range ctx.provides {
		if !p.OnlyCollection && providesType(p, ctx.requested) {
			out = append(out, candidate{provider: p, kind: KindDirect})
		}
	}
	return out
}

// factoryStrategy matches providers of T for a requested zero-argument factory of T.
func factoryStrategy(ctx *findContext) []candidate {
	if !ctx.requested.IsFactory() {
		return nil
	}
	element := ctx.requested.Element()
	var out []candidate
	for _, p := range ctx.provides {
		if !p.OnlyCollection && providesType(p, element) {
			out = append(out, candidate{provider: p, kind: KindFactory})
		}
	}
	return out
}

// multiBindingStrategy gathers every collection-only provider of T into a
// single synthetic provider for a requested collection of T.
func multiBindingStrategy(ctx *findContext) []candidate {
	if !ctx.requested.IsCollection() {
		return nil
	}
	element := ctx.requested.Element()
	var elements []component.ProvidesMethod
	for _, p := range ctx.provides {
		if p.OnlyCollection && providesType(p, element) {
			elements = append(elements, p)
		}
	}
	if len(elements) == 0 {
		return nil
	}
	synthetic := component.ProvidesMethod{
		Container: ctx.component.Name,
		Function:  MultiBindingFunction,
		Returns:   ctx.requested,
	}
	return []candidate{{provider: synthetic, kind: KindMulti, elements: elements}}
}

// findDirect applies every strategy, returning one group of candidates per strategy that matched.
func findDirect(ctx *findContext) [][]candidate {
	var groups [][]candidate
	for _, strategy := range strategies {
		if found := strategy(ctx); len(found) > 0 {
			groups = append(groups, found)
		}
	}
	return groups
}
