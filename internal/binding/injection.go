package binding

import (
	"github.com/orangejam/knitgraph/internal/component"
)

// Origin records where the provider of an [Injection] was found.
type Origin int

const (
	// OriginSelf providers are declared on, inherited by or global to the consuming component.
	OriginSelf Origin = iota
	// OriginComposite providers are reached through nested composite components.
	OriginComposite
)

func (o Origin) String() string {
	switch o {
	case OriginSelf:
		return "SELF"
	case OriginComposite:
		return "COMPOSITE"
	}
	return "UNKNOWN"
}

// Kind is the strategy that produced an [Injection].
type Kind int

const (
	KindDirect Kind = iota
	KindFactory
	KindMulti
)

func (k Kind) String() string {
	switch k {
	case KindDirect:
		return "direct"
	case KindFactory:
		return "factory"
	case KindMulti:
		return "multi"
	}
	return "unknown"
}

// MultiBindingFunction is the function name of synthetic multi-binding providers.
const MultiBindingFunction = "multibinding"

// InjectionID addresses an [Injection] in a session's arena.
type InjectionID int

// Injection is a resolved binding from a consumer to a provider.
type Injection struct {
	ID       InjectionID
	Provider component.ProvidesMethod
	Origin   Origin
	Kind     Kind
	// Path is the composite route to the provider, set iff Origin is OriginComposite.
	Path *ComponentRecord
	// Requirements are the injections satisfying the provider's own parameters.
	//
	// Sub-injections may be shared between trees.
	Requirements []InjectionID
}

type arena struct {
	nodes []*Injection
}

func (a *arena) add(inj Injection) InjectionID {
	inj.ID = InjectionID(len(a.nodes))
	a.nodes = append(a.nodes, &inj)
	return inj.ID
}

func (a *arena) get(id InjectionID) *Injection {
	if id < 0 || int(id) >= len(a.nodes) {
		return nil
	}
	return a.nodes[id]
}
