package binding

import (
	"slices"

	"github.com/alecthomas/errors"

	"github.com/orangejam/knitgraph/internal/component"
)

// BoundComponent is a [component.Component] with its references resolved.
type BoundComponent struct {
	Name       component.InternalName
	Parents    []*BoundComponent
	TypeParams []string
	// Provides holds the component's own provides methods followed by inherited ones.
	Provides   []component.ProvidesMethod
	Composites []BoundComposite
	// InjectedGetters holds own getters followed by inherited ones.
	InjectedGetters []component.InjectedGetter
	Singletons      []string
	Interface       bool
	// Injections maps getter names to their resolved injection.
	//
	// Nil until the session resolves the component. Getters left unresolved in
	// analysis mode have no entry, and interfaces have none at all.
	Injections map[string]InjectionID

	source *component.Component
}

// BoundComposite is a composite property bound to its target component.
type BoundComposite struct {
	Property  string
	Type      component.Type
	Component *BoundComponent
	Public    bool
}

// Source returns the unbound component this was created from.
func (bc *BoundComponent) Source() *component.Component { return bc.source }

type flattenState int

const (
	unflattened flattenState = iota
	flattening
	flattenedDone
)

// bind returns the memoised bound component for name.
//
// The component is cached before its references are bound, so mutually
// referencing components terminate and share one bound instance per name.
func (s *Session) bind(name component.InternalName) (*BoundComponent, error) {
	if bc, ok := s.bound[name]; ok {
		return bc, nil
	}
	c, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	bc := &BoundComponent{
		Name:       name,
		TypeParams: c.TypeParams,
		Singletons: c.Singletons,
		Interface:  c.Interface,
		source:     c,
	}
	s.bound[name] = bc
	s.boundOrder = append(s.boundOrder, name)

	for _, parent := range c.Parents {
		pbc, err := s.bind(parent.Type.Class)
		if err != nil {
			return nil, missingReference(name, "", parent.Type, err)
		}
		bc.Parents = append(bc.Parents, pbc)
	}
	for _, composite := range c.Composites {
		target, err := s.bind(composite.Type.Class)
		if err != nil {
			return nil, missingReference(name, composite.Property, composite.Type, err)
		}
		bc.Composites = append(bc.Composites, BoundComposite{
			Property:  composite.Property,
			Type:      composite.Type,
			Component: target,
			Public:    composite.Public,
		})
	}
	return bc, nil
}

func missingReference(owner component.InternalName, property string, t component.Type, err error) error {
	if errors.Is(err, component.ErrUnknownComponent) {
		return &UnresolvedDependencyError{Component: owner, Getter: property, Type: t}
	}
	return err
}

// flatten inherits provides methods and injected getters from parents.
//
// Own declarations override inherited ones with the same name and signature.
// Global provides methods are not inherited, they are visible everywhere.
func (s *Session) flatten(bc *BoundComponent, child component.InternalName) error {
	switch s.flattened[bc.Name] {
	case flattenedDone:
		return nil
	case flattening:
		return &ComponentValidationError{Component: child, Parent: bc.Name, Reason: "inheritance cycle via parent"}
	}
	s.flattened[bc.Name] = flattening
	bc.Provides = slices.Clone(bc.source.Provides)
	bc.InjectedGetters = slices.Clone(bc.source.InjectedGetters)
	for _, parent := range bc.Parents {
		if err := s.flatten(parent, bc.Name); err != nil {
			return err
		}
		for _, p := range parent.Provides {
			if p.Global || overridden(bc.Provides, p) {
				continue
			}
			bc.Provides = append(bc.Provides, p)
		}
		for _, g := range parent.InjectedGetters {
			if slices.ContainsFunc(bc.InjectedGetters, func(own component.InjectedGetter) bool { return own.Name == g.Name }) {
				continue
			}
			bc.InjectedGetters = append(bc.InjectedGetters, g)
		}
	}
	s.flattened[bc.Name] = flattenedDone
	return nil
}

func overridden(provides []component.ProvidesMethod, p component.ProvidesMethod) bool {
	return slices.ContainsFunc(provides, func(own component.ProvidesMethod) bool {
		return own.Function == p.Function && own.DescWithReturnType() == p.DescWithReturnType()
	})
}

// inheritsByParents is the default [InheritJudgement], walking declared parents.
func (s *Session) inheritsByParents(child, parent component.InternalName) bool {
	if child == parent {
		return true
	}
	key := [2]component.InternalName{child, parent}
	if result, ok := s.inherits[key]; ok {
		return result
	}
	visited := map[component.InternalName]bool{child: true}
	queue := []component.InternalName{child}
	result := false
	for len(queue) > 0 && !result {
		name := queue[0]
		queue = queue[1:]
		c, err := s.lookup(name)
		if err != nil {
			continue
		}
		for _, p := range c.Parents {
			if p.Type.Class == parent {
				result = true
				break
			}
			if !visited[p.Type.Class] {
				visited[p.Type.Class] = true
				queue = append(queue, p.Type.Class)
			}
		}
	}
	s.inherits[key] = result
	return result
}

// assignable returns true if a value of type provided can be used where requested is expected.
func (s *Session) assignable(provided, requested component.Type) bool {
	if provided.Class != requested.Class && !s.judgement.Inherits(provided.Class, requested.Class) {
		return false
	}
	return len(requested.Args) == 0 || slices.EqualFunc(provided.Args, requested.Args, component.Type.Equal)
}
