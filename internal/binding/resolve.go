package binding

import (
	"slices"

	"github.com/orangejam/knitgraph/internal/component"
)

type sharedKey struct {
	component component.InternalName
	kind      Kind
	provider  string
}

// site identifies what is being resolved, for error reporting.
type site struct {
	component  *BoundComponent
	getter     string
	requiredBy string
}

// resolveComponent binds every injected getter of bc to a provider.
//
// Interfaces are never instantiated, so their getters are only resolved on
// the components implementing them.
func (s *Session) resolveComponent(bc *BoundComponent) error {
	bc.Injections = make(map[string]InjectionID, len(bc.InjectedGetters))
	if bc.Interface {
		return nil
	}
	for _, getter := range bc.InjectedGetters {
		at := site{component: bc, getter: getter.Name}
		provides := s.candidateProvides(bc, &getter)
		cand, ok, err := s.find(at, getter.Type, provides)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		id, ok, err := s.materialise(at, cand, nil)
		if err != nil {
			return err
		}
		if ok {
			bc.Injections[getter.Name] = id
		}
	}
	return nil
}

// candidateProvides returns own, inherited and global provides methods,
// excluding the declaration of the getter being resolved.
func (s *Session) candidateProvides(bc *BoundComponent, getter *component.InjectedGetter) []component.ProvidesMethod {
	out := make([]component.ProvidesMethod, 0, len(bc.Provides)+len(s.global))
	seen := make(map[string]bool, cap(out))
	for _, p := range slices.Concat(bc.Provides, s.global) {
		if getter != nil && p.Function == getter.Name && p.Container == getter.Container {
			continue
		}
		key := p.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

// find selects the provider for a requested type, searching composites if no direct provider matches.
//
// Returns false if nothing was selected without error, which only happens in analysis mode.
func (s *Session) find(at site, requested component.Type, provides []component.ProvidesMethod) (candidate, bool, error) {
	groups := findDirect(&findContext{component: at.component, requested: requested, provides: provides})
	if len(groups) == 0 {
		if found := s.findComposite(at.component, requested); len(found) > 0 {
			groups = [][]candidate{found}
		}
	}
	return s.choose(at, requested, groups)
}

// findComposite searches the provides methods of every component reachable
// through composites. A provider reachable by several routes is proposed once,
// with its first route.
func (s *Session) findComposite(bc *BoundComponent, requested component.Type) []candidate {
	records := s.CompositeRecords(bc)
	seen := map[string]bool{}
	var out []candidate
	for _, name := range records.Names() {
		target, ok := s.bound[name]
		if !ok {
			continue
		}
		ctx := &findContext{component: target, requested: requested, provides: target.Provides}
		for _, c := range slices.Concat(defaultStrategy(ctx), factoryStrategy(ctx)) {
			key := c.provider.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			c.origin = OriginComposite
			c.path = records.Get(name)[0]
			out = append(out, c)
		}
	}
	return out
}

// choose applies the selection rule to the candidates of each matching strategy.
func (s *Session) choose(at site, requested component.Type, groups [][]candidate) (candidate, bool, error) {
	all := slices.Concat(groups...)
	switch len(all) {
	case 1:
		return all[0], true, nil

	case 0:
		err := &UnresolvedDependencyError{Component: at.component.Name, Getter: at.getter, Type: requested, RequiredBy: at.requiredBy}
		if s.mode == Strict {
			return candidate{}, false, err
		}
		s.warn(at.component, at.getter, err)
		return candidate{}, false, nil

	default:
		names := make([]string, len(all))
		for i, c := range all {
			names[i] = c.String()
		}
		err := &AmbiguousDependencyError{Component: at.component.Name, Getter: at.getter, Type: requested, Candidates: names}
		if s.mode == Strict {
			return candidate{}, false, err
		}
		s.warn(at.component, at.getter, err)
		return groups[0][0], true, nil
	}
}

// materialise adds the injection for a chosen candidate to the arena,
// resolving the provider's own parameters into requirement injections.
//
// Requirement trees of the same provider within one component are shared.
func (s *Session) materialise(at site, cand candidate, stack []string) (InjectionID, bool, error) {
	inj := Injection{Provider: cand.provider, Origin: cand.origin, Kind: cand.kind, Path: cand.path}
	if cand.origin == OriginComposite {
		return s.arena.add(inj), true, nil
	}
	key := sharedKey{component: at.component.Name, kind: cand.kind, provider: cand.provider.Key()}
	if id, ok := s.shared[key]; ok {
		return id, true, nil
	}
	if slices.Contains(stack, key.provider) {
		err := &DependencyCycleError{Component: at.component.Name, Getter: at.getter, Chain: append(slices.Clone(stack), key.provider)}
		if s.mode == Strict {
			return 0, false, err
		}
		s.warn(at.component, at.getter, err)
		return 0, false, nil
	}
	stack = append(slices.Clip(stack), key.provider)

	if cand.kind == KindMulti {
		for _, element := range cand.elements {
			id, ok, err := s.materialise(at, candidate{provider: element, kind: KindDirect, origin: OriginSelf}, stack)
			if err != nil {
				return 0, false, err
			}
			if ok {
				inj.Requirements = append(inj.Requirements, id)
			}
		}
	} else {
		provides := s.candidateProvides(at.component, nil)
		for _, param := range cand.provider.Params {
			req := site{component: at.component, getter: at.getter, requiredBy: cand.provider.String()}
			found, ok, err := s.find(req, param, provides)
			if err != nil {
				return 0, false, err
			}
			if !ok {
				continue
			}
			id, ok, err := s.materialise(req, found, stack)
			if err != nil {
				return 0, false, err
			}
			if ok {
				inj.Requirements = append(inj.Requirements, id)
			}
		}
	}
	id := s.arena.add(inj)
	s.shared[key] = id
	return id, true, nil
}
