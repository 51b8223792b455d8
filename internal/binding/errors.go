package binding

import (
	"fmt"
	"strings"

	"github.com/orangejam/knitgraph/internal/component"
)

// ComponentValidationError is returned when a component's declared shape is inconsistent.
type ComponentValidationError struct {
	Component component.InternalName
	// Provider is the offending provides function, if any.
	Provider string
	// Parent is the parent type the component or provider conflicts with.
	Parent component.InternalName
	Reason string
}

func (e *ComponentValidationError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s.%s: %s %s", e.Component, e.Provider, e.Reason, e.Parent)
	}
	return fmt.Sprintf("%s: %s %s", e.Component, e.Reason, e.Parent)
}

// UnresolvedDependencyError is returned when no provider satisfies a dependency.
type UnresolvedDependencyError struct {
	Component component.InternalName
	// Getter is the injected getter being resolved, empty for a missing parent.
	Getter string
	Type   component.Type
	// RequiredBy is the provider whose parameter could not be satisfied, if any.
	RequiredBy string
}

func (e *UnresolvedDependencyError) Error() string {
	where := string(e.Component)
	if e.Getter != "" {
		where += "." + e.Getter
	}
	if e.RequiredBy != "" {
		return fmt.Sprintf("%s: no provider for %s required by %s", where, e.Type, e.RequiredBy)
	}
	return fmt.Sprintf("%s: no provider for %s", where, e.Type)
}

// AmbiguousDependencyError is returned when more than one provider satisfies a dependency.
type AmbiguousDependencyError struct {
	Component component.InternalName
	Getter    string
	Type      component.Type
	// Candidates are the conflicting providers in declaration order.
	Candidates []string
}

func (e *AmbiguousDependencyError) Error() string {
	return fmt.Sprintf("%s.%s: ambiguous providers for %s: %s", e.Component, e.Getter, e.Type, strings.Join(e.Candidates, ", "))
}

// CompositeCycleError reports a composite traversal that re-entered an owner already on its path.
type CompositeCycleError struct {
	Component component.InternalName
	// Owner is the component that would have been re-entered.
	Owner component.InternalName
	Path  []CompositeHop
}

func (e *CompositeCycleError) Error() string {
	hops := make([]string, len(e.Path))
	for i, hop := range e.Path {
		hops[i] = hop.String()
	}
	return fmt.Sprintf("%s: composite cycle re-entering %s via %s", e.Component, e.Owner, strings.Join(hops, " -> "))
}

// DependencyCycleError is returned when a provider transitively requires its own value.
type DependencyCycleError struct {
	Component component.InternalName
	Getter    string
	// Chain of provider keys, ending with the repeated provider.
	Chain []string
}

func (e *DependencyCycleError) Error() string {
	return fmt.Sprintf("%s.%s: dependency cycle %s", e.Component, e.Getter, strings.Join(e.Chain, " -> "))
}
