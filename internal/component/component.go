// Package component describes the dependency injection shape of a compiled class.
//
// A [Component] is pure data: the provides methods a class declares, the
// injected getters it consumes, the composite sub-components it holds and the
// parent types it extends. Components are produced by an external metadata
// extraction step and are never mutated once loaded.
package component

import (
	"strings"

	"github.com/alecthomas/errors"
)

// ErrUnknownComponent is returned by a [Mapping] that has no component for a name.
var ErrUnknownComponent = errors.New("unknown component")

// InternalName is a slash-separated class name, eg. "com/example/App".
type InternalName string

// FQN returns the dot-separated form of the name, eg. "com.example.App".
func (n InternalName) FQN() string { return Normalise(string(n)) }

// Normalise converts either form of a class name to the dot-separated form.
func Normalise(name string) string { return strings.ReplaceAll(name, "/", ".") }

// A ProvidesMethod produces a value that can satisfy an injection.
type ProvidesMethod struct {
	// Container is the class declaring the method.
	Container InternalName
	Function  string
	// Params are the types the method requires.
	Params  []Type
	Returns Type
	// As lists additional parent types the provided value is exposed as.
	As []Type
	// Global providers are visible to every component in a session.
	Global bool
	// OnlyCollection providers only contribute to multi-bindings.
	OnlyCollection bool
}

// Desc returns the parameter descriptor of the method, eg. "(Lcom/example/Db;)".
func (p ProvidesMethod) Desc() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, param := range p.Params {
		b.WriteString(param.Descriptor())
	}
	b.WriteByte(')')
	return b.String()
}

// DescWithReturnType returns the full method descriptor including the return type.
func (p ProvidesMethod) DescWithReturnType() string {
	return p.Desc() + p.Returns.Descriptor()
}

// Key uniquely identifies the method within a session.
func (p ProvidesMethod) Key() string {
	return string(p.Container) + "#" + p.Function + ":" + p.DescWithReturnType()
}

// ProvidedTypes returns the return type followed by any exposed parent types.
func (p ProvidesMethod) ProvidedTypes() []Type {
	out := make([]Type, 0, len(p.As)+1)
	out = append(out, p.Returns)
	return append(out, p.As...)
}

func (p ProvidesMethod) String() string {
	return string(p.Container) + "." + p.Function + p.DescWithReturnType()
}

// CompositeComponent is a property whose value is itself a component.
//
// Parents are also modelled as composite components, in which case Property is empty.
type CompositeComponent struct {
	Property string
	Type     Type
	Public   bool
}

// An InjectedGetter is a dependency slot that must be bound to exactly one provider.
type InjectedGetter struct {
	Container InternalName
	Name      string
	Type      Type
}

func (g InjectedGetter) String() string {
	return string(g.Container) + "." + g.Name + ": " + g.Type.String()
}

// Component is the declared DI shape of a single class.
type Component struct {
	Name            InternalName
	Parents         []CompositeComponent
	TypeParams      []string
	Provides        []ProvidesMethod
	Composites      []CompositeComponent
	InjectedGetters []InjectedGetter
	// Singletons lists the provides functions whose values are cached.
	Singletons []string
	Interface  bool
}

// IsSingleton returns true if the named provides function is a singleton.
func (c *Component) IsSingleton(function string) bool {
	for _, s := range c.Singletons {
		if s == function {
			return true
		}
	}
	return false
}

// Mapping looks up a component by name.
//
// It is consulted whenever a referenced type is not part of the known component
// set, and must return an error wrapping [ErrUnknownComponent] on a miss.
type Mapping interface {
	Lookup(name InternalName) (*Component, error)
}

// MappingFunc adapts a function to a [Mapping].
type MappingFunc func(name InternalName) (*Component, error)

func (f MappingFunc) Lookup(name InternalName) (*Component, error) { return f(name) }

// MapMapping is a [Mapping] backed by a pre-built symbol table.
type MapMapping map[InternalName]*Component

func (m MapMapping) Lookup(name InternalName) (*Component, error) {
	if c, ok := m[name]; ok {
		return c, nil
	}
	return nil, errors.Wrapf(ErrUnknownComponent, "%s", name)
}

// ExternalMapping returns a [Mapping] that treats every name as a leaf class
// with no DI shape of its own, the way a reflective lookup of a plain library
// class would.
func ExternalMapping() Mapping {
	return MappingFunc(func(name InternalName) (*Component, error) {
		return &Component{Name: name}, nil
	})
}
