package binding

import (
	"fmt"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/errors"

	"github.com/orangejam/knitgraph/internal/component"
	"github.com/orangejam/knitgraph/internal/metadata"
)

func parseComponents(t *testing.T, src string) []component.Component {
	t.Helper()
	components, err := metadata.ParseKnit("test.knit", strings.NewReader("knit \"v1\"\n"+src))
	assert.NoError(t, err)
	return components
}

func newSession(t *testing.T, src string, options ...Option) *Session {
	t.Helper()
	s, err := NewSession(parseComponents(t, src), options...)
	assert.NoError(t, err)
	return s
}

func resolved(t *testing.T, src string, options ...Option) *Session {
	t.Helper()
	s := newSession(t, src, options...)
	assert.NoError(t, s.Resolve())
	return s
}

func injectionFor(t *testing.T, s *Session, name component.InternalName, getter string) *Injection {
	t.Helper()
	bc, ok := s.Bound(name)
	assert.True(t, ok, "component %s not bound", name)
	id, ok := bc.Injections[getter]
	assert.True(t, ok, "no injection for %s.%s", name, getter)
	inj := s.Injection(id)
	assert.NotZero(t, inj)
	return inj
}

func TestResolveSelfProvider(t *testing.T) {
	s := resolved(t, `
component a/App {
  inject log: a/Logger
  provides provideLogger(): a/Logger
}
`)
	inj := injectionFor(t, s, "a/App", "log")
	assert.Equal(t, OriginSelf, inj.Origin)
	assert.Equal(t, KindDirect, inj.Kind)
	assert.Equal(t, "provideLogger", inj.Provider.Function)
	assert.Zero(t, inj.Path)
	assert.Equal(t, 0, len(s.Warnings()))
}

func TestResolveInheritedProvider(t *testing.T) {
	src := `
interface component a/Base {
  provides provideLogger(): a/Logger
  inject db: a/Db
}
component a/App {
  parent a/Base
  provides provideDb(): a/Db
}
`
	for _, mode := range []Mode{Strict, Analysis} {
		t.Run(mode.String(), func(t *testing.T) {
			s := resolved(t, src, WithMode(mode))
			app, ok := s.Bound("a/App")
			assert.True(t, ok)
			assert.Equal(t, 2, len(app.Provides))
			assert.Equal(t, 1, len(app.InjectedGetters))

			inj := injectionFor(t, s, "a/App", "db")
			assert.Equal(t, OriginSelf, inj.Origin)
			assert.Equal(t, component.InternalName("a/App"), inj.Provider.Container)

			// The getter is only resolved on the implementing component.
			base, ok := s.Bound("a/Base")
			assert.True(t, ok)
			assert.Equal(t, 0, len(base.Injections))
			assert.Equal(t, 0, len(s.Warnings()))
		})
	}
}

func TestResolveCompositeProvider(t *testing.T) {
	s := resolved(t, `
component a/App {
  composite svc: a/Service
  inject log: a/Logger
}
component a/Service {
  provides provideLogger(): a/Logger
}
`)
	inj := injectionFor(t, s, "a/App", "log")
	assert.Equal(t, OriginComposite, inj.Origin)
	assert.Equal(t, component.InternalName("a/Service"), inj.Provider.Container)
	assert.Equal(t, &ComponentRecord{
		Name:  "a/Service",
		Steps: []CompositeHop{{Owner: "a/App", Property: "svc", Target: "a/Service", Public: true}},
	}, inj.Path)
	assert.Equal(t, 0, len(inj.Requirements))
}

func TestResolveUnresolved(t *testing.T) {
	src := `
component a/App {
  inject log: a/Logger
  inject db: a/Db
  provides provideDb(): a/Db
}
`
	t.Run("Strict", func(t *testing.T) {
		s := newSession(t, src)
		err := s.Resolve()
		var unresolved *UnresolvedDependencyError
		assert.True(t, errors.As(err, &unresolved))
		assert.Equal(t, component.InternalName("a/App"), unresolved.Component)
		assert.Equal(t, "log", unresolved.Getter)
		assert.Equal(t, "a/Logger", unresolved.Type.String())
		assert.Equal(t, err, s.Resolve())
	})
	t.Run("Analysis", func(t *testing.T) {
		s := resolved(t, src, WithMode(Analysis))
		app, _ := s.Bound("a/App")
		_, ok := app.Injections["log"]
		assert.False(t, ok)
		_, ok = app.Injections["db"]
		assert.True(t, ok)
		assert.Equal(t, 1, len(s.Warnings()))
		var unresolved *UnresolvedDependencyError
		assert.True(t, errors.As(s.Warnings()[0], &unresolved))
	})
}

func TestResolveAmbiguous(t *testing.T) {
	src := `
component a/App {
  inject log: a/Logger
  provides fileLogger(): a/Logger
  provides consoleLogger(): a/Logger
}
`
	t.Run("Strict", func(t *testing.T) {
		err := newSession(t, src).Resolve()
		var ambiguous *AmbiguousDependencyError
		assert.True(t, errors.As(err, &ambiguous))
		assert.Equal(t, "log", ambiguous.Getter)
		assert.Equal(t, []string{
			"a/App.fileLogger()La/Logger;",
			"a/App.consoleLogger()La/Logger;",
		}, ambiguous.Candidates)
	})
	t.Run("Analysis", func(t *testing.T) {
		s := resolved(t, src, WithMode(Analysis))
		inj := injectionFor(t, s, "a/App", "log")
		assert.Equal(t, "fileLogger", inj.Provider.Function)
		assert.Equal(t, 1, len(s.Warnings()))
		var ambiguous *AmbiguousDependencyError
		assert.True(t, errors.As(s.Warnings()[0], &ambiguous))
		assert.Equal(t, 2, len(ambiguous.Candidates))
	})
}

func TestResolveCompositeAmbiguous(t *testing.T) {
	err := newSession(t, `
component a/App {
  composite left: a/Left
  composite right: a/Right
  inject log: a/Logger
}
component a/Left { provides logger(): a/Logger }
component a/Right { provides logger(): a/Logger }
`).Resolve()
	var ambiguous *AmbiguousDependencyError
	assert.True(t, errors.As(err, &ambiguous))
	assert.Equal(t, 2, len(ambiguous.Candidates))
}

func TestResolveCompositeMultiplePathsSameProvider(t *testing.T) {
	s := resolved(t, `
component a/App {
  composite left: a/Left
  composite right: a/Right
  inject log: a/Logger
}
component a/Left { composite shared: a/Shared }
component a/Right { composite shared: a/Shared }
component a/Shared { provides logger(): a/Logger }
`)
	inj := injectionFor(t, s, "a/App", "log")
	assert.Equal(t, OriginComposite, inj.Origin)
	assert.Equal(t, "left", inj.Path.Steps[0].Property)
	app, _ := s.Bound("a/App")
	assert.Equal(t, 2, len(s.CompositeRecords(app).Get("a/Shared")))
}

func TestResolvePrivateCompositeEncapsulation(t *testing.T) {
	src := `
component a/App {
  %s
  inject x: a/X
}
component a/Service {
  private composite repo: a/Repo
}
component a/Repo {
  provides provideX(): a/X
}
`
	t.Run("NestedPrivateHidden", func(t *testing.T) {
		err := newSession(t, fmt.Sprintf(src, "composite svc: a/Service")).Resolve()
		var unresolved *UnresolvedDependencyError
		assert.True(t, errors.As(err, &unresolved))
	})
	t.Run("OwnPrivateVisible", func(t *testing.T) {
		s := resolved(t, fmt.Sprintf(src, "private composite repo: a/Repo"))
		inj := injectionFor(t, s, "a/App", "x")
		assert.Equal(t, OriginComposite, inj.Origin)
		assert.False(t, inj.Path.Steps[0].Public)
	})
}

func TestResolveMultiBinding(t *testing.T) {
	s := resolved(t, `
component a/App {
  inject plugins: kotlin/collections/List<a/Plugin>
  provides collection first(): a/Plugin
  provides collection second(a/Config): a/Plugin
  provides config(): a/Config
  inject plugin: a/Plugin
  provides single(): a/Plugin
}
`)
	inj := injectionFor(t, s, "a/App", "plugins")
	assert.Equal(t, KindMulti, inj.Kind)
	assert.Equal(t, MultiBindingFunction, inj.Provider.Function)
	assert.Equal(t, 2, len(inj.Requirements))
	first := s.Injection(inj.Requirements[0])
	second := s.Injection(inj.Requirements[1])
	assert.Equal(t, "first", first.Provider.Function)
	assert.Equal(t, "second", second.Provider.Function)
	assert.Equal(t, 1, len(second.Requirements))
	assert.Equal(t, "config", s.Injection(second.Requirements[0]).Provider.Function)

	// Collection-only providers never satisfy a plain dependency.
	single := injectionFor(t, s, "a/App", "plugin")
	assert.Equal(t, "single", single.Provider.Function)
}

func TestResolveFactory(t *testing.T) {
	s := resolved(t, `
component a/App {
  inject newLogger: kotlin/jvm/functions/Function0<a/Logger>
  provides provideLogger(): a/Logger
}
`)
	inj := injectionFor(t, s, "a/App", "newLogger")
	assert.Equal(t, KindFactory, inj.Kind)
	assert.Equal(t, "provideLogger", inj.Provider.Function)
}

func TestResolveGlobalProvider(t *testing.T) {
	s := resolved(t, `
component a/Globals {
  provides global provideClock(): a/Clock
}
component a/App {
  inject clock: a/Clock
}
`)
	inj := injectionFor(t, s, "a/App", "clock")
	assert.Equal(t, OriginSelf, inj.Origin)
	assert.Equal(t, component.InternalName("a/Globals"), inj.Provider.Container)
}

func TestResolveIgnoresOwnDeclaration(t *testing.T) {
	s := resolved(t, `
component a/App {
  inject log: a/Logger
  provides log(): a/Logger
  provides provideLogger(): a/Logger
}
`)
	inj := injectionFor(t, s, "a/App", "log")
	assert.Equal(t, "provideLogger", inj.Provider.Function)
}

func TestResolveRequirementsShared(t *testing.T) {
	s := resolved(t, `
component a/App {
  inject users: a/Users
  inject orders: a/Orders
  provides provideUsers(a/Db): a/Users
  provides provideOrders(a/Db): a/Orders
  provides db(a/Config): a/Db
  provides config(): a/Config
}
`)
	users := injectionFor(t, s, "a/App", "users")
	orders := injectionFor(t, s, "a/App", "orders")
	assert.Equal(t, 1, len(users.Requirements))
	assert.Equal(t, users.Requirements, orders.Requirements)
	db := s.Injection(users.Requirements[0])
	assert.Equal(t, "db", db.Provider.Function)
	assert.Equal(t, 1, len(db.Requirements))
}

func TestResolveRequirementUnresolved(t *testing.T) {
	src := `
component a/App {
  inject db: a/Db
  provides provideDb(a/Config): a/Db
}
`
	err := newSession(t, src).Resolve()
	var unresolved *UnresolvedDependencyError
	assert.True(t, errors.As(err, &unresolved))
	assert.Equal(t, "a/Config", unresolved.Type.String())
	assert.Equal(t, "a/App.provideDb(La/Config;)La/Db;", unresolved.RequiredBy)

	s := resolved(t, src, WithMode(Analysis))
	inj := injectionFor(t, s, "a/App", "db")
	assert.Equal(t, 0, len(inj.Requirements))
	assert.Equal(t, 1, len(s.Warnings()))
}

func TestResolveDependencyCycle(t *testing.T) {
	src := `
component a/App {
  inject x: a/A
  provides makeA(a/B): a/A
  provides makeB(a/A): a/B
}
`
	err := newSession(t, src).Resolve()
	var cycle *DependencyCycleError
	assert.True(t, errors.As(err, &cycle))
	assert.Equal(t, 3, len(cycle.Chain))
	assert.Equal(t, cycle.Chain[0], cycle.Chain[2])

	s := resolved(t, src, WithMode(Analysis))
	inj := injectionFor(t, s, "a/App", "x")
	assert.Equal(t, 1, len(inj.Requirements))
	assert.Equal(t, 0, len(s.Injection(inj.Requirements[0]).Requirements))
}

func TestBindMissingParent(t *testing.T) {
	src := `
component a/App {
  parent a/External
  inject log: a/Logger
}
`
	err := newSession(t, src).Resolve()
	var unresolved *UnresolvedDependencyError
	assert.True(t, errors.As(err, &unresolved))
	assert.Equal(t, component.InternalName("a/App"), unresolved.Component)
	assert.Equal(t, "a/External", unresolved.Type.String())

	var looked []component.InternalName
	mapping := component.MappingFunc(func(name component.InternalName) (*component.Component, error) {
		looked = append(looked, name)
		return &component.Component{Name: name, Provides: []component.ProvidesMethod{{
			Container: name, Function: "logger", Returns: component.NewType("a/Logger"),
		}}}, nil
	})
	s := resolved(t, src, WithMapping(mapping))
	assert.Equal(t, []component.InternalName{"a/External"}, looked)
	inj := injectionFor(t, s, "a/App", "log")
	assert.Equal(t, component.InternalName("a/External"), inj.Provider.Container)
}

func TestBindInheritanceCycle(t *testing.T) {
	err := newSession(t, `
component a/A { parent a/B }
component a/B { parent a/A }
`).Resolve()
	var invalid *ComponentValidationError
	assert.True(t, errors.As(err, &invalid))
	assert.Contains(t, invalid.Error(), "inheritance cycle")
}

func TestBindMutualComposites(t *testing.T) {
	s := resolved(t, `
component a/A { composite b: a/B }
component a/B { composite a: a/A }
`)
	a, _ := s.Bound("a/A")
	b, _ := s.Bound("a/B")
	assert.True(t, a.Composites[0].Component == b)
	assert.True(t, b.Composites[0].Component == a)
}

func TestProvidesParentChecker(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		s := resolved(t, `
component a/Impl { parent a/Api }
component a/Api {}
component a/App {
  provides impl(): a/Impl as a/Api
  inject api: a/Api
}
`)
		inj := injectionFor(t, s, "a/App", "api")
		assert.Equal(t, "impl", inj.Provider.Function)
	})
	t.Run("Invalid", func(t *testing.T) {
		err := newSession(t, `
component a/App {
  provides impl(): a/Impl as a/Api
}
`).Resolve()
		var invalid *ComponentValidationError
		assert.True(t, errors.As(err, &invalid))
		assert.Equal(t, "impl", invalid.Provider)
		assert.Equal(t, component.InternalName("a/Api"), invalid.Parent)
	})
	t.Run("CustomJudgement", func(t *testing.T) {
		always := InheritJudgementFunc(func(child, parent component.InternalName) bool { return true })
		resolved(t, `
component a/App {
  provides impl(): a/Impl as a/Api
}
`, WithInheritJudgement(always))
	})
}

func TestNewSessionDuplicate(t *testing.T) {
	components := parseComponents(t, `component a/App {}`)
	_, err := NewSession(append(components, components...))
	assert.EqualError(t, err, "duplicate component a/App")
}

func TestResolveDeterministic(t *testing.T) {
	src := `
component a/App {
  composite svc: a/Service
  inject log: a/Logger
  inject users: a/Users
  inject plugins: java/util/Set<a/Plugin>
  provides provideUsers(a/Db): a/Users
  provides db(): a/Db
  provides collection p1(a/Db): a/Plugin
  provides collection p2(): a/Plugin
}
component a/Service {
  composite inner: a/Inner
}
component a/Inner {
  provides logger(): a/Logger
}
`
	summary := func() string {
		s := resolved(t, src)
		var b strings.Builder
		for _, bc := range s.Components() {
			for _, getter := range bc.InjectedGetters {
				id, ok := bc.Injections[getter.Name]
				if !ok {
					continue
				}
				writeInjection(&b, s, id, bc.Name+"."+component.InternalName(getter.Name))
			}
		}
		return b.String()
	}
	first := summary()
	assert.NotEqual(t, "", first)
	assert.Equal(t, first, summary())
}

func writeInjection(b *strings.Builder, s *Session, id InjectionID, indent component.InternalName) {
	inj := s.Injection(id)
	fmt.Fprintf(b, "%s <- %d %s %s %s\n", indent, inj.ID, inj.Origin, inj.Kind, inj.Provider)
	for _, req := range inj.Requirements {
		writeInjection(b, s, req, "  "+indent)
	}
}
