// Package binding resolves components into bound components and their injections.
//
// All state for one resolution lives in a [Session]: the known components, the
// bound-component cache, the global provides set and the arena of resolved
// injections. A session is built once from an immutable snapshot of component
// metadata and discarded wholesale when that metadata changes.
//
// Resolution proceeds in four passes over the known components, in input order:
//
//  1. Bind: resolve parent and composite references to bound components,
//     consulting the [component.Mapping] for names outside the known set.
//  2. Flatten: inherit provides methods and injected getters from parents.
//  3. Check: validate each component's provides methods against its parents.
//  4. Resolve: bind every injected getter to a provider.
package binding

import (
	"log/slog"

	"github.com/alecthomas/errors"
	"go.jetify.com/typeid/v2"

	"github.com/orangejam/knitgraph/internal/component"
)

// Mode controls how binding errors are handled.
type Mode int

const (
	// Strict mode requires exactly one provider for every dependency.
	Strict Mode = iota
	// Analysis mode downgrades unresolved and ambiguous dependencies to
	// warnings, producing a best-effort result.
	Analysis
)

func (m Mode) String() string {
	if m == Analysis {
		return "analysis"
	}
	return "strict"
}

// InheritJudgement decides whether one class extends or implements another.
type InheritJudgement interface {
	Inherits(child, parent component.InternalName) bool
}

// InheritJudgementFunc adapts a function to an [InheritJudgement].
type InheritJudgementFunc func(child, parent component.InternalName) bool

func (f InheritJudgementFunc) Inherits(child, parent component.InternalName) bool {
	return f(child, parent)
}

type sessionOptions struct {
	mode      Mode
	mapping   component.Mapping
	judgement InheritJudgement
	logger    *slog.Logger
}

type Option func(*sessionOptions) error

// WithMode selects strict or analysis resolution.
func WithMode(mode Mode) Option {
	return func(o *sessionOptions) error {
		o.mode = mode
		return nil
	}
}

// WithMapping sets the lookup used for names outside the known component set.
func WithMapping(mapping component.Mapping) Option {
	return func(o *sessionOptions) error {
		o.mapping = mapping
		return nil
	}
}

// WithInheritJudgement replaces the default judgement, which walks declared parents.
func WithInheritJudgement(judgement InheritJudgement) Option {
	return func(o *sessionOptions) error {
		o.judgement = judgement
		return nil
	}
}

// WithLogger sets the logger for warnings and debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *sessionOptions) error {
		if logger == nil {
			return errors.Errorf("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}

func WithOptions(options ...Option) Option {
	return func(o *sessionOptions) error {
		for _, opt := range options {
			if err := opt(o); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}
}

// Session is the context of one resolution.
//
// A Session is not safe for concurrent use. Independent sessions share no state.
type Session struct {
	// ID uniquely identifies the session in logs.
	ID string

	mode      Mode
	logger    *slog.Logger
	mapping   component.Mapping
	judgement InheritJudgement

	components map[component.InternalName]*component.Component
	order      []component.InternalName
	global     []component.ProvidesMethod

	bound      map[component.InternalName]*BoundComponent
	boundOrder []component.InternalName
	flattened  map[component.InternalName]flattenState
	inherits   map[[2]component.InternalName]bool
	records    map[component.InternalName]*CompositeRecords

	arena    arena
	shared   map[sharedKey]InjectionID
	warnings []error
	cycles   []*CompositeCycleError

	resolved bool
	err      error
}

// NewSession creates a session over a snapshot of component metadata.
//
// Component names must be unique. The components are copied and never mutated.
func NewSession(components []component.Component, options ...Option) (*Session, error) {
	opts := &sessionOptions{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range options {
		if err := opt(opts); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	s := &Session{
		ID:         typeid.MustGenerate("session").String(),
		mode:       opts.mode,
		logger:     opts.logger,
		mapping:    opts.mapping,
		components: make(map[component.InternalName]*component.Component, len(components)),
		bound:      make(map[component.InternalName]*BoundComponent, len(components)),
		flattened:  make(map[component.InternalName]flattenState),
		inherits:   make(map[[2]component.InternalName]bool),
		records:    make(map[component.InternalName]*CompositeRecords),
		shared:     make(map[sharedKey]InjectionID),
	}
	s.judgement = opts.judgement
	if s.judgement == nil {
		s.judgement = InheritJudgementFunc(s.inheritsByParents)
	}
	for i := range components {
		c := components[i]
		if _, ok := s.components[c.Name]; ok {
			return nil, errors.Errorf("duplicate component %s", c.Name)
		}
		s.components[c.Name] = &c
		s.order = append(s.order, c.Name)
		for _, p := range c.Provides {
			if p.Global {
				s.global = append(s.global, p)
			}
		}
	}
	return s, nil
}

// Mode returns the resolution mode of the session.
func (s *Session) Mode() Mode { return s.mode }

// Resolve binds, checks and resolves every known component.
//
// Results are cached: subsequent calls return the outcome of the first.
func (s *Session) Resolve() error {
	if s.resolved {
		return s.err
	}
	s.resolved = true
	s.err = s.resolve()
	return s.err
}

func (s *Session) resolve() error {
	s.logger.Debug("Resolving components", "session", s.ID, "mode", s.mode, "components", len(s.order))
	for _, name := range s.order {
		if _, err := s.bind(name); err != nil {
			return errors.Wrapf(err, "failed to bind %s", name)
		}
	}
	// Includes components pulled in through the mapping, which may be composite targets.
	for _, name := range s.boundOrder {
		if err := s.flatten(s.bound[name], ""); err != nil {
			return errors.WithStack(err)
		}
	}
	for _, name := range s.order {
		if err := s.check(s.bound[name]); err != nil {
			return errors.WithStack(err)
		}
	}
	for _, name := range s.order {
		s.CompositeRecords(s.bound[name])
	}
	for _, name := range s.order {
		if err := s.resolveComponent(s.bound[name]); err != nil {
			return errors.WithStack(err)
		}
	}
	s.logger.Debug("Resolved components", "session", s.ID, "injections", len(s.arena.nodes), "warnings", len(s.warnings))
	return nil
}

// Components returns the bound form of every known component, in input order.
//
// Only valid after a successful [Session.Resolve].
func (s *Session) Components() []*BoundComponent {
	out := make([]*BoundComponent, 0, len(s.order))
	for _, name := range s.order {
		if bc, ok := s.bound[name]; ok {
			out = append(out, bc)
		}
	}
	return out
}

// Bound returns the bound component for a name, including components pulled in through the mapping.
func (s *Session) Bound(name component.InternalName) (*BoundComponent, bool) {
	bc, ok := s.bound[name]
	return bc, ok
}

// Injection returns the injection with the given ID, or nil.
func (s *Session) Injection(id InjectionID) *Injection { return s.arena.get(id) }

// Warnings returns the binding errors downgraded in analysis mode, in the order they occurred.
func (s *Session) Warnings() []error { return s.warnings }

// CompositeCycles returns the composite cycles found while enumerating
// composite records, in the order they were found.
//
// Each known component is enumerated by [Session.Resolve]. A cycle only
// abandons the affected route, it never fails the session.
func (s *Session) CompositeCycles() []*CompositeCycleError { return s.cycles }

// CompositeRecords returns the memoised composite records of a bound component.
func (s *Session) CompositeRecords(bc *BoundComponent) *CompositeRecords {
	if records, ok := s.records[bc.Name]; ok {
		return records
	}
	records, cycles := FindCompositeRecords(bc)
	for _, cycle := range cycles {
		s.logger.Debug("Composite cycle", "session", s.ID, "component", bc.Name, "err", cycle)
	}
	s.cycles = append(s.cycles, cycles...)
	s.records[bc.Name] = records
	return records
}

func (s *Session) warn(bc *BoundComponent, getter string, err error) {
	s.logger.Warn("Binding error downgraded", "session", s.ID, "component", bc.Name, "getter", getter, "err", err)
	s.warnings = append(s.warnings, err)
}

// lookup a component in the known set, falling back to the mapping.
func (s *Session) lookup(name component.InternalName) (*component.Component, error) {
	if c, ok := s.components[name]; ok {
		return c, nil
	}
	if s.mapping == nil {
		return nil, errors.Wrapf(component.ErrUnknownComponent, "%s", name)
	}
	c, err := s.mapping.Lookup(name)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return c, nil
}
