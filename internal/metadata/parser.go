// Package metadata loads component descriptors produced by the metadata extraction step.
//
// Two equivalent descriptor formats are supported. The ".knit" format:
//
//	knit "v1"
//
//	interface component com/example/Base {
//	  provides base(): com/example/Db
//	}
//
//	component com/example/App<T> {
//	  parent com/example/Base
//	  composite svc: com/example/Service
//	  private composite repo: com/example/Repo
//	  inject log: com/example/Logger
//	  provides global collection plugin(com/example/Db): com/example/Plugin as com/example/Api
//	  singleton plugin
//	}
//
// and YAML files (".yaml" or ".yml") carrying the same fields.
package metadata

import (
	"io"

	"github.com/alecthomas/errors"
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/orangejam/knitgraph/internal/component"
)

var (
	knitLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Comment", Pattern: `//[^\n]*`},
		{Name: "String", Pattern: `"(\\.|[^"])*"`},
		{Name: "Name", Pattern: `[a-zA-Z_$][a-zA-Z0-9_$]*([/.][a-zA-Z_$][a-zA-Z0-9_$]*)*`},
		{Name: "Punct", Pattern: `[{}()<>:,]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})
	fileParser = participle.MustBuild[file](
		participle.Lexer(knitLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.Unquote("String"),
	)
	typeParser = participle.MustBuild[typeRef](
		participle.Lexer(knitLexer),
		participle.Elide("Whitespace", "Comment"),
	)
)

type file struct {
	Version    string           `parser:"'knit' @String"`
	Components []*componentDecl `parser:"@@*"`
}

type componentDecl struct {
	Interface  bool      `parser:"@'interface'? 'component'"`
	Name       string    `parser:"@Name"`
	TypeParams []string  `parser:"('<' @Name (',' @Name)* '>')?"`
	Members    []*member `parser:"'{' @@* '}'"`
}

type member struct {
	Parent    *typeRef       `parser:"  'parent' @@"`
	Composite *compositeDecl `parser:"| @@"`
	Inject    *injectDecl    `parser:"| @@"`
	Provides  *providesDecl  `parser:"| @@"`
	Singleton string         `parser:"| 'singleton' @Name"`
}

type compositeDecl struct {
	Private  bool     `parser:"@'private'? 'composite'"`
	Property string   `parser:"@Name ':'"`
	Type     *typeRef `parser:"@@"`
}

type injectDecl struct {
	Name string   `parser:"'inject' @Name ':'"`
	Type *typeRef `parser:"@@"`
}

type providesDecl struct {
	Modifiers []string   `parser:"'provides' @('global' | 'collection')*"`
	Function  string     `parser:"@Name"`
	Params    []*typeRef `parser:"'(' (@@ (',' @@)*)? ')'"`
	Returns   *typeRef   `parser:"':' @@"`
	As        []*typeRef `parser:"('as' @@ (',' @@)*)?"`
}

type typeRef struct {
	Name string     `parser:"@Name"`
	Args []*typeRef `parser:"('<' @@ (',' @@)* '>')?"`
}

func (t *typeRef) toType() component.Type {
	return component.NewType(t.Name, toTypes(t.Args)...)
}

func toTypes(refs []*typeRef) []component.Type {
	if len(refs) == 0 {
		return nil
	}
	out := make([]component.Type, len(refs))
	for i, ref := range refs {
		out[i] = ref.toType()
	}
	return out
}

// ParseType parses a type reference such as "kotlin/collections/List<com/example/Plugin>".
func ParseType(s string) (component.Type, error) {
	ref, err := typeParser.ParseString("", s)
	if err != nil {
		return component.Type{}, errors.Errorf("invalid type %q: %w", s, err)
	}
	return ref.toType(), nil
}

// ParseKnit parses a ".knit" descriptor.
func ParseKnit(filename string, r io.Reader) ([]component.Component, error) {
	f, err := fileParser.Parse(filename, r)
	if err != nil {
		return nil, errors.Errorf("failed to parse descriptor: %w", err)
	}
	if err := checkVersion(f.Version); err != nil {
		return nil, errors.Errorf("%s: %w", filename, err)
	}
	out := make([]component.Component, 0, len(f.Components))
	for _, decl := range f.Components {
		out = append(out, decl.toComponent())
	}
	return out, nil
}

func (d *componentDecl) toComponent() component.Component {
	name := component.NewType(d.Name).Class
	c := component.Component{
		Name:       name,
		TypeParams: d.TypeParams,
		Interface:  d.Interface,
	}
	for _, m := range d.Members {
		switch {
		case m.Parent != nil:
			c.Parents = append(c.Parents, component.CompositeComponent{Type: m.Parent.toType(), Public: true})

		case m.Composite != nil:
			c.Composites = append(c.Composites, component.CompositeComponent{
				Property: m.Composite.Property,
				Type:     m.Composite.Type.toType(),
				Public:   !m.Composite.Private,
			})

		case m.Inject != nil:
			c.InjectedGetters = append(c.InjectedGetters, component.InjectedGetter{
				Container: name,
				Name:      m.Inject.Name,
				Type:      m.Inject.Type.toType(),
			})

		case m.Provides != nil:
			p := component.ProvidesMethod{
				Container: name,
				Function:  m.Provides.Function,
				Params:    toTypes(m.Provides.Params),
				Returns:   m.Provides.Returns.toType(),
				As:        toTypes(m.Provides.As),
			}
			for _, modifier := range m.Provides.Modifiers {
				switch modifier {
				case "global":
					p.Global = true
				case "collection":
					p.OnlyCollection = true
				}
			}
			c.Provides = append(c.Provides, p)

		case m.Singleton != "":
			c.Singletons = append(c.Singletons, m.Singleton)
		}
	}
	return c
}
