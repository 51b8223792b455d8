package metadata

import (
	"io"

	"github.com/alecthomas/errors"
	"gopkg.in/yaml.v3"

	"github.com/orangejam/knitgraph/internal/component"
)

type yamlFile struct {
	Version    string          `yaml:"version"`
	Components []yamlComponent `yaml:"components"`
}

type yamlComponent struct {
	Name       string          `yaml:"name"`
	Interface  bool            `yaml:"interface"`
	TypeParams []string        `yaml:"typeParams"`
	Parents    []string        `yaml:"parents"`
	Composites []yamlComposite `yaml:"composites"`
	Injects    []yamlInject    `yaml:"injects"`
	Provides   []yamlProvides  `yaml:"provides"`
	Singletons []string        `yaml:"singletons"`
}

type yamlComposite struct {
	Property string `yaml:"property"`
	Type     string `yaml:"type"`
	Private  bool   `yaml:"private"`
}

type yamlInject struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type yamlProvides struct {
	Function   string   `yaml:"function"`
	Params     []string `yaml:"params"`
	Returns    string   `yaml:"returns"`
	As         []string `yaml:"as"`
	Global     bool     `yaml:"global"`
	Collection bool     `yaml:"collection"`
}

// ParseYAML parses a YAML descriptor.
func ParseYAML(filename string, r io.Reader) ([]component.Component, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f yamlFile
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Errorf("%s: failed to decode descriptor: %w", filename, err)
	}
	if err := checkVersion(f.Version); err != nil {
		return nil, errors.Errorf("%s: %w", filename, err)
	}
	out := make([]component.Component, 0, len(f.Components))
	for _, yc := range f.Components {
		c, err := yc.toComponent()
		if err != nil {
			return nil, errors.Errorf("%s: component %s: %w", filename, yc.Name, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (yc yamlComponent) toComponent() (component.Component, error) {
	if yc.Name == "" {
		return component.Component{}, errors.Errorf("missing name")
	}
	name := component.NewType(yc.Name).Class
	c := component.Component{
		Name:       name,
		TypeParams: yc.TypeParams,
		Interface:  yc.Interface,
		Singletons: yc.Singletons,
	}
	for _, parent := range yc.Parents {
		t, err := ParseType(parent)
		if err != nil {
			return c, err
		}
		c.Parents = append(c.Parents, component.CompositeComponent{Type: t, Public: true})
	}
	for _, composite := range yc.Composites {
		t, err := ParseType(composite.Type)
		if err != nil {
			return c, err
		}
		c.Composites = append(c.Composites, component.CompositeComponent{
			Property: composite.Property,
			Type:     t,
			Public:   !composite.Private,
		})
	}
	for _, inject := range yc.Injects {
		t, err := ParseType(inject.Type)
		if err != nil {
			return c, err
		}
		c.InjectedGetters = append(c.InjectedGetters, component.InjectedGetter{Container: name, Name: inject.Name, Type: t})
	}
	for _, provides := range yc.Provides {
		p, err := provides.toProvidesMethod(name)
		if err != nil {
			return c, errors.Errorf("provides %s: %w", provides.Function, err)
		}
		c.Provides = append(c.Provides, p)
	}
	return c, nil
}

func (yp yamlProvides) toProvidesMethod(container component.InternalName) (component.ProvidesMethod, error) {
	p := component.ProvidesMethod{
		Container:      container,
		Function:       yp.Function,
		Global:         yp.Global,
		OnlyCollection: yp.Collection,
	}
	if yp.Function == "" {
		return p, errors.Errorf("missing function name")
	}
	returns, err := ParseType(yp.Returns)
	if err != nil {
		return p, err
	}
	p.Returns = returns
	if p.Params, err = parseTypes(yp.Params); err != nil {
		return p, err
	}
	if p.As, err = parseTypes(yp.As); err != nil {
		return p, err
	}
	return p, nil
}

func parseTypes(in []string) ([]component.Type, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]component.Type, 0, len(in))
	for _, s := range in {
		t, err := ParseType(s)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
