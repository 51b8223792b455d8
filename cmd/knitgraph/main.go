// Command knitgraph resolves component descriptors and prints their dependency graph.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/alecthomas/errors"
	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	"github.com/fatih/color"
	"github.com/kballard/go-shellquote"
	"github.com/lmittmann/tint"

	"github.com/orangejam/knitgraph/internal/binding"
	"github.com/orangejam/knitgraph/internal/component"
	"github.com/orangejam/knitgraph/internal/graph"
	"github.com/orangejam/knitgraph/internal/metadata"
)

type CLI struct {
	Version       kong.VersionFlag `help:"Print the version and exit."`
	Config        kong.ConfigFlag  `help:"Load configuration from this TOML file." placeholder:"FILE"`
	Debug         bool             `help:"Enable debug logging."`
	Strict        bool             `help:"Fail on unresolved or ambiguous dependencies instead of warning."`
	StrictMapping bool             `help:"Fail on parent or composite types not declared in any descriptor, rather than treating them as external classes."`
	Slice         string           `help:"Only output the part of the graph relevant to this component." placeholder:"COMPONENT"`
	Format        string           `help:"Output format (${enum})." enum:"list,dot,json" default:"list"`
	Output        string           `help:"Write output to this file rather than stdout." placeholder:"FILE" short:"o" type:"path"`
	Dirs          []string         `help:"Directories containing component descriptors." arg:"" type:"existingdir"`
}

func main() {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		version = info.Main.Version
	}
	var cli CLI
	parser := kong.Must(&cli,
		kong.Description("Resolve component descriptors and print their dependency graph."),
		kong.Vars{"version": version},
		kong.Configuration(kongtoml.Loader, ".knitgraph.toml", "~/.knitgraph.toml"),
	)
	// Flags from $KNITGRAPH_FLAGS are applied before the command line.
	kctx, err := parser.Parse(append(envFlags(), os.Args[1:]...))
	parser.FatalIfErrorf(err)

	logger := newLogger(os.Stderr, cli.Debug)

	w := io.Writer(os.Stdout)
	if cli.Output != "" {
		f, err := os.Create(cli.Output)
		kctx.FatalIfErrorf(err)
		defer f.Close() //nolint
		w = f
		color.NoColor = true
	}

	dirs := make([]fs.FS, 0, len(cli.Dirs))
	for _, dir := range cli.Dirs {
		dirs = append(dirs, os.DirFS(dir))
	}
	err = run(&cli, logger, w, dirs...)
	kctx.FatalIfErrorf(err)
}

func envFlags() []string {
	words, err := shellquote.Split(os.Getenv("KNITGRAPH_FLAGS"))
	if err != nil {
		return nil
	}
	return words
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
	}))
}

// newMapping returns the lookup for types referenced but not declared by any descriptor.
func newMapping(cli *CLI, logger *slog.Logger) component.Mapping {
	if cli.StrictMapping {
		return component.MapMapping{}
	}
	external := component.ExternalMapping()
	seen := map[component.InternalName]bool{}
	return component.MappingFunc(func(name component.InternalName) (*component.Component, error) {
		if !seen[name] {
			seen[name] = true
			logger.Warn("Undeclared class treated as external", "component", name)
		}
		return external.Lookup(name)
	})
}

func run(cli *CLI, logger *slog.Logger, w io.Writer, dirs ...fs.FS) error {
	var components []component.Component
	for _, dir := range dirs {
		loaded, err := metadata.Load(dir)
		if err != nil {
			return errors.WithStack(err)
		}
		components = append(components, loaded...)
	}

	mode := binding.Analysis
	if cli.Strict {
		mode = binding.Strict
	}
	s, err := binding.NewSession(components,
		binding.WithMode(mode),
		binding.WithMapping(newMapping(cli, logger)),
		binding.WithLogger(logger),
	)
	if err != nil {
		return errors.WithStack(err)
	}
	g, err := graph.Build(s)
	if err != nil {
		return errors.WithStack(err)
	}
	logger.Debug("Built dependency graph", "session", s.ID, "vertices", len(g.Vertices), "edges", len(g.Edges))

	if cli.Slice != "" {
		if !g.HasComponent(cli.Slice) {
			logger.Warn("Component is not part of the dependency graph", "component", cli.Slice)
		}
		g = graph.Slice(g, cli.Slice)
	}

	switch cli.Format {
	case "dot":
		return graph.WriteDOT(w, g)
	case "json":
		return writeJSON(w, g)
	default:
		return writeList(w, g)
	}
}

var (
	fieldColour    = color.New(color.FgCyan, color.Bold)
	providerColour = color.New(color.FgYellow)
)

func paint(node graph.Node) string {
	if _, ok := node.(graph.InjectionField); ok {
		return fieldColour.Sprint(node.Name())
	}
	return providerColour.Sprint(node.Name())
}

// writeList writes each vertex followed by the vertices feeding it.
func writeList(w io.Writer, g *graph.Graph) error {
	incoming := map[int][]graph.Edge{}
	for _, e := range g.Edges {
		incoming[e.Destination] = append(incoming[e.Destination], e)
	}
	for _, v := range g.Vertices {
		if _, err := fmt.Fprintf(w, "%s\n", paint(v.Node)); err != nil {
			return errors.WithStack(err)
		}
		for _, e := range incoming[v.Index] {
			if _, err := fmt.Fprintf(w, "  <- %s\n", paint(g.Source(e))); err != nil {
				return errors.WithStack(err)
			}
		}
	}
	return nil
}

type jsonGraph struct {
	Vertices []jsonVertex `json:"vertices"`
	Edges    []jsonEdge   `json:"edges"`
}

type jsonVertex struct {
	Index     int    `json:"index"`
	Kind      string `json:"kind"`
	Container string `json:"container"`
	Name      string `json:"name"`
	Signature string `json:"signature,omitempty"`
}

type jsonEdge struct {
	Source      int `json:"source"`
	Destination int `json:"destination"`
}

func writeJSON(w io.Writer, g *graph.Graph) error {
	out := jsonGraph{Vertices: []jsonVertex{}, Edges: []jsonEdge{}}
	for _, v := range g.Vertices {
		jv := jsonVertex{Index: v.Index, Container: v.Node.Container()}
		switch node := v.Node.(type) {
		case graph.InjectionField:
			jv.Kind = "field"
			jv.Name = node.Field
		case graph.ProviderMethod:
			jv.Kind = "provider"
			jv.Name = node.Function
			jv.Signature = node.Signature
		}
		out.Vertices = append(out.Vertices, jv)
	}
	for _, e := range g.Edges {
		out.Edges = append(out.Edges, jsonEdge{Source: e.Source, Destination: e.Destination})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.WithStack(enc.Encode(out))
}
