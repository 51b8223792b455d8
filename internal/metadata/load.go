package metadata

import (
	"io"
	"io/fs"
	"path"

	"github.com/alecthomas/errors"
	"golang.org/x/mod/semver"

	"github.com/orangejam/knitgraph/internal/component"
)

// SupportedMajor is the descriptor format major version this package understands.
const SupportedMajor = "v1"

func checkVersion(version string) error {
	if !semver.IsValid(version) {
		return errors.Errorf("invalid descriptor version %q", version)
	}
	if major := semver.Major(version); major != SupportedMajor {
		return errors.Errorf("unsupported descriptor version %s, expected %s.x", version, SupportedMajor)
	}
	return nil
}

// Parse a descriptor, selecting the format from the file extension.
func Parse(filename string, r io.Reader) ([]component.Component, error) {
	switch path.Ext(filename) {
	case ".knit":
		return ParseKnit(filename, r)
	case ".yaml", ".yml":
		return ParseYAML(filename, r)
	default:
		return nil, errors.Errorf("%s: unsupported descriptor extension", filename)
	}
}

// IsDescriptor returns true if the file name has a descriptor extension.
func IsDescriptor(name string) bool {
	switch path.Ext(name) {
	case ".knit", ".yaml", ".yml":
		return true
	}
	return false
}

// Load all descriptors under fsys in lexical path order.
//
// Component names must be unique across all descriptors.
func Load(fsys fs.FS) ([]component.Component, error) {
	var out []component.Component
	declared := map[component.InternalName]string{}
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.WithStack(err)
		}
		if d.IsDir() || !IsDescriptor(p) {
			return nil
		}
		components, err := parseFile(fsys, p)
		if err != nil {
			return err
		}
		for _, c := range components {
			if prev, ok := declared[c.Name]; ok {
				return errors.Errorf("%s: duplicate component %s, first declared in %s", p, c.Name, prev)
			}
			declared[c.Name] = p
		}
		out = append(out, components...)
		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return out, nil
}

func parseFile(fsys fs.FS, p string) ([]component.Component, error) {
	r, err := fsys.Open(p)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", p)
	}
	defer r.Close()
	return Parse(p, r)
}
