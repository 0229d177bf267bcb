package gateway

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/graft/internal/ir"
)

// DefaultEntryFile is the entry file of a module directory without a
// manifest, and the default origin hint for local paths.
const DefaultEntryFile = "index.cue"

// ManifestFile names the optional manifest inside a dependency directory.
const ManifestFile = "module.yaml"

// Manifest is the decoded ManifestFile of a dependency.
type Manifest struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Main    string `yaml:"main"`
}

// Resolved is the outcome of resolving an identifier.
type Resolved struct {
	Identifier string        `json:"identifier"`
	Path       string        `json:"path"`
	Resolution ir.Resolution `json:"resolution"`
	Version    string        `json:"version,omitempty"`
}

// resolver finds dependency and local-path locations on disk.
type resolver struct {
	cwd        string
	roots      []string
	entryFile  string
	extensions []string
	exists     func(path string) bool
}

// dependency probes the dependency roots for id. It returns an error marked
// with ErrNotFound when no root holds it.
func (r *resolver) dependency(id string) (Resolved, error) {
	if id == "" || filepath.IsAbs(id) || strings.HasPrefix(id, ".") {
		return Resolved{}, errors.Mark(errors.Newf("%q is not a dependency name", id), ErrNotFound)
	}

	name, constraint, versioned := strings.Cut(id, "@")
	for _, root := range r.roots {
		if versioned {
			c, err := semver.NewConstraint(constraint)
			if err != nil {
				return Resolved{}, errors.Wrapf(err, "dependency %q: version constraint", id)
			}
			if res, ok, err := r.versioned(root, name, c); err != nil || ok {
				return res, err
			}
			continue
		}

		if res, ok, err := r.candidate(id, filepath.Join(root, id), ""); err != nil || ok {
			return res, err
		}
		if res, ok, err := r.versioned(root, name, nil); err != nil || ok {
			return res, err
		}
	}
	return Resolved{}, errors.Mark(errors.Newf("dependency %q not installed", id), ErrNotFound)
}

// versioned picks the highest name@<version> directory under root that
// satisfies c. A nil constraint accepts any version.
func (r *resolver) versioned(root, name string, c *semver.Constraints) (Resolved, bool, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return Resolved{}, false, nil
		}
		return Resolved{}, false, errors.Wrapf(err, "read dependency root %s", root)
	}

	var best *semver.Version
	var bestDir string
	for _, e := range entries {
		depName, raw, ok := strings.Cut(e.Name(), "@")
		if !ok || depName != name || !e.IsDir() {
			continue
		}
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		if c != nil && !c.Check(v) {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best, bestDir = v, e.Name()
		}
	}
	if best == nil {
		return Resolved{}, false, nil
	}
	return r.candidate(name, filepath.Join(root, bestDir), best.String())
}

// candidate checks a dependency location: a module file (with or without a
// known extension) or a directory with an entry file.
func (r *resolver) candidate(id, path, version string) (Resolved, bool, error) {
	found := func(p string) (Resolved, bool, error) {
		return Resolved{Identifier: id, Path: p, Resolution: ir.ResolvedAsDependency, Version: version}, true, nil
	}

	if r.exists(path) {
		return found(path)
	}
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		entry, err := r.entryOf(path)
		if err != nil {
			return Resolved{}, false, err
		}
		entryPath := filepath.Join(path, entry)
		if r.exists(entryPath) || fileExists(entryPath) {
			return found(entryPath)
		}
		return Resolved{}, false, nil
	case err == nil:
		return found(path)
	}
	for _, ext := range r.extensions {
		if p := path + ext; r.exists(p) || fileExists(p) {
			return found(p)
		}
	}
	return Resolved{}, false, nil
}

// entryOf returns the entry file of a dependency directory.
func (r *resolver) entryOf(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return r.entryFile, nil
		}
		return "", errors.Wrapf(err, "read manifest in %s", dir)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return "", errors.Wrapf(err, "decode manifest in %s", dir)
	}
	if m.Main == "" {
		return r.entryFile, nil
	}
	return filepath.Clean(m.Main), nil
}

// local resolves id as a path under the working directory. A directory, or
// a missing path without an extension, is joined with originHint.
func (r *resolver) local(id, originHint string) Resolved {
	path := id
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.cwd, id)
	}
	if originHint == "" {
		originHint = r.entryFile
	}

	if !r.exists(path) {
		info, err := os.Stat(path)
		switch {
		case err == nil && info.IsDir():
			path = filepath.Join(path, originHint)
		case err != nil && filepath.Ext(path) == "":
			path = filepath.Join(path, originHint)
		}
	}
	return Resolved{Identifier: id, Path: path, Resolution: ir.ResolvedAsLocalPath}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
