package gateway

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/roach88/graft/internal/ir"
)

// Transform maps a module's current export to its replacement.
type Transform func(Export) (Export, error)

// Journal receives a record of every completed override.
type Journal interface {
	WriteOverride(ctx context.Context, rec ir.OverrideRecord) error
}

// Gateway resolves, loads and overrides modules.
type Gateway struct {
	registry *Registry
	loaders  map[string]Loader
	resolver resolver
	journal  Journal
	logger   *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithRegistry shares a module cache between gateways.
func WithRegistry(r *Registry) Option {
	return func(g *Gateway) {
		g.registry = r
	}
}

// WithCwd sets the working directory that local paths resolve against. A
// relative dir is taken from the process working directory.
// Default: the process working directory.
func WithCwd(dir string) Option {
	return func(g *Gateway) {
		g.resolver.cwd = dir
	}
}

// WithDependencyRoots sets the directories probed for installed
// dependencies, in order. Default: <cwd>/modules.
func WithDependencyRoots(roots ...string) Option {
	return func(g *Gateway) {
		g.resolver.roots = slices.Clone(roots)
	}
}

// WithEntryFile sets the entry file used for directories without a
// manifest and as the default origin hint. Default: DefaultEntryFile.
func WithEntryFile(name string) Option {
	return func(g *Gateway) {
		if name != "" {
			g.resolver.entryFile = name
		}
	}
}

// WithLoader registers a loader for a file extension such as ".ini".
func WithLoader(ext string, l Loader) Option {
	return func(g *Gateway) {
		g.loaders[ext] = l
	}
}

// WithJournal records every completed override.
func WithJournal(j Journal) Option {
	return func(g *Gateway) {
		g.journal = j
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = l
	}
}

// New creates a Gateway.
func New(opts ...Option) *Gateway {
	g := &Gateway{
		loaders: DefaultLoaders(),
		logger:  slog.Default(),
	}
	g.resolver.entryFile = DefaultEntryFile

	for _, opt := range opts {
		opt(g)
	}

	if g.registry == nil {
		g.registry = NewRegistry()
	}
	// Registry keys are absolute paths, so a relative or empty cwd is
	// anchored at the process working directory.
	if abs, err := filepath.Abs(g.resolver.cwd); err == nil {
		g.resolver.cwd = abs
	}
	if g.resolver.roots == nil {
		g.resolver.roots = []string{filepath.Join(g.resolver.cwd, "modules")}
	}
	for i, root := range g.resolver.roots {
		if !filepath.IsAbs(root) {
			g.resolver.roots[i] = filepath.Join(g.resolver.cwd, root)
		}
	}
	for ext := range g.loaders {
		g.resolver.extensions = append(g.resolver.extensions, ext)
	}
	slices.Sort(g.resolver.extensions)
	g.resolver.exists = g.known

	return g
}

// Registry returns the module cache.
func (g *Gateway) Registry() *Registry {
	return g.registry
}

// Cwd returns the directory local paths resolve against.
func (g *Gateway) Cwd() string {
	return g.resolver.cwd
}

func (g *Gateway) known(path string) bool {
	if _, ok := g.registry.Get(path); ok {
		return true
	}
	_, ok := g.registry.definition(path)
	return ok
}

// Resolve finds the location id refers to.
//
// The dependency probe loads the dependency it finds, so the registry holds
// its export afterwards. Only a not-found probe falls back to a local path;
// any other failure while probing is returned.
func (g *Gateway) Resolve(id, originHint string) (Resolved, error) {
	dep, err := g.resolver.dependency(id)
	if err == nil {
		if _, err = g.load(dep.Path); err == nil {
			g.logger.Debug("resolved as dependency",
				"id", id,
				"path", dep.Path,
				"version", dep.Version,
			)
			return dep, nil
		}
	}
	if !IsNotFound(err) {
		return Resolved{}, classify(id, dep.Path, err)
	}

	local := g.resolver.local(id, originHint)
	g.logger.Debug("resolved as local path",
		"id", id,
		"path", local.Path,
	)
	return local, nil
}

// Load returns the export id refers to: the cached export at the resolved
// location, else a fresh load that is then cached.
func (g *Gateway) Load(id string) (Export, error) {
	res, err := g.Resolve(id, "")
	if err != nil {
		return nil, err
	}
	exp, err := g.load(res.Path)
	if err != nil {
		return nil, classify(id, res.Path, err)
	}
	return exp, nil
}

// Override replaces the export id resolves to with transform's result and
// returns that result. The transform receives the export currently cached at
// the location, which is the previous override's result if there was one.
//
// A transform error aborts the override and leaves the cache untouched.
func (g *Gateway) Override(id, originHint string, transform Transform) (Export, error) {
	return g.OverrideContext(context.Background(), id, originHint, transform)
}

// OverrideContext is Override with a context for the journal write.
func (g *Gateway) OverrideContext(ctx context.Context, id, originHint string, transform Transform) (Export, error) {
	res, err := g.Resolve(id, originHint)
	if err != nil {
		return nil, err
	}

	original, err := g.load(res.Path)
	if err != nil {
		return nil, classify(id, res.Path, err)
	}

	transformed, err := transform(original)
	if err != nil {
		return nil, &GatewayError{
			Code:       CodeTransformFailed,
			Identifier: id,
			Path:       res.Path,
			Err:        err,
		}
	}

	g.registry.Set(res.Path, transformed)
	g.logger.Debug("override installed",
		"id", id,
		"path", res.Path,
		"resolution", res.Resolution,
	)

	if g.journal != nil {
		rec, err := newRecord(id, originHint, res, original, transformed)
		if err != nil {
			return transformed, errors.Wrap(err, "build override record")
		}
		if err := g.journal.WriteOverride(ctx, rec); err != nil {
			return transformed, errors.Wrapf(err, "journal override %s", rec.ID)
		}
	}
	return transformed, nil
}

// load returns the cached export at path, or loads and caches it.
func (g *Gateway) load(path string) (Export, error) {
	if exp, ok := g.registry.Get(path); ok {
		return exp, nil
	}

	var exp Export
	var err error
	if fn, ok := g.registry.definition(path); ok {
		exp, err = fn()
		if err != nil {
			return nil, errors.Wrapf(err, "initialize %s", path)
		}
	} else {
		exp, err = readModule(g.loaders, path)
		if err != nil {
			return nil, err
		}
	}

	g.registry.Set(path, exp)
	g.logger.Debug("module loaded", "path", path)
	return exp, nil
}

func newRecord(id, originHint string, res Resolved, original, transformed Export) (ir.OverrideRecord, error) {
	recID, err := uuid.NewV7()
	if err != nil {
		return ir.OverrideRecord{}, err
	}
	originalDigest, err := ir.ExportDigest(original)
	if err != nil {
		return ir.OverrideRecord{}, err
	}
	transformedDigest, err := ir.ExportDigest(transformed)
	if err != nil {
		return ir.OverrideRecord{}, err
	}
	return ir.OverrideRecord{
		ID:                recID.String(),
		Identifier:        id,
		OriginHint:        originHint,
		ResolvedPath:      res.Path,
		Resolution:        res.Resolution,
		OriginalDigest:    originalDigest,
		TransformedDigest: transformedDigest,
	}, nil
}
