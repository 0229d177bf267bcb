package gateway

import (
	"sync"

	"github.com/roach88/graft/internal/ir"
)

// Export is a loaded module's exported value.
type Export = any

// ModuleFunc produces a programmatic module's export. It runs at most once
// per successful load; an error leaves the module unloaded.
type ModuleFunc func() (Export, error)

// Registry is the module cache, keyed by absolute module location.
type Registry struct {
	mu      sync.RWMutex
	exports map[string]Export
	defined map[string]ModuleFunc
}

// NewRegistry creates an empty module cache.
func NewRegistry() *Registry {
	return &Registry{
		exports: make(map[string]Export),
		defined: make(map[string]ModuleFunc),
	}
}

// Get returns the cached export at path.
func (r *Registry) Get(path string) (Export, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exp, ok := r.exports[path]
	return exp, ok
}

// Set replaces the cached export at path.
func (r *Registry) Set(path string, exp Export) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exports[path] = exp
}

// Delete evicts the cached export at path. A defined module stays defined
// and is rebuilt on the next load.
func (r *Registry) Delete(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.exports, path)
}

// Define registers a programmatic module at path. It shadows any file at the
// same location.
func (r *Registry) Define(path string, fn ModuleFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defined[path] = fn
}

// definition returns the programmatic module at path.
func (r *Registry) definition(path string) (ModuleFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.defined[path]
	return fn, ok
}

// Paths returns the cached locations, sorted.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return ir.SortedKeys(r.exports)
}

// Len returns the number of cached exports.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.exports)
}
