// Package gateway resolves external module identifiers, loads their exports
// and lets callers replace an export in the module cache.
//
// Resolution mirrors a require-style probe: an identifier is first looked up
// as an installed dependency under the dependency roots, and only when that
// probe reports not-found is it treated as a path relative to the working
// directory. The probe loads the dependency it finds, so a successful probe
// leaves the dependency's export in the registry.
//
// Override replaces the export at the resolved location with the result of a
// caller-supplied transform. Every later Load of that location observes the
// replacement. A second Override of the same location receives the first
// transform's result, never a fresh copy from disk.
//
// The registry map is guarded for memory safety only. Racing overrides of
// the same location are last-write-wins with no signal.
package gateway
