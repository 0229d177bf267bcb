// Package mixin builds definitions and composes them.
//
// A Definition is an explicit record: constructor parameters, declared
// parents, instance and static capability maps, and an optional initializer.
// Compose synthesizes a composite from a base and ordered mixins:
//
//   - Capability maps are merged left to right; on a name conflict the
//     right-most mixin wins.
//   - Instances are constructed by the base, then every mixin initializer
//     runs in composition order against the constructed instance.
//   - Lineage records every input and, transitively, every input's lineage.
//
// IsDefinition and IncludesLineage answer "is this a definition" and "is-a"
// questions across composites. Neither ever panics.
package mixin
