package mixin

import (
	"maps"
	"slices"
)

// IsDefinition reports whether v is a definition: a non-nil *Definition with
// a formal-parameter contract or an explicit marker.
func IsDefinition(v any) bool {
	d, ok := v.(*Definition)
	if !ok || d == nil {
		return false
	}
	return len(d.Params) > 0 || d.Marker
}

// IncludesLineage reports whether target is in candidate's lineage.
//
// The relation is reflexive. It walks declared Parents and, for composites,
// the recorded lineage. A visited set bounds the walk, so it terminates even
// on hand-built parent cycles.
func IncludesLineage(candidate, target any) bool {
	if !IsDefinition(candidate) || !IsDefinition(target) {
		return false
	}
	from := candidate.(*Definition)
	want := target.(*Definition)

	visited := make(map[*Definition]struct{})
	queue := []*Definition{from}
	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]
		if d == nil {
			continue
		}
		if d == want {
			return true
		}
		if _, ok := visited[d]; ok {
			continue
		}
		visited[d] = struct{}{}
		queue = append(queue, d.Parents...)
		if d.composite != nil {
			queue = append(queue, d.composite.lineage...)
		}
	}
	return false
}

func sortedNames[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
