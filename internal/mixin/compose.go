package mixin

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/graft/internal/capability"
)

// ErrNilDefinition is returned when a composition input is nil.
var ErrNilDefinition = errors.New("nil definition")

// Compose synthesizes a composite definition from base and ordered mixins.
//
// The merged maps start from base and overlay each mixin left to right, so
// on a name conflict the right-most mixin wins. Conflicts are resolved
// silently; use Conflicts to inspect them beforehand.
func Compose(base *Definition, mixins ...*Definition) (*Definition, error) {
	if base == nil {
		return nil, fmt.Errorf("compose: base: %w", ErrNilDefinition)
	}
	names := make([]string, 0, len(mixins)+1)
	names = append(names, base.Name)
	for _, m := range mixins {
		if m == nil {
			continue
		}
		names = append(names, m.Name)
	}
	return ComposeNamed(strings.Join(names, "+"), base, mixins...)
}

// ComposeNamed is Compose with an explicit name for the composite.
//
// The composite's Params and capability maps are its own copies. Treat them
// as read-only: a composite is not re-merged when they change.
func ComposeNamed(name string, base *Definition, mixins ...*Definition) (*Definition, error) {
	if base == nil {
		return nil, fmt.Errorf("compose %s: base: %w", name, ErrNilDefinition)
	}
	inputs := make([]*Definition, 0, len(mixins)+1)
	inputs = append(inputs, base)
	for i, m := range mixins {
		if m == nil {
			return nil, fmt.Errorf("compose %s: mixin %d: %w", name, i, ErrNilDefinition)
		}
		inputs = append(inputs, m)
	}

	instance := make(map[string]capability.Operation, len(base.Instance))
	static := make(map[string]capability.Operation, len(base.Static))
	for _, in := range inputs {
		maps.Copy(instance, in.Instance)
		maps.Copy(static, in.Static)
	}

	return &Definition{
		Name:     name,
		Params:   slices.Clone(base.Params),
		Marker:   true,
		Instance: instance,
		Static:   static,
		composite: &composite{
			base:    base,
			mixins:  slices.Clone(inputs[1:]),
			lineage: recordLineage(inputs),
		},
	}, nil
}

// recordLineage returns inputs plus the recorded lineage of every composite
// input, deduplicated in first-seen order.
func recordLineage(inputs []*Definition) []*Definition {
	seen := make(map[*Definition]struct{})
	var out []*Definition
	add := func(d *Definition) {
		if _, ok := seen[d]; ok {
			return
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	for _, in := range inputs {
		add(in)
	}
	for _, in := range inputs {
		if in.composite != nil {
			for _, d := range in.composite.lineage {
				add(d)
			}
		}
	}
	return out
}

// Conflict describes a capability name defined by more than one input.
type Conflict struct {
	Name    string
	Level   string // "instance" | "static"
	Winner  string
	Shadows []string
}

// Conflicts reports every name Compose would resolve by precedence.
func Conflicts(base *Definition, mixins ...*Definition) []Conflict {
	inputs := append([]*Definition{base}, mixins...)
	var out []Conflict
	out = append(out, conflictsAt("instance", inputs, func(d *Definition) map[string]capability.Operation { return d.Instance })...)
	out = append(out, conflictsAt("static", inputs, func(d *Definition) map[string]capability.Operation { return d.Static })...)
	return out
}

func conflictsAt(level string, inputs []*Definition, caps func(*Definition) map[string]capability.Operation) []Conflict {
	owners := make(map[string][]string)
	for _, in := range inputs {
		for name := range caps(in) {
			owners[name] = append(owners[name], in.Name)
		}
	}
	var out []Conflict
	for _, name := range sortedNames(owners) {
		defs := owners[name]
		if len(defs) < 2 {
			continue
		}
		out = append(out, Conflict{
			Name:    name,
			Level:   level,
			Winner:  defs[len(defs)-1],
			Shadows: defs[:len(defs)-1],
		})
	}
	return out
}
