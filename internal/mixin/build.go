package mixin

import (
	"fmt"
	"maps"
	"strings"

	"github.com/roach88/graft/internal/capability"
	"github.com/roach88/graft/internal/ir"
)

// Build turns compiled definition documents into definitions bound to table.
//
// Capability references have the form "namespace.name" or
// "namespace.name@field". Instance references call the table capability with
// the object (or the named field) as receiver; static references receive the
// definition. Mixes may reference definitions or other mixes in any order.
func Build(table *capability.Table, defs []ir.DefinitionSpec, mixes []ir.MixSpec) (map[string]*Definition, error) {
	out := make(map[string]*Definition, len(defs)+len(mixes))

	for _, spec := range defs {
		if _, dup := out[spec.Name]; dup {
			return nil, fmt.Errorf("duplicate definition %q", spec.Name)
		}
		d, err := bindDefinition(table, spec)
		if err != nil {
			return nil, err
		}
		out[spec.Name] = d
	}

	for _, spec := range defs {
		d := out[spec.Name]
		for _, parent := range spec.Extends {
			p, ok := out[parent]
			if !ok {
				return nil, fmt.Errorf("definition %q extends unknown definition %q", spec.Name, parent)
			}
			d.Parents = append(d.Parents, p)
		}
	}

	pending := make(map[string]ir.MixSpec, len(mixes))
	for _, m := range mixes {
		if _, dup := out[m.Name]; dup {
			return nil, fmt.Errorf("duplicate definition %q", m.Name)
		}
		if _, dup := pending[m.Name]; dup {
			return nil, fmt.Errorf("duplicate mix %q", m.Name)
		}
		pending[m.Name] = m
	}

	visiting := make(map[string]bool)
	var resolve func(name string) (*Definition, error)
	resolve = func(name string) (*Definition, error) {
		if d, ok := out[name]; ok {
			return d, nil
		}
		spec, ok := pending[name]
		if !ok {
			return nil, fmt.Errorf("unknown definition %q", name)
		}
		if visiting[name] {
			return nil, fmt.Errorf("mix %q composes itself", name)
		}
		visiting[name] = true
		defer delete(visiting, name)

		base, err := resolve(spec.Base)
		if err != nil {
			return nil, fmt.Errorf("mix %q: %w", name, err)
		}
		inputs := make([]*Definition, 0, len(spec.Mixins))
		for _, mname := range spec.Mixins {
			m, err := resolve(mname)
			if err != nil {
				return nil, fmt.Errorf("mix %q: %w", name, err)
			}
			inputs = append(inputs, m)
		}
		d, err := ComposeNamed(name, base, inputs...)
		if err != nil {
			return nil, err
		}
		out[name] = d
		return d, nil
	}

	for _, name := range sortedNames(pending) {
		if _, err := resolve(name); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func bindDefinition(table *capability.Table, spec ir.DefinitionSpec) (*Definition, error) {
	d := &Definition{
		Name:     spec.Name,
		Params:   spec.Params,
		Marker:   spec.Marker,
		Instance: make(map[string]capability.Operation, len(spec.Instance)),
		Static:   make(map[string]capability.Operation, len(spec.Static)),
	}
	if len(spec.Fields) > 0 {
		fields := maps.Clone(spec.Fields)
		d.Init = func(obj *Object) error {
			for k, v := range fields {
				if _, set := obj.Fields[k]; !set {
					obj.Fields[k] = v
				}
			}
			return nil
		}
	}

	for name, ref := range spec.Instance {
		op, err := bindReference(table, ref, ir.BindInstance)
		if err != nil {
			return nil, fmt.Errorf("definition %q instance %q: %w", spec.Name, name, err)
		}
		d.Instance[name] = op
	}
	for name, ref := range spec.Static {
		op, err := bindReference(table, ref, ir.BindValue)
		if err != nil {
			return nil, fmt.Errorf("definition %q static %q: %w", spec.Name, name, err)
		}
		d.Static[name] = op
	}
	return d, nil
}

// Reference is a parsed capability reference.
type Reference struct {
	Namespace ir.Namespace
	Name      string
	Field     string
}

// ParseReference parses "namespace.name" or "namespace.name@field".
func ParseReference(ref string) (Reference, error) {
	path, field, _ := strings.Cut(ref, "@")
	nsName, name, ok := strings.Cut(path, ".")
	if !ok || name == "" {
		return Reference{}, fmt.Errorf("invalid capability reference %q: want namespace.name", ref)
	}
	ns, err := ir.ParseNamespace(nsName)
	if err != nil {
		return Reference{}, fmt.Errorf("invalid capability reference %q: %w", ref, err)
	}
	return Reference{Namespace: ns, Name: name, Field: field}, nil
}

func bindReference(table *capability.Table, raw string, level ir.BindingMode) (capability.Operation, error) {
	ref, err := ParseReference(raw)
	if err != nil {
		return nil, err
	}

	// Instance references prefer instance capabilities but fall back to the
	// namespace level, where the receiver travels as the first argument.
	target := level
	if !table.Has(ref.Namespace, target, ref.Name) {
		if level == ir.BindInstance && table.Has(ref.Namespace, ir.BindValue, ref.Name) {
			target = ir.BindValue
		} else {
			return nil, fmt.Errorf("%w: %s", capability.ErrNotFound, raw)
		}
	}

	return func(receiver any, args ...any) (any, error) {
		recv := receiver
		if obj, ok := receiver.(*Object); ok && ref.Field != "" {
			recv = obj.Fields[ref.Field]
		}
		if target == ir.BindValue && level == ir.BindInstance {
			return table.Call(ref.Namespace, target, ref.Name, ref.Namespace, append([]any{recv}, args...)...)
		}
		return table.Call(ref.Namespace, target, ref.Name, recv, args...)
	}, nil
}
