package mixin

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/graft/internal/capability"
)

// ErrNilObject is returned when a Constructor yields no instance.
var ErrNilObject = errors.New("constructor returned no object")

// Constructor builds a fresh instance of def from constructor arguments.
type Constructor func(def *Definition, args ...any) (*Object, error)

// Initializer extends an already-constructed instance.
type Initializer func(obj *Object) error

// Definition is a type-like value that can be instantiated.
type Definition struct {
	Name    string
	Params  []string
	Marker  bool
	Parents []*Definition

	// Read-only on a composite.
	Instance map[string]capability.Operation
	Static   map[string]capability.Operation

	Construct Constructor
	Init      Initializer

	composite *composite
}

// composite is the recorded shape of a composed definition.
type composite struct {
	base    *Definition
	mixins  []*Definition
	lineage []*Definition
}

// Object is an instance of a Definition.
type Object struct {
	Def    *Definition
	Fields map[string]any
}

// New constructs an instance of d.
//
// Plain definitions run Construct (or assign Params from args positionally)
// and then their own Init. Composites construct through the base and then run
// each mixin's initializers in composition order.
func (d *Definition) New(args ...any) (*Object, error) {
	if d.composite != nil {
		obj, err := d.composite.base.New(args...)
		if err != nil {
			return nil, err
		}
		obj.Def = d
		for _, m := range d.composite.mixins {
			for _, initFn := range m.initializers() {
				if err := initFn(obj); err != nil {
					return nil, fmt.Errorf("initializing %s: %w", m.Name, err)
				}
			}
		}
		return obj, nil
	}

	construct := d.Construct
	if construct == nil {
		construct = defaultConstruct
	}
	obj, err := construct(d, args...)
	if err != nil {
		return nil, fmt.Errorf("constructing %s: %w", d.Name, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("constructing %s: %w", d.Name, ErrNilObject)
	}
	if obj.Fields == nil {
		obj.Fields = make(map[string]any)
	}
	obj.Def = d
	if d.Init != nil {
		if err := d.Init(obj); err != nil {
			return nil, fmt.Errorf("initializing %s: %w", d.Name, err)
		}
	}
	return obj, nil
}

func defaultConstruct(def *Definition, args ...any) (*Object, error) {
	fields := make(map[string]any, len(def.Params))
	for i, p := range def.Params {
		if i < len(args) {
			fields[p] = args[i]
		}
	}
	return &Object{Fields: fields}, nil
}

// initializers returns the initializers a mixin contributes, in order.
func (d *Definition) initializers() []Initializer {
	if d.composite == nil {
		if d.Init == nil {
			return nil
		}
		return []Initializer{d.Init}
	}
	inits := d.composite.base.initializers()
	for _, m := range d.composite.mixins {
		inits = append(inits, m.initializers()...)
	}
	return inits
}

// IsComposite reports whether d was produced by Compose.
func (d *Definition) IsComposite() bool {
	return d.composite != nil
}

// Inputs returns the ordered composition inputs [base, mixins...], or nil for
// a plain definition.
func (d *Definition) Inputs() []*Definition {
	if d.composite == nil {
		return nil
	}
	return append([]*Definition{d.composite.base}, d.composite.mixins...)
}

// Lineage returns the recorded lineage of a composite in first-seen order.
// Plain definitions have no recorded lineage.
func (d *Definition) Lineage() []*Definition {
	if d.composite == nil {
		return nil
	}
	return slices.Clone(d.composite.lineage)
}

// CallStatic invokes a static capability with the definition as receiver.
func (d *Definition) CallStatic(name string, args ...any) (any, error) {
	op, ok := d.Static[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", capability.ErrNotFound, d.Name, name)
	}
	return op(d, args...)
}

// ExtendsClass reports whether other is in d's lineage.
func (d *Definition) ExtendsClass(other *Definition) bool {
	return IncludesLineage(d, other)
}

// InstanceNames returns the sorted instance capability names.
func (d *Definition) InstanceNames() []string {
	return slices.Sorted(maps.Keys(d.Instance))
}

// StaticNames returns the sorted static capability names.
func (d *Definition) StaticNames() []string {
	return slices.Sorted(maps.Keys(d.Static))
}

// Call invokes an instance capability with o as receiver.
func (o *Object) Call(name string, args ...any) (any, error) {
	op, ok := o.Def.Instance[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s#%s", capability.ErrNotFound, o.Def.Name, name)
	}
	return op(o, args...)
}

// Get returns a field value.
func (o *Object) Get(field string) (any, bool) {
	v, ok := o.Fields[field]
	return v, ok
}

// Set assigns a field value.
func (o *Object) Set(field string, v any) {
	o.Fields[field] = v
}

// Is reports whether o is an instance of def or of a definition that
// includes def in its lineage.
func (o *Object) Is(def *Definition) bool {
	return IncludesLineage(o.Def, def)
}
