package capability

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/roach88/graft/internal/ir"
)

var (
	// ErrNotFound is returned when no capability is installed under a name.
	ErrNotFound = errors.New("capability not found")

	// ErrNotCallable is returned when the installed value cannot be invoked.
	ErrNotCallable = errors.New("capability not callable")
)

// Operation is the installed form of a wrapped capability.
type Operation func(receiver any, args ...any) (any, error)

type entry struct {
	value any
	impl  any
	mode  string
}

type key struct {
	ns    ir.Namespace
	level ir.BindingMode
	name  string
}

// Table holds installed capabilities.
//
// Thread-safety: the map is guarded for memory safety only. Two installs of
// the same name race to last-write-wins with no conflict signal.
type Table struct {
	mu      sync.RWMutex
	entries map[key]entry
}

// NewTable creates an empty capability table.
func NewTable() *Table {
	return &Table{entries: make(map[key]entry)}
}

// Install attaches b.Impl under b.Name.
func (t *Table) Install(b ir.OperationBinding) {
	e := entry{impl: b.Impl}
	switch {
	case b.Install == ir.InstallRaw:
		e.value = b.Impl
		e.mode = ir.InstallRaw.String()
	case b.Forward == ir.ForwardArgs:
		e.value = forwardArgs(b.Impl)
		e.mode = ir.ForwardArgs.String()
	default:
		e.value = wrapSingle(b.Impl)
		e.mode = ir.WrapSingle.String()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[key{b.Namespace, b.Binding, b.Name}] = e
}

// Lookup returns the installed value for name.
func (t *Table) Lookup(ns ir.Namespace, level ir.BindingMode, name string) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[key{ns, level, name}]
	return e.value, ok
}

// Has reports whether name is installed at the given level.
func (t *Table) Has(ns ir.Namespace, level ir.BindingMode, name string) bool {
	_, ok := t.Lookup(ns, level, name)
	return ok
}

// Call invokes an installed capability with an explicit receiver.
func (t *Table) Call(ns ir.Namespace, level ir.BindingMode, name string, receiver any, args ...any) (any, error) {
	v, ok := t.Lookup(ns, level, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s (%s)", ErrNotFound, ns, name, level)
	}
	if op, ok := v.(Operation); ok {
		return op(receiver, args...)
	}
	if op, ok := v.(func(any, ...any) (any, error)); ok {
		return op(receiver, args...)
	}
	fn := reflect.ValueOf(v)
	if fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %s.%s is %T", ErrNotCallable, ns, name, v)
	}
	return callFunc(fn, args)
}

// Method calls an instance-level capability on receiver.
func (t *Table) Method(ns ir.Namespace, name string, receiver any, args ...any) (any, error) {
	return t.Call(ns, ir.BindInstance, name, receiver, args...)
}

// Static calls a namespace-level capability. The receiver is the namespace.
func (t *Table) Static(ns ir.Namespace, name string, args ...any) (any, error) {
	return t.Call(ns, ir.BindValue, name, ns, args...)
}

// Names returns the capability names installed at a level, sorted.
func (t *Table) Names(ns ir.Namespace, level ir.BindingMode) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	set := make(map[string]struct{})
	for k := range t.entries {
		if k.ns == ns && k.level == level {
			set[k.name] = struct{}{}
		}
	}
	return ir.SortedKeys(set)
}

// Len returns the number of installed capabilities.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
