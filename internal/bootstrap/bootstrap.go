// Package bootstrap installs the leaf utilities, the composer and the module
// gateway onto a capability table in a fixed order.
package bootstrap

import (
	"fmt"
	"sync"

	"github.com/roach88/graft/internal/capability"
	"github.com/roach88/graft/internal/gateway"
	"github.com/roach88/graft/internal/ir"
	"github.com/roach88/graft/internal/leaf"
	"github.com/roach88/graft/internal/mixin"
)

// Deps are the collaborators installed alongside the leaf utilities.
type Deps struct {
	Gateway *gateway.Gateway
}

// Step installs one namespace's capabilities.
type Step struct {
	Namespace ir.Namespace
	Install   func(t *capability.Table, d Deps) error
}

// Steps returns the install sequence. Order matters only in that it is
// fixed; every step is idempotent.
func Steps() []Step {
	return []Step{
		{ir.NamespaceText, installText},
		{ir.NamespaceSequence, installSequence},
		{ir.NamespaceObject, installObject},
		{ir.NamespaceBoolean, installBoolean},
		{ir.NamespaceDefinition, installDefinition},
		{ir.NamespaceNumber, installNumber},
		{ir.NamespaceSymbol, installSymbol},
		{ir.NamespacePattern, installPattern},
		{ir.NamespaceGlobal, installGlobal},
		{ir.NamespaceProcess, installProcess},
	}
}

// Install runs every step against t. A nil Gateway gets a default one.
func Install(t *capability.Table, d Deps) error {
	if d.Gateway == nil {
		d.Gateway = gateway.New()
	}
	for _, s := range Steps() {
		if err := s.Install(t, d); err != nil {
			return fmt.Errorf("install %s: %w", s.Namespace, err)
		}
	}
	return nil
}

var (
	defaultOnce    sync.Once
	defaultTable   *capability.Table
	defaultGateway *gateway.Gateway
	defaultErr     error
)

// Default returns the process-wide table, installing it on first use.
// Concurrent first callers block until the install completes, so nobody
// observes a partially installed table.
func Default() (*capability.Table, error) {
	defaultOnce.Do(func() {
		defaultGateway = gateway.New()
		defaultTable = capability.NewTable()
		defaultErr = Install(defaultTable, Deps{Gateway: defaultGateway})
	})
	return defaultTable, defaultErr
}

// DefaultGateway returns the gateway installed by Default.
func DefaultGateway() (*gateway.Gateway, error) {
	if _, err := Default(); err != nil {
		return nil, err
	}
	return defaultGateway, nil
}

// method binds impl at instance level, called with the receiver only.
func method(ns ir.Namespace, name string, impl any) ir.OperationBinding {
	return ir.OperationBinding{Namespace: ns, Name: name, Impl: impl,
		Binding: ir.BindInstance, Forward: ir.WrapSingle, Install: ir.InstallWrapped}
}

// methodRaw binds a receiver-aware operation at instance level as-is.
func methodRaw(ns ir.Namespace, name string, op capability.Operation) ir.OperationBinding {
	return ir.OperationBinding{Namespace: ns, Name: name, Impl: op,
		Binding: ir.BindInstance, Forward: ir.ForwardArgs, Install: ir.InstallRaw}
}

// static binds impl at namespace level with every argument forwarded.
func static(ns ir.Namespace, name string, impl any) ir.OperationBinding {
	return ir.OperationBinding{Namespace: ns, Name: name, Impl: impl,
		Binding: ir.BindValue, Forward: ir.ForwardArgs, Install: ir.InstallWrapped}
}

// staticSelf binds impl at namespace level, called with the namespace only.
func staticSelf(ns ir.Namespace, name string, impl any) ir.OperationBinding {
	return ir.OperationBinding{Namespace: ns, Name: name, Impl: impl,
		Binding: ir.BindValue, Forward: ir.WrapSingle, Install: ir.InstallWrapped}
}

// staticRaw binds value at namespace level as-is.
func staticRaw(ns ir.Namespace, name string, value any) ir.OperationBinding {
	return ir.OperationBinding{Namespace: ns, Name: name, Impl: value,
		Binding: ir.BindValue, Forward: ir.ForwardArgs, Install: ir.InstallRaw}
}

func installAll(t *capability.Table, bindings ...ir.OperationBinding) {
	for _, b := range bindings {
		t.Install(b)
	}
}

// equalTo compares the receiver with the first argument.
func equalTo(recv any, args ...any) (any, error) {
	return leaf.IsEqual(recv, arg(args, 0)), nil
}

func arg(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}

func installText(t *capability.Table, _ Deps) error {
	ns := ir.NamespaceText
	installAll(t,
		method(ns, "capitalize", leaf.Capitalize),
		method(ns, "toCamelCase", leaf.ToCamelCase),
		method(ns, "toStartCase", leaf.ToStartCase),
		method(ns, "toKebabCase", leaf.ToKebabCase),
		method(ns, "toSnakeCase", leaf.ToSnakeCase),
		method(ns, "upperFirst", leaf.UpperFirst),
		method(ns, "words", leaf.Words),
		method(ns, "isEmpty", leaf.IsEmpty),
		method(ns, "asciiWords", leaf.AsciiWords),
		method(ns, "unicodeWords", leaf.UnicodeWords),
		method(ns, "hasUnicodeWord", leaf.HasUnicodeWord),
		methodRaw(ns, "isEqual", equalTo),
		methodRaw(ns, "compareTo", func(recv any, args ...any) (any, error) {
			s, ok := recv.(string)
			if !ok {
				return nil, fmt.Errorf("%w: compareTo receiver is %T", capability.ErrArgType, recv)
			}
			other, ok := arg(args, 0).(string)
			if !ok {
				return nil, fmt.Errorf("%w: compareTo argument is %T", capability.ErrArgType, arg(args, 0))
			}
			return leaf.Compare(s, other), nil
		}),
	)
	return nil
}

func installSequence(t *capability.Table, _ Deps) error {
	ns := ir.NamespaceSequence
	installAll(t,
		method(ns, "compact", leaf.Compact),
		method(ns, "chunk", leaf.Chunk),
		method(ns, "toIterator", leaf.ToIterator),
		method(ns, "isEmpty", leaf.IsEmpty),
		method(ns, "isNilArray", leaf.IsNilArray),
		method(ns, "isNumberArray", leaf.IsNumberArray),
		method(ns, "isStringArray", leaf.IsStringArray),
		method(ns, "isBufferArray", leaf.IsBufferArray),
		method(ns, "isIntegerArray", leaf.IsIntegerArray),
		method(ns, "isFunctionArray", leaf.IsFunctionArray),
		method(ns, "isRegExpArray", leaf.IsRegExpArray),
		method(ns, "isBooleanArray", leaf.IsBooleanArray),
		method(ns, "isConstructorArray", func(v any) (bool, error) {
			return leaf.Every(v, mixin.IsDefinition)
		}),
		method(ns, "random", leaf.Random),
		method(ns, "shuffle", leaf.Shuffle),
		methodRaw(ns, "forOwn", forOwn),
		methodRaw(ns, "moveItems", func(recv any, args ...any) (any, error) {
			return leaf.MoveItems(recv, args...)
		}),
		methodRaw(ns, "isEqual", equalTo),
		methodRaw(ns, "where", func(recv any, args ...any) (any, error) {
			query, ok := arg(args, 0).(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: where query is %T", capability.ErrArgType, arg(args, 0))
			}
			return leaf.Where(recv, query)
		}),
	)
	return nil
}

// forOwn calls the callback argument with (value, key, receiver) for every
// own entry of the receiver.
func forOwn(recv any, args ...any) (any, error) {
	switch fn := arg(args, 0).(type) {
	case func(value any, key string, coll any):
		return nil, leaf.ForOwn(recv, func(v any, k string) { fn(v, k, recv) })
	case func(value any, key string):
		return nil, leaf.ForOwn(recv, fn)
	default:
		return nil, fmt.Errorf("%w: forOwn callback is %T", capability.ErrArgType, fn)
	}
}

func installObject(t *capability.Table, _ Deps) error {
	ns := ir.NamespaceObject
	installAll(t,
		static(ns, "parse", leaf.Parse),
		static(ns, "isMap", leaf.IsMap),
		static(ns, "isSet", leaf.IsSet),
		static(ns, "clone", leaf.Clone),
		staticRaw(ns, "objects", map[string]any{"clone": leaf.CloneAll}),
		methodRaw(ns, "isEqual", equalTo),
		methodRaw(ns, "forOwn", forOwn),
	)
	return nil
}

func installBoolean(t *capability.Table, _ Deps) error {
	ns := ir.NamespaceBoolean
	installAll(t,
		method(ns, "isFalse", leaf.IsFalse),
		method(ns, "isTrue", leaf.IsTrue),
		static(ns, "isFalse", leaf.IsFalse),
		static(ns, "isTrue", leaf.IsTrue),
	)
	return nil
}

func installDefinition(t *capability.Table, _ Deps) error {
	ns := ir.NamespaceDefinition
	installAll(t,
		static(ns, "isConstructor", mixin.IsDefinition),
		static(ns, "Mix", mixin.Compose),
		methodRaw(ns, "extendsClass", func(recv any, args ...any) (any, error) {
			return mixin.IncludesLineage(recv, arg(args, 0)), nil
		}),
		methodRaw(ns, "isEqual", func(recv any, args ...any) (any, error) {
			if obj, ok := recv.(*mixin.Object); ok {
				recv = obj.Def
			}
			return recv == arg(args, 0), nil
		}),
	)
	return nil
}

func installNumber(t *capability.Table, _ Deps) error {
	t.Install(method(ir.NamespaceNumber, "toInteger", leaf.ToInteger))
	return nil
}

func installSymbol(t *capability.Table, _ Deps) error {
	t.Install(methodRaw(ir.NamespaceSymbol, "isEqual", equalTo))
	return nil
}

func installPattern(t *capability.Table, _ Deps) error {
	patterns, err := leaf.CompilePatterns()
	if err != nil {
		return err
	}
	for _, name := range ir.SortedKeys(patterns) {
		t.Install(staticRaw(ir.NamespacePattern, name, patterns[name]))
	}
	return nil
}

func installGlobal(t *capability.Table, d Deps) error {
	ns := ir.NamespaceGlobal
	installAll(t,
		static(ns, "Mix", mixin.Compose),
		staticRaw(ns, "delay", leaf.Delay),
		staticSelf(ns, "memoryUsage", leaf.MemoryUsage),
		staticRaw(ns, "CacheMap", leaf.NewCacheMap[any, any]),
		staticRaw(ns, "__override", d.Gateway.Override),
		static(ns, "_load", d.Gateway.Load),
	)
	return nil
}

func installProcess(t *capability.Table, _ Deps) error {
	t.Install(staticSelf(ir.NamespaceProcess, "memoryUsage", leaf.MemoryUsage))
	return nil
}
