package capability

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrArgType is returned when a call argument cannot be converted to the
// implementation's parameter type.
var ErrArgType = errors.New("argument type mismatch")

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// forwardArgs wraps impl so every call argument reaches it verbatim.
func forwardArgs(impl any) Operation {
	return func(_ any, args ...any) (any, error) {
		return invoke(impl, args)
	}
}

// wrapSingle wraps impl so it is called with the receiver only.
func wrapSingle(impl any) Operation {
	return func(receiver any, _ ...any) (any, error) {
		return invoke(impl, []any{receiver})
	}
}

func invoke(impl any, args []any) (any, error) {
	switch fn := impl.(type) {
	case Operation:
		if len(args) == 0 {
			return fn(nil)
		}
		return fn(args[0], args[1:]...)
	case func(...any) any:
		return fn(args...), nil
	case func(...any) (any, error):
		return fn(args...)
	case func(any) any:
		return fn(first(args)), nil
	}
	rv := reflect.ValueOf(impl)
	if rv.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %T", ErrNotCallable, impl)
	}
	return callFunc(rv, args)
}

func first(args []any) any {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}

// callFunc calls fn, converting args to its parameter types. Missing
// arguments become zero values and surplus arguments are dropped unless fn is
// variadic.
func callFunc(fn reflect.Value, args []any) (any, error) {
	ft := fn.Type()
	fixed := ft.NumIn()
	if ft.IsVariadic() {
		fixed--
	}

	in := make([]reflect.Value, 0, len(args))
	for i := 0; i < fixed; i++ {
		var arg any
		if i < len(args) {
			arg = args[i]
		}
		v, err := convertArg(arg, ft.In(i))
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in = append(in, v)
	}
	if ft.IsVariadic() {
		elem := ft.In(fixed).Elem()
		for i := fixed; i < len(args); i++ {
			v, err := convertArg(args[i], elem)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			in = append(in, v)
		}
	}

	out := fn.Call(in)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if ft.Out(0) == errorType {
			return nil, asError(out[0])
		}
		return out[0].Interface(), nil
	default:
		if ft.Out(len(out)-1) != errorType {
			return out[0].Interface(), nil
		}
		return out[0].Interface(), asError(out[len(out)-1])
	}
}

func convertArg(arg any, want reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(want), nil
	}
	v := reflect.ValueOf(arg)
	switch {
	case v.Type().AssignableTo(want):
		return v, nil
	case v.Type().ConvertibleTo(want) && sameFamily(v.Kind(), want.Kind()):
		return v.Convert(want), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: have %T, want %s", ErrArgType, arg, want)
}

// sameFamily restricts conversions to numeric-to-numeric and
// string-to-string so an int never silently becomes a rune string.
func sameFamily(a, b reflect.Kind) bool {
	return isNumeric(a) && isNumeric(b) || a == b
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	err, _ := v.Interface().(error)
	return err
}
