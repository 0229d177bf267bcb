package leaf

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/roach88/graft/internal/ir"
)

// ErrNotIterable is returned by ForOwn for values without own entries.
var ErrNotIterable = errors.New("value has no own entries")

// Parse returns a copy of v in which string leaves holding a literal are
// replaced by the value they spell: "true" and "false" become bools,
// numeric strings become int64 or float64, "null" becomes nil, and JSON
// object or array text is decoded and parsed recursively. Other strings are
// kept.
func Parse(v any) any {
	switch x := v.(type) {
	case string:
		return parseString(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = Parse(item)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = Parse(item)
		}
		return out
	}
	return v
}

func parseString(s string) any {
	trimmed := strings.TrimSpace(s)
	switch trimmed {
	case "true", "false":
		return cast.ToBool(trimmed)
	case "null":
		return nil
	case "":
		return s
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return i
	}
	if f, err := cast.ToFloat64E(trimmed); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			return Parse(decoded)
		}
	}
	return s
}

// IsMap reports whether v is a map that is not a set.
func IsMap(v any) bool {
	return kindOf(v) == reflect.Map && !IsSet(v)
}

// IsSet reports whether v is a map with an empty-struct value type, the Go
// spelling of a set.
func IsSet(v any) bool {
	if kindOf(v) != reflect.Map {
		return false
	}
	elem := reflect.TypeOf(v).Elem()
	return elem.Kind() == reflect.Struct && elem.NumField() == 0
}

// Clone returns a deep copy of v. Maps, slices, arrays, pointers and the
// exported fields of structs are copied; funcs and channels are shared.
func Clone(v any) any {
	if v == nil {
		return nil
	}
	return cloneValue(reflect.ValueOf(v)).Interface()
}

// CloneAll deep-copies each argument.
func CloneAll(objects ...any) []any {
	out := make([]any, len(objects))
	for i, o := range objects {
		out[i] = Clone(o)
	}
	return out
}

func cloneValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneValue(iter.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := range v.Len() {
			out.Index(i).Set(cloneValue(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := range v.Len() {
			out.Index(i).Set(cloneValue(v.Index(i)))
		}
		return out
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(cloneValue(v.Elem()))
		return out
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(cloneValue(v.Elem()))
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := range v.NumField() {
			if v.Type().Field(i).IsExported() {
				out.Field(i).Set(cloneValue(v.Field(i)))
			}
		}
		return out
	}
	return v
}

// ForOwn calls fn for each own entry of v: slice and array items keyed by
// index, map entries keyed by their formatted key in sorted order, and the
// exported fields of a struct in declaration order.
func ForOwn(v any, fn func(value any, key string)) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := range rv.Len() {
			fn(rv.Index(i).Interface(), strconv.Itoa(i))
		}
	case reflect.Map:
		entries := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			entries[fmt.Sprint(iter.Key().Interface())] = iter.Value().Interface()
		}
		for _, k := range ir.SortedKeys(entries) {
			fn(entries[k], k)
		}
	case reflect.Struct:
		for i := range rv.NumField() {
			f := rv.Type().Field(i)
			if f.IsExported() {
				fn(rv.Field(i).Interface(), f.Name)
			}
		}
	default:
		return fmt.Errorf("%w: %T", ErrNotIterable, v)
	}
	return nil
}
