package leaf

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"math/rand/v2"
	"reflect"
	"regexp"
	"slices"

	"github.com/go-viper/mapstructure/v2"
)

// ErrNotSequence is returned when a sequence helper receives something that
// is not a slice or array.
var ErrNotSequence = errors.New("not a sequence")

// Items copies any slice or array into a []any.
func Items(v any) ([]any, error) {
	if items, ok := v.([]any); ok {
		return items, nil
	}
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: %T", ErrNotSequence, v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// Compact returns the items of v that are not falsy. Falsy values are nil,
// false, zero numbers, NaN and the empty string.
func Compact(v any) ([]any, error) {
	items, err := Items(v)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		if !isFalsy(item) {
			out = append(out, item)
		}
	}
	return out, nil
}

func isFalsy(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Kind() == reflect.Bool:
		return !rv.Bool()
	case rv.Kind() == reflect.String:
		return rv.Len() == 0
	case rv.CanFloat():
		f := rv.Float()
		return f == 0 || math.IsNaN(f)
	case rv.CanInt():
		return rv.Int() == 0
	case rv.CanUint():
		return rv.Uint() == 0
	case rv.Kind() == reflect.Pointer, rv.Kind() == reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Chunk splits v into groups of size items. The final group holds the
// remainder. A size below one is treated as one.
func Chunk(v any, size int) ([][]any, error) {
	items, err := Items(v)
	if err != nil {
		return nil, err
	}
	size = max(size, 1)
	out := make([][]any, 0, (len(items)+size-1)/size)
	for chunk := range slices.Chunk(items, size) {
		out = append(out, chunk)
	}
	return out, nil
}

// ToIterator returns an iterator over the items of v.
func ToIterator(v any) (iter.Seq[any], error) {
	items, err := Items(v)
	if err != nil {
		return nil, err
	}
	return slices.Values(items), nil
}

// Every reports whether pred holds for every item of v. It is true for an
// empty sequence.
func Every(v any, pred func(any) bool) (bool, error) {
	items, err := Items(v)
	if err != nil {
		return false, err
	}
	for _, item := range items {
		if !pred(item) {
			return false, nil
		}
	}
	return true, nil
}

func every(pred func(any) bool) func(any) (bool, error) {
	return func(v any) (bool, error) { return Every(v, pred) }
}

var (
	// IsNilArray reports whether every item is nil.
	IsNilArray = every(func(x any) bool { return x == nil })
	// IsNumberArray reports whether every item is a number.
	IsNumberArray = every(isNumber)
	// IsIntegerArray reports whether every item is a number with no fraction.
	IsIntegerArray = every(isInteger)
	// IsStringArray reports whether every item is a string.
	IsStringArray = every(func(x any) bool { return kindOf(x) == reflect.String })
	// IsBooleanArray reports whether every item is a bool.
	IsBooleanArray = every(func(x any) bool { return kindOf(x) == reflect.Bool })
	// IsFunctionArray reports whether every item is a func.
	IsFunctionArray = every(func(x any) bool { return kindOf(x) == reflect.Func })
	// IsRegExpArray reports whether every item is a compiled pattern.
	IsRegExpArray = every(func(x any) bool { _, ok := x.(*regexp.Regexp); return ok })
	// IsBufferArray reports whether every item is a byte slice.
	IsBufferArray = every(func(x any) bool { _, ok := x.([]byte); return ok })
)

func kindOf(v any) reflect.Kind {
	if v == nil {
		return reflect.Invalid
	}
	return reflect.TypeOf(v).Kind()
}

func isNumber(v any) bool {
	switch kindOf(v) {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isInteger(v any) bool {
	if !isNumber(v) {
		return false
	}
	rv := reflect.ValueOf(v)
	if rv.CanFloat() {
		f := rv.Float()
		return !math.IsInf(f, 0) && f == math.Trunc(f)
	}
	return true
}

// Random returns a random item of v, or nil for an empty sequence.
func Random(v any) (any, error) {
	items, err := Items(v)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[rand.IntN(len(items))], nil
}

// Shuffle returns a shuffled copy of v.
func Shuffle(v any) ([]any, error) {
	items, err := Items(v)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(items)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out, nil
}

// Move relocates the item at Old to New.
type Move struct {
	Old int `mapstructure:"old"`
	New int `mapstructure:"new"`
}

// MoveItems applies moves in order to a copy of v and returns it. Each move
// may be a Move or a map with "old" and "new" keys. Indexes out of range
// are skipped.
func MoveItems(v any, moves ...any) ([]any, error) {
	items, err := Items(v)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(items)
	for _, raw := range moves {
		var m Move
		if mv, ok := raw.(Move); ok {
			m = mv
		} else if err := mapstructure.WeakDecode(raw, &m); err != nil {
			return nil, fmt.Errorf("move %v: %w", raw, err)
		}
		if m.Old < 0 || m.Old >= len(out) || m.New < 0 || m.New >= len(out) {
			continue
		}
		item := out[m.Old]
		out = slices.Delete(out, m.Old, m.Old+1)
		out = slices.Insert(out, m.New, item)
	}
	return out, nil
}

// Where returns the first item whose fields include every key and value of
// query, or nil. Struct items are matched by their mapstructure field names.
func Where(v any, query map[string]any) (any, error) {
	items, err := Items(v)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		fields, ok := asFields(item)
		if !ok {
			continue
		}
		if matches(fields, query) {
			return item, nil
		}
	}
	return nil, nil
}

func asFields(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	switch kindOf(v) {
	case reflect.Map, reflect.Struct, reflect.Pointer:
	default:
		return nil, false
	}
	var m map[string]any
	if err := mapstructure.Decode(v, &m); err != nil {
		return nil, false
	}
	return m, true
}

func matches(fields, query map[string]any) bool {
	for k, want := range query {
		got, ok := fields[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}
