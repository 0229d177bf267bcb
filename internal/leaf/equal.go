package leaf

import (
	"reflect"
)

// IsEqual reports deep equality of a and b.
func IsEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// IsEmpty reports whether v is nil or a zero-length string, slice, array,
// map or channel. Other values are empty only when they are zero.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return IsEmpty(rv.Elem().Interface())
	}
	return rv.IsZero()
}
