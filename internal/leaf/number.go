package leaf

import (
	"fmt"
	"math"
	"reflect"

	"github.com/spf13/cast"
)

// ToInteger converts v to an integer by truncating toward zero. NaN becomes
// zero and infinities clamp to the int64 range. Numeric strings are
// accepted.
func ToInteger(v any) (int64, error) {
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, fmt.Errorf("to integer: %w", err)
	}
	switch {
	case math.IsNaN(f):
		return 0, nil
	case f >= math.MaxInt64:
		return math.MaxInt64, nil
	case f <= math.MinInt64:
		return math.MinInt64, nil
	}
	return int64(math.Trunc(f)), nil
}

// IsTrue reports whether v is the boolean true.
func IsTrue(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Bool && rv.Bool()
}

// IsFalse reports whether v is the boolean false.
func IsFalse(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Bool && !rv.Bool()
}
