// Package rowvalue compares the dynamic values that populate compgraph Rows:
// string, int64, float64, bool, nil and []any (homogeneous, used for
// coordinate pairs). It exists so the external sort and the joiners share
// one notion of "the key tuple compares less than" instead of each
// reimplementing type coercion.
package rowvalue

import (
	"errors"
	"fmt"
)

// ErrIncompatible is wrapped into every comparison failure: two values of
// kinds that cannot be ordered against each other, or a homogeneity
// violation inside a []any tuple.
var ErrIncompatible = errors.New("rowvalue: incompatible values")

// Compare returns -1, 0 or 1 as a is less than, equal to, or greater than b.
// Nil compares as the minimum value of any kind, including against another
// nil, so that null-keyed groups sort first and compare equal to each other.
// Numeric kinds (any mix of int, int64, float64) compare by numeric value.
func Compare(a, b any) (int, error) {
	if a == nil && b == nil {
		return 0, nil
	}
	if a == nil {
		return -1, nil
	}
	if b == nil {
		return 1, nil
	}

	ai, aIsInt := asInt(a)
	bi, bIsInt := asInt(b)
	if aIsInt && bIsInt {
		switch {
		case ai < bi:
			return -1, nil
		case ai > bi:
			return 1, nil
		default:
			return 0, nil
		}
	}

	af, aIsNum := asFloat(a)
	bf, bIsNum := asFloat(b)
	if aIsNum && bIsNum {
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}

	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr && bIsStr {
		switch {
		case as < bs:
			return -1, nil
		case as > bs:
			return 1, nil
		default:
			return 0, nil
		}
	}

	ab, aIsBool := a.(bool)
	bb, bIsBool := b.(bool)
	if aIsBool && bIsBool {
		switch {
		case ab == bb:
			return 0, nil
		case !ab:
			return -1, nil
		default:
			return 1, nil
		}
	}

	aSlice, aIsSlice := a.([]any)
	bSlice, bIsSlice := b.([]any)
	if aIsSlice && bIsSlice {
		return compareSlices(aSlice, bSlice)
	}

	return 0, fmt.Errorf("%w: %v (%T) vs %v (%T)", ErrIncompatible, a, a, b, b)
}

func compareSlices(a, b []any) (int, error) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		c, err := Compare(a[i], b[i])
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	switch {
	case len(a) < len(b):
		return -1, nil
	case len(a) > len(b):
		return 1, nil
	default:
		return 0, nil
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// CompareTuples compares two equal-length key tuples element by element,
// returning the first non-zero comparison, or 0 if every element is equal.
func CompareTuples(a, b []any) (int, error) {
	return compareSlices(a, b)
}

// Equal reports whether a and b compare equal under Compare. It never
// returns an error for otherwise-incompatible kinds: unlike Compare, Equal
// is used on column sets that may genuinely hold mixed kinds (row equality,
// not sort/join ordering), so incompatible kinds are simply unequal.
func Equal(a, b any) bool {
	c, err := Compare(a, b)
	return err == nil && c == 0
}

// Sum adds b onto a, both expected to be numeric. Returns ErrIncompatible
// if either is not numeric.
func Sum(a, b any) (any, error) {
	af, aOK := asFloat(a)
	bf, bOK := asFloat(b)
	if !aOK || !bOK {
		return nil, fmt.Errorf("%w: cannot sum %v (%T) and %v (%T)", ErrIncompatible, a, a, b, b)
	}
	ai, aIsInt := asInt(a)
	bi, bIsInt := asInt(b)
	if aIsInt && bIsInt {
		return ai + bi, nil
	}
	return af + bf, nil
}

// Product multiplies a and b, both expected to be numeric.
func Product(a, b any) (any, error) {
	af, aOK := asFloat(a)
	bf, bOK := asFloat(b)
	if !aOK || !bOK {
		return nil, fmt.Errorf("%w: cannot multiply %v (%T) and %v (%T)", ErrIncompatible, a, a, b, b)
	}
	ai, aIsInt := asInt(a)
	bi, bIsInt := asInt(b)
	if aIsInt && bIsInt {
		return ai * bi, nil
	}
	return af * bf, nil
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}
