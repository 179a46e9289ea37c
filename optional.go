package compgraph

import (
	"fmt"

	"github.com/mmorozov/compgraph/function"
)

// Optional is a container that may or may not hold a value. The zero value
// is an empty Optional ready to use. The engine uses it for a lookahead that
// can legitimately come up empty: a joiner's peeked row from an exhausted
// side.
type Optional[T any] struct {
	value   T
	present bool
}

// Get returns the held value. Get panics if no value is present.
func (o *Optional[T]) Get() T {
	if o.present {
		return o.value
	}
	panic("compgraph: Optional value is not present")
}

// IsPresent reports whether a value is held.
func (o *Optional[T]) IsPresent() bool {
	return o.present
}

// IsEmpty reports whether no value is held.
func (o *Optional[T]) IsEmpty() bool {
	return !o.present
}

// IfPresent runs action with the held value, if any.
func (o *Optional[T]) IfPresent(action function.Consumer[T]) {
	if o.present {
		action(o.value)
	}
}

// IfPresentOrElse runs action with the held value if present, otherwise
// runs emptyAction.
func (o *Optional[T]) IfPresentOrElse(
	action function.Consumer[T],
	emptyAction func(),
) {
	if o.present {
		action(o.value)
	} else {
		emptyAction()
	}
}

// OrElse returns the held value, or other if none is present.
func (o *Optional[T]) OrElse(other T) T {
	if o.present {
		return o.value
	}
	return other
}

// OrElseGet returns the held value, or the result of supplier if none is
// present.
func (o *Optional[T]) OrElseGet(supplier function.Supplier[T]) T {
	if o.present {
		return o.value
	}
	return supplier()
}

// String returns a debug representation of this Optional.
func (o *Optional[T]) String() string {
	if o.present {
		return fmt.Sprintf("Optional[%v]", o.value)
	}
	return "Optional.empty"
}
