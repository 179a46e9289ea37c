package compgraph

import "github.com/mmorozov/compgraph/function"

// OptionalOf returns an Optional describing the given value.
func OptionalOf[T any](value T) *Optional[T] {
	return &Optional[T]{
		value:   value,
		present: true,
	}
}

// OptionalEmpty returns an empty Optional instance.
func OptionalEmpty[T any]() *Optional[T] {
	return &Optional[T]{}
}

// OptionalMap returns the result of applying mapper to the held value if
// present, otherwise returns an empty Optional.
func OptionalMap[T, U any](
	o *Optional[T],
	mapper function.Function[T, U],
) *Optional[U] {
	if !o.IsPresent() {
		return &Optional[U]{} // empty
	}
	return &Optional[U]{
		value:   mapper(o.value),
		present: true,
	}
}
