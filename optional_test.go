package compgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionalOfAndGet(t *testing.T) {
	o := OptionalOf(5)
	assert.True(t, o.IsPresent())
	assert.False(t, o.IsEmpty())
	assert.Equal(t, 5, o.Get())
}

func TestOptionalEmptyGetPanics(t *testing.T) {
	o := OptionalEmpty[int]()
	assert.True(t, o.IsEmpty())
	assert.Panics(t, func() { o.Get() })
}

func TestOptionalOrElse(t *testing.T) {
	assert.Equal(t, 5, OptionalOf(5).OrElse(9))
	assert.Equal(t, 9, OptionalEmpty[int]().OrElse(9))
}

func TestOptionalOrElseGet(t *testing.T) {
	calls := 0
	supplier := func() int {
		calls++
		return 42
	}
	assert.Equal(t, 7, OptionalOf(7).OrElseGet(supplier))
	assert.Equal(t, 0, calls)
	assert.Equal(t, 42, OptionalEmpty[int]().OrElseGet(supplier))
	assert.Equal(t, 1, calls)
}

func TestOptionalIfPresent(t *testing.T) {
	var seen int
	OptionalOf(4).IfPresent(func(v int) { seen = v })
	assert.Equal(t, 4, seen)

	seen = -1
	OptionalEmpty[int]().IfPresent(func(v int) { seen = v })
	assert.Equal(t, -1, seen)
}

func TestOptionalIfPresentOrElse(t *testing.T) {
	var seen int
	OptionalOf(3).IfPresentOrElse(func(v int) { seen = v }, func() { seen = -1 })
	assert.Equal(t, 3, seen)

	OptionalEmpty[int]().IfPresentOrElse(func(v int) { seen = v }, func() { seen = -1 })
	assert.Equal(t, -1, seen)
}

func TestOptionalMapTransformsPresentValue(t *testing.T) {
	o := OptionalOf(3)
	mapped := OptionalMap(o, func(v int) string { return "n" })
	assert.True(t, mapped.IsPresent())
	assert.Equal(t, "n", mapped.Get())

	empty := OptionalEmpty[int]()
	mappedEmpty := OptionalMap(empty, func(v int) string { return "n" })
	assert.True(t, mappedEmpty.IsEmpty())
}

func TestOptionalString(t *testing.T) {
	assert.Equal(t, "Optional[5]", OptionalOf(5).String())
	assert.Equal(t, "Optional.empty", OptionalEmpty[int]().String())
}
