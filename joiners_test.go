package compgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInnerJoinCrossesMatchedBlockAndSuffixesCollisions(t *testing.T) {
	left := FromIter("left")
	right := FromIter("right")
	g := left.Join(InnerJoiner{}, right, []string{"k"})

	out := g.Run(map[string]func() RowStream{
		"left": rows(
			Row{"k": int64(1), "v": "a"},
			Row{"k": int64(2), "v": "b"},
		),
		"right": rows(
			Row{"k": int64(1), "v": "x"},
			Row{"k": int64(1), "v": "y"},
			Row{"k": int64(3), "v": "z"},
		),
	})
	got := collect(t, out)

	want := []Row{
		{"k": int64(1), "v_1": "a", "v_2": "x"},
		{"k": int64(1), "v_1": "a", "v_2": "y"},
	}
	assert.Equal(t, want, got)
}

func TestLeftJoinEmitsUnmatchedLeftRowsUnchanged(t *testing.T) {
	left := FromIter("left")
	right := FromIter("right")
	g := left.Join(LeftJoiner{}, right, []string{"k"})

	out := g.Run(map[string]func() RowStream{
		"left": rows(
			Row{"k": int64(1), "v": "a"},
			Row{"k": int64(2), "v": "b"},
		),
		"right": rows(
			Row{"k": int64(1), "v": "x"},
		),
	})
	got := collect(t, out)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0]["v_1"])
	assert.Equal(t, "x", got[0]["v_2"])
	assert.Equal(t, "b", got[1]["v"])
	_, hasV1 := got[1]["v_1"]
	assert.False(t, hasV1)
}

func TestRightJoinEmitsUnmatchedRightRowsUnchanged(t *testing.T) {
	left := FromIter("left")
	right := FromIter("right")
	g := left.Join(RightJoiner{}, right, []string{"k"})

	out := g.Run(map[string]func() RowStream{
		"left": rows(
			Row{"k": int64(1), "v": "a"},
		),
		"right": rows(
			Row{"k": int64(1), "v": "x"},
			Row{"k": int64(2), "v": "y"},
		),
	})
	got := collect(t, out)
	require.Len(t, got, 2)
	assert.Equal(t, "x", got[0]["v_2"])
	assert.Equal(t, "y", got[1]["v"])
}

func TestOuterJoinWithCustomSuffixes(t *testing.T) {
	left := FromIter("left")
	right := FromIter("right")
	g := left.Join(OuterJoiner{suffixes{A: "_left", B: "_right"}}, right, []string{"k"})

	out := g.Run(map[string]func() RowStream{
		"left": rows(
			Row{"k": int64(1), "v": "a"},
			Row{"k": int64(2), "v": "b"},
		),
		"right": rows(
			Row{"k": int64(1), "v": "x"},
			Row{"k": int64(3), "v": "z"},
		),
	})
	got := collect(t, out)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0]["v_left"])
	assert.Equal(t, "x", got[0]["v_right"])
	assert.Equal(t, "b", got[1]["v"])
	assert.Equal(t, "z", got[2]["v"])
}

func TestJoinOnMultipleKeys(t *testing.T) {
	left := FromIter("left")
	right := FromIter("right")
	g := left.Join(InnerJoiner{}, right, []string{"k1", "k2"})

	out := g.Run(map[string]func() RowStream{
		"left": rows(
			Row{"k1": int64(1), "k2": "a", "v": "L1"},
			Row{"k1": int64(1), "k2": "b", "v": "L2"},
		),
		"right": rows(
			Row{"k1": int64(1), "k2": "a", "v": "R1"},
		),
	})
	got := collect(t, out)
	require.Len(t, got, 1)
	assert.Equal(t, "L1", got[0]["v_1"])
	assert.Equal(t, "R1", got[0]["v_2"])
}
