package compgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runReducer(t *testing.T, r Reducer, keys []string, group []Row) []Row {
	t.Helper()
	out, err := r.Reduce(keys, newSliceStream(group))
	require.NoError(t, err)
	return out
}

func TestFirstEmitsFirstRow(t *testing.T) {
	out := runReducer(t, First{}, []string{"k"}, []Row{
		{"k": "a", "v": int64(1)},
		{"k": "a", "v": int64(2)},
	})
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0]["v"])
}

func TestFirstEmptyGroup(t *testing.T) {
	out := runReducer(t, First{}, []string{"k"}, nil)
	assert.Nil(t, out)
}

func TestCountBasic(t *testing.T) {
	out := runReducer(t, Count{Out: "n"}, []string{"k"}, []Row{
		{"k": "a"}, {"k": "a"}, {"k": "a"},
	})
	require.Len(t, out, 1)
	assert.Equal(t, int64(3), out[0]["n"])
	assert.Equal(t, "a", out[0]["k"])
}

func TestCountSuppressesFalsyKeyGroups(t *testing.T) {
	out := runReducer(t, Count{Out: "n"}, []string{"k"}, []Row{
		{"k": ""}, {"k": ""},
	})
	assert.Nil(t, out)

	out = runReducer(t, Count{Out: "n"}, []string{"k"}, []Row{
		{"k": int64(0)},
	})
	assert.Nil(t, out)

	out = runReducer(t, Count{Out: "n"}, []string{"k"}, []Row{
		{"k": nil},
	})
	assert.Nil(t, out)
}

func TestCountNoKeysCountsWholeGroup(t *testing.T) {
	out := runReducer(t, Count{Out: "n"}, nil, []Row{
		{"x": 1}, {"x": 2},
	})
	require.Len(t, out, 1)
	assert.Equal(t, int64(2), out[0]["n"])
}

func TestSumAcrossGroup(t *testing.T) {
	out := runReducer(t, Sum{Column: "v"}, []string{"k"}, []Row{
		{"k": "a", "v": int64(2)},
		{"k": "a", "v": int64(3)},
		{"k": "a", "v": int64(5)},
	})
	require.Len(t, out, 1)
	assert.Equal(t, int64(10), out[0]["v"])
}

func TestSumMissingColumnIsKeyMissing(t *testing.T) {
	_, err := Sum{Column: "v"}.Reduce([]string{"k"}, newSliceStream([]Row{{"k": "a"}}))
	assert.ErrorIs(t, err, ErrKeyMissing)
}

func TestTermFrequencySumsToOne(t *testing.T) {
	out := runReducer(t, TermFrequency{WordsColumn: "w", Out: "tf"}, []string{"doc"}, []Row{
		{"doc": int64(1), "w": "a"},
		{"doc": int64(1), "w": "b"},
		{"doc": int64(1), "w": "a"},
		{"doc": int64(1), "w": "a"},
	})
	require.Len(t, out, 2)
	var total float64
	for _, r := range out {
		total += r["tf"].(float64)
	}
	assert.InDelta(t, 1.0, total, 1e-9)

	byWord := map[any]float64{}
	for _, r := range out {
		byWord[r["w"]] = r["tf"].(float64)
	}
	assert.InDelta(t, 0.75, byWord["a"], 1e-9)
	assert.InDelta(t, 0.25, byWord["b"], 1e-9)
}

func TestTopNLimitsAndOrdersDescending(t *testing.T) {
	out := runReducer(t, TopN{Column: "score", N: 2}, []string{"k"}, []Row{
		{"k": "a", "score": int64(1)},
		{"k": "a", "score": int64(5)},
		{"k": "a", "score": int64(3)},
	})
	require.Len(t, out, 2)
	assert.Equal(t, int64(5), out[0]["score"])
	assert.Equal(t, int64(3), out[1]["score"])
}

func TestTopNFewerRowsThanN(t *testing.T) {
	out := runReducer(t, TopN{Column: "score", N: 10}, []string{"k"}, []Row{
		{"k": "a", "score": int64(1)},
	})
	require.Len(t, out, 1)
}
