package extsort

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intKey(r Row) ([]any, error) { return []any{r["k"].(int64)}, nil }

func intCmp(a, b []any) (int, error) {
	x, y := a[0].(int64), b[0].(int64)
	switch {
	case x < y:
		return -1, nil
	case x > y:
		return 1, nil
	default:
		return 0, nil
	}
}

type lineCounter struct{ n int }

func (c *lineCounter) Write(p []byte) (int, error) {
	c.n++
	return len(p), nil
}

func sliceSource(rows []Row) Source {
	pos := 0
	return func() (Row, bool, error) {
		if pos >= len(rows) {
			return nil, false, nil
		}
		row := rows[pos]
		pos++
		return row, true, nil
	}
}

func TestSortSmallInputStaysInMemory(t *testing.T) {
	dir := t.TempDir()
	rows := []Row{
		{"k": int64(3)}, {"k": int64(1)}, {"k": int64(2)},
	}
	result := Sort(sliceSource(rows), intKey, intCmp, Options{TempDir: dir})
	defer result.Close()

	var got []int64
	for {
		row, ok, err := result.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, row["k"].(int64))
	}
	assert.Equal(t, []int64{1, 2, 3}, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "small input must never spill to disk")
}

func TestSortStableOnEqualKeys(t *testing.T) {
	rows := []Row{
		{"k": int64(1), "tag": "first"},
		{"k": int64(1), "tag": "second"},
		{"k": int64(0), "tag": "zero"},
	}
	result := Sort(sliceSource(rows), intKey, intCmp, Options{})
	defer result.Close()

	var tags []string
	for {
		row, ok, err := result.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		tags = append(tags, row["tag"].(string))
	}
	assert.Equal(t, []string{"zero", "first", "second"}, tags)
}

func TestExternalSortSpillsAndMergesLargeInput(t *testing.T) {
	dir := t.TempDir()

	const n = 200_000
	rng := rand.New(rand.NewSource(1))
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{"k": int64(rng.Intn(1_000_000))}
	}

	var counter lineCounter
	logger := zerolog.New(&counter)

	result := Sort(sliceSource(rows), intKey, intCmp, Options{
		ChunkRows: 64 * 1024,
		TempDir:   dir,
		Logger:    &logger,
	})

	var got []int64
	for {
		row, ok, err := result.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, row["k"].(int64))
	}
	require.Len(t, got, n)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqualf(t, got[i-1], got[i], "output must be sorted at index %d", i)
	}
	assert.GreaterOrEqualf(t, counter.n, 3, "200k rows at a 64Ki chunk size must spill at least 3 runs")

	result.Close()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Emptyf(t, entries, "temp run files must be removed once the sort is closed: found %v", entries)
}

func TestSortPropagatesKeyFuncError(t *testing.T) {
	rows := []Row{{"other": int64(1)}}
	boom := func(Row) ([]any, error) { return nil, assertErr }
	result := Sort(sliceSource(rows), boom, intCmp, Options{})
	_, _, err := result.Next()
	assert.ErrorIs(t, err, assertErr)
}

func TestRunFilePathsAreUnderTempDir(t *testing.T) {
	dir := t.TempDir()
	rows := make([]Row, 3)
	for i := range rows {
		rows[i] = Row{"k": int64(i)}
	}
	result := Sort(sliceSource(rows), intKey, intCmp, Options{ChunkRows: 1, TempDir: dir})
	defer result.Close()

	_, _, err := result.Next()
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.Equal(t, dir, filepath.Dir(filepath.Join(dir, e.Name())))
	}
}

var assertErr = &sentinelErr{"boom"}

type sentinelErr struct{ msg string }

func (e *sentinelErr) Error() string { return e.msg }
