package compgraph

import (
	"fmt"
	"sort"

	"github.com/mmorozov/compgraph/rowvalue"
)

// Reducer is invoked once per contiguous run of rows sharing a key tuple (a
// Group). It receives the grouping keys and a RowStream bounded to just
// that group, and returns the rows to emit for it.
//
// Reduce (the operator wired into the Graph) guarantees group is read to
// exhaustion before the next group is produced, draining anything a Reducer
// implementation left unconsumed (First only reads the group's first row).
type Reducer interface {
	Reduce(keys []string, group RowStream) ([]Row, error)
}

// reduceOp is the Reduce operation: it partitions the (assumed pre-sorted)
// upstream into maximal contiguous runs of equal key tuple and invokes
// reducer once per run.
type reduceOp struct {
	reducer Reducer
	keys    []string
}

func (op *reduceOp) Apply(upstream RowStream) RowStream {
	var (
		pending    Row
		havePend   bool
		out        []Row
		outPos     int
		exhausted  bool
		upstreamOK = true
	)

	advanceGroup := func() error {
		var first Row
		if havePend {
			first = pending
			havePend = false
		} else {
			row, ok, err := upstream.Next()
			if err != nil {
				return err
			}
			if !ok {
				upstreamOK = false
				return nil
			}
			first = row
		}

		key, err := keyTuple(first, op.keys)
		if err != nil {
			return err
		}
		group := &groupStream{
			upstream: upstream,
			keys:     op.keys,
			key:      key,
			buffered: []Row{first},
		}

		rows, err := op.reducer.Reduce(op.keys, group)
		if err != nil {
			return err
		}
		if derr := drain(group); derr != nil {
			return derr
		}
		if group.nextRow != nil {
			pending = group.nextRow
			havePend = true
		}

		out, outPos = rows, 0
		return nil
	}

	return &funcStream{
		next: func() (Row, bool, error) {
			for {
				if outPos < len(out) {
					row := out[outPos]
					outPos++
					return row, true, nil
				}
				if exhausted || !upstreamOK {
					return nil, false, nil
				}
				if err := advanceGroup(); err != nil {
					exhausted = true
					return nil, false, err
				}
			}
		},
		onClose: upstream.Close,
	}
}

// groupStream is the bounded view of a single key-group handed to Reducer.
// It yields buffered (already-peeked) rows first, then pulls from upstream
// until a row with a different key tuple arrives, which it stashes in
// nextRow for reduceOp to pick up as the next group's first row.
type groupStream struct {
	upstream RowStream
	keys     []string
	key      []any

	buffered []Row
	bufPos   int
	nextRow  Row
	done     bool
}

func (g *groupStream) Next() (Row, bool, error) {
	if g.bufPos < len(g.buffered) {
		row := g.buffered[g.bufPos]
		g.bufPos++
		return row, true, nil
	}
	if g.done {
		return nil, false, nil
	}

	row, ok, err := g.upstream.Next()
	if err != nil {
		g.done = true
		return nil, false, err
	}
	if !ok {
		g.done = true
		return nil, false, nil
	}

	key, err := keyTuple(row, g.keys)
	if err != nil {
		g.done = true
		return nil, false, err
	}
	if !keysEqual(key, g.key) {
		g.nextRow = row
		g.done = true
		return nil, false, nil
	}
	return row, true, nil
}

func (g *groupStream) Close() {
	g.done = true
}

func keysEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !rowvalue.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// First emits the first row of the group.
type First struct{}

func (First) Reduce(keys []string, group RowStream) ([]Row, error) {
	row, ok, err := group.Next()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return []Row{row}, nil
}

// Count emits {...group_keys, Out: |group|}. If any group key value is
// falsy (nil, false, "", or a zero int, int64 or float64, mirroring the reference
// implementation's `if all(key)` check), the group is suppressed entirely:
// this is a documented quirk, not a bug, preserved for compatibility with
// callers that already depend on it.
type Count struct {
	Out string
}

func (c Count) Reduce(keys []string, group RowStream) ([]Row, error) {
	n := int64(0)
	var firstKeyValues []any
	for {
		row, ok, err := group.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if firstKeyValues == nil {
			var kerr error
			firstKeyValues, kerr = keyTuple(row, keys)
			if kerr != nil {
				return nil, kerr
			}
		}
		n++
	}
	if n == 0 {
		return nil, nil
	}
	if !allTruthy(firstKeyValues) {
		return nil, nil
	}

	out := make(Row, len(keys)+1)
	for i, k := range keys {
		out[k] = firstKeyValues[i]
	}
	out[c.Out] = n
	return []Row{out}, nil
}

func allTruthy(values []any) bool {
	for _, v := range values {
		if !truthy(v) {
			return false
		}
	}
	return true
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int64:
		return x != 0
	case int:
		return x != 0
	case float64:
		return x != 0
	default:
		return true
	}
}

// Sum emits {...group_keys, Column: sum of row[Column] across the group}.
type Sum struct {
	Column string
}

func (s Sum) Reduce(keys []string, group RowStream) ([]Row, error) {
	var total any = int64(0)
	var keyValues []any
	seenRow := false

	for {
		row, ok, err := group.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if !seenRow {
			var kerr error
			keyValues, kerr = keyTuple(row, keys)
			if kerr != nil {
				return nil, kerr
			}
			seenRow = true
		}
		value, present := row[s.Column]
		if !present {
			return nil, errKeyMissing(s.Column)
		}
		total, err = rowvalue.Sum(total, value)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w: %v", s.Column, ErrType, err)
		}
	}
	if !seenRow {
		return nil, nil
	}

	out := make(Row, len(keys)+1)
	for i, k := range keys {
		out[k] = keyValues[i]
	}
	out[s.Column] = total
	return []Row{out}, nil
}

// TermFrequency counts occurrences per distinct value of WordsColumn within
// the group and emits one row per distinct value: {...group_keys,
// WordsColumn: w, Out: count_w / total_in_group}.
type TermFrequency struct {
	WordsColumn string
	Out         string // defaults to "tf" when empty
}

func (tf TermFrequency) Reduce(keys []string, group RowStream) ([]Row, error) {
	out := tf.Out
	if out == "" {
		out = "tf"
	}

	counts := map[any]int64{}
	order := []any{}
	var keyValues []any
	var total int64

	for {
		row, ok, err := group.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if keyValues == nil {
			var kerr error
			keyValues, kerr = keyTuple(row, keys)
			if kerr != nil {
				return nil, kerr
			}
		}
		word, present := row[tf.WordsColumn]
		if !present {
			return nil, errKeyMissing(tf.WordsColumn)
		}
		if _, seen := counts[word]; !seen {
			order = append(order, word)
		}
		counts[word]++
		total++
	}
	if total == 0 {
		return nil, nil
	}

	result := make([]Row, 0, len(order))
	for _, word := range order {
		r := make(Row, len(keys)+2)
		for i, k := range keys {
			r[k] = keyValues[i]
		}
		r[tf.WordsColumn] = word
		r[out] = float64(counts[word]) / float64(total)
		result = append(result, r)
	}
	return result, nil
}

// TopN emits up to N rows from the group with the largest row[Column]
// values; ties are broken by input order.
type TopN struct {
	Column string
	N      int
}

func (t TopN) Reduce(keys []string, group RowStream) ([]Row, error) {
	type scored struct {
		row   Row
		value any
	}

	var all []scored
	for {
		row, ok, err := group.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		value, present := row[t.Column]
		if !present {
			return nil, errKeyMissing(t.Column)
		}
		all = append(all, scored{row: row, value: value})
	}
	if t.N <= 0 || len(all) == 0 {
		return nil, nil
	}

	sorted := make([]scored, len(all))
	copy(sorted, all)
	var sortErr error
	sort.SliceStable(sorted, func(i, j int) bool {
		c, err := rowvalue.Compare(sorted[i].value, sorted[j].value)
		if err != nil {
			sortErr = err
			return false
		}
		return c > 0
	})
	if sortErr != nil {
		return nil, fmt.Errorf("column %q: %w: %v", t.Column, ErrType, sortErr)
	}

	n := t.N
	if n > len(sorted) {
		n = len(sorted)
	}
	result := make([]Row, n)
	for i := 0; i < n; i++ {
		result[i] = sorted[i].row
	}
	return result, nil
}
