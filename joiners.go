package compgraph

import (
	"fmt"

	"github.com/mmorozov/compgraph/rowvalue"
)

// Joiner is a streaming merge-join strategy. Both upstreams passed to Join
// must already be sorted by keys; the joiner never re-sorts them.
type Joiner interface {
	Join(keys []string, left, right RowStream) RowStream
}

// joinOp is the Join operation.
type joinOp struct {
	joiner Joiner
	keys   []string
}

func (op *joinOp) Apply(left, right RowStream) RowStream {
	return op.joiner.Join(op.keys, left, right)
}

// suffixes holds the column-collision suffixes a Joiner renames with.
// Suffixes apply only to non-key columns that exist on both sides of a
// matched pair; key columns and non-colliding columns pass through as-is.
type suffixes struct {
	A string // default "_1"
	B string // default "_2"
}

func (s suffixes) resolve() (a, b string) {
	a, b = s.A, s.B
	if a == "" {
		a = "_1"
	}
	if b == "" {
		b = "_2"
	}
	return a, b
}

// InnerJoiner keeps only rows present on both sides for a given key.
type InnerJoiner struct{ suffixes }

func (j InnerJoiner) Join(keys []string, left, right RowStream) RowStream {
	a, b := j.resolve()
	return mergeJoin(keys, left, right, a, b, false, false)
}

// LeftJoiner keeps every left row; a left row with no matching right rows
// is emitted unchanged (no right-side columns, hence no suffixing).
type LeftJoiner struct{ suffixes }

func (j LeftJoiner) Join(keys []string, left, right RowStream) RowStream {
	a, b := j.resolve()
	return mergeJoin(keys, left, right, a, b, true, false)
}

// RightJoiner keeps every right row; a right row with no matching left rows
// is emitted unchanged.
type RightJoiner struct{ suffixes }

func (j RightJoiner) Join(keys []string, left, right RowStream) RowStream {
	a, b := j.resolve()
	return mergeJoin(keys, left, right, a, b, false, true)
}

// OuterJoiner keeps every row from both sides.
type OuterJoiner struct{ suffixes }

func (j OuterJoiner) Join(keys []string, left, right RowStream) RowStream {
	a, b := j.resolve()
	return mergeJoin(keys, left, right, a, b, true, true)
}

// joinCursor is a one-row lookahead over a sorted RowStream. head is empty
// once the stream is exhausted, which is also the state a cursor settles
// into (without ever calling Next again) after its stream reports an error.
type joinCursor struct {
	stream RowStream
	head   *Optional[Row]
	err    error
}

func newJoinCursor(s RowStream) *joinCursor {
	c := &joinCursor{stream: s}
	c.advance()
	return c
}

func (c *joinCursor) advance() {
	if c.err != nil {
		c.head = OptionalEmpty[Row]()
		return
	}
	row, ok, err := c.stream.Next()
	if err != nil {
		c.err = err
		c.head = OptionalEmpty[Row]()
		return
	}
	if !ok {
		c.head = OptionalEmpty[Row]()
		return
	}
	c.head = OptionalOf(row)
}

// collectBlock materializes every consecutive row in c sharing c.head's key
// tuple, advancing c past them. Called only on the side whose block must be
// buffered: the matched (equal-key) side always buffers the right block per
// spec; unmatched (left-only/right-only) blocks buffer whichever side they
// belong to, since there is nothing to cross them against.
func collectBlock(c *joinCursor, keys []string) ([]Row, []any, error) {
	if c.err != nil {
		return nil, nil, c.err
	}
	if c.head.IsEmpty() {
		return nil, nil, nil
	}
	blockKey, err := keyTuple(c.head.Get(), keys)
	if err != nil {
		return nil, nil, err
	}

	var block []Row
	for c.head.IsPresent() {
		k, err := keyTuple(c.head.Get(), keys)
		if err != nil {
			return nil, nil, err
		}
		if !keysEqual(k, blockKey) {
			break
		}
		block = append(block, c.head.Get())
		c.advance()
		if c.err != nil {
			return nil, nil, c.err
		}
	}
	return block, blockKey, nil
}

// mergeJoin drives the streaming merge-join algorithm shared by all four
// strategies: two cursors advance in lockstep, comparing key
// tuples; emitLeftOnly/emitRightOnly select whether an unmatched block on
// that side is emitted untouched or dropped. For a matched key only the
// right side's block is buffered in full; left rows in a matched block are
// streamed one at a time off the left cursor. An unmatched block is
// collected whole before it is emitted or dropped.
func mergeJoin(keys []string, left, right RowStream, suffixA, suffixB string, emitLeftOnly, emitRightOnly bool) RowStream {
	lc := newJoinCursor(left)
	rc := newJoinCursor(right)

	var out []Row
	outPos := 0
	done := false

	// matchState holds an in-progress matched block: the buffered right
	// rows for the current key, consumed one left row at a time across
	// possibly multiple fillNext calls.
	var matchRightBlock []Row
	var matchKey []any
	inMatch := false

	fillNext := func() error {
		for {
			if inMatch {
				if lc.head.IsEmpty() {
					inMatch = false
					continue
				}
				lk, err := keyTuple(lc.head.Get(), keys)
				if err != nil {
					return err
				}
				if !keysEqual(lk, matchKey) {
					inMatch = false
					continue
				}
				leftRow := lc.head.Get()
				batch := make([]Row, 0, len(matchRightBlock))
				for _, rightRow := range matchRightBlock {
					batch = append(batch, mergeJoinedRow(keys, leftRow, rightRow, suffixA, suffixB))
				}
				lc.advance()
				if lc.err != nil {
					return lc.err
				}
				out, outPos = batch, 0
				return nil
			}

			if lc.err != nil {
				return lc.err
			}
			if rc.err != nil {
				return rc.err
			}
			if lc.head.IsEmpty() && rc.head.IsEmpty() {
				done = true
				return nil
			}
			if lc.head.IsEmpty() {
				block, _, err := collectBlock(rc, keys)
				if err != nil {
					return err
				}
				if emitRightOnly {
					out, outPos = block, 0
					return nil
				}
				continue
			}
			if rc.head.IsEmpty() {
				block, _, err := collectBlock(lc, keys)
				if err != nil {
					return err
				}
				if emitLeftOnly {
					out, outPos = block, 0
					return nil
				}
				continue
			}

			lk, err := keyTuple(lc.head.Get(), keys)
			if err != nil {
				return err
			}
			rk, err := keyTuple(rc.head.Get(), keys)
			if err != nil {
				return err
			}
			cmp, err := rowvalue.CompareTuples(lk, rk)
			if err != nil {
				return fmt.Errorf("join key %v: %w: %v", keys, ErrType, err)
			}

			switch {
			case cmp < 0:
				block, _, err := collectBlock(lc, keys)
				if err != nil {
					return err
				}
				if emitLeftOnly {
					out, outPos = block, 0
					return nil
				}
			case cmp > 0:
				block, _, err := collectBlock(rc, keys)
				if err != nil {
					return err
				}
				if emitRightOnly {
					out, outPos = block, 0
					return nil
				}
			default:
				block, blockKey, err := collectBlock(rc, keys)
				if err != nil {
					return err
				}
				matchRightBlock, matchKey, inMatch = block, blockKey, true
			}
		}
	}

	return &funcStream{
		next: func() (Row, bool, error) {
			for {
				if outPos < len(out) {
					row := out[outPos]
					outPos++
					return row, true, nil
				}
				if done {
					return nil, false, nil
				}
				if err := fillNext(); err != nil {
					done = true
					return nil, false, err
				}
			}
		},
		onClose: func() {
			left.Close()
			right.Close()
		},
	}
}

// mergeJoinedRow combines a matched left/right row pair, renaming
// overlapping non-key columns with suffixA/suffixB. Overlap is computed per
// pair rather than once up front, so the join stays correct even when the
// two sides' rows don't all share exactly the same column set.
func mergeJoinedRow(keys []string, left, right Row, suffixA, suffixB string) Row {
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}

	out := make(Row, len(left)+len(right))
	for col, v := range left {
		if isKey[col] {
			out[col] = v
			continue
		}
		if _, collide := right[col]; collide {
			out[col+suffixA] = v
		} else {
			out[col] = v
		}
	}
	for col, v := range right {
		if isKey[col] {
			continue // already set from left, same value by join definition
		}
		if _, collide := left[col]; collide {
			out[col+suffixB] = v
		} else {
			out[col] = v
		}
	}
	return out
}
