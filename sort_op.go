package compgraph

import (
	"fmt"

	"github.com/mmorozov/compgraph/extsort"
	"github.com/mmorozov/compgraph/rowvalue"
)

func (op *sortOp) Apply(upstream RowStream) RowStream {
	source := func() (extsort.Row, bool, error) {
		return upstream.Next()
	}
	cmp := func(a, b []any) (int, error) {
		c, err := rowvalue.CompareTuples(a, b)
		if err != nil {
			return 0, fmt.Errorf("sort key %v: %w: %v", op.keys, ErrType, err)
		}
		return c, nil
	}
	result := extsort.Sort(
		source,
		func(r extsort.Row) ([]any, error) { return keyTuple(r, op.keys) },
		cmp,
		op.opts,
	)

	return &funcStream{
		next: func() (Row, bool, error) {
			row, ok, err := result.Next()
			if err != nil {
				return nil, false, err
			}
			return row, ok, nil
		},
		onClose: func() {
			result.Close()
			upstream.Close()
		},
	}
}
