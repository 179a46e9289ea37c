package compgraph

// Row is an unordered mapping from column name to a dynamic value. Value
// kinds supported by the built-in operators are string, int64, float64,
// bool, nil and []any (homogeneous, used for coordinate pairs).
type Row map[string]any

// Clone returns a shallow copy of r. Mappers that derive a new row from an
// input row (Split, Product, Project, ...) must never mutate r in place,
// since the same row may still be referenced by an upstream buffer.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// keyTuple extracts the ordered tuple of values for keys from r. Grouping on
// a missing column is an EKeyMissing error for every reducer, Count
// included: Count's own tolerant falsy-key handling lives one level up,
// operating on values Reduce has already proven present (see Count.Reduce in
// reducers.go).
func keyTuple(r Row, keys []string) ([]any, error) {
	tuple := make([]any, len(keys))
	for i, k := range keys {
		value, present := r[k]
		if !present {
			return nil, errKeyMissing(k)
		}
		tuple[i] = value
	}
	return tuple, nil
}
