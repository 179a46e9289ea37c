package compgraph

// RowStream is a finite, single-pass lazy sequence of Rows. Next is this
// engine's suspension point: operators never run concurrently, so the
// consumer drives production through a direct method call rather than a
// goroutine handshake. See DESIGN.md.
//
// Next returns ok == false once the stream is exhausted. A non-nil err is
// fatal: the stream must not be called again after returning an error, and
// no row already returned is retracted.
type RowStream interface {
	Next() (row Row, ok bool, err error)

	// Close releases resources (temp files, open file descriptors) held by
	// this stream and anything it wraps, whether or not the stream was
	// drained to completion. Close is idempotent.
	Close()
}

// sliceStream adapts an in-memory slice of rows to RowStream. It backs
// FromRows and the package's own test fixtures.
type sliceStream struct {
	rows []Row
	pos  int
}

func newSliceStream(rows []Row) *sliceStream {
	return &sliceStream{rows: rows}
}

// FromRows wraps an in-memory slice of rows as a RowStream. It exists for
// tests and small fixed-size sources feeding Graph.Run outside this package;
// FromFile builds its own stream, and FromIter returns whatever stream the
// caller's factory produces.
func FromRows(rows []Row) RowStream {
	return newSliceStream(rows)
}

func (s *sliceStream) Next() (Row, bool, error) {
	if s.pos >= len(s.rows) {
		return nil, false, nil
	}
	row := s.rows[s.pos]
	s.pos++
	return row, true, nil
}

func (s *sliceStream) Close() {
	s.pos = len(s.rows)
}

// errStream is a RowStream that yields a single error and nothing else. It
// lets Source/UnaryOp/BinaryOp report an open-time failure (EFileOpen,
// ENoSource) through the same Next()-returns-err channel used for
// mid-stream failures, instead of a second error-return path threaded
// through the whole Graph.Run call chain.
type errStream struct {
	err  error
	done bool
}

func newErrStream(err error) *errStream {
	return &errStream{err: err}
}

func (s *errStream) Next() (Row, bool, error) {
	if s.done {
		return nil, false, nil
	}
	s.done = true
	return nil, false, s.err
}

func (s *errStream) Close() {
	s.done = true
}

// funcStream adapts a pull closure and an optional close closure to
// RowStream. It is the workhorse behind Map, Reduce, Sort, the joiners and
// the file source: each needs its own small state machine, but
// none needs background concurrency to stay lazy.
type funcStream struct {
	next    func() (Row, bool, error)
	onClose func()
}

func (s *funcStream) Next() (Row, bool, error) {
	return s.next()
}

func (s *funcStream) Close() {
	if s.onClose != nil {
		s.onClose()
	}
}

// drain fully consumes and discards a stream, returning the first error
// encountered, if any. The Reduce operator uses it to skip whatever a
// Reducer left unconsumed in a group (First only reads one row and stops).
func drain(s RowStream) error {
	for {
		_, ok, err := s.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}
