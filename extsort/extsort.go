// Package extsort implements an external (disk-spilling) stable sort over
// Rows that may not fit in memory: rows are consumed in bounded chunks,
// each chunk is sorted in memory and spilled to its own run file once the
// chunk fills, and the runs are merged back into one ascending stream with
// a k-way heap merge. Inputs small enough to fit in a single chunk never
// touch disk at all.
package extsort

import (
	"bufio"
	"container/heap"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"
)

// Row is a type alias (not a distinct named type) for the dynamic row
// representation, so callers holding a compgraph.Row value (itself
// map[string]any under the hood) can pass it here with no conversion.
type Row = map[string]any

// Source pulls one row at a time, matching the upstream RowStream.Next
// contract minus Close, which the caller retains ownership of.
type Source func() (Row, bool, error)

// KeyFunc extracts a sort key tuple from a row. A KeyFunc error aborts the
// sort and is surfaced through the result's Next().
type KeyFunc func(Row) ([]any, error)

// CompareFunc orders two key tuples, returning <0, 0 or >0.
type CompareFunc func(a, b []any) (int, error)

// Options configures a Sort call. Zero value is valid and uses defaults.
type Options struct {
	// ChunkRows bounds how many rows are held in memory per run before
	// spilling. Defaults to 65536 (64Ki).
	ChunkRows int
	// TempDir is the directory run files are created in. Defaults to
	// os.TempDir().
	TempDir string
	// Logger receives a debug event per spilled run. Nil (the default)
	// logs nothing: spill volume is a diagnostic detail, not something
	// every caller needs wired up.
	Logger *zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.ChunkRows <= 0 {
		o.ChunkRows = 64 * 1024
	}
	if o.TempDir == "" {
		o.TempDir = os.TempDir()
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	return o
}

// Result is the sorted output stream plus cleanup.
type Result struct {
	Next  func() (Row, bool, error)
	Close func()
}

// keyedRow pairs a row with its already-computed sort key, so the key is
// never recomputed once read off a run.
type keyedRow struct {
	key []any
	row Row
}

// Sort returns a Result whose first Next drains source to exhaustion; the
// Result then yields every row source produced, ascending by keyFunc under
// cmp, stably (rows with equal keys keep their relative input order). Run
// files are removed once the Result is exhausted, fails, or is closed.
func Sort(source Source, keyFunc KeyFunc, cmp CompareFunc, opts Options) *Result {
	opts = opts.withDefaults()

	var runs []*runFile
	var pending []keyedRow
	var fatalErr error
	closed := false

	cleanup := func() {
		for _, r := range runs {
			r.close()
		}
		runs = nil
	}

	spill := func(chunk []keyedRow) error {
		id := uuid.NewString()
		path := filepath.Join(opts.TempDir, fmt.Sprintf("compgraph-%s-run-%d.tmp", id, len(runs)))
		rf, err := writeRun(path, chunk)
		if err != nil {
			return fmt.Errorf("extsort: spill %s: %w", path, err)
		}
		runs = append(runs, rf)
		opts.Logger.Debug().Str("path", path).Int("rows", len(chunk)).Int("run", len(runs)-1).Msg("extsort: spilled run")
		return nil
	}

	sortChunkStable := func(chunk []keyedRow) error {
		var sortErr error
		slices.SortStableFunc(chunk, func(a, b keyedRow) bool {
			c, err := cmp(a.key, b.key)
			if err != nil {
				sortErr = err
				return false
			}
			return c < 0
		})
		return sortErr
	}

	drainToMemory := func() error {
		for {
			row, ok, err := source()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			key, err := keyFunc(row)
			if err != nil {
				return err
			}
			pending = append(pending, keyedRow{key: key, row: row})
			if len(pending) >= opts.ChunkRows {
				if err := sortChunkStable(pending); err != nil {
					return err
				}
				if err := spill(pending); err != nil {
					return err
				}
				pending = nil
			}
		}
	}

	build := func() (Source, error) {
		if err := drainToMemory(); err != nil {
			return nil, err
		}
		if len(runs) == 0 {
			// Everything fit in one chunk: sort in memory, skip disk.
			if err := sortChunkStable(pending); err != nil {
				return nil, err
			}
			rows := pending
			pending = nil
			pos := 0
			return func() (Row, bool, error) {
				if pos >= len(rows) {
					return nil, false, nil
				}
				row := rows[pos].row
				pos++
				return row, true, nil
			}, nil
		}

		if len(pending) > 0 {
			if err := sortChunkStable(pending); err != nil {
				return nil, err
			}
			if err := spill(pending); err != nil {
				return nil, err
			}
			pending = nil
		}
		return mergeRuns(runs, cmp)
	}

	var next Source

	return &Result{
		Next: func() (Row, bool, error) {
			if fatalErr != nil {
				return nil, false, fatalErr
			}
			if next == nil {
				n, err := build()
				if err != nil {
					fatalErr = err
					cleanup()
					return nil, false, err
				}
				next = n
			}
			row, ok, err := next()
			if err != nil {
				fatalErr = err
				cleanup()
				return nil, false, err
			}
			if !ok {
				cleanup()
			}
			return row, ok, nil
		},
		Close: func() {
			if closed {
				return
			}
			closed = true
			cleanup()
		},
	}
}

// runFile is one spilled, already-sorted chunk.
type runFile struct {
	path string
	f    *os.File
	dec  *gob.Decoder
}

func writeRun(path string, chunk []keyedRow) (*runFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := bufio.NewWriter(f)
	enc := gob.NewEncoder(w)
	for _, kr := range chunk {
		// keyedRow's fields are unexported, which gob cannot encode, so the
		// key and the row are written as two consecutive values.
		err := enc.Encode(kr.key)
		if err == nil {
			err = enc.Encode(kr.row)
		}
		if err != nil {
			f.Close()
			os.Remove(path)
			return nil, err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	f.Close()

	rf, err := openRun(path)
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	return rf, nil
}

func openRun(path string) (*runFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &runFile{path: path, f: f, dec: gob.NewDecoder(bufio.NewReader(f))}, nil
}

func (r *runFile) readOne() (keyedRow, bool, error) {
	var kr keyedRow
	if err := r.dec.Decode(&kr.key); err != nil {
		return keyedRow{}, false, nil // io.EOF or any decode-end treated as exhaustion
	}
	if err := r.dec.Decode(&kr.row); err != nil {
		return keyedRow{}, false, nil
	}
	return kr, true, nil
}

func (r *runFile) close() {
	if r.f != nil {
		r.f.Close()
	}
	os.Remove(r.path)
}

// heapEntry is one candidate in the k-way merge, tagged with its source run
// index so ties break toward the earliest run, preserving stability across
// runs (runs are themselves in original chunk order).
type heapEntry struct {
	kr       keyedRow
	runIndex int
}

type mergeHeap struct {
	entries []heapEntry
	cmp     CompareFunc
	err     error
}

func (h *mergeHeap) Len() int { return len(h.entries) }
func (h *mergeHeap) Less(i, j int) bool {
	c, err := h.cmp(h.entries[i].kr.key, h.entries[j].kr.key)
	if err != nil {
		h.err = err
		return false
	}
	if c != 0 {
		return c < 0
	}
	return h.entries[i].runIndex < h.entries[j].runIndex
}
func (h *mergeHeap) Swap(i, j int) { h.entries[i], h.entries[j] = h.entries[j], h.entries[i] }
func (h *mergeHeap) Push(x any)    { h.entries = append(h.entries, x.(heapEntry)) }
func (h *mergeHeap) Pop() any {
	old := h.entries
	n := len(old)
	e := old[n-1]
	h.entries = old[:n-1]
	return e
}

// mergeRuns performs the k-way merge across already-sorted run files.
func mergeRuns(runs []*runFile, cmp CompareFunc) (Source, error) {
	h := &mergeHeap{cmp: cmp}
	heap.Init(h)

	for i, r := range runs {
		kr, ok, err := r.readOne()
		if err != nil {
			return nil, err
		}
		if ok {
			heap.Push(h, heapEntry{kr: kr, runIndex: i})
		}
	}

	return func() (Row, bool, error) {
		if h.Len() == 0 {
			return nil, false, nil
		}
		top := heap.Pop(h).(heapEntry)
		if h.err != nil {
			return nil, false, h.err
		}
		nextKR, ok, err := runs[top.runIndex].readOne()
		if err != nil {
			return nil, false, err
		}
		if ok {
			heap.Push(h, heapEntry{kr: nextKR, runIndex: top.runIndex})
		}
		return top.kr.row, true, nil
	}, nil
}
