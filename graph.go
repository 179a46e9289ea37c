package compgraph

import (
	"bufio"
	"fmt"
	"os"

	"github.com/mmorozov/compgraph/extsort"
)

// Graph is an immutable node in the dataflow DAG. It carries an operator and
// zero, one or two upstream graphs. Builder methods return new nodes;
// existing nodes are never mutated, so a node may safely be shared as the
// upstream of more than one downstream node.
type Graph struct {
	op       any // nil, Source, UnaryOp or BinaryOp
	upstream []*Graph
}

// FromIter constructs a source graph that, at Run time, looks up the
// zero-argument row-stream factory named name among the runtime-supplied
// sources and reads from it.
func FromIter(name string) *Graph {
	return &Graph{op: &readIterOp{name: name}}
}

// FromFile constructs a source graph that, at Run time, opens path for
// line-oriented text reading and applies parser to every line.
func FromFile(path string, parser func(string) (Row, error)) *Graph {
	return &Graph{op: &readFileOp{path: path, parser: parser}}
}

// Map extends the graph with a Map operation using mapper.
func (g *Graph) Map(mapper Mapper) *Graph {
	return &Graph{op: &mapOp{mapper: mapper}, upstream: []*Graph{g}}
}

// Reduce extends the graph with a Reduce operation over keys. The upstream
// must already be sorted by keys; enforcing that is the caller's
// responsibility (insert Sort explicitly).
func (g *Graph) Reduce(reducer Reducer, keys []string) *Graph {
	return &Graph{op: &reduceOp{reducer: reducer, keys: keys}, upstream: []*Graph{g}}
}

// Sort extends the graph with an external (disk-spilling) stable sort over
// keys, ascending, using extsort's defaults (64Ki-row chunks, os.TempDir(),
// no spill logging). Use SortWithOptions to override any of these, e.g.
// from an engineconfig.Config.
func (g *Graph) Sort(keys []string) *Graph {
	return g.SortWithOptions(keys, extsort.Options{})
}

// SortWithOptions extends the graph with an external sort like Sort, but
// lets the caller override the sort's chunk size, temp directory and
// logger instead of taking extsort's defaults.
func (g *Graph) SortWithOptions(keys []string, opts extsort.Options) *Graph {
	return &Graph{op: &sortOp{keys: keys, opts: opts}, upstream: []*Graph{g}}
}

// Join extends the graph with a Join of g and other on keys, using joiner's
// strategy. Both upstreams must already be sorted by keys.
func (g *Graph) Join(joiner Joiner, other *Graph, keys []string) *Graph {
	return &Graph{op: &joinOp{joiner: joiner, keys: keys}, upstream: []*Graph{g, other}}
}

// Run executes the graph, pulling upstreams recursively, and returns the
// resulting lazy RowStream. sources maps named runtime inputs (as consumed
// by FromIter) to zero-argument row-stream factories.
//
// Run itself never returns an error: ENoSource and any error encountered
// while evaluating the DAG is surfaced through the returned stream's
// Next(), consistent with every other fatal stream error.
func (g *Graph) Run(sources map[string]func() RowStream) RowStream {
	if g.op == nil {
		return newErrStream(ErrNoSource)
	}

	switch len(g.upstream) {
	case 0:
		return g.op.(Source).Open(sources)
	case 1:
		up := g.upstream[0].Run(sources)
		return g.op.(UnaryOp).Apply(up)
	case 2:
		left := g.upstream[0].Run(sources)
		right := g.upstream[1].Run(sources)
		return g.op.(BinaryOp).Apply(left, right)
	default:
		return newErrStream(fmt.Errorf("compgraph: node with %d upstreams", len(g.upstream)))
	}
}

// readIterOp is the ReadIterFactory source: it reads from the runtime
// producer registered under name.
type readIterOp struct {
	name string
}

func (op *readIterOp) Open(sources map[string]func() RowStream) RowStream {
	factory, ok := sources[op.name]
	if !ok {
		return newErrStream(fmt.Errorf("compgraph: no source registered for %q: %w", op.name, ErrNoSource))
	}
	return factory()
}

// readFileOp is the Read source: it reads path line by line and parses each
// line into a Row.
type readFileOp struct {
	path   string
	parser func(string) (Row, error)
}

func (op *readFileOp) Open(map[string]func() RowStream) RowStream {
	f, err := os.Open(op.path)
	if err != nil {
		return newErrStream(fmt.Errorf("%s: %w: %v", op.path, ErrFileOpen, err))
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	closed := false

	return &funcStream{
		next: func() (Row, bool, error) {
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return nil, false, fmt.Errorf("%s: %w: %v", op.path, ErrFileOpen, err)
				}
				return nil, false, nil
			}
			row, err := op.parser(scanner.Text())
			if err != nil {
				return nil, false, fmt.Errorf("%s: %w: %v", op.path, ErrParse, err)
			}
			return row, true, nil
		},
		onClose: func() {
			if closed {
				return
			}
			closed = true
			f.Close()
		},
	}
}

// mapOp is the Map operation: 1 row -> 0..N rows via mapper.
type mapOp struct {
	mapper Mapper
}

func (op *mapOp) Apply(upstream RowStream) RowStream {
	var buf []Row
	bufPos := 0

	return &funcStream{
		next: func() (Row, bool, error) {
			for {
				if bufPos < len(buf) {
					row := buf[bufPos]
					bufPos++
					return row, true, nil
				}
				row, ok, err := upstream.Next()
				if err != nil {
					return nil, false, err
				}
				if !ok {
					return nil, false, nil
				}
				out, err := op.mapper.Map(row)
				if err != nil {
					return nil, false, err
				}
				buf, bufPos = out, 0
			}
		},
		onClose: upstream.Close,
	}
}

// sortOp is the external-sort operation; the heavy lifting lives in
// package extsort, wired in sort_op.go.
type sortOp struct {
	keys []string
	opts extsort.Options
}
