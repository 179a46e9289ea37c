package compgraph

import (
	"errors"
	"fmt"
)

// Sentinel error kinds, matched with errors.Is at call sites.
var (
	// ErrNoSource is returned by Run when the graph's root has no operator.
	ErrNoSource = errors.New("compgraph: graph has no source operator")
	// ErrFileOpen is returned when a source file cannot be opened or read.
	ErrFileOpen = errors.New("compgraph: file open")
	// ErrParse is returned when a line parser rejects a line.
	ErrParse = errors.New("compgraph: parse")
	// ErrKeyMissing is returned when an operator requires a column that is
	// absent from a row.
	ErrKeyMissing = errors.New("compgraph: key missing")
	// ErrType is returned when a value cannot be compared, summed or
	// multiplied the way an operator requires.
	ErrType = errors.New("compgraph: incompatible type")
	// ErrIO is the error kind for sort spill / temp-file failures. Package
	// extsort reports those failures as its own wrapped errors, which do not
	// match ErrIO under errors.Is.
	ErrIO = errors.New("compgraph: io")
)

func errKeyMissing(column string) error {
	return fmt.Errorf("column %q: %w", column, ErrKeyMissing)
}

func errType(column string, value any) error {
	return fmt.Errorf("column %q has value %v (%T): %w", column, value, value, ErrType)
}
