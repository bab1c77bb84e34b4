// Package diff computes the minimal terminal operations that turn the
// currently displayed screen into a newly composited one.
package diff

import (
	"fmt"

	"github.com/dshills/tessera/internal/renderer/core"
)

// OpKind identifies a terminal operation.
type OpKind uint8

const (
	// OpMove positions the cursor at (Row, Col).
	OpMove OpKind = iota
	// OpWrite writes Cells starting at the cursor.
	OpWrite
	// OpInsertLines inserts N blank lines at Top inside the scroll region
	// [Top, Bottom], pushing rows down.
	OpInsertLines
	// OpDeleteLines deletes N lines at Top inside the scroll region
	// [Top, Bottom], pulling rows up.
	OpDeleteLines
	// OpClear erases the whole screen.
	OpClear
)

// String returns a string representation of the op kind.
func (k OpKind) String() string {
	switch k {
	case OpMove:
		return "move"
	case OpWrite:
		return "write"
	case OpInsertLines:
		return "insert-lines"
	case OpDeleteLines:
		return "delete-lines"
	case OpClear:
		return "clear"
	default:
		return "unknown"
	}
}

// Op is a single terminal operation.
type Op struct {
	Kind OpKind

	// Row and Col are the cursor target of OpMove.
	Row, Col int

	// Cells are written by OpWrite. Continuation cells of wide glyphs are
	// included so that the slice width equals the number of columns covered.
	Cells []core.Cell

	// N, Top and Bottom describe OpInsertLines and OpDeleteLines.
	// Bottom is inclusive.
	N, Top, Bottom int
}

// String returns a compact debug representation.
func (o Op) String() string {
	switch o.Kind {
	case OpMove:
		return fmt.Sprintf("move(%d,%d)", o.Row, o.Col)
	case OpWrite:
		b := make([]byte, 0, len(o.Cells))
		for _, c := range o.Cells {
			b = append(b, c.Grapheme...)
		}
		return fmt.Sprintf("write(%q)", b)
	case OpInsertLines, OpDeleteLines:
		return fmt.Sprintf("%s(%d,%d..%d)", o.Kind, o.N, o.Top, o.Bottom)
	default:
		return o.Kind.String()
	}
}

// Move returns an OpMove.
func Move(row, col int) Op {
	return Op{Kind: OpMove, Row: row, Col: col}
}

// Write returns an OpWrite.
func Write(cells []core.Cell) Op {
	return Op{Kind: OpWrite, Cells: cells}
}

// Width returns the number of columns an OpWrite covers.
func (o Op) Width() int {
	if o.Kind != OpWrite {
		return 0
	}
	return len(o.Cells)
}
