package core

import (
	"errors"
	"fmt"
)

// ErrDimensionMismatch indicates that a buffer's declared size disagrees with
// its backing storage. It is never patched over; callers must resize.
var ErrDimensionMismatch = errors.New("buffer dimension mismatch")

// invalidCell never equals a painted cell, so rows holding it always diff.
var invalidCell = Cell{Attr: Attr{Fg: ColorDefault, Bg: ColorDefault, Invisible: true}, Grapheme: "\x00", Width: 1}

// ScreenBuffer is a rows x cols grid of cells with one dirty flag per row.
type ScreenBuffer struct {
	cols, rows int
	lines      [][]Cell
	dirty      []bool
}

// NewScreenBuffer creates a blank screen buffer with the given dimensions.
// Negative dimensions are treated as zero.
func NewScreenBuffer(cols, rows int) *ScreenBuffer {
	sb := &ScreenBuffer{}
	sb.Resize(cols, rows)
	return sb
}

// Size returns the buffer dimensions.
func (sb *ScreenBuffer) Size() (cols, rows int) {
	return sb.cols, sb.rows
}

// Resize changes the dimensions in place. Existing content is preserved where
// it still fits, new cells are blank and every row is marked dirty.
func (sb *ScreenBuffer) Resize(cols, rows int) {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}

	if cap(sb.lines) >= rows {
		sb.lines = sb.lines[:rows]
	} else {
		lines := make([][]Cell, rows)
		copy(lines, sb.lines)
		sb.lines = lines
	}
	if cap(sb.dirty) >= rows {
		sb.dirty = sb.dirty[:rows]
	} else {
		sb.dirty = make([]bool, rows)
	}

	empty := EmptyCell()
	for y := range sb.lines {
		line := sb.lines[y]
		old := len(line)
		if y >= sb.rows {
			old = 0
		}
		if cap(line) >= cols {
			line = line[:cols]
		} else {
			grown := make([]Cell, cols)
			copy(grown, line)
			line = grown
		}
		for x := min(old, cols); x < cols; x++ {
			line[x] = empty
		}
		sb.lines[y] = line
		sb.dirty[y] = true
	}

	sb.cols = cols
	sb.rows = rows
}

// Check verifies that the declared dimensions match the backing storage.
func (sb *ScreenBuffer) Check() error {
	if len(sb.lines) != sb.rows || len(sb.dirty) != sb.rows {
		return fmt.Errorf("%w: declared %d rows, have %d", ErrDimensionMismatch, sb.rows, len(sb.lines))
	}
	for y, line := range sb.lines {
		if len(line) != sb.cols {
			return fmt.Errorf("%w: row %d has %d cols, declared %d", ErrDimensionMismatch, y, len(line), sb.cols)
		}
	}
	return nil
}

// Reset blanks every cell and clears dirty flags.
func (sb *ScreenBuffer) Reset() {
	empty := EmptyCell()
	for y, line := range sb.lines {
		for x := range line {
			line[x] = empty
		}
		sb.dirty[y] = false
	}
}

// Invalidate fills the buffer with cells that never match painted content and
// marks every row dirty, forcing a full repaint on the next diff.
func (sb *ScreenBuffer) Invalidate() {
	for y, line := range sb.lines {
		for x := range line {
			line[x] = invalidCell
		}
		sb.dirty[y] = true
	}
}

// Get returns the cell at (x, y). ok is false outside the buffer.
func (sb *ScreenBuffer) Get(x, y int) (Cell, bool) {
	if x < 0 || x >= sb.cols || y < 0 || y >= sb.rows {
		return Cell{}, false
	}
	return sb.lines[y][x], true
}

// Set writes a cell at (x, y) and marks the row dirty. Positions outside the
// buffer are ignored. Overwriting half of a wide glyph blanks the other half.
func (sb *ScreenBuffer) Set(x, y int, cell Cell) {
	if x < 0 || x >= sb.cols || y < 0 || y >= sb.rows {
		return
	}
	line := sb.lines[y]
	old := line[x]

	if old.IsContinuation() && !cell.IsContinuation() && x > 0 && line[x-1].Width == 2 {
		line[x-1] = BlankCell(line[x-1].Attr)
	}
	if old.Width == 2 && cell.Width != 2 && x+1 < sb.cols && line[x+1].IsContinuation() {
		line[x+1] = BlankCell(line[x+1].Attr)
	}

	line[x] = cell
	sb.dirty[y] = true
}

// Row returns the cells of row y. The slice aliases the buffer.
func (sb *ScreenBuffer) Row(y int) []Cell {
	if y < 0 || y >= sb.rows {
		return nil
	}
	return sb.lines[y]
}

// Fill fills the part of rect that lies inside the buffer with cell.
func (sb *ScreenBuffer) Fill(rect Rect, cell Cell) {
	for y := max(rect.Yi, 0); y < rect.Yl && y < sb.rows; y++ {
		for x := max(rect.Xi, 0); x < rect.Xl && x < sb.cols; x++ {
			sb.Set(x, y, cell)
		}
	}
}

// Dirty returns true if row y was written since the last ClearDirty.
func (sb *ScreenBuffer) Dirty(y int) bool {
	if y < 0 || y >= sb.rows {
		return false
	}
	return sb.dirty[y]
}

// MarkDirty marks a row dirty.
func (sb *ScreenBuffer) MarkDirty(y int) {
	if y >= 0 && y < sb.rows {
		sb.dirty[y] = true
	}
}

// DirtyRows returns the indices of all dirty rows in ascending order.
func (sb *ScreenBuffer) DirtyRows() []int {
	var rows []int
	for y, d := range sb.dirty {
		if d {
			rows = append(rows, y)
		}
	}
	return rows
}

// ClearDirty resets all dirty flags.
func (sb *ScreenBuffer) ClearDirty() {
	for y := range sb.dirty {
		sb.dirty[y] = false
	}
}

// RowEqual returns true if row y holds identical cells in both buffers.
func (sb *ScreenBuffer) RowEqual(y int, other *ScreenBuffer, otherY int) bool {
	a, b := sb.Row(y), other.Row(otherY)
	if a == nil || b == nil || len(a) != len(b) {
		return false
	}
	for x := range a {
		if !a[x].Equals(b[x]) {
			return false
		}
	}
	return true
}

// CopyFrom replaces this buffer's content and dirty flags with other's,
// resizing first when the dimensions differ.
func (sb *ScreenBuffer) CopyFrom(other *ScreenBuffer) {
	if sb.cols != other.cols || sb.rows != other.rows {
		sb.Resize(other.cols, other.rows)
	}
	for y := range sb.lines {
		copy(sb.lines[y], other.lines[y])
		sb.dirty[y] = other.dirty[y]
	}
}

// String renders the buffer as plain text, one line per row.
func (sb *ScreenBuffer) String() string {
	var out []byte
	for y, line := range sb.lines {
		if y > 0 {
			out = append(out, '\n')
		}
		for _, c := range line {
			if c.IsContinuation() {
				continue
			}
			out = append(out, c.Grapheme...)
		}
	}
	return string(out)
}
