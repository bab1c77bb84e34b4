package diff

import (
	"sync/atomic"

	"github.com/dshills/tessera/internal/renderer/core"
	"github.com/dshills/tessera/internal/renderer/dirty"
)

// mergeGap is the longest run of unchanged cells folded into a surrounding
// write instead of issuing a second cursor move.
const mergeGap = 3

// Stats holds cumulative diff counters.
type Stats struct {
	Passes  int64
	Ops     int64
	Writes  int64
	Cells   int64
	Scrolls int64
	Rows    int64
}

// Engine computes terminal operations between two screen buffers.
// An Engine is safe for concurrent use; it holds only counters.
type Engine struct {
	passes  atomic.Int64
	ops     atomic.Int64
	writes  atomic.Int64
	cells   atomic.Int64
	scrolls atomic.Int64
	rows    atomic.Int64

	// DisableScroll turns off insert/delete line detection.
	DisableScroll bool
}

// NewEngine creates a diff engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Diff returns the operations that transform prev (what the terminal shows)
// into next. Neither buffer is modified. Only rows dirty in either buffer are
// considered; identical content yields no operations.
//
// When the dimensions differ every row of next is written in full.
func (e *Engine) Diff(prev, next *core.ScreenBuffer) []Op {
	e.passes.Add(1)

	cols, rows := next.Size()
	pc, pr := prev.Size()
	sameSize := cols == pc && rows == pr

	// model mirrors the terminal's rows as scroll ops are applied.
	model := make([][]core.Cell, rows)
	candidates := make([]int, 0, rows)
	for y := 0; y < rows; y++ {
		if sameSize {
			model[y] = prev.Row(y)
		}
		if !sameSize || prev.Dirty(y) || next.Dirty(y) {
			candidates = append(candidates, y)
		}
	}

	var changed []int
	for _, y := range candidates {
		if !rowEqual(model[y], next.Row(y)) {
			changed = append(changed, y)
		}
	}
	if len(changed) == 0 {
		return nil
	}

	var ops []Op
	if sameSize && !e.DisableScroll {
		blank := blankRow(cols)
		for _, run := range dirty.Runs(changed) {
			if op, ok := detectScroll(model, next, run.StartRow, run.EndRow); ok {
				applyScroll(model, op, blank)
				ops = append(ops, op)
				e.scrolls.Add(1)
			}
		}
	}

	for _, y := range changed {
		ops = e.diffRow(ops, y, model[y], next.Row(y))
	}

	e.ops.Add(int64(len(ops)))
	e.rows.Add(int64(len(changed)))
	return ops
}

// Stats returns a snapshot of the cumulative counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Passes:  e.passes.Load(),
		Ops:     e.ops.Load(),
		Writes:  e.writes.Load(),
		Cells:   e.cells.Load(),
		Scrolls: e.scrolls.Load(),
		Rows:    e.rows.Load(),
	}
}

// ResetStats zeroes the counters.
func (e *Engine) ResetStats() {
	e.passes.Store(0)
	e.ops.Store(0)
	e.writes.Store(0)
	e.cells.Store(0)
	e.scrolls.Store(0)
	e.rows.Store(0)
}

// diffRow appends move+write pairs for every differing span of one row.
// A nil old row is treated as entirely different.
func (e *Engine) diffRow(ops []Op, y int, old, cur []core.Cell) []Op {
	n := len(cur)
	differs := func(x int) bool {
		return old == nil || x >= len(old) || !old[x].Equals(cur[x])
	}

	x := 0
	for x < n {
		if !differs(x) {
			x++
			continue
		}
		start := x
		end := x + 1
		for end < n {
			if differs(end) {
				end++
				continue
			}
			gap := end
			for gap < n && !differs(gap) && gap-end < mergeGap {
				gap++
			}
			if gap < n && differs(gap) {
				end = gap + 1
				continue
			}
			break
		}

		// Never start on the second half of a wide glyph or stop after the
		// first half.
		for start > 0 && cur[start].IsContinuation() {
			start--
		}
		for end < n && cur[end].IsContinuation() {
			end++
		}

		cells := make([]core.Cell, end-start)
		copy(cells, cur[start:end])
		ops = append(ops, Move(y, start), Write(cells))
		e.writes.Add(1)
		e.cells.Add(int64(len(cells)))
		x = end
	}
	return ops
}

// detectScroll looks for a vertical shift d of the rows [top, bottom] of the
// model that reproduces next on every overlapping row. Shifts are tried from
// the smallest distance, upward before downward.
func detectScroll(model [][]core.Cell, next *core.ScreenBuffer, top, bottom int) (Op, bool) {
	n := bottom - top + 1
	if n < 2 {
		return Op{}, false
	}
	for d := 1; d < n; d++ {
		if shiftMatches(model, next, top, bottom, d) {
			return Op{Kind: OpDeleteLines, N: d, Top: top, Bottom: bottom}, true
		}
		if shiftMatches(model, next, top, bottom, -d) {
			return Op{Kind: OpInsertLines, N: d, Top: top, Bottom: bottom}, true
		}
	}
	return Op{}, false
}

// shiftMatches reports whether next[y] == model[y+d] for every y in the
// region whose source row also lies in the region.
func shiftMatches(model [][]core.Cell, next *core.ScreenBuffer, top, bottom, d int) bool {
	for y := top; y <= bottom; y++ {
		src := y + d
		if src < top || src > bottom {
			continue
		}
		if !rowEqual(model[src], next.Row(y)) {
			return false
		}
	}
	return true
}

// applyScroll updates the model the way the terminal will after op.
func applyScroll(model [][]core.Cell, op Op, blank []core.Cell) {
	switch op.Kind {
	case OpDeleteLines:
		for y := op.Top; y <= op.Bottom; y++ {
			if src := y + op.N; src <= op.Bottom {
				model[y] = model[src]
			} else {
				model[y] = blank
			}
		}
	case OpInsertLines:
		for y := op.Bottom; y >= op.Top; y-- {
			if src := y - op.N; src >= op.Top {
				model[y] = model[src]
			} else {
				model[y] = blank
			}
		}
	}
}

func blankRow(cols int) []core.Cell {
	row := make([]core.Cell, cols)
	for x := range row {
		row[x] = core.EmptyCell()
	}
	return row
}

func rowEqual(a, b []core.Cell) bool {
	if a == nil || len(a) != len(b) {
		return false
	}
	for x := range a {
		if !a[x].Equals(b[x]) {
			return false
		}
	}
	return true
}
