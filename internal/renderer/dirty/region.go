// Package dirty tracks which screen rows need repainting and groups changed
// rows into contiguous runs.
package dirty

// Region is a rectangular block of screen cells. Rows are inclusive,
// columns half-open.
type Region struct {
	StartRow, EndRow int

	// StartCol and EndCol are ignored when FullWidth is true.
	StartCol, EndCol int

	FullWidth bool
}

// NewRowRegion creates a region covering whole rows.
func NewRowRegion(startRow, endRow int) Region {
	if endRow < startRow {
		startRow, endRow = endRow, startRow
	}
	return Region{StartRow: startRow, EndRow: endRow, FullWidth: true}
}

// NewCellRegion creates a region covering a rectangle of cells
// [startCol, endCol) on rows startRow..endRow.
func NewCellRegion(startRow, endRow, startCol, endCol int) Region {
	if endRow < startRow {
		startRow, endRow = endRow, startRow
	}
	if endCol < startCol {
		startCol, endCol = endCol, startCol
	}
	return Region{StartRow: startRow, EndRow: endRow, StartCol: startCol, EndCol: endCol}
}

// IsEmpty returns true if the region covers no cells.
func (r Region) IsEmpty() bool {
	return r.StartRow > r.EndRow || (!r.FullWidth && r.StartCol >= r.EndCol)
}

// RowCount returns the number of rows covered.
func (r Region) RowCount() int {
	if r.StartRow > r.EndRow {
		return 0
	}
	return r.EndRow - r.StartRow + 1
}

// ContainsRow returns true if the region covers row.
func (r Region) ContainsRow(row int) bool {
	return row >= r.StartRow && row <= r.EndRow
}

// Contains returns true if the region covers the cell (col, row).
func (r Region) Contains(row, col int) bool {
	if !r.ContainsRow(row) {
		return false
	}
	return r.FullWidth || (col >= r.StartCol && col < r.EndCol)
}

// Overlaps returns true if the regions share a cell.
func (r Region) Overlaps(other Region) bool {
	if r.EndRow < other.StartRow || r.StartRow > other.EndRow {
		return false
	}
	if r.FullWidth || other.FullWidth {
		return true
	}
	return r.EndCol > other.StartCol && r.StartCol < other.EndCol
}

// Adjacent returns true if the regions touch without a gap and their union
// is still a rectangle.
func (r Region) Adjacent(other Region) bool {
	if r.EndRow+1 == other.StartRow || other.EndRow+1 == r.StartRow {
		if r.FullWidth && other.FullWidth {
			return true
		}
		if !r.FullWidth && !other.FullWidth {
			return r.StartCol == other.StartCol && r.EndCol == other.EndCol
		}
		return false
	}
	if !r.FullWidth && !other.FullWidth &&
		r.StartRow == other.StartRow && r.EndRow == other.EndRow {
		return r.EndCol == other.StartCol || other.EndCol == r.StartCol
	}
	return false
}

// Merge returns the bounding region of both, and false when they neither
// overlap nor touch.
func (r Region) Merge(other Region) (Region, bool) {
	if !r.Overlaps(other) && !r.Adjacent(other) {
		return Region{}, false
	}
	merged := Region{
		StartRow: min(r.StartRow, other.StartRow),
		EndRow:   max(r.EndRow, other.EndRow),
	}
	if r.FullWidth || other.FullWidth {
		merged.FullWidth = true
	} else {
		merged.StartCol = min(r.StartCol, other.StartCol)
		merged.EndCol = max(r.EndCol, other.EndCol)
	}
	return merged, true
}

// Runs groups ascending row indices into maximal runs of consecutive rows.
func Runs(rows []int) []Region {
	var out []Region
	for _, row := range rows {
		if n := len(out); n > 0 && out[n-1].EndRow+1 == row {
			out[n-1].EndRow = row
			continue
		}
		out = append(out, NewRowRegion(row, row))
	}
	return out
}
