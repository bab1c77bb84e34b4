package core

// Rect is a half-open absolute screen rectangle [Xi,Xl) x [Yi,Yl).
// The clip flags record which edges were cut by an ancestor's bounds.
type Rect struct {
	Xi, Xl int
	Yi, Yl int

	NoLeft   bool
	NoRight  bool
	NoTop    bool
	NoBottom bool

	// Base is the number of rows cut away at the top.
	Base int
	// LeftBase is the number of columns cut away at the left.
	LeftBase int
}

// NewRect creates an unclipped rectangle from a position and size.
// Negative sizes are treated as zero.
func NewRect(x, y, width, height int) Rect {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return Rect{Xi: x, Xl: x + width, Yi: y, Yl: y + height}
}

// Width returns the horizontal extent.
func (r Rect) Width() int {
	if r.Xl < r.Xi {
		return 0
	}
	return r.Xl - r.Xi
}

// Height returns the vertical extent.
func (r Rect) Height() int {
	if r.Yl < r.Yi {
		return 0
	}
	return r.Yl - r.Yi
}

// Empty returns true if the rectangle has zero extent (do not paint).
func (r Rect) Empty() bool {
	return r.Xl <= r.Xi || r.Yl <= r.Yi
}

// Contains returns true if the cell (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.Xi && x < r.Xl && y >= r.Yi && y < r.Yl
}

// Inset shrinks the rectangle by the given amounts on each side.
// The result never inverts; an over-inset rectangle becomes empty.
func (r Rect) Inset(left, top, right, bottom int) Rect {
	out := r
	out.Xi += left
	out.Yi += top
	out.Xl -= right
	out.Yl -= bottom
	if out.Xl < out.Xi {
		out.Xl = out.Xi
	}
	if out.Yl < out.Yi {
		out.Yl = out.Yi
	}
	return out
}

// Clip intersects r with bounds and sets the clip flags for every edge
// that was truncated. Clip flags already set on r are preserved.
func (r Rect) Clip(bounds Rect) Rect {
	out := r
	if out.Xi < bounds.Xi {
		out.LeftBase += bounds.Xi - out.Xi
		out.Xi = bounds.Xi
		out.NoLeft = true
	}
	if out.Xl > bounds.Xl {
		out.Xl = bounds.Xl
		out.NoRight = true
	}
	if out.Yi < bounds.Yi {
		out.Base += bounds.Yi - out.Yi
		out.Yi = bounds.Yi
		out.NoTop = true
	}
	if out.Yl > bounds.Yl {
		out.Yl = bounds.Yl
		out.NoBottom = true
	}
	if out.Xl < out.Xi {
		out.Xl = out.Xi
	}
	if out.Yl < out.Yi {
		out.Yl = out.Yi
	}
	return out
}
