package widget

import "math"

// Dim is one coordinate or extent of a widget, relative to its parent's
// inner area. The zero value is unset.
type Dim struct {
	// Percent of the parent extent, 0-100. Ignored when Center is set.
	Percent float64
	// Offset added after the percentage is applied.
	Offset int
	// Relative is true when Percent applies.
	Relative bool
	// Center places the widget in the middle of the parent (coordinates only).
	Center bool
	set    bool
}

// Abs returns an absolute dimension.
func Abs(n int) Dim {
	return Dim{Offset: n, set: true}
}

// Pct returns a dimension of p percent of the parent plus offset.
func Pct(p float64, offset int) Dim {
	return Dim{Percent: p, Offset: offset, Relative: true, set: true}
}

// Centered returns a coordinate that centers the widget in its parent.
func Centered() Dim {
	return Dim{Center: true, set: true}
}

// IsSet returns true if the dimension was specified.
func (d Dim) IsSet() bool {
	return d.set
}

// resolve returns the dimension against a parent extent.
func (d Dim) resolve(parent int) int {
	if d.Relative {
		return int(math.Floor(float64(parent)*d.Percent/100)) + d.Offset
	}
	return d.Offset
}

// Position places a widget inside its parent. Unset extents stretch between
// the set edges; unset edges default to 0.
type Position struct {
	Left, Top, Right, Bottom Dim
	Width, Height            Dim
}

// Fill returns a position covering the whole parent.
func Fill() Position {
	return Position{Left: Abs(0), Top: Abs(0), Right: Abs(0), Bottom: Abs(0)}
}

// At returns an absolute position and size.
func At(left, top, width, height int) Position {
	return Position{Left: Abs(left), Top: Abs(top), Width: Abs(width), Height: Abs(height)}
}

// Resolve computes the offset and size of the widget inside a parent area
// of pw x ph cells. Sizes never go negative.
func (p Position) Resolve(pw, ph int) (x, y, w, h int) {
	x, w = resolveAxis(p.Left, p.Right, p.Width, pw)
	y, h = resolveAxis(p.Top, p.Bottom, p.Height, ph)
	return x, y, w, h
}

func resolveAxis(start, end, size Dim, parent int) (pos, extent int) {
	switch {
	case size.IsSet():
		extent = size.resolve(parent)
	case start.IsSet() && !start.Center:
		extent = parent - start.resolve(parent) - end.resolve(parent)
	default:
		extent = parent - end.resolve(parent)
	}
	if extent < 0 {
		extent = 0
	}

	switch {
	case start.Center:
		pos = (parent - extent) / 2
	case start.IsSet():
		pos = start.resolve(parent)
	case end.IsSet():
		pos = parent - end.resolve(parent) - extent
	}
	return pos, extent
}
