package compositor

import (
	"github.com/dshills/tessera/internal/renderer/core"
	"github.com/dshills/tessera/internal/renderer/widget"
)

// border draws the widget's border on the edges of its unclipped
// rectangle; edges outside the clipped rectangle are not drawn. A zero
// border attribute inherits the widget attribute.
func (c *Compositor) border(buf *core.ScreenBuffer, n *widget.Node, abs, clipped core.Rect, attr core.Attr, res *Result) {
	bd := n.Border
	if bd.Type == widget.BorderNone {
		return
	}
	g := bd.Glyphs
	if g == (widget.Glyphs{}) {
		g = widget.GlyphsSingle
	}
	battr := bd.Attr
	if battr == (core.Attr{}) {
		battr = attr
	}

	put := func(x, y int, glyph string) {
		if !clipped.Contains(x, y) {
			return
		}
		cell := core.BlankCell(battr)
		if bd.Type == widget.BorderLine {
			cell.Grapheme = glyph
			c.borders = append(c.borders, point{x, y})
		}
		buf.Set(x, y, cell)
		res.BorderCells++
	}

	left, right := abs.Xi, abs.Xl-1
	top, bottom := abs.Yi, abs.Yl-1
	x0, x1 := max(left, clipped.Xi), min(right, clipped.Xl-1)
	y0, y1 := max(top, clipped.Yi), min(bottom, clipped.Yl-1)

	if !bd.HideTop {
		for x := x0; x <= x1; x++ {
			put(x, top, g.Horizontal)
		}
	}
	if !bd.HideBottom {
		for x := x0; x <= x1; x++ {
			put(x, bottom, g.Horizontal)
		}
	}
	if !bd.HideLeft {
		for y := y0; y <= y1; y++ {
			put(left, y, g.Vertical)
		}
	}
	if !bd.HideRight {
		for y := y0; y <= y1; y++ {
			put(right, y, g.Vertical)
		}
	}

	if !bd.HideTop && !bd.HideLeft {
		put(left, top, g.TopLeft)
	}
	if !bd.HideTop && !bd.HideRight {
		put(right, top, g.TopRight)
	}
	if !bd.HideBottom && !bd.HideLeft {
		put(left, bottom, g.BottomLeft)
	}
	if !bd.HideBottom && !bd.HideRight {
		put(right, bottom, g.BottomRight)
	}
}

// Junction directions.
const (
	dirUp    = 8
	dirRight = 4
	dirDown  = 2
	dirLeft  = 1
)

// junctions maps connected directions to the single-line glyph joining
// them. Cells connected in fewer than two directions keep their glyph.
var junctions = map[int]string{
	dirUp | dirDown:                      "│",
	dirLeft | dirRight:                   "─",
	dirRight | dirDown:                   "┌",
	dirDown | dirLeft:                    "┐",
	dirUp | dirRight:                     "└",
	dirUp | dirLeft:                      "┘",
	dirUp | dirRight | dirDown:           "├",
	dirRight | dirDown | dirLeft:         "┬",
	dirUp | dirDown | dirLeft:            "┤",
	dirUp | dirRight | dirLeft:           "┴",
	dirUp | dirRight | dirDown | dirLeft: "┼",
}

// Glyphs reaching toward a neighbour on the given side.
var (
	reachesDown  = glyphSet("┐┌┼├┤┬│")
	reachesLeft  = glyphSet("┘┐┼┤┴┬─")
	reachesUp    = glyphSet("┘└┼├┤┴│")
	reachesRight = glyphSet("┌└┼├┴┬─")
	lineGlyphs   = glyphSet("─│┌┐└┘├┤┬┴┼")
)

func glyphSet(s string) map[string]bool {
	m := make(map[string]bool)
	for _, r := range s {
		m[string(r)] = true
	}
	return m
}

// dock rewrites line-border cells into junctions where they meet other
// line glyphs of the same attribute, and returns the number rewritten.
func (c *Compositor) dock(buf *core.ScreenBuffer) int {
	docked := 0
	for _, p := range c.borders {
		cell, ok := buf.Get(p.x, p.y)
		if !ok || !lineGlyphs[cell.Grapheme] {
			continue
		}
		bits := 0
		if c.joins(buf, p.x, p.y-1, cell.Attr, reachesDown) {
			bits |= dirUp
		}
		if c.joins(buf, p.x+1, p.y, cell.Attr, reachesLeft) {
			bits |= dirRight
		}
		if c.joins(buf, p.x, p.y+1, cell.Attr, reachesUp) {
			bits |= dirDown
		}
		if c.joins(buf, p.x-1, p.y, cell.Attr, reachesRight) {
			bits |= dirLeft
		}
		glyph, ok := junctions[bits]
		if !ok || glyph == cell.Grapheme {
			continue
		}
		cell.Grapheme = glyph
		buf.Set(p.x, p.y, cell)
		docked++
	}
	return docked
}

func (c *Compositor) joins(buf *core.ScreenBuffer, x, y int, attr core.Attr, reaches map[string]bool) bool {
	cell, ok := buf.Get(x, y)
	if !ok || !reaches[cell.Grapheme] {
		return false
	}
	return c.opts.IgnoreDockContrast || cell.Attr == attr
}
