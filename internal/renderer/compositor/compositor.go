// Package compositor paints a widget tree into a screen buffer.
//
// Each widget is painted in order: its fill, its border, its content, then
// its children in list order, so later siblings cover earlier ones. Every
// widget is clipped to the inner area of all of its ancestors; a widget
// whose clipped rectangle is empty is skipped together with its subtree.
package compositor

import (
	"github.com/dshills/tessera/internal/renderer/color"
	"github.com/dshills/tessera/internal/renderer/core"
	"github.com/dshills/tessera/internal/renderer/format"
	"github.com/dshills/tessera/internal/renderer/widget"
)

// DefaultTransparency is the blend factor of transparent widgets.
const DefaultTransparency = 0.5

// Options control compositing.
type Options struct {
	// DockBorders joins touching line borders with junction glyphs.
	DockBorders bool
	// IgnoreDockContrast joins borders even when their attributes differ.
	IgnoreDockContrast bool
	// FullUnicode keeps wide glyphs; otherwise they render as "??".
	FullUnicode bool
	// TabSize is the tab expansion width of widget content.
	TabSize int
	// Transparency is the blend factor of transparent widgets, 0-1.
	Transparency float64
}

// DefaultOptions returns the default compositing options.
func DefaultOptions() Options {
	return Options{
		DockBorders:  true,
		FullUnicode:  true,
		TabSize:      format.DefaultTabSize,
		Transparency: DefaultTransparency,
	}
}

// Result summarises one paint pass.
type Result struct {
	// Painted counts widgets with a non-empty clipped rectangle.
	Painted int
	// Skipped counts hidden or fully clipped widgets.
	Skipped int
	// BorderCells counts border cells drawn.
	BorderCells int
	// Docked counts border cells rewritten to junction glyphs.
	Docked int
}

type point struct{ x, y int }

// Compositor paints widget trees. It is not safe for concurrent use.
type Compositor struct {
	codec   *color.Codec
	cache   *format.Cache
	opts    Options
	borders []point
}

// New creates a compositor that resolves colors through codec.
func New(codec *color.Codec, opts Options) *Compositor {
	if codec == nil {
		codec = color.NewCodec()
	}
	if opts.Transparency <= 0 || opts.Transparency > 1 {
		opts.Transparency = DefaultTransparency
	}
	return &Compositor{
		codec: codec,
		cache: format.NewCache(format.NewFormatter(codec), 0),
		opts:  opts,
	}
}

// Options returns the current options.
func (c *Compositor) Options() Options {
	return c.opts
}

// SetOptions replaces the options and drops cached content.
func (c *Compositor) SetOptions(opts Options) {
	if opts.Transparency <= 0 || opts.Transparency > 1 {
		opts.Transparency = DefaultTransparency
	}
	c.opts = opts
	c.cache.InvalidateAll()
}

// Forget drops cached content of a removed widget.
func (c *Compositor) Forget(id widget.NodeID) {
	c.cache.Invalidate(int(id))
}

// CacheStats returns content cache statistics.
func (c *Compositor) CacheStats() format.CacheStats {
	return c.cache.Stats()
}

// frame is the area a widget's position resolves against.
type frame struct {
	// origin is the parent's unclipped inner rectangle.
	origin core.Rect
	// clip is the intersection of every ancestor's inner rectangle.
	clip core.Rect
	// shift is the parent's scroll offset.
	shift int
}

// Paint draws tree into buf. The buffer should be blank; rows touched are
// marked dirty by the buffer itself.
func (c *Compositor) Paint(tree *widget.Tree, buf *core.ScreenBuffer) Result {
	var res Result
	c.borders = c.borders[:0]

	cols, rows := buf.Size()
	screen := core.NewRect(0, 0, cols, rows)
	tree.Emit(&widget.Event{Type: widget.EventPreRender, Target: widget.Root, Width: cols, Height: rows})

	c.paint(tree, buf, widget.Root, frame{origin: screen, clip: screen}, &res)
	if c.opts.DockBorders {
		res.Docked = c.dock(buf)
	}
	return res
}

func (c *Compositor) paint(tree *widget.Tree, buf *core.ScreenBuffer, id widget.NodeID, f frame, res *Result) {
	n := tree.Node(id)
	if n == nil {
		return
	}
	if n.Hidden {
		c.skip(tree, n, res)
		return
	}

	attr := n.Attr()
	l, t, r, b := n.Insets()
	x, y, w, h := n.Position.Resolve(f.origin.Width(), f.origin.Height())

	var content *format.Content
	if n.Content != "" {
		content = c.format(n, w-l-r, attr)
	}
	if n.Shrink {
		pos := c.shrink(tree, n, content, w, h)
		x, y, w, h = pos.Resolve(f.origin.Width(), f.origin.Height())
		if content != nil && content.Width != max(w-l-r, 0) {
			content = c.format(n, w-l-r, attr)
		}
	}

	abs := core.NewRect(f.origin.Xi+x, f.origin.Yi+y-f.shift, w, h)
	clipped := abs.Clip(f.clip)
	n.LastRect = clipped
	if clipped.Empty() {
		c.skip(tree, n, res)
		return
	}
	n.Painted = true
	res.Painted++

	c.fill(buf, n, clipped, attr)
	c.border(buf, n, abs, clipped, attr, res)

	inner := abs.Inset(l, t, r, b)
	innerClip := inner.Clip(clipped)

	base := 0
	if n.Scrollable {
		c.updateScroll(tree, n, inner, content)
		base = n.Scroll.ChildBase
	}
	c.content(buf, n, content, inner, innerClip, base)

	child := frame{origin: inner, clip: innerClip, shift: base}
	for _, cid := range n.Children {
		c.paint(tree, buf, cid, child, res)
	}

	if n.Style.Shadow {
		c.shadow(buf, abs, f.clip)
	}
	// The root's render event belongs to the session, sent once the frame
	// reaches the writer.
	if id != widget.Root {
		tree.Emit(&widget.Event{Type: widget.EventRender, Target: id, Rect: clipped})
	}
}

// skip records a widget and its subtree as not painted.
func (c *Compositor) skip(tree *widget.Tree, n *widget.Node, res *Result) {
	n.Painted = false
	res.Skipped++
	for _, cid := range n.Children {
		if child := tree.Node(cid); child != nil && child.Painted {
			c.skip(tree, child, res)
		}
	}
}

func (c *Compositor) format(n *widget.Node, width int, attr core.Attr) *format.Content {
	return c.cache.Get(int(n.ID), n.Content, format.Options{
		Width:       max(width, 0),
		Tags:        n.Tags,
		Base:        attr,
		TabSize:     c.opts.TabSize,
		Wrap:        n.Wrap,
		FullUnicode: c.opts.FullUnicode,
		Align:       n.Align,
	})
}

// shrink returns the widget position sized to fit its content and
// children, never larger than the space it was given.
func (c *Compositor) shrink(tree *widget.Tree, n *widget.Node, content *format.Content, w, h int) widget.Position {
	l, t, r, b := n.Insets()
	iw, ih := max(w-l-r, 0), max(h-t-b, 0)

	cw, ch := 0, 0
	if content != nil {
		cw, ch = content.MaxUsed(), content.Height()
	}
	for _, cid := range n.Children {
		child := tree.Node(cid)
		if child == nil || child.Hidden {
			continue
		}
		x, y, xw, yh := child.Position.Resolve(iw, ih)
		cw = max(cw, x+xw)
		ch = max(ch, y+yh)
	}

	pos := n.Position
	if !pos.Width.IsSet() || pos.Width.Relative {
		pos.Width = widget.Abs(min(w, cw+l+r))
	}
	if !pos.Height.IsSet() || pos.Height.Relative {
		pos.Height = widget.Abs(min(h, ch+t+b))
	}
	if pos.Left.IsSet() && pos.Right.IsSet() && !pos.Left.Center {
		pos.Right = widget.Dim{}
	}
	if pos.Top.IsSet() && pos.Bottom.IsSet() && !pos.Top.Center {
		pos.Bottom = widget.Dim{}
	}
	return pos
}

// fill paints the widget background. Transparent widgets blend their
// attribute into the cells beneath and keep the glyphs.
func (c *Compositor) fill(buf *core.ScreenBuffer, n *widget.Node, clipped core.Rect, attr core.Attr) {
	if !n.Style.Transparent {
		buf.Fill(clipped, core.BlankCell(attr))
		return
	}
	for y := clipped.Yi; y < clipped.Yl; y++ {
		for x := clipped.Xi; x < clipped.Xl; x++ {
			under, ok := buf.Get(x, y)
			if !ok {
				continue
			}
			under.Attr = c.codec.Blend(under.Attr, attr, c.opts.Transparency)
			buf.Set(x, y, under)
		}
	}
}

// content copies formatted rows into the inner area, starting at row base.
func (c *Compositor) content(buf *core.ScreenBuffer, n *widget.Node, content *format.Content, inner, clip core.Rect, base int) {
	if content == nil || clip.Empty() {
		return
	}
	for row := 0; row < inner.Height(); row++ {
		li := row + base
		if li >= content.Height() {
			return
		}
		y := inner.Yi + row
		if y < clip.Yi || y >= clip.Yl {
			continue
		}
		for col, cell := range content.Lines[li].Cells {
			x := inner.Xi + col
			if x < clip.Xi || x >= clip.Xl {
				continue
			}
			switch {
			case cell.Width == 2 && x+1 >= clip.Xl:
				cell = core.BlankCell(cell.Attr)
			case cell.IsContinuation() && x == clip.Xi:
				cell = core.BlankCell(cell.Attr)
			}
			if n.Style.Transparent {
				under, _ := buf.Get(x, y)
				if cell.IsBlank() {
					continue
				}
				cell.Attr = c.codec.Blend(under.Attr, cell.Attr, c.opts.Transparency)
			}
			buf.Set(x, y, cell)
		}
	}
}

// shadow darkens two columns right of the widget and the row below it.
func (c *Compositor) shadow(buf *core.ScreenBuffer, abs, clip core.Rect) {
	darken := func(x, y int) {
		if !clip.Contains(x, y) {
			return
		}
		cell, ok := buf.Get(x, y)
		if !ok {
			return
		}
		cell.Attr = c.codec.Downsample(cell.Attr)
		buf.Set(x, y, cell)
	}
	for y := abs.Yi + 1; y <= abs.Yl; y++ {
		darken(abs.Xl, y)
		darken(abs.Xl+1, y)
	}
	for x := abs.Xi + 1; x < abs.Xl; x++ {
		darken(x, abs.Yl)
	}
}
