// Package widget holds the widget tree the compositor paints.
//
// Nodes live in an arena owned by a Tree and refer to each other by NodeID,
// so parent links never form pointer cycles. A Tree is not safe for
// concurrent use; the screen session serialises access to it.
package widget

import (
	"github.com/dshills/tessera/internal/renderer/core"
	"github.com/dshills/tessera/internal/renderer/format"
)

// NodeID indexes a node in its Tree.
type NodeID int

// NoNode is the parent of the root and of detached nodes.
const NoNode NodeID = -1

// Root is the ID of the tree's root node, which covers the whole screen.
const Root NodeID = 0

// BorderType selects how a border is drawn.
type BorderType uint8

const (
	BorderNone BorderType = iota
	// BorderLine draws box-drawing glyphs.
	BorderLine
	// BorderBg paints the border cells with the border attribute only.
	BorderBg
)

// Glyphs are the characters of a line border.
type Glyphs struct {
	Horizontal, Vertical                       string
	TopLeft, TopRight, BottomLeft, BottomRight string
}

// Glyph sets for line borders.
var (
	GlyphsSingle  = Glyphs{"─", "│", "┌", "┐", "└", "┘"}
	GlyphsDouble  = Glyphs{"═", "║", "╔", "╗", "╚", "╝"}
	GlyphsRounded = Glyphs{"─", "│", "╭", "╮", "╰", "╯"}
	GlyphsHeavy   = Glyphs{"━", "┃", "┏", "┓", "┗", "┛"}
	GlyphsASCII   = Glyphs{"-", "|", "+", "+", "+", "+"}
)

// GlyphsByName returns the glyph set for a style name.
func GlyphsByName(name string) (Glyphs, bool) {
	switch name {
	case "single", "line", "":
		return GlyphsSingle, true
	case "double":
		return GlyphsDouble, true
	case "rounded":
		return GlyphsRounded, true
	case "heavy":
		return GlyphsHeavy, true
	case "ascii":
		return GlyphsASCII, true
	}
	return Glyphs{}, false
}

// Border describes a widget border. Each drawn side takes one cell.
type Border struct {
	Type   BorderType
	Glyphs Glyphs
	Attr   core.Attr

	// Hidden sides are not drawn and take no space.
	HideLeft, HideTop, HideRight, HideBottom bool
}

// LineBorder returns a single-line border in attr.
func LineBorder(attr core.Attr) Border {
	return Border{Type: BorderLine, Glyphs: GlyphsSingle, Attr: attr}
}

// Insets returns the cells the border takes on each side.
func (b Border) Insets() (left, top, right, bottom int) {
	if b.Type == BorderNone {
		return 0, 0, 0, 0
	}
	return boolInt(!b.HideLeft), boolInt(!b.HideTop), boolInt(!b.HideRight), boolInt(!b.HideBottom)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Padding is blank space between the border and the content.
type Padding struct {
	Left, Top, Right, Bottom int
}

// Uniform returns equal padding on all sides.
func Uniform(n int) Padding {
	return Padding{n, n, n, n}
}

// Style is the look of a widget's area.
type Style struct {
	Attr core.Attr
	// Dynamic, when set, overrides Attr at paint time (focus or hover state).
	Dynamic func(*Node) core.Attr
	// Transparent blends the widget over what lies beneath.
	Transparent bool
	// Shadow darkens the cells to the right of and below the widget.
	Shadow bool
}

// ScrollState is the scroll position of a scrollable widget.
type ScrollState struct {
	// ChildBase is the first content row shown.
	ChildBase int
	// ChildOffset is the selected row relative to ChildBase.
	ChildOffset int
	// BaseLimit caps ChildBase; 0 means no cap.
	BaseLimit int
}

// Node is one widget.
type Node struct {
	ID       NodeID
	Parent   NodeID
	Children []NodeID
	Name     string

	Position Position
	Style    Style
	Border   Border
	Padding  Padding

	// Content is the widget's text; with Tags set it may hold style tags.
	Content string
	Tags    bool
	Wrap    bool
	Align   format.Align

	Hidden     bool
	Shrink     bool
	Scrollable bool
	Scroll     ScrollState

	// LastRect is the clipped screen rectangle from the latest paint.
	LastRect core.Rect
	// Painted is true once LastRect holds a paint result.
	Painted bool

	scrollBottom      int
	scrollBottomValid bool
	viewWidth         int
	viewHeight        int
	handlers          map[EventType][]handlerEntry
}

// Attr returns the attribute the widget is painted with.
func (n *Node) Attr() core.Attr {
	if n.Style.Dynamic != nil {
		return n.Style.Dynamic(n)
	}
	return n.Style.Attr
}

// Insets returns the space border and padding take on each side.
func (n *Node) Insets() (left, top, right, bottom int) {
	l, t, r, b := n.Border.Insets()
	return l + n.Padding.Left, t + n.Padding.Top, r + n.Padding.Right, b + n.Padding.Bottom
}

// ScrollBottom returns the cached scroll extent, and false when it must be
// recomputed.
func (n *Node) ScrollBottom() (int, bool) {
	return n.scrollBottom, n.scrollBottomValid
}

// ViewSize returns the inner size recorded with the extent.
func (n *Node) ViewSize() (width, height int) {
	return n.viewWidth, n.viewHeight
}

// SetScrollExtent caches the scroll extent computed by the compositor and
// the inner size it was computed for. Content wraps to the width and
// height rows are visible at once.
func (n *Node) SetScrollExtent(bottom, width, height int) {
	n.scrollBottom = bottom
	n.scrollBottomValid = true
	n.viewWidth = width
	n.viewHeight = height
}

// MaxScroll returns the largest ChildBase that still fills the view.
func (n *Node) MaxScroll() int {
	m := n.scrollBottom - n.viewHeight
	if m < 0 {
		m = 0
	}
	if n.Scroll.BaseLimit > 0 && m > n.Scroll.BaseLimit {
		m = n.Scroll.BaseLimit
	}
	return m
}
