package compositor

import (
	"github.com/dshills/tessera/internal/renderer/core"
	"github.com/dshills/tessera/internal/renderer/format"
	"github.com/dshills/tessera/internal/renderer/widget"
)

// updateScroll refreshes the cached scroll extent of a scrollable widget
// and clamps its scroll position. The extent is the larger of the content
// height and the lowest descendant edge; it is recomputed only after the
// tree invalidated it or the inner size changed.
func (c *Compositor) updateScroll(tree *widget.Tree, n *widget.Node, inner core.Rect, content *format.Content) {
	width, view := inner.Width(), inner.Height()
	vw, vh := n.ViewSize()
	if _, ok := n.ScrollBottom(); !ok || vw != width || vh != view {
		bottom := content.Height()
		for _, cid := range n.Children {
			bottom = max(bottom, extent(tree, cid, width, view))
		}
		n.SetScrollExtent(bottom, width, view)
	}
	if n.Scroll.ChildBase > n.MaxScroll() {
		n.Scroll.ChildBase = n.MaxScroll()
	}
	if n.Scroll.ChildBase < 0 {
		n.Scroll.ChildBase = 0
	}
}

// extent returns the lowest row, relative to the parent's inner top, that
// node id or any non-scrolling descendant reaches.
func extent(tree *widget.Tree, id widget.NodeID, pw, ph int) int {
	n := tree.Node(id)
	if n == nil || n.Hidden {
		return 0
	}
	_, y, w, h := n.Position.Resolve(pw, ph)
	bottom := y + h
	if n.Scrollable {
		return bottom
	}
	l, t, r, b := n.Insets()
	iw, ih := max(w-l-r, 0), max(h-t-b, 0)
	for _, cid := range n.Children {
		bottom = max(bottom, y+t+extent(tree, cid, iw, ih))
	}
	return bottom
}
