package widget

import (
	"errors"
	"fmt"
)

// ErrNotScrollable indicates a scroll request on a fixed widget.
var ErrNotScrollable = errors.New("node is not scrollable")

// Scroll moves the scroll position of id by delta rows.
func (t *Tree) Scroll(id NodeID, delta int) error {
	n := t.Node(id)
	if n == nil {
		return fmt.Errorf("scroll %d: %w", id, ErrNoSuchNode)
	}
	return t.ScrollTo(id, n.Scroll.ChildBase+delta)
}

// ScrollTo sets the first visible row of id. The position is clamped to
// zero and, once the node has been painted, to its scroll extent.
func (t *Tree) ScrollTo(id NodeID, base int) error {
	n := t.Node(id)
	if n == nil {
		return fmt.Errorf("scroll %d: %w", id, ErrNoSuchNode)
	}
	if !n.Scrollable {
		return fmt.Errorf("scroll %d: %w", id, ErrNotScrollable)
	}
	if _, ok := n.ScrollBottom(); ok && base > n.MaxScroll() {
		base = n.MaxScroll()
	}
	if n.Scroll.BaseLimit > 0 && base > n.Scroll.BaseLimit {
		base = n.Scroll.BaseLimit
	}
	if base < 0 {
		base = 0
	}
	if base == n.Scroll.ChildBase {
		return nil
	}
	n.Scroll.ChildBase = base
	t.version++
	t.Emit(&Event{Type: EventScroll, Target: id})
	return nil
}

// ScrollPercent returns how far id is scrolled, 0-100.
func (t *Tree) ScrollPercent(id NodeID) int {
	n := t.Node(id)
	if n == nil {
		return 0
	}
	m := n.MaxScroll()
	if m == 0 {
		return 100
	}
	return min(100, n.Scroll.ChildBase*100/m)
}
