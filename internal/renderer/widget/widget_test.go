package widget

import (
	"errors"
	"testing"

	"github.com/dshills/tessera/internal/renderer/core"
)

func TestPositionResolve(t *testing.T) {
	tests := []struct {
		name       string
		pos        Position
		x, y, w, h int
	}{
		{"fill", Fill(), 0, 0, 80, 24},
		{"absolute", At(2, 3, 10, 5), 2, 3, 10, 5},
		{"percent", Position{Left: Pct(50, 0), Top: Abs(0), Width: Pct(50, -1), Height: Pct(25, 0)}, 40, 0, 39, 6},
		{"stretch", Position{Left: Abs(5), Right: Abs(5), Top: Abs(1), Bottom: Abs(1)}, 5, 1, 70, 22},
		{"right anchored", Position{Right: Abs(0), Width: Abs(10), Height: Abs(1)}, 70, 0, 10, 1},
		{"centered", Position{Left: Centered(), Top: Centered(), Width: Abs(20), Height: Abs(4)}, 30, 10, 20, 4},
		{"negative extent", Position{Left: Abs(90), Top: Abs(0), Height: Abs(1)}, 90, 0, 0, 1},
	}
	for _, tt := range tests {
		x, y, w, h := tt.pos.Resolve(80, 24)
		if x != tt.x || y != tt.y || w != tt.w || h != tt.h {
			t.Errorf("%s: got (%d,%d %dx%d), want (%d,%d %dx%d)", tt.name, x, y, w, h, tt.x, tt.y, tt.w, tt.h)
		}
	}
}

func TestBorderInsets(t *testing.T) {
	b := LineBorder(core.DefaultAttr)
	l, tp, r, bt := b.Insets()
	if l != 1 || tp != 1 || r != 1 || bt != 1 {
		t.Errorf("expected 1 on every side, got %d %d %d %d", l, tp, r, bt)
	}
	b.HideTop = true
	if _, tp, _, _ := b.Insets(); tp != 0 {
		t.Error("hidden side should take no space")
	}
	if l, _, _, _ := (Border{}).Insets(); l != 0 {
		t.Error("no border takes no space")
	}

	n := &Node{Border: LineBorder(core.DefaultAttr), Padding: Uniform(2)}
	if l, _, _, _ := n.Insets(); l != 3 {
		t.Errorf("border plus padding should be 3, got %d", l)
	}
}

func TestGlyphsByName(t *testing.T) {
	g, ok := GlyphsByName("double")
	if !ok || g.TopLeft != "╔" {
		t.Errorf("unexpected double glyphs %+v", g)
	}
	if _, ok := GlyphsByName("wavy"); ok {
		t.Error("unknown style should not resolve")
	}
}

func TestTreeAddRemove(t *testing.T) {
	tree := NewTree()
	box := tree.MustAdd(Root, Node{Name: "box"})
	child := tree.MustAdd(box, Node{Name: "child"})

	if tree.Node(child).Parent != box {
		t.Errorf("expected parent %d, got %d", box, tree.Node(child).Parent)
	}
	if got := tree.Ancestors(child); len(got) != 2 || got[0] != box || got[1] != Root {
		t.Errorf("unexpected ancestors %v", got)
	}
	if tree.Len() != 3 {
		t.Errorf("expected 3 nodes, got %d", tree.Len())
	}

	if err := tree.Remove(box); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if tree.Node(child) != nil || tree.Node(box) != nil {
		t.Error("removing a node should detach its subtree")
	}
	if len(tree.Node(Root).Children) != 0 {
		t.Error("root should have no children left")
	}
	if err := tree.Remove(box); !errors.Is(err, ErrNoSuchNode) {
		t.Errorf("expected ErrNoSuchNode, got %v", err)
	}
	if err := tree.Remove(Root); !errors.Is(err, ErrRootImmutable) {
		t.Errorf("expected ErrRootImmutable, got %v", err)
	}
	if _, err := tree.Add(NodeID(99), Node{}); !errors.Is(err, ErrNoSuchNode) {
		t.Errorf("expected ErrNoSuchNode, got %v", err)
	}
}

func TestTreeWalkOrder(t *testing.T) {
	tree := NewTree()
	a := tree.MustAdd(Root, Node{Name: "a"})
	tree.MustAdd(a, Node{Name: "a1"})
	b := tree.MustAdd(Root, Node{Name: "b"})
	tree.MustAdd(b, Node{Name: "b1"})

	var names []string
	tree.Walk(func(n *Node) bool {
		names = append(names, n.Name)
		return n.Name != "b"
	})
	want := []string{"screen", "a", "a1", "b"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], names[i])
		}
	}
}

func TestTreeRaiseAndReparent(t *testing.T) {
	tree := NewTree()
	a := tree.MustAdd(Root, Node{Name: "a"})
	b := tree.MustAdd(Root, Node{Name: "b"})

	tree.Raise(a)
	kids := tree.Node(Root).Children
	if kids[0] != b || kids[1] != a {
		t.Errorf("expected a raised above b, got %v", kids)
	}

	if err := tree.Reparent(a, b); err != nil {
		t.Fatalf("Reparent: %v", err)
	}
	if tree.Node(a).Parent != b || len(tree.Node(Root).Children) != 1 {
		t.Error("reparent should move the node")
	}
	if err := tree.Reparent(b, a); !errors.Is(err, ErrCycle) {
		t.Errorf("expected ErrCycle, got %v", err)
	}
}

func TestTreeVersion(t *testing.T) {
	tree := NewTree()
	v := tree.Version()
	id := tree.MustAdd(Root, Node{})
	if err := tree.SetContent(id, "x"); err != nil {
		t.Fatal(err)
	}
	if tree.Version() <= v {
		t.Error("mutations should advance the version")
	}
}

func TestEventsBubble(t *testing.T) {
	tree := NewTree()
	box := tree.MustAdd(Root, Node{})
	leaf := tree.MustAdd(box, Node{})

	var seen []NodeID
	tree.On(Root, EventRender, func(e *Event) { seen = append(seen, e.Current) })
	tree.On(box, EventRender, func(e *Event) { seen = append(seen, e.Current) })
	tree.On(leaf, EventRender, func(e *Event) { seen = append(seen, e.Current) })

	tree.Bubble(&Event{Type: EventRender, Target: leaf})
	if len(seen) != 3 || seen[0] != leaf || seen[1] != box || seen[2] != Root {
		t.Errorf("unexpected bubble order %v", seen)
	}

	seen = nil
	off := tree.On(box, EventRender, func(e *Event) { e.Stop() })
	tree.Bubble(&Event{Type: EventRender, Target: leaf})
	if len(seen) != 2 {
		t.Errorf("Stop should keep the event from the root, saw %v", seen)
	}

	off()
	seen = nil
	tree.Emit(&Event{Type: EventRender, Target: box})
	if len(seen) != 1 || seen[0] != box {
		t.Errorf("Emit should reach only the target, saw %v", seen)
	}
}

func TestEventsAttachDetach(t *testing.T) {
	tree := NewTree()
	var detached int
	id := tree.MustAdd(Root, Node{})
	tree.On(id, EventDetach, func(*Event) { detached++ })
	if err := tree.Remove(id); err != nil {
		t.Fatal(err)
	}
	if detached != 1 {
		t.Errorf("expected 1 detach event, got %d", detached)
	}
}

func TestScrollClamp(t *testing.T) {
	tree := NewTree()
	id := tree.MustAdd(Root, Node{Scrollable: true})

	var scrolls int
	tree.On(id, EventScroll, func(*Event) { scrolls++ })

	if err := tree.Scroll(id, -3); err != nil {
		t.Fatal(err)
	}
	if tree.Node(id).Scroll.ChildBase != 0 {
		t.Error("scroll position must not go negative")
	}
	if scrolls != 0 {
		t.Error("no-op scroll should not emit an event")
	}

	tree.Node(id).SetScrollExtent(20, 10, 5)
	if err := tree.ScrollTo(id, 100); err != nil {
		t.Fatal(err)
	}
	if got := tree.Node(id).Scroll.ChildBase; got != 15 {
		t.Errorf("expected clamp to 15, got %d", got)
	}
	if scrolls != 1 {
		t.Errorf("expected 1 scroll event, got %d", scrolls)
	}
	if tree.ScrollPercent(id) != 100 {
		t.Errorf("expected 100%%, got %d", tree.ScrollPercent(id))
	}

	tree.Node(id).Scroll.BaseLimit = 4
	if err := tree.Scroll(id, 0); err != nil {
		t.Fatal(err)
	}
	if got := tree.Node(id).Scroll.ChildBase; got != 4 {
		t.Errorf("BaseLimit should cap the position, got %d", got)
	}

	fixed := tree.MustAdd(Root, Node{})
	if err := tree.Scroll(fixed, 1); !errors.Is(err, ErrNotScrollable) {
		t.Errorf("expected ErrNotScrollable, got %v", err)
	}
}

func TestScrollInvalidation(t *testing.T) {
	tree := NewTree()
	box := tree.MustAdd(Root, Node{Scrollable: true})
	tree.Node(box).SetScrollExtent(10, 10, 2)
	child := tree.MustAdd(box, Node{})

	if _, ok := tree.Node(box).ScrollBottom(); ok {
		t.Error("adding a child should invalidate the cached extent")
	}
	tree.Node(box).SetScrollExtent(10, 10, 2)
	if err := tree.SetContent(child, "more"); err != nil {
		t.Fatal(err)
	}
	if _, ok := tree.Node(box).ScrollBottom(); ok {
		t.Error("descendant content change should invalidate the cached extent")
	}

	tree.Node(box).SetScrollExtent(10, 10, 2)
	tree.InvalidateScroll()
	if _, ok := tree.Node(box).ScrollBottom(); ok {
		t.Error("InvalidateScroll should drop every cached extent")
	}
	if w, h := tree.Node(box).ViewSize(); w != 10 || h != 2 {
		t.Errorf("view size should be kept, got %dx%d", w, h)
	}
}

func TestDynamicStyle(t *testing.T) {
	n := &Node{Style: Style{Attr: core.DefaultAttr}}
	if n.Attr() != core.DefaultAttr {
		t.Error("static style should be used")
	}
	n.Style.Dynamic = func(*Node) core.Attr { return core.Attr{Fg: 3, Bg: 4} }
	if n.Attr().Fg != 3 {
		t.Error("dynamic style should override")
	}
}
