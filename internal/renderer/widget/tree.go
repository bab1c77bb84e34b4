package widget

import (
	"errors"
	"fmt"

	"github.com/dshills/tessera/internal/renderer/core"
)

var (
	// ErrNoSuchNode indicates an ID that is not attached to the tree.
	ErrNoSuchNode = errors.New("no such node")
	// ErrRootImmutable indicates an attempt to remove or re-parent the root.
	ErrRootImmutable = errors.New("root node cannot be moved or removed")
	// ErrCycle indicates a re-parent that would make a node its own ancestor.
	ErrCycle = errors.New("node would become its own ancestor")
)

// Tree is an arena of widget nodes rooted at Root.
type Tree struct {
	nodes       []*Node
	version     uint64
	nextHandler uint64
}

// NewTree creates a tree holding only the root, which fills the screen.
func NewTree() *Tree {
	root := &Node{ID: Root, Parent: NoNode, Name: "screen", Position: Fill()}
	root.Style.Attr = core.DefaultAttr
	return &Tree{nodes: []*Node{root}}
}

// Node returns the node for id, or nil when id is not in the tree.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// Version increases on every structural or content change.
func (t *Tree) Version() uint64 {
	return t.version
}

// Len returns the number of attached nodes, root included.
func (t *Tree) Len() int {
	n := 0
	for _, node := range t.nodes {
		if node != nil {
			n++
		}
	}
	return n
}

// Add attaches n as the last (topmost) child of parent and returns its ID.
// A zero style attribute becomes core.DefaultAttr.
func (t *Tree) Add(parent NodeID, n Node) (NodeID, error) {
	p := t.Node(parent)
	if p == nil {
		return NoNode, fmt.Errorf("add to %d: %w", parent, ErrNoSuchNode)
	}
	node := n
	if node.Style.Attr == (core.Attr{}) {
		node.Style.Attr = core.DefaultAttr
	}
	node.ID = NodeID(len(t.nodes))
	node.Parent = parent
	node.Children = nil
	node.handlers = nil
	node.Painted = false
	t.nodes = append(t.nodes, &node)
	p.Children = append(p.Children, node.ID)
	t.invalidateScroll(parent)
	t.version++

	t.Emit(&Event{Type: EventAttach, Target: node.ID})
	return node.ID, nil
}

// MustAdd is Add for trees built from static code; it panics on error.
func (t *Tree) MustAdd(parent NodeID, n Node) NodeID {
	id, err := t.Add(parent, n)
	if err != nil {
		panic(err)
	}
	return id
}

// Remove detaches id and its whole subtree.
func (t *Tree) Remove(id NodeID) error {
	if id == Root {
		return ErrRootImmutable
	}
	n := t.Node(id)
	if n == nil {
		return fmt.Errorf("remove %d: %w", id, ErrNoSuchNode)
	}
	if p := t.Node(n.Parent); p != nil {
		p.Children = removeID(p.Children, id)
		t.invalidateScroll(p.ID)
	}

	var drop func(NodeID)
	drop = func(cur NodeID) {
		c := t.Node(cur)
		if c == nil {
			return
		}
		for _, child := range c.Children {
			drop(child)
		}
		t.Emit(&Event{Type: EventDetach, Target: cur})
		t.nodes[cur] = nil
	}
	drop(id)
	t.version++
	return nil
}

// Reparent moves id to the end of newParent's children.
func (t *Tree) Reparent(id, newParent NodeID) error {
	if id == Root {
		return ErrRootImmutable
	}
	n, p := t.Node(id), t.Node(newParent)
	if n == nil || p == nil {
		return fmt.Errorf("reparent %d to %d: %w", id, newParent, ErrNoSuchNode)
	}
	for a := newParent; a != NoNode; a = t.nodes[a].Parent {
		if a == id {
			return ErrCycle
		}
	}
	if old := t.Node(n.Parent); old != nil {
		old.Children = removeID(old.Children, id)
		t.invalidateScroll(old.ID)
	}
	n.Parent = newParent
	p.Children = append(p.Children, id)
	t.invalidateScroll(newParent)
	t.version++
	return nil
}

// Raise moves id to the top of its siblings' paint order.
func (t *Tree) Raise(id NodeID) {
	n := t.Node(id)
	if n == nil {
		return
	}
	p := t.Node(n.Parent)
	if p == nil {
		return
	}
	p.Children = append(removeID(p.Children, id), id)
	t.version++
}

func removeID(ids []NodeID, id NodeID) []NodeID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

// Walk visits attached nodes in paint order (parent before children,
// children in list order). Returning false skips the node's subtree.
func (t *Tree) Walk(fn func(*Node) bool) {
	var visit func(NodeID)
	visit = func(id NodeID) {
		n := t.Node(id)
		if n == nil || !fn(n) {
			return
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(Root)
}

// Ancestors returns the parents of id from nearest to Root.
func (t *Tree) Ancestors(id NodeID) []NodeID {
	var out []NodeID
	n := t.Node(id)
	for n != nil && n.Parent != NoNode {
		out = append(out, n.Parent)
		n = t.Node(n.Parent)
	}
	return out
}

// Update applies fn to the node and records the change. Content, geometry
// and visibility edits invalidate cached scroll extents up the chain.
func (t *Tree) Update(id NodeID, fn func(*Node)) error {
	n := t.Node(id)
	if n == nil {
		return fmt.Errorf("update %d: %w", id, ErrNoSuchNode)
	}
	fn(n)
	t.invalidateScroll(id)
	t.version++
	return nil
}

// SetContent replaces a node's text.
func (t *Tree) SetContent(id NodeID, content string) error {
	return t.Update(id, func(n *Node) { n.Content = content })
}

// SetHidden shows or hides a node and its subtree.
func (t *Tree) SetHidden(id NodeID, hidden bool) error {
	return t.Update(id, func(n *Node) { n.Hidden = hidden })
}

// InvalidateScroll drops every cached scroll extent, forcing the next paint
// to measure scrollable widgets again.
func (t *Tree) InvalidateScroll() {
	for _, n := range t.nodes {
		if n != nil {
			n.scrollBottomValid = false
		}
	}
}

// invalidateScroll drops cached scroll extents of id and its ancestors.
func (t *Tree) invalidateScroll(id NodeID) {
	for n := t.Node(id); n != nil; n = t.Node(n.Parent) {
		n.scrollBottomValid = false
	}
}
