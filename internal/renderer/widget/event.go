package widget

import "github.com/dshills/tessera/internal/renderer/core"

// EventType identifies a widget event.
type EventType uint8

const (
	// EventPreRender fires on the root before a paint pass.
	EventPreRender EventType = iota + 1
	// EventRender fires on every painted widget after it is drawn.
	EventRender
	// EventResize fires on the root when the screen size changes.
	EventResize
	// EventScroll fires on a widget whose scroll position changed.
	EventScroll
	// EventAttach fires when a widget is added to the tree.
	EventAttach
	// EventDetach fires when a widget is removed from the tree.
	EventDetach
)

// String returns the event name.
func (t EventType) String() string {
	switch t {
	case EventPreRender:
		return "prerender"
	case EventRender:
		return "render"
	case EventResize:
		return "resize"
	case EventScroll:
		return "scroll"
	case EventAttach:
		return "attach"
	case EventDetach:
		return "detach"
	}
	return "unknown"
}

// Event is delivered to handlers. Bubbling events visit the target and then
// each ancestor until a handler calls Stop.
type Event struct {
	Type   EventType
	Target NodeID
	// Current is the node whose handlers are running.
	Current NodeID
	Rect    core.Rect
	Width   int
	Height  int
	stopped bool
}

// Stop prevents the event from reaching further ancestors.
func (e *Event) Stop() {
	e.stopped = true
}

// Stopped returns true if a handler called Stop.
func (e *Event) Stopped() bool {
	return e.stopped
}

// Handler receives events.
type Handler func(*Event)

type handlerEntry struct {
	id uint64
	fn Handler
}

// On subscribes fn to events of type t on node id and returns a function
// that removes the subscription.
func (t *Tree) On(id NodeID, typ EventType, fn Handler) func() {
	n := t.Node(id)
	if n == nil || fn == nil {
		return func() {}
	}
	if n.handlers == nil {
		n.handlers = make(map[EventType][]handlerEntry)
	}
	t.nextHandler++
	hid := t.nextHandler
	n.handlers[typ] = append(n.handlers[typ], handlerEntry{id: hid, fn: fn})

	return func() {
		n := t.Node(id)
		if n == nil {
			return
		}
		list := n.handlers[typ]
		for i, h := range list {
			if h.id == hid {
				n.handlers[typ] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers ev to the handlers of ev.Target only.
func (t *Tree) Emit(ev *Event) {
	t.dispatch(ev.Target, ev)
}

// Bubble delivers ev to ev.Target and then to each ancestor until stopped.
func (t *Tree) Bubble(ev *Event) {
	for id := ev.Target; id != NoNode && !ev.stopped; {
		n := t.Node(id)
		if n == nil {
			return
		}
		t.dispatch(id, ev)
		id = n.Parent
	}
}

func (t *Tree) dispatch(id NodeID, ev *Event) {
	n := t.Node(id)
	if n == nil {
		return
	}
	list := n.handlers[ev.Type]
	if len(list) == 0 {
		return
	}
	ev.Current = id
	// Handlers may unsubscribe while running; iterate over a snapshot.
	snapshot := append([]handlerEntry(nil), list...)
	for _, h := range snapshot {
		h.fn(ev)
	}
}
