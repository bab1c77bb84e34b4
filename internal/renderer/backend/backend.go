// Package backend provides output writers that apply diff operations to a
// terminal or other display surface.
package backend

import (
	"errors"

	"github.com/dshills/tessera/internal/renderer/diff"
)

// Sentinel errors for the backend package.
var (
	// ErrClosed is returned when operations are attempted on a closed writer.
	ErrClosed = errors.New("writer is closed")

	// ErrNoScroll is returned when a scroll op reaches a terminal without
	// scroll-region support.
	ErrNoScroll = errors.New("terminal does not support scroll regions")

	// ErrOutOfBounds is returned when an op addresses a cell outside the screen.
	ErrOutOfBounds = errors.New("operation out of bounds")
)

// Writer applies diff operations to a display.
type Writer interface {
	// Size returns the display dimensions.
	Size() (width, height int)

	// Apply performs ops in order and flushes once.
	Apply(ops []diff.Op) error

	// Close restores the display and releases resources.
	Close() error
}

// Scroller is implemented by writers that can honour OpInsertLines and
// OpDeleteLines. Writers that do not implement it are assumed to.
type Scroller interface {
	CanScroll() bool
}

// Resizer is implemented by writers whose display can change size.
type Resizer interface {
	// OnResize registers a callback for display resize events.
	OnResize(callback func(width, height int))
}

// CanScroll reports whether w accepts scroll ops.
func CanScroll(w Writer) bool {
	if s, ok := w.(Scroller); ok {
		return s.CanScroll()
	}
	return true
}

// EventType identifies the type of input event.
type EventType int

const (
	EventNone EventType = iota
	EventKey
	EventResize
	EventInterrupt
)

// Event represents an input event delivered by an interactive writer.
type Event struct {
	Type EventType

	// Key event fields
	Key  Key
	Rune rune
	Mod  ModMask

	// Resize event fields
	Width, Height int
}

// Key represents a keyboard key.
type Key int

// Key constants for the keys the compositor demo reacts to.
const (
	KeyNone Key = iota
	KeyRune     // Regular character (use Rune field)
	KeyEscape
	KeyEnter
	KeyTab
	KeyUp
	KeyDown
	KeyPageUp
	KeyPageDown
	KeyHome
	KeyEnd
	KeyCtrlC
	KeyCtrlL
)

// ModMask represents modifier key state.
type ModMask int

const (
	ModNone  ModMask = 0
	ModShift ModMask = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// Has returns true if the mask contains the given modifier.
func (m ModMask) Has(mod ModMask) bool {
	return m&mod != 0
}

// EventSource is implemented by writers that also deliver input.
type EventSource interface {
	// PollEvent waits for and returns the next event.
	// It returns an Event with Type EventNone once the source is closed.
	PollEvent() Event

	// PostEvent posts a synthetic event to the queue.
	PostEvent(event Event)
}
