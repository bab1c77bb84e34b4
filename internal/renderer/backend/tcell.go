package backend

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/tessera/internal/renderer/core"
	"github.com/dshills/tessera/internal/renderer/diff"
)

// TcellWriter applies diff operations to a tcell.Screen and delivers its
// input events. tcell keeps its own front buffer, so scroll ops are not
// supported; the diff engine is expected to fall back to row writes.
type TcellWriter struct {
	mu            sync.Mutex
	screen        tcell.Screen
	row, col      int
	resizeHandler func(width, height int)
	closed        bool
}

// NewTcellWriter initializes screen and wraps it.
func NewTcellWriter(screen tcell.Screen) (*TcellWriter, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("tcell init: %w", err)
	}
	screen.HideCursor()
	return &TcellWriter{screen: screen}, nil
}

// OpenTcell creates a writer on the controlling terminal.
func OpenTcell() (*TcellWriter, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("tcell screen: %w", err)
	}
	return NewTcellWriter(screen)
}

// Size returns the screen dimensions.
func (t *TcellWriter) Size() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.screen.Size()
}

// CanScroll always returns false.
func (t *TcellWriter) CanScroll() bool { return false }

// OnResize registers a callback for resize events seen by PollEvent.
func (t *TcellWriter) OnResize(callback func(width, height int)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resizeHandler = callback
}

// Apply writes ops into tcell's buffer and shows the result once.
func (t *TcellWriter) Apply(ops []diff.Op) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}
	width, height := t.screen.Size()
	for _, op := range ops {
		switch op.Kind {
		case diff.OpMove:
			if op.Row < 0 || op.Row >= height || op.Col < 0 || op.Col >= width {
				return fmt.Errorf("move to (%d,%d): %w", op.Row, op.Col, ErrOutOfBounds)
			}
			t.row, t.col = op.Row, op.Col
		case diff.OpWrite:
			for _, c := range op.Cells {
				t.setCell(c)
				t.col++
			}
		case diff.OpInsertLines, diff.OpDeleteLines:
			return ErrNoScroll
		case diff.OpClear:
			t.screen.Clear()
		}
	}
	t.screen.Show()
	return nil
}

func (t *TcellWriter) setCell(c core.Cell) {
	if c.IsContinuation() {
		return
	}
	mainc, combc := ' ', []rune(nil)
	if !c.Attr.Invisible {
		for i, r := range c.Grapheme {
			if i == 0 {
				mainc = r
				continue
			}
			combc = append(combc, r)
		}
	}
	t.screen.SetContent(t.col, t.row, mainc, combc, convertAttr(c.Attr))
}

// Sync forces a complete redraw of the physical screen.
func (t *TcellWriter) Sync() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.Sync()
}

// PollEvent waits for the next input event.
// Events with no counterpart, such as mouse input, are skipped.
func (t *TcellWriter) PollEvent() Event {
	var out Event
	for out.Type == EventNone {
		ev := t.screen.PollEvent()
		if ev == nil {
			return Event{Type: EventNone}
		}
		out = convertEvent(ev)
	}
	if out.Type == EventResize {
		t.mu.Lock()
		handler := t.resizeHandler
		t.mu.Unlock()
		if handler != nil {
			handler(out.Width, out.Height)
		}
	}
	return out
}

// PostEvent posts a synthetic key or interrupt event.
func (t *TcellWriter) PostEvent(event Event) {
	var ev tcell.Event
	switch event.Type {
	case EventKey:
		ev = tcell.NewEventKey(convertToTcellKey(event.Key), event.Rune, convertToTcellMod(event.Mod))
	case EventInterrupt:
		ev = tcell.NewEventInterrupt(nil)
	default:
		return
	}
	_ = t.screen.PostEvent(ev) // best-effort; event queue may be full
}

// Close restores the terminal.
func (t *TcellWriter) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	t.screen.Fini()
	return nil
}

// convertAttr converts a cell attribute to a tcell.Style.
func convertAttr(a core.Attr) tcell.Style {
	style := tcell.StyleDefault
	if a.Fg.Valid() {
		style = style.Foreground(tcell.PaletteColor(int(a.Fg)))
	}
	if a.Bg.Valid() {
		style = style.Background(tcell.PaletteColor(int(a.Bg)))
	}
	if a.Bold {
		style = style.Bold(true)
	}
	if a.Underline {
		style = style.Underline(true)
	}
	if a.Blink {
		style = style.Blink(true)
	}
	if a.Inverse {
		style = style.Reverse(true)
	}
	return style
}

// convertStyle converts a tcell.Style back to a cell attribute.
func convertStyle(ts tcell.Style) core.Attr {
	fg, bg, attrs := ts.Decompose()
	return core.Attr{
		Fg:        convertColor(fg),
		Bg:        convertColor(bg),
		Bold:      attrs&tcell.AttrBold != 0,
		Underline: attrs&tcell.AttrUnderline != 0,
		Blink:     attrs&tcell.AttrBlink != 0,
		Inverse:   attrs&tcell.AttrReverse != 0,
	}
}

func convertColor(tc tcell.Color) core.ColorIndex {
	if tc >= tcell.ColorValid && tc < tcell.ColorValid+256 {
		return core.ColorIndex(tc - tcell.ColorValid)
	}
	return core.ColorDefault
}

func convertEvent(ev tcell.Event) Event {
	switch e := ev.(type) {
	case *tcell.EventKey:
		return Event{
			Type: EventKey,
			Key:  convertKey(e.Key()),
			Rune: e.Rune(),
			Mod:  convertMod(e.Modifiers()),
		}
	case *tcell.EventResize:
		w, h := e.Size()
		return Event{Type: EventResize, Width: w, Height: h}
	case *tcell.EventInterrupt:
		return Event{Type: EventInterrupt}
	default:
		return Event{Type: EventNone}
	}
}

func convertKey(k tcell.Key) Key {
	switch k {
	case tcell.KeyRune:
		return KeyRune
	case tcell.KeyEscape:
		return KeyEscape
	case tcell.KeyEnter:
		return KeyEnter
	case tcell.KeyTab:
		return KeyTab
	case tcell.KeyUp:
		return KeyUp
	case tcell.KeyDown:
		return KeyDown
	case tcell.KeyPgUp:
		return KeyPageUp
	case tcell.KeyPgDn:
		return KeyPageDown
	case tcell.KeyHome:
		return KeyHome
	case tcell.KeyEnd:
		return KeyEnd
	case tcell.KeyCtrlC:
		return KeyCtrlC
	case tcell.KeyCtrlL:
		return KeyCtrlL
	default:
		return KeyNone
	}
}

func convertToTcellKey(k Key) tcell.Key {
	switch k {
	case KeyRune:
		return tcell.KeyRune
	case KeyEscape:
		return tcell.KeyEscape
	case KeyEnter:
		return tcell.KeyEnter
	case KeyTab:
		return tcell.KeyTab
	case KeyUp:
		return tcell.KeyUp
	case KeyDown:
		return tcell.KeyDown
	case KeyPageUp:
		return tcell.KeyPgUp
	case KeyPageDown:
		return tcell.KeyPgDn
	case KeyHome:
		return tcell.KeyHome
	case KeyEnd:
		return tcell.KeyEnd
	case KeyCtrlC:
		return tcell.KeyCtrlC
	case KeyCtrlL:
		return tcell.KeyCtrlL
	default:
		return tcell.KeyNUL
	}
}

func convertMod(m tcell.ModMask) ModMask {
	var result ModMask
	if m&tcell.ModShift != 0 {
		result |= ModShift
	}
	if m&tcell.ModCtrl != 0 {
		result |= ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		result |= ModAlt
	}
	if m&tcell.ModMeta != 0 {
		result |= ModMeta
	}
	return result
}

func convertToTcellMod(m ModMask) tcell.ModMask {
	var result tcell.ModMask
	if m&ModShift != 0 {
		result |= tcell.ModShift
	}
	if m&ModCtrl != 0 {
		result |= tcell.ModCtrl
	}
	if m&ModAlt != 0 {
		result |= tcell.ModAlt
	}
	if m&ModMeta != 0 {
		result |= tcell.ModMeta
	}
	return result
}
