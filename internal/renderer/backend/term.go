package backend

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"

	"github.com/dshills/tessera/internal/renderer/color"
	"github.com/dshills/tessera/internal/renderer/core"
	"github.com/dshills/tessera/internal/renderer/diff"
)

// TermWriter writes diff operations as escape sequences to an io.Writer.
// Each Apply produces exactly one Write on the underlying writer.
type TermWriter struct {
	mu   sync.Mutex
	out  io.Writer
	caps *Caps
	buf  bytes.Buffer

	width, height int

	// attr is the SGR state last emitted; attrValid is false when unknown.
	attr      core.Attr
	attrValid bool

	// row, col track the cursor; col < 0 means unknown.
	row, col int

	bytes   int64
	flushes int64

	started bool
	closed  bool

	restore func() error
}

// NewTermWriter creates a writer for a terminal of the given size.
func NewTermWriter(out io.Writer, caps *Caps, width, height int) *TermWriter {
	return &TermWriter{
		out:    out,
		caps:   caps,
		width:  width,
		height: height,
		col:    -1,
	}
}

// OpenTerminal puts f into raw mode and returns a writer sized to it.
// Closing the writer restores the terminal mode.
func OpenTerminal(f *os.File, caps *Caps) (*TermWriter, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("open terminal: %s is not a terminal", f.Name())
	}
	width, height, err := term.GetSize(fd)
	if err != nil {
		return nil, fmt.Errorf("open terminal: %w", err)
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("open terminal: raw mode: %w", err)
	}

	w := NewTermWriter(f, caps, width, height)
	w.restore = func() error { return term.Restore(fd, state) }
	return w, nil
}

// Size returns the terminal dimensions.
func (w *TermWriter) Size() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// SetSize records a new terminal size and forgets the cursor position.
func (w *TermWriter) SetSize(width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.width, w.height = width, height
	w.col = -1
}

// CanScroll reports whether the terminal supports scroll regions.
func (w *TermWriter) CanScroll() bool {
	return w.caps.Scroll
}

// BytesWritten returns the total number of bytes flushed.
func (w *TermWriter) BytesWritten() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bytes
}

// Flushes returns the number of writes issued to the underlying writer.
func (w *TermWriter) Flushes() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushes
}

// Apply encodes ops and flushes them in a single write.
func (w *TermWriter) Apply(ops []diff.Op) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if !w.started {
		w.start()
	}
	for _, op := range ops {
		if err := w.encode(op); err != nil {
			w.buf.Reset()
			return err
		}
	}
	return w.flush()
}

func (w *TermWriter) start() {
	w.buf.WriteString(w.caps.EnterCA())
	w.buf.WriteString(w.caps.HideCursor())
	w.buf.WriteString(w.caps.AttrOff())
	w.buf.WriteString(w.caps.Clear())
	w.attr, w.attrValid = core.DefaultAttr, true
	w.row, w.col = 0, 0
	w.started = true
}

func (w *TermWriter) encode(op diff.Op) error {
	switch op.Kind {
	case diff.OpMove:
		if op.Row < 0 || op.Row >= w.height || op.Col < 0 || op.Col >= w.width {
			return fmt.Errorf("move to (%d,%d): %w", op.Row, op.Col, ErrOutOfBounds)
		}
		w.moveTo(op.Row, op.Col)
	case diff.OpWrite:
		for _, c := range op.Cells {
			w.cell(c)
		}
	case diff.OpInsertLines, diff.OpDeleteLines:
		if !w.caps.Scroll {
			return ErrNoScroll
		}
		w.scroll(op)
	case diff.OpClear:
		w.resetAttr()
		w.buf.WriteString(w.caps.Clear())
		w.row, w.col = 0, 0
	}
	return nil
}

func (w *TermWriter) moveTo(row, col int) {
	if w.col >= 0 && w.row == row && w.col == col {
		return
	}
	w.buf.WriteString(w.caps.Goto(col, row))
	w.row, w.col = row, col
}

func (w *TermWriter) cell(c core.Cell) {
	if c.IsContinuation() {
		// The terminal already advanced past the wide glyph.
		return
	}
	w.setAttr(c.Attr)

	g := c.Grapheme
	if g == "" {
		g = " "
	}
	w.buf.WriteString(g)

	if w.col >= 0 {
		w.col += max(int(c.Width), 1)
		if w.col >= w.width {
			// Pending wrap state differs between terminals.
			w.col = -1
		}
	}
}

// setAttr emits SGR only when the attribute differs from the last one.
func (w *TermWriter) setAttr(a core.Attr) {
	if w.attrValid && w.attr == a {
		return
	}
	w.buf.WriteString(w.caps.AttrOff())
	w.buf.WriteString(w.caps.Flags(a.Bold, a.Underline, a.Blink, a.Inverse, a.Invisible))
	fg, bg := w.reduce(a.Fg), w.reduce(a.Bg)
	if fg >= 0 || bg >= 0 {
		w.buf.WriteString(w.caps.Color(fg, bg))
	}
	w.attr, w.attrValid = a, true
}

func (w *TermWriter) reduce(ci core.ColorIndex) int {
	if !ci.Valid() {
		return -1
	}
	return color.Reduce(int(ci), w.caps.Colors)
}

func (w *TermWriter) resetAttr() {
	if w.attrValid && w.attr == core.DefaultAttr {
		return
	}
	w.buf.WriteString(w.caps.AttrOff())
	w.attr, w.attrValid = core.DefaultAttr, true
}

// scroll emits a scroll region, the line op and a region reset. Attributes
// are reset first so exposed lines get the default background.
func (w *TermWriter) scroll(op diff.Op) {
	w.resetAttr()
	w.buf.WriteString(w.caps.SetScrollRegion(op.Top, op.Bottom))
	w.buf.WriteString(w.caps.Goto(0, op.Top))
	if op.Kind == diff.OpInsertLines {
		w.buf.WriteString(w.caps.InsertLines(op.N))
	} else {
		w.buf.WriteString(w.caps.DeleteLines(op.N))
	}
	w.buf.WriteString(w.caps.SetScrollRegion(0, w.height-1))
	// DECSTBM homes the cursor.
	w.row, w.col = 0, 0
}

func (w *TermWriter) flush() error {
	if w.buf.Len() == 0 {
		return nil
	}
	n, err := w.out.Write(w.buf.Bytes())
	w.bytes += int64(n)
	w.flushes++
	w.buf.Reset()
	if err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// Close restores attributes, the cursor and the main screen, then the
// terminal mode if the writer was opened with OpenTerminal.
func (w *TermWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	var err error
	if w.started {
		w.buf.WriteString(w.caps.AttrOff())
		w.buf.WriteString(w.caps.ShowCursor())
		w.buf.WriteString(w.caps.ExitCA())
		err = w.flush()
	}
	if w.restore != nil {
		if rerr := w.restore(); rerr != nil && err == nil {
			err = fmt.Errorf("restore terminal: %w", rerr)
		}
	}
	return err
}
