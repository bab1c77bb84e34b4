package backend

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dshills/tessera/internal/renderer/core"
	"github.com/dshills/tessera/internal/renderer/diff"
	"github.com/dshills/tessera/internal/vt"
)

// countingWriter records how many writes it received.
type countingWriter struct {
	bytes.Buffer
	writes int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.writes++
	return c.Buffer.Write(p)
}

func lookup(t *testing.T, name string) *Caps {
	t.Helper()
	caps, err := LookupCaps(name)
	if err != nil {
		t.Fatalf("LookupCaps(%q): %v", name, err)
	}
	return caps
}

func setRow(sb *core.ScreenBuffer, y int, s string, attr core.Attr) {
	x := 0
	for _, r := range s {
		sb.Set(x, y, core.Cell{Attr: attr, Grapheme: string(r), Width: 1})
		x++
	}
}

func assertSame(t *testing.T, got, want *core.ScreenBuffer) {
	t.Helper()
	cols, rows := want.Size()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			g, _ := got.Get(x, y)
			w, _ := want.Get(x, y)
			if !g.Equals(w) {
				t.Errorf("cell (%d,%d) = %+v, want %+v", x, y, g, w)
			}
		}
	}
}

func TestLookupCapsFallback(t *testing.T) {
	caps, err := LookupCaps("no-such-terminal-tessera")
	if err == nil {
		t.Error("expected an error for an unknown terminal")
	}
	if caps == nil || caps.Name != fallbackTerm {
		t.Fatalf("expected fallback caps, got %+v", caps)
	}
	if caps.Colors != 256 || !caps.Scroll {
		t.Errorf("unexpected fallback caps %+v", caps)
	}
}

func TestCapsSequences(t *testing.T) {
	caps := lookup(t, "xterm-256color")
	if got := caps.Goto(4, 2); got != "\x1b[3;5H" {
		t.Errorf("Goto = %q", got)
	}
	if got := caps.SetScrollRegion(1, 4); got != "\x1b[2;5r" {
		t.Errorf("SetScrollRegion = %q", got)
	}
	if got := caps.DeleteLines(3); got != "\x1b[3M" {
		t.Errorf("DeleteLines = %q", got)
	}
	if got := caps.InsertLines(2); got != "\x1b[2L" {
		t.Errorf("InsertLines = %q", got)
	}
}

func TestTermWriterReplaysIntoEmulator(t *testing.T) {
	caps := lookup(t, "xterm-256color")
	emu := vt.New(8, 3)
	w := NewTermWriter(emu, caps, 8, 3)

	prev := core.NewScreenBuffer(8, 3)
	next := core.NewScreenBuffer(8, 3)
	setRow(next, 0, "plain", core.DefaultAttr)
	setRow(next, 1, "bold", core.Attr{Fg: 196, Bg: 17, Bold: true})
	setRow(next, 2, "ul", core.Attr{Fg: 9, Bg: core.ColorDefault, Underline: true, Inverse: true})
	next.Set(4, 2, core.Cell{Attr: core.DefaultAttr, Grapheme: "中", Width: 2})
	next.Set(5, 2, core.ContinuationCell(core.DefaultAttr))

	if err := w.Apply(diff.NewEngine().Diff(prev, next)); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	assertSame(t, emu.Buffer(), next)
}

func TestTermWriterScroll(t *testing.T) {
	caps := lookup(t, "xterm-256color")
	emu := vt.New(4, 5)
	w := NewTermWriter(emu, caps, 4, 5)
	eng := diff.NewEngine()

	front := core.NewScreenBuffer(4, 5)
	back := core.NewScreenBuffer(4, 5)
	for y, s := range []string{"r0", "r1", "r2", "r3", "r4"} {
		setRow(back, y, s, core.Attr{Fg: 2, Bg: core.ColorDefault})
	}
	if err := w.Apply(eng.Diff(front, back)); err != nil {
		t.Fatal(err)
	}
	front.CopyFrom(back)
	front.ClearDirty()
	back.ClearDirty()

	for y, s := range []string{"r1", "r2", "r3", "r4", "r5"} {
		setRow(back, y, s, core.Attr{Fg: 2, Bg: core.ColorDefault})
	}
	ops := eng.Diff(front, back)
	if len(ops) == 0 || ops[0].Kind != diff.OpDeleteLines {
		t.Fatalf("expected a scroll op, got %v", ops)
	}
	if err := w.Apply(ops); err != nil {
		t.Fatal(err)
	}
	assertSame(t, emu.Buffer(), back)
}

func TestTermWriterSingleFlush(t *testing.T) {
	out := &countingWriter{}
	w := NewTermWriter(out, lookup(t, "xterm-256color"), 5, 2)
	ops := []diff.Op{
		diff.Move(0, 0), diff.Write(textCells("ab", core.DefaultAttr)),
		diff.Move(1, 2), diff.Write(textCells("cd", core.DefaultAttr)),
	}
	if err := w.Apply(ops); err != nil {
		t.Fatal(err)
	}
	if out.writes != 1 || w.Flushes() != 1 {
		t.Errorf("expected one write per Apply, got %d", out.writes)
	}
	if w.BytesWritten() != int64(out.Len()) {
		t.Errorf("BytesWritten = %d, buffer holds %d", w.BytesWritten(), out.Len())
	}
}

func TestTermWriterCoalescesSGR(t *testing.T) {
	out := &bytes.Buffer{}
	caps := lookup(t, "xterm-256color")
	w := NewTermWriter(out, caps, 10, 1)
	w.Apply(nil)
	out.Reset()

	red := core.Attr{Fg: 1, Bg: core.ColorDefault}
	w.Apply([]diff.Op{diff.Move(0, 0), diff.Write(textCells("abcd", red))})
	if n := strings.Count(out.String(), caps.AttrOff()); n != 1 {
		t.Errorf("expected a single SGR reset for a uniform run, got %d in %q", n, out.String())
	}
}

func TestTermWriterSkipsRedundantMoves(t *testing.T) {
	out := &bytes.Buffer{}
	caps := lookup(t, "xterm-256color")
	w := NewTermWriter(out, caps, 10, 1)
	w.Apply([]diff.Op{diff.Move(0, 0), diff.Write(textCells("ab", core.DefaultAttr)), diff.Move(0, 2)})
	if strings.Contains(out.String(), caps.Goto(2, 0)) {
		t.Errorf("move to the current cursor should be elided: %q", out.String())
	}
}

func TestTermWriterReducesColors(t *testing.T) {
	caps := lookup(t, "xterm")
	emu := vt.New(2, 1)
	w := NewTermWriter(emu, caps, 2, 1)
	w.Apply([]diff.Op{diff.Move(0, 0), diff.Write(textCells("x", core.Attr{Fg: 196, Bg: 12}))})

	a := emu.Cell(0, 0).Attr
	if a.Fg != 1 || a.Bg != 4 {
		t.Errorf("expected reduction to 8 colors (1, 4), got (%d, %d)", a.Fg, a.Bg)
	}
}

func TestTermWriterNoScrollCaps(t *testing.T) {
	caps := lookup(t, "xterm-256color")
	caps.Scroll = false
	w := NewTermWriter(&bytes.Buffer{}, caps, 4, 4)
	if w.CanScroll() {
		t.Error("CanScroll should follow caps")
	}
	err := w.Apply([]diff.Op{{Kind: diff.OpDeleteLines, N: 1, Top: 0, Bottom: 3}})
	if !errors.Is(err, ErrNoScroll) {
		t.Errorf("expected ErrNoScroll, got %v", err)
	}
}

func TestTermWriterClose(t *testing.T) {
	emu := vt.New(4, 2)
	caps := lookup(t, "xterm-256color")
	w := NewTermWriter(emu, caps, 4, 2)
	w.Apply([]diff.Op{diff.Move(0, 0), diff.Write(textCells("hi", core.DefaultAttr))})
	if _, _, visible := emu.Cursor(); visible {
		t.Error("cursor should be hidden while drawing")
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if _, _, visible := emu.Cursor(); !visible {
		t.Error("Close should show the cursor")
	}
	if got := emu.String(); strings.Contains(got, "hi") {
		t.Errorf("Close should leave the alternate screen, got %q", got)
	}
	if err := w.Apply(nil); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
