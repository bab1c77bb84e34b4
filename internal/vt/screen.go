// Package vt is a small VT100/xterm emulator that replays terminal output
// into a core.ScreenBuffer.
//
// It understands the subset of control sequences the renderer emits:
// cursor addressing, SGR with 16/256/RGB colors, scroll regions, line
// insertion and deletion, erase, and the alternate screen. It is used to
// verify writer output in tests and to produce text snapshots.
//
// All methods of Screen are safe for concurrent use.
package vt

import (
	"sync"

	"github.com/dshills/tessera/internal/renderer/core"
	"github.com/dshills/tessera/internal/renderer/width"
)

// Screen is an emulated terminal screen.
type Screen struct {
	mu sync.RWMutex

	buf    *core.ScreenBuffer
	alt    *core.ScreenBuffer
	parser *parser

	cols, rows int

	curX, curY    int
	cursorVisible bool

	scrollTop    int
	scrollBottom int

	attr core.Attr

	savedX, savedY int
	savedAttr      core.Attr

	autoWrap bool
	title    string
}

// New creates a blank screen. Non-positive dimensions default to 80x24.
func New(cols, rows int) *Screen {
	if cols < 1 {
		cols = 80
	}
	if rows < 1 {
		rows = 24
	}
	s := &Screen{
		buf:           core.NewScreenBuffer(cols, rows),
		cols:          cols,
		rows:          rows,
		cursorVisible: true,
		scrollBottom:  rows - 1,
		attr:          core.DefaultAttr,
		autoWrap:      true,
	}
	s.parser = newParser(s)
	return s
}

// Write feeds terminal output to the emulator. It never fails.
func (s *Screen) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parser.parse(p)
	return len(p), nil
}

// WriteString feeds a string to the emulator.
func (s *Screen) WriteString(str string) (int, error) {
	return s.Write([]byte(str))
}

// Size returns the screen dimensions.
func (s *Screen) Size() (cols, rows int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cols, s.rows
}

// Cursor returns the cursor position and visibility.
func (s *Screen) Cursor() (x, y int, visible bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.curX, s.curY, s.cursorVisible
}

// Title returns the last window title set through OSC 0 or 2.
func (s *Screen) Title() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.title
}

// Cell returns the cell at (x, y), or a blank cell outside the screen.
func (s *Screen) Cell(x, y int) core.Cell {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.buf.Get(x, y)
	if !ok {
		return core.EmptyCell()
	}
	return c
}

// Buffer returns a copy of the visible screen.
func (s *Screen) Buffer() *core.ScreenBuffer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := core.NewScreenBuffer(s.cols, s.rows)
	out.CopyFrom(s.buf)
	out.ClearDirty()
	return out
}

// String returns the visible text, one line per row.
func (s *Screen) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buf.String()
}

// Resize changes the screen size, keeping content that still fits.
func (s *Screen) Resize(cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cols < 1 || rows < 1 {
		return
	}
	s.buf.Resize(cols, rows)
	if s.alt != nil {
		s.alt.Resize(cols, rows)
	}
	s.cols, s.rows = cols, rows
	s.scrollTop, s.scrollBottom = 0, rows-1
	s.curX = min(s.curX, cols-1)
	s.curY = min(s.curY, rows-1)
}

// Reset restores the power-on state.
func (s *Screen) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Screen) reset() {
	if s.alt != nil {
		s.buf, s.alt = s.alt, nil
	}
	s.buf.Reset()
	s.curX, s.curY = 0, 0
	s.cursorVisible = true
	s.scrollTop, s.scrollBottom = 0, s.rows-1
	s.attr = core.DefaultAttr
	s.autoWrap = true
}

func (s *Screen) blank() core.Cell {
	return core.BlankCell(core.Attr{Fg: core.ColorDefault, Bg: s.attr.Bg})
}

// put writes one grapheme at the cursor and advances it.
func (s *Screen) put(r rune) {
	w := width.RuneWidth(r)
	if w == 0 {
		s.combine(r)
		return
	}

	if s.curX+w > s.cols {
		if !s.autoWrap {
			s.curX = s.cols - w
		} else {
			s.curX = 0
			s.lineFeed()
		}
	}
	if s.curX < 0 {
		return
	}

	s.buf.Set(s.curX, s.curY, core.Cell{Attr: s.attr, Grapheme: string(r), Width: uint8(w)})
	if w == 2 {
		s.buf.Set(s.curX+1, s.curY, core.ContinuationCell(s.attr))
	}
	s.curX += w
}

// combine attaches a zero-width code point to the previous grapheme.
func (s *Screen) combine(r rune) {
	x := s.curX - 1
	if x >= 0 && x < s.cols {
		if c, _ := s.buf.Get(x, s.curY); c.IsContinuation() {
			x--
		}
	}
	c, ok := s.buf.Get(x, s.curY)
	if !ok || c.IsContinuation() {
		return
	}
	c.Grapheme += string(r)
	s.buf.Set(x, s.curY, c)
}

func (s *Screen) moveTo(x, y int) {
	s.curX = clamp(x, 0, s.cols-1)
	s.curY = clamp(y, 0, s.rows-1)
}

func (s *Screen) lineFeed() {
	if s.curY == s.scrollBottom {
		s.scrollUp(s.scrollTop, 1)
		return
	}
	if s.curY < s.rows-1 {
		s.curY++
	}
}

func (s *Screen) reverseLineFeed() {
	if s.curY == s.scrollTop {
		s.scrollDown(s.scrollTop, 1)
		return
	}
	if s.curY > 0 {
		s.curY--
	}
}

// scrollUp moves rows [top, scrollBottom] up by n, blanking the bottom.
func (s *Screen) scrollUp(top, n int) {
	bottom := s.scrollBottom
	if n <= 0 || top > bottom {
		return
	}
	n = min(n, bottom-top+1)
	for y := top; y <= bottom; y++ {
		if src := y + n; src <= bottom {
			s.copyRow(y, src)
		} else {
			s.clearRow(y, 0, s.cols)
		}
	}
}

// scrollDown moves rows [top, scrollBottom] down by n, blanking the top.
func (s *Screen) scrollDown(top, n int) {
	bottom := s.scrollBottom
	if n <= 0 || top > bottom {
		return
	}
	n = min(n, bottom-top+1)
	for y := bottom; y >= top; y-- {
		if src := y - n; src >= top {
			s.copyRow(y, src)
		} else {
			s.clearRow(y, 0, s.cols)
		}
	}
}

func (s *Screen) copyRow(dst, src int) {
	copy(s.buf.Row(dst), s.buf.Row(src))
	s.buf.MarkDirty(dst)
}

func (s *Screen) clearRow(y, from, to int) {
	b := s.blank()
	row := s.buf.Row(y)
	for x := max(from, 0); x < to && x < len(row); x++ {
		row[x] = b
	}
	s.buf.MarkDirty(y)
}

func (s *Screen) setScrollRegion(top, bottom int) {
	top = max(top, 0)
	bottom = min(bottom, s.rows-1)
	if top >= bottom {
		return
	}
	s.scrollTop, s.scrollBottom = top, bottom
	s.curX, s.curY = 0, 0
}

func (s *Screen) insertLines(n int) {
	if s.curY < s.scrollTop || s.curY > s.scrollBottom {
		return
	}
	s.scrollDown(s.curY, n)
	s.curX = 0
}

func (s *Screen) deleteLines(n int) {
	if s.curY < s.scrollTop || s.curY > s.scrollBottom {
		return
	}
	s.scrollUp(s.curY, n)
	s.curX = 0
}

func (s *Screen) eraseDisplay(mode int) {
	switch mode {
	case 0:
		s.clearRow(s.curY, s.curX, s.cols)
		for y := s.curY + 1; y < s.rows; y++ {
			s.clearRow(y, 0, s.cols)
		}
	case 1:
		for y := 0; y < s.curY; y++ {
			s.clearRow(y, 0, s.cols)
		}
		s.clearRow(s.curY, 0, s.curX+1)
	case 2, 3:
		for y := 0; y < s.rows; y++ {
			s.clearRow(y, 0, s.cols)
		}
	}
}

func (s *Screen) eraseLine(mode int) {
	switch mode {
	case 0:
		s.clearRow(s.curY, s.curX, s.cols)
	case 1:
		s.clearRow(s.curY, 0, s.curX+1)
	case 2:
		s.clearRow(s.curY, 0, s.cols)
	}
}

// setAltScreen switches to or from the alternate screen (DEC mode 1049).
func (s *Screen) setAltScreen(on bool) {
	switch {
	case on && s.alt == nil:
		s.savedX, s.savedY, s.savedAttr = s.curX, s.curY, s.attr
		s.alt = s.buf
		s.buf = core.NewScreenBuffer(s.cols, s.rows)
	case !on && s.alt != nil:
		s.buf, s.alt = s.alt, nil
		s.buf.ClearDirty()
		s.curX, s.curY, s.attr = s.savedX, s.savedY, s.savedAttr
	}
}

func (s *Screen) saveCursor() {
	s.savedX, s.savedY, s.savedAttr = s.curX, s.curY, s.attr
}

func (s *Screen) restoreCursor() {
	s.curX, s.curY, s.attr = s.savedX, s.savedY, s.savedAttr
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Unknown returns the number of control sequences the emulator ignored.
func (s *Screen) Unknown() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.parser.unknown
}
