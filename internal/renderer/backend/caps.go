package backend

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2/terminfo"
	_ "github.com/gdamore/tcell/v2/terminfo/base" // registers xterm, vt100, tmux, ansi
)

// xterm sequences used when the terminfo entry lacks them.
const (
	xtermScrollRegion = "\x1b[%i%p1%d;%p2%dr"
	xtermInsertLines  = "\x1b[%p1%dL"
	xtermDeleteLines  = "\x1b[%p1%dM"
	xtermInvisible    = "\x1b[8m"
	xtermSetCursor    = "\x1b[%i%p1%d;%p2%dH"
)

// fallbackTerm is used when $TERM is empty or unknown.
const fallbackTerm = "xterm-256color"

// scrollPrefixes lists terminal families known to support DECSTBM with
// insert/delete line.
var scrollPrefixes = []string{"xterm", "screen", "tmux", "vt1", "vt2", "rxvt", "linux", "alacritty", "kitty", "foot"}

// Caps is a terminal capability provider backed by the terminfo database.
type Caps struct {
	// Name is the resolved terminal name.
	Name string
	// Colors is the number of palette colors the terminal can show.
	Colors int
	// Scroll is true if scroll regions and line insert/delete are usable.
	Scroll bool

	info *terminfo.Terminfo

	setCursor    string
	scrollRegion string
	insertLines  string
	deleteLines  string
	invisible    string
}

// LookupCaps resolves capabilities for the named terminal. An unknown name
// falls back to xterm-256color and reports the lookup failure alongside.
func LookupCaps(term string) (*Caps, error) {
	info, err := terminfo.LookupTerminfo(term)
	if err != nil {
		fb, fbErr := terminfo.LookupTerminfo(fallbackTerm)
		if fbErr != nil {
			return nil, fmt.Errorf("terminfo %q: %w", term, err)
		}
		caps := newCaps(fb)
		return caps, fmt.Errorf("terminfo %q, using %s: %w", term, fallbackTerm, err)
	}
	return newCaps(info), nil
}

// CapsFromTerminfo wraps an existing terminfo entry.
func CapsFromTerminfo(info *terminfo.Terminfo) *Caps {
	return newCaps(info)
}

func newCaps(info *terminfo.Terminfo) *Caps {
	c := &Caps{
		Name:         info.Name,
		Colors:       info.Colors,
		info:         info,
		setCursor:    info.SetCursor,
		scrollRegion: xtermScrollRegion,
		insertLines:  xtermInsertLines,
		deleteLines:  xtermDeleteLines,
		invisible:    xtermInvisible,
	}
	if c.Colors <= 0 {
		c.Colors = 2
	}
	if c.setCursor == "" {
		c.setCursor = xtermSetCursor
	}

	c.Scroll = info.XTermLike
	for _, p := range scrollPrefixes {
		if strings.HasPrefix(info.Name, p) {
			c.Scroll = true
		}
	}
	return c
}

// Goto returns the sequence that moves the cursor to (col, row).
func (c *Caps) Goto(col, row int) string {
	return c.info.TParm(c.setCursor, row, col)
}

// Clear returns the erase-screen sequence.
func (c *Caps) Clear() string {
	if c.info.Clear == "" {
		return "\x1b[H\x1b[2J"
	}
	return c.info.Clear
}

// EnterCA returns the sequence that switches to the alternate screen.
func (c *Caps) EnterCA() string { return c.info.EnterCA }

// ExitCA returns the sequence that leaves the alternate screen.
func (c *Caps) ExitCA() string { return c.info.ExitCA }

// ShowCursor returns the sequence that shows the cursor.
func (c *Caps) ShowCursor() string { return c.info.ShowCursor }

// HideCursor returns the sequence that hides the cursor.
func (c *Caps) HideCursor() string { return c.info.HideCursor }

// AttrOff returns the sequence that resets all attributes.
func (c *Caps) AttrOff() string {
	if c.info.AttrOff == "" {
		return "\x1b[m"
	}
	return c.info.AttrOff
}

// SetScrollRegion returns the DECSTBM sequence for rows [top, bottom].
func (c *Caps) SetScrollRegion(top, bottom int) string {
	return c.info.TParm(c.scrollRegion, top, bottom)
}

// InsertLines returns the sequence that inserts n lines at the cursor.
func (c *Caps) InsertLines(n int) string {
	return c.info.TParm(c.insertLines, n)
}

// DeleteLines returns the sequence that deletes n lines at the cursor.
func (c *Caps) DeleteLines(n int) string {
	return c.info.TParm(c.deleteLines, n)
}

// Flags returns the sequences for the boolean attributes that are set.
func (c *Caps) Flags(bold, underline, blink, inverse, invisible bool) string {
	var b strings.Builder
	if bold {
		b.WriteString(c.info.Bold)
	}
	if underline {
		b.WriteString(c.info.Underline)
	}
	if blink {
		b.WriteString(c.info.Blink)
	}
	if inverse {
		b.WriteString(c.info.Reverse)
	}
	if invisible {
		b.WriteString(c.invisible)
	}
	return b.String()
}

// Color returns the sequence selecting palette colors fg and bg.
// A negative index leaves that side unchanged.
func (c *Caps) Color(fg, bg int) string {
	return c.info.TColor(fg, bg)
}
