// Package core provides shared types for the renderer subsystem.
// This package breaks import cycles between the compositor, the diff engine
// and the output backends.
package core

import "fmt"

// ColorIndex is a palette index (0-255) or the ColorDefault sentinel.
type ColorIndex uint16

// ColorDefault is the "default/transparent" sentinel. It is never a palette entry.
const ColorDefault ColorIndex = 0x1ff

// Valid returns true if the index refers to a real palette entry.
func (c ColorIndex) Valid() bool {
	return c <= 255
}

// IsDefault returns true if this is the default/transparent sentinel.
func (c ColorIndex) IsDefault() bool {
	return c == ColorDefault
}

// String returns a string representation of the color index.
func (c ColorIndex) String() string {
	if c.IsDefault() {
		return "default"
	}
	return fmt.Sprintf("idx(%d)", uint16(c))
}

// Packed attribute layout.
const (
	colorMask  = 0x1ff
	fgShift    = 9
	flagShift  = 18
	flagBold   = 1 << 0
	flagUnder  = 1 << 1
	flagBlink  = 1 << 2
	flagInvert = 1 << 3
	flagInvis  = 1 << 4

	// ReservedMask covers the bits used by cursor-shape overlays.
	ReservedMask uint32 = 0xff800000
)

// Attr is the unpacked form of a cell attribute.
type Attr struct {
	Fg        ColorIndex
	Bg        ColorIndex
	Bold      bool
	Underline bool
	Blink     bool
	Inverse   bool
	Invisible bool
}

// DefaultAttr is the terminal default: default colors, no flags.
var DefaultAttr = Attr{Fg: ColorDefault, Bg: ColorDefault}

// Pack encodes the attribute into the 32-bit wire layout:
// bits 0-8 background, 9-17 foreground, 18-22 flags.
// Out-of-range color indices are packed as the sentinel.
func (a Attr) Pack() uint32 {
	fg, bg := a.Fg, a.Bg
	if !fg.Valid() {
		fg = ColorDefault
	}
	if !bg.Valid() {
		bg = ColorDefault
	}

	var flags uint32
	if a.Bold {
		flags |= flagBold
	}
	if a.Underline {
		flags |= flagUnder
	}
	if a.Blink {
		flags |= flagBlink
	}
	if a.Inverse {
		flags |= flagInvert
	}
	if a.Invisible {
		flags |= flagInvis
	}

	return uint32(bg) | uint32(fg)<<fgShift | flags<<flagShift
}

// Unpack decodes a packed attribute. Reserved bits are ignored and a decoded
// color outside 0-255 collapses to the sentinel.
func Unpack(v uint32) Attr {
	bg := ColorIndex(v & colorMask)
	fg := ColorIndex((v >> fgShift) & colorMask)
	if !bg.Valid() {
		bg = ColorDefault
	}
	if !fg.Valid() {
		fg = ColorDefault
	}
	flags := (v >> flagShift) & 0x1f

	return Attr{
		Fg:        fg,
		Bg:        bg,
		Bold:      flags&flagBold != 0,
		Underline: flags&flagUnder != 0,
		Blink:     flags&flagBlink != 0,
		Inverse:   flags&flagInvert != 0,
		Invisible: flags&flagInvis != 0,
	}
}

// WithFg returns a new attribute with the given foreground.
func (a Attr) WithFg(fg ColorIndex) Attr {
	a.Fg = fg
	return a
}

// WithBg returns a new attribute with the given background.
func (a Attr) WithBg(bg ColorIndex) Attr {
	a.Bg = bg
	return a
}

// SameFlags returns true if both attributes carry identical boolean flags.
func (a Attr) SameFlags(other Attr) bool {
	return a.Bold == other.Bold &&
		a.Underline == other.Underline &&
		a.Blink == other.Blink &&
		a.Inverse == other.Inverse &&
		a.Invisible == other.Invisible
}

// HasFlags returns true if any boolean flag is set.
func (a Attr) HasFlags() bool {
	return a.Bold || a.Underline || a.Blink || a.Inverse || a.Invisible
}

// Cell represents a single terminal cell.
type Cell struct {
	// Attr is the visual attribute of the cell.
	Attr Attr

	// Grapheme is the grapheme cluster displayed in the cell.
	// An empty grapheme marks the continuation of a wide cell.
	Grapheme string

	// Width is the display width: 0 for continuation cells, 1 or 2 otherwise.
	Width uint8
}

// BlankCell returns a space cell with the given attribute.
func BlankCell(attr Attr) Cell {
	return Cell{Attr: attr, Grapheme: " ", Width: 1}
}

// EmptyCell returns a space cell with the default attribute.
func EmptyCell() Cell {
	return BlankCell(DefaultAttr)
}

// ContinuationCell returns the cell occupying the second column of a wide glyph.
func ContinuationCell(attr Attr) Cell {
	return Cell{Attr: attr}
}

// IsContinuation returns true if this is the second column of a wide glyph.
func (c Cell) IsContinuation() bool {
	return c.Width == 0 && c.Grapheme == ""
}

// IsBlank returns true if the cell shows nothing but its background.
func (c Cell) IsBlank() bool {
	return c.Grapheme == " "
}

// Equals returns true if two cells are identical.
func (c Cell) Equals(other Cell) bool {
	return c.Attr == other.Attr &&
		c.Width == other.Width &&
		c.Grapheme == other.Grapheme
}
