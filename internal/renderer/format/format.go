// Package format turns widget content (text with optional style tags) into
// rows of cells of an exact width.
//
// Tags are written in braces: {bold}, {underline} or {ul}, {blink},
// {inverse}, {invisible}, {<color>-fg}, {<color>-bg}, {left}, {center},
// {right}. {/name} closes the most recent matching tag and {/} closes all of
// them. {open} and {close} produce literal braces, and text between
// {escape} and {/escape} is emitted verbatim. Braces that do not form a
// known tag are ordinary text.
package format

import (
	"strings"

	"github.com/dshills/tessera/internal/renderer/color"
	"github.com/dshills/tessera/internal/renderer/core"
	"github.com/dshills/tessera/internal/renderer/width"
)

// DefaultTabSize is the number of spaces a tab expands to.
const DefaultTabSize = 4

// Options control formatting.
type Options struct {
	// Width is the number of columns of every output line.
	Width int
	// Tags enables style tag interpretation.
	Tags bool
	// Base is the attribute of untagged text and padding.
	Base core.Attr
	// TabSize is the tab expansion width; 0 uses DefaultTabSize.
	TabSize int
	// Wrap breaks long lines; otherwise they are truncated.
	Wrap bool
	// FullUnicode keeps wide glyphs; otherwise each becomes "??".
	FullUnicode bool
	// Align is the alignment of lines without an alignment tag.
	Align Align
}

// Line is one output row.
type Line struct {
	// Cells has exactly Options.Width entries.
	Cells []core.Cell
	// Real is the index of the source line this row came from.
	Real int
	// Wrapped is true for rows that continue a wrapped source line.
	Wrapped bool
	// Used is the number of columns holding text, padding excluded.
	Used int
}

// String returns the visible text of the line.
func (l Line) String() string {
	var b strings.Builder
	for _, c := range l.Cells {
		if !c.IsContinuation() {
			b.WriteString(c.Grapheme)
		}
	}
	return b.String()
}

// Content is formatted text ready to be painted.
type Content struct {
	Lines []Line
	Width int
}

// Height returns the number of rows.
func (c *Content) Height() int {
	if c == nil {
		return 0
	}
	return len(c.Lines)
}

// Strings returns the visible text of every row.
func (c *Content) Strings() []string {
	out := make([]string, len(c.Lines))
	for i, l := range c.Lines {
		out[i] = l.String()
	}
	return out
}

// Formatter formats widget content. Color names in tags are resolved
// through the codec.
type Formatter struct {
	codec *color.Codec
}

// NewFormatter creates a formatter. A nil codec gets a private one.
func NewFormatter(codec *color.Codec) *Formatter {
	if codec == nil {
		codec = color.NewCodec()
	}
	return &Formatter{codec: codec}
}

// glyph is one grapheme cluster with the attribute it was written in.
type glyph struct {
	text  string
	width int
	attr  core.Attr
}

// sourceLine is a line of input after tag processing, before wrapping.
type sourceLine struct {
	glyphs []glyph
	align  Align
}

// Format lays text out into rows of exactly opts.Width cells.
func (f *Formatter) Format(text string, opts Options) *Content {
	if opts.TabSize <= 0 {
		opts.TabSize = DefaultTabSize
	}
	content := &Content{Width: max(opts.Width, 0)}
	for real, src := range f.parse(text, opts) {
		content.Lines = append(content.Lines, layoutLine(src, real, opts)...)
	}
	return content
}

// parse applies tags and splits text into source lines of glyphs.
func (f *Formatter) parse(text string, opts Options) []sourceLine {
	lines := []sourceLine{{align: opts.Align}}
	state := newTagState(opts.Base, f.codec)
	tab := strings.Repeat(" ", opts.TabSize)

	emit := func(s string) {
		if s == "" {
			return
		}
		if !opts.FullUnicode {
			s = width.ReplaceWideChars(s)
		}
		attr := state.attr()
		for _, g := range width.Graphemes(s) {
			cur := &lines[len(lines)-1]
			switch {
			case g.Text == "\n" || g.Text == "\r\n":
				lines = append(lines, sourceLine{align: opts.Align})
			case g.Text == "\t":
				for _, r := range tab {
					cur.glyphs = append(cur.glyphs, glyph{text: string(r), width: 1, attr: attr})
				}
			case g.Width == 0:
				// Controls, continuation markers and stray combining marks.
			default:
				cur.glyphs = append(cur.glyphs, glyph{text: g.Text, width: g.Width, attr: attr})
			}
		}
	}

	i := 0
	for i < len(text) {
		if opts.Tags && text[i] == '{' {
			if n := f.tag(text[i:], state, &lines[len(lines)-1].align, emit); n > 0 {
				i += n
				continue
			}
		}
		j := len(text)
		if opts.Tags {
			if k := strings.IndexByte(text[i+1:], '{'); k >= 0 {
				j = i + 1 + k
			}
		}
		emit(text[i:j])
		i = j
	}
	return lines
}

// tag consumes the tag at the start of s and returns the number of bytes
// used, or 0 when s does not start with a tag.
func (f *Formatter) tag(s string, state *tagState, align *Align, emit func(string)) int {
	end := strings.IndexByte(s, '}')
	if end < 0 {
		return 0
	}
	name := s[1:end]
	switch name {
	case "open":
		emit("{")
		return end + 1
	case "close":
		emit("}")
		return end + 1
	case "escape":
		const closer = "{/escape}"
		body := s[end+1:]
		k := strings.Index(body, closer)
		if k < 0 {
			emit(body)
			return len(s)
		}
		emit(body[:k])
		return end + 1 + k + len(closer)
	}
	if state.apply(name, align) {
		return end + 1
	}
	return 0
}

// layoutLine wraps or truncates one source line into rows.
func layoutLine(src sourceLine, real int, opts Options) []Line {
	w := opts.Width
	if w <= 0 {
		return []Line{{Real: real}}
	}

	glyphs := src.glyphs
	if w < 2 {
		glyphs = narrowOnly(glyphs)
	}

	var rows []Line
	start := 0
	for {
		col, end, lastSpace := 0, start, -1
		for end < len(glyphs) {
			g := glyphs[end]
			if col+g.width > w {
				break
			}
			if g.text == " " {
				lastSpace = end
			}
			col += g.width
			end++
		}

		next := end
		switch {
		case end == len(glyphs) || !opts.Wrap:
			next = len(glyphs)
		case glyphs[end].text == " ":
			next = end + 1
		case lastSpace > start:
			end = lastSpace
			next = lastSpace + 1
		}

		cells, used := row(glyphs[start:end], src.align, w, opts.Base)
		rows = append(rows, Line{
			Cells:   cells,
			Real:    real,
			Wrapped: start > 0,
			Used:    used,
		})
		if next >= len(glyphs) {
			return rows
		}
		start = next
	}
}

// narrowOnly substitutes a single '?' for wide glyphs that can never fit.
func narrowOnly(glyphs []glyph) []glyph {
	out := make([]glyph, len(glyphs))
	for i, g := range glyphs {
		if g.width > 1 {
			g = glyph{text: "?", width: 1, attr: g.attr}
		}
		out[i] = g
	}
	return out
}

// row converts glyphs into exactly w cells, aligned and padded with blanks.
// It also returns the number of columns the glyphs occupy.
func row(glyphs []glyph, align Align, w int, base core.Attr) ([]core.Cell, int) {
	used := 0
	for _, g := range glyphs {
		used += g.width
	}
	lead := 0
	switch align {
	case AlignCenter:
		lead = (w - used) / 2
	case AlignRight:
		lead = w - used
	}

	cells := make([]core.Cell, 0, w)
	blank := core.BlankCell(base)
	for i := 0; i < lead; i++ {
		cells = append(cells, blank)
	}
	for _, g := range glyphs {
		cells = append(cells, core.Cell{Attr: g.attr, Grapheme: g.text, Width: uint8(g.width)})
		if g.width == 2 {
			cells = append(cells, core.ContinuationCell(g.attr))
		}
	}
	for len(cells) < w {
		cells = append(cells, blank)
	}
	return cells, used
}

// MaxUsed returns the widest row's text extent.
func (c *Content) MaxUsed() int {
	m := 0
	for _, l := range c.Lines {
		m = max(m, l.Used)
	}
	return m
}
