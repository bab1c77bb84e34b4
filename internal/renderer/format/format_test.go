package format

import (
	"testing"

	"github.com/dshills/tessera/internal/renderer/core"
)

func lines(c *Content) []string {
	return c.Strings()
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFormatPlain(t *testing.T) {
	f := NewFormatter(nil)
	c := f.Format("Hi", Options{Width: 5, Base: core.DefaultAttr})
	if c.Height() != 1 {
		t.Fatalf("expected 1 line, got %d", c.Height())
	}
	if got := c.Lines[0].String(); got != "Hi   " {
		t.Errorf("expected %q, got %q", "Hi   ", got)
	}
	if len(c.Lines[0].Cells) != 5 {
		t.Errorf("expected 5 cells, got %d", len(c.Lines[0].Cells))
	}
}

func TestFormatWordWrap(t *testing.T) {
	f := NewFormatter(nil)
	c := f.Format("hello world foo", Options{Width: 7, Wrap: true})

	want := []string{"hello  ", "world  ", "foo    "}
	if got := lines(c); !equalStrings(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if c.Lines[0].Wrapped || !c.Lines[1].Wrapped || !c.Lines[2].Wrapped {
		t.Error("continuation rows should be marked wrapped")
	}
	for _, l := range c.Lines {
		if l.Real != 0 {
			t.Errorf("all rows come from source line 0, got %d", l.Real)
		}
	}
}

func TestFormatBreakAtSpace(t *testing.T) {
	c := NewFormatter(nil).Format("abc def", Options{Width: 3, Wrap: true})
	want := []string{"abc", "def"}
	if got := lines(c); !equalStrings(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFormatHardBreak(t *testing.T) {
	c := NewFormatter(nil).Format("abcdefghij", Options{Width: 4, Wrap: true})
	want := []string{"abcd", "efgh", "ij  "}
	if got := lines(c); !equalStrings(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFormatTruncateWithoutWrap(t *testing.T) {
	c := NewFormatter(nil).Format("abcdefghij", Options{Width: 4})
	want := []string{"abcd"}
	if got := lines(c); !equalStrings(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFormatWidePushDown(t *testing.T) {
	c := NewFormatter(nil).Format("ab中", Options{Width: 3, Wrap: true, FullUnicode: true})
	if c.Height() != 2 {
		t.Fatalf("expected 2 rows, got %d: %q", c.Height(), lines(c))
	}
	first := c.Lines[0].Cells
	if first[0].Grapheme != "a" || first[1].Grapheme != "b" || !first[2].IsBlank() {
		t.Errorf("first row should be \"ab\" plus padding, got %q", c.Lines[0].String())
	}
	second := c.Lines[1].Cells
	if second[0].Grapheme != "中" || second[0].Width != 2 {
		t.Errorf("wide glyph should move whole to the next row, got %+v", second[0])
	}
	if !second[1].IsContinuation() {
		t.Error("wide glyph should be followed by a continuation cell")
	}
	if len(second) != 3 {
		t.Errorf("expected 3 cells, got %d", len(second))
	}
}

func TestFormatWideReplacement(t *testing.T) {
	f := NewFormatter(nil)
	if got := f.Format("中", Options{Width: 4}).Lines[0].String(); got != "??  " {
		t.Errorf("expected placeholder, got %q", got)
	}
	if got := f.Format("中", Options{Width: 1, FullUnicode: true}).Lines[0].String(); got != "?" {
		t.Errorf("wide glyph wider than the line should degrade, got %q", got)
	}
}

func TestFormatExactWidth(t *testing.T) {
	f := NewFormatter(nil)
	inputs := []string{"", "a", "中文字中文字", "a b c d e f g", "x\ty", "éé", "{bold}z{/bold}"}
	for _, in := range inputs {
		for _, w := range []int{1, 2, 3, 7} {
			c := f.Format(in, Options{Width: w, Wrap: true, Tags: true, FullUnicode: true})
			for i, l := range c.Lines {
				if len(l.Cells) != w {
					t.Errorf("Format(%q, %d) row %d has %d cells", in, w, i, len(l.Cells))
				}
			}
		}
	}
}

func TestFormatStyleTags(t *testing.T) {
	f := NewFormatter(nil)
	c := f.Format("{bold}B{/bold}n", Options{Width: 2, Tags: true, Base: core.DefaultAttr})
	cells := c.Lines[0].Cells
	if !cells[0].Attr.Bold || cells[1].Attr.Bold {
		t.Errorf("expected only the first cell bold, got %+v %+v", cells[0].Attr, cells[1].Attr)
	}

	c = f.Format("{red-fg}R{blue-fg}B{/blue-fg}R{/}x", Options{Width: 4, Tags: true, Base: core.DefaultAttr})
	cells = c.Lines[0].Cells
	want := []core.ColorIndex{1, 4, 1, core.ColorDefault}
	for i, fg := range want {
		if cells[i].Attr.Fg != fg {
			t.Errorf("cell %d fg = %v, want %v", i, cells[i].Attr.Fg, fg)
		}
	}

	c = f.Format("{light-blue-bg}{ul}x", Options{Width: 1, Tags: true, Base: core.DefaultAttr})
	if a := c.Lines[0].Cells[0].Attr; a.Bg != 12 || !a.Underline {
		t.Errorf("expected light blue underlined cell, got %+v", a)
	}
}

func TestFormatTagsSpanLines(t *testing.T) {
	c := NewFormatter(nil).Format("{inverse}a\nb", Options{Width: 1, Tags: true})
	if c.Height() != 2 {
		t.Fatalf("expected 2 lines, got %d", c.Height())
	}
	if !c.Lines[1].Cells[0].Attr.Inverse {
		t.Error("open tag should carry over to the next line")
	}
	if c.Lines[1].Real != 1 {
		t.Errorf("expected source line 1, got %d", c.Lines[1].Real)
	}
}

func TestFormatLiteralBraces(t *testing.T) {
	f := NewFormatter(nil)
	tests := []struct {
		in, want string
	}{
		{"{nope}", "{nope}"},
		{"a{b", "a{b"},
		{"{}", "{}"},
		{"{open}bold{close}", "{bold}"},
		{"{escape}{bold}{/escape}x", "{bold}x"},
		{"{bad!tag}", "{bad!tag}"},
	}
	for _, tt := range tests {
		c := f.Format(tt.in, Options{Width: len(tt.want), Tags: true})
		if got := c.Lines[0].String(); got != tt.want {
			t.Errorf("Format(%q) = %q, want %q", tt.in, got, tt.want)
		}
		for _, cell := range c.Lines[0].Cells {
			if cell.Attr.Bold {
				t.Errorf("Format(%q) should not produce bold text", tt.in)
			}
		}
	}

	c := f.Format("{bold}", Options{Width: 6})
	if got := c.Lines[0].String(); got != "{bold}" {
		t.Errorf("tags disabled should keep text, got %q", got)
	}
}

func TestFormatAlignment(t *testing.T) {
	f := NewFormatter(nil)
	if got := f.Format("{center}ab", Options{Width: 6, Tags: true}).Lines[0].String(); got != "  ab  " {
		t.Errorf("center = %q", got)
	}
	if got := f.Format("{right}ab", Options{Width: 5, Tags: true}).Lines[0].String(); got != "   ab" {
		t.Errorf("right = %q", got)
	}
	if got := f.Format("ab", Options{Width: 5, Align: AlignCenter}).Lines[0].String(); got != " ab  " {
		t.Errorf("option center = %q", got)
	}
}

func TestFormatTabsAndCombining(t *testing.T) {
	f := NewFormatter(nil)
	if got := f.Format("\tx", Options{Width: 4, TabSize: 2}).Lines[0].String(); got != "  x " {
		t.Errorf("tab expansion = %q", got)
	}
	c := f.Format("e\u0301x", Options{Width: 3})
	if g := c.Lines[0].Cells[0].Grapheme; g != "e\u0301" {
		t.Errorf("combining mark should stay with its base, got %q", g)
	}
	if g := c.Lines[0].Cells[1].Grapheme; g != "x" {
		t.Errorf("expected x in the second cell, got %q", g)
	}
}

func TestFormatPaddingUsesBase(t *testing.T) {
	base := core.Attr{Fg: 7, Bg: 4}
	c := NewFormatter(nil).Format("a", Options{Width: 3, Base: base})
	for i, cell := range c.Lines[0].Cells {
		if cell.Attr != base {
			t.Errorf("cell %d attr = %+v, want %+v", i, cell.Attr, base)
		}
	}
}

func TestFormatZeroWidth(t *testing.T) {
	c := NewFormatter(nil).Format("abc\ndef", Options{Width: 0})
	if c.Height() != 2 {
		t.Errorf("expected one row per source line, got %d", c.Height())
	}
	if len(c.Lines[0].Cells) != 0 {
		t.Error("zero-width rows hold no cells")
	}
}
