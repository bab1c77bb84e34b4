// Package width classifies the terminal display width of text.
//
// Widths follow the Unicode East Asian Width property only: Wide and
// Fullwidth code points occupy two cells, combining marks and control
// characters occupy none, everything else (Neutral, Narrow, Ambiguous)
// occupies one. Grapheme clusters are measured by their base code point,
// so a base followed by combining marks counts once.
package width

import (
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// ContinuationMarker is inserted by PadWideChars after every wide glyph so
// that cell-count slicing sees the second column as its own unit.
const ContinuationMarker = '\x03'

// WidePlaceholder replaces wide glyphs on terminals without wide-glyph support.
const WidePlaceholder = "??"

// cond ignores the locale: ambiguous-width characters are always narrow.
var cond = func() *runewidth.Condition {
	c := runewidth.NewCondition()
	c.EastAsianWidth = false
	return c
}()

// RuneWidth returns the display width of a single code point (0, 1 or 2).
func RuneWidth(r rune) int {
	if r == 0 || r < 32 || (r >= 0x7f && r < 0xa0) {
		return 0
	}
	if isCombiningRune(r) {
		return 0
	}
	if cond.RuneWidth(r) == 2 {
		return 2
	}
	return 1
}

// CharWidth returns the display width of the code point starting at byte
// offset i. ok is false when i is out of range or not at a code point start.
func CharWidth(s string, i int) (int, bool) {
	r, ok := CodePointAt(s, i)
	if !ok {
		return 0, false
	}
	return RuneWidth(r), true
}

// CodePointAt decodes the code point starting at byte offset i.
// ok is false when i is out of range or inside a multi-byte sequence.
func CodePointAt(s string, i int) (rune, bool) {
	if i < 0 || i >= len(s) || !utf8.RuneStart(s[i]) {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return r, true
}

// FromCodePoint encodes a code point, including astral-plane ones.
// Invalid code points (surrogate halves, values beyond U+10FFFF) yield "".
func FromCodePoint(r rune) string {
	if !utf8.ValidRune(r) {
		return ""
	}
	return string(r)
}

// IsSurrogate returns true if the code point at byte offset i lies outside
// the Basic Multilingual Plane, i.e. needs a UTF-16 surrogate pair.
func IsSurrogate(s string, i int) bool {
	r, ok := CodePointAt(s, i)
	return ok && r > 0xffff
}

// SurrogatePair splits an astral code point into its UTF-16 halves.
func SurrogatePair(r rune) (hi, lo rune, ok bool) {
	if r <= 0xffff || r > unicode.MaxRune {
		return 0, 0, false
	}
	hi, lo = utf16.EncodeRune(r)
	return hi, lo, true
}

// ComposeSurrogates joins a UTF-16 surrogate pair into one code point.
// ok is false when the halves do not form a valid pair.
func ComposeSurrogates(hi, lo rune) (rune, bool) {
	r := utf16.DecodeRune(hi, lo)
	if r == utf8.RuneError {
		return 0, false
	}
	return r, true
}

// IsCombining returns true if the code point at byte offset i is a
// non-spacing mark, enclosing mark or format character.
func IsCombining(s string, i int) bool {
	r, ok := CodePointAt(s, i)
	return ok && isCombiningRune(r)
}

func isCombiningRune(r rune) bool {
	return unicode.In(r, unicode.Mn, unicode.Me, unicode.Cf)
}

// Grapheme is one user-perceived character and its display width.
type Grapheme struct {
	Text  string
	Width int
}

// Graphemes splits s into grapheme clusters with their widths.
func Graphemes(s string) []Grapheme {
	if s == "" {
		return nil
	}
	out := make([]Grapheme, 0, len(s))
	state := -1
	rest := s
	for rest != "" {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		out = append(out, Grapheme{Text: cluster, Width: ClusterWidth(cluster)})
	}
	return out
}

// ClusterWidth returns the width of one grapheme cluster: the width of its
// first code point, or 0 when the cluster holds only zero-width code points.
func ClusterWidth(cluster string) int {
	for _, r := range cluster {
		if w := RuneWidth(r); w > 0 {
			return w
		}
	}
	return 0
}

// StrWidth returns the display width of s, summed per grapheme cluster.
func StrWidth(s string) int {
	w := 0
	state := -1
	rest := s
	for rest != "" {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		w += ClusterWidth(cluster)
	}
	return w
}

// PadWideChars inserts ContinuationMarker after every wide grapheme cluster.
// The marker always follows the complete cluster, never a part of it.
func PadWideChars(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, g := range Graphemes(s) {
		b.WriteString(g.Text)
		if g.Width == 2 {
			b.WriteRune(ContinuationMarker)
		}
	}
	return b.String()
}

// ReplaceWideChars substitutes WidePlaceholder for every wide grapheme
// cluster, keeping the cell count of the text unchanged.
func ReplaceWideChars(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, g := range Graphemes(s) {
		if g.Width == 2 {
			b.WriteString(WidePlaceholder)
			continue
		}
		b.WriteString(g.Text)
	}
	return b.String()
}
