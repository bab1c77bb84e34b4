package format

import (
	"strings"

	"github.com/dshills/tessera/internal/renderer/color"
	"github.com/dshills/tessera/internal/renderer/core"
)

// Align is the horizontal alignment of a formatted line.
type Align uint8

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// String returns the tag name of the alignment.
func (a Align) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "left"
	}
}

// tagState tracks the attributes opened by style tags. Colors nest as
// stacks and flags as counters, so "{/red-fg}" restores the color that was
// active before the matching open tag.
type tagState struct {
	base   core.Attr
	codec  *color.Codec
	fg, bg []core.ColorIndex
	bold   int
	ul     int
	blink  int
	inv    int
	hidden int
}

func newTagState(base core.Attr, codec *color.Codec) *tagState {
	return &tagState{base: base, codec: codec}
}

// attr returns the attribute currently in effect.
func (s *tagState) attr() core.Attr {
	a := s.base
	if n := len(s.fg); n > 0 {
		a.Fg = s.fg[n-1]
	}
	if n := len(s.bg); n > 0 {
		a.Bg = s.bg[n-1]
	}
	a.Bold = a.Bold || s.bold > 0
	a.Underline = a.Underline || s.ul > 0
	a.Blink = a.Blink || s.blink > 0
	a.Inverse = a.Inverse || s.inv > 0
	a.Invisible = a.Invisible || s.hidden > 0
	return a
}

func (s *tagState) reset() {
	s.fg = s.fg[:0]
	s.bg = s.bg[:0]
	s.bold, s.ul, s.blink, s.inv, s.hidden = 0, 0, 0, 0, 0
}

// apply interprets a style or alignment tag. It returns false for tags it
// does not understand, which the caller then emits as literal text.
func (s *tagState) apply(name string, align *Align) bool {
	if !validTagName(name) {
		return false
	}
	closing := strings.HasPrefix(name, "/")
	if closing {
		name = name[1:]
		if name == "" {
			s.reset()
			*align = AlignLeft
			return true
		}
	}

	switch name {
	case "left":
		*align = AlignLeft
		return true
	case "center", "right":
		switch {
		case closing:
			*align = AlignLeft
		case name == "center":
			*align = AlignCenter
		default:
			*align = AlignRight
		}
		return true
	case "bold":
		adjust(&s.bold, closing)
		return true
	case "underline", "ul":
		adjust(&s.ul, closing)
		return true
	case "blink":
		adjust(&s.blink, closing)
		return true
	case "inverse":
		adjust(&s.inv, closing)
		return true
	case "invisible":
		adjust(&s.hidden, closing)
		return true
	}

	if spec, ok := strings.CutSuffix(name, "-fg"); ok && color.IsColorName(spec) {
		s.fg = pushPop(s.fg, s.codec.Convert(spec), closing)
		return true
	}
	if spec, ok := strings.CutSuffix(name, "-bg"); ok && color.IsColorName(spec) {
		s.bg = pushPop(s.bg, s.codec.Convert(spec), closing)
		return true
	}
	return false
}

func adjust(counter *int, closing bool) {
	if closing {
		if *counter > 0 {
			*counter--
		}
		return
	}
	*counter++
}

func pushPop(stack []core.ColorIndex, c core.ColorIndex, closing bool) []core.ColorIndex {
	if closing {
		if len(stack) > 0 {
			return stack[:len(stack)-1]
		}
		return stack
	}
	return append(stack, c)
}

// validTagName accepts the character set of tag names; anything else
// between braces is ordinary text.
func validTagName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '#', c == '/', c == '_', c == ' ':
		default:
			return false
		}
	}
	return true
}
