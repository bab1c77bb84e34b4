package vt

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dshills/tessera/internal/renderer/color"
	"github.com/dshills/tessera/internal/renderer/core"
)

type parserState int

const (
	stateGround parserState = iota
	stateEscape
	stateEscapeInter
	stateCSI
	stateCSIParam
	stateCSIInter
	stateOSC
	stateDCS
)

// parser decodes terminal output into Screen mutations. The caller holds the
// screen's lock.
type parser struct {
	screen *Screen
	codec  *color.Codec

	state  parserState
	params []int
	inter  []byte
	osc    []byte

	utf8Buf [utf8.UTFMax]byte
	utf8Len int

	// unknown counts sequences the emulator ignored.
	unknown int
}

func newParser(s *Screen) *parser {
	return &parser{
		screen: s,
		codec:  color.NewCodec(),
		params: make([]int, 0, 16),
		inter:  make([]byte, 0, 4),
		osc:    make([]byte, 0, 64),
	}
}

func (p *parser) parse(data []byte) {
	for _, b := range data {
		switch p.state {
		case stateGround:
			p.ground(b)
		case stateEscape:
			p.escape(b)
		case stateEscapeInter:
			if b >= 0x30 && b <= 0x7e {
				p.unknown++
				p.state = stateGround
			} else if b < 0x20 || b > 0x2f {
				p.state = stateGround
			}
		case stateCSI, stateCSIParam, stateCSIInter:
			p.csi(b)
		case stateOSC:
			p.oscByte(b)
		case stateDCS:
			if b == 0x1b {
				p.state = stateEscape
			} else if b == 0x9c {
				p.state = stateGround
			}
		}
	}
}

func (p *parser) ground(b byte) {
	if p.utf8Len > 0 {
		p.continueUTF8(b)
		return
	}

	s := p.screen
	switch {
	case b == 0x1b:
		p.state = stateEscape
		p.params = p.params[:0]
		p.inter = p.inter[:0]
	case b == '\b':
		s.moveTo(s.curX-1, s.curY)
	case b == '\t':
		s.moveTo((s.curX/8+1)*8, s.curY)
	case b == '\n', b == '\v', b == '\f':
		s.lineFeed()
	case b == '\r':
		s.curX = 0
	case b >= 0x20 && b < 0x7f:
		s.put(rune(b))
	case b >= 0xc0 && b < 0xf8:
		p.utf8Buf[0] = b
		p.utf8Len = 1
	case b >= 0x80 && b < 0xc0:
		s.put(utf8.RuneError)
	}
}

func (p *parser) continueUTF8(b byte) {
	if b < 0x80 || b >= 0xc0 {
		p.utf8Len = 0
		p.screen.put(utf8.RuneError)
		p.ground(b)
		return
	}
	p.utf8Buf[p.utf8Len] = b
	p.utf8Len++
	if !utf8.FullRune(p.utf8Buf[:p.utf8Len]) {
		if p.utf8Len == len(p.utf8Buf) {
			p.utf8Len = 0
			p.screen.put(utf8.RuneError)
		}
		return
	}
	r, _ := utf8.DecodeRune(p.utf8Buf[:p.utf8Len])
	p.utf8Len = 0
	p.screen.put(r)
}

func (p *parser) escape(b byte) {
	s := p.screen
	p.state = stateGround
	switch {
	case b == '[':
		p.state = stateCSI
	case b == ']':
		p.state = stateOSC
		p.osc = p.osc[:0]
	case b == 'P':
		p.state = stateDCS
	case b == '7':
		s.saveCursor()
	case b == '8':
		s.restoreCursor()
	case b == 'D':
		s.lineFeed()
	case b == 'E':
		s.curX = 0
		s.lineFeed()
	case b == 'M':
		s.reverseLineFeed()
	case b == 'c':
		s.reset()
	case b == '\\':
	case b >= 0x20 && b <= 0x2f:
		p.inter = append(p.inter, b)
		p.state = stateEscapeInter
	default:
		p.unknown++
	}
}

func (p *parser) csi(b byte) {
	switch {
	case b >= '0' && b <= '9':
		if p.state == stateCSIInter {
			p.state = stateGround
			return
		}
		if p.state == stateCSI || len(p.params) == 0 {
			p.params = append(p.params, 0)
		}
		p.params[len(p.params)-1] = p.params[len(p.params)-1]*10 + int(b-'0')
		p.state = stateCSIParam
	case b == ';', b == ':':
		if len(p.params) == 0 {
			p.params = append(p.params, 0)
		}
		p.params = append(p.params, 0)
		p.state = stateCSIParam
	case b == '?', b == '>', b == '!', b == '=':
		p.inter = append(p.inter, b)
	case b >= 0x20 && b <= 0x2f:
		p.inter = append(p.inter, b)
		p.state = stateCSIInter
	case b >= 0x40 && b <= 0x7e:
		p.dispatchCSI(b)
		p.state = stateGround
	default:
		p.state = stateGround
	}
}

func (p *parser) param(i, def int) int {
	if i < len(p.params) && p.params[i] > 0 {
		return p.params[i]
	}
	return def
}

func (p *parser) dispatchCSI(final byte) {
	s := p.screen
	private := len(p.inter) > 0 && p.inter[0] == '?'

	switch final {
	case 'A':
		s.moveTo(s.curX, s.curY-p.param(0, 1))
	case 'B':
		s.moveTo(s.curX, s.curY+p.param(0, 1))
	case 'C':
		s.moveTo(s.curX+p.param(0, 1), s.curY)
	case 'D':
		s.moveTo(s.curX-p.param(0, 1), s.curY)
	case 'G':
		s.moveTo(p.param(0, 1)-1, s.curY)
	case 'd':
		s.moveTo(s.curX, p.param(0, 1)-1)
	case 'H', 'f':
		s.moveTo(p.param(1, 1)-1, p.param(0, 1)-1)
	case 'J':
		s.eraseDisplay(p.param(0, 0))
	case 'K':
		s.eraseLine(p.param(0, 0))
	case 'X':
		s.clearRow(s.curY, s.curX, s.curX+p.param(0, 1))
	case 'L':
		s.insertLines(p.param(0, 1))
	case 'M':
		s.deleteLines(p.param(0, 1))
	case 'S':
		s.scrollUp(s.scrollTop, p.param(0, 1))
	case 'T':
		s.scrollDown(s.scrollTop, p.param(0, 1))
	case 'r':
		s.setScrollRegion(p.param(0, 1)-1, p.param(1, s.rows)-1)
	case 's':
		s.saveCursor()
	case 'u':
		s.restoreCursor()
	case 'm':
		if len(p.inter) == 0 {
			p.sgr()
		}
	case 'h', 'l':
		if private {
			p.privateMode(final == 'h')
		}
	case 'n', 'c', 'q', 't':
	default:
		p.unknown++
	}
}

func (p *parser) privateMode(set bool) {
	s := p.screen
	for _, mode := range p.params {
		switch mode {
		case 7:
			s.autoWrap = set
		case 25:
			s.cursorVisible = set
		case 47, 1047, 1049:
			s.setAltScreen(set)
		}
	}
}

func (p *parser) sgr() {
	s := p.screen
	if len(p.params) == 0 {
		s.attr = core.DefaultAttr
		return
	}

	for i := 0; i < len(p.params); i++ {
		switch v := p.params[i]; {
		case v == 0:
			s.attr = core.DefaultAttr
		case v == 1:
			s.attr.Bold = true
		case v == 4:
			s.attr.Underline = true
		case v == 5:
			s.attr.Blink = true
		case v == 7:
			s.attr.Inverse = true
		case v == 8:
			s.attr.Invisible = true
		case v == 22:
			s.attr.Bold = false
		case v == 24:
			s.attr.Underline = false
		case v == 25:
			s.attr.Blink = false
		case v == 27:
			s.attr.Inverse = false
		case v == 28:
			s.attr.Invisible = false
		case v >= 30 && v <= 37:
			s.attr.Fg = core.ColorIndex(v - 30)
		case v == 38:
			var c core.ColorIndex
			c, i = p.extendedColor(i)
			s.attr.Fg = c
		case v == 39:
			s.attr.Fg = core.ColorDefault
		case v >= 40 && v <= 47:
			s.attr.Bg = core.ColorIndex(v - 40)
		case v == 48:
			var c core.ColorIndex
			c, i = p.extendedColor(i)
			s.attr.Bg = c
		case v == 49:
			s.attr.Bg = core.ColorDefault
		case v >= 90 && v <= 97:
			s.attr.Fg = core.ColorIndex(v - 90 + 8)
		case v >= 100 && v <= 107:
			s.attr.Bg = core.ColorIndex(v - 100 + 8)
		}
	}
}

// extendedColor decodes 38/48;5;n and 38/48;2;r;g;b starting at params[i].
// RGB colors are matched to the nearest palette entry.
func (p *parser) extendedColor(i int) (core.ColorIndex, int) {
	if i+1 >= len(p.params) {
		return core.ColorDefault, i
	}
	switch p.params[i+1] {
	case 5:
		if i+2 < len(p.params) {
			return core.ColorIndex(clamp(p.params[i+2], 0, 255)), i + 2
		}
	case 2:
		if i+4 < len(p.params) {
			rgb := color.RGB{
				R: uint8(clamp(p.params[i+2], 0, 255)),
				G: uint8(clamp(p.params[i+3], 0, 255)),
				B: uint8(clamp(p.params[i+4], 0, 255)),
			}
			return core.ColorIndex(p.codec.Match(rgb)), i + 4
		}
	}
	return core.ColorDefault, len(p.params)
}

func (p *parser) oscByte(b byte) {
	switch b {
	case 0x07, 0x9c:
		p.dispatchOSC()
		p.state = stateGround
	case 0x1b:
		p.dispatchOSC()
		p.state = stateEscape
	default:
		p.osc = append(p.osc, b)
	}
}

func (p *parser) dispatchOSC() {
	cmd, value, _ := strings.Cut(string(p.osc), ";")
	n, err := strconv.Atoi(cmd)
	if err != nil {
		return
	}
	if n == 0 || n == 2 {
		p.screen.title = value
	}
}
