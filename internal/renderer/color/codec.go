package color

import (
	"strconv"
	"strings"
	"sync"

	"github.com/dshills/tessera/internal/renderer/core"
)

// Fallback colors used when blending against the terminal default.
const (
	blendDefaultFg core.ColorIndex = 248
	blendAltFg     core.ColorIndex = 7
)

// Codec matches colors against the palette and combines attributes.
// Results are memoised per Codec; a Codec is safe for concurrent use.
type Codec struct {
	mu         sync.Mutex
	matchCache map[uint32]int
	darker     map[core.ColorIndex]core.ColorIndex
}

// NewCodec creates a codec with empty caches.
func NewCodec() *Codec {
	return &Codec{
		matchCache: make(map[uint32]int),
		darker:     make(map[core.ColorIndex]core.ColorIndex),
	}
}

// CacheSize returns the number of memoised match results.
func (c *Codec) CacheSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.matchCache)
}

// Match returns the palette index closest to rgb under the weighted distance
// 30*dr^2 + 59*dg^2 + 11*db^2. Ties resolve to the lowest index.
func (c *Codec) Match(rgb RGB) int {
	key := rgb.key()

	c.mu.Lock()
	defer c.mu.Unlock()
	if idx, ok := c.matchCache[key]; ok {
		return idx
	}
	idx := nearest(rgb, PaletteSize)
	c.matchCache[key] = idx
	return idx
}

// MatchHex parses hex and matches it. Invalid input returns -1.
func (c *Codec) MatchHex(hex string) int {
	rgb, err := HexToRGB(hex)
	if err != nil {
		return -1
	}
	return c.Match(rgb)
}

// nearest scans the first n palette entries.
func nearest(rgb RGB, n int) int {
	best := -1
	bestDist := -1
	for i := 0; i < n; i++ {
		d := distance(rgb, Palette[i])
		if d == 0 {
			return i
		}
		if best < 0 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

func distance(a, b RGB) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return 30*dr*dr + 59*dg*dg + 11*db*db
}

// MixColors interpolates from c1 toward c2 by alpha in [0,1] and returns
// the nearest palette index. The default sentinel mixes as black.
func (c *Codec) MixColors(c1, c2 core.ColorIndex, alpha float64) core.ColorIndex {
	if !c1.Valid() {
		c1 = 0
	}
	if !c2.Valid() {
		c2 = 0
	}
	if c1 == c2 {
		return c1
	}
	a, b := paletteRGB(c1), paletteRGB(c2)
	mixed := RGB{
		R: mixChannel(a.R, b.R, alpha),
		G: mixChannel(a.G, b.G, alpha),
		B: mixChannel(a.B, b.B, alpha),
	}
	return core.ColorIndex(c.Match(mixed))
}

func paletteRGB(ci core.ColorIndex) RGB {
	if !ci.Valid() {
		return Palette[0]
	}
	return Palette[ci]
}

func mixChannel(from, to uint8, alpha float64) uint8 {
	v := int(from) + int(float64(int(to)-int(from))*alpha)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Blend mixes b over a by alpha. Background sentinels blend as black. A
// default foreground on a becomes light gray without mixing; otherwise a
// default foreground on b is taken as white. Flags come from a.
func (c *Codec) Blend(a, b core.Attr, alpha float64) core.Attr {
	out := a

	bg1, bg2 := a.Bg, b.Bg
	if bg1.IsDefault() {
		bg1 = 0
	}
	if bg2.IsDefault() {
		bg2 = 0
	}
	out.Bg = c.MixColors(bg1, bg2, alpha)

	if a.Fg.IsDefault() {
		out.Fg = blendDefaultFg
		return out
	}
	fg2 := b.Fg
	if fg2.IsDefault() {
		fg2 = blendAltFg
	}
	out.Fg = c.MixColors(a.Fg, fg2, alpha)
	return out
}

// Downsample darkens both colors of attr: bright system colors fold onto
// their dim counterparts, other colors move to the first palette entry with
// the same name and a lower channel sum. Colors without a darker alias and
// the default sentinel are unchanged.
func (c *Codec) Downsample(attr core.Attr) core.Attr {
	attr.Fg = c.darken(attr.Fg)
	attr.Bg = c.darken(attr.Bg)
	return attr
}

func (c *Codec) darken(ci core.ColorIndex) core.ColorIndex {
	if !ci.Valid() {
		return ci
	}
	if ci >= 8 && ci <= 15 {
		return ci - 8
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.darker[ci]; ok {
		return d
	}

	out := ci
	if name := Names[ci]; name != "" {
		own := Palette[ci].sum()
		for i := 0; i < PaletteSize; i++ {
			if core.ColorIndex(i) == ci || Names[i] != name {
				continue
			}
			if Palette[i].sum() < own {
				out = core.ColorIndex(i)
				break
			}
		}
	}
	c.darker[ci] = out
	return out
}

// Reduce maps a palette index onto a terminal that supports only total
// colors. Indices already in range are returned unchanged.
func Reduce(idx, total int) int {
	if idx < 0 {
		return idx
	}
	switch {
	case idx >= 16 && total <= 16:
		if base, ok := basicIndex[Names[idx%PaletteSize]]; ok {
			idx = base
		} else {
			idx = nearest(Palette[idx%PaletteSize], 8)
		}
		if total <= 2 {
			return idx % 2
		}
		return idx
	case idx >= 8 && total <= 8:
		idx -= 8
		if total <= 2 {
			return idx % 2
		}
		return idx
	case idx >= 2 && total <= 2:
		return idx % 2
	}
	return idx
}

// Convert resolves a color specification: a color name ("red",
// "light-blue", "grey"), a "#hex" value, a decimal palette index, or a
// default keyword. Anything unrecognised resolves to the default sentinel.
func (c *Codec) Convert(spec string) core.ColorIndex {
	s := strings.TrimSpace(spec)
	if s == "" {
		return core.ColorDefault
	}
	if strings.HasPrefix(s, "#") {
		if idx := c.MatchHex(s); idx >= 0 {
			return core.ColorIndex(idx)
		}
		return core.ColorDefault
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 0 && n < PaletteSize {
			return core.ColorIndex(n)
		}
		return core.ColorDefault
	}

	key := normaliseName(s)
	if defaultNames[key] {
		return core.ColorDefault
	}
	if idx, ok := namedColors[key]; ok {
		return core.ColorIndex(idx)
	}
	return core.ColorDefault
}

// IsColorName returns true if spec names a color Convert understands.
func IsColorName(spec string) bool {
	s := strings.TrimSpace(spec)
	if strings.HasPrefix(s, "#") {
		_, err := HexToRGB(s)
		return err == nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n >= 0 && n < PaletteSize
	}
	key := normaliseName(s)
	_, ok := namedColors[key]
	return ok || defaultNames[key]
}

func normaliseName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', ' ':
			return -1
		}
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}
