package color

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidHex indicates a string that is not a "#rgb" or "#rrggbb" color.
var ErrInvalidHex = errors.New("invalid hex color")

// HexToRGB parses "#rrggbb" or the short form "#rgb", where each digit is
// doubled. The leading '#' is required.
func HexToRGB(hex string) (RGB, error) {
	if !strings.HasPrefix(hex, "#") {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidHex, hex)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidHex, hex)
	}
	r, g, b := c.RGB255()
	return RGB{r, g, b}, nil
}

// RGBToHex formats a color as lowercase "#rrggbb".
func RGBToHex(c RGB) string {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hex()
}
