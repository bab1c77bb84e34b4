// Package color quantises colors onto the xterm 256-color palette and
// combines packed attributes.
//
// Palette layout: indices 0-15 are the xterm system colors, 16-231 a 6x6x6
// cube over the channel levels {0, 95, 135, 175, 215, 255}, and 232-255 a
// 24-step grayscale ramp starting at 8 in steps of 10.
package color

// RGB is an 8-bit-per-channel color.
type RGB struct {
	R, G, B uint8
}

func (c RGB) sum() int {
	return int(c.R) + int(c.G) + int(c.B)
}

func (c RGB) key() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// PaletteSize is the number of addressable palette entries.
const PaletteSize = 256

var cubeLevels = [6]uint8{0x00, 0x5f, 0x87, 0xaf, 0xd7, 0xff}

var systemColors = [16]RGB{
	{0x00, 0x00, 0x00}, {0xcd, 0x00, 0x00}, {0x00, 0xcd, 0x00}, {0xcd, 0xcd, 0x00},
	{0x00, 0x00, 0xee}, {0xcd, 0x00, 0xcd}, {0x00, 0xcd, 0xcd}, {0xe5, 0xe5, 0xe5},
	{0x7f, 0x7f, 0x7f}, {0xff, 0x00, 0x00}, {0x00, 0xff, 0x00}, {0xff, 0xff, 0x00},
	{0x5c, 0x5c, 0xff}, {0xff, 0x00, 0xff}, {0x00, 0xff, 0xff}, {0xff, 0xff, 0xff},
}

// Palette is the immutable RGB value of every palette index.
var Palette = buildPalette()

func buildPalette() [PaletteSize]RGB {
	var p [PaletteSize]RGB
	copy(p[:16], systemColors[:])
	i := 16
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				p[i] = RGB{cubeLevels[r], cubeLevels[g], cubeLevels[b]}
				i++
			}
		}
	}
	for g := 0; g < 24; g++ {
		v := uint8(g*10 + 8)
		p[232+g] = RGB{v, v, v}
	}
	return p
}

// nameRanges assigns a basic color name to palette indices. Entries are
// applied in order, so an index listed twice keeps the later name.
var nameRanges = []struct {
	name   string
	ranges [][2]int
}{
	{"blue", [][2]int{{4, 4}, {12, 12}, {17, 21}, {24, 27}, {31, 33}, {38, 39}, {45, 45},
		{54, 57}, {60, 63}, {67, 67}, {69, 69}, {74, 75}, {81, 81}, {91, 93}, {97, 99},
		{103, 103}, {109, 111}, {117, 117}, {127, 129}, {134, 135}, {140, 141}, {147, 147},
		{153, 155}, {165, 165}, {171, 171}, {177, 177}, {183, 183}, {189, 189}}},
	{"green", [][2]int{{2, 2}, {10, 10}, {22, 22}, {28, 29}, {34, 36}, {40, 43}, {46, 50},
		{64, 65}, {70, 72}, {76, 79}, {82, 86}, {106, 108}, {112, 115}, {118, 122},
		{148, 151}, {154, 158}, {190, 194}}},
	{"cyan", [][2]int{{6, 6}, {14, 14}, {23, 23}, {30, 30}, {37, 37}, {44, 44}, {51, 51},
		{66, 66}, {73, 73}, {80, 80}, {87, 87}, {109, 109}, {116, 116}, {123, 123},
		{152, 152}, {159, 159}, {195, 195}}},
	{"red", [][2]int{{1, 1}, {9, 9}, {52, 52}, {88, 89}, {94, 95}, {124, 126}, {130, 132},
		{136, 138}, {160, 163}, {166, 169}, {172, 175}, {178, 181}, {196, 200},
		{202, 206}, {208, 212}, {214, 218}, {220, 224}}},
	{"magenta", [][2]int{{5, 5}, {13, 13}, {53, 53}, {90, 90}, {96, 96}, {127, 127},
		{133, 133}, {139, 139}, {164, 164}, {170, 170}, {176, 176}, {182, 182},
		{201, 201}, {207, 207}, {213, 213}, {219, 219}, {225, 225}}},
	{"yellow", [][2]int{{3, 3}, {11, 11}, {58, 58}, {100, 101}, {142, 144}, {184, 184},
		{186, 187}, {226, 230}}},
	{"black", [][2]int{{0, 0}, {8, 8}, {16, 16}, {59, 59}, {102, 102}, {232, 243}}},
	{"white", [][2]int{{7, 7}, {15, 15}, {145, 145}, {188, 188}, {231, 231}, {244, 255}}},
}

// Names holds the basic color name of each palette index, "" when unnamed.
var Names = buildNames()

func buildNames() [PaletteSize]string {
	var n [PaletteSize]string
	for _, e := range nameRanges {
		for _, r := range e.ranges {
			for i := r[0]; i <= r[1]; i++ {
				n[i] = e.name
			}
		}
	}
	return n
}

// basicIndex maps the eight basic names to their system color index.
var basicIndex = map[string]int{
	"black": 0, "red": 1, "green": 2, "yellow": 3,
	"blue": 4, "magenta": 5, "cyan": 6, "white": 7,
}

// namedColors resolves user-facing color names. Keys are normalised:
// lower case with '-', '_' and ' ' removed.
var namedColors = func() map[string]int {
	m := make(map[string]int, 48)
	for name, i := range basicIndex {
		m[name] = i
		m["light"+name] = i + 8
		m["bright"+name] = i + 8
	}
	for _, k := range []string{"grey", "gray"} {
		m[k] = 8
		m["light"+k] = 7
		m["bright"+k] = 7
	}
	return m
}()

// defaultNames resolve to the terminal default color.
var defaultNames = map[string]bool{
	"default": true, "normal": true, "bg": true, "fg": true,
}
