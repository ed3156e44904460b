package neat

import (
	"fmt"
	"image/color"
	"math/rand"
)

// NamedColor is a palette entry.
type NamedColor struct {
	Name  string
	Color color.RGBA
}

// DefaultPalette is the stock set of species display colors. The transparent
// entry is never handed out.
var DefaultPalette = []NamedColor{
	{"clear", color.RGBA{0x00, 0x00, 0x00, 0x00}},
	{"black", color.RGBA{0x00, 0x00, 0x00, 0xff}},
	{"white", color.RGBA{0xff, 0xff, 0xff, 0xff}},
	{"light_gray", color.RGBA{0xbf, 0xbf, 0xbf, 0xff}},
	{"gray", color.RGBA{0x7f, 0x7f, 0x7f, 0xff}},
	{"dark_gray", color.RGBA{0x3f, 0x3f, 0x3f, 0xff}},
	{"blue", color.RGBA{0x00, 0x00, 0xff, 0xff}},
	{"navy", color.RGBA{0x00, 0x00, 0x7f, 0xff}},
	{"royal", color.RGBA{0x41, 0x69, 0xe1, 0xff}},
	{"slate", color.RGBA{0x70, 0x80, 0x90, 0xff}},
	{"sky", color.RGBA{0x87, 0xce, 0xeb, 0xff}},
	{"cyan", color.RGBA{0x00, 0xff, 0xff, 0xff}},
	{"teal", color.RGBA{0x00, 0x7f, 0x7f, 0xff}},
	{"green", color.RGBA{0x00, 0xff, 0x00, 0xff}},
	{"chartreuse", color.RGBA{0x7f, 0xff, 0x00, 0xff}},
	{"lime", color.RGBA{0x32, 0xcd, 0x32, 0xff}},
	{"forest", color.RGBA{0x22, 0x8b, 0x22, 0xff}},
	{"olive", color.RGBA{0x6b, 0x8e, 0x23, 0xff}},
	{"yellow", color.RGBA{0xff, 0xff, 0x00, 0xff}},
	{"gold", color.RGBA{0xff, 0xd7, 0x00, 0xff}},
	{"goldenrod", color.RGBA{0xda, 0xa5, 0x20, 0xff}},
	{"orange", color.RGBA{0xff, 0xa5, 0x00, 0xff}},
	{"brown", color.RGBA{0x8b, 0x45, 0x13, 0xff}},
	{"tan", color.RGBA{0xd2, 0xb4, 0x8c, 0xff}},
	{"firebrick", color.RGBA{0xb2, 0x22, 0x22, 0xff}},
	{"red", color.RGBA{0xff, 0x00, 0x00, 0xff}},
	{"scarlet", color.RGBA{0xff, 0x34, 0x1c, 0xff}},
	{"coral", color.RGBA{0xff, 0x7f, 0x50, 0xff}},
	{"salmon", color.RGBA{0xfa, 0x80, 0x72, 0xff}},
	{"pink", color.RGBA{0xff, 0x69, 0xb4, 0xff}},
	{"magenta", color.RGBA{0xff, 0x00, 0xff, 0xff}},
	{"purple", color.RGBA{0xa0, 0x20, 0xf0, 0xff}},
	{"violet", color.RGBA{0xee, 0x82, 0xee, 0xff}},
	{"maroon", color.RGBA{0xb0, 0x30, 0x60, 0xff}},
}

// ColorPool hands out mutually exclusive display colors to species.
// Not safe for concurrent use.
type ColorPool struct {
	palette []NamedColor
	inUse   map[color.RGBA]bool
}

// NewColorPool creates a pool over the given palette, or DefaultPalette when none is given.
func NewColorPool(palette ...NamedColor) *ColorPool {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return &ColorPool{
		palette: palette,
		inUse:   make(map[color.RGBA]bool, len(palette)),
	}
}

// Acquire draws a color uniformly from the unused, non-transparent entries
// and marks it taken. It returns false when the pool is exhausted.
func (p *ColorPool) Acquire(rng *rand.Rand) (color.RGBA, bool) {
	free := make([]color.RGBA, 0, len(p.palette))
	for _, entry := range p.palette {
		if entry.Color.A != 0 && !p.inUse[entry.Color] {
			free = append(free, entry.Color)
		}
	}
	if len(free) == 0 {
		return color.RGBA{}, false
	}
	c := free[rng.Intn(len(free))]
	p.inUse[c] = true
	return c, true
}

// Release returns a color to the pool.
func (p *ColorPool) Release(c color.RGBA) {
	delete(p.inUse, c)
}

// InUse reports whether the color is currently held by a species.
func (p *ColorPool) InUse(c color.RGBA) bool {
	return p.inUse[c]
}

// Available returns the number of colors that can still be acquired.
func (p *ColorPool) Available() int {
	n := 0
	for _, entry := range p.palette {
		if entry.Color.A != 0 && !p.inUse[entry.Color] {
			n++
		}
	}
	return n
}

// Name returns the palette name of the color, or its hex form when it is not in the palette.
func (p *ColorPool) Name(c color.RGBA) string {
	for _, entry := range p.palette {
		if entry.Color == c {
			return entry.Name
		}
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
