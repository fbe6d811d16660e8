package dib

import (
	"fmt"

	"github.com/jpfielding/dib.go/pkg/cms"
)

// Masks are the channel bit masks of a direct-color pixel
type Masks struct {
	R, G, B, A uint32
}

// RGB returns the masks without alpha
func (m Masks) RGB() Masks {
	return Masks{R: m.R, G: m.G, B: m.B}
}

func (m Masks) String() string {
	return fmt.Sprintf("R=%#08x G=%#08x B=%#08x A=%#08x", m.R, m.G, m.B, m.A)
}

// PixelFormat identifies one of the pixel layouts the codec can produce or
// consume. Formats compare by value: bit depth and masks define identity.
// The zero value is "no format".
type PixelFormat struct {
	bpp   uint16
	masks Masks
}

var (
	Indexed1 = PixelFormat{bpp: 1}
	Indexed2 = PixelFormat{bpp: 2}
	Indexed4 = PixelFormat{bpp: 4}
	Indexed8 = PixelFormat{bpp: 8}
	Bgr555X  = PixelFormat{bpp: 16, masks: Masks{R: 0x7C00, G: 0x03E0, B: 0x001F}}
	Bgr5551  = PixelFormat{bpp: 16, masks: Masks{R: 0x7C00, G: 0x03E0, B: 0x001F, A: 0x8000}}
	Bgr565   = PixelFormat{bpp: 16, masks: Masks{R: 0xF800, G: 0x07E0, B: 0x001F}}
	Rgb24    = PixelFormat{bpp: 24, masks: Masks{R: 0x0000FF, G: 0x00FF00, B: 0xFF0000}}
	Bgr24    = PixelFormat{bpp: 24, masks: Masks{R: 0xFF0000, G: 0x00FF00, B: 0x0000FF}}
	Bgra32   = PixelFormat{bpp: 32, masks: Masks{R: 0x00FF0000, G: 0x0000FF00, B: 0x000000FF, A: 0xFF000000}}
)

// catalog order matters to Match: Bgr555X precedes Bgr5551.
var catalog = [...]PixelFormat{
	Indexed1, Indexed2, Indexed4, Indexed8,
	Bgr555X, Bgr5551, Bgr565,
	Rgb24, Bgr24, Bgra32,
}

// Formats returns the supported formats in match order
func Formats() []PixelFormat {
	c := catalog
	return c[:]
}

// Match finds the catalog format for a bit depth and mask set. Indexed formats
// match on depth alone. Without declared alpha only the color masks are
// compared.
func Match(bpp uint16, masks Masks, hasAlpha bool) (PixelFormat, bool) {
	for _, f := range catalog {
		if f.bpp != bpp {
			continue
		}
		if f.IsIndexed() {
			return f, true
		}
		if hasAlpha {
			if f.masks == masks {
				return f, true
			}
			continue
		}
		if f.masks.RGB() == masks.RGB() {
			return f, true
		}
	}
	return PixelFormat{}, false
}

// IsValid reports whether f is a catalog member
func (f PixelFormat) IsValid() bool {
	for _, c := range catalog {
		if c == f {
			return true
		}
	}
	return false
}

func (f PixelFormat) BitsPerPixel() int { return int(f.bpp) }

func (f PixelFormat) Masks() Masks { return f.masks }

func (f PixelFormat) IsIndexed() bool { return f.bpp > 0 && f.bpp <= 8 }

func (f PixelFormat) HasAlpha() bool { return f.masks.A != 0 }

// PaletteSize is the number of entries an indexed format addresses
func (f PixelFormat) PaletteSize() int {
	if !f.IsIndexed() {
		return 0
	}
	return 1 << f.bpp
}

// Stride returns the BMP row size in bytes for width pixels: rows are padded
// to a multiple of 4 bytes.
func (f PixelFormat) Stride(width int) int {
	return Stride(int(f.bpp), width)
}

// Stride computes the 4-byte aligned row size of width pixels at bpp bits
func Stride(bpp, width int) int {
	return int(stride64(int64(bpp), int64(width)))
}

func stride64(bpp, width int64) int64 {
	return (bpp*width + 31) / 32 * 4
}

// Layout returns the color-management byte layout, LayoutNone when the format
// cannot be transformed directly.
func (f PixelFormat) Layout() cms.Layout {
	switch f {
	case Bgra32:
		return cms.LayoutBGRA8
	case Bgr24:
		return cms.LayoutBGR8
	case Rgb24:
		return cms.LayoutRGB8
	}
	return cms.LayoutNone
}

func (f PixelFormat) String() string {
	switch f {
	case Indexed1:
		return "Indexed1"
	case Indexed2:
		return "Indexed2"
	case Indexed4:
		return "Indexed4"
	case Indexed8:
		return "Indexed8"
	case Bgr555X:
		return "Bgr555X"
	case Bgr5551:
		return "Bgr5551"
	case Bgr565:
		return "Bgr565"
	case Rgb24:
		return "Rgb24"
	case Bgr24:
		return "Bgr24"
	case Bgra32:
		return "Bgra32"
	case PixelFormat{}:
		return "None"
	}
	return fmt.Sprintf("PixelFormat(%dbpp %v)", f.bpp, f.masks)
}

// ParseFormat resolves a format by name, case sensitive, as printed by String
func ParseFormat(name string) (PixelFormat, error) {
	for _, f := range catalog {
		if f.String() == name {
			return f, nil
		}
	}
	return PixelFormat{}, fmt.Errorf("%w: unknown format %q", ErrIncompatibleFormat, name)
}

// pack writes one direct-color pixel to dst and returns the bytes written.
// It must not be called for indexed formats.
func (f PixelFormat) pack(dst []byte, b, g, r, a uint8) int {
	switch f {
	case Bgra32:
		dst[0], dst[1], dst[2], dst[3] = b, g, r, a
		return 4
	case Bgr24:
		dst[0], dst[1], dst[2] = b, g, r
		return 3
	case Rgb24:
		dst[0], dst[1], dst[2] = r, g, b
		return 3
	case Bgr565:
		v := uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
		dst[0], dst[1] = byte(v), byte(v>>8)
		return 2
	case Bgr555X, Bgr5551:
		v := uint16(r>>3)<<10 | uint16(g>>3)<<5 | uint16(b>>3)
		if f == Bgr5551 && a >= 0x80 {
			v |= 0x8000
		}
		dst[0], dst[1] = byte(v), byte(v>>8)
		return 2
	}
	panic("dib: pack called for " + f.String())
}
