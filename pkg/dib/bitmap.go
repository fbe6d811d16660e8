package dib

import "slices"

// Bitmap is decoded pixel data in one catalog format. Rows are stored top-down
// with Stride bytes per row; Stride follows the BMP 4-byte alignment rule.
type Bitmap struct {
	Width    int
	Height   int
	Stride   int
	Format   PixelFormat
	Pix      []byte
	Palette  Palette // indexed formats only
	HasAlpha bool    // the alpha channel carries meaningful values

	DPIX, DPIY float64

	// Embedded holds an undecoded JPEG or PNG payload when no pixels could
	// be produced from it; EmbeddedKind names its compression.
	Embedded     []byte
	EmbeddedKind Compression
}

// NewBitmap allocates a zeroed bitmap
func NewBitmap(width, height int, f PixelFormat) *Bitmap {
	stride := f.Stride(width)
	return &Bitmap{
		Width:  width,
		Height: height,
		Stride: stride,
		Format: f,
		Pix:    make([]byte, stride*height),
	}
}

// Row returns row y, top row first, without padding
func (b *Bitmap) Row(y int) []byte {
	off := y * b.Stride
	return b.Pix[off : off+rowBytes(b.Format.BitsPerPixel(), b.Width)]
}

// Surface describes the bitmap as a conversion source
func (b *Bitmap) Surface() Surface {
	return Surface{
		Width:    b.Width,
		Height:   b.Height,
		Stride:   b.Stride,
		TopDown:  true,
		BitCount: b.Format.BitsPerPixel(),
		Masks:    b.Format.Masks(),
		HasAlpha: b.HasAlpha && b.Format.HasAlpha(),
		Format:   b.Format,
		Palette:  b.Palette,
		Pix:      b.Pix,
	}
}

// Clone returns a deep copy
func (b *Bitmap) Clone() *Bitmap {
	c := *b
	c.Pix = slices.Clone(b.Pix)
	c.Palette = slices.Clone(b.Palette)
	c.Embedded = slices.Clone(b.Embedded)
	return &c
}

// ConvertTo returns the bitmap in format f, or b itself when it already is
func (b *Bitmap) ConvertTo(f PixelFormat) (*Bitmap, error) {
	if b.Format == f {
		return b, nil
	}
	out := NewBitmap(b.Width, b.Height, f)
	out.DPIX, out.DPIY = b.DPIX, b.DPIY
	if err := Convert(b.Surface(), out, false); err != nil {
		return nil, err
	}
	return out, nil
}

func rowBytes(bpp, width int) int {
	return (bpp*width + 7) / 8
}
