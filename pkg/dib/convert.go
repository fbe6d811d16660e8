package dib

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"slices"
)

// Surface describes pixel data to convert: a row-major buffer of BitCount
// pixels whose channels are located by Masks, or palette indices for depths
// of 8 and below. Format is the matching catalog format, zero if none.
type Surface struct {
	Width    int
	Height   int
	Stride   int
	TopDown  bool
	BitCount int
	Masks    Masks
	HasAlpha bool
	Format   PixelFormat
	Palette  Palette
	Pix      []byte
}

func (s Surface) validate() error {
	if s.Width < 0 || s.Height < 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, s.Width, s.Height)
	}
	switch s.BitCount {
	case 1, 2, 4, 8, 16, 24, 32:
	default:
		return fieldErr(ErrInvalidBitCount, "bitCount", int64(s.BitCount))
	}
	rb := rowBytes(s.BitCount, s.Width)
	if s.Stride < rb {
		return fmt.Errorf("%w: stride %d below row size %d", ErrOutOfBounds, s.Stride, rb)
	}
	if s.Height > 0 && len(s.Pix) < s.Stride*(s.Height-1)+rb {
		return fmt.Errorf("%w: %d bytes for %d rows of stride %d", ErrOutOfBounds, len(s.Pix), s.Height, s.Stride)
	}
	return nil
}

// row returns stored row sy without padding
func (s Surface) row(sy int) []byte {
	off := sy * s.Stride
	return s.Pix[off : off+rowBytes(s.BitCount, s.Width)]
}

// target maps a stored row to its top-down position
func (s Surface) target(sy int) int {
	if s.TopDown {
		return sy
	}
	return s.Height - 1 - sy
}

// Convert writes src into dst, which must be allocated with the same extent.
// Identical formats with matching alpha are copied row by row. Indexed data
// expands through the palette and converts only to Bgra32. Everything else is
// rescaled per channel from its masks.
//
// When src has an alpha mask but no declared alpha, preserveFakeAlpha keeps
// the alpha samples if any of them is non-zero; otherwise output is opaque.
func Convert(src Surface, dst *Bitmap, preserveFakeAlpha bool) error {
	if err := src.validate(); err != nil {
		return err
	}
	if !dst.Format.IsValid() {
		return fmt.Errorf("%w: target %v", ErrIncompatibleFormat, dst.Format)
	}
	if dst.Width != src.Width || dst.Height != src.Height {
		return fmt.Errorf("%w: target %dx%d for source %dx%d", ErrInvalidDimensions, dst.Width, dst.Height, src.Width, src.Height)
	}
	if len(dst.Pix) < dst.Stride*dst.Height || dst.Stride < rowBytes(dst.Format.BitsPerPixel(), dst.Width) {
		return fmt.Errorf("%w: target buffer", ErrOutOfBounds)
	}

	switch {
	case dst.Format.IsIndexed():
		if src.Format != dst.Format {
			return fmt.Errorf("%w: %v to %v", ErrIncompatibleFormat, src.Format, dst.Format)
		}
		if len(src.Palette) == 0 {
			return ErrMissingPalette
		}
		copyRows(src, dst)
		dst.Palette = slices.Clone(src.Palette)
		dst.HasAlpha = false
	case src.Format == dst.Format && src.HasAlpha == dst.Format.HasAlpha():
		copyRows(src, dst)
		dst.HasAlpha = src.HasAlpha
	case src.BitCount <= 8:
		if dst.Format != Bgra32 {
			return fmt.Errorf("%w: indexed source to %v", ErrIncompatibleFormat, dst.Format)
		}
		if len(src.Palette) == 0 {
			return ErrMissingPalette
		}
		convertIndexed(src, dst)
		dst.HasAlpha = false
	default:
		convertMasks(src, dst, preserveFakeAlpha)
	}
	return nil
}

func copyRows(src Surface, dst *Bitmap) {
	for sy := 0; sy < src.Height; sy++ {
		dy := src.target(sy)
		in := src.row(sy)
		copy(dst.Pix[dy*dst.Stride:dy*dst.Stride+len(in)], in)
	}
}

func convertIndexed(src Surface, dst *Bitmap) {
	var lut [256]uint32
	for i := range lut {
		c := src.Palette.At(i)
		lut[i] = 0xFF000000 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
	}
	for sy := 0; sy < src.Height; sy++ {
		in := src.row(sy)
		out := dst.Pix[src.target(sy)*dst.Stride:]
		for x := 0; x < src.Width; x++ {
			binary.LittleEndian.PutUint32(out[x*4:], lut[indexAt(in, x, src.BitCount)])
		}
	}
}

// channel rescales a masked field to 8 bits: (v * ceil(255*2^24/max)) >> 24
type channel struct {
	mask  uint32
	shift int
	mult  uint64
}

func newChannel(mask uint32) channel {
	if mask == 0 {
		return channel{}
	}
	shift := bits.TrailingZeros32(mask)
	maxValue := uint64(mask >> shift)
	return channel{mask: mask, shift: shift, mult: (255<<24 + maxValue - 1) / maxValue}
}

func (c channel) scale(v uint32) uint8 {
	s := (uint64((v&c.mask)>>c.shift) * c.mult) >> 24
	return uint8(min(s, 255))
}

func readPixel(row []byte, x, bpp int) uint32 {
	switch bpp {
	case 16:
		return uint32(binary.LittleEndian.Uint16(row[x*2:]))
	case 24:
		p := row[x*3:]
		return uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16
	}
	return binary.LittleEndian.Uint32(row[x*4:])
}

type alphaMode int

const (
	alphaOpaque alphaMode = iota // fill 0xFF
	alphaMasked                  // take the alpha channel
	alphaProbe                   // fill 0xFF, stop at the first non-zero alpha sample
)

func convertMasks(src Surface, dst *Bitmap, preserveFakeAlpha bool) {
	switch {
	case src.HasAlpha && src.Masks.A != 0:
		convertRows(src, dst, alphaMasked)
		dst.HasAlpha = dst.Format.HasAlpha()
	case preserveFakeAlpha && src.Masks.A != 0:
		if convertRows(src, dst, alphaProbe) {
			// restart from the first row with alpha honored
			convertRows(src, dst, alphaMasked)
			dst.HasAlpha = dst.Format.HasAlpha()
			return
		}
		dst.HasAlpha = false
	default:
		convertRows(src, dst, alphaOpaque)
		dst.HasAlpha = false
	}
}

// convertRows reports whether probing found a non-zero alpha sample
func convertRows(src Surface, dst *Bitmap, mode alphaMode) bool {
	r, g, b, a := newChannel(src.Masks.R), newChannel(src.Masks.G), newChannel(src.Masks.B), newChannel(src.Masks.A)
	for sy := 0; sy < src.Height; sy++ {
		in := src.row(sy)
		out := dst.Pix[src.target(sy)*dst.Stride:]
		o := 0
		for x := 0; x < src.Width; x++ {
			v := readPixel(in, x, src.BitCount)
			alpha := uint8(0xFF)
			switch mode {
			case alphaMasked:
				alpha = a.scale(v)
			case alphaProbe:
				if v&a.mask != 0 {
					return true
				}
			}
			o += dst.Format.pack(out[o:], b.scale(v), g.scale(v), r.scale(v), alpha)
		}
	}
	return false
}
