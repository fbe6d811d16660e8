package dib

import (
	"fmt"
	"image"
	"image/color"
	"io"
)

func init() {
	image.RegisterFormat("bmp", "BM????\x00\x00\x00\x00", DecodeImage, DecodeConfig)
}

// Image exposes the bitmap through the image package: indexed formats become
// *image.Paletted, everything else *image.NRGBA.
func (b *Bitmap) Image() (image.Image, error) {
	if b.Pix == nil && len(b.Embedded) > 0 {
		return StdEmbedded{}.DecodeEmbedded(b.EmbeddedKind, b.Embedded)
	}
	rect := image.Rect(0, 0, b.Width, b.Height)
	if b.Format.IsIndexed() {
		pal := make(Palette, b.Format.PaletteSize())
		copy(pal, b.Palette)
		out := image.NewPaletted(rect, pal.Colors())
		bpp := b.Format.BitsPerPixel()
		for y := 0; y < b.Height; y++ {
			row := b.Row(y)
			dst := out.Pix[y*out.Stride:]
			for x := 0; x < b.Width; x++ {
				dst[x] = indexAt(row, x, bpp)
			}
		}
		return out, nil
	}

	src, err := b.ConvertTo(Bgra32)
	if err != nil {
		return nil, err
	}
	out := image.NewNRGBA(rect)
	for y := 0; y < b.Height; y++ {
		in := src.Row(y)
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < b.Width; x++ {
			p := in[x*4 : x*4+4]
			a := p[3]
			if !src.HasAlpha {
				a = 0xFF
			}
			dst[x*4], dst[x*4+1], dst[x*4+2], dst[x*4+3] = p[2], p[1], p[0], a
		}
	}
	return out, nil
}

func indexAt(row []byte, x, bpp int) byte {
	if bpp == 8 {
		return row[x]
	}
	perByte := 8 / bpp
	shift := 8 - bpp*(x%perByte+1)
	return (row[x/perByte] >> shift) & byte(1<<bpp-1)
}

// FromImage copies img into a bitmap. Paletted images with opaque palettes
// become Indexed8, everything else Bgra32 with HasAlpha set when any pixel is
// not opaque.
func FromImage(img image.Image) *Bitmap {
	r := img.Bounds()
	if p, ok := img.(*image.Paletted); ok && len(p.Palette) <= 256 && opaquePalette(p.Palette) {
		bm := NewBitmap(r.Dx(), r.Dy(), Indexed8)
		bm.Palette = PaletteFrom(p.Palette)
		for y := 0; y < bm.Height; y++ {
			off := p.PixOffset(r.Min.X, r.Min.Y+y)
			copy(bm.Pix[y*bm.Stride:], p.Pix[off:off+bm.Width])
		}
		return bm
	}

	bm := NewBitmap(r.Dx(), r.Dy(), Bgra32)
	opaque := true
	for y := 0; y < bm.Height; y++ {
		out := bm.Pix[y*bm.Stride:]
		if n, ok := img.(*image.NRGBA); ok {
			in := n.Pix[n.PixOffset(r.Min.X, r.Min.Y+y):]
			for x := 0; x < bm.Width; x++ {
				s := in[x*4 : x*4+4]
				out[x*4], out[x*4+1], out[x*4+2], out[x*4+3] = s[2], s[1], s[0], s[3]
				opaque = opaque && s[3] == 0xFF
			}
			continue
		}
		for x := 0; x < bm.Width; x++ {
			c := color.NRGBAModel.Convert(img.At(r.Min.X+x, r.Min.Y+y)).(color.NRGBA)
			out[x*4], out[x*4+1], out[x*4+2], out[x*4+3] = c.B, c.G, c.R, c.A
			opaque = opaque && c.A == 0xFF
		}
	}
	bm.HasAlpha = !opaque
	return bm
}

func opaquePalette(p color.Palette) bool {
	for _, c := range p {
		if _, _, _, a := c.RGBA(); a != 0xFFFF {
			return false
		}
	}
	return true
}

// DecodeImage reads a BMP for image.Decode. Indexed bitmaps decode to
// *image.Paletted.
func DecodeImage(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	res, err := Parse(data)
	if err != nil {
		return nil, err
	}
	opts := DefaultReadOptions()
	if res.Source.IsIndexed() {
		opts.Format = res.Source
	}
	bm, err := res.Decode(opts)
	if err != nil {
		return nil, err
	}
	return bm.Image()
}

// DecodeConfig reads the extent and color model for image.DecodeConfig
func DecodeConfig(r io.Reader) (image.Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return image.Config{}, err
	}
	res, err := Parse(data)
	if err != nil {
		return image.Config{}, err
	}
	cfg := image.Config{Width: res.Width, Height: res.Height, ColorModel: color.NRGBAModel}
	if res.Source.IsIndexed() {
		pal := make(Palette, res.Source.PaletteSize())
		copy(pal, res.Palette)
		cfg.ColorModel = pal.Colors()
	}
	return cfg, nil
}

// EncodeImage writes img as a BMP: Indexed8 for opaque paletted images,
// Bgra32 with a V5 header when alpha is present, Bgr24 otherwise.
func EncodeImage(w io.Writer, img image.Image, flags WriteFlags) error {
	bm := FromImage(img)
	dst := bm.Format
	if dst == Bgra32 && !bm.HasAlpha {
		dst = Bgr24
	}
	data, err := EncodeBitmap(bm, dst, flags)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write bmp: %w", err)
	}
	return nil
}
