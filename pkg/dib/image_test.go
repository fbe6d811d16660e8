package dib

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 10, 12, 11))
	img.SetNRGBA(10, 10, color.NRGBA{R: 1, G: 2, B: 3, A: 0xFF})
	img.SetNRGBA(11, 10, color.NRGBA{R: 4, G: 5, B: 6, A: 0xFF})

	bm := FromImage(img)
	assert.Equal(t, Bgra32, bm.Format)
	assert.Equal(t, 2, bm.Width)
	assert.False(t, bm.HasAlpha)
	assert.Equal(t, []byte{3, 2, 1, 0xFF, 6, 5, 4, 0xFF}, bm.Row(0))

	img.SetNRGBA(11, 10, color.NRGBA{R: 4, G: 5, B: 6, A: 0x10})
	assert.True(t, FromImage(img).HasAlpha)

	gray := image.NewGray(image.Rect(0, 0, 1, 1))
	gray.SetGray(0, 0, color.Gray{Y: 0x80})
	assert.Equal(t, []byte{0x80, 0x80, 0x80, 0xFF}, FromImage(gray).Row(0))
}

func TestFromImage_Paletted(t *testing.T) {
	img := image.NewPaletted(image.Rect(0, 0, 2, 1), color.Palette{color.White, color.Black})
	img.SetColorIndex(1, 0, 1)
	bm := FromImage(img)
	assert.Equal(t, Indexed8, bm.Format)
	assert.Equal(t, Palette{white, black}, bm.Palette)
	assert.Equal(t, []byte{0, 1}, bm.Row(0))

	translucent := image.NewPaletted(image.Rect(0, 0, 1, 1), color.Palette{color.Transparent})
	assert.Equal(t, Bgra32, FromImage(translucent).Format)
}

func TestBitmapImage(t *testing.T) {
	bm := NewBitmap(2, 1, Bgr565)
	copy(bm.Pix, []byte{0x00, 0xF8, 0x1F, 0x00})
	img, err := bm.Image()
	require.NoError(t, err)
	n, ok := img.(*image.NRGBA)
	require.True(t, ok)
	assert.Equal(t, color.NRGBA{R: 0xFF, A: 0xFF}, n.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{B: 0xFF, A: 0xFF}, n.NRGBAAt(1, 0))

	idx := NewBitmap(3, 1, Indexed2)
	idx.Palette = Palette{red, green}
	idx.Pix[0] = 0x18 // 0 1 2
	img, err = idx.Image()
	require.NoError(t, err)
	p, ok := img.(*image.Paletted)
	require.True(t, ok)
	assert.Len(t, p.Palette, 4)
	assert.Equal(t, []uint8{0, 1, 2}, p.Pix[:3])
	assert.Equal(t, color.NRGBA{A: 0xFF}, p.At(2, 0))
}

func TestEncodeImage_DecodeImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 80), G: uint8(y * 80), B: 9, A: 0xFF})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeImage(&buf, img, 0))
	assert.Equal(t, uint16(24), le16(buf.Bytes(), 28), "opaque images are written as 24bpp")

	cfg, err := DecodeConfig(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Width)
	assert.Equal(t, 2, cfg.Height)
	assert.Equal(t, color.NRGBAModel, cfg.ColorModel)

	out, err := DecodeImage(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, img.Pix, out.(*image.NRGBA).Pix)

	img.SetNRGBA(0, 0, color.NRGBA{R: 1, A: 0x40})
	buf.Reset()
	require.NoError(t, EncodeImage(&buf, img, 0))
	assert.Equal(t, uint32(V5HeaderSize), le32(buf.Bytes(), 14))
	out, err = DecodeImage(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, img.Pix, out.(*image.NRGBA).Pix)
}

func TestDecodeImage_Paletted(t *testing.T) {
	src := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{color.Black, color.White})
	src.SetColorIndex(1, 1, 1)
	var buf bytes.Buffer
	require.NoError(t, EncodeImage(&buf, src, 0))

	cfg, err := DecodeConfig(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	pal, ok := cfg.ColorModel.(color.Palette)
	require.True(t, ok)
	assert.Len(t, pal, 256)

	img, err := DecodeImage(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	p, ok := img.(*image.Paletted)
	require.True(t, ok)
	assert.Equal(t, uint8(1), p.ColorIndexAt(1, 1))
	assert.Equal(t, uint8(0), p.ColorIndexAt(0, 1))
}
