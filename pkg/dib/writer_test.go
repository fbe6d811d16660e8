package dib

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"testing"

	"github.com/jpfielding/dib.go/pkg/cms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xbmp "golang.org/x/image/bmp"
)

func le32(b []byte, off int) uint32 { return binary.LittleEndian.Uint32(b[off:]) }
func le16(b []byte, off int) uint16 { return binary.LittleEndian.Uint16(b[off:]) }

// gradient fills a Bgra32 bitmap with distinct opaque pixels
func gradient(w, h int) *Bitmap {
	bm := NewBitmap(w, h, Bgra32)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := bgraAt(bm, x, y)
			p[0], p[1], p[2], p[3] = uint8(x*40), uint8(y*40), uint8(x*y*8), 0xFF
		}
	}
	return bm
}

func TestEncode_Layout(t *testing.T) {
	src := gradient(3, 2)

	tests := []struct {
		name        string
		dst         PixelFormat
		flags       WriteFlags
		headerSize  uint32
		compression uint32
		pixOff      uint32
		stride      int
	}{
		{"bgr24", Bgr24, 0, 40, 0, 54, 12},
		{"bgr565 adds masks", Bgr565, 0, 40, 3, 66, 8},
		{"bgr555 adds masks", Bgr555X, 0, 40, 3, 66, 8},
		{"bgra32 uses v5", Bgra32, 0, 124, 3, 138, 12},
		{"bgr5551 uses v5", Bgr5551, 0, 124, 3, 138, 8},
		{"forced v5", Bgr24, ForceV5Header, 124, 0, 138, 12},
		{"forced info header", Bgra32, ForceInfoHeader, 40, 3, 66, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeBitmap(src, tt.dst, tt.flags)
			require.NoError(t, err)
			assert.Equal(t, "BM", string(data[:2]))
			assert.Equal(t, uint32(len(data)), le32(data, 2))
			assert.Equal(t, tt.pixOff, le32(data, 10))
			assert.Equal(t, tt.headerSize, le32(data, 14))
			assert.Equal(t, uint32(3), le32(data, 18))
			assert.Equal(t, uint32(2), le32(data, 22), "bottom-up")
			assert.Equal(t, uint16(1), le16(data, 26))
			assert.Equal(t, uint16(tt.dst.BitsPerPixel()), le16(data, 28))
			assert.Equal(t, tt.compression, le32(data, 30))
			assert.Equal(t, uint32(tt.stride*2), le32(data, 34))
			assert.Equal(t, uint32(3780), le32(data, 38))
			assert.Equal(t, int(tt.pixOff)+tt.stride*2, len(data))

			if tt.compression == 3 {
				m := tt.dst.Masks()
				assert.Equal(t, m.R, le32(data, 54))
				assert.Equal(t, m.G, le32(data, 58))
				assert.Equal(t, m.B, le32(data, 62))
				if tt.headerSize == V5HeaderSize {
					assert.Equal(t, m.A, le32(data, 66))
				}
			}
			if tt.headerSize == V5HeaderSize {
				assert.Equal(t, uint32(SRGB), le32(data, 70))
				assert.Equal(t, uint32(cms.IntentImages), le32(data, 14+108))
			}
		})
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	src := gradient(5, 3)
	for _, f := range []PixelFormat{Bgr555X, Bgr5551, Bgr565, Bgr24, Bgra32} {
		t.Run(f.String(), func(t *testing.T) {
			want, err := src.ConvertTo(f)
			require.NoError(t, err)

			data, err := EncodeBitmap(want, PixelFormat{}, 0)
			require.NoError(t, err)
			got, err := Decode(data, &ReadOptions{Flags: PreserveFormat})
			require.NoError(t, err)
			assert.Equal(t, f, got.Format)
			assert.Equal(t, want.Stride, got.Stride)
			assert.Equal(t, want.Pix, got.Pix)
		})
	}
}

func TestEncode_IndexedRoundTrip(t *testing.T) {
	for _, f := range []PixelFormat{Indexed1, Indexed2, Indexed4, Indexed8} {
		t.Run(f.String(), func(t *testing.T) {
			bm := NewBitmap(5, 2, f)
			bm.Palette = Palette{red, green}
			// indices 0 and 1 alternating at the start of the top row
			bm.Pix[0] = map[PixelFormat]byte{Indexed1: 0x50, Indexed2: 0x44, Indexed4: 0x10, Indexed8: 0}[f]
			if f == Indexed8 {
				bm.Pix[1], bm.Pix[3] = 1, 1
			}
			data, err := EncodeBitmap(bm, PixelFormat{}, 0)
			require.NoError(t, err)
			assert.Equal(t, uint32(2), le32(data, 46), "colors used")
			assert.Equal(t, uint32(14+40+8), le32(data, 10))

			got, err := Decode(data, &ReadOptions{Flags: PreserveFormat})
			require.NoError(t, err)
			assert.Equal(t, f, got.Format)
			assert.Equal(t, bm.Palette, got.Palette)
			assert.Equal(t, bm.Pix, got.Pix)
		})
	}
}

func TestEncode_SourceLayout(t *testing.T) {
	// bottom-up Bgr24 source rows with a padded stride of 16
	pix := make([]byte, 32)
	copy(pix[0:], []byte{0xFF, 0, 0, 0xFF, 0, 0})   // bottom: blue blue
	copy(pix[16:], []byte{0, 0, 0xFF, 0, 0, 0xFF}) // top: red red
	req := WriteRequest{Width: 2, Height: 2, Stride: 16, Format: Bgr24}
	data, err := Encode(req, pix, Bgra32)
	require.NoError(t, err)

	bm, err := Decode(data, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0xFF, 0xFF}, bgraAt(bm, 1, 0))
	assert.Equal(t, []byte{0xFF, 0, 0, 0xFF}, bgraAt(bm, 1, 1))

	req.TopDown = true
	data, err = Encode(req, pix, Bgr24)
	require.NoError(t, err)
	bm, err = Decode(data, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0, 0, 0xFF}, bgraAt(bm, 0, 0))
}

func TestEncode_Profile(t *testing.T) {
	profile := []byte("fake icc profile bytes")
	src := gradient(2, 2)
	req := WriteRequest{Width: 2, Height: 2, TopDown: true, Format: Bgra32, Stride: src.Stride, Profile: profile, DPI: 300}
	data, err := Encode(req, src.Pix, Bgr24)
	require.NoError(t, err)

	assert.Equal(t, uint32(V5HeaderSize), le32(data, 14))
	assert.Equal(t, uint32(0), le32(data, 30), "24bpp stays BI_RGB")
	assert.Equal(t, uint32(11811), le32(data, 38))
	assert.Equal(t, uint32(ProfileEmbedded), le32(data, 70))
	assert.Equal(t, uint32(124+8*2), le32(data, 14+112), "offset from the info header")
	assert.Equal(t, uint32(len(profile)), le32(data, 14+116))
	assert.True(t, bytes.HasSuffix(data, profile))

	res, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, profile, res.Profile)
	assert.Equal(t, cms.IntentImages, res.ColorSource().Intent)
	dpi, _ := res.DPI()
	assert.InDelta(t, 300.0, dpi, 0.01)
}

func TestEncode_PackedDIB(t *testing.T) {
	src := gradient(2, 2)
	for _, f := range []PixelFormat{Bgr24, Bgr565, Bgra32} {
		data, err := EncodeBitmap(src, f, SkipFileHeader)
		require.NoError(t, err)
		assert.NotEqual(t, "BM", string(data[:2]))

		res, err := Parse(data)
		require.NoError(t, err)
		assert.False(t, res.HasFileHeader)
		assert.Equal(t, f, res.Source)
	}
}

func TestEncode_Errors(t *testing.T) {
	src := gradient(2, 2)
	req := WriteRequest{Width: 2, Height: 2, TopDown: true, Format: Bgra32, Stride: src.Stride}

	_, err := Encode(req, src.Pix, Rgb24)
	assert.ErrorIs(t, err, ErrIncompatibleFormat)

	_, err = Encode(req, src.Pix, Indexed8)
	assert.ErrorIs(t, err, ErrIncompatibleFormat)

	bad := req
	bad.Flags = ForceInfoHeader
	bad.Profile = []byte{1}
	_, err = Encode(bad, src.Pix, Bgra32)
	assert.ErrorIs(t, err, ErrIncompatibleFormat)

	bad = req
	bad.Flags = ForceInfoHeader | ForceV5Header
	_, err = Encode(bad, src.Pix, Bgra32)
	assert.ErrorIs(t, err, ErrIncompatibleFormat)

	_, err = Encode(req, src.Pix[:10], Bgra32)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	bad = req
	bad.Width = -1
	_, err = Encode(bad, src.Pix, Bgra32)
	assert.ErrorIs(t, err, ErrInvalidDimensions)

	indexed := WriteRequest{Width: 1, Height: 1, Format: Indexed1, Palette: make(Palette, 3)}
	_, err = Encode(indexed, make([]byte, 4), Indexed1)
	assert.ErrorIs(t, err, ErrOversizedPalette)

	indexed.Palette = nil
	_, err = Encode(indexed, make([]byte, 4), Indexed1)
	assert.ErrorIs(t, err, ErrMissingPalette)
}

func TestEncodeEmbedded(t *testing.T) {
	payload := testPNG(t)
	data, err := EncodeEmbedded(payload, PNG, ForceV5Header)
	require.NoError(t, err)
	assert.Equal(t, uint32(V5HeaderSize), le32(data, 14))
	assert.Equal(t, uint16(0), le16(data, 28))
	assert.Equal(t, uint32(5), le32(data, 30))
	assert.Equal(t, uint32(len(payload)), le32(data, 34))
	assert.Equal(t, uint32(14+124), le32(data, 10))
	assert.True(t, bytes.HasSuffix(data, payload))

	res, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, payload, res.Embedded())

	_, err = EncodeEmbedded([]byte("junk"), JPEG, 0)
	assert.ErrorIs(t, err, ErrIncompatibleFormat)
	_, err = EncodeEmbedded(payload, RLE8, 0)
	assert.ErrorIs(t, err, ErrUnsupportedCompression)
}

func TestEncode_UndecodedPayloadRewritten(t *testing.T) {
	payload := testPNG(t)
	bm := &Bitmap{Width: 2, Height: 1, Embedded: payload, EmbeddedKind: PNG}
	data, err := EncodeBitmap(bm, PixelFormat{}, 0)
	require.NoError(t, err)
	res, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, PNG, res.Compression())
}

func TestEncode_Oracle(t *testing.T) {
	src := gradient(7, 5)

	t.Run("x/image reads our 24bpp output", func(t *testing.T) {
		data, err := EncodeBitmap(src, Bgr24, 0)
		require.NoError(t, err)
		img, err := xbmp.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		for y := 0; y < 5; y++ {
			for x := 0; x < 7; x++ {
				p := bgraAt(src, x, y)
				want := color.NRGBA{R: p[2], G: p[1], B: p[0], A: 0xFF}
				got := color.NRGBAModel.Convert(img.At(x, y))
				require.Equal(t, want, got, "pixel %d,%d", x, y)
			}
		}
	})

	t.Run("x/image reads our 8bpp output", func(t *testing.T) {
		bm := NewBitmap(3, 1, Indexed8)
		bm.Palette = Palette{red, green, blue}
		copy(bm.Pix, []byte{2, 1, 0})
		data, err := EncodeBitmap(bm, PixelFormat{}, 0)
		require.NoError(t, err)
		img, err := xbmp.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, color.NRGBA{B: 0xFF, A: 0xFF}, color.NRGBAModel.Convert(img.At(0, 0)))
		assert.Equal(t, color.NRGBA{R: 0xFF, A: 0xFF}, color.NRGBAModel.Convert(img.At(2, 0)))
	})

	t.Run("we read x/image output", func(t *testing.T) {
		img := image.NewNRGBA(image.Rect(0, 0, 7, 5))
		for y := 0; y < 5; y++ {
			for x := 0; x < 7; x++ {
				img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 30), G: uint8(y * 50), B: 7, A: 0xFF})
			}
		}
		var buf bytes.Buffer
		require.NoError(t, xbmp.Encode(&buf, img))

		bm, err := Decode(buf.Bytes(), nil)
		require.NoError(t, err)
		for y := 0; y < 5; y++ {
			for x := 0; x < 7; x++ {
				require.Equal(t, []byte{7, uint8(y * 50), uint8(x * 30), 0xFF}, bgraAt(bm, x, y), "pixel %d,%d", x, y)
			}
		}
	})
}
