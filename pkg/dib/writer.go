package dib

import (
	"fmt"
	"math"

	"github.com/jpfielding/dib.go/pkg/cms"
	"github.com/jpfielding/dib.go/pkg/layout"
)

// WriteFlags adjust encoding
type WriteFlags uint32

const (
	// ForceV5Header writes a BITMAPV5HEADER even without alpha or a profile
	ForceV5Header WriteFlags = 1 << iota
	// ForceInfoHeader writes a BITMAPINFOHEADER even when alpha is present
	ForceInfoHeader
	// SkipFileHeader produces a packed DIB, as used on the clipboard
	SkipFileHeader
)

// DefaultDPI is written when a request carries no resolution
const DefaultDPI = 96

// WriteRequest describes the pixels to encode
type WriteRequest struct {
	Width   int
	Height  int
	TopDown bool        // source rows are stored top row first
	Stride  int         // source row size, 0 for the BMP stride of Format
	Format  PixelFormat // source format
	Palette Palette     // required for indexed formats
	DPI     float64
	Flags   WriteFlags
	Profile []byte // ICC profile embedded after the pixel data
	Intent  cms.Intent
}

// Surface describes the request pixels as a conversion source
func (req WriteRequest) Surface(pix []byte) Surface {
	stride := req.Stride
	if stride == 0 {
		stride = req.Format.Stride(req.Width)
	}
	return Surface{
		Width:    req.Width,
		Height:   req.Height,
		Stride:   stride,
		TopDown:  req.TopDown,
		BitCount: req.Format.BitsPerPixel(),
		Masks:    req.Format.Masks(),
		HasAlpha: req.Format.HasAlpha(),
		Format:   req.Format,
		Palette:  req.Palette,
		Pix:      pix,
	}
}

func dpiToPPM(dpi float64) int32 {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return int32(math.Round(dpi / 0.0254))
}

// Encode converts pix to dst and serializes a bitmap. A zero dst keeps the
// source format. The header is BITMAPV5HEADER when dst has alpha or a profile
// is embedded, BITMAPINFOHEADER otherwise; the flags override the choice.
// 16 and 32 bpp output always uses BI_BITFIELDS. Rows are written bottom-up.
//
// Layout: file header, info header, masks (info header only), palette,
// pixels, profile.
func Encode(req WriteRequest, pix []byte, dst PixelFormat) ([]byte, error) {
	if dst == (PixelFormat{}) {
		dst = req.Format
	}
	if !dst.IsValid() || dst == Rgb24 {
		return nil, fmt.Errorf("%w: cannot write %v", ErrIncompatibleFormat, dst)
	}
	if !req.Format.IsValid() {
		return nil, fmt.Errorf("%w: source %v", ErrIncompatibleFormat, req.Format)
	}
	if req.Flags&ForceV5Header != 0 && req.Flags&ForceInfoHeader != 0 {
		return nil, fmt.Errorf("%w: conflicting header flags", ErrIncompatibleFormat)
	}
	if req.Flags&ForceInfoHeader != 0 && len(req.Profile) > 0 {
		return nil, fmt.Errorf("%w: color profile requires a V5 header", ErrIncompatibleFormat)
	}
	if req.Width < 0 || req.Height < 0 || int64(req.Width)*int64(req.Height) > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, req.Width, req.Height)
	}
	if dst.IsIndexed() && len(req.Palette) > dst.PaletteSize() {
		return nil, fieldErr(ErrOversizedPalette, "palette", int64(len(req.Palette)))
	}

	bm := NewBitmap(req.Width, req.Height, dst)
	if err := Convert(req.Surface(pix), bm, false); err != nil {
		return nil, err
	}

	v5 := dst.HasAlpha() || len(req.Profile) > 0 || req.Flags&ForceV5Header != 0
	if req.Flags&ForceInfoHeader != 0 {
		v5 = false
	}
	return writeBitmap(bm, req, v5), nil
}

// EncodeBitmap writes bm in format dst, or in its own format when dst is zero.
// A bitmap holding an undecoded payload is written with EncodeEmbedded.
func EncodeBitmap(bm *Bitmap, dst PixelFormat, flags WriteFlags) ([]byte, error) {
	if bm.Pix == nil && len(bm.Embedded) > 0 {
		return EncodeEmbedded(bm.Embedded, bm.EmbeddedKind, flags)
	}
	req := WriteRequest{
		Width:   bm.Width,
		Height:  bm.Height,
		TopDown: true,
		Stride:  bm.Stride,
		Format:  bm.Format,
		Palette: bm.Palette,
		DPI:     bm.DPIX,
		Flags:   flags,
	}
	return Encode(req, bm.Pix, dst)
}

func writeBitmap(bm *Bitmap, req WriteRequest, v5 bool) []byte {
	f := bm.Format
	bitfields := f.BitsPerPixel() == 16 || f.BitsPerPixel() == 32

	headerSize := InfoHeaderSize
	if v5 {
		headerSize = V5HeaderSize
	}
	maskBytes := 0
	if bitfields && !v5 {
		maskBytes = 12
	}
	paletteBytes := len(bm.Palette) * 4
	imageSize := bm.Stride * bm.Height
	fileHeader := FileHeaderSize
	if req.Flags&SkipFileHeader != 0 {
		fileHeader = 0
	}
	// offsets relative to the info header
	pixOff := headerSize + maskBytes + paletteBytes
	profileOff := pixOff + imageSize
	total := fileHeader + profileOff + len(req.Profile)

	w := layout.NewWriter(total)
	if fileHeader > 0 {
		w.U8('B')
		w.U8('M')
		w.U32(uint32(total))
		w.U32(0)
		w.U32(uint32(fileHeader + pixOff))
	}

	compression := uint32(biRGB)
	if bitfields {
		compression = biBitfields
	}
	ppm := dpiToPPM(req.DPI)
	w.U32(uint32(headerSize))
	w.I32(int32(bm.Width))
	w.I32(int32(bm.Height))
	w.U16(1)
	w.U16(uint16(f.BitsPerPixel()))
	w.U32(compression)
	w.U32(uint32(imageSize))
	w.I32(ppm)
	w.I32(ppm)
	w.U32(uint32(len(bm.Palette)))
	w.U32(0)

	var masks Masks
	if bitfields {
		masks = f.Masks()
	}
	if v5 {
		w.U32(masks.R)
		w.U32(masks.G)
		w.U32(masks.B)
		w.U32(masks.A)
		cs, intent := SRGB, req.Intent
		var profileData, profileSize uint32
		if len(req.Profile) > 0 {
			cs = ProfileEmbedded
			profileData, profileSize = uint32(profileOff), uint32(len(req.Profile))
		}
		if intent == 0 {
			intent = cms.DefaultIntent
		}
		w.U32(uint32(cs))
		w.Zero(36) // endpoints
		w.Zero(12) // gamma
		w.U32(uint32(intent))
		w.U32(profileData)
		w.U32(profileSize)
		w.U32(0)
	} else if bitfields {
		w.U32(masks.R)
		w.U32(masks.G)
		w.U32(masks.B)
	}

	for _, c := range bm.Palette {
		w.U8(c.B)
		w.U8(c.G)
		w.U8(c.R)
		w.U8(0)
	}
	for y := bm.Height - 1; y >= 0; y-- {
		w.Write(bm.Pix[y*bm.Stride : (y+1)*bm.Stride])
	}
	w.Write(req.Profile)
	return w.Bytes()
}

// EncodeEmbedded wraps a complete JPEG or PNG stream in a bitmap header. The
// extent is read from the payload.
func EncodeEmbedded(payload []byte, kind Compression, flags WriteFlags) ([]byte, error) {
	if !kind.IsEmbedded() {
		return nil, fmt.Errorf("%w: %v is not an embedded format", ErrUnsupportedCompression, kind)
	}
	cfg, err := embeddedConfig(kind, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v payload: %w", ErrIncompatibleFormat, kind, err)
	}

	headerSize := InfoHeaderSize
	if flags&ForceV5Header != 0 {
		headerSize = V5HeaderSize
	}
	fileHeader := FileHeaderSize
	if flags&SkipFileHeader != 0 {
		fileHeader = 0
	}
	total := fileHeader + headerSize + len(payload)

	w := layout.NewWriter(total)
	if fileHeader > 0 {
		w.U8('B')
		w.U8('M')
		w.U32(uint32(total))
		w.U32(0)
		w.U32(uint32(fileHeader + headerSize))
	}
	ppm := dpiToPPM(0)
	w.U32(uint32(headerSize))
	w.I32(int32(cfg.Width))
	w.I32(int32(cfg.Height))
	w.U16(1)
	w.U16(0)
	w.U32(kind.Raw())
	w.U32(uint32(len(payload)))
	w.I32(ppm)
	w.I32(ppm)
	w.U32(0)
	w.U32(0)
	if headerSize == V5HeaderSize {
		w.Zero(16) // masks
		w.U32(uint32(SRGB))
		w.Zero(48)
		w.U32(uint32(cms.DefaultIntent))
		w.Zero(12)
	}
	w.Write(payload)
	return w.Bytes(), nil
}
