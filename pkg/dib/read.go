package dib

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/jpfielding/dib.go/pkg/cms"
	"github.com/jpfielding/dib.go/pkg/layout"
)

// maxPixels bounds width*height, and each axis on its own, so a hostile
// header cannot demand an unbounded allocation or loop. It applies to RLE and
// Huffman bitmaps too: a two byte end-of-bitmap stream legally describes an
// image of any extent, so the compressed size gives no tighter bound.
const maxPixels = 1 << 28

// ReadResult is a parsed bitmap: the normalized header plus views of the
// palette, pixel region and color profile inside the input buffer.
type ReadResult struct {
	Header        Header
	HasFileHeader bool
	FileSize      uint32 // bfSize, informational

	Width   int
	Height  int
	TopDown bool
	Stride  int

	Masks    Masks
	HasAlpha bool        // alpha declared by an explicit mask
	Source   PixelFormat // zero when no catalog format matches

	Palette     Palette
	DataOffset  int
	Data        []byte
	Profile     []byte
	Calibration *cms.Calibration
}

// Compression returns the normalized compression mode
func (r *ReadResult) Compression() Compression { return r.Header.Compression }

// Matched reports whether the pixel data is in a catalog format
func (r *ReadResult) Matched() bool { return r.Source != PixelFormat{} }

// Embedded returns the JPEG or PNG payload, nil for other modes
func (r *ReadResult) Embedded() []byte {
	if r.Header.Compression.IsEmbedded() {
		return r.Data
	}
	return nil
}

// DPI converts the header resolution from pixels per meter
func (r *ReadResult) DPI() (float64, float64) {
	return ppmToDPI(r.Header.XPelsPerMeter), ppmToDPI(r.Header.YPelsPerMeter)
}

func ppmToDPI(ppm int32) float64 {
	if ppm <= 0 {
		return 0
	}
	return math.Round(float64(ppm)*0.0254*100) / 100
}

// ColorSource describes the color space the pixels are in, zero for sRGB
func (r *ReadResult) ColorSource() cms.Source {
	intent := r.Header.Intent
	if intent == 0 {
		intent = cms.DefaultIntent
	}
	return cms.Source{Profile: r.Profile, Calibration: r.Calibration, Intent: intent}
}

// Surface describes the pixel region for Convert
func (r *ReadResult) Surface() Surface {
	return Surface{
		Width:    r.Width,
		Height:   r.Height,
		Stride:   r.Stride,
		TopDown:  r.TopDown,
		BitCount: int(r.Header.BitCount),
		Masks:    r.Masks,
		HasAlpha: r.HasAlpha,
		Format:   r.Source,
		Palette:  r.Palette,
		Pix:      r.Data,
	}
}

func truncated(err error) error {
	return fmt.Errorf("%w: %w", ErrTruncated, err)
}

func outOfBounds(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrOutOfBounds, what, err)
}

// Parse reads a BMP file or a packed DIB (info header, masks, palette and
// pixels with no file header). The returned views alias data.
func Parse(data []byte) (*ReadResult, error) {
	r := layout.NewReader(data)
	res := &ReadResult{}

	var offBits uint32
	if len(data) >= 2 && data[0] == 'B' && data[1] == 'M' {
		hr := headerReader{r: r}
		_ = hr.u16()
		res.FileSize = hr.u32()
		_, _ = hr.u16(), hr.u16()
		offBits = hr.u32()
		if hr.err != nil {
			return nil, truncated(hr.err)
		}
		res.HasFileHeader = true
	}

	infoStart := r.Offset()
	size, err := r.U32()
	if err != nil {
		return nil, truncated(err)
	}
	if !supportedHeader(size) {
		return nil, fieldErr(ErrUnsupportedHeader, "size", int64(size))
	}
	hb, err := r.Slice(int64(infoStart), int64(size))
	if err != nil {
		return nil, truncated(err)
	}
	h, err := parseHeader(hb)
	if err != nil {
		return nil, truncated(err)
	}
	if err := r.Seek(infoStart + int(size)); err != nil {
		return nil, truncated(err)
	}

	if h.Size == CoreHeaderSize {
		h.Compression = Uncompressed
	} else if h.Compression, err = normalizeCompression(h.RawCompression, h.BitCount); err != nil {
		return nil, err
	}
	res.Header = h

	if err := res.dimensions(); err != nil {
		return nil, err
	}
	if h.Planes != 1 {
		slog.Debug("Ignoring plane count", slog.Int("planes", int(h.Planes)))
	}
	if err := res.validateBitCount(); err != nil {
		return nil, err
	}
	if err := res.readMasks(r); err != nil {
		return nil, err
	}
	if err := res.readPalette(r, offBits); err != nil {
		return nil, err
	}

	res.DataOffset = r.Offset()
	if res.HasFileHeader && offBits != 0 {
		if int(offBits) < infoStart+int(size) {
			slog.Debug("Pixel offset inside header, using computed offset",
				slog.Uint64("offBits", uint64(offBits)), slog.Int("computed", res.DataOffset))
		} else {
			res.DataOffset = int(offBits)
		}
	}
	if err := res.locateData(r); err != nil {
		return nil, err
	}
	if err := res.locateColorSpace(r, infoStart); err != nil {
		return nil, err
	}

	if !h.Compression.IsEncoded() {
		res.Source, _ = Match(h.BitCount, res.Masks, res.HasAlpha)
	}
	return res, nil
}

func (r *ReadResult) dimensions() error {
	h := &r.Header
	if h.Width < 0 {
		return fieldErr(ErrInvalidDimensions, "width", int64(h.Width))
	}
	height := int64(h.Height)
	if height < 0 {
		height = -height
		// RLE and Huffman streams are always bottom-up
		r.TopDown = !h.Compression.IsEncoded()
	}
	if int64(h.Width) > maxPixels {
		return fieldErr(ErrInvalidDimensions, "width", int64(h.Width))
	}
	if height > maxPixels {
		return fieldErr(ErrInvalidDimensions, "height", height)
	}
	if int64(h.Width)*height > maxPixels {
		return fieldErr(ErrInvalidDimensions, "pixels", int64(h.Width)*height)
	}
	r.Width = int(h.Width)
	r.Height = int(height)
	return nil
}

func (r *ReadResult) validateBitCount() error {
	h := &r.Header
	switch h.Compression {
	case Bitfields, AlphaBitfields:
		switch h.BitCount {
		case 16, 24, 32:
			return nil
		}
		return fieldErr(ErrInvalidBitCount, "bitCount", int64(h.BitCount))
	case Uncompressed:
		switch h.BitCount {
		case 1, 2, 4, 8, 16, 24, 32:
			return nil
		}
		return fieldErr(ErrInvalidBitCount, "bitCount", int64(h.BitCount))
	}
	// encoded modes define their own sample size
	return nil
}

func (r *ReadResult) readMasks(rd *layout.Reader) error {
	h := &r.Header
	var m Masks
	switch h.Compression {
	case Bitfields, AlphaBitfields:
		if h.hasMasks() {
			m = h.Masks
		} else {
			hr := headerReader{r: rd}
			m.R, m.G, m.B = hr.u32(), hr.u32(), hr.u32()
			if h.Compression == AlphaBitfields {
				m.A = hr.u32()
			}
			if hr.err != nil {
				return truncated(hr.err)
			}
		}
		r.HasAlpha = m.A != 0
	case Uncompressed:
		switch h.BitCount {
		case 32:
			// the alpha mask is speculative; see PreserveFakeAlpha
			m = Bgra32.masks
		case 24:
			m = Bgr24.masks
		case 16:
			m = Bgr555X.masks
		}
	}
	if h.BitCount > 8 && !h.Compression.IsEncoded() {
		if err := validateMasks(m, h.BitCount); err != nil {
			return err
		}
	}
	r.Masks = m
	return nil
}

func validateMasks(m Masks, bpp uint16) error {
	if m.RGB() == (Masks{}) {
		return fieldErr(ErrInvalidMasks, "rgb", 0)
	}
	limit := uint32(math.MaxUint32)
	if bpp < 32 {
		limit = 1<<bpp - 1
	}
	for i, v := range []uint32{m.R, m.G, m.B, m.A} {
		if v&^limit != 0 {
			return fieldErr(ErrInvalidMasks, "mask"+"RGBA"[i:i+1], int64(v))
		}
	}
	if m.R&m.G != 0 || m.R&m.B != 0 || m.G&m.B != 0 || (m.R|m.G|m.B)&m.A != 0 {
		return fmt.Errorf("%w: overlapping masks %v", ErrInvalidMasks, m)
	}
	return nil
}

func (r *ReadResult) readPalette(rd *layout.Reader, offBits uint32) error {
	h := &r.Header
	entry := 4
	if h.Size == CoreHeaderSize {
		entry = 3
	}

	bits := int(h.BitCount)
	switch h.Compression {
	case RLE4:
		if bits == 0 || bits > 8 {
			bits = 4
		}
	case RLE8:
		if bits == 0 || bits > 8 {
			bits = 8
		}
	case RLE24, JPEG, PNG:
		bits = 0
	}

	var n int64
	switch {
	case bits > 0 && bits <= 8:
		n = 1 << bits
		if h.ClrUsed != 0 {
			n = int64(h.ClrUsed)
		}
		if h.Size == CoreHeaderSize && r.HasFileHeader && int64(offBits) > int64(rd.Offset()) {
			// OS/2 1.x writers often store fewer entries than the depth allows
			n = min(n, (int64(offBits)-int64(rd.Offset()))/3)
		}
	default:
		n = int64(h.ClrUsed)
	}

	if n > 256 {
		if !r.HasFileHeader {
			return fieldErr(ErrOversizedPalette, "clrUsed", n)
		}
		slog.Debug("Clamping palette", slog.Int64("entries", n))
		n = 256
	}

	b, err := rd.Bytes(int(n) * entry)
	if err != nil {
		return truncated(err)
	}
	r.Palette = make(Palette, n)
	for i := range r.Palette {
		p := b[i*entry:]
		r.Palette[i] = BGR{B: p[0], G: p[1], R: p[2]}
	}
	return nil
}

func (r *ReadResult) locateData(rd *layout.Reader) error {
	h := &r.Header
	var n int64
	if h.Compression.IsEncoded() {
		n = int64(h.SizeImage)
		if n == 0 {
			n = int64(rd.Len()) - int64(r.DataOffset)
		}
	} else {
		st := stride64(int64(h.BitCount), int64(r.Width))
		r.Stride = int(st)
		n = st * int64(r.Height)
	}
	b, err := rd.Slice(int64(r.DataOffset), n)
	if err != nil {
		return outOfBounds("pixel data", err)
	}
	r.Data = b
	return nil
}

func (r *ReadResult) locateColorSpace(rd *layout.Reader, infoStart int) error {
	h := &r.Header
	switch h.ColorSpace {
	case ProfileEmbedded:
		if h.ProfileSize == 0 {
			return nil
		}
		b, err := rd.Slice(int64(infoStart)+int64(h.ProfileData), int64(h.ProfileSize))
		if err != nil {
			return outOfBounds("color profile", err)
		}
		r.Profile = b
	case ProfileLinked:
		slog.Debug("Linked color profile not followed")
	case CalibratedRGB:
		if h.Size >= V4HeaderSize {
			r.Calibration = h.Calibration()
		}
	}
	return nil
}
