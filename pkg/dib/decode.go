package dib

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/jpfielding/dib.go/pkg/cms"
	"github.com/jpfielding/dib.go/pkg/compress/huffman"
	"github.com/jpfielding/dib.go/pkg/compress/rle"
)

// ReadFlags adjust decoding
type ReadFlags uint32

const (
	// PreserveFakeAlpha keeps the alpha samples of 32bpp data without declared
	// alpha when any of them is non-zero
	PreserveFakeAlpha ReadFlags = 1 << iota
	// PreserveFormat decodes into the source format and fails when the source
	// has no catalog format
	PreserveFormat
	// ForceBGRA32 always decodes to Bgra32 and makes an undecodable embedded
	// payload an error
	ForceBGRA32
	// IgnoreColorProfile skips color management
	IgnoreColorProfile
)

// ReadOptions configures decoding
type ReadOptions struct {
	Format      PixelFormat     // requested format, zero for the default
	Flags       ReadFlags
	Transformer cms.Transformer // nil leaves pixels in the source color space
	Embedded    EmbeddedDecoder // nil uses StdEmbedded
	Logger      *slog.Logger    // nil uses slog.Default()
}

// DefaultReadOptions returns options decoding to Bgra32 with fake alpha
// preserved
func DefaultReadOptions() *ReadOptions {
	return &ReadOptions{
		Flags:    PreserveFakeAlpha,
		Embedded: StdEmbedded{},
	}
}

func (o *ReadOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *ReadOptions) embedded() EmbeddedDecoder {
	if o.Embedded != nil {
		return o.Embedded
	}
	return StdEmbedded{}
}

// Decode parses data and decodes its pixels. A nil opts uses DefaultReadOptions.
func Decode(data []byte, opts *ReadOptions) (*Bitmap, error) {
	r, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return r.Decode(opts)
}

// Decode materializes the pixels. RLE and Huffman data is expanded to Bgra32
// before converting to the target format. An embedded payload that cannot be
// decoded is returned undecoded in Bitmap.Embedded.
func (r *ReadResult) Decode(opts *ReadOptions) (*Bitmap, error) {
	if opts == nil {
		opts = DefaultReadOptions()
	}
	log := opts.logger()
	target, err := r.target(opts)
	if err != nil {
		return nil, err
	}

	if !r.Header.Compression.IsEmbedded() && (r.Width == 0 || r.Height == 0) {
		// nothing to expand
		bm := NewBitmap(r.Width, r.Height, target)
		if target.IsIndexed() {
			bm.Palette = slices.Clone(r.Palette)
		}
		bm.DPIX, bm.DPIY = r.DPI()
		return bm, nil
	}

	var bm *Bitmap
	switch r.Header.Compression {
	case JPEG, PNG:
		bm, err = r.decodeEmbedded(opts, log)
		if err == nil && bm.Pix == nil {
			bm.DPIX, bm.DPIY = r.DPI()
			return bm, nil
		}
	case RLE4, RLE8, RLE24:
		bm, err = r.decodeRLE()
	case Huffman1D:
		bm, err = r.decodeHuffman()
	default:
		bm = NewBitmap(r.Width, r.Height, target)
		err = Convert(r.Surface(), bm, opts.Flags&PreserveFakeAlpha != 0)
	}
	if err != nil {
		return nil, err
	}
	if bm, err = bm.ConvertTo(target); err != nil {
		return nil, err
	}
	bm.DPIX, bm.DPIY = r.DPI()
	r.applyColor(bm, opts, log)

	log.Debug("Decoded bitmap",
		slog.String("header", r.Header.Version()),
		slog.String("compression", r.Header.Compression.String()),
		slog.String("source", r.Source.String()),
		slog.String("format", bm.Format.String()),
		slog.Int("width", bm.Width),
		slog.Int("height", bm.Height),
		slog.Bool("alpha", bm.HasAlpha))
	return bm, nil
}

func (r *ReadResult) target(opts *ReadOptions) (PixelFormat, error) {
	if opts.Flags&ForceBGRA32 != 0 {
		return Bgra32, nil
	}
	f := opts.Format
	if f != (PixelFormat{}) && !f.IsValid() {
		return f, fmt.Errorf("%w: unknown format %v", ErrIncompatibleFormat, f)
	}
	if opts.Flags&PreserveFormat != 0 {
		if !r.Matched() {
			return f, fmt.Errorf("%w: %v data has no catalog format", ErrIncompatibleFormat, r.Header.Compression)
		}
		if f != (PixelFormat{}) && f != r.Source {
			return f, fmt.Errorf("%w: source is %v, requested %v", ErrIncompatibleFormat, r.Source, f)
		}
		return r.Source, nil
	}
	if f != (PixelFormat{}) {
		return f, nil
	}
	return Bgra32, nil
}

func (r *ReadResult) decodeRLE() (*Bitmap, error) {
	var mode rle.Mode
	switch r.Header.Compression {
	case RLE4:
		mode = rle.RLE4
	case RLE8:
		mode = rle.RLE8
	default:
		mode = rle.RLE24
	}
	bm := NewBitmap(r.Width, r.Height, Bgra32)
	frame := rle.Frame{Pix: bm.Pix, Width: bm.Width, Height: bm.Height, Stride: bm.Stride}
	if err := rle.Decode(r.Data, mode, r.Palette.packed(), frame); err != nil {
		return nil, err
	}
	return bm, nil
}

func (r *ReadResult) decodeHuffman() (*Bitmap, error) {
	if len(r.Palette) == 0 {
		return nil, ErrMissingPalette
	}
	stride := Stride(1, r.Width)
	buf := make([]byte, stride*r.Height)
	frame := huffman.Frame{Pix: buf, Width: r.Width, Height: r.Height, Stride: stride}
	if err := huffman.Decode(r.Data, frame); err != nil {
		return nil, err
	}
	src := Surface{
		Width:    r.Width,
		Height:   r.Height,
		Stride:   stride,
		BitCount: 1,
		Format:   Indexed1,
		Palette:  r.Palette,
		Pix:      buf,
	}
	bm := NewBitmap(r.Width, r.Height, Bgra32)
	if err := Convert(src, bm, false); err != nil {
		return nil, err
	}
	return bm, nil
}

func (r *ReadResult) decodeEmbedded(opts *ReadOptions, log *slog.Logger) (*Bitmap, error) {
	kind := r.Header.Compression
	img, err := opts.embedded().DecodeEmbedded(kind, r.Data)
	if err != nil {
		if opts.Flags&ForceBGRA32 != 0 {
			return nil, fmt.Errorf("%w: embedded %v: %w", ErrIncompatibleFormat, kind, err)
		}
		log.Warn("Embedded image not decoded, returning payload",
			slog.String("compression", kind.String()),
			slog.Int("size", len(r.Data)),
			slog.Any("error", err))
		return &Bitmap{
			Width:        r.Width,
			Height:       r.Height,
			Embedded:     slices.Clone(r.Data),
			EmbeddedKind: kind,
		}, nil
	}
	bm := FromImage(img)
	if bm.Width != r.Width || bm.Height != r.Height {
		log.Debug("Embedded image extent differs from header",
			slog.Int("width", bm.Width), slog.Int("height", bm.Height),
			slog.Int("headerWidth", r.Width), slog.Int("headerHeight", r.Height))
	}
	return bm, nil
}

// applyColor hands pixels or palette to the transformer. Failures are logged
// and leave the pixels as decoded.
func (r *ReadResult) applyColor(bm *Bitmap, opts *ReadOptions, log *slog.Logger) {
	if opts.Transformer == nil || opts.Flags&IgnoreColorProfile != 0 {
		return
	}
	src := r.ColorSource()
	if src.IsZero() {
		return
	}
	var err error
	switch {
	case bm.Format.IsIndexed():
		err = transformPalette(opts.Transformer, src, bm.Palette)
	case bm.Format.Layout() != cms.LayoutNone:
		err = opts.Transformer.ToSRGB(src, cms.Frame{
			Layout: bm.Format.Layout(),
			Pix:    bm.Pix,
			Width:  bm.Width,
			Height: bm.Height,
			Stride: bm.Stride,
		})
	default:
		log.Debug("Color transform skipped", slog.String("format", bm.Format.String()))
		return
	}
	if err != nil {
		log.Warn("Color transform failed", slog.Any("error", err))
	}
}

func transformPalette(t cms.Transformer, src cms.Source, pal Palette) error {
	if len(pal) == 0 {
		return nil
	}
	pix := make([]byte, len(pal)*4)
	for i, c := range pal {
		pix[i*4], pix[i*4+1], pix[i*4+2], pix[i*4+3] = c.B, c.G, c.R, 0xFF
	}
	err := t.ToSRGB(src, cms.Frame{Layout: cms.LayoutBGRA8, Pix: pix, Width: len(pal), Height: 1, Stride: len(pix)})
	if err != nil {
		return err
	}
	for i := range pal {
		pal[i] = BGR{B: pix[i*4], G: pix[i*4+1], R: pix[i*4+2]}
	}
	return nil
}
