// Package cms defines the color-management seam used by the DIB codec.
// The codec never links a color engine; the host supplies a Transformer that
// maps pixels described by an embedded ICC profile or calibrated-RGB
// parameters to sRGB.
package cms

import "fmt"

// Intent is a BMP rendering intent (the LCS_GM_* values of BITMAPV5HEADER).
type Intent uint32

const (
	IntentBusiness        Intent = 1 // saturation
	IntentGraphics        Intent = 2 // relative colorimetric
	IntentImages          Intent = 4 // perceptual
	IntentAbsColorimetric Intent = 8
)

// DefaultIntent is written when a profile is embedded without an explicit intent
const DefaultIntent = IntentImages

func (i Intent) String() string {
	switch i {
	case IntentBusiness:
		return "saturation"
	case IntentGraphics:
		return "relative-colorimetric"
	case IntentImages:
		return "perceptual"
	case IntentAbsColorimetric:
		return "absolute-colorimetric"
	}
	return fmt.Sprintf("intent(%d)", uint32(i))
}

// Layout tags the byte order of pixels handed to a Transformer.
type Layout int

const (
	LayoutNone  Layout = iota // not transformable (indexed or packed 16-bit)
	LayoutBGRA8               // B, G, R, A
	LayoutBGR8                // B, G, R
	LayoutRGB8                // R, G, B
)

func (l Layout) String() string {
	switch l {
	case LayoutBGRA8:
		return "BGRA8"
	case LayoutBGR8:
		return "BGR8"
	case LayoutRGB8:
		return "RGB8"
	}
	return "none"
}

// BytesPerPixel returns the pixel size of the layout, 0 for LayoutNone
func (l Layout) BytesPerPixel() int {
	switch l {
	case LayoutBGRA8:
		return 4
	case LayoutBGR8, LayoutRGB8:
		return 3
	}
	return 0
}

// XYZ is a CIE XYZ coordinate
type XYZ struct {
	X, Y, Z float64
}

// Calibration holds the calibrated-RGB parameters of a BITMAPV4HEADER:
// the red, green and blue endpoints and the per-channel gamma.
type Calibration struct {
	Red, Green, Blue                XYZ
	GammaRed, GammaGreen, GammaBlue float64
}

// Source describes the color space of decoded pixels. Exactly one of Profile
// or Calibration is set.
type Source struct {
	Profile     []byte
	Calibration *Calibration
	Intent      Intent
}

// IsZero reports whether the source carries no color-space information
func (s Source) IsZero() bool {
	return len(s.Profile) == 0 && s.Calibration == nil
}

// Frame is an in-place pixel buffer to transform
type Frame struct {
	Layout Layout
	Pix    []byte
	Width  int
	Height int
	Stride int
}

// Transformer converts a frame from the source color space to sRGB in place.
type Transformer interface {
	ToSRGB(src Source, f Frame) error
}

// TransformerFunc adapts a function to a Transformer
type TransformerFunc func(src Source, f Frame) error

func (fn TransformerFunc) ToSRGB(src Source, f Frame) error { return fn(src, f) }

// Nop leaves pixels untouched. It is the default for headless use.
type Nop struct{}

func (Nop) ToSRGB(Source, Frame) error { return nil }

// Fixed2Dot30 decodes an FXPT2DOT30 endpoint coordinate
func Fixed2Dot30(v int32) float64 {
	return float64(v) / (1 << 30)
}

// Fixed16Dot16 decodes a 16.16 fixed-point gamma value
func Fixed16Dot16(v uint32) float64 {
	return float64(v) / (1 << 16)
}
