package dib

import (
	"fmt"

	"github.com/jpfielding/dib.go/pkg/cms"
	"github.com/jpfielding/dib.go/pkg/layout"
)

// Header sizes of the supported layouts
const (
	CoreHeaderSize  = 12  // BITMAPCOREHEADER (OS/2 1.x)
	OS2ShortSize    = 16  // truncated BITMAPINFOHEADER2
	InfoHeaderSize  = 40  // BITMAPINFOHEADER
	V2HeaderSize    = 52  // BITMAPV2INFOHEADER
	V3HeaderSize    = 56  // BITMAPV3INFOHEADER
	OS2V2HeaderSize = 64  // BITMAPINFOHEADER2 (OS/2 2.x)
	V4HeaderSize    = 108 // BITMAPV4HEADER
	V5HeaderSize    = 124 // BITMAPV5HEADER

	FileHeaderSize = 14
)

func supportedHeader(size uint32) bool {
	switch size {
	case CoreHeaderSize, OS2ShortSize, InfoHeaderSize, 42, 46, V2HeaderSize, V3HeaderSize,
		OS2V2HeaderSize, V4HeaderSize, V5HeaderSize:
		return true
	}
	return false
}

// ColorSpace is the bV4CSType / bV5CSType tag
type ColorSpace uint32

const (
	CalibratedRGB     ColorSpace = 0
	SRGB              ColorSpace = 0x73524742 // 'sRGB'
	WindowsColorSpace ColorSpace = 0x57696E20 // 'Win '
	ProfileLinked     ColorSpace = 0x4C494E4B // 'LINK'
	ProfileEmbedded   ColorSpace = 0x4D424544 // 'MBED'
)

func (c ColorSpace) String() string {
	switch c {
	case CalibratedRGB:
		return "calibrated"
	case SRGB:
		return "sRGB"
	case WindowsColorSpace:
		return "windows"
	case ProfileLinked:
		return "linked"
	case ProfileEmbedded:
		return "embedded"
	}
	return fmt.Sprintf("ColorSpace(%#x)", uint32(c))
}

// Header is the info header normalized across all layouts. Fields a layout
// lacks keep their zero value, except ColorSpace which defaults to SRGB.
type Header struct {
	Size           uint32
	Width          int32
	Height         int32
	Planes         uint16
	BitCount       uint16
	RawCompression uint32
	Compression    Compression
	SizeImage      uint32
	XPelsPerMeter  int32
	YPelsPerMeter  int32
	ClrUsed        uint32
	ClrImportant   uint32

	// V2 and later
	Masks Masks

	// V4 and later
	ColorSpace ColorSpace
	Endpoints  [9]int32 // red, green, blue CIEXYZ triples in FXPT2DOT30
	Gamma      [3]uint32

	// V5
	Intent      cms.Intent
	ProfileData uint32 // offset from the start of the info header
	ProfileSize uint32
}

// Version names the header layout
func (h *Header) Version() string {
	switch h.Size {
	case CoreHeaderSize:
		return "BITMAPCOREHEADER"
	case OS2ShortSize, OS2V2HeaderSize:
		return "BITMAPINFOHEADER2"
	case InfoHeaderSize, 42, 46:
		return "BITMAPINFOHEADER"
	case V2HeaderSize:
		return "BITMAPV2INFOHEADER"
	case V3HeaderSize:
		return "BITMAPV3INFOHEADER"
	case V4HeaderSize:
		return "BITMAPV4HEADER"
	case V5HeaderSize:
		return "BITMAPV5HEADER"
	}
	return fmt.Sprintf("header(%d)", h.Size)
}

// hasMasks reports whether the layout stores channel masks in the header.
// The OS/2 2.x header is longer than V2 but has no masks.
func (h *Header) hasMasks() bool {
	return h.Size >= V2HeaderSize && h.Size != OS2V2HeaderSize
}

// Calibration decodes the V4 endpoints and gammas
func (h *Header) Calibration() *cms.Calibration {
	xyz := func(i int) cms.XYZ {
		return cms.XYZ{
			X: cms.Fixed2Dot30(h.Endpoints[i]),
			Y: cms.Fixed2Dot30(h.Endpoints[i+1]),
			Z: cms.Fixed2Dot30(h.Endpoints[i+2]),
		}
	}
	return &cms.Calibration{
		Red:        xyz(0),
		Green:      xyz(3),
		Blue:       xyz(6),
		GammaRed:   cms.Fixed16Dot16(h.Gamma[0]),
		GammaGreen: cms.Fixed16Dot16(h.Gamma[1]),
		GammaBlue:  cms.Fixed16Dot16(h.Gamma[2]),
	}
}

// headerReader keeps the first read error so field lists read straight through
type headerReader struct {
	r   *layout.Reader
	err error
}

func (hr *headerReader) u16() uint16 {
	if hr.err != nil {
		return 0
	}
	v, err := hr.r.U16()
	hr.err = err
	return v
}

func (hr *headerReader) u32() uint32 {
	if hr.err != nil {
		return 0
	}
	v, err := hr.r.U32()
	hr.err = err
	return v
}

func (hr *headerReader) i32() int32 { return int32(hr.u32()) }

// parseHeader decodes the info header held in b, whose first field is its size.
// Compression is left for the caller to normalize.
func parseHeader(b []byte) (Header, error) {
	hr := headerReader{r: layout.NewReader(b)}
	h := Header{ColorSpace: SRGB}
	h.Size = hr.u32()
	if !supportedHeader(h.Size) {
		return h, fieldErr(ErrUnsupportedHeader, "size", int64(h.Size))
	}

	if h.Size == CoreHeaderSize {
		h.Width = int32(hr.u16())
		h.Height = int32(hr.u16())
		h.Planes = hr.u16()
		h.BitCount = hr.u16()
		return h, hr.err
	}

	h.Width = hr.i32()
	h.Height = hr.i32()
	h.Planes = hr.u16()
	h.BitCount = hr.u16()
	if h.Size == OS2ShortSize {
		return h, hr.err
	}
	h.RawCompression = hr.u32()
	h.SizeImage = hr.u32()
	h.XPelsPerMeter = hr.i32()
	h.YPelsPerMeter = hr.i32()
	h.ClrUsed = hr.u32()
	h.ClrImportant = hr.u32()

	if h.hasMasks() {
		h.Masks.R = hr.u32()
		h.Masks.G = hr.u32()
		h.Masks.B = hr.u32()
		if h.Size >= V3HeaderSize {
			h.Masks.A = hr.u32()
		}
	}
	if h.Size >= V4HeaderSize {
		h.ColorSpace = ColorSpace(hr.u32())
		for i := range h.Endpoints {
			h.Endpoints[i] = hr.i32()
		}
		for i := range h.Gamma {
			h.Gamma[i] = hr.u32()
		}
	}
	if h.Size >= V5HeaderSize {
		h.Intent = cms.Intent(hr.u32())
		h.ProfileData = hr.u32()
		h.ProfileSize = hr.u32()
		_ = hr.u32() // reserved
	}
	return h, hr.err
}
