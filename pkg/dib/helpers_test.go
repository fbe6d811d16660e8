package dib

import (
	"github.com/jpfielding/dib.go/pkg/layout"
)

// testBMP assembles bitmaps field by field so tests can describe any header
// layout, including malformed ones.
type testBMP struct {
	headerSize  int
	width       int32
	height      int32
	planes      uint16
	bpp         uint16
	compression uint32
	sizeImage   uint32
	ppm         int32
	clrUsed     uint32
	masks       Masks    // in-header masks, V2 and later
	trailing    []uint32 // masks after the header
	colorSpace  ColorSpace
	endpoints   [9]int32
	gamma       [3]uint32
	intent      uint32
	palette     []BGR
	pixels      []byte
	profile     []byte
	fileHeader  bool
}

func (b testBMP) bytes() []byte {
	hdr := layout.NewWriter(b.headerSize)
	planes := b.planes
	if planes == 0 {
		planes = 1
	}
	hdr.U32(uint32(b.headerSize))
	if b.headerSize == CoreHeaderSize {
		hdr.U16(uint16(b.width))
		hdr.U16(uint16(b.height))
		hdr.U16(planes)
		hdr.U16(b.bpp)
	} else {
		hdr.I32(b.width)
		hdr.I32(b.height)
		hdr.U16(planes)
		hdr.U16(b.bpp)
	}
	if b.headerSize > OS2ShortSize {
		hdr.U32(b.compression)
		hdr.U32(b.sizeImage)
		hdr.I32(b.ppm)
		hdr.I32(b.ppm)
		hdr.U32(b.clrUsed)
		hdr.U32(0)
	}
	if b.headerSize >= V2HeaderSize && b.headerSize != OS2V2HeaderSize {
		hdr.U32(b.masks.R)
		hdr.U32(b.masks.G)
		hdr.U32(b.masks.B)
		if b.headerSize >= V3HeaderSize {
			hdr.U32(b.masks.A)
		}
	}
	entry := 4
	if b.headerSize == CoreHeaderSize {
		entry = 3
	}
	pixOff := b.headerSize + len(b.trailing)*4 + len(b.palette)*entry
	if b.headerSize >= V4HeaderSize {
		cs := b.colorSpace
		if cs == 0 && b.endpoints == ([9]int32{}) {
			cs = SRGB
		}
		hdr.U32(uint32(cs))
		for _, e := range b.endpoints {
			hdr.I32(e)
		}
		for _, g := range b.gamma {
			hdr.U32(g)
		}
	}
	if b.headerSize >= V5HeaderSize {
		hdr.U32(b.intent)
		if len(b.profile) > 0 {
			hdr.U32(uint32(pixOff + len(b.pixels)))
		} else {
			hdr.U32(0)
		}
		hdr.U32(uint32(len(b.profile)))
		hdr.U32(0)
	}
	if pad := b.headerSize - hdr.Len(); pad > 0 {
		hdr.Zero(pad)
	}

	body := layout.NewWriter(0)
	body.Write(hdr.Bytes())
	for _, m := range b.trailing {
		body.U32(m)
	}
	for _, c := range b.palette {
		body.U8(c.B)
		body.U8(c.G)
		body.U8(c.R)
		if entry == 4 {
			body.U8(0)
		}
	}
	body.Write(b.pixels)
	body.Write(b.profile)

	if !b.fileHeader {
		return body.Bytes()
	}
	out := layout.NewWriter(FileHeaderSize + body.Len())
	out.U8('B')
	out.U8('M')
	out.U32(uint32(FileHeaderSize + body.Len()))
	out.U32(0)
	out.U32(uint32(FileHeaderSize + pixOff))
	out.Write(body.Bytes())
	return out.Bytes()
}

// rows24 packs bottom-up 24bpp pixel data from top-down rows of BGR colors
func rows24(rows ...[]BGR) []byte {
	var out []byte
	for y := len(rows) - 1; y >= 0; y-- {
		row := make([]byte, Stride(24, len(rows[y])))
		for x, c := range rows[y] {
			row[x*3], row[x*3+1], row[x*3+2] = c.B, c.G, c.R
		}
		out = append(out, row...)
	}
	return out
}

// solid24 is bottom-up 24bpp data of one color
func solid24(w, h int, c BGR) []byte {
	rows := make([][]BGR, h)
	for y := range rows {
		rows[y] = make([]BGR, w)
		for x := range rows[y] {
			rows[y][x] = c
		}
	}
	return rows24(rows...)
}

// bgraAt returns the 4 bytes at x, y of a Bgra32 bitmap
func bgraAt(bm *Bitmap, x, y int) []byte {
	off := y*bm.Stride + x*4
	return bm.Pix[off : off+4]
}

var (
	red   = BGR{R: 0xFF}
	green = BGR{G: 0xFF}
	blue  = BGR{B: 0xFF}
	white = BGR{R: 0xFF, G: 0xFF, B: 0xFF}
	black = BGR{}
)
