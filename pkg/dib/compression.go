package dib

import "fmt"

// Compression is the normalized compression mode of a bitmap. The raw header
// value is ambiguous across Windows and OS/2; see normalizeCompression.
type Compression int

const (
	Uncompressed Compression = iota
	Bitfields
	AlphaBitfields
	RLE4
	RLE8
	RLE24
	Huffman1D
	JPEG
	PNG
)

// raw BI_* values as stored in biCompression
const (
	biRGB            = 0
	biRLE8           = 1
	biRLE4           = 2
	biBitfields      = 3
	biJPEG           = 4
	biPNG            = 5
	biAlphaBitfields = 6
)

func (c Compression) String() string {
	switch c {
	case Uncompressed:
		return "RGB"
	case Bitfields:
		return "BITFIELDS"
	case AlphaBitfields:
		return "ALPHABITFIELDS"
	case RLE4:
		return "RLE4"
	case RLE8:
		return "RLE8"
	case RLE24:
		return "RLE24"
	case Huffman1D:
		return "HUFFMAN1D"
	case JPEG:
		return "JPEG"
	case PNG:
		return "PNG"
	}
	return fmt.Sprintf("Compression(%d)", int(c))
}

// Raw returns the biCompression value written for the mode
func (c Compression) Raw() uint32 {
	switch c {
	case Bitfields, Huffman1D:
		return biBitfields
	case AlphaBitfields:
		return biAlphaBitfields
	case RLE4:
		return biRLE4
	case RLE8:
		return biRLE8
	case RLE24, JPEG:
		return biJPEG
	case PNG:
		return biPNG
	}
	return biRGB
}

// IsEncoded reports whether pixel data is not a plain scanline array
func (c Compression) IsEncoded() bool {
	switch c {
	case RLE4, RLE8, RLE24, Huffman1D, JPEG, PNG:
		return true
	}
	return false
}

// IsEmbedded reports whether pixel data is a complete JPEG or PNG stream
func (c Compression) IsEmbedded() bool {
	return c == JPEG || c == PNG
}

// normalizeCompression resolves the OS/2 aliases: raw 3 at 1bpp is Modified
// Huffman and raw 4 at 24bpp is RLE24.
func normalizeCompression(raw uint32, bitCount uint16) (Compression, error) {
	switch raw {
	case biRGB:
		return Uncompressed, nil
	case biRLE8:
		return RLE8, nil
	case biRLE4:
		return RLE4, nil
	case biBitfields:
		if bitCount == 1 {
			return Huffman1D, nil
		}
		return Bitfields, nil
	case biJPEG:
		if bitCount == 24 {
			return RLE24, nil
		}
		return JPEG, nil
	case biPNG:
		return PNG, nil
	case biAlphaBitfields:
		return AlphaBitfields, nil
	}
	return 0, fieldErr(ErrUnsupportedCompression, "compression", int64(raw))
}
