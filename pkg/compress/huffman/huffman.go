// Package huffman decodes the CCITT Group 3 one-dimensional (Modified Huffman)
// coding used by OS/2 1bpp bitmaps.
package huffman

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCode is returned for a bit pattern that is no codeword of the
	// current color
	ErrInvalidCode = errors.New("huffman: invalid code")
	// ErrRunOverflow is returned when a run extends past the end of a row
	ErrRunOverflow = errors.New("huffman: run exceeds row width")
	// ErrFrame is returned when the destination does not fit the extent
	ErrFrame = errors.New("huffman: invalid frame")
)

// Frame is a 1bpp destination of Height rows of Stride bytes. Pixels are
// packed MSB first; a set bit is black.
type Frame struct {
	Pix    []byte
	Width  int
	Height int
	Stride int
}

// Decode expands src into dst. Rows are written in stream order starting at
// dst row 0. Each row begins with a white run and colors alternate; a row ends
// when its runs reach Width or at an EOL code. EOL codes before the first run
// of a row are skipped, as are zero fill bits preceding them. Decoding stops
// without error when the input is exhausted or all rows are complete.
func Decode(src []byte, dst Frame) error {
	if dst.Width < 0 || dst.Height < 0 || dst.Stride*8 < dst.Width || len(dst.Pix) < dst.Stride*dst.Height {
		return fmt.Errorf("%w: %dx%d stride %d in %d bytes", ErrFrame, dst.Width, dst.Height, dst.Stride, len(dst.Pix))
	}
	clear(dst.Pix[:dst.Stride*dst.Height])

	br := newBitReader(src)
	x, y, run := 0, 0, 0
	white := true
	for y < dst.Height {
		n, ok, err := next(br, white)
		if err != nil {
			return fmt.Errorf("%w (row %d, column %d)", err, y, x)
		}
		if !ok {
			return nil
		}
		if n == eol {
			if x > 0 || run > 0 {
				y++
			}
			x, run, white = 0, 0, true
			continue
		}
		run += n
		if n >= 64 {
			// makeup code, a terminating code follows
			continue
		}
		if x+run > dst.Width {
			return fmt.Errorf("%w: run of %d at column %d, width %d", ErrRunOverflow, run, x, dst.Width)
		}
		if !white {
			setBits(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], x, x+run)
		}
		x += run
		run = 0
		white = !white
		if x == dst.Width {
			x, y, white = 0, y+1, true
		}
	}
	return nil
}

// next reads one codeword of the given color. It reports false when the input
// ends before a complete codeword.
func next(br *bitReader, white bool) (int, bool, error) {
	t := blackTable
	if white {
		t = whiteTable
	}
	for {
		for n := uint(t.minBits); n <= maxCodeBits; n++ {
			if t.byLen[n] == nil {
				continue
			}
			if !br.ensure(n) {
				return 0, false, nil
			}
			if run, ok := t.byLen[n][br.peek(n)]; ok {
				br.skip(n)
				return run, true, nil
			}
		}
		// fill bits ahead of an EOL
		if br.ensure(12) && br.peek(12) == 0 {
			br.skip(1)
			continue
		}
		return 0, false, fmt.Errorf("%w at bit %d", ErrInvalidCode, br.offset())
	}
}

// setBits sets bits [from, to) of an MSB-first packed row
func setBits(row []byte, from, to int) {
	for ; from < to && from&7 != 0; from++ {
		row[from>>3] |= 0x80 >> (from & 7)
	}
	for ; from+8 <= to; from += 8 {
		row[from>>3] = 0xFF
	}
	for ; from < to; from++ {
		row[from>>3] |= 0x80 >> (from & 7)
	}
}
