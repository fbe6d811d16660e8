// Package rle expands the run-length encodings used by BMP: RLE8, RLE4 and
// the OS/2 RLE24 variant. Output is always 32-bit BGRA.
package rle

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrBounds is returned when the stream moves the cursor or writes a
	// pixel outside the frame, or ends in the middle of an instruction.
	ErrBounds = errors.New("rle: bounds violation")
	// ErrFrame is returned when the destination frame is inconsistent
	ErrFrame = errors.New("rle: invalid frame")
)

// Mode selects the code width of the stream
type Mode int

const (
	RLE8 Mode = iota
	RLE4
	RLE24
)

func (m Mode) String() string {
	switch m {
	case RLE8:
		return "RLE8"
	case RLE4:
		return "RLE4"
	case RLE24:
		return "RLE24"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

const opaqueBlack uint32 = 0xFF000000

// Frame is the destination. Pix holds Height rows of Stride bytes, top row first;
// each pixel is 4 bytes B, G, R, A.
type Frame struct {
	Pix    []byte
	Width  int
	Height int
	Stride int
}

func (f Frame) validate() error {
	if f.Width < 0 || f.Height < 0 {
		return fmt.Errorf("%w: negative extent %dx%d", ErrFrame, f.Width, f.Height)
	}
	if f.Stride < f.Width*4 {
		return fmt.Errorf("%w: stride %d too small for width %d", ErrFrame, f.Stride, f.Width)
	}
	if len(f.Pix) < f.Stride*f.Height {
		return fmt.Errorf("%w: buffer holds %d bytes, need %d", ErrFrame, len(f.Pix), f.Stride*f.Height)
	}
	return nil
}

// Decode expands src into dst. Palette entries are packed as 0xAARRGGBB; they
// are ignored for RLE24. The stream addresses rows bottom-up: the first decoded
// row is written to the last row of dst. Pixels the stream skips keep the
// background color, palette entry 0 (opaque black for RLE24).
//
// Running out of input exactly at an instruction boundary ends decoding
// without error.
func Decode(src []byte, mode Mode, palette []uint32, dst Frame) error {
	if err := dst.validate(); err != nil {
		return err
	}
	if mode != RLE8 && mode != RLE4 && mode != RLE24 {
		return fmt.Errorf("rle: unknown mode %d", int(mode))
	}
	d := decoder{src: src, mode: mode, palette: palette, dst: dst}
	d.fill()
	return d.run()
}

type decoder struct {
	src     []byte
	pos     int
	mode    Mode
	palette []uint32
	dst     Frame
	x, y    int
}

func (d *decoder) color(i byte) uint32 {
	if int(i) < len(d.palette) {
		return d.palette[i]
	}
	return opaqueBlack
}

func (d *decoder) fill() {
	if d.dst.Width == 0 {
		return
	}
	bg := opaqueBlack
	if d.mode != RLE24 {
		bg = d.color(0)
	}
	for y := 0; y < d.dst.Height; y++ {
		row := d.dst.Pix[y*d.dst.Stride:]
		for x := 0; x < d.dst.Width; x++ {
			binary.LittleEndian.PutUint32(row[x*4:], bg)
		}
	}
}

func (d *decoder) put(c uint32) error {
	if d.x >= d.dst.Width || d.y >= d.dst.Height {
		return fmt.Errorf("%w: pixel (%d,%d) outside %dx%d", ErrBounds, d.x, d.y, d.dst.Width, d.dst.Height)
	}
	off := (d.dst.Height-1-d.y)*d.dst.Stride + d.x*4
	binary.LittleEndian.PutUint32(d.dst.Pix[off:], c)
	d.x++
	return nil
}

func (d *decoder) need(n int) error {
	if len(d.src)-d.pos < n {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrBounds, n, d.pos, len(d.src)-d.pos)
	}
	return nil
}

func (d *decoder) run() error {
	for {
		if d.pos == len(d.src) {
			return nil
		}
		if err := d.need(2); err != nil {
			return err
		}
		op1, op2 := d.src[d.pos], d.src[d.pos+1]
		d.pos += 2

		if op1 > 0 {
			if err := d.encoded(int(op1), op2); err != nil {
				return err
			}
			continue
		}

		switch op2 {
		case 0: // end of line
			if d.y+1 > d.dst.Height {
				return fmt.Errorf("%w: end of line past row %d", ErrBounds, d.dst.Height)
			}
			d.x = 0
			d.y++
		case 1: // end of bitmap
			return nil
		case 2: // delta
			if err := d.need(2); err != nil {
				return err
			}
			d.x += int(d.src[d.pos])
			d.y += int(d.src[d.pos+1])
			d.pos += 2
			if d.x > d.dst.Width || d.y > d.dst.Height {
				return fmt.Errorf("%w: delta moved cursor to (%d,%d)", ErrBounds, d.x, d.y)
			}
		default:
			if err := d.absolute(int(op2)); err != nil {
				return err
			}
		}
	}
}

func (d *decoder) encoded(n int, op2 byte) error {
	switch d.mode {
	case RLE8:
		c := d.color(op2)
		for i := 0; i < n; i++ {
			if err := d.put(c); err != nil {
				return err
			}
		}
	case RLE4:
		hi, lo := d.color(op2>>4), d.color(op2&0x0F)
		for i := 0; i < n; i++ {
			c := hi
			if i&1 == 1 {
				c = lo
			}
			if err := d.put(c); err != nil {
				return err
			}
		}
	case RLE24:
		if err := d.need(2); err != nil {
			return err
		}
		g, r := d.src[d.pos], d.src[d.pos+1]
		d.pos += 2
		c := opaqueBlack | uint32(r)<<16 | uint32(g)<<8 | uint32(op2)
		for i := 0; i < n; i++ {
			if err := d.put(c); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *decoder) absolute(n int) error {
	var size int
	switch d.mode {
	case RLE8:
		size = n
	case RLE4:
		size = (n + 1) / 2
	case RLE24:
		size = n * 3
	}
	if err := d.need(size); err != nil {
		return err
	}
	data := d.src[d.pos : d.pos+size]
	d.pos += size
	if size&1 == 1 && d.pos < len(d.src) {
		d.pos++
	}

	for i := 0; i < n; i++ {
		var c uint32
		switch d.mode {
		case RLE8:
			c = d.color(data[i])
		case RLE4:
			b := data[i/2]
			if i&1 == 0 {
				c = d.color(b >> 4)
			} else {
				c = d.color(b & 0x0F)
			}
		case RLE24:
			p := data[i*3:]
			c = opaqueBlack | uint32(p[2])<<16 | uint32(p[1])<<8 | uint32(p[0])
		}
		if err := d.put(c); err != nil {
			return err
		}
	}
	return nil
}
