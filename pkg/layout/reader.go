// Package layout reads and writes little-endian binary structures over byte slices.
// Every read is bounds-checked against the backing buffer; a read that would cross
// the end fails with ErrShort and leaves the cursor where it was.
package layout

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShort is returned when a read would run past the end of the buffer.
var ErrShort = errors.New("layout: buffer too short")

// Reader is a forward cursor over a byte slice.
type Reader struct {
	buf []byte
	off int
}

// NewReader creates a cursor positioned at the start of buf
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset returns the current cursor position
func (r *Reader) Offset() int { return r.off }

// Len returns the length of the backing buffer
func (r *Reader) Len() int { return len(r.buf) }

// Remaining returns the number of unread bytes
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

// Seek moves the cursor to an absolute offset. Seeking to Len() is allowed.
func (r *Reader) Seek(off int) error {
	if off < 0 || off > len(r.buf) {
		return fmt.Errorf("%w: seek to %d of %d", ErrShort, off, len(r.buf))
	}
	r.off = off
	return nil
}

// Skip advances the cursor by n bytes
func (r *Reader) Skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.off += n
	return nil
}

func (r *Reader) need(n int) error {
	if n < 0 || r.off+n > len(r.buf) {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShort, n, r.off, len(r.buf)-r.off)
	}
	return nil
}

// U8 reads one byte
func (r *Reader) U8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

// U16 reads a little-endian uint16
func (r *Reader) U16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v, nil
}

// U32 reads a little-endian uint32
func (r *Reader) U32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

// I32 reads a little-endian int32
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

// Bytes returns the next n bytes without copying
func (r *Reader) Bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.off : r.off+n : r.off+n]
	r.off += n
	return b, nil
}

// Slice returns buf[off:off+n] without moving the cursor. The range is
// validated with 64-bit arithmetic so huge header values cannot wrap.
func (r *Reader) Slice(off, n int64) ([]byte, error) {
	if off < 0 || n < 0 || off+n > int64(len(r.buf)) {
		return nil, fmt.Errorf("%w: range [%d,%d) outside %d bytes", ErrShort, off, off+n, len(r.buf))
	}
	return r.buf[off : off+n : off+n], nil
}
