package layout

import "encoding/binary"

// Writer appends little-endian values to a growing buffer. Len is the running
// offset of the next byte, which callers use for offset bookkeeping.
type Writer struct {
	buf []byte
}

// NewWriter creates a writer with capacity preallocated
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Len returns the number of bytes written so far
func (w *Writer) Len() int { return len(w.buf) }

// Bytes returns the written buffer
func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) U8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) U16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }

func (w *Writer) U32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }

func (w *Writer) I32(v int32) { w.U32(uint32(v)) }

// Write appends p. It never fails; the signature satisfies io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

// Zero appends n zero bytes
func (w *Writer) Zero(n int) {
	for i := 0; i < n; i++ {
		w.buf = append(w.buf, 0)
	}
}

// PutU32At overwrites a previously written uint32 at off
func (w *Writer) PutU32At(off int, v uint32) {
	binary.LittleEndian.PutUint32(w.buf[off:], v)
}
