package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_LittleEndian(t *testing.T) {
	r := NewReader([]byte{0x42, 0x4D, 0x34, 0x12, 0x78, 0x56, 0x34, 0x12, 0xFF, 0xFF, 0xFF, 0xFF})

	b, err := r.U8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x42), b)
	require.NoError(t, r.Skip(1))

	u16, err := r.U16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u16)

	u32, err := r.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), u32)

	i32, err := r.I32()
	require.NoError(t, err)
	assert.Equal(t, int32(-1), i32)
	assert.Equal(t, 0, r.Remaining())
}

func TestReader_ShortReadDoesNotAdvance(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	require.NoError(t, r.Skip(1))

	_, err := r.U32()
	require.ErrorIs(t, err, ErrShort)
	assert.Equal(t, 1, r.Offset())

	_, err = r.Bytes(3)
	require.ErrorIs(t, err, ErrShort)

	got, err := r.Bytes(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3}, got)
}

func TestReader_SeekAndSlice(t *testing.T) {
	r := NewReader(make([]byte, 10))
	require.NoError(t, r.Seek(10))
	require.ErrorIs(t, r.Seek(11), ErrShort)
	require.ErrorIs(t, r.Seek(-1), ErrShort)

	s, err := r.Slice(4, 6)
	require.NoError(t, err)
	assert.Len(t, s, 6)

	_, err = r.Slice(4, 7)
	require.ErrorIs(t, err, ErrShort)
	_, err = r.Slice(0x7FFFFFFF, 0x7FFFFFFF)
	require.ErrorIs(t, err, ErrShort)
}

func TestWriter_Offsets(t *testing.T) {
	w := NewWriter(16)
	w.U8('B')
	w.U8('M')
	w.U32(0)
	w.U16(0xBEEF)
	w.I32(-2)
	w.Zero(2)
	_, _ = w.Write([]byte{9})
	assert.Equal(t, 15, w.Len())

	w.PutU32At(2, 15)
	assert.Equal(t, []byte{'B', 'M', 15, 0, 0, 0, 0xEF, 0xBE, 0xFE, 0xFF, 0xFF, 0xFF, 0, 0, 9}, w.Bytes())
}
