package huffman

// bitReader reads MSB-first bits through a sliding accumulator filled a byte
// at a time.
type bitReader struct {
	data  []byte
	pos   int
	acc   uint32
	avail uint
}

func newBitReader(data []byte) *bitReader {
	return &bitReader{data: data}
}

// ensure fills the accumulator until n bits are available. It reports false
// when the input runs out first.
func (br *bitReader) ensure(n uint) bool {
	for br.avail < n {
		if br.pos >= len(br.data) {
			return false
		}
		br.acc = br.acc<<8 | uint32(br.data[br.pos])
		br.pos++
		br.avail += 8
	}
	return true
}

// peek returns the next n bits without consuming them; ensure(n) must hold
func (br *bitReader) peek(n uint) uint16 {
	return uint16((br.acc >> (br.avail - n)) & (1<<n - 1))
}

func (br *bitReader) skip(n uint) {
	br.avail -= n
	br.acc &= 1<<br.avail - 1
}

// offset returns the bit position of the next unread bit
func (br *bitReader) offset() int {
	return br.pos*8 - int(br.avail)
}
