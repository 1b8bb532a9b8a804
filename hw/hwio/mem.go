package hwio

import (
	"encoding/binary"
)

// Mem is a fixed-size byte buffer with big-endian typed accessors. It is the
// backing storage for RAM banks and peripheral register files.
//
// Offsets are assumed to have been validated by the owning device; an
// out-of-bounds offset is a bus-routing bug, not guest behavior, and panics.
type Mem struct {
	Name string
	Data []byte
}

func NewMem(name string, size int) *Mem {
	return &Mem{Name: name, Data: make([]byte, size)}
}

func (m *Mem) U8(off uint32) uint8 {
	return m.Data[off]
}

func (m *Mem) U16(off uint32) uint16 {
	return binary.BigEndian.Uint16(m.Data[off:])
}

func (m *Mem) U32(off uint32) uint32 {
	return binary.BigEndian.Uint32(m.Data[off:])
}

func (m *Mem) U64(off uint32) uint64 {
	return binary.BigEndian.Uint64(m.Data[off:])
}

func (m *Mem) SetU8(off uint32, val uint8) {
	m.Data[off] = val
}

func (m *Mem) SetU16(off uint32, val uint16) {
	binary.BigEndian.PutUint16(m.Data[off:], val)
}

func (m *Mem) SetU32(off uint32, val uint32) {
	binary.BigEndian.PutUint32(m.Data[off:], val)
}

func (m *Mem) SetU64(off uint32, val uint64) {
	binary.BigEndian.PutUint64(m.Data[off:], val)
}

// SetU32Masked updates only the bits of the 32-bit word at off selected by
// mask, preserving the rest.
func (m *Mem) SetU32Masked(off uint32, val, mask uint32) {
	cur := binary.BigEndian.Uint32(m.Data[off:])
	binary.BigEndian.PutUint32(m.Data[off:], (cur&^mask)|(val&mask))
}
