package hwio

// Device is an addressable unit on a Table: a name, a half-open address
// range and width-specific read/write entry points. Reads take a peek flag;
// when peek is true the read must not have side effects (debugging/tracing).
type Device interface {
	BusName() string
	BusRange() (start, end uint64)

	ReadU8(addr uint32, peek bool) uint8
	ReadU16(addr uint32, peek bool) uint16
	ReadU32(addr uint32, peek bool) uint32
	ReadU64(addr uint32, peek bool) uint64

	Write8(addr uint32, val uint8)
	Write16(addr uint32, val uint16)
	Write32(addr uint32, val uint32)
	Write64(addr uint32, val uint64)
}

// Dev implements Device over a backing Mem. The default effective address is
// addr - Start; devices with different addressing (physical mirrors, bank
// wrap-around) set CalcEA.
//
// Peripheral devices embed Dev and override the widths they care about; the
// remaining widths fall through to the raw register file.
type Dev struct {
	Name       string
	Mem        *Mem
	Start, End uint64                   // half-open range on the bus
	CalcEA     func(addr uint32) uint32 // optional EA override
}

func (d *Dev) BusName() string            { return d.Name }
func (d *Dev) BusRange() (uint64, uint64) { return d.Start, d.End }

// EA computes the effective address for an access of the given width,
// panicking with an *AccessError if it lands outside the backing region.
func (d *Dev) EA(addr uint32, width uint32) uint32 {
	var ea uint32
	if d.CalcEA != nil {
		ea = d.CalcEA(addr)
	} else {
		ea = addr - uint32(d.Start)
	}
	if uint64(ea)+uint64(width) > uint64(len(d.Mem.Data)) {
		panic(&AccessError{Kind: OutOfRange, Dev: d.Name, Addr: addr, EA: ea, Size: width})
	}
	return ea
}

func (d *Dev) ReadU8(addr uint32, peek bool) uint8 {
	return d.Mem.U8(d.EA(addr, 1))
}

func (d *Dev) ReadU16(addr uint32, peek bool) uint16 {
	return d.Mem.U16(d.EA(addr, 2))
}

func (d *Dev) ReadU32(addr uint32, peek bool) uint32 {
	return d.Mem.U32(d.EA(addr, 4))
}

func (d *Dev) ReadU64(addr uint32, peek bool) uint64 {
	return d.Mem.U64(d.EA(addr, 8))
}

func (d *Dev) Write8(addr uint32, val uint8) {
	d.Mem.SetU8(d.EA(addr, 1), val)
}

func (d *Dev) Write16(addr uint32, val uint16) {
	d.Mem.SetU16(d.EA(addr, 2), val)
}

func (d *Dev) Write32(addr uint32, val uint32) {
	d.Mem.SetU32(d.EA(addr, 4), val)
}

func (d *Dev) Write64(addr uint32, val uint64) {
	d.Mem.SetU64(d.EA(addr, 8), val)
}
