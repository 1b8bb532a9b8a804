package hw

import (
	"reality/emu/log"
	"reality/hw/hwio"
)

// RDRAM is visible three times in the CPU address space: cached through
// KSEG0, uncached through KSEG1, and through whatever virtual pages the TLB
// maps onto it. The cached/uncached devices share the same backing buffer and
// differ only in range; cache behavior itself is not modeled.

const physRAMMask = 0x03ff_ffff // physical RDRAM window

func newCachedRAM(ram *hwio.Mem, size int) *hwio.Dev {
	return &hwio.Dev{
		Name:   "RDRAM (cached)",
		Mem:    ram,
		Start:  kseg0Base,
		End:    kseg0Base + uint64(size),
		CalcEA: func(addr uint32) uint32 { return addr & physRAMMask },
	}
}

func newUncachedRAM(ram *hwio.Mem, size int) *hwio.Dev {
	return &hwio.Dev{
		Name:   "RDRAM (uncached)",
		Mem:    ram,
		Start:  kseg1Base,
		End:    kseg1Base + uint64(size),
		CalcEA: func(addr uint32) uint32 { return addr & physRAMMask },
	}
}

// mappedRAM covers the TLB-mapped segments. Every access consults the
// address translator; the fault behavior follows the hardware-observed
// simplification: guest-visible faulting accesses halt the machine with a
// diagnostic, probe reads and writes return zero / are dropped.
type mappedRAM struct {
	name       string
	start, end uint64
	ram        *hwio.Mem
	tlb        AddressTranslator
	cpu        CPUHooks
}

func (d *mappedRAM) BusName() string            { return d.name }
func (d *mappedRAM) BusRange() (uint64, uint64) { return d.start, d.end }

// ea translates vaddr and bounds-checks the resulting physical address.
// ok is false if the access faulted or left RDRAM.
func (d *mappedRAM) ea(vaddr uint32, width uint32, peek, write bool) (uint32, bool) {
	var pa uint32
	switch {
	case peek:
		pa = d.tlb.TranslateReadInternal(vaddr)
	case write:
		pa = d.tlb.TranslateWrite(vaddr)
	default:
		pa = d.tlb.TranslateRead(vaddr)
	}
	if pa == 0 {
		if !peek {
			d.cpu.Halt(&hwio.AccessError{
				Kind: hwio.TranslationFault,
				Dev:  d.name,
				Addr: vaddr,
				Size: width,
			})
		}
		return 0, false
	}

	pa &= physRAMMask
	if uint64(pa)+uint64(width) > uint64(len(d.ram.Data)) {
		log.ModMem.ErrorZ("translated access outside RDRAM").
			Hex32("vaddr", vaddr).
			Hex32("paddr", pa).
			End()
		return 0, false
	}
	return pa, true
}

func (d *mappedRAM) ReadU8(addr uint32, peek bool) uint8 {
	if ea, ok := d.ea(addr, 1, peek, false); ok {
		return d.ram.U8(ea)
	}
	return 0
}

func (d *mappedRAM) ReadU16(addr uint32, peek bool) uint16 {
	if ea, ok := d.ea(addr, 2, peek, false); ok {
		return d.ram.U16(ea)
	}
	return 0
}

func (d *mappedRAM) ReadU32(addr uint32, peek bool) uint32 {
	if ea, ok := d.ea(addr, 4, peek, false); ok {
		return d.ram.U32(ea)
	}
	return 0
}

func (d *mappedRAM) ReadU64(addr uint32, peek bool) uint64 {
	if ea, ok := d.ea(addr, 8, peek, false); ok {
		return d.ram.U64(ea)
	}
	return 0
}

func (d *mappedRAM) Write8(addr uint32, val uint8) {
	if ea, ok := d.ea(addr, 1, false, true); ok {
		d.ram.SetU8(ea, val)
	}
}

func (d *mappedRAM) Write16(addr uint32, val uint16) {
	if ea, ok := d.ea(addr, 2, false, true); ok {
		d.ram.SetU16(ea, val)
	}
}

func (d *mappedRAM) Write32(addr uint32, val uint32) {
	if ea, ok := d.ea(addr, 4, false, true); ok {
		d.ram.SetU32(ea, val)
	}
}

func (d *mappedRAM) Write64(addr uint32, val uint64) {
	if ea, ok := d.ea(addr, 8, false, true); ok {
		d.ram.SetU64(ea, val)
	}
}

// ProbeWrite32 is the side-effect-free write variant used internally by
// debugger patching: a faulting probe is silently dropped instead of halting.
func (d *mappedRAM) ProbeWrite32(addr uint32, val uint32) {
	if ea, ok := d.ea(addr, 4, true, false); ok {
		d.ram.SetU32(ea, val)
	}
}

// invalidDev backs address space that deliberately has no memory behind it.
// Reads return zero and writes are discarded; both are logged since games
// touching these ranges usually indicate an emulation bug worth seeing.
type invalidDev struct {
	name       string
	start, end uint64
}

func (d *invalidDev) BusName() string            { return d.name }
func (d *invalidDev) BusRange() (uint64, uint64) { return d.start, d.end }

func (d *invalidDev) log(op string, addr uint32) {
	log.ModMem.WarnZ("access to unbacked address space").
		String("dev", d.name).
		String("op", op).
		Hex32("addr", addr).
		End()
}

func (d *invalidDev) ReadU8(addr uint32, peek bool) uint8 {
	if !peek {
		d.log("r8", addr)
	}
	return 0
}

func (d *invalidDev) ReadU16(addr uint32, peek bool) uint16 {
	if !peek {
		d.log("r16", addr)
	}
	return 0
}

func (d *invalidDev) ReadU32(addr uint32, peek bool) uint32 {
	if !peek {
		d.log("r32", addr)
	}
	return 0
}

func (d *invalidDev) ReadU64(addr uint32, peek bool) uint64 {
	if !peek {
		d.log("r64", addr)
	}
	return 0
}

func (d *invalidDev) Write8(addr uint32, val uint8)   { d.log("w8", addr) }
func (d *invalidDev) Write16(addr uint32, val uint16) { d.log("w16", addr) }
func (d *invalidDev) Write32(addr uint32, val uint32) { d.log("w32", addr) }
func (d *invalidDev) Write64(addr uint32, val uint64) { d.log("w64", addr) }
