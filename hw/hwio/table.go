package hwio

import (
	"fmt"
	"sort"

	"reality/emu/log"
)

// Table is an ordered table of non-overlapping device ranges. It routes a bus
// address to the owning device and forwards the access.
type Table struct {
	Name string

	devs []Device // sorted by range start
}

func NewTable(name string) *Table {
	return &Table{Name: name}
}

func (t *Table) Reset() {
	t.devs = t.devs[:0]
}

// Map inserts a device into the table. Overlapping ranges indicate a machine
// construction bug and panic.
func (t *Table) Map(d Device) {
	start, end := d.BusRange()
	if end <= start {
		panic(fmt.Errorf("hwio: device %s has empty range [%x, %x)", d.BusName(), start, end))
	}

	i := sort.Search(len(t.devs), func(i int) bool {
		s, _ := t.devs[i].BusRange()
		return s >= start
	})
	if i < len(t.devs) {
		s, _ := t.devs[i].BusRange()
		if end > s {
			panic(fmt.Errorf("hwio: device %s overlaps %s", d.BusName(), t.devs[i].BusName()))
		}
	}
	if i > 0 {
		_, e := t.devs[i-1].BusRange()
		if start < e {
			panic(fmt.Errorf("hwio: device %s overlaps %s", d.BusName(), t.devs[i-1].BusName()))
		}
	}

	log.ModHwIo.DebugZ("mapping device").
		String("bus", t.Name).
		String("dev", d.BusName()).
		Hex64("start", start).
		Hex64("end", end).
		End()

	t.devs = append(t.devs, nil)
	copy(t.devs[i+1:], t.devs[i:])
	t.devs[i] = d
}

func (t *Table) find(addr uint32) Device {
	a := uint64(addr)
	i := sort.Search(len(t.devs), func(i int) bool {
		_, end := t.devs[i].BusRange()
		return end > a
	})
	if i < len(t.devs) {
		start, _ := t.devs[i].BusRange()
		if start <= a {
			return t.devs[i]
		}
	}
	return nil
}

func (t *Table) unmapped(op string, addr uint32) {
	log.ModMem.ErrorZ("access to unmapped address").
		String("bus", t.Name).
		String("op", op).
		Hex32("addr", addr).
		End()
}

func (t *Table) ReadU8(addr uint32) uint8 {
	if d := t.find(addr); d != nil {
		return d.ReadU8(addr, false)
	}
	t.unmapped("r8", addr)
	return 0
}

func (t *Table) ReadU16(addr uint32) uint16 {
	if d := t.find(addr); d != nil {
		return d.ReadU16(addr, false)
	}
	t.unmapped("r16", addr)
	return 0
}

func (t *Table) ReadU32(addr uint32) uint32 {
	if d := t.find(addr); d != nil {
		return d.ReadU32(addr, false)
	}
	t.unmapped("r32", addr)
	return 0
}

func (t *Table) ReadU64(addr uint32) uint64 {
	if d := t.find(addr); d != nil {
		return d.ReadU64(addr, false)
	}
	t.unmapped("r64", addr)
	return 0
}

// Sign-extending read variants, for the CPU's lb/lh/lw loads.

func (t *Table) ReadS8(addr uint32) int64  { return int64(int8(t.ReadU8(addr))) }
func (t *Table) ReadS16(addr uint32) int64 { return int64(int16(t.ReadU16(addr))) }
func (t *Table) ReadS32(addr uint32) int64 { return int64(int32(t.ReadU32(addr))) }

func (t *Table) Write8(addr uint32, val uint8) {
	if d := t.find(addr); d != nil {
		d.Write8(addr, val)
		return
	}
	t.unmapped("w8", addr)
}

func (t *Table) Write16(addr uint32, val uint16) {
	if d := t.find(addr); d != nil {
		d.Write16(addr, val)
		return
	}
	t.unmapped("w16", addr)
}

func (t *Table) Write32(addr uint32, val uint32) {
	if d := t.find(addr); d != nil {
		d.Write32(addr, val)
		return
	}
	t.unmapped("w32", addr)
}

func (t *Table) Write64(addr uint32, val uint64) {
	if d := t.find(addr); d != nil {
		d.Write64(addr, val)
		return
	}
	t.unmapped("w64", addr)
}

// Peek variants read without side effects (debugging/tracing). Unmapped
// addresses are not logged.

func (t *Table) Peek8(addr uint32) uint8 {
	if d := t.find(addr); d != nil {
		return d.ReadU8(addr, true)
	}
	return 0
}

func (t *Table) Peek16(addr uint32) uint16 {
	if d := t.find(addr); d != nil {
		return d.ReadU16(addr, true)
	}
	return 0
}

func (t *Table) Peek32(addr uint32) uint32 {
	if d := t.find(addr); d != nil {
		return d.ReadU32(addr, true)
	}
	return 0
}

func (t *Table) Peek64(addr uint32) uint64 {
	if d := t.find(addr); d != nil {
		return d.ReadU64(addr, true)
	}
	return 0
}
