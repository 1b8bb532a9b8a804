package hw

import (
	"reality/emu/log"
	"reality/hw/hwio"
)

// Interrupt sources, as wired into the MI pending register.
const (
	IntrSP uint32 = 1 << iota
	IntrSI
	IntrAI
	IntrVI
	IntrPI
	IntrDP
)

// MI register file, byte offsets within the register range.
const (
	miModeReg    = 0x00
	miVersionReg = 0x04
	miIntrReg    = 0x08
	miMaskReg    = 0x0C

	miRegsSize = 0x10
)

// MODE register write command bits.
const (
	miModeInitLength   = 0x7f
	miClrInit          = 1 << 7
	miSetInit          = 1 << 8
	miClrEbus          = 1 << 9
	miSetEbus          = 1 << 10
	miClrDPIntr        = 1 << 11
	miClrRDRAM         = 1 << 12
	miSetRDRAM         = 1 << 13
)

// MODE register readback flags.
const (
	miModeInit  = 1 << 7
	miModeEbus  = 1 << 8
	miModeRDRAM = 1 << 9
)

// MASK register write command bits: one clear/set pair per interrupt source,
// same paired idiom as the SP status command word.
const (
	miClrMaskSP uint32 = 1 << (2 * iota)
	miSetMaskSP
	miClrMaskSI
	miSetMaskSI
	miClrMaskAI
	miSetMaskAI
	miClrMaskVI
	miSetMaskVI
	miClrMaskPI
	miSetMaskPI
	miClrMaskDP
	miSetMaskDP
)

const miVersion = 0x0202_0102

// MI is the MIPS interface: the interrupt controller the peripherals assert
// into. The CPU-side pending-interrupt recompute stays an external hook.
type MI struct {
	hwio.Dev

	cpu CPUHooks
}

func newMI(cpu CPUHooks) *MI {
	mi := &MI{cpu: cpu}
	mi.Dev = hwio.Dev{
		Name:  "MI registers",
		Mem:   hwio.NewMem("miregs", miRegsSize),
		Start: kseg1Base | 0x0430_0000,
		End:   kseg1Base | (0x0430_0000 + miRegsSize),
	}
	mi.Reset()
	return mi
}

func (mi *MI) Reset() {
	clear(mi.Dev.Mem.Data)
	mi.Dev.Mem.SetU32(miVersionReg, miVersion)
}

func (mi *MI) Write32(addr uint32, val uint32) {
	m := mi.Dev.Mem
	ea := mi.EA(addr, 4)
	switch ea {
	case miModeReg:
		mode := m.U32(ea)&^uint32(miModeInitLength) | val&miModeInitLength
		apply := func(clr, set, flag uint32) {
			switch val & (clr | set) {
			case set:
				hwio.SetBits32(&mode, flag)
			case clr:
				hwio.ClearBits32(&mode, flag)
			}
		}
		apply(miClrInit, miSetInit, miModeInit)
		apply(miClrEbus, miSetEbus, miModeEbus)
		apply(miClrRDRAM, miSetRDRAM, miModeRDRAM)
		m.SetU32(ea, mode)

		if val&miClrDPIntr != 0 {
			mi.ClearBits32(IntrDP)
			mi.cpu.UpdateInterruptCause()
		}

	case miMaskReg:
		mask := m.U32(ea)
		apply := func(clr, set, flag uint32) {
			switch val & (clr | set) {
			case set:
				hwio.SetBits32(&mask, flag)
			case clr:
				hwio.ClearBits32(&mask, flag)
			}
		}
		apply(miClrMaskSP, miSetMaskSP, IntrSP)
		apply(miClrMaskSI, miSetMaskSI, IntrSI)
		apply(miClrMaskAI, miSetMaskAI, IntrAI)
		apply(miClrMaskVI, miSetMaskVI, IntrVI)
		apply(miClrMaskPI, miSetMaskPI, IntrPI)
		apply(miClrMaskDP, miSetMaskDP, IntrDP)
		m.SetU32(ea, mask)
		mi.cpu.UpdateInterruptCause()

	case miVersionReg, miIntrReg:
		log.ModMI.DebugZ("write to read-only MI register").
			Hex32("ea", ea).
			Hex32("val", val).
			End()

	default:
		m.SetU32(ea, val)
	}
}

// SetBits32 asserts interrupt sources into the pending register.
func (mi *MI) SetBits32(mask uint32) {
	m := mi.Dev.Mem
	m.SetU32(miIntrReg, m.U32(miIntrReg)|mask)
}

// ClearBits32 deasserts interrupt sources.
func (mi *MI) ClearBits32(mask uint32) {
	m := mi.Dev.Mem
	m.SetU32(miIntrReg, m.U32(miIntrReg)&^mask)
}

// Pending reports whether any unmasked interrupt source is asserted.
func (mi *MI) Pending() bool {
	m := mi.Dev.Mem
	return m.U32(miIntrReg)&m.U32(miMaskReg) != 0
}
