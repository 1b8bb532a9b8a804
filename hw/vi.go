package hw

import (
	"reality/emu/log"
	"reality/hw/hwio"
)

// VI register file, byte offsets within the register range.
const (
	viControlReg = 0x00
	viOriginReg  = 0x04
	viWidthReg   = 0x08
	viIntrReg    = 0x0C
	viCurrentReg = 0x10
	viBurstReg   = 0x14
	viVSyncReg   = 0x18
	viHSyncReg   = 0x1C
	viLeapReg    = 0x20
	viHStartReg  = 0x24
	viVStartReg  = 0x28
	viVBurstReg  = 0x2C
	viXScaleReg  = 0x30
	viYScaleReg  = 0x34
	// 0x38 and 0x3C are reserved

	viRegsSize = 0x40
)

// CONTROL bits (only the ones the timing engine cares about).
const (
	viCtrlSerrate = 1 << 6 // interlaced output
)

// The video DAC clock is fixed; the scanline rate derives from it, the
// refresh rate of the selected standard and the programmed V_SYNC terminal
// count.
const viClock = 48_681_812

// VI is the video interface: a register file plus the scanline/vblank timing
// engine. It generates the vertical-blank interrupt and exposes the
// framebuffer origin; actual rendering is the Presenter's business.
type VI struct {
	hwio.Dev

	ram   *hwio.Mem
	ic    InterruptController
	cpu   CPUHooks
	sched Scheduler
	out   Presenter

	refreshRate      uint32 // 60 (NTSC) or 50 (PAL)
	countPerScanline uint32
	countPerVbl      uint32
	field            uint32 // interlace field parity
	curVbl           uint32
	lastVbl          uint32
}

func newVI(std VideoStandard, ram *hwio.Mem, ic InterruptController, cpu CPUHooks, sched Scheduler, out Presenter) *VI {
	refresh := uint32(60)
	if std == PAL {
		refresh = 50
	}
	vi := &VI{
		ram:         ram,
		ic:          ic,
		cpu:         cpu,
		sched:       sched,
		out:         out,
		refreshRate: refresh,
	}
	vi.Dev = hwio.Dev{
		Name:  "VI registers",
		Mem:   hwio.NewMem("viregs", viRegsSize),
		Start: kseg1Base | 0x0440_0000,
		End:   kseg1Base | (0x0440_0000 + viRegsSize),
	}
	vi.Reset()
	return vi
}

func (vi *VI) Reset() {
	clear(vi.Dev.Mem.Data)
	vi.countPerScanline = 0
	vi.countPerVbl = 0
	vi.field = 0
	vi.curVbl = 0
	vi.lastVbl = 0
}

func (vi *VI) Write32(addr uint32, val uint32) {
	m := vi.Dev.Mem
	ea := vi.EA(addr, 4)
	switch ea {
	case viOriginReg:
		// Present once per distinct framebuffer pointer: double-buffered
		// games flip ORIGIN each frame, but some rewrite the same value
		// every vblank.
		old := m.U32(ea) & 0x00ff_ffff
		origin := val & 0x00ff_ffff
		if origin != old {
			vi.out.PresentFrame(vi.ram.Data, origin)
			vi.out.Yield()
		}
		m.SetU32(ea, val)

	case viControlReg, viWidthReg:
		log.ModVI.DebugZ("VI register write").
			Hex32("ea", ea).
			Hex32("val", val).
			End()
		m.SetU32(ea, val)

	case viIntrReg:
		m.SetU32(ea, val)
		vi.checkVblIntr()

	case viCurrentReg:
		// Writing CURRENT always acknowledges the VI interrupt, whatever the
		// value written.
		m.SetU32(ea, val)
		vi.ic.ClearBits32(IntrVI)
		vi.cpu.UpdateInterruptCause()

	case viVSyncReg:
		if m.U32(ea) != val {
			m.SetU32(ea, val)
			vi.recomputeTiming(val)
		}
		vi.checkVblIntr()

	default:
		m.SetU32(ea, val)
	}
}

// recomputeTiming derives the cycle counts from a new V_SYNC terminal count.
// Only called when the value actually changed, to avoid redundant interrupt
// rescheduling.
func (vi *VI) recomputeTiming(vsync uint32) {
	scanlines := vsync + 1
	vi.countPerScanline = viClock / vi.refreshRate / scanlines
	vi.countPerVbl = scanlines * vi.countPerScanline

	log.ModTiming.DebugZ("VI timing recomputed").
		Uint32("vsync", vsync).
		Uint32("scanline_count", vi.countPerScanline).
		Uint32("vbl_count", vi.countPerVbl).
		End()
}

// checkVblIntr schedules the vertical-blank event if one is needed and none
// is pending. An interrupt line at or past the sync terminal count can never
// fire.
func (vi *VI) checkVblIntr() {
	if vi.sched.HasVblankPending() {
		return
	}
	intr := vi.Dev.Mem.U32(viIntrReg)
	sync := vi.Dev.Mem.U32(viVSyncReg)
	if intr >= sync {
		log.ModVI.WarnZ("VI interrupt line beyond sync, not scheduling").
			Uint32("intr", intr).
			Uint32("sync", sync).
			End()
		return
	}
	if vi.countPerVbl == 0 {
		return
	}
	vi.sched.ScheduleVblank(vi.countPerVbl)
}

func (vi *VI) ReadU32(addr uint32, peek bool) uint32 {
	m := vi.Dev.Mem
	ea := vi.EA(addr, 4)
	if ea != viCurrentReg || peek {
		return m.U32(ea)
	}

	// CURRENT is a live scanline estimate derived from the cycles left until
	// the next vertical blank, not a stored value.
	if vi.countPerScanline == 0 {
		return m.U32(ea)
	}
	remaining := vi.sched.CyclesToVblank()
	var executed uint32
	if remaining < vi.countPerVbl {
		executed = vi.countPerVbl - remaining
	}
	scanline := executed / vi.countPerScanline
	if sync := m.U32(viVSyncReg); sync != 0 && scanline >= sync {
		scanline -= sync
	}

	// Bit 0 reflects the interlace field.
	scanline = (scanline &^ 1) | vi.field

	m.SetU32(viCurrentReg, scanline)
	return scanline
}

// OnVblank is invoked by the cycle scheduler when the vertical blanking edge
// is reached: it advances the field/frame counters, schedules the next edge
// one frame ahead and raises the VI interrupt.
func (vi *VI) OnVblank() {
	vi.curVbl++
	if vi.Dev.Mem.U32(viControlReg)&viCtrlSerrate != 0 {
		hwio.FlipBit32(&vi.field, 0)
	}
	vi.sched.ScheduleVblank(vi.countPerVbl)

	vi.ic.SetBits32(IntrVI)
	vi.cpu.UpdateInterruptCause()
}

// NewFrame reports whether a vertical blank occurred since the last call.
func (vi *VI) NewFrame() bool {
	if vi.curVbl == vi.lastVbl {
		return false
	}
	vi.lastVbl = vi.curVbl
	return true
}
