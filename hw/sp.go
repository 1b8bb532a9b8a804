package hw

import (
	"reality/emu/log"
	"reality/hw/hwio"
)

// SP register file, byte offsets within the register range.
const (
	spMemAddrReg   = 0x00
	spDramAddrReg  = 0x04
	spRdLenReg     = 0x08
	spWrLenReg     = 0x0C
	spStatusReg    = 0x10
	spDmaFullReg   = 0x14
	spDmaBusyReg   = 0x18
	spSemaphoreReg = 0x1C

	spRegsSize = 0x20
)

// Writable bits. DMA addresses and lengths are 8-byte aligned; the rest of
// the bits always read back as zero.
const (
	spMemAddrWritable  = 0x0000_1ff8
	spDramAddrWritable = 0x00ff_fff8
	spLenWritable      = 0xff8f_fff8 // skip[31:20] | count[19:12] | len[11:0]
)

// STATUS register flags.
const (
	spStatusHalt uint32 = 1 << iota
	spStatusBroke
	spStatusDMABusy
	spStatusDMAFull
	spStatusIOFull
	spStatusSStep
	spStatusIntrBreak
	spStatusSig0
	// sig1..sig7 occupy the next 7 bits
)

// STATUS write command word: paired set/clear bit requests, not flag values.
const (
	spClrHalt uint32 = 1 << iota
	spSetHalt
	spClrBroke
	spClrIntr
	spSetIntr
	spClrSStep
	spSetSStep
	spClrIntrBreak
	spSetIntrBreak
	spClrSig0
	spSetSig0
	// clr/set pairs for sig1..sig7 follow, through bit 24
)

const (
	spMemSize  = 0x2000 // DMEM + IMEM, 4 KiB each
	spMemMask  = spMemSize - 1
	spBankBit  = 0x1000 // distinguishes the DMEM and IMEM halves
	spBankMask = 0x0fff // DMA wrap-around is confined to one half
)

// SP is the signal processor's register file and DMA engine. The vector
// execution core itself is an external collaborator reached through
// CoprocessorControl.
type SP struct {
	hwio.Dev

	mem *hwio.Mem // DMEM+IMEM
	ram *hwio.Mem // RDRAM
	ic  InterruptController
	cpu CPUHooks
	cop CoprocessorControl
}

func newSP(ram *hwio.Mem, ic InterruptController, cpu CPUHooks, cop CoprocessorControl) *SP {
	sp := &SP{
		mem: hwio.NewMem("spmem", spMemSize),
		ram: ram,
		ic:  ic,
		cpu: cpu,
		cop: cop,
	}
	sp.Dev = hwio.Dev{
		Name:  "SP registers",
		Mem:   hwio.NewMem("spregs", spRegsSize),
		Start: kseg1Base | 0x0404_0000,
		End:   kseg1Base | (0x0404_0000 + spRegsSize),
	}
	sp.Reset()
	return sp
}

// MemDevice returns the bus device exposing DMEM/IMEM. Accesses wrap modulo
// the 8 KiB bank pair.
func (sp *SP) MemDevice() *hwio.Dev {
	return &hwio.Dev{
		Name:   "SP memory",
		Mem:    sp.mem,
		Start:  kseg1Base | 0x0400_0000,
		End:    kseg1Base | (0x0400_0000 + spMemSize),
		CalcEA: func(addr uint32) uint32 { return addr & spMemMask },
	}
}

// Reset restores power-on register values: the SP comes up halted.
func (sp *SP) Reset() {
	clear(sp.Dev.Mem.Data)
	sp.Dev.Mem.SetU32(spStatusReg, spStatusHalt)
}

// Halted reports whether the coprocessor is halted.
func (sp *SP) Halted() bool {
	return sp.Dev.Mem.U32(spStatusReg)&spStatusHalt != 0
}

func (sp *SP) ReadU32(addr uint32, peek bool) uint32 {
	ea := sp.EA(addr, 4)
	val := sp.Dev.Mem.U32(ea)
	if ea == spSemaphoreReg && !peek {
		// Hardware semaphore: the first read acquires it (returns 0), later
		// reads see it taken (return 1) until a write releases it.
		sp.Dev.Mem.SetU32(spSemaphoreReg, 1)
	}
	return val
}

func (sp *SP) Write32(addr uint32, val uint32) {
	m := sp.Dev.Mem
	ea := sp.EA(addr, 4)
	switch ea {
	case spMemAddrReg:
		m.SetU32(ea, val&spMemAddrWritable)
	case spDramAddrReg:
		m.SetU32(ea, val&spDramAddrWritable)
	case spRdLenReg:
		m.SetU32(ea, val&spLenWritable)
		sp.runDMA(true)
	case spWrLenReg:
		m.SetU32(ea, val&spLenWritable)
		sp.runDMA(false)
	case spStatusReg:
		sp.writeStatus(val)
	case spDmaFullReg, spDmaBusyReg:
		log.ModSP.DebugZ("write to read-only SP register").
			Hex32("ea", ea).
			Hex32("val", val).
			End()
	case spSemaphoreReg:
		// Any write releases the semaphore.
		m.SetU32(ea, 0)
	default:
		log.ModSP.WarnZ("unhandled SP register write").
			Hex32("ea", ea).
			Hex32("val", val).
			End()
		m.SetU32(ea, val)
	}
}

// runDMA executes a transfer between RDRAM and SP memory, synchronously at
// register-write time. toSP selects the direction: RD_LEN writes copy
// DRAM->SP, WR_LEN writes copy SP->DRAM.
func (sp *SP) runDMA(toSP bool) {
	m := sp.Dev.Mem

	lenReg := uint32(spWrLenReg)
	if toSP {
		lenReg = spRdLenReg
	}
	lenVal := m.U32(lenReg)

	// Transfer length is rounded up to the next multiple of 8 bytes.
	length := ((lenVal & 0xfff) | 7) + 1
	count := ((lenVal >> 12) & 0xff) + 1
	skip := (lenVal >> 20) & 0xfff

	spAddr := m.U32(spMemAddrReg) & (spBankBit | spBankMask)
	dramAddr := m.U32(spDramAddrReg) & 0x00ff_ffff

	// Wrap-around stays confined to the addressed half of SP memory.
	bank := spAddr & spBankBit
	spOff := spAddr & spBankMask

	ramMask := uint32(len(sp.ram.Data) - 1)
	for i := uint32(0); i < count; i++ {
		for j := uint32(0); j < length; j++ {
			sa := bank | (spOff & spBankMask)
			da := dramAddr & ramMask
			if toSP {
				sp.mem.Data[sa] = sp.ram.Data[da]
			} else {
				sp.ram.Data[da] = sp.mem.Data[sa]
			}
			spOff++
			dramAddr++
		}
		dramAddr += skip
	}

	// Address registers end up one past the last transferred byte, and both
	// length registers are reset to the count=0/len=0xff8 sentinel with
	// their skip field preserved.
	m.SetU32(spMemAddrReg, bank|(spOff&spBankMask))
	m.SetU32(spDramAddrReg, dramAddr&0x00ff_ffff)
	m.SetU32Masked(spRdLenReg, 0xff8, 0x000f_ffff)
	m.SetU32Masked(spWrLenReg, 0xff8, 0x000f_ffff)

	m.SetU32Masked(spStatusReg, 0, spStatusDMABusy)
	m.SetU32(spDmaBusyReg, 0)

	dir := "sp->dram"
	if toSP {
		dir = "dram->sp"
	}
	log.ModDMA.DebugZ("SP DMA transfer").
		String("dir", dir).
		Hex32("spaddr", spAddr).
		Hex32("dram", m.U32(spDramAddrReg)).
		Uint32("len", length).
		Uint32("count", count).
		Uint32("skip", skip).
		End()
}

func (sp *SP) writeStatus(cmd uint32) {
	m := sp.Dev.Mem
	status := m.U32(spStatusReg)

	// Paired set/clear bits requesting both transitions cancel out; HALT,
	// INTR and BROKE have bespoke handling.
	switch cmd & (spSetHalt | spClrHalt) {
	case spSetHalt:
		status |= spStatusHalt
		m.SetU32(spStatusReg, status)
		sp.cop.StopExecution()
		if status&spStatusIntrBreak != 0 {
			sp.raiseInterrupt()
		}
	case spClrHalt:
		status &^= spStatusHalt
		m.SetU32(spStatusReg, status)
		// A queued task takes precedence over a raw execution start.
		if !sp.cop.TryDispatchTask() {
			sp.cop.StartExecution()
		}
	}

	if cmd&spClrBroke != 0 {
		status &^= spStatusBroke
	}

	switch cmd & (spSetIntr | spClrIntr) {
	case spSetIntr:
		sp.raiseInterrupt()
	case spClrIntr:
		sp.ic.ClearBits32(IntrSP)
		sp.cpu.UpdateInterruptCause()
	}

	apply := func(clr, set, flag uint32) {
		switch cmd & (clr | set) {
		case set:
			hwio.SetBits32(&status, flag)
		case clr:
			hwio.ClearBits32(&status, flag)
		}
	}
	apply(spClrSStep, spSetSStep, spStatusSStep)
	apply(spClrIntrBreak, spSetIntrBreak, spStatusIntrBreak)
	for i := uint32(0); i < 8; i++ {
		apply(spClrSig0<<(2*i), spSetSig0<<(2*i), spStatusSig0<<i)
	}

	m.SetU32(spStatusReg, status)
}

// SignalBreak is called by the execution core when the coprocessor hits a
// BREAK: it halts, sets BROKE, and raises the SP interrupt if INTR_BREAK is
// armed. This is how microcode tasks signal completion.
func (sp *SP) SignalBreak() {
	m := sp.Dev.Mem
	status := m.U32(spStatusReg) | spStatusHalt | spStatusBroke
	m.SetU32(spStatusReg, status)
	sp.cop.StopExecution()
	if status&spStatusIntrBreak != 0 {
		sp.raiseInterrupt()
	}
}

func (sp *SP) raiseInterrupt() {
	sp.ic.SetBits32(IntrSP)
	sp.cpu.UpdateInterruptCause()
}
