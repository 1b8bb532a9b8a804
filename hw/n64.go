package hw

import (
	"fmt"

	"reality/emu/log"
	"reality/hw/hwio"
)

// CPU address segments. KSEG0/KSEG1 are direct-mapped windows onto physical
// space (cached and uncached); everything else goes through the TLB.
const (
	kseg0Base uint64 = 0x8000_0000
	kseg1Base uint64 = 0xa000_0000
	kseg2Base uint64 = 0xc000_0000
	addrSpace uint64 = 1 << 32
)

const (
	// RDRAMSize is the stock main memory size; RDRAMExpandedSize is with the
	// expansion pak installed.
	RDRAMSize         = 4 * 1024 * 1024
	RDRAMExpandedSize = 8 * 1024 * 1024
)

type VideoStandard int

//go:generate go tool stringer -type=VideoStandard
const (
	NTSC VideoStandard = iota
	PAL
)

// Hooks bundles the external collaborators a machine is wired to. Nil fields
// are replaced with no-op implementations, which is what the tests and the
// trace-replay harness rely on.
type Hooks struct {
	TLB   AddressTranslator
	CPU   CPUHooks
	Sched Scheduler
	Cop   CoprocessorControl
	Out   Presenter
}

func (h Hooks) withDefaults() Hooks {
	if h.TLB == nil {
		h.TLB = nopTranslator{}
	}
	if h.CPU == nil {
		h.CPU = nopCPU{}
	}
	if h.Sched == nil {
		h.Sched = nopScheduler{}
	}
	if h.Cop == nil {
		h.Cop = nopCoprocessor{}
	}
	if h.Out == nil {
		h.Out = nopPresenter{}
	}
	return h
}

// N64 owns the bus and the devices hanging off it. It is built once per
// emulated machine and driven from a single thread by the CPU step loop.
type N64 struct {
	Bus *hwio.Table
	RAM *hwio.Mem

	SP *SP
	VI *VI
	MI *MI

	std VideoStandard
}

// New builds a machine with the given amount of RDRAM and wires the bus
// table. ramSize must be a power of two (DMA engines rely on mask wrapping).
func New(std VideoStandard, ramSize int, hooks Hooks) *N64 {
	if ramSize&(ramSize-1) != 0 {
		panic(fmt.Errorf("hw: RDRAM size %#x is not a power of two", ramSize))
	}
	hooks = hooks.withDefaults()

	n := &N64{
		Bus: hwio.NewTable("cpu"),
		RAM: hwio.NewMem("rdram", ramSize),
		std: std,
	}
	n.MI = newMI(hooks.CPU)
	n.SP = newSP(n.RAM, n.MI, hooks.CPU, hooks.Cop)
	n.VI = newVI(std, n.RAM, n.MI, hooks.CPU, hooks.Sched, hooks.Out)

	// TLB-mapped segments surround the direct-mapped windows.
	n.Bus.Map(&mappedRAM{
		name: "mapped memory (kuseg)",
		ram:  n.RAM, tlb: hooks.TLB, cpu: hooks.CPU,
		start: 0, end: kseg0Base,
	})
	n.Bus.Map(&mappedRAM{
		name: "mapped memory (kseg2)",
		ram:  n.RAM, tlb: hooks.TLB, cpu: hooks.CPU,
		start: kseg2Base, end: addrSpace,
	})

	n.Bus.Map(newCachedRAM(n.RAM, ramSize))
	n.Bus.Map(newUncachedRAM(n.RAM, ramSize))

	spmem := n.SP.MemDevice()
	n.Bus.Map(spmem)
	n.Bus.Map(n.SP)
	n.Bus.Map(n.MI)
	n.Bus.Map(n.VI)

	// Fill the holes with logging filler devices so that a stray guest
	// access degrades gracefully instead of being a hard unmapped error.
	n.fillUnbacked("kseg0 unbacked", kseg0Base+uint64(ramSize), kseg1Base)
	n.fillUnbacked("kseg1 unbacked", kseg1Base+uint64(ramSize), spmem.Start)
	_, spmemEnd := spmem.BusRange()
	n.fillUnbacked("rcp unbacked", spmemEnd, n.SP.Start)
	n.fillUnbacked("rcp unbacked", n.SP.End, n.MI.Start)
	n.fillUnbacked("rcp unbacked", n.MI.End, n.VI.Start)
	n.fillUnbacked("kseg1 unbacked", n.VI.End, kseg2Base)

	log.ModEmu.InfoZ("machine built").
		Stringer("standard", std).
		Int("rdram", ramSize).
		End()
	return n
}

func (n *N64) fillUnbacked(name string, start, end uint64) {
	if start >= end {
		return
	}
	n.Bus.Map(&invalidDev{name: name, start: start, end: end})
}

// Reset restores the hardware-defined power-on register values. RDRAM
// contents are left alone, as on a warm boot.
func (n *N64) Reset() {
	n.SP.Reset()
	n.VI.Reset()
	n.MI.Reset()
}
