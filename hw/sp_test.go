package hw

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSPDMARoundTrip(t *testing.T) {
	n, _, _, _, _, _ := testMachine(NTSC)

	src := []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88}
	copy(n.RAM.Data[0x1000:], src)

	n.Bus.Write32(spRegsBase+spMemAddrReg, 0x0000)
	n.Bus.Write32(spRegsBase+spDramAddrReg, 0x0000_1000)
	// skip=0, count=1, len field 7 -> 8 bytes
	n.Bus.Write32(spRegsBase+spRdLenReg, 0x0000_0007)

	if diff := cmp.Diff(src, n.SP.mem.Data[:8]); diff != "" {
		t.Errorf("DMEM mismatch after DMA (-want +got):\n%s", diff)
	}
	if got := n.Bus.ReadU32(spRegsBase + spMemAddrReg); got != 0x8 {
		t.Errorf("MEM_ADDR = %#x, want 0x8", got)
	}
	if got := n.Bus.ReadU32(spRegsBase + spDramAddrReg); got != 0x1008 {
		t.Errorf("DRAM_ADDR = %#x, want 0x1008", got)
	}
	if status := n.Bus.ReadU32(spRegsBase + spStatusReg); status&spStatusDMABusy != 0 {
		t.Errorf("STATUS = %#x, DMA busy flag still set", status)
	}
	if got := n.Bus.ReadU32(spRegsBase + spDmaBusyReg); got != 0 {
		t.Errorf("DMA_BUSY = %#x, want 0", got)
	}
}

func TestSPDMAWriteDirection(t *testing.T) {
	n, _, _, _, _, _ := testMachine(NTSC)

	src := []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02, 0x03, 0x04}
	// Fill DMEM through the bus, so the wrap EA path is exercised too.
	for i, b := range src {
		n.Bus.Write8(spMemBase+uint32(i), b)
	}

	n.Bus.Write32(spRegsBase+spMemAddrReg, 0x0000)
	n.Bus.Write32(spRegsBase+spDramAddrReg, 0x0000_2000)
	n.Bus.Write32(spRegsBase+spWrLenReg, 0x0000_0007)

	if !bytes.Equal(n.RAM.Data[0x2000:0x2008], src) {
		t.Errorf("RDRAM = % x, want % x", n.RAM.Data[0x2000:0x2008], src)
	}
}

// The decoded transfer length is ((len field | 7) + 1): always a multiple of
// 8 and at least 8. Observed through the DRAM address advance.
func TestSPDMALengthRounding(t *testing.T) {
	tests := []struct {
		lenReg uint32
		want   uint32
	}{
		{0x000, 8},
		{0x001, 8},
		{0x007, 8},
		{0x008, 16},
		{0x00f, 16},
		{0xff7, 0xff8},
		{0xff8, 0x1000},
		{0xfff, 0x1000},
	}
	for _, tt := range tests {
		n, _, _, _, _, _ := testMachine(NTSC)
		n.Bus.Write32(spRegsBase+spMemAddrReg, 0x0000)
		n.Bus.Write32(spRegsBase+spDramAddrReg, 0x0000_4000)
		n.Bus.Write32(spRegsBase+spRdLenReg, tt.lenReg)

		got := n.Bus.ReadU32(spRegsBase+spDramAddrReg) - 0x4000
		if got != tt.want {
			t.Errorf("lenReg=%#x: transferred %d bytes, want %d", tt.lenReg, got, tt.want)
		}
	}
}

// After any DMA both length registers read back count=0, len=0xff8, with
// their skip field preserved.
func TestSPDMALengthRegisterReset(t *testing.T) {
	n, _, _, _, _, _ := testMachine(NTSC)

	// skip=0x450, count=0, len=7
	n.Bus.Write32(spRegsBase+spWrLenReg, 0x4500_0007)
	if got := n.Bus.ReadU32(spRegsBase + spWrLenReg); got != 0x4500_0ff8 {
		t.Errorf("WR_LEN = %08x, want 45000ff8", got)
	}

	// skip=0x120, count=0, len=0xff7
	n.Bus.Write32(spRegsBase+spRdLenReg, 0x1200_0ff7)
	if got := n.Bus.ReadU32(spRegsBase + spRdLenReg); got != 0x1200_0ff8 {
		t.Errorf("RD_LEN = %08x, want 12000ff8", got)
	}
	// WR_LEN skip untouched by the RD_LEN-triggered transfer.
	if got := n.Bus.ReadU32(spRegsBase + spWrLenReg); got != 0x4500_0ff8 {
		t.Errorf("WR_LEN = %08x, want 45000ff8", got)
	}
}

// DMA wrap-around stays confined to the addressed 4 KiB half of SP memory.
func TestSPDMABankWrap(t *testing.T) {
	n, _, _, _, _, _ := testMachine(NTSC)

	for i := 0; i < 16; i++ {
		n.RAM.Data[0x3000+i] = byte(i + 1)
	}

	// Start 8 bytes before the end of IMEM: the copy must wrap back to the
	// start of IMEM, not spill into the next region.
	n.Bus.Write32(spRegsBase+spMemAddrReg, 0x1ff8)
	n.Bus.Write32(spRegsBase+spDramAddrReg, 0x0000_3000)
	n.Bus.Write32(spRegsBase+spRdLenReg, 0x0000_000f) // 16 bytes

	if !bytes.Equal(n.SP.mem.Data[0x1ff8:0x2000], []byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Errorf("IMEM tail = % x", n.SP.mem.Data[0x1ff8:0x2000])
	}
	if !bytes.Equal(n.SP.mem.Data[0x1000:0x1008], []byte{9, 10, 11, 12, 13, 14, 15, 16}) {
		t.Errorf("IMEM head = % x", n.SP.mem.Data[0x1000:0x1008])
	}
	// Re-wrapped through the bank mask: 0x1000 | ((0xff8 + 16) & 0xfff).
	if got := n.Bus.ReadU32(spRegsBase + spMemAddrReg); got != 0x1008 {
		t.Errorf("MEM_ADDR = %#x, want 0x1008", got)
	}
}

func TestSPDMASkip(t *testing.T) {
	n, _, _, _, _, _ := testMachine(NTSC)

	for i := 0; i < 32; i++ {
		n.RAM.Data[0x5000+i] = byte(i)
	}

	// count=2, len=8, skip=8: two rows of 8 bytes with an 8-byte gap in
	// RDRAM; SP side is packed.
	n.Bus.Write32(spRegsBase+spMemAddrReg, 0x0000)
	n.Bus.Write32(spRegsBase+spDramAddrReg, 0x0000_5000)
	n.Bus.Write32(spRegsBase+spRdLenReg, 0x0080_1007)

	want := append([]byte{0, 1, 2, 3, 4, 5, 6, 7}, []byte{16, 17, 18, 19, 20, 21, 22, 23}...)
	if diff := cmp.Diff(want, n.SP.mem.Data[:16]); diff != "" {
		t.Errorf("DMEM mismatch (-want +got):\n%s", diff)
	}
	// 2*(8+8) bytes advanced on the DRAM side.
	if got := n.Bus.ReadU32(spRegsBase + spDramAddrReg); got != 0x5020 {
		t.Errorf("DRAM_ADDR = %#x, want 0x5020", got)
	}
}

// A command word with both the set and clear bit of a flag leaves the flag
// unchanged.
func TestSPStatusPairedBitsNoOp(t *testing.T) {
	pairs := []struct {
		name     string
		clr, set uint32
		flag     uint32
	}{
		{"sstep", spClrSStep, spSetSStep, spStatusSStep},
		{"intrbreak", spClrIntrBreak, spSetIntrBreak, spStatusIntrBreak},
		{"sig0", spClrSig0, spSetSig0, spStatusSig0},
		{"sig3", spClrSig0 << 6, spSetSig0 << 6, spStatusSig0 << 3},
		{"sig7", spClrSig0 << 14, spSetSig0 << 14, spStatusSig0 << 7},
	}
	for _, tt := range pairs {
		t.Run(tt.name, func(t *testing.T) {
			n, _, _, _, _, _ := testMachine(NTSC)

			for _, initial := range []uint32{0, tt.flag} {
				if initial != 0 {
					n.Bus.Write32(spRegsBase+spStatusReg, tt.set)
				} else {
					n.Bus.Write32(spRegsBase+spStatusReg, tt.clr)
				}
				before := n.Bus.ReadU32(spRegsBase+spStatusReg) & tt.flag

				n.Bus.Write32(spRegsBase+spStatusReg, tt.clr|tt.set)
				after := n.Bus.ReadU32(spRegsBase+spStatusReg) & tt.flag
				if before != after {
					t.Errorf("initial=%#x: flag went %#x -> %#x under set+clr", initial, before, after)
				}
			}
		})
	}
}

func TestSPStatusHalt(t *testing.T) {
	n, _, _, cop, _, _ := testMachine(NTSC)

	if !n.SP.Halted() {
		t.Fatal("SP must come up halted")
	}

	// Both halt bits: no transition, coprocessor untouched.
	n.Bus.Write32(spRegsBase+spStatusReg, spSetHalt|spClrHalt)
	if !n.SP.Halted() || cop.starts != 0 || cop.stops != 0 {
		t.Errorf("halted=%t starts=%d stops=%d after set+clr", n.SP.Halted(), cop.starts, cop.stops)
	}

	// Clear halt: no queued task, raw execution start.
	n.Bus.Write32(spRegsBase+spStatusReg, spClrHalt)
	if n.SP.Halted() || cop.starts != 1 || cop.dispatches != 1 {
		t.Errorf("halted=%t starts=%d dispatches=%d after clr", n.SP.Halted(), cop.starts, cop.dispatches)
	}

	// Set halt: execution stop requested.
	n.Bus.Write32(spRegsBase+spStatusReg, spSetHalt)
	if !n.SP.Halted() || cop.stops != 1 {
		t.Errorf("halted=%t stops=%d after set", n.SP.Halted(), cop.stops)
	}

	// A queued task preempts the raw start.
	cop.dispatchOK = true
	n.Bus.Write32(spRegsBase+spStatusReg, spClrHalt)
	if cop.starts != 1 || cop.dispatches != 2 {
		t.Errorf("starts=%d dispatches=%d with queued task", cop.starts, cop.dispatches)
	}
}

func TestSPStatusInterrupt(t *testing.T) {
	n, cpu, _, _, _, _ := testMachine(NTSC)

	n.Bus.Write32(spRegsBase+spStatusReg, spSetIntr)
	if got := n.Bus.ReadU32(miRegsBase + miIntrReg); got&IntrSP == 0 {
		t.Errorf("MI_INTR = %#x, SP bit not set", got)
	}
	if cpu.causeUpdates != 1 {
		t.Errorf("causeUpdates = %d, want 1", cpu.causeUpdates)
	}

	n.Bus.Write32(spRegsBase+spStatusReg, spClrIntr)
	if got := n.Bus.ReadU32(miRegsBase + miIntrReg); got&IntrSP != 0 {
		t.Errorf("MI_INTR = %#x, SP bit still set", got)
	}
	if cpu.causeUpdates != 2 {
		t.Errorf("causeUpdates = %d, want 2", cpu.causeUpdates)
	}

	// Both set and clear bits: the interrupt line is untouched.
	n.Bus.Write32(spRegsBase+spStatusReg, spSetIntr|spClrIntr)
	if got := n.Bus.ReadU32(miRegsBase + miIntrReg); got&IntrSP != 0 {
		t.Errorf("MI_INTR = %#x after set+clr", got)
	}
}

func TestSPHaltWithIntrBreak(t *testing.T) {
	n, cpu, _, _, _, _ := testMachine(NTSC)

	n.Bus.Write32(spRegsBase+spStatusReg, spSetIntrBreak|spClrHalt)
	cpu.causeUpdates = 0

	n.Bus.Write32(spRegsBase+spStatusReg, spSetHalt)
	if got := n.Bus.ReadU32(miRegsBase + miIntrReg); got&IntrSP == 0 {
		t.Errorf("MI_INTR = %#x, halting with INTR_BREAK armed must raise SP interrupt", got)
	}
	if cpu.causeUpdates != 1 {
		t.Errorf("causeUpdates = %d, want 1", cpu.causeUpdates)
	}
}

func TestSPSignalBreak(t *testing.T) {
	n, _, _, cop, _, _ := testMachine(NTSC)

	n.Bus.Write32(spRegsBase+spStatusReg, spSetIntrBreak|spClrHalt)
	n.SP.SignalBreak()

	status := n.Bus.ReadU32(spRegsBase + spStatusReg)
	if status&spStatusHalt == 0 || status&spStatusBroke == 0 {
		t.Errorf("STATUS = %#x, want HALT|BROKE set", status)
	}
	if cop.stops != 1 {
		t.Errorf("stops = %d, want 1", cop.stops)
	}
	if got := n.Bus.ReadU32(miRegsBase + miIntrReg); got&IntrSP == 0 {
		t.Errorf("MI_INTR = %#x, SP bit not set after break", got)
	}

	// BROKE has no set path through the command word; a bare clear always
	// clears it.
	n.Bus.Write32(spRegsBase+spStatusReg, spClrBroke)
	if status := n.Bus.ReadU32(spRegsBase + spStatusReg); status&spStatusBroke != 0 {
		t.Errorf("STATUS = %#x, BROKE still set", status)
	}
}

func TestSPSemaphore(t *testing.T) {
	n, _, _, _, _, _ := testMachine(NTSC)
	sem := uint32(spRegsBase + spSemaphoreReg)

	// First read acquires (0), second sees it taken (1).
	if got := n.Bus.ReadU32(sem); got != 0 {
		t.Errorf("first read = %d, want 0", got)
	}
	if got := n.Bus.ReadU32(sem); got != 1 {
		t.Errorf("second read = %d, want 1", got)
	}

	// Any write releases.
	n.Bus.Write32(sem, 0xffff_ffff)
	if got := n.Bus.ReadU32(sem); got != 0 {
		t.Errorf("read after release = %d, want 0", got)
	}

	// Peeking must not acquire.
	n.Bus.Write32(sem, 0)
	if got := n.Bus.Peek32(sem); got != 0 {
		t.Errorf("peek = %d, want 0", got)
	}
	if got := n.Bus.Peek32(sem); got != 0 {
		t.Errorf("second peek = %d, want 0", got)
	}
}

func TestSPAddressRegisterMasks(t *testing.T) {
	n, _, _, _, _, _ := testMachine(NTSC)

	n.Bus.Write32(spRegsBase+spMemAddrReg, 0xffff_ffff)
	if got := n.Bus.ReadU32(spRegsBase + spMemAddrReg); got != spMemAddrWritable {
		t.Errorf("MEM_ADDR = %08x, want %08x", got, spMemAddrWritable)
	}

	n.Bus.Write32(spRegsBase+spDramAddrReg, 0xffff_ffff)
	if got := n.Bus.ReadU32(spRegsBase + spDramAddrReg); got != spDramAddrWritable {
		t.Errorf("DRAM_ADDR = %08x, want %08x", got, spDramAddrWritable)
	}
}
