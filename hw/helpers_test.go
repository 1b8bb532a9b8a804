package hw

/* shared fakes for the external collaborator contracts */

type fakeCPU struct {
	causeUpdates int
	haltErr      error
}

func (c *fakeCPU) UpdateInterruptCause() { c.causeUpdates++ }
func (c *fakeCPU) Halt(err error)        { c.haltErr = err }

type fakeScheduler struct {
	pending   bool
	remaining uint32
	scheduled []uint32
}

func (s *fakeScheduler) ScheduleVblank(cyclesFromNow uint32) {
	s.pending = true
	s.remaining = cyclesFromNow
	s.scheduled = append(s.scheduled, cyclesFromNow)
}

func (s *fakeScheduler) HasVblankPending() bool { return s.pending }
func (s *fakeScheduler) CyclesToVblank() uint32 { return s.remaining }

type fakeCoprocessor struct {
	starts, stops int
	dispatches    int
	dispatchOK    bool
}

func (c *fakeCoprocessor) StartExecution() { c.starts++ }
func (c *fakeCoprocessor) StopExecution()  { c.stops++ }
func (c *fakeCoprocessor) TryDispatchTask() bool {
	c.dispatches++
	return c.dispatchOK
}

type fakePresenter struct {
	origins []uint32
	yields  int
}

func (p *fakePresenter) PresentFrame(ram []byte, origin uint32) {
	p.origins = append(p.origins, origin)
}

func (p *fakePresenter) Yield() { p.yields++ }

// fakeTLB maps virtual pages to physical addresses; anything absent faults.
type fakeTLB struct {
	pages map[uint32]uint32
}

func (t *fakeTLB) translate(vaddr uint32) uint32 {
	if t.pages == nil {
		return 0
	}
	return t.pages[vaddr]
}

func (t *fakeTLB) TranslateRead(vaddr uint32) uint32         { return t.translate(vaddr) }
func (t *fakeTLB) TranslateWrite(vaddr uint32) uint32        { return t.translate(vaddr) }
func (t *fakeTLB) TranslateReadInternal(vaddr uint32) uint32 { return t.translate(vaddr) }

// testMachine builds a machine wired to fresh fakes.
func testMachine(std VideoStandard) (*N64, *fakeCPU, *fakeScheduler, *fakeCoprocessor, *fakePresenter, *fakeTLB) {
	cpu := &fakeCPU{}
	sched := &fakeScheduler{}
	cop := &fakeCoprocessor{}
	out := &fakePresenter{}
	tlb := &fakeTLB{}
	n := New(std, RDRAMExpandedSize, Hooks{
		TLB:   tlb,
		CPU:   cpu,
		Sched: sched,
		Cop:   cop,
		Out:   out,
	})
	return n, cpu, sched, cop, out, tlb
}

// Register bus addresses used across tests.
const (
	spMemBase  = 0xa400_0000
	spRegsBase = 0xa404_0000
	miRegsBase = 0xa430_0000
	viRegsBase = 0xa440_0000
)
