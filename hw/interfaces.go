package hw

// External collaborators of the bus core. The CPU interpreter, its event
// queue, the TLB and the display backend all live outside this package; only
// their contracts are consumed here. A nil hook is replaced by a no-op
// implementation at machine construction.

// AddressTranslator converts CPU virtual addresses to physical RDRAM
// addresses for mapped-memory accesses. A result of 0 signals a translation
// fault (physical address 0 is never handed out for mapped pages).
type AddressTranslator interface {
	TranslateRead(vaddr uint32) uint32
	TranslateWrite(vaddr uint32) uint32

	// TranslateReadInternal is the side-effect-free probe variant used by
	// debugger/tracing reads.
	TranslateReadInternal(vaddr uint32) uint32
}

// InterruptController exposes the pending-interrupt bits peripherals assert
// into. Implemented by the MI device.
type InterruptController interface {
	SetBits32(mask uint32)
	ClearBits32(mask uint32)
}

// CPUHooks is the notification path back into the CPU core.
type CPUHooks interface {
	// UpdateInterruptCause asks the CPU to recompute its pending-interrupt
	// state after an interrupt bit changed.
	UpdateInterruptCause()

	// Halt stops emulation with a diagnostic. Used for translation faults,
	// since guest exception delivery is not implemented.
	Halt(err error)
}

// Scheduler is the CPU-side cycle event queue, as seen by the VI.
type Scheduler interface {
	ScheduleVblank(cyclesFromNow uint32)
	HasVblankPending() bool
	CyclesToVblank() uint32
}

// CoprocessorControl starts and stops RSP execution. Implemented by the RSP
// execution core.
type CoprocessorControl interface {
	StartExecution()
	StopExecution()

	// TryDispatchTask gives a queued coprocessor task the chance to preempt a
	// raw execution start; it reports whether a task was dispatched.
	TryDispatchTask() bool
}

// Presenter is the display backend.
type Presenter interface {
	// PresentFrame displays the frame whose framebuffer starts at origin
	// within RDRAM.
	PresentFrame(ram []byte, origin uint32)

	// Yield hands control back to the host scheduler after a present.
	Yield()
}

type nopTranslator struct{}

func (nopTranslator) TranslateRead(vaddr uint32) uint32         { return 0 }
func (nopTranslator) TranslateWrite(vaddr uint32) uint32        { return 0 }
func (nopTranslator) TranslateReadInternal(vaddr uint32) uint32 { return 0 }

type nopCPU struct{}

func (nopCPU) UpdateInterruptCause() {}
func (nopCPU) Halt(err error)        {}

type nopScheduler struct{}

func (nopScheduler) ScheduleVblank(cyclesFromNow uint32) {}
func (nopScheduler) HasVblankPending() bool              { return false }
func (nopScheduler) CyclesToVblank() uint32              { return 0 }

type nopCoprocessor struct{}

func (nopCoprocessor) StartExecution()       {}
func (nopCoprocessor) StopExecution()        {}
func (nopCoprocessor) TryDispatchTask() bool { return false }

type nopPresenter struct{}

func (nopPresenter) PresentFrame(ram []byte, origin uint32) {}
func (nopPresenter) Yield()                                 {}
