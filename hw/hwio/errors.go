package hwio

import "fmt"

type AccessKind int

const (
	// OutOfRange means a device computed an effective address that, together
	// with the access width, exceeds its backing region. Always an internal
	// bug in the range table or EA calculation.
	OutOfRange AccessKind = iota

	// Unmapped means the address fell in a hole of the bus table.
	Unmapped

	// TranslationFault means the address translator returned the fault
	// sentinel for a virtual address.
	TranslationFault
)

func (k AccessKind) String() string {
	switch k {
	case OutOfRange:
		return "out of range"
	case Unmapped:
		return "unmapped"
	case TranslationFault:
		return "translation fault"
	}
	return fmt.Sprintf("AccessKind(%d)", int(k))
}

// AccessError describes a faulty bus access. Routing bugs (OutOfRange) are
// raised as panics carrying an *AccessError since they indicate emulator
// bugs; translation faults are passed to the machine halt hook.
type AccessError struct {
	Kind AccessKind
	Dev  string // device name, if the access reached one
	Addr uint32 // bus address of the access
	EA   uint32 // effective address within the device region
	Size uint32 // access width in bytes
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("%s: %s access addr=%08x ea=%08x size=%d",
		e.Dev, e.Kind, e.Addr, e.EA, e.Size)
}
