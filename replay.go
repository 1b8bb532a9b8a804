package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-faster/jx"

	"reality/emu"
	"reality/emu/log"
	"reality/hw"
)

// traceOp is one recorded bus access. Traces are JSON arrays of objects:
//
//	[
//	  {"op": "w32", "addr": "a4040010", "val": "00000002"},
//	  {"op": "step", "cycles": 5000},
//	  {"op": "vbl"},
//	  {"op": "r32", "addr": "a4400010"}
//	]
//
// addr and val are hexadecimal strings, as produced by hardware capture
// tooling. "step" advances the replay scheduler, "vbl" forces the pending
// vertical-blank event.
type traceOp struct {
	Op     string
	Addr   uint32
	Val    uint64
	Cycles uint32
}

func parseTrace(buf []byte) ([]traceOp, error) {
	var ops []traceOp

	d := jx.DecodeBytes(buf)
	err := d.Arr(func(d *jx.Decoder) error {
		var op traceOp
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "op":
				s, err := d.Str()
				op.Op = s
				return err
			case "addr":
				s, err := d.Str()
				if err != nil {
					return err
				}
				v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 32)
				op.Addr = uint32(v)
				return err
			case "val":
				s, err := d.Str()
				if err != nil {
					return err
				}
				v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
				op.Val = v
				return err
			case "cycles":
				v, err := d.UInt32()
				op.Cycles = v
				return err
			default:
				return d.Skip()
			}
		}); err != nil {
			return err
		}
		ops = append(ops, op)
		return nil
	})
	return ops, err
}

// replayScheduler is a minimal cycle event queue, sufficient to drive the
// VI's vblank event from "step" trace entries.
type replayScheduler struct {
	vi        *hw.VI
	pending   bool
	remaining uint32
}

func (s *replayScheduler) ScheduleVblank(cyclesFromNow uint32) {
	s.pending = true
	s.remaining = cyclesFromNow
}

func (s *replayScheduler) HasVblankPending() bool { return s.pending }
func (s *replayScheduler) CyclesToVblank() uint32 { return s.remaining }

func (s *replayScheduler) advance(cycles uint32) {
	if !s.pending {
		return
	}
	if cycles < s.remaining {
		s.remaining -= cycles
		return
	}
	s.pending = false
	s.vi.OnVblank()
}

// replayContext stamps every log line with the trace step being replayed.
type replayContext struct {
	step int
}

func (c *replayContext) AddLogContext(e *log.EntryZ) {
	e.Int("step", c.step)
}

func replay(cfg emu.Config, args Replay) error {
	buf, err := os.ReadFile(args.TracePath)
	if err != nil {
		return err
	}
	ops, err := parseTrace(buf)
	if err != nil {
		return fmt.Errorf("%s: %v", args.TracePath, err)
	}

	std := cfg.Standard()
	switch strings.ToUpper(args.Standard) {
	case "NTSC":
		std = hw.NTSC
	case "PAL":
		std = hw.PAL
	}

	sched := &replayScheduler{}
	n := hw.New(std, cfg.RAMSize(), hw.Hooks{Sched: sched})
	sched.vi = n.VI

	rctx := &replayContext{}
	log.AddContext(rctx)

	for i, op := range ops {
		rctx.step = i
		if err := replayOp(n, sched, op, args.Peek); err != nil {
			return fmt.Errorf("step %d: %v", i, err)
		}
	}

	// Final interrupt state is usually what a trace is being replayed for.
	fmt.Printf("MI_INTR=%08x MI_MASK=%08x pending=%t\n",
		n.Bus.Peek32(0xa430_0008), n.Bus.Peek32(0xa430_000c), n.MI.Pending())
	return nil
}

func replayOp(n *hw.N64, sched *replayScheduler, op traceOp, peek bool) error {
	switch op.Op {
	case "r8":
		var val uint8
		if peek {
			val = n.Bus.Peek8(op.Addr)
		} else {
			val = n.Bus.ReadU8(op.Addr)
		}
		fmt.Printf("r8  %08x => %02x\n", op.Addr, val)
	case "r16":
		var val uint16
		if peek {
			val = n.Bus.Peek16(op.Addr)
		} else {
			val = n.Bus.ReadU16(op.Addr)
		}
		fmt.Printf("r16 %08x => %04x\n", op.Addr, val)
	case "r32":
		var val uint32
		if peek {
			val = n.Bus.Peek32(op.Addr)
		} else {
			val = n.Bus.ReadU32(op.Addr)
		}
		fmt.Printf("r32 %08x => %08x\n", op.Addr, val)
	case "r64":
		var val uint64
		if peek {
			val = n.Bus.Peek64(op.Addr)
		} else {
			val = n.Bus.ReadU64(op.Addr)
		}
		fmt.Printf("r64 %08x => %016x\n", op.Addr, val)
	case "w8":
		n.Bus.Write8(op.Addr, uint8(op.Val))
	case "w16":
		n.Bus.Write16(op.Addr, uint16(op.Val))
	case "w32":
		n.Bus.Write32(op.Addr, uint32(op.Val))
	case "w64":
		n.Bus.Write64(op.Addr, op.Val)
	case "step":
		sched.advance(op.Cycles)
	case "vbl":
		if sched.pending {
			sched.advance(sched.remaining)
		} else {
			n.VI.OnVblank()
		}
	default:
		return fmt.Errorf("unknown trace op %q", op.Op)
	}
	return nil
}
