// Package varargs tracks va_arg fetches for one call frame.
package varargs

import (
	"github.com/wippyai/clayout/abi"
	"github.com/wippyai/clayout/internal/align"
)

// State is the va_list view of a cursor.
type State struct {
	GPRemaining int
	FPRemaining int
	StackCursor int64 // offset into the overflow argument area
	GPOffset    int64 // gp_offset into the register save area
	FPOffset    int64 // fp_offset into the register save area
}

// Slot is one eightbyte fetched from the register save area.
type Slot struct {
	Class      abi.Class
	Eightbyte  int
	Index      int   // register index within its class
	SaveOffset int64 // offset of the register in the save area
}

// Location is where one variadic argument is fetched from.
type Location struct {
	Regs        []Slot
	StackOffset int64 // -1 when the value comes from registers
	Size        int64
}

// InRegisters reports whether the value comes from the register save area.
func (l Location) InRegisters() bool { return l.StackOffset < 0 }

// Cursor is created at va_start, advanced by Next at each va_arg and dropped
// at va_end. It must not be shared; use Copy for va_copy.
type Cursor struct {
	cfg   abi.Config
	gp    int
	fp    int
	stack int64
}

// Start returns a cursor after namedGP integer and namedFP SSE registers were
// used by named parameters, with an empty overflow area.
func Start(cfg abi.Config, namedGP, namedFP int) *Cursor {
	return &Cursor{cfg: cfg, gp: namedGP, fp: namedFP}
}

// FromPlan starts a cursor after the named parameters of plan, including
// those passed on the stack.
func FromPlan(cfg abi.Config, plan *abi.CallPlan) *Cursor {
	c := Start(cfg, plan.IntUsed, plan.SSEUsed)
	c.stack = plan.StackEnd
	return c
}

func (c *Cursor) gpMax() int { return len(c.cfg.IntArgRegs) }

func (c *Cursor) fpMax() int { return len(c.cfg.SSEArgRegs) }

func (c *Cursor) slot() int64 {
	if c.cfg.StackSlot <= 0 {
		return 8
	}
	return c.cfg.StackSlot
}

func (c *Cursor) fpSlot() int64 {
	if c.cfg.FPSlot <= 0 {
		return 16
	}
	return c.cfg.FPSlot
}

// Next returns the location of the next argument of classification cl and
// advances the cursor. Register-eligible values take one register per
// eightbyte when all of them are free and otherwise come whole from the
// overflow area; MEMORY values always come from the overflow area.
func (c *Cursor) Next(cl *abi.Classification) Location {
	if !cl.InMemory() && cl.Mode != abi.ByReferenceToCallerCopy {
		nInt, nSSE := cl.Count(abi.ClassInteger), cl.Count(abi.ClassSSE)
		if c.gp+nInt <= c.gpMax() && c.fp+nSSE <= c.fpMax() {
			return c.fromRegisters(cl)
		}
	}
	return c.fromStack(cl)
}

func (c *Cursor) fromRegisters(cl *abi.Classification) Location {
	loc := Location{StackOffset: -1, Size: cl.Size}
	for i, eb := range cl.Eightbytes {
		switch eb.Class {
		case abi.ClassInteger:
			loc.Regs = append(loc.Regs, Slot{Class: eb.Class, Eightbyte: i, Index: c.gp, SaveOffset: c.gpOffset()})
			c.gp++
		case abi.ClassSSE:
			loc.Regs = append(loc.Regs, Slot{Class: eb.Class, Eightbyte: i, Index: c.fp, SaveOffset: c.fpOffset()})
			c.fp++
		}
	}
	return loc
}

func (c *Cursor) fromStack(cl *abi.Classification) Location {
	slot := c.slot()
	a := cl.Align
	if a < slot {
		a = slot
	}
	off := align.To(c.stack, a)
	c.stack = off + align.To(cl.Size, slot)
	return Location{StackOffset: off, Size: cl.Size}
}

func (c *Cursor) gpOffset() int64 {
	return int64(c.gp) * c.slot()
}

func (c *Cursor) fpOffset() int64 {
	return c.cfg.RegSaveGP + int64(c.fp)*c.fpSlot()
}

// State returns the va_list fields for the current position. Offsets are
// clamped to the end of their save area once the registers run out.
func (c *Cursor) State() State {
	st := State{
		GPRemaining: c.gpMax() - c.gp,
		FPRemaining: c.fpMax() - c.fp,
		StackCursor: c.stack,
		GPOffset:    c.gpOffset(),
		FPOffset:    c.fpOffset(),
	}
	if st.GPRemaining < 0 {
		st.GPRemaining = 0
	}
	if st.FPRemaining < 0 {
		st.FPRemaining = 0
	}
	if c.cfg.RegSaveGP > 0 && st.GPOffset > c.cfg.RegSaveGP {
		st.GPOffset = c.cfg.RegSaveGP
	}
	if c.cfg.RegSaveFP > 0 && st.FPOffset > c.cfg.RegSaveFP {
		st.FPOffset = c.cfg.RegSaveFP
	}
	return st
}

// Copy implements va_copy.
func (c *Cursor) Copy() *Cursor {
	cp := *c
	return &cp
}
