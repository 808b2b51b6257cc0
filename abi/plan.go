package abi

import (
	"github.com/wippyai/clayout/internal/align"
	"github.com/wippyai/clayout/layout"
)

// CallPlan is the treatment of a whole signature at one call site.
type CallPlan struct {
	Return *Classification // nil for void
	Params []*Classification
	// StackOffsets holds the outgoing argument area offset of each
	// parameter, or -1 when the parameter travels in registers.
	StackOffsets []int64
	StackEnd     int64 // first free byte after the named stack arguments
	StackSize    int64 // StackEnd rounded up to 16
	IntUsed      int
	SSEUsed      int // also the %al count for variadic calls
	Variadic     bool
	// HiddenReg names the register carrying the return buffer address.
	HiddenReg string
}

// PlanCall classifies ret and params in order. A hidden return pointer takes
// the first integer argument register. Stack arguments are placed at offsets
// aligned to max(align, slot) and occupy their size rounded up to the slot.
func PlanCall(a ABI, ret *layout.Layout, params []*layout.Layout, variadic bool) (*CallPlan, error) {
	cfg := a.Config()
	slot := cfg.StackSlot
	if slot <= 0 {
		slot = 8
	}

	plan := &CallPlan{Variadic: variadic}
	b := a.Budget(Param)

	var firstErr error
	if ret != nil {
		rc, err := a.Classify(ret, Return, nil)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		plan.Return = rc
		if rc != nil && rc.HiddenPointer && b.Fits(1, 0) {
			plan.HiddenReg = regName(cfg.IntArgRegs, b.IntUsed)
			b.IntUsed++
		}
	}

	var stack int64
	place := func(size, alignment int64) int64 {
		if alignment < slot {
			alignment = slot
		}
		off := align.To(stack, alignment)
		stack = off + align.To(size, slot)
		return off
	}

	for _, p := range params {
		c, err := a.Classify(p, Param, &b)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		plan.Params = append(plan.Params, c)

		off := int64(-1)
		if c.Mode != ByValueInRegisters && !b.Unlimited {
			off = place(c.Size, c.Align)
		}
		plan.StackOffsets = append(plan.StackOffsets, off)
	}

	plan.StackEnd = stack
	plan.StackSize = align.To(stack, 16)
	plan.IntUsed = b.IntUsed
	plan.SSEUsed = b.SSEUsed
	return plan, firstErr
}
