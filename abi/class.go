package abi

import (
	"strconv"

	"github.com/wippyai/clayout/layout"
)

// Class is the register class of one eightbyte.
type Class uint8

const (
	ClassNone Class = iota
	ClassSSE
	ClassInteger
	ClassMemory
)

var classNames = [...]string{
	ClassNone:    "NONE",
	ClassSSE:     "SSE",
	ClassInteger: "INTEGER",
	ClassMemory:  "MEMORY",
}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return "Class(" + strconv.Itoa(int(c)) + ")"
}

// Merge combines the classes of two members sharing an eightbyte. MEMORY wins,
// then INTEGER, then SSE.
func Merge(a, b Class) Class {
	if a > b {
		return a
	}
	return b
}

// Eightbyte is one classification slot.
type Eightbyte struct {
	Class Class
	Size  int64 // bytes of the value covered by this slot
}

// Role says where a value appears in a signature.
type Role uint8

const (
	Param Role = iota
	Return
)

func (r Role) String() string {
	if r == Return {
		return "return"
	}
	return "param"
}

// Mode is how a value crosses the call boundary.
type Mode uint8

const (
	ByValueInRegisters Mode = iota
	// ByValueOnStack is a register-eligible value that did not fit the
	// remaining registers, or a MEMORY scalar.
	ByValueOnStack
	// ByReferenceToCallerCopy is a MEMORY aggregate: the caller copies it
	// into the outgoing argument area and the callee addresses that copy.
	ByReferenceToCallerCopy
)

var modeNames = [...]string{
	ByValueInRegisters:      "registers",
	ByValueOnStack:          "stack",
	ByReferenceToCallerCopy: "reference",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "Mode(" + strconv.Itoa(int(m)) + ")"
}

// RegAssignment binds one eightbyte to a register.
type RegAssignment struct {
	Name      string
	Eightbyte int
	Class     Class
	Index     int // position in the class's register list
}

// Classification is the ABI treatment of one parameter or return value.
type Classification struct {
	Layout        *layout.Layout
	Eightbytes    []Eightbyte
	Regs          []RegAssignment
	Size          int64
	Align         int64
	Role          Role
	Mode          Mode
	HiddenPointer bool
	// Degraded marks a best-effort result returned together with an error.
	Degraded bool
}

// Count returns the number of eightbytes of class c.
func (c *Classification) Count(class Class) int {
	n := 0
	for _, eb := range c.Eightbytes {
		if eb.Class == class {
			n++
		}
	}
	return n
}

// InMemory reports whether the value is classified MEMORY.
func (c *Classification) InMemory() bool {
	return len(c.Eightbytes) > 0 && c.Eightbytes[0].Class == ClassMemory
}

// InRegisters reports whether every eightbyte landed in a register.
func (c *Classification) InRegisters() bool {
	return c.Mode == ByValueInRegisters
}

// Budget tracks the argument registers still free at a call site.
type Budget struct {
	IntUsed int
	SSEUsed int
	IntMax  int
	SSEMax  int
	// Unlimited budgets never demote; used by ABIs without register files.
	Unlimited bool
}

func (b *Budget) IntFree() int { return b.IntMax - b.IntUsed }

func (b *Budget) SSEFree() int { return b.SSEMax - b.SSEUsed }

// Fits reports whether nInt integer and nSSE SSE registers are free.
func (b *Budget) Fits(nInt, nSSE int) bool {
	return b.Unlimited || (b.IntFree() >= nInt && b.SSEFree() >= nSSE)
}

// ABI classifies values for one calling convention.
type ABI interface {
	Name() string
	// Classify returns the treatment of l in role. When b is non-nil,
	// register assignment draws from and updates it; otherwise a fresh
	// budget for role is used.
	Classify(l *layout.Layout, role Role, b *Budget) (*Classification, error)
	Budget(role Role) Budget
	Config() Config
}
