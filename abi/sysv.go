package abi

import (
	"go.uber.org/zap"

	"github.com/wippyai/clayout/ctype"
	"github.com/wippyai/clayout/diag"
	"github.com/wippyai/clayout/errors"
	"github.com/wippyai/clayout/internal/align"
	"github.com/wippyai/clayout/layout"
)

func errInvalidConfig(detail string) error {
	return errors.InvalidInput(errors.PhaseClassify, "abi config: "+detail)
}

// SysV implements the System V eightbyte classification.
type SysV struct {
	sink diag.Sink
	cfg  Config
}

var _ ABI = (*SysV)(nil)

// Option configures an ABI implementation.
type Option func(*options)

type options struct {
	sink diag.Sink
}

// WithSink sets the diagnostic sink. The default discards reports.
func WithSink(s diag.Sink) Option {
	return func(o *options) { o.sink = s }
}

func buildOptions(opts []Option) options {
	o := options{sink: diag.Discard}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sink == nil {
		o.sink = diag.Discard
	}
	return o
}

// NewSysV returns a classifier for cfg. Invalid configurations are not
// rejected here; Classify reports them as unsupported aggregates.
func NewSysV(cfg Config, opts ...Option) *SysV {
	o := buildOptions(opts)
	return &SysV{cfg: cfg, sink: o.sink}
}

func (s *SysV) Name() string { return s.cfg.Name }

func (s *SysV) Config() Config { return s.cfg }

func (s *SysV) Budget(role Role) Budget {
	if role == Return {
		return Budget{IntMax: len(s.cfg.IntRetRegs), SSEMax: len(s.cfg.SSERetRegs)}
	}
	return Budget{IntMax: len(s.cfg.IntArgRegs), SSEMax: len(s.cfg.SSEArgRegs)}
}

func (s *SysV) Classify(l *layout.Layout, role Role, b *Budget) (*Classification, error) {
	if b == nil {
		fresh := s.Budget(role)
		b = &fresh
	}
	if err := s.check(l); err != nil {
		s.sink.Report(err)
		return memoryWholesale(l, role, s.cfg.EightbyteSize, true), err
	}

	c := &Classification{
		Layout: l,
		Size:   l.Size,
		Align:  l.Align,
		Role:   role,
	}

	if l.Size > s.cfg.MaxRegAggregate {
		return memoryWholesale(l, role, s.cfg.EightbyteSize, false), nil
	}

	c.Eightbytes = s.eightbytes(l)
	if c.InMemory() {
		c.HiddenPointer = role == Return
		c.Mode = ByValueOnStack
		if l.IsAggregate() || l.Kind == ctype.KindArray {
			c.Mode = ByReferenceToCallerCopy
		}
		return c, nil
	}

	s.assignRegisters(c, role, b)
	return c, nil
}

func (s *SysV) check(l *layout.Layout) *errors.Error {
	if l == nil {
		return errors.InvalidInput(errors.PhaseClassify, "nil layout")
	}
	if s.cfg.EightbyteSize <= 0 {
		return errors.UnsupportedAggregate(typeName(l), l.Size, "eightbyte size must be positive")
	}
	if l.Degraded || l.Size < 0 {
		return errors.UnsupportedAggregate(typeName(l), l.Size, "layout is degraded")
	}
	return nil
}

func typeName(l *layout.Layout) string {
	if l.Type == nil {
		return "<nil>"
	}
	return l.Type.String()
}

func memoryWholesale(l *layout.Layout, role Role, ebSize int64, degraded bool) *Classification {
	c := &Classification{
		Layout:        l,
		Role:          role,
		Mode:          ByReferenceToCallerCopy,
		HiddenPointer: role == Return,
		Degraded:      degraded,
		Align:         1,
	}
	if l == nil {
		return c
	}
	c.Size, c.Align = l.Size, l.Align
	if ebSize <= 0 || l.Size <= 0 {
		return c
	}
	n := align.CeilDiv(l.Size, ebSize)
	c.Eightbytes = make([]Eightbyte, n)
	for i := range c.Eightbytes {
		c.Eightbytes[i] = Eightbyte{Class: ClassMemory, Size: slotSize(l.Size, ebSize, int64(i))}
	}
	return c
}

func slotSize(size, ebSize, i int64) int64 {
	if rem := size - i*ebSize; rem < ebSize {
		return rem
	}
	return ebSize
}

// leaf is one scalar or bitfield at an absolute byte range.
type leaf struct {
	start, end int64
	class      Class
}

// leaves flattens l into scalar byte ranges relative to base.
func leaves(l *layout.Layout, base int64, unaligned bool, out []leaf) []leaf {
	switch l.Kind {
	case ctype.KindScalar, ctype.KindPointer:
		cl := scalarClass(l)
		if unaligned {
			cl = ClassMemory
		}
		return append(out, leaf{start: base, end: base + l.Size, class: cl})
	case ctype.KindArray:
		for i := int64(0); i < l.Len; i++ {
			out = leaves(l.Elem, base+i*l.Elem.Size, unaligned, out)
		}
		return out
	}
	for i := range l.Members {
		m := &l.Members[i]
		if m.Bitfield {
			first := m.Bit() / 8
			last := (m.Bit() + int64(m.BitWidth) - 1) / 8
			out = append(out, leaf{start: base + first, end: base + last + 1, class: ClassInteger})
			continue
		}
		out = leaves(m.Layout, base+m.Offset, unaligned || m.Unaligned, out)
	}
	return out
}

func scalarClass(l *layout.Layout) Class {
	s, ok := l.Scalar()
	if !ok {
		return ClassInteger
	}
	switch {
	case s.Prim == ctype.LongDouble:
		return ClassMemory
	case s.Prim.IsFloat():
		return ClassSSE
	}
	return ClassInteger
}

func (s *SysV) eightbytes(l *layout.Layout) []Eightbyte {
	ebSize := s.cfg.EightbyteSize
	n := align.CeilDiv(l.Size, ebSize)
	ebs := make([]Eightbyte, n)
	for i := range ebs {
		ebs[i].Size = slotSize(l.Size, ebSize, int64(i))
	}

	memory := false
	for _, lf := range leaves(l, 0, false, nil) {
		if lf.class == ClassMemory {
			memory = true
			break
		}
		for i := lf.start / ebSize; i*ebSize < lf.end && i < n; i++ {
			ebs[i].Class = Merge(ebs[i].Class, lf.class)
		}
	}
	if memory {
		for i := range ebs {
			ebs[i].Class = ClassMemory
		}
	}
	return ebs
}

func (s *SysV) assignRegisters(c *Classification, role Role, b *Budget) {
	nInt, nSSE := c.Count(ClassInteger), c.Count(ClassSSE)
	if !b.Fits(nInt, nSSE) {
		c.Mode = ByValueOnStack
		Logger().Debug("value demoted to stack",
			zap.String("type", typeName(c.Layout)),
			zap.Stringer("role", role),
			zap.Int("int_needed", nInt),
			zap.Int("int_free", b.IntFree()),
			zap.Int("sse_needed", nSSE),
			zap.Int("sse_free", b.SSEFree()))
		return
	}

	intRegs, sseRegs := s.cfg.IntArgRegs, s.cfg.SSEArgRegs
	if role == Return {
		intRegs, sseRegs = s.cfg.IntRetRegs, s.cfg.SSERetRegs
	}
	c.Mode = ByValueInRegisters
	for i, eb := range c.Eightbytes {
		switch eb.Class {
		case ClassInteger:
			c.Regs = append(c.Regs, RegAssignment{Name: regName(intRegs, b.IntUsed), Eightbyte: i, Class: ClassInteger, Index: b.IntUsed})
			b.IntUsed++
		case ClassSSE:
			c.Regs = append(c.Regs, RegAssignment{Name: regName(sseRegs, b.SSEUsed), Eightbyte: i, Class: ClassSSE, Index: b.SSEUsed})
			b.SSEUsed++
		}
	}
}

func regName(regs []string, i int) string {
	if i < len(regs) {
		return regs[i]
	}
	return ""
}
