package clayout

import (
	"strings"

	"github.com/wippyai/clayout/abi"
	"github.com/wippyai/clayout/abi/wasm"
	"github.com/wippyai/clayout/ctype"
	"github.com/wippyai/clayout/diag"
	"github.com/wippyai/clayout/errors"
	"github.com/wippyai/clayout/layout"
	"github.com/wippyai/clayout/memimg"
	"github.com/wippyai/clayout/target"
	"github.com/wippyai/clayout/varargs"
	"go.uber.org/zap"
)

// Session bundles the layout cache, ABI and diagnostics of one compilation
// unit. Layout queries are safe for concurrent use; discard the session when
// the unit is done.
type Session struct {
	target    *target.Target
	abi       abi.ABI
	computer  *layout.Computer
	collector *diag.Collector
	sink      diag.Sink
	log       *zap.Logger
}

type options struct {
	abi  abi.ABI
	sink diag.Sink
	log  *zap.Logger
}

type Option func(*options)

// WithABI selects the calling convention. Without it the session picks one
// from the target: the basic C ABI for wasm targets, System V for x86-64.
func WithABI(a abi.ABI) Option {
	return func(o *options) { o.abi = a }
}

// WithSink adds a diagnostics sink. Diagnostics are always collected by the
// session as well.
func WithSink(s diag.Sink) Option {
	return func(o *options) { o.sink = s }
}

// WithLogger sets the logger for debug output and warnings.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// New creates a session for t.
func New(t *target.Target, opts ...Option) (*Session, error) {
	if t == nil {
		return nil, errors.InvalidInput(errors.PhaseLayout, "nil target")
	}
	if err := t.Validate(); err != nil {
		return nil, errors.Wrap(errors.PhaseLayout, errors.KindInvalidInput, err, "invalid target")
	}

	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}

	s := &Session{
		target:    t,
		collector: diag.NewCollector(),
		log:       o.log.With(zap.String("target", t.Name)),
	}
	s.sink = diag.Multi(s.collector, o.sink, diag.NewZapSink(s.log))
	s.computer = layout.NewComputer(t, layout.WithCache(layout.NewCache()), layout.WithSink(s.sink))

	s.abi = o.abi
	if s.abi == nil {
		s.abi = DefaultABI(t, s.sink)
	}
	if s.abi != nil {
		s.log.Debug("session created", zap.String("abi", s.abi.Name()))
	}
	return s, nil
}

// DefaultABI returns the calling convention for t, or nil when none is
// modeled for it.
func DefaultABI(t *target.Target, sink diag.Sink) abi.ABI {
	switch {
	case strings.HasPrefix(t.Name, "wasm"):
		return wasm.New(t.PointerSize(), sink)
	case strings.HasPrefix(t.Name, "x86_64"):
		return abi.NewSysV(abi.SysVAMD64(), abi.WithSink(sink))
	}
	return nil
}

func (s *Session) Target() *target.Target { return s.target }

// ABI returns the session's calling convention, nil if the target has none.
func (s *Session) ABI() abi.ABI { return s.abi }

func (s *Session) Logger() *zap.Logger { return s.log }

// Diagnostics returns everything reported so far, fatal or not.
func (s *Session) Diagnostics() []*errors.Error { return s.collector.Errors() }

// Layout computes the layout of t.
func (s *Session) Layout(t ctype.Type) (*layout.Layout, error) {
	return s.computer.Compute(t)
}

// OffsetOf resolves a member path such as "hdr.flags[2]" in t.
func (s *Session) OffsetOf(t ctype.Type, path string) (layout.Position, error) {
	l, err := s.computer.Compute(t)
	if err != nil {
		return layout.Position{}, err
	}
	return layout.OffsetOf(l, path)
}

// Classify classifies t as a lone parameter or return value with a fresh
// register budget.
func (s *Session) Classify(t ctype.Type, role abi.Role) (*abi.Classification, error) {
	a, err := s.requireABI()
	if err != nil {
		return nil, err
	}
	l, err := s.computer.Compute(t)
	if err != nil {
		return nil, err
	}
	budget := a.Budget(role)
	return a.Classify(l, role, &budget)
}

// PlanCall assigns registers and stack slots for a call. A nil ret is a void
// function.
func (s *Session) PlanCall(ret ctype.Type, params []ctype.Type, variadic bool) (*abi.CallPlan, error) {
	a, err := s.requireABI()
	if err != nil {
		return nil, err
	}
	var rl *layout.Layout
	if ret != nil {
		if rl, err = s.computer.Compute(ret); err != nil {
			return nil, err
		}
	}
	pls := make([]*layout.Layout, len(params))
	for i, p := range params {
		if pls[i], err = s.computer.Compute(p); err != nil {
			return nil, err
		}
	}
	return abi.PlanCall(a, rl, pls, variadic)
}

// Varargs returns a va_list cursor positioned after the named parameters of
// a variadic call plan.
func (s *Session) Varargs(plan *abi.CallPlan) (*varargs.Cursor, error) {
	a, err := s.requireABI()
	if err != nil {
		return nil, err
	}
	if !plan.Variadic {
		return nil, errors.InvalidInput(errors.PhaseVarargs, "call plan is not variadic")
	}
	if a.Budget(abi.Param).Unlimited {
		return nil, errors.Unsupported(errors.PhaseVarargs, a.Name()+" passes variadic arguments in memory")
	}
	return varargs.FromPlan(a.Config(), plan), nil
}

// Initialize builds the static image of an object of type t.
func (s *Session) Initialize(t ctype.Type, inits []memimg.Init) (*memimg.Image, error) {
	l, err := s.computer.Compute(t)
	if err != nil {
		return nil, err
	}
	return memimg.Initialize(s.target, l, inits)
}

func (s *Session) requireABI() (abi.ABI, error) {
	if s.abi == nil {
		return nil, errors.Unsupported(errors.PhaseClassify, "no calling convention for target "+s.target.Name)
	}
	return s.abi, nil
}
