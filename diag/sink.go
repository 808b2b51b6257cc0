// Package diag routes structured layout and ABI errors to the caller.
package diag

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/clayout/errors"
)

// Sink receives every error the core reports. Implementations must be safe
// for concurrent use when the reporting computer is shared.
type Sink interface {
	Report(err *errors.Error)
}

// Discard drops all reports.
var Discard Sink = discard{}

type discard struct{}

func (discard) Report(*errors.Error) {}

// Collector keeps reported errors in order.
type Collector struct {
	errs []*errors.Error
	mu   sync.Mutex
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Report(err *errors.Error) {
	c.mu.Lock()
	c.errs = append(c.errs, err)
	c.mu.Unlock()
}

// Errors returns a snapshot of the collected errors.
func (c *Collector) Errors() []*errors.Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*errors.Error, len(c.errs))
	copy(out, c.errs)
	return out
}

// Len returns the number of collected errors.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errs)
}

// HasFatal reports whether any collected error ends the compilation unit.
func (c *Collector) HasFatal() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.errs {
		if e.Fatal() {
			return true
		}
	}
	return false
}

// Reset drops all collected errors.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.errs = nil
	c.mu.Unlock()
}

// ZapSink writes reports as structured log entries: fatal errors at error
// level, recoverable ones at warn level.
type ZapSink struct {
	log *zap.Logger
}

func NewZapSink(log *zap.Logger) *ZapSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &ZapSink{log: log}
}

func (s *ZapSink) Report(err *errors.Error) {
	fields := []zap.Field{
		zap.String("phase", string(err.Phase)),
		zap.String("kind", string(err.Kind)),
	}
	if len(err.Path) > 0 {
		fields = append(fields, zap.String("path", strings.Join(err.Path, ".")))
	}
	if err.Type != "" {
		fields = append(fields, zap.String("type", err.Type))
	}
	if err.Value != nil {
		fields = append(fields, zap.Any("value", err.Value))
	}
	if err.Cause != nil {
		fields = append(fields, zap.Error(err.Cause))
	}
	if err.Fatal() {
		s.log.Error(err.Detail, fields...)
		return
	}
	s.log.Warn(err.Detail, fields...)
}

// Multi fans reports out to several sinks in order.
func Multi(sinks ...Sink) Sink {
	flat := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s == nil {
			continue
		}
		if m, ok := s.(multi); ok {
			flat = append(flat, m...)
			continue
		}
		flat = append(flat, s)
	}
	return flat
}

type multi []Sink

func (m multi) Report(err *errors.Error) {
	for _, s := range m {
		s.Report(err)
	}
}

// Report sends err to sink when both are non-nil and returns err as an error
// value, or nil.
func Report(sink Sink, err *errors.Error) error {
	if err == nil {
		return nil
	}
	if sink != nil {
		sink.Report(err)
	}
	return err
}
