package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLayout   Phase = "layout"   // size/alignment/offset computation
	PhaseClassify Phase = "classify" // ABI classification
	PhaseVarargs  Phase = "varargs"  // va_arg bookkeeping
	PhaseInit     Phase = "init"     // static initializer images
	PhaseConvert  Phase = "convert"  // front-end adapters (WIT)
	PhaseDecode   Phase = "decode"   // type description files
)

// Kind categorizes the error
type Kind string

const (
	KindIncompleteType       Kind = "incomplete_type"
	KindInvalidBitfieldWidth Kind = "invalid_bitfield_width"
	KindUnsupportedAggregate Kind = "unsupported_aggregate"
	KindAlignmentOverflow    Kind = "alignment_overflow"
	KindInvalidInput         Kind = "invalid_input"
	KindNotFound             Kind = "not_found"
	KindOutOfBounds          Kind = "out_of_bounds"
	KindTypeMismatch         Kind = "type_mismatch"
	KindUnsupported          Kind = "unsupported"
)

// Sentinels for errors.Is. They match any phase.
var (
	ErrIncompleteType       = &Error{Kind: KindIncompleteType}
	ErrInvalidBitfieldWidth = &Error{Kind: KindInvalidBitfieldWidth}
	ErrUnsupportedAggregate = &Error{Kind: KindUnsupportedAggregate}
	ErrAlignmentOverflow    = &Error{Kind: KindAlignmentOverflow}
)

// Is and As forward to the standard library so callers need one import.
func Is(err, target error) bool { return stderrors.Is(err, target) }
func As(err error, target any) bool { return stderrors.As(err, target) }

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Type   string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Type != "" {
		b.WriteString(": type ")
		b.WriteString(e.Type)
	}

	if e.Detail != "" {
		if e.Type != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target without a phase
// matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Fatal reports whether the error ends processing of the compilation unit.
// Invalid bitfield widths are recoverable: layout continues with a clamped width.
func (e *Error) Fatal() bool {
	return e.Kind != KindInvalidBitfieldWidth
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the member path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Type sets the C type spelling
func (b *Builder) Type(t string) *Builder {
	b.err.Type = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// IncompleteType creates an error for layout requested on an unresolved type
func IncompleteType(path []string, typ string) *Error {
	return &Error{
		Phase:  PhaseLayout,
		Kind:   KindIncompleteType,
		Path:   path,
		Type:   typ,
		Detail: "type is incomplete",
	}
}

// InvalidBitfieldWidth creates an error for a width outside [0, unit bits]
func InvalidBitfieldWidth(path []string, typ string, width, maxBits int) *Error {
	return &Error{
		Phase:  PhaseLayout,
		Kind:   KindInvalidBitfieldWidth,
		Path:   path,
		Type:   typ,
		Detail: fmt.Sprintf("width %d exceeds the %d bits of the declared type", width, maxBits),
		Value:  width,
	}
}

// AlignmentOverflow creates an error for sizes beyond the target's size representation
func AlignmentOverflow(path []string, typ string, limit int64) *Error {
	return &Error{
		Phase:  PhaseLayout,
		Kind:   KindAlignmentOverflow,
		Path:   path,
		Type:   typ,
		Detail: fmt.Sprintf("size exceeds target limit of %d bytes", limit),
	}
}

// UnsupportedAggregate creates an error for values the ABI cannot classify
func UnsupportedAggregate(typ string, size int64, detail string) *Error {
	return &Error{
		Phase:  PhaseClassify,
		Kind:   KindUnsupportedAggregate,
		Type:   typ,
		Detail: fmt.Sprintf("size %d: %s", size, detail),
		Value:  size,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, path []string, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Path:   path,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, typ string, value any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		Type:   typ,
		Detail: fmt.Sprintf("cannot use %T value", value),
		Value:  value,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
