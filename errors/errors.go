package errors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseEncode  Phase = "encode"  // text to narrow bytes
	PhaseDecode  Phase = "decode"  // narrow bytes to text
	PhaseHost    Phase = "host"    // host shim entry points
	PhaseLoad    Phase = "load"    // plugin module loading
	PhaseRuntime Phase = "runtime" // plugin calls
)

// Kind categorizes the error
type Kind string

const (
	KindOSConversion      Kind = "os_conversion"
	KindLossyConversion   Kind = "lossy_conversion"
	KindCapacityExceeded  Kind = "capacity_exceeded"
	KindMissingTerminator Kind = "missing_terminator"
	KindInvalidData       Kind = "invalid_data"
	KindInvalidInput      Kind = "invalid_input"
	KindOutOfBounds       Kind = "out_of_bounds"
	KindNotFound          Kind = "not_found"
	KindNotInitialized    Kind = "not_initialized"
	KindInstantiation     Kind = "instantiation"
	KindPanic             Kind = "panic"
	KindTrap              Kind = "trap"
)

// Sentinels for errors.Is. They match any phase.
var (
	ErrOSConversion      = &Error{Kind: KindOSConversion}
	ErrLossyConversion   = &Error{Kind: KindLossyConversion}
	ErrCapacityExceeded  = &Error{Kind: KindCapacityExceeded}
	ErrMissingTerminator = &Error{Kind: KindMissingTerminator}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	Detail   string
	CodePage uint32
	Code     uint32 // raw platform status, 0 when not applicable
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	sep := ": "
	if e.CodePage != 0 {
		b.WriteString(sep)
		b.WriteString("code page ")
		b.WriteString(strconv.FormatUint(uint64(e.CodePage), 10))
		sep = ", "
	}
	if e.Code != 0 {
		b.WriteString(sep)
		b.WriteString("status ")
		b.WriteString(strconv.FormatUint(uint64(e.Code), 10))
		sep = ", "
	}

	if e.Detail != "" {
		if sep == ", " {
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

// Is reports whether target matches this error. An empty target phase
// matches every phase.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		if t.Phase != "" && e.Phase != t.Phase {
			return false
		}
		return e.Kind == t.Kind
	}
	return false
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Code returns the platform status code carried by err, if any.
func Code(err error) (uint32, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindOSConversion {
		return e.Code, true
	}
	return 0, false
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
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

// CodePage sets the code page involved
func (b *Builder) CodePage(cp uint32) *Builder {
	b.err.CodePage = cp
	return b
}

// Code sets the platform status code
func (b *Builder) Code(code uint32) *Builder {
	b.err.Code = code
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

// OSConversionFailure creates an error for a failed platform conversion call
func OSConversionFailure(phase Phase, codePage, code uint32) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindOSConversion,
		CodePage: codePage,
		Code:     code,
		Value:    code,
	}
}

// LossyConversion creates an error for text that needs a substitute character
func LossyConversion(phase Phase, codePage uint32) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindLossyConversion,
		CodePage: codePage,
		Detail:   "text contains characters that cannot be represented in the code page",
	}
}

// CapacityExceeded creates an error for text longer than a fixed buffer allows
func CapacityExceeded(phase Phase, length, capacity int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindCapacityExceeded,
		Detail: fmt.Sprintf("length %d exceeds capacity %d", length, capacity),
		Value:  length,
	}
}

// LengthLimit creates a capacity_exceeded error for a length that must stay
// strictly below limit
func LengthLimit(phase Phase, length, limit int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindCapacityExceeded,
		Detail: fmt.Sprintf("length %d must be below %d", length, limit),
		Value:  length,
	}
}

// MissingTerminator creates an error for a fixed buffer with no zero byte
func MissingTerminator(phase Phase, size int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMissingTerminator,
		Detail: fmt.Sprintf("no terminating zero byte within %d bytes", size),
		Value:  size,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, offset, length uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("range [%d, %d) out of bounds", offset, uint64(offset)+uint64(length)),
		Value:  offset,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Detail: detail,
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

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInstantiation,
		Detail: "instantiate module",
		Cause:  cause,
	}
}

// Panic records a recovered panic. The panic value is kept in Value and
// left out of the message.
func Panic(phase Phase, v any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindPanic,
		Detail: "plugin panicked",
		Value:  v,
	}
}

// Trap records a failed guest call.
func Trap(phase Phase, export string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTrap,
		Detail: fmt.Sprintf("call %s", export),
		Cause:  cause,
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
