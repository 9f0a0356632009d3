// Package errors provides structured error types for the smartie packages.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the code page involved, the raw platform status code when
// the platform conversion service failed, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindOSConversion).
//		CodePage(1252).
//		Code(122).
//		Detail("output buffer too small").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.LossyConversion(errors.PhaseEncode, 1252)
//	err := errors.CapacityExceeded(errors.PhaseEncode, 300, 255)
//
// All errors implement the standard error interface and support errors.Is/As.
// The package sentinels (ErrLossyConversion and friends) match an error of the
// same Kind in any phase.
//
// Apart from a wrapped Cause, error messages are ASCII-only: they are built from
// identifiers, numbers and fixed English text, never from the text that failed
// to convert. Callers can therefore re-encode a message into a narrow host buffer.
package errors
