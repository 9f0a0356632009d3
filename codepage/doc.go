// Package codepage converts between UTF-16 code units and narrow,
// code-page-specific byte strings.
//
// The platform text-encoding service is abstracted as a Provider with two
// directional primitives mirroring kernel32's WideCharToMultiByte and
// MultiByteToWideChar. Each call returns a Result that carries the count
// written together with the platform status observed for that call, so no
// caller ever reads a status left behind by a different call.
//
// Two providers exist:
//
//	Win32Provider   kernel32 via golang.org/x/sys/windows (windows only)
//	TableProvider   golang.org/x/text code page tables (all platforms)
//
// SystemProvider returns the Win32 provider on Windows and a TableProvider
// with Windows-1252 as the active code page elsewhere.
//
// # Converter
//
// Converter wraps a Provider with the checks callers rely on:
//
//   - empty input converts to zero units without calling the provider
//   - encoding always suppresses best-fit substitution (NoBestFitChars)
//   - a zero result with a non-zero status is an OS conversion failure
//   - any default-character substitution on encode is a lossy conversion
//   - decoding is never loss-checked
//
// UTF-8 (code page 65001) cannot report default-character use; for it the
// converter requests WCErrInvalidChars instead, so unpaired surrogates
// surface as an OS conversion failure with status 1113.
//
// # Thread Safety
//
// Converter holds no mutable state and is safe for concurrent use. Buffers
// passed to Encode and Decode are owned by the caller for the duration of
// the call.
package codepage
