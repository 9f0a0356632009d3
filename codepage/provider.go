package codepage

// Code page identifiers understood by every provider.
const (
	ACP       uint32 = 0     // active ANSI code page
	OEMCP     uint32 = 1     // active OEM code page
	MACCP     uint32 = 2     // active Macintosh code page
	ThreadACP uint32 = 3     // ANSI code page of the calling thread
	UTF8      uint32 = 65001 // UTF-8
)

// Conversion flags, numerically identical to the kernel32 values.
const (
	MBPrecomposed     uint32 = 0x0001 // MB_PRECOMPOSED
	MBErrInvalidChars uint32 = 0x0008 // MB_ERR_INVALID_CHARS
	WCErrInvalidChars uint32 = 0x0080 // WC_ERR_INVALID_CHARS
	NoBestFitChars    uint32 = 0x0400 // WC_NO_BEST_FIT_CHARS
)

// Platform status codes reported in Result.Status.
const (
	StatusInvalidParameter     uint32 = 87   // ERROR_INVALID_PARAMETER
	StatusInsufficientBuffer   uint32 = 122  // ERROR_INSUFFICIENT_BUFFER
	StatusInvalidFlags         uint32 = 1004 // ERROR_INVALID_FLAGS
	StatusNoUnicodeTranslation uint32 = 1113 // ERROR_NO_UNICODE_TRANSLATION
)

// Result is the outcome of one provider call. Status is the platform
// status observed immediately after the call; it is only meaningful when
// N is zero.
type Result struct {
	N           int
	Status      uint32
	UsedDefault bool
}

// Provider is the platform text-encoding service.
//
// WideToMultiByte converts wide into out. When wantUsedDefault is set the
// provider reports whether any unit was replaced by the default character;
// providers reject the request for code pages that cannot report it.
// MultiByteToWide converts exactly len(narrow) bytes into out; it does not
// scan for terminators. Both primitives reject empty input.
type Provider interface {
	WideToMultiByte(codePage, flags uint32, wide []uint16, out []byte, wantUsedDefault bool) Result
	MultiByteToWide(codePage, flags uint32, narrow []byte, out []uint16) Result
	ActiveCodePage() uint32
	MaxCharSize(codePage uint32) (int, bool)
}
