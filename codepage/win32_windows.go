//go:build windows

package codepage

import (
	"math"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32                = windows.NewLazySystemDLL("kernel32.dll")
	procWideCharToMultiByte = kernel32.NewProc("WideCharToMultiByte")
	procMultiByteToWideChar = kernel32.NewProc("MultiByteToWideChar")
	procGetACP              = kernel32.NewProc("GetACP")
	procGetCPInfo           = kernel32.NewProc("GetCPInfo")
)

// cpInfo mirrors the kernel32 CPINFO structure.
type cpInfo struct {
	MaxCharSize uint32
	DefaultChar [2]byte
	LeadByte    [12]byte
}

// Win32Provider implements Provider with the kernel32 conversion
// primitives. The last-error value is captured by the same syscall that
// performs the conversion and travels back in Result.
type Win32Provider struct{}

// NewWin32Provider returns the kernel32-backed provider.
func NewWin32Provider() Win32Provider {
	return Win32Provider{}
}

// ActiveCodePage returns GetACP().
func (Win32Provider) ActiveCodePage() uint32 {
	r1, _, _ := procGetACP.Call()
	return uint32(r1)
}

// MaxCharSize returns CPINFO.MaxCharSize for codePage.
func (Win32Provider) MaxCharSize(codePage uint32) (int, bool) {
	var info cpInfo
	r1, _, _ := procGetCPInfo.Call(uintptr(codePage), uintptr(unsafe.Pointer(&info)))
	if r1 == 0 {
		return 0, false
	}
	return int(info.MaxCharSize), true
}

// WideToMultiByte calls WideCharToMultiByte.
func (Win32Provider) WideToMultiByte(codePage, flags uint32, wide []uint16, out []byte, wantUsedDefault bool) Result {
	if len(wide) == 0 || len(wide) > math.MaxInt32 || len(out) > math.MaxInt32 {
		return Result{Status: StatusInvalidParameter}
	}
	// A zero-sized output turns the call into a size query.
	if len(out) == 0 {
		return Result{Status: StatusInsufficientBuffer}
	}

	var used int32
	var usedPtr uintptr
	if wantUsedDefault {
		usedPtr = uintptr(unsafe.Pointer(&used))
	}
	r1, _, lastErr := procWideCharToMultiByte.Call(
		uintptr(codePage),
		uintptr(flags),
		uintptr(unsafe.Pointer(&wide[0])),
		uintptr(len(wide)),
		uintptr(unsafe.Pointer(&out[0])),
		uintptr(len(out)),
		0,
		usedPtr,
	)
	return Result{
		N:           int(int32(r1)),
		Status:      errnoStatus(lastErr),
		UsedDefault: used != 0,
	}
}

// MultiByteToWide calls MultiByteToWideChar.
func (Win32Provider) MultiByteToWide(codePage, flags uint32, narrow []byte, out []uint16) Result {
	if len(narrow) == 0 || len(narrow) > math.MaxInt32 || len(out) > math.MaxInt32 {
		return Result{Status: StatusInvalidParameter}
	}
	if len(out) == 0 {
		return Result{Status: StatusInsufficientBuffer}
	}

	r1, _, lastErr := procMultiByteToWideChar.Call(
		uintptr(codePage),
		uintptr(flags),
		uintptr(unsafe.Pointer(&narrow[0])),
		uintptr(len(narrow)),
		uintptr(unsafe.Pointer(&out[0])),
		uintptr(len(out)),
	)
	return Result{
		N:      int(int32(r1)),
		Status: errnoStatus(lastErr),
	}
}

func errnoStatus(err error) uint32 {
	if errno, ok := err.(syscall.Errno); ok {
		return uint32(errno)
	}
	return 0
}
