//go:build windows

package codepage

// SystemProvider returns the kernel32-backed provider.
func SystemProvider() Provider {
	return NewWin32Provider()
}
