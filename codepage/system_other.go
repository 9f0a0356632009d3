//go:build !windows

package codepage

// SystemProvider returns a TableProvider with DefaultActiveCodePage, since
// there is no system ANSI code page outside Windows.
func SystemProvider() Provider {
	return NewTableProvider(DefaultActiveCodePage)
}
