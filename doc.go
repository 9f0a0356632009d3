// Package smartie converts text between Go strings and the narrow,
// code-page encoded strings used by legacy LCD display hosts, and hosts
// the display plugins those hosts load.
//
// # Architecture Overview
//
//	smartie/             Root package with the shared Memory interface
//	├── codepage/        UTF-16 to code page conversion over a platform Provider
//	├── narrow/          Variable narrow strings and fixed 256-byte short strings
//	├── plugin/          Host shim: lifecycle, function routing, error replies
//	├── wasmplugin/      Plugins compiled to WebAssembly, run with wazero
//	├── errors/          Structured error types
//	└── cmd/smartie/     Command line front end and interactive encoder
//
// # Quick Start
//
// Encode text for the host's ANSI code page:
//
//	s, err := narrow.NewShort("Grüße")
//	if errors.Is(err, errors.ErrLossyConversion) {
//	    // not representable in the active code page
//	}
//	buf := s.Array() // 256 bytes, zero terminated
//
// Pin a code page independently of the running system:
//
//	conv := codepage.New(&codepage.Config{Provider: codepage.NewTableProvider(1252)})
//	codec := narrow.NewCodec(conv, 1251)
//	s, err := codec.String("Привет")
//
// # Conversion Rules
//
// Encoding never uses best-fit substitutes. Any character without an exact
// mapping in the target code page fails with a lossy conversion error
// rather than producing a look-alike. Decoding is never loss-checked.
//
// On Windows the system provider calls WideCharToMultiByte and
// MultiByteToWideChar. Elsewhere it uses golang.org/x/text tables and
// reproduces the Windows status codes.
//
// # Thread Safety
//
// Converters, codecs and strings are safe for concurrent use. A plugin
// Shim serialises its entry points.
package smartie
