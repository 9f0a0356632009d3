package narrow

import (
	"github.com/wippyai/smartie/codepage"
)

// westernCodec pins tests to Windows-1252 regardless of the host system.
func westernCodec() *Codec {
	return NewCodec(codepage.New(&codepage.Config{Provider: codepage.NewTableProvider(1252)}), codepage.ACP)
}
