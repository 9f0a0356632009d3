package narrow

import (
	"sync"
	"unicode/utf16"

	"github.com/wippyai/smartie/codepage"
)

// Codec binds a converter to the code page strings are encoded in. The zero
// value encodes in the active ANSI code page of codepage.Default().
type Codec struct {
	conv     *codepage.Converter
	codePage uint32
}

var (
	defaultCodec     *Codec
	defaultCodecOnce sync.Once
)

// NewCodec returns a codec for codePage. A nil conv uses codepage.Default().
func NewCodec(conv *codepage.Converter, codePage uint32) *Codec {
	if conv == nil {
		conv = codepage.Default()
	}
	return &Codec{conv: conv, codePage: codePage}
}

// DefaultCodec encodes in the active ANSI code page of the system provider.
func DefaultCodec() *Codec {
	defaultCodecOnce.Do(func() {
		defaultCodec = NewCodec(codepage.Default(), codepage.ACP)
	})
	return defaultCodec
}

func codecOrDefault(c *Codec) *Codec {
	if c == nil {
		return DefaultCodec()
	}
	return c
}

// Converter returns the codec's converter.
// A zero Codec uses codepage.Default().
func (c *Codec) Converter() *codepage.Converter {
	if c.conv == nil {
		return codepage.Default()
	}
	return c.conv
}

// CodePage returns the code page as configured, which may be a pseudo code
// page such as codepage.ACP.
func (c *Codec) CodePage() uint32 {
	return c.codePage
}

// decode converts narrow bytes to text. Ill-formed UTF-16 from the
// converter becomes U+FFFD.
func (c *Codec) decode(narrow []byte) (string, error) {
	if len(narrow) == 0 {
		return "", nil
	}
	units := make([]uint16, len(narrow))
	n, err := c.Converter().Decode(c.codePage, narrow, units)
	if err != nil {
		return "", err
	}
	return string(utf16.Decode(units[:n])), nil
}
