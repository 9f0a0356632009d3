package narrow

import (
	"bytes"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/wippyai/smartie/errors"
)

const (
	// ShortSize is the size of a Short buffer in bytes.
	ShortSize = 256
	// ShortCapacity is the most content bytes a Short holds.
	ShortCapacity = ShortSize - 1
	// ShortMaxUnits is the longest text, in UTF-16 units, Short accepts.
	ShortMaxUnits = ShortCapacity - 1
)

// Buffer is the fixed host layout of a short string.
type Buffer = [ShortSize]byte

// Short is a fixed 256-byte short string. Content is followed by zero
// bytes up to the end of the buffer.
type Short struct {
	buf   Buffer
	codec *Codec
}

// NewShort encodes text with DefaultCodec.
func NewShort(text string) (Short, error) {
	return DefaultCodec().Short(text)
}

// Short encodes text into a fixed buffer. Text of ShortCapacity or more
// UTF-16 units fails with capacity_exceeded before any conversion.
func (c *Codec) Short(text string) (Short, error) {
	wide := utf16.Encode([]rune(text))
	if len(wide) >= ShortCapacity {
		return Short{}, errors.LengthLimit(errors.PhaseEncode, len(wide), ShortCapacity)
	}
	return c.encodeShort(wide)
}

// FillShort encodes text into a fixed buffer using every content byte, the
// way a host fills a parameter slot. Up to ShortCapacity bytes are accepted;
// text that needs more fails with capacity_exceeded or, for multibyte code
// pages, with the provider's insufficient buffer status.
func (c *Codec) FillShort(text string) (Short, error) {
	wide := utf16.Encode([]rune(text))
	if len(wide) > ShortCapacity {
		return Short{}, errors.CapacityExceeded(errors.PhaseEncode, len(wide), ShortCapacity)
	}
	return c.encodeShort(wide)
}

func (c *Codec) encodeShort(wide []uint16) (Short, error) {
	s := Short{codec: c}
	if _, err := c.Converter().Encode(c.codePage, wide, s.buf[:ShortCapacity]); err != nil {
		return Short{}, err
	}
	return s, nil
}

// ShortFromHost copies a host buffer verbatim, using DefaultCodec for
// later decoding.
func ShortFromHost(raw Buffer) Short {
	return DefaultCodec().ShortFromHost(raw)
}

// ShortFromHost copies a host buffer verbatim.
func (c *Codec) ShortFromHost(raw Buffer) Short {
	return Short{buf: raw, codec: c}
}

// ShortFromCString copies a host C string, up to its first zero byte, using
// DefaultCodec for later decoding.
func ShortFromCString(b []byte) (Short, error) {
	return DefaultCodec().ShortFromCString(b)
}

// ShortFromCString copies a host C string, up to its first zero byte. A
// slice without a zero byte is taken whole. Content longer than
// ShortCapacity fails with capacity_exceeded.
func (c *Codec) ShortFromCString(b []byte) (Short, error) {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	if len(b) > ShortCapacity {
		return Short{}, errors.CapacityExceeded(errors.PhaseHost, len(b), ShortCapacity)
	}
	s := Short{codec: c}
	copy(s.buf[:], b)
	return s, nil
}

// ShortFromASCII builds a Short from printable 7-bit text without a
// converter. ASCII has the same bytes in every ANSI code page, so the
// result needs no conversion to be valid.
func ShortFromASCII(text string) (Short, error) {
	if len(text) > ShortCapacity {
		return Short{}, errors.CapacityExceeded(errors.PhaseEncode, len(text), ShortCapacity)
	}
	var s Short
	for i := 0; i < len(text); i++ {
		if text[i] == 0 || text[i] >= utf8.RuneSelf {
			return Short{}, errors.InvalidInput(errors.PhaseEncode, fmt.Sprintf("non-ASCII byte at offset %d", i))
		}
		s.buf[i] = text[i]
	}
	return s, nil
}

// Array returns a copy of the whole buffer.
func (s *Short) Array() Buffer {
	return s.buf
}

// CopyTo copies the whole buffer into dst.
func (s *Short) CopyTo(dst *Buffer) {
	*dst = s.buf
}

// Len returns the content length: the index of the first zero byte, or
// ShortSize when there is none.
func (s *Short) Len() int {
	if i := bytes.IndexByte(s.buf[:], 0); i >= 0 {
		return i
	}
	return ShortSize
}

// IsEmpty reports whether the content is empty.
func (s *Short) IsEmpty() bool {
	return s.buf[0] == 0
}

// Bytes returns a copy of the content bytes.
func (s *Short) Bytes() []byte {
	return bytes.Clone(s.buf[:s.Len()])
}

// Decode converts the content, up to the first zero byte, to text. A
// buffer with no zero byte decodes all ShortSize bytes.
func (s *Short) Decode() (string, error) {
	return codecOrDefault(s.codec).decode(s.buf[:s.Len()])
}

// DecodeStrict is Decode but fails with missing_terminator when the
// buffer has no zero byte.
func (s *Short) DecodeStrict() (string, error) {
	if bytes.IndexByte(s.buf[:], 0) < 0 {
		return "", errors.MissingTerminator(errors.PhaseDecode, ShortSize)
	}
	return s.Decode()
}

// Text is Decode without the error. A failed conversion is logged and
// yields "".
func (s *Short) Text() string {
	text, err := s.Decode()
	if err != nil {
		Logger().Debug("short string decode failed", zap.Error(err), zap.Int("len", s.Len()))
		return ""
	}
	return text
}

// GoString renders s as narrow.Short[len; "text"].
func (s *Short) GoString() string {
	return fmt.Sprintf("narrow.Short[%d; %q]", s.Len(), s.Text())
}
