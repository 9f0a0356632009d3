package narrow

import (
	"bytes"
	"fmt"
	"unicode/utf16"

	"go.uber.org/zap"

	"github.com/wippyai/smartie/errors"
)

// String is a variable-length narrow string. Its length is exactly the
// number of encoded bytes; it carries no terminator.
type String struct {
	data  []byte
	codec *Codec
}

// NewString encodes text with DefaultCodec.
func NewString(text string) (String, error) {
	return DefaultCodec().String(text)
}

// String encodes text. It fails with lossy_conversion if any character has
// no exact representation in the code page.
func (c *Codec) String(text string) (String, error) {
	conv := c.Converter()
	wide := utf16.Encode([]rune(text))
	out := make([]byte, len(wide)*conv.MaxCharSize(c.codePage)+1)
	n, err := conv.Encode(c.codePage, wide, out)
	if err != nil {
		return String{}, err
	}
	return String{data: out[:n:n], codec: c}, nil
}

// StringFromBytes copies a host C string, up to its first zero byte, using
// DefaultCodec for later decoding.
func StringFromBytes(b []byte) String {
	return DefaultCodec().StringFromBytes(b)
}

// StringFromBytes copies a host C string, up to its first zero byte.
func (c *Codec) StringFromBytes(b []byte) String {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return String{data: bytes.Clone(b), codec: c}
}

// Len returns the number of encoded bytes.
func (s String) Len() int {
	return len(s.data)
}

// IsEmpty reports whether s holds no bytes.
func (s String) IsEmpty() bool {
	return len(s.data) == 0
}

// Bytes returns a copy of the encoded bytes.
func (s String) Bytes() []byte {
	return bytes.Clone(s.data)
}

// Slice returns a copy of at most max encoded bytes. A negative max
// returns everything.
func (s String) Slice(max int) []byte {
	if max < 0 || max > len(s.data) {
		max = len(s.data)
	}
	return bytes.Clone(s.data[:max])
}

// CString returns the bytes followed by a zero terminator. It fails when
// the content itself contains a zero byte.
func (s String) CString() ([]byte, error) {
	if i := bytes.IndexByte(s.data, 0); i >= 0 {
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidData).
			Value(i).
			Detail("zero byte at offset %d", i).
			Build()
	}
	out := make([]byte, len(s.data)+1)
	copy(out, s.data)
	return out, nil
}

// Equal reports whether s and other hold the same bytes.
func (s String) Equal(other String) bool {
	return bytes.Equal(s.data, other.data)
}

// Compare orders strings by their encoded bytes.
func (s String) Compare(other String) int {
	return bytes.Compare(s.data, other.data)
}

// Decode converts every byte back to text; embedded zero bytes are kept.
func (s String) Decode() (string, error) {
	return codecOrDefault(s.codec).decode(s.data)
}

// Text is Decode without the error. A failed conversion is logged and
// yields "".
func (s String) Text() string {
	text, err := s.Decode()
	if err != nil {
		Logger().Debug("narrow string decode failed", zap.Error(err), zap.Int("len", len(s.data)))
		return ""
	}
	return text
}

// GoString renders s as narrow.String[len; "text"].
func (s String) GoString() string {
	return fmt.Sprintf("narrow.String[%d; %q]", len(s.data), s.Text())
}
