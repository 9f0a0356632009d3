package codepage

import (
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	xunicode "golang.org/x/text/encoding/unicode"
)

// DefaultActiveCodePage is the ANSI code page a TableProvider uses when
// none is configured (Windows-1252, Western European).
const DefaultActiveCodePage uint32 = 1252

// defaultChar is written for units the code page cannot represent.
const defaultChar = '?'

// table is one code page's mapping.
type table interface {
	maxCharSize() int
	appendRune(dst []byte, r rune) ([]byte, bool)
	appendUnits(dst []uint16, src []byte) ([]uint16, bool)
}

var tables = map[uint32]table{
	37:    sbcs{charmap.CodePage037},
	437:   sbcs{charmap.CodePage437},
	850:   sbcs{charmap.CodePage850},
	852:   sbcs{charmap.CodePage852},
	855:   sbcs{charmap.CodePage855},
	858:   sbcs{charmap.CodePage858},
	860:   sbcs{charmap.CodePage860},
	862:   sbcs{charmap.CodePage862},
	863:   sbcs{charmap.CodePage863},
	865:   sbcs{charmap.CodePage865},
	866:   sbcs{charmap.CodePage866},
	874:   sbcs{charmap.Windows874},
	1047:  sbcs{charmap.CodePage1047},
	1140:  sbcs{charmap.CodePage1140},
	1250:  sbcs{charmap.Windows1250},
	1251:  sbcs{charmap.Windows1251},
	1252:  sbcs{charmap.Windows1252},
	1253:  sbcs{charmap.Windows1253},
	1254:  sbcs{charmap.Windows1254},
	1255:  sbcs{charmap.Windows1255},
	1256:  sbcs{charmap.Windows1256},
	1257:  sbcs{charmap.Windows1257},
	1258:  sbcs{charmap.Windows1258},
	10000: sbcs{charmap.Macintosh},
	10007: sbcs{charmap.MacintoshCyrillic},
	20866: sbcs{charmap.KOI8R},
	21866: sbcs{charmap.KOI8U},
	28591: sbcs{charmap.ISO8859_1},
	28592: sbcs{charmap.ISO8859_2},
	28593: sbcs{charmap.ISO8859_3},
	28594: sbcs{charmap.ISO8859_4},
	28595: sbcs{charmap.ISO8859_5},
	28596: sbcs{charmap.ISO8859_6},
	28597: sbcs{charmap.ISO8859_7},
	28598: sbcs{charmap.ISO8859_8},
	28599: sbcs{charmap.ISO8859_9},
	28600: sbcs{charmap.ISO8859_10},
	28603: sbcs{charmap.ISO8859_13},
	28604: sbcs{charmap.ISO8859_14},
	28605: sbcs{charmap.ISO8859_15},
	28606: sbcs{charmap.ISO8859_16},
	932:   mbcs{enc: japanese.ShiftJIS, max: 2},
	936:   mbcs{enc: simplifiedchinese.GBK, max: 2},
	949:   mbcs{enc: korean.EUCKR, max: 2},
	950:   mbcs{enc: traditionalchinese.Big5, max: 2},
	UTF8:  mbcs{enc: xunicode.UTF8, max: 4, utf8: true},
}

// oemPages maps an ANSI code page to its OEM counterpart.
var oemPages = map[uint32]uint32{
	874:  874,
	932:  932,
	936:  936,
	949:  949,
	950:  950,
	1250: 852,
	1251: 866,
	1252: 850,
}

// sbcs is a single-byte code page.
type sbcs struct {
	cm *charmap.Charmap
}

func (sbcs) maxCharSize() int { return 1 }

func (t sbcs) appendRune(dst []byte, r rune) ([]byte, bool) {
	b, ok := t.cm.EncodeRune(r)
	if !ok {
		return dst, false
	}
	return append(dst, b), true
}

func (t sbcs) appendUnits(dst []uint16, src []byte) ([]uint16, bool) {
	invalid := false
	for _, b := range src {
		r := t.cm.DecodeByte(b)
		if r == utf8.RuneError {
			invalid = true
		}
		dst = append(dst, uint16(r))
	}
	return dst, invalid
}

// mbcs is a multi-byte code page backed by an x/text encoding.
type mbcs struct {
	enc  encoding.Encoding
	max  int
	utf8 bool
}

func (t mbcs) maxCharSize() int { return t.max }

func (t mbcs) appendRune(dst []byte, r rune) ([]byte, bool) {
	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], r)
	out, err := t.enc.NewEncoder().Bytes(buf[:n])
	if err != nil || len(out) == 0 {
		return dst, false
	}
	return append(dst, out...), true
}

func (t mbcs) appendUnits(dst []uint16, src []byte) ([]uint16, bool) {
	out, err := t.enc.NewDecoder().Bytes(src)
	if err != nil {
		return dst, true
	}
	invalid := false
	if t.utf8 {
		invalid = !utf8.Valid(src)
	}
	for _, r := range string(out) {
		if r == utf8.RuneError && !t.utf8 {
			invalid = true
		}
		dst = utf16.AppendRune(dst, r)
	}
	return dst, invalid
}

// TableProvider implements Provider with golang.org/x/text code page
// tables. It never performs best-fit mapping.
type TableProvider struct {
	acp uint32
}

// NewTableProvider returns a provider whose active ANSI code page is acp.
// Zero selects DefaultActiveCodePage.
func NewTableProvider(acp uint32) *TableProvider {
	if acp == ACP {
		acp = DefaultActiveCodePage
	}
	return &TableProvider{acp: acp}
}

// ActiveCodePage returns the configured ANSI code page.
func (p *TableProvider) ActiveCodePage() uint32 {
	return p.acp
}

// Supported reports whether the provider has a table for codePage.
func (p *TableProvider) Supported(codePage uint32) bool {
	_, ok := tables[p.resolve(codePage)]
	return ok
}

func (p *TableProvider) resolve(codePage uint32) uint32 {
	switch codePage {
	case ACP, ThreadACP:
		return p.acp
	case OEMCP:
		if oem, ok := oemPages[p.acp]; ok {
			return oem
		}
		return 437
	case MACCP:
		return 10000
	}
	return codePage
}

// MaxCharSize reports the most bytes one UTF-16 unit can need.
func (p *TableProvider) MaxCharSize(codePage uint32) (int, bool) {
	t, ok := tables[p.resolve(codePage)]
	if !ok {
		return 0, false
	}
	return t.maxCharSize(), true
}

// WideToMultiByte encodes wide into out.
func (p *TableProvider) WideToMultiByte(codePage, flags uint32, wide []uint16, out []byte, wantUsedDefault bool) Result {
	if len(wide) == 0 {
		return Result{Status: StatusInvalidParameter}
	}
	resolved := p.resolve(codePage)
	t, ok := tables[resolved]
	if !ok {
		return Result{Status: StatusInvalidParameter}
	}

	isUTF8 := resolved == UTF8
	if isUTF8 {
		if flags&^WCErrInvalidChars != 0 {
			return Result{Status: StatusInvalidFlags}
		}
		if wantUsedDefault {
			return Result{Status: StatusInvalidParameter}
		}
	} else if flags&^NoBestFitChars != 0 {
		return Result{Status: StatusInvalidFlags}
	}

	var (
		scratch [8]byte
		n       int
		used    bool
	)
	for i := 0; i < len(wide); {
		r, size, valid := nextRune(wide, i)
		i += size

		enc := scratch[:0]
		if valid {
			enc, valid = t.appendRune(enc, r)
		}
		if !valid {
			switch {
			case isUTF8 && flags&WCErrInvalidChars != 0:
				return Result{Status: StatusNoUnicodeTranslation}
			case isUTF8:
				enc = utf8.AppendRune(scratch[:0], utf8.RuneError)
			default:
				used = true
				enc = append(scratch[:0], defaultChar)
			}
		}

		if n+len(enc) > len(out) {
			return Result{Status: StatusInsufficientBuffer}
		}
		n += copy(out[n:], enc)
	}

	return Result{N: n, UsedDefault: used && wantUsedDefault}
}

// MultiByteToWide decodes exactly len(narrow) bytes into out.
func (p *TableProvider) MultiByteToWide(codePage, flags uint32, narrow []byte, out []uint16) Result {
	if len(narrow) == 0 {
		return Result{Status: StatusInvalidParameter}
	}
	resolved := p.resolve(codePage)
	t, ok := tables[resolved]
	if !ok {
		return Result{Status: StatusInvalidParameter}
	}

	allowed := MBPrecomposed | MBErrInvalidChars
	if resolved == UTF8 {
		allowed = MBErrInvalidChars
	}
	if flags&^allowed != 0 {
		return Result{Status: StatusInvalidFlags}
	}

	units, invalid := t.appendUnits(make([]uint16, 0, len(narrow)), narrow)
	if invalid && flags&MBErrInvalidChars != 0 {
		return Result{Status: StatusNoUnicodeTranslation}
	}
	if len(units) > len(out) {
		return Result{Status: StatusInsufficientBuffer}
	}
	return Result{N: copy(out, units)}
}

// nextRune decodes the unit (or surrogate pair) at wide[i]. Unpaired
// surrogates are reported as invalid with size 1.
func nextRune(wide []uint16, i int) (r rune, size int, valid bool) {
	u := rune(wide[i])
	if !utf16.IsSurrogate(u) {
		return u, 1, true
	}
	if u < 0xdc00 && i+1 < len(wide) {
		if r := utf16.DecodeRune(u, rune(wide[i+1])); r != utf8.RuneError {
			return r, 2, true
		}
	}
	return u, 1, false
}
