// Package narrow provides the two narrow string containers exchanged with
// hosts that only understand null-terminated strings in a system code page.
//
//	String   variable length, exact encoded bytes, no terminator
//	Short    fixed 256-byte buffer, at most 255 content bytes, zero padded
//
// Both are built from Go text through a Codec (a codepage.Converter plus a
// code page) and are immutable once built. Building fails rather than
// substituting characters the code page cannot represent.
//
// The two types decode differently on purpose. String decodes all of its
// bytes, so an embedded zero byte is content. Short decodes up to its first
// zero byte; a Short with no zero byte at all decodes the full 256 bytes,
// while DecodeStrict reports a missing_terminator error instead.
//
// Short text must stay below ShortCapacity UTF-16 units. The limit is
// checked before conversion, and the encoded bytes must also fit in
// ShortCapacity so that a terminator always remains. FillShort, used for
// host parameter slots, accepts a full ShortCapacity bytes of content.
package narrow
