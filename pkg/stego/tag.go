package stego

import (
	"strings"

	"github.com/nahan-im/nahan/pkg/bitutil"
	"github.com/nahan-im/nahan/pkg/header"
)

// Tag characters live in the deprecated Unicode block U+E0000..U+E007F
// and render as nothing on every mainstream platform. Each payload byte
// becomes two tag characters, one per nibble, reusing the tag digits
// 0-9 and tag letters A-F so a hex dump of the carrier reads naturally
// in a code-point inspector.
const (
	tagDigitZero = 0xE0030
	tagLetterA   = 0xE0041
)

// tagPayloadLimit bounds what a single carrier may hold. Tag characters
// overflow past the visible text, so the limit is a sanity cap rather
// than a property of the cover.
const tagPayloadLimit = 1 << 20

// TagCodec implements NH01: tag code points injected after visible
// characters, with the remainder appended at the end when the cover runs
// out.
type TagCodec struct{}

func NewTagCodec() *TagCodec { return &TagCodec{} }

func (*TagCodec) Algorithm() header.Algorithm { return header.NH01 }

func (*TagCodec) Metadata() Metadata {
	return Metadata{
		Name:         "Invisible Ink",
		Description:  "Hides data in deprecated Unicode tag characters woven through the cover text.",
		StealthLevel: 5,
		Platform:     PlatformDesktop,
		NeedsCover:   true,
		AutoDetect:   true,
	}
}

func (*TagCodec) Capacity(cover string) int {
	return tagPayloadLimit
}

func (c *TagCodec) Encode(payload []byte, cover string) (string, error) {
	if cover == "" {
		return "", ErrCoverRequired
	}
	if len(payload) > c.Capacity(cover) {
		return "", ErrCapacityExceeded
	}

	framed := frame(header.Embed(header.NH01, payload))
	carriers := make([]rune, 0, len(framed)*2)
	for _, b := range framed {
		carriers = append(carriers, nibbleTag(b>>4), nibbleTag(b&0x0F))
	}

	var sb strings.Builder
	next := 0
	for _, r := range cover {
		sb.WriteRune(r)
		if next < len(carriers) {
			sb.WriteRune(carriers[next])
			next++
		}
	}
	// Cover exhausted: the rest rides invisibly at the end.
	for ; next < len(carriers); next++ {
		sb.WriteRune(carriers[next])
	}
	return sb.String(), nil
}

func (c *TagCodec) Decode(stego string) ([]byte, error) {
	var nibbles []byte
	for _, r := range stego {
		if n, ok := tagNibble(r); ok {
			nibbles = append(nibbles, n)
		}
	}
	if len(nibbles) == 0 {
		return nil, ErrNoPayload
	}
	data := make([]byte, len(nibbles)/2)
	for i := range data {
		data[i] = nibbles[2*i]<<4 | nibbles[2*i+1]
	}

	tagged, err := unframeBits(bitutil.BytesToBits(data))
	if err != nil {
		return nil, err
	}
	return checkTag(header.NH01, tagged)
}

// Sniff reports whether text contains tag-block characters.
func (*TagCodec) Sniff(text string) bool {
	for _, r := range text {
		if _, ok := tagNibble(r); ok {
			return true
		}
	}
	return false
}

func nibbleTag(n byte) rune {
	if n < 10 {
		return rune(tagDigitZero + int(n))
	}
	return rune(tagLetterA + int(n) - 10)
}

func tagNibble(r rune) (byte, bool) {
	switch {
	case r >= tagDigitZero && r < tagDigitZero+10:
		return byte(r - tagDigitZero), true
	case r >= tagLetterA && r < tagLetterA+6:
		return byte(r-tagLetterA) + 10, true
	default:
		return 0, false
	}
}
