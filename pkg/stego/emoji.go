package stego

import (
	"strings"
	"unicode"

	"github.com/nahan-im/nahan/pkg/header"
)

// emojiAlphabet maps each nibble to one of sixteen smileys. Two emoji
// per payload byte; the output looks like an over-excited reaction
// message. The table order is fixed forever, it is the wire format.
var emojiAlphabet = [16]rune{
	'😀', '😁', '😂', '😃',
	'😄', '😅', '😆', '😉',
	'😊', '😋', '😎', '😍',
	'😘', '😗', '😙', '😚',
}

var emojiNibble = func() map[rune]byte {
	m := make(map[rune]byte, len(emojiAlphabet))
	for i, r := range emojiAlphabet {
		m[r] = byte(i)
	}
	return m
}()

// emojiPayloadLimit is a sanity cap; the carrier itself grows without
// bound.
const emojiPayloadLimit = 1 << 20

// EmojiCodec implements NH03: a self-synthesized carrier that needs no
// cover text and no length prefix, since the emoji run terminates
// itself.
type EmojiCodec struct{}

func NewEmojiCodec() *EmojiCodec { return &EmojiCodec{} }

func (*EmojiCodec) Algorithm() header.Algorithm { return header.NH03 }

func (*EmojiCodec) Metadata() Metadata {
	return Metadata{
		Name:         "Emoji Burst",
		Description:  "Turns the payload into a run of smileys, two per byte. Conspicuous but deniable.",
		StealthLevel: 2,
		Platform:     PlatformSocial,
		NeedsCover:   false,
		AutoDetect:   true,
	}
}

func (*EmojiCodec) Capacity(string) int { return emojiPayloadLimit }

func (c *EmojiCodec) Encode(payload []byte, cover string) (string, error) {
	if len(payload) > c.Capacity(cover) {
		return "", ErrCapacityExceeded
	}
	tagged := header.Embed(header.NH03, payload)
	var sb strings.Builder
	sb.Grow(len(tagged) * 8)
	for _, b := range tagged {
		sb.WriteRune(emojiAlphabet[b>>4])
		sb.WriteRune(emojiAlphabet[b&0x0F])
	}
	return sb.String(), nil
}

func (c *EmojiCodec) Decode(stego string) ([]byte, error) {
	var nibbles []byte
	for _, r := range stego {
		if n, ok := emojiNibble[r]; ok {
			nibbles = append(nibbles, n)
			continue
		}
		if unicode.IsSpace(r) {
			continue
		}
		return nil, ErrCorruptedCarrier
	}
	if len(nibbles) == 0 {
		return nil, ErrNoPayload
	}
	if len(nibbles)%2 != 0 {
		return nil, ErrCorruptedCarrier
	}
	tagged := make([]byte, len(nibbles)/2)
	for i := range tagged {
		tagged[i] = nibbles[2*i]<<4 | nibbles[2*i+1]
	}
	return checkTag(header.NH03, tagged)
}

// Sniff reports whether text is made of the emoji alphabet (allowing
// whitespace), which is how clipboard auto-detection recognizes NH03.
func (*EmojiCodec) Sniff(text string) bool {
	seen := false
	for _, r := range text {
		if _, ok := emojiNibble[r]; ok {
			seen = true
			continue
		}
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return seen
}
