package stego

import (
	"strings"

	"github.com/nahan-im/nahan/pkg/bitutil"
	"github.com/nahan-im/nahan/pkg/header"
)

// SpaceCodec implements NH04: one bit per inter-word space, a single
// space for 0 and a doubled space for 1. The least stealthy of the
// text carriers against a monospace reader, but it survives paste
// targets that strip exotic code points.
type SpaceCodec struct{}

func NewSpaceCodec() *SpaceCodec { return &SpaceCodec{} }

func (*SpaceCodec) Algorithm() header.Algorithm { return header.NH04 }

func (*SpaceCodec) Metadata() Metadata {
	return Metadata{
		Name:         "Double Space",
		Description:  "Hides bits in single versus double spaces between words.",
		StealthLevel: 3,
		Platform:     PlatformUniversal,
		NeedsCover:   true,
		AutoDetect:   false,
	}
}

// lengthPrefixSize is the 4-byte big-endian frame in front of the
// tagged payload on the non-self-terminating carriers.
const lengthPrefixSize = 4

func (*SpaceCodec) Capacity(cover string) int {
	net := spaceRuns(cover)/8 - lengthPrefixSize - header.Size
	if net < 0 {
		return 0
	}
	return net
}

func (c *SpaceCodec) Encode(payload []byte, cover string) (string, error) {
	if cover == "" {
		return "", ErrCoverRequired
	}
	if len(payload) > c.Capacity(cover) {
		return "", ErrCapacityExceeded
	}

	bits := bitutil.BytesToBits(frame(header.Embed(header.NH04, payload)))
	return applySpaceBits(cover, bits)
}

// applySpaceBits doubles one space per 1 bit across the cover's space
// runs. Multi-space runs in the original cover would alias with an
// embedded 1 bit, so the cover is normalized to single spaces first.
func applySpaceBits(cover string, bits []byte) (string, error) {
	var sb strings.Builder
	next := 0
	for _, r := range normalizeSpaces(cover) {
		sb.WriteRune(r)
		if r == ' ' && next < len(bits) {
			if bits[next] == 1 {
				sb.WriteRune(' ')
			}
			next++
		}
	}
	if next < len(bits) {
		return "", ErrCapacityExceeded
	}
	return sb.String(), nil
}

func (c *SpaceCodec) Decode(stego string) ([]byte, error) {
	bits := spaceBits(stego)
	if len(bits) == 0 {
		return nil, ErrNoPayload
	}
	tagged, err := unframeBits(bits)
	if err != nil {
		return nil, err
	}
	return checkTag(header.NH04, tagged)
}

// spaceBits reads one bit per ASCII space run: 1 for a doubled run, 0
// for a single space.
func spaceBits(text string) []byte {
	var bits []byte
	run := 0
	flush := func() {
		if run == 0 {
			return
		}
		if run >= 2 {
			bits = append(bits, 1)
		} else {
			bits = append(bits, 0)
		}
		run = 0
	}
	for _, r := range text {
		if r == ' ' {
			run++
		} else {
			flush()
		}
	}
	flush()
	return bits
}

// spaceRuns counts the bit slots the cover offers after normalization.
func spaceRuns(text string) int {
	return len(spaceBits(normalizeSpaces(text)))
}

// normalizeSpaces collapses every run of ASCII spaces to a single
// space, the encoder's canonical cover form.
func normalizeSpaces(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		if r == ' ' {
			if prevSpace {
				continue
			}
			prevSpace = true
		} else {
			prevSpace = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
