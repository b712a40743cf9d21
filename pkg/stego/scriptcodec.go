package stego

import (
	"strings"

	"github.com/nahan-im/nahan/pkg/bitutil"
	"github.com/nahan-im/nahan/pkg/header"
	"github.com/nahan-im/nahan/pkg/script"
)

// ScriptCodec implements NH05. The carrier depends on the cover's
// script: Persian text takes an optional kashida after each connecting
// letter (present = 1), Latin text swaps look-alike Cyrillic and Greek
// glyphs in for a fixed character set (substituted = 1). Mixed-script
// covers have no capacity.
type ScriptCodec struct{}

func NewScriptCodec() *ScriptCodec { return &ScriptCodec{} }

func (*ScriptCodec) Algorithm() header.Algorithm { return header.NH05 }

func (*ScriptCodec) Metadata() Metadata {
	return Metadata{
		Name:         "Script Weave",
		Description:  "Hides bits in kashida elongations (Persian) or homoglyph substitutions (Latin).",
		StealthLevel: 4,
		Platform:     PlatformMobile,
		NeedsCover:   true,
		AutoDetect:   false,
	}
}

func (*ScriptCodec) Capacity(cover string) int {
	var slots int
	switch script.Detect(cover) {
	case script.Persian:
		slots = script.KashidaOpportunities(cover)
	case script.Latin:
		slots = script.SubstitutableLatin(cover)
	default:
		return 0
	}
	net := slots/8 - lengthPrefixSize - header.Size
	if net < 0 {
		return 0
	}
	return net
}

func (c *ScriptCodec) Encode(payload []byte, cover string) (string, error) {
	if cover == "" {
		return "", ErrCoverRequired
	}
	if script.Detect(cover) == script.Mixed {
		return "", ErrCoverRequired
	}
	if len(payload) > c.Capacity(cover) {
		return "", ErrCapacityExceeded
	}
	bits := bitutil.BytesToBits(frame(header.Embed(header.NH05, payload)))
	return applyScriptBits(cover, bits)
}

func (c *ScriptCodec) Decode(stego string) ([]byte, error) {
	bits, err := scriptBits(stego)
	if err != nil {
		return nil, err
	}
	tagged, err := unframeBits(bits)
	if err != nil {
		return nil, err
	}
	return checkTag(header.NH05, tagged)
}

// applyScriptBits writes bits into cover through the script channel
// matching the cover's detected script.
func applyScriptBits(cover string, bits []byte) (string, error) {
	switch script.Detect(cover) {
	case script.Persian:
		return applyKashidaBits(cover, bits)
	case script.Latin:
		return applyHomoglyphBits(cover, bits)
	default:
		return "", ErrCoverRequired
	}
}

// scriptBits reads the script channel of a stego string.
func scriptBits(stego string) ([]byte, error) {
	switch script.Detect(stego) {
	case script.Persian:
		return kashidaBits(stego), nil
	case script.Latin:
		return homoglyphBits(stego), nil
	default:
		return nil, ErrNoPayload
	}
}

// applyKashidaBits inserts a kashida before the second letter of each
// connecting pair for every 1 bit. Pre-existing kashidas are purely
// cosmetic and are stripped first so the channel starts clean.
func applyKashidaBits(cover string, bits []byte) (string, error) {
	cover = strings.ReplaceAll(cover, string(script.Kashida), "")
	var sb strings.Builder
	next := 0
	var prev rune
	for _, r := range cover {
		if next < len(bits) && script.Connects(prev) && script.IsPersianLetter(r) {
			if bits[next] == 1 {
				sb.WriteRune(script.Kashida)
			}
			next++
		}
		sb.WriteRune(r)
		prev = r
	}
	if next < len(bits) {
		return "", ErrCapacityExceeded
	}
	return sb.String(), nil
}

// kashidaBits reads one bit per kashida opportunity: 1 when a kashida
// sits between a connecting letter and the next letter, 0 when the
// letters touch directly.
func kashidaBits(text string) []byte {
	var bits []byte
	runes := []rune(text)
	var prev rune
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if script.Connects(prev) {
			if r == script.Kashida {
				if i+1 < len(runes) && script.IsPersianLetter(runes[i+1]) {
					bits = append(bits, 1)
					prev = runes[i+1]
					i++
					continue
				}
				prev = 0
				continue
			}
			if script.IsPersianLetter(r) {
				bits = append(bits, 0)
			}
		}
		if r == script.Kashida {
			prev = 0
		} else {
			prev = r
		}
	}
	return bits
}

// applyHomoglyphBits substitutes a look-alike for every 1 bit across the
// eligible characters of cover. Stray look-alikes already in the cover
// are normalized back to Latin first so they cannot alias with payload
// bits.
func applyHomoglyphBits(cover string, bits []byte) (string, error) {
	var sb strings.Builder
	next := 0
	for _, r := range cover {
		if latin, ok := script.FromHomoglyph(r); ok {
			r = latin
		}
		if g, ok := script.ToHomoglyph(r); ok && next < len(bits) {
			if bits[next] == 1 {
				r = g
			}
			next++
		}
		sb.WriteRune(r)
	}
	if next < len(bits) {
		return "", ErrCapacityExceeded
	}
	return sb.String(), nil
}

// homoglyphBits reads one bit per eligible character: 1 for a
// substituted look-alike, 0 for the Latin original.
func homoglyphBits(text string) []byte {
	var bits []byte
	for _, r := range text {
		if _, ok := script.FromHomoglyph(r); ok {
			bits = append(bits, 1)
		} else if _, ok := script.ToHomoglyph(r); ok {
			bits = append(bits, 0)
		}
	}
	return bits
}
