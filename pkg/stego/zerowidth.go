package stego

import (
	"encoding/binary"
	"hash/crc32"
	"strings"
	"unicode"

	"github.com/nahan-im/nahan/pkg/bitutil"
	"github.com/nahan-im/nahan/pkg/header"
)

// The two carriers: zero-width non-joiner encodes bit 0, zero-width
// joiner bit 1. They are injected only at whitespace boundaries so they
// never break the ligature shaping of Persian words.
const (
	zwnj = '\u200C'
	zwj  = '\u200D'
)

// DecodeMode selects how tolerant the zero-width decoder is of carrier
// damage.
type DecodeMode int

const (
	// Strict requires every injected character intact and the checksum
	// to verify.
	Strict DecodeMode = iota
	// Lenient repairs a bounded number of lost invisible characters by
	// searching checksum-verified completions.
	Lenient
)

const (
	// corruptionThreshold is the maximum fraction of injected characters
	// that may be missing before lenient recovery gives up. Tunable; see
	// DESIGN.md.
	corruptionThreshold = 0.10
	// maxMissingBits bounds the completion search space.
	maxMissingBits = 12
	// crcSize is the CRC-32 trailer appended after the tagged payload so
	// both modes have a concrete integrity check.
	crcSize = 4
)

// ZeroWidthCodec implements NH02: one ZWNJ/ZWJ pair per whitespace
// boundary, two bits per boundary.
type ZeroWidthCodec struct{}

func NewZeroWidthCodec() *ZeroWidthCodec { return &ZeroWidthCodec{} }

func (*ZeroWidthCodec) Algorithm() header.Algorithm { return header.NH02 }

func (*ZeroWidthCodec) Metadata() Metadata {
	return Metadata{
		Name:         "Zero Width",
		Description:  "Hides data in zero-width joiners at whitespace boundaries; survives most chat apps.",
		StealthLevel: 5,
		Platform:     PlatformUniversal,
		NeedsCover:   true,
		AutoDetect:   true,
	}
}

func (*ZeroWidthCodec) Capacity(cover string) int {
	gross := whitespaceBoundaries(cover) * 2 / 8
	net := gross - header.Size - crcSize
	if net < 0 {
		return 0
	}
	return net
}

func (c *ZeroWidthCodec) Encode(payload []byte, cover string) (string, error) {
	if cover == "" {
		return "", ErrCoverRequired
	}
	if len(payload) > c.Capacity(cover) {
		return "", ErrCapacityExceeded
	}

	tagged := header.Embed(header.NH02, payload)
	embedded := make([]byte, 0, len(tagged)+crcSize)
	embedded = append(embedded, tagged...)
	embedded = binary.BigEndian.AppendUint32(embedded, crc32.ChecksumIEEE(tagged))
	bits := bitutil.BytesToBits(embedded)

	var sb strings.Builder
	runes := []rune(cover)
	next := 0
	for i, r := range runes {
		sb.WriteRune(r)
		endOfRun := unicode.IsSpace(r) && (i+1 == len(runes) || !unicode.IsSpace(runes[i+1]))
		if !endOfRun {
			continue
		}
		for pair := 0; pair < 2 && next < len(bits); pair++ {
			sb.WriteRune(bitRune(bits[next]))
			next++
		}
	}
	if next < len(bits) {
		// Capacity said this fits; a shortfall here is a bug.
		return "", ErrCapacityExceeded
	}
	return sb.String(), nil
}

// Decode is the strict-mode decode required by the Provider contract.
func (c *ZeroWidthCodec) Decode(stego string) ([]byte, error) {
	return c.DecodeMode(stego, Strict)
}

// DecodeMode decodes with an explicit tolerance mode.
func (c *ZeroWidthCodec) DecodeMode(stego string, mode DecodeMode) ([]byte, error) {
	groups := boundaryBits(stego)

	var bits []byte
	for _, g := range groups {
		bits = append(bits, g...)
	}
	if len(bits) == 0 {
		return nil, ErrNoPayload
	}

	if payload, err := verifyBits(bits); err == nil {
		return payload, nil
	} else if mode == Strict {
		return nil, err
	}
	return c.recover(groups, bits)
}

// Sniff reports whether text contains zero-width carrier characters.
func (*ZeroWidthCodec) Sniff(text string) bool {
	return ContainsZeroWidth(text)
}

// recover attempts lenient reconstruction. Every used boundary carries
// exactly two characters, so any boundary with one character, or an
// empty boundary followed by a populated one, marks lost bits. The
// completions of all deficient boundaries are enumerated and checked
// against the CRC trailer until one verifies.
func (c *ZeroWidthCodec) recover(groups [][]byte, collected []byte) ([]byte, error) {
	lastPopulated := -1
	for i, g := range groups {
		if len(g) > 0 {
			lastPopulated = i
		}
	}
	if lastPopulated < 0 {
		return nil, ErrNoPayload
	}

	missing := 0
	for i := 0; i <= lastPopulated; i++ {
		if n := len(groups[i]); n < 2 {
			missing += 2 - n
		}
	}
	if missing == 0 {
		// Nothing detectably lost: the damage is substitution, which the
		// checksum cannot repair.
		return nil, ErrCorruptedCarrier
	}
	if missing > maxMissingBits {
		return nil, ErrCorruptedCarrier
	}
	if frac := float64(missing) / float64(len(collected)+missing); frac > corruptionThreshold {
		return nil, ErrCorruptedCarrier
	}

	var payload []byte
	found := searchCompletions(groups[:lastPopulated+1], 0, nil, &payload)
	if !found {
		return nil, ErrCorruptedCarrier
	}
	return payload, nil
}

// searchCompletions walks boundary groups depth-first, expanding each
// deficient group to every two-bit sequence consistent with its
// surviving bits, and tests full candidates against the checksum.
func searchCompletions(groups [][]byte, idx int, acc []byte, payload *[]byte) bool {
	if idx == len(groups) {
		p, err := verifyBits(acc)
		if err != nil {
			return false
		}
		*payload = p
		return true
	}

	g := groups[idx]
	if len(g) >= 2 {
		return searchCompletions(groups, idx+1, append(acc, g...), payload)
	}

	for _, pair := range pairCompletions(g) {
		candidate := append(append([]byte{}, acc...), pair...)
		if searchCompletions(groups, idx+1, candidate, payload) {
			return true
		}
	}
	return false
}

// pairCompletions lists the two-bit sequences a damaged boundary could
// have carried: all supersequences of length two of its surviving bits.
func pairCompletions(g []byte) [][]byte {
	if len(g) == 0 {
		return [][]byte{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	}
	p := g[0]
	set := [][]byte{{0, p}, {1, p}, {p, 0}, {p, 1}}
	var out [][]byte
	seen := map[[2]byte]bool{}
	for _, pair := range set {
		key := [2]byte{pair[0], pair[1]}
		if !seen[key] {
			seen[key] = true
			out = append(out, pair)
		}
	}
	return out
}

// verifyBits packs bits, checks the CRC trailer and strips the magic
// header.
func verifyBits(bits []byte) ([]byte, error) {
	if len(bits)%8 != 0 {
		return nil, ErrCorruptedCarrier
	}
	data := bitutil.BitsToBytes(bits)
	if len(data) < header.Size+crcSize {
		return nil, ErrDataIncomplete
	}
	tagged := data[:len(data)-crcSize]
	want := binary.BigEndian.Uint32(data[len(data)-crcSize:])
	if crc32.ChecksumIEEE(tagged) != want {
		return nil, ErrCorruptedCarrier
	}
	return checkTag(header.NH02, tagged)
}

// boundaryBits groups the carrier bits of stego by the whitespace run
// they follow.
func boundaryBits(stego string) [][]byte {
	var groups [][]byte
	cur := -1
	inRun := false
	for _, r := range stego {
		switch {
		case r == zwnj || r == zwj:
			inRun = false
			if cur >= 0 {
				bit := byte(0)
				if r == zwj {
					bit = 1
				}
				groups[cur] = append(groups[cur], bit)
			}
		case unicode.IsSpace(r):
			if !inRun {
				inRun = true
				cur++
				groups = append(groups, nil)
			}
		default:
			inRun = false
		}
	}
	return groups
}

func whitespaceBoundaries(text string) int {
	n := 0
	inRun := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !inRun {
				inRun = true
				n++
			}
		} else {
			inRun = false
		}
	}
	return n
}

func bitRune(b byte) rune {
	if b == 1 {
		return zwj
	}
	return zwnj
}
