// Package stego implements the seven embedding algorithms that hide an
// opaque byte payload inside plausible cover content, plus the registry
// that maps algorithm identifiers to codec instances.
//
// Every codec tags its payload with the 4-byte magic header from
// pkg/header before embedding, so a decoder can recognize its own output
// and refuse someone else's.
package stego

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/nahan-im/nahan/pkg/bitutil"
	"github.com/nahan-im/nahan/pkg/header"
)

var (
	// ErrCapacityExceeded is returned by Encode before any output is
	// produced when the payload does not fit the carrier.
	ErrCapacityExceeded = errors.New("stego: payload exceeds carrier capacity")

	// ErrAlgorithmMismatch is returned when the magic header names a
	// different algorithm than the decoder at hand.
	ErrAlgorithmMismatch = errors.New("stego: algorithm mismatch")

	// ErrCorruptedCarrier is returned when embedded characters were lost
	// or altered in transit beyond what lenient decoding can repair.
	ErrCorruptedCarrier = errors.New("stego: carrier corrupted")

	// ErrDataIncomplete is returned when a length-prefixed payload claims
	// more bytes than the carrier actually holds.
	ErrDataIncomplete = errors.New("stego: embedded data incomplete")

	// ErrNoPayload is returned when the input carries no recognizable
	// embedded payload at all.
	ErrNoPayload = errors.New("stego: no embedded payload found")

	// ErrCoverRequired is returned by codecs that cannot synthesize
	// their own carrier when no usable cover text is supplied.
	ErrCoverRequired = errors.New("stego: cover text required")

	// ErrUnregistered is returned by the registry for unknown algorithm
	// identifiers.
	ErrUnregistered = errors.New("stego: algorithm not registered")
)

// Platform is the class of chat surface a codec's output survives best.
type Platform string

const (
	PlatformUniversal Platform = "universal"
	PlatformDesktop   Platform = "desktop"
	PlatformMobile    Platform = "mobile"
	PlatformSocial    Platform = "social"
)

// Metadata describes a codec. It is defined once per codec and never
// mutated.
type Metadata struct {
	Name        string
	Description string
	// StealthLevel ranks visual conspicuousness from 1 (clearly
	// visible) to 5 (invisible).
	StealthLevel int
	Platform     Platform
	NeedsCover   bool
	// AutoDetect marks codecs whose output carries a fingerprint
	// distinctive enough for unsupervised clipboard detection.
	AutoDetect bool
}

// Provider is the common codec contract. Encode rejects oversized
// payloads with ErrCapacityExceeded before producing output; Decode is
// total over any string input and returns typed errors for malformed
// carriers. Capacity reports net payload bytes, with header, length and
// checksum overhead already subtracted.
type Provider interface {
	Algorithm() header.Algorithm
	Metadata() Metadata
	Capacity(cover string) int
	Encode(payload []byte, cover string) (string, error)
	Decode(stego string) ([]byte, error)
}

// frame prepends the 4-byte big-endian length of the magic-tagged
// payload, used by the codecs whose carriers are not self-terminating.
func frame(tagged []byte) []byte {
	out := make([]byte, 4, 4+len(tagged))
	binary.BigEndian.PutUint32(out, uint32(len(tagged)))
	return append(out, tagged...)
}

// maxFrameLength caps the length prefix a decoder will believe, so a
// garbage carrier cannot demand gigabytes of bits.
const maxFrameLength = 10 << 20

// unframeBits reads a 4-byte length prefix from the head of bits and
// returns the magic-tagged payload it frames. Trailing carrier filler
// bits are ignored.
func unframeBits(bits []byte) ([]byte, error) {
	if len(bits) < 32 {
		return nil, ErrDataIncomplete
	}
	length := binary.BigEndian.Uint32(bitutil.BitsToBytes(bits[:32]))
	if length > maxFrameLength {
		return nil, ErrCorruptedCarrier
	}
	need := 32 + int(length)*8
	if len(bits) < need {
		return nil, ErrDataIncomplete
	}
	return bitutil.BitsToBytes(bits[32:need]), nil
}

// checkTag strips and verifies the magic header for the given codec. A
// header naming another registered algorithm is a loud mismatch, not a
// silent wrong decode.
func checkTag(want header.Algorithm, tagged []byte) ([]byte, error) {
	got, payload, ok := header.Extract(tagged)
	if !ok {
		return nil, ErrNoPayload
	}
	if got != want {
		return nil, fmt.Errorf("%w: header says %s, decoder is %s", ErrAlgorithmMismatch, got, want)
	}
	return payload, nil
}
