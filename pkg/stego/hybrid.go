package stego

import (
	"github.com/nahan-im/nahan/pkg/bitutil"
	"github.com/nahan-im/nahan/pkg/header"
	"github.com/nahan-im/nahan/pkg/script"
)

// HybridCodec implements NH06: the bit stream is split into even- and
// odd-indexed halves, the even bits ride the NH04 space channel and the
// odd bits the NH05 script channel, applied in sequence. Doubling up
// roughly doubles the capacity of either channel alone on the same
// cover, at the cost of needing both channels to survive transit.
type HybridCodec struct{}

func NewHybridCodec() *HybridCodec { return &HybridCodec{} }

func (*HybridCodec) Algorithm() header.Algorithm { return header.NH06 }

func (*HybridCodec) Metadata() Metadata {
	return Metadata{
		Name:         "Braid",
		Description:  "Interleaves the space and script channels for double capacity on one cover.",
		StealthLevel: 4,
		Platform:     PlatformUniversal,
		NeedsCover:   true,
		AutoDetect:   false,
	}
}

func (*HybridCodec) Capacity(cover string) int {
	var scriptSlots int
	switch script.Detect(cover) {
	case script.Persian:
		scriptSlots = script.KashidaOpportunities(cover)
	case script.Latin:
		scriptSlots = script.SubstitutableLatin(cover)
	default:
		return 0
	}
	spaceSlots := spaceRuns(cover)

	// Both channels must hold their half of the stream, so total bits
	// are twice the smaller channel.
	slots := spaceSlots
	if scriptSlots < slots {
		slots = scriptSlots
	}
	net := slots*2/8 - lengthPrefixSize - header.Size
	if net < 0 {
		return 0
	}
	return net
}

func (c *HybridCodec) Encode(payload []byte, cover string) (string, error) {
	if cover == "" {
		return "", ErrCoverRequired
	}
	if script.Detect(cover) == script.Mixed {
		return "", ErrCoverRequired
	}
	if len(payload) > c.Capacity(cover) {
		return "", ErrCapacityExceeded
	}

	bits := bitutil.BytesToBits(frame(header.Embed(header.NH06, payload)))
	var even, odd []byte
	for i, b := range bits {
		if i%2 == 0 {
			even = append(even, b)
		} else {
			odd = append(odd, b)
		}
	}

	// Space encoding first; kashidas and homoglyphs never touch spaces,
	// so the second pass cannot disturb the first channel.
	spaced, err := applySpaceBits(cover, even)
	if err != nil {
		return "", err
	}
	return applyScriptBits(spaced, odd)
}

func (c *HybridCodec) Decode(stego string) ([]byte, error) {
	even := spaceBits(stego)
	odd, err := scriptBits(stego)
	if err != nil {
		return nil, err
	}
	if len(even) == 0 || len(odd) == 0 {
		return nil, ErrNoPayload
	}

	var bits []byte
	for i := 0; i < len(even); i++ {
		bits = append(bits, even[i])
		if i < len(odd) {
			bits = append(bits, odd[i])
		} else {
			break
		}
	}

	tagged, err := unframeBits(bits)
	if err != nil {
		return nil, err
	}
	return checkTag(header.NH06, tagged)
}
