package stego

import (
	"github.com/nahan-im/nahan/pkg/header"
)

// Base-122 packs seven payload bits into every output byte, detouring
// around the six bytes that cannot appear raw inside an HTML/JS string
// by escaping them into a two-byte sequence that also carries the next
// seven bits. The output feeds the image pipeline, which buries it in
// pixel low bits.
var base122Illegal = [...]byte{
	0x00, // null
	0x0A, // newline
	0x0D, // carriage return
	0x22, // double quote
	0x26, // ampersand
	0x5C, // backslash
}

// shortenedIndex flags a two-byte sequence whose data bits are the
// stream's final, possibly padded, chunk.
const shortenedIndex = 7

// base122PayloadLimit is the fixed ceiling for the image path.
const base122PayloadLimit = 10 << 20

// Base122Codec implements NH07. The carrier is self-terminating, so no
// length prefix is needed: decoding stops at the end of the string and
// drops the sub-byte padding.
type Base122Codec struct{}

func NewBase122Codec() *Base122Codec { return &Base122Codec{} }

func (*Base122Codec) Algorithm() header.Algorithm { return header.NH07 }

func (*Base122Codec) Metadata() Metadata {
	return Metadata{
		Name:         "Pixel Freight",
		Description:  "Binary-safe base-122 text for least-significant-bit embedding in images.",
		StealthLevel: 5,
		Platform:     PlatformUniversal,
		NeedsCover:   false,
		AutoDetect:   false,
	}
}

func (*Base122Codec) Capacity(string) int { return base122PayloadLimit }

func (c *Base122Codec) Encode(payload []byte, cover string) (string, error) {
	if len(payload) > c.Capacity(cover) {
		return "", ErrCapacityExceeded
	}
	return string(base122Encode(header.Embed(header.NH07, payload))), nil
}

func (c *Base122Codec) Decode(stego string) ([]byte, error) {
	tagged, err := base122Decode([]byte(stego))
	if err != nil {
		return nil, err
	}
	if len(tagged) == 0 {
		return nil, ErrNoPayload
	}
	return checkTag(header.NH07, tagged)
}

// bitReader yields successive 7-bit chunks of data, MSB first, padding
// the final chunk with zero bits.
type bitReader struct {
	data []byte
	pos  int // bit position
}

func (r *bitReader) next7() (byte, bool) {
	total := len(r.data) * 8
	if r.pos >= total {
		return 0, false
	}
	var chunk byte
	for i := 0; i < 7; i++ {
		chunk <<= 1
		p := r.pos + i
		if p < total && r.data[p/8]&(1<<uint(7-p%8)) != 0 {
			chunk |= 1
		}
	}
	r.pos += 7
	return chunk, true
}

func illegalIndex(b byte) (int, bool) {
	for i, ill := range base122Illegal {
		if b == ill {
			return i, true
		}
	}
	return 0, false
}

func base122Encode(data []byte) []byte {
	r := &bitReader{data: data}
	out := make([]byte, 0, len(data)*8/7+2)
	for {
		chunk, ok := r.next7()
		if !ok {
			break
		}
		idx, illegal := illegalIndex(chunk)
		if !illegal {
			out = append(out, chunk)
			continue
		}
		// An illegal chunk hides inside a two-byte sequence together
		// with the chunk that follows it.
		nextChunk, ok := r.next7()
		if !ok {
			idx = shortenedIndex
			nextChunk = chunk
		}
		payload := uint16(idx)<<7 | uint16(nextChunk)
		out = append(out,
			0xC0|byte(payload>>6),
			0x80|byte(payload&0x3F))
	}
	return out
}

func base122Decode(data []byte) ([]byte, error) {
	var bits []byte
	append7 := func(chunk byte) {
		for i := 6; i >= 0; i-- {
			bits = append(bits, (chunk>>uint(i))&1)
		}
	}
	for i := 0; i < len(data); i++ {
		b := data[i]
		switch {
		case b < 0x80:
			append7(b)
		case b&0xE0 == 0xC0:
			if i+1 >= len(data) || data[i+1]&0xC0 != 0x80 {
				return nil, ErrCorruptedCarrier
			}
			payload := uint16(b&0x1F)<<6 | uint16(data[i+1]&0x3F)
			i++
			idx := int(payload>>7) & 0x7
			chunk := byte(payload & 0x7F)
			if idx == shortenedIndex {
				append7(chunk)
				continue
			}
			if idx >= len(base122Illegal) {
				return nil, ErrCorruptedCarrier
			}
			append7(base122Illegal[idx])
			append7(chunk)
		default:
			return nil, ErrCorruptedCarrier
		}
	}
	// 7*units is at most 6 bits past the original length; the floor
	// division drops the padding.
	out := make([]byte, len(bits)/8)
	for i := range out {
		for j := 0; j < 8; j++ {
			out[i] <<= 1
			out[i] |= bits[i*8+j]
		}
	}
	return out, nil
}
