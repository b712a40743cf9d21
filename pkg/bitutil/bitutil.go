// Package bitutil converts between byte slices and bit slices for the
// steganographic carriers, most-significant bit first.
package bitutil

// BytesToBits expands data into individual bits, MSB first. The result
// always has length len(data)*8.
func BytesToBits(data []byte) []byte {
	bits := make([]byte, 0, len(data)*8)
	for _, b := range data {
		for shift := 7; shift >= 0; shift-- {
			bits = append(bits, (b>>uint(shift))&1)
		}
	}
	return bits
}

// BitsToBytes packs bits (values 0 or 1, MSB first) back into bytes. A
// trailing partial byte is padded with zero bits, so the result has
// ceil(len(bits)/8) bytes.
func BitsToBytes(bits []byte) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, bit := range bits {
		if bit != 0 {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}
