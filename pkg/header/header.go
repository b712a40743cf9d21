// Package header implements the 4-byte magic header that tags every
// embedded payload with the algorithm that produced it, so a decoder can
// auto-detect the format without out-of-band hints.
package header

// Algorithm identifies one of the seven embedding algorithms.
type Algorithm string

const (
	NH01 Algorithm = "NH01" // Unicode tag characters
	NH02 Algorithm = "NH02" // zero-width joiner/non-joiner
	NH03 Algorithm = "NH03" // emoji nibble table
	NH04 Algorithm = "NH04" // single/double space runs
	NH05 Algorithm = "NH05" // kashida / homoglyph substitution
	NH06 Algorithm = "NH06" // hybrid space+script
	NH07 Algorithm = "NH07" // base-122 image payload
)

// Size is the magic header length in bytes: "NH0" plus one ASCII digit.
const Size = 4

const prefix = "NH0"

// All lists every defined algorithm in tag order.
func All() []Algorithm {
	return []Algorithm{NH01, NH02, NH03, NH04, NH05, NH06, NH07}
}

// Valid reports whether a names a defined algorithm.
func (a Algorithm) Valid() bool {
	if len(a) != Size || a[:3] != prefix {
		return false
	}
	return a[3] >= '1' && a[3] <= '7'
}

func (a Algorithm) String() string {
	return string(a)
}

// Embed prepends the 4-byte magic header for a to payload.
func Embed(a Algorithm, payload []byte) []byte {
	out := make([]byte, 0, Size+len(payload))
	out = append(out, a...)
	return append(out, payload...)
}

// Extract strips the magic header from data. If data is shorter than the
// header, does not start with "NH0", or names an undefined algorithm, ok
// is false and the original bytes come back untouched so headerless
// legacy data still flows through.
func Extract(data []byte) (a Algorithm, payload []byte, ok bool) {
	if len(data) < Size {
		return "", data, false
	}
	candidate := Algorithm(data[:Size])
	if !candidate.Valid() {
		return "", data, false
	}
	return candidate, data[Size:], true
}
