package bitutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nahan-im/nahan/pkg/bitutil"
)

func TestBytesToBits(t *testing.T) {
	bits := bitutil.BytesToBits([]byte{0xA5})
	assert.Equal(t, []byte{1, 0, 1, 0, 0, 1, 0, 1}, bits)

	assert.Len(t, bitutil.BytesToBits([]byte{0x00, 0xFF, 0x42}), 24)
	assert.Empty(t, bitutil.BytesToBits(nil))
}

func TestBitsToBytes(t *testing.T) {
	assert.Equal(t, []byte{0xA5}, bitutil.BitsToBytes([]byte{1, 0, 1, 0, 0, 1, 0, 1}))

	// Trailing partial byte is zero padded.
	assert.Equal(t, []byte{0x80}, bitutil.BitsToBytes([]byte{1}))
	assert.Equal(t, []byte{0xC0}, bitutil.BitsToBytes([]byte{1, 1}))
	assert.Empty(t, bitutil.BitsToBytes(nil))
}

func TestRoundTrip(t *testing.T) {
	cases := [][]byte{
		nil,
		{0x00},
		{0xFF},
		{0xDE, 0xAD, 0xBE, 0xEF},
		make([]byte, 256),
	}
	for i := range cases[4] {
		cases[4][i] = byte(i)
	}

	for _, in := range cases {
		out := bitutil.BitsToBytes(bitutil.BytesToBits(in))
		if len(in) == 0 {
			assert.Empty(t, out)
			continue
		}
		assert.Equal(t, in, out)
	}
}
