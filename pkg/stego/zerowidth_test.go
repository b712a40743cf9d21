package stego_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nahan-im/nahan/pkg/stego"
)

// dropZeroWidth removes the n-th, 2n-th, ... occurrences of zero-width
// characters from s, simulating a paste target that eats some of them.
func dropZeroWidth(s string, drop ...int) string {
	set := make(map[int]bool, len(drop))
	for _, d := range drop {
		set[d] = true
	}
	var sb strings.Builder
	seen := 0
	for _, r := range s {
		if r == '\u200C' || r == '\u200D' {
			seen++
			if set[seen] {
				continue
			}
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func TestZeroWidthLenientRecoversFewLostCharacters(t *testing.T) {
	codec := stego.NewZeroWidthCodec()
	payload := []byte("resilient")
	cover := strings.TrimSpace(strings.Repeat("calm words over water ", 30))

	encoded, err := codec.Encode(payload, cover)
	require.NoError(t, err)

	// Losing characters in the middle of the stream breaks strict mode.
	damaged := dropZeroWidth(encoded, 7, 40)
	_, err = codec.Decode(damaged)
	require.ErrorIs(t, err, stego.ErrCorruptedCarrier)

	recovered, err := codec.DecodeMode(damaged, stego.Lenient)
	require.NoError(t, err)
	assert.Equal(t, payload, recovered)
}

func TestZeroWidthLenientRecoversWholeLostPair(t *testing.T) {
	codec := stego.NewZeroWidthCodec()
	payload := []byte{0xDB, 0x01, 0x7F}
	cover := strings.TrimSpace(strings.Repeat("calm words over water ", 20))

	encoded, err := codec.Encode(payload, cover)
	require.NoError(t, err)

	// Drop both characters of one interior boundary.
	damaged := dropZeroWidth(encoded, 11, 12)
	recovered, err := codec.DecodeMode(damaged, stego.Lenient)
	require.NoError(t, err)
	assert.Equal(t, payload, recovered)
}

func TestZeroWidthLenientGivesUpAboveThreshold(t *testing.T) {
	codec := stego.NewZeroWidthCodec()
	payload := []byte{0x42}
	cover := strings.TrimSpace(strings.Repeat("calm words over water ", 20))

	encoded, err := codec.Encode(payload, cover)
	require.NoError(t, err)

	// A 1-byte payload embeds 72 bits; dropping 8 interior characters is
	// over the 10% corruption ceiling.
	damaged := dropZeroWidth(encoded, 1, 3, 5, 7, 9, 11, 13, 15)
	_, err = codec.DecodeMode(damaged, stego.Lenient)
	assert.ErrorIs(t, err, stego.ErrCorruptedCarrier)
}

func TestZeroWidthStrictRejectsAnyLoss(t *testing.T) {
	codec := stego.NewZeroWidthCodec()
	cover := strings.TrimSpace(strings.Repeat("calm words over water ", 20))

	encoded, err := codec.Encode([]byte("fragile"), cover)
	require.NoError(t, err)

	_, err = codec.Decode(dropZeroWidth(encoded, 5))
	assert.ErrorIs(t, err, stego.ErrCorruptedCarrier)
}
