package header_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nahan-im/nahan/pkg/header"
)

func TestEmbedExtractEveryAlgorithm(t *testing.T) {
	payload := []byte("secret payload")

	for _, alg := range header.All() {
		tagged := header.Embed(alg, payload)
		require.Len(t, tagged, header.Size+len(payload))

		got, rest, ok := header.Extract(tagged)
		assert.True(t, ok)
		assert.Equal(t, alg, got)
		assert.Equal(t, payload, rest)
	}
}

func TestExtractFallback(t *testing.T) {
	// Too short: original bytes are passed through.
	short := []byte("NH")
	_, rest, ok := header.Extract(short)
	assert.False(t, ok)
	assert.Equal(t, short, rest)

	// Wrong prefix.
	legacy := []byte("plain old clipboard text")
	_, rest, ok = header.Extract(legacy)
	assert.False(t, ok)
	assert.Equal(t, legacy, rest)

	// Prefix matches but the digit is out of range.
	bogus := []byte("NH09abcdef")
	_, rest, ok = header.Extract(bogus)
	assert.False(t, ok)
	assert.Equal(t, bogus, rest)

	bogus = []byte("NH0Xabcdef")
	_, rest, ok = header.Extract(bogus)
	assert.False(t, ok)
	assert.Equal(t, bogus, rest)
}

func TestExtractEmptyPayload(t *testing.T) {
	got, rest, ok := header.Extract(header.Embed(header.NH03, nil))
	assert.True(t, ok)
	assert.Equal(t, header.NH03, got)
	assert.Empty(t, rest)
}

func TestValid(t *testing.T) {
	assert.True(t, header.NH01.Valid())
	assert.True(t, header.NH07.Valid())
	assert.False(t, header.Algorithm("NH08").Valid())
	assert.False(t, header.Algorithm("XX01").Valid())
	assert.False(t, header.Algorithm("NH0").Valid())
}
