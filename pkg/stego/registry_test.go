package stego_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nahan-im/nahan/pkg/header"
	"github.com/nahan-im/nahan/pkg/stego"
)

func TestRegistryHoldsAllSeven(t *testing.T) {
	r := stego.NewRegistry()
	assert.Len(t, r.Providers(), 7)

	for _, alg := range header.All() {
		p, err := r.Provider(alg)
		require.NoError(t, err)
		assert.Equal(t, alg, p.Algorithm())
	}
}

func TestRegistryUnregistered(t *testing.T) {
	r := stego.NewRegistry()
	_, err := r.Provider(header.Algorithm("NH99"))
	assert.ErrorIs(t, err, stego.ErrUnregistered)
}

func TestDetectProvider(t *testing.T) {
	r := stego.Default()

	cover := "quiet afternoon by the sea shore with long shadows and warm tea near the open window today " +
		"quiet afternoon by the sea shore with long shadows and warm tea near the open window today"
	payload := []byte("x")

	cases := []header.Algorithm{header.NH01, header.NH02, header.NH03}
	for _, alg := range cases {
		p, err := r.Provider(alg)
		require.NoError(t, err)

		c := cover
		if !p.Metadata().NeedsCover {
			c = ""
		}
		encoded, err := p.Encode(payload, c)
		require.NoError(t, err)

		detected := r.DetectProvider(encoded)
		require.NotNil(t, detected, "%s output should be auto-detectable", alg)
		assert.Equal(t, alg, detected.Algorithm())
	}

	assert.Nil(t, r.DetectProvider("perfectly ordinary clipboard text"))
	assert.Nil(t, r.DetectProvider(""))
}
