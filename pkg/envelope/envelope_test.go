package envelope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nahan-im/nahan/pkg/envelope"
)

func TestEncryptedRoundTrip(t *testing.T) {
	alice, err := envelope.NewIdentity()
	require.NoError(t, err)
	bob, err := envelope.NewIdentity()
	require.NoError(t, err)

	blob, err := envelope.BuildEncrypted([]byte("Hello there"), bob.BoxPub, alice)
	require.NoError(t, err)
	assert.Equal(t, byte(envelope.VersionEncrypted), blob[0])

	opened, err := envelope.Open(blob, bob)
	require.NoError(t, err)
	assert.Equal(t, []byte("Hello there"), opened.Plaintext)
	assert.False(t, opened.Broadcast)
	assert.Equal(t, *alice.BoxPub, opened.SenderBoxKey)
}

func TestEncryptedWrongRecipient(t *testing.T) {
	alice, _ := envelope.NewIdentity()
	bob, _ := envelope.NewIdentity()
	eve, _ := envelope.NewIdentity()

	blob, err := envelope.BuildEncrypted([]byte("for bob only"), bob.BoxPub, alice)
	require.NoError(t, err)

	_, err = envelope.Open(blob, eve)
	assert.ErrorIs(t, err, envelope.ErrDecryptFailed)
}

func TestSignedRoundTrip(t *testing.T) {
	alice, err := envelope.NewIdentity()
	require.NoError(t, err)

	blob, err := envelope.BuildSigned([]byte("to whom it may concern"), alice)
	require.NoError(t, err)
	assert.Equal(t, byte(envelope.VersionSigned), blob[0])

	// A signed broadcast opens without any private key.
	opened, err := envelope.Open(blob, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("to whom it may concern"), opened.Plaintext)
	assert.True(t, opened.Broadcast)
	assert.Equal(t, *alice.SignPub, opened.SenderSignKey)
}

func TestSignedTamperDetected(t *testing.T) {
	alice, _ := envelope.NewIdentity()

	blob, err := envelope.BuildSigned([]byte("original"), alice)
	require.NoError(t, err)

	blob[len(blob)-1] ^= 0x01
	_, err = envelope.Open(blob, nil)
	assert.ErrorIs(t, err, envelope.ErrSignatureInvalid)
}

func TestVersionRouting(t *testing.T) {
	alice, _ := envelope.NewIdentity()
	bob, _ := envelope.NewIdentity()

	// Flipping an encrypted blob's version byte to 0x02 must route it to
	// signature verification, which fails; it must never decrypt.
	enc, err := envelope.BuildEncrypted([]byte("a secret long enough to parse as a signed blob"), bob.BoxPub, alice)
	require.NoError(t, err)
	enc[0] = envelope.VersionSigned
	_, err = envelope.Open(enc, bob)
	assert.ErrorIs(t, err, envelope.ErrSignatureInvalid)

	// And a signed blob forced to 0x01 must hit the decrypt path only.
	sig, err := envelope.BuildSigned([]byte("public"), alice)
	require.NoError(t, err)
	sig[0] = envelope.VersionEncrypted
	_, err = envelope.Open(sig, bob)
	assert.ErrorIs(t, err, envelope.ErrDecryptFailed)
}

func TestUnsupportedVersion(t *testing.T) {
	_, err := envelope.Open([]byte{0x03, 0xAA, 0xBB}, nil)
	assert.ErrorIs(t, err, envelope.ErrUnsupportedVersion)

	_, err = envelope.Open(nil, nil)
	assert.ErrorIs(t, err, envelope.ErrTruncated)
}

func TestFingerprintStable(t *testing.T) {
	id, err := envelope.NewIdentity()
	require.NoError(t, err)

	fp := id.Fingerprint()
	assert.Len(t, fp, 16)
	assert.Equal(t, fp, envelope.Fingerprint(id.BoxPub, id.SignPub))

	other, err := envelope.NewIdentity()
	require.NoError(t, err)
	assert.NotEqual(t, fp, other.Fingerprint())
}
