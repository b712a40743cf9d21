package msgstore_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nahan-im/nahan/internal/msgstore"
)

func openTestStore(t *testing.T) *msgstore.Store {
	t.Helper()
	s, err := msgstore.New(msgstore.StoreConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ciphertext := []byte{0x01, 0xDE, 0xAD, 0xBE, 0xEF}

	rec := msgstore.Record{
		Sender:    "Alice",
		Algorithm: "NH02",
		Plaintext: []byte("Hello there"),
	}
	require.NoError(t, s.Save(ciphertext, rec))

	got, found, err := s.Get(ciphertext)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Alice", got.Sender)
	assert.Equal(t, "NH02", got.Algorithm)
	assert.Equal(t, []byte("Hello there"), got.Plaintext)
	assert.Equal(t, msgstore.ContentKey(ciphertext), got.ContentHash)
	assert.WithinDuration(t, time.Now(), got.ReceivedAt, time.Minute)
}

func TestSeen(t *testing.T) {
	s := openTestStore(t)
	ciphertext := []byte("some envelope bytes")

	seen, err := s.Seen(ciphertext)
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, s.Save(ciphertext, msgstore.Record{Sender: "Bob"}))

	seen, err = s.Seen(ciphertext)
	require.NoError(t, err)
	assert.True(t, seen)

	// A different ciphertext with the same plaintext is not a duplicate.
	seen, err = s.Seen([]byte("some envelope bytes!"))
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)
	_, found, err := s.Get([]byte("never stored"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAll(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Save([]byte("one"), msgstore.Record{Sender: "A"}))
	require.NoError(t, s.Save([]byte("two"), msgstore.Record{Sender: "B"}))
	require.NoError(t, s.Save([]byte("one"), msgstore.Record{Sender: "A2"})) // overwrite

	all, err := s.All()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestContentKeyStable(t *testing.T) {
	a := msgstore.ContentKey([]byte("payload"))
	assert.Equal(t, a, msgstore.ContentKey([]byte("payload")))
	assert.NotEqual(t, a, msgstore.ContentKey([]byte("payloae")))
	assert.Len(t, a, 16)
}

func TestRunGC(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Save([]byte("x"), msgstore.Record{}))
	assert.NoError(t, s.RunGC())
}
