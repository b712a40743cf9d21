package contacts_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nahan-im/nahan/internal/contacts"
	"github.com/nahan-im/nahan/pkg/envelope"
)

func testContact(t *testing.T, name string) (contacts.Contact, *envelope.Identity) {
	t.Helper()
	id, err := envelope.NewIdentity()
	require.NoError(t, err)
	return contacts.FromIdentity(id, name), id
}

func TestDirectoryPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.yaml")

	d, err := contacts.Load(path)
	require.NoError(t, err)
	assert.Empty(t, d.All())

	alice, _ := testContact(t, "Alice")
	bob, _ := testContact(t, "Bob")
	d.Add(alice)
	d.Add(bob)
	require.NoError(t, d.Save())

	reloaded, err := contacts.Load(path)
	require.NoError(t, err)
	require.Len(t, reloaded.All(), 2)

	got, err := reloaded.ByFingerprint(alice.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.DisplayName)
}

func TestAddReplacesByFingerprint(t *testing.T) {
	d, err := contacts.Load(filepath.Join(t.TempDir(), "c.yaml"))
	require.NoError(t, err)

	alice, _ := testContact(t, "Alice")
	d.Add(alice)
	alice.DisplayName = "Alice (work)"
	d.Add(alice)

	require.Len(t, d.All(), 1)
	got, err := d.ByFingerprint(alice.Fingerprint)
	require.NoError(t, err)
	assert.Equal(t, "Alice (work)", got.DisplayName)
}

func TestLookupByEmbeddedKeys(t *testing.T) {
	d, err := contacts.Load(filepath.Join(t.TempDir(), "c.yaml"))
	require.NoError(t, err)

	alice, id := testContact(t, "Alice")
	d.Add(alice)

	byBox, err := d.ByBoxKey(*id.BoxPub)
	require.NoError(t, err)
	assert.Equal(t, "Alice", byBox.DisplayName)

	bySign, err := d.BySignKey(*id.SignPub)
	require.NoError(t, err)
	assert.Equal(t, "Alice", bySign.DisplayName)

	var unknown [32]byte
	_, err = d.ByBoxKey(unknown)
	assert.ErrorIs(t, err, contacts.ErrNotFound)
}

func TestKeysRoundTrip(t *testing.T) {
	alice, id := testContact(t, "Alice")
	boxPub, signPub, err := alice.Keys()
	require.NoError(t, err)
	assert.Equal(t, id.BoxPub, boxPub)
	assert.Equal(t, id.SignPub, signPub)

	alice.BoxKey = "not base64!!"
	_, _, err = alice.Keys()
	assert.ErrorIs(t, err, contacts.ErrBadRecord)
}

func TestArmorRoundTrip(t *testing.T) {
	alice, _ := testContact(t, "Alice")
	bob, _ := testContact(t, "Bob")

	armored, err := contacts.Armor(alice, bob)
	require.NoError(t, err)
	assert.True(t, contacts.IsArmor(armored))
	assert.True(t, contacts.IsArmor("  "+armored+"\n"))

	list, err := contacts.Unarmor(armored)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, alice, list[0])
	assert.Equal(t, bob, list[1])
}

func TestUnarmorRejectsGarbage(t *testing.T) {
	assert.False(t, contacts.IsArmor("just some text"))

	_, err := contacts.Unarmor("just some text")
	assert.ErrorIs(t, err, contacts.ErrNotArmor)

	_, err = contacts.Unarmor(contacts.ArmorPrefix + "%%%not-base64%%%")
	assert.ErrorIs(t, err, contacts.ErrNotArmor)

	_, err = contacts.Unarmor(contacts.ArmorPrefix)
	assert.ErrorIs(t, err, contacts.ErrNotArmor)
}
