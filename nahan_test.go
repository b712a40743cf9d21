package nahan_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nahan "github.com/nahan-im/nahan"
	"github.com/nahan-im/nahan/pkg/clipboard"
	"github.com/nahan-im/nahan/pkg/header"
)

type fakeClipboard struct {
	text string
	img  []byte
}

func (f *fakeClipboard) ReadText() (string, error)  { return f.text, nil }
func (f *fakeClipboard) ReadImage() ([]byte, error) { return f.img, nil }

func startInstance(t *testing.T, name string, reader clipboard.Reader) *nahan.Nahan {
	t.Helper()
	n, err := nahan.New(nahan.Config{
		DataDir:     t.TempDir(),
		DisplayName: name,
		Clipboard:   reader,
	})
	require.NoError(t, err)
	require.NoError(t, n.Start(context.Background()))
	t.Cleanup(func() { _ = n.Close(context.Background()) })
	return n
}

func exchangeContacts(t *testing.T, a, b *nahan.Nahan) {
	t.Helper()
	cardA, err := a.ExportContact()
	require.NoError(t, err)
	cardB, err := b.ExportContact()
	require.NoError(t, err)
	_, err = a.ImportContacts(cardB)
	require.NoError(t, err)
	_, err = b.ImportContacts(cardA)
	require.NoError(t, err)
}

func TestEndToEndHybridPersian(t *testing.T) {
	ctx := context.Background()
	receiverClip := &fakeClipboard{}
	sender := startInstance(t, "Alice", &fakeClipboard{})
	receiver := startInstance(t, "Bob", receiverClip)
	exchangeContacts(t, sender, receiver)

	receiverFP, err := receiver.Fingerprint()
	require.NoError(t, err)

	cover := strings.TrimSpace(strings.Repeat("سلام دنیا ", 220))
	require.GreaterOrEqual(t, len(strings.Fields(cover)), 150)

	stegoText, err := sender.EncodeMessage(ctx, receiverFP, []byte("Hello there"), header.NH06, cover)
	require.NoError(t, err)
	require.NotEqual(t, cover, stegoText)

	receiverClip.text = stegoText
	res, err := receiver.Analyze(ctx)
	require.NoError(t, err)
	assert.Equal(t, clipboard.KindMessage, res.Kind)
	assert.Equal(t, []byte("Hello there"), res.Plaintext)
	assert.Equal(t, "Alice", res.SenderName)
	assert.False(t, res.Broadcast)
	assert.Equal(t, header.NH06, res.Algorithm)

	records, err := receiver.Messages()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Alice", records[0].Sender)
}

func TestDecodeTextAutoDetect(t *testing.T) {
	ctx := context.Background()
	sender := startInstance(t, "Alice", &fakeClipboard{})
	receiver := startInstance(t, "Bob", &fakeClipboard{})
	exchangeContacts(t, sender, receiver)

	receiverFP, err := receiver.Fingerprint()
	require.NoError(t, err)

	cover := strings.TrimSpace(strings.Repeat("quiet rivers carry stones ", 120))
	stegoText, err := sender.EncodeMessage(ctx, receiverFP, []byte("autodetect me"), header.NH02, cover)
	require.NoError(t, err)

	opened, algo, err := receiver.DecodeText(ctx, stegoText, "")
	require.NoError(t, err)
	assert.Equal(t, header.NH02, algo)
	assert.Equal(t, []byte("autodetect me"), opened.Plaintext)
}

func TestIdentityPersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()

	n, err := nahan.New(nahan.Config{DataDir: dir, DisplayName: "Alice"})
	require.NoError(t, err)
	require.NoError(t, n.Start(context.Background()))
	fp1, err := n.Fingerprint()
	require.NoError(t, err)
	require.NoError(t, n.Close(context.Background()))

	n2, err := nahan.New(nahan.Config{DataDir: dir, DisplayName: "Alice"})
	require.NoError(t, err)
	require.NoError(t, n2.Start(context.Background()))
	defer n2.Close(context.Background())

	fp2, err := n2.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
}

func TestContactsPersistAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	other := startInstance(t, "Carol", &fakeClipboard{})
	card, err := other.ExportContact()
	require.NoError(t, err)

	n, err := nahan.New(nahan.Config{DataDir: dir})
	require.NoError(t, err)
	require.NoError(t, n.Start(context.Background()))
	imported, err := n.ImportContacts(card)
	require.NoError(t, err)
	require.Len(t, imported, 1)
	require.NoError(t, n.Close(context.Background()))

	n2, err := nahan.New(nahan.Config{DataDir: dir})
	require.NoError(t, err)
	require.NoError(t, n2.Start(context.Background()))
	defer n2.Close(context.Background())

	list, err := n2.Contacts()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Carol", list[0].DisplayName)
}

func TestEncodeMessageUnknownContact(t *testing.T) {
	n := startInstance(t, "Alice", &fakeClipboard{})
	_, err := n.EncodeMessage(context.Background(), "deadbeefdeadbeef", []byte("hi"), header.NH02, "some cover text here")
	assert.ErrorIs(t, err, nahan.ErrUnknownContact)
}

func TestCapacityReport(t *testing.T) {
	n := startInstance(t, "Alice", &fakeClipboard{})

	cover := strings.TrimSpace(strings.Repeat("word after word ", 100))
	report, err := n.CapacityReport(cover)
	require.NoError(t, err)
	require.Len(t, report, 7)

	assert.Positive(t, report[header.NH02])
	assert.Positive(t, report[header.NH04])
	assert.Positive(t, report[header.NH03])
	assert.Positive(t, report[header.NH07])
	// Pure Latin text gets the homoglyph channel.
	assert.Positive(t, report[header.NH05])
}

func TestOperationsBeforeStart(t *testing.T) {
	n, err := nahan.New(nahan.Config{DataDir: t.TempDir()})
	require.NoError(t, err)

	_, err = n.Fingerprint()
	assert.ErrorIs(t, err, nahan.ErrNotStarted)
	_, err = n.ExportContact()
	assert.ErrorIs(t, err, nahan.ErrNotStarted)
	_, err = n.Messages()
	assert.ErrorIs(t, err, nahan.ErrNotStarted)
}
