package clipboard

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/nahan-im/nahan/internal/contacts"
	"github.com/nahan-im/nahan/internal/msgstore"
	"github.com/nahan-im/nahan/pkg/envelope"
	"github.com/nahan-im/nahan/pkg/header"
	"github.com/nahan-im/nahan/pkg/imagestego"
	"github.com/nahan-im/nahan/pkg/stego"
)

var (
	// ErrSenderUnknown marks a cryptographically valid message whose
	// sender key matches no contact. The caller can prompt for a manual
	// import and trigger again.
	ErrSenderUnknown = errors.New("clipboard: sender not in contact directory")
	// ErrDuplicateMessage marks content that was already imported. It is
	// meant to be suppressed, not shown.
	ErrDuplicateMessage = errors.New("clipboard: message already imported")
)

// Kind tags what one analysis pass found.
type Kind int

const (
	KindNone Kind = iota
	KindMessage
	KindContact
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindContact:
		return "contact"
	default:
		return "none"
	}
}

// Source says which clipboard medium carried the payload.
type Source string

const (
	SourceText  Source = "text"
	SourceImage Source = "image"
)

// Result is the outcome of one completed analysis pass.
type Result struct {
	Kind              Kind
	Plaintext         []byte
	SenderName        string
	SenderFingerprint string
	Broadcast         bool
	Algorithm         header.Algorithm
	Source            Source
	// Contacts holds the cards of a contact-introduction payload.
	Contacts []contacts.Contact
	// Recovered is set when the carrier was damaged and lenient decode
	// repaired it; worth a warning in the UI.
	Recovered bool
}

// Config wires an Analyzer to its collaborators.
type Config struct {
	Reader   Reader
	Registry *stego.Registry
	Identity *envelope.Identity
	Contacts *contacts.Directory
	Store    *msgstore.Store
	Logger   *slog.Logger
	// Focused reports whether the application currently has input
	// focus; the clipboard is never read in the background. Nil means
	// always focused.
	Focused func() bool
}

// Analyzer is the detection state machine. One analysis runs at a time;
// triggers arriving while a pass is in flight are dropped, not queued.
type Analyzer struct {
	cfg Config
	log *slog.Logger

	enabled atomic.Bool
	busy    atomic.Bool

	memoMu    sync.Mutex
	lastText  string
	haveText  bool
	lastImage uint64
	haveImage bool
}

// NewAnalyzer validates the wiring and returns a disabled analyzer.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if cfg.Reader == nil {
		return nil, errors.New("clipboard: Config.Reader is required")
	}
	if cfg.Registry == nil {
		cfg.Registry = stego.Default()
	}
	if cfg.Contacts == nil {
		return nil, errors.New("clipboard: Config.Contacts is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("clipboard: Config.Store is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Analyzer{cfg: cfg, log: cfg.Logger}, nil
}

// Enable arms the analyzer. A fresh Enable after Disable starts with an
// empty memo, so the next trigger always does a real pass.
func (a *Analyzer) Enable() { a.enabled.Store(true) }

// Disable disarms the analyzer and clears the memo, e.g. on app lock.
func (a *Analyzer) Disable() {
	a.enabled.Store(false)
	a.Reset()
}

// Enabled reports whether triggers are currently honored.
func (a *Analyzer) Enabled() bool { return a.enabled.Load() }

// Reset forgets the last seen text and image.
func (a *Analyzer) Reset() {
	a.memoMu.Lock()
	defer a.memoMu.Unlock()
	a.lastText = ""
	a.haveText = false
	a.lastImage = 0
	a.haveImage = false
}

// Analyze runs one pass: read clipboard, detect, decode, classify. It
// is the entry point for focus and visibility triggers. A pass that
// finds nothing actionable returns a KindNone result and no error.
func (a *Analyzer) Analyze() (Result, error) {
	if !a.enabled.Load() {
		return Result{}, nil
	}
	if !a.busy.CompareAndSwap(false, true) {
		a.log.Debug("analysis already in flight, trigger dropped")
		return Result{}, nil
	}
	defer a.busy.Store(false)

	if a.cfg.Focused != nil && !a.cfg.Focused() {
		return Result{}, nil
	}

	text, err := a.cfg.Reader.ReadText()
	if err != nil {
		// Permission denials are uninformative; stay quiet.
		a.log.Debug("clipboard text read failed", "error", err)
		return Result{}, nil
	}

	if text != "" {
		if a.seenText(text) {
			return Result{}, nil
		}
		res, handled, err := a.classifyText(text)
		if handled {
			a.finishText(text, err)
			return res, err
		}
		// Ordinary text. Remember it so we do not re-classify the same
		// paste on every focus event.
		a.rememberText(text)
	}

	return a.analyzeImage()
}

// finishText applies the memo policy after a text classification: keep
// the memo on success and on duplicates (suppression), drop it on other
// failures so the next trigger retries.
func (a *Analyzer) finishText(text string, err error) {
	if err == nil || errors.Is(err, ErrDuplicateMessage) {
		a.rememberText(text)
	}
}

// classifyText tries the recognized text formats in fixed order:
// zero-width carrier, other auto-detectable codecs, literal contact
// armor, then base64-encoded raw envelope. handled is false only when
// the text matches none of them.
func (a *Analyzer) classifyText(text string) (res Result, handled bool, err error) {
	if stego.ContainsZeroWidth(text) {
		payload, recovered, derr := a.decodeZeroWidth(text)
		if derr != nil {
			return Result{}, true, derr
		}
		res, err = a.openPayload(payload, header.NH02, SourceText)
		res.Recovered = recovered
		return res, true, err
	}

	if p := a.cfg.Registry.DetectProvider(text); p != nil {
		payload, derr := p.Decode(text)
		if derr != nil {
			return Result{}, true, fmt.Errorf("decode %s carrier: %w", p.Algorithm(), derr)
		}
		res, err = a.openPayload(payload, p.Algorithm(), SourceText)
		return res, true, err
	}

	if contacts.IsArmor(text) {
		cards, derr := contacts.Unarmor(text)
		if derr != nil {
			return Result{}, true, derr
		}
		return Result{Kind: KindContact, Source: SourceText, Contacts: cards}, true, nil
	}

	if blob, ok := rawEnvelope(text); ok {
		res, err = a.openPayload(blob, "", SourceText)
		return res, true, err
	}

	// Last resort: the cover-text codecs whose output looks like plain
	// prose. Their magic header keeps a wrong decoder from ever
	// "succeeding" on ordinary text, so a clean decode is trustworthy.
	for _, id := range []header.Algorithm{header.NH06, header.NH05, header.NH04} {
		p, perr := a.cfg.Registry.Provider(id)
		if perr != nil {
			continue
		}
		payload, derr := p.Decode(text)
		if derr != nil {
			continue
		}
		res, err = a.openPayload(payload, id, SourceText)
		return res, true, err
	}

	return Result{}, false, nil
}

// decodeZeroWidth runs the strict decode and falls back to lenient
// repair when the carrier lost characters in transit.
func (a *Analyzer) decodeZeroWidth(text string) (payload []byte, recovered bool, err error) {
	zw, err := a.cfg.Registry.Provider(header.NH02)
	if err != nil {
		return nil, false, err
	}
	codec, ok := zw.(*stego.ZeroWidthCodec)
	if !ok {
		payload, err = zw.Decode(text)
		return payload, false, err
	}

	payload, err = codec.DecodeMode(text, stego.Strict)
	if err == nil {
		return payload, false, nil
	}
	payload, lerr := codec.DecodeMode(text, stego.Lenient)
	if lerr != nil {
		return nil, false, err
	}
	a.log.Warn("zero-width carrier was damaged, payload recovered leniently")
	return payload, true, nil
}

// rawEnvelope accepts base64 text that decodes to a blob starting with
// a known envelope version byte.
func rawEnvelope(text string) ([]byte, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || len(trimmed) > 16<<20 {
		return nil, false
	}
	blob, err := base64.StdEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, false
	}
	if len(blob) == 0 || (blob[0] != envelope.VersionEncrypted && blob[0] != envelope.VersionSigned) {
		return nil, false
	}
	return blob, true
}

// openPayload opens an extracted envelope, checks for duplicates,
// resolves the sender, and stores the record.
func (a *Analyzer) openPayload(blob []byte, algo header.Algorithm, source Source) (Result, error) {
	seen, err := a.cfg.Store.Seen(blob)
	if err != nil {
		return Result{}, fmt.Errorf("duplicate lookup: %w", err)
	}
	if seen {
		return Result{}, ErrDuplicateMessage
	}

	opened, err := envelope.Open(blob, a.cfg.Identity)
	if err != nil {
		return Result{}, fmt.Errorf("open envelope: %w", err)
	}

	var contact contacts.Contact
	if opened.Broadcast {
		contact, err = a.cfg.Contacts.BySignKey(opened.SenderSignKey)
	} else {
		contact, err = a.cfg.Contacts.ByBoxKey(opened.SenderBoxKey)
	}
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSenderUnknown, err)
	}

	err = a.cfg.Store.Save(blob, msgstore.Record{
		Sender:    contact.DisplayName,
		Algorithm: string(algo),
		Broadcast: opened.Broadcast,
		Plaintext: opened.Plaintext,
	})
	if err != nil {
		return Result{}, fmt.Errorf("store message: %w", err)
	}

	a.log.Info("message received",
		"sender", contact.DisplayName,
		"broadcast", opened.Broadcast,
		"algorithm", string(algo),
		"source", string(source))

	return Result{
		Kind:              KindMessage,
		Plaintext:         opened.Plaintext,
		SenderName:        contact.DisplayName,
		SenderFingerprint: contact.Fingerprint,
		Broadcast:         opened.Broadcast,
		Algorithm:         algo,
		Source:            source,
	}, nil
}

// analyzeImage is the fallback path when the clipboard text yields
// nothing. Unreadable images are memoized immediately so a broken
// screenshot is not retried on every focus event.
func (a *Analyzer) analyzeImage() (Result, error) {
	img, err := a.cfg.Reader.ReadImage()
	if err != nil {
		a.log.Debug("clipboard image read failed", "error", err)
		return Result{}, nil
	}
	if len(img) == 0 {
		return Result{}, nil
	}

	hash := imageHash(img)
	if a.seenImage(hash) {
		return Result{}, nil
	}
	a.rememberImage(hash)

	data, err := imagestego.ExtractPNG(img)
	if err != nil {
		a.log.Debug("clipboard image carries no payload", "error", err)
		return Result{}, nil
	}

	algo := header.Algorithm("")
	if p, perr := a.cfg.Registry.Provider(header.NH07); perr == nil {
		if decoded, derr := p.Decode(string(data)); derr == nil {
			data = decoded
			algo = header.NH07
		}
	}

	return a.openPayload(data, algo, SourceImage)
}

// imageHash is a cheap change-detection hash: content length plus a
// window of bytes from each end. Not cryptographic.
func imageHash(data []byte) uint64 {
	const window = 256
	h := xxhash.New()
	var lenBuf [8]byte
	for i, n := 7, uint64(len(data)); i >= 0; i-- {
		lenBuf[i] = byte(n)
		n >>= 8
	}
	_, _ = h.Write(lenBuf[:])
	if len(data) <= 2*window {
		_, _ = h.Write(data)
	} else {
		_, _ = h.Write(data[:window])
		_, _ = h.Write(data[len(data)-window:])
	}
	return h.Sum64()
}

func (a *Analyzer) seenText(text string) bool {
	a.memoMu.Lock()
	defer a.memoMu.Unlock()
	return a.haveText && a.lastText == text
}

func (a *Analyzer) rememberText(text string) {
	a.memoMu.Lock()
	defer a.memoMu.Unlock()
	a.lastText = text
	a.haveText = true
}

func (a *Analyzer) seenImage(hash uint64) bool {
	a.memoMu.Lock()
	defer a.memoMu.Unlock()
	return a.haveImage && a.lastImage == hash
}

func (a *Analyzer) rememberImage(hash uint64) {
	a.memoMu.Lock()
	defer a.memoMu.Unlock()
	a.lastImage = hash
	a.haveImage = true
}
