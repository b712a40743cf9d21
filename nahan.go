// Package nahan hides encrypted or signed messages inside
// ordinary-looking text and images, and recovers them from untrusted
// clipboard content. This file is the main handle owning the identity,
// the contact directory, the message store and the clipboard analyzer.
package nahan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nahan-im/nahan/internal/contacts"
	"github.com/nahan-im/nahan/internal/msgstore"
	"github.com/nahan-im/nahan/internal/workerpool"
	"github.com/nahan-im/nahan/pkg/clipboard"
	"github.com/nahan-im/nahan/pkg/envelope"
	"github.com/nahan-im/nahan/pkg/header"
	"github.com/nahan-im/nahan/pkg/imagestego"
	"github.com/nahan-im/nahan/pkg/stego"
)

var (
	ErrNotStarted     = errors.New("nahan: not started")
	ErrClosed         = errors.New("nahan: closed")
	ErrUnknownContact = errors.New("nahan: contact not found")
)

// Config configures a Nahan instance.
type Config struct {
	// DataDir holds the identity file, the contact directory and the
	// message store.
	DataDir string
	// DisplayName is the name written on exported contact cards.
	DisplayName string
	// MinimumFreeGB is a free-space threshold for opening the message
	// store. Zero disables the check.
	MinimumFreeGB int
	// GCInterval is how often the message store's value log is
	// compacted. Zero means every ten minutes.
	GCInterval time.Duration
	// Clipboard is the clipboard source for Analyze. If nil, the system
	// clipboard is used.
	Clipboard clipboard.Reader
	// Logger is an optional structured logger. If nil, a stderr logger
	// is used.
	Logger *slog.Logger
}

func defaultLogger() *slog.Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(h)
}

// Nahan is the main handle. It owns the key material, the codec
// registry, and the lifecycle of the store and analyzer.
type Nahan struct {
	log    *slog.Logger
	config Config

	identity *envelope.Identity
	registry *stego.Registry
	pool     *workerpool.Pool

	contacts *contacts.Directory

	storeMu  sync.RWMutex
	store    *msgstore.Store
	analyzer *clipboard.Analyzer

	gcDone chan struct{}

	started   atomic.Bool
	startOnce sync.Once
	closeOnce sync.Once
}

// New constructs a handle. New does not touch the disk or start
// goroutines; call Start for that.
func New(conf Config) (*Nahan, error) {
	if conf.DataDir == "" {
		return nil, errors.New("nahan: Config.DataDir is required")
	}
	if conf.Logger == nil {
		conf.Logger = defaultLogger()
	}
	if conf.GCInterval <= 0 {
		conf.GCInterval = 10 * time.Minute
	}
	if conf.Clipboard == nil {
		conf.Clipboard = clipboard.SystemReader{}
	}
	return &Nahan{
		log:      conf.Logger,
		config:   conf,
		registry: stego.NewRegistry(),
	}, nil
}

// Start loads the identity and contacts, opens the message store, and
// arms the clipboard analyzer. Safe to call multiple times; only the
// first call has effect.
func (n *Nahan) Start(ctx context.Context) error {
	var startErr error
	n.startOnce.Do(func() {
		if err := os.MkdirAll(n.config.DataDir, 0o700); err != nil {
			startErr = fmt.Errorf("mkdir %s: %w", n.config.DataDir, err)
			return
		}

		id, err := loadOrCreateIdentity(filepath.Join(n.config.DataDir, "identity.yaml"))
		if err != nil {
			startErr = fmt.Errorf("init identity: %w", err)
			return
		}
		n.identity = id

		dir, err := contacts.Load(filepath.Join(n.config.DataDir, "contacts.yaml"))
		if err != nil {
			startErr = fmt.Errorf("init contacts: %w", err)
			return
		}
		n.contacts = dir

		store, err := msgstore.New(msgstore.StoreConfig{
			Path:          filepath.Join(n.config.DataDir, "messages"),
			MinimumFreeGB: n.config.MinimumFreeGB,
			Logger:        n.log,
		})
		if err != nil {
			startErr = fmt.Errorf("init message store: %w", err)
			return
		}
		n.storeMu.Lock()
		n.store = store
		n.storeMu.Unlock()

		analyzer, err := clipboard.NewAnalyzer(clipboard.Config{
			Reader:   n.config.Clipboard,
			Registry: n.registry,
			Identity: id,
			Contacts: dir,
			Store:    store,
			Logger:   n.log,
		})
		if err != nil {
			startErr = fmt.Errorf("init analyzer: %w", err)
			return
		}
		analyzer.Enable()
		n.analyzer = analyzer

		n.pool = workerpool.New(workerpool.Config{})

		n.gcDone = make(chan struct{})
		go n.gcLoop()

		n.started.Store(true)
		n.log.Info("nahan started", "path", n.config.DataDir, "fingerprint", id.Fingerprint())
	})
	return startErr
}

// Run starts the instance, blocks until ctx is canceled, then shuts
// down with a bounded deadline. A convenience for services.
func (n *Nahan) Run(ctx context.Context) error {
	if err := n.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return n.Close(shutdownCtx)
}

// Close disarms the analyzer and releases the store. Idempotent.
func (n *Nahan) Close(ctx context.Context) error {
	var closeErr error
	n.closeOnce.Do(func() {
		if n.gcDone != nil {
			close(n.gcDone)
		}
		if n.analyzer != nil {
			n.analyzer.Disable()
		}
		if n.pool != nil {
			n.pool.Close()
		}

		n.storeMu.Lock()
		store := n.store
		n.store = nil
		n.storeMu.Unlock()
		if store != nil {
			if err := store.Close(); err != nil {
				closeErr = errors.Join(closeErr, fmt.Errorf("close message store: %w", err))
			}
		}

		if n.contacts != nil {
			if err := n.contacts.Save(); err != nil {
				closeErr = errors.Join(closeErr, fmt.Errorf("save contacts: %w", err))
			}
		}

		n.log.Info("nahan closed")
	})
	return closeErr
}

func (n *Nahan) gcLoop() {
	ticker := time.NewTicker(n.config.GCInterval)
	defer ticker.Stop()
	for {
		select {
		case <-n.gcDone:
			return
		case <-ticker.C:
			store, err := n.storeHandle()
			if err != nil {
				return
			}
			if err := store.RunGC(); err != nil {
				n.log.Warn("message store gc failed", "error", err)
			}
		}
	}
}

func (n *Nahan) storeHandle() (*msgstore.Store, error) {
	if !n.started.Load() {
		return nil, ErrNotStarted
	}
	n.storeMu.RLock()
	store := n.store
	n.storeMu.RUnlock()
	if store == nil {
		return nil, ErrClosed
	}
	return store, nil
}

// Fingerprint returns the local identity's short hex identifier.
func (n *Nahan) Fingerprint() (string, error) {
	if !n.started.Load() {
		return "", ErrNotStarted
	}
	return n.identity.Fingerprint(), nil
}

// EncodeMessage encrypts plaintext for the contact with the given
// fingerprint and hides the envelope with the chosen codec.
func (n *Nahan) EncodeMessage(ctx context.Context, fingerprint string, plaintext []byte, algo header.Algorithm, cover string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !n.started.Load() {
		return "", ErrNotStarted
	}

	contact, err := n.contacts.ByFingerprint(fingerprint)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnknownContact, err)
	}
	boxPub, _, err := contact.Keys()
	if err != nil {
		return "", err
	}

	blob, err := envelope.BuildEncrypted(plaintext, boxPub, n.identity)
	if err != nil {
		return "", err
	}
	return n.encodePayload(blob, algo, cover)
}

// EncodeBroadcast signs plaintext with the local identity and hides the
// envelope with the chosen codec. Anyone holding the sender's contact
// card can verify it.
func (n *Nahan) EncodeBroadcast(ctx context.Context, plaintext []byte, algo header.Algorithm, cover string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !n.started.Load() {
		return "", ErrNotStarted
	}

	blob, err := envelope.BuildSigned(plaintext, n.identity)
	if err != nil {
		return "", err
	}
	return n.encodePayload(blob, algo, cover)
}

func (n *Nahan) encodePayload(blob []byte, algo header.Algorithm, cover string) (string, error) {
	provider, err := n.registry.Provider(algo)
	if err != nil {
		return "", err
	}
	return provider.Encode(blob, cover)
}

// EncodeImage encrypts plaintext for a contact and buries the envelope
// in the supplied PNG via the binary-safe text codec.
func (n *Nahan) EncodeImage(ctx context.Context, fingerprint string, plaintext []byte, coverPNG []byte) ([]byte, error) {
	encoded, err := n.EncodeMessage(ctx, fingerprint, plaintext, header.NH07, "")
	if err != nil {
		return nil, err
	}
	return imagestego.EmbedPNG(coverPNG, []byte(encoded))
}

// DecodeText extracts and opens a hidden message from text. An empty
// algorithm identifier auto-detects the codec the same way the
// clipboard analyzer does.
func (n *Nahan) DecodeText(ctx context.Context, text string, algo header.Algorithm) (*envelope.Opened, header.Algorithm, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if !n.started.Load() {
		return nil, "", ErrNotStarted
	}

	var provider stego.Provider
	if algo != "" {
		p, err := n.registry.Provider(algo)
		if err != nil {
			return nil, "", err
		}
		provider = p
	} else if p := n.registry.DetectProvider(text); p != nil {
		provider = p
	} else {
		for _, id := range []header.Algorithm{header.NH06, header.NH05, header.NH04} {
			p, err := n.registry.Provider(id)
			if err != nil {
				continue
			}
			if _, derr := p.Decode(text); derr == nil {
				provider = p
				break
			}
		}
		if provider == nil {
			return nil, "", stego.ErrNoPayload
		}
	}

	blob, err := provider.Decode(text)
	if err != nil {
		return nil, provider.Algorithm(), err
	}
	opened, err := envelope.Open(blob, n.identity)
	if err != nil {
		return nil, provider.Algorithm(), err
	}
	return opened, provider.Algorithm(), nil
}

// Analyze runs one clipboard analysis pass.
func (n *Nahan) Analyze(ctx context.Context) (clipboard.Result, error) {
	if err := ctx.Err(); err != nil {
		return clipboard.Result{}, err
	}
	if !n.started.Load() {
		return clipboard.Result{}, ErrNotStarted
	}
	return n.analyzer.Analyze()
}

// Analyzer exposes the detection state machine, mainly so callers can
// enable, disable or reset it around app lock.
func (n *Nahan) Analyzer() *clipboard.Analyzer {
	return n.analyzer
}

// ExportContact returns the local identity's shareable contact card.
func (n *Nahan) ExportContact() (string, error) {
	if !n.started.Load() {
		return "", ErrNotStarted
	}
	return contacts.Armor(contacts.FromIdentity(n.identity, n.config.DisplayName))
}

// ImportContacts parses a share string and merges its cards into the
// directory.
func (n *Nahan) ImportContacts(armored string) ([]contacts.Contact, error) {
	if !n.started.Load() {
		return nil, ErrNotStarted
	}
	cards, err := contacts.Unarmor(armored)
	if err != nil {
		return nil, err
	}
	for _, c := range cards {
		n.contacts.Add(c)
	}
	if err := n.contacts.Save(); err != nil {
		return nil, err
	}
	return cards, nil
}

// Contacts lists the known peers.
func (n *Nahan) Contacts() ([]contacts.Contact, error) {
	if !n.started.Load() {
		return nil, ErrNotStarted
	}
	return n.contacts.All(), nil
}

// Messages lists every stored message record.
func (n *Nahan) Messages() ([]msgstore.Record, error) {
	store, err := n.storeHandle()
	if err != nil {
		return nil, err
	}
	return store.All()
}

// CapacityReport computes, concurrently, how many payload bytes each
// codec could hide in the given cover text.
func (n *Nahan) CapacityReport(cover string) (map[header.Algorithm]int, error) {
	if !n.started.Load() {
		return nil, ErrNotStarted
	}

	type entry struct {
		id       header.Algorithm
		capacity int
	}

	providers := n.registry.Providers()
	room := n.pool.NewRoom(len(providers))
	for _, p := range providers {
		p := p
		room.Submit(func() interface{} {
			return entry{id: p.Algorithm(), capacity: p.Capacity(cover)}
		})
	}

	report := make(map[header.Algorithm]int, len(providers))
	for _, r := range room.Collect() {
		e := r.(entry)
		report[e.id] = e.capacity
	}
	return report, nil
}
