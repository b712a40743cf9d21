// Package contacts keeps the directory of known peers: fingerprint,
// public keys and a display name, persisted as a YAML file next to the
// data directory.
package contacts

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v2"

	"github.com/nahan-im/nahan/pkg/envelope"
)

var (
	ErrNotFound  = errors.New("contacts: no matching contact")
	ErrBadRecord = errors.New("contacts: malformed contact record")
)

// Contact is one known peer. Keys are stored base64-encoded so the file
// stays hand-editable.
type Contact struct {
	Fingerprint string `yaml:"fingerprint"`
	DisplayName string `yaml:"name"`
	BoxKey      string `yaml:"box_key"`
	SignKey     string `yaml:"sign_key"`
}

// Keys decodes the contact's public keys.
func (c Contact) Keys() (boxPub, signPub *[32]byte, err error) {
	b, err := decodeKey(c.BoxKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: box key: %v", ErrBadRecord, err)
	}
	s, err := decodeKey(c.SignKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: sign key: %v", ErrBadRecord, err)
	}
	return b, s, nil
}

func decodeKey(enc string) (*[32]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, err
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("key is %d bytes, want 32", len(raw))
	}
	var k [32]byte
	copy(k[:], raw)
	return &k, nil
}

// FromIdentity builds the shareable contact card for one's own keys.
func FromIdentity(id *envelope.Identity, name string) Contact {
	return Contact{
		Fingerprint: id.Fingerprint(),
		DisplayName: name,
		BoxKey:      base64.StdEncoding.EncodeToString(id.BoxPub[:]),
		SignKey:     base64.StdEncoding.EncodeToString(id.SignPub[:]),
	}
}

// Directory is the in-memory contact list with file persistence. Reads
// vastly outnumber writes; a single mutex is plenty.
type Directory struct {
	mu   sync.RWMutex
	path string
	list []Contact
}

// Load reads the directory file at path, which may not exist yet.
func Load(path string) (*Directory, error) {
	d := &Directory{path: path}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read contacts file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &d.list); err != nil {
		return nil, fmt.Errorf("parse contacts file: %w", err)
	}
	return d, nil
}

// Save writes the directory back to its file.
func (d *Directory) Save() error {
	d.mu.RLock()
	raw, err := yaml.Marshal(d.list)
	d.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal contacts: %w", err)
	}
	return os.WriteFile(d.path, raw, 0o600)
}

// Add inserts or replaces a contact, keyed by fingerprint.
func (d *Directory) Add(c Contact) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.list {
		if d.list[i].Fingerprint == c.Fingerprint {
			d.list[i] = c
			return
		}
	}
	d.list = append(d.list, c)
}

// All returns a copy of the directory.
func (d *Directory) All() []Contact {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Contact, len(d.list))
	copy(out, d.list)
	return out
}

// ByFingerprint looks a contact up by its short hex identifier.
func (d *Directory) ByFingerprint(fp string) (Contact, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.list {
		if c.Fingerprint == fp {
			return c, nil
		}
	}
	return Contact{}, fmt.Errorf("%w: fingerprint %s", ErrNotFound, fp)
}

// ByBoxKey finds the contact owning an embedded sender encryption key.
func (d *Directory) ByBoxKey(key [32]byte) (Contact, error) {
	return d.byKey(key, func(c Contact) string { return c.BoxKey })
}

// BySignKey finds the contact owning an embedded sender signing key.
func (d *Directory) BySignKey(key [32]byte) (Contact, error) {
	return d.byKey(key, func(c Contact) string { return c.SignKey })
}

func (d *Directory) byKey(key [32]byte, pick func(Contact) string) (Contact, error) {
	want := base64.StdEncoding.EncodeToString(key[:])
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.list {
		if pick(c) == want {
			return c, nil
		}
	}
	return Contact{}, fmt.Errorf("%w: sender key %s", ErrNotFound, want[:8])
}
