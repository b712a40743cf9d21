package nahan

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/nahan-im/nahan/pkg/envelope"
)

// identityFile is the on-disk shape of the local key pair. Private keys
// never leave this file; contact cards carry only the public halves.
type identityFile struct {
	BoxPub   string `yaml:"box_pub"`
	BoxPriv  string `yaml:"box_priv"`
	SignPub  string `yaml:"sign_pub"`
	SignPriv string `yaml:"sign_priv"`
}

// loadOrCreateIdentity reads the identity at path, generating and
// persisting a fresh one when the file does not exist yet.
func loadOrCreateIdentity(path string) (*envelope.Identity, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		id, err := envelope.NewIdentity()
		if err != nil {
			return nil, fmt.Errorf("generate identity: %w", err)
		}
		if err := saveIdentity(path, id); err != nil {
			return nil, err
		}
		return id, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read identity file: %w", err)
	}

	var f identityFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse identity file: %w", err)
	}

	id := &envelope.Identity{
		BoxPub:   new([32]byte),
		BoxPriv:  new([32]byte),
		SignPub:  new([32]byte),
		SignPriv: new([64]byte),
	}
	for _, part := range []struct {
		enc string
		dst []byte
	}{
		{f.BoxPub, id.BoxPub[:]},
		{f.BoxPriv, id.BoxPriv[:]},
		{f.SignPub, id.SignPub[:]},
		{f.SignPriv, id.SignPriv[:]},
	} {
		raw, err := base64.StdEncoding.DecodeString(part.enc)
		if err != nil {
			return nil, fmt.Errorf("decode identity key: %w", err)
		}
		if len(raw) != len(part.dst) {
			return nil, fmt.Errorf("identity key is %d bytes, want %d", len(raw), len(part.dst))
		}
		copy(part.dst, raw)
	}
	return id, nil
}

func saveIdentity(path string, id *envelope.Identity) error {
	raw, err := yaml.Marshal(identityFile{
		BoxPub:   base64.StdEncoding.EncodeToString(id.BoxPub[:]),
		BoxPriv:  base64.StdEncoding.EncodeToString(id.BoxPriv[:]),
		SignPub:  base64.StdEncoding.EncodeToString(id.SignPub[:]),
		SignPriv: base64.StdEncoding.EncodeToString(id.SignPriv[:]),
	})
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("write identity file: %w", err)
	}
	return nil
}
