// Package envelope builds and opens the versioned binary blob that the
// stego codecs embed: version byte 0x01 is a peer-addressed encrypted
// message, 0x02 a signed broadcast. The version byte strictly selects
// the processing path; an encrypted blob never reaches signature
// verification and a signed blob never reaches decryption.
package envelope

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/box"
	"golang.org/x/crypto/nacl/sign"
)

const (
	// VersionEncrypted marks a blob encrypted for one recipient.
	VersionEncrypted = 0x01
	// VersionSigned marks an authenticated broadcast readable by anyone.
	VersionSigned = 0x02
)

const (
	keySize   = 32
	nonceSize = 24
)

var (
	ErrUnsupportedVersion = errors.New("envelope: unsupported version byte")
	ErrTruncated          = errors.New("envelope: blob too short")
	ErrDecryptFailed      = errors.New("envelope: decryption failed")
	ErrSignatureInvalid   = errors.New("envelope: signature verification failed")
)

// Identity holds one party's keypairs: an X25519 pair for box
// encryption and an Ed25519 pair for signing.
type Identity struct {
	BoxPub   *[32]byte
	BoxPriv  *[32]byte
	SignPub  *[32]byte
	SignPriv *[64]byte
}

// NewIdentity generates fresh keypairs.
func NewIdentity() (*Identity, error) {
	boxPub, boxPriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate box keypair: %w", err)
	}
	signPub, signPriv, err := sign.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate sign keypair: %w", err)
	}
	return &Identity{BoxPub: boxPub, BoxPriv: boxPriv, SignPub: signPub, SignPriv: signPriv}, nil
}

// Fingerprint derives the short hex identifier contacts are looked up
// by: the first 16 hex characters of SHA-256 over both public keys.
func Fingerprint(boxPub, signPub *[32]byte) string {
	h := sha256.New()
	h.Write(boxPub[:])
	h.Write(signPub[:])
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Fingerprint of this identity's public half.
func (id *Identity) Fingerprint() string {
	return Fingerprint(id.BoxPub, id.SignPub)
}

// BuildEncrypted seals plaintext for one recipient:
// 0x01 || sender box key (32) || nonce (24) || box ciphertext.
func BuildEncrypted(plaintext []byte, recipientBoxPub *[32]byte, sender *Identity) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	out := make([]byte, 0, 1+keySize+nonceSize+len(plaintext)+box.Overhead)
	out = append(out, VersionEncrypted)
	out = append(out, sender.BoxPub[:]...)
	out = append(out, nonce[:]...)
	return box.Seal(out, plaintext, &nonce, recipientBoxPub, sender.BoxPriv), nil
}

// BuildSigned authenticates plaintext for everyone:
// 0x02 || sender sign key (32) || signature+message.
func BuildSigned(plaintext []byte, sender *Identity) ([]byte, error) {
	out := make([]byte, 0, 1+keySize+sign.Overhead+len(plaintext))
	out = append(out, VersionSigned)
	out = append(out, sender.SignPub[:]...)
	return sign.Sign(out, plaintext, sender.SignPriv), nil
}

// Opened is the verified content of an envelope. Exactly one of
// SenderBoxKey/SenderSignKey is meaningful, depending on Broadcast.
type Opened struct {
	Plaintext     []byte
	Broadcast     bool
	SenderBoxKey  [32]byte
	SenderSignKey [32]byte
}

// Open inspects the version byte and dispatches to the single matching
// path. self is required for encrypted blobs and ignored for signed
// ones.
func Open(blob []byte, self *Identity) (*Opened, error) {
	if len(blob) == 0 {
		return nil, ErrTruncated
	}
	switch blob[0] {
	case VersionEncrypted:
		return openEncrypted(blob, self)
	case VersionSigned:
		return openSigned(blob)
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnsupportedVersion, blob[0])
	}
}

func openEncrypted(blob []byte, self *Identity) (*Opened, error) {
	if len(blob) < 1+keySize+nonceSize+box.Overhead {
		return nil, ErrTruncated
	}
	if self == nil || self.BoxPriv == nil {
		return nil, ErrDecryptFailed
	}
	var senderPub [keySize]byte
	var nonce [nonceSize]byte
	copy(senderPub[:], blob[1:1+keySize])
	copy(nonce[:], blob[1+keySize:1+keySize+nonceSize])

	plaintext, ok := box.Open(nil, blob[1+keySize+nonceSize:], &nonce, &senderPub, self.BoxPriv)
	if !ok {
		return nil, ErrDecryptFailed
	}
	return &Opened{Plaintext: plaintext, SenderBoxKey: senderPub}, nil
}

func openSigned(blob []byte) (*Opened, error) {
	if len(blob) < 1+keySize+sign.Overhead {
		return nil, ErrTruncated
	}
	var senderPub [keySize]byte
	copy(senderPub[:], blob[1:1+keySize])

	plaintext, ok := sign.Open(nil, blob[1+keySize:], &senderPub)
	if !ok {
		return nil, ErrSignatureInvalid
	}
	return &Opened{Plaintext: plaintext, Broadcast: true, SenderSignKey: senderPub}, nil
}
