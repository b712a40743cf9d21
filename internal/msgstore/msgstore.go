// Package msgstore persists decoded messages in a Badger key-value
// store and answers duplicate queries, so that the same ciphertext seen
// twice on the clipboard is surfaced only once.
package msgstore

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
)

var ErrClosed = errors.New("msgstore: store is closed")

const recordKeyPrefix = "msg:"

// Record is one received message. The ciphertext itself is not stored,
// only its hash; the plaintext is what the user wants back.
type Record struct {
	ContentHash string    `json:"content_hash"`
	Sender      string    `json:"sender"`
	Algorithm   string    `json:"algorithm"`
	Broadcast   bool      `json:"broadcast,omitempty"`
	Plaintext   []byte    `json:"plaintext"`
	ReceivedAt  time.Time `json:"received_at"`
}

// Store wraps a Badger database holding message records keyed by
// ciphertext hash.
type Store struct {
	config StoreConfig
	db     *badger.DB
	log    *slog.Logger
}

// New opens (or creates) the store at config.Path.
func New(config StoreConfig) (*Store, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if err := config.check(); err != nil {
		return nil, fmt.Errorf("message store config: %w", err)
	}

	opts := badger.DefaultOptions(config.Path)
	opts.Logger = nil
	opts.ValueLogFileSize = 1024 * 1024 * 100
	opts.SyncWrites = false

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open message store: %w", err)
	}

	return &Store{config: config, db: db, log: config.Logger}, nil
}

// ContentKey derives the deduplication key for a ciphertext.
func ContentKey(ciphertext []byte) string {
	sum := xxhash.Sum64(ciphertext)
	var b [8]byte
	for i := 7; i >= 0; i-- {
		b[i] = byte(sum)
		sum >>= 8
	}
	return hex.EncodeToString(b[:])
}

// Save writes a record for the given ciphertext. The record's
// ContentHash field is filled in.
func (s *Store) Save(ciphertext []byte, rec Record) error {
	rec.ContentHash = ContentKey(ciphertext)
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now().UTC()
	}

	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal message record: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(recordKeyPrefix+rec.ContentHash), value)
	})
	if err != nil {
		return fmt.Errorf("write message record: %w", err)
	}
	s.log.Debug("stored message", "hash", rec.ContentHash, "sender", rec.Sender)
	return nil
}

// Seen reports whether a record for this ciphertext already exists.
func (s *Store) Seen(ciphertext []byte) (bool, error) {
	key := []byte(recordKeyPrefix + ContentKey(ciphertext))
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check message record: %w", err)
	}
	return true, nil
}

// Get fetches the stored record for a ciphertext, if any.
func (s *Store) Get(ciphertext []byte) (Record, bool, error) {
	key := []byte(recordKeyPrefix + ContentKey(ciphertext))
	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("read message record: %w", err)
	}
	return rec, true, nil
}

// All returns every stored record, newest data at Badger's whim; the
// caller sorts if order matters.
func (s *Store) All() ([]Record, error) {
	var out []Record
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(recordKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list message records: %w", err)
	}
	return out, nil
}

// RunGC triggers one round of Badger value log garbage collection.
// Badger returns ErrNoRewrite when there is nothing to collect; that is
// not an error for us.
func (s *Store) RunGC() error {
	err := s.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
