// Package local persists the trip document and the remembered join code on
// the device. It is the source of truth while the session is offline.
// Storage is an embedded Badger key/value store with two independent keys;
// each write overwrites its slot in a single transaction.
package local

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/pkordes/trip-planner/backend/internal/domain"
)

var (
	documentKey = []byte("trip/document")
	joinCodeKey = []byte("trip/code")
)

// Store is the Badger-backed local persistence adapter.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a store in dir. Badger's own log lines are routed
// through log at debug level and above.
func Open(dir string, log *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(newBadgerLogger(log))
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("local.Open: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens a store that lives only as long as the process.
// Intended for tests.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("local.OpenInMemory: %w", err)
	}
	return &Store{db: db}, nil
}

// Close flushes and releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadDocument returns the last saved document.
// Returns domain.ErrNotFound if nothing was ever saved; a corrupt value is
// returned as a decode error so the caller can fall back to an empty document.
func (s *Store) LoadDocument() (domain.TripDocument, error) {
	var doc domain.TripDocument
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(documentKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &doc); err != nil {
				return fmt.Errorf("decode: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return domain.TripDocument{}, fmt.Errorf("local.Store.LoadDocument: %w", mapErr(err))
	}
	doc.Normalize()
	return doc, nil
}

// SaveDocument overwrites the document slot.
func (s *Store) SaveDocument(doc domain.TripDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("local.Store.SaveDocument: encode: %w", err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(documentKey, data)
	}); err != nil {
		return fmt.Errorf("local.Store.SaveDocument: %w", err)
	}
	return nil
}

// LoadJoinCode returns the remembered join code, or domain.ErrNotFound.
func (s *Store) LoadJoinCode() (string, error) {
	var code string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(joinCodeKey)
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		code = string(val)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("local.Store.LoadJoinCode: %w", mapErr(err))
	}
	return code, nil
}

// SaveJoinCode remembers code for the next start.
func (s *Store) SaveJoinCode(code string) error {
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(joinCodeKey, []byte(code))
	}); err != nil {
		return fmt.Errorf("local.Store.SaveJoinCode: %w", err)
	}
	return nil
}

// ClearJoinCode forgets the remembered code. Clearing an absent code is not an error.
func (s *Store) ClearJoinCode() error {
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(joinCodeKey)
	}); err != nil {
		return fmt.Errorf("local.Store.ClearJoinCode: %w", err)
	}
	return nil
}

func mapErr(err error) error {
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.ErrNotFound
	}
	return err
}
