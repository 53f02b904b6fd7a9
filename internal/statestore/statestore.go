// Package statestore persists versioned contract snapshots in Badger.
// Each mutation on the hosted contract produces a new version; the host
// restores the latest version at startup.
package statestore

import (
	"encoding/binary"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

const (
	snapshotPrefix = "snapshot/"
	latestKey      = "latest"
)

// Store is a small versioned snapshot store backed by Badger.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open badger")
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func snapshotKey(version uint64) []byte {
	return []byte(fmt.Sprintf("%s%016d", snapshotPrefix, version))
}

// Save writes data as the next snapshot version and returns that version.
func (s *Store) Save(data []byte) (uint64, error) {
	var version uint64
	err := s.db.Update(func(txn *badger.Txn) error {
		version = 1
		item, err := txn.Get([]byte(latestKey))
		if err == nil {
			if err := item.Value(func(val []byte) error {
				if len(val) == 8 {
					version = binary.BigEndian.Uint64(val) + 1
				}
				return nil
			}); err != nil {
				return err
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := txn.Set(snapshotKey(version), data); err != nil {
			return err
		}
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], version)
		return txn.Set([]byte(latestKey), buf[:])
	})
	if err != nil {
		return 0, errors.Wrap(err, "save snapshot")
	}
	return version, nil
}

// Latest returns the most recent snapshot version and its payload.
// Returns (0, nil, nil) when the store is empty.
func (s *Store) Latest() (uint64, []byte, error) {
	var (
		version uint64
		data    []byte
	)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(latestKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			if len(val) != 8 {
				return errors.New("corrupt latest pointer")
			}
			version = binary.BigEndian.Uint64(val)
			return nil
		}); err != nil {
			return err
		}

		snap, err := txn.Get(snapshotKey(version))
		if err != nil {
			return err
		}
		data, err = snap.ValueCopy(nil)
		return err
	})
	if err != nil {
		return 0, nil, errors.Wrap(err, "load latest snapshot")
	}
	return version, data, nil
}

// Get returns the payload of a specific snapshot version.
func (s *Store) Get(version uint64) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(version))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.Errorf("snapshot version %d not found", version)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get snapshot")
	}
	return data, nil
}
