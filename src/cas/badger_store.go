package cas

import (
	"bytes"
	"fmt"

	"github.com/dgraph-io/badger"
	lru "github.com/hashicorp/golang-lru"
	cm "github.com/mosaicnetworks/sourcechain/src/common"
	"github.com/sirupsen/logrus"
)

const casPrefix = "cas"

// BadgerStore persists content in a Badger database with an LRU cache in
// front of it for reads.
type BadgerStore struct {
	db    *badger.DB
	cache *lru.Cache
	path  string
}

// NewBadgerStore opens an existing database or creates a new one if nothing is
// found in path.
func NewBadgerStore(cacheSize int, path string, logger *logrus.Entry) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).
		WithSyncWrites(false).
		WithTruncate(true)

	if logger != nil {
		opts = opts.WithLogger(logger.WithFields(logrus.Fields{"ns": "badger"}))
	}

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, cm.WrapCoreErr(cm.IoError, "", err)
	}

	cache, err := lru.New(cacheSize)
	if err != nil {
		handle.Close()
		return nil, err
	}

	return &BadgerStore{
		db:    handle,
		cache: cache,
		path:  path,
	}, nil
}

func contentKey(address Address) []byte {
	return []byte(fmt.Sprintf("%s_%s", casPrefix, address))
}

// Add implements the Store interface.
func (s *BadgerStore) Add(a Addressable) error {
	content, err := a.Content()
	if err != nil {
		return err
	}
	address := a.Address()

	tx := s.db.NewTransaction(true)
	defer tx.Discard()

	item, err := tx.Get(contentKey(address))
	switch {
	case err == nil:
		existing, err := item.ValueCopy(nil)
		if err != nil {
			return cm.WrapCoreErr(cm.IoError, string(address), err)
		}
		if bytes.Equal(existing, content) {
			return nil
		}
		return cm.NewStoreErr("CAS", cm.KeyAlreadyExists, string(address))
	case !isDBKeyNotFound(err):
		return cm.WrapCoreErr(cm.IoError, string(address), err)
	}

	if err := tx.Set(contentKey(address), content); err != nil {
		return cm.WrapCoreErr(cm.IoError, string(address), err)
	}
	if err := tx.Commit(); err != nil {
		return cm.WrapCoreErr(cm.IoError, string(address), err)
	}

	s.cache.Add(address, content)

	return nil
}

// Contains implements the Store interface.
func (s *BadgerStore) Contains(address Address) (bool, error) {
	if s.cache.Contains(address) {
		return true, nil
	}
	_, err := s.Fetch(address)
	if err != nil {
		if cm.IsStore(err, cm.KeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Fetch implements the Store interface.
func (s *BadgerStore) Fetch(address Address) (Content, error) {
	if c, ok := s.cache.Get(address); ok {
		return c.(Content), nil
	}

	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(contentKey(address))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, mapError(err, "CAS", string(address))
	}

	s.cache.Add(address, Content(val))

	return Content(val), nil
}

// Close implements the Store interface.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// StorePath returns the directory of the database files.
func (s *BadgerStore) StorePath() string {
	return s.path
}

func isDBKeyNotFound(err error) bool {
	return err != nil && err.Error() == badger.ErrKeyNotFound.Error()
}

func mapError(err error, name, key string) error {
	if err != nil {
		if isDBKeyNotFound(err) {
			return cm.NewStoreErr(name, cm.KeyNotFound, key)
		}
		return cm.WrapCoreErr(cm.IoError, key, err)
	}
	return err
}
