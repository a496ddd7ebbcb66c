package eav

import (
	"fmt"
	"sync"

	"github.com/dgraph-io/badger"
	"github.com/mosaicnetworks/sourcechain/src/cas"
	cm "github.com/mosaicnetworks/sourcechain/src/common"
	"github.com/sirupsen/logrus"
)

const (
	eavPrefix    = "eav"
	entityPrefix = "eave"
)

// BadgerStore persists triples in a Badger database, keyed by index so that
// iteration returns them in time order. Each triple is written a second time
// under its entity so that queries on known entities only read their own
// triples.
type BadgerStore struct {
	sync.Mutex
	db   *badger.DB
	path string
}

// NewBadgerStore opens an existing database or creates a new one if nothing is
// found in path.
func NewBadgerStore(path string, logger *logrus.Entry) (*BadgerStore, error) {
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

	return &BadgerStore{
		db:   handle,
		path: path,
	}, nil
}

func eaviKey(index int64) []byte {
	return []byte(fmt.Sprintf("%s_%020d", eavPrefix, index))
}

func entityKeyPrefix(entity cas.Address) []byte {
	return []byte(fmt.Sprintf("%s_%s_", entityPrefix, entity))
}

func entityKey(entity cas.Address, index int64) []byte {
	return append(entityKeyPrefix(entity), fmt.Sprintf("%020d", index)...)
}

// Add implements the Store interface. Writes are serialized so that two
// triples never claim the same index.
func (s *BadgerStore) Add(e EAVI) (EAVI, error) {
	s.Lock()
	defer s.Unlock()

	tx := s.db.NewTransaction(true)
	defer tx.Discard()

	for {
		_, err := tx.Get(eaviKey(e.Index))
		if isDBKeyNotFound(err) {
			break
		}
		if err != nil {
			return e, cm.WrapCoreErr(cm.IoError, string(e.Entity), err)
		}
		e.Index++
	}

	val, err := cas.Marshal(e)
	if err != nil {
		return e, err
	}

	if err := tx.Set(eaviKey(e.Index), val); err != nil {
		return e, cm.WrapCoreErr(cm.IoError, string(e.Entity), err)
	}
	if err := tx.Set(entityKey(e.Entity, e.Index), val); err != nil {
		return e, cm.WrapCoreErr(cm.IoError, string(e.Entity), err)
	}

	if err := tx.Commit(); err != nil {
		return e, cm.WrapCoreErr(cm.IoError, string(e.Entity), err)
	}

	return e, nil
}

// Fetch implements the Store interface. A query on entities seeks to each
// entity's keys, any other query scans every triple.
func (s *BadgerStore) Fetch(q Query) ([]EAVI, error) {
	prefixes := [][]byte{}
	if len(q.Entities) == 0 {
		prefixes = append(prefixes, []byte(eavPrefix+"_"))
	} else {
		seen := make(map[cas.Address]bool, len(q.Entities))
		for _, entity := range q.Entities {
			if !seen[entity] {
				seen[entity] = true
				prefixes = append(prefixes, entityKeyPrefix(entity))
			}
		}
	}

	all := []EAVI{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for _, prefix := range prefixes {
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				val, err := it.Item().ValueCopy(nil)
				if err != nil {
					return err
				}
				var e EAVI
				if err := cas.Unmarshal(val, &e); err != nil {
					return err
				}
				//an entity whose address extends another one shares its prefix
				if q.Matches(e) {
					all = append(all, e)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return q.Run(all), nil
}

// Close implements the Store interface.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func isDBKeyNotFound(err error) bool {
	return err != nil && err.Error() == badger.ErrKeyNotFound.Error()
}
