package cas

import (
	"bytes"
	"sync"

	cm "github.com/mosaicnetworks/sourcechain/src/common"
)

// InmemStore implements the Store interface with a map. Nothing is ever
// evicted.
type InmemStore struct {
	sync.RWMutex
	contents map[Address]Content
}

// NewInmemStore ...
func NewInmemStore() *InmemStore {
	return &InmemStore{
		contents: make(map[Address]Content),
	}
}

// Add implements the Store interface.
func (s *InmemStore) Add(a Addressable) error {
	content, err := a.Content()
	if err != nil {
		return err
	}
	address := a.Address()

	s.Lock()
	defer s.Unlock()

	if existing, ok := s.contents[address]; ok {
		if bytes.Equal(existing, content) {
			return nil
		}
		return cm.NewStoreErr("CAS", cm.KeyAlreadyExists, string(address))
	}

	c := make(Content, len(content))
	copy(c, content)
	s.contents[address] = c

	return nil
}

// Contains implements the Store interface.
func (s *InmemStore) Contains(address Address) (bool, error) {
	s.RLock()
	defer s.RUnlock()
	_, ok := s.contents[address]
	return ok, nil
}

// Fetch implements the Store interface.
func (s *InmemStore) Fetch(address Address) (Content, error) {
	s.RLock()
	defer s.RUnlock()
	c, ok := s.contents[address]
	if !ok {
		return nil, cm.NewStoreErr("CAS", cm.KeyNotFound, string(address))
	}
	return c, nil
}

// Len returns the number of stored items.
func (s *InmemStore) Len() int {
	s.RLock()
	defer s.RUnlock()
	return len(s.contents)
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	return nil
}
