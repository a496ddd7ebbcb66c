package eav

import (
	"sync"
)

// InmemStore implements the Store interface in memory.
type InmemStore struct {
	sync.RWMutex
	eavis   []EAVI
	indexes map[int64]bool
}

// NewInmemStore ...
func NewInmemStore() *InmemStore {
	return &InmemStore{
		indexes: make(map[int64]bool),
	}
}

// Add implements the Store interface.
func (s *InmemStore) Add(e EAVI) (EAVI, error) {
	s.Lock()
	defer s.Unlock()

	for s.indexes[e.Index] {
		e.Index++
	}
	s.indexes[e.Index] = true
	s.eavis = append(s.eavis, e)

	return e, nil
}

// Fetch implements the Store interface.
func (s *InmemStore) Fetch(q Query) ([]EAVI, error) {
	s.RLock()
	defer s.RUnlock()
	return q.Run(s.eavis), nil
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	return nil
}
