package chain

import (
	"fmt"

	"github.com/mosaicnetworks/sourcechain/src/cas"
	cm "github.com/mosaicnetworks/sourcechain/src/common"
	"github.com/mosaicnetworks/sourcechain/src/entry"
)

// Store is an agent's view over a CAS holding its entries and headers.
type Store struct {
	cas cas.Store
}

// NewStore ...
func NewStore(s cas.Store) *Store {
	return &Store{cas: s}
}

// CAS returns the underlying content store.
func (s *Store) CAS() cas.Store {
	return s.cas
}

// Header fetches the header stored at address. A missing header, or an entry
// that is not a header, is a MissingData error: the chain is broken.
func (s *Store) Header(address cas.Address) (*entry.ChainHeader, error) {
	e, err := entry.Fetch(s.cas, address)
	if err != nil {
		if cm.IsStore(err, cm.KeyNotFound) {
			return nil, cm.NewCoreErr(cm.MissingData, string(address),
				fmt.Sprintf("chain header %s not found", address))
		}
		return nil, err
	}
	h, ok := e.Header()
	if !ok {
		return nil, cm.NewCoreErr(cm.MissingData, string(address),
			fmt.Sprintf("entry at %s is not a chain header", address))
	}
	return h, nil
}

// Entry fetches the entry a header points to.
func (s *Store) Entry(h *entry.ChainHeader) (*entry.Entry, error) {
	e, err := entry.Fetch(s.cas, h.EntryAddress)
	if err != nil {
		if cm.IsStore(err, cm.KeyNotFound) {
			return nil, cm.NewCoreErr(cm.MissingData, string(h.EntryAddress),
				fmt.Sprintf("entry %s not found", h.EntryAddress))
		}
		return nil, err
	}
	return e, nil
}

// Iter walks the chain backwards from top, following Link until the first
// header. A nil top yields nothing.
func (s *Store) Iter(top *entry.ChainHeader) *Iterator {
	return &Iterator{
		store: s,
		start: top,
		seen:  make(map[cas.Address]bool),
	}
}

// IterType walks the headers of one entry type backwards from top. It
// follows Link until it finds a header of the type and then follows
// LinkSameType only.
func (s *Store) IterType(top *entry.ChainHeader, entryType entry.EntryType) *Iterator {
	return &Iterator{
		store:     s,
		start:     top,
		entryType: entryType,
		seen:      make(map[cas.Address]bool),
	}
}

// Query returns the addresses of up to limit entries of the given type,
// newest first. A limit of 0 means no limit.
func (s *Store) Query(top *entry.ChainHeader, entryType entry.EntryType, limit int) ([]cas.Address, error) {
	res := []cas.Address{}
	it := s.IterType(top, entryType)
	for it.Next() {
		res = append(res, it.Header().EntryAddress)
		if limit > 0 && len(res) >= limit {
			break
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return res, nil
}
