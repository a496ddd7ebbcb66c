package chain

import (
	"fmt"

	"github.com/mosaicnetworks/sourcechain/src/cas"
	cm "github.com/mosaicnetworks/sourcechain/src/common"
	"github.com/mosaicnetworks/sourcechain/src/entry"
)

// Iterator lazily walks a chain backwards. It stops at the first error,
// which is then returned by Err.
//
//	it := store.Iter(top)
//	for it.Next() {
//		h := it.Header()
//	}
//	if err := it.Err(); err != nil {
//	}
type Iterator struct {
	store     *Store
	start     *entry.ChainHeader
	entryType entry.EntryType

	current *entry.ChainHeader
	started bool
	done    bool
	err     error
	seen    map[cas.Address]bool
}

// Next advances to the next header and reports whether there is one.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}

	var next *entry.ChainHeader
	var err error
	if !it.started {
		it.started = true
		next, err = it.first()
	} else {
		next, err = it.follow(it.current)
	}

	if err != nil {
		it.err = err
		it.done = true
		it.current = nil
		return false
	}
	if next == nil {
		it.done = true
		it.current = nil
		return false
	}

	address := next.Address()
	if it.seen[address] {
		it.err = cm.NewCoreErr(cm.MissingData, string(address),
			fmt.Sprintf("cycle in chain at %s", address))
		it.done = true
		it.current = nil
		return false
	}
	it.seen[address] = true
	it.current = next

	return true
}

// first finds the starting header: the start itself, or for a typed walk the
// first header of the type reachable from it.
func (it *Iterator) first() (*entry.ChainHeader, error) {
	h := it.start
	if h == nil || it.entryType == "" {
		return h, nil
	}
	seen := make(map[cas.Address]bool)
	for h != nil && h.EntryType != it.entryType {
		address := h.Address()
		if seen[address] {
			return nil, cm.NewCoreErr(cm.MissingData, string(address),
				fmt.Sprintf("cycle in chain at %s", address))
		}
		seen[address] = true
		if h.Link.IsEmpty() {
			return nil, nil
		}
		var err error
		if h, err = it.store.Header(h.Link); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (it *Iterator) follow(h *entry.ChainHeader) (*entry.ChainHeader, error) {
	link := h.Link
	if it.entryType != "" {
		link = h.LinkSameType
	}
	if link.IsEmpty() {
		return nil, nil
	}
	return it.store.Header(link)
}

// Header returns the current header.
func (it *Iterator) Header() *entry.ChainHeader {
	return it.current
}

// Err returns the error that stopped the iteration, if any.
func (it *Iterator) Err() error {
	return it.err
}

// Reset rewinds the iterator to its start.
func (it *Iterator) Reset() {
	it.current = nil
	it.started = false
	it.done = false
	it.err = nil
	it.seen = make(map[cas.Address]bool)
}

// Collect drains the iterator.
func (it *Iterator) Collect() ([]entry.ChainHeader, error) {
	res := []entry.ChainHeader{}
	for it.Next() {
		res = append(res, *it.Header())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return res, nil
}
