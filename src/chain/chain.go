package chain

import (
	"crypto/ecdsa"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mosaicnetworks/sourcechain/src/cas"
	cm "github.com/mosaicnetworks/sourcechain/src/common"
	"github.com/mosaicnetworks/sourcechain/src/entry"
)

// Snapshot is an immutable view of the chain head. It is replaced, never
// modified, on every commit.
type Snapshot struct {
	Top       *entry.ChainHeader
	TopByType map[entry.EntryType]cas.Address
	Length    int
}

// TopAddress returns the address of the head, or an empty address for an
// empty chain.
func (s *Snapshot) TopAddress() cas.Address {
	if s.Top == nil {
		return ""
	}
	return s.Top.Address()
}

// Chain is an agent's append-only chain of headers and entries.
type Chain struct {
	store    *Store
	snapshot atomic.Pointer[Snapshot]

	// serializes commits; readers only load the snapshot
	commitLock sync.Mutex
}

// NewChain creates an empty chain on top of store.
func NewChain(store *Store) *Chain {
	c := &Chain{store: store}
	c.snapshot.Store(&Snapshot{TopByType: make(map[entry.EntryType]cas.Address)})
	return c
}

// LoadChain resumes a chain whose head is the header stored at top.
func LoadChain(store *Store, top cas.Address) (*Chain, error) {
	c := NewChain(store)
	if top.IsEmpty() {
		return c, nil
	}

	head, err := store.Header(top)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Top:       head,
		TopByType: make(map[entry.EntryType]cas.Address),
	}
	it := store.Iter(head)
	for it.Next() {
		h := it.Header()
		snap.Length++
		if _, ok := snap.TopByType[h.EntryType]; !ok {
			snap.TopByType[h.EntryType] = h.Address()
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}

	c.snapshot.Store(snap)
	return c, nil
}

// Store ...
func (c *Chain) Store() *Store {
	return c.store
}

// Snapshot returns the current head.
func (c *Chain) Snapshot() *Snapshot {
	return c.snapshot.Load()
}

// Top returns the current top header, nil for an empty chain.
func (c *Chain) Top() *entry.ChainHeader {
	return c.Snapshot().Top
}

// Length returns the number of headers in the chain.
func (c *Chain) Length() int {
	return c.Snapshot().Length
}

// NewHeader builds the header that would append e to the current head,
// signed with key.
func (c *Chain) NewHeader(e *entry.Entry, key *ecdsa.PrivateKey, linkUpdateDelete cas.Address, timestamp int64) (entry.ChainHeader, error) {
	snap := c.Snapshot()
	address := e.Address()

	prov, err := entry.Sign(key, address)
	if err != nil {
		return entry.ChainHeader{}, err
	}

	return entry.ChainHeader{
		EntryType:        e.Type,
		EntryAddress:     address,
		Provenances:      []entry.Provenance{prov},
		Link:             snap.TopAddress(),
		LinkSameType:     snap.TopByType[e.Type],
		LinkUpdateDelete: linkUpdateDelete,
		Timestamp:        timestamp,
	}, nil
}

// Commit writes the entry and its header to the store and moves the head to
// the header. The header must extend the current head.
func (c *Chain) Commit(e *entry.Entry, h entry.ChainHeader) error {
	c.commitLock.Lock()
	defer c.commitLock.Unlock()

	snap := c.Snapshot()

	if h.Link != snap.TopAddress() {
		return cm.NewCoreErr(cm.MissingData, string(h.EntryAddress),
			fmt.Sprintf("header does not extend the chain top %s", snap.TopAddress()))
	}
	if h.EntryAddress != e.Address() {
		return cm.NewCoreErr(cm.MissingData, string(h.EntryAddress),
			"header does not point to the committed entry")
	}

	if err := c.store.cas.Add(e); err != nil {
		return err
	}
	if err := c.store.cas.Add(entry.NewChainHeaderEntry(h)); err != nil {
		return err
	}

	header := h
	next := &Snapshot{
		Top:       &header,
		TopByType: make(map[entry.EntryType]cas.Address, len(snap.TopByType)+1),
		Length:    snap.Length + 1,
	}
	for t, a := range snap.TopByType {
		next.TopByType[t] = a
	}
	next.TopByType[h.EntryType] = h.Address()

	c.snapshot.Store(next)

	return nil
}

// Headers returns the whole chain, newest first.
func (c *Chain) Headers() ([]entry.ChainHeader, error) {
	return c.store.Iter(c.Top()).Collect()
}

// Contains reports whether the chain's store holds address.
func (c *Chain) Contains(address cas.Address) (bool, error) {
	return c.store.cas.Contains(address)
}
