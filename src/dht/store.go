package dht

import (
	"fmt"

	"github.com/algorand/go-deadlock"
	"github.com/mosaicnetworks/sourcechain/src/cas"
	cm "github.com/mosaicnetworks/sourcechain/src/common"
	"github.com/mosaicnetworks/sourcechain/src/eav"
	"github.com/mosaicnetworks/sourcechain/src/entry"
	"github.com/sirupsen/logrus"
)

// CrudStatus is the lifecycle status of a held entry.
type CrudStatus string

const (
	Live     CrudStatus = "live"
	Modified CrudStatus = "modified"
	Deleted  CrudStatus = "deleted"
)

// Store is the part of the DHT held by this node: entries and headers in a
// CAS, their metadata in an EAV index, the aspects held per entry, and the
// aspects waiting for their dependencies.
//
// Reducers take the writer lock for their whole run so that no two
// workflows interleave partial index updates. Queries take the reader lock.
type Store struct {
	lock deadlock.RWMutex

	cas     cas.Store
	meta    eav.Store
	holding map[cas.Address][]cas.Address
	pending map[PendingKey]*PendingValidation

	logger *logrus.Entry
}

// NewStore ...
func NewStore(contents cas.Store, meta eav.Store, logger *logrus.Entry) *Store {
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	return &Store{
		cas:     contents,
		meta:    meta,
		holding: make(map[cas.Address][]cas.Address),
		pending: make(map[PendingKey]*PendingValidation),
		logger:  logger,
	}
}

// NewInmemStore creates a Store backed by in-memory CAS and EAV stores.
func NewInmemStore(logger *logrus.Entry) *Store {
	return NewStore(cas.NewInmemStore(), eav.NewInmemStore(), logger)
}

// Close ...
func (s *Store) Close() error {
	if err := s.cas.Close(); err != nil {
		return err
	}
	return s.meta.Close()
}

/*******************************************************************************
Reducers
*******************************************************************************/

// HoldEntry stores an entry with its header and marks it live unless it
// already has a status.
func (s *Store) HoldEntry(e *entry.Entry, h entry.ChainHeader) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.holdEntry(e, h)
}

func (s *Store) holdEntry(e *entry.Entry, h entry.ChainHeader) error {
	if err := s.cas.Add(e); err != nil {
		return err
	}
	if err := s.holdHeader(h); err != nil {
		return err
	}

	status, err := s.crudStatus(e.Address())
	if err != nil {
		return err
	}
	if status == "" {
		return s.addMeta(e.Address(), eav.CrudStatus, cas.Address(Live))
	}
	return nil
}

// HoldHeader stores a header so that chains can be reconstructed by
// fetching headers one at a time.
func (s *Store) HoldHeader(h entry.ChainHeader) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.holdHeader(h)
}

func (s *Store) holdHeader(h entry.ChainHeader) error {
	if err := s.cas.Add(entry.NewChainHeaderEntry(h)); err != nil {
		return err
	}

	existing, err := s.meta.Fetch(eav.Query{
		Entities:   []cas.Address{h.EntryAddress},
		Attributes: eav.Exactly(eav.EntryHeader),
		Values:     []cas.Address{h.Address()},
	})
	if err != nil {
		return cm.WrapCoreErr(cm.IoError, string(h.EntryAddress), err)
	}
	if len(existing) > 0 {
		return nil
	}
	return s.addMeta(h.EntryAddress, eav.EntryHeader, h.Address())
}

// UpdateEntry stores the new version of an entry and marks the old one,
// named by the header's LinkUpdateDelete, as modified.
func (s *Store) UpdateEntry(newEntry *entry.Entry, h entry.ChainHeader) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	old := h.LinkUpdateDelete
	if old.IsEmpty() {
		return cm.NewCoreErr(cm.ValidationFailed, string(h.EntryAddress), "update header is missing update link")
	}
	if ok, err := s.cas.Contains(old); err != nil {
		return err
	} else if !ok {
		return cm.NewCoreErr(cm.MissingData, string(old), "trying to update a missing entry")
	}

	if err := s.holdEntry(newEntry, h); err != nil {
		return err
	}
	if err := s.addMeta(old, eav.CrudStatus, cas.Address(Modified)); err != nil {
		return err
	}
	return s.addMeta(old, eav.CrudLink, newEntry.Address())
}

// RemoveEntry marks the entry named by the header's LinkUpdateDelete as
// deleted. Only live application entries can be deleted.
func (s *Store) RemoveEntry(deletion *entry.Entry, h entry.ChainHeader) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	old := h.LinkUpdateDelete
	if old.IsEmpty() {
		return cm.NewCoreErr(cm.ValidationFailed, string(h.EntryAddress), "deletion header is missing deletion link")
	}

	target, found, err := s.get(old)
	if err != nil {
		return err
	}
	if !found {
		return cm.NewCoreErr(cm.MissingData, string(old), "trying to remove a missing entry")
	}
	if target.Type.IsSys() {
		return cm.NewCoreErr(cm.ValidationFailed, string(old), "trying to remove a system entry type")
	}

	status, err := s.crudStatus(old)
	if err != nil {
		return err
	}
	if status != Live {
		return cm.NewCoreErr(cm.ValidationFailed, string(old),
			fmt.Sprintf("trying to remove an entry that is %s", status))
	}

	if err := s.holdEntry(deletion, h); err != nil {
		return err
	}
	if err := s.addMeta(old, eav.CrudStatus, cas.Address(Deleted)); err != nil {
		return err
	}
	return s.addMeta(old, eav.CrudLink, deletion.Address())
}

// AddLink indexes a link-add entry under its base. The base must be held.
func (s *Store) AddLink(linkEntry *entry.Entry, h entry.ChainHeader) error {
	if linkEntry.LinkAdd == nil {
		return cm.NewCoreErr(cm.SerializationError, string(h.EntryAddress), "not a link entry")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	link := linkEntry.LinkAdd
	if err := s.requireBase(link.Base); err != nil {
		return err
	}
	if err := s.holdEntry(linkEntry, h); err != nil {
		return err
	}
	return s.addMeta(link.Base, eav.LinkTag(link.LinkType, link.Tag), linkEntry.Address())
}

// RemoveLink tombstones the link-add entries listed by a link-remove entry.
// The base must be held.
func (s *Store) RemoveLink(removeEntry *entry.Entry, h entry.ChainHeader) error {
	if removeEntry.LinkRemove == nil {
		return cm.NewCoreErr(cm.SerializationError, string(h.EntryAddress), "not a link removal")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	link := removeEntry.LinkRemove.Link
	if err := s.requireBase(link.Base); err != nil {
		return err
	}
	if err := s.holdEntry(removeEntry, h); err != nil {
		return err
	}
	for _, removed := range removeEntry.LinkRemove.Removed {
		if err := s.addMeta(link.Base, eav.RemovedLink(link.LinkType, link.Tag), removed); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) requireBase(base cas.Address) error {
	ok, err := s.cas.Contains(base)
	if err != nil {
		return err
	}
	if !ok {
		return cm.NewCoreErr(cm.MissingData, string(base), "base for link not found")
	}
	return nil
}

// MarkHeld records that an aspect has been validated and held.
func (s *Store) MarkHeld(a entry.EntryAspect) {
	s.lock.Lock()
	defer s.lock.Unlock()

	basis := a.EntryAddress()
	address := a.Address()
	for _, held := range s.holding[basis] {
		if held == address {
			return
		}
	}
	s.holding[basis] = append(s.holding[basis], address)
}

func (s *Store) addMeta(entity cas.Address, attribute eav.Attribute, value cas.Address) error {
	if _, err := s.meta.Add(eav.NewEAVI(entity, attribute, value)); err != nil {
		return cm.WrapCoreErr(cm.IoError, string(entity), err)
	}
	return nil
}

/*******************************************************************************
Queries
*******************************************************************************/

// Get returns the entry stored at address.
func (s *Store) Get(address cas.Address) (*entry.Entry, bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.get(address)
}

func (s *Store) get(address cas.Address) (*entry.Entry, bool, error) {
	e, err := entry.Fetch(s.cas, address)
	if err != nil {
		if cm.IsStore(err, cm.KeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return e, true, nil
}

// Contains reports whether anything is stored at address.
func (s *Store) Contains(address cas.Address) (bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.cas.Contains(address)
}

// IsHolding reports whether the aspect has been held.
func (s *Store) IsHolding(a entry.EntryAspect) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()

	address := a.Address()
	for _, held := range s.holding[a.EntryAddress()] {
		if held == address {
			return true
		}
	}
	return false
}

// Headers returns every header held for an entry.
func (s *Store) Headers(entryAddress cas.Address) ([]entry.ChainHeader, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	eavis, err := s.meta.Fetch(eav.Query{
		Entities:   []cas.Address{entryAddress},
		Attributes: eav.Exactly(eav.EntryHeader),
	})
	if err != nil {
		return nil, cm.WrapCoreErr(cm.IoError, string(entryAddress), err)
	}

	res := []entry.ChainHeader{}
	for _, e := range eavis {
		he, found, err := s.get(e.Value)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, cm.NewCoreErr(cm.MissingData, string(e.Value), "indexed header not found")
		}
		h, ok := he.Header()
		if !ok {
			return nil, cm.NewCoreErr(cm.MissingData, string(e.Value), "indexed header is not a header")
		}
		res = append(res, *h)
	}
	return res, nil
}

// CrudStatus returns the latest status of an entry, empty if it has none.
func (s *Store) CrudStatus(address cas.Address) (CrudStatus, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.crudStatus(address)
}

func (s *Store) crudStatus(address cas.Address) (CrudStatus, error) {
	latest, err := s.latest(address, eav.CrudStatus)
	if err != nil || latest == nil {
		return "", err
	}
	return CrudStatus(latest.Value), nil
}

// CrudLink returns the entry that updated or deleted address, if any.
func (s *Store) CrudLink(address cas.Address) (cas.Address, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	latest, err := s.latest(address, eav.CrudLink)
	if err != nil || latest == nil {
		return "", err
	}
	return latest.Value, nil
}

func (s *Store) latest(entity cas.Address, attribute eav.Attribute) (*eav.EAVI, error) {
	eavis, err := s.meta.Fetch(eav.Query{
		Entities:   []cas.Address{entity},
		Attributes: eav.Exactly(attribute),
	})
	if err != nil {
		return nil, cm.WrapCoreErr(cm.IoError, string(entity), err)
	}
	if len(eavis) == 0 {
		return nil, nil
	}
	return &eavis[len(eavis)-1], nil
}

// Link is a live link of a base.
type Link struct {
	LinkType       string      `json:"link_type"`
	Tag            string      `json:"tag"`
	Target         cas.Address `json:"target"`
	LinkAddAddress cas.Address `json:"link_add_address"`
}

// Links returns the live links of base with the given type and tag. Empty
// linkType or tag match any.
func (s *Store) Links(base cas.Address, linkType, tag string) ([]Link, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	matches := func(a eav.Attribute) bool {
		t, g, _, err := eav.ParseLinkTag(a)
		return err == nil && (linkType == "" || t == linkType) && (tag == "" || g == tag)
	}
	tombstone := func(a eav.Attribute) bool {
		_, _, removed, err := eav.ParseLinkTag(a)
		return err == nil && removed
	}

	eavis, err := s.meta.Fetch(eav.Query{
		Entities:   []cas.Address{base},
		Attributes: matches,
		Index:      eav.IndexFilter{Kind: eav.LatestByAttribute},
		Tombstone:  tombstone,
	})
	if err != nil {
		return nil, cm.WrapCoreErr(cm.IoError, string(base), err)
	}

	res := []Link{}
	for _, e := range eavis {
		le, found, err := s.get(e.Value)
		if err != nil {
			return nil, err
		}
		if !found || le.LinkAdd == nil {
			return nil, cm.NewCoreErr(cm.MissingData, string(e.Value), "indexed link entry not found")
		}
		res = append(res, Link{
			LinkType:       le.LinkAdd.LinkType,
			Tag:            le.LinkAdd.Tag,
			Target:         le.LinkAdd.Target,
			LinkAddAddress: e.Value,
		})
	}
	return res, nil
}

// Snapshot is a point-in-time copy of the holding list and pending set.
type Snapshot struct {
	Holding map[cas.Address][]cas.Address
	Pending []PendingValidation
}

// Snapshot ...
func (s *Store) Snapshot() Snapshot {
	pending := s.Pending()

	s.lock.RLock()
	defer s.lock.RUnlock()

	holding := make(map[cas.Address][]cas.Address, len(s.holding))
	for k, v := range s.holding {
		holding[k] = append([]cas.Address(nil), v...)
	}

	return Snapshot{
		Holding: holding,
		Pending: pending,
	}
}
