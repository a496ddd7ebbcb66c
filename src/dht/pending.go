package dht

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mosaicnetworks/sourcechain/src/cas"
	"github.com/mosaicnetworks/sourcechain/src/entry"
)

// PendingValidation is an aspect that could not be validated because some of
// its dependencies are not held yet.
type PendingValidation struct {
	ID           string
	Entry        *entry.Entry
	Header       entry.ChainHeader
	Aspect       entry.EntryAspect
	Workflow     WorkflowKind
	Dependencies []cas.Address
	Attempts     int
	NextAttempt  time.Time
}

// PendingKey identifies a pending validation: the same aspect can only be
// pending once per workflow.
type PendingKey struct {
	Aspect   cas.Address
	Workflow WorkflowKind
}

// NewPendingValidation ...
func NewPendingValidation(aspect entry.EntryAspect, e *entry.Entry, h entry.ChainHeader, workflow WorkflowKind, deps []cas.Address) *PendingValidation {
	return &PendingValidation{
		ID:           uuid.New().String(),
		Entry:        e,
		Header:       h,
		Aspect:       aspect,
		Workflow:     workflow,
		Dependencies: deps,
		NextAttempt:  time.Now(),
	}
}

// Key ...
func (p *PendingValidation) Key() PendingKey {
	return PendingKey{
		Aspect:   p.Aspect.Address(),
		Workflow: p.Workflow,
	}
}

// AddPending records a pending validation. Adding one that is already
// pending only refreshes its dependencies, so its attempts and schedule are
// kept.
func (s *Store) AddPending(p *PendingValidation) {
	s.lock.Lock()
	defer s.lock.Unlock()

	key := p.Key()
	if existing, ok := s.pending[key]; ok {
		existing.Dependencies = p.Dependencies
		return
	}

	cp := *p
	s.pending[key] = &cp
	pendingGauge.Inc()
}

// RemovePending ...
func (s *Store) RemovePending(key PendingKey) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.pending[key]; ok {
		delete(s.pending, key)
		pendingGauge.Dec()
	}
}

// Reschedule records a failed attempt and when to try again.
func (s *Store) Reschedule(key PendingKey, attempts int, next time.Time) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if p, ok := s.pending[key]; ok {
		p.Attempts = attempts
		p.NextAttempt = next
	}
}

// Pending returns copies of the pending validations, oldest schedule first.
func (s *Store) Pending() []PendingValidation {
	s.lock.RLock()
	defer s.lock.RUnlock()

	res := make([]PendingValidation, 0, len(s.pending))
	for _, p := range s.pending {
		res = append(res, *p)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].NextAttempt.Before(res[j].NextAttempt)
	})
	return res
}

// IsPending ...
func (s *Store) IsPending(key PendingKey) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()

	_, ok := s.pending[key]
	return ok
}
