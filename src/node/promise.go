package node

import (
	"sync"

	"github.com/google/uuid"
	"github.com/mosaicnetworks/sourcechain/src/net"
)

type fetchResult struct {
	resp net.FetchResponse
	err  error
}

// FetchPromise waits for the answer to one FetchRequest. The response and
// the timeout race to resolve it; whichever comes first wins and the other
// is ignored.
type FetchPromise struct {
	RequestID string
	respCh    chan fetchResult
	once      sync.Once
}

// NewFetchPromise ...
func NewFetchPromise() *FetchPromise {
	return &FetchPromise{
		RequestID: uuid.New().String(),
		respCh:    make(chan fetchResult, 1),
	}
}

// Resolve reports whether this call resolved the promise.
func (p *FetchPromise) Resolve(res fetchResult) bool {
	resolved := false
	p.once.Do(func() {
		p.respCh <- res
		resolved = true
	})
	return resolved
}

// promises tracks the fetches in flight.
type promises struct {
	sync.Mutex
	byID map[string]*FetchPromise
}

func newPromises() *promises {
	return &promises{byID: make(map[string]*FetchPromise)}
}

func (ps *promises) add(p *FetchPromise) {
	ps.Lock()
	ps.byID[p.RequestID] = p
	ps.Unlock()
}

func (ps *promises) remove(id string) {
	ps.Lock()
	delete(ps.byID, id)
	ps.Unlock()
}

func (ps *promises) len() int {
	ps.Lock()
	defer ps.Unlock()
	return len(ps.byID)
}
