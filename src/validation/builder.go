package validation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mosaicnetworks/sourcechain/src/cas"
	"github.com/mosaicnetworks/sourcechain/src/chain"
	cm "github.com/mosaicnetworks/sourcechain/src/common"
	"github.com/mosaicnetworks/sourcechain/src/entry"
)

// DefaultHopTimeout bounds each network hop of BuildFromDHT.
const DefaultHopTimeout = 10 * time.Second

// Fetcher retrieves entries from the network. A nil entry with a nil error
// means nobody had it.
type Fetcher interface {
	FetchEntry(ctx context.Context, address cas.Address) (*entry.Entry, error)
}

func needsHeaders(def Definition) bool {
	return def.Kind == ChainHeaders || def.Kind == ChainFull
}

func needsEntries(def Definition) bool {
	return def.Kind == ChainEntries || def.Kind == ChainFull
}

func publicHeaders(headers []entry.ChainHeader, dna *entry.DNA) []entry.ChainHeader {
	res := []entry.ChainHeader{}
	for _, h := range headers {
		if dna.CanPublish(h.EntryType) {
			res = append(res, h)
		}
	}
	return res
}

func assemble(header entry.ChainHeader, def Definition, headers []entry.ChainHeader, entries []entry.Entry) *Package {
	p := OnlyHeader(header)
	switch def.Kind {
	case ChainHeaders:
		p.SourceChainHeaders = headers
	case ChainEntries:
		p.SourceChainEntries = entries
	case ChainFull:
		p.SourceChainHeaders = headers
		p.SourceChainEntries = entries
	case Custom:
		p.Custom = def.Custom
	}
	return p
}

// BuildLocal builds a package from a chain available in store, walking back
// from the header's previous link.
func BuildLocal(store *chain.Store, header entry.ChainHeader, def Definition, dna *entry.DNA) (*Package, error) {
	defer observe("local", time.Now())

	if !needsHeaders(def) && !needsEntries(def) {
		return assemble(header, def, nil, nil), nil
	}

	headers := []entry.ChainHeader{}
	if !header.Link.IsEmpty() {
		prev, err := store.Header(header.Link)
		if err != nil {
			return nil, err
		}
		if headers, err = store.Iter(prev).Collect(); err != nil {
			return nil, err
		}
	}

	var entries []entry.Entry
	if needsEntries(def) {
		entries = []entry.Entry{}
		for _, h := range publicHeaders(headers, dna) {
			h := h
			e, err := store.Entry(&h)
			if err != nil {
				return nil, err
			}
			entries = append(entries, *e)
		}
	}

	return assemble(header, def, headers, entries), nil
}

// BuildFromDHT builds a package for an entry authored elsewhere by fetching
// its author's headers one hop at a time. Hops are sequential; each is
// bounded by hopTimeout.
func BuildFromDHT(ctx context.Context, fetcher Fetcher, header entry.ChainHeader, def Definition, dna *entry.DNA, hopTimeout time.Duration) (*Package, error) {
	defer observe("dht", time.Now())

	if !needsHeaders(def) && !needsEntries(def) {
		return assemble(header, def, nil, nil), nil
	}

	headers := []entry.ChainHeader{}
	seen := map[cas.Address]bool{header.Address(): true}
	for next := header.Link; !next.IsEmpty(); {
		if seen[next] {
			return nil, cm.NewCoreErr(cm.MissingData, string(next),
				fmt.Sprintf("cycle in chain at %s", next))
		}
		seen[next] = true

		e, err := fetchHop(ctx, fetcher, next, hopTimeout, "a header entry")
		if err != nil {
			return nil, err
		}
		h, ok := e.Header()
		if !ok || h.Address() != next {
			return nil, missing("a header entry", next)
		}
		headers = append(headers, *h)
		next = h.Link
	}

	var entries []entry.Entry
	if needsEntries(def) {
		entries = []entry.Entry{}
		for _, h := range publicHeaders(headers, dna) {
			e, err := fetchHop(ctx, fetcher, h.EntryAddress, hopTimeout, "an entry")
			if err != nil {
				return nil, err
			}
			if e.Address() != h.EntryAddress {
				return nil, cm.NewCoreErr(cm.MissingData, string(h.EntryAddress),
					fmt.Sprintf("entry received for %s has another address", h.EntryAddress))
			}
			entries = append(entries, *e)
		}
	}

	return assemble(header, def, headers, entries), nil
}

func missing(what string, address cas.Address) error {
	return cm.NewCoreErr(cm.MissingData, string(address),
		fmt.Sprintf("could not retrieve %s at address %s", what, address))
}

func fetchHop(ctx context.Context, fetcher Fetcher, address cas.Address, hopTimeout time.Duration, what string) (*entry.Entry, error) {
	if hopTimeout <= 0 {
		hopTimeout = DefaultHopTimeout
	}
	hopCtx, cancel := context.WithTimeout(ctx, hopTimeout)
	defer cancel()

	e, err := fetcher.FetchEntry(hopCtx, address)
	switch {
	case err != nil && (cm.Is(err, cm.Timeout) || errors.Is(err, context.DeadlineExceeded)):
		return nil, cm.NewCoreErr(cm.Timeout, string(address),
			fmt.Sprintf("could not retrieve %s at address %s: timed out", what, address))
	case err != nil:
		return nil, err
	case e == nil:
		return nil, missing(what, address)
	}
	return e, nil
}

func observe(strategy string, start time.Time) {
	buildDuration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
}
