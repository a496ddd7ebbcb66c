package net

import (
	"github.com/mosaicnetworks/sourcechain/src/cas"
	"github.com/mosaicnetworks/sourcechain/src/entry"
)

// FetchRequest asks a node for the entry stored at Address. RequestID
// correlates the request with the promise waiting for it.
type FetchRequest struct {
	FromAddr  string
	RequestID string
	Address   cas.Address
}

// FetchResponse carries the requested entry. Found is false when the node
// does not hold the entry, or holds it privately.
type FetchResponse struct {
	FromAddr  string
	RequestID string
	Found     bool
	Entry     *entry.Entry
}

// PublishRequest pushes the aspects of one entry to a node.
type PublishRequest struct {
	FromAddr     string
	EntryAddress cas.Address
	Aspects      []entry.EntryAspect
}

// PublishResponse acknowledges a PublishRequest. The aspects are validated
// and held asynchronously, so acceptance only means they were queued.
type PublishResponse struct {
	FromAddr string
	Accepted int
}
