package validation

import (
	"github.com/mosaicnetworks/sourcechain/src/entry"
)

// Definition is declared per entry type and dictates the shape of a Package.
type Definition = entry.ValidationPackageDefinition

const (
	Entry        = entry.PackageEntry
	ChainEntries = entry.PackageChainEntries
	ChainHeaders = entry.PackageChainHeaders
	ChainFull    = entry.PackageChainFull
	Custom       = entry.PackageCustom
)

// Package is the context handed to a validator for one entry. Source chain
// headers and entries are ordered newest first and exclude the entry's own
// header.
type Package struct {
	ChainHeader        entry.ChainHeader   `json:"chain_header"`
	SourceChainEntries []entry.Entry       `json:"source_chain_entries"`
	SourceChainHeaders []entry.ChainHeader `json:"source_chain_headers"`
	Custom             string              `json:"custom,omitempty"`
}

// OnlyHeader creates a package carrying nothing but the header.
func OnlyHeader(h entry.ChainHeader) *Package {
	return &Package{ChainHeader: h}
}

// Lifecycle is the stage at which an entry is validated.
type Lifecycle string

const (
	// Chain is validation by the author before committing.
	Chain Lifecycle = "Chain"
	// Dht is validation by a peer before holding.
	Dht Lifecycle = "Dht"
)

// Action is the operation an entry performs.
type Action string

const (
	Create     Action = "Create"
	Modify     Action = "Modify"
	Delete     Action = "Delete"
	Link       Action = "Link"
	RemoveLink Action = "RemoveLink"
)

// ActionFor derives the action of an entry from its type and header.
func ActionFor(e *entry.Entry, h entry.ChainHeader) Action {
	switch e.Type {
	case entry.DeletionType:
		return Delete
	case entry.LinkAddType:
		return Link
	case entry.LinkRemoveType:
		return RemoveLink
	}
	if !h.LinkUpdateDelete.IsEmpty() {
		return Modify
	}
	return Create
}

// Data is everything a validator is told about an entry besides the entry
// itself.
type Data struct {
	Package   Package   `json:"package"`
	Lifecycle Lifecycle `json:"lifecycle"`
	Action    Action    `json:"action"`
}
