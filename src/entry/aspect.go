package entry

import (
	"fmt"

	"github.com/mosaicnetworks/sourcechain/src/cas"
	cm "github.com/mosaicnetworks/sourcechain/src/common"
)

// AspectKind is the variant tag of an EntryAspect.
type AspectKind string

const (
	ContentAspect    AspectKind = "content"
	HeaderAspect     AspectKind = "header"
	LinkAddAspect    AspectKind = "link_add"
	LinkRemoveAspect AspectKind = "link_remove"
	UpdateAspect     AspectKind = "update"
	DeletionAspect   AspectKind = "deletion"
)

// EntryAspect is one facet of an entry held by the DHT.
//
//	content:     Entry, Header
//	header:      Header
//	update:      Entry (the new entry), Header (LinkUpdateDelete is the old one)
//	deletion:    Header (LinkUpdateDelete is the deleted entry)
//	link_add:    Link, Header
//	link_remove: Link, Removed, Header
type EntryAspect struct {
	Kind    AspectKind    `json:"kind"`
	Header  ChainHeader   `json:"header"`
	Entry   *Entry        `json:"entry,omitempty"`
	Link    *LinkData     `json:"link,omitempty"`
	Removed []cas.Address `json:"removed"`
}

// NewContentAspect ...
func NewContentAspect(e *Entry, h ChainHeader) EntryAspect {
	return EntryAspect{Kind: ContentAspect, Entry: e, Header: h}
}

// NewHeaderAspect ...
func NewHeaderAspect(h ChainHeader) EntryAspect {
	return EntryAspect{Kind: HeaderAspect, Header: h}
}

// NewUpdateAspect ...
func NewUpdateAspect(e *Entry, h ChainHeader) EntryAspect {
	return EntryAspect{Kind: UpdateAspect, Entry: e, Header: h}
}

// NewDeletionAspect ...
func NewDeletionAspect(h ChainHeader) EntryAspect {
	return EntryAspect{Kind: DeletionAspect, Header: h}
}

// NewLinkAddAspect ...
func NewLinkAddAspect(link LinkData, h ChainHeader) EntryAspect {
	l := link
	return EntryAspect{Kind: LinkAddAspect, Link: &l, Header: h}
}

// NewLinkRemoveAspect ...
func NewLinkRemoveAspect(link LinkData, removed []cas.Address, h ChainHeader) EntryAspect {
	l := link
	return EntryAspect{Kind: LinkRemoveAspect, Link: &l, Removed: removed, Header: h}
}

// Address returns the content address of the aspect itself.
func (a EntryAspect) Address() cas.Address {
	addr, err := cas.AddressOf(a)
	if err != nil {
		return ""
	}
	return addr
}

// EntryAddress is the address the aspect is published to.
func (a EntryAspect) EntryAddress() cas.Address {
	switch a.Kind {
	case UpdateAspect, DeletionAspect:
		return a.Header.LinkUpdateDelete
	case LinkAddAspect, LinkRemoveAspect:
		if a.Link != nil {
			return a.Link.Base
		}
	}
	return a.Header.EntryAddress
}

// ChainPair rebuilds the entry and header the aspect was derived from. A
// deletion carries no entry, so its entry is rebuilt from the address in the
// header.
func (a EntryAspect) ChainPair() (*Entry, ChainHeader, error) {
	var e *Entry
	switch a.Kind {
	case ContentAspect, UpdateAspect:
		e = a.Entry
	case HeaderAspect:
		e = NewChainHeaderEntry(a.Header)
	case DeletionAspect:
		if a.Header.LinkUpdateDelete.IsEmpty() {
			return nil, a.Header, cm.NewCoreErr(cm.ValidationFailed, string(a.Header.EntryAddress),
				"deletion header is missing deletion link")
		}
		e = NewDeletionEntry(a.Header.LinkUpdateDelete)
	case LinkAddAspect:
		if a.Link != nil {
			e = NewLinkAddEntry(a.Link.Base, a.Link.Target, a.Link.LinkType, a.Link.Tag)
		}
	case LinkRemoveAspect:
		if a.Link != nil {
			e = NewLinkRemoveEntry(*a.Link, a.Removed)
		}
	default:
		return nil, a.Header, cm.NewCoreErr(cm.SerializationError, "",
			fmt.Sprintf("unknown aspect kind %q", a.Kind))
	}
	if e == nil {
		return nil, a.Header, cm.NewCoreErr(cm.SerializationError, string(a.Header.EntryAddress),
			fmt.Sprintf("%s aspect is missing its payload", a.Kind))
	}
	if a.Kind != HeaderAspect && e.Address() != a.Header.EntryAddress {
		return nil, a.Header, cm.NewCoreErr(cm.ValidationFailed, string(a.Header.EntryAddress),
			fmt.Sprintf("%s aspect does not match its header", a.Kind))
	}
	return e, a.Header, nil
}

// PublishAspects returns the aspects an author publishes for a committed
// entry, not counting the header aspect which is published for every entry.
func PublishAspects(e *Entry, h ChainHeader) []EntryAspect {
	switch e.Type {
	case AgentIDType:
		return []EntryAspect{NewContentAspect(e, h)}
	case DeletionType:
		return []EntryAspect{NewContentAspect(e, h), NewDeletionAspect(h)}
	case LinkAddType:
		return []EntryAspect{NewContentAspect(e, h), NewLinkAddAspect(*e.LinkAdd, h)}
	case LinkRemoveType:
		return []EntryAspect{
			NewContentAspect(e, h),
			NewLinkRemoveAspect(e.LinkRemove.Link, e.LinkRemove.Removed, h),
		}
	case ChainHeaderType, DnaType, ChainMigrateType:
		return nil
	}
	aspects := []EntryAspect{NewContentAspect(e, h)}
	if !h.LinkUpdateDelete.IsEmpty() {
		aspects = append(aspects, NewUpdateAspect(e, h))
	}
	return aspects
}
