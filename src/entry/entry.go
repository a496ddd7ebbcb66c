package entry

import (
	"fmt"

	"github.com/mosaicnetworks/sourcechain/src/cas"
	cm "github.com/mosaicnetworks/sourcechain/src/common"
)

// AgentID identifies the author of a chain.
type AgentID struct {
	Nick       string `json:"nick"`
	PubSignKey string `json:"pub_sign_key"`
}

// Deletion marks a previously committed entry as deleted.
type Deletion struct {
	Deleted cas.Address `json:"deleted_entry_address"`
}

// LinkData is a typed and tagged link from a base entry to a target entry.
type LinkData struct {
	Base     cas.Address `json:"base"`
	Target   cas.Address `json:"target"`
	LinkType string      `json:"link_type"`
	Tag      string      `json:"tag"`
}

// LinkRemove removes previously added links. Removed lists the addresses of
// the link-add entries it supersedes.
type LinkRemove struct {
	Link    LinkData      `json:"link"`
	Removed []cas.Address `json:"removed"`
}

// ChainMigrate records that a chain was opened from, or closed into, another
// DNA.
type ChainMigrate struct {
	Action     string      `json:"action"`
	DNAAddress cas.Address `json:"dna_address"`
	Key        string      `json:"key"`
}

// Entry is the unit of data committed to a chain. Exactly one payload field
// is set, matching Type; application entries carry an opaque Value.
type Entry struct {
	Type         EntryType     `json:"type"`
	Value        string        `json:"value,omitempty"`
	AgentID      *AgentID      `json:"agent_id,omitempty"`
	Deletion     *Deletion     `json:"deletion,omitempty"`
	LinkAdd      *LinkData     `json:"link_add,omitempty"`
	LinkRemove   *LinkRemove   `json:"link_remove,omitempty"`
	ChainHeader  *ChainHeader  `json:"chain_header,omitempty"`
	Dna          *DNA          `json:"dna,omitempty"`
	ChainMigrate *ChainMigrate `json:"chain_migrate,omitempty"`
}

// NewAppEntry creates an application entry of the given type.
func NewAppEntry(entryType EntryType, value string) *Entry {
	return &Entry{Type: entryType, Value: value}
}

// NewAgentIDEntry ...
func NewAgentIDEntry(nick, pubKey string) *Entry {
	return &Entry{
		Type:    AgentIDType,
		AgentID: &AgentID{Nick: nick, PubSignKey: pubKey},
	}
}

// NewDeletionEntry ...
func NewDeletionEntry(deleted cas.Address) *Entry {
	return &Entry{
		Type:     DeletionType,
		Deletion: &Deletion{Deleted: deleted},
	}
}

// NewLinkAddEntry ...
func NewLinkAddEntry(base, target cas.Address, linkType, tag string) *Entry {
	return &Entry{
		Type: LinkAddType,
		LinkAdd: &LinkData{
			Base:     base,
			Target:   target,
			LinkType: linkType,
			Tag:      tag,
		},
	}
}

// NewLinkRemoveEntry ...
func NewLinkRemoveEntry(link LinkData, removed []cas.Address) *Entry {
	return &Entry{
		Type:       LinkRemoveType,
		LinkRemove: &LinkRemove{Link: link, Removed: removed},
	}
}

// NewChainHeaderEntry wraps a header so it can be stored and fetched like any
// other entry. Its address is the address of the header.
func NewChainHeaderEntry(header ChainHeader) *Entry {
	h := header
	return &Entry{
		Type:        ChainHeaderType,
		ChainHeader: &h,
	}
}

// NewDnaEntry ...
func NewDnaEntry(dna DNA) *Entry {
	d := dna
	return &Entry{
		Type: DnaType,
		Dna:  &d,
	}
}

// NewChainMigrateEntry ...
func NewChainMigrateEntry(action string, dnaAddress cas.Address, key string) *Entry {
	return &Entry{
		Type: ChainMigrateType,
		ChainMigrate: &ChainMigrate{
			Action:     action,
			DNAAddress: dnaAddress,
			Key:        key,
		},
	}
}

// Content implements the cas.Addressable interface.
func (e *Entry) Content() (cas.Content, error) {
	return cas.Marshal(e)
}

// Address implements the cas.Addressable interface. An entry that cannot be
// encoded has no address.
func (e *Entry) Address() cas.Address {
	if e.Type == ChainHeaderType && e.ChainHeader != nil {
		return e.ChainHeader.Address()
	}
	c, err := e.Content()
	if err != nil {
		return ""
	}
	return c.Address()
}

// Validate checks that the payload matches the type.
func (e *Entry) Validate() error {
	var ok bool
	switch e.Type {
	case AgentIDType:
		ok = e.AgentID != nil
	case DeletionType:
		ok = e.Deletion != nil
	case LinkAddType:
		ok = e.LinkAdd != nil
	case LinkRemoveType:
		ok = e.LinkRemove != nil
	case ChainHeaderType:
		ok = e.ChainHeader != nil
	case DnaType:
		ok = e.Dna != nil
	case ChainMigrateType:
		ok = e.ChainMigrate != nil
	default:
		ok = e.Type.IsApp()
	}
	if !ok {
		return cm.NewCoreErr(cm.SerializationError, "",
			fmt.Sprintf("entry of type %q is missing its payload", e.Type))
	}
	return nil
}

// FromContent decodes an entry fetched from a CAS.
func FromContent(c cas.Content) (*Entry, error) {
	var e Entry
	if err := cas.Unmarshal(c, &e); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// Fetch loads the entry stored at address.
func Fetch(store cas.Store, address cas.Address) (*Entry, error) {
	c, err := store.Fetch(address)
	if err != nil {
		return nil, err
	}
	return FromContent(c)
}

// Header returns the wrapped header of a ChainHeader entry.
func (e *Entry) Header() (*ChainHeader, bool) {
	if e.Type != ChainHeaderType || e.ChainHeader == nil {
		return nil, false
	}
	return e.ChainHeader, true
}
