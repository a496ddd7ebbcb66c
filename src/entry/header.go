package entry

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/mosaicnetworks/sourcechain/src/cas"
	cm "github.com/mosaicnetworks/sourcechain/src/common"
	"github.com/mosaicnetworks/sourcechain/src/crypto"
	"github.com/mosaicnetworks/sourcechain/src/crypto/keys"
)

// Provenance is an agent's signature of an entry address.
type Provenance struct {
	Agent     string `json:"agent"`
	Signature string `json:"signature"`
}

// ChainHeader links an entry into its author's chain. Link points to the
// previous header, LinkSameType to the previous header with the same entry
// type, and LinkUpdateDelete to the entry replaced or deleted by this one.
// An empty Link marks the first header of a chain.
type ChainHeader struct {
	EntryType        EntryType    `json:"entry_type"`
	EntryAddress     cas.Address  `json:"entry_address"`
	Provenances      []Provenance `json:"provenances"`
	Link             cas.Address  `json:"link,omitempty"`
	LinkSameType     cas.Address  `json:"link_same_type,omitempty"`
	LinkUpdateDelete cas.Address  `json:"link_update_delete,omitempty"`
	Timestamp        int64        `json:"timestamp"`
}

// Content implements the cas.Addressable interface.
func (h ChainHeader) Content() (cas.Content, error) {
	return cas.Marshal(h)
}

// Address implements the cas.Addressable interface.
func (h ChainHeader) Address() cas.Address {
	c, err := h.Content()
	if err != nil {
		return ""
	}
	return c.Address()
}

// Equals compares headers by address.
func (h ChainHeader) Equals(that ChainHeader) bool {
	return h.Address() == that.Address()
}

func provenanceData(address cas.Address) []byte {
	return crypto.SHA256([]byte(address))
}

// Sign returns the provenance of key over an entry address.
func Sign(key *ecdsa.PrivateKey, address cas.Address) (Provenance, error) {
	sig, err := keys.SignString(key, provenanceData(address))
	if err != nil {
		return Provenance{}, err
	}
	return Provenance{
		Agent:     keys.PublicKeyHex(&key.PublicKey),
		Signature: sig,
	}, nil
}

// VerifyProvenances checks that the header carries at least one provenance
// and that every provenance is a valid signature of the entry address.
func (h ChainHeader) VerifyProvenances() error {
	if len(h.Provenances) == 0 {
		return cm.NewCoreErr(cm.ValidationFailed, string(h.EntryAddress), "header has no provenance")
	}
	for _, p := range h.Provenances {
		ok, err := keys.VerifyString(p.Agent, provenanceData(h.EntryAddress), p.Signature)
		if err != nil {
			return cm.WrapCoreErr(cm.ValidationFailed, string(h.EntryAddress), err)
		}
		if !ok {
			return cm.NewCoreErr(cm.ValidationFailed, string(h.EntryAddress),
				fmt.Sprintf("invalid signature from %s", p.Agent))
		}
	}
	return nil
}

// Author returns the agent of the first provenance.
func (h ChainHeader) Author() string {
	if len(h.Provenances) == 0 {
		return ""
	}
	return h.Provenances[0].Agent
}
