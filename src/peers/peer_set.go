package peers

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/mosaicnetworks/sourcechain/src/common"
	"github.com/mosaicnetworks/sourcechain/src/crypto"
)

//PeerSet is an immutable set of Peers
type PeerSet struct {
	Peers    []*Peer          `json:"peers"`
	ByPubKey map[string]*Peer `json:"-"`

	//cached values
	hex string
}

/* Constructors */

//NewPeerSet creates a new PeerSet from a list of Peers
func NewPeerSet(peers []*Peer) *PeerSet {
	peerSet := &PeerSet{
		ByPubKey: make(map[string]*Peer),
	}

	for _, peer := range peers {
		peerSet.ByPubKey[peer.PubKeyHex] = peer
	}

	peerSet.Peers = peers

	return peerSet
}

//WithNewPeer returns a new PeerSet with a list of peers including the new one.
func (peerSet *PeerSet) WithNewPeer(peer *Peer) *PeerSet {
	peers := peerSet.Peers

	//don't add it if it already exists
	if _, ok := peerSet.ByPubKey[peer.PubKeyHex]; !ok {
		peers = append(append([]*Peer{}, peers...), peer)
	}

	return NewPeerSet(peers)
}

//WithRemovedPeer returns a new PeerSet with a list of peers excluding the
//provided one
func (peerSet *PeerSet) WithRemovedPeer(peer *Peer) *PeerSet {
	peers := []*Peer{}
	for _, p := range peerSet.Peers {
		if p.PubKeyHex != peer.PubKeyHex {
			peers = append(peers, p)
		}
	}
	return NewPeerSet(peers)
}

// Others returns the peers whose network address differs from self.
func (peerSet *PeerSet) Others(self string) []*Peer {
	_, others := ExcludePeer(peerSet.Peers, self)
	return others
}

/* ToSlice Methods */

//PubKeys returns the PeerSet's slice of public keys
func (peerSet *PeerSet) PubKeys() []string {
	res := []string{}

	for _, peer := range peerSet.Peers {
		res = append(res, peer.PubKeyHex)
	}

	return res
}

/* Utilities */

//Len returns the number of Peers in the PeerSet
func (peerSet *PeerSet) Len() int {
	return len(peerSet.ByPubKey)
}

// Hex identifies a PeerSet regardless of the order of its peers. It is the
// SHA256 of the sorted public keys.
func (peerSet *PeerSet) Hex() string {
	if peerSet.hex == "" {
		pubKeys := peerSet.PubKeys()
		sort.Strings(pubKeys)

		var buf bytes.Buffer
		for _, pk := range pubKeys {
			buf.WriteString(pk)
		}
		peerSet.hex = common.EncodeToString(crypto.SHA256(buf.Bytes()))
	}
	return peerSet.hex
}

//Marshal marshals the peerset
func (peerSet *PeerSet) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(peerSet.Peers); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
