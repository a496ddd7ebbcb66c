package peers

import (
	"strings"

	"github.com/mosaicnetworks/sourcechain/src/crypto/keys"
)

// Peer is another agent's node, identified by the agent's public key.
type Peer struct {
	NetAddr   string
	PubKeyHex string
	Moniker   string
}

// NewPeer ...
func NewPeer(pubKeyHex, netAddr, moniker string) *Peer {
	return &Peer{
		PubKeyHex: normalizeKey(pubKeyHex),
		NetAddr:   netAddr,
		Moniker:   moniker,
	}
}

// ID is the agent identity of the peer, as found in header provenances.
func (p *Peer) ID() string {
	return p.PubKeyHex
}

// Verify checks that the peer's public key parses.
func (p *Peer) Verify() error {
	_, err := keys.ParsePublicKeyHex(p.PubKeyHex)
	return err
}

// normalizeKey standardises a public key string to the format derived from
// a private key.
func normalizeKey(pubKeyHex string) string {
	return "0X" + strings.TrimPrefix(strings.ToUpper(pubKeyHex), "0X")
}

// ExcludePeer is used to exclude a single peer from a list of peers.
func ExcludePeer(peers []*Peer, netAddr string) (int, []*Peer) {
	index := -1
	otherPeers := make([]*Peer, 0, len(peers))
	for i, p := range peers {
		if p.NetAddr != netAddr {
			otherPeers = append(otherPeers, p)
		} else {
			index = i
		}
	}
	return index, otherPeers
}
