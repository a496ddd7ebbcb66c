package node

import (
	"math/rand"
	"sync"

	"github.com/mosaicnetworks/sourcechain/src/peers"
)

//PeerSelector defines an interface for Peer Selectors
type PeerSelector interface {
	Peers() *peers.PeerSet
	UpdateLast(peer string)
	Order() []*peers.Peer
}

//+++++++++++++++++++++++++++++++++++++++
//RANDOM

//RandomPeerSelector asks the other peers in a random order. The peer that
//answered last is tried first, since it is likely to hold neighbouring
//entries of the same chain.
type RandomPeerSelector struct {
	sync.Mutex
	peers           *peers.PeerSet
	selfAddr        string
	selectablePeers []*peers.Peer
	last            string
}

//NewRandomPeerSelector is a factory method that returns a new instance of
//RandomPeerSelector
func NewRandomPeerSelector(peerSet *peers.PeerSet, selfAddr string) *RandomPeerSelector {
	return &RandomPeerSelector{
		peers:           peerSet,
		selfAddr:        selfAddr,
		selectablePeers: peerSet.Others(selfAddr),
	}
}

//Peers returns a set of peers
func (ps *RandomPeerSelector) Peers() *peers.PeerSet {
	return ps.peers
}

//UpdateLast sets the last peer
func (ps *RandomPeerSelector) UpdateLast(peer string) {
	ps.Lock()
	ps.last = peer
	ps.Unlock()
}

//Order returns every selectable peer, shuffled, with the last peer first
func (ps *RandomPeerSelector) Order() []*peers.Peer {
	ps.Lock()
	last := ps.last
	ps.Unlock()

	order := make([]*peers.Peer, len(ps.selectablePeers))
	copy(order, ps.selectablePeers)
	rand.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	for i, p := range order {
		if p.NetAddr == last {
			order[0], order[i] = order[i], order[0]
			break
		}
	}

	return order
}
