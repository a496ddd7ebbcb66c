package node

import (
	"testing"

	"github.com/mosaicnetworks/sourcechain/src/peers"
	"github.com/stretchr/testify/assert"
)

func TestRandomPeerSelector(t *testing.T) {
	peerSet := peers.NewPeerSet([]*peers.Peer{
		peers.NewPeer("0xaa", "addr0", "self"),
		peers.NewPeer("0xbb", "addr1", "b"),
		peers.NewPeer("0xcc", "addr2", "c"),
		peers.NewPeer("0xdd", "addr3", "d"),
	})

	ps := NewRandomPeerSelector(peerSet, "addr0")

	order := ps.Order()
	assert.Len(t, order, 3)
	for _, p := range order {
		assert.NotEqual(t, "addr0", p.NetAddr)
	}

	ps.UpdateLast("addr2")
	for i := 0; i < 10; i++ {
		assert.Equal(t, "addr2", ps.Order()[0].NetAddr)
	}
}
