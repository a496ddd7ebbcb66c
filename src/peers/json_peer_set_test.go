package peers

import (
	"fmt"
	"os"
	"reflect"
	"testing"

	"github.com/mosaicnetworks/sourcechain/src/crypto/keys"
)

func TestJSONPeerSet(t *testing.T) {
	// Create a test dir
	dir, err := os.MkdirTemp("", "sourcechain")
	if err != nil {
		t.Fatalf("err: %v ", err)
	}
	defer os.RemoveAll(dir)

	// Create the store
	store := NewJSONPeerSet(dir)

	// Try a read, should get nothing
	peerSet, err := store.PeerSet()
	if err == nil {
		t.Fatalf("store.PeerSet() should generate an error")
	}
	if peerSet != nil {
		t.Fatalf("peerSet: %v", peerSet)
	}

	peers := []*Peer{}
	for i := 0; i < 3; i++ {
		key, _ := keys.GenerateECDSAKey()
		// lower case keys are normalized on read
		pub := fmt.Sprintf("0x%x", keys.FromPublicKey(&key.PublicKey))
		peers = append(peers, &Peer{
			NetAddr:   fmt.Sprintf("addr%d", i),
			PubKeyHex: pub,
			Moniker:   fmt.Sprintf("peer%d", i),
		})
	}

	if err := store.Write(peers); err != nil {
		t.Fatalf("err: %v", err)
	}

	// Try a read, should find 3 peers
	peerSet, err = store.PeerSet()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if peerSet.Len() != 3 {
		t.Fatalf("peers: %v", peerSet)
	}

	for i, p := range peerSet.Peers {
		if p.NetAddr != peers[i].NetAddr {
			t.Fatalf("peers[%d] NetAddr should be %s, not %s", i, peers[i].NetAddr, p.NetAddr)
		}
		if p.PubKeyHex != normalizeKey(peers[i].PubKeyHex) {
			t.Fatalf("peers[%d] PubKeyHex not normalized: %s", i, p.PubKeyHex)
		}
		if err := p.Verify(); err != nil {
			t.Fatalf("peers[%d] PubKeyHex does not parse: %v", i, err)
		}
	}
}

func TestPeerSet(t *testing.T) {
	a := NewPeer("0xaa", "addr_a", "a")
	b := NewPeer("0XBB", "addr_b", "b")
	c := NewPeer("0xcc", "addr_c", "c")

	ps := NewPeerSet([]*Peer{a, b})
	if ps.Len() != 2 {
		t.Fatalf("expected 2 peers, got %d", ps.Len())
	}

	withC := ps.WithNewPeer(c)
	if withC.Len() != 3 || ps.Len() != 2 {
		t.Fatalf("WithNewPeer should not mutate the original set")
	}
	if again := withC.WithNewPeer(c); again.Len() != 3 {
		t.Fatalf("adding an existing peer should be a no-op")
	}

	reordered := NewPeerSet([]*Peer{c, b, a})
	if withC.Hex() != reordered.Hex() {
		t.Fatalf("Hex should not depend on order")
	}

	withoutB := withC.WithRemovedPeer(b)
	if !reflect.DeepEqual(withoutB.PubKeys(), []string{"0XAA", "0XCC"}) {
		t.Fatalf("unexpected keys %v", withoutB.PubKeys())
	}

	others := withC.Others("addr_a")
	if len(others) != 2 || others[0] != b || others[1] != c {
		t.Fatalf("unexpected others %v", others)
	}
}
