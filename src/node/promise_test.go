package node

import (
	"errors"
	"testing"

	"github.com/mosaicnetworks/sourcechain/src/net"
)

func TestFetchPromiseFirstWriterWins(t *testing.T) {
	p := NewFetchPromise()

	if !p.Resolve(fetchResult{resp: net.FetchResponse{Found: true}}) {
		t.Fatal("first resolve should win")
	}
	if p.Resolve(fetchResult{err: errors.New("timeout")}) {
		t.Fatal("second resolve should be a no-op")
	}

	res := <-p.respCh
	if res.err != nil || !res.resp.Found {
		t.Fatalf("the first result should be kept, got %+v", res)
	}

	if NewFetchPromise().RequestID == p.RequestID {
		t.Fatal("request ids should be unique")
	}
}
