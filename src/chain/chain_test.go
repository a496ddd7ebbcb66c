package chain

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/mosaicnetworks/sourcechain/src/cas"
	cm "github.com/mosaicnetworks/sourcechain/src/common"
	"github.com/mosaicnetworks/sourcechain/src/crypto/keys"
	"github.com/mosaicnetworks/sourcechain/src/entry"
)

func initChain(t *testing.T, types ...entry.EntryType) (*Chain, []entry.ChainHeader) {
	key, err := keys.GenerateECDSAKey()
	if err != nil {
		t.Fatal(err)
	}

	c := NewChain(NewStore(cas.NewInmemStore()))

	headers := []entry.ChainHeader{}
	for i, et := range types {
		e := entry.NewAppEntry(et, fmt.Sprintf("entry %d", i))
		h, err := c.NewHeader(e, key, "", int64(i))
		if err != nil {
			t.Fatal(err)
		}
		if err := c.Commit(e, h); err != nil {
			t.Fatal(err)
		}
		headers = append(headers, h)
	}

	return c, headers
}

func reversed(hs []entry.ChainHeader) []entry.ChainHeader {
	res := make([]entry.ChainHeader, len(hs))
	for i, h := range hs {
		res[len(hs)-1-i] = h
	}
	return res
}

func TestIter(t *testing.T) {
	c, headers := initChain(t, "post", "comment", "post", "post", "comment")

	got, err := c.Store().Iter(c.Top()).Collect()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, reversed(headers)) {
		t.Fatalf("iter should yield every header newest first")
	}
	if !got[len(got)-1].Link.IsEmpty() {
		t.Fatalf("iter should end at a header without backlink")
	}
	if c.Length() != len(headers) {
		t.Fatalf("length should be %d, not %d", len(headers), c.Length())
	}

	empty, err := c.Store().Iter(nil).Collect()
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Fatalf("iter from nothing should be empty")
	}
}

func TestIterType(t *testing.T) {
	c, headers := initChain(t, "post", "comment", "post", "post", "comment")

	for _, et := range []entry.EntryType{"post", "comment"} {
		expected := []entry.ChainHeader{}
		for _, h := range reversed(headers) {
			if h.EntryType == et {
				expected = append(expected, h)
			}
		}

		it := c.Store().IterType(c.Top(), et)
		got, err := it.Collect()
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, expected) {
			t.Fatalf("%s: expected %d headers, got %d", et, len(expected), len(got))
		}

		it.Reset()
		again, err := it.Collect()
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(again, expected) {
			t.Fatalf("%s: iteration after reset differs", et)
		}
	}

	none, err := c.Store().IterType(c.Top(), "missing").Collect()
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Fatalf("no header has type missing")
	}
}

func TestQuery(t *testing.T) {
	c, headers := initChain(t, "post", "comment", "post", "post")

	all, err := c.Store().Query(c.Top(), "post", 0)
	if err != nil {
		t.Fatal(err)
	}
	expected := []cas.Address{headers[3].EntryAddress, headers[2].EntryAddress, headers[0].EntryAddress}
	if !reflect.DeepEqual(all, expected) {
		t.Fatalf("unexpected query result %v", all)
	}

	limited, err := c.Store().Query(c.Top(), "post", 2)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(limited, expected[:2]) {
		t.Fatalf("unexpected limited query result %v", limited)
	}
}

func TestBrokenChain(t *testing.T) {
	c, headers := initChain(t, "post")

	dangling := headers[0]
	dangling.Link = "0XMISSING"

	it := c.Store().Iter(&dangling)
	if !it.Next() {
		t.Fatal("the start header should be yielded")
	}
	if it.Next() {
		t.Fatal("iteration should stop at the missing header")
	}
	if !cm.Is(it.Err(), cm.MissingData) {
		t.Fatalf("a missing header should be MissingData, got %v", it.Err())
	}

	// A link to an entry that is not a header is just as broken.
	notHeader := headers[0]
	notHeader.Link = headers[0].EntryAddress
	if _, err := c.Store().Iter(&notHeader).Collect(); !cm.Is(err, cm.MissingData) {
		t.Fatalf("expected MissingData, got %v", err)
	}
}

func TestCommitMustExtendTop(t *testing.T) {
	key, _ := keys.GenerateECDSAKey()
	c := NewChain(NewStore(cas.NewInmemStore()))

	first := entry.NewAppEntry("post", "first")
	stale, err := c.NewHeader(first, key, "", 0)
	if err != nil {
		t.Fatal(err)
	}

	second := entry.NewAppEntry("post", "second")
	h, _ := c.NewHeader(second, key, "", 1)
	if err := c.Commit(second, h); err != nil {
		t.Fatal(err)
	}

	if err := c.Commit(first, stale); err == nil {
		t.Fatal("a header built off a stale top should be rejected")
	}
	if ok, _ := c.Contains(first.Address()); ok {
		t.Fatal("a rejected commit should not write the entry")
	}
}

func TestLoadChain(t *testing.T) {
	c, headers := initChain(t, "post", "comment", "post")

	loaded, err := LoadChain(c.Store(), c.Snapshot().TopAddress())
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Length() != 3 {
		t.Fatalf("loaded length should be 3, not %d", loaded.Length())
	}
	if loaded.Snapshot().TopByType["post"] != headers[2].Address() {
		t.Fatal("loaded post top should be the last post header")
	}
	if loaded.Snapshot().TopByType["comment"] != headers[1].Address() {
		t.Fatal("loaded comment top should be the comment header")
	}
}
