package eav

import (
	"fmt"
	"io/ioutil"
	"os"
	"testing"

	"github.com/dgraph-io/badger"
	"github.com/mosaicnetworks/sourcechain/src/cas"
	cm "github.com/mosaicnetworks/sourcechain/src/common"
)

func initBadgerStore(t *testing.T) *BadgerStore {
	os.Mkdir("test_data", os.ModeDir|0777)
	dir, err := ioutil.TempDir("test_data", "badger")
	if err != nil {
		t.Fatal(err)
	}

	store, err := NewBadgerStore(dir, cm.NewTestEntry(t, cm.TestLogLevel))
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func removeBadgerStore(store *BadgerStore, t *testing.T) {
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(store.path); err != nil {
		t.Fatal(err)
	}
}

func add(t *testing.T, s Store, e cas.Address, a Attribute, v cas.Address, index int64) EAVI {
	stored, err := s.Add(EAVI{Entity: e, Attribute: a, Value: v, Index: index})
	if err != nil {
		t.Fatal(err)
	}
	return stored
}

func testStore(t *testing.T, s Store) {
	t.Run("IndexBump", func(t *testing.T) {
		first := add(t, s, "base", EntryHeader, "h1", 100)
		second := add(t, s, "base", EntryHeader, "h2", 100)
		if first.Index != 100 {
			t.Fatalf("first index should be 100, not %d", first.Index)
		}
		if second.Index <= first.Index {
			t.Fatalf("second index %d should be bumped past %d", second.Index, first.Index)
		}
	})

	t.Run("Range", func(t *testing.T) {
		start, end := int64(100), int64(100)
		res, err := s.Fetch(Query{
			Entities:   []cas.Address{"base"},
			Attributes: Exactly(EntryHeader),
			Index:      IndexFilter{Kind: Range, Start: &start, End: &end},
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(res) != 1 || res[0].Value != "h1" {
			t.Fatalf("range query should return h1 only, got %v", res)
		}

		res, err = s.Fetch(Query{Entities: []cas.Address{"base"}, Attributes: Exactly(EntryHeader)})
		if err != nil {
			t.Fatal(err)
		}
		if len(res) != 2 || res[0].Value != "h1" || res[1].Value != "h2" {
			t.Fatalf("unbounded query should return h1, h2 in order, got %v", res)
		}
	})

	t.Run("LatestByAttribute", func(t *testing.T) {
		add(t, s, "post", CrudStatus, "live", 200)
		add(t, s, "post", CrudStatus, "modified", 300)

		res, err := s.Fetch(Query{
			Entities:   []cas.Address{"post"},
			Attributes: Exactly(CrudStatus),
			Index:      IndexFilter{Kind: LatestByAttribute},
		})
		if err != nil {
			t.Fatal(err)
		}
		// Values differ so both groups survive; the status reader picks
		// the latest.
		if len(res) != 2 || res[1].Value != "modified" {
			t.Fatalf("expected live then modified, got %v", res)
		}
	})

	t.Run("Tombstone", func(t *testing.T) {
		add(t, s, "base", LinkTag("comment", "a"), "t1", 400)
		add(t, s, "base", LinkTag("comment", "a"), "t2", 401)
		add(t, s, "base", RemovedLink("comment", "a"), "t1", 500)
		add(t, s, "base", LinkTag("comment", "b"), "t1", 501)

		isLink := func(a Attribute) bool {
			linkType, _, _, err := ParseLinkTag(a)
			return err == nil && linkType == "comment"
		}
		isTombstone := func(a Attribute) bool {
			_, _, removed, err := ParseLinkTag(a)
			return err == nil && removed
		}

		res, err := s.Fetch(Query{
			Entities:   []cas.Address{"base"},
			Attributes: isLink,
			Index:      IndexFilter{Kind: LatestByAttribute},
			Tombstone:  isTombstone,
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(res) != 2 {
			t.Fatalf("expected 2 live links, got %v", res)
		}
		if res[0].Value != "t2" || res[0].Attribute != LinkTag("comment", "a") {
			t.Fatalf("expected t2 under tag a first, got %v", res[0])
		}
		if res[1].Value != "t1" || res[1].Attribute != LinkTag("comment", "b") {
			t.Fatalf("expected t1 under tag b second, got %v", res[1])
		}

		// Re-adding after removal revives the link.
		add(t, s, "base", LinkTag("comment", "a"), "t1", 600)
		res, _ = s.Fetch(Query{
			Entities:   []cas.Address{"base"},
			Values:     []cas.Address{"t1"},
			Attributes: isLink,
			Index:      IndexFilter{Kind: LatestByAttribute},
			Tombstone:  isTombstone,
		})
		if len(res) != 2 {
			t.Fatalf("expected the re-added link to be live, got %v", res)
		}
	})
}

func TestInmemStore(t *testing.T) {
	testStore(t, NewInmemStore())
}

func TestBadgerStore(t *testing.T) {
	store := initBadgerStore(t)
	defer removeBadgerStore(store, t)
	testStore(t, store)
}

// entityCount returns the number of triples indexed under entity.
func (s *BadgerStore) entityCount(entity cas.Address) (int, error) {
	count := 0
	prefix := entityKeyPrefix(entity)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

func TestBadgerEntityIndex(t *testing.T) {
	store := initBadgerStore(t)
	defer removeBadgerStore(store, t)

	for i := 0; i < 20; i++ {
		add(t, store, cas.Address(fmt.Sprintf("other%d", i)), EntryHeader, "h", int64(i))
	}
	add(t, store, "base", EntryHeader, "h1", 100)
	add(t, store, "base_2", EntryHeader, "h2", 101)
	add(t, store, "base", CrudStatus, "live", 102)

	count, err := store.entityCount("other7")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("other7 should have 1 indexed triple, not %d", count)
	}

	res, err := store.Fetch(Query{Entities: []cas.Address{"base", "base"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 || res[0].Value != "h1" || res[1].Value != "live" {
		t.Fatalf("expected h1 then live for base, got %v", res)
	}

	res, err = store.Fetch(Query{Entities: []cas.Address{"base_2", "other3"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 || res[0].Entity != "other3" || res[1].Entity != "base_2" {
		t.Fatalf("expected other3 then base_2 in index order, got %v", res)
	}

	res, err = store.Fetch(Query{Values: []cas.Address{"h"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 20 {
		t.Fatalf("a query without entities should scan every triple, got %d", len(res))
	}
}

func TestParseLinkTag(t *testing.T) {
	linkType, tag, removed, err := ParseLinkTag(RemovedLink("comment", "with__separator"))
	if err != nil {
		t.Fatal(err)
	}
	if linkType != "comment" || tag != "with__separator" || !removed {
		t.Fatalf("unexpected parse: %s %s %v", linkType, tag, removed)
	}

	if _, _, _, err := ParseLinkTag(CrudStatus); err == nil {
		t.Fatal("crud-status is not a link attribute")
	}
}
