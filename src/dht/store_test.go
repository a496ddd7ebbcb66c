package dht

import (
	"testing"
	"time"

	"github.com/mosaicnetworks/sourcechain/src/cas"
	cm "github.com/mosaicnetworks/sourcechain/src/common"
	"github.com/mosaicnetworks/sourcechain/src/entry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// header builds an unsigned header for e; the store does not check
// provenances.
func header(e *entry.Entry, link, linkUpdateDelete cas.Address) entry.ChainHeader {
	return entry.ChainHeader{
		EntryType:        e.Type,
		EntryAddress:     e.Address(),
		Link:             link,
		LinkUpdateDelete: linkUpdateDelete,
		Timestamp:        time.Now().UnixNano(),
	}
}

func newStore(t *testing.T) *Store {
	return NewInmemStore(cm.NewTestEntry(t, cm.TestLogLevel))
}

func TestHoldEntry(t *testing.T) {
	s := newStore(t)

	post := entry.NewAppEntry("post", "hello")
	h := header(post, "", "")
	require.NoError(t, s.HoldEntry(post, h))

	got, found, err := s.Get(post.Address())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, post.Address(), got.Address())

	ok, err := s.Contains(h.Address())
	require.NoError(t, err)
	assert.True(t, ok, "header entry should be stored")

	headers, err := s.Headers(post.Address())
	require.NoError(t, err)
	require.Len(t, headers, 1)
	assert.True(t, headers[0].Equals(h))

	status, err := s.CrudStatus(post.Address())
	require.NoError(t, err)
	assert.Equal(t, Live, status)

	// holding again does not duplicate the header index
	require.NoError(t, s.HoldEntry(post, h))
	headers, err = s.Headers(post.Address())
	require.NoError(t, err)
	assert.Len(t, headers, 1)

	_, found, err = s.Get("0XMISSING")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUpdateEntry(t *testing.T) {
	s := newStore(t)

	v1 := entry.NewAppEntry("post", "v1")
	h1 := header(v1, "", "")
	v2 := entry.NewAppEntry("post", "v2")
	h2 := header(v2, h1.Address(), v1.Address())

	err := s.UpdateEntry(v2, h2)
	assert.True(t, cm.Is(err, cm.MissingData), "updating an entry that is not held: %v", err)

	require.NoError(t, s.HoldEntry(v1, h1))
	require.NoError(t, s.UpdateEntry(v2, h2))

	status, err := s.CrudStatus(v1.Address())
	require.NoError(t, err)
	assert.Equal(t, Modified, status)

	link, err := s.CrudLink(v1.Address())
	require.NoError(t, err)
	assert.Equal(t, v2.Address(), link)

	status, err = s.CrudStatus(v2.Address())
	require.NoError(t, err)
	assert.Equal(t, Live, status)
}

func TestRemoveEntry(t *testing.T) {
	s := newStore(t)

	post := entry.NewAppEntry("post", "bye")
	h := header(post, "", "")
	require.NoError(t, s.HoldEntry(post, h))

	del := entry.NewDeletionEntry(post.Address())
	dh := header(del, h.Address(), post.Address())
	require.NoError(t, s.RemoveEntry(del, dh))

	status, err := s.CrudStatus(post.Address())
	require.NoError(t, err)
	assert.Equal(t, Deleted, status)

	link, err := s.CrudLink(post.Address())
	require.NoError(t, err)
	assert.Equal(t, del.Address(), link)

	// deleting twice is rejected
	err = s.RemoveEntry(del, dh)
	assert.True(t, cm.Is(err, cm.ValidationFailed), "second deletion: %v", err)

	// system entries cannot be deleted
	agent := entry.NewAgentIDEntry("alice", "0XKEY")
	ah := header(agent, "", "")
	require.NoError(t, s.HoldEntry(agent, ah))
	delAgent := entry.NewDeletionEntry(agent.Address())
	err = s.RemoveEntry(delAgent, header(delAgent, ah.Address(), agent.Address()))
	assert.True(t, cm.Is(err, cm.ValidationFailed), "deleting a system entry: %v", err)

	// missing deletion link
	err = s.RemoveEntry(del, header(del, "", ""))
	assert.True(t, cm.Is(err, cm.ValidationFailed), "missing deletion link: %v", err)
}

func TestLinks(t *testing.T) {
	s := newStore(t)

	base := entry.NewAppEntry("person", "alice")
	target := entry.NewAppEntry("post", "first")
	other := entry.NewAppEntry("post", "second")

	addLink := entry.NewLinkAddEntry(base.Address(), target.Address(), "wrote", "2019")
	err := s.AddLink(addLink, header(addLink, "", ""))
	assert.True(t, cm.Is(err, cm.MissingData), "link without base: %v", err)

	for _, e := range []*entry.Entry{base, target, other} {
		require.NoError(t, s.HoldEntry(e, header(e, "", "")))
	}

	require.NoError(t, s.AddLink(addLink, header(addLink, "", "")))
	addOther := entry.NewLinkAddEntry(base.Address(), other.Address(), "wrote", "2020")
	require.NoError(t, s.AddLink(addOther, header(addOther, "", "")))

	links, err := s.Links(base.Address(), "wrote", "")
	require.NoError(t, err)
	assert.Len(t, links, 2)

	links, err = s.Links(base.Address(), "wrote", "2019")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, target.Address(), links[0].Target)
	assert.Equal(t, addLink.Address(), links[0].LinkAddAddress)

	links, err = s.Links(base.Address(), "likes", "")
	require.NoError(t, err)
	assert.Empty(t, links)

	remove := entry.NewLinkRemoveEntry(*addLink.LinkAdd, []cas.Address{addLink.Address()})
	require.NoError(t, s.RemoveLink(remove, header(remove, "", "")))

	links, err = s.Links(base.Address(), "wrote", "")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, other.Address(), links[0].Target)
}

func TestMarkHeld(t *testing.T) {
	s := newStore(t)

	post := entry.NewAppEntry("post", "held")
	h := header(post, "", "")
	a := entry.NewContentAspect(post, h)

	assert.False(t, s.IsHolding(a))
	s.MarkHeld(a)
	s.MarkHeld(a)
	assert.True(t, s.IsHolding(a))

	snap := s.Snapshot()
	assert.Len(t, snap.Holding[post.Address()], 1)
}

func TestPendingSet(t *testing.T) {
	s := newStore(t)

	base := entry.NewAppEntry("person", "bob")
	link := entry.NewLinkAddEntry(base.Address(), base.Address(), "self", "")
	h := header(link, "", "")
	a := entry.NewLinkAddAspect(*link.LinkAdd, h)

	p := NewPendingValidation(a, link, h, HoldLink, []cas.Address{base.Address()})
	s.AddPending(p)
	require.True(t, s.IsPending(p.Key()))

	next := time.Now().Add(time.Minute)
	s.Reschedule(p.Key(), 3, next)

	// re-adding keeps the schedule
	s.AddPending(NewPendingValidation(a, link, h, HoldLink, nil))
	pending := s.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, 3, pending[0].Attempts)
	assert.True(t, pending[0].NextAttempt.Equal(next))
	assert.Empty(t, pending[0].Dependencies)

	// another workflow on the same aspect is tracked separately
	s.AddPending(NewPendingValidation(a, link, h, HoldEntry, nil))
	assert.Len(t, s.Pending(), 2)

	s.RemovePending(p.Key())
	assert.False(t, s.IsPending(p.Key()))
	assert.Len(t, s.Snapshot().Pending, 1)
}

func TestWorkflowFor(t *testing.T) {
	post := entry.NewAppEntry("post", "x")
	h := header(post, "", "")

	w, err := WorkflowFor(entry.NewContentAspect(post, h))
	require.NoError(t, err)
	assert.Equal(t, HoldEntry, w)

	_, err = WorkflowFor(entry.NewHeaderAspect(h))
	assert.True(t, cm.Is(err, cm.NotImplemented))

	_, err = WorkflowFor(entry.NewDeletionAspect(h))
	assert.True(t, cm.Is(err, cm.ValidationFailed))

	w, err = ParseWorkflowKind("RemoveLink")
	require.NoError(t, err)
	assert.Equal(t, RemoveLink, w)

	_, err = ParseWorkflowKind("Nope")
	assert.Error(t, err)
}
