package consistency

import (
	"testing"

	cm "github.com/mosaicnetworks/sourcechain/src/common"
	"github.com/mosaicnetworks/sourcechain/src/entry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDNA() *entry.DNA {
	dna := entry.NewDNA("test")
	dna.EntryTypes["post"] = entry.EntryTypeDef{Sharing: entry.Public}
	dna.EntryTypes["diary"] = entry.EntryTypeDef{Sharing: entry.Private}
	return dna
}

func headerFor(e *entry.Entry) entry.ChainHeader {
	return entry.ChainHeader{EntryType: e.Type, EntryAddress: e.Address(), Timestamp: 1}
}

func TestCommitThenPublish(t *testing.T) {
	sink := make(chan Signal, 10)
	m := NewModel(testDNA(), sink, cm.NewTestEntry(t, cm.TestLogLevel))

	post := entry.NewAppEntry("post", "hello")
	h := headerFor(post)

	assert.Empty(t, m.Process(Commit{Entry: post, Header: h}))
	assert.Equal(t, 1, m.Cached())

	signals := m.Process(Publish{Address: post.Address()})
	require.Len(t, signals, 1)

	content := entry.NewContentAspect(post, h)
	s := signals[0]
	assert.Equal(t, PublishAspect, s.Event.Kind)
	assert.Equal(t, content.Address(), s.Event.AspectAddress)
	require.Len(t, s.Pending, 1)
	assert.Equal(t, Validators, s.Pending[0].Group)
	assert.Equal(t, HoldAspect, s.Pending[0].Event.Kind)
	assert.Equal(t, post.Address(), s.Pending[0].Event.EntryAddress)

	assert.Equal(t, 0, m.Cached())
	assert.Len(t, sink, 1)

	// a second publish finds nothing cached
	assert.Empty(t, m.Process(Publish{Address: post.Address()}))
}

func TestLinkCommitExpectsMetaAspect(t *testing.T) {
	m := NewModel(testDNA(), nil, cm.NewTestEntry(t, cm.TestLogLevel))

	base := entry.NewAppEntry("post", "base")
	link := entry.NewLinkAddEntry(base.Address(), base.Address(), "self", "")
	m.Process(Commit{Entry: link, Header: headerFor(link)})

	signals := m.Process(Publish{Address: link.Address()})
	require.Len(t, signals, 2)
	assert.Equal(t, link.Address(), signals[0].Event.EntryAddress)
	assert.Equal(t, base.Address(), signals[1].Event.EntryAddress)
}

func TestPrivateCommitIsNotCached(t *testing.T) {
	m := NewModel(testDNA(), nil, cm.NewTestEntry(t, cm.TestLogLevel))

	diary := entry.NewAppEntry("diary", "secret")
	m.Process(Commit{Entry: diary, Header: headerFor(diary)})
	assert.Equal(t, 0, m.Cached())
}

func TestTracker(t *testing.T) {
	m := NewModel(testDNA(), nil, cm.NewTestEntry(t, cm.TestLogLevel))
	tracker := NewTracker()

	post := entry.NewAppEntry("post", "tracked")
	h := headerFor(post)
	m.Process(Commit{Entry: post, Header: h})

	// the hold can be observed before the publish
	tracker.Observe(m.Process(Hold{Aspect: entry.NewContentAspect(post, h)})...)
	assert.True(t, tracker.Consistent())

	tracker.Observe(m.Process(Publish{Address: post.Address()})...)
	assert.True(t, tracker.Consistent())

	other := entry.NewAppEntry("post", "not held")
	m.Process(Commit{Entry: other, Header: headerFor(other)})
	tracker.Observe(m.Process(Publish{Address: other.Address()})...)
	outstanding := tracker.Outstanding()
	require.Len(t, outstanding, 1)
	assert.Equal(t, other.Address(), outstanding[0].Event.EntryAddress)
}
