package validation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mosaicnetworks/sourcechain/src/cas"
	"github.com/mosaicnetworks/sourcechain/src/chain"
	cm "github.com/mosaicnetworks/sourcechain/src/common"
	"github.com/mosaicnetworks/sourcechain/src/crypto/keys"
	"github.com/mosaicnetworks/sourcechain/src/entry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFetcher serves entries out of a CAS, except the ones it is told to
// drop or stall on.
type storeFetcher struct {
	store   cas.Store
	dropped map[cas.Address]bool
	stalled map[cas.Address]bool
	calls   int
}

func (f *storeFetcher) FetchEntry(ctx context.Context, address cas.Address) (*entry.Entry, error) {
	f.calls++
	if f.stalled[address] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.dropped[address] {
		return nil, nil
	}
	e, err := entry.Fetch(f.store, address)
	if cm.IsStore(err, cm.KeyNotFound) {
		return nil, nil
	}
	return e, err
}

func testDNA() *entry.DNA {
	dna := entry.NewDNA("test")
	dna.EntryTypes["post"] = entry.EntryTypeDef{Sharing: entry.Public}
	dna.EntryTypes["secret"] = entry.EntryTypeDef{Sharing: entry.Private}
	return dna
}

// buildChain commits the given entry types and returns the chain with the
// header of one more, uncommitted, post.
func buildChain(t *testing.T, types ...entry.EntryType) (*chain.Chain, entry.ChainHeader) {
	key, err := keys.GenerateECDSAKey()
	require.NoError(t, err)

	c := chain.NewChain(chain.NewStore(cas.NewInmemStore()))
	for i, et := range types {
		e := entry.NewAppEntry(et, fmt.Sprintf("entry %d", i))
		h, err := c.NewHeader(e, key, "", int64(i))
		require.NoError(t, err)
		require.NoError(t, c.Commit(e, h))
	}

	target := entry.NewAppEntry("post", "target")
	h, err := c.NewHeader(target, key, "", int64(len(types)))
	require.NoError(t, err)
	return c, h
}

func TestBuildLocal(t *testing.T) {
	c, header := buildChain(t, "post", "secret", "post")
	dna := testDNA()

	p, err := BuildLocal(c.Store(), header, Definition{Kind: Entry}, dna)
	require.NoError(t, err)
	assert.Equal(t, header, p.ChainHeader)
	assert.Nil(t, p.SourceChainHeaders)
	assert.Nil(t, p.SourceChainEntries)

	p, err = BuildLocal(c.Store(), header, Definition{Kind: ChainHeaders}, dna)
	require.NoError(t, err)
	assert.Len(t, p.SourceChainHeaders, 3)
	assert.Nil(t, p.SourceChainEntries)

	p, err = BuildLocal(c.Store(), header, Definition{Kind: ChainEntries}, dna)
	require.NoError(t, err)
	assert.Nil(t, p.SourceChainHeaders)
	require.Len(t, p.SourceChainEntries, 2, "private entries stay out of packages")
	assert.Equal(t, "entry 2", p.SourceChainEntries[0].Value)
	assert.Equal(t, "entry 0", p.SourceChainEntries[1].Value)

	p, err = BuildLocal(c.Store(), header, Definition{Kind: ChainFull}, dna)
	require.NoError(t, err)
	assert.Len(t, p.SourceChainHeaders, 3)
	assert.Len(t, p.SourceChainEntries, 2)

	p, err = BuildLocal(c.Store(), header, Definition{Kind: Custom, Custom: "anything"}, dna)
	require.NoError(t, err)
	assert.Equal(t, "anything", p.Custom)
	assert.Nil(t, p.SourceChainHeaders)
}

func TestBuildLocalEmptyChain(t *testing.T) {
	c, header := buildChain(t)

	p, err := BuildLocal(c.Store(), header, Definition{Kind: ChainFull}, testDNA())
	require.NoError(t, err)
	assert.NotNil(t, p.SourceChainHeaders)
	assert.Empty(t, p.SourceChainHeaders)
	assert.Empty(t, p.SourceChainEntries)
}

func TestPackageEquivalence(t *testing.T) {
	c, header := buildChain(t, "post", "secret", "post", "post")
	dna := testDNA()
	fetcher := &storeFetcher{store: c.Store().CAS()}

	defs := []Definition{
		{Kind: Entry},
		{Kind: ChainEntries},
		{Kind: ChainHeaders},
		{Kind: ChainFull},
		{Kind: Custom, Custom: "custom"},
	}

	for _, def := range defs {
		t.Run(string(def.Kind), func(t *testing.T) {
			local, err := BuildLocal(c.Store(), header, def, dna)
			require.NoError(t, err)

			remote, err := BuildFromDHT(context.Background(), fetcher, header, def, dna, time.Second)
			require.NoError(t, err)

			assert.Equal(t, local, remote)
		})
	}
}

func TestBuildFromDHTMissingHeader(t *testing.T) {
	c, header := buildChain(t, "post", "post", "post")
	headers, err := c.Headers()
	require.NoError(t, err)

	missing := headers[1].Address()
	fetcher := &storeFetcher{
		store:   c.Store().CAS(),
		dropped: map[cas.Address]bool{missing: true},
	}

	_, err = BuildFromDHT(context.Background(), fetcher, header, Definition{Kind: ChainHeaders}, testDNA(), time.Second)
	require.Error(t, err)
	assert.True(t, cm.Is(err, cm.MissingData))
	assert.Contains(t, err.Error(), "could not retrieve a header entry at address "+string(missing))
}

func TestBuildFromDHTNotAHeader(t *testing.T) {
	c, header := buildChain(t, "post")
	headers, err := c.Headers()
	require.NoError(t, err)

	// point the backlink at the entry rather than its header
	header.Link = headers[0].EntryAddress
	fetcher := &storeFetcher{store: c.Store().CAS()}

	_, err = BuildFromDHT(context.Background(), fetcher, header, Definition{Kind: ChainHeaders}, testDNA(), time.Second)
	require.Error(t, err)
	assert.True(t, cm.Is(err, cm.MissingData))
	assert.Contains(t, err.Error(), string(headers[0].EntryAddress))
}

func TestBuildFromDHTTimeout(t *testing.T) {
	c, header := buildChain(t, "post", "post")
	headers, err := c.Headers()
	require.NoError(t, err)

	stalled := headers[1].Address()
	fetcher := &storeFetcher{
		store:   c.Store().CAS(),
		stalled: map[cas.Address]bool{stalled: true},
	}

	start := time.Now()
	_, err = BuildFromDHT(context.Background(), fetcher, header, Definition{Kind: ChainFull}, testDNA(), 50*time.Millisecond)
	require.Error(t, err)
	assert.True(t, cm.Is(err, cm.Timeout))
	assert.Contains(t, err.Error(), string(stalled))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestBuildFromDHTSkipsTraversal(t *testing.T) {
	c, header := buildChain(t, "post", "post")
	fetcher := &storeFetcher{store: c.Store().CAS()}

	p, err := BuildFromDHT(context.Background(), fetcher, header, Definition{Kind: Custom, Custom: "x"}, testDNA(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "x", p.Custom)
	assert.Zero(t, fetcher.calls)
}

func TestResultErr(t *testing.T) {
	assert.NoError(t, OkResult().Err("0X01"))
	assert.NoError(t, Result{Kind: NotImplemented}.Err("0X01"))

	err := FailResult("bad").Err("0X01")
	assert.True(t, cm.Is(err, cm.ValidationFailed))

	err = Result{Kind: UnresolvedDependencies, Dependencies: []cas.Address{"0X02"}}.Err("0X01")
	require.True(t, cm.Is(err, cm.ValidationPending))
	coreErr, _ := cm.AsCore(err)
	assert.Equal(t, []string{"0X02"}, coreErr.Dependencies)
}

func TestActionFor(t *testing.T) {
	assert.Equal(t, Create, ActionFor(entry.NewAppEntry("post", "x"), entry.ChainHeader{}))
	assert.Equal(t, Modify, ActionFor(entry.NewAppEntry("post", "x"), entry.ChainHeader{LinkUpdateDelete: "0X01"}))
	assert.Equal(t, Delete, ActionFor(entry.NewDeletionEntry("0X01"), entry.ChainHeader{}))
	assert.Equal(t, Link, ActionFor(entry.NewLinkAddEntry("0X01", "0X02", "", ""), entry.ChainHeader{}))
}
