package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mosaicnetworks/sourcechain/src/cas"
	"github.com/mosaicnetworks/sourcechain/src/chain"
	cm "github.com/mosaicnetworks/sourcechain/src/common"
	"github.com/mosaicnetworks/sourcechain/src/config"
	"github.com/mosaicnetworks/sourcechain/src/crypto/keys"
	"github.com/mosaicnetworks/sourcechain/src/dht"
	"github.com/mosaicnetworks/sourcechain/src/entry"
	"github.com/mosaicnetworks/sourcechain/src/net"
	"github.com/mosaicnetworks/sourcechain/src/node"
	"github.com/mosaicnetworks/sourcechain/src/peers"
	"github.com/mosaicnetworks/sourcechain/src/proxy"
	"github.com/mosaicnetworks/sourcechain/src/proxy/inmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	key, err := keys.GenerateECDSAKey()
	require.NoError(t, err)
	agent := node.NewAgent(key, "solo")

	conf := config.NewTestConfig(t, cm.TestLogLevel)
	logger := conf.Logger()

	addr, trans := net.NewInmemTransport("")
	peerSet := peers.NewPeerSet([]*peers.Peer{peers.NewPeer(agent.ID(), addr, "solo")})

	dna := entry.NewDNA("test")
	dna.EntryTypes["note"] = entry.EntryTypeDef{Sharing: entry.Public}

	n := node.NewNode(conf, agent, dna, peerSet,
		chain.NewChain(chain.NewStore(cas.NewInmemStore())),
		dht.NewInmemStore(logger),
		trans,
		inmem.NewInmemProxy(proxy.AcceptAll, logger))
	require.NoError(t, n.Init())
	n.RunAsync()
	t.Cleanup(n.Shutdown)

	return NewService("", n, logger)
}

func get(t *testing.T, s *Service, path string, out interface{}) int {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
	}
	return rec.Code
}

func TestCommitAndRead(t *testing.T) {
	s := newTestService(t)

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"type":"note","value":"hello"}`)
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/commit", body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var committed map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&committed))
	address := committed["address"]
	assert.Equal(t, string(entry.NewAppEntry("note", "hello").Address()), address)

	var e entry.Entry
	require.Equal(t, http.StatusOK, get(t, s, "/entry/"+address, &e))
	assert.Equal(t, "hello", e.Value)

	var headers []entry.ChainHeader
	require.Equal(t, http.StatusOK, get(t, s, "/chain", &headers))
	// the note on top of the agent and DNA entries
	require.Len(t, headers, 3)
	assert.Equal(t, cas.Address(address), headers[0].EntryAddress)
	assert.Equal(t, entry.AgentIDType, headers[1].EntryType)
	assert.Equal(t, entry.DnaType, headers[2].EntryType)

	var stats map[string]string
	require.Equal(t, http.StatusOK, get(t, s, "/stats", &stats))
	assert.Equal(t, "3", stats["chain_length"])
	assert.Equal(t, "solo", stats["moniker"])
}

func TestErrors(t *testing.T) {
	s := newTestService(t)

	assert.Equal(t, http.StatusNotFound, get(t, s, "/entry/0XDEAD", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, get(t, s, "/commit", nil))

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"type":"%deletion"}`)
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/commit", body))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var links []dht.Link
	require.Equal(t, http.StatusOK, get(t, s, "/links/0XDEAD?type=likes", &links))
	assert.Empty(t, links)
}

func TestMetrics(t *testing.T) {
	s := newTestService(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sourcechain_pending_validations")
}
