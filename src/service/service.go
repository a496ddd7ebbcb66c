package service

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/mosaicnetworks/sourcechain/src/cas"
	cm "github.com/mosaicnetworks/sourcechain/src/common"
	"github.com/mosaicnetworks/sourcechain/src/entry"
	"github.com/mosaicnetworks/sourcechain/src/node"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Service exposes a node over HTTP.
type Service struct {
	sync.Mutex

	bindAddress string
	node        *node.Node
	mux         *http.ServeMux
	logger      *logrus.Entry
}

// NewService ...
func NewService(bindAddress string, n *node.Node, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		node:        n,
		mux:         http.NewServeMux(),
		logger:      logger,
	}

	service.registerHandlers()

	return &service
}

// registerHandlers registers the API handlers on the service's own mux, so
// that several nodes can run in the same process.
func (s *Service) registerHandlers() {
	s.logger.Debug("Registering sourcechain API handlers")
	s.mux.HandleFunc("/stats", s.makeHandler(s.GetStats))
	s.mux.HandleFunc("/chain", s.makeHandler(s.GetChain))
	s.mux.HandleFunc("/entry/", s.makeHandler(s.GetEntry))
	s.mux.HandleFunc("/links/", s.makeHandler(s.GetLinks))
	s.mux.HandleFunc("/peers", s.makeHandler(s.GetPeers))
	s.mux.HandleFunc("/commit", s.Commit)
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Handler returns the service's mux.
func (s *Service) Handler() http.Handler {
	return s.mux
}

// Serve calls ListenAndServe. This is a blocking call.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving sourcechain API")

	err := http.ListenAndServe(s.bindAddress, s.mux)
	if err != nil {
		s.logger.Error(err)
	}
}

// GetStats ...
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.node.GetStats())
}

// GetChain returns the agent's headers, newest first.
func (s *Service) GetChain(w http.ResponseWriter, r *http.Request) {
	headers, err := s.node.GetChain()
	if err != nil {
		s.logger.WithError(err).Error("Retrieving chain")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, headers)
}

// GetEntry ...
func (s *Service) GetEntry(w http.ResponseWriter, r *http.Request) {
	address := cas.Address(r.URL.Path[len("/entry/"):])

	e, err := s.node.GetEntry(address)
	if err != nil {
		if cm.IsStore(err, cm.KeyNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		s.logger.WithError(err).Errorf("Retrieving entry %s", address)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, e)
}

// GetLinks returns the live links from a base entry. The optional type and
// tag query parameters filter them.
func (s *Service) GetLinks(w http.ResponseWriter, r *http.Request) {
	base := cas.Address(r.URL.Path[len("/links/"):])
	q := r.URL.Query()

	links, err := s.node.GetLinks(base, q.Get("type"), q.Get("tag"))
	if err != nil {
		s.logger.WithError(err).Errorf("Retrieving links of %s", base)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, links)
}

// GetPeers ...
func (s *Service) GetPeers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.node.GetPeers())
}

// Commit authors the posted entry. The optional replaces query parameter is
// the address of the entry it updates.
func (s *Service) Commit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "commit requires POST", http.StatusMethodNotAllowed)
		return
	}

	var e entry.Entry
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	replaces := cas.Address(strings.TrimSpace(r.URL.Query().Get("replaces")))

	address, err := s.node.Commit(r.Context(), &e, replaces)
	if err != nil {
		status := http.StatusInternalServerError
		if cm.Is(err, cm.ValidationFailed) || cm.Is(err, cm.SerializationError) {
			status = http.StatusUnprocessableEntity
		}
		s.logger.WithError(err).WithField("type", e.Type).Warn("Commit")
		if address.IsEmpty() {
			http.Error(w, err.Error(), status)
			return
		}
	}

	writeJSON(w, map[string]string{"address": string(address)})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
