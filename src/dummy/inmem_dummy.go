package dummy

import (
	"github.com/mosaicnetworks/sourcechain/src/proxy/inmem"
	"github.com/sirupsen/logrus"
)

// InmemDummyClient is an in-memory implementation of the dummy app. It
// implements the AppProxy interface, and can be passed to the node directly.
type InmemDummyClient struct {
	*inmem.InmemProxy
	*State
	logger *logrus.Entry
}

//NewInmemDummyClient instantiates an InmemDummyClient
func NewInmemDummyClient(logger *logrus.Entry) *InmemDummyClient {
	state := NewState(logger)

	return &InmemDummyClient{
		InmemProxy: inmem.NewInmemProxy(state, logger),
		State:      state,
		logger:     logger,
	}
}
