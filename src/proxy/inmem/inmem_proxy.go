package inmem

import (
	"github.com/mosaicnetworks/sourcechain/src/proxy"
	"github.com/mosaicnetworks/sourcechain/src/validation"
	"github.com/sirupsen/logrus"
)

//InmemProxy implements the AppProxy interface natively
type InmemProxy struct {
	handler proxy.ValidationHandler
	logger  *logrus.Entry
}

// NewInmemProxy instantiates an InmemProxy from a handler.
// If no logger, a new one is created
func NewInmemProxy(handler proxy.ValidationHandler, logger *logrus.Entry) *InmemProxy {
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	return &InmemProxy{
		handler: handler,
		logger:  logger,
	}
}

//Validate calls the validateHandler
func (p *InmemProxy) Validate(req proxy.ValidateRequest) (validation.Result, error) {
	result, err := p.handler.ValidateHandler(req)

	p.logger.WithFields(logrus.Fields{
		"entry_type": req.Entry.Type,
		"lifecycle":  req.Data.Lifecycle,
		"action":     req.Data.Action,
		"result":     result.Kind,
		"err":        err,
	}).Debug("InmemProxy.Validate")

	return result, err
}
