package proxy

import (
	"github.com/mosaicnetworks/sourcechain/src/validation"
)

// ValidationHandler encapsulates the callback called by the InmemProxy and
// the socket server. This is the contact surface between the chain and the
// application's validation rules.
type ValidationHandler interface {
	// ValidateHandler is called for every entry authored locally (Chain
	// lifecycle) and every aspect received from the network (Dht
	// lifecycle).
	ValidateHandler(req ValidateRequest) (validation.Result, error)
}

// ValidatorFunc adapts a function to a ValidationHandler.
type ValidatorFunc func(req ValidateRequest) (validation.Result, error)

// ValidateHandler implements the ValidationHandler interface.
func (f ValidatorFunc) ValidateHandler(req ValidateRequest) (validation.Result, error) {
	return f(req)
}

// AcceptAll is used for testing
var AcceptAll = ValidatorFunc(func(req ValidateRequest) (validation.Result, error) {
	return validation.OkResult(), nil
})
