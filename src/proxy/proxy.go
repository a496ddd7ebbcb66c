package proxy

import (
	"github.com/mosaicnetworks/sourcechain/src/validation"
)

// AppProxy is the validation capability of an application. Validate never
// returns an error for a rejection; rejections are results. An error means
// the application could not be reached or did not answer.
type AppProxy interface {
	Validate(req ValidateRequest) (validation.Result, error)
}
