package proxy

import (
	"github.com/mosaicnetworks/sourcechain/src/entry"
	"github.com/mosaicnetworks/sourcechain/src/validation"
)

// ValidateRequest asks an application to validate one entry.
type ValidateRequest struct {
	Entry entry.Entry     `json:"entry"`
	Data  validation.Data `json:"data"`
}

// NewValidateRequest ...
func NewValidateRequest(e *entry.Entry, pkg *validation.Package, lifecycle validation.Lifecycle, action validation.Action) ValidateRequest {
	return ValidateRequest{
		Entry: *e,
		Data: validation.Data{
			Package:   *pkg,
			Lifecycle: lifecycle,
			Action:    action,
		},
	}
}
