package validation

import (
	"fmt"

	"github.com/mosaicnetworks/sourcechain/src/cas"
	cm "github.com/mosaicnetworks/sourcechain/src/common"
)

// ResultKind ...
type ResultKind string

const (
	Ok                     ResultKind = "Ok"
	Fail                   ResultKind = "Fail"
	UnresolvedDependencies ResultKind = "UnresolvedDependencies"
	NotImplemented         ResultKind = "NotImplemented"
	Timeout                ResultKind = "Timeout"
)

// Result is the outcome of validating one entry.
type Result struct {
	Kind         ResultKind    `json:"kind"`
	Reason       string        `json:"reason,omitempty"`
	Dependencies []cas.Address `json:"dependencies,omitempty"`
}

// OkResult ...
func OkResult() Result {
	return Result{Kind: Ok}
}

// FailResult ...
func FailResult(reason string) Result {
	return Result{Kind: Fail, Reason: reason}
}

// Err maps the result onto the error taxonomy. Ok and NotImplemented are
// both a pass.
func (r Result) Err(address cas.Address) error {
	switch r.Kind {
	case Ok, NotImplemented:
		return nil
	case Fail:
		return cm.NewCoreErr(cm.ValidationFailed, string(address), r.Reason)
	case UnresolvedDependencies:
		deps := make([]string, len(r.Dependencies))
		for i, d := range r.Dependencies {
			deps[i] = string(d)
		}
		return cm.NewPendingErr(string(address), deps)
	case Timeout:
		return cm.NewCoreErr(cm.Timeout, string(address), "validation timed out")
	default:
		return cm.NewCoreErr(cm.ValidationFailed, string(address),
			fmt.Sprintf("unknown validation result %q", r.Kind))
	}
}
