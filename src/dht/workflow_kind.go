package dht

import (
	"fmt"

	cm "github.com/mosaicnetworks/sourcechain/src/common"
	"github.com/mosaicnetworks/sourcechain/src/entry"
)

// WorkflowKind names the hold workflow an aspect goes through.
type WorkflowKind string

const (
	HoldEntry   WorkflowKind = "HoldEntry"
	HoldLink    WorkflowKind = "HoldLink"
	RemoveLink  WorkflowKind = "RemoveLink"
	UpdateEntry WorkflowKind = "UpdateEntry"
	RemoveEntry WorkflowKind = "RemoveEntry"
)

func (w WorkflowKind) String() string {
	return string(w)
}

// ParseWorkflowKind ...
func ParseWorkflowKind(s string) (WorkflowKind, error) {
	switch w := WorkflowKind(s); w {
	case HoldEntry, HoldLink, RemoveLink, UpdateEntry, RemoveEntry:
		return w, nil
	}
	return "", fmt.Errorf("unknown workflow kind %q", s)
}

// WorkflowFor maps an aspect to its workflow. Header aspects have no
// workflow; they are held without validation.
func WorkflowFor(a entry.EntryAspect) (WorkflowKind, error) {
	switch a.Kind {
	case entry.ContentAspect:
		return HoldEntry, nil
	case entry.UpdateAspect:
		return UpdateEntry, nil
	case entry.DeletionAspect:
		if a.Header.LinkUpdateDelete.IsEmpty() {
			return "", cm.NewCoreErr(cm.ValidationFailed, string(a.Header.EntryAddress),
				"deletion header is missing deletion link")
		}
		return RemoveEntry, nil
	case entry.LinkAddAspect:
		return HoldLink, nil
	case entry.LinkRemoveAspect:
		return RemoveLink, nil
	case entry.HeaderAspect:
		return "", cm.NewCoreErr(cm.NotImplemented, string(a.Header.EntryAddress),
			"header aspects have no hold workflow")
	}
	return "", cm.NewCoreErr(cm.SerializationError, "", fmt.Sprintf("unknown aspect kind %q", a.Kind))
}
