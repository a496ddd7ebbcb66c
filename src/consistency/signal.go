package consistency

import (
	"fmt"

	"github.com/mosaicnetworks/sourcechain/src/cas"
)

// EventKind ...
type EventKind string

const (
	// PublishAspect is a cause: an author sent an aspect to the network.
	PublishAspect EventKind = "PublishAspect"
	// HoldAspect is an effect: a validator held an aspect.
	HoldAspect EventKind = "HoldAspect"
)

// Event is something observable that happened to an aspect.
type Event struct {
	Kind          EventKind   `json:"kind"`
	EntryAddress  cas.Address `json:"entry_address"`
	AspectAddress cas.Address `json:"aspect_address"`
}

func (e Event) String() string {
	return fmt.Sprintf("%s(%s, %s)", e.Kind, e.EntryAddress, e.AspectAddress)
}

// Group says who is expected to produce a pending event.
type Group string

const (
	Source     Group = "Source"
	Validators Group = "Validators"
)

// PendingEvent is an effect expected to follow a cause.
type PendingEvent struct {
	Event Event `json:"event"`
	Group Group `json:"group"`
}

// Signal ties an event to the effects it will eventually produce. A terminal
// signal has no pending events.
type Signal struct {
	Event   Event          `json:"event"`
	Pending []PendingEvent `json:"pending"`
}

// NewTerminalSignal ...
func NewTerminalSignal(e Event) Signal {
	return Signal{Event: e, Pending: []PendingEvent{}}
}

// NewPendingSignal ...
func NewPendingSignal(e Event, group Group, pending ...Event) Signal {
	s := Signal{Event: e, Pending: make([]PendingEvent, 0, len(pending))}
	for _, p := range pending {
		s.Pending = append(s.Pending, PendingEvent{Event: p, Group: group})
	}
	return s
}

// IsTerminal ...
func (s Signal) IsTerminal() bool {
	return len(s.Pending) == 0
}
