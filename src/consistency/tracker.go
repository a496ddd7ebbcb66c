package consistency

import "sync"

// Tracker accumulates signals and reports which expected effects have not
// been observed yet. Signals may arrive in any order, and an effect can be
// seen before its cause.
type Tracker struct {
	sync.Mutex

	expected map[Event]Group
	seen     map[Event]bool
}

// NewTracker ...
func NewTracker() *Tracker {
	return &Tracker{
		expected: make(map[Event]Group),
		seen:     make(map[Event]bool),
	}
}

// Observe ...
func (t *Tracker) Observe(signals ...Signal) {
	t.Lock()
	defer t.Unlock()

	for _, s := range signals {
		t.seen[s.Event] = true
		for _, p := range s.Pending {
			t.expected[p.Event] = p.Group
		}
	}
}

// Outstanding returns the expected events not observed so far.
func (t *Tracker) Outstanding() []PendingEvent {
	t.Lock()
	defer t.Unlock()

	res := []PendingEvent{}
	for e, g := range t.expected {
		if !t.seen[e] {
			res = append(res, PendingEvent{Event: e, Group: g})
		}
	}
	return res
}

// Consistent reports whether every expected event has been observed.
func (t *Tracker) Consistent() bool {
	return len(t.Outstanding()) == 0
}
