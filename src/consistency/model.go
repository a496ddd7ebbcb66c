package consistency

import (
	"sync"

	"github.com/mosaicnetworks/sourcechain/src/cas"
	"github.com/mosaicnetworks/sourcechain/src/entry"
	"github.com/sirupsen/logrus"
)

// Action is an observed state change fed to the Model.
type Action interface {
	action()
}

// Commit is observed when an entry is appended to the local chain.
type Commit struct {
	Entry  *entry.Entry
	Header entry.ChainHeader
}

// Publish is observed when the aspects of a committed entry were sent to the
// network.
type Publish struct {
	Address cas.Address
}

// Hold is observed when an aspect was validated and held.
type Hold struct {
	Aspect entry.EntryAspect
}

func (Commit) action()  {}
func (Publish) action() {}
func (Hold) action()    {}

// Model turns actions into consistency signals. On Commit it prepares the
// signals that the matching Publish will emit; Hold emits a terminal signal.
// It never touches the stores.
type Model struct {
	sync.Mutex

	dna         *entry.DNA
	commitCache map[cas.Address][]Signal
	sink        chan<- Signal

	logger *logrus.Entry
}

// NewModel returns a Model. When sink is not nil, every emitted signal is
// also sent to it without blocking; signals that do not fit are dropped.
func NewModel(dna *entry.DNA, sink chan<- Signal, logger *logrus.Entry) *Model {
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	return &Model{
		dna:         dna,
		commitCache: make(map[cas.Address][]Signal),
		sink:        sink,
		logger:      logger,
	}
}

// Process ...
func (m *Model) Process(a Action) []Signal {
	var signals []Signal

	switch act := a.(type) {
	case Commit:
		m.commit(act)
	case Publish:
		signals = m.publish(act)
	case Hold:
		signals = []Signal{NewTerminalSignal(Event{
			Kind:          HoldAspect,
			EntryAddress:  act.Aspect.EntryAddress(),
			AspectAddress: act.Aspect.Address(),
		})}
	}

	m.emit(signals)
	return signals
}

func (m *Model) commit(c Commit) {
	if m.dna != nil && !m.dna.CanPublish(c.Entry.Type) {
		return
	}

	aspects := entry.PublishAspects(c.Entry, c.Header)
	signals := make([]Signal, 0, len(aspects))
	for _, aspect := range aspects {
		publish := Event{
			Kind:          PublishAspect,
			EntryAddress:  aspect.EntryAddress(),
			AspectAddress: aspect.Address(),
		}
		hold := Event{
			Kind:          HoldAspect,
			EntryAddress:  publish.EntryAddress,
			AspectAddress: publish.AspectAddress,
		}
		signals = append(signals, NewPendingSignal(publish, Validators, hold))
	}

	m.Lock()
	m.commitCache[c.Entry.Address()] = signals
	m.Unlock()
}

func (m *Model) publish(p Publish) []Signal {
	m.Lock()
	signals, ok := m.commitCache[p.Address]
	delete(m.commitCache, p.Address)
	m.Unlock()

	if !ok {
		m.logger.WithField("address", p.Address).Warn("Publishing address that was not previously committed")
		return nil
	}
	return signals
}

func (m *Model) emit(signals []Signal) {
	if m.sink == nil {
		return
	}
	for _, s := range signals {
		select {
		case m.sink <- s:
		default:
			m.logger.WithField("event", s.Event.String()).Debug("Consistency sink full, dropping signal")
		}
	}
}

// Cached returns the number of commits waiting for their Publish.
func (m *Model) Cached() int {
	m.Lock()
	defer m.Unlock()
	return len(m.commitCache)
}
