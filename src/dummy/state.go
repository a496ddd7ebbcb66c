package dummy

import (
	"fmt"
	"sync"

	"github.com/mosaicnetworks/sourcechain/src/entry"
	"github.com/mosaicnetworks/sourcechain/src/proxy"
	"github.com/mosaicnetworks/sourcechain/src/validation"
	"github.com/sirupsen/logrus"
)

// MaxValueLength is the largest application value the dummy accepts.
const MaxValueLength = 4096

// State holds the validation rules of the dummy application. It implements
// the ValidationHandler interface for use with an InmemProxy or a
// SocketAppProxyServer. The rules are simple:
//
// Application entries must carry a value no longer than MaxValueLength.
//
// When the validation package carries earlier entries, the value must not
// repeat one of them.
//
// Links must have a type.
type State struct {
	sync.Mutex

	validated map[validation.Lifecycle]int
	rejected  int
	logger    *logrus.Entry
}

// NewState creates a new dummy state.
func NewState(logger *logrus.Entry) *State {
	state := &State{
		validated: make(map[validation.Lifecycle]int),
		logger:    logger,
	}

	logger.Info("Init Dummy State")

	return state
}

// ValidateHandler implements the ValidationHandler interface.
func (s *State) ValidateHandler(req proxy.ValidateRequest) (validation.Result, error) {
	result := s.validate(req)

	s.Lock()
	if result.Kind == validation.Fail {
		s.rejected++
	} else {
		s.validated[req.Data.Lifecycle]++
	}
	s.Unlock()

	if result.Kind == validation.Fail {
		s.logger.WithFields(logrus.Fields{
			"entry_type": req.Entry.Type,
			"lifecycle":  req.Data.Lifecycle,
			"reason":     result.Reason,
		}).Debug("Rejected entry")
	}

	return result, nil
}

func (s *State) validate(req proxy.ValidateRequest) validation.Result {
	e := req.Entry

	switch {
	case e.Type == entry.LinkAddType:
		if e.LinkAdd.LinkType == "" {
			return validation.FailResult("link has no type")
		}
		return validation.OkResult()
	case e.Type.IsSys():
		return validation.OkResult()
	}

	if e.Value == "" {
		return validation.FailResult("empty value")
	}
	if len(e.Value) > MaxValueLength {
		return validation.FailResult(fmt.Sprintf("value longer than %d bytes", MaxValueLength))
	}

	for _, prior := range req.Data.Package.SourceChainEntries {
		if prior.Type == e.Type && prior.Value == e.Value {
			return validation.FailResult(fmt.Sprintf("%s %q already in chain", e.Type, e.Value))
		}
	}

	return validation.OkResult()
}

// Validated returns the number of entries accepted for a lifecycle.
func (s *State) Validated(lifecycle validation.Lifecycle) int {
	s.Lock()
	defer s.Unlock()
	return s.validated[lifecycle]
}

// Rejected returns the number of entries refused so far.
func (s *State) Rejected() int {
	s.Lock()
	defer s.Unlock()
	return s.rejected
}
