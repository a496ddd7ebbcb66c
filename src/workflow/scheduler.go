package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	cm "github.com/mosaicnetworks/sourcechain/src/common"
	"github.com/mosaicnetworks/sourcechain/src/dht"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const (
	DefaultPendingWorkers    = 8
	DefaultPendingRate       = 50
	DefaultPendingMaxBackoff = time.Minute
	DefaultPendingInterval   = time.Second

	initialBackoff = 500 * time.Millisecond
)

// Scheduler retries pending validations. Each Tick dispatches every record
// that is due, at most workers at a time and no faster than the rate limit.
// A record that is still pending backs off exponentially, up to maxBackoff;
// any other outcome removes it. Records are retried until they resolve.
type Scheduler struct {
	wc *Context

	sem        *semaphore.Weighted
	limiter    *rate.Limiter
	maxBackoff time.Duration

	backoffLock sync.Mutex
	backoffs    map[dht.PendingKey]*backoff.ExponentialBackOff

	logger *logrus.Entry
}

// NewScheduler ...
func NewScheduler(wc *Context, workers int, perSecond float64, maxBackoff time.Duration) *Scheduler {
	if workers <= 0 {
		workers = DefaultPendingWorkers
	}
	if perSecond <= 0 {
		perSecond = DefaultPendingRate
	}
	if maxBackoff <= 0 {
		maxBackoff = DefaultPendingMaxBackoff
	}

	return &Scheduler{
		wc:         wc,
		sem:        semaphore.NewWeighted(int64(workers)),
		limiter:    rate.NewLimiter(rate.Limit(perSecond), workers),
		maxBackoff: maxBackoff,
		backoffs:   make(map[dht.PendingKey]*backoff.ExponentialBackOff),
		logger:     wc.logger().WithField("component", "scheduler"),
	}
}

// Tick retries the due records and waits for the retries to finish.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := time.Now()

	var g errgroup.Group
	var err error

	for _, p := range s.wc.DHT.Pending() {
		if p.NextAttempt.After(now) {
			continue
		}
		if err = s.limiter.Wait(ctx); err != nil {
			break
		}
		if err = s.sem.Acquire(ctx, 1); err != nil {
			break
		}

		p := p
		g.Go(func() error {
			defer s.sem.Release(1)
			s.retry(ctx, p)
			return nil
		})
	}

	g.Wait()
	return err
}

// Run ticks every interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil && ctx.Err() == nil {
				s.logger.WithError(err).Error("Tick")
			}
		}
	}
}

func (s *Scheduler) retry(ctx context.Context, p dht.PendingValidation) {
	key := p.Key()
	logger := s.logger.WithFields(logrus.Fields{
		"aspect":   p.Aspect.Kind,
		"address":  p.Aspect.EntryAddress(),
		"workflow": p.Workflow,
		"attempts": p.Attempts + 1,
	})

	err := runWorkflow(ctx, s.wc, p.Aspect, p.Entry, p.Header, p.Workflow)

	if core, ok := cm.AsCore(err); ok && core.Kind == cm.ValidationPending {
		delay := s.nextBackoff(key)
		refreshed := p
		refreshed.Dependencies = dependencies(core)
		s.wc.DHT.AddPending(&refreshed)
		s.wc.DHT.Reschedule(key, p.Attempts+1, time.Now().Add(delay))
		pendingRetryTotal.WithLabelValues(resultPending).Inc()
		logger.WithField("next", delay).Debug("Still pending")
		return
	}

	s.wc.DHT.RemovePending(key)
	s.forget(key)

	if err != nil {
		pendingRetryTotal.WithLabelValues(resultRejected).Inc()
		holdAspectTotal.WithLabelValues(p.Workflow.String(), resultRejected).Inc()
		logger.WithError(err).Warn("Pending aspect rejected")
		return
	}

	pendingRetryTotal.WithLabelValues(resultHeld).Inc()
	holdAspectTotal.WithLabelValues(p.Workflow.String(), resultHeld).Inc()
	logger.Debug("Pending aspect held")
}

func (s *Scheduler) nextBackoff(key dht.PendingKey) time.Duration {
	s.backoffLock.Lock()
	defer s.backoffLock.Unlock()

	b, ok := s.backoffs[key]
	if !ok {
		b = backoff.NewExponentialBackOff()
		b.InitialInterval = min(initialBackoff, s.maxBackoff)
		b.MaxInterval = s.maxBackoff
		b.Reset()
		s.backoffs[key] = b
	}
	return b.NextBackOff()
}

func (s *Scheduler) forget(key dht.PendingKey) {
	s.backoffLock.Lock()
	delete(s.backoffs, key)
	s.backoffLock.Unlock()
}
