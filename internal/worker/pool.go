package worker

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// Pool bounds the number of concurrently executing blocking calls.
// Synchronous third-party clients must run through a shared Pool so a
// slow vendor library cannot occupy the scheduling path or starve
// sibling fetches. Construct one Pool per process and inject it into
// every fetcher.
type Pool struct {
	sem    *semaphore.Weighted
	logger *logrus.Entry
}

// NewPool creates a pool admitting at most size concurrent calls.
func NewPool(size int, log *logrus.Logger) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{
		sem:    semaphore.NewWeighted(int64(size)),
		logger: log.WithField("component", "worker-pool"),
	}
}

// Do runs fn once a pool slot is available. Acquisition honors ctx, so
// a caller whose deadline expires while queued fails fast without ever
// invoking fn.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.logger.WithError(err).Debug("Pool slot acquisition aborted")
		return err
	}
	defer p.sem.Release(1)
	return fn()
}
