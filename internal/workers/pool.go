// internal/workers/pool.go
package workers

import (
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
)

// Pool runs fire-and-forget background work on a bounded set of goroutines.
type Pool struct {
	pool *ants.Pool
}

func NewPool(size int) (*Pool, error) {
	if size <= 0 {
		size = 16
	}

	p, err := ants.NewPool(size,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(r interface{}) {
			logrus.WithField("panic", r).Error("Background task panicked")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	return &Pool{pool: p}, nil
}

// Submit schedules task. When the pool is saturated the task is dropped and
// the drop is logged; callers never block.
func (p *Pool) Submit(name string, task func()) {
	if err := p.pool.Submit(task); err != nil {
		logrus.WithError(err).WithField("task", name).Warn("Background task dropped")
	}
}

func (p *Pool) Running() int {
	return p.pool.Running()
}

// Release waits up to timeout for running tasks, then frees the pool.
func (p *Pool) Release(timeout time.Duration) {
	if err := p.pool.ReleaseTimeout(timeout); err != nil {
		logrus.WithError(err).Warn("Worker pool did not drain before timeout")
	}
}
