package executor

import (
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"

	"github.com/harrison/sift/internal/models"
)

// Summary aggregates the outcomes of one engine run.
type Summary struct {
	RunID       string
	Invocations int
	Failures    int
	Failed      bool
	Interrupted bool
	Errors      *multierror.Error
}

// Success reports whether every invocation succeeded.
func (s Summary) Success() bool {
	return !s.Failed
}

// Err returns the aggregated invocation errors, or nil.
func (s Summary) Err() error {
	return s.Errors.ErrorOrNil()
}

// collector is shared by concurrent workers.
type collector struct {
	failed atomic.Bool

	mu          sync.Mutex
	invocations int
	failures    int
	errs        *multierror.Error
}

func (c *collector) add(outcome models.ExecutionOutcome) {
	err := OutcomeError(outcome)
	if err != nil {
		c.failed.Store(true)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.invocations++
	if err != nil {
		c.failures++
		c.errs = multierror.Append(c.errs, err)
	}
}

func (c *collector) summary(runID string, interrupted bool) Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Summary{
		RunID:       runID,
		Invocations: c.invocations,
		Failures:    c.failures,
		Failed:      c.failed.Load(),
		Interrupted: interrupted,
		Errors:      c.errs,
	}
}
