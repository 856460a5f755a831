// Package wait provides the condition poller every page object synchronizes with.
//
// A poll evaluates its condition immediately, then once per interval, until the
// condition reports true or the timeout elapses. It ends in exactly one of those
// two ways; parent context cancellation is the only other exit.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/devicelab-dev/gaiatest/pkg/core"
	"github.com/devicelab-dev/gaiatest/pkg/logger"
	kwait "k8s.io/apimachinery/pkg/util/wait"
)

const (
	// DefaultTimeout bounds a wait when the caller does not pick one.
	DefaultTimeout = 10 * time.Second
	// DefaultInterval is the pause between two evaluations.
	DefaultInterval = 100 * time.Millisecond
)

// Condition observes external state. It must be safe to evaluate repeatedly.
type Condition func(ctx context.Context) (bool, error)

// Poller holds the timing and error policy of a wait. The zero value is not
// usable; start from Default().
type Poller struct {
	Timeout  time.Duration
	Interval time.Duration

	// Tolerate reports whether a condition error means "not yet true".
	// Errors it rejects abort the wait immediately. Nil tolerates nothing.
	Tolerate func(error) bool
}

// Default returns a poller that treats lookup failures as transient.
func Default() Poller {
	return Poller{
		Timeout:  DefaultTimeout,
		Interval: DefaultInterval,
		Tolerate: core.IsLookupFailure,
	}
}

// WithTimeout returns a copy of p with a different timeout.
func (p Poller) WithTimeout(d time.Duration) Poller {
	p.Timeout = d
	return p
}

// WithInterval returns a copy of p with a different interval.
func (p Poller) WithInterval(d time.Duration) Poller {
	p.Interval = d
	return p
}

// Strict returns a copy of p that propagates every condition error.
func (p Poller) Strict() Poller {
	p.Tolerate = nil
	return p
}

// Until blocks until cond reports true or p.Timeout (or an earlier ctx
// deadline) elapses. On timeout it returns core.ErrWaitTimeout carrying msg
// (the default message when msg is empty) and, as cause, the last tolerated
// error if there was one.
func (p Poller) Until(ctx context.Context, msg string, cond Condition) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	var lastErr error
	polls := 0
	start := time.Now()

	err := kwait.PollUntilContextTimeout(ctx, interval, timeout, true, func(ctx context.Context) (bool, error) {
		polls++
		ok, err := cond(ctx)
		if err == nil {
			return ok, nil
		}
		if p.Tolerate != nil && p.Tolerate(err) {
			lastErr = err
			return false, nil
		}
		return false, err
	})
	if err == nil {
		logger.Debug("wait satisfied after %d polls in %v", polls, time.Since(start))
		return nil
	}

	// Parent cancellation is not a timeout. A parent deadline is.
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("wait cancelled: %w", ctx.Err())
	}
	if !kwait.Interrupted(err) {
		return err
	}

	timeoutErr := core.ErrWaitTimeout.WithDetails(map[string]interface{}{
		"timeout": timeout.String(),
		"polls":   polls,
	})
	if msg != "" {
		timeoutErr = timeoutErr.WithMessage(msg)
	}
	if lastErr != nil {
		timeoutErr = timeoutErr.WithCause(lastErr)
	}
	logger.Debug("wait timed out after %d polls: %s", polls, timeoutErr.Message)
	return timeoutErr
}

// Until polls cond with the default poller.
func Until(ctx context.Context, msg string, cond Condition) error {
	return Default().Until(ctx, msg, cond)
}
