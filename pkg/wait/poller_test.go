package wait

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/devicelab-dev/gaiatest/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const interval = 20 * time.Millisecond

func testPoller(timeout time.Duration) Poller {
	return Default().WithTimeout(timeout).WithInterval(interval)
}

func TestUntil_AlwaysTrueReturnsImmediately(t *testing.T) {
	calls := 0
	start := time.Now()
	err := testPoller(10*interval).Until(context.Background(), "never needed", func(context.Context) (bool, error) {
		calls++
		return true, nil
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Less(t, elapsed, interval, "an already-true condition must not sleep")
}

func TestUntil_TrueAfterThreeIntervals(t *testing.T) {
	calls := 0
	start := time.Now()
	err := testPoller(10*interval).Until(context.Background(), "", func(context.Context) (bool, error) {
		calls++
		return calls > 3, nil
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.GreaterOrEqual(t, elapsed, 3*interval)
	assert.Less(t, elapsed, 10*interval+interval)
}

func TestUntil_NeverTrueTimesOutWithMessage(t *testing.T) {
	const msg = "Contact did not import from sim before timeout"
	timeout := 5 * interval

	start := time.Now()
	err := testPoller(timeout).Until(context.Background(), msg, func(context.Context) (bool, error) {
		return false, nil
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, core.IsTimeout(err))
	execErr, ok := core.AsExecutionError(err)
	require.True(t, ok)
	assert.Equal(t, msg, execErr.Message)
	assert.Equal(t, msg, err.Error())
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+interval)
}

func TestUntil_DefaultMessage(t *testing.T) {
	err := testPoller(2*interval).Until(context.Background(), "", func(context.Context) (bool, error) {
		return false, nil
	})

	require.Error(t, err)
	execErr, ok := core.AsExecutionError(err)
	require.True(t, ok)
	assert.Equal(t, core.ErrWaitTimeout.Message, execErr.Message)
	assert.Equal(t, "wait_timeout", execErr.Code)
}

func TestUntil_ToleratesTransientLookupFailures(t *testing.T) {
	calls := 0
	err := testPoller(10*interval).Until(context.Background(), "", func(context.Context) (bool, error) {
		calls++
		if calls <= 2 {
			return false, core.ErrElementNotFound
		}
		return true, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestUntil_StrictPropagatesLookupFailure(t *testing.T) {
	calls := 0
	start := time.Now()
	err := testPoller(10*interval).Strict().Until(context.Background(), "", func(context.Context) (bool, error) {
		calls++
		return false, core.ErrElementNotFound
	})

	require.Error(t, err)
	assert.True(t, core.IsLookupFailure(err))
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), interval)
}

func TestUntil_NonTransientErrorAbortsImmediately(t *testing.T) {
	boom := errors.New("session deleted")
	calls := 0
	err := testPoller(10*interval).Until(context.Background(), "", func(context.Context) (bool, error) {
		calls++
		return false, boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestUntil_TimeoutKeepsLastLookupFailureAsCause(t *testing.T) {
	lookup := core.ErrElementNotFound.WithDetails(map[string]interface{}{"selector": "id=sim-import-button"})
	err := testPoller(3*interval).Until(context.Background(), "import button never appeared", func(context.Context) (bool, error) {
		return false, lookup
	})

	require.Error(t, err)
	assert.True(t, core.IsTimeout(err))
	assert.False(t, core.IsLookupFailure(err))
	assert.ErrorIs(t, err, lookup)
	assert.Contains(t, err.Error(), "import button never appeared")
}

func TestUntil_ParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(2*interval, cancel)

	err := testPoller(time.Minute).Until(ctx, "", func(context.Context) (bool, error) {
		return false, nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, core.IsTimeout(err))
}

func TestUntil_ParentDeadlineIsTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*interval)
	defer cancel()
	lookup := core.ErrElementNotFound.WithDetails(map[string]interface{}{"selector": "id=forward"})

	err := testPoller(time.Minute).Until(ctx, "forward button never appeared", func(context.Context) (bool, error) {
		return false, lookup
	})

	require.Error(t, err)
	assert.True(t, core.IsTimeout(err))
	assert.ErrorIs(t, err, lookup)
	assert.Contains(t, err.Error(), "forward button never appeared")
	assert.NotContains(t, err.Error(), "cancelled")
}

func TestUntil_IdempotentOnTruePredicate(t *testing.T) {
	cond := func(context.Context) (bool, error) { return true, nil }
	p := testPoller(5 * interval)

	require.NoError(t, p.Until(context.Background(), "", cond))
	require.NoError(t, p.Until(context.Background(), "", cond))
}

func TestPoller_CopiesDoNotAlias(t *testing.T) {
	base := Default()
	short := base.WithTimeout(time.Second).WithInterval(time.Millisecond)
	strict := base.Strict()

	assert.Equal(t, DefaultTimeout, base.Timeout)
	assert.Equal(t, DefaultInterval, base.Interval)
	assert.NotNil(t, base.Tolerate)
	assert.Equal(t, time.Second, short.Timeout)
	assert.Equal(t, time.Millisecond, short.Interval)
	assert.Nil(t, strict.Tolerate)
}

func TestPoller_ZeroDurationsFallBackToDefaults(t *testing.T) {
	p := Poller{}
	calls := 0
	err := p.Until(context.Background(), "", func(context.Context) (bool, error) {
		calls++
		return calls == 2, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestPackageUntil(t *testing.T) {
	require.NoError(t, Until(context.Background(), "", func(context.Context) (bool, error) {
		return true, nil
	}))
}
