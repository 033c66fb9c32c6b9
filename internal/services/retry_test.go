package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Aquil1401/resume-reviewer/internal/models"
)

// fakeSleeper records requested delays without waiting.
type fakeSleeper struct {
	delays []time.Duration
}

func (f *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	f.delays = append(f.delays, d)
	return ctx.Err()
}

func (f *fakeSleeper) total() time.Duration {
	var sum time.Duration
	for _, d := range f.delays {
		sum += d
	}
	return sum
}

func failingCall(status int, calls *int) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		*calls++
		return "", &InvokeError{StatusCode: status, Message: http.StatusText(status)}
	}
}

func TestRetryController_ExhaustsOnPersistentOverload(t *testing.T) {
	sleeper := &fakeSleeper{}
	rc := NewRetryController(DefaultRetryPolicy(), sleeper.Sleep, zaptest.NewLogger(t))

	calls := 0
	_, err := rc.Do(context.Background(), models.TaskAnalyze, failingCall(http.StatusServiceUnavailable, &calls))

	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{1000 * time.Millisecond, 2000 * time.Millisecond, 4000 * time.Millisecond}, sleeper.delays)
	assert.Equal(t, 7*time.Second, sleeper.total())

	var invokeErr *InvokeError
	require.ErrorAs(t, err, &invokeErr)
	assert.Equal(t, http.StatusServiceUnavailable, invokeErr.StatusCode)
}

func TestRetryController_RateLimitIsRetryable(t *testing.T) {
	sleeper := &fakeSleeper{}
	rc := NewRetryController(DefaultRetryPolicy(), sleeper.Sleep, zaptest.NewLogger(t))

	calls := 0
	_, err := rc.Do(context.Background(), models.TaskImprove, failingCall(http.StatusTooManyRequests, &calls))

	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.Len(t, sleeper.delays, 3)
}

func TestRetryController_FailsFastOnFatalErrors(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusBadRequest, http.StatusInternalServerError, 0} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			sleeper := &fakeSleeper{}
			rc := NewRetryController(DefaultRetryPolicy(), sleeper.Sleep, zaptest.NewLogger(t))

			calls := 0
			_, err := rc.Do(context.Background(), models.TaskMatchJobDescription, failingCall(status, &calls))

			require.Error(t, err)
			assert.Equal(t, 1, calls)
			assert.Empty(t, sleeper.delays)
		})
	}
}

func TestRetryController_UnclassifiedErrorIsFatal(t *testing.T) {
	sleeper := &fakeSleeper{}
	rc := NewRetryController(DefaultRetryPolicy(), sleeper.Sleep, zaptest.NewLogger(t))

	calls := 0
	boom := errors.New("boom")
	_, err := rc.Do(context.Background(), models.TaskAnalyze, func(context.Context) (string, error) {
		calls++
		return "", boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeper.delays)
}

func TestRetryController_SucceedsAfterTransientFailures(t *testing.T) {
	sleeper := &fakeSleeper{}
	rc := NewRetryController(DefaultRetryPolicy(), sleeper.Sleep, zaptest.NewLogger(t))

	calls := 0
	out, err := rc.Do(context.Background(), models.TaskCoverLetter, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &InvokeError{StatusCode: http.StatusServiceUnavailable}
		}
		return `{"content":"hi"}`, nil
	})

	require.NoError(t, err)
	assert.Equal(t, `{"content":"hi"}`, out)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeper.delays)
}

func TestRetryController_ZeroRetries(t *testing.T) {
	sleeper := &fakeSleeper{}
	rc := NewRetryController(RetryPolicy{MaxRetries: 0, InitialDelay: time.Second}, sleeper.Sleep, zaptest.NewLogger(t))

	calls := 0
	_, err := rc.Do(context.Background(), models.TaskAnalyze, failingCall(http.StatusServiceUnavailable, &calls))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeper.delays)
}

func TestRetryController_CancelledContextSkipsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sleeper := &fakeSleeper{}
	rc := NewRetryController(DefaultRetryPolicy(), sleeper.Sleep, zaptest.NewLogger(t))

	calls := 0
	_, err := rc.Do(ctx, models.TaskAnalyze, func(context.Context) (string, error) {
		calls++
		cancel()
		return "", &InvokeError{StatusCode: http.StatusServiceUnavailable}
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestContextSleep_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := ContextSleep(ctx, time.Hour)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, InitialDelay: 500 * time.Millisecond}
	assert.Equal(t, 500*time.Millisecond, p.Delay(0))
	assert.Equal(t, time.Second, p.Delay(1))
	assert.Equal(t, 2*time.Second, p.Delay(2))
}
