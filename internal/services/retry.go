package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Aquil1401/resume-reviewer/internal/metrics"
	"github.com/Aquil1401/resume-reviewer/internal/models"
)

const (
	DefaultMaxRetries   = 3
	DefaultInitialDelay = time.Second
)

// RetryState is the controller state after an attempt.
type RetryState string

const (
	StateSucceeded       RetryState = "succeeded"
	StateFailedRetryable RetryState = "failed_retryable"
	StateFailedFatal     RetryState = "failed_fatal"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ContextSleep is the production SleepFunc.
func ContextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: DefaultMaxRetries, InitialDelay: DefaultInitialDelay}
}

// Delay is the backoff before retry number attempt+1.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.InitialDelay * time.Duration(1<<attempt)
}

// RetryController retries retryable InvokeErrors with exponential backoff.
type RetryController struct {
	policy RetryPolicy
	sleep  SleepFunc
	logger *zap.Logger
}

func NewRetryController(policy RetryPolicy, sleep SleepFunc, log *zap.Logger) *RetryController {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if sleep == nil {
		sleep = ContextSleep
	}
	return &RetryController{
		policy: policy,
		sleep:  sleep,
		logger: log.Named("retry"),
	}
}

// Do calls fn until it succeeds, fails fatally or the retry budget is spent.
// The last error is returned unchanged when the budget is exhausted.
func (r *RetryController) Do(ctx context.Context, task models.AnalysisTask, fn func(ctx context.Context) (string, error)) (string, error) {
	log := r.logger.With(zap.String("task", string(task)))

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("request cancelled before attempt %d: %w", attempt+1, err)
		}

		result, err := fn(ctx)
		state := r.next(err)
		metrics.BackendAttempts.WithLabelValues(string(task), outcomeLabel(state)).Inc()

		switch state {
		case StateSucceeded:
			if attempt > 0 {
				log.Info("✅ Backend call succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return result, nil

		case StateFailedFatal:
			log.Warn("❌ Backend call failed, not retrying", zap.Int("attempt", attempt+1), zap.Error(err))
			return "", err
		}

		if attempt >= r.policy.MaxRetries {
			log.Warn("❌ Retry budget exhausted",
				zap.Int("attempts", attempt+1),
				zap.Error(err),
			)
			return "", err
		}

		delay := r.policy.Delay(attempt)
		log.Info("⚠️ Backend overloaded, backing off",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		metrics.BackendBackoffSeconds.WithLabelValues(string(task)).Add(delay.Seconds())

		if err := r.sleep(ctx, delay); err != nil {
			return "", fmt.Errorf("request cancelled during backoff: %w", err)
		}
	}
}

func (r *RetryController) next(err error) RetryState {
	switch {
	case err == nil:
		return StateSucceeded
	case IsRetryable(err):
		return StateFailedRetryable
	default:
		return StateFailedFatal
	}
}

func outcomeLabel(state RetryState) string {
	switch state {
	case StateSucceeded:
		return "success"
	case StateFailedRetryable:
		return "retryable"
	default:
		return "fatal"
	}
}
