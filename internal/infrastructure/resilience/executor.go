package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Outcome tells the executor how to treat a failed call.
type Outcome struct {
	Retry   bool
	Counted bool
}

type Classifier func(err error) Outcome

// StateObserver is notified when the breaker changes state.
type StateObserver func(dependency, from, to string)

// Executor runs calls against a single dependency with retry and a circuit breaker.
type Executor struct {
	dependency string
	retry      RetryPolicy
	classify   Classifier
	breaker    *gobreaker.CircuitBreaker[struct{}]
}

func NewExecutor(dependency string, policy Policy, classify Classifier, observe StateObserver) *Executor {
	policy = policy.withDefaults()
	if classify == nil {
		classify = countEveryFailure
	}

	e := &Executor{
		dependency: dependency,
		retry:      policy.Retry,
		classify:   classify,
	}
	if !policy.Breaker.Enabled {
		return e
	}

	bp := policy.Breaker
	e.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        dependency,
		MaxRequests: bp.HalfOpenMaxCalls,
		Timeout:     bp.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bp.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= bp.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !classify(err).Counted
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit_breaker_state_change", "dependency", name, "from", from.String(), "to", to.String())
			if observe != nil {
				observe(name, from.String(), to.String())
			}
		},
	})
	return e
}

// Do runs fn, retrying failures the classifier marks retryable.
// With the breaker enabled the whole retry sequence counts as one call.
func (e *Executor) Do(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("resilience: %s: nil call", e.dependency)
	}
	if e.breaker == nil {
		return e.withRetry(ctx, fn)
	}
	_, err := e.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, e.withRetry(ctx, fn)
	})
	return err
}

// State reports the breaker state, "disabled" when there is none.
func (e *Executor) State() string {
	if e.breaker == nil {
		return "disabled"
	}
	return e.breaker.State().String()
}

func (e *Executor) withRetry(ctx context.Context, fn func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= e.retry.MaxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return err
			}
			return ctxErr
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !e.classify(err).Retry || attempt == e.retry.MaxAttempts {
			return err
		}

		wait := e.retry.backoff(attempt)
		slog.Warn("retry_attempt",
			"dependency", e.dependency,
			"attempt", attempt,
			"max_attempts", e.retry.MaxAttempts,
			"backoff_ms", wait.Milliseconds(),
			"error", err,
		)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func countEveryFailure(error) Outcome {
	return Outcome{Counted: true}
}
