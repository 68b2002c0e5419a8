package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Executor runs outbound calls under the policy registered for the
// operation name, retrying per the caller's Classifier and sharing one
// circuit breaker per operation across all callers.
type Executor struct {
	policies map[string]Policy
	fallback Policy

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

// NewExecutor builds an executor from named policies; pass
// PipelinePolicies() for the standard set. Unknown operations fall back to
// DefaultPolicy.
func NewExecutor(policies map[string]Policy) *Executor {
	normalized := make(map[string]Policy, len(policies))
	for name, policy := range policies {
		normalized[name] = policy.normalize()
	}
	return &Executor{
		policies: normalized,
		fallback: DefaultPolicy(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

func (e *Executor) Execute(
	ctx context.Context,
	operation string,
	call func(context.Context) error,
	classify Classifier,
) error {
	if call == nil {
		return fmt.Errorf("resilience: nil call for operation %q", operation)
	}
	if classify == nil {
		classify = func(error) Verdict { return Verdict{Trip: true} }
	}

	policy := e.policyFor(operation)
	if policy.BreakerDisabled {
		return e.attempt(ctx, operation, policy, call, classify)
	}

	breaker := e.breakerFor(operation, policy, classify)
	_, err := breaker.Execute(func() (any, error) {
		return nil, e.attempt(ctx, operation, policy, call, classify)
	})
	return err
}

func (e *Executor) policyFor(operation string) Policy {
	if policy, ok := e.policies[operation]; ok {
		return policy
	}
	return e.fallback
}

func (e *Executor) attempt(
	ctx context.Context,
	operation string,
	policy Policy,
	call func(context.Context) error,
	classify Classifier,
) error {
	wait := policy.Backoff

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := call(ctx)
		if err == nil {
			return nil
		}
		if attempt >= policy.Attempts || !classify(err).Retry {
			return err
		}

		slog.Warn("retrying_operation",
			"operation", operation,
			"attempt", attempt,
			"of", policy.Attempts,
			"backoff", wait.String(),
			"error", err,
		)
		if !sleep(ctx, wait) {
			return err
		}

		wait = time.Duration(float64(wait) * policy.Growth)
		if wait > policy.BackoffCap {
			wait = policy.BackoffCap
		}
	}
}

// sleep waits out the backoff; returns false when the context ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (e *Executor) breakerFor(operation string, policy Policy, classify Classifier) *gobreaker.CircuitBreaker[any] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if breaker, ok := e.breakers[operation]; ok {
		return breaker
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        operation,
		MaxRequests: policy.HalfOpenCalls,
		Timeout:     policy.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < policy.TripAfter {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= policy.TripRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !classify(err).Trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
		},
	})
	e.breakers[operation] = breaker
	return breaker
}

// IsCircuitOpen reports whether err came from an open or saturated breaker
// rather than from the underlying call.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
