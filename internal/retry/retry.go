// Package retry is the single retry policy applied to external queries.
// Every RPC-facing call site goes through Do instead of hand-rolling its own
// backoff loop, so attempt caps and delays stay uniform across the codebase.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// Policy bounds a retried operation: at most MaxAttempts tries, delays
// starting at InitialDelay and growing by Multiplier between tries.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
}

// DefaultPolicy matches the quote-fetch contract: 3 attempts, doubling delay
// starting at one second.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		Multiplier:   2.0,
	}
}

// Do runs op under the policy and returns its first successful result.
// Retries are local to this call; concurrent Do invocations never share
// backoff state.
func Do[T any](ctx context.Context, logger *zap.Logger, p Policy, op func() (T, error)) (T, error) {
	if p.MaxAttempts <= 0 {
		p = DefaultPolicy()
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.InitialDelay
	policy.Multiplier = p.Multiplier
	policy.MaxInterval = p.InitialDelay * 10
	policy.RandomizationFactor = 0

	notify := func(err error, duration time.Duration) {
		logger.Debug("Retrying after error",
			zap.Error(err),
			zap.Duration("backoff", duration))
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(p.MaxAttempts)),
		backoff.WithNotify(notify))
}

// Permanent marks err as not worth retrying; Do returns it immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
