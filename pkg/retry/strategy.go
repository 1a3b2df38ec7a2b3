package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/code-payments/exchange-booth/pkg/retry/backoff"
)

// Strategy decides whether an action that failed with err after attempts
// tries should run again. Strategies may block or have other side effects.
type Strategy func(attempts uint, err error) bool

var sleep = time.Sleep

// Limit allows at most maxAttempts executions of the action in total.
func Limit(maxAttempts uint) Strategy {
	return func(attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors only retries errors matching one of errs.
func RetriableErrors(errs ...error) Strategy {
	return func(_ uint, err error) bool {
		return matchesAny(err, errs)
	}
}

// NonRetriableErrors retries every error except those matching one of errs.
func NonRetriableErrors(errs ...error) Strategy {
	return func(_ uint, err error) bool {
		return !matchesAny(err, errs)
	}
}

// Context stops retrying once ctx is done.
func Context(ctx context.Context) Strategy {
	return func(uint, error) bool {
		return ctx.Err() == nil
	}
}

// Backoff sleeps for the strategy's delay, capped at maxBackoff, before
// allowing the next attempt.
func Backoff(strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return BackoffWithJitter(strategy, maxBackoff, 0)
}

// BackoffWithJitter is Backoff with the capped delay shifted randomly by up
// to jitter of itself in either direction. A jitter of 0.1 turns a 100ms
// delay into anything between 90ms and 110ms.
func BackoffWithJitter(strategy backoff.Strategy, maxBackoff time.Duration, jitter float64) Strategy {
	return func(attempts uint, _ error) bool {
		delay := strategy(attempts)
		if delay > maxBackoff {
			delay = maxBackoff
		}
		if jitter > 0 {
			delay = time.Duration(float64(delay) * (1 + jitter*(2*rand.Float64()-1)))
		}

		sleep(delay)
		return true
	}
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
