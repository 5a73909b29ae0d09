// Package optimistic reruns read-validate-write cycles that lost a version race.
package optimistic

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	errs "typerace/internal/errors"
)

type Policy struct {
	Attempts uint
	Interval time.Duration
}

func DefaultPolicy() Policy {
	return Policy{Attempts: 5, Interval: 20 * time.Millisecond}
}

// Do runs op until it succeeds, fails with anything other than
// errs.ErrStaleWrite, or the policy runs out of attempts. op must re-read
// every record it writes so that each attempt validates fresh state.
func Do[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	attempts := p.Attempts
	if attempts == 0 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Interval
	b.MaxInterval = 10 * p.Interval

	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && !errors.Is(err, errs.ErrStaleWrite) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(attempts))
}
