package llm

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

// Retrier is the retry policy for model calls: up to Attempts tries, waiting
// clamp(Multiplier * 2^n, Min, Max) units before retry n (n starting at 0).
// Only Retryable errors are retried.
type Retrier struct {
	Attempts   uint
	Multiplier float64
	Min        float64
	Max        float64
	Unit       time.Duration
}

// DefaultRetrier is 3 attempts with waits clamped to [4s, 60s].
func DefaultRetrier() Retrier {
	return Retrier{Attempts: 3, Multiplier: 1, Min: 4, Max: 60, Unit: time.Second}
}

// Wait returns the delay before retry n.
func (r Retrier) Wait(n int) time.Duration {
	w := r.Multiplier * math.Pow(2, float64(n))
	if w < r.Min {
		w = r.Min
	}
	if r.Max > 0 && w > r.Max {
		w = r.Max
	}
	unit := r.Unit
	if unit <= 0 {
		unit = time.Second
	}
	return time.Duration(w * float64(unit))
}

// clampedExponential adapts Retrier to backoff.BackOff. One instance per call.
type clampedExponential struct {
	r Retrier
	n int
}

func (b *clampedExponential) NextBackOff() time.Duration {
	d := b.r.Wait(b.n)
	b.n++
	return d
}

func (b *clampedExponential) Reset() { b.n = 0 }

// Do runs op under the policy. After the last attempt the final error is
// returned as is, so its Kind is preserved for the caller.
func Do[T any](ctx context.Context, r Retrier, op func(context.Context) (T, error)) (T, error) {
	attempts := r.Attempts
	if attempts == 0 {
		attempts = 1
	}
	try := 0
	res, err := backoff.Retry(ctx,
		func() (T, error) {
			try++
			v, err := op(ctx)
			if err != nil && !Retryable(err) {
				return v, backoff.Permanent(err)
			}
			return v, err
		},
		backoff.WithBackOff(&clampedExponential{r: r}),
		backoff.WithMaxTries(attempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn().Err(err).Int("attempt", try).Dur("retry_in", next).Msg("llm call failed, retrying")
		}),
	)
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	return res, err
}

// RetryingClient wraps a Completer with a Retrier.
type RetryingClient struct {
	Completer Completer
	Retrier   Retrier
}

// NewRetrying wraps c with the default policy.
func NewRetrying(c Completer) *RetryingClient {
	return &RetryingClient{Completer: c, Retrier: DefaultRetrier()}
}

func (rc *RetryingClient) Complete(ctx context.Context, msgs []Message, opts CallOptions) (string, error) {
	return Do(ctx, rc.Retrier, func(ctx context.Context) (string, error) {
		return rc.Completer.Complete(ctx, msgs, opts)
	})
}
