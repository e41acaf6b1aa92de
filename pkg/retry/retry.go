// Package retry runs an operation again with exponential backoff until it
// succeeds, runs out of attempts, or hits an error the caller marks fatal.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Config controls a Retrier. Attempts counts the first call.
type Config struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       float64

	// RetryIf returns false for errors that must not be retried.
	RetryIf func(error) bool

	// OnRetry runs after a failed attempt, before sleeping for delay.
	OnRetry func(attempt int, err error, delay time.Duration)
}

type Option func(*Config)

func WithAttempts(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.Attempts = n
		}
	}
}

func WithDelays(initial, max time.Duration) Option {
	return func(c *Config) {
		if initial > 0 {
			c.InitialDelay = initial
		}
		if max >= c.InitialDelay {
			c.MaxDelay = max
		}
	}
}

func WithRetryIf(fn func(error) bool) Option {
	return func(c *Config) { c.RetryIf = fn }
}

func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(c *Config) { c.OnRetry = fn }
}

// Retrier is stateless between calls to Do.
type Retrier struct {
	cfg Config
}

// New starts from three attempts, 100ms doubling up to 30s, 10% jitter.
func New(opts ...Option) *Retrier {
	cfg := Config{
		Attempts:     3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
		Jitter:       0.1,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Retrier{cfg: cfg}
}

// Do calls op until it returns nil. The error of the last attempt is
// returned as op produced it.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.cfg.InitialDelay
	policy.MaxInterval = r.cfg.MaxDelay
	policy.Multiplier = r.cfg.Multiplier
	policy.RandomizationFactor = r.cfg.Jitter

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := op(ctx)
		if err != nil && r.cfg.RetryIf != nil && !r.cfg.RetryIf(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(r.cfg.Attempts)),
		backoff.WithNotify(func(err error, delay time.Duration) {
			if r.cfg.OnRetry != nil {
				r.cfg.OnRetry(attempt, err, delay)
			}
		}),
	)
	return err
}

// DatabaseRetrier is tuned for waiting on a database at startup: 200ms
// doubling up to 5s between attempts.
func DatabaseRetrier(attempts int, opts ...Option) *Retrier {
	base := []Option{
		WithAttempts(attempts),
		WithDelays(200*time.Millisecond, 5*time.Second),
	}
	return New(append(base, opts...)...)
}
