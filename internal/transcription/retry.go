package transcription

import (
	"context"
	"errors"
	"time"

	"github.com/astowny/monteur-ia/pkg/log"
)

const (
	DefaultAttempts  = 3
	DefaultBaseDelay = time.Second
)

type RetryConfig struct {
	Attempts    int
	BaseDelay   time.Duration
	IsRetryable func(error) bool
}

// errPermanent marks a failure that retrying cannot fix.
type errPermanent struct{ err error }

func (e errPermanent) Error() string { return e.err.Error() }
func (e errPermanent) Unwrap() error { return e.err }

func permanent(err error) error { return errPermanent{err: err} }

func isRetryable(err error) bool {
	var p errPermanent
	return err != nil && !errors.As(err, &p)
}

// Retry runs fn up to cfg.Attempts times, sleeping BaseDelay<<attempt
// between tries.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	cfg = cfg.withDefaults()
	var lastErr error

	for attempt := 0; attempt < cfg.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if !cfg.IsRetryable(lastErr) || attempt == cfg.Attempts-1 {
			return lastErr
		}

		delay := cfg.BaseDelay << attempt
		log.Debug("retrying after error (attempt %d/%d, delay %v): %v", attempt+1, cfg.Attempts, delay, lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.Attempts <= 0 {
		c.Attempts = DefaultAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.IsRetryable == nil {
		c.IsRetryable = isRetryable
	}
	return c
}
