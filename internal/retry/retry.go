// Package retry runs an operation with exponential backoff between attempts.
package retry

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrInvalidPolicy is returned when a Policy cannot drive any attempt.
var ErrInvalidPolicy = errors.New("invalid retry policy")

// Operation is a zero-argument action that yields a value or fails.
type Operation[T any] func() (T, error)

// Policy bounds the number of attempts and sets the first retry delay.
// Each following retry doubles the previous delay. There is no jitter and no cap.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// NewPolicy builds a Policy from the millisecond form used in config files.
func NewPolicy(maxAttempts, baseDelayMS int) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Duration(baseDelayMS) * time.Millisecond,
	}
}

func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be >= 1, got %d", ErrInvalidPolicy, p.MaxAttempts)
	}
	if p.BaseDelay < 0 {
		return fmt.Errorf("%w: base delay must be >= 0, got %s", ErrInvalidPolicy, p.BaseDelay)
	}
	return nil
}

// Delay returns the wait that follows the failed attempt at zero-based index i.
func (p Policy) Delay(i int) time.Duration {
	return p.BaseDelay << uint(i)
}

// Executor applies a Policy. Sleep and Logger may be replaced; nil values
// fall back to time.Sleep and slog.Default.
type Executor struct {
	Policy Policy
	Sleep  func(time.Duration)
	Logger *slog.Logger
}

func NewExecutor(p Policy, logger *slog.Logger) *Executor {
	return &Executor{Policy: p, Sleep: time.Sleep, Logger: logger}
}

// Do invokes op until it succeeds or the policy's attempts are used up.
// The error of the final attempt is returned as-is. A wait that has started
// always runs to completion.
func Do[T any](e *Executor, op Operation[T]) (T, error) {
	var zero T
	if err := e.Policy.Validate(); err != nil {
		return zero, err
	}

	sleep := e.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	for i := 0; ; i++ {
		v, err := op()
		if err == nil {
			return v, nil
		}
		if i+1 >= e.Policy.MaxAttempts {
			return zero, err
		}

		delay := e.Policy.Delay(i)
		logger.Warn("operation failed, retrying",
			slog.Int("attempt", i+1),
			slog.Int("max_attempts", e.Policy.MaxAttempts),
			slog.Duration("delay", delay),
			slog.Any("error", err))
		sleep(delay)
	}
}
