// Copyright 2026 The fetchretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"errors"
	"fmt"
	"time"
)

// A Config contains the caller-supplied retry parameters for a single
// request. It is immutable from the session's perspective: the session
// copies it by value at creation time.
//
// The zero value is a valid configuration that never retries.
type Config struct {
	// MaxAttempts is the number of retries permitted after the initial
	// attempt. Zero means the request behaves exactly as a
	// non-retrying request. The registry clamps this value to a
	// process-wide ceiling that the caller cannot raise.
	MaxAttempts int

	// InitialDelay is the base delay before the first retry. Zero
	// means retries fire immediately (subject to jitter, which scales
	// zero to zero).
	InitialDelay time.Duration

	// BackoffFactor is the multiplier applied to the delay for each
	// subsequent retry. It must be at least 1.0; the zero value is
	// interpreted as 1.0 (fixed delay).
	BackoffFactor float64

	// MaxAge is the absolute ceiling on the retry budget, measured
	// from the first transient failure. Zero means unbounded, subject
	// only to the attempt cap.
	MaxAge time.Duration

	// RetryAfterUnload authorizes retries to continue after the
	// originating document has been unloaded. It is effective only
	// when the request's keepalive flag is also set.
	RetryAfterUnload bool

	// RetryNonIdempotent authorizes retries of non-idempotent methods
	// such as POST. Without this explicit opt-in, transient failures
	// of non-idempotent requests are terminal.
	RetryNonIdempotent bool
}

// ErrInvalidConfig is wrapped by every error returned from
// Config.Validate. Test with errors.Is.
var ErrInvalidConfig = errors.New("fetchretry/retry: invalid config")

// Validate checks the configuration for values the planner cannot
// work with. The error, if any, wraps ErrInvalidConfig and names the
// first offending field.
func (c Config) Validate() error {
	if c.MaxAttempts < 0 {
		return fmt.Errorf("%w: MaxAttempts %d is negative", ErrInvalidConfig, c.MaxAttempts)
	}
	if c.InitialDelay < 0 {
		return fmt.Errorf("%w: InitialDelay %s is negative", ErrInvalidConfig, c.InitialDelay)
	}
	if c.BackoffFactor != 0 && c.BackoffFactor < 1.0 {
		return fmt.Errorf("%w: BackoffFactor %g is less than 1.0", ErrInvalidConfig, c.BackoffFactor)
	}
	if c.MaxAge < 0 {
		return fmt.Errorf("%w: MaxAge %s is negative", ErrInvalidConfig, c.MaxAge)
	}
	return nil
}

// factor returns the effective backoff factor, mapping the zero value
// to a fixed delay.
func (c Config) factor() float64 {
	if c.BackoffFactor == 0 {
		return 1.0
	}
	return c.BackoffFactor
}

// Deadline returns the wall-clock instant at which the retry budget
// expires, given the time of the first transient failure. The second
// return value is false if the budget is unbounded (MaxAge is zero or
// no failure has occurred yet).
func (c Config) Deadline(firstFailure time.Time) (time.Time, bool) {
	if c.MaxAge == 0 || firstFailure.IsZero() {
		return time.Time{}, false
	}
	return firstFailure.Add(c.MaxAge), true
}
