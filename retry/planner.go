// Copyright 2026 The fetchretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"
)

// ErrExpired is returned by Planner.NextDelay when the retry budget is
// exhausted: either the attempt would exceed the configured attempt
// cap, or the maximum age measured from the first failure has passed
// or would pass before the delay elapses.
var ErrExpired = errors.New("fetchretry/retry: retry budget expired")

// DefaultJitterBand is the half-width of the multiplicative jitter
// band used by NewPlanner. A band of 0.5 scales each computed delay by
// a factor sampled uniformly from [0.5, 1.5].
const DefaultJitterBand = 0.5

// A Planner computes retry delays and enforces the retry budget for
// sessions. A single Planner is shared by all sessions of a
// coordinator and is safe for concurrent use by multiple goroutines.
type Planner struct {
	band float64
	rand *rand.Rand
	lock sync.Mutex
}

// DefaultPlanner is a planner with the default jitter band, seeded
// from the wall clock.
var DefaultPlanner = NewPlanner(time.Now())

// NewPlanner constructs a Planner with the default jitter band.
//
// Parameter jitter seeds the jitter calculation. Pass nil to disable
// jitter entirely, making the planner deterministic: each delay is
// exactly initialDelay × backoffFactor^(n-1). Otherwise pass a seed
// value (time.Time, int, or int64), a rand.Source, or a *rand.Rand.
func NewPlanner(jitter interface{}) *Planner {
	return NewBandPlanner(DefaultJitterBand, jitter)
}

// NewBandPlanner constructs a Planner whose jitter band has the given
// half-width. The band must lie in the interval [0, 1): each computed
// delay is scaled by a factor sampled uniformly from
// [1-band, 1+band]. Parameter jitter follows the NewPlanner contract.
func NewBandPlanner(band float64, jitter interface{}) *Planner {
	if band < 0 || band >= 1 {
		panic("fetchretry/retry: jitter band must be in [0, 1)")
	}
	return &Planner{
		band: band,
		rand: jitterToRand(jitter),
	}
}

// NextDelay computes the delay to wait before retry number attempt
// (1 for the first retry, 2 for the second, and so on), or returns
// ErrExpired if the retry budget does not permit that attempt.
//
// The budget is evaluated against the clock instant now: the attempt
// is refused if it would exceed cfg.MaxAttempts, if cfg.MaxAge
// measured from firstFailure has already passed, or if the computed
// delay would land past that deadline. Callers must re-invoke
// NextDelay whenever arbitrary time may have elapsed, such as after a
// liveness wait.
func (p *Planner) NextDelay(cfg Config, attempt int, firstFailure, now time.Time) (time.Duration, error) {
	if attempt < 1 {
		panic("fetchretry/retry: attempt must be at least 1")
	}
	if attempt > cfg.MaxAttempts {
		return 0, ErrExpired
	}

	deadline, bounded := cfg.Deadline(firstFailure)
	if bounded && !now.Before(deadline) {
		return 0, ErrExpired
	}

	d := p.delay(cfg, attempt)
	if bounded && now.Add(d).After(deadline) {
		return 0, ErrExpired
	}
	return d, nil
}

// delay computes the jittered delay for the given retry number.
func (p *Planner) delay(cfg Config, attempt int) time.Duration {
	base := float64(cfg.InitialDelay) * math.Pow(cfg.factor(), float64(attempt-1))
	base *= p.jitterFactor()
	if base > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(base)
}

// jitterFactor samples a scale factor uniformly from [1-band, 1+band],
// or returns exactly 1 if jitter is disabled.
func (p *Planner) jitterFactor() float64 {
	if p.rand == nil {
		return 1.0
	}
	p.lock.Lock()
	f := p.rand.Float64()
	p.lock.Unlock()
	return 1.0 - p.band + 2*p.band*f
}

func jitterToRand(jitter interface{}) *rand.Rand {
	var s rand.Source
	switch j := jitter.(type) {
	case nil:
		return nil
	case time.Time:
		s = rand.NewSource(j.UnixNano())
	case int:
		s = rand.NewSource(int64(j))
	case int64:
		s = rand.NewSource(j)
	case *rand.Rand:
		if j == nil {
			panic("fetchretry/retry: jitter may not be a typed nil")
		}
		return j
	case rand.Source:
		s = j
	default:
		panic("fetchretry/retry: invalid jitter type")
	}
	return rand.New(s)
}
