// Copyright 2026 The fetchretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBandPlanner(t *testing.T) {
	t.Run("invalid band", func(t *testing.T) {
		assert.Panics(t, func() { NewBandPlanner(-0.1, nil) }, "negative band")
		assert.Panics(t, func() { NewBandPlanner(1.0, nil) }, "band of 1")
	})
	t.Run("invalid jitter", func(t *testing.T) {
		assert.Panics(t, func() { NewPlanner(float64(1)) }, "float64")
		var nilRand *rand.Rand
		assert.Panics(t, func() { NewPlanner(nilRand) }, "nil *rand.Rand")
	})
	t.Run("jitter sources", func(t *testing.T) {
		jitters := []struct {
			name  string
			value interface{}
		}{
			{"time.Now()", time.Now()},
			{"int", 1},
			{"int64", int64(1)},
			{"rand.Source", rand.NewSource(0)},
			{"*rand.Rand", rand.New(rand.NewSource(0))},
		}
		for i, jitter := range jitters {
			t.Run(fmt.Sprintf("jitters[%d]=%s", i, jitter.name), func(t *testing.T) {
				p := NewPlanner(jitter.value)
				assert.NotNil(t, p.rand)
			})
		}
	})
	t.Run("nil jitter disables jitter", func(t *testing.T) {
		p := NewPlanner(nil)
		assert.Nil(t, p.rand)
		var s rand.Source
		p = NewPlanner(s)
		assert.Nil(t, p.rand, "nil rand.Source")
	})
}

func TestNextDelayWithoutJitter(t *testing.T) {
	p := NewPlanner(nil)
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	cfg := Config{
		MaxAttempts:   3,
		InitialDelay:  500 * time.Millisecond,
		BackoffFactor: 2.0,
	}
	expected := []time.Duration{
		500 * time.Millisecond,
		1000 * time.Millisecond,
		2000 * time.Millisecond,
	}
	for i, want := range expected {
		d, err := p.NextDelay(cfg, i+1, now, now)
		require.NoError(t, err, fmt.Sprintf("attempt %d", i+1))
		assert.Equal(t, want, d, fmt.Sprintf("attempt %d", i+1))
	}
	_, err := p.NextDelay(cfg, 4, now, now)
	assert.ErrorIs(t, err, ErrExpired, "attempt past cap")
}

func TestNextDelayFixedFactor(t *testing.T) {
	p := NewPlanner(nil)
	now := time.Now()
	cfg := Config{MaxAttempts: 10, InitialDelay: 250 * time.Millisecond}
	for attempt := 1; attempt <= 10; attempt++ {
		d, err := p.NextDelay(cfg, attempt, now, now)
		require.NoError(t, err)
		assert.Equal(t, 250*time.Millisecond, d, "zero factor means fixed delay")
	}
}

func TestNextDelayJitterBand(t *testing.T) {
	p := NewPlanner(rand.NewSource(42))
	now := time.Now()
	cfg := Config{
		MaxAttempts:   3,
		InitialDelay:  500 * time.Millisecond,
		BackoffFactor: 2.0,
	}
	nominal := []time.Duration{
		500 * time.Millisecond,
		1000 * time.Millisecond,
		2000 * time.Millisecond,
	}
	for trial := 0; trial < 100; trial++ {
		for i, base := range nominal {
			d, err := p.NextDelay(cfg, i+1, now, now)
			require.NoError(t, err)
			lo := time.Duration(float64(base) * (1 - DefaultJitterBand))
			hi := time.Duration(float64(base) * (1 + DefaultJitterBand))
			assert.GreaterOrEqual(t, d, lo)
			assert.LessOrEqual(t, d, hi)
		}
	}
}

func TestNextDelayDeadline(t *testing.T) {
	p := NewPlanner(nil)
	first := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	cfg := Config{
		MaxAttempts:   5,
		InitialDelay:  800 * time.Millisecond,
		BackoffFactor: 2.0,
		MaxAge:        1000 * time.Millisecond,
	}
	t.Run("first retry fits", func(t *testing.T) {
		d, err := p.NextDelay(cfg, 1, first, first)
		require.NoError(t, err)
		assert.Equal(t, 800*time.Millisecond, d)
	})
	t.Run("second retry would land past the deadline", func(t *testing.T) {
		now := first.Add(850 * time.Millisecond)
		_, err := p.NextDelay(cfg, 2, first, now)
		assert.ErrorIs(t, err, ErrExpired)
	})
	t.Run("deadline already passed", func(t *testing.T) {
		now := first.Add(2 * time.Second)
		_, err := p.NextDelay(cfg, 1, first, now)
		assert.ErrorIs(t, err, ErrExpired)
	})
	t.Run("exactly at the deadline", func(t *testing.T) {
		now := first.Add(cfg.MaxAge)
		_, err := p.NextDelay(cfg, 1, first, now)
		assert.ErrorIs(t, err, ErrExpired)
	})
}

func TestNextDelayPanicsOnZeroAttempt(t *testing.T) {
	p := NewPlanner(nil)
	assert.Panics(t, func() {
		_, _ = p.NextDelay(Config{MaxAttempts: 1}, 0, time.Now(), time.Now())
	})
}

func TestNextDelayConcurrent(t *testing.T) {
	p := NewPlanner(0)
	now := time.Now()
	cfg := Config{MaxAttempts: 8, InitialDelay: time.Millisecond, BackoffFactor: 2.0}
	done := make(chan struct{})
	for g := 0; g < 50; g++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
				d, err := p.NextDelay(cfg, attempt, now, now)
				assert.NoError(t, err)
				assert.GreaterOrEqual(t, d, time.Duration(0))
			}
		}()
	}
	for g := 0; g < 50; g++ {
		<-done
	}
}
