// Copyright 2026 The fetchretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		valid := []Config{
			{},
			{MaxAttempts: 3},
			{MaxAttempts: 3, InitialDelay: 500 * time.Millisecond, BackoffFactor: 2.0},
			{MaxAttempts: 5, MaxAge: time.Second},
			{MaxAttempts: 1, BackoffFactor: 1.0},
			{RetryAfterUnload: true, RetryNonIdempotent: true},
		}
		for i, cfg := range valid {
			assert.NoError(t, cfg.Validate(), fmt.Sprintf("valid[%d]", i))
		}
	})
	t.Run("invalid", func(t *testing.T) {
		invalid := []Config{
			{MaxAttempts: -1},
			{InitialDelay: -time.Second},
			{BackoffFactor: 0.5},
			{BackoffFactor: -1.0},
			{MaxAge: -time.Millisecond},
		}
		for i, cfg := range invalid {
			err := cfg.Validate()
			assert.ErrorIs(t, err, ErrInvalidConfig, fmt.Sprintf("invalid[%d]", i))
		}
	})
}

func TestConfigDeadline(t *testing.T) {
	first := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	t.Run("unbounded without MaxAge", func(t *testing.T) {
		_, bounded := Config{}.Deadline(first)
		assert.False(t, bounded)
	})
	t.Run("unbounded before first failure", func(t *testing.T) {
		_, bounded := Config{MaxAge: time.Second}.Deadline(time.Time{})
		assert.False(t, bounded)
	})
	t.Run("bounded", func(t *testing.T) {
		deadline, bounded := Config{MaxAge: time.Second}.Deadline(first)
		assert.True(t, bounded)
		assert.Equal(t, first.Add(time.Second), deadline)
	})
}
