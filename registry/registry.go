// Copyright 2026 The fetchretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package registry

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/explainers-by-googlers/fetch-retry/classify"
	"github.com/explainers-by-googlers/fetch-retry/liveness"
)

// Default quota ceilings. They are deliberately modest: retries raise
// the probability of delivery, and a page that needs hundreds of
// concurrent retrying requests is more likely buggy than unlucky. All
// three are tunable through Limits at Registry construction, never
// through request configuration.
const (
	// DefaultMaxAttemptsCeiling is the hard cap applied to any
	// per-request maxAttempts value.
	DefaultMaxAttemptsCeiling = 8
	// DefaultPerDocument is the maximum number of concurrently
	// registered sessions per isolation key.
	DefaultPerDocument = 24
	// DefaultGlobal is the maximum number of concurrently registered
	// sessions across the whole registry.
	DefaultGlobal = 256
)

// Limits configures the ceilings enforced by a Registry. A zero field
// selects the corresponding default.
type Limits struct {
	MaxAttemptsCeiling int
	PerDocument        int
	Global             int
}

func (l Limits) withDefaults() Limits {
	if l.MaxAttemptsCeiling == 0 {
		l.MaxAttemptsCeiling = DefaultMaxAttemptsCeiling
	}
	if l.PerDocument == 0 {
		l.PerDocument = DefaultPerDocument
	}
	if l.Global == 0 {
		l.Global = DefaultGlobal
	}
	return l
}

// A Registry tracks active retry sessions, enforces admission quotas,
// and routes document activation events to the liveness gate.
//
// A Registry is safe for concurrent use by multiple goroutines.
type Registry struct {
	limits Limits
	gate   *liveness.Gate

	global *semaphore.Weighted

	lock     sync.Mutex
	perDoc   map[string]int
	sessions map[string]string // session id -> isolation key
}

// New constructs a Registry with the given limits and liveness gate.
// Zero-valued limit fields select the package defaults. A nil gate
// means activation events have no waiters to wake, which is the right
// shape for embedders without document semantics.
func New(limits Limits, gate *liveness.Gate) *Registry {
	limits = limits.withDefaults()
	return &Registry{
		limits:   limits,
		gate:     gate,
		global:   semaphore.NewWeighted(int64(limits.Global)),
		perDoc:   make(map[string]int),
		sessions: make(map[string]string),
	}
}

// Gate returns the liveness gate the registry routes activation
// events to, which may be nil.
func (r *Registry) Gate() *liveness.Gate {
	return r.gate
}

// ClampAttempts applies the per-request attempt ceiling to a
// caller-supplied maxAttempts value.
func (r *Registry) ClampAttempts(maxAttempts int) int {
	if maxAttempts > r.limits.MaxAttemptsCeiling {
		return r.limits.MaxAttemptsCeiling
	}
	return maxAttempts
}

// Register admits the session with the given id under the given
// isolation key. If either the per-document or the global ceiling is
// full, Register returns classify.ErrQuotaExceeded and the request
// must degrade to a plain non-retrying request.
func (r *Registry) Register(sessionID, isolationKey string) error {
	if !r.global.TryAcquire(1) {
		return classify.ErrQuotaExceeded
	}

	r.lock.Lock()
	if r.perDoc[isolationKey] >= r.limits.PerDocument {
		r.lock.Unlock()
		r.global.Release(1)
		return classify.ErrQuotaExceeded
	}
	r.perDoc[isolationKey]++
	r.sessions[sessionID] = isolationKey
	r.lock.Unlock()
	return nil
}

// Unregister releases the quota held by a session. It is idempotent:
// releasing an unknown or already-released id does nothing, so
// sessions may call it unconditionally on every exit path.
func (r *Registry) Unregister(sessionID string) {
	r.lock.Lock()
	key, ok := r.sessions[sessionID]
	if ok {
		delete(r.sessions, sessionID)
		if r.perDoc[key] > 1 {
			r.perDoc[key]--
		} else {
			delete(r.perDoc, key)
		}
	}
	r.lock.Unlock()
	if ok {
		r.global.Release(1)
	}
}

// OnDocumentBecameActive records that a document with the given
// isolation key became fully active, waking every session parked on
// the liveness gate for that key. It is the sole mechanism that
// resolves liveness waits.
func (r *Registry) OnDocumentBecameActive(isolationKey string) {
	if r.gate != nil {
		r.gate.Activate(isolationKey)
	}
}

// Count returns the number of registered sessions for the isolation
// key.
func (r *Registry) Count(isolationKey string) int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.perDoc[isolationKey]
}

// Active returns the total number of registered sessions.
func (r *Registry) Active() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.sessions)
}

// Drain blocks until every registered session has unregistered or the
// context is cancelled. It exists for orderly shutdown and tests.
func (r *Registry) Drain(ctx context.Context) error {
	if err := r.global.Acquire(ctx, int64(r.limits.Global)); err != nil {
		return err
	}
	r.global.Release(int64(r.limits.Global))
	return nil
}
