// Copyright 2026 The fetchretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package liveness

import (
	"sync"

	"github.com/explainers-by-googlers/fetch-retry/classify"
)

// A DocumentTracker answers whether any fully active document
// currently exists for an isolation key. It is the module's window
// into page lifecycle state, which is tracked elsewhere.
//
// Implementations must be safe for concurrent use by multiple
// goroutines.
type DocumentTracker interface {
	// IsFullyActive reports whether at least one fully active document
	// shares the given isolation key.
	IsFullyActive(isolationKey string) bool
}

// AlwaysActive is a DocumentTracker that reports every isolation key
// as live. It is the default tracker for coordinators embedded in
// ordinary programs, where there is no document lifecycle to observe.
var AlwaysActive DocumentTracker = alwaysActive{}

type alwaysActive struct{}

func (alwaysActive) IsFullyActive(_ string) bool {
	return true
}

// A Gate decides, before each retry attempt, whether a live execution
// context exists for the session's isolation key, and parks sessions
// that are authorized to wait for one.
//
// A Gate is safe for concurrent use by multiple goroutines.
type Gate struct {
	tracker DocumentTracker
	lock    sync.Mutex
	waiters map[string][]chan struct{}
}

// NewGate constructs a Gate using the given tracker. A nil tracker
// means AlwaysActive.
func NewGate(tracker DocumentTracker) *Gate {
	if tracker == nil {
		tracker = AlwaysActive
	}
	return &Gate{
		tracker: tracker,
		waiters: make(map[string][]chan struct{}),
	}
}

// Ensure checks for a live execution context for the isolation key.
//
// If a fully active document exists, Ensure returns (nil, nil): the
// session may proceed immediately. If none exists and the session is
// not authorized to outlive its document (retryAfterUnload false, or
// keepalive unset), Ensure returns classify.ErrLivenessLost and the
// session must fail without further attempts. Otherwise Ensure
// registers and returns a signal channel which is closed by Activate
// when a document with this key becomes fully active.
//
// A session that stops waiting on the returned channel for any reason
// other than the channel closing must release it with Cancel.
func (g *Gate) Ensure(isolationKey string, retryAfterUnload bool) (<-chan struct{}, error) {
	if g.tracker.IsFullyActive(isolationKey) {
		return nil, nil
	}
	if !retryAfterUnload {
		return nil, classify.ErrLivenessLost
	}

	ch := make(chan struct{})
	g.lock.Lock()
	g.waiters[isolationKey] = append(g.waiters[isolationKey], ch)
	g.lock.Unlock()
	return ch, nil
}

// Activate wakes every session waiting on the isolation key. It is
// called by the registry when a document for the key becomes fully
// active. Waking is idempotent per waiter: each registered channel is
// closed exactly once and then forgotten.
func (g *Gate) Activate(isolationKey string) {
	g.lock.Lock()
	chs := g.waiters[isolationKey]
	delete(g.waiters, isolationKey)
	g.lock.Unlock()
	for _, ch := range chs {
		close(ch)
	}
}

// Cancel releases a signal channel previously returned by Ensure
// without waking it. Sessions call Cancel on abrupt exit paths
// (abort, budget expiry) so the gate does not accumulate dead
// waiters.
func (g *Gate) Cancel(isolationKey string, ch <-chan struct{}) {
	g.lock.Lock()
	defer g.lock.Unlock()
	chs := g.waiters[isolationKey]
	for i := range chs {
		if chs[i] == ch {
			chs[i] = chs[len(chs)-1]
			chs = chs[:len(chs)-1]
			break
		}
	}
	if len(chs) == 0 {
		delete(g.waiters, isolationKey)
	} else {
		g.waiters[isolationKey] = chs
	}
}

// Waiting returns the number of sessions currently parked on the
// isolation key.
func (g *Gate) Waiting(isolationKey string) int {
	g.lock.Lock()
	defer g.lock.Unlock()
	return len(g.waiters[isolationKey])
}
