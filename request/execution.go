// Copyright 2026 The fetchretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"net/http"
	urlpkg "net/url"
	"time"
)

// An Execution represents the state of a single retry session
// executing a Plan.
//
// The Execution is created when the session starts, updated as the
// session progresses (when a response arrives, when a retry is
// scheduled), and ultimately delivered to the caller as the session's
// outcome.
//
// Event handlers may attach values to an Execution using SetValue and
// read them back with Value. They should treat the exported fields as
// immutable: those fields are mutated only by the owning session's
// own transition logic, which is what makes the session lock-free.
type Execution struct {
	// Plan specifies the request plan being executed. It is never
	// nil.
	Plan *Plan

	// Start is the start time of the session. It is assigned a
	// non-zero value when the session starts and remains constant
	// thereafter.
	Start time.Time

	// End is the end time of the session. It contains the zero value
	// until the session reaches a terminal state.
	End time.Time

	// Attempt is the zero-based number of the current attempt. It is
	// zero on the initial attempt, one on the first retry, and so on.
	// When the session has ended, Attempt holds the number of the
	// last attempt made.
	Attempt int

	// Target is the URL the current attempt is issued against. It is
	// initialized to the plan's original URL and updated to the last
	// redirect hop after each attempt, so that retries chase the
	// request's observed destination rather than its original one.
	Target *urlpkg.URL

	// FirstFailure is the time of the first retryable failure. It is
	// set once and never reset; the session's maximum age is measured
	// from it.
	FirstFailure time.Time

	// Request specifies the HTTP request made, or about to be made,
	// in the current attempt.
	Request *http.Request

	// Response specifies the HTTP response received in the most
	// recent attempt. It is nil if that attempt failed before any
	// response was received, or while an attempt is underway.
	Response *http.Response

	// Err is the error received in the most recent attempt, nil if
	// the attempt ended without error. While the session is in
	// flight, Err may fluctuate between nil and various non-nil
	// values; once the session has ended it is fixed and equals the
	// error delivered to the caller. Whenever Err is non-nil, it has
	// type *url.Error.
	Err error

	// Body contains the response body read after the most recent
	// attempt. If reading the body ended in an error, Body may hold a
	// partial prefix; treat it as invalid unless Err is nil.
	Body []byte

	// data holds arbitrary handler-attached values.
	data context.Context
}

// StatusCode returns the status code of the HTTP response from the
// most recent attempt, or 0 if there is no response.
func (e *Execution) StatusCode() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.StatusCode
}

// Header returns the HTTP response headers from the most recent
// attempt, or a nil header if there is no response. A nil return
// value is safe for read-only operations.
func (e *Execution) Header() http.Header {
	if e.Response == nil {
		var nilHeader http.Header
		return nilHeader
	}
	return e.Response.Header
}

// Duration returns the duration of the session so far, or its total
// duration once it has ended. The value is monotonically increasing
// over the life of the session and becomes static at the end.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return time.Duration(0)
	} else if !e.Ended() {
		return time.Since(e.Start)
	}
	return e.End.Sub(e.Start)
}

// Age returns the time elapsed since the first retryable failure, or
// zero if no retryable failure has occurred. The session's maximum
// age budget is evaluated against this value.
func (e *Execution) Age() time.Duration {
	if e.FirstFailure.IsZero() {
		return time.Duration(0)
	}
	return time.Since(e.FirstFailure)
}

// Started indicates whether the session has started.
func (e *Execution) Started() bool {
	return e.Start != (time.Time{})
}

// Ended indicates whether the session has reached a terminal state.
// Once Ended returns true there will be no further changes to the
// execution.
func (e *Execution) Ended() bool {
	return e.End != (time.Time{})
}

// SetValue allows event handlers to store arbitrary data in the
// execution.
//
// The key must follow the same rules as the key parameter in
// context.WithValue: it may not be nil, it must be comparable, and it
// should not be of a built-in type, to avoid collisions between
// handlers.
func (e *Execution) SetValue(key, value interface{}) {
	ctx := e.data
	if ctx == nil {
		ctx = context.Background()
	}
	e.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this execution for
// key, or nil if there is none.
func (e *Execution) Value(key interface{}) interface{} {
	ctx := e.data
	if ctx == nil {
		return nil
	}
	return ctx.Value(key)
}
