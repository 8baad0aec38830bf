// Copyright 2026 The fetchretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fetchretry

import (
	"context"
	"errors"
	"io"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/explainers-by-googlers/fetch-retry/classify"
	"github.com/explainers-by-googlers/fetch-retry/liveness"
	"github.com/explainers-by-googlers/fetch-retry/registry"
	"github.com/explainers-by-googlers/fetch-retry/request"
	"github.com/explainers-by-googlers/fetch-retry/retry"
)

// A State is the lifecycle state of a retry Session.
type State int32

const (
	// Pending is the state before and during the initial attempt.
	Pending State = iota
	// AwaitingBackoff is the state while the session computes its
	// next delay and waits for the backoff timer to fire.
	AwaitingBackoff
	// AwaitingLiveness is the state while the session waits for a
	// fully active document to exist for its isolation key.
	AwaitingLiveness
	// InFlight is the state during each retry attempt.
	InFlight
	// Succeeded is the terminal state of a session whose last attempt
	// produced an HTTP response.
	Succeeded
	// Failed is the terminal state of a session that ended on a
	// non-retryable error, an abort, or a lost-liveness condition.
	Failed
	// Exhausted is the terminal state of a session that ran out of
	// retry budget, by attempt count or by age. It is distinguished
	// from Failed for diagnostics only: the caller sees the same
	// rejection, carrying the last attempt's error.
	Exhausted
)

var stateNames = []string{
	"Pending",
	"AwaitingBackoff",
	"AwaitingLiveness",
	"InFlight",
	"Succeeded",
	"Failed",
	"Exhausted",
}

// Terminal reports whether the state is one of the three terminal
// states.
func (s State) Terminal() bool {
	return s >= Succeeded
}

// String returns the name of the state.
func (s State) String() string {
	return stateNames[int(s)]
}

// A Session is the per-request retry state machine, and the handle
// through which a detached execution's outcome is delivered.
//
// A Session runs on its own goroutine, independent of the goroutine
// that started it: the caller holds only this handle, which the
// session resolves exactly once on reaching a terminal state. All
// session state is mutated only by the session's own transition
// logic; the handle methods are safe to call from any goroutine at
// any time.
type Session struct {
	id             string
	plan           *request.Plan
	cfg            retry.Config
	exec           *request.Execution
	transport      Transport
	planner        *retry.Planner
	gate           *liveness.Gate
	reg            *registry.Registry
	handlers       *HandlerGroup
	logger         zerolog.Logger
	attemptTimeout time.Duration
	afterUnload    bool
	registered     bool

	st   atomic.Int32
	done chan struct{}
}

// ID returns the session identifier, which is also the registry key
// of the session while it is registered.
func (s *Session) ID() string {
	return s.id
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	return State(s.st.Load())
}

// Done returns a channel that is closed when the session reaches a
// terminal state and its outcome is available.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Outcome returns the session's final execution state and error. It
// must not be called before the channel returned by Done is closed.
//
// The returned error is nil exactly when the session Succeeded; a
// Failed or Exhausted session returns the last attempt's error, of
// type *url.Error. The two rejection states are deliberately
// indistinguishable here; use State for diagnostics.
func (s *Session) Outcome() (*request.Execution, error) {
	return s.exec, s.exec.Err
}

// run is the session's dispatch loop: one state, one step, until a
// terminal state is reached. It is the only goroutine that mutates
// the session or its execution.
func (s *Session) run() {
	e := s.exec
	e.Start = time.Now()
	s.handlers.run(BeforeSessionStart, e)

	for {
		switch s.State() {
		case Pending, InFlight:
			s.stepAttempt()
		case AwaitingBackoff:
			s.stepBackoff()
		case AwaitingLiveness:
			s.stepLiveness()
		default:
			s.finish()
			return
		}
	}
}

// stepAttempt issues one attempt (initial or retry) against the
// current target and classifies its outcome.
func (s *Session) stepAttempt() {
	e := s.exec

	ctx := s.plan.Context()
	cancel := func() {}
	if s.attemptTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.attemptTimeout)
	}

	e.Request = s.plan.ToRequest(ctx, e.Target, e.Attempt)
	s.handlers.run(BeforeAttempt, e)
	resp, err := s.transport.Do(e.Request)
	e.Response = resp
	if err != nil {
		e.Err = urlErrorWrap(s.plan, err)
		s.targetFromError(e.Err)
	} else {
		e.Err = nil
		if resp.Request != nil && resp.Request.URL != nil {
			// The transport followed redirects within this attempt;
			// any further retry chases the final hop.
			e.Target = resp.Request.URL
		}
		s.readBody()
	}
	cancel()
	s.handlers.run(AfterAttempt, e)

	// The plan context is the abort signal: once it fires, the
	// session fails regardless of the attempt's own outcome.
	if ctxErr := s.plan.Context().Err(); ctxErr != nil {
		if e.Err == nil {
			e.Err = urlErrorWrap(s.plan, ctxErr)
		}
		s.transition(Failed)
		return
	}

	switch classify.Classify(e.Response, e.Err, s.plan.Method, s.cfg.RetryNonIdempotent) {
	case classify.Success:
		s.transition(Succeeded)
	case classify.NonRetryable:
		s.transition(Failed)
	default:
		if s.cfg.MaxAttempts == 0 {
			// Not a retrying request; fail like one.
			s.transition(Failed)
			return
		}
		if e.FirstFailure.IsZero() {
			e.FirstFailure = time.Now()
		}
		s.transition(AwaitingBackoff)
	}
}

// readBody buffers the response body into the execution, so the
// delivered outcome remains usable after the session goroutine exits.
func (s *Session) readBody() {
	e := s.exec
	if e.Response.Body == nil {
		e.Body = nil
		return
	}
	defer func() {
		_ = e.Response.Body.Close()
	}()
	s.handlers.run(BeforeReadBody, e)
	var err error
	e.Body, err = io.ReadAll(e.Response.Body)
	if err != nil {
		e.Err = urlErrorWrap(s.plan, err)
	}
}

// stepBackoff computes the next delay, re-evaluating the retry budget
// at this moment, and waits it out.
func (s *Session) stepBackoff() {
	e := s.exec
	delay, err := s.planner.NextDelay(s.cfg, e.Attempt+1, e.FirstFailure, time.Now())
	if err != nil {
		s.transition(Exhausted)
		return
	}

	timer := time.NewTimer(delay)
	select {
	case <-timer.C:
		s.transition(AwaitingLiveness)
	case <-s.plan.Context().Done():
		timer.Stop()
		s.failAborted()
	}
}

// stepLiveness checks for a live execution context before the next
// attempt, parking the session if it is authorized to wait for one.
func (s *Session) stepLiveness() {
	e := s.exec
	ch, err := s.gate.Ensure(s.plan.IsolationKey, s.afterUnload)
	if err != nil {
		e.Err = urlErrorWrap(s.plan, err)
		s.transition(Failed)
		return
	}
	if ch == nil {
		e.Attempt++
		e.Response = nil
		e.Err = nil
		e.Body = nil
		s.transition(InFlight)
		return
	}

	// Parked. The wait is unbounded except by the session's own age
	// budget and the abort signal; there is no polling.
	var deadlineC <-chan time.Time
	if deadline, bounded := s.cfg.Deadline(e.FirstFailure); bounded {
		timer := time.NewTimer(time.Until(deadline))
		defer timer.Stop()
		deadlineC = timer.C
	}

	select {
	case <-ch:
		// A document became active; resume at the backoff step so
		// the budget is re-evaluated with a fresh clock.
		s.transition(AwaitingBackoff)
	case <-deadlineC:
		s.gate.Cancel(s.plan.IsolationKey, ch)
		s.transition(Exhausted)
	case <-s.plan.Context().Done():
		s.gate.Cancel(s.plan.IsolationKey, ch)
		s.failAborted()
	}
}

// failAborted resolves the session as Failed on the plan's abort
// signal, discarding whatever wait it interrupted.
func (s *Session) failAborted() {
	e := s.exec
	ctxErr := s.plan.Context().Err()
	if ctxErr == nil {
		ctxErr = classify.ErrCancelled
	}
	e.Err = urlErrorWrap(s.plan, ctxErr)
	s.transition(Failed)
}

// finish delivers the outcome exactly once: stamps the end time,
// fires the final event, releases the registry entry, and closes the
// done channel.
func (s *Session) finish() {
	e := s.exec
	e.End = time.Now()
	s.handlers.run(AfterSessionEnd, e)
	if s.registered {
		s.reg.Unregister(s.id)
	}
	s.logger.Debug().
		Str("session", s.id).
		Str("key", s.plan.IsolationKey).
		Stringer("state", s.State()).
		Int("attempts", e.Attempt+1).
		Dur("duration", e.Duration()).
		Msg("session ended")
	close(s.done)
}

func (s *Session) transition(next State) {
	prev := State(s.st.Load())
	s.st.Store(int32(next))
	s.logger.Debug().
		Str("session", s.id).
		Int("attempt", s.exec.Attempt).
		Stringer("from", prev).
		Stringer("to", next).
		Msg("transition")
}

// targetFromError recovers the last redirect hop from a failed
// attempt. The transport reports the URL it was fetching when the
// failure occurred, which is the plan URL on a first-hop failure and
// the last hop reached otherwise.
func (s *Session) targetFromError(err error) {
	var uerr *url.Error
	if !errors.As(err, &uerr) || uerr.URL == "" {
		return
	}
	if u, perr := url.Parse(uerr.URL); perr == nil {
		s.exec.Target = u
	}
}
