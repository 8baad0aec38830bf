// Copyright 2026 The fetchretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fetchretry

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/explainers-by-googlers/fetch-retry/liveness"
	"github.com/explainers-by-googlers/fetch-retry/registry"
	"github.com/explainers-by-googlers/fetch-retry/request"
	"github.com/explainers-by-googlers/fetch-retry/retry"
)

// A Transport implements the low-level sending of one request attempt
// and receiving of its response, including redirect following,
// connection management, and security policy enforcement.
//
// The Do method must follow the contract documented on the standard
// library http.Client from the net/http package; in particular the
// response's Request field must identify the final request of the
// redirect chain, which is how the coordinator tracks the target of
// subsequent retries. The standard http.Client satisfies Transport
// directly.
type Transport interface {
	// Do sends a single HTTP request attempt and returns its
	// response, following policy (redirects, cookies, auth)
	// configured on the Transport.
	Do(r *http.Request) (*http.Response, error)
}

// DefaultRegistry is the registry used by coordinators whose Registry
// field is nil. It carries the default quota ceilings and a liveness
// gate that treats every isolation key as live, which is the right
// shape for programs without document semantics.
var DefaultRegistry = registry.New(registry.Limits{}, liveness.NewGate(nil))

var emptyHandlers = HandlerGroup{}

// A Coordinator owns the retry lifecycle of requests executed through
// it: it classifies failed attempts, schedules backoff, gates retries
// on document liveness, and enforces registry quotas. Its zero value
// is a valid configuration.
//
// The zero value coordinator uses http.DefaultClient as the
// Transport, retry.DefaultPlanner for backoff, DefaultRegistry for
// quotas and liveness, no event handlers, and no logging.
//
// A Coordinator is safe for concurrent use by multiple goroutines,
// and should be reused rather than created per request: its Transport
// typically caches TCP connections.
//
// The Coordinator is higher-level than its Transport. The Transport
// is responsible for all details of sending one request attempt and
// receiving the response, including following redirects; the
// Coordinator decides whether, when, and against which URL another
// attempt is made.
type Coordinator struct {
	// Transport specifies the mechanics of sending individual request
	// attempts. If nil, http.DefaultClient is used.
	Transport Transport

	// Planner computes backoff delays and enforces each session's
	// retry budget. If nil, retry.DefaultPlanner is used.
	Planner *retry.Planner

	// Registry tracks active sessions, enforces quota ceilings, and
	// routes document activation events to the liveness gate. If nil,
	// DefaultRegistry is used.
	Registry *registry.Registry

	// AttemptTimeout bounds each individual attempt. Zero means
	// attempts are bounded only by the plan context and the
	// Transport's own configuration. An attempt that exceeds the
	// timeout fails with a transient timeout error and is eligible
	// for retry.
	AttemptTimeout time.Duration

	// Handlers allows custom handler chains to be invoked when
	// designated events occur during a session. If nil, no custom
	// handlers run.
	Handlers *HandlerGroup

	// Logger, if non-nil, receives debug-level session state
	// transitions and terminal outcomes.
	Logger *zerolog.Logger
}

// Do executes a request plan to completion and returns the final
// outcome, following the retry configuration on the plan and the
// policies set on the Coordinator.
//
// The result is the result of the final attempt made during the
// session. An error is returned if, after any retries permitted by
// the plan's retry configuration, the final attempt resulted in an
// error; any returned error is of type *url.Error. A response with a
// non-2XX status code is not an error and ends the session
// immediately; this coordinator never retries on status codes.
//
// The returned Execution is nil only if the plan's retry
// configuration is invalid. Otherwise it always carries the final
// attempt's state: a non-nil Response and fully buffered Body on
// success, or the final attempt's error.
//
// To detach the session from the calling goroutine, use Start.
func (c *Coordinator) Do(p *request.Plan) (*request.Execution, error) {
	s, err := c.Start(p)
	if err != nil {
		return nil, err
	}
	<-s.Done()
	return s.Outcome()
}

// Start creates the retry session for a request plan and launches it
// on its own goroutine, detached from the caller. The returned
// Session is the handle through which the outcome is eventually
// delivered, exactly once; the session itself runs to a terminal
// state whether or not the caller keeps the handle.
//
// Start returns an error only if the plan's retry configuration fails
// validation. A plan whose configuration permits no retries
// (MaxAttempts of zero) is executed as a plain non-retrying request:
// no registry entry is created and no attempt-count header is ever
// sent.
//
// If a registry quota is full, the session degrades to a plain
// non-retrying request rather than failing; the degradation is
// observable only in logs.
func (c *Coordinator) Start(p *request.Plan) (*Session, error) {
	cfg := p.Retry
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg := c.registry()
	cfg.MaxAttempts = reg.ClampAttempts(cfg.MaxAttempts)
	logger := c.logger()

	s := &Session{
		id:             uuid.NewString(),
		plan:           p,
		cfg:            cfg,
		transport:      c.transport(),
		planner:        c.planner(),
		gate:           c.gate(),
		reg:            reg,
		handlers:       c.handlers(),
		logger:         logger,
		attemptTimeout: c.AttemptTimeout,
		afterUnload:    cfg.RetryAfterUnload && p.Keepalive,
		done:           make(chan struct{}),
		exec: &request.Execution{
			Plan:   p,
			Target: p.URL,
		},
	}

	if cfg.MaxAttempts > 0 {
		if err := reg.Register(s.id, p.IsolationKey); err != nil {
			logger.Warn().
				Str("session", s.id).
				Str("key", p.IsolationKey).
				Msg("retry quota exceeded, degrading to non-retrying request")
			s.cfg.MaxAttempts = 0
		} else {
			s.registered = true
		}
	}

	go s.run()
	return s, nil
}

// Get issues a GET to the specified URL, using the same policies
// followed by Do.
//
// To attach retry configuration or custom headers, use
// request.NewPlan and Coordinator.Do.
func (c *Coordinator) Get(url string) (*request.Execution, error) {
	return Get(c, url)
}

// Head issues a HEAD to the specified URL, using the same policies
// followed by Do.
func (c *Coordinator) Head(url string) (*request.Execution, error) {
	return Head(c, url)
}

// Post issues a POST to the specified URL, using the same policies
// followed by Do.
//
// The body parameter may be nil for an empty body, or may be any of
// the types supported by request.NewPlan and request.BodyBytes:
// string, []byte, io.Reader, or io.ReadCloser. Note that POST is not
// idempotent, so the request is retried only if the plan's retry
// configuration sets RetryNonIdempotent.
func (c *Coordinator) Post(url, contentType string, body interface{}) (*request.Execution, error) {
	return Post(c, url, contentType, body)
}

// CloseIdleConnections invokes the same method on the coordinator's
// underlying Transport, if it has one, and does nothing otherwise.
func (c *Coordinator) CloseIdleConnections() {
	if ic, ok := c.transport().(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

func (c *Coordinator) transport() Transport {
	if c.Transport == nil {
		return http.DefaultClient
	}
	return c.Transport
}

func (c *Coordinator) planner() *retry.Planner {
	if c.Planner == nil {
		return retry.DefaultPlanner
	}
	return c.Planner
}

func (c *Coordinator) registry() *registry.Registry {
	if c.Registry == nil {
		return DefaultRegistry
	}
	return c.Registry
}

func (c *Coordinator) gate() *liveness.Gate {
	if g := c.registry().Gate(); g != nil {
		return g
	}
	return alwaysLiveGate
}

func (c *Coordinator) handlers() *HandlerGroup {
	if c.Handlers == nil {
		return &emptyHandlers
	}
	return c.Handlers
}

func (c *Coordinator) logger() zerolog.Logger {
	if c.Logger == nil {
		return zerolog.Nop()
	}
	return *c.Logger
}

// alwaysLiveGate serves registries constructed without a gate.
var alwaysLiveGate = liveness.NewGate(nil)

func urlErrorWrap(p *request.Plan, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}

	return &url.Error{
		Op:  urlErrorOp(p.Method),
		URL: p.URL.String(),
		Err: err,
	}
}

// urlErrorOp follows the capitalization convention of net/http.
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
