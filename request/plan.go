// Copyright 2026 The fetchretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	urlpkg "net/url"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/explainers-by-googlers/fetch-retry/retry"
)

// AttemptHeader is the request header carrying the retry attempt
// number. It is set to 1 on the first retry, 2 on the second, and so
// on, and is never present on the initial attempt.
const AttemptHeader = "Retry-Attempt"

const nilCtxMsg = "fetchretry/request: nil context"

var template, _ = http.NewRequest("GET", "", nil)

// A Plan describes a logical retryable request.
//
// The logical request described by a Plan will typically result in a
// single lower-level http.Request being sent, but may result in
// several, one per retry attempt. The body is pre-buffered into a
// byte slice precisely so that it can be replayed on each attempt.
//
// Like the http.Request structure, a Plan has a context. The context
// is the request's abort signal: cancelling it stops the in-flight
// attempt and moves the session to its failed state from any
// non-terminal state.
type Plan struct {
	// Method specifies the HTTP method (GET, POST, PUT, etc.).
	// An empty string means GET.
	Method string

	// URL specifies the original URL to access. Retry attempts do not
	// necessarily target this URL: once an attempt has followed a
	// redirect, subsequent attempts target the last redirect hop.
	URL *urlpkg.URL

	// Header contains the request header fields to be sent on every
	// attempt.
	Header http.Header

	// Body is the pre-buffered request body. A nil or empty body
	// indicates no request body should be sent.
	Body []byte

	// Host optionally overrides the Host header to send. If it equals
	// URL.Host, the Host header follows each attempt's target URL
	// instead, which matters once a redirect moves the target to
	// another host.
	Host string

	// Close stipulates whether to close the connection after each
	// attempt, preventing re-use of TCP connections between attempts.
	Close bool

	// Keepalive marks the request as permitted to outlive its
	// originating document, in the manner of the fetch keepalive
	// flag. Retry.RetryAfterUnload has no effect unless Keepalive is
	// also set.
	Keepalive bool

	// IsolationKey identifies the network partition and document
	// context the request is bound to. Sessions are grouped by this
	// key for quota accounting and liveness gating. The empty string
	// is a valid key.
	IsolationKey string

	// Retry is the retry configuration for this request. The zero
	// value disables retries: the plan executes exactly as a
	// non-retrying request.
	Retry retry.Config

	// ctx is the abort signal for the whole plan. It should only be
	// modified by copying the whole Plan using WithContext.
	ctx context.Context
}

// NewPlan wraps NewPlanWithContext using the background context.
//
// Parameter body may be nil (empty body), or it may be a string,
// []byte, io.Reader, or io.ReadCloser; see BodyBytes.
func NewPlan(method, url string, body interface{}) (*Plan, error) {
	return NewPlanWithContext(context.Background(), method, url, body)
}

// NewPlanWithContext returns a new Plan given a method, URL, and
// optional body. The context is the plan's abort signal.
//
// Parameter body may be nil (empty body), or it may be a string,
// []byte, io.Reader, or io.ReadCloser; see BodyBytes.
func NewPlanWithContext(ctx context.Context, method, url string, body interface{}) (*Plan, error) {
	if ctx == nil {
		return nil, errors.New(nilCtxMsg)
	}
	if method == "" {
		method = "GET"
	}
	if !validMethod(method) {
		return nil, fmt.Errorf("fetchretry/request: invalid method %q", method)
	}
	u, err := urlpkg.Parse(url)
	if err != nil {
		return nil, err
	}
	u.Host = removeEmptyPort(u.Host)
	b, err := BodyBytes(body)
	if err != nil {
		return nil, err
	}
	return &Plan{
		ctx:    ctx,
		Method: method,
		URL:    u,
		Header: make(http.Header),
		Body:   b,
		Host:   u.Host,
	}, nil
}

// Context returns the plan's context, the abort signal for the whole
// retry session. The returned context is always non-nil; it defaults
// to the background context.
func (p *Plan) Context() context.Context {
	if p.ctx != nil {
		return p.ctx
	}
	return context.Background()
}

// WithContext returns a shallow copy of p with its context changed to
// ctx, which must be non-nil.
func (p *Plan) WithContext(ctx context.Context) *Plan {
	if ctx == nil {
		panic(nilCtxMsg)
	}
	p2 := new(Plan)
	*p2 = *p
	p2.ctx = ctx
	return p2
}

// AddCookie adds a cookie to the plan. Per RFC 6265 section 5.4,
// AddCookie does not attach more than one Cookie header field: all
// cookies are written into the same line, separated by semicolons.
func (p *Plan) AddCookie(c *http.Cookie) {
	c2 := &http.Cookie{Name: c.Name, Value: c.Value}
	s := c2.String()
	if h := p.Header.Get("Cookie"); h != "" {
		p.Header.Set("Cookie", h+"; "+s)
	} else {
		p.Header.Set("Cookie", s)
	}
}

// SetBasicAuth sets the plan's Authorization header to use HTTP Basic
// Authentication with the provided username and password, which are
// sent on every attempt.
func (p *Plan) SetBasicAuth(username, password string) {
	p.Header.Set("Authorization", "Basic "+basicAuth(username, password))
}

// ToRequest creates the HTTP request for one attempt of the plan.
//
// The request targets the given URL, which is the session's current
// target: the plan's original URL on the initial attempt, and the
// last redirect hop of the most recent attempt thereafter. The
// context of the new request is set to ctx, which may not be nil.
//
// For retries (attempt >= 1), the attempt-count header is set; the
// initial attempt (attempt 0) never carries it.
func (p *Plan) ToRequest(ctx context.Context, target *urlpkg.URL, attempt int) *http.Request {
	r := template.WithContext(ctx)
	r.Method = p.Method
	r.URL = target
	r.Header = p.Header
	if attempt > 0 {
		r.Header = cloneHeader(p.Header)
		r.Header.Set(AttemptHeader, strconv.Itoa(attempt))
	}
	if len(p.Body) > 0 {
		r.Body = io.NopCloser(bytes.NewReader(p.Body))
		r.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(p.Body)), nil
		}
		r.ContentLength = int64(len(p.Body))
	}
	r.Close = p.Close
	if p.Host != p.URL.Host {
		// An explicit Host override sticks to every attempt; otherwise
		// the Host header follows the target, which may be a redirect
		// hop on a different host.
		r.Host = p.Host
	}
	return r
}

func cloneHeader(h http.Header) http.Header {
	h2 := make(http.Header, len(h)+1)
	for k, vv := range h {
		vv2 := make([]string, len(vv))
		copy(vv2, vv)
		h2[k] = vv2
	}
	return h2
}

// basicAuth follows RFC 2617: userid and password, separated by a
// colon, within a base64 encoded string. Not urlencoded.
func basicAuth(username, password string) string {
	auth := username + ":" + password
	return base64.StdEncoding.EncodeToString([]byte(auth))
}

// validMethod reports whether method is a valid HTTP token per RFC
// 7230 section 3.2.6. Methods and header field names share the token
// grammar, so the httpguts header-name check applies.
func validMethod(method string) bool {
	return httpguts.ValidHeaderFieldName(method)
}

// hasPort reports whether a string of the form "host", "host:port",
// or "[ipv6::address]:port" includes a port.
func hasPort(s string) bool { return strings.LastIndex(s, ":") > strings.LastIndex(s, "]") }

// removeEmptyPort strips the empty port in ":port" to "" as mandated
// by RFC 3986 Section 6.2.3.
func removeEmptyPort(host string) string {
	if hasPort(host) {
		return strings.TrimSuffix(host, ":")
	}
	return host
}
