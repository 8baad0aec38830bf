// Copyright 2026 The fetchretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fetchretry

import (
	"github.com/explainers-by-googlers/fetch-retry/request"
)

// Doer is the interface implemented by Coordinator's blocking request
// method. Consume a Doer rather than a concrete Coordinator to allow
// substituting a test double.
type Doer interface {
	// Do executes a request plan to completion, following the retry
	// configuration on the plan.
	Do(p *request.Plan) (*request.Execution, error)
}

// Starter is the interface implemented by Coordinator's detaching
// request method.
type Starter interface {
	// Start creates and launches the retry session for a plan,
	// returning the handle that delivers its eventual outcome.
	Start(p *request.Plan) (*Session, error)
}

// IdleCloser is the interface implemented by transports which can
// close their idle connections, such as the standard http.Client.
type IdleCloser interface {
	CloseIdleConnections()
}

// Get issues a GET to the specified URL via the Doer.
//
// To attach retry configuration or custom headers, use
// request.NewPlan and the Doer's Do method directly.
func Get(d Doer, url string) (*request.Execution, error) {
	p, err := request.NewPlan("GET", url, nil)
	if err != nil {
		return nil, err
	}
	return d.Do(p)
}

// Head issues a HEAD to the specified URL via the Doer.
func Head(d Doer, url string) (*request.Execution, error) {
	p, err := request.NewPlan("HEAD", url, nil)
	if err != nil {
		return nil, err
	}
	return d.Do(p)
}

// Post issues a POST to the specified URL via the Doer, with the
// given Content-Type header and body.
//
// The body parameter may be nil, or any of the types supported by
// request.BodyBytes: string, []byte, io.Reader, or io.ReadCloser.
func Post(d Doer, url, contentType string, body interface{}) (*request.Execution, error) {
	p, err := request.NewPlan("POST", url, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		p.Header.Set("Content-Type", contentType)
	}
	return d.Do(p)
}
