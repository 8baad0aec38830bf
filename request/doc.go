// Copyright 2026 The fetchretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package request provides the Plan type, describing a logical
// retryable request, and the Execution type, tracking the state of a
// retry session as it makes attempts against that plan.
//
// A Plan is created once by the caller and never modified by the
// retry machinery. It carries the method, original URL, headers, a
// pre-buffered body (so the body can be replayed on every attempt),
// the keepalive flag, the isolation key binding the request to its
// originating document context, and the retry configuration.
//
// An Execution is created per session and mutated only by the owning
// session's transition logic. Event handlers observe it but should
// treat its exported fields as immutable.
package request
