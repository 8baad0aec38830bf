// Copyright 2026 The fetchretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package liveness gates retries on the existence of a fully active
// document for the request's isolation key.
//
// A retry must not run silently in a context the user has no visible
// attachment to. Before each retry attempt the session asks the Gate
// whether a live execution context exists. If the originating document
// is gone and the request was not authorized to outlive it, the gate
// reports a lost-liveness error and the session fails. If the request
// was authorized (retryAfterUnload with keepalive), the gate either
// confirms that some fully active document shares the isolation key,
// or hands back a signal channel that is closed when one becomes
// active again.
//
// The Gate never polls: activation is delivered by the registry
// calling Activate, the wake-on-event pattern.
package liveness
