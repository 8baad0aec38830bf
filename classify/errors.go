// Copyright 2026 The fetchretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package classify

import "errors"

// Sentinel errors marking the non-retryable failure causes recognized
// by the retry coordinator. Collaborators (transports, security layers,
// the liveness gate) wrap these sentinels into the errors they produce;
// Classify and callers detect them with errors.Is.
var (
	// ErrSecurityPolicy marks a failure caused by a security policy
	// check: CORS, CSP, mixed content, and similar. Such failures are
	// deterministic, so a retry can never succeed.
	ErrSecurityPolicy = errors.New("fetchretry: blocked by security policy")

	// ErrCancelled marks a programmatic cancellation of the request.
	// The caller asked for the request to stop, so the coordinator
	// must not quietly keep trying.
	ErrCancelled = errors.New("fetchretry: request cancelled")

	// ErrMalformedRequest marks a request that could not be sent
	// because it was invalid as constructed.
	ErrMalformedRequest = errors.New("fetchretry: malformed request")

	// ErrQuotaExceeded marks a retry session that could not be
	// admitted because a registry quota was full. It is reported to
	// logs only: at registration time the request degrades to a plain
	// non-retrying request rather than failing.
	ErrQuotaExceeded = errors.New("fetchretry: retry quota exceeded")

	// ErrLivenessLost marks a session whose originating document went
	// away while a retry was pending and which was not authorized to
	// outlive it.
	ErrLivenessLost = errors.New("fetchretry: document no longer active")
)
