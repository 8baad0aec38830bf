// Copyright 2026 The fetchretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry defines the per-request retry configuration and the
// backoff planner that turns it into concrete delays.
//
// A Config travels with the request plan and is copied into the retry
// session at creation time, so later mutation by the caller cannot
// affect an in-flight session. The zero value of Config disables
// retries entirely.
//
// A Planner computes the delay before the n-th retry:
//
//	delay = initialDelay × backoffFactor^(n-1)
//
// scaled by a multiplicative jitter factor sampled uniformly from a
// band around 1.0, so that independent sessions do not retry in
// lockstep. NextDelay also enforces the session's overall budget: it
// returns ErrExpired once the attempt cap is reached or once the
// configured maximum age, measured from the first failure, has been or
// would be exceeded. The budget is re-evaluated every time a delay is
// computed, not only at session start, because liveness waits can
// consume arbitrary wall-clock time.
package retry
