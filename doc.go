// Copyright 2026 The fetchretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package fetchretry provides a retry coordinator for outbound requests
that fail with transient network errors, in the manner of the fetch
retry mechanism managed by browsers: the caller opts in once, at
request creation, and the coordinator owns the retry lifecycle from
there, including after the originating context has gone away.

Create a Coordinator and execute a request plan:

	coordinator := &fetchretry.Coordinator{}
	plan, err := request.NewPlan("GET", "https://www.example.com", nil)
	...
	plan.Retry = retry.Config{
		MaxAttempts:   3,
		InitialDelay:  500 * time.Millisecond,
		BackoffFactor: 2.0,
	}
	ex, err := coordinator.Do(plan)

Do blocks until the session reaches a terminal state. To detach the
session from the calling goroutine, use Start, which returns a Session
handle the session resolves exactly once:

	session, err := coordinator.Start(plan)
	...
	<-session.Done()
	ex, err := session.Outcome()

Each retry attempt carries a Retry-Attempt header with the one-based
retry number; the initial attempt never carries it. Retries target the
URL left behind by the most recent attempt's redirect chain, not the
original URL. Transient transport failures (timeouts, connection
resets and refusals, DNS failures) are retried; received HTTP
responses are final whatever their status code; cancellations and
security policy failures are never retried; and non-idempotent methods
are retried only with the explicit RetryNonIdempotent opt-in.

For embedders that track document lifecycles, the registry and
liveness packages gate retries on the existence of a fully active
document for the request's isolation key, and bound how many sessions
a document or a process may have in flight:

	gate := liveness.NewGate(myTracker)
	reg := registry.New(registry.Limits{}, gate)
	coordinator := &fetchretry.Coordinator{Registry: reg}
	...
	reg.OnDocumentBecameActive(key) // wakes parked sessions

To hook into the fine-grained details of session execution, install a
handler into the appropriate handler chain:

	handlers := &fetchretry.HandlerGroup{}
	handlers.PushBack(fetchretry.BeforeAttempt, fetchretry.HandlerFunc(
		func(_ fetchretry.Event, e *request.Execution) {
			log.Printf("attempt %d to %s", e.Attempt, e.Target)
		}),
	)
	coordinator := &fetchretry.Coordinator{Handlers: handlers}
*/
package fetchretry
