// Copyright 2026 The fetchretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fetchretry

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a Coordinator to observe or
// extend session execution.
type Event int

const (
	// BeforeSessionStart identifies the event that occurs before a
	// retry session makes its initial attempt.
	//
	// When the Coordinator fires BeforeSessionStart, the execution is
	// non-nil and its plan and target are set.
	BeforeSessionStart Event = iota
	// BeforeAttempt identifies the event that occurs before each
	// individual request attempt, initial or retry.
	//
	// When the Coordinator fires BeforeAttempt, the execution's
	// request field is set to the HTTP request that WILL BE sent after
	// all BeforeAttempt handlers have finished. Handlers may modify
	// the request, but should clone reference-typed fields (URL,
	// Header) before changing them, as retries share them with the
	// plan.
	BeforeAttempt
	// BeforeReadBody identifies the event that occurs after an
	// attempt has produced an HTTP response but before the response
	// body is read and buffered.
	//
	// BeforeReadBody never fires for an attempt that ended in error,
	// but always fires when a response is received, regardless of
	// status code.
	BeforeReadBody
	// AfterAttempt identifies the event that occurs after each
	// request attempt concludes, successfully or not. It fires before
	// the attempt's outcome is classified for retry purposes.
	AfterAttempt
	// AfterSessionEnd identifies the event that occurs after the
	// session reaches a terminal state. The execution's end time is
	// set, and no further changes will be made to it.
	AfterSessionEnd
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeSessionStart",
	"BeforeAttempt",
	"BeforeReadBody",
	"AfterAttempt",
	"AfterSessionEnd",
}

// Events returns a slice containing all events which can occur during
// a retry session, in the order in which they would first occur.
func Events() []Event {
	return []Event{
		BeforeSessionStart,
		BeforeAttempt,
		BeforeReadBody,
		AfterAttempt,
		AfterSessionEnd,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
