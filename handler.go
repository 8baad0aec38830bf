// Copyright 2026 The fetchretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fetchretry

import (
	"github.com/explainers-by-googlers/fetch-retry/request"
)

// A HandlerGroup is a group of event handler chains which can be
// installed in a Coordinator.
type HandlerGroup struct {
	handlers [][]Handler
}

// PushBack adds an event handler to the back of the event handler
// chain for a specific event type.
func (g *HandlerGroup) PushBack(evt Event, h Handler) {
	if h == nil {
		panic("fetchretry: nil handler")
	}

	if g.handlers == nil {
		g.handlers = make([][]Handler, numEvents)
	}

	g.handlers[evt] = append(g.handlers[evt], h)
}

// run invokes the handler chain for evt in installation order. A group
// with no chain for evt, including the zero-value group, is a no-op.
func (g *HandlerGroup) run(evt Event, e *request.Execution) {
	if int(evt) >= len(g.handlers) {
		return
	}
	for _, h := range g.handlers[int(evt)] {
		h.Handle(evt, e)
	}
}

// A Handler handles the occurrence of an event during a retry
// session.
type Handler interface {
	Handle(Event, *request.Execution)
}

// The HandlerFunc type is an adapter to allow the use of ordinary
// functions as event handlers. If f is a function with the
// appropriate signature, HandlerFunc(f) is a Handler that calls f.
type HandlerFunc func(Event, *request.Execution)

// Handle calls f(evt, e).
func (f HandlerFunc) Handle(evt Event, e *request.Execution) {
	f(evt, e)
}
