// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package idempotent

import (
	"github.com/gogama/idempotent/request"
)

// A Listener observes a retry sequence. Notify is called synchronously
// on the goroutine running the Middleware, so a slow listener delays
// the next attempt.
//
// A listener may read the Execution and may set Execution.Wait during
// BeforeWait. It should not otherwise change the Execution.
type Listener interface {
	Notify(Event, *request.Execution)
}

// ListenerFunc lets a plain function serve as a Listener.
type ListenerFunc func(Event, *request.Execution)

// Notify calls f(evt, e).
func (f ListenerFunc) Notify(evt Event, e *request.Execution) {
	f(evt, e)
}

// A ListenerGroup holds one ordered list of listeners per Event. For
// each event, listeners are notified in the order they were added.
//
// The zero value is an empty group ready to use. A group must not be
// modified while a Middleware using it is handling requests.
type ListenerGroup struct {
	byEvent [numEvents][]Listener
}

// PushBack appends l to the listeners for evt. It panics if l is nil or
// evt is not one of the values returned by Events.
func (g *ListenerGroup) PushBack(evt Event, l Listener) {
	if l == nil {
		panic("idempotent: nil listener")
	}
	g.byEvent[evt] = append(g.byEvent[evt], l)
}

// PushBackAll appends l to the listeners for every event.
func (g *ListenerGroup) PushBackAll(l Listener) {
	for _, evt := range Events() {
		g.PushBack(evt, l)
	}
}

// Len returns the number of listeners registered for evt.
func (g *ListenerGroup) Len(evt Event) int {
	if g == nil || int(evt) >= numEvents {
		return 0
	}
	return len(g.byEvent[evt])
}

func (g *ListenerGroup) run(evt Event, e *request.Execution) {
	if g == nil || int(evt) >= numEvents {
		return
	}
	for _, l := range g.byEvent[evt] {
		l.Notify(evt, e)
	}
}
