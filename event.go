// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package idempotent

// An Event identifies the event type when installing or running a
// Listener. Install listeners in a Middleware to extend it with custom
// functionality.
type Event int

const (
	// BeforeExecutionStart identifies the event that occurs before the
	// retry sequence starts.
	//
	// When Middleware fires BeforeExecutionStart, the execution is
	// non-nil but the only fields that have been set are the caller's
	// environment and the attempt counter.
	BeforeExecutionStart Event = iota
	// BeforeAttempt identifies the event that occurs before each
	// individual attempt.
	//
	// When Middleware fires BeforeAttempt, the execution's request
	// field is set to the isolated copy of the environment that WILL
	// BE handed to the inner handler after all BeforeAttempt listeners
	// have finished. Listeners may modify it without affecting later
	// attempts.
	BeforeAttempt
	// AfterAttemptTimeout identifies the event that occurs after an
	// attempt failed because of a timeout error.
	//
	// When Middleware fires AfterAttemptTimeout, the execution's
	// error field is set to the timeout error, and its attempt timeout
	// counter has been incremented.
	AfterAttemptTimeout
	// AfterAttempt identifies the event that occurs after an attempt
	// has been classified, regardless of the outcome.
	//
	// When Middleware fires AfterAttempt, the execution's outcome field
	// is set. If the outcome is Transient, the failure has already been
	// appended to the execution's failure history.
	AfterAttempt
	// BeforeWait identifies the event that occurs after the retry
	// policy decided to continue and before the middleware waits out
	// the backoff delay.
	//
	// When Middleware fires BeforeWait, the execution's wait field is
	// set to the delay about to be waited. BeforeWait fires even when
	// the delay is zero.
	BeforeWait
	// AfterExecutionEnd identifies the event that occurs after the
	// retry sequence ends.
	//
	// When Middleware fires AfterExecutionEnd, the execution is in
	// the same state it was in after the final attempt EXCEPT that the
	// end time is set and the error field holds the error returned to
	// the caller.
	AfterExecutionEnd
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeExecutionStart",
	"BeforeAttempt",
	"AfterAttemptTimeout",
	"AfterAttempt",
	"BeforeWait",
	"AfterExecutionEnd",
}

// Events returns a slice containing all events which can occur during
// a retry sequence, in the order in which they would occur.
func Events() []Event {
	return []Event{
		BeforeExecutionStart,
		BeforeAttempt,
		AfterAttemptTimeout,
		AfterAttempt,
		BeforeWait,
		AfterExecutionEnd,
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
