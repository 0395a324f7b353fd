// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"time"

	"github.com/gogama/idempotent/transient"
)

// An Outcome tags the classification of the most recent attempt in an
// Execution.
type Outcome int

const (
	// Pending means the current attempt has not been classified yet.
	Pending Outcome = iota
	// Success means the attempt produced a result that should be
	// returned to the caller as-is.
	Success
	// Transient means the attempt failed in a way that is safe and
	// likely to succeed on retry. A failure record was appended to the
	// execution's failure history.
	Transient
	// Terminal means the attempt failed in a way that must propagate
	// to the caller immediately, without retry.
	Terminal
)

var outcomeNames = []string{
	"Pending",
	"Success",
	"Transient",
	"Terminal",
}

// String returns the name of the outcome.
func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return "Outcome(?)"
	}
	return outcomeNames[o]
}

// An Execution represents the state of a single call through the retry
// middleware.
//
// An Execution is created when the call starts and discarded when it
// returns. It is never shared between concurrent calls. Retry policies,
// timeout policies, and event listeners receive the Execution, but
// should treat its exported fields as read-only.
type Execution struct {
	// Env is the caller's request environment. It is never nil and is
	// never handed to the inner handler directly.
	Env *Env

	// Start is the start time of the call.
	Start time.Time

	// End is the end time of the call. It holds the zero value until
	// the call ends.
	End time.Time

	// Attempt is the one-based number of the current attempt. It is 1
	// on the initial attempt, 2 on the first retry, and so on, and it
	// increases by exactly one per attempt.
	Attempt int

	// AttemptTimeouts is the count of attempts that ended in a timeout.
	AttemptTimeouts int

	// Request is the isolated copy of Env handed to the inner handler
	// on the current attempt.
	Request *Env

	// Result is the result returned by the inner handler on the most
	// recent attempt. It may be nil.
	Result *Result

	// Err is the error from the most recent attempt. Until the attempt
	// is classified it holds the raw error returned by the inner
	// handler. Once the execution has ended it holds the same error
	// value returned to the caller.
	Err error

	// Outcome is the classification of the most recent attempt.
	Outcome Outcome

	// Failures is the ordered history of transient failures recorded
	// during the call, oldest first. Entries are never removed or
	// deduplicated. Each entry is either the error the inner handler
	// returned, or an HTTP status error carrying the status code,
	// headers, and body of a retryable response.
	Failures []error

	// Wait is the most recent backoff delay decided by the retry
	// policy. It is zero before the first retry decision and for
	// policies that retry immediately.
	Wait time.Duration
}

// StatusCode returns the status code of the most recent result, or 0
// if there is none.
func (e *Execution) StatusCode() int {
	if e.Result == nil {
		return 0
	}

	return e.Result.StatusCode
}

// Duration returns the duration of the execution.
//
// If the execution has not yet started, the duration is zero. If the
// execution has ended, the duration is End minus Start. Otherwise, it
// is the current time minus Start.
func (e *Execution) Duration() time.Duration {
	if !e.Started() {
		return time.Duration(0)
	} else if !e.Ended() {
		return time.Since(e.Start)
	}

	return e.End.Sub(e.Start)
}

// Started indicates whether the execution has started.
func (e *Execution) Started() bool {
	return !e.Start.IsZero()
}

// Ended indicates whether the execution has ended.
func (e *Execution) Ended() bool {
	return !e.End.IsZero()
}

// Timeout indicates whether Err currently holds a timeout error.
func (e *Execution) Timeout() bool {
	return transient.Categorize(e.Err) == transient.Timeout
}

// Retried indicates whether at least one transient failure has been
// recorded.
func (e *Execution) Retried() bool {
	return len(e.Failures) > 0
}
