// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"net/http"
	"strings"

	"github.com/gogama/idempotent/request"
	"github.com/gogama/idempotent/transient"
)

// A Verdict is the classification of one attempt.
//
// When Outcome is request.Transient, Err is the failure record to
// append to the failure history. When Outcome is request.Terminal, Err
// is the error to surface to the caller. When Outcome is
// request.Success, Err is nil.
type Verdict struct {
	Outcome request.Outcome
	Err     error
}

// A Classifier classifies the outcome of a single attempt, given the
// HTTP method of the request and either the result or the error
// returned by the handler.
//
// Implementations of Classifier must be pure functions of their
// arguments and must be safe for concurrent use by multiple goroutines.
type Classifier interface {
	Classify(method string, res *request.Result, err error) Verdict
}

// The ClassifierFunc type is an adapter to allow the use of ordinary
// functions as classifiers.
type ClassifierFunc func(method string, res *request.Result, err error) Verdict

// Classify calls f(method, res, err).
func (f ClassifierFunc) Classify(method string, res *request.Result, err error) Verdict {
	return f(method, res, err)
}

// SafeStatusCodes lists the status codes DefaultClassifier retries for
// safe methods (GET, HEAD, OPTIONS and TRACE): 408 (Request Timeout),
// 502 (Bad Gateway), 503 (Service Unavailable), and 504 (Gateway
// Timeout).
func SafeStatusCodes() []int {
	return []int{408, 502, 503, 504}
}

// UnsafeStatusCodes lists the status codes DefaultClassifier retries
// for every method that is not safe, such as POST: 502, 503 and 504.
//
// 408 is excluded because a request timeout reported by the server does
// not guarantee that a request with side effects was not applied.
func UnsafeStatusCodes() []int {
	return []int{502, 503, 504}
}

// DefaultClassifier is the general-purpose classifier. It treats as
// transient any error reported transient by transient.Categorize, and
// any result whose status code is in SafeStatusCodes (for safe methods)
// or UnsafeStatusCodes (for all other methods).
var DefaultClassifier = NewClassifier(SafeStatusCodes(), UnsafeStatusCodes())

// NewClassifier constructs a Classifier which treats the status codes
// in safe as retryable for the safe HTTP methods GET, HEAD, OPTIONS and
// TRACE, and the status codes in unsafe as retryable for every other
// method.
//
// The returned classifier behaves as follows:
//
// • If the handler returned an error, the verdict is Transient if
// transient.Categorize reports any category other than Not (this
// includes errors marked with transient.Mark), and Terminal with the
// unchanged error otherwise.
//
// • If the handler returned a result whose status code is retryable for
// the method, the verdict is Transient and the failure is a StatusError
// wrapping the result.
//
// • If the status code is not retryable and is 400 or above, the verdict
// is Terminal and the error is a StatusError wrapping the result.
//
// • Otherwise the verdict is Success.
func NewClassifier(safe, unsafe []int) Classifier {
	c := &statusClassifier{
		safe:   toSet(safe),
		unsafe: toSet(unsafe),
	}
	return ClassifierFunc(c.classify)
}

type statusClassifier struct {
	safe   map[int]bool
	unsafe map[int]bool
}

func (c *statusClassifier) classify(method string, res *request.Result, err error) Verdict {
	if err != nil {
		if transient.Is(err) {
			return Verdict{Outcome: request.Transient, Err: err}
		}
		return Verdict{Outcome: request.Terminal, Err: err}
	}

	if res == nil {
		panic("idempotent/retry: nil result and nil error")
	}

	retryable := c.unsafe
	if IsSafe(method) {
		retryable = c.safe
	}

	if retryable[res.StatusCode] {
		return Verdict{Outcome: request.Transient, Err: newStatusError(method, res)}
	} else if res.StatusCode >= 400 {
		return Verdict{Outcome: request.Terminal, Err: newStatusError(method, res)}
	}

	return Verdict{Outcome: request.Success}
}

// IsSafe reports whether method is one of the HTTP methods defined as
// safe by RFC 7231 section 4.2.1, which are GET, HEAD, OPTIONS and
// TRACE. The empty string is interpreted as GET.
func IsSafe(method string) bool {
	switch strings.ToUpper(method) {
	case "", http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}

func toSet(codes []int) map[int]bool {
	set := make(map[int]bool, len(codes))
	for _, code := range codes {
		set[code] = true
	}
	return set
}
