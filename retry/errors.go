// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gogama/idempotent/request"
)

// A StatusError wraps an HTTP response as an error. It is used both as
// the failure record for a retryable status code and as the terminal
// error surfaced for a non-retryable status code of 400 or above.
type StatusError struct {
	// Method is the HTTP method of the request which produced the
	// response.
	Method string
	// StatusCode is the response status code.
	StatusCode int
	// Header is the response header.
	Header http.Header
	// Body is the response body.
	Body []byte
}

func newStatusError(method string, res *request.Result) *StatusError {
	return &StatusError{
		Method:     method,
		StatusCode: res.StatusCode,
		Header:     res.Header.Clone(),
		Body:       cloneBody(res.Body),
	}
}

func cloneBody(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}

// Error returns the status code and its standard text, for example
// "503 Service Unavailable".
func (err *StatusError) Error() string {
	text := http.StatusText(err.StatusCode)
	if text == "" {
		return strconv.Itoa(err.StatusCode)
	}
	return strconv.Itoa(err.StatusCode) + " " + text
}

// Result converts the error back into the Result it was built from.
func (err *StatusError) Result() *request.Result {
	return &request.Result{
		StatusCode: err.StatusCode,
		Header:     err.Header,
		Body:       err.Body,
	}
}

// A LimitError is returned when the retry policy stops a retry sequence
// because the retry budget is exhausted.
//
// LimitError intentionally does not unwrap to its failures, so an outer
// retry middleware classifies it as a terminal error and does not start
// a retry sequence of its own.
type LimitError struct {
	// Failures is the complete history of transient failures, in the
	// order in which they occurred, oldest first. Each failure is either
	// an error returned by the handler or a *StatusError.
	Failures []error
}

// Error describes the number of failures and the most recent one.
func (err *LimitError) Error() string {
	n := len(err.Failures)
	if n == 0 {
		return "idempotent/retry: retry limit exceeded"
	}
	return fmt.Sprintf("idempotent/retry: retry limit exceeded after %d failures, last: %v",
		n, err.Failures[n-1])
}

// Last returns the most recent failure, or nil if there are none.
func (err *LimitError) Last() error {
	if len(err.Failures) == 0 {
		return nil
	}
	return err.Failures[len(err.Failures)-1]
}
