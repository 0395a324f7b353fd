// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import "net/http"

// A Result is the response produced by a handler: an HTTP status code,
// response headers, and a fully-buffered body.
type Result struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewResult returns a Result with the given status code and body and an
// empty, non-nil header.
func NewResult(statusCode int, body []byte) *Result {
	return &Result{
		StatusCode: statusCode,
		Header:     make(http.Header),
		Body:       body,
	}
}
