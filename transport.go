// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package idempotent

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gogama/idempotent/request"
	"github.com/gogama/idempotent/retry"
)

// Transport is an http.RoundTripper which sends each request through a
// Handler, typically a Middleware wrapping a DoerHandler. It lets code
// written against http.Client benefit from the retry middleware:
//
//	client := &http.Client{
//		Transport: &idempotent.Transport{
//			Handler: &idempotent.Middleware{
//				Handler: idempotent.DoerHandler(&http.Client{}),
//			},
//		},
//	}
//
// A terminal *retry.StatusError is turned back into a plain response,
// so that callers see error statuses the way http.Client reports them.
// Any other error, including a *retry.LimitError, is returned as the
// round trip error.
type Transport struct {
	// Handler handles every request. It must not be nil.
	Handler Handler
}

// RoundTrip implements http.RoundTripper. The request body is read to
// the end and closed before the handler is invoked.
func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	if t.Handler == nil {
		panic("idempotent: nil handler")
	}

	env, err := request.FromRequest(r)
	if err != nil {
		return nil, err
	}

	res, err := t.Handler.Handle(env)
	var se *retry.StatusError
	if errors.As(err, &se) {
		if res == nil {
			res = se.Result()
		}
		err = nil
	}
	if err != nil {
		return nil, err
	}

	return toResponse(r, res), nil
}

func toResponse(r *http.Request, res *request.Result) *http.Response {
	header := res.Header
	if header == nil {
		header = make(http.Header)
	}
	status := strconv.Itoa(res.StatusCode)
	if text := http.StatusText(res.StatusCode); text != "" {
		status += " " + text
	}
	return &http.Response{
		Status:        status,
		StatusCode:    res.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(res.Body)),
		ContentLength: int64(len(res.Body)),
		Request:       r,
	}
}
