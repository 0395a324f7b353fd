// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package idempotent

import (
	"net/url"

	"github.com/gogama/idempotent/request"
)

// Get uses the specified Handler to issue a GET to the specified URL.
//
// To make a request with custom headers or a context, use
// request.NewEnvWithContext and h.Handle.
func Get(h Handler, url string) (*request.Result, error) {
	env, err := request.NewEnv("GET", url, nil)
	if err != nil {
		return nil, err
	}
	return h.Handle(env)
}

// Head uses the specified Handler to issue a HEAD to the specified URL.
//
// To make a request with custom headers or a context, use
// request.NewEnvWithContext and h.Handle.
func Head(h Handler, url string) (*request.Result, error) {
	env, err := request.NewEnv("HEAD", url, nil)
	if err != nil {
		return nil, err
	}
	return h.Handle(env)
}

// Post uses the specified Handler to issue a POST to the specified URL.
//
// The body parameter may be nil for an empty body, or may be any of the
// types supported by request.NewEnv and request.BodyBytes, namely:
// string; []byte; io.Reader; and io.ReadCloser.
//
// Note that with the default classifier a POST is only retried on 502,
// 503, 504 and transient errors.
func Post(h Handler, url, contentType string, body interface{}) (*request.Result, error) {
	b, err := request.BodyBytes(body)
	if err != nil {
		return nil, err
	}
	env, err := request.NewEnv("POST", url, b)
	if err != nil {
		return nil, err
	}
	env.Header.Set("Content-Type", contentType)
	return h.Handle(env)
}

// PostForm uses the specified Handler to issue a POST to the specified
// URL, with data's keys and values URL-encoded as the request body.
//
// The Content-Type header is set to application/x-www-form-urlencoded.
func PostForm(h Handler, url string, data url.Values) (*request.Result, error) {
	return Post(h, url, "application/x-www-form-urlencoded", data.Encode())
}
