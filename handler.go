// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package idempotent

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gogama/idempotent/request"
)

// A Handler handles one logical HTTP request described by a request
// environment, and produces either a Result or an error.
//
// A Handler may return a non-nil Result together with a non-nil error,
// but must never return a nil Result with a nil error. Middleware
// implements Handler, so handlers compose into chains.
type Handler interface {
	Handle(env *request.Env) (*request.Result, error)
}

// The HandlerFunc type is an adapter to allow the use of ordinary
// functions as handlers. If f is a function with appropriate signature,
// then HandlerFunc(f) is a Handler that calls f.
type HandlerFunc func(env *request.Env) (*request.Result, error)

// Handle calls f(env).
func (f HandlerFunc) Handle(env *request.Env) (*request.Result, error) {
	return f(env)
}

// An HTTPDoer implements a Do method in the same manner as the GoLang
// standard library http.Client from the net/http package.
type HTTPDoer interface {
	// Do sends an HTTP request and returns an HTTP response following
	// policy (such as redirects, cookies, auth) configured on the
	// HTTPDoer.
	//
	// The Do method must follow the contract documented on the GoLang
	// standard library http.Client from the net/http package.
	Do(r *http.Request) (*http.Response, error)
}

// DoerHandler returns a Handler which sends the request described by
// its environment using d, and reads and buffers the entire response
// body into the Result. If d is nil, http.DefaultClient is used.
//
// Every error the handler returns is an *url.Error, whose Timeout
// method reports whether the underlying failure was a timeout.
func DoerHandler(d HTTPDoer) Handler {
	if d == nil {
		d = http.DefaultClient
	}

	return HandlerFunc(func(env *request.Env) (*request.Result, error) {
		resp, err := d.Do(env.ToRequest(env.Context()))
		if err != nil {
			return nil, urlErrorWrap(env, err)
		}
		return readBody(env, resp)
	})
}

func readBody(env *request.Env, resp *http.Response) (*request.Result, error) {
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, urlErrorWrap(env, err)
	}
	return &request.Result{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func urlErrorWrap(env *request.Env, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}

	return &url.Error{
		Op:  urlErrorOp(env.Method),
		URL: urlString(env),
		Err: err,
	}
}

// urlErrorOp is lifted verbatim from net/http/client.go
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}

func urlString(env *request.Env) string {
	if env.URL == nil {
		return ""
	}
	return env.URL.String()
}
