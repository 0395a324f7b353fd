// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	urlpkg "net/url"
	"strings"

	"golang.org/x/net/http/httpguts"
)

var (
	template, _ = http.NewRequest("GET", "", nil)
)

const (
	nilCtxMsg = "idempotent/request: nil context"
)

// An Env is the request environment passed down a chain of handlers.
//
// The field structure of Env mirrors the client-side fields of
// http.Request, except that the body is pre-buffered so the request
// can be replayed on every retry attempt.
//
// Like http.Request, an Env has a context which controls the overall
// call and can be used to cancel an in-flight retry sequence.
type Env struct {
	// Method specifies the HTTP method (GET, POST, PUT, etc.).
	// An empty string means GET.
	Method string

	// URL specifies the URL to access.
	URL *urlpkg.URL

	// Header contains the request header fields.
	Header http.Header

	// Body is the pre-buffered request body. A nil or empty body
	// indicates no request body.
	Body []byte

	// Host optionally overrides the Host header to send. If empty, the
	// value of URL.Host is used.
	Host string

	// Failures lists the transient failures recorded so far by a retry
	// middleware further up the chain, in chronological order.
	//
	// Inside a retry sequence, attempt N sees the N-1 failures which
	// preceded it. When the middleware returns, the caller's Env holds
	// the complete history if there was any. Handlers should treat the
	// slice as read-only.
	Failures []error

	ctx    context.Context
	values context.Context
}

// NewEnv wraps NewEnvWithContext using the background context.
func NewEnv(method, url string, body interface{}) (*Env, error) {
	return NewEnvWithContext(context.Background(), method, url, body)
}

// NewEnvWithContext returns a new Env given a method, URL, and optional
// body.
//
// Parameter body may be nil (empty body), or it may be a string,
// []byte, io.Reader, or io.ReadCloser, and is converted with BodyBytes.
func NewEnvWithContext(ctx context.Context, method, url string, body interface{}) (*Env, error) {
	if ctx == nil {
		return nil, errors.New(nilCtxMsg)
	}
	if method == "" {
		method = "GET"
	}
	if !validMethod(method) {
		return nil, fmt.Errorf("idempotent/request: invalid method %q", method)
	}
	u, err := urlpkg.Parse(url)
	if err != nil {
		return nil, err
	}
	u.Host = removeEmptyPort(u.Host)
	b, err := BodyBytes(body)
	if err != nil {
		return nil, err
	}
	return &Env{
		ctx:    ctx,
		Method: method,
		URL:    u,
		Header: make(http.Header),
		Body:   b,
		Host:   u.Host,
	}, nil
}

// FromRequest builds an Env from an outgoing or incoming http.Request.
// The request body, if any, is read to the end, buffered, and closed.
// The Env takes its context from r.
func FromRequest(r *http.Request) (*Env, error) {
	var body interface{}
	if r.Body != nil && r.Body != http.NoBody {
		body = r.Body
	}
	b, err := BodyBytes(body)
	if err != nil {
		return nil, err
	}
	method := r.Method
	if method == "" {
		method = "GET"
	}
	u := new(urlpkg.URL)
	if r.URL != nil {
		*u = *r.URL
	}
	header := r.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	return &Env{
		ctx:    r.Context(),
		Method: method,
		URL:    u,
		Header: header,
		Body:   b,
		Host:   r.Host,
	}, nil
}

// Context returns the environment's context. The returned context is
// always non-nil; it defaults to the background context.
func (env *Env) Context() context.Context {
	if env.ctx != nil {
		return env.ctx
	}
	return context.Background()
}

// WithContext returns a shallow copy of env with its context changed to
// ctx, which must be non-nil.
func (env *Env) WithContext(ctx context.Context) *Env {
	if ctx == nil {
		panic(nilCtxMsg)
	}
	env2 := new(Env)
	*env2 = *env
	env2.ctx = ctx
	return env2
}

// Clone returns a deep copy of env. The URL, Header, Body and Failures
// of the copy share no memory with env, so a handler may modify any of
// them without affecting the original. Values stored with SetValue
// remain visible in the copy, but values set on the copy afterward are
// not visible in env.
func (env *Env) Clone() *Env {
	env2 := new(Env)
	*env2 = *env
	if env.URL != nil {
		u := *env.URL
		if env.URL.User != nil {
			user := *env.URL.User
			u.User = &user
		}
		env2.URL = &u
	}
	env2.Header = env.Header.Clone()
	if env.Body != nil {
		env2.Body = append([]byte(nil), env.Body...)
	}
	if env.Failures != nil {
		env2.Failures = append([]error(nil), env.Failures...)
	}
	return env2
}

// SetValue stores arbitrary data in the environment.
//
// The key must follow the same rules as the key parameter in
// context.WithValue: it may not be nil, it must be comparable, and it
// should not be a built-in type.
func (env *Env) SetValue(key, value interface{}) {
	ctx := env.values
	if ctx == nil {
		ctx = context.Background()
	}

	env.values = context.WithValue(ctx, key, value)
}

// Value returns the value associated with key in the environment, or
// nil if there is none.
func (env *Env) Value(key interface{}) interface{} {
	if env.values == nil {
		return nil
	}

	return env.values.Value(key)
}

// ToRequest creates an HTTP request from the environment. The context
// of the new request is set to ctx, which may not be nil.
func (env *Env) ToRequest(ctx context.Context) *http.Request {
	r := template.WithContext(ctx)
	r.Method = env.Method
	r.URL = env.URL
	r.Header = env.Header
	if len(env.Body) > 0 {
		body := env.Body
		r.Body = io.NopCloser(bytes.NewReader(body))
		r.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		r.ContentLength = int64(len(body))
	}
	r.Host = env.Host
	return r
}

// validMethod reports whether method is a valid RFC 7230 token. The
// empty string is never passed in because it is interpreted as "GET".
func validMethod(method string) bool {
	return strings.IndexFunc(method, isNotToken) == -1
}

func isNotToken(r rune) bool {
	return !httpguts.IsTokenRune(r)
}

// hasPort is lifted verbatim from net/http/http.go
func hasPort(s string) bool { return strings.LastIndex(s, ":") > strings.LastIndex(s, "]") }

// removeEmptyPort strips the empty port in ":port" to "" as mandated by
// RFC 3986 Section 6.2.3.
func removeEmptyPort(host string) string {
	if hasPort(host) {
		return strings.TrimSuffix(host, ":")
	}
	return host
}
