// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package idempotent provides an HTTP retry middleware. A Middleware wraps
an inner Handler and transparently retries a request when the outcome of
an attempt is transient: a timeout, a refused connection, an unreachable
host, an explicitly marked error, or a retryable HTTP status code.

Wrap any Handler to begin.

	mw := &idempotent.Middleware{
		Handler: idempotent.DoerHandler(http.DefaultClient),
	}
	res, err := idempotent.Get(mw, "https://www.example.com")
	...

Because Middleware itself implements Handler, middlewares compose as
links in a chain of handlers.

The retry tables only repeat requests that are safe to repeat. Safe
methods (GET, HEAD, OPTIONS and TRACE) retry on 408, 502, 503 and 504.
All other methods retry on 502, 503 and 504 only. Any other status of
400 or above is returned as a *retry.StatusError together with the
Result, without retry. An error the classifier does not recognize as
transient propagates unchanged. When the retry policy stops the
sequence, the middleware returns a *retry.LimitError carrying every
recorded failure, oldest first.

For control over the number of attempts and the delay between them,
set a retry policy from package retry:

	mw := &idempotent.Middleware{
		Handler:     inner,
		RetryPolicy: retry.ExponentialBackoff(5, 500*time.Millisecond, 30*time.Minute),
	}

For control over individual attempt timeouts, set a timeout policy from
package timeout:

	mw := &idempotent.Middleware{
		Handler:       inner,
		TimeoutPolicy: timeout.Fixed(10 * time.Second),
	}

To hook into the fine-grained details of the retry loop, install a
listener into the appropriate listener chain:

	listeners := &idempotent.ListenerGroup{}
	listeners.PushBack(idempotent.BeforeAttempt, idempotent.ListenerFunc(
		func(_ idempotent.Event, e *request.Execution) {
			log.Printf("Attempt %d to %s", e.Attempt, e.Request.URL)
		}))
	mw := &idempotent.Middleware{
		Handler:   inner,
		Listeners: listeners,
	}

Packages metrics and tracing provide ready-made listeners, and package
config builds a Middleware from a YAML document.

To use the middleware underneath code written against net/http, install
a Transport in an http.Client.
*/
package idempotent
