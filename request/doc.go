// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the core types Env (describes a logical HTTP
request travelling through a handler chain), Result (describes the
response a handler produced), and Execution (describes the state of one
retrying call made by the idempotent middleware).

An Env is the request environment handed to every Handler in the chain.
It looks like a stripped-down http.Request with the body pre-buffered
into a []byte, so that the same logical request can be handed to an
inner handler more than once:

	env, err := request.NewEnv("GET", "https://example.com", nil)
	...
	res, err := middleware.Handle(env)
	...

The retry middleware never hands its own Env to the inner handler.
Instead each attempt receives an isolated copy made with Env.Clone, so
that changes a handler makes to the environment on a failed attempt do
not leak into the next attempt. The only exception is Env.Failures,
which the middleware owns: it lists the transient failures recorded so
far in the call, oldest first.

An Execution is the per-call state of the middleware: the attempt
counter, the current backoff delay, and the ordered failure history.
Retry policies, timeout policies, and event listeners all receive the
Execution. You will typically not allocate Execution instances yourself.
*/
package request
