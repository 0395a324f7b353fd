// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"math"
	"time"

	"github.com/gogama/idempotent/request"
)

// A Policy decides the timeout of the next attempt of a retry sequence.
//
// The middleware consults the policy before every attempt, including
// the first. At that point e.Err and e.AttemptTimeouts still describe
// the previous attempt, if any.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	Timeout(e *request.Execution) time.Duration
}

// Infinite is a built-in timeout policy which never times out. Attempts
// are still bounded by any deadline on the caller's context.
var Infinite Policy = Fixed(math.MaxInt64)

// Fixed constructs a timeout policy that gives every attempt the same
// timeout d. Fixed panics if d is not positive.
func Fixed(d time.Duration) Policy {
	if d <= 0 {
		panic("idempotent/timeout: timeout must be positive")
	}
	return fixed(d)
}

type fixed time.Duration

func (p fixed) Timeout(_ *request.Execution) time.Duration {
	return time.Duration(p)
}

// Adaptive constructs a timeout policy that lengthens the timeout after
// an attempt timed out.
//
// Use Adaptive when the upstream often shows one-off slow responses
// that are cured by quickly timing out and retrying, but also goes
// through bursts of slowness during which the usual quick timeout would
// make every attempt fail.
//
// Parameter usual is the timeout for the first attempt and for any
// attempt whose predecessor did not time out. If the predecessor timed
// out, and it was the Nth timeout of the sequence, after[N-1] is used,
// or the last element of after if there are fewer than N. Adaptive
// panics if any timeout is not positive.
//
// For example, with
//
//	p := Adaptive(200*time.Millisecond, time.Second, 10*time.Second)
//
// an attempt following a first timeout gets 1 second and an attempt
// following any later timeout gets 10 seconds.
func Adaptive(usual time.Duration, after ...time.Duration) Policy {
	if usual <= 0 {
		panic("idempotent/timeout: timeout must be positive")
	}
	for _, d := range after {
		if d <= 0 {
			panic("idempotent/timeout: timeout must be positive")
		}
	}
	return &adaptive{
		usual: usual,
		after: append([]time.Duration(nil), after...),
	}
}

type adaptive struct {
	usual time.Duration
	after []time.Duration
}

func (p *adaptive) Timeout(e *request.Execution) time.Duration {
	if len(p.after) == 0 || e.AttemptTimeouts == 0 || !e.Timeout() {
		return p.usual
	}

	i := e.AttemptTimeouts - 1
	if i >= len(p.after) {
		i = len(p.after) - 1
	}

	return p.after[i]
}
