// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"math"
	"time"

	"github.com/gogama/idempotent/request"
)

const (
	// DefaultMaxRetries is the attempt limit of DefaultPolicy and the
	// default attempt limit of the configuration layer.
	DefaultMaxRetries = 5
	// DefaultMinRetryInterval is the default first backoff delay of an
	// exponential backoff policy.
	DefaultMinRetryInterval = 500 * time.Millisecond
	// DefaultMaxRetryInterval is the default ceiling on the backoff
	// delay of an exponential backoff policy.
	DefaultMaxRetryInterval = 30 * time.Minute
)

// A Decision is the result of consulting a Policy after a transient
// failure. If Stop is true, the retry sequence ends with a LimitError.
// Otherwise the middleware waits Delay and makes another attempt.
type Decision struct {
	Stop  bool
	Delay time.Duration
}

// Stop is the Decision to end the retry sequence.
var Stop = Decision{Stop: true}

// Continue returns the Decision to retry after waiting d.
func Continue(d time.Duration) Decision {
	return Decision{Delay: d}
}

// A Policy decides, after attempt e.Attempt has failed transiently,
// whether another attempt should be made and how long to wait before
// making it.
//
// A Policy only computes the delay. Sleeping is the middleware's job.
// The per-call backoff state lives in the execution (e.Wait holds the
// previous delay), so implementations must not keep per-call state of
// their own and must be safe for concurrent use by multiple goroutines.
type Policy interface {
	Decide(e *request.Execution) Decision
}

// The PolicyFunc type is an adapter to allow the use of ordinary
// functions as retry policies.
type PolicyFunc func(e *request.Execution) Decision

// Decide calls f(e).
func (f PolicyFunc) Decide(e *request.Execution) Decision {
	return f(e)
}

// DefaultPolicy retries immediately, making at most DefaultMaxRetries
// attempts in total.
var DefaultPolicy = Immediate(DefaultMaxRetries)

// Never is a policy that never retries.
var Never Policy = PolicyFunc(func(_ *request.Execution) Decision { return Stop })

// Immediate constructs a policy which retries without any delay. It
// stops once the attempt counter reaches maxRetries, so at most
// maxRetries attempts are made in total. A maxRetries value less than
// one is treated as DefaultMaxRetries.
func Immediate(maxRetries int) Policy {
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}
	return immediate(maxRetries)
}

type immediate int

func (p immediate) Decide(e *request.Execution) Decision {
	if e.Attempt >= int(p) {
		return Stop
	}
	return Continue(0)
}

// MaxRetries returns the attempt limit.
func (p immediate) MaxRetries() int {
	return int(p)
}

// ExponentialBackoff constructs a policy which retries after an
// exponentially growing delay. It stops once the attempt counter
// reaches maxRetries, so at most maxRetries attempts are made in total.
//
// The first delay is min and each subsequent delay doubles the previous
// one, capped at max. For the defaults the sequence is 0.5s, 1s, 2s, 4s
// and so on. Every delay lies within [min, max].
//
// A maxRetries value less than one is treated as DefaultMaxRetries. A
// zero min or max is replaced by DefaultMinRetryInterval or
// DefaultMaxRetryInterval. ExponentialBackoff panics if min is negative
// or if max is less than min.
func ExponentialBackoff(maxRetries int, min, max time.Duration) Policy {
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}
	if min == 0 {
		min = DefaultMinRetryInterval
	}
	if max == 0 {
		max = DefaultMaxRetryInterval
	}
	if min < 0 {
		panic("idempotent/retry: min retry interval must be positive")
	}
	if max < min {
		panic("idempotent/retry: max retry interval must be at least min")
	}
	return &exponential{
		maxRetries: maxRetries,
		min:        min,
		max:        max,
	}
}

type exponential struct {
	maxRetries int
	min        time.Duration
	max        time.Duration
}

func (p *exponential) Decide(e *request.Execution) Decision {
	if e.Attempt >= p.maxRetries {
		return Stop
	}
	return Continue(p.next(e.Wait))
}

func (p *exponential) next(prev time.Duration) time.Duration {
	if prev < p.min {
		return p.min
	}
	if prev > math.MaxInt64/2 {
		return p.max
	}
	d := 2 * prev
	if d > p.max {
		d = p.max
	}
	return d
}

// MaxRetries returns the attempt limit.
func (p *exponential) MaxRetries() int {
	return p.maxRetries
}

// MinRetryInterval returns the first, and smallest, delay.
func (p *exponential) MinRetryInterval() time.Duration {
	return p.min
}

// MaxRetryInterval returns the delay ceiling.
func (p *exponential) MaxRetryInterval() time.Duration {
	return p.max
}
