// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package idempotent

import (
	"context"
	"math"
	"time"

	"github.com/gogama/idempotent/request"
	"github.com/gogama/idempotent/retry"
	"github.com/gogama/idempotent/timeout"

	"go.uber.org/zap"
)

var (
	emptyListeners = ListenerGroup{}
	nopLogger      = zap.NewNop()
)

// A Middleware is a Handler which wraps an inner Handler and retries
// transient failures. Apart from Handler, its zero value is a valid
// configuration.
//
// The zero value middleware uses retry.DefaultClassifier to classify
// attempt outcomes, retry.DefaultPolicy (immediate retry, at most 5
// attempts) as the retry policy, timeout.Infinite as the timeout policy,
// no event listeners, and no logging.
//
// A Middleware keeps no per-call state, so a single instance may serve
// any number of concurrent calls as long as its fields are not changed.
// All per-call state lives in a request.Execution that is created when
// Handle is called and discarded when it returns.
//
// On each call, Middleware repeats the following steps:
//
// • hand an isolated copy of the caller's environment to the inner
// handler, with Env.Failures set to the failures recorded so far;
//
// • classify the outcome as a success, a transient failure, or a
// terminal failure;
//
// • on success or terminal failure, return immediately;
//
// • on transient failure, record the failure and ask the retry policy
// whether to continue, and if so wait out the backoff delay.
type Middleware struct {
	// Handler is the inner handler whose failures are retried. It must
	// not be nil.
	Handler Handler
	// Classifier decides whether the outcome of an attempt is a
	// success, a transient failure, or a terminal failure.
	//
	// If Classifier is nil, retry.DefaultClassifier is used.
	Classifier retry.Classifier
	// RetryPolicy decides, after a transient failure, whether to make
	// another attempt and how long to wait first.
	//
	// If RetryPolicy is nil, retry.DefaultPolicy is used.
	RetryPolicy retry.Policy
	// TimeoutPolicy specifies how to set timeouts on individual
	// attempts. The timeout is applied to the context of the isolated
	// environment handed to the inner handler.
	//
	// If TimeoutPolicy is nil, timeout.Infinite is used.
	TimeoutPolicy timeout.Policy
	// Listeners allows custom listener chains to be invoked when
	// designated events occur during a retry sequence.
	//
	// If Listeners is nil, no custom listeners will be run.
	Listeners *ListenerGroup
	// Logger receives a debug entry for each retried failure and a
	// warning when the retry policy gives up.
	//
	// If Logger is nil, nothing is logged.
	Logger *zap.Logger
	// Sleep waits out a backoff delay. It must return early with the
	// context's error if the context is done before the delay elapses.
	//
	// If Sleep is nil, a timer-based implementation is used.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Handle executes the request described by env against the inner
// handler, retrying transient failures as directed by the retry policy.
//
// On success, Handle returns the inner handler's Result and a nil
// error, whether or not any attempts failed before.
//
// On a terminal failure, Handle returns immediately without retry. If
// the inner handler returned an error, that error is returned unchanged
// together with whatever Result the handler returned. If the inner
// handler returned an error status, the Result is returned together
// with a *retry.StatusError describing it.
//
// If the retry policy stops the sequence, Handle returns a nil Result
// and a *retry.LimitError carrying every recorded failure, oldest
// first. If the context of env is done while waiting out a backoff
// delay, or is found to be done after a transient failure, Handle
// returns a nil Result and the context's error.
//
// Whenever at least one transient failure was recorded, the failures are
// appended to env.Failures before Handle returns.
func (m *Middleware) Handle(env *request.Env) (*request.Result, error) {
	if m.Handler == nil {
		panic("idempotent: nil handler")
	}
	if env == nil {
		panic("idempotent: nil env")
	}

	e := &request.Execution{
		Env:     env,
		Attempt: 1,
	}
	base := env.Failures

	listeners := m.Listeners
	if listeners == nil {
		listeners = &emptyListeners
	}
	logger := m.logger()

	listeners.run(BeforeExecutionStart, e)
	e.Start = time.Now()

	res, err := m.loop(e, base, listeners, logger)
	e.Err = err

	if len(e.Failures) > 0 {
		failures := make([]error, 0, len(base)+len(e.Failures))
		failures = append(failures, base...)
		env.Failures = append(failures, e.Failures...)
	}

	e.End = time.Now()
	listeners.run(AfterExecutionEnd, e)
	return res, err
}

func (m *Middleware) loop(e *request.Execution, base []error, listeners *ListenerGroup, logger *zap.Logger) (*request.Result, error) {
	classifier := m.Classifier
	if classifier == nil {
		classifier = retry.DefaultClassifier
	}

	retryPolicy := m.RetryPolicy
	if retryPolicy == nil {
		retryPolicy = retry.DefaultPolicy
	}

	timeoutPolicy := m.TimeoutPolicy
	if timeoutPolicy == nil {
		timeoutPolicy = timeout.Infinite
	}

	sleep := m.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	ctx := e.Env.Context()

	for {
		m.attempt(e, base, listeners, timeoutPolicy)
		if e.Result == nil && e.Err == nil {
			panic("idempotent: handler returned nil result and nil error")
		}

		v := classifier.Classify(e.Env.Method, e.Result, e.Err)
		e.Outcome = v.Outcome
		switch v.Outcome {
		case request.Success:
			listeners.run(AfterAttempt, e)
			if len(e.Failures) > 0 {
				logger.Debug("request succeeded after retries",
					zap.String("method", e.Env.Method),
					zap.String("url", urlString(e.Env)),
					zap.Int("attempt", e.Attempt),
					zap.Int("failures", len(e.Failures)))
			}
			return e.Result, nil
		case request.Transient:
			e.Failures = append(e.Failures, v.Err)
			listeners.run(AfterAttempt, e)
		default:
			listeners.run(AfterAttempt, e)
			return e.Result, v.Err
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		d := retryPolicy.Decide(e)
		if d.Stop {
			failures := make([]error, len(e.Failures))
			copy(failures, e.Failures)
			logger.Warn("retry limit exceeded",
				zap.String("method", e.Env.Method),
				zap.String("url", urlString(e.Env)),
				zap.Int("failures", len(failures)),
				zap.Error(v.Err))
			return nil, &retry.LimitError{Failures: failures}
		}

		e.Wait = d.Delay
		logger.Debug("retrying request",
			zap.String("method", e.Env.Method),
			zap.String("url", urlString(e.Env)),
			zap.Int("attempt", e.Attempt),
			zap.Duration("delay", d.Delay),
			zap.Error(v.Err))
		listeners.run(BeforeWait, e)
		if d.Delay > 0 {
			if err := sleep(ctx, d.Delay); err != nil {
				return nil, err
			}
		}
		e.Attempt++
	}
}

func (m *Middleware) attempt(e *request.Execution, base []error, listeners *ListenerGroup, timeoutPolicy timeout.Policy) {
	// The timeout policy sees the previous attempt's error.
	d := timeoutPolicy.Timeout(e)

	e.Result = nil
	e.Err = nil
	e.Outcome = request.Pending

	ctx, cancel := attemptContext(e.Env.Context(), d)
	defer cancel()

	req := e.Env.Clone().WithContext(ctx)
	failures := make([]error, 0, len(base)+len(e.Failures))
	failures = append(failures, base...)
	req.Failures = append(failures, e.Failures...)
	e.Request = req

	listeners.run(BeforeAttempt, e)
	e.Result, e.Err = m.Handler.Handle(e.Request)
	if e.Err != nil && e.Timeout() {
		e.AttemptTimeouts++
		listeners.run(AfterAttemptTimeout, e)
	}
}

func (m *Middleware) logger() *zap.Logger {
	if m.Logger == nil {
		return nopLogger
	}
	return m.Logger
}

func attemptContext(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 || d == math.MaxInt64 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
