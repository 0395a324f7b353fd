// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package metrics exports Prometheus metrics describing the retry
// sequences run by an idempotent middleware.
//
// Install a Listener into the middleware's listener group:
//
//	l := metrics.New(prometheus.DefaultRegisterer, "myapp")
//	listeners := &idempotent.ListenerGroup{}
//	l.Install(listeners)
//	mw := &idempotent.Middleware{Handler: inner, Listeners: listeners}
package metrics

import (
	"errors"
	"strconv"

	"github.com/gogama/idempotent"
	"github.com/gogama/idempotent/request"
	"github.com/gogama/idempotent/retry"
	"github.com/gogama/idempotent/transient"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Values of the result label on the execution duration histogram.
const (
	ResultSuccess       = "success"
	ResultTerminal      = "terminal"
	ResultLimitExceeded = "limit_exceeded"
	ResultCanceled      = "canceled"
)

// A Listener records metrics for every event of a retry sequence. It is
// safe for concurrent use by multiple goroutines.
type Listener struct {
	attempts          *prometheus.CounterVec
	failures          *prometheus.CounterVec
	retries           *prometheus.CounterVec
	limitExceeded     *prometheus.CounterVec
	successAfterRetry *prometheus.CounterVec
	backoff           *prometheus.HistogramVec
	executionDuration *prometheus.HistogramVec
}

// New creates a Listener whose metrics are registered with reg under
// the given namespace. If reg is nil, the metrics are created but not
// registered. New panics if registration fails, for example because
// the same namespace was already registered with reg.
func New(reg prometheus.Registerer, namespace string) *Listener {
	factory := promauto.With(reg)
	return &Listener{
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "idempotent_attempts_total",
				Help:      "Total number of attempts made by the retry middleware",
			},
			[]string{"method", "outcome"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "idempotent_transient_failures_total",
				Help:      "Total number of transient failures recorded, by reason",
			},
			[]string{"method", "reason"},
		),
		retries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "idempotent_retries_total",
				Help:      "Total number of retries decided by the retry policy",
			},
			[]string{"method"},
		),
		limitExceeded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "idempotent_retry_limit_exceeded_total",
				Help:      "Total number of calls that failed after exhausting the retry budget",
			},
			[]string{"method"},
		),
		successAfterRetry: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "idempotent_success_after_retry_total",
				Help:      "Total number of calls that succeeded after at least one transient failure",
			},
			[]string{"method"},
		),
		backoff: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "idempotent_backoff_seconds",
				Help:      "Backoff delays decided by the retry policy in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method"},
		),
		executionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "idempotent_execution_duration_seconds",
				Help:      "Total duration of calls through the retry middleware in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "result"},
		),
	}
}

// Install adds l to the event chains it listens on.
func (l *Listener) Install(g *idempotent.ListenerGroup) {
	g.PushBack(idempotent.AfterAttempt, l)
	g.PushBack(idempotent.BeforeWait, l)
	g.PushBack(idempotent.AfterExecutionEnd, l)
}

// Notify implements idempotent.Listener.
func (l *Listener) Notify(evt idempotent.Event, e *request.Execution) {
	method := methodLabel(e)
	switch evt {
	case idempotent.AfterAttempt:
		l.attempts.WithLabelValues(method, e.Outcome.String()).Inc()
		if e.Outcome == request.Transient && len(e.Failures) > 0 {
			l.failures.WithLabelValues(method, Reason(e.Failures[len(e.Failures)-1])).Inc()
		}
	case idempotent.BeforeWait:
		l.retries.WithLabelValues(method).Inc()
		l.backoff.WithLabelValues(method).Observe(e.Wait.Seconds())
	case idempotent.AfterExecutionEnd:
		result := Result(e)
		switch result {
		case ResultLimitExceeded:
			l.limitExceeded.WithLabelValues(method).Inc()
		case ResultSuccess:
			if e.Retried() {
				l.successAfterRetry.WithLabelValues(method).Inc()
			}
		}
		l.executionDuration.WithLabelValues(method, result).Observe(e.Duration().Seconds())
	}
}

// Reason returns a low-cardinality label describing a transient
// failure. Errors marked with transient.Mark report "Marked" even when
// they wrap a *retry.StatusError. Otherwise the label is the status code
// of a *retry.StatusError, or else the name of the error's transient
// category.
func Reason(err error) string {
	c := transient.Categorize(err)
	if c == transient.Marked {
		return c.String()
	}
	var se *retry.StatusError
	if errors.As(err, &se) {
		return strconv.Itoa(se.StatusCode)
	}
	return c.String()
}

// Result returns the result label of an ended execution.
func Result(e *request.Execution) string {
	var le *retry.LimitError
	switch {
	case e.Err == nil:
		return ResultSuccess
	case errors.As(e.Err, &le):
		return ResultLimitExceeded
	case e.Outcome == request.Transient:
		return ResultCanceled
	default:
		return ResultTerminal
	}
}

func methodLabel(e *request.Execution) string {
	if e.Env == nil || e.Env.Method == "" {
		return "GET"
	}
	return e.Env.Method
}
