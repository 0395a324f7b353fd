// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package tracing records the retry sequences run by an idempotent
// middleware as OpenTelemetry spans.
//
// Each call gets one span. Every attempt and every backoff wait is
// added to it as a span event, and the span is marked as failed if the
// call ends in error. The span is placed in the context of each
// attempt's environment, so spans started by the inner handler become
// its children.
package tracing

import (
	"github.com/gogama/idempotent"
	"github.com/gogama/idempotent/request"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the default name of the tracer.
const TracerName = "github.com/gogama/idempotent"

type spanKey struct{}

// Config holds configuration for the tracing listener.
type Config struct {
	// TracerProvider provides the tracer. If nil, the global provider
	// is used.
	TracerProvider trace.TracerProvider
	// TracerName names the tracer. If empty, TracerName is used.
	TracerName string
}

// A Listener traces retry sequences. It is safe for concurrent use by
// multiple goroutines.
type Listener struct {
	tracer trace.Tracer
}

// New creates a Listener with the given configuration.
func New(config Config) *Listener {
	if config.TracerProvider == nil {
		config.TracerProvider = otel.GetTracerProvider()
	}
	if config.TracerName == "" {
		config.TracerName = TracerName
	}
	return &Listener{
		tracer: config.TracerProvider.Tracer(config.TracerName),
	}
}

// Install adds l to every event chain of g.
func (l *Listener) Install(g *idempotent.ListenerGroup) {
	g.PushBackAll(l)
}

// Notify implements idempotent.Listener.
func (l *Listener) Notify(evt idempotent.Event, e *request.Execution) {
	if evt == idempotent.BeforeExecutionStart {
		l.start(e)
		return
	}

	span, ok := e.Env.Value(spanKey{}).(trace.Span)
	if !ok {
		return
	}

	switch evt {
	case idempotent.BeforeAttempt:
		e.Request = e.Request.WithContext(trace.ContextWithSpan(e.Request.Context(), span))
	case idempotent.AfterAttemptTimeout:
		span.AddEvent("attempt timeout", trace.WithAttributes(
			attribute.Int("idempotent.attempt", e.Attempt),
		))
	case idempotent.AfterAttempt:
		attrs := []attribute.KeyValue{
			attribute.Int("idempotent.attempt", e.Attempt),
			attribute.String("idempotent.outcome", e.Outcome.String()),
		}
		if e.Result != nil {
			attrs = append(attrs, attribute.Int("http.status_code", e.Result.StatusCode))
		}
		if e.Outcome == request.Transient && len(e.Failures) > 0 {
			attrs = append(attrs, attribute.String("idempotent.failure", e.Failures[len(e.Failures)-1].Error()))
		}
		span.AddEvent("attempt", trace.WithAttributes(attrs...))
	case idempotent.BeforeWait:
		span.AddEvent("backoff", trace.WithAttributes(
			attribute.Int("idempotent.attempt", e.Attempt),
			attribute.Int64("idempotent.delay_ms", e.Wait.Milliseconds()),
		))
	case idempotent.AfterExecutionEnd:
		l.end(span, e)
	}
}

func (l *Listener) start(e *request.Execution) {
	method := e.Env.Method
	if method == "" {
		method = "GET"
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
	}
	if e.Env.URL != nil {
		attrs = append(attrs, attribute.String("http.url", e.Env.URL.String()))
	}
	_, span := l.tracer.Start(e.Env.Context(), "idempotent "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	e.Env.SetValue(spanKey{}, span)
}

func (l *Listener) end(span trace.Span, e *request.Execution) {
	span.SetAttributes(
		attribute.Int("idempotent.attempts", e.Attempt),
		attribute.Int("idempotent.failures", len(e.Failures)),
		attribute.Int("idempotent.attempt_timeouts", e.AttemptTimeouts),
	)
	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	}
	span.End()
	e.Env.SetValue(spanKey{}, nil)
}

// SpanFromEnv returns the span of the retry sequence env takes part in,
// or nil if env is not being traced.
func SpanFromEnv(env *request.Env) trace.Span {
	span, _ := env.Value(spanKey{}).(trace.Span)
	return span
}
