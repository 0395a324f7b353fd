// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry provides the decision-making parts of the idempotent
// retry middleware: a Classifier, which decides whether the outcome of
// one attempt is a success, a transient failure, or a terminal failure;
// and a Policy, which decides, after a transient failure, whether to
// stop or to continue and how long to wait first.
//
// Classification is a pure function of the request method and the
// attempt outcome. It never looks at retry counters:
//
//	v := retry.DefaultClassifier.Classify("GET", res, err)
//
// A Policy looks only at the retry bookkeeping in the execution and
// never at the outcome. Two policies are built in:
//
//	p1 := retry.Immediate(5)
//	p2 := retry.ExponentialBackoff(5, 500*time.Millisecond, 30*time.Minute)
//
// The error types StatusError and LimitError make up the terminal half
// of the error taxonomy. A StatusError wraps an HTTP response that is
// either retryable or must be surfaced as an error; a LimitError is
// returned when a Policy stops the retry sequence and carries the full
// failure history.
package retry
