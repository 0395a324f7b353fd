// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout defines policies for setting a timeout on each
// individual attempt made by the retry middleware. A timed-out attempt
// fails with a timeout error, which the default classifier treats as
// transient, so the attempt is retried subject to the retry policy.
package timeout
