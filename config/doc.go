// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package config builds a retry middleware from a YAML document.
//
// A typical document looks like:
//
//	policy: exponential_backoff
//	max_retries: 5
//	min_retry_interval: 500ms
//	max_retry_interval: 30m
//	attempt_timeout: ${ATTEMPT_TIMEOUT}
//
// Environment variables referenced as $VAR or ${VAR} are expanded
// before the document is parsed. Omitted fields take the same defaults
// as the zero value Middleware.
package config
