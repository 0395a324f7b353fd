// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient classifies errors raised by an HTTP handler as
// transient or non-transient, and lets handler code explicitly mark an
// error as transient with Mark.
//
// Package transient depends only on the standard library packages
// "errors" and "syscall", so it brings no dependencies when imported as
// a standalone package.
package transient
