// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"errors"
	"syscall"
)

// A Category is the transience category of a particular error, as
// reported by Categorize.
//
// The category Not means a retry after encountering the error is very
// unlikely to succeed. All other categories mean a retry has some
// prospect of success.
type Category int

const (
	// Not indicates any non-transient error.
	Not Category = iota
	// Timeout indicates a timeout. The remote host may be going through
	// a temporary period of slowness.
	//
	// Categorize returns Timeout if the error or any of its wrapped
	// causes has a Timeout() function that reports true. This includes
	// syscall.ETIMEDOUT and context.DeadlineExceeded.
	Timeout
	// ConnRefused indicates the remote host refused the connection,
	// which corresponds to the POSIX error code ECONNREFUSED. This can
	// happen while the remote service is starting or restarting.
	ConnRefused
	// HostUnreachable indicates no route to the remote host, which
	// corresponds to the POSIX error code EHOSTUNREACH.
	HostUnreachable
	// Marked indicates the error was explicitly marked as transient by
	// handler code using Mark.
	Marked
)

var categoryNames = []string{
	"Not",
	"Timeout",
	"ConnRefused",
	"HostUnreachable",
	"Marked",
}

// String returns the name of the category.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "Category(?)"
	}
	return categoryNames[c]
}

// Categorize returns the transience category of the given error. A nil
// error, and any error that is not transient, produce Not.
//
// Categorize looks at wrapped cause errors contained within err, not
// just err itself. A marked error always produces Marked regardless of
// what it wraps. Categorize never consults Temporary(), and does not
// treat ECONNRESET, ENETRESET or EHOSTDOWN as transient, because the
// request may already have been applied by the time the connection
// failed.
func Categorize(err error) Category {
	if err == nil {
		return Not
	}

	var m *marked
	if errors.As(err, &m) {
		return Marked
	}

	var hasTimeout hasTimeout
	if errors.As(err, &hasTimeout) && hasTimeout.Timeout() {
		return Timeout
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED:
			return ConnRefused
		case syscall.EHOSTUNREACH:
			return HostUnreachable
		}
	}

	return Not
}

// Is reports whether err is transient, that is, whether its category
// is anything other than Not.
func Is(err error) bool {
	return Categorize(err) != Not
}

// Mark wraps err so that Categorize reports it as Marked. Use Mark from
// within a handler to request a retry for a failure that the status and
// method rules would otherwise treat as terminal.
//
// The returned error unwraps to err. Mark returns nil if err is nil.
func Mark(err error) error {
	if err == nil {
		return nil
	}
	return &marked{err: err}
}

type marked struct {
	err error
}

func (m *marked) Error() string {
	return m.err.Error()
}

func (m *marked) Unwrap() error {
	return m.err
}

type hasTimeout interface {
	Timeout() bool
}
