// Copyright 2026 The fetchretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package classify

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"
)

// A Class is the retry classification of a completed request attempt,
// as reported by Classify.
type Class int

const (
	// Success indicates the attempt produced a well-formed HTTP
	// response. Status codes are not inspected: a 500 is a Success as
	// far as the retry machinery is concerned, because the server
	// received and answered the request.
	Success Class = iota
	// Retryable indicates the attempt failed below the HTTP layer in a
	// way that has some prospect of succeeding on a later attempt, and
	// the request method is authorized for retry.
	Retryable
	// NonRetryable indicates the attempt failed in a way that must not
	// be retried: the failure is deterministic (security policy,
	// malformed request), the caller cancelled, or the method is
	// non-idempotent and was not opted in.
	NonRetryable
)

var classNames = []string{"Success", "Retryable", "NonRetryable"}

// String returns the name of the class.
func (c Class) String() string {
	return classNames[int(c)]
}

// A Category is the transience category of a transport error, as
// reported by Categorize.
//
// The category Not means the error is not transient: a retry after
// encountering this error is very unlikely to succeed. All other
// categories indicate some prospect of success on retry.
type Category int

const (
	// Not indicates any non-transient error.
	Not Category = iota
	// Timeout indicates a connection or response timeout. The remote
	// host may be going through a temporary period of slowness.
	//
	// Categorize returns Timeout if the error or any of its wrapped
	// causes has a Timeout() function that reports true.
	Timeout
	// ConnRefused indicates the remote host refused the connection,
	// corresponding to the POSIX error code ECONNREFUSED. The service
	// may be in the middle of a restart and not yet listening.
	ConnRefused
	// ConnReset indicates the remote host sent an RST on an active
	// connection, corresponding to the POSIX error code ECONNRESET.
	// This is common when a service instance is recycled mid-response,
	// so a retry has a high probability of success.
	ConnReset
	// DNSFailure indicates the host name could not be resolved for a
	// reason other than a definitive NXDOMAIN answer, for example a
	// resolver timeout after the name previously resolved.
	DNSFailure
)

// Categorize returns the transience category of the given transport
// error. A nil error, and any error that is not transient from the
// perspective of completing a request attempt, both produce Not.
//
// In assessing transience, Categorize looks at wrapped cause errors
// contained within err, not just err itself. It never consults a
// Temporary() method, whose semantics are too loose to act on.
func Categorize(err error) Category {
	if err == nil {
		return Not
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsNotFound {
			return Not
		}
		return DNSFailure
	}

	var hasTimeout hasTimeout
	if errors.As(err, &hasTimeout) && hasTimeout.Timeout() {
		return Timeout
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if errno == syscall.ECONNRESET {
			return ConnReset
		} else if errno == syscall.ECONNREFUSED {
			return ConnRefused
		}
	}

	return Not
}

type hasTimeout interface {
	Timeout() bool
}

// IsIdempotent reports whether the HTTP method is idempotent: repeated
// application has the same effect as a single application. Idempotent
// methods are safe to retry without explicit opt-in.
func IsIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions,
		http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
}

// Classify labels a completed request attempt.
//
// An attempt that produced a response is always Success, regardless of
// status code. An attempt that failed is Retryable only if the failure
// is transient per Categorize, the failure is not a cancellation or a
// deterministic policy failure, and the method is either idempotent or
// explicitly opted in through retryNonIdempotent. Everything else is
// NonRetryable.
//
// Classify is a pure function of its arguments and is safe for
// concurrent use.
func Classify(resp *http.Response, err error, method string, retryNonIdempotent bool) Class {
	if resp != nil && err == nil {
		return Success
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, ErrCancelled) ||
		errors.Is(err, ErrSecurityPolicy) || errors.Is(err, ErrMalformedRequest) {
		return NonRetryable
	}

	if Categorize(err) == Not {
		return NonRetryable
	}

	if !IsIdempotent(method) && !retryNonIdempotent {
		return NonRetryable
	}

	return Retryable
}
