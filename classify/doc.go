// Copyright 2026 The fetchretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package classify labels the outcome of a request attempt for retry
// purposes.
//
// The central function is Classify, which maps a completed attempt to
// one of three classes: Success (a well-formed HTTP response arrived,
// whatever its status code), Retryable (a transient transport failure
// on a method authorized for retry), or NonRetryable (everything else,
// including cancellation, security policy failures, and transient
// failures on non-idempotent methods that were not explicitly opted
// in).
//
// The package also defines the sentinel errors used across the module
// to mark failure causes that can never be retried, and Categorize,
// which reports the transience category of a raw transport error.
package classify
