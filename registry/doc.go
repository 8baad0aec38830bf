// Copyright 2026 The fetchretry Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package registry provides process-wide bookkeeping of active retry
// sessions.
//
// The Registry is the only component with cross-session visibility.
// It admits sessions against two independent ceilings, a per-document
// cap and a global cap, neither of which a caller can raise through
// request configuration; it clamps per-request attempt counts to a
// hard ceiling; and it is the sole entry point through which document
// activation events reach sessions parked on the liveness gate.
//
// Construct an isolated Registry per test with New; embedders
// typically share one Registry per process.
package registry
