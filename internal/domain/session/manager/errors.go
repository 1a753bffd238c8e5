// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package manager

import "errors"

// ErrUnknownSession is returned by operations given a session_id/owner pair
// that does not resolve to a row the caller may see (§8 anti-enumeration:
// not-found and access-denied are indistinguishable to the caller).
var ErrUnknownSession = errors.New("manager: session not found or access denied")

// ErrAlreadyRunning is returned by Create when an Idempotency-Key replays
// onto a session the caller did not just create (§12).
var ErrAlreadyRunning = errors.New("manager: worker already running for session")
