package zcached

import "github.com/pkg/errors"

// Connection-scope errors (spec §7). Each is fatal to the one connection it
// occurs on; the listener logs and keeps accepting.
var (
	// ErrTooMuchData means a peer sent more bytes than MaxBufferSize permits
	// without completing a frame (protocol overrun).
	ErrTooMuchData = errors.New("zcached: too much data")

	// ErrConnectionReset means the peer closed mid-frame: a zero-byte read
	// with a partial frame already buffered. A Client also returns it when
	// the server closes before a complete response has arrived, even if no
	// bytes of that response were buffered.
	ErrConnectionReset = errors.New("zcached: connection reset by peer")

	// ErrStalled means a configured read/write deadline fired more times in
	// a row than Options.MaxStallRetries allows. Only reachable when a
	// non-zero timeout is configured; the zero-value default never stalls.
	ErrStalled = errors.New("zcached: connection stalled")
)

// Process/config-scope errors (spec §7).
var (
	// ErrNoAddress is returned by Server.ListenAndServe, Config.Validate and
	// Dial when no listen/dial address was configured.
	ErrNoAddress = errors.New("zcached: no address configured")
)
