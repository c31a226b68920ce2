package zcached

import "time"

// Default configuration values (spec §4.F).
const (
	DefaultInitialDBCapacity = 1024 * 1024
	DefaultInitialBufferSize = 4096
	DefaultMaxBufferSize     = 1024 * 1024

	DefaultClientInitialBufferSize = 4096
	DefaultClientMaxBufferSize     = 1024 * 1024
)

// Options configures a Server. defaultOptions() holds the documented
// defaults: no timeouts, 4KiB initial / 1MiB max per connection buffer. The
// 1,048,576-entry store pre-allocation default is not an Option; NewServer
// applies it when given a nil store.
type Options struct {
	InitialBufferSize int
	MaxBufferSize     int

	// ReadTimeout/WriteTimeout arm per-operation net.Conn deadlines. Zero
	// (the default) disables them entirely, matching the spec's baseline
	// "no timeouts" behavior. Non-zero values opt into the stall-retry
	// escape hatch described in SPEC_FULL.md §4.C.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MaxStallRetries bounds how many consecutive deadline hits are
	// tolerated, per blocking call, before the connection is terminated
	// with ErrStalled. Only consulted when ReadTimeout/WriteTimeout is set.
	MaxStallRetries int

	Logger Logger
}

func defaultOptions() Options {
	return Options{
		InitialBufferSize: DefaultInitialBufferSize,
		MaxBufferSize:     DefaultMaxBufferSize,
		MaxStallRetries:   3,
		Logger:            noopLogger{},
	}
}

// Option configures a Server at construction time.
type Option func(*Options)

// WithBufferSizes sets the per-connection initial and maximum read buffer
// sizes (spec's initial_buffer_size / max_buffer_size).
func WithBufferSizes(initial, max int) Option {
	return func(o *Options) {
		o.InitialBufferSize = initial
		o.MaxBufferSize = max
	}
}

// WithTimeouts arms read/write deadlines on every connection. Passing zero
// for either disables that deadline, restoring the spec's default
// (block-forever) behavior for that direction.
func WithTimeouts(read, write time.Duration) Option {
	return func(o *Options) {
		o.ReadTimeout = read
		o.WriteTimeout = write
	}
}

// WithMaxStallRetries overrides how many consecutive deadline hits a
// connection tolerates before terminating with ErrStalled.
func WithMaxStallRetries(n int) Option {
	return func(o *Options) { o.MaxStallRetries = n }
}

// WithLogger installs a structured logger used for connection lifecycle
// events. The default is a no-op logger.
func WithLogger(l Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// ClientOptions configures a Client's bounded receive buffer (spec §4.F
// client mirror: 1MiB max, 4KiB initial).
type ClientOptions struct {
	InitialBufferSize int
	MaxBufferSize     int
	Timeout           time.Duration
}

func defaultClientOptions() ClientOptions {
	return ClientOptions{
		InitialBufferSize: DefaultClientInitialBufferSize,
		MaxBufferSize:     DefaultClientMaxBufferSize,
	}
}

// ClientOption configures a Client at construction time.
type ClientOption func(*ClientOptions)

// WithClientBufferSizes sets the client's initial and maximum receive buffer
// sizes.
func WithClientBufferSizes(initial, max int) ClientOption {
	return func(o *ClientOptions) {
		o.InitialBufferSize = initial
		o.MaxBufferSize = max
	}
}

// WithClientTimeout arms a read/write deadline on every call the Client
// makes. Zero (the default) disables it.
func WithClientTimeout(d time.Duration) ClientOption {
	return func(o *ClientOptions) { o.Timeout = d }
}
