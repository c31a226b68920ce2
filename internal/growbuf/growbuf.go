// Package growbuf implements the bounded, doubling byte buffer shared by the
// server and client connection framers (spec's "Connection buffer").
//
// A Buffer owns a byte slice of current length Len(), with a logical fill
// Cursor() <= Len(). Bytes beyond what the most recent parse consumed are
// compacted to the front rather than re-read, and the buffer only grows
// (by doubling) when it is entirely full and a frame is still incomplete,
// up to a configured cap. This is the same state-holding discipline the
// teacher package (code.hybscloud.com/framer) uses for its per-message
// scratch buffers, generalized here to a persistent, multi-frame cursor.
package growbuf

import (
	"io"

	"github.com/pkg/errors"
)

// ErrTooLong is returned by Grow when the buffer is already at its cap and
// a frame is still incomplete: spec's "overrun" condition.
var ErrTooLong = errors.New("growbuf: frame exceeds maximum buffer size")

// Buffer is a reusable, growable receive buffer for one connection.
type Buffer struct {
	buf    []byte
	cursor int
	max    int
}

// New allocates a Buffer starting at `initial` bytes and capped at `max`
// bytes. initial is clamped to be at least 1 and at most max.
func New(initial, max int) *Buffer {
	if max < 1 {
		max = 1
	}
	if initial < 1 {
		initial = 1
	}
	if initial > max {
		initial = max
	}
	return &Buffer{buf: make([]byte, initial), max: max}
}

// Filled returns the portion of the buffer holding bytes not yet consumed by
// a successful parse: buf[0:cursor].
func (b *Buffer) Filled() []byte { return b.buf[:b.cursor] }

// Cursor returns the current logical fill.
func (b *Buffer) Cursor() int { return b.cursor }

// Len returns the current allocated buffer length (spec's "len"), which may
// exceed Cursor() when there is room for more bytes before the next Grow.
func (b *Buffer) Len() int { return len(b.buf) }

// Cap returns the configured maximum buffer length.
func (b *Buffer) Cap() int { return b.max }

// Consume drops the first n bytes of Filled() — the bytes a completed parse
// accounted for — compacting any remaining partial frame to the front.
// Consume panics if n is negative or greater than the current cursor; that
// would be a caller bug, not a runtime condition.
func (b *Buffer) Consume(n int) {
	if n < 0 || n > b.cursor {
		panic("growbuf: Consume out of range")
	}
	if n == b.cursor {
		b.cursor = 0
		return
	}
	copy(b.buf, b.buf[n:b.cursor])
	b.cursor -= n
}

// Grow doubles the underlying buffer capacity (capped at max) when it is
// entirely full, so the next Read call has room to make progress. It returns
// ErrTooLong if the buffer is already at its cap — the in-progress frame
// would need more than max bytes to complete.
func (b *Buffer) Grow() error {
	if b.cursor < len(b.buf) {
		// There is still room in the current allocation; no grow needed.
		return nil
	}
	if len(b.buf) >= b.max {
		return ErrTooLong
	}
	next := len(b.buf) * 2
	if next > b.max {
		next = b.max
	}
	grown := make([]byte, next)
	copy(grown, b.buf)
	b.buf = grown
	return nil
}

// ReadFrom reads once from r into the free tail of the buffer
// (buf[cursor:len(buf)]) and advances the cursor by however many bytes were
// read. The error from r.Read (io.EOF included) is returned as-is alongside
// the byte count; callers are expected to distinguish a clean close (cursor==0)
// from a reset mid-frame (cursor>0) themselves, since that distinction is
// connection-scoped (server vs. client) rather than buffer-scoped.
func (b *Buffer) ReadFrom(r io.Reader) (int, error) {
	if b.cursor >= len(b.buf) {
		return 0, errors.New("growbuf: ReadFrom called on a full buffer; call Grow first")
	}
	n, err := r.Read(b.buf[b.cursor:])
	// Guard against Readers that violate the io.Reader contract by
	// returning (0, nil) on a non-empty request, which would otherwise spin
	// the framing loop forever.
	if n == 0 && err == nil {
		return 0, io.ErrNoProgress
	}
	b.cursor += n
	return n, err
}
