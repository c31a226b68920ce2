package zcached

import (
	"io"
	"net"
	"time"

	"code.hybscloud.com/iox"
	"github.com/pkg/errors"

	"github.com/zcached/zcached-go/internal/growbuf"
	"github.com/zcached/zcached-go/internal/store"
	"github.com/zcached/zcached-go/internal/wire"
)

// serveConn drives the per-connection state machine described in
// SPEC_FULL.md §4.C: buffered read, incremental parse, partial-frame
// carry-over, bounded doubling growth, teardown on overrun or disconnect.
// It returns nil only on a clean peer close with no partial frame held.
func serveConn(conn net.Conn, db *store.Store, opts Options, log Logger) error {
	buf := growbuf.New(opts.InitialBufferSize, opts.MaxBufferSize)

	for {
		// PARSE: drain every complete frame already buffered before the
		// next read, preserving per-connection response ordering.
		for {
			req, n, err := wire.DecodeRequest(buf.Filled())
			if errors.Is(err, wire.ErrIncomplete) {
				break
			}
			if errors.Is(err, wire.ErrMalformed) {
				return errors.Wrap(err, "serveConn: malformed frame")
			}
			if err != nil {
				return errors.Wrap(err, "serveConn: decode request")
			}

			resp, err := apply(req, db)
			if err != nil {
				return errors.Wrap(err, "serveConn: apply request")
			}

			out := wire.EncodeResponse(nil, resp)
			if err := writeAll(conn, out, opts, log); err != nil {
				return errors.Wrap(err, "serveConn: write response")
			}

			buf.Consume(n)
		}

		// READ: no complete frame buffered; pull more bytes, growing first
		// if the buffer is already full.
		if err := buf.Grow(); err != nil {
			log.Errorf("connection terminated: %v", err)
			return ErrTooMuchData
		}

		n, err := readOnce(conn, buf, opts, log)
		if err != nil {
			if errors.Is(err, ErrStalled) {
				return ErrStalled
			}
			if errors.Is(err, io.EOF) {
				if buf.Cursor() == 0 {
					return nil
				}
				return ErrConnectionReset
			}
			return errors.Wrap(err, "serveConn: read")
		}
		if n == 0 {
			if buf.Cursor() == 0 {
				return nil
			}
			return ErrConnectionReset
		}
	}
}

// apply dispatches a parsed request to the store and builds its response.
func apply(req wire.Request, db *store.Store) (wire.Response, error) {
	switch req.Op {
	case wire.OpGet:
		v, ok, err := db.Get(req.Key)
		if err != nil {
			return wire.Response{}, err
		}
		return wire.GetResponse(v, ok), nil
	case wire.OpSet:
		if err := db.Insert(req.Key, req.Value); err != nil {
			return wire.Response{}, err
		}
		return wire.SetResponse(), nil
	case wire.OpDelete:
		if err := db.Remove(req.Key); err != nil {
			return wire.Response{}, err
		}
		return wire.DeleteResponse(), nil
	case wire.OpFlush:
		if err := db.Clear(); err != nil {
			return wire.Response{}, err
		}
		return wire.FlushResponse(), nil
	default:
		return wire.Response{}, errors.Errorf("apply: unknown opcode %d", req.Op)
	}
}

// readOnce performs one buffered read, optionally arming a read deadline and
// tolerating a bounded number of consecutive stalls (SPEC_FULL.md §4.C). A
// zero ReadTimeout disables deadlines entirely and this degenerates to a
// single plain blocking read, the spec's default behavior.
func readOnce(conn net.Conn, buf *growbuf.Buffer, opts Options, log Logger) (int, error) {
	if opts.ReadTimeout <= 0 {
		return buf.ReadFrom(conn)
	}

	retries := 0
	for {
		if err := conn.SetReadDeadline(time.Now().Add(opts.ReadTimeout)); err != nil {
			return 0, err
		}
		n, err := buf.ReadFrom(conn)
		if err == nil || !isRetryable(err) {
			return n, err
		}
		retries++
		if retries > opts.MaxStallRetries {
			log.Errorf("read stalled past %d retries", opts.MaxStallRetries)
			return 0, ErrStalled
		}
	}
}

// writeAll writes the whole response buffer, optionally arming a write
// deadline with the same bounded-stall-retry policy as readOnce.
func writeAll(conn net.Conn, p []byte, opts Options, log Logger) error {
	if opts.WriteTimeout <= 0 {
		_, err := conn.Write(p)
		return err
	}

	retries := 0
	for len(p) > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(opts.WriteTimeout)); err != nil {
			return err
		}
		n, err := conn.Write(p)
		p = p[n:]
		if err == nil {
			continue
		}
		if !isRetryable(err) {
			return err
		}
		retries++
		if retries > opts.MaxStallRetries {
			log.Errorf("write stalled past %d retries", opts.MaxStallRetries)
			return ErrStalled
		}
	}
	return nil
}

// isRetryable reports whether err is a condition readOnce/writeAll should
// retry against their stall budget rather than fail outright: either a
// net.Conn deadline firing, or the peer's Reader/Writer being an
// iox-compliant non-blocking implementation that reports it cannot make
// progress right now via iox.ErrWouldBlock (the same sentinel
// hayabusa-cloud-framer's readOnce/writeOnce retry on).
func isRetryable(err error) bool {
	if errors.Is(err, iox.ErrWouldBlock) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
