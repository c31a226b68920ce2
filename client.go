package zcached

import (
	"io"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/zcached/zcached-go/internal/growbuf"
	"github.com/zcached/zcached-go/internal/wire"
)

// Client is a synchronous connection to a zcached-go server (spec §4.D). It
// is not safe for concurrent use on one connection; callers that need
// concurrency should use multiple Clients, each on its own connection.
type Client struct {
	conn net.Conn
	buf  *growbuf.Buffer
	opts ClientOptions
}

// Dial connects to addr and returns a ready Client.
func Dial(addr string, opts ...ClientOption) (*Client, error) {
	if addr == "" {
		return nil, ErrNoAddress
	}
	o := defaultClientOptions()
	for _, fn := range opts {
		fn(&o)
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "zcached: dial")
	}
	return NewClient(conn, opts...), nil
}

// NewClient wraps an already-established connection. This is the entry point
// tests use with net.Pipe or a pre-dialed net.Conn.
func NewClient(conn net.Conn, opts ...ClientOption) *Client {
	o := defaultClientOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &Client{
		conn: conn,
		buf:  growbuf.New(o.InitialBufferSize, o.MaxBufferSize),
		opts: o,
	}
}

// Close closes the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

// Get issues a GET request.
func (c *Client) Get(key string) (wire.Response, error) {
	return c.do(wire.GetRequest(key))
}

// Set issues a SET request.
func (c *Client) Set(key, value string) (wire.Response, error) {
	return c.do(wire.SetRequest(key, value))
}

// Delete issues a DELETE request.
func (c *Client) Delete(key string) (wire.Response, error) {
	return c.do(wire.DeleteRequest(key))
}

// Flush issues a FLUSH request.
func (c *Client) Flush() (wire.Response, error) {
	return c.do(wire.FlushRequest())
}

// do encodes req, writes it, then reads into the bounded receive buffer
// until a full response frame decodes (spec §4.D steps 1-4).
func (c *Client) do(req wire.Request) (wire.Response, error) {
	if c.opts.Timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.opts.Timeout)); err != nil {
			return wire.Response{}, errors.Wrap(err, "zcached client: set deadline")
		}
	}

	out := wire.EncodeRequest(nil, req)
	if _, err := c.conn.Write(out); err != nil {
		return wire.Response{}, errors.Wrap(err, "zcached client: write request")
	}

	for {
		resp, n, err := wire.DecodeResponse(c.buf.Filled())
		if err == nil {
			c.buf.Consume(n)
			return resp, nil
		}
		if !errors.Is(err, wire.ErrIncomplete) {
			return wire.Response{}, errors.Wrap(err, "zcached client: decode response")
		}

		if growErr := c.buf.Grow(); growErr != nil {
			return wire.Response{}, ErrTooMuchData
		}

		n, rerr := c.buf.ReadFrom(c.conn)
		if rerr != nil {
			if errors.Is(rerr, io.EOF) && n == 0 {
				return wire.Response{}, ErrConnectionReset
			}
			return wire.Response{}, errors.Wrap(rerr, "zcached client: read response")
		}
		if n == 0 {
			return wire.Response{}, ErrConnectionReset
		}
	}
}
