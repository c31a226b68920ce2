package zcached

import (
	"context"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/zcached/zcached-go/internal/store"
)

// Server accepts connections and runs one connection framer per accepted
// stream (spec §4.E). It does not own a listener until Serve or
// ListenAndServe is called, so the zero-cost Server value can be built,
// configured, and handed a pre-bound net.Listener by its caller (e.g. for
// tests that bind to ":0").
type Server struct {
	db   *store.Store
	opts Options

	mu       sync.Mutex
	ln       net.Listener
	group    *errgroup.Group
	groupCtx context.Context
	cancel   context.CancelFunc
}

// NewServer constructs a Server backed by db. Passing a nil db creates a
// fresh store pre-sized with DefaultInitialDBCapacity, mirroring the
// original DB::with_capacity(1_048_576) default.
func NewServer(db *store.Store, opts ...Option) *Server {
	if db == nil {
		db = store.NewWithCapacity(DefaultInitialDBCapacity)
	}
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &Server{db: db, opts: o}
}

// ListenAndServe binds addr and serves it until the context is canceled or
// Shutdown is called. An empty addr is a configuration error (spec §7).
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		return ErrNoAddress
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(err, "zcached: listen")
	}
	return s.Serve(ctx, ln)
}

// Serve runs the accept loop over an already-bound listener. It blocks until
// ctx is canceled, Shutdown is called, or Accept fails terminally.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	groupCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(groupCtx)

	s.mu.Lock()
	s.ln = ln
	s.group = group
	s.groupCtx = groupCtx
	s.cancel = cancel
	s.mu.Unlock()

	defer cancel()

	// Close the listener when the context is done so a blocked Accept call
	// returns promptly; this is the only coordination the accept loop needs
	// with Shutdown/cancellation.
	go func() {
		<-groupCtx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-groupCtx.Done():
				return s.group.Wait()
			default:
			}
			return errors.Wrap(err, "zcached: accept")
		}

		connID := uuid.NewString()
		log := s.opts.Logger.WithField("conn", connID)
		group.Go(func() error {
			defer conn.Close()
			log.Infof("connection accepted: %s", conn.RemoteAddr())
			err := serveConn(conn, s.db, s.opts, log)
			if err != nil {
				log.Errorf("connection terminated: %v", err)
			} else {
				log.Infof("connection closed")
			}
			// A single connection's error never tears down the listener;
			// the listener logs and keeps accepting (spec §7).
			return nil
		})
	}
}

// Addr returns the listener's bound address, or nil if Serve/ListenAndServe
// has not been called yet. This recovers the original Server::port() helper
// used by tests that bind to an ephemeral port.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting new connections and waits for in-flight
// connection workers to finish (or ctx to expire, whichever comes first).
// Process shutdown drops all store data (spec §5); callers that want that
// should call Store.Close after Shutdown returns.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	group := s.group
	s.mu.Unlock()
	if cancel == nil || group == nil {
		return nil // Serve was never called.
	}
	cancel()

	done := make(chan error, 1)
	go func() { done <- group.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
