// Package server accepts game clients and runs one protocol endpoint per
// connection.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/life-stream-dev/battleships-server/internal/connection"
	"github.com/life-stream-dev/battleships-server/internal/database"
	"github.com/life-stream-dev/battleships-server/internal/logger"
	"github.com/life-stream-dev/battleships-server/internal/protocol"
	"github.com/life-stream-dev/battleships-server/internal/registry"
)

type Options struct {
	MaxConnections int
	OutboxSize     int
	FailureLimit   int
	// Archive receives a record for every session that ends. May be nil.
	Archive database.RecordStore
	// OnServing is told when the listener starts and stops accepting.
	OnServing func(serving bool)
}

type Server struct {
	registry    *registry.Registry
	connections *connection.Manager
	archive     database.RecordStore
	opts        Options

	sem      chan struct{}
	listener net.Listener
	handlers sync.WaitGroup
	closing  atomic.Bool
}

func New(reg *registry.Registry, opts Options) *Server {
	if opts.MaxConnections < 1 {
		opts.MaxConnections = 10000
	}
	if opts.OutboxSize < 1 {
		opts.OutboxSize = 64
	}
	if opts.FailureLimit < 1 {
		opts.FailureLimit = 3
	}
	return &Server{
		registry:    reg,
		connections: connection.NewManager(),
		archive:     opts.Archive,
		opts:        opts,
		sem:         make(chan struct{}, opts.MaxConnections),
	}
}

func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("battleships server start error: %w", err)
	}
	s.listener = ln
	logger.InfoF("Battleships server listen on %s", ln.Addr().String())
	return nil
}

func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Registry() *registry.Registry {
	return s.registry
}

// Serve runs the accept loop until the listener is closed.
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("server is not listening")
	}
	if s.opts.OnServing != nil {
		s.opts.OnServing(true)
		defer s.opts.OnServing(false)
	}

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closing.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			logger.ErrorF("Accept connection error: %v", err)
			continue
		}

		logger.DebugF("Accepted new connection from %s", conn.RemoteAddr().String())

		s.sem <- struct{}{}
		s.handlers.Add(1)
		go func(c net.Conn) {
			defer func() {
				<-s.sem
				s.handlers.Done()
			}()
			handler := &ConnectionHandler{
				server: s,
				conn:   connection.NewConnection(c, s.opts.OutboxSize),
				connId: c.RemoteAddr().String(),
			}
			handler.handleConnection()
		}(conn)
	}
}

// Invoke stops accepting, tells every client the server is going away and
// waits for their handlers to finish.
func (s *Server) Invoke(ctx context.Context) error {
	if !s.closing.CompareAndSwap(false, true) {
		return nil
	}
	logger.Info("Stopping battleships server")
	if s.listener != nil {
		if err := s.listener.Close(); err != nil && !connection.IsNetClosedError(err) {
			logger.ErrorF("Server close error: %v", err)
		}
	}
	s.connections.CloseAll(protocol.Info(protocol.InfoServerShutdown))

	done := make(chan struct{})
	go func() {
		s.handlers.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) archiveSession(record *database.GameRecord) {
	if s.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	if err := s.archive.SaveRecord(ctx, record); err != nil {
		logger.ErrorF("Fail to archive session %s, details: %v", record.SessionID, err)
	}
}
