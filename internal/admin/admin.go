// Package admin serves the gRPC health service next to the game listener.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/life-stream-dev/battleships-server/internal/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// GameService is the health service name reporting the game listener.
const GameService = "battleships.Game"

type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
}

// New listens on addr; the game service starts NOT_SERVING until
// SetServing is called.
func New(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(logUnary))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(GameService, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	return &Server{listener: listener, grpcServer: grpcServer, health: healthServer}, nil
}

func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// SetServing flips the game service status.
func (s *Server) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(GameService, status)
}

// Serve blocks until the server is stopped.
func (s *Server) Serve() error {
	logger.InfoF("Admin server listen on %s", s.Addr())
	err := s.grpcServer.Serve(s.listener)
	if err == nil || errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

// Invoke stops the server on shutdown, gracefully unless ctx expires first.
func (s *Server) Invoke(ctx context.Context) error {
	logger.Info("Stopping admin server")
	s.health.Shutdown()
	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.grpcServer.Stop()
		return ctx.Err()
	}
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		logger.WarnF("Admin call %s failed: %v", info.FullMethod, err)
	} else {
		logger.DebugF("Admin call %s", info.FullMethod)
	}
	return resp, err
}
