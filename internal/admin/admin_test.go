package admin

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

func TestHealthFollowsGameListener(t *testing.T) {
	server, err := New("127.0.0.1:0")
	if err != nil {
		t.Fatalf("new admin server: %v", err)
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Serve() }()

	conn, err := grpc.NewClient(server.Addr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	client := grpc_health_v1.NewHealthClient(conn)

	check := func(service string) grpc_health_v1.HealthCheckResponse_ServingStatus {
		t.Helper()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: service})
		if err != nil {
			t.Fatalf("check %q: %v", service, err)
		}
		return resp.GetStatus()
	}

	if got := check(""); got != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Errorf("expected server to be SERVING, got %v", got)
	}
	if got := check(GameService); got != grpc_health_v1.HealthCheckResponse_NOT_SERVING {
		t.Errorf("expected game to start NOT_SERVING, got %v", got)
	}
	server.SetServing(true)
	if got := check(GameService); got != grpc_health_v1.HealthCheckResponse_SERVING {
		t.Errorf("expected game to be SERVING, got %v", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := server.Invoke(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	select {
	case err := <-serveErr:
		if err != nil {
			t.Errorf("serve returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return after stop")
	}
}
