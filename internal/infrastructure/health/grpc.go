// Package health serves the standard grpc.health.v1 protocol so orchestrators
// can probe the cashflow server without going through the REST API.
package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"

	"github.com/rezkam/cashflow/internal/config"
)

// ServiceName is the health service name reported alongside the overall ("") status.
const ServiceName = "cashflow.v1.Finance"

// Server is a gRPC server exposing only the health service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	lis    net.Listener
}

// NewServer listens on the configured address and registers the health service.
// Status starts as NOT_SERVING until Serve is called.
func NewServer(ctx context.Context, cfg config.GRPCConfig) (*Server, error) {
	lis, err := net.Listen("tcp", net.JoinHostPort(cfg.Host, cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	return newServer(ctx, cfg, lis), nil
}

func newServer(ctx context.Context, cfg config.GRPCConfig, lis net.Listener) *Server {
	serverOpts := []grpc.ServerOption{
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: cfg.MaxConnectionIdle,
			MaxConnectionAge:  cfg.MaxConnectionAge,
			Time:              cfg.KeepaliveTime,
			Timeout:           cfg.KeepaliveTimeout,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             cfg.KeepaliveMinTime,
			PermitWithoutStream: true,
		}),
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	}
	if cfg.ConnectionTimeout > 0 {
		serverOpts = append(serverOpts, grpc.ConnectionTimeout(cfg.ConnectionTimeout))
	}

	s := grpc.NewServer(serverOpts...)
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s, hs)

	slog.InfoContext(ctx, "gRPC health server listening", "address", lis.Addr())

	return &Server{grpc: s, health: hs, lis: lis}
}

// Addr returns the bound listener address.
func (s *Server) Addr() net.Addr {
	return s.lis.Addr()
}

// Serve marks the server SERVING and blocks until it stops.
func (s *Server) Serve() error {
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	if err := s.grpc.Serve(s.lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Shutdown flips every status to NOT_SERVING so watchers drain, then stops
// gracefully. If ctx expires first the server is stopped forcefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		slog.InfoContext(ctx, "gRPC health server stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "gRPC graceful shutdown timed out, forcing stop")
		s.grpc.Stop()
		return ctx.Err()
	}
}
