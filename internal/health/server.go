// Package health exposes the sync status over the standard gRPC health
// protocol so supervisors can probe the daemon.
package health

import (
	"context"
	"net"

	"github.com/dmitrijs2005/liftsync/internal/common"
	"github.com/dmitrijs2005/liftsync/internal/logging"
	"github.com/dmitrijs2005/liftsync/internal/status"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// StatusSource streams sync status snapshots.
type StatusSource interface {
	Subscribe() (<-chan status.Snapshot, func())
}

// Server serves grpc.health.v1.Health. The empty service is SERVING while
// the process runs; common.ServiceName follows the sync status.
type Server struct {
	address string
	source  StatusSource
	logger  logging.Logger
	health  *health.Server
}

func NewServer(a string, src StatusSource, l logging.Logger) *Server {
	return &Server{
		address: a,
		source:  src,
		logger:  l.With("module", "health_server"),
		health:  health.NewServer(),
	}
}

// ServingStatus maps a sync state to a health status. A failed or offline
// engine still answers local reads, but it is not syncing.
func ServingStatus(s status.State) healthpb.HealthCheckResponse_ServingStatus {
	switch s {
	case status.Idle, status.Syncing:
		return healthpb.HealthCheckResponse_SERVING
	default:
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is done.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(common.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	updates, cancel := s.source.Subscribe()

	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-updates:
				if !ok {
					return
				}
				s.health.SetServingStatus(common.ServiceName, ServingStatus(snap.State))
			}
		}
	}()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping health server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting health server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}

func (s *Server) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		s.logger.Debug(ctx, "health request failed", "method", info.FullMethod, "error", err)
	}
	return resp, err
}
