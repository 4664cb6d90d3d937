package api

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/holdfast-io/holdfast/pkg/gate"
	"github.com/holdfast-io/holdfast/pkg/log"
)

// GRPCServer exposes the serving gate through the standard gRPC health
// protocol, for clients and meshes that probe grpc.health.v1.Health
// instead of HTTP.
type GRPCServer struct {
	gate   *gate.Gate
	server *grpc.Server
	health *health.Server
	logger zerolog.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewGRPCServer creates a gRPC server whose health status mirrors the
// serving gate
func NewGRPCServer(g *gate.Gate) *GRPCServer {
	logger := log.WithComponent("grpc")
	s := &GRPCServer{
		gate:   g,
		health: health.NewServer(),
		logger: logger,
		stopCh: make(chan struct{}),
	}
	s.server = grpc.NewServer(grpc.UnaryInterceptor(loggingInterceptor(logger)))
	healthpb.RegisterHealthServer(s.server, s.health)
	return s
}

// Start listens on addr and blocks until the listener fails or Stop is
// called
func (s *GRPCServer) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s.syncStatus()
	s.wg.Add(1)
	go s.mirror()

	s.logger.Info().Str("addr", addr).Msg("gRPC health listening")
	return s.server.Serve(lis)
}

// Stop gracefully stops the server, draining in-flight RPCs
func (s *GRPCServer) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
	s.server.GracefulStop()
}

// mirror keeps the published health status in step with the gate. Polling
// the gate is cheap (a single atomic load) and immune to dropped events.
func (s *GRPCServer) mirror() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.syncStatus()
		case <-s.stopCh:
			s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
			return
		}
	}
}

func (s *GRPCServer) syncStatus() {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if s.gate.IsOpen() {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
}

func loggingInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug().
			Str("method", info.FullMethod).
			Dur("duration", time.Since(start)).
			Err(err).
			Msg("rpc handled")
		return resp, err
	}
}
