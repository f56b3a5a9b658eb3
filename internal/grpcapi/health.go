// Package grpcapi exposes the gateway's health over the standard gRPC
// health protocol, for load balancers and orchestrators that probe gRPC.
package grpcapi

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GatewayService is the service name health checks may ask about in
// addition to the server-wide "".
const GatewayService = "campus.gateway.v1.DeviceGateway"

type HealthServer struct {
	addr   string
	logger *zap.Logger

	grpcServer *grpc.Server
	health     *health.Server

	mu   sync.Mutex
	lis  net.Listener
	done chan struct{}
}

func NewHealthServer(addr string, logger *zap.Logger) *HealthServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	hs := health.NewServer()
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	return &HealthServer{addr: addr, logger: logger, grpcServer: gs, health: hs}
}

// Start listens and serves in the background. Status starts NOT_SERVING
// until SetServing(true).
func (h *HealthServer) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.lis != nil {
		return errors.New("grpc health server already started")
	}

	lis, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("grpc listen %s: %w", h.addr, err)
	}
	h.lis = lis
	h.done = make(chan struct{})
	h.SetServing(false)

	go func() {
		defer close(h.done)
		if err := h.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			h.logger.Error("grpc health server stopped", zap.Error(err))
		}
	}()

	h.logger.Info("grpc health listening", zap.String("addr", lis.Addr().String()))
	return nil
}

// Addr is the bound address, useful when configured with port 0.
func (h *HealthServer) Addr() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.lis == nil {
		return h.addr
	}
	return h.lis.Addr().String()
}

func (h *HealthServer) SetServing(ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(GatewayService, status)
}

// Stop marks everything NOT_SERVING and drains in-flight checks.
func (h *HealthServer) Stop() {
	h.mu.Lock()
	started := h.lis != nil
	done := h.done
	h.mu.Unlock()

	h.health.Shutdown()
	h.grpcServer.GracefulStop()
	if started {
		<-done
	}
}
