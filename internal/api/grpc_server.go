package api

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// CatalogServiceName is the name reported by the gRPC health service.
const CatalogServiceName = "artesanato.catalog"

// NewGRPCServer builds a gRPC server exposing the health checking protocol
// and reflection. The returned health server starts NOT_SERVING for
// CatalogServiceName until WatchStorageHealth reports otherwise.
func NewGRPCServer(logger *zap.Logger) (*grpc.Server, *health.Server) {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(unaryLogger(logger)))

	hs := health.NewServer()
	hs.SetServingStatus(CatalogServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	grpc_health_v1.RegisterHealthServer(s, hs)
	logger.Info("gRPC health check service registered")

	reflection.Register(s)
	logger.Info("gRPC reflection service registered")

	return s, hs
}

// WatchStorageHealth pings storage every interval and mirrors the result on
// hs until ctx is done.
func WatchStorageHealth(ctx context.Context, hs *health.Server, storage Pinger, interval time.Duration, logger *zap.Logger) {
	check := func() {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := storage.Ping(pingCtx); err != nil {
			logger.Warn("Storage unreachable, reporting NOT_SERVING", zap.Error(err))
			hs.SetServingStatus(CatalogServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
			return
		}
		hs.SetServingStatus(CatalogServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

func unaryLogger(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("gRPC request",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("elapsed", time.Since(start)))
		return resp, err
	}
}
