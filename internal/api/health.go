package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Pinger reports whether the snapshot medium is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterHealthCheck mounts GET /api/v1/healthz. The response is always 200;
// the payload tells whether storage answered.
func RegisterHealthCheck(router chi.Router, serviceName string, storage Pinger, logger *zap.Logger) {
	healthPath := "/api/v1/healthz"
	router.Get(healthPath, func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		storageStatus := "healthy"
		if err := storage.Ping(ctx); err != nil {
			storageStatus = "unhealthy"
			logger.Warn("Health check storage ping failed", zap.Error(err))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "healthy",
			"serviceName": serviceName,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"storage":     storageStatus,
		})
	})
	logger.Info("HTTP health check registered", zap.String("path", healthPath))
}
