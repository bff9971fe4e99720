package handler

import (
	"net/http"
	"time"

	"patio/pkg/database"
	"patio/pkg/logger"
	"patio/pkg/redis"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db     *database.PostgresDB
	redis  *redis.Client
	logger *logger.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.PostgresDB, redisClient *redis.Client, logger *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		redis:  redisClient,
		logger: logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks"`
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   "patio",
		Checks:    map[string]string{},
	}
	status := http.StatusOK

	if h.db != nil {
		if err := h.db.Health(ctx); err != nil {
			h.logger.WithError(err).Error("Database health check failed")
			response.Checks["database"] = "unhealthy"
			response.Status = "degraded"
			status = http.StatusServiceUnavailable
		} else {
			response.Checks["database"] = "healthy"
		}
	}

	if h.redis != nil {
		if err := h.redis.Health(ctx); err != nil {
			h.logger.WithError(err).Warn("Redis health check failed")
			response.Checks["redis"] = "unhealthy"
			// Cache loss degrades latency, not correctness
			if response.Status == "healthy" {
				response.Status = "degraded"
			}
		} else {
			response.Checks["redis"] = "healthy"
		}
	}

	respondJSON(w, status, response)
}
