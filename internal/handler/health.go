package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const serviceName = "gitlab-issue-bridge"

// Pinger is the part of the Redis client the readiness probe needs
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// HealthResponse represents the JSON response for health endpoints
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

// ReadinessResponse represents the JSON response for readiness endpoints
type ReadinessResponse struct {
	Status       string                 `json:"status"`
	Timestamp    time.Time              `json:"timestamp"`
	Service      string                 `json:"service"`
	Dependencies map[string]interface{} `json:"dependencies"`
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	rdb     Pinger
	version string
}

// NewHealthHandler creates a new health handler instance
func NewHealthHandler(rdb Pinger, version string) *HealthHandler {
	return &HealthHandler{rdb: rdb, version: version}
}

// HandleHealth handles the /health endpoint for liveness probes
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte("Method not allowed\n"))
		return
	}

	writeProbe(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   serviceName,
		Version:   h.version,
	})
}

// HandleReady handles the /ready endpoint; the service is ready when Redis answers
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = w.Write([]byte("Method not allowed\n"))
		return
	}

	// Check Redis connectivity
	redisStatus := h.checkRedisConnectivity(r.Context())

	// Determine overall readiness
	overallStatus := "ready"
	statusCode := http.StatusOK
	if !redisStatus["healthy"].(bool) {
		overallStatus = "not ready"
		statusCode = http.StatusServiceUnavailable
	}

	writeProbe(w, statusCode, ReadinessResponse{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Service:   serviceName,
		Dependencies: map[string]interface{}{
			"redis": redisStatus,
		},
	})
}

func writeProbe(w http.ResponseWriter, statusCode int, response interface{}) {
	body, err := json.Marshal(response)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal server error\n"))
		return
	}

	// Set headers and status code
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}

// checkRedisConnectivity checks Redis connectivity with 5-second timeout
func (h *HealthHandler) checkRedisConnectivity(ctx context.Context) map[string]interface{} {
	timeoutCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Ping Redis and measure response time
	start := time.Now()
	err := h.rdb.Ping(timeoutCtx).Err()
	duration := time.Since(start)

	if err != nil {
		return map[string]interface{}{
			"healthy":          false,
			"error":            err.Error(),
			"response_time_ms": duration.Milliseconds(),
		}
	}

	return map[string]interface{}{
		"healthy":          true,
		"status":           "connected",
		"response_time_ms": duration.Milliseconds(),
	}
}
