package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/sfauth/internal/infrastructure/cache"
	"github.com/turtacn/sfauth/internal/infrastructure/persistence/postgres"
	"github.com/turtacn/sfauth/pkg/logger"
)

// HealthHandler provides the health check endpoints.
type HealthHandler struct {
	db    *postgres.DBConnection
	redis *cache.RedisConnection
	log   logger.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *postgres.DBConnection, redis *cache.RedisConnection, log logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:    db,
		redis: redis,
		log:   log,
	}
}

// HealthCheck reports the service health and the state of its dependencies.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status := "healthy"
	checks := h.performChecks(c.Request.Context())

	httpStatus := http.StatusOK
	for _, checkStatus := range checks {
		if checkStatus != "ok" {
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	})
}

// ReadinessCheck reports whether the service can accept traffic.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	h.HealthCheck(c)
}

// LivenessCheck reports process liveness without touching dependencies.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (h *HealthHandler) performChecks(ctx context.Context) map[string]string {
	var wg sync.WaitGroup
	var mu sync.Mutex
	checks := make(map[string]string)

	record := func(name string, err error) {
		status := "ok"
		if err != nil {
			status = "error: " + err.Error()
		}
		mu.Lock()
		checks[name] = status
		mu.Unlock()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		record("database", h.db.HealthCheck(ctx))
	}()
	go func() {
		defer wg.Done()
		record("redis", h.redis.Ping(ctx))
	}()
	wg.Wait()

	return checks
}
