package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/contactdesk/contacts-api/internal/constants"
	"github.com/contactdesk/contacts-api/pkg/redis"
)

// HealthHandler reports service liveness and dependency status.
type HealthHandler struct {
	db    *gorm.DB
	cache *redis.Client
}

func NewHealthHandler(db *gorm.DB, cache *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Health pings the database and redis. A degraded dependency turns the
// overall status to unhealthy with a 503.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	status := "healthy"
	code := http.StatusOK
	checks := gin.H{}

	if sqlDB, err := h.db.DB(); err != nil {
		checks["database"] = "error: " + err.Error()
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	} else if err := sqlDB.PingContext(ctx); err != nil {
		checks["database"] = "error: " + err.Error()
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if !h.cache.IsEnabled() {
		checks["redis"] = "disabled"
	} else if err := h.cache.Ping(ctx); err != nil {
		checks["redis"] = "error: " + err.Error()
	} else {
		checks["redis"] = "ok"
	}

	c.JSON(code, gin.H{
		"status":    status,
		"service":   constants.AppName,
		"version":   constants.AppVersion,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}
