package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthHandler reports liveness and the state of dependencies.
type HealthHandler struct {
	db       *gorm.DB
	narrator HealthReporter
}

// NewHealthHandler creates a HealthHandler. narrator may be nil.
func NewHealthHandler(db *gorm.DB, narrator HealthReporter) *HealthHandler {
	return &HealthHandler{db: db, narrator: narrator}
}

// Health handles GET /health. A failing database yields 503; an unhealthy
// narrator does not, since quest generation falls back locally.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbOK := false
	if sqlDB, err := h.db.DB(); err == nil {
		dbOK = sqlDB.PingContext(ctx) == nil
	}
	status, code := "ok", http.StatusOK
	if !dbOK {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"database":  dbOK,
		"narrative": h.narrator != nil && h.narrator.Healthy(),
	})
}
