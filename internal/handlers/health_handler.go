package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/simts-edu/casesim-service/internal/utils"
)

// HealthHandler serves GET /api/health
type HealthHandler struct {
	BaseHandler
	db            *gorm.DB
	llmConfigured bool
}

func NewHealthHandler(db *gorm.DB, llmConfigured bool, logger utils.Logger) *HealthHandler {
	return &HealthHandler{
		BaseHandler:   NewBaseHandler(logger),
		db:            db,
		llmConfigured: llmConfigured,
	}
}

// Check reports service liveness plus dependency state. It never
// returns a non-200; degraded dependencies show up in the body.
func (h *HealthHandler) Check(c *gin.Context) {
	dbConnected := false
	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			dbConnected = sqlDB.PingContext(ctx) == nil
		}
	}

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         status,
		"service":        "casesim-service",
		"db_connected":   dbConnected,
		"llm_configured": h.llmConfigured,
	})
}
