// internal/handlers/health.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront-backend/internal/i18n"
	"github.com/javajoker/storefront-backend/internal/utils"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	version string
}

func NewHealthHandler(db Pinger, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{
		"status":    "ok",
		"version":   h.version,
		"timestamp": time.Now().UTC(),
		"database":  "ok",
	}

	if err := h.db.PingContext(ctx); err != nil {
		status["status"] = "degraded"
		status["database"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, utils.APIResponse{
			Success: false,
			Message: i18n.T(utils.GetLangFromContext(c), i18n.KeyInternalError),
			Data:    status,
		})
		return
	}

	utils.SuccessResponse(c, i18n.KeyHealthOK, status)
}
