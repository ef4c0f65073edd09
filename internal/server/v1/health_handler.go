package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/provider-hub/internal/platform/version"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Health is a liveness probe.
//
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": version.AppVersion,
	})
}
