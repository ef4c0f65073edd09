package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/provider-hub/internal/gateway"
	"github.com/nulzo/provider-hub/internal/server/validator"
	"github.com/nulzo/provider-hub/pkg/api"
)

type StatusHandler struct {
	service gateway.Service
}

func NewStatusHandler(service gateway.Service) *StatusHandler {
	return &StatusHandler{service: service}
}

// ProviderStatus probes the provider's public status page.
//
// GET /v1/providers/:provider/status
func (h *StatusHandler) ProviderStatus(c *gin.Context) {
	res, err := h.service.CheckStatus(c.Request.Context(), c.Param("provider"))
	if err != nil {
		_ = c.Error(problemFor(err))
		return
	}

	c.JSON(http.StatusOK, res)
}

// APIStatus verifies a key against the provider's model listing.
// A rejected key is still a 200, the verdict lives in the result body.
//
// POST /v1/providers/:provider/status/api
func (h *StatusHandler) APIStatus(c *gin.Context) {
	var req api.APICheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	res, err := h.service.CheckAPI(c.Request.Context(), c.Param("provider"), req.APIKey)
	if err != nil {
		_ = c.Error(problemFor(err))
		return
	}

	c.JSON(http.StatusOK, res)
}
