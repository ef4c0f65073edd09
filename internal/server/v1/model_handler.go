package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/provider-hub/internal/gateway"
	"github.com/nulzo/provider-hub/pkg/api"
)

type ModelHandler struct {
	service gateway.Service
}

func NewModelHandler(service gateway.Service) *ModelHandler {
	return &ModelHandler{service: service}
}

// ListProviders returns every registered provider.
//
// GET /v1/providers
func (h *ModelHandler) ListProviders(c *gin.Context) {
	c.JSON(http.StatusOK, api.NewList(h.service.Providers()))
}

// ListModels returns static and discovered models, optionally narrowed by
// provider and a name substring.
//
// GET /v1/models?provider=&name=
func (h *ModelHandler) ListModels(c *gin.Context) {
	creds, err := credentialsFrom(c)
	if err != nil {
		_ = c.Error(api.BadRequestError("Malformed credentials header", api.WithLog(err)))
		return
	}

	filter := api.ModelFilter{
		Provider: c.Query("provider"),
		Name:     c.Query("name"),
	}

	models, err := h.service.ListModels(c.Request.Context(), filter, creds)
	if err != nil {
		_ = c.Error(problemFor(err))
		return
	}

	c.JSON(http.StatusOK, api.NewList(models))
}
