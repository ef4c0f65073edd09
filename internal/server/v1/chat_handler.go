package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/provider-hub/internal/gateway"
	"github.com/nulzo/provider-hub/internal/server/validator"
	"github.com/nulzo/provider-hub/pkg/api"
	"go.uber.org/zap"
)

type ChatHandler struct {
	service gateway.Service
	logger  *zap.Logger
}

func NewChatHandler(service gateway.Service, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger,
	}
}

// CreateCompletion resolves a model instance for the requested provider and
// forwards the conversation to it.
//
// POST /v1/chat/completions
func (h *ChatHandler) CreateCompletion(c *gin.Context) {
	var req api.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	creds, err := credentialsFrom(c)
	if err != nil {
		_ = c.Error(api.BadRequestError("Malformed credentials header", api.WithLog(err)))
		return
	}

	ctx := c.Request.Context()

	model, err := h.service.ModelInstance(ctx, req.Provider, req.Model, creds)
	if err != nil {
		_ = c.Error(problemFor(err))
		return
	}

	h.logger.Debug("Dispatching completion",
		zap.String("provider", req.Provider),
		zap.String("model", model.ModelID()),
		zap.String("base_url", model.BaseURL()),
	)

	resp, err := model.Generate(ctx, &req)
	if err != nil {
		_ = c.Error(problemFor(err))
		return
	}

	c.JSON(http.StatusOK, resp)
}
