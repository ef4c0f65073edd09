package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/provider-hub/internal/gateway"
	"github.com/nulzo/provider-hub/internal/httpclient"
	"github.com/nulzo/provider-hub/internal/llm"
	"github.com/nulzo/provider-hub/pkg/api"
)

const (
	HeaderAPIKeys          = "X-Api-Keys"
	HeaderProviderSettings = "X-Provider-Settings"
)

// credentialsFrom reads per-request keys and provider settings from headers.
// Both headers carry JSON objects keyed by provider name.
func credentialsFrom(c *gin.Context) (gateway.Credentials, error) {
	var creds gateway.Credentials

	if raw := c.GetHeader(HeaderAPIKeys); raw != "" {
		if err := json.Unmarshal([]byte(raw), &creds.APIKeys); err != nil {
			return creds, fmt.Errorf("%s: %w", HeaderAPIKeys, err)
		}
	}

	if raw := c.GetHeader(HeaderProviderSettings); raw != "" {
		if err := json.Unmarshal([]byte(raw), &creds.ProviderSettings); err != nil {
			return creds, fmt.Errorf("%s: %w", HeaderProviderSettings, err)
		}
	}

	return creds, nil
}

// problemFor maps domain errors onto their HTTP problem.
func problemFor(err error) *api.Problem {
	var problem *api.Problem
	if errors.As(err, &problem) {
		return problem
	}

	var upstream *httpclient.UpstreamError
	switch {
	case errors.Is(err, gateway.ErrProviderNotFound):
		return api.NotFoundError(err.Error())
	case errors.Is(err, gateway.ErrStatusNotSupported):
		return api.NewError(http.StatusNotImplemented, "Not Implemented", err.Error())
	case errors.Is(err, llm.ErrInvalidModelID):
		return api.BadRequestError(err.Error())
	case llm.IsMissingCredential(err):
		return api.UnauthorizedError(err.Error())
	case errors.As(err, &upstream):
		return api.ProviderError(fmt.Sprintf("provider responded with %d %s", upstream.StatusCode, upstream.StatusText()), err,
			api.WithExtension("upstream_status", upstream.StatusCode))
	default:
		return api.InternalError("An unexpected error occurred.", err)
	}
}
