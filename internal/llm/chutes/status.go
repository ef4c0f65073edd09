package chutes

import (
	"context"
	"fmt"
	"net/http"

	"github.com/nulzo/provider-hub/internal/httpclient"
	"github.com/nulzo/provider-hub/pkg/api"
	"go.uber.org/zap"
)

const connectionError = "Connection error"

// CheckStatus probes the public status page. No credentials are sent.
func (a *Adapter) CheckStatus(ctx context.Context) api.StatusCheckResult {
	res, err := httpclient.Probe(ctx, a.client, http.MethodGet, a.config.StatusURL, nil)
	if err != nil {
		a.logger.Error("Error checking Chutes status", zap.String("url", a.config.StatusURL), zap.Error(err))
		return api.StatusCheckResult{
			Status:    api.StatusDown,
			Message:   "Unable to connect to Chutes status page",
			Incidents: []string{connectionError},
		}
	}

	if httpclient.IsSuccess(res.StatusCode) {
		return api.StatusCheckResult{
			Status:    api.StatusOperational,
			Message:   "Chutes status page is accessible",
			Incidents: []string{},
		}
	}

	return api.StatusCheckResult{
		Status:    api.StatusDegraded,
		Message:   "Chutes status page is not responding normally",
		Incidents: []string{},
	}
}

// CheckAPI issues an authenticated request against the API and reports its latency.
func (a *Adapter) CheckAPI(ctx context.Context, apiKey string) api.StatusCheckResult {
	headers := httpclient.BearerHeaders(apiKey)
	headers["Content-Type"] = "application/json"

	res, err := httpclient.Probe(ctx, a.client, http.MethodGet, a.config.APIURL, headers)
	if err != nil {
		a.logger.Error("Error checking Chutes API", zap.String("url", a.config.APIURL), zap.Error(err))
		return api.StatusCheckResult{
			Status:    api.StatusDown,
			Message:   "Unable to connect to Chutes API",
			Incidents: []string{connectionError},
		}
	}
	if httpclient.IsSuccess(res.StatusCode) {
		return api.StatusCheckResult{
			Status:    api.StatusOperational,
			Message:   fmt.Sprintf("API is operational (response time: %dms)", res.Latency.Milliseconds()),
			Incidents: []string{},
		}
	}

	return api.StatusCheckResult{
		Status:    api.StatusDegraded,
		Message:   "API is responding with errors",
		Incidents: []string{},
	}
}
