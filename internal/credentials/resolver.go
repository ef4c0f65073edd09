// Package credentials resolves the effective API key and base URL for a provider
// from per-request keys, persisted provider settings and the server environment.
package credentials

import (
	"strings"

	"github.com/nulzo/provider-hub/pkg/api"
)

// LookupFunc reads a key from the process environment.
type LookupFunc func(key string) string

type Request struct {
	ProviderName       string
	APIKeys            map[string]string
	Settings           *api.ProviderSettings
	ServerEnv          map[string]string
	DefaultBaseURLKey  string
	DefaultAPITokenKey string
	DefaultBaseURL     string
}

type Result struct {
	APIKey  string
	BaseURL string
}

type Resolver struct {
	lookup LookupFunc
}

// NewResolver returns a Resolver that falls back to lookup for process-level values.
// A nil lookup disables that layer.
func NewResolver(lookup LookupFunc) *Resolver {
	if lookup == nil {
		lookup = func(string) string { return "" }
	}
	return &Resolver{lookup: lookup}
}

// Resolve applies the precedence rules:
//
//	base URL: settings -> server env -> process env -> provider default
//	API key:  per-request keys (by provider name) -> server env -> process env
func (r *Resolver) Resolve(req Request) Result {
	var settingsBaseURL string
	if req.Settings != nil {
		settingsBaseURL = req.Settings.BaseURL
	}

	baseURL := firstNonEmpty(
		settingsBaseURL,
		req.ServerEnv[req.DefaultBaseURLKey],
		r.env(req.DefaultBaseURLKey),
		req.DefaultBaseURL,
	)
	baseURL = strings.TrimRight(baseURL, "/")

	apiKey := firstNonEmpty(
		req.APIKeys[req.ProviderName],
		req.ServerEnv[req.DefaultAPITokenKey],
		r.env(req.DefaultAPITokenKey),
	)

	return Result{APIKey: apiKey, BaseURL: baseURL}
}

func (r *Resolver) env(key string) string {
	if key == "" {
		return ""
	}
	return r.lookup(key)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
