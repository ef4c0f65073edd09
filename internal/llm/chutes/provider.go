// Package chutes adapts the Chutes model hosting service.
package chutes

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/nulzo/provider-hub/internal/credentials"
	"github.com/nulzo/provider-hub/internal/httpclient"
	"github.com/nulzo/provider-hub/internal/llm"
	"github.com/nulzo/provider-hub/pkg/api"
	"go.uber.org/zap"
)

const (
	ProviderName = "Chutes"

	DefaultBaseURL   = "https://api.chutes.ai"
	DefaultStatusURL = "https://chutes.ai"
	DefaultAPIURL    = "https://api.chutes.ai/v1/models"

	APITokenKey = "CHUTES_API_KEY"
	BaseURLKey  = "CHUTES_API_BASE_URL"

	// defaultMaxTokens is used when the upstream omits context_window.
	defaultMaxTokens = 8000
)

func init() {
	llm.Register(strings.ToLower(ProviderName), NewAdapter)
}

var staticModels = []api.ModelInfo{
	{Name: "chutes-default", Label: "Chutes Default", Provider: ProviderName, MaxTokenAllowed: defaultMaxTokens},
}

var _ llm.CheckedProvider = (*Adapter)(nil)

type Adapter struct {
	config        llm.ProviderConfig
	client        httpclient.HTTPClient
	resolver      *credentials.Resolver
	clientFactory llm.ClientFactory
	logger        *zap.Logger
}

func NewAdapter(deps llm.Dependencies) (llm.Provider, error) {
	if deps.ClientFactory == nil {
		return nil, fmt.Errorf("%s: a model client factory is required", ProviderName)
	}

	cfg := llm.ProviderConfig{
		APITokenKey: APITokenKey,
		BaseURLKey:  BaseURLKey,
		BaseURL:     DefaultBaseURL,
		StatusURL:   DefaultStatusURL,
		APIURL:      DefaultAPIURL,
	}
	if deps.Settings.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(deps.Settings.BaseURL, "/")
	}
	if deps.Settings.StatusURL != "" {
		cfg.StatusURL = deps.Settings.StatusURL
	}
	if deps.Settings.APIURL != "" {
		cfg.APIURL = deps.Settings.APIURL
	}

	client := deps.HTTPClient
	if client == nil {
		client = httpclient.New(deps.Settings.Timeout)
	}
	resolver := deps.Resolver
	if resolver == nil {
		resolver = credentials.NewResolver(nil)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Adapter{
		config:        cfg,
		client:        client,
		resolver:      resolver,
		clientFactory: deps.ClientFactory,
		logger:        logger.With(zap.String("provider", ProviderName)),
	}, nil
}

func (a *Adapter) Name() string {
	return ProviderName
}

func (a *Adapter) APIKeyLink() string {
	return "https://chutes.ai"
}

func (a *Adapter) Config() llm.ProviderConfig {
	return a.config
}

func (a *Adapter) StaticModels() []api.ModelInfo {
	out := make([]api.ModelInfo, len(staticModels))
	copy(out, staticModels)
	return out
}

type modelsResponse struct {
	Data []struct {
		ID            string  `json:"id"`
		// any JSON number, integral or not
		ContextWindow float64 `json:"context_window"`
	} `json:"data"`
}

// DynamicModels lists the models the account can reach. A missing API key is
// returned as *llm.MissingCredentialError; every other failure is logged and
// yields an empty list.
func (a *Adapter) DynamicModels(ctx context.Context, opts llm.DiscoveryOptions) ([]api.ModelInfo, error) {
	creds := a.resolve(opts.APIKeys, opts.Settings, opts.ServerEnv)
	if creds.APIKey == "" {
		return nil, &llm.MissingCredentialError{Provider: ProviderName}
	}

	url := creds.BaseURL + "/v1/models"

	var res modelsResponse
	if err := httpclient.SendRequest(ctx, a.client, http.MethodGet, url, httpclient.BearerHeaders(creds.APIKey), nil, &res); err != nil {
		a.logger.Error("Error fetching Chutes models", zap.String("url", url), zap.Error(err))
		return []api.ModelInfo{}, nil
	}

	static := make(map[string]struct{}, len(staticModels))
	for _, m := range staticModels {
		static[m.Name] = struct{}{}
	}

	models := make([]api.ModelInfo, 0, len(res.Data))
	for _, m := range res.Data {
		if _, ok := static[m.ID]; ok {
			continue
		}
		maxTokens := int(m.ContextWindow)
		if maxTokens <= 0 {
			maxTokens = defaultMaxTokens
		}
		models = append(models, api.ModelInfo{
			Name:            m.ID,
			Label:           m.ID,
			Provider:        ProviderName,
			MaxTokenAllowed: maxTokens,
		})
	}

	return models, nil
}

// ModelInstance returns a handle for opts.Model. Ids of the form
// `username/model` are served from their own chute subdomain.
func (a *Adapter) ModelInstance(opts llm.InstanceOptions) (llm.LanguageModel, error) {
	var settings *api.ProviderSettings
	if s, ok := opts.ProviderSettings[ProviderName]; ok {
		settings = &s
	}

	creds := a.resolve(opts.APIKeys, settings, opts.ServerEnv)
	if creds.APIKey == "" {
		return nil, &llm.MissingCredentialError{Provider: ProviderName}
	}

	baseURL := creds.BaseURL
	if strings.Contains(opts.Model, "/") {
		chuteURL, err := ChuteBaseURL(opts.Model)
		if err != nil {
			return nil, err
		}
		baseURL = chuteURL
	}

	newModel := a.clientFactory(llm.ClientConfig{
		BaseURL: baseURL + "/v1",
		APIKey:  creds.APIKey,
	})

	return newModel(opts.Model), nil
}

func (a *Adapter) resolve(apiKeys map[string]string, settings *api.ProviderSettings, serverEnv map[string]string) credentials.Result {
	creds := a.resolver.Resolve(credentials.Request{
		ProviderName:       ProviderName,
		APIKeys:            apiKeys,
		Settings:           settings,
		ServerEnv:          serverEnv,
		DefaultBaseURLKey:  a.config.BaseURLKey,
		DefaultAPITokenKey: a.config.APITokenKey,
		DefaultBaseURL:     a.config.BaseURL,
	})
	if creds.BaseURL == "" {
		creds.BaseURL = DefaultBaseURL
	}
	return creds
}
