package llm

import (
	"context"
	"time"

	"github.com/nulzo/provider-hub/internal/credentials"
	"github.com/nulzo/provider-hub/internal/httpclient"
	"github.com/nulzo/provider-hub/pkg/api"
	"go.uber.org/zap"
)

// ProviderConfig is the static identity of a provider: which keys it reads
// credentials from and where its endpoints live.
type ProviderConfig struct {
	APITokenKey string
	BaseURLKey  string
	BaseURL     string
	StatusURL   string
	APIURL      string
}

// DiscoveryOptions carries the three credential sources for model discovery.
type DiscoveryOptions struct {
	APIKeys   map[string]string
	Settings  *api.ProviderSettings
	ServerEnv map[string]string
}

// InstanceOptions describes the model a caller wants a handle for.
type InstanceOptions struct {
	Model            string
	ServerEnv        map[string]string
	APIKeys          map[string]string
	ProviderSettings map[string]api.ProviderSettings
}

// Provider is implemented once per hosting service.
type Provider interface {
	Name() string
	APIKeyLink() string
	Config() ProviderConfig
	StaticModels() []api.ModelInfo

	// DynamicModels fetches the live model list. Models already present in
	// StaticModels are never returned.
	DynamicModels(ctx context.Context, opts DiscoveryOptions) ([]api.ModelInfo, error)

	// ModelInstance builds an invocable handle. It performs no network I/O.
	ModelInstance(opts InstanceOptions) (LanguageModel, error)
}

// StatusChecker probes a provider's public status page and its authenticated API.
// Implementations never return errors: every failure is folded into the result.
type StatusChecker interface {
	CheckStatus(ctx context.Context) api.StatusCheckResult
	CheckAPI(ctx context.Context, apiKey string) api.StatusCheckResult
}

// CheckedProvider is a provider that also knows how to report its own health.
type CheckedProvider interface {
	Provider
	StatusChecker
}

// LanguageModel is an invocable handle bound to a base URL and a model id.
type LanguageModel interface {
	ModelID() string
	BaseURL() string
	Generate(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error)
}

// ClientConfig is what an OpenAI-compatible client needs to be built.
type ClientConfig struct {
	BaseURL string
	APIKey  string
}

// ClientFactory returns a model constructor bound to one endpoint and key.
type ClientFactory func(cfg ClientConfig) func(modelID string) LanguageModel

// Settings are the per-deployment overrides read from configuration.
type Settings struct {
	BaseURL   string
	StatusURL string
	APIURL    string
	Timeout   time.Duration
}

// Dependencies are handed to every provider factory.
type Dependencies struct {
	Settings      Settings
	HTTPClient    httpclient.HTTPClient
	Resolver      *credentials.Resolver
	ClientFactory ClientFactory
	Logger        *zap.Logger
}
