package gateway

import (
	"fmt"
	"net/http"

	"github.com/nulzo/provider-hub/internal/cli"
	"github.com/nulzo/provider-hub/internal/config"
	"github.com/nulzo/provider-hub/internal/credentials"
	"github.com/nulzo/provider-hub/internal/httpclient"
	"github.com/nulzo/provider-hub/internal/llm"
	"go.uber.org/zap"
)

// BootstrapDeps are shared by every provider created at startup.
type BootstrapDeps struct {
	Resolver *credentials.Resolver
	// NewClientFactory builds the model client factory for one provider. It
	// receives that provider's HTTP client so invocation shares its timeout.
	NewClientFactory func(client *http.Client) llm.ClientFactory
	// HTTPClient overrides the per-provider client built from the configured timeout.
	HTTPClient *http.Client
}

// BootstrapProviders initializes and registers every registered provider that
// is enabled in configuration. It returns how many were registered.
func BootstrapProviders(service Service, providers map[string]config.ProviderConfig, deps BootstrapDeps, log *zap.Logger) int {
	registeredCount := 0

	for _, name := range llm.Names() {
		pCfg, ok := providers[name]
		if !ok || !pCfg.Enabled {
			log.Info(fmt.Sprintf("%s %s", cli.Style("-", cli.Black), cli.Style(name+" disabled", cli.Black)))
			continue
		}

		factoryFunc, err := llm.Get(name)
		if err != nil {
			log.Error("Unknown provider", zap.String("provider", name))
			continue
		}

		client := httpclient.New(pCfg.Timeout)
		if deps.HTTPClient != nil {
			client = deps.HTTPClient
		}

		var clientFactory llm.ClientFactory
		if deps.NewClientFactory != nil {
			clientFactory = deps.NewClientFactory(client)
		}

		providerInstance, err := factoryFunc(llm.Dependencies{
			Settings: llm.Settings{
				BaseURL:   pCfg.BaseURL,
				StatusURL: pCfg.StatusURL,
				APIURL:    pCfg.APIURL,
				Timeout:   pCfg.Timeout,
			},
			HTTPClient:    client,
			Resolver:      deps.Resolver,
			ClientFactory: clientFactory,
			Logger:        log,
		})
		if err != nil {
			log.Error(fmt.Sprintf("%s %s", cli.CrossMark(), name),
				zap.String("provider", name),
				zap.Error(err),
			)
			continue
		}

		if err := service.RegisterProvider(providerInstance); err != nil {
			log.Error("Failed to register provider", zap.String("provider", name), zap.Error(err))
			continue
		}

		log.Info(fmt.Sprintf("%s %s", cli.CheckMark(), providerInstance.Name()),
			zap.String("base_url", providerInstance.Config().BaseURL),
		)
		registeredCount++
	}

	if registeredCount == 0 {
		log.Warn(fmt.Sprintf("%s No providers were registered. API will not function correctly.", cli.WarningSign()))
	}

	return registeredCount
}
