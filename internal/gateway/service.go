package gateway

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/nulzo/provider-hub/internal/llm"
	"github.com/nulzo/provider-hub/internal/platform/tracing"
	"github.com/nulzo/provider-hub/pkg/api"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	ErrProviderNotFound   = errors.New("provider not found")
	ErrStatusNotSupported = errors.New("provider does not support status checks")
	ErrProviderExists     = errors.New("provider already registered")
)

// Credentials are the caller-supplied credential sources for one request.
type Credentials struct {
	APIKeys          map[string]string
	ProviderSettings map[string]api.ProviderSettings
}

func (c Credentials) settingsFor(name string) *api.ProviderSettings {
	if s, ok := c.ProviderSettings[name]; ok {
		return &s
	}
	return nil
}

// Service is the host-side registry of providers.
type Service interface {
	RegisterProvider(p llm.Provider) error
	Providers() []api.ProviderSummary

	ListModels(ctx context.Context, filter api.ModelFilter, creds Credentials) ([]api.ModelInfo, error)
	ModelInstance(ctx context.Context, providerName, model string, creds Credentials) (llm.LanguageModel, error)

	CheckStatus(ctx context.Context, providerName string) (api.StatusCheckResult, error)
	CheckAPI(ctx context.Context, providerName, apiKey string) (api.StatusCheckResult, error)
}

type service struct {
	logger    *zap.Logger
	serverEnv map[string]string
	tracer    trace.Tracer

	mu        sync.RWMutex
	providers map[string]llm.Provider
}

func NewService(logger *zap.Logger, serverEnv map[string]string) Service {
	return &service{
		logger:    logger,
		serverEnv: serverEnv,
		tracer:    tracing.Tracer(),
		providers: make(map[string]llm.Provider),
	}
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (s *service) RegisterProvider(p llm.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(p.Name())
	if _, exists := s.providers[k]; exists {
		return fmt.Errorf("%w: %s", ErrProviderExists, p.Name())
	}
	s.providers[k] = p
	return nil
}

func (s *service) lookup(name string) (llm.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.providers[key(name)]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, name)
}

// sorted returns a snapshot of the registered providers ordered by name.
func (s *service) sorted() []llm.Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]llm.Provider, 0, len(s.providers))
	for _, p := range s.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

func (s *service) Providers() []api.ProviderSummary {
	providers := s.sorted()
	out := make([]api.ProviderSummary, 0, len(providers))
	for _, p := range providers {
		out = append(out, api.ProviderSummary{
			Name:         p.Name(),
			APIKeyLink:   p.APIKeyLink(),
			StaticModels: len(p.StaticModels()),
		})
	}
	return out
}

// ListModels returns static followed by dynamic models for every provider
// matching filter. Providers are queried one after another.
func (s *service) ListModels(ctx context.Context, filter api.ModelFilter, creds Credentials) ([]api.ModelInfo, error) {
	ctx, span := s.tracer.Start(ctx, "gateway.ListModels")
	defer span.End()

	var providers []llm.Provider
	if filter.Provider != "" {
		p, err := s.lookup(filter.Provider)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		providers = []llm.Provider{p}
	} else {
		providers = s.sorted()
	}

	models := []api.ModelInfo{}
	for _, p := range providers {
		settings := creds.settingsFor(p.Name())
		if settings != nil && settings.Enabled != nil && !*settings.Enabled {
			continue
		}

		models = append(models, p.StaticModels()...)

		dynamic, err := p.DynamicModels(ctx, llm.DiscoveryOptions{
			APIKeys:   creds.APIKeys,
			Settings:  settings,
			ServerEnv: s.serverEnv,
		})
		if err != nil {
			if llm.IsMissingCredential(err) {
				s.logger.Warn("Skipping dynamic models, no API key", zap.String("provider", p.Name()))
				continue
			}
			span.RecordError(err)
			return nil, fmt.Errorf("list models for %s: %w", p.Name(), err)
		}
		models = append(models, dynamic...)
	}

	if filter.Name != "" {
		filtered := models[:0]
		for _, m := range models {
			if strings.Contains(strings.ToLower(m.Name), strings.ToLower(filter.Name)) {
				filtered = append(filtered, m)
			}
		}
		models = filtered
	}

	span.SetAttributes(attribute.Int("models.count", len(models)))
	return models, nil
}

func (s *service) ModelInstance(ctx context.Context, providerName, model string, creds Credentials) (llm.LanguageModel, error) {
	_, span := s.tracer.Start(ctx, "gateway.ModelInstance", trace.WithAttributes(
		attribute.String("provider", providerName),
		attribute.String("model", model),
	))
	defer span.End()

	p, err := s.lookup(providerName)
	if err != nil {
		return nil, err
	}

	m, err := p.ModelInstance(llm.InstanceOptions{
		Model:            model,
		ServerEnv:        s.serverEnv,
		APIKeys:          creds.APIKeys,
		ProviderSettings: creds.ProviderSettings,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return m, nil
}

func (s *service) checker(name string) (llm.StatusChecker, error) {
	p, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	c, ok := p.(llm.StatusChecker)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStatusNotSupported, p.Name())
	}
	return c, nil
}

func (s *service) CheckStatus(ctx context.Context, providerName string) (api.StatusCheckResult, error) {
	ctx, span := s.tracer.Start(ctx, "gateway.CheckStatus", trace.WithAttributes(attribute.String("provider", providerName)))
	defer span.End()

	c, err := s.checker(providerName)
	if err != nil {
		return api.StatusCheckResult{}, err
	}

	res := c.CheckStatus(ctx)
	span.SetAttributes(attribute.String("status", string(res.Status)))
	return res, nil
}

func (s *service) CheckAPI(ctx context.Context, providerName, apiKey string) (api.StatusCheckResult, error) {
	ctx, span := s.tracer.Start(ctx, "gateway.CheckAPI", trace.WithAttributes(attribute.String("provider", providerName)))
	defer span.End()

	c, err := s.checker(providerName)
	if err != nil {
		return api.StatusCheckResult{}, err
	}

	res := c.CheckAPI(ctx, apiKey)
	span.SetAttributes(attribute.String("status", string(res.Status)))
	return res, nil
}
