package server

import (
	"github.com/nulzo/provider-hub/internal/server/middleware"
	v1 "github.com/nulzo/provider-hub/internal/server/v1"
)

func (s *Server) SetupRoutes() {
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.ErrorHandler(s.logger))

	if rl := s.config.RateLimit; rl.Enabled {
		limiter := middleware.NewRateLimiter(rl.RequestsPerSecond, rl.Burst, s.logger)
		s.router.Use(limiter.Middleware())
	}

	healthHandler := v1.NewHealthHandler()
	s.router.GET("/health", healthHandler.Health)

	api := s.router.Group("/v1")
	api.Use(middleware.Auth(s.config.Server.APIKeys))
	{
		modelHandler := v1.NewModelHandler(s.service)
		api.GET("/providers", modelHandler.ListProviders)
		api.GET("/models", modelHandler.ListModels)

		statusHandler := v1.NewStatusHandler(s.service)
		api.GET("/providers/:provider/status", statusHandler.ProviderStatus)
		api.POST("/providers/:provider/status/api", statusHandler.APIStatus)

		chatHandler := v1.NewChatHandler(s.service, s.logger)
		api.POST("/chat/completions", chatHandler.CreateCompletion)
	}
}
