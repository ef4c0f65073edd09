package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nulzo/provider-hub/internal/cli"
	"github.com/nulzo/provider-hub/internal/config"
	"github.com/nulzo/provider-hub/internal/credentials"
	"github.com/nulzo/provider-hub/internal/gateway"
	"github.com/nulzo/provider-hub/internal/llm/openaicompat"
	"github.com/nulzo/provider-hub/internal/platform/logger"
	"github.com/nulzo/provider-hub/internal/platform/tracing"
	"github.com/nulzo/provider-hub/internal/platform/version"
	"github.com/nulzo/provider-hub/internal/server"
	"go.uber.org/zap"

	// providers register themselves in init()
	_ "github.com/nulzo/provider-hub/internal/llm/chutes"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Initialize(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		EnableColor: cli.Enabled(),
	})
	defer logger.Sync()
	zlog := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Init(ctx, cfg.Tracing.ServiceName, zlog, os.Stdout)
		if err != nil {
			zlog.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(sctx)
		}()
	}

	if cfg.UpdateCheck.Enabled {
		go version.NewChecker().Warn(ctx, cfg.UpdateCheck.Repository, zlog)
	}

	svc := gateway.NewService(zlog, cfg.ServerEnv)
	gateway.BootstrapProviders(svc, cfg.Providers, gateway.BootstrapDeps{
		Resolver:         credentials.NewResolver(cfg.Lookup),
		NewClientFactory: openaicompat.NewFactory,
	}, zlog)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server.New(cfg, zlog, svc).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info(fmt.Sprintf("%s Listening", cli.CheckMark()),
			zap.String("addr", srv.Addr),
			zap.String("version", version.AppVersion),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Graceful shutdown failed", zap.Error(err))
	}
}
