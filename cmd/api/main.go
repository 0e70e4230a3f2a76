package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"mockupstudio/internal/app"
	"mockupstudio/internal/batch"
	"mockupstudio/internal/http/handlers"
	httpapi "mockupstudio/internal/http/httpapi"
	"mockupstudio/internal/infra"
	"mockupstudio/internal/infra/geoip"
	"mockupstudio/internal/session"
)

const shutdownTimeout = 15 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error().Err(err).Msg("api: stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("api: stopped")
}

// run serves until ctx is done. Every deferred cleanup runs before it
// returns.
func run(ctx context.Context, cfg *infra.Config, logger infra.Logger) error {
	if cfg.JWTSecret == "" {
		return errors.New("api: JWT_SECRET is required")
	}

	services, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("api: build services: %w", err)
	}
	defer services.Close()

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("api: geoip disabled")
	}
	defer resolver.Close()

	// sessions outlive requests; they end on sign-out or shutdown
	sessions := session.NewRegistry(context.WithoutCancel(ctx), logger)
	batches := batch.NewRegistry(func(string) *batch.Orchestrator {
		return services.NewOrchestrator(nil)
	}, cfg.BatchTTL, logger)

	handlerApp := &handlers.App{
		Logger:   logger,
		Sessions: sessions,
		Batches:  batches,
		History:  services.History,
		Cleaner:  services.Generator,
		Voice:    services.Interpreter,
	}
	if services.Pool != nil {
		handlerApp.HealthChecks = map[string]handlers.HealthCheck{"database": services.Pool.Ping}
	}
	router := httpapi.NewRouter(handlerApp, httpapi.Options{
		Logger:          logger,
		JWTSecret:       cfg.JWTSecret,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   resolver.Lookup(),
		RateLimitPerMin: cfg.RateLimitPerMin,
		CORSOrigins:     cfg.CORSOrigins,
	})
	server := infra.NewHTTPServer(cfg, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("port", cfg.Port).Msg("api: listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sessions.EndAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
