// Package app assembles the generation services shared by the API server and
// the batch CLI from configuration.
package app

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"mockupstudio/internal/adapter/repo"
	"mockupstudio/internal/batch"
	"mockupstudio/internal/domain"
	"mockupstudio/internal/infra"
	"mockupstudio/internal/infra/credentials"
	"mockupstudio/internal/mockup"
	"mockupstudio/internal/planner"
	"mockupstudio/internal/providers/genai"
	"mockupstudio/internal/ratelimit"
	"mockupstudio/internal/retry"
	"mockupstudio/internal/storage"
	"mockupstudio/internal/voice"
)

// keyCacheTTL bounds how long a key read from the credential store is reused.
const keyCacheTTL = time.Minute

// Services is the wired generation stack.
type Services struct {
	Config      *infra.Config
	Logger      infra.Logger
	Pool        *pgxpool.Pool
	Client      *genai.Client
	Generator   *mockup.Generator
	Interpreter *voice.Interpreter
	History     domain.HistoryStore
	Policy      retry.Policy
	Limit       planner.Limit
}

// Build connects the history backend and the model client. History lives in
// Postgres when DATABASE_URL is set and under STORAGE_PATH otherwise.
func Build(ctx context.Context, cfg *infra.Config, logger infra.Logger) (*Services, error) {
	s := &Services{
		Config: cfg,
		Logger: logger,
		Limit:  planner.Limit{Max: cfg.MaxBatchSize, Mode: planner.LimitMode(cfg.BatchLimitMode)},
	}
	s.Policy = retry.Policy{
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
		MaxDelay:    cfg.RetryMaxDelay,
		Logger:      &s.Logger,
	}

	var keySource genai.KeySource
	if cfg.UsesDatabase() {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s.Pool = pool
		runner := infra.NewSQLRunner(pool, logger)
		mockups := repo.NewMockupRepository(runner)
		if err := mockups.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("app: ensure schema: %w", err)
		}
		s.History = mockups
		keySource = credentials.NewStore(runner).KeySource("", keyCacheTTL)
		logger.Info().Msg("app: history stored in postgres")
	} else {
		history, err := newFileHistory(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		s.History = history
	}

	client, err := genai.NewClient(genai.Options{
		APIKey:     cfg.GeminiAPIKey,
		KeySource:  keySource,
		BaseURL:    cfg.GeminiBaseURL,
		Model:      cfg.GeminiImageModel,
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
		Logger:     &s.Logger,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Client = client
	if !client.Configured() {
		logger.Warn().Msg("app: gemini api key missing, generation will fail until one is configured")
	}

	s.Generator = mockup.NewGenerator(client, mockup.Options{Model: cfg.GeminiImageModel, Policy: s.Policy, Logger: &s.Logger})
	s.Interpreter = voice.NewInterpreter(client, voice.Options{Model: cfg.GeminiTextModel, Policy: s.Policy, Logger: &s.Logger})
	return s, nil
}

func newFileHistory(ctx context.Context, cfg *infra.Config, logger infra.Logger) (*storage.HistoryFile, error) {
	storagePath := cfg.StoragePath
	if storagePath == "" {
		storagePath = "./storage"
	}
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	files, err := storage.NewFileStore(storagePath)
	if err != nil {
		return nil, fmt.Errorf("app: configure storage: %w", err)
	}
	history, err := storage.NewHistoryFile(ctx, files, storage.HistoryOptions{
		MaxRecords: cfg.HistoryCapacity,
		MaxBytes:   cfg.HistoryMaxBytes,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	logger.Info().Str("path", storagePath).Int("capacity", cfg.HistoryCapacity).Msg("app: history stored on disk")
	return history, nil
}

// NewOrchestrator builds an orchestrator with its own job pacer.
func (s *Services) NewOrchestrator(listener batch.Listener) *batch.Orchestrator {
	return batch.New(batch.Options{
		Generator: s.Generator,
		History:   s.History,
		Pacer:     ratelimit.NewIntervalPacer(s.Config.JobInterval),
		Limit:     s.Limit,
		Logger:    s.Logger,
		Listener:  listener,
	})
}

// Close releases the database pool, if any.
func (s *Services) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}
