package main

import (
	"context"
	"testing"
	"time"

	"mockupstudio/internal/infra"
)

func testConfig(t *testing.T) *infra.Config {
	t.Helper()
	return &infra.Config{
		Port:             "0",
		JWTSecret:        "secret",
		StoragePath:      t.TempDir(),
		DefaultLocale:    "pt",
		BatchLimitMode:   infra.BatchLimitHard,
		RetryMaxAttempts: 1,
		BatchTTL:         time.Minute,
	}
}

func TestRunRequiresJWTSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.JWTSecret = ""
	if err := run(context.Background(), cfg, infra.NopLogger()); err == nil {
		t.Fatalf("expected error without JWT_SECRET")
	}
}

func TestRunReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := testConfig(t)
	errc := make(chan error, 1)
	go func() { errc <- run(ctx, cfg, infra.NopLogger()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return after cancel")
	}
}
