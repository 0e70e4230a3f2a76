// Command batch runs one mockup batch from the command line and writes the
// results as a ZIP archive.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"mockupstudio/internal/app"
	"mockupstudio/internal/batch"
	"mockupstudio/internal/domain/jsoncfg"
	"mockupstudio/internal/infra"
	"mockupstudio/pkg/zip"
)

func main() {
	requestPath := flag.String("request", "", "path to a batch request JSON file")
	designPath := flag.String("design", "", "design image; overrides the design in the request")
	owner := flag.String("owner", "cli", "owner recorded in history")
	outPath := flag.String("out", "", "ZIP output path (default: <folder>.zip in the working directory)")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "batch: %v\n", err)
		os.Exit(1)
	}
	logger := infra.NewLogger("cli")

	req, err := loadRequest(*requestPath, *designPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("batch: invalid request")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("batch: invalid request")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("batch: failed to build services")
	}
	defer services.Close()

	orch := services.NewOrchestrator(func(s batch.Snapshot) {
		logger.Info().
			Stringer("state", s.State).
			Int("completed", s.Completed).
			Int("total", s.Total).
			Int("percent", s.Percent).
			Msg("batch: progress")
	})
	out, err := orch.Run(ctx, nil, batch.Input{
		BatchID:          uuid.NewString(),
		OwnerID:          *owner,
		Design:           req.DesignImage(),
		OriginalFileName: req.Design.FileName,
		Selection:        req.ToSelection(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("batch: rejected")
	}
	if out.Warning != "" {
		logger.Warn().Msg(out.Warning)
	}

	assets := make([]zip.Asset, 0, len(out.Results))
	for _, res := range out.Results {
		if res.Image.Empty() {
			continue
		}
		assets = append(assets, zip.Asset{Label: res.Category, MIME: res.Image.MimeType, Data: res.Image.Data})
	}
	if len(assets) == 0 {
		logger.Fatal().Stringer("state", out.State).Str("last_error", out.LastError).Msg("batch: nothing generated")
	}

	folder := zip.FolderName(req.Design.FileName, time.Now())
	target := *outPath
	if target == "" {
		target = folder + ".zip"
	}
	data, err := zip.ArchiveAssets(folder, assets)
	if err != nil {
		logger.Fatal().Err(err).Msg("batch: archive failed")
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		logger.Fatal().Err(err).Msg("batch: write failed")
	}
	logger.Info().
		Stringer("state", out.State).
		Int("files", len(assets)).
		Str("out", target).
		Msg("batch: done")
}

func loadRequest(requestPath, designPath string) (jsoncfg.BatchRequestJSON, error) {
	var req jsoncfg.BatchRequestJSON
	if requestPath == "" {
		return req, fmt.Errorf("-request is required")
	}
	raw, err := os.ReadFile(requestPath)
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("decode %s: %w", requestPath, err)
	}
	if designPath != "" {
		data, err := os.ReadFile(designPath)
		if err != nil {
			return req, err
		}
		req.Design = jsoncfg.ImageJSON{
			Data:     data,
			MimeType: http.DetectContentType(data),
			FileName: filepath.Base(designPath),
		}
	}
	return req, nil
}
