package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"

	"github.com/zombor/fuel-station/internal/auth"
	"github.com/zombor/fuel-station/internal/config"
	"github.com/zombor/fuel-station/internal/fuel"
	"github.com/zombor/fuel-station/internal/matching"
	"github.com/zombor/fuel-station/internal/ocr"
	"github.com/zombor/fuel-station/internal/receipt"
	"github.com/zombor/fuel-station/internal/server"
	"github.com/zombor/fuel-station/internal/station"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

const shutdownTimeout = 15 * time.Second

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	cfg, err := config.Load(".env", os.Args[1:])
	if err != nil {
		var usage *config.UsageError
		if errors.As(err, &usage) {
			fmt.Fprintf(os.Stderr, "%s\n", usage.Help)
			if errors.Is(err, ff.ErrHelp) {
				os.Exit(0)
			}
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if cfg.ShowVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	slog.SetDefault(cfg.Logger(os.Stderr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	slog.Info("Initializing database...", "store", cfg.StoreDriver)
	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer store.Close()

	slog.Info("Initializing storage...", "storage", cfg.Storage)
	images, err := openStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	slog.Info("Initializing OCR gateway...", "backend", cfg.OCRBackend)
	gateway, err := openGateway(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing OCR gateway: %w", err)
	}
	defer gateway.Close()

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL, station.SystemClock{})
	if err != nil {
		return fmt.Errorf("initializing tokens: %w", err)
	}

	srv := server.NewServer(
		auth.NewService(store, tokens),
		station.NewDirectory(store, station.UUIDGenerator{}, station.SystemClock{}),
		fuel.NewService(store),
		receipt.NewService(store, gateway, matching.New(store, store), images),
	)
	httpServer := srv.HTTPServer(cfg.Addr)

	errs := make(chan error, 1)
	go func() {
		errs <- httpServer.ListenAndServe()
	}()
	slog.Info("Server started", "address", cfg.Addr, "version", version)

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func openStore(cfg *config.Config) (station.Store, error) {
	if cfg.StoreDriver == "bolt" {
		return station.NewBoltStore(cfg.DBPath)
	}
	return station.OpenSQL(cfg.StoreDriver, cfg.DSN)
}

func openStorage(ctx context.Context, cfg *config.Config) (receipt.Storage, error) {
	if cfg.Storage == "s3" {
		return receipt.NewS3Storage(ctx, receipt.S3Config{
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3Access,
			SecretKey: cfg.S3Secret,
		})
	}
	return receipt.NewLocalStorage(cfg.UploadsDir)
}

func openGateway(ctx context.Context, cfg *config.Config) (ocr.Gateway, error) {
	switch cfg.OCRBackend {
	case "gemini":
		slog.Info("Using Gemini", "model", cfg.GeminiModel)
		return ocr.NewGemini(ctx, cfg.GeminiKey, cfg.GeminiModel)
	case "ollama":
		slog.Info("Using Ollama", "url", cfg.OllamaURL, "model", cfg.OllamaModel)
		return ocr.NewOllama(cfg.OllamaURL, cfg.OllamaModel), nil
	}
	slog.Info("Using OCR service", "url", cfg.OCRURL, "timeout", cfg.OCRTimeout)
	return ocr.NewClient(cfg.OCRURL, cfg.OCRTimeout), nil
}
