package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/journal-ai/uploader/internal/api"
	"github.com/journal-ai/uploader/internal/config"
	"github.com/journal-ai/uploader/internal/models"
	"github.com/journal-ai/uploader/internal/storage"
	"github.com/journal-ai/uploader/internal/web"
	"github.com/journal-ai/uploader/internal/widget"
	"github.com/journal-ai/uploader/pkg/logger"
	"github.com/labstack/echo/v4"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		// Resolve the config next to the executable
		exePath, err := os.Executable()
		if err != nil {
			fmt.Printf("Failed to get executable path: %v\n", err)
			os.Exit(1)
		}
		configPath = filepath.Join(filepath.Dir(exePath), "journal-uploader.yaml")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if err := cfg.EnsureDirectories(); err != nil {
		slog.Error("failed to create directories", "error", err)
		os.Exit(1)
	}

	endpoint, err := cfg.Uploader.ProcessURL()
	if err != nil {
		slog.Error("invalid processing endpoint", "error", err)
		os.Exit(1)
	}

	fileStore, err := storage.NewLocalStore(cfg.Storage.StagingDirectory)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}

	hub := api.NewHub()
	uploader, err := widget.New(widget.Options{
		MaxFiles:           cfg.Uploader.MaxFiles,
		AllowedTypes:       cfg.Uploader.AllowedTypes,
		MaxSizeMB:          cfg.Uploader.MaxFileSizeMB,
		Endpoint:           endpoint,
		ThumbnailEdge:      cfg.Uploader.ThumbnailEdge,
		PreviewConcurrency: cfg.Uploader.PreviewConcurrency,
		OnEvent:            hub.Publish,
		OnProcessComplete: func(resp *models.ProcessResponse) {
			slog.Info("journal pages processed", "pages", resp.ProcessedPages)
		},
	})
	if err != nil {
		slog.Error("failed to create uploader", "error", err)
		os.Exit(1)
	}
	defer uploader.Close()

	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e, cfg.Server)

	handlers := api.NewHandlers(&api.Dependencies{
		Uploader: uploader,
		Store:    fileStore,
		Hub:      hub,
		Version:  Version,
	})
	api.RegisterRoutes(e, handlers)

	if web.HasEmbeddedFiles() {
		if err := web.RegisterStaticRoutes(e); err != nil {
			slog.Warn("failed to register static routes", "error", err)
		}
	}

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Journal Uploader                                ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Endpoint:  %-46s║\n", endpoint)
	fmt.Printf("║  Staging:   %-46s║\n", cfg.Storage.StagingDirectory)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}
