package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/mcp-pdf-autoname/internal/autoname"
	"github.com/a3tai/mcp-pdf-autoname/internal/config"
	"github.com/a3tai/mcp-pdf-autoname/internal/logging"
	"github.com/a3tai/mcp-pdf-autoname/internal/mcp"
	"github.com/a3tai/mcp-pdf-autoname/internal/pdf"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging builds the logger for the configured mode. Logs always go to
// stderr; in stdio and server mode stdout carries the MCP protocol, and only
// errors are logged unless debug is enabled.
func setupLogging(cfg *config.Config, w io.Writer) *slog.Logger {
	level := cfg.LogLevel
	if !cfg.IsBatchMode() && !cfg.IsDebug() {
		level = "error"
	}
	logger := logging.New(level, cfg.LogFormat, w)
	slog.SetDefault(logger)
	return logger
}

// buildService wires text acquisition, metadata and the naming pipeline.
// The returned OCR is nil when the fallback is disabled, the cache when
// caching is.
func buildService(cfg *config.Config, logger *slog.Logger) (*autoname.Service, *pdf.OCR, *pdf.TextCache, error) {
	orders, err := cfg.FieldOrders()
	if err != nil {
		return nil, nil, nil, err
	}

	var (
		fallback pdf.TextExtractor
		ocr      *pdf.OCR
	)
	if cfg.OCR.Enabled {
		ocr = pdf.NewOCR(cfg.OCR, pdf.ExecRunner{Logger: logger}, logger)
		fallback = ocr
	}

	cache := pdf.NewTextCache(cfg.TextCacheSize)
	acquirer := pdf.NewAcquirer(
		pdf.NewReader(cfg.MaxFileSize, cfg.TextLimit),
		fallback,
		cache,
		logger,
	)

	service := autoname.NewService(
		acquirer,
		pdf.NewMetadataStore(),
		autoname.NewDefaultSequencer(cfg.Companies, logger),
		autoname.Options{
			Orders:         orders,
			CollisionLimit: cfg.CollisionLimit,
			MaxFileSize:    cfg.MaxFileSize,
		},
		logger,
	)
	return service, ocr, cache, nil
}

// runBatch names the configured files, or every PDF in the directory when
// none were given, and reports the result on out.
func runBatch(ctx context.Context, cfg *config.Config, service *autoname.Service, out io.Writer) error {
	files := cfg.Files
	if len(files) == 0 {
		paths, err := pdf.NewSearch(cfg.MaxFileSize).Paths(cfg.Directory, cfg.Query)
		if err != nil {
			return err
		}
		files = paths
	}

	outcomes, err := service.Run(ctx, cfg.Directory, files, cfg.DryRun)

	if cfg.DryRun {
		planned := 0
		for _, o := range outcomes {
			fmt.Fprintln(out, o.Summary())
			if o.Status == autoname.StatusPlanned {
				planned++
			}
		}
		fmt.Fprintf(out, "Would update %d file(s)\n", planned)
	} else {
		fmt.Fprintf(out, "Updated %d file(s)\n", autoname.CountRenamed(outcomes))
	}

	return err
}

// runServer serves the MCP tools until stdin closes or ctx is cancelled.
func runServer(ctx context.Context, cfg *config.Config, service *autoname.Service, ocr *pdf.OCR,
	cache *pdf.TextCache, logger *slog.Logger,
) error {
	var status mcp.OCRStatus
	if ocr != nil {
		status = ocr
	}

	server, err := mcp.NewServer(cfg, service, status, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	if cache != nil {
		server.SetCacheStats(cache)
	}
	return server.Run(ctx)
}

func main() {
	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion(os.Stdout)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	if version != "dev" {
		cfg.Version = version
	}

	logger := setupLogging(cfg, os.Stderr)
	logger.Debug("starting", "config", cfg.String())

	service, ocr, cache, err := buildService(cfg, logger)
	if err != nil {
		logger.Error("failed to build service", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.IsBatchMode() {
		err = runBatch(ctx, cfg, service, os.Stdout)
	} else {
		err = runServer(ctx, cfg, service, ocr, cache, logger)
	}
	if err != nil {
		logger.Error("stopped with error", "error", err)
		stop()
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "PDF Autoname\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
