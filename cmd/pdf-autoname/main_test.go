package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/a3tai/mcp-pdf-autoname/internal/autoname"
	"github.com/a3tai/mcp-pdf-autoname/internal/config"
	"github.com/a3tai/mcp-pdf-autoname/internal/extract"
	"github.com/a3tai/mcp-pdf-autoname/internal/logging"
)

const invoiceText = "Invoice Date: 02/14/2023\nACME Corp\nInvoice No: 778899"

type stubText map[string]string

func (s stubText) Acquire(_ context.Context, path string) string {
	return s[filepath.Base(path)]
}

type stubMeta struct{}

func (stubMeta) Identity(string) (string, error)                 { return "", nil }
func (stubMeta) WriteProperties(string, map[string]string) error { return nil }

func testService(text stubText) *autoname.Service {
	logger := logging.Discard()
	dict := extract.Dictionary{{Name: "Acme", Keywords: []string{"acme"}}}
	return autoname.NewService(text, stubMeta{}, autoname.NewDefaultSequencer(dict, logger), autoname.Options{}, logger)
}

func batchConfig(t *testing.T, names ...string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Directory = t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(cfg.Directory, name), []byte("%PDF-1.4"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return cfg
}

func TestPrintVersion(t *testing.T) {
	oldVersion, oldBuildTime, oldGitCommit := version, buildTime, gitCommit
	version, buildTime, gitCommit = "1.2.3", "2023-12-01_10:30:00", "abc123"
	defer func() {
		version, buildTime, gitCommit = oldVersion, oldBuildTime, oldGitCommit
	}()

	var buf bytes.Buffer
	printVersion(&buf)
	output := buf.String()

	expectedStrings := []string{
		"PDF Autoname",
		"Version: 1.2.3",
		"Build Time: 2023-12-01_10:30:00",
		"Git Commit: abc123",
		"Built with: " + runtime.Version(),
	}
	for _, expected := range expectedStrings {
		if !strings.Contains(output, expected) {
			t.Errorf("Expected output to contain %q, got: %s", expected, output)
		}
	}
}

func TestSetupLogging(t *testing.T) {
	tests := []struct {
		name      string
		mode      string
		level     string
		wantInfo  bool
		wantDebug bool
	}{
		{"batch info", config.ModeBatch, "info", true, false},
		{"batch debug", config.ModeBatch, "debug", true, true},
		{"stdio quiet", config.ModeStdio, "info", false, false},
		{"stdio debug", config.ModeStdio, "debug", true, true},
		{"server quiet", config.ModeServer, "warn", false, false},
	}

	defaultLogger := slog.Default()
	defer slog.SetDefault(defaultLogger)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Mode: tt.mode, LogLevel: tt.level, LogFormat: "text"}
			logger := setupLogging(cfg, &bytes.Buffer{})

			if got := logger.Enabled(context.Background(), slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("info enabled = %t, want %t", got, tt.wantInfo)
			}
			if got := logger.Enabled(context.Background(), slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("debug enabled = %t, want %t", got, tt.wantDebug)
			}
			if !logger.Enabled(context.Background(), slog.LevelError) {
				t.Error("errors should always be logged")
			}
		})
	}
}

func TestBuildService(t *testing.T) {
	cfg := config.DefaultConfig()

	service, ocr, cache, err := buildService(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("buildService() unexpected error: %v", err)
	}
	if service == nil || ocr == nil || cache == nil {
		t.Fatal("buildService() should return a service, OCR fallback and text cache")
	}
	if got := cache.Stats().Capacity; got != cfg.TextCacheSize {
		t.Errorf("cache capacity = %d, want %d", got, cfg.TextCacheSize)
	}

	cfg.OCR.Enabled = false
	cfg.TextCacheSize = 0
	_, ocr, cache, err = buildService(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("buildService() unexpected error: %v", err)
	}
	if ocr != nil {
		t.Error("buildService() should not build OCR when disabled")
	}
	if cache != nil {
		t.Error("buildService() should not build a cache of size 0")
	}

	cfg.FieldOrder = map[string][]string{"invoice": {"Amount"}}
	if _, _, _, err := buildService(cfg, logging.Discard()); err == nil {
		t.Error("buildService() should reject an invalid field order")
	}
}

func TestRunBatch(t *testing.T) {
	cfg := batchConfig(t, "scan001.pdf", "blank.pdf")
	service := testService(stubText{"scan001.pdf": invoiceText})

	var out bytes.Buffer
	if err := runBatch(context.Background(), cfg, service, &out); err != nil {
		t.Fatalf("runBatch() unexpected error: %v", err)
	}

	if got := out.String(); got != "Updated 1 file(s)\n" {
		t.Errorf("runBatch() output = %q", got)
	}
	if _, err := os.Stat(filepath.Join(cfg.Directory, "Acme 02-14-23 778899.pdf")); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}
}

func TestRunBatchDryRun(t *testing.T) {
	cfg := batchConfig(t, "scan001.pdf", "other.pdf")
	cfg.DryRun = true
	cfg.Files = []string{"scan001.pdf"}
	service := testService(stubText{"scan001.pdf": invoiceText, "other.pdf": invoiceText})

	var out bytes.Buffer
	if err := runBatch(context.Background(), cfg, service, &out); err != nil {
		t.Fatalf("runBatch() unexpected error: %v", err)
	}

	want := "planned: scan001.pdf -> Acme 02-14-23 778899.pdf\nWould update 1 file(s)\n"
	if got := out.String(); got != want {
		t.Errorf("runBatch() output = %q, want %q", got, want)
	}
	if _, err := os.Stat(filepath.Join(cfg.Directory, "scan001.pdf")); err != nil {
		t.Errorf("dry run should keep the file: %v", err)
	}
}

func TestRunBatchCancelled(t *testing.T) {
	cfg := batchConfig(t, "scan001.pdf")
	service := testService(stubText{"scan001.pdf": invoiceText})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	if err := runBatch(ctx, cfg, service, &out); err == nil {
		t.Error("runBatch() should report cancellation")
	}
	if got := out.String(); got != "Updated 0 file(s)\n" {
		t.Errorf("runBatch() output = %q", got)
	}
}

func TestRunBatchMissingDirectory(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Directory = filepath.Join(t.TempDir(), "missing")

	if err := runBatch(context.Background(), cfg, testService(stubText{}), &bytes.Buffer{}); err == nil {
		t.Error("runBatch() should fail for a missing directory")
	}
}
