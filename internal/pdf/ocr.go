package pdf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// ErrOCRUnavailable is returned when the rasterizer or the OCR engine is not
// installed.
var ErrOCRUnavailable = errors.New("ocr tools unavailable")

// OCRConfig names the external tools used for the OCR fallback.
type OCRConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Pdftoppm  string `mapstructure:"pdftoppm"`
	Tesseract string `mapstructure:"tesseract"`
	Lang      string `mapstructure:"lang"`
	DPI       int    `mapstructure:"dpi"`
}

// DefaultOCRConfig returns the poppler/tesseract defaults.
func DefaultOCRConfig() OCRConfig {
	return OCRConfig{
		Enabled:   true,
		Pdftoppm:  "pdftoppm",
		Tesseract: "tesseract",
		Lang:      "eng",
		DPI:       300,
	}
}

// OCR rasterizes every page with pdftoppm and recognizes it with tesseract.
type OCR struct {
	cfg    OCRConfig
	runner Runner
	logger *slog.Logger

	once      sync.Once
	available bool
}

// NewOCR creates the OCR fallback. A nil runner uses ExecRunner.
func NewOCR(cfg OCRConfig, runner Runner, logger *slog.Logger) *OCR {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultOCRConfig()
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = def.Pdftoppm
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = def.Tesseract
	}
	if cfg.Lang == "" {
		cfg.Lang = def.Lang
	}
	if cfg.DPI <= 0 {
		cfg.DPI = def.DPI
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	return &OCR{cfg: cfg, runner: runner, logger: logger}
}

// Name identifies the extractor in logs.
func (o *OCR) Name() string {
	return "ocr"
}

// Available reports whether OCR is enabled and both tools are on the PATH.
// The lookup runs once per process.
func (o *OCR) Available() bool {
	o.once.Do(func() {
		if !o.cfg.Enabled {
			return
		}
		for _, tool := range []string{o.cfg.Pdftoppm, o.cfg.Tesseract} {
			if _, err := o.runner.LookPath(tool); err != nil {
				o.logger.Warn("ocr tool not found, fallback disabled", "tool", tool, "error", err)
				return
			}
		}
		o.available = true
	})
	return o.available
}

// ExtractText renders each page to a temporary PNG and joins the non-blank
// page texts with single spaces. Temporary images are always removed.
func (o *OCR) ExtractText(ctx context.Context, path string) (string, error) {
	if !o.Available() {
		return "", ErrOCRUnavailable
	}

	tmpDir, err := os.MkdirTemp("", "pdf-autoname-ocr-*")
	if err != nil {
		return "", fmt.Errorf("create ocr workspace: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			o.logger.Warn("failed to remove ocr workspace", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	_, errb, err := o.runner.Run(ctx, o.cfg.Pdftoppm, "-r", strconv.Itoa(o.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}

	// pdftoppm zero-pads page numbers, so lexical order is page order.
	images, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(images)
	if len(images) == 0 {
		return "", fmt.Errorf("pdftoppm produced no images for %s", path)
	}

	var pages []string
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		out, errb, err := o.runner.Run(ctx, o.cfg.Tesseract, img, "stdout", "-l", o.cfg.Lang)
		if err != nil {
			o.logger.Warn("tesseract failed on page",
				"file", filepath.Base(path), "image", filepath.Base(img),
				"error", err, "stderr", truncate(string(errb), 512))
			continue
		}
		if text := string(out); strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}

	o.logger.Debug("ocr complete", "file", filepath.Base(path), "pages", len(images), "text_pages", len(pages))
	return strings.Join(pages, " "), nil
}
