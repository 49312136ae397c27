package pdf

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
)

// Acquirer produces raw document text from a primary extractor and escalates
// once to a fallback when the primary fails or yields only whitespace.
// Acquisition never fails: an unreadable document degrades to empty text.
type Acquirer struct {
	primary  TextExtractor
	fallback TextExtractor
	cache    *TextCache
	logger   *slog.Logger
}

// NewAcquirer wires the two extractors. fallback and cache may be nil.
func NewAcquirer(primary, fallback TextExtractor, cache *TextCache, logger *slog.Logger) *Acquirer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Acquirer{primary: primary, fallback: fallback, cache: cache, logger: logger}
}

// Acquire returns the raw text of path, possibly empty.
func (a *Acquirer) Acquire(ctx context.Context, path string) string {
	key, cacheable := CacheKey(path)
	if cacheable {
		if text, ok := a.cache.Get(key); ok {
			return text
		}
	}

	text := a.acquire(ctx, path)
	if cacheable && ctx.Err() == nil {
		a.cache.Put(key, text)
	}
	return text
}

func (a *Acquirer) acquire(ctx context.Context, path string) string {
	name := filepath.Base(path)

	if a.primary != nil {
		text, err := a.primary.ExtractText(ctx, path)
		switch {
		case err != nil:
			a.logger.Warn("primary text extraction failed", "file", name, "extractor", a.primary.Name(), "error", err)
		case strings.TrimSpace(text) == "":
			a.logger.Warn("no text extracted, trying fallback", "file", name, "extractor", a.primary.Name())
		default:
			return text
		}
	}

	if a.fallback == nil || ctx.Err() != nil {
		return ""
	}

	text, err := a.fallback.ExtractText(ctx, path)
	if errors.Is(err, ErrOCRUnavailable) {
		a.logger.Warn("fallback unavailable, skipping", "file", name, "extractor", a.fallback.Name())
		return ""
	}
	if err != nil {
		a.logger.Error("fallback text extraction failed", "file", name, "extractor", a.fallback.Name(), "error", err)
		return ""
	}

	a.logger.Debug("fallback text extracted", "file", name, "extractor", a.fallback.Name(), "chars", len(text))
	return text
}
