package autoname

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/a3tai/mcp-pdf-autoname/internal/extract"
	"github.com/a3tai/mcp-pdf-autoname/internal/pdf"
	"github.com/a3tai/mcp-pdf-autoname/internal/textnorm"
)

// TextSource yields the raw text of a document, empty when nothing could be
// read.
type TextSource interface {
	Acquire(ctx context.Context, path string) string
}

// MetadataStore reads the identity tag and merges custom properties.
type MetadataStore interface {
	Identity(path string) (string, error)
	WriteProperties(path string, props map[string]string) error
}

// Status is the outcome class of one document.
type Status string

const (
	StatusRenamed   Status = "renamed"
	StatusPlanned   Status = "planned"
	StatusUnchanged Status = "unchanged"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Outcome reports what happened to one document of a batch.
type Outcome struct {
	Source    string
	Target    string
	Identity  Identity
	Available map[extract.FieldKind]string
	Chain     []string
	Metadata  map[string]string
	Status    Status
	Err       error
	// MetadataErr is set when the metadata write failed but the rename was
	// still attempted.
	MetadataErr error
}

// Summary is a one-line description of the outcome.
func (o Outcome) Summary() string {
	name := filepath.Base(o.Source)
	switch o.Status {
	case StatusRenamed, StatusPlanned:
		return fmt.Sprintf("%s: %s -> %s", o.Status, name, filepath.Base(o.Target))
	case StatusSkipped, StatusFailed:
		return fmt.Sprintf("%s: %s (%v)", o.Status, name, o.Err)
	default:
		return fmt.Sprintf("%s: %s", o.Status, name)
	}
}

// Options configures a Service.
type Options struct {
	Orders         FieldOrders
	CollisionLimit int
	MaxFileSize    int64
	// Rename replaces os.Rename, for tests.
	Rename func(oldPath, newPath string) error
}

// Service runs the naming pipeline over batches of documents, one document
// at a time.
type Service struct {
	text      TextSource
	meta      MetadataStore
	seq       *Sequencer
	orders    FieldOrders
	validator *pdf.Validator
	limit     int
	rename    func(oldPath, newPath string) error
	logger    *slog.Logger
}

// NewService creates a Service.
func NewService(text TextSource, meta MetadataStore, seq *Sequencer, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Orders == nil {
		opts.Orders = DefaultFieldOrders()
	}
	if opts.CollisionLimit <= 0 {
		opts.CollisionLimit = DefaultCollisionLimit
	}
	if opts.Rename == nil {
		opts.Rename = os.Rename
	}
	if seq == nil {
		seq = NewDefaultSequencer(nil, logger)
	}

	return &Service{
		text:      text,
		meta:      meta,
		seq:       seq,
		orders:    opts.Orders,
		validator: pdf.NewValidator(opts.MaxFileSize),
		limit:     opts.CollisionLimit,
		rename:    opts.Rename,
		logger:    logger,
	}
}

// Orders returns the configured field orders.
func (s *Service) Orders() FieldOrders {
	return s.orders
}

// Apply renames the given files inside dir and returns how many were
// renamed. Per-document failures are logged and skipped. The error is
// non-nil only for an invalid directory or a cancelled context, in which
// case the count covers the documents finished before it.
func (s *Service) Apply(ctx context.Context, dir string, files []string) (int, error) {
	outcomes, err := s.Run(ctx, dir, files, false)
	return CountRenamed(outcomes), err
}

// Preview computes the outcome of every document without touching the
// filesystem.
func (s *Service) Preview(ctx context.Context, dir string, files []string) ([]Outcome, error) {
	return s.Run(ctx, dir, files, true)
}

// Run processes files in order. With dryRun set, no metadata is written
// and nothing is renamed; planned targets are reported instead. The context
// is checked between documents only.
func (s *Service) Run(ctx context.Context, dir string, files []string, dryRun bool) ([]Outcome, error) {
	validator, err := pdf.NewPathValidator(dir)
	if err != nil {
		s.logger.Error("invalid directory", "dir", dir, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidDirectory, err)
	}

	outcomes := make([]Outcome, 0, len(files))
	for _, entry := range files {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("batch cancelled", "processed", len(outcomes), "remaining", len(files)-len(outcomes))
			return outcomes, err
		}

		out := s.processDocument(ctx, validator, entry, dryRun)
		s.logOutcome(out)
		outcomes = append(outcomes, out)
	}

	s.logger.Info("auto-naming complete",
		"dir", validator.Directory(), "files", len(files), "renamed", CountRenamed(outcomes), "dry_run", dryRun)
	return outcomes, nil
}

// SetIdentity tags a document inside dir with an identity so the matching
// field order applies to it. Relative entries are taken relative to dir;
// anything that is not a direct child of dir is rejected.
func (s *Service) SetIdentity(dir, entry, identity string) (Identity, error) {
	id, ok := ParseIdentity(identity)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownIdentity, identity)
	}
	validator, err := pdf.NewPathValidator(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDirectory, err)
	}
	path, err := validator.ResolveEntry(entry)
	if err != nil {
		return "", newDocumentError(ErrorTypeInvalidInput, entry, "set identity", err)
	}
	if err := s.validator.ValidateFile(path); err != nil {
		return "", newDocumentError(ErrorTypeInvalidInput, path, "set identity", err)
	}
	if err := s.meta.WriteProperties(path, map[string]string{pdf.IdentityKey: string(id)}); err != nil {
		return "", newDocumentError(ErrorTypeMetadata, path, "set identity", err)
	}
	s.logger.Info("identity set", "file", filepath.Base(path), "identity", id)
	return id, nil
}

// CountRenamed counts outcomes with StatusRenamed.
func CountRenamed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Status == StatusRenamed {
			n++
		}
	}
	return n
}

func (s *Service) processDocument(ctx context.Context, validator *pdf.PathValidator, entry string, dryRun bool) (out Outcome) {
	out = Outcome{Source: entry}

	defer func() {
		if r := recover(); r != nil {
			out.Status = StatusFailed
			out.Err = newDocumentError(ErrorTypeInternal, out.Source, "process", fmt.Errorf("panic: %v", r))
		}
	}()

	path, err := validator.ResolveEntry(entry)
	if err != nil {
		out.Status = StatusSkipped
		out.Err = newDocumentError(ErrorTypeInvalidInput, entry, "resolve", err)
		return out
	}
	out.Source = path

	if err := s.validator.ValidateFile(path); err != nil {
		out.Status = StatusSkipped
		out.Err = newDocumentError(ErrorTypeInvalidInput, path, "validate", err)
		return out
	}

	normalized := textnorm.Normalize(s.text.Acquire(ctx, path))
	out.Identity = s.identityOf(path)

	progress := s.seq.Run(normalized)
	out.Available = progress.Available()
	out.Chain = progress.Chain

	asm, changed := Assemble(filepath.Base(path), out.Available, s.orders.For(out.Identity))
	out.Metadata = asm.Metadata
	if !changed {
		out.Status = StatusUnchanged
		out.Target = path
		return out
	}

	target, err := ResolveCollision(validator.Directory(), asm.Name, path, s.limit)
	if err != nil {
		out.Status = StatusFailed
		out.Err = newDocumentError(ErrorTypeCollision, path, "resolve name", err)
		return out
	}
	out.Target = target
	if samePath(target, path) {
		out.Status = StatusUnchanged
		return out
	}

	if dryRun {
		out.Status = StatusPlanned
		return out
	}

	// Metadata is keyed by the current path, so it is written first.
	if err := s.meta.WriteProperties(path, asm.Metadata); err != nil {
		out.MetadataErr = newDocumentError(ErrorTypeMetadata, path, "write metadata", err)
		s.logger.Warn("metadata write failed", "file", filepath.Base(path), "error", err)
	}

	if err := s.rename(path, target); err != nil {
		out.Status = StatusFailed
		out.Err = newDocumentError(ErrorTypeRename, path, "rename", err)
		return out
	}

	out.Status = StatusRenamed
	return out
}

func (s *Service) identityOf(path string) Identity {
	raw, err := s.meta.Identity(path)
	if err != nil {
		s.logger.Warn("could not read identity, using Invoice", "file", filepath.Base(path), "error", err)
		return IdentityInvoice
	}
	if raw == "" {
		s.logger.Debug("no identity metadata, using Invoice", "file", filepath.Base(path))
		return IdentityInvoice
	}

	id, ok := ParseIdentity(raw)
	if !ok {
		s.logger.Warn("unknown identity, falling back to Invoice order", "file", filepath.Base(path), "identity", raw)
		return IdentityInvoice
	}
	return id
}

func (s *Service) logOutcome(out Outcome) {
	name := filepath.Base(out.Source)
	switch out.Status {
	case StatusRenamed:
		s.logger.Info("renamed", "file", name, "to", filepath.Base(out.Target), "identity", out.Identity)
	case StatusPlanned:
		s.logger.Info("would rename", "file", name, "to", filepath.Base(out.Target), "identity", out.Identity)
	case StatusUnchanged:
		s.logger.Info("name unchanged", "file", name, "fields", len(out.Available))
	case StatusSkipped:
		s.logger.Warn("skipped", "file", name, "error", out.Err)
	case StatusFailed:
		s.logger.Error("failed", "file", name, "error", out.Err)
	}
}
