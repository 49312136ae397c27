package mcp

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/a3tai/mcp-pdf-autoname/internal/autoname"
	"github.com/a3tai/mcp-pdf-autoname/internal/config"
	"github.com/a3tai/mcp-pdf-autoname/internal/extract"
	"github.com/a3tai/mcp-pdf-autoname/internal/pdf"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invoiceText = "Invoice Date: 02/14/2023\nACME Corp\nInvoice No: 778899"

type stubText map[string]string

func (s stubText) Acquire(_ context.Context, path string) string {
	return s[filepath.Base(path)]
}

type stubMeta struct {
	writes map[string]map[string]string
}

func (m *stubMeta) Identity(string) (string, error) { return "", nil }

func (m *stubMeta) WriteProperties(path string, props map[string]string) error {
	m.writes[filepath.Base(path)] = props
	return nil
}

type stubOCR bool

func (o stubOCR) Available() bool { return bool(o) }

func newTestServer(t *testing.T, text stubText) (*Server, *stubMeta, string) {
	t.Helper()
	dir := t.TempDir()
	for name := range text {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o600))
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dict := extract.Dictionary{{Name: "Acme", Keywords: []string{"acme", "acme corp"}}}
	cfg := &config.Config{
		Mode:        config.ModeStdio,
		Directory:   dir,
		Version:     "1.0.0",
		ServerName:  "test-server",
		MaxFileSize: 1024 * 1024,
		Companies:   dict,
	}
	meta := &stubMeta{writes: map[string]map[string]string{}}
	service := autoname.NewService(text, meta, autoname.NewDefaultSequencer(dict, logger),
		autoname.Options{MaxFileSize: cfg.MaxFileSize}, logger)

	server, err := NewServer(cfg, service, stubOCR(true), logger)
	require.NoError(t, err)
	return server, meta, dir
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
}

func TestNewServer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := autoname.NewService(stubText{}, &stubMeta{}, nil, autoname.Options{}, logger)

	_, err := NewServer(nil, service, nil, logger)
	assert.Error(t, err)

	_, err = NewServer(&config.Config{ServerName: "s", Version: "1"}, nil, nil, logger)
	assert.Error(t, err)

	server, err := NewServer(&config.Config{ServerName: "s", Version: "1"}, service, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, server.mcpServer)
}

func TestServer_HandleAutonameFiles(t *testing.T) {
	server, meta, dir := newTestServer(t, stubText{"scan001.pdf": invoiceText})

	result, err := server.handleAutonameFiles(context.Background(), callRequest(map[string]any{}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))

	text := extractTextFromResult(result)
	assert.Contains(t, text, "Updated 1 file(s)")
	assert.Contains(t, text, "renamed: scan001.pdf -> Acme 02-14-23 778899.pdf")
	assert.FileExists(t, filepath.Join(dir, "Acme 02-14-23 778899.pdf"))
	assert.Equal(t, "778899", meta.writes["scan001.pdf"]["/InvoiceNumber"])
}

func TestServer_HandleAutonameFilesDryRun(t *testing.T) {
	server, meta, dir := newTestServer(t, stubText{"scan001.pdf": invoiceText, "blank.pdf": ""})

	result, err := server.handleAutonameFiles(context.Background(), callRequest(map[string]any{
		"files":   []any{"scan001.pdf", "blank.pdf"},
		"dry_run": true,
	}))
	require.NoError(t, err)

	text := extractTextFromResult(result)
	assert.Contains(t, text, "Dry run: 1 of 2 file(s) would be renamed")
	assert.Contains(t, text, "planned: scan001.pdf -> Acme 02-14-23 778899.pdf")
	assert.Contains(t, text, "unchanged: blank.pdf")
	assert.FileExists(t, filepath.Join(dir, "scan001.pdf"))
	assert.Empty(t, meta.writes)
}

func TestServer_HandleAutonameFilesInvalidDirectory(t *testing.T) {
	server, _, dir := newTestServer(t, stubText{})

	result, err := server.handleAutonameFiles(context.Background(), callRequest(map[string]any{
		"directory": filepath.Join(dir, "missing"),
		"files":     []any{"a.pdf"},
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestServer_HandleAutonamePreview(t *testing.T) {
	server, _, dir := newTestServer(t, stubText{"scan001.pdf": invoiceText, "other.pdf": "nothing here"})

	result, err := server.handleAutonamePreview(context.Background(), callRequest(map[string]any{
		"query": "scan",
	}))
	require.NoError(t, err)

	text := extractTextFromResult(result)
	assert.Contains(t, text, "Naming preview for 1 file(s)")
	assert.Contains(t, text, "Identity: Invoice")
	assert.Contains(t, text, "Company: Acme")
	assert.Contains(t, text, "Date: 02-14-23")
	assert.Contains(t, text, "Invoice #: 778899")
	assert.Contains(t, text, "New name: Acme 02-14-23 778899.pdf")
	assert.NotContains(t, text, "other.pdf")
	assert.FileExists(t, filepath.Join(dir, "scan001.pdf"))
}

func TestServer_HandleSetIdentity(t *testing.T) {
	server, meta, _ := newTestServer(t, stubText{"receipt.pdf": ""})

	result, err := server.handleSetIdentity(context.Background(), callRequest(map[string]any{
		"path":     "receipt.pdf",
		"identity": "card",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractTextFromResult(result))
	assert.Equal(t, "Identity of receipt.pdf set to Card", extractTextFromResult(result))
	assert.Equal(t, map[string]string{"/Identity": "Card"}, meta.writes["receipt.pdf"])
}

func TestServer_InvalidArguments(t *testing.T) {
	server, meta, _ := newTestServer(t, stubText{"receipt.pdf": ""})

	outside := filepath.Join(t.TempDir(), "elsewhere.pdf")
	require.NoError(t, os.WriteFile(outside, []byte("%PDF-1.4"), 0o600))

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing path", map[string]any{"identity": "Card"}},
		{"missing identity", map[string]any{"path": "receipt.pdf"}},
		{"unknown identity", map[string]any{"path": "receipt.pdf", "identity": "Receipt"}},
		{"missing file", map[string]any{"path": "missing.pdf", "identity": "Card"}},
		{"absolute path outside directory", map[string]any{"path": outside, "identity": "Card"}},
		{"relative path escaping directory", map[string]any{"path": "../elsewhere.pdf", "identity": "Card"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := server.handleSetIdentity(context.Background(), callRequest(tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
		})
	}
	assert.Empty(t, meta.writes)
}

func TestServer_HandleServerInfo(t *testing.T) {
	server, _, dir := newTestServer(t, stubText{})

	result, err := server.handleServerInfo(context.Background(), callRequest(nil))
	require.NoError(t, err)

	text := extractTextFromResult(result)
	assert.Contains(t, text, "test-server v1.0.0")
	assert.Contains(t, text, "Default Directory: "+dir)
	assert.Contains(t, text, "OCR fallback: available")
	assert.Contains(t, text, "Company dictionary: 1 entries")
	assert.Contains(t, text, "Invoice: Company, Date, Invoice #")
	assert.Contains(t, text, "Card: Company, Date, Card Number")
	assert.Contains(t, text, "autoname_set_identity: Mark a PDF as an Invoice, Card or Purchase document.")
	assert.NotContains(t, text, "Text cache:")
}

type stubCacheStats pdf.CacheStats

func (c stubCacheStats) Stats() pdf.CacheStats { return pdf.CacheStats(c) }

func TestServer_HandleServerInfoCacheStats(t *testing.T) {
	server, _, _ := newTestServer(t, stubText{})
	server.SetCacheStats(stubCacheStats{Hits: 3, Misses: 2, Size: 2, Capacity: 64})

	result, err := server.handleServerInfo(context.Background(), callRequest(nil))
	require.NoError(t, err)
	assert.Contains(t, extractTextFromResult(result), "Text cache: 3 hits, 2 misses, 2/64 entries")
}

func TestStringList(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"nil", nil, nil},
		{"json array", []any{"a.pdf", " b.pdf ", 3, ""}, []string{"a.pdf", "b.pdf"}},
		{"string slice", []string{"a.pdf"}, []string{"a.pdf"}},
		{"comma separated", "a.pdf, b.pdf,", []string{"a.pdf", "b.pdf"}},
		{"wrong type", 12, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stringList(tt.in))
		})
	}
}

// Helper function to extract text from a CallToolResult
func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}

	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}

	return ""
}
