package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/a3tai/mcp-pdf-autoname/internal/autoname"
	"github.com/a3tai/mcp-pdf-autoname/internal/config"
	"github.com/a3tai/mcp-pdf-autoname/internal/descriptions"
	"github.com/a3tai/mcp-pdf-autoname/internal/extract"
	"github.com/a3tai/mcp-pdf-autoname/internal/pdf"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// OCRStatus reports whether the OCR fallback can run.
type OCRStatus interface {
	Available() bool
}

// CacheStatsSource reports text cache counters.
type CacheStatsSource interface {
	Stats() pdf.CacheStats
}

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *autoname.Service
	search    *pdf.Search
	ocr       OCRStatus
	cache     CacheStatsSource
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP server instance. ocr may be nil when the
// fallback is disabled.
func NewServer(cfg *config.Config, service *autoname.Service, ocr OCRStatus, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		service:   service,
		search:    pdf.NewSearch(cfg.MaxFileSize),
		ocr:       ocr,
		mcpServer: mcpServer,
		logger:    logger,
	}

	s.registerTools()

	return s, nil
}

// SetCacheStats makes server info report the text cache counters.
func (s *Server) SetCacheStats(cache CacheStatsSource) {
	s.cache = cache
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	autonameFilesTool := mcp.NewTool(
		descriptions.ToolAutonameFiles,
		mcp.WithDescription(descriptions.AutonameFilesDescription),
		mcp.WithString("directory",
			mcp.Description("Directory holding the PDF files (uses default if empty)"),
		),
		mcp.WithArray("files",
			mcp.Description("File names or paths inside the directory; every PDF in it when omitted"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("query",
			mcp.Description("Optional fuzzy filename filter used when files is omitted"),
		),
		mcp.WithBoolean("dry_run",
			mcp.Description("Report planned names without renaming or writing metadata"),
		),
	)
	s.mcpServer.AddTool(autonameFilesTool, s.handleAutonameFiles)

	autonamePreviewTool := mcp.NewTool(
		descriptions.ToolAutonamePreview,
		mcp.WithDescription(descriptions.AutonamePreviewDescription),
		mcp.WithString("directory",
			mcp.Description("Directory holding the PDF files (uses default if empty)"),
		),
		mcp.WithArray("files",
			mcp.Description("File names or paths inside the directory; every PDF in it when omitted"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("query",
			mcp.Description("Optional fuzzy filename filter used when files is omitted"),
		),
	)
	s.mcpServer.AddTool(autonamePreviewTool, s.handleAutonamePreview)

	setIdentityTool := mcp.NewTool(
		descriptions.ToolAutonameSetIdentity,
		mcp.WithDescription(descriptions.AutonameSetIdentityDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("PDF file, absolute or relative to the default directory"),
		),
		mcp.WithString("identity",
			mcp.Required(),
			mcp.Description("Invoice, Card or Purchase"),
			mcp.Enum("Invoice", "Card", "Purchase"),
		),
	)
	s.mcpServer.AddTool(setIdentityTool, s.handleSetIdentity)

	serverInfoTool := mcp.NewTool(
		descriptions.ToolAutonameServerInfo,
		mcp.WithDescription(descriptions.AutonameServerInfoDescription),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleAutonameFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	dryRun, _ := args["dry_run"].(bool)

	directory, files, err := s.documentArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	outcomes, err := s.service.Run(ctx, directory, files, dryRun)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatRunResult(directory, outcomes, dryRun)), nil
}

func (s *Server) handleAutonamePreview(ctx context.Context, request mcp.CallToolRequest) (
	*mcp.CallToolResult, error,
) {
	directory, files, err := s.documentArgs(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	outcomes, err := s.service.Preview(ctx, directory, files)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatPreviewResult(directory, outcomes)), nil
}

func (s *Server) handleSetIdentity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	identity, err := request.RequireString("identity")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id, err := s.service.SetIdentity(s.config.Directory, path, identity)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Identity of %s set to %s", filepath.Base(path), id)), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.formatServerInfo()), nil
}

// documentArgs reads the directory and file list shared by the naming tools.
func (s *Server) documentArgs(args map[string]any) (string, []string, error) {
	directory := s.config.Directory // default
	if dir, ok := args["directory"].(string); ok && dir != "" {
		directory = dir
	}

	files := stringList(args["files"])
	if len(files) > 0 {
		return directory, files, nil
	}

	query, _ := args["query"].(string)
	files, err := s.search.Paths(directory, query)
	if err != nil {
		return "", nil, err
	}
	return directory, files, nil
}

// stringList accepts a JSON array of strings or a comma separated string.
func stringList(v any) []string {
	var raw []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if str, ok := item.(string); ok {
				raw = append(raw, str)
			}
		}
	case []string:
		raw = t
	case string:
		raw = strings.Split(t, ",")
	}

	var out []string
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Formatting methods
func (s *Server) formatRunResult(directory string, outcomes []autoname.Outcome, dryRun bool) string {
	var text string
	if dryRun {
		planned := 0
		for _, o := range outcomes {
			if o.Status == autoname.StatusPlanned {
				planned++
			}
		}
		text = fmt.Sprintf("Dry run: %d of %d file(s) would be renamed in %s\n", planned, len(outcomes), directory)
	} else {
		text = fmt.Sprintf("Updated %d file(s) in %s\n", autoname.CountRenamed(outcomes), directory)
	}

	if len(outcomes) == 0 {
		return text + "No PDF files to process.\n"
	}

	text += "\n"
	for _, o := range outcomes {
		text += o.Summary() + "\n"
		if o.MetadataErr != nil {
			text += fmt.Sprintf("   metadata not written: %v\n", o.MetadataErr)
		}
	}
	return text
}

func (s *Server) formatPreviewResult(directory string, outcomes []autoname.Outcome) string {
	text := fmt.Sprintf("Naming preview for %d file(s) in %s\n", len(outcomes), directory)

	for i, o := range outcomes {
		text += fmt.Sprintf("\n%d. %s\n", i+1, filepath.Base(o.Source))
		if o.Status == autoname.StatusSkipped || o.Status == autoname.StatusFailed {
			text += fmt.Sprintf("   %s: %v\n", o.Status, o.Err)
			continue
		}

		text += fmt.Sprintf("   Identity: %s\n", o.Identity)
		found := 0
		for _, kind := range extract.Kinds {
			if value, ok := o.Available[kind]; ok {
				text += fmt.Sprintf("   %s: %s\n", kind, value)
				found++
			}
		}
		if found == 0 {
			text += "   No fields found\n"
		}

		switch o.Status {
		case autoname.StatusPlanned:
			text += fmt.Sprintf("   New name: %s\n", filepath.Base(o.Target))
		default:
			text += "   Name unchanged\n"
		}
	}

	return text
}

func (s *Server) formatServerInfo() string {
	text := fmt.Sprintf("%s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("Default Directory: %s\n", s.config.Directory)
	text += fmt.Sprintf("Max File Size: %d MB\n", s.config.MaxFileSize/(1024*1024))

	ocr := "disabled"
	if s.ocr != nil {
		ocr = "unavailable (pdftoppm or tesseract not found)"
		if s.ocr.Available() {
			ocr = "available"
		}
	}
	text += fmt.Sprintf("OCR fallback: %s\n", ocr)
	text += fmt.Sprintf("Company dictionary: %d entries\n", len(s.config.Companies))
	if s.cache != nil {
		stats := s.cache.Stats()
		text += fmt.Sprintf("Text cache: %d hits, %d misses, %d/%d entries\n",
			stats.Hits, stats.Misses, stats.Size, stats.Capacity)
	}

	text += "\nField orders:\n"
	orders := s.service.Orders()
	for _, id := range autoname.Identities {
		var names []string
		for _, name := range orders.For(id).Names() {
			if name != "" {
				names = append(names, name)
			}
		}
		text += fmt.Sprintf("  %s: %s\n", id, strings.Join(names, ", "))
	}

	text += "\nAvailable Tools:\n"
	for _, name := range descriptions.GetAllToolNames() {
		summary, _, _ := strings.Cut(descriptions.GetToolDescription(name), "\n")
		text += fmt.Sprintf("  • %s: %s\n", name, summary)
	}

	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	s.logger.Debug("starting MCP server in stdio mode", "dir", s.config.Directory)

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode runs the server in HTTP server mode
func (s *Server) runServerMode(ctx context.Context) error {
	s.logger.Warn("server mode is not implemented, falling back to stdio mode")
	return s.runStdioMode(ctx)
}
