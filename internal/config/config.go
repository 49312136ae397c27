package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/a3tai/mcp-pdf-autoname/internal/autoname"
	"github.com/a3tai/mcp-pdf-autoname/internal/extract"
	"github.com/a3tai/mcp-pdf-autoname/internal/logging"
	"github.com/a3tai/mcp-pdf-autoname/internal/pdf"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeBatch  = "batch"
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultLogLevel      = "info"
	DefaultLogFormat     = logging.FormatText
	DefaultMaxFileSize   = 100 * 1024 * 1024 // 100MB
	DefaultTextCacheSize = 64
	DefaultServerName    = "pdf-autoname"
	DefaultVersion       = "1.0.0"
	envPrefix            = "PDF_AUTONAME"
)

// ErrVersionRequested is returned by LoadFromFlags when --version is given.
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for pdf-autoname
type Config struct {
	Mode string // "batch", "stdio" or "server"

	// Documents
	Directory string
	Files     []string
	Query     string
	DryRun    bool

	// Files read at startup
	ConfigFile     string
	CompanyMapFile string

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
	LogFormat  string

	MaxFileSize    int64
	TextLimit      int
	CollisionLimit int
	TextCacheSize  int
	OCR            pdf.OCRConfig

	// FieldOrder maps an identity name to its field slot names.
	FieldOrder map[string][]string
	Companies  extract.Dictionary
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:           ModeBatch,
		Directory:      currentDir,
		Version:        DefaultVersion,
		ServerName:     DefaultServerName,
		LogLevel:       DefaultLogLevel,
		LogFormat:      DefaultLogFormat,
		MaxFileSize:    DefaultMaxFileSize,
		TextLimit:      pdf.DefaultTextLimit,
		CollisionLimit: autoname.DefaultCollisionLimit,
		TextCacheSize:  DefaultTextCacheSize,
		OCR:            pdf.DefaultOCRConfig(),
	}
}

// LoadFromFlags parses command line flags, environment variables and the
// optional config and company map files, and returns a configuration.
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	if file := viper.GetString("config"); file != "" {
		viper.SetConfigFile(file)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	if err := populateConfigFromViper(cfg); err != nil {
		return nil, err
	}
	cfg.Files = pflag.Args()

	if cfg.CompanyMapFile != "" {
		dict, err := LoadCompanyMap(cfg.CompanyMapFile)
		if err != nil {
			return nil, err
		}
		cfg.Companies = append(cfg.Companies, dict...)
	}

	if cfg.Directory != "" {
		if expandedPath, err := filepath.Abs(cfg.Directory); err == nil {
			cfg.Directory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("dir", cfg.Directory)
	viper.SetDefault("query", cfg.Query)
	viper.SetDefault("dry-run", cfg.DryRun)
	viper.SetDefault("config", cfg.ConfigFile)
	viper.SetDefault("company-map", cfg.CompanyMapFile)
	viper.SetDefault("server-name", cfg.ServerName)
	viper.SetDefault("log-level", cfg.LogLevel)
	viper.SetDefault("log-format", cfg.LogFormat)
	viper.SetDefault("max-file-size", cfg.MaxFileSize)
	viper.SetDefault("text-limit", cfg.TextLimit)
	viper.SetDefault("collision-limit", cfg.CollisionLimit)
	viper.SetDefault("text-cache-size", cfg.TextCacheSize)
	viper.SetDefault("ocr.enabled", cfg.OCR.Enabled)
	viper.SetDefault("ocr.pdftoppm", cfg.OCR.Pdftoppm)
	viper.SetDefault("ocr.tesseract", cfg.OCR.Tesseract)
	viper.SetDefault("ocr.lang", cfg.OCR.Lang)
	viper.SetDefault("ocr.dpi", cfg.OCR.DPI)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'batch' renames files and exits, 'stdio' serves MCP tools")
	pflag.String("dir", cfg.Directory, "Directory containing the PDF files to name")
	pflag.String("query", cfg.Query, "Only process PDFs whose name matches this query (batch mode, no files given)")
	pflag.Bool("dry-run", cfg.DryRun, "Print planned names without touching any file")
	pflag.String("config", cfg.ConfigFile, "Config file (YAML, JSON or TOML) with field_order and companies")
	pflag.String("company-map", cfg.CompanyMapFile, "company_map.json file mapping keyword lists to company names")
	pflag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.String("log-format", cfg.LogFormat, "Log format (text, json)")
	pflag.Int64("max-file-size", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.Int("text-limit", cfg.TextLimit, "Stop reading pages once this many characters were extracted")
	pflag.Int("collision-limit", cfg.CollisionLimit, "Highest ' (n)' suffix tried for a taken filename")
	pflag.Int("text-cache-size", cfg.TextCacheSize, "Number of extracted texts kept in memory (0 disables)")
	pflag.Bool("ocr", cfg.OCR.Enabled, "Fall back to OCR when a PDF has no text layer")
	pflag.String("ocr-pdftoppm", cfg.OCR.Pdftoppm, "pdftoppm executable")
	pflag.String("ocr-tesseract", cfg.OCR.Tesseract, "tesseract executable")
	pflag.String("ocr-lang", cfg.OCR.Lang, "tesseract language")
	pflag.Int("ocr-dpi", cfg.OCR.DPI, "Rasterisation resolution for OCR")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	bindings := map[string]string{
		"mode":            "mode",
		"dir":             "dir",
		"query":           "query",
		"dry-run":         "dry-run",
		"config":          "config",
		"company-map":     "company-map",
		"log-level":       "log-level",
		"log-format":      "log-format",
		"max-file-size":   "max-file-size",
		"text-limit":      "text-limit",
		"collision-limit": "collision-limit",
		"text-cache-size": "text-cache-size",
		"ocr.enabled":     "ocr",
		"ocr.pdftoppm":    "ocr-pdftoppm",
		"ocr.tesseract":   "ocr-tesseract",
		"ocr.lang":        "ocr-lang",
		"ocr.dpi":         "ocr-dpi",
	}
	for key, flag := range bindings {
		_ = viper.BindPFlag(key, pflag.Lookup(flag))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s: [options] [file.pdf ...]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nPDF Autoname - names PDF documents after the company, date and invoice or card number they contain\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/scans                     # name every PDF in a directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/scans a.pdf b.pdf         # name selected files\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/scans --dry-run           # show planned names\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio --company-map=companies.json # MCP server\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  %s_MODE            Run mode\n", envPrefix)
		fmt.Fprintf(os.Stderr, "  %s_DIR             PDF directory\n", envPrefix)
		fmt.Fprintf(os.Stderr, "  %s_COMPANY_MAP     Company map file\n", envPrefix)
		fmt.Fprintf(os.Stderr, "  %s_LOG_LEVEL       Log level\n", envPrefix)
		fmt.Fprintf(os.Stderr, "  %s_OCR_ENABLED     OCR fallback\n", envPrefix)
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) error {
	cfg.Mode = viper.GetString("mode")
	cfg.Directory = viper.GetString("dir")
	cfg.Query = viper.GetString("query")
	cfg.DryRun = viper.GetBool("dry-run")
	cfg.ConfigFile = viper.GetString("config")
	cfg.CompanyMapFile = viper.GetString("company-map")
	cfg.ServerName = viper.GetString("server-name")
	cfg.LogLevel = strings.ToLower(viper.GetString("log-level"))
	cfg.LogFormat = strings.ToLower(viper.GetString("log-format"))
	cfg.MaxFileSize = viper.GetInt64("max-file-size")
	cfg.TextLimit = viper.GetInt("text-limit")
	cfg.CollisionLimit = viper.GetInt("collision-limit")
	cfg.TextCacheSize = viper.GetInt("text-cache-size")
	cfg.OCR = pdf.OCRConfig{
		Enabled:   viper.GetBool("ocr.enabled"),
		Pdftoppm:  viper.GetString("ocr.pdftoppm"),
		Tesseract: viper.GetString("ocr.tesseract"),
		Lang:      viper.GetString("ocr.lang"),
		DPI:       viper.GetInt("ocr.dpi"),
	}

	if viper.IsSet("field_order") {
		cfg.FieldOrder = viper.GetStringMapStringSlice("field_order")
	}
	if viper.IsSet("companies") {
		var companies extract.Dictionary
		if err := viper.UnmarshalKey("companies", &companies); err != nil {
			return fmt.Errorf("invalid companies section: %w", err)
		}
		cfg.Companies = companies
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeBatch && c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be one of 'batch', 'stdio' or 'server'")
	}

	if c.Directory == "" {
		return errors.New("PDF directory cannot be empty")
	}
	info, err := os.Stat(c.Directory)
	if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.Directory, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("PDF directory %s is not a directory", c.Directory)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}
	if c.TextLimit <= 0 {
		return errors.New("text limit must be positive")
	}
	if c.CollisionLimit <= 0 {
		return errors.New("collision limit must be positive")
	}
	if c.TextCacheSize < 0 {
		return errors.New("text cache size cannot be negative")
	}
	if c.OCR.Enabled && c.OCR.DPI <= 0 {
		return errors.New("OCR resolution must be positive")
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil || c.LogLevel == "" {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	if c.LogFormat != logging.FormatText && c.LogFormat != logging.FormatJSON {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.LogFormat)
	}

	if _, err := c.FieldOrders(); err != nil {
		return err
	}
	for i, entry := range c.Companies {
		if strings.TrimSpace(entry.Name) == "" {
			return fmt.Errorf("company %d has no name", i+1)
		}
		if len(extract.MatchKeywords(entry.Keywords)) == 0 {
			return fmt.Errorf("company %q has no usable keywords", entry.Name)
		}
	}

	return nil
}

// FieldOrders returns the default field orders overridden by the
// field_order section.
func (c *Config) FieldOrders() (autoname.FieldOrders, error) {
	orders := autoname.DefaultFieldOrders()
	for name, slots := range c.FieldOrder {
		id, ok := autoname.ParseIdentity(name)
		if !ok {
			return nil, fmt.Errorf("field_order: %w: %q", autoname.ErrUnknownIdentity, name)
		}
		order, err := autoname.ParseFieldOrder(slots)
		if err != nil {
			return nil, fmt.Errorf("field_order %s: %w", id, err)
		}
		orders[id] = order
	}
	return orders, nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Directory: %s, Files: %d, DryRun: %t, LogLevel: %s, "+
		"MaxFileSize: %d, OCR: %t, Companies: %d}",
		c.Mode, c.Directory, len(c.Files), c.DryRun, c.LogLevel, c.MaxFileSize, c.OCR.Enabled, len(c.Companies))
}

// IsBatchMode returns true if files are named once and the process exits
func (c *Config) IsBatchMode() bool {
	return c.Mode == ModeBatch
}

// IsServerMode returns true if the server mode was requested
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the MCP tools are served over stdio
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
