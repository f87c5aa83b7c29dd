// Package config loads and validates CLI configuration files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/docsforge/docs2pdf/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
)

// Field length limits.
const (
	MaxURLLength      = 2048 // Browser limit
	MaxTitleLength    = 200
	MaxSubtitleLength = 200
	MaxDateLength     = 50 // Literal date or auto:FORMAT expression
	MaxTOCTitleLength = 100
	MaxPageSizeLength = 10 // "letter", "a4", "legal"
)

// Config holds all configuration for a documentation export.
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Output   OutputConfig   `yaml:"output"`
	Document DocumentConfig `yaml:"document"`
	Page     PageConfig     `yaml:"page"`
	TOC      TOCConfig      `yaml:"toc"`
	Timeout  string         `yaml:"timeout"` // Go duration string, e.g. "2m"
}

// SourceConfig selects where the documentation tree comes from.
type SourceConfig struct {
	Repo        string `yaml:"repo"`        // Git URL (mutually exclusive with dir)
	Branch      string `yaml:"branch"`      // Branch to check out (empty = default)
	DocsDir     string `yaml:"docsDir"`     // Subdirectory inside the checkout
	CheckoutDir string `yaml:"checkoutDir"` // Where the clone lives (empty = temp/<name>)
	Dir         string `yaml:"dir"`         // Local directory of .md/.mdx files
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	Path       string `yaml:"path"`       // Output PDF path (empty = <Title>_<date>.pdf)
	Stylesheet string `yaml:"stylesheet"` // CSS file (empty = styles.css or built-in)
}

// DocumentConfig defines cover page metadata.
type DocumentConfig struct {
	Title    string `yaml:"title"`    // Empty = derived from source name
	Subtitle string `yaml:"subtitle"` // Optional
	Date     string `yaml:"date"`     // "auto", "auto:FORMAT", or literal (default: "auto")
}

// PageConfig defines PDF page settings.
type PageConfig struct {
	Size           string  `yaml:"size"`           // "letter", "a4", "legal" (default: "a4")
	Margin         float64 `yaml:"margin"`         // inches, all sides (default: 0.5)
	NoBackground   bool    `yaml:"noBackground"`   // Skip CSS backgrounds
	NoHeaderFooter bool    `yaml:"noHeaderFooter"` // Disable native header/footer
}

// TOCConfig defines table of contents options.
type TOCConfig struct {
	Title    string `yaml:"title"`    // Empty = "Table of Contents"
	MaxDepth int    `yaml:"maxDepth"` // 1-6, default 3
}

// Validate checks field lengths and enumerations.
// Called automatically by LoadConfig, but available for consumers who
// construct Config manually.
func (c *Config) Validate() error {
	if err := validateFieldLength("source.repo", c.Source.Repo, MaxURLLength); err != nil {
		return err
	}
	if err := validateFieldLength("document.title", c.Document.Title, MaxTitleLength); err != nil {
		return err
	}
	if err := validateFieldLength("document.subtitle", c.Document.Subtitle, MaxSubtitleLength); err != nil {
		return err
	}
	if err := validateFieldLength("document.date", c.Document.Date, MaxDateLength); err != nil {
		return err
	}
	if err := validateFieldLength("toc.title", c.TOC.Title, MaxTOCTitleLength); err != nil {
		return err
	}
	if err := validateFieldLength("page.size", c.Page.Size, MaxPageSizeLength); err != nil {
		return err
	}

	if c.TOC.MaxDepth != 0 && (c.TOC.MaxDepth < 1 || c.TOC.MaxDepth > 6) {
		return fmt.Errorf("toc.maxDepth: must be between 1 and 6, got %d", c.TOC.MaxDepth)
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns a neutral configuration.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/docs2pdf/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2) // 2 locations

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "docs2pdf", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
