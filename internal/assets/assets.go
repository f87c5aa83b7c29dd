// Package assets provides the embedded default stylesheet and HTML
// templates used when the working directory supplies none.
package assets

import (
	"embed"
	"errors"
	"fmt"
	"strings"
)

//go:embed styles/*
var styles embed.FS

//go:embed templates/*
var templates embed.FS

// Sentinel errors for asset lookups.
var (
	ErrStyleNotFound    = errors.New("style not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidAssetName = errors.New("invalid asset name")
)

// DefaultStyleName is the stylesheet compiled into the binary. Its content
// is fixed: every run that falls back to it gets byte-identical CSS.
const DefaultStyleName = "default"

// LoadStyle loads an embedded CSS style by name (without extension).
func LoadStyle(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	content, err := styles.ReadFile("styles/" + name + ".css")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrStyleNotFound, name)
	}
	return string(content), nil
}

// DefaultStylesheet returns the built-in default CSS.
func DefaultStylesheet() string {
	css, err := LoadStyle(DefaultStyleName)
	if err != nil {
		// The default style is embedded; a missing file is a build defect.
		panic("assets: embedded default stylesheet missing: " + err.Error())
	}
	return css
}

// LoadTemplate loads an embedded HTML template by name (without extension).
func LoadTemplate(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	content, err := templates.ReadFile("templates/" + name + ".html")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	return string(content), nil
}

// validateName rejects names that could escape the embedded directories.
func validateName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\.") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
