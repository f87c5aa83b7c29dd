package main

import (
	"errors"
	"os"

	"github.com/docsforge/docs2pdf"
	"github.com/docsforge/docs2pdf/internal/config"
	"github.com/docsforge/docs2pdf/internal/dateutil"
	"github.com/docsforge/docs2pdf/internal/repo"
)

// Exit codes for docs2pdf.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful export
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // Source or output I/O failure
	ExitBrowser = 4 // Browser/render errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser/render errors (exit 4)
	if errors.Is(err, docs2pdf.ErrBrowserConnect) ||
		errors.Is(err, docs2pdf.ErrPageCreate) ||
		errors.Is(err, docs2pdf.ErrPageLoad) ||
		errors.Is(err, docs2pdf.ErrPDFGeneration) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, repo.ErrFetch) ||
		errors.Is(err, docs2pdf.ErrNoDocuments) ||
		errors.Is(err, docs2pdf.ErrWriteOutput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, dateutil.ErrInvalidDateFormat) ||
		errors.Is(err, docs2pdf.ErrNoSource) ||
		errors.Is(err, docs2pdf.ErrInvalidPageFormat) ||
		errors.Is(err, docs2pdf.ErrInvalidMargin) {
		return ExitUsage
	}

	return ExitGeneral
}
