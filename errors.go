package docs2pdf

import "errors"

// Sentinel errors for export operations.
var (
	ErrNoSource     = errors.New("no documentation source specified")
	ErrNoDocuments  = errors.New("no markdown files found")
	ErrWriteOutput  = errors.New("failed to write output file")
	ErrEmptyContent = errors.New("composed document is empty")

	// Render errors (fatal: no local recovery for a failed render).
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")

	// Render option validation errors.
	ErrInvalidPageFormat = errors.New("invalid page format")
	ErrInvalidMargin     = errors.New("invalid margin")
)
