package docs2pdf

import (
	"context"
	"fmt"
	"html"
	"io"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/docsforge/docs2pdf/internal/fileutil"
)

// Renderer abstracts HTML to PDF conversion to allow different backends.
type Renderer interface {
	ToPDF(ctx context.Context, htmlContent string, opts *RenderOptions) ([]byte, error)
	Close() error
}

// Compile-time interface check
var _ Renderer = (*rodRenderer)(nil)

// rodRenderer implements Renderer using headless Chrome via go-rod.
// Rod automatically downloads Chromium on first run if not found.
type rodRenderer struct {
	browser *rod.Browser
	timeout time.Duration
}

// newRodRenderer creates a rodRenderer with the given timeout.
func newRodRenderer(timeout time.Duration) *rodRenderer {
	return &rodRenderer{timeout: timeout}
}

// ensureBrowser lazily connects to the browser.
func (r *rodRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.browser = rod.New().ControlURL(u)
	if err := r.browser.Connect(); err != nil {
		r.browser = nil
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	return nil
}

// Close releases browser resources.
func (r *rodRenderer) Close() error {
	if r.browser != nil {
		err := r.browser.Close()
		r.browser = nil
		return err
	}
	return nil
}

// ToPDF writes the HTML to a temp file, opens it in headless Chrome and
// renders it to PDF. The file:// URL keeps relative image resolution
// consistent with the rewritten absolute paths in the document.
func (r *rodRenderer) ToPDF(ctx context.Context, htmlContent string, opts *RenderOptions) ([]byte, error) {
	if htmlContent == "" {
		return nil, ErrEmptyContent
	}

	tmpPath, cleanup, err := fileutil.WriteTempFile(htmlContent, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return r.renderFromFile(ctx, tmpPath, opts)
}

// renderFromFile opens a local HTML file in headless Chrome and renders it to PDF.
// Returns explicit errors instead of panicking when browser operations fail.
func (r *rodRenderer) renderFromFile(ctx context.Context, filePath string, opts *RenderOptions) ([]byte, error) {
	// Check context before starting
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: "file://" + filePath})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	// Wait for page to load with timeout from context or default
	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	if err := page.Timeout(timeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	// Check context after page load
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := page.PDF(buildPDFOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}

	pdfBuf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}

	return pdfBuf, nil
}

// buildPDFOptions constructs proto.PagePrintToPDF from render options.
func buildPDFOptions(opts *RenderOptions) *proto.PagePrintToPDF {
	if opts == nil {
		opts = DefaultRenderOptions()
	}

	width, height := opts.paper()

	pdfOpts := &proto.PagePrintToPDF{
		PaperWidth:      floatPtr(width),
		PaperHeight:     floatPtr(height),
		MarginTop:       floatPtr(opts.Margins.Top),
		MarginBottom:    floatPtr(opts.Margins.Bottom),
		MarginLeft:      floatPtr(opts.Margins.Left),
		MarginRight:     floatPtr(opts.Margins.Right),
		PrintBackground: opts.PrintBackground,
	}

	if opts.DisplayHeaderFooter {
		pdfOpts.DisplayHeaderFooter = true
		pdfOpts.HeaderTemplate = opts.HeaderTemplate
		if pdfOpts.HeaderTemplate == "" {
			pdfOpts.HeaderTemplate = defaultHeaderTemplate()
		}
		pdfOpts.FooterTemplate = opts.FooterTemplate
		if pdfOpts.FooterTemplate == "" {
			pdfOpts.FooterTemplate = "<span></span>"
		}
	}

	return pdfOpts
}

// defaultHeaderTemplate places the page counter in the top-right corner
// using Chrome's native pageNumber/totalPages classes.
func defaultHeaderTemplate() string {
	return `<div style="font-size: 9px; color: #aaa; width: 100%; text-align: right; padding: 0 0.5in;">` +
		`<span class="pageNumber"></span> / <span class="totalPages"></span></div>`
}

// buildFooterTemplate generates a footer template carrying the document
// title and date, centered. Used by the CLI when header/footer display
// is enabled and no custom template is given.
func buildFooterTemplate(title, date string) string {
	if title == "" && date == "" {
		return "<span></span>"
	}
	content := html.EscapeString(title)
	if date != "" {
		if content != "" {
			content += " - "
		}
		content += html.EscapeString(date)
	}
	return fmt.Sprintf(`<div style="font-size: 9px; color: #aaa; width: 100%%; text-align: center; padding: 0 0.5in;">%s</div>`, content)
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
