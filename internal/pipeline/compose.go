package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"html/template"
	"os"
	"strings"

	"github.com/docsforge/docs2pdf/internal/assets"
)

// ErrCoverRender indicates cover template rendering failed.
var ErrCoverRender = errors.New("cover template rendering failed")

// CoverData holds cover page fields for template rendering.
type CoverData struct {
	Title    string
	Subtitle string
	Date     string
}

// ComposeInput carries everything the composer merges into the final HTML
// document.
type ComposeInput struct {
	Cover    CoverData
	CSS      string
	TOCTitle string
	Tree     *Tree
	Entries  []TocEntry
}

// ComposedDocument is the final HTML plus the ordered anchor IDs where
// forced page breaks were inserted. It is built once and consumed once by
// the render adapter.
type ComposedDocument struct {
	HTML       string
	PageBreaks []string
}

// Composer merges normalized content, TOC, cover page, and stylesheet into
// one HTML document with explicit page-break markers at component
// boundaries.
type Composer struct {
	coverTmpl *template.Template
}

// NewComposer creates a Composer with the embedded cover template.
func NewComposer() (*Composer, error) {
	content, err := assets.LoadTemplate("cover")
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New("cover").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parsing cover template: %w", err)
	}
	return &Composer{coverTmpl: tmpl}, nil
}

// ResolveStylesheet loads CSS from path, falling back to the embedded
// default stylesheet with a warning when the file is missing or unreadable.
// The fallback content is fixed, so repeated runs without a stylesheet get
// byte-identical CSS.
func ResolveStylesheet(path string) (string, *Warning) {
	if path == "" {
		return assets.DefaultStylesheet(), nil
	}
	content, err := os.ReadFile(path) // #nosec G304 -- stylesheet path is user-provided
	if err != nil {
		return assets.DefaultStylesheet(), &Warning{
			Stage:   StageCompose,
			Message: fmt.Sprintf("stylesheet %s unavailable (%v), using built-in default", path, err),
		}
	}
	return string(content), nil
}

// Compose assembles the final HTML in fixed order: cover block, TOC block,
// then one block per top-level section. Every section block begins with a
// forced page break; within a section, every document after the first also
// begins with one. Per-page header/footer content is not embedded here —
// it rides on the render engine's native pagination.
func (c *Composer) Compose(ctx context.Context, in ComposeInput) (*ComposedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var body strings.Builder
	var breaks []string

	coverHTML, err := c.renderCover(in.Cover)
	if err != nil {
		return nil, err
	}
	body.WriteString(coverHTML)

	if toc := RenderTOC(in.Entries, in.TOCTitle); toc != "" {
		body.WriteString(`<div class="page-break-before">`)
		body.WriteString(toc)
		body.WriteString(`</div>`)
	}

	for _, section := range in.Tree.Sections {
		breaks = append(breaks, section.AnchorID)
		body.WriteString(`<section class="doc-section page-break-before">`)
		fmt.Fprintf(&body, `<h1 class="section-title" id="%s">%s</h1>`,
			html.EscapeString(section.AnchorID), html.EscapeString(section.Title))

		for i, page := range section.Children {
			class := "doc"
			if i > 0 {
				class = "doc page-break-before"
				breaks = append(breaks, page.AnchorID)
			}
			fmt.Fprintf(&body, `<article class="%s">`, class)
			fmt.Fprintf(&body, `<h1 class="doc-title" id="%s">%s</h1>`,
				html.EscapeString(page.AnchorID), html.EscapeString(page.Title))
			writeDocMeta(&body, page.Doc)
			body.WriteString(page.Doc.HTMLBody)
			body.WriteString(`</article>`)
		}

		body.WriteString(`</section>`)
	}

	return &ComposedDocument{
		HTML:       documentShell(in.Cover.Title, in.CSS, body.String()),
		PageBreaks: breaks,
	}, nil
}

// renderCover executes the cover template.
func (c *Composer) renderCover(data CoverData) (string, error) {
	var buf bytes.Buffer
	if err := c.coverTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCoverRender, err)
	}
	return buf.String(), nil
}

// writeDocMeta emits the source-path line and front-matter description for
// a document block.
func writeDocMeta(body *strings.Builder, doc *Document) {
	if doc == nil {
		return
	}
	fmt.Fprintf(body, `<div class="doc-path">%s</div>`, html.EscapeString(doc.SourcePath))
	if desc := doc.Meta.Description(); desc != "" {
		fmt.Fprintf(body, `<p class="doc-description">%s</p>`, html.EscapeString(desc))
	}
}

// documentShell wraps the composed body in a complete HTML5 document with
// the stylesheet inlined. CSS is sanitized so it cannot break out of the
// <style> block.
func documentShell(title, css, body string) string {
	var buf strings.Builder
	buf.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\"/>\n")
	buf.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\"/>\n")
	buf.WriteString("<title>")
	buf.WriteString(html.EscapeString(title))
	buf.WriteString("</title>\n")
	if css != "" {
		buf.WriteString("<style>")
		buf.WriteString(sanitizeCSS(css))
		buf.WriteString("</style>\n")
	}
	buf.WriteString("</head>\n<body>\n")
	buf.WriteString(body)
	buf.WriteString("\n</body>\n</html>\n")
	return buf.String()
}

// sanitizeCSS escapes sequences that could close the <style> block early.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}
