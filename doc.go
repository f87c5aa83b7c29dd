// Package docs2pdf converts a tree of Markdown/MDX documentation files into
// a single formatted PDF using headless Chrome.
//
// # Quick Start
//
// Create an exporter, run a job, and close when done:
//
//	exp, err := docs2pdf.NewExporter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer exp.Close()
//
//	result, err := exp.Export(ctx, docs2pdf.Job{
//	    SourceDir: "/path/to/docs",
//	    Title:     "Project Documentation",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("wrote", result.OutputPath)
//
// The result lists per-document warnings (malformed front matter, stripped
// MDX components, unresolved images); a run only fails on repository fetch,
// rendering, or output errors.
//
// # Conversion Pipeline
//
// The export follows these stages:
//
//  1. Repository acquisition (optional, git clone/update of Job.RepoURL)
//  2. Markdown/MDX file discovery
//  3. Front-matter extraction per file
//  4. MDX lowering and Markdown to HTML conversion via Goldmark
//     (GFM, syntax highlighting, image path resolution)
//  5. DocumentNode tree assembly and table of contents generation
//  6. Page composition (cover, TOC, per-section page breaks, stylesheet)
//  7. PDF rendering via headless Chrome (go-rod)
//
// # Configuration
//
// Use functional options to customize the exporter:
//
//	exp, err := docs2pdf.NewExporter(
//	    docs2pdf.WithTimeout(2 * time.Minute),
//	    docs2pdf.WithStripPolicy(policy),
//	)
//
// Per-run options are passed via Job, including page format and margins:
//
//	result, err := exp.Export(ctx, docs2pdf.Job{
//	    SourceDir: "docs",
//	    Render:    &docs2pdf.RenderOptions{Format: docs2pdf.PageFormatA4},
//	})
//
// # Browser Requirements
//
// PDF generation requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
//
// Use ROD_BROWSER_BIN to specify a custom Chrome binary. The Chrome sandbox
// is disabled automatically when CI=true or ROD_BROWSER_BIN is set, which
// covers containers and CI environments.
package docs2pdf
