package docs2pdf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/docsforge/docs2pdf/internal/dateutil"
	"github.com/docsforge/docs2pdf/internal/fileutil"
	"github.com/docsforge/docs2pdf/internal/frontmatter"
	"github.com/docsforge/docs2pdf/internal/pipeline"
	"github.com/docsforge/docs2pdf/internal/repo"
)

// RepoFetcher abstracts git repository acquisition to enable testing
// without network access.
type RepoFetcher interface {
	Ensure(ctx context.Context, url, branch, dir string) error
}

// Compile-time interface check
var _ RepoFetcher = (*repo.Fetcher)(nil)

// defaultCheckoutRoot is where repository checkouts land when the job
// does not name a checkout directory. Lives under the working directory
// and is excluded from document discovery.
const defaultCheckoutRoot = "temp"

// defaultTOCTitle is the table of contents heading used when the job
// leaves it empty.
const defaultTOCTitle = "Table of Contents"

// Exporter converts a documentation tree to a single PDF. Create one with
// NewExporter, run jobs with Export, and release browser resources with
// Close. An Exporter is not safe for concurrent use.
type Exporter struct {
	cfg        exporterConfig
	normalizer *pipeline.Normalizer
	composer   *pipeline.Composer
	renderer   Renderer
	fetcher    RepoFetcher
	now        func() time.Time
}

// NewExporter creates an Exporter with the given options.
func NewExporter(opts ...Option) (*Exporter, error) {
	e := &Exporter{
		cfg: exporterConfig{
			timeout: defaultTimeout,
			logger:  slog.Default(),
		},
		now: time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	policy := pipeline.DefaultStripPolicy()
	if e.cfg.policy != nil {
		policy = e.cfg.policy.toPipelinePolicy()
	}
	e.normalizer = pipeline.NewNormalizer(policy)

	composer, err := pipeline.NewComposer()
	if err != nil {
		return nil, err
	}
	e.composer = composer

	// Create render backend if not injected (e.g., by tests)
	if e.renderer == nil {
		e.renderer = newRodRenderer(e.cfg.timeout)
	}
	if e.fetcher == nil {
		e.fetcher = repo.NewFetcher(repo.ExecRunner{})
	}

	return e, nil
}

// Close releases browser resources.
func (e *Exporter) Close() error {
	return e.renderer.Close()
}

// Export runs the full pipeline for one job and writes the PDF.
// The context is used for cancellation; rendering additionally gets the
// configured timeout. Recovers from internal panics to prevent crashes
// from propagating to callers.
func (e *Exporter) Export(ctx context.Context, job Job) (result *ExportResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if err := validateJob(job); err != nil {
		return nil, err
	}
	if err := job.Render.Validate(); err != nil {
		return nil, err
	}

	docsRoot, err := e.resolveSource(ctx, job)
	if err != nil {
		return nil, err
	}

	docs, warnings, err := e.loadDocuments(ctx, docsRoot)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no .md or .mdx files under %s", ErrNoDocuments, docsRoot)
	}

	pipeline.SortDocuments(docs)
	tree := pipeline.BuildTree(docs)

	tocDepth := job.TOCDepth
	if tocDepth <= 0 {
		tocDepth = pipeline.DefaultTOCMaxDepth
	}
	entries := pipeline.BuildTOC(tree, tocDepth)

	css, cssWarn := pipeline.ResolveStylesheet(stylesheetPath(job))
	if cssWarn != nil {
		warnings = append(warnings, fromPipelineWarning(*cssWarn))
	}

	title := jobTitle(job)
	dateSpec := job.Date
	if dateSpec == "" {
		dateSpec = "auto"
	}
	date, err := dateutil.ResolveDate(dateSpec, e.now())
	if err != nil {
		return nil, err
	}

	tocTitle := job.TOCTitle
	if tocTitle == "" {
		tocTitle = defaultTOCTitle
	}

	composed, err := e.composer.Compose(ctx, pipeline.ComposeInput{
		Cover:    pipeline.CoverData{Title: title, Subtitle: job.Subtitle, Date: date},
		CSS:      css,
		TOCTitle: tocTitle,
		Tree:     tree,
		Entries:  entries,
	})
	if err != nil {
		return nil, err
	}

	e.cfg.logger.Info("rendering PDF",
		slog.Int("documents", len(docs)),
		slog.Int("page_breaks", len(composed.PageBreaks)))

	pdf, err := e.render(ctx, composed.HTML, job, title, date)
	if err != nil {
		return nil, err
	}

	outputPath := job.OutputPath
	if outputPath == "" {
		outputPath = defaultOutputName(title, e.now())
	}
	if err := atomic.WriteFile(outputPath, bytes.NewReader(pdf)); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrWriteOutput, outputPath, err)
	}

	for _, w := range warnings {
		e.cfg.logger.Warn("degraded", slog.String("stage", w.Stage),
			slog.String("path", w.Path), slog.String("detail", w.Message))
	}

	return &ExportResult{
		OutputPath: outputPath,
		Documents:  len(docs),
		PageBreaks: len(composed.PageBreaks),
		Warnings:   warnings,
	}, nil
}

// validateJob checks that the job names exactly one document source.
func validateJob(job Job) error {
	if job.SourceDir == "" && job.RepoURL == "" {
		return fmt.Errorf("%w: set SourceDir or RepoURL", ErrNoSource)
	}
	if job.SourceDir != "" && job.RepoURL != "" {
		return fmt.Errorf("%w: SourceDir and RepoURL are mutually exclusive", ErrNoSource)
	}
	return nil
}

// resolveSource returns the docs root directory, cloning or updating the
// repository first when the job names one.
func (e *Exporter) resolveSource(ctx context.Context, job Job) (string, error) {
	if job.SourceDir != "" {
		if !fileutil.DirExists(job.SourceDir) {
			return "", fmt.Errorf("%w: %s is not a directory", ErrNoSource, job.SourceDir)
		}
		return job.SourceDir, nil
	}

	checkout := job.CheckoutDir
	if checkout == "" {
		checkout = filepath.Join(defaultCheckoutRoot, repoName(job.RepoURL))
	}

	e.cfg.logger.Info("fetching repository",
		slog.String("url", job.RepoURL), slog.String("dir", checkout))

	if err := e.fetcher.Ensure(ctx, job.RepoURL, job.Branch, checkout); err != nil {
		return "", err
	}

	if job.DocsDir == "" {
		return checkout, nil
	}
	return filepath.Join(checkout, filepath.FromSlash(job.DocsDir)), nil
}

// loadDocuments reads every discovered file, extracts front matter, and
// normalizes the body to HTML. Per-file problems degrade to warnings; a
// read failure on a discovered file is still fatal.
func (e *Exporter) loadDocuments(ctx context.Context, root string) ([]*pipeline.Document, []Warning, error) {
	paths, err := discoverDocuments(root)
	if err != nil {
		return nil, nil, err
	}

	var docs []*pipeline.Document
	var warnings []Warning

	for _, rel := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		abs := filepath.Join(root, filepath.FromSlash(rel))
		raw, err := os.ReadFile(abs) // #nosec G304 -- path comes from directory walk
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", rel, err)
		}

		fm := frontmatter.Parse(string(raw))
		if fm.Warning != "" {
			warnings = append(warnings, Warning{
				Stage: pipeline.StageFrontMatter, Path: rel, Message: fm.Warning,
			})
		}

		res, err := e.normalizer.Normalize(ctx, fm.Body, filepath.Dir(abs))
		if err != nil {
			return nil, nil, fmt.Errorf("normalizing %s: %w", rel, err)
		}
		for _, w := range res.Warnings {
			w.Path = rel
			warnings = append(warnings, fromPipelineWarning(w))
		}

		docs = append(docs, &pipeline.Document{
			SourcePath: rel,
			Meta:       fm.Meta,
			RawBody:    fm.Body,
			HTMLBody:   res.HTML,
		})
	}

	return docs, warnings, nil
}

// render converts the composed HTML to PDF under the configured timeout,
// filling in default header and footer templates.
func (e *Exporter) render(ctx context.Context, html string, job Job, title, date string) ([]byte, error) {
	opts := job.Render
	if opts == nil {
		opts = DefaultRenderOptions()
	} else {
		cp := *opts
		opts = &cp
	}
	if opts.DisplayHeaderFooter && opts.FooterTemplate == "" {
		opts.FooterTemplate = buildFooterTemplate(title, date)
	}

	renderCtx, cancel := context.WithTimeout(ctx, e.cfg.timeout)
	defer cancel()

	return e.renderer.ToPDF(renderCtx, html, opts)
}

// stylesheetPath picks the CSS source for a job: the explicit path when
// set, else styles.css in the working directory when present, else the
// built-in default (empty path).
func stylesheetPath(job Job) string {
	if job.Stylesheet != "" {
		return job.Stylesheet
	}
	if fileutil.FileExists("styles.css") {
		return "styles.css"
	}
	return ""
}

// jobTitle returns the cover title, deriving one from the source when the
// job leaves it empty.
func jobTitle(job Job) string {
	if job.Title != "" {
		return job.Title
	}
	if job.RepoURL != "" {
		return repoName(job.RepoURL)
	}
	if base := filepath.Base(job.SourceDir); base != "." && base != string(filepath.Separator) {
		return base
	}
	return "Documentation"
}

// repoName extracts the repository name from a git URL.
func repoName(url string) string {
	name := strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	name = path.Base(strings.ReplaceAll(name, ":", "/"))
	if name == "" || name == "." {
		return "repository"
	}
	return name
}

// defaultOutputName builds "<Title>_<YYYY-MM-DD>.pdf" with spaces replaced
// so the name is shell-friendly.
func defaultOutputName(title string, t time.Time) string {
	safe := strings.ReplaceAll(title, " ", "_")
	return fmt.Sprintf("%s_%s.pdf", safe, dateutil.Stamp(t))
}
