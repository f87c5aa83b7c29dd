package docs2pdf

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fakeRenderer captures the HTML handed to the render stage.
type fakeRenderer struct {
	html   string
	opts   *RenderOptions
	err    error
	closed bool
}

func (f *fakeRenderer) ToPDF(_ context.Context, html string, opts *RenderOptions) ([]byte, error) {
	f.html = html
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

func (f *fakeRenderer) Close() error {
	f.closed = true
	return nil
}

// fakeFetcher materializes a checkout from an in-memory file map.
type fakeFetcher struct {
	files map[string]string
	url   string
}

func (f *fakeFetcher) Ensure(_ context.Context, url, _, dir string) error {
	f.url = url
	for rel, content := range f.files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
			return err
		}
	}
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestExporter(t *testing.T, r Renderer) *Exporter {
	t.Helper()
	e, err := NewExporter(WithRenderer(r), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}
	return e
}

func writeDoc(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestExportLocalDirectory(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeDoc(t, src, "index.md", "---\ntitle: Welcome\n---\n# Welcome\n\nHello.\n")
	writeDoc(t, src, "guides/setup.md", "---\ntitle: Setup\norder: 1\n---\n## Install\n\nSteps.\n")

	renderer := &fakeRenderer{}
	e := newTestExporter(t, renderer)
	out := filepath.Join(t.TempDir(), "docs.pdf")

	result, err := e.Export(context.Background(), Job{
		SourceDir:  src,
		Title:      "Test Docs",
		Date:       "2026-08-26",
		OutputPath: out,
	})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if result.Documents != 2 {
		t.Errorf("Documents = %d, want 2", result.Documents)
	}
	if result.OutputPath != out {
		t.Errorf("OutputPath = %q, want %q", result.OutputPath, out)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if string(data) != "%PDF-1.4 fake" {
		t.Errorf("output bytes = %q", data)
	}

	for _, want := range []string{"Test Docs", "Welcome", "Setup", "Install", `<nav class="toc">`} {
		if !strings.Contains(renderer.html, want) {
			t.Errorf("rendered HTML missing %q", want)
		}
	}
}

func TestExportRepoSource(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{files: map[string]string{
		"docs/index.md": "# Remote Doc\n",
	}}
	renderer := &fakeRenderer{}

	e, err := NewExporter(
		WithRenderer(renderer),
		WithFetcher(fetcher),
		WithLogger(quietLogger()),
	)
	if err != nil {
		t.Fatal(err)
	}

	checkout := filepath.Join(t.TempDir(), "checkout")
	out := filepath.Join(t.TempDir(), "remote.pdf")

	result, err := e.Export(context.Background(), Job{
		RepoURL:     "https://example.com/project.git",
		DocsDir:     "docs",
		CheckoutDir: checkout,
		OutputPath:  out,
	})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if fetcher.url != "https://example.com/project.git" {
		t.Errorf("fetcher got url %q", fetcher.url)
	}
	if result.Documents != 1 {
		t.Errorf("Documents = %d, want 1", result.Documents)
	}
	// Title derives from the repository name when the job leaves it empty.
	if !strings.Contains(renderer.html, "project") {
		t.Errorf("derived title missing from HTML")
	}
}

func TestExportValidation(t *testing.T) {
	t.Parallel()

	e := newTestExporter(t, &fakeRenderer{})

	tests := []struct {
		name    string
		job     Job
		wantErr error
	}{
		{"no source", Job{}, ErrNoSource},
		{"both sources", Job{SourceDir: "a", RepoURL: "b"}, ErrNoSource},
		{"missing dir", Job{SourceDir: filepath.Join("nope", "missing")}, ErrNoSource},
		{"bad page format", Job{SourceDir: ".", Render: &RenderOptions{Format: "tabloid"}}, ErrInvalidPageFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := e.Export(context.Background(), tt.job)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Export() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestExportNoDocuments(t *testing.T) {
	t.Parallel()

	e := newTestExporter(t, &fakeRenderer{})

	_, err := e.Export(context.Background(), Job{SourceDir: t.TempDir()})
	if !errors.Is(err, ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}
}

func TestExportCollectsWarnings(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeDoc(t, src, "broken.md", "---\ntitle: [unclosed\n---\nbody\n")
	writeDoc(t, src, "component.mdx", "<YouTube id=\"x\" />\n")

	renderer := &fakeRenderer{}
	e := newTestExporter(t, renderer)

	result, err := e.Export(context.Background(), Job{
		SourceDir:  src,
		OutputPath: filepath.Join(t.TempDir(), "out.pdf"),
	})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var gotFrontMatter, gotComponent bool
	for _, w := range result.Warnings {
		if w.Path == "broken.md" {
			gotFrontMatter = true
		}
		if w.Path == "component.mdx" && strings.Contains(w.Message, "YouTube") {
			gotComponent = true
		}
	}
	if !gotFrontMatter {
		t.Errorf("expected a front matter warning, got %v", result.Warnings)
	}
	if !gotComponent {
		t.Errorf("expected a component warning, got %v", result.Warnings)
	}
}

func TestExportRenderFailure(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeDoc(t, src, "a.md", "# A\n")

	renderer := &fakeRenderer{err: ErrPDFGeneration}
	e := newTestExporter(t, renderer)

	_, err := e.Export(context.Background(), Job{SourceDir: src})
	if !errors.Is(err, ErrPDFGeneration) {
		t.Fatalf("expected ErrPDFGeneration, got %v", err)
	}
}

func TestExportDefaultOutputName(t *testing.T) {
	src := t.TempDir()
	writeDoc(t, src, "a.md", "# A\n")

	work := t.TempDir()
	t.Chdir(work)

	e := newTestExporter(t, &fakeRenderer{})
	e.now = func() time.Time { return time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC) }

	result, err := e.Export(context.Background(), Job{SourceDir: src, Title: "My Project"})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if result.OutputPath != "My_Project_2026-08-26.pdf" {
		t.Errorf("OutputPath = %q", result.OutputPath)
	}
	if _, err := os.Stat(filepath.Join(work, result.OutputPath)); err != nil {
		t.Errorf("default-named output not written: %v", err)
	}
}

func TestExportFooterDefaults(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeDoc(t, src, "a.md", "# A\n")

	renderer := &fakeRenderer{}
	e := newTestExporter(t, renderer)

	_, err := e.Export(context.Background(), Job{
		SourceDir:  src,
		Title:      "Footer Docs",
		Date:       "2026-01-01",
		OutputPath: filepath.Join(t.TempDir(), "o.pdf"),
	})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if renderer.opts == nil || !renderer.opts.DisplayHeaderFooter {
		t.Fatal("header/footer should default on")
	}
	if !strings.Contains(renderer.opts.FooterTemplate, "Footer Docs") ||
		!strings.Contains(renderer.opts.FooterTemplate, "2026-01-01") {
		t.Errorf("footer template should carry title and date, got %q", renderer.opts.FooterTemplate)
	}
}

func TestExportContextCancelled(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeDoc(t, src, "a.md", "# A\n")

	e := newTestExporter(t, &fakeRenderer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Export(ctx, Job{SourceDir: src}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestCloseReleasesRenderer(t *testing.T) {
	t.Parallel()

	renderer := &fakeRenderer{}
	e := newTestExporter(t, renderer)

	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !renderer.closed {
		t.Error("Close() should close the renderer")
	}
}

func TestRepoName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/withastro/docs.git", "docs"},
		{"https://github.com/withastro/docs", "docs"},
		{"git@github.com:org/project.git", "project"},
		{"https://example.com/docs/", "docs"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()
			if got := repoName(tt.url); got != tt.want {
				t.Errorf("repoName(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
