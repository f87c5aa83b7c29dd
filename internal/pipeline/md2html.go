package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrHTMLConversion indicates HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// NormalizeResult is the outcome of normalizing one document body. Degraded
// output still flows forward: warnings accompany the HTML instead of
// replacing it.
type NormalizeResult struct {
	HTML     string
	Warnings []Warning
}

// Normalizer converts Markdown/MDX body text to an HTML fragment. The
// fragment form (no document shell) lets the composer place each document
// inside the final page structure.
type Normalizer struct {
	pre *MDXPreprocessor
	md  goldmark.Markdown
}

// NewNormalizer creates a Normalizer with GFM extensions and syntax
// highlighting. Code fences keep their declared language as a class
// (chroma classes mode) so the stylesheet controls coloring.
func NewNormalizer(policy StripPolicy) *Normalizer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,      // Tables, strikethrough, autolinks, task lists
			extension.Footnote, // [^1] footnotes
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
			// Note: WithUnsafe() intentionally NOT used. The code-header
			// feature uses placeholders converted after Goldmark.
		),
	)
	return &Normalizer{
		pre: &MDXPreprocessor{Policy: policy},
		md:  md,
	}
}

// Normalize runs MDX preprocessing, Markdown conversion, and image path
// resolution for one document. docDir is the directory of the source file;
// relative image references are resolved against it. Only context
// cancellation is returned as an error; everything else degrades to
// warnings.
func (n *Normalizer) Normalize(ctx context.Context, content, docDir string) (NormalizeResult, error) {
	if err := ctx.Err(); err != nil {
		return NormalizeResult{}, err
	}

	mdContent, warnings := n.pre.Preprocess(ctx, content)

	htmlContent, err := n.toHTML(ctx, mdContent)
	if err != nil {
		return NormalizeResult{}, err
	}

	htmlContent = ConvertCodeHeaderPlaceholders(htmlContent)

	htmlContent, pathWarnings, err := ResolveImagePaths(htmlContent, docDir)
	if err != nil {
		// A fragment that fails to re-parse is kept as-is: rendering must
		// not hard-fail on path resolution.
		warnings = append(warnings, Warning{
			Stage:   StageNormalize,
			Message: fmt.Sprintf("image path resolution skipped: %v", err),
		})
		return NormalizeResult{HTML: htmlContent, Warnings: warnings}, nil
	}
	warnings = append(warnings, pathWarnings...)

	return NormalizeResult{HTML: htmlContent, Warnings: warnings}, nil
}

// toHTML converts Markdown content to an HTML fragment. Supports context
// cancellation via goroutine + select since Goldmark doesn't natively
// support context.
func (n *Normalizer) toHTML(ctx context.Context, content string) (string, error) {
	type result struct {
		html string
		err  error
	}

	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := n.md.Convert([]byte(content), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrHTMLConversion, err)}
			return
		}
		done <- result{html: buf.String()}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.html, r.err
	}
}
