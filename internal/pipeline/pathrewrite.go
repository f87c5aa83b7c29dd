package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/docsforge/docs2pdf/internal/fileutil"
)

// ResolveImagePaths rewrites relative image references to absolute file://
// URLs when the asset exists under docDir. References that do not resolve
// to an existing file are left untouched and reported as warnings —
// rendering must not hard-fail on a missing image.
//
// Only img[src] is rewritten. Links between documents stay as authored;
// in-PDF navigation goes through TOC anchors.
func ResolveImagePaths(htmlContent, docDir string) (string, []Warning, error) {
	if docDir == "" {
		return htmlContent, nil, nil
	}

	absDir, err := filepath.Abs(docDir)
	if err != nil {
		return htmlContent, nil, err
	}

	doc, isFragment, err := parseHTML(htmlContent)
	if err != nil {
		return htmlContent, nil, err
	}

	var warnings []Warning
	resolveNode(doc, absDir, &warnings)

	rendered, err := renderHTML(doc, isFragment)
	if err != nil {
		return htmlContent, nil, err
	}
	return rendered, warnings, nil
}

// parseHTML parses HTML content, handling both full documents and fragments.
// Returns the parsed node, whether it was a fragment, and any error.
func parseHTML(content string) (*html.Node, bool, error) {
	trimmed := strings.ToLower(strings.TrimSpace(content))

	if strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		return doc, false, err
	}

	// Fragment: parse with body context to avoid wrapping
	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return nil, true, err
	}

	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, true, nil
}

// renderHTML renders the document back to string. For fragments, only the
// children are rendered (avoids adding an <html><body> wrapper).
func renderHTML(doc *html.Node, isFragment bool) (string, error) {
	var buf strings.Builder

	if isFragment {
		for c := doc.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return "", err
			}
		}
		return buf.String(), nil
	}

	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// resolveNode traverses the DOM and resolves relative image sources.
func resolveNode(n *html.Node, docDir string, warnings *[]Warning) {
	if n.Type == html.ElementNode && n.Data == "img" {
		resolveImgSrc(n, docDir, warnings)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		resolveNode(c, docDir, warnings)
	}
}

// resolveImgSrc rewrites a single img src if it is a relative path to an
// existing file under docDir.
func resolveImgSrc(n *html.Node, docDir string, warnings *[]Warning) {
	for i, attr := range n.Attr {
		if attr.Key != "src" || !isRelativePath(attr.Val) {
			continue
		}

		absPath := filepath.Join(docDir, filepath.FromSlash(attr.Val))

		if !fileutil.FileExists(absPath) {
			*warnings = append(*warnings, Warning{
				Stage:   StageNormalize,
				Message: "unresolved image reference: " + attr.Val,
			})
			continue
		}

		n.Attr[i].Val = pathToFileURL(absPath)
	}
}

// isRelativePath returns true if the path should be resolved locally.
func isRelativePath(path string) bool {
	if path == "" {
		return false
	}

	// Skip URLs (http, https, file, data, protocol-relative)
	if strings.HasPrefix(path, "http://") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "file://") ||
		strings.HasPrefix(path, "data:") ||
		strings.HasPrefix(path, "//") {
		return false
	}

	// Skip anchors
	if strings.HasPrefix(path, "#") {
		return false
	}

	return !filepath.IsAbs(path)
}

// pathToFileURL converts an absolute path to a file:// URL.
// Handles both Unix and Windows paths correctly.
func pathToFileURL(absPath string) string {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(absPath),
	}
	return u.String()
}
