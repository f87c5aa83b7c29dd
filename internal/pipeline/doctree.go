package pipeline

import (
	"fmt"
	"html"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/docsforge/docs2pdf/internal/frontmatter"
)

// rootSectionTitle groups documents that live directly in the docs root and
// carry no explicit section field.
const rootSectionTitle = "Overview"

// Document is one discovered source file on its way through the pipeline.
// SourcePath is relative to the docs root and slash-separated. The struct
// is filled once per stage and read-only afterwards: RawBody after
// front-matter extraction, HTMLBody after normalization (plus the anchor
// IDs written in during tree assembly).
type Document struct {
	SourcePath string
	Meta       frontmatter.Meta
	RawBody    string
	HTMLBody   string
}

// Title returns the front-matter title, falling back to a value derived
// from the file name.
func (d *Document) Title() string {
	return d.Meta.Title(deriveTitle(d.SourcePath))
}

// Section returns the top-level section key for the document: the
// front-matter section field when present, else the first path element.
// Documents at the docs root map to the empty key.
func (d *Document) Section() string {
	if s := d.Meta.Section(); s != "" {
		return s
	}
	dir := path.Dir(d.SourcePath)
	if dir == "." {
		return ""
	}
	first, _, _ := strings.Cut(dir, "/")
	return first
}

// order returns the front-matter order/weight, or a past-the-end default so
// unordered documents keep lexical file order after ordered ones.
func (d *Document) order() int {
	return d.Meta.Order(1 << 30)
}

// sortKey orders files lexically with index documents first within their
// directory.
func sortKey(sourcePath string) string {
	dir, base := path.Split(sourcePath)
	rank := "1"
	if name := strings.TrimSuffix(base, path.Ext(base)); name == "index" {
		rank = "0"
	}
	return dir + rank + base
}

// SortDocuments orders documents by front-matter order/weight ascending,
// ties broken by file path lexical order (index files first within their
// directory). The sort is stable and deterministic.
func SortDocuments(docs []*Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		oi, oj := docs[i].order(), docs[j].order()
		if oi != oj {
			return oi < oj
		}
		return sortKey(docs[i].SourcePath) < sortKey(docs[j].SourcePath)
	})
}

// deriveTitle builds a human-readable title from a source path: the file
// name without extension, words split on - and _, title-cased. Index files
// take their directory's name.
func deriveTitle(sourcePath string) string {
	base := path.Base(sourcePath)
	name := strings.TrimSuffix(base, path.Ext(base))
	if name == "index" {
		dir := path.Dir(sourcePath)
		if dir == "." {
			return rootSectionTitle
		}
		name = path.Base(dir)
	}
	return humanize(name)
}

// humanize converts a path segment to a title: "getting-started" becomes
// "Getting Started".
func humanize(segment string) string {
	words := strings.FieldsFunc(segment, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// DocumentNode is a node in the documentation hierarchy: section → page →
// heading. Level is 0 for section and page nodes and the Markdown heading
// level (1-6) for heading nodes. Headings nest strictly by document order
// and declared level; a child's level is NOT forced to parent level + 1, so
// tree depth mirrors the levels actually present.
type DocumentNode struct {
	Title    string
	Level    int
	AnchorID string
	Children []*DocumentNode
	Doc      *Document // owning document; nil for section nodes
}

// Tree is the assembled documentation hierarchy, one root per top-level
// section in first-appearance order.
type Tree struct {
	Sections []*DocumentNode
}

// anchorSet guarantees anchor uniqueness across the whole tree. Collisions
// get a numeric suffix. Modeled as a flat set checked during construction,
// not a graph edge.
type anchorSet struct {
	used map[string]bool
}

func newAnchorSet() *anchorSet {
	return &anchorSet{used: make(map[string]bool)}
}

// assign reserves a unique anchor ID derived from base.
func (a *anchorSet) assign(base string) string {
	if base == "" {
		base = "section"
	}
	if !a.used[base] {
		a.used[base] = true
		return base
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !a.used[candidate] {
			a.used[candidate] = true
			return candidate
		}
	}
}

// slugRunPattern collapses non-alphanumeric runs when slugifying.
var slugRunPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases text and replaces non-alphanumeric runs with hyphens.
func Slugify(text string) string {
	slug := slugRunPattern.ReplaceAllString(strings.ToLower(text), "-")
	return strings.Trim(slug, "-")
}

// headingTagPattern matches h1-h6 elements in normalized HTML.
// Captures: 1=level, 2=attributes, 3=inner HTML.
var headingTagPattern = regexp.MustCompile(`(?is)<h([1-6])([^>]*)>(.*?)</h[1-6]>`)

// htmlTagPattern matches HTML tags for stripping from heading text.
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// idAttrPattern matches a pre-existing id attribute inside a heading tag.
var idAttrPattern = regexp.MustCompile(`(?i)\s+id="[^"]*"`)

// stripHTMLTags removes HTML tags, decodes entities, and trims whitespace.
// Decoding is required to avoid double-encoding when the text is escaped
// again for TOC output.
func stripHTMLTags(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.TrimSpace(s)
}

// BuildTree assembles the documentation hierarchy from normalized documents
// in their final order (callers run SortDocuments first). It groups
// documents into sections, extracts heading nodes from each document's
// HTML, assigns tree-unique anchor IDs, and writes those IDs back into the
// heading tags so TOC links resolve.
func BuildTree(docs []*Document) *Tree {
	anchors := newAnchorSet()
	tree := &Tree{}
	sections := make(map[string]*DocumentNode)

	for _, doc := range docs {
		key := doc.Section()
		section, ok := sections[key]
		if !ok {
			title := rootSectionTitle
			if key != "" {
				title = humanize(key)
			}
			section = &DocumentNode{
				Title:    title,
				AnchorID: anchors.assign(Slugify(title)),
			}
			sections[key] = section
			tree.Sections = append(tree.Sections, section)
		}

		page := &DocumentNode{
			Title:    doc.Title(),
			AnchorID: anchors.assign(Slugify(doc.Title())),
			Doc:      doc,
		}
		section.Children = append(section.Children, page)

		doc.HTMLBody = attachHeadings(page, doc, anchors)
	}

	return tree
}

// attachHeadings extracts headings from the document HTML, nests them under
// the page node by declared level, and returns the HTML with anchor IDs
// injected into the heading tags.
func attachHeadings(page *DocumentNode, doc *Document, anchors *anchorSet) string {
	stack := []*DocumentNode{page}

	return headingTagPattern.ReplaceAllStringFunc(doc.HTMLBody, func(tag string) string {
		m := headingTagPattern.FindStringSubmatch(tag)
		level, _ := strconv.Atoi(m[1])
		attrs, inner := idAttrPattern.ReplaceAllString(m[2], ""), m[3]

		title := stripHTMLTags(inner)
		anchor := anchors.assign(Slugify(title))

		node := &DocumentNode{
			Title:    title,
			Level:    level,
			AnchorID: anchor,
			Doc:      doc,
		}

		// Pop to the nearest ancestor with a smaller level; the page node
		// (level 0) is always the floor.
		for len(stack) > 1 && stack[len(stack)-1].Level >= level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, node)
		stack = append(stack, node)

		return fmt.Sprintf(`<h%d id="%s"%s>%s</h%d>`, level, anchor, attrs, inner, level)
	})
}
