package pipeline

import (
	"fmt"
	"html"
	"strconv"
	"strings"
)

// DefaultTOCMaxDepth keeps sections, pages, and top-level headings in the
// table of contents.
const DefaultTOCMaxDepth = 3

// TocEntry is one line of the table of contents. Depth is the node's tree
// depth (section 0, page 1, headings below), used purely for indentation —
// it carries no pagination meaning. Navigation is anchor-based: Chrome's
// print pipeline cannot report per-anchor page placement, so entries carry
// no page numbers.
type TocEntry struct {
	Title    string
	AnchorID string
	Depth    int
}

// BuildTOC walks the tree depth-first and returns a flat entry sequence
// mirroring tree order (pre-order). Nodes deeper than maxDepth are pruned
// with their subtrees; maxDepth <= 0 means DefaultTOCMaxDepth. The
// traversal is deterministic: the same tree yields the same sequence.
func BuildTOC(tree *Tree, maxDepth int) []TocEntry {
	if maxDepth <= 0 {
		maxDepth = DefaultTOCMaxDepth
	}

	var entries []TocEntry
	var walk func(n *DocumentNode, depth int)
	walk = func(n *DocumentNode, depth int) {
		if depth > maxDepth {
			return
		}
		entries = append(entries, TocEntry{
			Title:    n.Title,
			AnchorID: n.AnchorID,
			Depth:    depth,
		})
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}

	for _, section := range tree.Sections {
		walk(section, 0)
	}
	return entries
}

// numberingState tracks hierarchical numbering for TOC entries, producing
// "1.", "1.1.", "1.2." sequences. Depth gaps are treated as direct children.
type numberingState struct {
	counters  [16]int
	lastDepth int // 1-based, 0 = nothing seen
}

// next returns the number string and effective depth for a 0-based entry
// depth.
func (n *numberingState) next(depth int) (string, int) {
	effective := depth + 1
	if effective >= len(n.counters) {
		effective = len(n.counters) - 1
	}
	if n.lastDepth > 0 && effective > n.lastDepth+1 {
		effective = n.lastDepth + 1
	}

	for i := effective; i < len(n.counters); i++ {
		n.counters[i] = 0
	}
	n.counters[effective-1]++
	n.lastDepth = effective

	var parts []string
	for i := 0; i < effective; i++ {
		parts = append(parts, strconv.Itoa(n.counters[i]))
	}
	return strings.Join(parts, ".") + ".", effective
}

// RenderTOC produces the TOC HTML block from an entry sequence. Entries are
// numbered hierarchically and indented by depth; each links to its anchor.
// Uses <div> elements instead of <ul>/<li> to avoid CSS list-style
// conflicts.
func RenderTOC(entries []TocEntry, title string) string {
	if len(entries) == 0 {
		return ""
	}

	var buf strings.Builder
	buf.WriteString(`<nav class="toc">`)

	if title != "" {
		buf.WriteString(`<h1 class="toc-title">`)
		buf.WriteString(html.EscapeString(title))
		buf.WriteString(`</h1>`)
	}

	buf.WriteString(`<div class="toc-list">`)

	numbering := &numberingState{}
	for _, e := range entries {
		num, effective := numbering.next(e.Depth)
		indent := float64(effective-1) * 1.5

		buf.WriteString(`<div class="toc-item"`)
		if indent > 0 {
			buf.WriteString(fmt.Sprintf(` style="padding-left:%.1fem"`, indent))
		}
		buf.WriteString(`><a href="#`)
		buf.WriteString(html.EscapeString(e.AnchorID))
		buf.WriteString(`">`)
		buf.WriteString(num)
		buf.WriteString(` `)
		buf.WriteString(html.EscapeString(e.Title))
		buf.WriteString(`</a></div>`)
	}

	buf.WriteString(`</div></nav>`)
	return buf.String()
}
