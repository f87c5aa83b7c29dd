package pipeline

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleTree() *Tree {
	docs := []*Document{
		{SourcePath: "guides/setup.md", HTMLBody: "<h1>Setup</h1><h2>Install</h2><h3>Linux</h3>"},
		{SourcePath: "guides/deploy.md", HTMLBody: "<h1>Deploy</h1>"},
		{SourcePath: "reference/cli.md", HTMLBody: "<h2>Flags</h2>"},
	}
	return BuildTree(docs)
}

func TestBuildTOCPreOrder(t *testing.T) {
	t.Parallel()

	entries := BuildTOC(sampleTree(), 6)

	var titles []string
	for _, e := range entries {
		titles = append(titles, e.Title)
	}
	want := []string{
		"Guides", "Setup", "Setup", "Install", "Linux",
		"Deploy", "Deploy",
		"Reference", "Cli", "Flags",
	}
	if diff := cmp.Diff(want, titles); diff != "" {
		t.Errorf("TOC order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildTOCDepthPruning(t *testing.T) {
	t.Parallel()

	entries := BuildTOC(sampleTree(), 2)

	for _, e := range entries {
		if e.Depth > 2 {
			t.Errorf("entry %q at depth %d survived pruning", e.Title, e.Depth)
		}
		if e.Title == "Linux" {
			t.Error("Linux (depth 4) should be pruned at maxDepth 2")
		}
	}
}

func TestBuildTOCDefaultDepth(t *testing.T) {
	t.Parallel()

	zero := BuildTOC(sampleTree(), 0)
	def := BuildTOC(sampleTree(), DefaultTOCMaxDepth)

	if diff := cmp.Diff(def, zero); diff != "" {
		t.Errorf("maxDepth 0 should mean the default (-default +zero):\n%s", diff)
	}
}

func TestBuildTOCDeterministic(t *testing.T) {
	t.Parallel()

	first := BuildTOC(sampleTree(), 6)
	for i := 0; i < 5; i++ {
		again := BuildTOC(sampleTree(), 6)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("run %d: TOC differs (-first +again):\n%s", i, diff)
		}
	}
}

func TestNumberingState(t *testing.T) {
	t.Parallel()

	n := &numberingState{}

	tests := []struct {
		depth int
		want  string
	}{
		{0, "1."},
		{1, "1.1."},
		{1, "1.2."},
		{2, "1.2.1."},
		{0, "2."},
		{1, "2.1."},
	}

	for _, tt := range tests {
		got, _ := n.next(tt.depth)
		if got != tt.want {
			t.Errorf("next(%d) = %q, want %q", tt.depth, got, tt.want)
		}
	}
}

func TestNumberingStateDepthGap(t *testing.T) {
	t.Parallel()

	n := &numberingState{}
	n.next(0)

	// Jumping from depth 0 to depth 3 is treated as a direct child.
	got, effective := n.next(3)
	if got != "1.1." {
		t.Errorf("gapped depth = %q, want %q", got, "1.1.")
	}
	if effective != 2 {
		t.Errorf("effective depth = %d, want 2", effective)
	}
}

func TestRenderTOC(t *testing.T) {
	t.Parallel()

	entries := []TocEntry{
		{Title: "Guides", AnchorID: "guides", Depth: 0},
		{Title: "Setup & Run", AnchorID: "setup-run", Depth: 1},
	}

	got := RenderTOC(entries, "Table of Contents")

	if !strings.Contains(got, `<nav class="toc">`) {
		t.Errorf("missing nav wrapper: %q", got)
	}
	if !strings.Contains(got, `<h1 class="toc-title">Table of Contents</h1>`) {
		t.Errorf("missing title: %q", got)
	}
	if !strings.Contains(got, `href="#guides"`) || !strings.Contains(got, `href="#setup-run"`) {
		t.Errorf("entries should link to anchors: %q", got)
	}
	if !strings.Contains(got, "1. Guides") || !strings.Contains(got, "1.1. Setup &amp; Run") {
		t.Errorf("entries should be numbered and escaped: %q", got)
	}
	if !strings.Contains(got, `padding-left:1.5em`) {
		t.Errorf("nested entries should be indented: %q", got)
	}
}

func TestRenderTOCEmpty(t *testing.T) {
	t.Parallel()

	if got := RenderTOC(nil, "Contents"); got != "" {
		t.Errorf("empty entries should render nothing, got %q", got)
	}
}

func TestRenderTOCNoTitle(t *testing.T) {
	t.Parallel()

	got := RenderTOC([]TocEntry{{Title: "A", AnchorID: "a"}}, "")
	if strings.Contains(got, "toc-title") {
		t.Errorf("no title element expected, got %q", got)
	}
}
