package pipeline

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/docsforge/docs2pdf/internal/frontmatter"
)

func metaWith(t *testing.T, yaml string) frontmatter.Meta {
	t.Helper()
	res := frontmatter.Parse("---\n" + yaml + "\n---\nbody\n")
	if res.Warning != "" {
		t.Fatalf("unexpected front matter warning: %s", res.Warning)
	}
	return res.Meta
}

func TestSortDocumentsOrderThenPath(t *testing.T) {
	t.Parallel()

	docs := []*Document{
		{SourcePath: "guides/zeta.md"},
		{SourcePath: "guides/alpha.md", Meta: metaWith(t, "order: 2")},
		{SourcePath: "guides/beta.md", Meta: metaWith(t, "order: 1")},
		{SourcePath: "guides/index.md"},
	}

	SortDocuments(docs)

	want := []string{
		"guides/beta.md",  // order 1
		"guides/alpha.md", // order 2
		"guides/index.md", // unordered, index first
		"guides/zeta.md",
	}
	var got []string
	for _, d := range docs {
		got = append(got, d.SourcePath)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sort order mismatch (-want +got):\n%s", diff)
	}
}

func TestSortDocumentsWeightAlias(t *testing.T) {
	t.Parallel()

	docs := []*Document{
		{SourcePath: "a.md", Meta: metaWith(t, "weight: 5")},
		{SourcePath: "b.md", Meta: metaWith(t, "order: 1")},
	}

	SortDocuments(docs)

	if docs[0].SourcePath != "b.md" {
		t.Errorf("weight should participate in ordering, got %s first", docs[0].SourcePath)
	}
}

func TestSortDocumentsIsDeterministic(t *testing.T) {
	t.Parallel()

	build := func() []*Document {
		return []*Document{
			{SourcePath: "b/index.md"},
			{SourcePath: "a/setup.md"},
			{SourcePath: "a/index.md"},
			{SourcePath: "b/usage.md"},
		}
	}

	first := build()
	SortDocuments(first)

	for run := 0; run < 5; run++ {
		again := build()
		SortDocuments(again)
		for i := range first {
			if first[i].SourcePath != again[i].SourcePath {
				t.Fatalf("run %d: order differs at %d: %s vs %s",
					run, i, first[i].SourcePath, again[i].SourcePath)
			}
		}
	}
}

func TestDeriveTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"getting-started.md", "Getting Started"},
		{"guides/deploy_site.mdx", "Deploy Site"},
		{"guides/index.md", "Guides"},
		{"index.md", "Overview"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			d := &Document{SourcePath: tt.path}
			if got := d.Title(); got != tt.want {
				t.Errorf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDocumentSectionPrecedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  *Document
		want string
	}{
		{
			name: "front matter wins",
			doc:  &Document{SourcePath: "guides/a.md", Meta: metaWith(t, "section: Reference")},
			want: "Reference",
		},
		{
			name: "first path element",
			doc:  &Document{SourcePath: "guides/nested/a.md"},
			want: "guides",
		},
		{
			name: "root document",
			doc:  &Document{SourcePath: "readme.md"},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.doc.Section(); got != tt.want {
				t.Errorf("Section() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Getting Started", "getting-started"},
		{"What's New?", "what-s-new"},
		{"  spaces  ", "spaces"},
		{"CamelCase Heading", "camelcase-heading"},
		{"100% coverage", "100-coverage"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuildTreeHeadingNesting(t *testing.T) {
	t.Parallel()

	doc := &Document{
		SourcePath: "guides/setup.md",
		HTMLBody: `<h1>Setup</h1><p>a</p>` +
			`<h2>Install</h2><p>b</p>` +
			`<h2>Configure</h2>` +
			`<h3>Env Vars</h3>` +
			`<h2>Verify</h2>`,
	}

	tree := BuildTree([]*Document{doc})

	if len(tree.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(tree.Sections))
	}
	page := tree.Sections[0].Children[0]

	// Heading levels [1,2,2,3,2] nest as h1 > (h2, h2 > h3, h2).
	h1 := page.Children
	if len(h1) != 1 || h1[0].Title != "Setup" {
		t.Fatalf("page should have one h1 child, got %+v", h1)
	}
	h2s := h1[0].Children
	if len(h2s) != 3 {
		t.Fatalf("expected 3 h2 nodes under Setup, got %d", len(h2s))
	}
	if h2s[0].Title != "Install" || h2s[1].Title != "Configure" || h2s[2].Title != "Verify" {
		t.Errorf("h2 titles wrong: %s, %s, %s", h2s[0].Title, h2s[1].Title, h2s[2].Title)
	}
	if len(h2s[1].Children) != 1 || h2s[1].Children[0].Title != "Env Vars" {
		t.Errorf("h3 should nest under Configure, got %+v", h2s[1].Children)
	}
}

func TestBuildTreeSkippedLevelsKeepDocumentOrder(t *testing.T) {
	t.Parallel()

	doc := &Document{
		SourcePath: "a.md",
		HTMLBody:   `<h2>Deep First</h2><h1>Top Later</h1>`,
	}

	tree := BuildTree([]*Document{doc})
	page := tree.Sections[0].Children[0]

	if len(page.Children) != 2 {
		t.Fatalf("both headings should attach to the page, got %d", len(page.Children))
	}
	if page.Children[0].Title != "Deep First" || page.Children[1].Title != "Top Later" {
		t.Errorf("document order must be preserved: %+v", page.Children)
	}
}

func TestBuildTreeAnchorUniqueness(t *testing.T) {
	t.Parallel()

	docs := []*Document{
		{SourcePath: "a/usage.md", HTMLBody: "<h2>Options</h2>"},
		{SourcePath: "b/usage.md", HTMLBody: "<h2>Options</h2>"},
	}

	tree := BuildTree(docs)

	seen := map[string]bool{}
	var walk func(n *DocumentNode)
	walk = func(n *DocumentNode) {
		if seen[n.AnchorID] {
			t.Errorf("duplicate anchor %q", n.AnchorID)
		}
		seen[n.AnchorID] = true
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, s := range tree.Sections {
		walk(s)
	}
}

func TestBuildTreeInjectsAnchorIDs(t *testing.T) {
	t.Parallel()

	doc := &Document{SourcePath: "a.md", HTMLBody: `<h2 class="big">Install</h2>`}
	BuildTree([]*Document{doc})

	if !strings.Contains(doc.HTMLBody, `<h2 id="install" class="big">Install</h2>`) {
		t.Errorf("anchor should be injected keeping other attributes, got %q", doc.HTMLBody)
	}
}

func TestBuildTreeReplacesExistingHeadingIDs(t *testing.T) {
	t.Parallel()

	doc := &Document{SourcePath: "a.md", HTMLBody: `<h2 id="old">Install</h2>`}
	BuildTree([]*Document{doc})

	if strings.Contains(doc.HTMLBody, `id="old"`) {
		t.Errorf("pre-existing id should be replaced, got %q", doc.HTMLBody)
	}
	if !strings.Contains(doc.HTMLBody, `id="install"`) {
		t.Errorf("assigned anchor missing, got %q", doc.HTMLBody)
	}
}

func TestBuildTreeSectionGrouping(t *testing.T) {
	t.Parallel()

	docs := []*Document{
		{SourcePath: "index.md"},
		{SourcePath: "guides/a.md"},
		{SourcePath: "guides/b.md"},
		{SourcePath: "reference/x.md"},
	}

	tree := BuildTree(docs)

	if len(tree.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(tree.Sections))
	}
	if tree.Sections[0].Title != "Overview" {
		t.Errorf("root docs should land in %q, got %q", "Overview", tree.Sections[0].Title)
	}
	if tree.Sections[1].Title != "Guides" || len(tree.Sections[1].Children) != 2 {
		t.Errorf("guides section wrong: %+v", tree.Sections[1])
	}
	if tree.Sections[2].Title != "Reference" {
		t.Errorf("sections should appear in first-document order, got %q", tree.Sections[2].Title)
	}
}

func TestBuildTreeHeadingTitleStripsMarkup(t *testing.T) {
	t.Parallel()

	doc := &Document{SourcePath: "a.md", HTMLBody: `<h2>Use <code>npm&amp;co</code></h2>`}
	tree := BuildTree([]*Document{doc})

	node := tree.Sections[0].Children[0].Children[0]
	if node.Title != "Use npm&co" {
		t.Errorf("heading title should be plain text, got %q", node.Title)
	}
}
