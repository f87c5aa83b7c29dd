package pipeline

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
)

// Code-header placeholders use Unicode Private Use Area characters, so they
// pass through Goldmark unchanged (no WithUnsafe needed). Post-processing
// converts them to a header <div> after HTML generation.
const (
	codeHeaderStart = "" // U+E002: Private Use Area
	codeHeaderEnd   = ""
)

// StripMode selects how an MDX component tag is degraded to plain Markdown.
type StripMode int

const (
	// StripUnwrap drops the component tags and keeps their inner content.
	StripUnwrap StripMode = iota
	// StripRemove drops the component and everything inside it.
	StripRemove
	// StripPlaceholder replaces the component with a plain-text marker.
	StripPlaceholder
)

// StripPolicy decides the StripMode per MDX component tag. The recognized
// set of tags is policy, not a hard-coded list: callers may route any tag
// to any mode.
type StripPolicy struct {
	Default StripMode
	Tags    map[string]StripMode
}

// DefaultStripPolicy keeps inner content for the container components that
// Astro docs use for layout, and drops purely interactive ones.
func DefaultStripPolicy() StripPolicy {
	return StripPolicy{
		Default: StripUnwrap,
		Tags: map[string]StripMode{
			"Tabs":        StripUnwrap,
			"TabItem":     StripUnwrap,
			"Aside":       StripUnwrap,
			"Steps":       StripUnwrap,
			"CardGrid":    StripUnwrap,
			"Card":        StripUnwrap,
			"LinkCard":    StripPlaceholder,
			"YouTube":     StripPlaceholder,
			"Tweet":       StripPlaceholder,
			"RecipeLinks": StripRemove,
		},
	}
}

// mode returns the StripMode for a tag name.
func (p StripPolicy) mode(tag string) StripMode {
	if m, ok := p.Tags[tag]; ok {
		return m
	}
	return p.Default
}

// imageExtensions are asset types an MDX import can bind to an identifier.
var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".webp": true, ".avif": true,
}

// Precompiled patterns for MDX constructs outside code fences.
var (
	crlfOrCR           = regexp.MustCompile(`\r\n?`)
	mdxCommentPattern  = regexp.MustCompile(`(?s)\{/\*.*?\*/\}`)
	importLinePattern  = regexp.MustCompile(`(?m)^import\s+(?:(?:([A-Za-z_]\w*)|\{[^}]*\})\s+from\s+)?['"]([^'"]+)['"];?[ \t]*\n?`)
	exportLinePattern  = regexp.MustCompile(`(?m)^export\s+[^\n]*\n?`)
	imageTagPattern    = regexp.MustCompile(`(?s)<Image\s+([^>]*?)/?>(?:\s*</Image>)?`)
	srcBracePattern    = regexp.MustCompile(`src=\{\s*([A-Za-z_]\w*)\s*\}`)
	srcQuotePattern    = regexp.MustCompile(`src="([^"]+)"`)
	altQuotePattern    = regexp.MustCompile(`alt="([^"]*)"`)
	componentPattern   = regexp.MustCompile(`<([A-Z][A-Za-z0-9]*)((?s)[^>]*?)(/?)>`)
	fenceOpenPattern   = regexp.MustCompile("^(`{3,})([A-Za-z0-9_+-]*)[ \t]*(.*)$")
	fenceTitlePattern  = regexp.MustCompile(`title="([^"]+)"`)
	codeHeaderInP      = strings.NewReplacer("<p>"+codeHeaderStart, `<div class="code-header"><i>`, codeHeaderEnd+"</p>", "</i></div>")
	codeHeaderBare     = strings.NewReplacer(codeHeaderStart, `<div class="code-header"><i>`, codeHeaderEnd, "</i></div>")
	multipleBlankLines = regexp.MustCompile(`\n{3,}`)
)

// maxComponentPasses bounds the strip loop against pathological input;
// each pass degrades one component tag.
const maxComponentPasses = 10000

// MDXPreprocessor lowers MDX constructs to plain Markdown before the
// CommonMark conversion. Embedded components that plain Markdown cannot
// express are degraded per the StripPolicy; each degradation is a Warning,
// not an error.
type MDXPreprocessor struct {
	Policy StripPolicy
}

// Preprocess applies all MDX transformations. The returned warnings carry
// stage and message; the caller attaches the document path.
func (p *MDXPreprocessor) Preprocess(ctx context.Context, content string) (string, []Warning) {
	if ctx.Err() != nil {
		return content, nil
	}

	content = crlfOrCR.ReplaceAllString(content, "\n")

	segments := splitFences(content)
	imports := collectImageImports(segments)

	var warnings []Warning
	stripped := map[string]StripMode{}

	var out strings.Builder
	out.Grow(len(content))
	for _, seg := range segments {
		if seg.fence {
			out.WriteString(rewriteFence(seg.text))
			continue
		}
		text := seg.text
		text = mdxCommentPattern.ReplaceAllString(text, "")
		text = importLinePattern.ReplaceAllString(text, "")
		text = exportLinePattern.ReplaceAllString(text, "")
		text = rewriteImageComponents(text, imports)
		text = stripComponents(text, p.Policy, stripped)
		out.WriteString(text)
	}

	for _, tag := range sortedTags(stripped) {
		warnings = append(warnings, Warning{
			Stage:   StageNormalize,
			Message: fmt.Sprintf("MDX component <%s> %s", tag, stripVerb(stripped[tag])),
		})
	}

	result := multipleBlankLines.ReplaceAllString(out.String(), "\n\n")
	return result, warnings
}

func stripVerb(m StripMode) string {
	switch m {
	case StripRemove:
		return "removed"
	case StripPlaceholder:
		return "replaced with placeholder"
	default:
		return "unwrapped"
	}
}

func sortedTags(m map[string]StripMode) []string {
	tags := make([]string, 0, len(m))
	for t := range m {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// segment is a run of document text that is either inside or outside a
// fenced code block. MDX transforms must never touch fence interiors.
type segment struct {
	text  string
	fence bool
}

// splitFences splits content into alternating text and fence segments.
// A fence segment includes its opening and closing fence lines.
func splitFences(content string) []segment {
	var segs []segment
	var cur strings.Builder
	inFence := false
	var fenceMark string

	flush := func(fence bool) {
		if cur.Len() == 0 {
			return
		}
		segs = append(segs, segment{text: cur.String(), fence: fence})
		cur.Reset()
	}

	for _, line := range strings.SplitAfter(content, "\n") {
		trimmed := strings.TrimLeft(line, " ")
		switch {
		case !inFence && strings.HasPrefix(trimmed, "```"):
			flush(false)
			inFence = true
			fenceMark = trimmed[:fenceRunLen(trimmed)]
			cur.WriteString(line)
		case inFence && strings.HasPrefix(trimmed, fenceMark) && strings.TrimSpace(strings.TrimLeft(trimmed, "`")) == "":
			cur.WriteString(line)
			flush(true)
			inFence = false
		default:
			cur.WriteString(line)
		}
	}
	flush(inFence)
	return segs
}

// fenceRunLen returns the length of the leading backtick run.
func fenceRunLen(s string) int {
	n := 0
	for n < len(s) && s[n] == '`' {
		n++
	}
	return n
}

// rewriteFence handles the opening fence line: an Astro title attribute
// becomes a code-header placeholder line above the fence, and the info
// string is reduced to the bare language so the highlighter sees a clean
// hint. The fence body is untouched.
func rewriteFence(fence string) string {
	openLine, rest, _ := strings.Cut(fence, "\n")
	m := fenceOpenPattern.FindStringSubmatch(openLine)
	if m == nil {
		return fence
	}
	marks, lang, attrs := m[1], m[2], m[3]
	if attrs == "" {
		return fence
	}

	var header string
	if tm := fenceTitlePattern.FindStringSubmatch(attrs); tm != nil {
		header = tm[1]
		if lang != "" {
			header += " (" + lang + ")"
		}
	}

	cleaned := marks + lang + "\n" + rest
	if header == "" {
		return cleaned
	}
	return codeHeaderStart + header + codeHeaderEnd + "\n\n" + cleaned
}

// ConvertCodeHeaderPlaceholders converts code-header placeholder markers to
// header divs. Called after Goldmark HTML conversion; the two-phase scheme
// keeps Goldmark running without WithUnsafe.
func ConvertCodeHeaderPlaceholders(htmlContent string) string {
	htmlContent = codeHeaderInP.Replace(htmlContent)
	return codeHeaderBare.Replace(htmlContent)
}

// collectImageImports scans text segments for image imports and returns the
// identifier-to-path bindings. The import lines themselves are removed later
// by the per-segment transforms.
func collectImageImports(segs []segment) map[string]string {
	imports := make(map[string]string)
	for _, seg := range segs {
		if seg.fence {
			continue
		}
		for _, m := range importLinePattern.FindAllStringSubmatch(seg.text, -1) {
			name, target := m[1], m[2]
			if name == "" {
				continue
			}
			if imageExtensions[strings.ToLower(path.Ext(target))] {
				imports[name] = target
			}
		}
	}
	return imports
}

// rewriteImageComponents lowers <Image .../> components to Markdown images.
// src may be a quoted path or a brace reference to an imported identifier.
func rewriteImageComponents(text string, imports map[string]string) string {
	return imageTagPattern.ReplaceAllStringFunc(text, func(tag string) string {
		attrs := imageTagPattern.FindStringSubmatch(tag)[1]

		var src string
		if m := srcBracePattern.FindStringSubmatch(attrs); m != nil {
			src = imports[m[1]]
		} else if m := srcQuotePattern.FindStringSubmatch(attrs); m != nil {
			src = m[1]
		}
		if src == "" {
			return ""
		}

		alt := ""
		if m := altQuotePattern.FindStringSubmatch(attrs); m != nil {
			alt = m[1]
		}
		return fmt.Sprintf("![%s](%s)", alt, src)
	})
}

// stripComponents degrades remaining MDX component tags per policy.
// Matching is best-effort: components nesting the same tag name inside
// themselves close at the first matching end tag.
func stripComponents(text string, policy StripPolicy, stripped map[string]StripMode) string {
	for pass := 0; pass < maxComponentPasses; pass++ {
		loc := componentPattern.FindStringSubmatchIndex(text)
		if loc == nil {
			return text
		}

		tag := text[loc[2]:loc[3]]
		selfClosing := loc[6] != loc[7]
		mode := policy.mode(tag)
		stripped[tag] = mode

		head := text[:loc[0]]
		tail := text[loc[1]:]

		inner := ""
		if !selfClosing {
			closing := "</" + tag + ">"
			if end := strings.Index(tail, closing); end != -1 {
				inner = tail[:end]
				tail = tail[end+len(closing):]
			}
		}

		switch mode {
		case StripRemove:
			text = head + tail
		case StripPlaceholder:
			text = head + "[" + tag + " component omitted]" + tail
		default: // StripUnwrap
			text = head + inner + tail
		}
	}
	return text
}
