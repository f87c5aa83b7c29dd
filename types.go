package docs2pdf

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/docsforge/docs2pdf/internal/pipeline"
)

// Page format name constants.
const (
	PageFormatLetter = "letter"
	PageFormatA4     = "a4"
	PageFormatLegal  = "legal"
)

// pageDimensions maps format names to paper width and height in inches.
var pageDimensions = map[string][2]float64{
	PageFormatLetter: {8.5, 11},
	PageFormatA4:     {8.27, 11.69},
	PageFormatLegal:  {8.5, 14},
}

// Margin bounds in inches.
const (
	MinMargin     = 0.0
	MaxMargin     = 3.0
	DefaultMargin = 0.5
)

// Margins holds the four page margins in inches.
type Margins struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// UniformMargins returns Margins with the same value on all sides.
func UniformMargins(inches float64) Margins {
	return Margins{Top: inches, Right: inches, Bottom: inches, Left: inches}
}

// Validate checks that all margins are within bounds.
func (m Margins) Validate() error {
	for _, v := range []float64{m.Top, m.Right, m.Bottom, m.Left} {
		if v < MinMargin || v > MaxMargin {
			return fmt.Errorf("%w: %.2f (must be between %.2f and %.2f)", ErrInvalidMargin, v, MinMargin, MaxMargin)
		}
	}
	return nil
}

// RenderOptions is the configuration record handed to the render engine.
type RenderOptions struct {
	Format              string  // "letter", "a4", "legal"
	Margins             Margins // inches
	PrintBackground     bool
	DisplayHeaderFooter bool
	HeaderTemplate      string // Chrome header template HTML (optional)
	FooterTemplate      string // Chrome footer template HTML (optional)
}

// DefaultRenderOptions returns render options matching the defaults the
// tool ships with: A4, half-inch margins, backgrounds printed, page
// numbers in the native header/footer.
func DefaultRenderOptions() *RenderOptions {
	return &RenderOptions{
		Format:              PageFormatA4,
		Margins:             UniformMargins(DefaultMargin),
		PrintBackground:     true,
		DisplayHeaderFooter: true,
	}
}

// Validate checks that render options are valid.
// Returns nil if r is nil (nil means use defaults).
func (r *RenderOptions) Validate() error {
	if r == nil {
		return nil
	}
	if _, ok := pageDimensions[strings.ToLower(r.Format)]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPageFormat, r.Format)
	}
	return r.Margins.Validate()
}

// paper returns the page dimensions in inches for the configured format.
func (r *RenderOptions) paper() (width, height float64) {
	dims := pageDimensions[strings.ToLower(r.Format)]
	return dims[0], dims[1]
}

// StripMode selects how an unsupported MDX component is degraded.
type StripMode int

const (
	// StripUnwrap drops the component tags and keeps their inner content.
	StripUnwrap StripMode = iota
	// StripRemove drops the component and everything inside it.
	StripRemove
	// StripPlaceholder replaces the component with a plain-text marker.
	StripPlaceholder
)

// StripPolicy routes MDX component tags to strip modes. The zero value
// unwraps everything; NewExporter applies a default policy tuned for
// Astro's documentation components.
type StripPolicy struct {
	Default StripMode
	Tags    map[string]StripMode
}

// toPipelinePolicy converts the public policy to the internal type.
func (p StripPolicy) toPipelinePolicy() pipeline.StripPolicy {
	tags := make(map[string]pipeline.StripMode, len(p.Tags))
	for tag, mode := range p.Tags {
		tags[tag] = pipeline.StripMode(mode)
	}
	return pipeline.StripPolicy{
		Default: pipeline.StripMode(p.Default),
		Tags:    tags,
	}
}

// Warning is a recoverable degradation reported alongside a successful
// export.
type Warning struct {
	Stage   string
	Path    string
	Message string
}

func (w Warning) String() string {
	if w.Path == "" {
		return fmt.Sprintf("%s: %s", w.Stage, w.Message)
	}
	return fmt.Sprintf("%s: %s: %s", w.Stage, w.Path, w.Message)
}

// fromPipelineWarning converts the internal warning type.
func fromPipelineWarning(w pipeline.Warning) Warning {
	return Warning{Stage: w.Stage, Path: w.Path, Message: w.Message}
}

// Job describes one export run.
type Job struct {
	// SourceDir is a local directory of .md/.mdx files. Set either this or
	// RepoURL.
	SourceDir string

	// RepoURL is a git repository to clone (or update, when CheckoutDir
	// already holds a checkout). DocsDir selects the documentation
	// subdirectory inside the checkout.
	RepoURL     string
	Branch      string
	DocsDir     string
	CheckoutDir string

	// Title appears on the cover page and in the default output name.
	Title    string
	Subtitle string

	// Date accepts "auto", "auto:FORMAT", or a literal value. Empty means
	// "auto".
	Date string

	// OutputPath overrides the default "<Title>_<date>.pdf" name.
	OutputPath string

	// Stylesheet is the CSS file path. Empty means "styles.css" in the
	// working directory, falling back to the built-in default stylesheet.
	Stylesheet string

	// TOCTitle is the table of contents heading (default "Table of Contents").
	TOCTitle string

	// TOCDepth limits TOC nesting (0 = default).
	TOCDepth int

	// Render configures the PDF engine (nil = defaults).
	Render *RenderOptions
}

// ExportResult reports a successful export.
type ExportResult struct {
	OutputPath string
	Documents  int
	PageBreaks int
	Warnings   []Warning
}

// Option configures an Exporter.
type Option func(*Exporter)

// exporterConfig holds internal configuration for Exporter.
type exporterConfig struct {
	timeout time.Duration
	logger  *slog.Logger
	policy  *StripPolicy
}

// defaultTimeout is used when no timeout is specified. Rendering a large
// documentation tree takes Chrome a while.
const defaultTimeout = 2 * time.Minute

// WithTimeout sets the render timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("docs2pdf: WithTimeout duration must be positive")
	}
	return func(e *Exporter) {
		e.cfg.timeout = d
	}
}

// WithLogger sets the structured logger used for progress and warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Exporter) {
		e.cfg.logger = logger
	}
}

// WithStripPolicy overrides the MDX component strip policy.
func WithStripPolicy(p StripPolicy) Option {
	return func(e *Exporter) {
		e.cfg.policy = &p
	}
}

// WithRenderer injects a custom render backend (used by tests).
func WithRenderer(r Renderer) Option {
	return func(e *Exporter) {
		e.renderer = r
	}
}

// WithFetcher injects a custom repository fetcher (used by tests).
func WithFetcher(f RepoFetcher) Option {
	return func(e *Exporter) {
		e.fetcher = f
	}
}
