package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
)

// cliFlags holds all command-line flags.
type cliFlags struct {
	// source selection
	repo        string
	branch      string
	docsDir     string
	checkoutDir string
	source      string

	// document metadata
	title    string
	subtitle string
	date     string

	// output
	output     string
	stylesheet string

	// page layout
	pageSize       string
	margin         float64
	noBackground   bool
	noHeaderFooter bool

	// table of contents
	tocTitle string
	tocDepth int

	// common
	timeout string
	config  string
	quiet   bool
	verbose bool
	version bool
}

// parseFlags parses command-line flags from args (including the program
// name) and returns them with any positional arguments.
func parseFlags(args []string) (*cliFlags, []string, error) {
	fs := flag.NewFlagSet("docs2pdf", flag.ContinueOnError)
	f := &cliFlags{}

	fs.StringVarP(&f.repo, "repo", "r", "", "git repository URL to export")
	fs.StringVar(&f.branch, "branch", "", "git branch (default: repository default)")
	fs.StringVar(&f.docsDir, "docs-dir", "", "documentation subdirectory inside the checkout")
	fs.StringVar(&f.checkoutDir, "checkout-dir", "", "where the clone lives (default: temp/<name>)")
	fs.StringVarP(&f.source, "source", "s", "", "local directory of .md/.mdx files")

	fs.StringVar(&f.title, "title", "", "cover page title (\"\" = derived from source)")
	fs.StringVar(&f.subtitle, "subtitle", "", "cover page subtitle")
	fs.StringVar(&f.date, "date", "", "cover date: auto, auto:FORMAT, or literal (default: auto)")

	fs.StringVarP(&f.output, "output", "o", "", "output PDF path (\"\" = <Title>_<date>.pdf)")
	fs.StringVar(&f.stylesheet, "stylesheet", "", "CSS file (\"\" = styles.css or built-in default)")

	fs.StringVarP(&f.pageSize, "page-size", "p", "", "page size: letter, a4, legal (default: a4)")
	fs.Float64Var(&f.margin, "margin", 0, "page margin in inches, all sides (default: 0.5)")
	fs.BoolVar(&f.noBackground, "no-background", false, "skip CSS backgrounds in the PDF")
	fs.BoolVar(&f.noHeaderFooter, "no-header-footer", false, "disable native page header/footer")

	fs.StringVar(&f.tocTitle, "toc-title", "", "table of contents heading")
	fs.IntVar(&f.tocDepth, "toc-depth", 0, "max TOC nesting depth (1-6, default: 3)")

	fs.StringVarP(&f.timeout, "timeout", "t", "", "render timeout (e.g., 30s, 2m)")
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug detail")
	fs.BoolVar(&f.version, "version", false, "print version and exit")

	fs.Usage = func() { printUsage(os.Stderr, fs) }

	if err := fs.Parse(args[1:]); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}

func printUsage(w *os.File, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: docs2pdf [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Export a Markdown/MDX documentation tree to a single PDF.")
	fmt.Fprintln(w, "Name a source with --repo or --source (exactly one).")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  docs2pdf --repo https://github.com/withastro/docs --docs-dir src/content/docs")
	fmt.Fprintln(w, "  docs2pdf --source ./docs --title \"My Project\" -o my-project.pdf")
}
