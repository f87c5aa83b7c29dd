package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docsforge/docs2pdf"
	"github.com/docsforge/docs2pdf/internal/config"
)

// run parses flags, merges config, and executes the export.
func run(args []string, stdout, stderr io.Writer) error {
	flags, rest, err := parseFlags(args)
	if err != nil {
		return err
	}
	if flags.version {
		fmt.Fprintf(stdout, "docs2pdf %s\n", Version)
		return nil
	}
	if len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v (sources are named with --repo or --source)", rest)
	}

	cfg := config.DefaultConfig()
	if flags.config != "" {
		cfg, err = config.LoadConfig(flags.config)
		if err != nil {
			return err
		}
	}

	job, timeout, err := buildJob(flags, cfg)
	if err != nil {
		return err
	}

	logger := newLogger(stderr, flags.quiet, flags.verbose)

	opts := []docs2pdf.Option{docs2pdf.WithLogger(logger)}
	if timeout > 0 {
		opts = append(opts, docs2pdf.WithTimeout(timeout))
	}

	exporter, err := docs2pdf.NewExporter(opts...)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := exporter.Close(); closeErr != nil {
			logger.Warn("closing browser", slog.String("error", closeErr.Error()))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := exporter.Export(ctx, job)
	if err != nil {
		return err
	}

	if !flags.quiet {
		for _, w := range result.Warnings {
			fmt.Fprintf(stderr, "warning: %s\n", w)
		}
		fmt.Fprintf(stdout, "%s (%d documents)\n", result.OutputPath, result.Documents)
	}

	return nil
}

// buildJob merges flags over config file values. Flags win.
func buildJob(flags *cliFlags, cfg *config.Config) (docs2pdf.Job, time.Duration, error) {
	job := docs2pdf.Job{
		SourceDir:   pick(flags.source, cfg.Source.Dir),
		RepoURL:     pick(flags.repo, cfg.Source.Repo),
		Branch:      pick(flags.branch, cfg.Source.Branch),
		DocsDir:     pick(flags.docsDir, cfg.Source.DocsDir),
		CheckoutDir: pick(flags.checkoutDir, cfg.Source.CheckoutDir),
		Title:       pick(flags.title, cfg.Document.Title),
		Subtitle:    pick(flags.subtitle, cfg.Document.Subtitle),
		Date:        pick(flags.date, cfg.Document.Date),
		OutputPath:  pick(flags.output, cfg.Output.Path),
		Stylesheet:  pick(flags.stylesheet, cfg.Output.Stylesheet),
		TOCTitle:    pick(flags.tocTitle, cfg.TOC.Title),
		TOCDepth:    flags.tocDepth,
	}
	if job.TOCDepth == 0 {
		job.TOCDepth = cfg.TOC.MaxDepth
	}

	render := docs2pdf.DefaultRenderOptions()
	if size := pick(flags.pageSize, cfg.Page.Size); size != "" {
		render.Format = size
	}
	margin := flags.margin
	if margin == 0 {
		margin = cfg.Page.Margin
	}
	if margin != 0 {
		render.Margins = docs2pdf.UniformMargins(margin)
	}
	if flags.noBackground || cfg.Page.NoBackground {
		render.PrintBackground = false
	}
	if flags.noHeaderFooter || cfg.Page.NoHeaderFooter {
		render.DisplayHeaderFooter = false
	}
	job.Render = render

	var timeout time.Duration
	if raw := pick(flags.timeout, cfg.Timeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return docs2pdf.Job{}, 0, fmt.Errorf("invalid timeout %q: use a positive duration like 30s or 2m", raw)
		}
		timeout = d
	}

	return job, timeout, nil
}

// pick returns the flag value when set, else the config value.
func pick(flagVal, cfgVal string) string {
	if flagVal != "" {
		return flagVal
	}
	return cfgVal
}

// newLogger builds the CLI's structured logger: debug when verbose, only
// errors when quiet.
func newLogger(w io.Writer, quiet, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
