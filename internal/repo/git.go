// Package repo acquires documentation sources from git repositories.
// A checkout directory is reused between runs: the first run clones, later
// runs fetch and fast-forward instead of re-downloading the repository.
package repo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrFetch wraps all git failures.
var ErrFetch = errors.New("fetching repository")

// CommandRunner abstracts command execution to enable testing without real
// subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) (stdout string, stderr string, err error)
}

// ExecRunner implements CommandRunner using os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Fetcher clones or updates git checkouts.
type Fetcher struct {
	runner CommandRunner
}

// NewFetcher creates a Fetcher using the given runner.
func NewFetcher(runner CommandRunner) *Fetcher {
	return &Fetcher{runner: runner}
}

// Ensure makes dir hold an up-to-date checkout of url. A fresh directory
// gets a shallow clone; an existing checkout is fetched and reset to the
// remote branch so local drift never breaks the update.
func (f *Fetcher) Ensure(ctx context.Context, url, branch, dir string) error {
	if fi, err := os.Stat(filepath.Join(dir, ".git")); err == nil && fi.IsDir() {
		return f.update(ctx, branch, dir)
	}
	return f.clone(ctx, url, branch, dir)
}

func (f *Fetcher) clone(ctx context.Context, url, branch, dir string) error {
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrFetch, err)
	}

	args := []string{"clone", "--depth", "1"}
	if branch != "" {
		args = append(args, "--branch", branch)
	}
	args = append(args, url, dir)

	return f.git(ctx, "", args...)
}

func (f *Fetcher) update(ctx context.Context, branch, dir string) error {
	if err := f.git(ctx, dir, "fetch", "--depth", "1", "origin"); err != nil {
		return err
	}

	ref := "origin/HEAD"
	if branch != "" {
		if err := f.git(ctx, dir, "checkout", branch); err != nil {
			return err
		}
		ref = "origin/" + branch
	}

	return f.git(ctx, dir, "reset", "--hard", ref)
}

func (f *Fetcher) git(ctx context.Context, dir string, args ...string) error {
	_, stderr, err := f.runner.Run(ctx, dir, "git", args...)
	if err != nil {
		detail := strings.TrimSpace(stderr)
		if detail == "" {
			detail = err.Error()
		}
		return fmt.Errorf("%w: git %s: %s", ErrFetch, args[0], detail)
	}
	return nil
}
