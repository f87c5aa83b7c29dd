package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeRunner records every git invocation and replies from a script.
type fakeRunner struct {
	calls  [][]string
	dirs   []string
	stderr string
	err    error
}

func (f *fakeRunner) Run(_ context.Context, dir, name string, args ...string) (string, string, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	f.dirs = append(f.dirs, dir)
	return "", f.stderr, f.err
}

func TestEnsureClonesFreshDirectory(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	f := NewFetcher(runner)
	dir := filepath.Join(t.TempDir(), "checkout")

	if err := f.Ensure(context.Background(), "https://example.com/docs.git", "main", dir); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}

	if len(runner.calls) != 1 {
		t.Fatalf("expected 1 git call, got %d: %v", len(runner.calls), runner.calls)
	}
	got := strings.Join(runner.calls[0], " ")
	want := "git clone --depth 1 --branch main https://example.com/docs.git " + dir
	if got != want {
		t.Errorf("call = %q, want %q", got, want)
	}
}

func TestEnsureCloneOmitsBranchWhenEmpty(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	f := NewFetcher(runner)
	dir := filepath.Join(t.TempDir(), "checkout")

	if err := f.Ensure(context.Background(), "https://example.com/docs.git", "", dir); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}

	got := strings.Join(runner.calls[0], " ")
	if strings.Contains(got, "--branch") {
		t.Errorf("clone without branch should not pass --branch, got %q", got)
	}
}

func TestEnsureUpdatesExistingCheckout(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}

	runner := &fakeRunner{}
	f := NewFetcher(runner)

	if err := f.Ensure(context.Background(), "https://example.com/docs.git", "main", dir); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}

	want := []string{
		"git fetch --depth 1 origin",
		"git checkout main",
		"git reset --hard origin/main",
	}
	if len(runner.calls) != len(want) {
		t.Fatalf("expected %d git calls, got %d: %v", len(want), len(runner.calls), runner.calls)
	}
	for i, w := range want {
		if got := strings.Join(runner.calls[i], " "); got != w {
			t.Errorf("call %d = %q, want %q", i, got, w)
		}
		if runner.dirs[i] != dir {
			t.Errorf("call %d ran in %q, want %q", i, runner.dirs[i], dir)
		}
	}
}

func TestEnsureUpdateWithoutBranchUsesRemoteHead(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}

	runner := &fakeRunner{}
	f := NewFetcher(runner)

	if err := f.Ensure(context.Background(), "https://example.com/docs.git", "", dir); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}

	last := strings.Join(runner.calls[len(runner.calls)-1], " ")
	if last != "git reset --hard origin/HEAD" {
		t.Errorf("last call = %q, want reset to origin/HEAD", last)
	}
}

func TestEnsureWrapsGitStderr(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{
		stderr: "fatal: repository not found",
		err:    fmt.Errorf("exit status 128"),
	}
	f := NewFetcher(runner)
	dir := filepath.Join(t.TempDir(), "checkout")

	err := f.Ensure(context.Background(), "https://example.com/missing.git", "", dir)
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
	if !strings.Contains(err.Error(), "repository not found") {
		t.Errorf("error should carry git stderr, got %q", err.Error())
	}
}

func TestEnsureFallsBackToExecErrorWithoutStderr(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: fmt.Errorf("exec: \"git\": executable file not found")}
	f := NewFetcher(runner)
	dir := filepath.Join(t.TempDir(), "checkout")

	err := f.Ensure(context.Background(), "https://example.com/docs.git", "", dir)
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
	if !strings.Contains(err.Error(), "executable file not found") {
		t.Errorf("error should carry exec error, got %q", err.Error())
	}
}
