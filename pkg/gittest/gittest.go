// Package gittest builds throwaway git repositories for tests.
package gittest

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// Require skips the test if git is not available.
func Require(t testing.TB) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}
}

// Repo is a non-bare repository acting as an upstream remote.
type Repo struct {
	t   testing.TB
	Dir string
}

// New initializes an empty repository named name under a fresh temporary
// directory, on branch master.
func New(t testing.TB, name string) *Repo {
	t.Helper()
	Require(t)

	r := &Repo{t: t, Dir: filepath.Join(t.TempDir(), name)}
	r.Git("init", "--quiet", "--initial-branch=master", r.Dir)
	r.Git("-C", r.Dir, "config", "user.email", "test@test.com")
	r.Git("-C", r.Dir, "config", "user.name", "Test")
	r.Git("-C", r.Dir, "config", "commit.gpgsign", "false")
	return r
}

// Write creates or overwrites the file at rel with content.
func (r *Repo) Write(rel, content string) {
	r.t.Helper()
	path := filepath.Join(r.Dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		r.t.Fatalf("creating parent of %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		r.t.Fatalf("writing %s: %v", rel, err)
	}
}

// Commit stages everything and commits it, returning the new HEAD.
func (r *Repo) Commit(msg string) string {
	r.t.Helper()
	r.Git("-C", r.Dir, "add", "--all")
	r.Git("-C", r.Dir, "commit", "--quiet", "--allow-empty", "-m", msg)
	return r.Head()
}

// Head returns the commit id HEAD points to.
func (r *Repo) Head() string {
	r.t.Helper()
	return r.Git("-C", r.Dir, "rev-parse", "HEAD")
}

// Branch creates and switches to a new branch.
func (r *Repo) Branch(name string) {
	r.t.Helper()
	r.Git("-C", r.Dir, "checkout", "--quiet", "-b", name)
}

// AddSubmodule registers sub as a submodule at path and commits it.
func (r *Repo) AddSubmodule(sub *Repo, path string) string {
	r.t.Helper()
	r.Git("-C", r.Dir, "-c", "protocol.file.allow=always", "submodule", "--quiet", "add", sub.Dir, path)
	return r.Commit("add submodule " + path)
}

// Git runs git with args, failing the test on error, and returns the
// trimmed stdout.
func (r *Repo) Git(args ...string) string {
	r.t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.Output()
	if err != nil {
		var stderr string
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = string(exitErr.Stderr)
		}
		r.t.Fatalf("git %v: %v\n%s", args, err, stderr)
	}
	return strings.TrimSpace(string(out))
}
