package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const defaultGitCommand = "git"

// Git implements VCS by running the git executable.
type Git struct {
	// Command is the git executable to run. Defaults to "git".
	Command string
	// Timeout bounds each invocation. Zero means no limit beyond ctx.
	Timeout time.Duration
	// AllowFileProtocol lets submodules be cloned from local paths, which
	// git refuses by default since 2.38.1.
	AllowFileProtocol bool
	Logger            *log.Logger
}

var _ VCS = &Git{}

func (g *Git) MirrorClone(ctx context.Context, remote, dir string) error {
	_, err := g.run(ctx, "mirror clone", "clone", "--quiet", "--mirror", "--no-hardlinks", remote, dir)
	return err
}

func (g *Git) Fetch(ctx context.Context, dir, remote string) error {
	_, err := g.run(ctx, "fetch", "-C", dir, "fetch", "--quiet", "--force", "--prune", "--tags",
		remote, "+refs/heads/*:refs/heads/*")
	return err
}

func (g *Git) ResolveReference(ctx context.Context, dir, ref string) (string, error) {
	out, err := g.run(ctx, "rev-parse", "-C", dir, "rev-parse", "--verify", "--quiet",
		"--end-of-options", ref+"^{commit}")
	if err != nil {
		var cmdErr *CommandError
		var exitErr *exec.ExitError
		// --quiet suppresses output for unknown refs; a silent non-zero
		// exit therefore means the ref is missing rather than a broken repo.
		if errors.As(err, &cmdErr) && errors.As(err, &exitErr) && strings.TrimSpace(cmdErr.Output) == "" {
			cmdErr.Err = fmt.Errorf("%w: %s", ErrReferenceNotFound, ref)
		}
		return "", err
	}
	if !IsCommitID(out) {
		return "", &CommandError{Op: "rev-parse", Output: out, Err: fmt.Errorf("unexpected revision %q for %s", out, ref)}
	}
	return strings.ToLower(out), nil
}

func (g *Git) CheckoutRevision(ctx context.Context, mirrorDir, dir, revision string) error {
	if _, err := g.run(ctx, "clone", "clone", "--quiet", "--no-checkout", mirrorDir, dir); err != nil {
		return err
	}
	_, err := g.run(ctx, "reset", "-C", dir, "reset", "--quiet", "--hard", revision)
	return err
}

func (g *Git) UpdateSubmodules(ctx context.Context, dir string) error {
	_, err := g.run(ctx, "submodule update", "-C", dir, "submodule", "update", "--quiet", "--init", "--recursive")
	return err
}

// run executes git with args and returns its trimmed stdout. Failures are
// reported as *CommandError carrying stderr.
func (g *Git) run(ctx context.Context, op string, args ...string) (string, error) {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	var full []string
	if g.AllowFileProtocol {
		full = append(full, "-c", "protocol.file.allow=always")
	}
	full = append(full, args...)

	g.logger().Debug("running git", "op", op, "args", full)

	cmd := exec.CommandContext(ctx, g.command(), full...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		output := stderr.String()
		if strings.TrimSpace(output) == "" {
			output = stdout.String()
		}
		return "", &CommandError{Op: op, Args: full, Output: output, Err: err}
	}

	return strings.TrimSpace(stdout.String()), nil
}

func (g *Git) command() string {
	if g.Command == "" {
		return defaultGitCommand
	}
	return g.Command
}

func (g *Git) logger() *log.Logger {
	if g.Logger == nil {
		return log.New(io.Discard)
	}
	return g.Logger
}
