package vcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

// GoGit implements VCS with the go-git library. Local-path remotes still
// need git-upload-pack on PATH.
type GoGit struct {
	// Timeout bounds each operation. Zero means no limit beyond ctx.
	Timeout time.Duration
	Logger  *log.Logger
}

var _ VCS = &GoGit{}

var mirrorRefSpecs = []config.RefSpec{
	"+refs/heads/*:refs/heads/*",
	"+refs/tags/*:refs/tags/*",
}

func (g *GoGit) MirrorClone(ctx context.Context, remote, dir string) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	g.logger().Debug("cloning mirror", "remote", remote, "dir", dir)
	_, err := git.PlainCloneContext(ctx, dir, true, &git.CloneOptions{
		URL:    remote,
		Mirror: true,
	})
	return g.wrap(ctx, "mirror clone", err)
}

func (g *GoGit) Fetch(ctx context.Context, dir, remote string) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	repo, err := git.PlainOpen(dir)
	if err != nil {
		return g.wrap(ctx, "fetch", fmt.Errorf("opening %s: %w", dir, err))
	}

	g.logger().Debug("fetching", "remote", remote, "dir", dir)
	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteURL: remote,
		RefSpecs:  mirrorRefSpecs,
		Force:     true,
	})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		err = nil
	}
	return g.wrap(ctx, "fetch", err)
}

func (g *GoGit) ResolveReference(ctx context.Context, dir, ref string) (string, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	repo, err := git.PlainOpen(dir)
	if err != nil {
		return "", g.wrap(ctx, "rev-parse", fmt.Errorf("opening %s: %w", dir, err))
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) || errors.Is(err, plumbing.ErrObjectNotFound) {
			err = fmt.Errorf("%w: %s", ErrReferenceNotFound, ref)
		}
		return "", g.wrap(ctx, "rev-parse", err)
	}
	return hash.String(), nil
}

func (g *GoGit) CheckoutRevision(ctx context.Context, mirrorDir, dir, revision string) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	g.logger().Debug("checking out", "mirror", mirrorDir, "dir", dir, "revision", revision)
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:        mirrorDir,
		NoCheckout: true,
	})
	if err != nil {
		return g.wrap(ctx, "clone", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return g.wrap(ctx, "checkout", err)
	}
	err = wt.Checkout(&git.CheckoutOptions{
		Hash:  plumbing.NewHash(strings.ToLower(revision)),
		Force: true,
	})
	return g.wrap(ctx, "checkout", err)
}

func (g *GoGit) UpdateSubmodules(ctx context.Context, dir string) error {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	repo, err := git.PlainOpen(dir)
	if err != nil {
		return g.wrap(ctx, "submodule update", fmt.Errorf("opening %s: %w", dir, err))
	}
	wt, err := repo.Worktree()
	if err != nil {
		return g.wrap(ctx, "submodule update", err)
	}
	subs, err := wt.Submodules()
	if err != nil {
		return g.wrap(ctx, "submodule update", err)
	}

	g.logger().Debug("updating submodules", "dir", dir, "count", len(subs))
	err = subs.UpdateContext(ctx, &git.SubmoduleUpdateOptions{
		Init:              true,
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
	})
	return g.wrap(ctx, "submodule update", err)
}

func (g *GoGit) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.Timeout > 0 {
		return context.WithTimeout(ctx, g.Timeout)
	}
	return context.WithCancel(ctx)
}

func (g *GoGit) wrap(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return &CommandError{Op: op, Err: err}
}

func (g *GoGit) logger() *log.Logger {
	if g.Logger == nil {
		return log.New(io.Discard)
	}
	return g.Logger
}
