// Package vcs abstracts the version-control operations needed to mirror a
// repository, resolve references in the mirror, and materialize working
// trees from it.
//
// Two implementations are provided: Git drives the git executable, and GoGit
// uses the go-git library in process. Both report failures as errors that
// carry the diagnostic output of the failed operation.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

//go:generate mockgen -destination=mocks/mock_vcs.go -package=mocks -source=vcs.go VCS

// VCS is the set of version-control operations a git source relies on.
// Every call blocks until the operation completes or ctx is done.
type VCS interface {
	// MirrorClone creates a mirror of remote in dir. dir must not exist
	// or be empty.
	MirrorClone(ctx context.Context, remote, dir string) error
	// Fetch updates the branches and tags of the mirror in dir from remote.
	Fetch(ctx context.Context, dir, remote string) error
	// ResolveReference resolves ref to a full commit id within the
	// repository in dir. Returns ErrReferenceNotFound if ref does not exist.
	ResolveReference(ctx context.Context, dir, ref string) (string, error)
	// CheckoutRevision creates a working tree in dir from the mirror at
	// mirrorDir, positioned at revision.
	CheckoutRevision(ctx context.Context, mirrorDir, dir, revision string) error
	// UpdateSubmodules initializes and updates all submodules of the working
	// tree in dir, recursively.
	UpdateSubmodules(ctx context.Context, dir string) error
}

var (
	// ErrReferenceNotFound is returned when a reference does not resolve.
	ErrReferenceNotFound = errors.New("reference not found")
	// ErrTimeout is returned when an operation exceeds its time budget.
	ErrTimeout = errors.New("operation timed out")
)

// CommandError describes a failed operation along with its diagnostic
// output.
type CommandError struct {
	Op     string
	Args   []string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Diagnostic returns the captured output of the failed operation, or the
// error text when nothing was captured.
func Diagnostic(err error) string {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		if out := strings.TrimSpace(cmdErr.Output); out != "" {
			return out
		}
		return cmdErr.Err.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// IsCommitID reports whether s is a full 40-character hex SHA-1 id.
func IsCommitID(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
