package source

import (
	"errors"
	"fmt"

	"github.com/gitgem/gitgem/pkg/vcs"
)

// ErrNotCached is returned when an operation needs the resolved revision
// before Cache has succeeded.
var ErrNotCached = errors.New("repository has not been cached")

// CacheError reports that the mirror of a repository could not be created
// or refreshed.
type CacheError struct {
	Name       string
	Repository string
	Diagnostic string
	Err        error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("caching %s from %s: %v", e.Name, e.Repository, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }

// ReferenceError reports that a reference could not be resolved in the
// mirror.
type ReferenceError struct {
	Name       string
	Repository string
	Reference  string
	Diagnostic string
	Err        error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("resolving %s in %s (%s): %v", e.Reference, e.Repository, e.Name, e.Err)
}

func (e *ReferenceError) Unwrap() error { return e.Err }

// CheckoutError reports that the working tree for a revision, or one of its
// submodules, could not be materialized.
type CheckoutError struct {
	Name       string
	Repository string
	Revision   string
	Diagnostic string
	Err        error
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("checking out %s of %s at %s: %v", e.Name, e.Repository, e.Revision, e.Err)
}

func (e *CheckoutError) Unwrap() error { return e.Err }

func (g *GitSource) cacheError(err error) error {
	return &CacheError{
		Name:       g.id.Name,
		Repository: g.id.Repository,
		Diagnostic: vcs.Diagnostic(err),
		Err:        err,
	}
}

func (g *GitSource) referenceError(err error) error {
	return &ReferenceError{
		Name:       g.id.Name,
		Repository: g.id.Repository,
		Reference:  g.id.Reference,
		Diagnostic: vcs.Diagnostic(err),
		Err:        err,
	}
}

func (g *GitSource) checkoutError(revision string, err error) error {
	return &CheckoutError{
		Name:       g.id.Name,
		Repository: g.id.Repository,
		Revision:   revision,
		Diagnostic: vcs.Diagnostic(err),
		Err:        err,
	}
}
