package source

import (
	"cmp"
	"context"
	"slices"
)

// Kind identifies a source variant. Kinds are ordered by precedence: an
// installed copy outranks a git checkout, which outranks a package index.
type Kind int

const (
	KindRemote Kind = iota
	KindGit
	KindInstalled
)

func (k Kind) String() string {
	switch k {
	case KindRemote:
		return "remote"
	case KindGit:
		return "git"
	case KindInstalled:
		return "installed"
	default:
		return "unknown"
	}
}

// Source is a place a package can be obtained from.
type Source interface {
	Kind() Kind
	String() string
}

// Fetcher is a source that can place package content on disk.
type Fetcher interface {
	Source
	// Fetch makes the content available locally and describes it for the
	// lockfile.
	Fetch(ctx context.Context) (*ResolvedSource, error)
}

type ResolvedSource struct {
	Dir       string // Path to package content on disk
	Commit    string // Resolved commit id (git only)
	Ref       string // Reference the commit was resolved from (git only)
	Integrity string // SHA256 of directory contents (empty for installed)
}

// sameKindComparer orders two sources of the same kind.
type sameKindComparer interface {
	compareSameKind(other Source) int
}

// Compare returns -1, 0 or +1 as a ranks below, equal to, or above b.
// Sources of different kinds compare by Kind. Sources of the same kind
// compare by their identity, so Compare reports 0 only for equal sources.
func Compare(a, b Source) int {
	if c := cmp.Compare(a.Kind(), b.Kind()); c != 0 {
		return c
	}
	if sc, ok := a.(sameKindComparer); ok {
		return sc.compareSameKind(b)
	}
	return 0
}

// Sort orders sources from lowest to highest precedence. The order of
// sources comparing equal is preserved.
func Sort(sources []Source) {
	slices.SortStableFunc(sources, Compare)
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
