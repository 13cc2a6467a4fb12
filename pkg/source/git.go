package source

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cenkalti/backoff/v5"
	"github.com/charmbracelet/log"

	"github.com/gitgem/gitgem/pkg/spec"
	"github.com/gitgem/gitgem/pkg/store"
	"github.com/gitgem/gitgem/pkg/vcs"
)

const (
	// DefaultReference is used when a dependency names no reference. In a
	// mirror it follows the upstream default branch.
	DefaultReference = "HEAD"

	shortRevisionLength = 12
)

// Identity is the part of a GitSource that determines equality and order.
type Identity struct {
	Name       string
	Repository string
	Reference  string
	Submodules bool
}

// GitSource is a package whose content lives in a git repository. The
// repository is mirrored once per locator and each resolved revision is
// checked out into its own install directory.
//
// A GitSource is safe for concurrent use. Identity fields are fixed at
// construction; the resolved revision is cache state refreshed by Cache.
type GitSource struct {
	id      Identity
	store   store.Store
	vcs     vcs.VCS
	logger  *log.Logger
	retries uint

	mu       sync.Mutex
	cached   bool
	revision string
}

var _ Source = &GitSource{}

// Option configures a GitSource.
type Option func(*GitSource)

// WithVCS sets the git backend. The default runs the git executable.
func WithVCS(v vcs.VCS) Option {
	return func(g *GitSource) { g.vcs = v }
}

// WithLogger sets the logger. Nil discards output.
func WithLogger(l *log.Logger) Option {
	return func(g *GitSource) { g.logger = l }
}

// WithRetries sets how many extra attempts a failing clone or fetch gets.
func WithRetries(n uint) Option {
	return func(g *GitSource) { g.retries = n }
}

// NewGitSource returns a source for id whose mirror and checkouts live in st.
func NewGitSource(st store.Store, id Identity, opts ...Option) *GitSource {
	if id.Reference == "" {
		id.Reference = DefaultReference
	}
	g := &GitSource{id: id, store: st}
	for _, opt := range opts {
		opt(g)
	}
	if g.vcs == nil {
		g.vcs = &vcs.Git{Logger: g.logger}
	}
	if g.logger == nil {
		g.logger = log.New(io.Discard)
	}
	return g
}

func (g *GitSource) Identity() Identity { return g.id }
func (g *GitSource) Name() string       { return g.id.Name }
func (g *GitSource) Repository() string { return g.id.Repository }
func (g *GitSource) Reference() string  { return g.id.Reference }
func (g *GitSource) Submodules() bool   { return g.id.Submodules }

func (g *GitSource) Kind() Kind { return KindGit }

func (g *GitSource) String() string {
	s := fmt.Sprintf("git[%s@%s]", g.id.Repository, g.id.Reference)
	if g.id.Submodules {
		s += " (with submodules)"
	}
	return s
}

// Equal reports whether both sources share the same identity. The resolved
// revision is not considered.
func (g *GitSource) Equal(other *GitSource) bool {
	if other == nil {
		return false
	}
	return g.id == other.id
}

func (g *GitSource) compareSameKind(other Source) int {
	o, ok := other.(*GitSource)
	if !ok {
		return 0
	}
	a, b := g.id, o.id
	return cmp.Or(
		cmp.Compare(a.Name, b.Name),
		cmp.Compare(a.Repository, b.Repository),
		cmp.Compare(a.Reference, b.Reference),
		compareBool(a.Submodules, b.Submodules),
	)
}

// URIHash is the hash of the repository locator.
func (g *GitSource) URIHash() string {
	return URIHash(g.id.Repository)
}

// RepoCacheDir is where the mirror of the repository is kept. It depends
// only on identity and never touches the network or disk.
func (g *GitSource) RepoCacheDir() string {
	return g.store.Path(g.cacheSegments()...)
}

func (g *GitSource) cacheSegments() []string {
	return g.store.RepoCacheSegments(g.id.Name, g.URIHash())
}

// Revision returns the revision resolved by the last RevParse, or "" if
// none has happened since the last Cache.
func (g *GitSource) Revision() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.revision
}

func (g *GitSource) isCached() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cached
}

// Cache creates or refreshes the local mirror of the repository. A missing
// or damaged mirror is cloned afresh; a valid one is fetched with forced
// updates of branches and tags.
func (g *GitSource) Cache(ctx context.Context) error {
	segs := g.cacheSegments()

	unlock, err := g.store.Lock(ctx, segs...)
	if err != nil {
		return g.cacheError(err)
	}
	defer unlock.Unlock()

	remote, err := g.remote()
	if err != nil {
		return g.cacheError(err)
	}

	dir := g.store.Path(segs...)
	if isMirror(dir) {
		g.logger.Info("Updating cache", "name", g.id.Name, "repository", g.id.Repository)
		err = g.retry(ctx, func() error {
			return g.vcs.Fetch(ctx, dir, remote)
		})
	} else {
		g.logger.Info("Caching", "name", g.id.Name, "repository", g.id.Repository)
		err = g.retry(ctx, func() error {
			return g.cloneMirror(ctx, remote, segs)
		})
	}
	if err != nil {
		return g.cacheError(err)
	}

	g.mu.Lock()
	g.cached = true
	g.revision = ""
	g.mu.Unlock()
	return nil
}

// cloneMirror clones into a temporary sibling and moves it over whatever is
// at the cache path, so a partial clone is never visible there.
func (g *GitSource) cloneMirror(ctx context.Context, remote string, segs []string) error {
	tmp, err := g.store.TempDir(segs...)
	if err != nil {
		return backoff.Permanent(err)
	}
	if err := g.vcs.MirrorClone(ctx, remote, tmp); err != nil {
		os.RemoveAll(tmp)
		return err
	}
	if err := g.store.Replace(tmp, segs...); err != nil {
		os.RemoveAll(tmp)
		return backoff.Permanent(err)
	}
	return nil
}

func (g *GitSource) retry(ctx context.Context, op func() error) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := op()
		if err != nil && ctx.Err() != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		if err != nil {
			g.logger.Debug("git operation failed", "name", g.id.Name, "err", err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(g.retries+1),
	)
	return err
}

// remote is the locator handed to git. Relative paths are made absolute so a
// fetch run inside the mirror still reaches the same repository; the cache
// key keeps using the locator as written.
func (g *GitSource) remote() (string, error) {
	loc := g.id.Repository
	if uriPattern.MatchString(loc) || isSCPLike(loc) || filepath.IsAbs(loc) {
		return loc, nil
	}
	abs, err := filepath.Abs(loc)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", loc, err)
	}
	return abs, nil
}

// isSCPLike reports whether loc has the [user@]host:path form.
func isSCPLike(loc string) bool {
	colon := strings.Index(loc, ":")
	return colon > 0 && !strings.Contains(loc[:colon], "/")
}

// isMirror reports whether dir holds a bare repository.
func isMirror(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, "HEAD")); err != nil {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, "objects"))
	return err == nil && info.IsDir()
}

// RevParse resolves the reference to a full commit id inside the mirror.
// It returns ErrNotCached until Cache has succeeded.
func (g *GitSource) RevParse(ctx context.Context) (string, error) {
	if !g.isCached() {
		return "", ErrNotCached
	}

	rev, err := g.vcs.ResolveReference(ctx, g.RepoCacheDir(), g.id.Reference)
	if err != nil {
		return "", g.referenceError(err)
	}

	g.mu.Lock()
	g.revision = rev
	g.mu.Unlock()
	return rev, nil
}

// DirShortref is the abbreviated revision used to name the install
// directory.
func (g *GitSource) DirShortref(ctx context.Context) (string, error) {
	rev, err := g.RevParse(ctx)
	if err != nil {
		return "", err
	}
	return shortRevision(rev), nil
}

func shortRevision(rev string) string {
	if len(rev) > shortRevisionLength {
		return rev[:shortRevisionLength]
	}
	return rev
}

// InstallDir is where the resolved revision is checked out.
func (g *GitSource) InstallDir(ctx context.Context) (string, error) {
	short, err := g.DirShortref(ctx)
	if err != nil {
		return "", err
	}
	return g.store.Path(g.store.InstallSegments(g.id.Name, short)...), nil
}

// Checkout materializes the resolved revision in the install directory,
// caching the repository first if needed. An install directory already at
// the revision is left alone apart from refreshing submodules. The directory
// is shared by every source with the same name and revision, so one populated
// with submodules keeps them when later used by a source without.
func (g *GitSource) Checkout(ctx context.Context) error {
	_, err := g.checkout(ctx)
	return err
}

// checkout is Checkout returning the revision it materialized.
func (g *GitSource) checkout(ctx context.Context) (string, error) {
	if !g.isCached() {
		if err := g.Cache(ctx); err != nil {
			return "", err
		}
	}

	rev, err := g.RevParse(ctx)
	if err != nil {
		return "", err
	}
	segs := g.store.InstallSegments(g.id.Name, shortRevision(rev))

	unlock, err := g.store.Lock(ctx, segs...)
	if err != nil {
		return "", g.checkoutError(rev, err)
	}
	defer unlock.Unlock()

	dir := g.store.Path(segs...)
	if g.checkedOut(ctx, dir, rev) {
		g.logger.Debug("Already checked out", "name", g.id.Name, "revision", rev)
		if !g.id.Submodules {
			return rev, nil
		}
		if err := g.vcs.UpdateSubmodules(ctx, dir); err != nil {
			g.store.Remove(segs...)
			return "", g.checkoutError(rev, err)
		}
		return rev, nil
	}

	g.logger.Info("Checking out", "name", g.id.Name, "revision", rev, "dir", dir)
	tmp, err := g.store.TempDir(segs...)
	if err != nil {
		return "", g.checkoutError(rev, err)
	}
	if err := g.materialize(ctx, tmp, rev); err != nil {
		os.RemoveAll(tmp)
		return "", g.checkoutError(rev, err)
	}
	if err := g.store.Replace(tmp, segs...); err != nil {
		os.RemoveAll(tmp)
		return "", g.checkoutError(rev, err)
	}
	return rev, nil
}

// materialize builds the tree for rev in dir while holding the mirror
// shared, so a concurrent Cache cannot rewrite it mid-clone.
func (g *GitSource) materialize(ctx context.Context, dir, rev string) error {
	unlock, err := g.store.RLock(ctx, g.cacheSegments()...)
	if err != nil {
		return err
	}
	defer unlock.Unlock()

	if err := g.vcs.CheckoutRevision(ctx, g.RepoCacheDir(), dir, rev); err != nil {
		return err
	}
	if g.id.Submodules {
		return g.vcs.UpdateSubmodules(ctx, dir)
	}
	return nil
}

func (g *GitSource) checkedOut(ctx context.Context, dir, rev string) bool {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		return false
	}
	head, err := g.vcs.ResolveReference(ctx, dir, "HEAD")
	return err == nil && head == rev
}

// Specs checks out the source and returns the specifications found in it,
// ordered by path.
func (g *GitSource) Specs(ctx context.Context) ([]*spec.Specification, error) {
	rev, err := g.checkout(ctx)
	if err != nil {
		return nil, err
	}
	dir := g.store.Path(g.store.InstallSegments(g.id.Name, shortRevision(rev))...)
	specs, err := spec.Discover(dir, g.logger)
	if err != nil {
		return nil, fmt.Errorf("discovering specifications of %s: %w", g.id.Name, err)
	}
	return specs, nil
}

// Fetch checks out the source and describes the result for the lockfile.
func (g *GitSource) Fetch(ctx context.Context) (*ResolvedSource, error) {
	rev, err := g.checkout(ctx)
	if err != nil {
		return nil, err
	}
	segs := g.store.InstallSegments(g.id.Name, shortRevision(rev))

	integrity, err := g.store.HashDir(segs...)
	if err != nil {
		return nil, fmt.Errorf("computing integrity hash: %w", err)
	}

	return &ResolvedSource{
		Dir:       g.store.Path(segs...),
		Commit:    rev,
		Ref:       g.id.Reference,
		Integrity: integrity,
	}, nil
}
