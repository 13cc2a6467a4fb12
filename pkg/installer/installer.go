package installer

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/gitgem/gitgem/pkg/config"
	"github.com/gitgem/gitgem/pkg/source"
	"github.com/gitgem/gitgem/pkg/spec"
	"github.com/gitgem/gitgem/pkg/store"
	"github.com/gitgem/gitgem/pkg/vcs"
)

type Installer struct {
	Store   store.Store
	VCS     vcs.VCS
	Logger  *log.Logger
	Retries uint
	// Jobs bounds how many dependencies are installed at once.
	Jobs int
}

// Result is one installed dependency.
type Result struct {
	Name     string
	Source   source.Fetcher
	Resolved *source.ResolvedSource
	Specs    []*spec.Specification
}

// InstallAll resolves, checks out and scans every dependency of the
// manifest, several at a time. If a dependency is unchanged since the
// existing lockfile was written, its locked revision is checked out instead
// of re-resolving the reference. Returns a new lockfile capturing the
// resolved state, with results in name order.
func (inst *Installer) InstallAll(ctx context.Context, m *config.Manifest, existing *config.LockFile) (*config.LockFile, []Result, error) {
	if err := m.Validate(); err != nil {
		return nil, nil, err
	}

	names := config.SortedNames(m.Dependencies)
	results := make([]Result, len(names))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(inst.jobs())
	for i, name := range names {
		dep := m.Dependencies[name]
		var locked *config.LockedPackage
		if existing != nil {
			locked = existing.Find(name)
		}

		g.Go(func() error {
			res, err := inst.Install(ctx, name, dep, locked)
			if err != nil {
				return err
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	lf := &config.LockFile{Version: 1}
	for i, name := range names {
		lf.Packages = append(lf.Packages, LockEntry(name, m.Dependencies[name], results[i]))
	}
	return lf, results, nil
}

// Install fetches a single dependency and loads its specifications. locked
// may be nil.
func (inst *Installer) Install(ctx context.Context, name string, dep config.Dependency, locked *config.LockedPackage) (*Result, error) {
	resolveDep := dep
	if locked != nil && locked.Revision != "" && locked.Matches(dep) {
		inst.logger().Debug("Using locked revision", "name", name, "revision", locked.Revision)
		resolveDep.Ref = locked.Revision
	}

	src, err := inst.Source(name, resolveDep)
	if err != nil {
		return nil, err
	}

	resolved, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %q: %w", name, err)
	}
	// the lockfile records the reference that was asked for
	resolved.Ref = dep.Ref

	specs, err := spec.Discover(resolved.Dir, inst.logger())
	if err != nil {
		return nil, fmt.Errorf("loading specifications of %q: %w", name, err)
	}

	inst.logger().Info("Installed", "name", name, "source", src.String(), "specs", len(specs))
	return &Result{Name: name, Source: src, Resolved: resolved, Specs: specs}, nil
}

// Source builds the source for a dependency, wired to the installer's
// store and git backend.
func (inst *Installer) Source(name string, dep config.Dependency) (source.Fetcher, error) {
	src, err := source.FromDependency(name, dep, inst.Store,
		source.WithVCS(inst.VCS),
		source.WithLogger(inst.logger()),
		source.WithRetries(inst.Retries),
	)
	if err != nil {
		return nil, err
	}
	if installed, ok := src.(*source.InstalledSource); ok {
		installed.Logger = inst.logger()
	}
	return src, nil
}

func (inst *Installer) jobs() int {
	if inst.Jobs < 1 {
		return 1
	}
	return inst.Jobs
}

func (inst *Installer) logger() *log.Logger {
	if inst.Logger == nil {
		return log.New(io.Discard)
	}
	return inst.Logger
}

// LockEntry describes an installed dependency for the lockfile.
func LockEntry(name string, dep config.Dependency, res Result) config.LockedPackage {
	entry := config.LockedPackage{
		Name:       name,
		Git:        dep.Git,
		Ref:        dep.Ref,
		Submodules: dep.Submodules,
		Path:       dep.Path,
		Revision:   res.Resolved.Commit,
		Dir:        res.Resolved.Dir,
		Integrity:  res.Resolved.Integrity,
	}
	for _, s := range res.Specs {
		entry.Specs = append(entry.Specs, s.FullName())
	}
	return entry
}
