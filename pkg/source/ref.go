package source

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gitgem/gitgem/pkg/config"
	"github.com/gitgem/gitgem/pkg/store"
)

// FromDependency converts a manifest entry into a source. Git dependencies
// become a GitSource backed by st; path dependencies an InstalledSource.
func FromDependency(name string, dep config.Dependency, st store.Store, opts ...Option) (Fetcher, error) {
	if err := dep.Validate(name); err != nil {
		return nil, err
	}
	if dep.Git != "" {
		id := Identity{
			Name:       name,
			Repository: dep.Git,
			Reference:  dep.Ref,
			Submodules: dep.Submodules,
		}
		return NewGitSource(st, id, opts...), nil
	}
	return &InstalledSource{Dir: dep.Path}, nil
}

// ParseLocator turns a command-line argument into a dependency. Local
// filesystem paths (starting with ./, ../, or absolute) that are not git
// repositories produce a path dependency. Everything else is a repository
// locator, optionally suffixed with #ref.
func ParseLocator(arg string, isRepository func(string) bool) (config.Dependency, error) {
	if arg == "" {
		return config.Dependency{}, fmt.Errorf("empty locator")
	}

	locator, ref, _ := strings.Cut(arg, "#")
	if locator == "" {
		return config.Dependency{}, fmt.Errorf("invalid locator %q: missing repository", arg)
	}

	if isLocalPath(locator) && (isRepository == nil || !isRepository(locator)) {
		if ref != "" {
			return config.Dependency{}, fmt.Errorf("invalid locator %q: a ref needs a git repository", arg)
		}
		return config.Dependency{Path: locator}, nil
	}

	return config.Dependency{Git: locator, Ref: ref}, nil
}

// isLocalPath reports whether ref looks like a local filesystem path.
func isLocalPath(ref string) bool {
	return strings.HasPrefix(ref, "./") || strings.HasPrefix(ref, "../") || filepath.IsAbs(ref)
}
